//go:build arm64 && !purego

package kernel

import (
	_ "github.com/meko-audio/fircrossover/internal/kernel/arm64/neon"
	_ "github.com/meko-audio/fircrossover/internal/kernel/generic"
)
