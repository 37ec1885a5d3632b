//go:build amd64 && !purego

package kernel

import (
	_ "github.com/meko-audio/fircrossover/internal/kernel/amd64/avx2"
	_ "github.com/meko-audio/fircrossover/internal/kernel/generic"
)
