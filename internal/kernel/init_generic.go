//go:build (!amd64 && !arm64) || purego

package kernel

import (
	_ "github.com/meko-audio/fircrossover/internal/kernel/generic"
)
