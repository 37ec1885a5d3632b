//go:build arm64

package cpufeatures

import "golang.org/x/sys/cpu"

func detectImpl() Features {
	f := baseFeatures()
	f.HasNEON = cpu.ARM64.HasASIMD

	return f
}
