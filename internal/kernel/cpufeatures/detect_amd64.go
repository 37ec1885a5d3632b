//go:build amd64

package cpufeatures

import "golang.org/x/sys/cpu"

func detectImpl() Features {
	f := baseFeatures()
	f.HasAVX2 = cpu.X86.HasAVX2

	return f
}
