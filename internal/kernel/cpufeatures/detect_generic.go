//go:build !amd64 && !arm64

package cpufeatures

func detectImpl() Features {
	return baseFeatures()
}
