package filterlib

import "math"

// Resampler converts a filter's tap vector from the sample rate it was
// designed at to a session's runtime sample rate, using windowed-sinc
// interpolation. This runs once at construction time, before a
// crossover.Convolution is built from the resulting taps — never on the
// realtime audio path.
//
// Adapted from pkg/resampler.Resampler: the sinc/window math is
// unchanged, but ResampleMultiChannel's [channel][sample] shape collapses
// to the single coefficient vector a FilterSet carries.
type Resampler struct {
	sincLobes int
}

// NewResampler creates a Resampler with default quality (16 sinc lobes).
func NewResampler() *Resampler {
	return &Resampler{sincLobes: 16}
}

// NewResamplerWithQuality creates a Resampler with the given number of
// sinc lobes on each side, clamped to [4, 64]. More lobes trade speed for
// stopband rejection.
func NewResamplerWithQuality(lobes int) *Resampler {
	if lobes < 4 {
		lobes = 4
	}
	if lobes > 64 {
		lobes = 64
	}

	return &Resampler{sincLobes: lobes}
}

func sinc(x float64) float64 {
	if math.Abs(x) < 1e-10 {
		return 1.0
	}

	pix := math.Pi * x

	return math.Sin(pix) / pix
}

// blackmanWindow evaluates the Blackman window at x in [-1, 1]; returns 0
// outside that range.
func blackmanWindow(x float64) float64 {
	if x < -1.0 || x > 1.0 {
		return 0.0
	}

	t := (x + 1.0) / 2.0

	return 0.42 - 0.5*math.Cos(2*math.Pi*t) + 0.08*math.Cos(4*math.Pi*t)
}

// Resample converts taps from srcRate to dstRate.
func (r *Resampler) Resample(taps []float32, srcRate, dstRate float64) []float32 {
	if len(taps) == 0 {
		return []float32{}
	}

	if srcRate == dstRate {
		result := make([]float32, len(taps))
		copy(result, taps)

		return result
	}

	ratio := dstRate / srcRate
	inputLen := len(taps)
	outputLen := int(math.Round(float64(inputLen) * ratio))

	if outputLen == 0 {
		return []float32{}
	}

	output := make([]float32, outputLen)

	for i := 0; i < outputLen; i++ {
		inputPos := float64(i) / ratio

		filterRatio := 1.0
		if ratio < 1.0 {
			filterRatio = ratio
		}

		windowRadius := float64(r.sincLobes) / filterRatio
		startIdx := int(math.Floor(inputPos - windowRadius))
		endIdx := int(math.Ceil(inputPos + windowRadius))

		if startIdx < 0 {
			startIdx = 0
		}
		if endIdx >= inputLen {
			endIdx = inputLen - 1
		}

		var sum, weightSum float64

		for j := startIdx; j <= endIdx; j++ {
			d := inputPos - float64(j)
			scaledD := d * filterRatio

			weight := sinc(scaledD) * blackmanWindow(d/windowRadius)

			sum += float64(taps[j]) * weight
			weightSum += weight
		}

		if weightSum > 0 {
			output[i] = float32(sum / weightSum)
		}
	}

	return output
}

// ResampleFilterSet returns a copy of fs with its coefficients resampled
// to dstRate and its metadata's SampleRate/Length updated to match.
func (r *Resampler) ResampleFilterSet(fs *FilterSet, dstRate float64) *FilterSet {
	taps := r.Resample(fs.Coefficients, fs.Metadata.SampleRate, dstRate)

	resampled := NewFilterSet(fs.Metadata.Name, dstRate, taps)
	resampled.Metadata.Description = fs.Metadata.Description
	resampled.Metadata.Category = fs.Metadata.Category
	resampled.Metadata.Tags = append([]string{}, fs.Metadata.Tags...)

	return resampled
}

// CalculateOutputLength returns the expected tap count for resampling
// inputLen taps from srcRate to dstRate.
func CalculateOutputLength(inputLen int, srcRate, dstRate float64) int {
	if inputLen == 0 {
		return 0
	}

	return int(math.Round(float64(inputLen) * dstRate / srcRate))
}
