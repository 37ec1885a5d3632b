// Package f16 provides IEEE 754 half-precision (float16) conversion
// utilities for filter coefficient storage.
package f16

import (
	"encoding/binary"
	"math"
)

// EncodeCoefficients converts a slice of float32 filter taps to IEEE 754
// half-precision (f16) bytes. Output is little-endian, 2 bytes per tap.
func EncodeCoefficients(taps []float32) []byte {
	result := make([]byte, len(taps)*2)
	for i, v := range taps {
		binary.LittleEndian.PutUint16(result[i*2:], float32ToF16(v))
	}

	return result
}

// DecodeCoefficients converts f16-encoded bytes back to float32 filter
// taps. data must be little-endian encoded, 2 bytes per tap.
func DecodeCoefficients(data []byte) []float32 {
	if len(data)%2 != 0 {
		panic("f16: DecodeCoefficients: input length must be even")
	}

	result := make([]float32, len(data)/2)
	for i := 0; i < len(data); i += 2 {
		bits := binary.LittleEndian.Uint16(data[i : i+2])
		result[i/2] = f16ToFloat32(bits)
	}

	return result
}

// float32ToF16 converts a single float32 value to IEEE 754 half-precision
// (16-bit) representation.
func float32ToF16(value float32) uint16 {
	bits := math.Float32bits(value)

	sign := (bits >> 31) & 0x1
	exponent := (bits >> 23) & 0xFF
	mantissa := bits & 0x7FFFFF

	if exponent == 0xFF {
		if mantissa == 0 {
			return uint16((sign << 15) | 0x7C00)
		}
		// NaN - preserve quiet/signaling bit
		return uint16((sign << 15) | 0x7C00 | ((mantissa >> 13) & 0x3FF))
	}

	if exponent == 0 {
		if mantissa == 0 {
			return uint16(sign << 15)
		}
		// Subnormal float32 flushes to zero in f16.
		return uint16(sign << 15)
	}

	// Rebias exponent from float32 (127) to float16 (15).
	newExponent := int(exponent) - 127 + 15

	if newExponent >= 31 {
		return uint16((sign << 15) | 0x7C00)
	}

	if newExponent <= 0 {
		return uint16(sign << 15)
	}

	// Round mantissa from 23 bits to 10, rounding halfway cases up in
	// magnitude.
	roundedMantissa := (mantissa + 0x1000) >> 13

	if roundedMantissa > 0x3FF {
		newExponent++
		roundedMantissa = 0
		if newExponent >= 31 {
			return uint16((sign << 15) | 0x7C00)
		}
	}

	return uint16((sign << 15) | (uint32(newExponent) << 10) | (roundedMantissa & 0x3FF))
}

// f16ToFloat32 converts a single IEEE 754 half-precision (16-bit) value to
// float32.
func f16ToFloat32(bits uint16) float32 {
	sign := uint32((bits >> 15) & 0x1)
	exponent := uint32((bits >> 10) & 0x1F)
	mantissa := uint32(bits & 0x3FF)

	if exponent == 31 {
		if mantissa == 0 {
			return math.Float32frombits((sign << 31) | 0x7F800000)
		}
		return math.Float32frombits((sign << 31) | 0x7FC00000 | (mantissa << 13))
	}

	if exponent == 0 {
		if mantissa == 0 {
			return math.Float32frombits(sign << 31)
		}
		exponent = 1
	}

	newExponent := exponent - 15 + 127
	newMantissa := mantissa << 13
	f32bits := (sign << 31) | (newExponent << 23) | newMantissa

	return math.Float32frombits(f32bits)
}

// Stats reports float32<->f16 round-trip conversion quality.
type Stats struct {
	MaxAbsError float32
	MaxRelError float32
	MeanError   float32
	SNR         float32 // Signal-to-Noise Ratio in dB
}

// AnalyzeConversionError round-trips taps through f16 and reports the
// resulting error statistics, used by pkg/filterlib to surface
// compression quality at import time.
func AnalyzeConversionError(taps []float32) Stats {
	if len(taps) == 0 {
		return Stats{}
	}

	reconstructed := DecodeCoefficients(EncodeCoefficients(taps))

	var maxAbsErr, maxRelErr, sumAbsErr, sumSqError float32
	var signalPower float32

	for i, orig := range taps {
		diff := reconstructed[i] - orig
		abserr := diff
		if abserr < 0 {
			abserr = -abserr
		}

		if abserr > maxAbsErr {
			maxAbsErr = abserr
		}

		sumAbsErr += abserr

		absOrig := orig
		if absOrig < 0 {
			absOrig = -absOrig
		}
		if absOrig > 1e-10 {
			relerr := abserr / absOrig
			if relerr > maxRelErr {
				maxRelErr = relerr
			}
		}

		sumSqError += diff * diff
		signalPower += orig * orig
	}

	meanError := sumAbsErr / float32(len(taps))

	snr := float32(0)
	if sumSqError > 0 {
		noisePower := sumSqError / float32(len(taps))
		signalPower = signalPower / float32(len(taps))
		if signalPower > 0 {
			snr = 10 * float32(math.Log10(float64(signalPower/noisePower)))
		}
	}

	return Stats{
		MaxAbsError: maxAbsErr,
		MaxRelError: maxRelErr,
		MeanError:   meanError,
		SNR:         snr,
	}
}
