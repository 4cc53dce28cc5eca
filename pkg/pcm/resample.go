package pcm

import "math"

// Resample converts a mono float sample buffer from srcRate to dstRate using
// linear interpolation. Source positions past either end of the input read as
// zero. When the rates match the input is returned unchanged.
func Resample(input []float32, srcRate, dstRate int) []float32 {
	if srcRate <= 0 || dstRate <= 0 {
		return input
	}
	if srcRate == dstRate || len(input) == 0 {
		return input
	}

	ratio := float64(srcRate) / float64(dstRate)
	n := int(math.Round(float64(len(input)) * float64(dstRate) / float64(srcRate)))
	if n == 0 {
		return nil
	}

	out := make([]float32, n)
	for i := range out {
		pos := float64(i) * ratio
		low := int(math.Floor(pos))
		frac := float32(pos - float64(low))

		s0 := sampleAt(input, low)
		s1 := sampleAt(input, low+1)
		out[i] = s0 + (s1-s0)*frac
	}
	return out
}

func sampleAt(buf []float32, idx int) float32 {
	if idx < 0 || idx >= len(buf) {
		return 0
	}
	return buf[idx]
}
