package pcm

// QuantizationStep is the resolution of one 16-bit sample after dequantizing.
const QuantizationStep = 1.0 / 32768.0

// Quantize converts float samples in [-1, 1] to signed 16-bit integers.
// Samples outside the range are clamped first; the scaled value truncates
// toward zero.
func Quantize(input []float32) []int16 {
	out := make([]int16, len(input))
	for i, s := range input {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		out[i] = int16(s * 32767)
	}
	return out
}

// Dequantize converts signed 16-bit samples back to floats in [-1, 1).
func Dequantize(input []int16) []float32 {
	out := make([]float32, len(input))
	for i, s := range input {
		out[i] = float32(s) / 32768
	}
	return out
}
