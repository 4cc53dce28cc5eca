package pcm

import (
	"math"
	"testing"
)

func TestResampleIdentity(t *testing.T) {
	input := []float32{0.1, -0.2, 0.3, -0.4, 0.5}
	out := Resample(input, 16000, 16000)
	if len(out) != len(input) {
		t.Fatalf("expected %d samples, got %d", len(input), len(out))
	}
	for i := range out {
		if out[i] != input[i] {
			t.Fatalf("sample %d changed: %f != %f", i, out[i], input[i])
		}
	}
}

func TestResampleLength(t *testing.T) {
	cases := []struct {
		in, src, dst, want int
	}{
		{4096, 48000, 16000, 1365},
		{4096, 16000, 48000, 12288},
		{2400, 24000, 48000, 4800},
		{0, 24000, 48000, 0},
	}
	for _, tc := range cases {
		out := Resample(make([]float32, tc.in), tc.src, tc.dst)
		if len(out) != tc.want {
			t.Fatalf("resample %d @%d->%d: expected %d samples, got %d",
				tc.in, tc.src, tc.dst, tc.want, len(out))
		}
	}
}

func TestResampleInterpolates(t *testing.T) {
	// Doubling the rate of a ramp should land new samples halfway between
	// neighbours.
	input := []float32{0, 1, 2, 3}
	out := Resample(input, 8000, 16000)
	want := []float32{0, 0.5, 1, 1.5, 2, 2.5, 3, 1.5}
	if len(out) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(out))
	}
	for i := range want {
		if math.Abs(float64(out[i]-want[i])) > 1e-6 {
			t.Fatalf("sample %d: expected %f, got %f", i, want[i], out[i])
		}
	}
}

func TestQuantizeRoundTripWithinStep(t *testing.T) {
	values := []float32{-1, -0.5, -0.000031, 0, 0.000031, 0.25, 0.9999, 1}
	back := Dequantize(Quantize(values))
	for i, v := range values {
		if diff := math.Abs(float64(back[i] - v)); diff > QuantizationStep {
			t.Fatalf("value %f drifted by %f (> %f)", v, diff, QuantizationStep)
		}
	}
}

func TestQuantizeClamps(t *testing.T) {
	out := Quantize([]float32{2.5, -3})
	if out[0] != 32767 {
		t.Fatalf("expected positive clamp to 32767, got %d", out[0])
	}
	if out[1] != -32767 {
		t.Fatalf("expected negative clamp to -32767, got %d", out[1])
	}
}

func TestWireRoundTripLossless(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 12345, -12345}
	decoded, err := DecodeWire(EncodeWire(samples))
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(decoded) != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), len(decoded))
	}
	for i := range samples {
		if decoded[i] != samples[i] {
			t.Fatalf("sample %d: expected %d, got %d", i, samples[i], decoded[i])
		}
	}
}

func TestDecodeWireRejectsOddPayload(t *testing.T) {
	if _, err := DecodePCM16([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for odd byte count")
	}
	if _, err := DecodeWire("!!!not base64!!!"); err == nil {
		t.Fatal("expected error for invalid base64")
	}
}
