// Package tap exposes read-only audio analysis handles for visualization.
// A tap observes a pipeline's signal; it never owns or mutates it.
package tap

import (
	"math"
	"sync"
)

const defaultWindow = 1024

// Tap keeps a ring of the most recent samples of one signal and serves
// spectral magnitude snapshots on demand. Writers are the owning pipeline;
// readers are the UI layer.
type Tap struct {
	mu     sync.Mutex
	ring   []float32
	pos    int
	filled bool
	rate   int
}

// New creates a tap over a signal at the given sample rate. window is the
// number of recent samples analyzed per snapshot (default 1024).
func New(rate, window int) *Tap {
	if window <= 0 {
		window = defaultWindow
	}
	return &Tap{ring: make([]float32, window), rate: rate}
}

func (t *Tap) Rate() int { return t.rate }

// Write appends samples to the ring. Called from the owning pipeline only.
func (t *Tap) Write(samples []float32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range samples {
		t.ring[t.pos] = s
		t.pos++
		if t.pos == len(t.ring) {
			t.pos = 0
			t.filled = true
		}
	}
}

// Snapshot copies the current window, oldest sample first.
func (t *Tap) Snapshot() []float32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tap) snapshotLocked() []float32 {
	if !t.filled {
		return append([]float32(nil), t.ring[:t.pos]...)
	}
	out := make([]float32, 0, len(t.ring))
	out = append(out, t.ring[t.pos:]...)
	out = append(out, t.ring[:t.pos]...)
	return out
}

// Magnitudes returns the spectral magnitude of the current window grouped
// into bins evenly spaced up to Nyquist, each normalized to [0, 1]. Goertzel
// per bin keeps the cost proportional to bins, not window size squared.
func (t *Tap) Magnitudes(bins int) []float32 {
	if bins <= 0 {
		return nil
	}
	window := t.Snapshot()
	out := make([]float32, bins)
	if len(window) == 0 {
		return out
	}
	n := float64(len(window))
	for b := range out {
		// Bin center frequency as a fraction of Nyquist.
		k := (float64(b) + 0.5) / float64(bins) * (n / 2)
		w := 2 * math.Pi * k / n
		coeff := 2 * math.Cos(w)
		var s0, s1, s2 float64
		for _, sample := range window {
			s0 = float64(sample) + coeff*s1 - s2
			s2 = s1
			s1 = s0
		}
		power := s1*s1 + s2*s2 - coeff*s1*s2
		if power < 0 {
			power = 0
		}
		mag := math.Sqrt(power) / (n / 2)
		if mag > 1 {
			mag = 1
		}
		out[b] = float32(mag)
	}
	return out
}

// Amplitude returns the peak absolute sample of the current window.
func (t *Tap) Amplitude() float32 {
	window := t.Snapshot()
	var peak float32
	for _, s := range window {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	return peak
}
