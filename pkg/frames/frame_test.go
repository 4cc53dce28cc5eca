package frames

import "testing"

func TestPooledFrameCopiesAndReleases(t *testing.T) {
	src := []float32{0.1, 0.2, 0.3}
	f := NewAudioFrameFromPool(1, src, 16000, DirCapture)

	src[0] = 0.9
	if f.Samples()[0] != 0.1 {
		t.Fatal("pooled frame must own a copy of the source samples")
	}
	if f.Rate() != 16000 || f.Direction() != DirCapture || f.Kind() != KindAudio {
		t.Fatal("frame metadata lost")
	}

	if !ReleaseAudioFrame(f) {
		t.Fatal("pooled frame not released")
	}
}

func TestReleaseIgnoresUnpooledFrames(t *testing.T) {
	f := NewAudioFrame(1, []float32{0.5}, 16000, DirPlayback)
	if ReleaseAudioFrame(f) {
		t.Fatal("unpooled frame must not hit the pool")
	}
	if ReleaseAudioFrame(NewControlFrame(2, ControlEndOfStream)) {
		t.Fatal("control frame must not hit the pool")
	}
}

func TestSampleBufReuse(t *testing.T) {
	b := AcquireSampleBuf(64)
	if len(b) != 64 {
		t.Fatalf("acquired len = %d", len(b))
	}
	ReleaseSampleBuf(b)

	big := AcquireSampleBuf(1 << 16)
	if len(big) != 1<<16 {
		t.Fatalf("oversized acquire len = %d", len(big))
	}
}

func TestPTSGenMonotonic(t *testing.T) {
	g := NewPTSGen()
	last := int64(0)
	for i := 0; i < 8; i++ {
		v := g.Next()
		if v <= last {
			t.Fatalf("pts not monotonic: %d after %d", v, last)
		}
		last = v
	}
}
