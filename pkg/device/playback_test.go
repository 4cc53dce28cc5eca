package device

import (
	"encoding/binary"
	"math"
	"testing"
)

type rampSource struct {
	renders []int
}

func (s *rampSource) Render(out []float32) {
	s.renders = append(s.renders, len(out))
	for i := range out {
		out[i] = float32(i)
	}
}

func TestSourceReaderCapsAtBlockSize(t *testing.T) {
	src := &rampSource{}
	r := &sourceReader{src: src, blockSize: 64}

	p := make([]byte, 1024*4)
	n, err := r.Read(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n != 64*4 {
		t.Fatalf("read %d bytes, want one 64-sample block", n)
	}
	if len(src.renders) != 1 || src.renders[0] != 64 {
		t.Fatalf("render sizes = %v", src.renders)
	}
}

func TestSourceReaderEncodesLittleEndianFloat32(t *testing.T) {
	src := &rampSource{}
	r := &sourceReader{src: src, blockSize: 4}

	p := make([]byte, 4*4)
	n, err := r.Read(p)
	if err != nil || n != 16 {
		t.Fatalf("read = %d, %v", n, err)
	}
	for i := 0; i < 4; i++ {
		got := math.Float32frombits(binary.LittleEndian.Uint32(p[i*4:]))
		if got != float32(i) {
			t.Fatalf("sample %d = %f", i, got)
		}
	}
}

func TestSourceReaderHandlesShortBuffers(t *testing.T) {
	src := &rampSource{}
	r := &sourceReader{src: src, blockSize: 64}

	// A buffer smaller than one block renders exactly what fits.
	p := make([]byte, 8*4)
	n, err := r.Read(p)
	if err != nil || n != 32 {
		t.Fatalf("read = %d, %v", n, err)
	}
	if src.renders[0] != 8 {
		t.Fatalf("render size = %d", src.renders[0])
	}

	if n, _ := r.Read(nil); n != 0 {
		t.Fatalf("empty buffer read = %d", n)
	}
}
