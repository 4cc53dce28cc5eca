package frames

import (
	"sync"
	"time"
)

type Kind string

const (
	KindAudio   Kind = "audio"
	KindControl Kind = "control"
)

// Direction tags which half of the session an audio frame belongs to.
type Direction string

const (
	DirCapture  Direction = "capture"
	DirPlayback Direction = "playback"
)

type ControlCode string

const (
	ControlEndOfStream ControlCode = "end_of_stream"
)

type Frame interface {
	Kind() Kind
	PTS() int64
}

// AudioFrame is a contiguous run of mono float samples at a fixed rate.
// Ownership transfers to the consumer; pooled frames must be released after
// consumption.
type AudioFrame struct {
	pts     int64
	samples []float32
	rate    int
	dir     Direction
	pooled  bool
}

func NewAudioFrame(pts int64, samples []float32, rate int, dir Direction) AudioFrame {
	return AudioFrame{pts: pts, samples: samples, rate: rate, dir: dir}
}

func NewAudioFrameFromPool(pts int64, samples []float32, rate int, dir Direction) AudioFrame {
	buf := AcquireSampleBuf(len(samples))
	copy(buf, samples)
	return AudioFrame{pts: pts, samples: buf, rate: rate, dir: dir, pooled: true}
}

func (a AudioFrame) Kind() Kind           { return KindAudio }
func (a AudioFrame) PTS() int64           { return a.pts }
func (a AudioFrame) Samples() []float32   { return a.samples }
func (a AudioFrame) Rate() int            { return a.rate }
func (a AudioFrame) Direction() Direction { return a.dir }

func ReleaseAudioFrame(f Frame) bool {
	af, ok := f.(AudioFrame)
	if !ok {
		if ap, ok := f.(*AudioFrame); ok {
			af = *ap
		} else {
			return false
		}
	}
	if af.pooled {
		ReleaseSampleBuf(af.samples)
		return true
	}
	return false
}

type ControlFrame struct {
	pts  int64
	code ControlCode
}

func NewControlFrame(pts int64, code ControlCode) ControlFrame {
	return ControlFrame{pts: pts, code: code}
}

func (c ControlFrame) Kind() Kind        { return KindControl }
func (c ControlFrame) PTS() int64        { return c.pts }
func (c ControlFrame) Code() ControlCode { return c.code }

type PTSGen struct {
	mu    sync.Mutex
	value int64
}

func NewPTSGen() *PTSGen {
	return &PTSGen{}
}

func (g *PTSGen) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.value += time.Millisecond.Nanoseconds()
	return g.value
}

var sampleBufPool = sync.Pool{
	New: func() any {
		return make([]float32, 0, 4096)
	},
}

func AcquireSampleBuf(size int) []float32 {
	b := sampleBufPool.Get().([]float32)
	if cap(b) < size {
		return make([]float32, size)
	}
	return b[:size]
}

func ReleaseSampleBuf(b []float32) {
	sampleBufPool.Put(b[:0])
}
