package device

import (
	"encoding/binary"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/voxa-ai/voxa/pkg/errorsx"
)

// OtoOutput drives the default speaker through oto. The player pulls from the
// session's playback source continuously; silence comes from the source
// zero-filling, never from stalling the reader.
type OtoOutput struct {
	ctx       *oto.Context
	player    *oto.Player
	rate      int
	blockSize int

	mu        sync.Mutex
	closeOnce sync.Once
}

func NewOtoOutput(rate, blockSize int) (*OtoOutput, error) {
	if blockSize <= 0 {
		blockSize = 1024
	}
	opts := &oto.NewContextOptions{
		SampleRate:   rate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   100 * time.Millisecond,
	}
	ctx, ready, err := oto.NewContext(opts)
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonDeviceOpen)
	}
	<-ready
	return &OtoOutput{ctx: ctx, rate: rate, blockSize: blockSize}, nil
}

func (o *OtoOutput) Rate() int      { return o.rate }
func (o *OtoOutput) BlockSize() int { return o.blockSize }

func (o *OtoOutput) Start(src Source) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.player != nil {
		_ = o.player.Close()
	}
	o.player = o.ctx.NewPlayer(&sourceReader{src: src, blockSize: o.blockSize})
	o.player.Play()
	return nil
}

// Stop halts rendering but keeps the oto context alive for the next turn.
func (o *OtoOutput) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.player != nil {
		_ = o.player.Close()
		o.player = nil
	}
	return nil
}

func (o *OtoOutput) Close() error {
	o.closeOnce.Do(func() {
		_ = o.Stop()
	})
	return nil
}

// sourceReader adapts a Source to the io.Reader oto pulls from. Each Read is
// one render callback of at most blockSize samples, regardless of how large
// a buffer oto offers, so render granularity follows the configured block.
type sourceReader struct {
	src       Source
	blockSize int
	scratch   []float32
}

func (r *sourceReader) Read(p []byte) (int, error) {
	n := len(p) / 4
	if n == 0 {
		return 0, nil
	}
	if r.blockSize > 0 && n > r.blockSize {
		n = r.blockSize
	}
	if cap(r.scratch) < n {
		r.scratch = make([]float32, n)
	}
	buf := r.scratch[:n]
	r.src.Render(buf)
	for i, s := range buf {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
	}
	return n * 4, nil
}
