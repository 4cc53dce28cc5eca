// Package mock provides scripted audio devices for tests: input blocks are
// pushed by hand, output render callbacks are pumped by hand.
package mock

import (
	"sync"
	"sync/atomic"

	"github.com/voxa-ai/voxa/pkg/device"
)

type Input struct {
	rate   int
	blocks chan []float32

	started atomic.Bool
	paused  atomic.Bool
	closed  atomic.Bool

	starts atomic.Int32
	pauses atomic.Int32

	closeOnce sync.Once
}

func NewInput(rate int) *Input {
	return &Input{rate: rate, blocks: make(chan []float32, 64)}
}

func (in *Input) Rate() int                { return in.rate }
func (in *Input) Blocks() <-chan []float32 { return in.blocks }

func (in *Input) Start() error {
	in.started.Store(true)
	in.paused.Store(false)
	in.starts.Add(1)
	return nil
}

func (in *Input) Pause() error {
	in.paused.Store(true)
	in.pauses.Add(1)
	return nil
}

func (in *Input) Close() error {
	in.closeOnce.Do(func() {
		in.closed.Store(true)
		close(in.blocks)
	})
	return nil
}

// PushBlock simulates the device delivering one block of samples. Blocks are
// dropped while paused, as the real device track would be disabled.
func (in *Input) PushBlock(samples []float32) {
	if in.closed.Load() || in.paused.Load() || !in.started.Load() {
		return
	}
	select {
	case in.blocks <- samples:
	default:
	}
}

func (in *Input) Started() bool    { return in.started.Load() && !in.paused.Load() }
func (in *Input) Paused() bool     { return in.paused.Load() }
func (in *Input) Closed() bool     { return in.closed.Load() }
func (in *Input) StartCount() int  { return int(in.starts.Load()) }
func (in *Input) PauseCount() int  { return int(in.pauses.Load()) }

type Output struct {
	rate      int
	blockSize int

	mu     sync.Mutex
	src    device.Source
	played [][]float32

	stops  atomic.Int32
	closed atomic.Bool
}

func NewOutput(rate, blockSize int) *Output {
	return &Output{rate: rate, blockSize: blockSize}
}

func (o *Output) Rate() int      { return o.rate }
func (o *Output) BlockSize() int { return o.blockSize }

func (o *Output) Start(src device.Source) error {
	o.mu.Lock()
	o.src = src
	o.mu.Unlock()
	return nil
}

func (o *Output) Stop() error {
	o.mu.Lock()
	o.src = nil
	o.mu.Unlock()
	o.stops.Add(1)
	return nil
}

func (o *Output) Close() error {
	_ = o.Stop()
	o.closed.Store(true)
	return nil
}

func (o *Output) Stopped() bool  { return o.stops.Load() > 0 }
func (o *Output) StopCount() int { return int(o.stops.Load()) }
func (o *Output) Closed() bool   { return o.closed.Load() }

// Pump runs n render callbacks of one block each and records the output.
func (o *Output) Pump(n int) {
	for range n {
		o.mu.Lock()
		src := o.src
		o.mu.Unlock()
		if src == nil || o.closed.Load() {
			return
		}
		block := make([]float32, o.blockSize)
		src.Render(block)
		o.mu.Lock()
		o.played = append(o.played, block)
		o.mu.Unlock()
	}
}

// Played returns everything rendered so far, flattened.
func (o *Output) Played() []float32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []float32
	for _, b := range o.played {
		out = append(out, b...)
	}
	return out
}
