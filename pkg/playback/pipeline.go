// Package playback runs the speaker half of a session: synthesized speech
// chunks are dequantized, resampled to the device rate, and drained into the
// output device by its render callback. End-of-stream is reported when the
// buffer has played out past the end marker, not when the marker arrives, so
// the session never resumes listening while audio is still audible.
package playback

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/voxa-ai/voxa/pkg/device"
	"github.com/voxa-ai/voxa/pkg/frames"
	"github.com/voxa-ai/voxa/pkg/pcm"
	"github.com/voxa-ai/voxa/pkg/tap"
)

// State is the pipeline lifecycle. "First chunk" is simply the ready to
// active transition.
type State int32

const (
	StateUninitialized State = iota
	StateReady
	StateActive
	StateDrained
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "UNINITIALIZED"
	case StateReady:
		return "READY"
	case StateActive:
		return "ACTIVE"
	case StateDrained:
		return "DRAINED"
	default:
		return "UNKNOWN"
	}
}

type Config struct {
	TapWindow int `mapstructure:"tap_window"`
	// QueueSize is the inbox capacity reserved up front and the backlog
	// level that triggers a stalled-device warning.
	QueueSize int `mapstructure:"queue_size"`
}

func (c Config) withDefaults() Config {
	if c.QueueSize <= 0 {
		c.QueueSize = 1024
	}
	return c
}

// Pipeline owns the output device. The control context enqueues chunks and
// the end marker as typed frames into an inbox; the render context drains
// them and reports completion back through Done. The inbox grows rather than
// dropping: a discarded audio frame would lose audible speech, and a
// discarded end marker would leave the session speaking forever.
type Pipeline struct {
	cfg    Config
	out    device.Output
	logger *slog.Logger

	state atomic.Int32

	inMu  sync.Mutex
	inbox []frames.Frame

	pts *frames.PTSGen
	sig *tap.Tap

	// Render-context state; touched only inside Render.
	fifo  []float32
	ended bool

	doneCh   chan struct{}
	doneOnce sync.Once

	closeOnce sync.Once
}

// New builds a ready pipeline over an open output device. The device stays
// idle until the first chunk arrives.
func New(cfg Config, out device.Output, logger *slog.Logger) *Pipeline {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		cfg:    cfg,
		out:    out,
		logger: logger,
		inbox:  make([]frames.Frame, 0, cfg.QueueSize),
		pts:    frames.NewPTSGen(),
		sig:    tap.New(out.Rate(), cfg.TapWindow),
		doneCh: make(chan struct{}),
	}
	p.state.Store(int32(StateReady))
	return p
}

func (p *Pipeline) State() State { return State(p.state.Load()) }

// Tap is the read-only visualization handle over the decoded signal.
func (p *Pipeline) Tap() *tap.Tap { return p.sig }

// Done is closed once the buffer has fully drained past the end marker.
func (p *Pipeline) Done() <-chan struct{} { return p.doneCh }

// Enqueue accepts one chunk of synthesized PCM16 at srcRate. The first chunk
// activates the device; subsequent chunks extend the buffer.
func (p *Pipeline) Enqueue(samples []int16, srcRate int) error {
	decoded := pcm.Resample(pcm.Dequantize(samples), srcRate, p.out.Rate())
	p.sig.Write(decoded)

	if p.state.CompareAndSwap(int32(StateReady), int32(StateActive)) {
		p.logger.Debug("playback_active", "samples", len(decoded))
		if err := p.out.Start(p); err != nil {
			p.state.Store(int32(StateReady))
			return err
		}
	}
	p.push(frames.NewAudioFrame(p.pts.Next(), decoded, p.out.Rate(), frames.DirPlayback))
	return nil
}

// MarkEnd records that no further chunks will arrive. If no chunk ever
// activated the device there is nothing to drain and the pipeline completes
// immediately.
func (p *Pipeline) MarkEnd() {
	if p.state.CompareAndSwap(int32(StateReady), int32(StateDrained)) {
		p.finish()
		return
	}
	p.push(frames.NewControlFrame(p.pts.Next(), frames.ControlEndOfStream))
}

// Close stops rendering and detaches from the output device, which stays
// open for the session's next playback turn. Idempotent; safe from any state.
func (p *Pipeline) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.state.Store(int32(StateDrained))
		err = p.out.Stop()
		// Release anyone waiting on Done; a torn-down session's watcher is
		// discarded by the controller's liveness check.
		p.finish()
	})
	return err
}

// Render implements device.Source on the real-time rendering path: drain
// pending messages without blocking, copy out what the buffer holds, and
// zero-fill the rest so undersupply yields silence with timing preserved.
func (p *Pipeline) Render(out []float32) {
	p.drainInbox()

	n := copy(out, p.fifo)
	remaining := copy(p.fifo, p.fifo[n:])
	p.fifo = p.fifo[:remaining]
	for i := n; i < len(out); i++ {
		out[i] = 0
	}

	if p.ended && len(p.fifo) == 0 &&
		p.state.CompareAndSwap(int32(StateActive), int32(StateDrained)) {
		p.finish()
	}
}

func (p *Pipeline) drainInbox() {
	p.inMu.Lock()
	pending := p.inbox
	p.inbox = nil
	p.inMu.Unlock()

	for _, f := range pending {
		switch fr := f.(type) {
		case frames.AudioFrame:
			p.fifo = append(p.fifo, fr.Samples()...)
		case frames.ControlFrame:
			if fr.Code() == frames.ControlEndOfStream {
				p.ended = true
			}
		}
	}
}

// push never drops. Backlog beyond the configured size means the device is
// stalled; the frames stay queued until the render callback catches up.
func (p *Pipeline) push(f frames.Frame) {
	p.inMu.Lock()
	p.inbox = append(p.inbox, f)
	if len(p.inbox) == p.cfg.QueueSize+1 {
		p.logger.Warn("playback_backlog", "frames", len(p.inbox))
	}
	p.inMu.Unlock()
}

func (p *Pipeline) finish() {
	p.doneOnce.Do(func() {
		p.logger.Debug("playback_drained")
		close(p.doneCh)
	})
}
