// Package capture runs the microphone half of a session: device blocks are
// tapped for visualization, resampled to the wire rate, and sent to the
// transport in fixed-size frames.
package capture

import (
	"log/slog"
	"sync"

	"github.com/voxa-ai/voxa/pkg/device"
	"github.com/voxa-ai/voxa/pkg/frames"
	"github.com/voxa-ai/voxa/pkg/pcm"
	"github.com/voxa-ai/voxa/pkg/tap"
	"github.com/voxa-ai/voxa/pkg/transports"
)

type Config struct {
	WireRate  int `mapstructure:"wire_rate"`  // outbound sample rate, 16000 by convention
	BlockSize int `mapstructure:"block_size"` // samples per outbound frame at the wire rate
	TapWindow int `mapstructure:"tap_window"`
}

func (c Config) withDefaults() Config {
	if c.WireRate <= 0 {
		c.WireRate = 16000
	}
	if c.BlockSize <= 0 {
		c.BlockSize = 4096
	}
	return c
}

// Pipeline owns the microphone for the lifetime of a session. The device
// handle is acquired once; listen cycles mute and unmute it rather than
// re-acquiring (re-acquisition is slow and re-prompts for permission).
type Pipeline struct {
	cfg       Config
	input     device.Input
	transport transports.Transport
	locked    func() bool
	logger    *slog.Logger

	sig *tap.Tap
	pts *frames.PTSGen

	pendingMu sync.Mutex
	pending   []float32

	done      chan struct{}
	closeOnce sync.Once
}

// New builds the pipeline and starts consuming device blocks. The device
// itself stays muted until Resume.
func New(cfg Config, in device.Input, tr transports.Transport, locked func() bool, logger *slog.Logger) *Pipeline {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		cfg:       cfg,
		input:     in,
		transport: tr,
		locked:    locked,
		logger:    logger,
		sig:       tap.New(in.Rate(), cfg.TapWindow),
		pts:       frames.NewPTSGen(),
		done:      make(chan struct{}),
	}
	go p.run()
	return p
}

// Tap is the read-only visualization handle over the raw microphone signal.
func (p *Pipeline) Tap() *tap.Tap { return p.sig }

// Resume unmutes the microphone and begins transmitting.
func (p *Pipeline) Resume() error {
	p.logger.Debug("capture_resume")
	return p.input.Start()
}

// Mute disables the track without releasing the device. Partially assembled
// frames are discarded: by the time capture resumes they are stale.
func (p *Pipeline) Mute() error {
	p.logger.Debug("capture_mute")
	err := p.input.Pause()
	p.pendingReset()
	return err
}

// Close releases the device for good. Idempotent; run exits when the device
// block stream closes.
func (p *Pipeline) Close() error {
	var err error
	p.closeOnce.Do(func() {
		err = p.input.Close()
	})
	return err
}

// Done is closed once the pipeline goroutine has exited.
func (p *Pipeline) Done() <-chan struct{} { return p.done }

func (p *Pipeline) run() {
	defer close(p.done)
	for block := range p.input.Blocks() {
		p.sig.Write(block)
		p.accumulate(pcm.Resample(block, p.input.Rate(), p.cfg.WireRate))
	}
}

func (p *Pipeline) accumulate(samples []float32) {
	p.pendingMu.Lock()
	p.pending = append(p.pending, samples...)
	var out []frames.AudioFrame
	for len(p.pending) >= p.cfg.BlockSize {
		f := frames.NewAudioFrameFromPool(p.pts.Next(), p.pending[:p.cfg.BlockSize], p.cfg.WireRate, frames.DirCapture)
		p.pending = p.pending[:copy(p.pending, p.pending[p.cfg.BlockSize:])]
		out = append(out, f)
	}
	p.pendingMu.Unlock()

	for _, frame := range out {
		// Frame-level guard: even if a block slipped past the muted device,
		// it must not reach the transport while the assistant owns the turn.
		if p.locked == nil || !p.locked() {
			if err := p.transport.Send(frame); err != nil {
				p.logger.Warn("capture_send_failed", "error", err.Error())
			}
		}
		// Send serializes before returning, so the pooled buffer is free.
		frames.ReleaseAudioFrame(frame)
	}
}

func (p *Pipeline) pendingReset() {
	p.pendingMu.Lock()
	p.pending = p.pending[:0]
	p.pendingMu.Unlock()
}
