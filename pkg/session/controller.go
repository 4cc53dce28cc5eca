// Package session implements the turn-taking core of a voice-assistant
// client: one controller owns the transport, the capture and playback
// pipelines, and the status state machine the UI observes.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/voxa-ai/voxa/pkg/capture"
	"github.com/voxa-ai/voxa/pkg/device"
	"github.com/voxa-ai/voxa/pkg/errorsx"
	"github.com/voxa-ai/voxa/pkg/playback"
	"github.com/voxa-ai/voxa/pkg/protocol"
	"github.com/voxa-ai/voxa/pkg/tap"
	"github.com/voxa-ai/voxa/pkg/transports"
)

// TransportFactory builds the connection for one session. The gate is
// consulted per outbound frame; it is closed while the assistant owns the
// turn.
type TransportFactory func(gate transports.Gate) (transports.Transport, error)

// InputFactory acquires the microphone. Called once per session, after the
// connection opens.
type InputFactory func() (device.Input, error)

// OutputFactory opens the speaker. Called at most once per session, lazily,
// when the first playback turn begins.
type OutputFactory func() (device.Output, error)

type Config struct {
	Capture  capture.Config  `mapstructure:"capture"`
	Playback playback.Config `mapstructure:"playback"`
}

type Options struct {
	Config       Config
	Logger       *slog.Logger
	NewTransport TransportFactory
	NewInput     InputFactory
	NewOutput    OutputFactory
}

// Controller is the session root. It is the sole mutator of status and of
// the capture lock; everything else reads. All transitions funnel through
// one teardown routine, so stopping is idempotent regardless of which state
// triggered it.
type Controller struct {
	cfg    Config
	logger *slog.Logger

	newTransport TransportFactory
	newInput     InputFactory
	newOutput    OutputFactory

	mu        sync.Mutex
	status    Status
	connGen   string
	cancel    context.CancelFunc
	transport transports.Transport
	cap       *capture.Pipeline
	play      *playback.Pipeline
	out       device.Output
	listeners []StateListener
	onFinal   func(text string)
	onError   func(err error)

	captureLocked atomic.Bool
}

func NewController(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		cfg:          opts.Config,
		logger:       logger,
		newTransport: opts.NewTransport,
		newInput:     opts.NewInput,
		newOutput:    opts.NewOutput,
		status:       StatusIdle,
	}
}

// Status returns the current session status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// CaptureLocked reports whether the assistant owns the audio output and the
// microphone must not be transmitted.
func (c *Controller) CaptureLocked() bool { return c.captureLocked.Load() }

// PlaybackActive reports whether synthesized speech is currently rendering.
func (c *Controller) PlaybackActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.play != nil && c.play.State() == playback.StateActive
}

// CaptureTap returns the microphone visualization tap, or nil while the
// capture pipeline is down.
func (c *Controller) CaptureTap() *tap.Tap {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cap == nil {
		return nil
	}
	return c.cap.Tap()
}

// PlaybackTap returns the playback visualization tap, or nil while no
// playback pipeline exists.
func (c *Controller) PlaybackTap() *tap.Tap {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.play == nil {
		return nil
	}
	return c.play.Tap()
}

// AddListener registers a status-change observer.
func (c *Controller) AddListener(l StateListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// SetFinalAnswerHandler registers the callback for the assistant's reply
// transcript.
func (c *Controller) SetFinalAnswerHandler(fn func(text string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFinal = fn
}

// SetErrorHandler registers the callback for session-fatal errors.
func (c *Controller) SetErrorHandler(fn func(err error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = fn
}

// Toggle is the single control surface: start when idle, stop otherwise.
func (c *Controller) Toggle() {
	c.mu.Lock()
	var changes []StateChange
	var err error
	if c.status == StatusIdle {
		changes, err = c.startLocked()
	} else {
		changes = c.teardownLocked("user toggled off", nil)
	}
	c.mu.Unlock()
	c.notify(changes)
	if err != nil {
		c.reportError(err)
	}
}

func (c *Controller) startLocked() ([]StateChange, error) {
	gen := uuid.NewString()
	c.connGen = gen
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	changes := c.transitionLocked(StatusConnecting, "user toggled on")

	tr, err := c.newTransport(func() bool { return !c.captureLocked.Load() })
	if err != nil {
		err = errorsx.Wrap(err, errorsx.ReasonTransportConnect)
		return append(changes, c.teardownLocked("transport setup failed", err)...), err
	}
	c.transport = tr
	if err := tr.Start(ctx); err != nil {
		return append(changes, c.teardownLocked("transport start failed", err)...), err
	}
	go c.eventLoop(gen, tr)
	return changes, nil
}

func (c *Controller) eventLoop(gen string, tr transports.Transport) {
	for ev := range tr.Recv() {
		c.handleEvent(gen, ev)
	}
}

func (c *Controller) handleEvent(gen string, ev transports.Event) {
	c.mu.Lock()
	// Liveness guard: a late event from a torn-down connection must not
	// resurrect the session.
	if c.connGen != gen {
		c.mu.Unlock()
		return
	}

	var changes []StateChange
	var finalText string
	var fatal error
	switch ev.Kind {
	case transports.EventOpened:
		changes, fatal = c.onOpenedLocked()
	case transports.EventMessage:
		changes, finalText, fatal = c.onMessageLocked(ev.Msg)
	case transports.EventClosed:
		err := ev.Err
		if err == nil {
			err = errorsx.Wrap(errors.New("connection closed"), errorsx.ReasonTransportClosed)
		}
		changes = c.teardownLocked("connection closed", err)
		fatal = err
	}
	onFinal := c.onFinal
	c.mu.Unlock()

	c.notify(changes)
	if finalText != "" && onFinal != nil {
		onFinal(finalText)
	}
	if fatal != nil {
		c.reportError(fatal)
	}
}

func (c *Controller) onOpenedLocked() ([]StateChange, error) {
	if c.status != StatusConnecting {
		return nil, nil
	}
	in, err := c.newInput()
	if err != nil {
		// Device denied: permission failures tear down to idle and are not
		// retried automatically.
		err = errorsx.Wrap(err, errorsx.ReasonDevicePermission)
		return c.teardownLocked("microphone unavailable", err), err
	}
	c.cap = capture.New(c.cfg.Capture, in, c.transport, c.captureLocked.Load, c.logger)
	if err := c.cap.Resume(); err != nil {
		return c.teardownLocked("capture start failed", err), err
	}
	return c.transitionLocked(StatusListening, "connection open"), nil
}

func (c *Controller) onMessageLocked(msg protocol.Message) ([]StateChange, string, error) {
	switch m := msg.(type) {
	case protocol.STTEnd:
		if c.status != StatusListening {
			return nil, "", nil
		}
		c.lockCaptureLocked()
		return c.transitionLocked(StatusProcessing, "stt complete"), "", nil

	case protocol.FinalAnswer:
		if c.status == StatusProcessing || c.status == StatusListening {
			if err := c.ensurePlaybackLocked(); err != nil {
				return c.teardownLocked("speaker unavailable", err), "", err
			}
		}
		return nil, m.Text, nil

	case protocol.TTSChunk:
		var changes []StateChange
		switch c.status {
		case StatusListening, StatusProcessing:
			c.lockCaptureLocked()
			if err := c.ensurePlaybackLocked(); err != nil {
				return c.teardownLocked("speaker unavailable", err), "", err
			}
			changes = c.transitionLocked(StatusSpeaking, "first tts chunk")
		case StatusSpeaking:
		default:
			return nil, "", nil
		}
		if err := c.play.Enqueue(m.Samples, m.Rate); err != nil {
			return append(changes, c.teardownLocked("playback failed", err)...), "", err
		}
		return changes, "", nil

	case protocol.TTSEnd:
		if c.play != nil {
			c.play.MarkEnd()
		}
		return nil, "", nil

	case protocol.ServerError:
		err := errorsx.Wrap(errors.New(m.Message), errorsx.ReasonServerError)
		return c.teardownLocked("server error", err), "", err
	}
	return nil, "", nil
}

// lockCaptureLocked engages the capture lock and mutes the microphone. Both
// levels are needed: the pipeline stops producing and any frame still in
// flight is dropped at the transport gate.
func (c *Controller) lockCaptureLocked() {
	c.captureLocked.Store(true)
	if c.cap != nil {
		_ = c.cap.Mute()
	}
}

// ensurePlaybackLocked lazily builds the playback pipeline for this turn.
// The output device is opened at most once per session and reused across
// turns.
func (c *Controller) ensurePlaybackLocked() error {
	if c.play != nil && c.play.State() != playback.StateDrained {
		return nil
	}
	if c.out == nil {
		out, err := c.newOutput()
		if err != nil {
			return errorsx.Wrap(err, errorsx.ReasonDeviceOpen)
		}
		c.out = out
	}
	pl := playback.New(c.cfg.Playback, c.out, c.logger)
	c.play = pl
	go c.watchPlayback(c.connGen, pl)
	return nil
}

func (c *Controller) watchPlayback(gen string, pl *playback.Pipeline) {
	<-pl.Done()
	c.playbackDone(gen, pl)
}

// playbackDone runs when a playback turn has drained past its end marker:
// only then may the microphone resume, guaranteeing the session never
// transcribes the tail of its own voice.
func (c *Controller) playbackDone(gen string, pl *playback.Pipeline) {
	c.mu.Lock()
	if c.connGen != gen || c.play != pl {
		c.mu.Unlock()
		return
	}
	var changes []StateChange
	if c.status == StatusSpeaking || c.status == StatusProcessing {
		_ = pl.Close()
		c.play = nil
		c.captureLocked.Store(false)
		if c.cap != nil {
			_ = c.cap.Resume()
		}
		changes = c.transitionLocked(StatusListening, "playback drained")
	}
	c.mu.Unlock()
	c.notify(changes)
}

// teardownLocked is the single funnel for explicit stop, transport failure,
// and server errors: it releases every pipeline and the connection exactly
// once and resets the session to idle.
func (c *Controller) teardownLocked(reason string, err error) []StateChange {
	if c.status == StatusIdle && c.connGen == "" {
		return nil
	}
	if err != nil {
		c.logger.Warn("session_teardown", "reason", reason, "error", err.Error())
	} else {
		c.logger.Info("session_teardown", "reason", reason)
	}

	c.connGen = ""
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.transport != nil {
		_ = c.transport.Stop()
		c.transport = nil
	}
	if c.cap != nil {
		_ = c.cap.Close()
		c.cap = nil
	}
	if c.play != nil {
		_ = c.play.Close()
		c.play = nil
	}
	if c.out != nil {
		_ = c.out.Close()
		c.out = nil
	}
	c.captureLocked.Store(false)
	return c.transitionLocked(StatusIdle, reason)
}

func (c *Controller) transitionLocked(to Status, reason string) []StateChange {
	if c.status == to {
		return nil
	}
	if !transitionValid(c.status, to) {
		c.logger.Warn("session_transition_rejected",
			"from", c.status.String(), "to", to.String(), "reason", reason)
		return nil
	}
	change := StateChange{From: c.status, To: to, Timestamp: time.Now(), Reason: reason}
	c.status = to
	c.logger.Info("session_transition",
		"from", change.From.String(), "to", change.To.String(),
		"reason", reason, "conn", c.connGen)
	return []StateChange{change}
}

func (c *Controller) notify(changes []StateChange) {
	if len(changes) == 0 {
		return
	}
	c.mu.Lock()
	listeners := make([]StateListener, len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()
	for _, change := range changes {
		for _, l := range listeners {
			l.OnStateChange(change)
		}
	}
}

func (c *Controller) reportError(err error) {
	c.mu.Lock()
	onError := c.onError
	c.mu.Unlock()
	if onError != nil {
		onError(err)
	}
}
