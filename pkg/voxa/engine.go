package voxa

import (
	"log/slog"
	"time"

	"github.com/voxa-ai/voxa/pkg/configutil"
	"github.com/voxa-ai/voxa/pkg/device"
	"github.com/voxa-ai/voxa/pkg/logging"
	"github.com/voxa-ai/voxa/pkg/observers"
	"github.com/voxa-ai/voxa/pkg/session"
	"github.com/voxa-ai/voxa/pkg/transports"
	"github.com/voxa-ai/voxa/pkg/transports/ws"
)

// Engine assembles the session controller with the websocket transport and
// the platform audio devices. It is the composition root; everything below
// it is wired through factories so tests can substitute mocks.
type Engine struct {
	cfg        Config
	logger     *slog.Logger
	controller *session.Controller
}

type wsSettings struct {
	HandshakeTimeoutMS int `mapstructure:"handshake_timeout_ms"`
	RecvBuffer         int `mapstructure:"recv_buffer"`
}

type EngineOptions struct {
	Config Config
	Logger *slog.Logger

	// Overrides for the default wiring. Nil means the production factory.
	NewTransport session.TransportFactory
	NewInput     session.InputFactory
	NewOutput    session.OutputFactory
}

func NewEngine(opts EngineOptions) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config

	newTransport := opts.NewTransport
	if newTransport == nil {
		newTransport = func(gate transports.Gate) (transports.Transport, error) {
			var settings wsSettings
			if err := configutil.DecodeSettings(cfg.Server.Settings, &settings); err != nil {
				return nil, err
			}
			return ws.New(ws.Config{
				URL:              cfg.Server.URL,
				HandshakeTimeout: time.Duration(settings.HandshakeTimeoutMS) * time.Millisecond,
				RecvBuffer:       settings.RecvBuffer,
			}, gate, logging.NewComponentLogger(logger, "ws")), nil
		}
	}
	newInput := opts.NewInput
	if newInput == nil {
		newInput = func() (device.Input, error) {
			return device.NewMalgoInput(configutil.IntValue(cfg.Devices.InputRate, 48000), cfg.Devices.CaptureBuffer)
		}
	}
	newOutput := opts.NewOutput
	if newOutput == nil {
		newOutput = func() (device.Output, error) {
			return device.NewOtoOutput(configutil.IntValue(cfg.Devices.OutputRate, 48000), cfg.Devices.OutputBlock)
		}
	}

	ctrl := session.NewController(session.Options{
		Config:       cfg.Session,
		Logger:       logging.NewComponentLogger(logger, "session"),
		NewTransport: newTransport,
		NewInput:     newInput,
		NewOutput:    newOutput,
	})
	ctrl.AddListener(observers.NewMultiObserver(
		observers.NewLoggerObserver(logging.NewComponentLogger(logger, "observer")),
		observers.NewLatencyObserver(logging.NewComponentLogger(logger, "latency")),
	))

	return &Engine{cfg: cfg, logger: logger, controller: ctrl}
}

// Controller exposes the session controller for callers that need taps,
// listeners, or handlers beyond Toggle.
func (e *Engine) Controller() *session.Controller { return e.controller }

// Toggle starts a session when idle and tears it down otherwise.
func (e *Engine) Toggle() { e.controller.Toggle() }

func (e *Engine) Status() session.Status { return e.controller.Status() }

// Drain stops any active session. It satisfies the runner's shutdown hook.
func (e *Engine) Drain() error {
	if e.controller.Status() != session.StatusIdle {
		e.controller.Toggle()
	}
	return nil
}
