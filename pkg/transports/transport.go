package transports

import (
	"context"

	"github.com/voxa-ai/voxa/pkg/frames"
	"github.com/voxa-ai/voxa/pkg/protocol"
)

// EventKind discriminates connection lifecycle events from control messages.
type EventKind string

const (
	EventOpened  EventKind = "opened"
	EventMessage EventKind = "message"
	EventClosed  EventKind = "closed"
)

// Event is one inbound occurrence on the connection: it opened, a control
// message arrived, or it closed (Err carries the cause for abnormal closes).
type Event struct {
	Kind EventKind
	Msg  protocol.Message
	Err  error
}

// Transport owns one duplex connection to the assistant backend. Start dials
// asynchronously; success and failure both surface on Recv. Send transmits an
// outbound capture frame opportunistically and must drop, not queue, when the
// connection is not open or the capture gate is closed.
type Transport interface {
	Name() string
	Start(ctx context.Context) error
	Stop() error
	Recv() <-chan Event
	Send(frame frames.AudioFrame) error
}

// Gate reports whether outbound capture audio may currently be transmitted.
// The session controller implements it; transports consult it per frame.
type Gate func() bool
