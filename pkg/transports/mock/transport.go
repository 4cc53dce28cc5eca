// Package mock provides an in-memory transport for tests: inbound events are
// injected with Push, outbound capture frames are exposed on Sent.
package mock

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/voxa-ai/voxa/pkg/frames"
	"github.com/voxa-ai/voxa/pkg/protocol"
	"github.com/voxa-ai/voxa/pkg/transports"
)

type Transport struct {
	recvCh chan transports.Event
	sentCh chan frames.AudioFrame
	gate   transports.Gate
	opened atomic.Bool
	closed atomic.Bool
	mu     sync.Mutex
}

func New(gate transports.Gate) *Transport {
	return &Transport{
		recvCh: make(chan transports.Event, 256),
		sentCh: make(chan frames.AudioFrame, 256),
		gate:   gate,
	}
}

func (t *Transport) Name() string { return "mock" }

func (t *Transport) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	go func() {
		<-ctx.Done()
		_ = t.Stop()
	}()
	return nil
}

func (t *Transport) Stop() error {
	if t.closed.CompareAndSwap(false, true) {
		t.opened.Store(false)
		t.mu.Lock()
		close(t.recvCh)
		close(t.sentCh)
		t.mu.Unlock()
	}
	return nil
}

func (t *Transport) Recv() <-chan transports.Event { return t.recvCh }

func (t *Transport) Send(f frames.AudioFrame) error {
	if t.closed.Load() || !t.opened.Load() {
		return nil
	}
	if t.gate != nil && !t.gate() {
		return nil
	}
	// Retain a copy: the real transport serializes during Send and callers
	// may recycle the frame's buffer as soon as it returns.
	buf := make([]float32, len(f.Samples()))
	copy(buf, f.Samples())
	kept := frames.NewAudioFrame(f.PTS(), buf, f.Rate(), f.Direction())

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed.Load() {
		return nil
	}
	select {
	case t.sentCh <- kept:
	default:
	}
	return nil
}

// Open simulates a successful dial.
func (t *Transport) Open() {
	t.opened.Store(true)
	t.push(transports.Event{Kind: transports.EventOpened})
}

// Push injects an inbound control message.
func (t *Transport) Push(msg protocol.Message) {
	t.push(transports.Event{Kind: transports.EventMessage, Msg: msg})
}

// FailClose simulates an abnormal connection close.
func (t *Transport) FailClose(err error) {
	t.opened.Store(false)
	t.push(transports.Event{Kind: transports.EventClosed, Err: err})
}

func (t *Transport) push(ev transports.Event) {
	if t.closed.Load() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed.Load() {
		return
	}
	select {
	case t.recvCh <- ev:
	default:
	}
}

// Sent exposes outbound frames for inspection.
func (t *Transport) Sent() <-chan frames.AudioFrame { return t.sentCh }

// SentCount drains and counts everything currently buffered.
func (t *Transport) SentCount() int {
	n := 0
	for {
		select {
		case _, ok := <-t.sentCh:
			if !ok {
				return n
			}
			n++
		default:
			return n
		}
	}
}
