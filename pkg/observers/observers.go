// Package observers provides optional session listeners: structured logging
// of status changes and turn latency measurement.
package observers

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/voxa-ai/voxa/pkg/session"
)

type LoggerObserver struct {
	log *slog.Logger
}

func NewLoggerObserver(log *slog.Logger) *LoggerObserver {
	if log == nil {
		log = slog.Default()
	}
	return &LoggerObserver{log: log}
}

func (o *LoggerObserver) OnStateChange(ev session.StateChange) {
	o.log.LogAttrs(context.TODO(), slog.LevelDebug, "session_state",
		slog.String("from", ev.From.String()),
		slog.String("to", ev.To.String()),
		slog.String("reason", ev.Reason),
		slog.Time("time", ev.Timestamp),
	)
}

// LatencyObserver measures one conversational turn: how long the assistant
// thought (processing), how long it spoke, and the wall time from end of user
// speech to the reply becoming audible.
type LatencyObserver struct {
	mu            sync.Mutex
	sttEnd        time.Time
	speakingStart time.Time
	log           *slog.Logger
}

func NewLatencyObserver(log *slog.Logger) *LatencyObserver {
	if log == nil {
		log = slog.Default()
	}
	return &LatencyObserver{log: log}
}

func (o *LatencyObserver) OnStateChange(ev session.StateChange) {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch ev.To {
	case session.StatusProcessing:
		o.sttEnd = ev.Timestamp
	case session.StatusSpeaking:
		o.speakingStart = ev.Timestamp
	case session.StatusListening:
		if ev.From != session.StatusSpeaking || o.sttEnd.IsZero() {
			o.reset()
			return
		}
		o.log.Info("turn_latency",
			"think_ms", durationMs(o.sttEnd, o.speakingStart),
			"speak_ms", durationMs(o.speakingStart, ev.Timestamp),
			"turn_ms", durationMs(o.sttEnd, ev.Timestamp),
		)
		o.reset()
	case session.StatusIdle:
		o.reset()
	}
}

func (o *LatencyObserver) reset() {
	o.sttEnd = time.Time{}
	o.speakingStart = time.Time{}
}

// MultiObserver fans one state change out to several listeners.
type MultiObserver struct {
	list []session.StateListener
}

func NewMultiObserver(list ...session.StateListener) *MultiObserver {
	return &MultiObserver{list: list}
}

func (m *MultiObserver) OnStateChange(ev session.StateChange) {
	for _, obs := range m.list {
		if obs != nil {
			obs.OnStateChange(ev)
		}
	}
}

func durationMs(from, to time.Time) int64 {
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return 0
	}
	return to.Sub(from).Milliseconds()
}
