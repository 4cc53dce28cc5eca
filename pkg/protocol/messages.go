// Package protocol implements the wire protocol spoken with the assistant
// backend: JSON control messages inbound, base64 PCM16 text frames outbound.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/voxa-ai/voxa/pkg/pcm"
)

const (
	TypeSTTEnd      = "stt_end"
	TypeFinalAnswer = "final_answer"
	TypeTTSChunk    = "tts_chunk"
	TypeTTSEnd      = "tts_end"
	TypeError       = "error"
)

// ErrUnknownType marks payloads whose discriminator is not part of the
// protocol. Callers drop these without further handling.
var ErrUnknownType = errors.New("unknown message type")

type envelope struct {
	Type    string `json:"type"`
	Data    string `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// Message is one inbound control message, consumed exactly once.
type Message interface {
	messageType() string
}

// STTEnd signals that speech-to-text finished for the current utterance.
type STTEnd struct{}

// FinalAnswer carries the transcript of the assistant's reply.
type FinalAnswer struct {
	Text string
}

// TTSChunk carries one decoded block of synthesized speech samples.
type TTSChunk struct {
	Samples []int16
	Rate    int
}

// TTSEnd signals that no further chunks follow for this turn.
type TTSEnd struct{}

// ServerError is fatal for the session.
type ServerError struct {
	Message string
}

func (STTEnd) messageType() string      { return TypeSTTEnd }
func (FinalAnswer) messageType() string { return TypeFinalAnswer }
func (TTSChunk) messageType() string    { return TypeTTSChunk }
func (TTSEnd) messageType() string      { return TypeTTSEnd }
func (ServerError) messageType() string { return TypeError }

// TTSSourceRate is the sample rate the backend synthesizes speech at.
const TTSSourceRate = 24000

// Decode parses a raw inbound payload into a typed message. Malformed JSON,
// unknown discriminators, and undecodable chunk payloads all return an error;
// none of them are retryable.
func Decode(raw []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("malformed control message: %w", err)
	}
	switch env.Type {
	case TypeSTTEnd:
		return STTEnd{}, nil
	case TypeFinalAnswer:
		return FinalAnswer{Text: env.Data}, nil
	case TypeTTSChunk:
		samples, err := pcm.DecodeWire(env.Data)
		if err != nil {
			return nil, fmt.Errorf("tts chunk payload: %w", err)
		}
		return TTSChunk{Samples: samples, Rate: TTSSourceRate}, nil
	case TypeTTSEnd:
		return TTSEnd{}, nil
	case TypeError:
		return ServerError{Message: env.Message}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

// EncodeCaptureFrame serializes one outbound capture block: base64 text of
// little-endian PCM16, sent as a single websocket text message.
func EncodeCaptureFrame(samples []int16) string {
	return pcm.EncodeWire(samples)
}
