package protocol

import (
	"errors"
	"testing"

	"github.com/voxa-ai/voxa/pkg/pcm"
)

func TestDecodeSTTEnd(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"stt_end"}`))
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if _, ok := msg.(STTEnd); !ok {
		t.Fatalf("expected STTEnd, got %T", msg)
	}
}

func TestDecodeFinalAnswer(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"final_answer","data":"hello there"}`))
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	fa, ok := msg.(FinalAnswer)
	if !ok {
		t.Fatalf("expected FinalAnswer, got %T", msg)
	}
	if fa.Text != "hello there" {
		t.Fatalf("unexpected transcript %q", fa.Text)
	}
}

func TestDecodeTTSChunk(t *testing.T) {
	samples := []int16{100, -100, 32767, -32768}
	payload := `{"type":"tts_chunk","data":"` + pcm.EncodeWire(samples) + `"}`
	msg, err := Decode([]byte(payload))
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	chunk, ok := msg.(TTSChunk)
	if !ok {
		t.Fatalf("expected TTSChunk, got %T", msg)
	}
	if chunk.Rate != TTSSourceRate {
		t.Fatalf("expected rate %d, got %d", TTSSourceRate, chunk.Rate)
	}
	for i := range samples {
		if chunk.Samples[i] != samples[i] {
			t.Fatalf("sample %d: expected %d, got %d", i, samples[i], chunk.Samples[i])
		}
	}
}

func TestDecodeErrorMessage(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"error","message":"engine overloaded"}`))
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	se, ok := msg.(ServerError)
	if !ok {
		t.Fatalf("expected ServerError, got %T", msg)
	}
	if se.Message != "engine overloaded" {
		t.Fatalf("unexpected message %q", se.Message)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	cases := []string{
		`not json at all`,
		`{"type":"heartbeat"}`,
		`{"type":"tts_chunk","data":"***"}`,
	}
	for _, raw := range cases {
		if _, err := Decode([]byte(raw)); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
	_, err := Decode([]byte(`{"type":"heartbeat"}`))
	if !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
}
