package playback

import (
	"testing"
	"time"

	devicemock "github.com/voxa-ai/voxa/pkg/device/mock"
	"github.com/voxa-ai/voxa/pkg/pcm"
)

func TestLifecycleReadyToActiveOnFirstChunk(t *testing.T) {
	out := devicemock.NewOutput(24000, 128)
	p := New(Config{}, out, nil)
	defer p.Close()

	if p.State() != StateReady {
		t.Fatalf("expected READY before first chunk, got %s", p.State())
	}
	if err := p.Enqueue(make([]int16, 240), 24000); err != nil {
		t.Fatalf("enqueue error: %v", err)
	}
	if p.State() != StateActive {
		t.Fatalf("expected ACTIVE after first chunk, got %s", p.State())
	}
}

func TestRenderDrainsAndZeroFills(t *testing.T) {
	out := devicemock.NewOutput(24000, 100)
	p := New(Config{}, out, nil)
	defer p.Close()

	samples := make([]int16, 150)
	for i := range samples {
		samples[i] = 16384
	}
	_ = p.Enqueue(samples, 24000)

	out.Pump(2)
	played := out.Played()
	if len(played) != 200 {
		t.Fatalf("expected 200 rendered samples, got %d", len(played))
	}
	for i := 0; i < 150; i++ {
		if played[i] == 0 {
			t.Fatalf("sample %d should carry signal", i)
		}
	}
	for i := 150; i < 200; i++ {
		if played[i] != 0 {
			t.Fatalf("undersupplied sample %d must be silence, got %f", i, played[i])
		}
	}
}

func TestEnqueueResamplesSourceRate(t *testing.T) {
	out := devicemock.NewOutput(48000, 100)
	p := New(Config{}, out, nil)
	defer p.Close()

	// 100 samples at 24k become 200 at the 48k device rate.
	_ = p.Enqueue(make([]int16, 100), 24000)
	p.MarkEnd()

	out.Pump(2)
	if p.State() != StateDrained {
		t.Fatalf("expected exactly two blocks to drain the chunk, got %s", p.State())
	}
}

func TestEndReportedOnlyAfterDrain(t *testing.T) {
	out := devicemock.NewOutput(24000, 100)
	p := New(Config{}, out, nil)
	defer p.Close()

	_ = p.Enqueue(make([]int16, 250), 24000)
	p.MarkEnd()

	select {
	case <-p.Done():
		t.Fatal("end-of-stream must not fire before the buffer drains")
	default:
	}

	out.Pump(2) // 200 of 250 samples played
	select {
	case <-p.Done():
		t.Fatal("end-of-stream fired with samples still buffered")
	default:
	}

	out.Pump(1) // past the end marker
	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("end-of-stream never fired after full drain")
	}
	if p.State() != StateDrained {
		t.Fatalf("expected DRAINED, got %s", p.State())
	}
}

func TestBacklogNeverLosesAudioOrEndMarker(t *testing.T) {
	out := devicemock.NewOutput(24000, 100)
	p := New(Config{QueueSize: 2}, out, nil)
	defer p.Close()

	// Queue well past the configured size before the device renders a single
	// block, as a stalled speaker would.
	for i := 0; i < 3; i++ {
		samples := make([]int16, 100)
		for j := range samples {
			samples[j] = 8192
		}
		if err := p.Enqueue(samples, 24000); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	p.MarkEnd()

	out.Pump(3)
	played := out.Played()
	if len(played) != 300 {
		t.Fatalf("expected 300 rendered samples, got %d", len(played))
	}
	for i, s := range played {
		if s == 0 {
			t.Fatalf("sample %d lost to backlog", i)
		}
	}
	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("end marker lost: stream never reported drained")
	}
	if p.State() != StateDrained {
		t.Fatalf("expected DRAINED, got %s", p.State())
	}
}

func TestMarkEndWithoutChunksCompletesImmediately(t *testing.T) {
	out := devicemock.NewOutput(24000, 100)
	p := New(Config{}, out, nil)
	defer p.Close()

	p.MarkEnd()
	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("empty stream should complete without render callbacks")
	}
	if p.State() != StateDrained {
		t.Fatalf("expected DRAINED, got %s", p.State())
	}
}

func TestTapObservesDecodedSignal(t *testing.T) {
	out := devicemock.NewOutput(24000, 100)
	p := New(Config{TapWindow: 64}, out, nil)
	defer p.Close()

	_ = p.Enqueue(pcm.Quantize([]float32{0.5, 0.5, 0.5, 0.5}), 24000)
	if p.Tap().Amplitude() < 0.4 {
		t.Fatalf("tap should observe the decoded signal, amplitude %f", p.Tap().Amplitude())
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	out := devicemock.NewOutput(24000, 100)
	p := New(Config{}, out, nil)
	if err := p.Close(); err != nil {
		t.Fatalf("close error: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second close error: %v", err)
	}
	if out.StopCount() != 1 {
		t.Fatalf("expected exactly one device stop, got %d", out.StopCount())
	}
	if out.Closed() {
		t.Fatal("pipeline close must leave the device open for the next turn")
	}
}
