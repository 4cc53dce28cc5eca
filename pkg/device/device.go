// Package device abstracts the audio hardware from the pipelines. Backends
// deliver and consume mono float sample blocks; the pipelines never see a
// platform audio API.
package device

// Input is a microphone handle. It is acquired once per session and reused
// across listen cycles: Pause disables the underlying track without releasing
// it (re-acquisition is slow and re-triggers permission prompts), Close
// releases the device for good.
type Input interface {
	Start() error
	Pause() error
	Close() error
	Blocks() <-chan []float32
	Rate() int
}

// Source supplies samples to an output device. Render must fill all of out,
// zero-filling whatever it cannot supply, and must never block: it runs on
// the device's real-time rendering path.
type Source interface {
	Render(out []float32)
}

// Output is a speaker handle driving a continuously running render callback.
// Stop detaches the current source and halts rendering while keeping the
// device open for the next playback turn; Close releases it.
type Output interface {
	Start(src Source) error
	Stop() error
	Close() error
	Rate() int
	BlockSize() int
}
