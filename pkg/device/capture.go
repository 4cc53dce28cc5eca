package device

import (
	"encoding/binary"
	"math"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
	"github.com/voxa-ai/voxa/pkg/errorsx"
)

// MalgoInput captures the default microphone through miniaudio. The device is
// initialized once; Start and Pause toggle the capture track so listen cycles
// never re-acquire the device.
type MalgoInput struct {
	ctx    *malgo.AllocatedContext
	dev    *malgo.Device
	rate   int
	blocks chan []float32

	running atomic.Bool
	paused  atomic.Bool

	closeOnce sync.Once
}

// NewMalgoInput opens the default capture device at the given rate, mono
// float format. Failure to initialize the device is how a denied microphone
// permission surfaces on desktop platforms.
func NewMalgoInput(rate, blockBuffer int) (*MalgoInput, error) {
	if blockBuffer <= 0 {
		blockBuffer = 16
	}
	ctxCfg := malgo.ContextConfig{}
	ctxCfg.ThreadPriority = malgo.ThreadPriorityRealtime
	ctx, err := malgo.InitContext(nil, ctxCfg, nil)
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonDeviceOpen)
	}

	in := &MalgoInput{
		ctx:    ctx,
		rate:   rate,
		blocks: make(chan []float32, blockBuffer),
	}

	devCfg := malgo.DefaultDeviceConfig(malgo.Capture)
	devCfg.Capture.Format = malgo.FormatF32
	devCfg.Capture.Channels = 1
	devCfg.SampleRate = uint32(rate)
	devCfg.PeriodSizeInMilliseconds = 20

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			if in.paused.Load() {
				return
			}
			block := bytesToFloat32(input)
			select {
			case in.blocks <- block:
			default:
				// The control side fell behind; dropping a mic block is
				// preferable to blocking the device thread.
			}
		},
	}

	dev, err := malgo.InitDevice(ctx.Context, devCfg, callbacks)
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return nil, errorsx.Wrap(err, errorsx.ReasonDevicePermission)
	}
	in.dev = dev
	return in, nil
}

func (in *MalgoInput) Rate() int                { return in.rate }
func (in *MalgoInput) Blocks() <-chan []float32 { return in.blocks }

func (in *MalgoInput) Start() error {
	in.paused.Store(false)
	if in.running.CompareAndSwap(false, true) {
		if err := in.dev.Start(); err != nil {
			in.running.Store(false)
			return errorsx.Wrap(err, errorsx.ReasonDeviceStart)
		}
	}
	return nil
}

// Pause mutes the track: the device stops producing but stays acquired.
func (in *MalgoInput) Pause() error {
	in.paused.Store(true)
	if in.running.CompareAndSwap(true, false) {
		if err := in.dev.Stop(); err != nil {
			return errorsx.Wrap(err, errorsx.ReasonDeviceStart)
		}
	}
	return nil
}

func (in *MalgoInput) Close() error {
	in.closeOnce.Do(func() {
		in.paused.Store(true)
		if in.dev != nil {
			in.dev.Uninit()
		}
		if in.ctx != nil {
			_ = in.ctx.Uninit()
			in.ctx.Free()
		}
		close(in.blocks)
	})
	return nil
}

func bytesToFloat32(buf []byte) []float32 {
	out := make([]float32, len(buf)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out
}
