package pcm

import (
	"encoding/base64"
	"fmt"
)

// EncodeWire packs int16 samples as little-endian bytes and base64-encodes
// them for transport inside text messages.
func EncodeWire(samples []int16) string {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		buf[i*2] = byte(s)
		buf[i*2+1] = byte(uint16(s) >> 8)
	}
	return base64.StdEncoding.EncodeToString(buf)
}

// DecodeWire reverses EncodeWire. The decoded byte count must be even.
func DecodeWire(payload string) ([]int16, error) {
	buf, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, err
	}
	return DecodePCM16(buf)
}

// DecodePCM16 interprets little-endian bytes as int16 samples.
func DecodePCM16(buf []byte) ([]int16, error) {
	if len(buf)%2 != 0 {
		return nil, fmt.Errorf("pcm payload has odd byte count %d", len(buf))
	}
	out := make([]int16, len(buf)/2)
	for i := range out {
		out[i] = int16(buf[i*2]) | int16(buf[i*2+1])<<8
	}
	return out, nil
}
