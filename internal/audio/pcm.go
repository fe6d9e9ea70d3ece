package audio

import (
	"context"
	"encoding/binary"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// Config describes the capture format.
type Config struct {
	SampleRate   int
	Channels     int
	VolumeBoost  float32
	PollInterval time.Duration
}

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	if c.SampleRate <= 0 {
		c.SampleRate = 16000
	}
	if c.Channels <= 0 {
		c.Channels = 1
	}
	if c.VolumeBoost <= 0 {
		c.VolumeBoost = 1
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	return c
}

// DefaultPollInterval bounds how long a capture keeps running after the stop
// flag flips.
const DefaultPollInterval = 50 * time.Millisecond

// PCM16ToFloat32 decodes little-endian signed 16-bit samples. A trailing odd
// byte is ignored.
func PCM16ToFloat32(data []byte) []float32 {
	out := make([]float32, len(data)/2)
	for i := range out {
		out[i] = float32(int16(binary.LittleEndian.Uint16(data[2*i:]))) / 32768
	}
	return out
}

// Float32ToPCM16 encodes samples as little-endian signed 16-bit, clipping
// anything outside [-1, 1].
func Float32ToPCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := math.Max(-1, math.Min(1, float64(s)))
		binary.LittleEndian.PutUint16(out[2*i:], uint16(int16(math.Round(v*32767))))
	}
	return out
}

// SampleBuffer collects boosted samples from a capture callback. It is
// written only by the capture side and read once after capture stops.
type SampleBuffer struct {
	mu      sync.Mutex
	boost   float32
	samples []float32
}

func NewSampleBuffer(boost float32) *SampleBuffer {
	if boost <= 0 {
		boost = 1
	}
	return &SampleBuffer{boost: boost}
}

func (b *SampleBuffer) Append(in []float32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range in {
		b.samples = append(b.samples, s*b.boost)
	}
}

// Take hands the samples off; the buffer is empty afterwards.
func (b *SampleBuffer) Take() []float32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.samples
	b.samples = nil
	return out
}

// WaitForStop sleeps in interval steps until stop is true or ctx ends.
func WaitForStop(ctx context.Context, stop *atomic.Bool, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for !stop.Load() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
