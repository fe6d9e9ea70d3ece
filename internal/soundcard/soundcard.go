// Package soundcard talks to the default input and output devices through
// PortAudio.
package soundcard

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"

	"speedystt/internal/audio"
	"speedystt/internal/logging"
)

const outputFramesPerBuffer = 512

// Capture records from the default input device.
type Capture struct {
	cfg audio.Config
	log *logging.Logger
}

func NewCapture(cfg audio.Config, log *logging.Logger) *Capture {
	if log == nil {
		log = logging.Nop()
	}
	return &Capture{cfg: cfg.WithDefaults(), log: log.Named("capture")}
}

func (c *Capture) RecordUntilStopped(ctx context.Context, stop *atomic.Bool) ([]float32, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init failed: %w", err)
	}
	defer portaudio.Terminate()

	buf := audio.NewSampleBuffer(c.cfg.VolumeBoost)
	stream, err := portaudio.OpenDefaultStream(c.cfg.Channels, 0, float64(c.cfg.SampleRate), 0, buf.Append)
	if err != nil {
		return nil, fmt.Errorf("open input stream failed: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("start input stream failed: %w", err)
	}
	c.log.Info("recording started",
		logging.Int("sample_rate", c.cfg.SampleRate),
		logging.Int("channels", c.cfg.Channels),
		logging.Duration("input_latency", stream.Info().InputLatency),
	)

	waitErr := audio.WaitForStop(ctx, stop, c.cfg.PollInterval)
	if err := stream.Stop(); err != nil {
		c.log.Warn("failed to stop input stream", logging.Error(err))
	}
	if waitErr != nil {
		return nil, waitErr
	}

	samples := buf.Take()
	c.log.Info("recording stopped", logging.Int("samples", len(samples)))
	return samples, nil
}

// Play writes interleaved samples to the default output device and returns
// once they have been queued.
func Play(samples []float32, sampleRate, channels int) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio init failed: %w", err)
	}
	defer portaudio.Terminate()

	out := make([]float32, outputFramesPerBuffer*channels)
	stream, err := portaudio.OpenDefaultStream(0, channels, float64(sampleRate), outputFramesPerBuffer, out)
	if err != nil {
		return fmt.Errorf("open output stream failed: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("start output stream failed: %w", err)
	}
	for offset := 0; offset < len(samples); offset += len(out) {
		n := copy(out, samples[offset:])
		clear(out[n:])
		if err := stream.Write(); err != nil {
			return fmt.Errorf("write output stream failed: %w", err)
		}
	}
	return stream.Stop()
}

// DefaultInput names the default input device.
func DefaultInput() (string, error) {
	if err := portaudio.Initialize(); err != nil {
		return "", fmt.Errorf("portaudio init failed: %w", err)
	}
	defer portaudio.Terminate()

	device, err := portaudio.DefaultInputDevice()
	if err != nil {
		return "", fmt.Errorf("no default input device: %w", err)
	}
	return fmt.Sprintf("%s (%d ch, %.0f Hz)", device.Name, device.MaxInputChannels, device.DefaultSampleRate), nil
}
