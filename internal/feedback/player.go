// Package feedback plays the start and finish cues.
package feedback

import (
	"errors"
	"fmt"
	"os"

	"github.com/gen2brain/beeep"
	"github.com/go-audio/wav"

	"speedystt/internal/domain"
	"speedystt/internal/logging"
)

// clip is decoded interleaved audio normalized to [-1, 1].
type clip struct {
	samples    []float32
	sampleRate int
	channels   int
}

// Output plays interleaved samples and returns when playback is done.
type Output func(samples []float32, sampleRate, channels int) error

// Player plays WAV cues synchronously through output. A sound without a
// path falls back to a system beep.
type Player struct {
	enabled bool
	output  Output
	log     *logging.Logger

	beep func(frequency float64, durationMs int) error
}

func NewPlayer(enabled bool, output Output, log *logging.Logger) *Player {
	if log == nil {
		log = logging.Nop()
	}
	return &Player{
		enabled: enabled,
		output:  output,
		log:     log.Named("feedback"),
		beep:    beeep.Beep,
	}
}

func (p *Player) Play(sound domain.Sound) error {
	if !p.enabled {
		return nil
	}

	if sound.Path == "" {
		if sound.Frequency <= 0 {
			return nil
		}
		return p.beep(sound.Frequency, sound.DurationMs)
	}

	c, err := decodeWAV(sound.Path)
	if err != nil {
		return err
	}
	if p.output == nil {
		return errors.New("no audio output configured")
	}
	if err := p.output(c.samples, c.sampleRate, c.channels); err != nil {
		return fmt.Errorf("play %s: %w", sound.Name, err)
	}
	p.log.Debug("played sound", logging.String("sound", sound.Name), logging.String("path", sound.Path))
	return nil
}

func decodeWAV(path string) (clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return clip{}, fmt.Errorf("open sound file: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return clip{}, fmt.Errorf("%s is not a valid WAV file", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return clip{}, fmt.Errorf("decode sound file: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 || buf.Format.SampleRate <= 0 {
		return clip{}, errors.New("sound file has no usable format")
	}

	depth := buf.SourceBitDepth
	if depth <= 0 {
		depth = int(dec.BitDepth)
	}
	scale, err := pcmScale(depth)
	if err != nil {
		return clip{}, err
	}
	samples := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float32(v) / scale
	}
	return clip{samples: samples, sampleRate: buf.Format.SampleRate, channels: buf.Format.NumChannels}, nil
}

// pcmScale is the full-scale magnitude of a signed integer sample.
func pcmScale(depth int) (float32, error) {
	if depth <= 0 || depth > 32 {
		return 0, fmt.Errorf("sound file has unsupported bit depth %d", depth)
	}
	return float32(int64(1) << (depth - 1)), nil
}
