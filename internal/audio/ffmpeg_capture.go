package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"speedystt/internal/logging"
)

// FFmpegConfig selects the ffmpeg input.
type FFmpegConfig struct {
	Config
	Command     string
	InputFormat string
	InputDevice string
}

// FFmpegCapture records microphone PCM by piping s16le from ffmpeg.
type FFmpegCapture struct {
	cfg FFmpegConfig
	log *logging.Logger
}

func NewFFmpegCapture(cfg FFmpegConfig, log *logging.Logger) *FFmpegCapture {
	cfg.Config = cfg.Config.WithDefaults()
	if cfg.Command == "" {
		cfg.Command = "ffmpeg"
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = defaultInputFormat()
	}
	if cfg.InputDevice == "" {
		cfg.InputDevice = "default"
	}
	if log == nil {
		log = logging.Nop()
	}
	return &FFmpegCapture{cfg: cfg, log: log.Named("capture")}
}

func (c *FFmpegCapture) RecordUntilStopped(ctx context.Context, stop *atomic.Bool) ([]float32, error) {
	buf := NewSampleBuffer(c.cfg.VolumeBoost)
	proc, err := c.start(ctx, &pcm16Writer{buf: buf})
	if err != nil {
		return nil, err
	}

	waitErr := WaitForStop(ctx, stop, c.cfg.PollInterval)
	stopErr := proc.Stop()

	if waitErr != nil {
		return nil, waitErr
	}
	if stopErr != nil {
		return nil, fmt.Errorf("ffmpeg capture failed: %w", stopErr)
	}

	samples := buf.Take()
	c.log.Info("recording stopped", logging.Int("samples", len(samples)))
	return samples, nil
}

// start launches ffmpeg with stdout copied into out. Wait returns only after
// the copy drains, so every sample is in out once Stop returns.
func (c *FFmpegCapture) start(ctx context.Context, out io.Writer) (*ffmpegProcess, error) {
	args := []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", c.cfg.InputFormat,
		"-i", c.cfg.InputDevice,
		"-ac", strconv.Itoa(c.cfg.Channels),
		"-ar", strconv.Itoa(c.cfg.SampleRate),
		"-f", "s16le",
		"-",
	}

	cmd := exec.CommandContext(ctx, c.cfg.Command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.Stdout = out
	cmd.WaitDelay = time.Second

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
		close(waitErr)
	}()

	select {
	case err := <-waitErr:
		if err != nil {
			return nil, fmt.Errorf("ffmpeg exited before capture started: %w: %s", err, stringsTrimSpaceSafe(stderr.String()))
		}
		return nil, errors.New("ffmpeg exited before capture started")
	case <-time.After(250 * time.Millisecond):
	}

	c.log.Info("recording started",
		logging.String("format", c.cfg.InputFormat),
		logging.String("device", c.cfg.InputDevice),
	)
	return &ffmpegProcess{
		stderr:  &stderr,
		process: cmd.Process,
		waitErr: waitErr,
	}, nil
}

// pcm16Writer decodes s16le into a sample buffer, carrying an odd trailing
// byte across writes.
type pcm16Writer struct {
	buf   *SampleBuffer
	carry []byte
}

func (w *pcm16Writer) Write(p []byte) (int, error) {
	data := append(w.carry, p...)
	even := len(data) &^ 1
	w.buf.Append(PCM16ToFloat32(data[:even]))
	w.carry = append(w.carry[:0], data[even:]...)
	return len(p), nil
}

type ffmpegProcess struct {
	stderr *bytes.Buffer

	process *os.Process
	waitErr <-chan error

	stopOnce sync.Once
	stopErr  error
}

// Stop interrupts ffmpeg, escalating to kill when it does not exit in time.
func (p *ffmpegProcess) Stop() error {
	p.stopOnce.Do(func() {
		if p.process != nil {
			_ = p.process.Signal(os.Interrupt)
		}

		select {
		case err, ok := <-p.waitErr:
			if ok {
				p.stopErr = normalizeStopErr(err)
			}
		case <-time.After(1200 * time.Millisecond):
			if p.process != nil {
				_ = p.process.Kill()
			}
			err, ok := <-p.waitErr
			if ok {
				p.stopErr = normalizeStopErr(err)
			}
		}

		if p.stopErr != nil && p.stderr != nil && p.stderr.Len() > 0 {
			p.stopErr = fmt.Errorf("%w: %s", p.stopErr, stringsTrimSpaceSafe(p.stderr.String()))
		}
	})

	return p.stopErr
}

func normalizeStopErr(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) || errors.Is(err, exec.ErrWaitDelay) {
		return nil
	}
	return err
}

func stringsTrimSpaceSafe(input string) string {
	if input == "" {
		return input
	}
	return string(bytes.TrimSpace([]byte(input)))
}
