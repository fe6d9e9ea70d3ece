package audio

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"speedystt/internal/logging"
)

func TestFFmpegCaptureRecordsUntilStopped(t *testing.T) {
	t.Parallel()
	requireShell(t)

	// 0x4000 = 0.5, 0xC000 = -0.5
	script := writeScript(t, "capture.sh", "#!/usr/bin/env bash\nprintf '\\x00\\x40\\x00\\xc0'\nexec sleep 5\n")
	capture := NewFFmpegCapture(FFmpegConfig{Command: script, Config: Config{VolumeBoost: 2, PollInterval: 5 * time.Millisecond}}, logging.Nop())

	stop := &atomic.Bool{}
	go func() {
		time.Sleep(400 * time.Millisecond)
		stop.Store(true)
	}()

	samples, err := capture.RecordUntilStopped(context.Background(), stop)
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if len(samples) != 2 || samples[0] != 1 || samples[1] != -1 {
		t.Fatalf("unexpected boosted samples: %v", samples)
	}
}

func TestFFmpegCaptureStartEarlyExit(t *testing.T) {
	t.Parallel()
	requireShell(t)

	script := writeScript(t, "fail.sh", "#!/usr/bin/env bash\necho 'boom' 1>&2\nexit 1\n")
	capture := NewFFmpegCapture(FFmpegConfig{Command: script}, logging.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := capture.RecordUntilStopped(ctx, &atomic.Bool{})
	if err == nil {
		t.Fatalf("expected early exit error")
	}
	if !strings.Contains(err.Error(), "exited before capture started") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFFmpegCaptureContextCancel(t *testing.T) {
	t.Parallel()
	requireShell(t)

	script := writeScript(t, "idle.sh", "#!/usr/bin/env bash\nexec sleep 5\n")
	capture := NewFFmpegCapture(FFmpegConfig{Command: script}, logging.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 400*time.Millisecond)
	defer cancel()

	_, err := capture.RecordUntilStopped(ctx, &atomic.Bool{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestNormalizeStopErrExitErrorIsIgnored(t *testing.T) {
	t.Parallel()
	requireShell(t)

	err := exec.Command("bash", "-c", "exit 1").Run()
	if err == nil {
		t.Fatalf("expected command to fail")
	}
	if got := normalizeStopErr(err); got != nil {
		t.Fatalf("expected nil for exit error, got %v", got)
	}
	if got := normalizeStopErr(exec.ErrWaitDelay); got != nil {
		t.Fatalf("expected nil for wait delay, got %v", got)
	}
}

func TestPCM16WriterCarriesOddBytes(t *testing.T) {
	t.Parallel()

	buf := NewSampleBuffer(1)
	w := &pcm16Writer{buf: buf}
	_, _ = w.Write([]byte{0x00})
	_, _ = w.Write([]byte{0x40, 0x00})
	_, _ = w.Write([]byte{0xc0})

	got := buf.Take()
	if len(got) != 2 || got[0] != 0.5 || got[1] != -0.5 {
		t.Fatalf("unexpected samples: %v", got)
	}
}

func TestStringsTrimSpaceSafe(t *testing.T) {
	t.Parallel()

	if got := stringsTrimSpaceSafe("  hi\n"); got != "hi" {
		t.Fatalf("unexpected trim result: %q", got)
	}
}

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	if _, err := exec.LookPath("bash"); err != nil {
		t.Skip("bash not available")
	}
}

func writeScript(t *testing.T, name string, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o700); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}
