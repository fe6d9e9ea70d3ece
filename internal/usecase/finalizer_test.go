package usecase

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"speedystt/internal/domain"
	"speedystt/internal/logging"
)

func TestTranscriptFinalizerRulesFailureInjectsRaw(t *testing.T) {
	t.Parallel()

	events := &fakeEventSink{}
	injector := &fakeInjector{}
	f := newTranscriptFinalizer(&fakeRules{err: errors.New("rules")}, injector, events)

	text, reason := f.Finalize(context.Background(), logging.Nop(), "raw")
	if reason != domain.CycleReasonTextInjected {
		t.Fatalf("unexpected reason: %s", reason)
	}
	if text != "raw" {
		t.Fatalf("expected raw transcript, got %q", text)
	}
	if got := injector.snapshot(); len(got) != 1 || got[0] != "raw" {
		t.Fatalf("unexpected injections: %v", got)
	}
	if !events.hasError(domain.ErrorCodeRules) {
		t.Fatalf("expected rules error event")
	}
}

func TestTranscriptFinalizerInjectFailure(t *testing.T) {
	t.Parallel()

	events := &fakeEventSink{}
	injector := &fakeInjector{err: errors.New("clipboard")}
	f := newTranscriptFinalizer(&fakeRules{transform: "final"}, injector, events)

	text, reason := f.Finalize(context.Background(), logging.Nop(), "raw")
	if reason != domain.CycleReasonInjectFailed {
		t.Fatalf("unexpected reason: %s", reason)
	}
	if text != "final" {
		t.Fatalf("unexpected text: %q", text)
	}
	errs := events.snapshotErrors()
	if len(errs) != 1 || errs[0].code != domain.ErrorCodeInjection {
		t.Fatalf("unexpected error events: %+v", errs)
	}
}

func TestTranscriptFinalizerWithoutRules(t *testing.T) {
	t.Parallel()

	injector := &fakeInjector{}
	f := newTranscriptFinalizer(nil, injector, &fakeEventSink{})

	text, reason := f.Finalize(context.Background(), logging.Nop(), "as spoken")
	if reason != domain.CycleReasonTextInjected || text != "as spoken" {
		t.Fatalf("unexpected finalize result: %q %s", text, reason)
	}
}

func TestTranscriptFinalizerEmptyRulesOutputInjectsRaw(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	injector := &fakeInjector{}
	f := newTranscriptFinalizer(emptyRules{}, injector, &fakeEventSink{})

	text, reason := f.Finalize(context.Background(), &logging.Logger{Logger: zap.New(core)}, "um")
	if reason != domain.CycleReasonTextInjected || text != "um" {
		t.Fatalf("unexpected finalize result: %q %s", text, reason)
	}
	if got := injector.snapshot(); len(got) != 1 || got[0] != "um" {
		t.Fatalf("unexpected injections: %v", got)
	}
	if n := logs.FilterMessage("rules removed the entire transcript, injecting raw transcript").Len(); n != 1 {
		t.Fatalf("expected emptied transcript to be logged, got %d entries", n)
	}
}

type emptyRules struct{}

func (emptyRules) Apply(string) (string, error) { return "", nil }
