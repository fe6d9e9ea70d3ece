package usecase

import (
	"context"

	"speedystt/internal/domain"
	"speedystt/internal/logging"
	"speedystt/internal/ports"
)

type transcriptFinalizer struct {
	rules    ports.RulesEngine
	injector ports.TextInjector
	events   ports.EventSink
}

func newTranscriptFinalizer(rules ports.RulesEngine, injector ports.TextInjector, events ports.EventSink) transcriptFinalizer {
	return transcriptFinalizer{rules: rules, injector: injector, events: events}
}

// Finalize applies substitutions and injects the text. A rules failure
// falls back to the raw transcript; injection errors are reported only.
func (f transcriptFinalizer) Finalize(ctx context.Context, log *logging.Logger, raw string) (string, domain.CycleReason) {
	text := raw
	if f.rules != nil {
		transformed, err := f.rules.Apply(raw)
		if err != nil {
			log.Warn("rules processing failed, injecting raw transcript", logging.Error(err))
			f.events.CycleError(domain.ErrorCodeRules, err.Error())
		} else if transformed == "" {
			log.Warn("rules removed the entire transcript, injecting raw transcript")
		} else {
			text = transformed
		}
	}

	if err := f.injector.Inject(ctx, text); err != nil {
		log.Error("failed to inject text", logging.Error(err))
		f.events.CycleError(domain.ErrorCodeInjection, err.Error())
		return text, domain.CycleReasonInjectFailed
	}
	return text, domain.CycleReasonTextInjected
}
