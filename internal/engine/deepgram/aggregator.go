package deepgram

import "strings"

// transcriptAggregator joins final results, falling back to the last spoken
// text when the stream ended on a partial.
type transcriptAggregator struct {
	finals     []string
	lastSpoken string
}

func (a *transcriptAggregator) Add(event transcriptEvent) {
	text := strings.TrimSpace(event.Text)
	if text == "" {
		return
	}
	a.lastSpoken = text
	if event.Kind == transcriptFinal {
		a.finals = append(a.finals, text)
	}
}

func (a *transcriptAggregator) Raw() string {
	joined := strings.TrimSpace(strings.Join(a.finals, " "))
	if joined == "" {
		return a.lastSpoken
	}
	if a.lastSpoken == "" || strings.HasSuffix(joined, a.lastSpoken) {
		return joined
	}
	if len(a.lastSpoken) > len(joined) {
		return strings.TrimSpace(joined + " " + a.lastSpoken)
	}
	return joined
}
