// Package rules rewrites transcripts with user substitutions before they
// are typed.
//
// A rules file holds one rule per line:
//
//	# comment
//	pull request => PR
//	s/\bnew line\b/\n/g
//
// Literal rules match whole phrases case-insensitively. Regex rules use sed
// syntax with any non-alphanumeric delimiter and the flags i, g, m, s.
package rules

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"speedystt/internal/logging"
)

const DefaultIterationLimit = 30

// ErrUnstable is returned when rules keep rewriting each other past the
// iteration limit.
var ErrUnstable = errors.New("substitution rules did not settle")

type rule interface {
	apply(text string) (string, bool)
}

// Set is an ordered list of rules applied until the text stops changing.
type Set struct {
	rules []rule
	limit int
	log   *logging.Logger
}

// Load reads a rules file. A blank path or a missing file yields an empty
// set.
func Load(path string, limit int, log *logging.Logger) (*Set, error) {
	if strings.TrimSpace(path) == "" {
		return newSet(nil, limit, log), nil
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return newSet(nil, limit, log), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open rules file %q: %w", path, err)
	}
	defer f.Close()

	set, err := Parse(f, limit, log)
	if err != nil {
		return nil, fmt.Errorf("rules file %q: %w", path, err)
	}
	set.log.Info("rules loaded", logging.String("path", path), logging.Int("rules", set.Len()))
	return set, nil
}

// Parse reads rules from r.
func Parse(r io.Reader, limit int, log *logging.Logger) (*Set, error) {
	var rules []rule
	scanner := bufio.NewScanner(r)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parsed, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		rules = append(rules, parsed)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return newSet(rules, limit, log), nil
}

func newSet(rules []rule, limit int, log *logging.Logger) *Set {
	if limit <= 0 {
		limit = DefaultIterationLimit
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Set{rules: rules, limit: limit, log: log.Named("rules")}
}

func (s *Set) Len() int { return len(s.rules) }

// Apply runs every rule in order, repeating the pass until nothing changes.
// When the text is still changing after the iteration limit it returns the
// last result together with ErrUnstable.
func (s *Set) Apply(text string) (string, error) {
	if len(s.rules) == 0 {
		return text, nil
	}

	for pass := 1; pass <= s.limit; pass++ {
		changed := false
		for _, r := range s.rules {
			if next, ok := r.apply(text); ok {
				text = next
				changed = true
			}
		}
		if !changed {
			s.log.Debug("rules settled", logging.Int("passes", pass))
			return text, nil
		}
	}
	return text, fmt.Errorf("%w after %d passes", ErrUnstable, s.limit)
}
