package rules

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const arrow = "=>"

func parseLine(line string) (rule, error) {
	if isSedRule(line) {
		r, err := parseSed(line)
		if err == nil || !strings.Contains(line, arrow) {
			return r, err
		}
	}
	if strings.Contains(line, arrow) {
		return parseLiteral(line)
	}
	return nil, errors.New("expected \"from => to\" or s/pattern/replacement/flags")
}

// literal replaces a phrase wherever it appears as whole words.
type literal struct {
	re *regexp.Regexp
	to string
}

func parseLiteral(line string) (rule, error) {
	from, to, _ := strings.Cut(line, arrow)
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if from == "" {
		return nil, errors.New("literal rule needs a phrase before =>")
	}

	pattern := regexp.QuoteMeta(from)
	if isWordByte(from[0]) {
		pattern = `\b` + pattern
	}
	if isWordByte(from[len(from)-1]) {
		pattern += `\b`
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, err
	}
	return literal{re: re, to: to}, nil
}

func (l literal) apply(text string) (string, bool) {
	out := l.re.ReplaceAllLiteralString(text, l.to)
	return out, out != text
}

// sed is an s/pattern/replacement/flags rule. Without g only the first
// match is replaced. Matching is case-insensitive unless I is given.
type sed struct {
	re          *regexp.Regexp
	replacement string
	global      bool
}

func isSedRule(line string) bool {
	return len(line) > 2 && line[0] == 's' && !isWordByte(line[1]) && line[1] != ' ' && line[1] != '\t'
}

func parseSed(line string) (rule, error) {
	delim := line[1]
	fields, rest, err := splitDelimited(line[2:], delim, 2)
	if err != nil {
		return nil, err
	}

	ignoreCase, global, inline := true, false, ""
	for _, flag := range strings.TrimSpace(rest) {
		switch flag {
		case 'i':
			ignoreCase = true
		case 'I':
			ignoreCase = false
		case 'g':
			global = true
		case 'm', 's':
			inline += string(flag)
		default:
			return nil, fmt.Errorf("unsupported flag %q", flag)
		}
	}
	if ignoreCase {
		inline = "i" + inline
	}

	pattern := fields[0]
	if inline != "" {
		pattern = "(?" + inline + ")" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}
	return sed{re: re, replacement: unescapeReplacement(fields[1]), global: global}, nil
}

func (r sed) apply(text string) (string, bool) {
	var out string
	if r.global {
		out = r.re.ReplaceAllString(text, r.replacement)
	} else {
		loc := r.re.FindStringSubmatchIndex(text)
		if loc == nil {
			return text, false
		}
		expanded := r.re.ExpandString(nil, r.replacement, text, loc)
		out = text[:loc[0]] + string(expanded) + text[loc[1]:]
	}
	return out, out != text
}

// splitDelimited reads n delimiter-terminated fields. A backslash keeps the
// next byte; an escaped delimiter loses its backslash.
func splitDelimited(s string, delim byte, n int) ([]string, string, error) {
	fields := make([]string, 0, n)
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s):
			i++
			if s[i] != delim {
				b.WriteByte('\\')
			}
			b.WriteByte(s[i])
		case c == delim:
			fields = append(fields, b.String())
			b.Reset()
			if len(fields) == n {
				return fields, s[i+1:], nil
			}
		default:
			b.WriteByte(c)
		}
	}
	return nil, "", fmt.Errorf("unterminated expression, want %d %q-delimited fields", n, delim)
}

// unescapeReplacement turns \n and \t into the characters they name so
// spoken commands can produce line breaks.
func unescapeReplacement(s string) string {
	return strings.NewReplacer(`\n`, "\n", `\t`, "\t").Replace(s)
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
