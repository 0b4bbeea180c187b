package glob

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

var (
	numericRange = regexp.MustCompile(`^(-?\d+)\.\.(-?\d+)(?:\.\.(-?\d+))?$`)
	letterRange  = regexp.MustCompile(`^([A-Za-z])\.\.([A-Za-z])(?:\.\.(-?\d+))?$`)
)

// Compile turns a slash-separated pattern into its ExpansionSet.
//
// Braces are expanded first ("a/{b,c}" yields two sequences), then every
// expansion is split on runs of "/" and each segment classified as literal
// or wildcard. A leading "/" produces an empty first token, so absolute
// patterns keep their root.
//
// Returns ErrBadPattern if the pattern is not valid glob syntax.
func Compile(pattern string) (ExpansionSet, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: %q", ErrBadPattern, pattern)
	}

	expanded := expandBraces(pattern)
	set := make(ExpansionSet, 0, len(expanded))
	for _, p := range expanded {
		set = append(set, tokenize(p))
	}

	return set, nil
}

// tokenize splits one brace-free pattern into tokens.
func tokenize(pattern string) Sequence {
	segments := splitSegments(pattern)
	seq := make(Sequence, len(segments))
	for i, seg := range segments {
		seq[i] = Token{Value: seg, Wildcard: hasMagic(seg)}
	}
	return seq
}

// splitSegments splits on runs of "/", keeping a leading and a trailing
// empty segment but collapsing empty segments in between.
func splitSegments(pattern string) []string {
	parts := strings.Split(pattern, "/")
	out := make([]string, 0, len(parts))
	for i, p := range parts {
		if p == "" && i > 0 && i < len(parts)-1 {
			continue
		}
		out = append(out, p)
	}
	return out
}

// hasMagic reports whether a single segment carries wildcard syntax.
func hasMagic(seg string) bool {
	if strings.ContainsAny(seg, "*?[") {
		return true
	}
	for _, ext := range []string{"@(", "!(", "+("} {
		if strings.Contains(seg, ext) {
			return true
		}
	}
	return false
}

// expandBraces returns every alternative of the first expandable brace
// group, recursing into the alternatives and the remainder. Braces that
// do not form an alternation or a range are kept as literal text.
func expandBraces(s string) []string {
	for i := 0; i < len(s); i++ {
		if s[i] != '{' {
			continue
		}

		j := matchingBrace(s, i)
		if j < 0 {
			continue
		}

		alts, ok := braceAlternatives(s[i+1 : j])
		if !ok {
			continue
		}

		pre := s[:i]
		posts := expandBraces(s[j+1:])

		var out []string
		for _, alt := range alts {
			for _, a := range expandBraces(alt) {
				for _, p := range posts {
					out = append(out, pre+a+p)
				}
			}
		}
		return out
	}

	return []string{s}
}

// matchingBrace returns the index of the "}" closing the "{" at open,
// or -1 when the group is unterminated.
func matchingBrace(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// braceAlternatives interprets the body of a brace group. It reports false
// when the body is neither a comma list nor a range.
func braceAlternatives(body string) ([]string, bool) {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '{':
			depth++
		case '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, body[start:i])
				start = i + 1
			}
		}
	}
	if parts != nil {
		return append(parts, body[start:]), true
	}

	if m := numericRange.FindStringSubmatch(body); m != nil {
		return expandNumericRange(m[1], m[2], m[3]), true
	}
	if m := letterRange.FindStringSubmatch(body); m != nil {
		return expandLetterRange(m[1][0], m[2][0], m[3]), true
	}

	return nil, false
}

func rangeStep(raw string) int {
	if raw == "" {
		return 1
	}
	step, err := strconv.Atoi(raw)
	if err != nil || step == 0 {
		return 1
	}
	if step < 0 {
		return -step
	}
	return step
}

func expandNumericRange(lo, hi, step string) []string {
	from, _ := strconv.Atoi(lo) // nolint:errcheck // guaranteed digits by numericRange
	to, _ := strconv.Atoi(hi)   // nolint:errcheck // guaranteed digits by numericRange
	inc := rangeStep(step)

	width := 0
	if padded(lo) || padded(hi) {
		width = max(len(strings.TrimPrefix(lo, "-")), len(strings.TrimPrefix(hi, "-")))
	}

	var out []string
	if from <= to {
		for n := from; n <= to; n += inc {
			out = append(out, formatPadded(n, width))
		}
	} else {
		for n := from; n >= to; n -= inc {
			out = append(out, formatPadded(n, width))
		}
	}
	return out
}

func padded(s string) bool {
	s = strings.TrimPrefix(s, "-")
	return len(s) > 1 && s[0] == '0'
}

func formatPadded(n, width int) string {
	if width == 0 {
		return strconv.Itoa(n)
	}
	if n < 0 {
		return "-" + fmt.Sprintf("%0*d", width, -n)
	}
	return fmt.Sprintf("%0*d", width, n)
}

func expandLetterRange(from, to byte, step string) []string {
	inc := rangeStep(step)

	var out []string
	if from <= to {
		for c := int(from); c <= int(to); c += inc {
			out = append(out, string(rune(c)))
		}
	} else {
		for c := int(from); c >= int(to); c -= inc {
			out = append(out, string(rune(c)))
		}
	}
	return out
}
