package glob

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Resolve splits pattern into the static directory to watch and the
// remaining pattern relative to it.
//
// Both "/" and "\" are accepted as separators on every host. The returned
// Base uses the host separator and always ends with it; Pattern always uses
// "/". A pattern without wildcards resolves to its parent directory and
// file name.
//
// Resolve is pure: it performs no I/O and returns the same result for the
// same input. It fails only when the pattern itself is malformed.
func Resolve(pattern string) (Resolved, error) {
	normalized := normalizeSeparators(pattern)
	slashed := filepath.ToSlash(normalized)

	set, err := Compile(slashed)
	if err != nil {
		return Resolved{}, err
	}

	tokens := set.Base()
	base := joinBase(tokens)

	rest, ok := trimSegments(slashed, len(tokens))
	if !ok {
		rest = set.tails(len(tokens))
	}
	rest = strings.TrimPrefix(rest, "./")

	return Resolved{Base: base, Pattern: rest}, nil
}

// Base returns the literal tokens shared by every sequence of the set.
func (s ExpansionSet) Base() []string {
	switch len(s) {
	case 0:
		return nil
	case 1:
		return flatBase(s[0])
	default:
		return commonBase(s)
	}
}

// flatBase handles a set with a single sequence. A fully literal sequence
// names a file, so its last element is dropped; otherwise the base stops at
// the first wildcard.
func flatBase(seq Sequence) []string {
	out := make([]string, 0, len(seq))
	for _, tok := range seq {
		if tok.Wildcard {
			return out
		}
		out = append(out, tok.Value)
	}
	if len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out
}

// commonBase walks the first sequence and stops at the first position
// where it holds a wildcard or any other sequence differs. If no such
// position exists the last element is dropped, as in flatBase.
func commonBase(set ExpansionSet) []string {
	first := set[0]
	stop := -1

	for i, tok := range first {
		if tok.Wildcard {
			stop = i
			break
		}
		if !allAgree(set[1:], i, tok.Value) {
			stop = i
			break
		}
	}

	if stop < 0 {
		stop = max(len(first)-1, 0)
	}

	out := make([]string, stop)
	for i := range out {
		out[i] = first[i].Value
	}
	return out
}

func allAgree(rest ExpansionSet, i int, value string) bool {
	for _, seq := range rest {
		if i >= len(seq) || seq[i].Wildcard || seq[i].Value != value {
			return false
		}
	}
	return true
}

// joinBase turns literal segments into a cleaned host path with a trailing
// separator. An empty first segment marks an absolute path.
func joinBase(tokens []string) string {
	joined := strings.Join(tokens, "/")
	if len(tokens) > 0 && tokens[0] == "" && joined == "" {
		joined = "/"
	}
	if joined == "" {
		joined = "."
	}

	base := filepath.Clean(filepath.FromSlash(joined))
	if !strings.HasSuffix(base, string(os.PathSeparator)) {
		base += string(os.PathSeparator)
	}
	return base
}

// trimSegments drops the first n path segments of a slash pattern. It
// reports false when one of those segments holds a brace group, since
// braces may span separators and the count no longer lines up.
func trimSegments(pattern string, n int) (string, bool) {
	segments := splitSegments(pattern)
	if n > len(segments) {
		return "", false
	}
	for _, seg := range segments[:n] {
		if strings.ContainsRune(seg, '{') {
			return "", false
		}
	}
	return strings.Join(segments[n:], "/"), true
}

// tails rebuilds the pattern below the first n tokens from the expansions
// themselves. Distinct remainders are joined into one brace group, so a
// brace that spanned the base does not reappear under it.
func (s ExpansionSet) tails(n int) string {
	seen := make(map[string]bool, len(s))
	var alts []string
	for _, seq := range s {
		if n >= len(seq) {
			continue
		}
		parts := make([]string, 0, len(seq)-n)
		for _, tok := range seq[n:] {
			if tok.Wildcard {
				parts = append(parts, tok.Value)
			} else {
				parts = append(parts, braceEscaper.Replace(tok.Value))
			}
		}
		tail := strings.Join(parts, "/")
		if !seen[tail] {
			seen[tail] = true
			alts = append(alts, tail)
		}
	}

	switch len(alts) {
	case 0:
		return ""
	case 1:
		return alts[0]
	}
	return "{" + strings.Join(alts, ",") + "}"
}

var braceEscaper = strings.NewReplacer(",", `\,`, "{", `\{`, "}", `\}`)

// normalizeSeparators rewrites separators to the host convention.
func normalizeSeparators(pattern string) string {
	if os.PathSeparator == '\\' {
		return strings.ReplaceAll(pattern, "/", `\`)
	}
	if strings.Contains(pattern, `\`) {
		pattern = strings.ReplaceAll(pattern, `\`, "/")
		pattern = strings.ReplaceAll(pattern, "//", "/")
	}
	return pattern
}

// Match reports whether a slash-separated path relative to a resolved Base
// matches the resolved Pattern.
func Match(pattern, name string) (bool, error) {
	ok, err := doublestar.Match(pattern, name)
	if err != nil {
		return false, ErrBadPattern
	}
	return ok, nil
}
