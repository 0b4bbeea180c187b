// Package glob splits glob patterns into a static base directory and the
// wildcard remainder that a watcher should match relative to it.
//
// A pattern is first compiled into an ExpansionSet: one token sequence per
// brace alternative, each token being a literal path segment or a wildcard
// marker. The base directory is the longest literal prefix common to every
// sequence of the set.
//
// Example usage:
//
//	r, err := glob.Resolve("src/{app,lib}/**/*.go")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(r.Base, r.Pattern) // "src/" "{app,lib}/**/*.go"
package glob

import "path/filepath"

// Globstar is the raw text of the recursive wildcard segment.
const Globstar = "**"

// Token is one path segment of a compiled pattern.
type Token struct {
	// Value is the segment text exactly as it appears in the expansion.
	Value string

	// Wildcard reports whether the segment contains pattern syntax.
	// Literal segments are compared byte for byte when computing the base.
	Wildcard bool
}

// IsGlobstar reports whether the token is the recursive "**" marker.
func (t Token) IsGlobstar() bool {
	return t.Wildcard && t.Value == Globstar
}

// Sequence is one fully brace-expanded alternative of a pattern.
type Sequence []Token

// Literal reports whether every token of the sequence is literal.
func (s Sequence) Literal() bool {
	for _, tok := range s {
		if tok.Wildcard {
			return false
		}
	}
	return true
}

// ExpansionSet is the compiled form of a pattern: one sequence per
// disjunctive branch, in expansion order.
type ExpansionSet []Sequence

// Resolved is the result of splitting a pattern.
//
// Invariants:
//   - Base contains no wildcard characters and ends in the host separator
//   - Pattern uses forward slashes and never starts with "./"
//   - Base + Pattern matches the same paths as the original pattern.
type Resolved struct {
	// Base is the static directory to watch.
	Base string `json:"base" yaml:"base"`

	// Pattern is the remainder, relative to Base.
	Pattern string `json:"pattern" yaml:"pattern"`
}

// Join returns Base and Pattern recombined in host separators.
func (r Resolved) Join() string {
	return r.Base + filepath.FromSlash(r.Pattern)
}
