package event

import (
	"fmt"
	"regexp"
)

// Interest is a compiled regular expression evaluated against an Event's
// topic. Interest values are cheap to copy: the compiled pattern is shared
// via the *regexp.Regexp pointer, so cloning an Interest never recompiles.
type Interest struct {
	pattern string
	re      *regexp.Regexp
}

// CompileInterest compiles pattern into an Interest. Matching is a search,
// not a full match — callers wanting full-string semantics anchor their
// own pattern with ^ and $, exactly as spec'd.
func CompileInterest(pattern string) (Interest, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Interest{}, fmt.Errorf("compile interest %q: %w", pattern, err)
	}
	return Interest{pattern: pattern, re: re}, nil
}

// MustCompileInterest is CompileInterest but panics on error. Intended for
// tests and for patterns baked into code rather than loaded from config.
func MustCompileInterest(pattern string) Interest {
	in, err := CompileInterest(pattern)
	if err != nil {
		panic(err)
	}
	return in
}

// Matches reports whether e's topic satisfies the interest.
func (in Interest) Matches(e *Event) bool {
	if in.re == nil {
		return false
	}
	return in.re.MatchString(e.Topic)
}

// Pattern returns the source pattern string the Interest was compiled from.
func (in Interest) Pattern() string {
	return in.pattern
}
