package event

import "testing"

func TestInterestMatchesIsSearchNotFullMatch(t *testing.T) {
	in := MustCompileInterest("test")
	e := New("pretest0post", nil)
	if !in.Matches(&e) {
		t.Fatal("expected search-style match to succeed on substring")
	}
}

func TestInterestAnchoredFullMatch(t *testing.T) {
	in := MustCompileInterest("^test[0-9]$")

	match := New("test0", nil)
	if !in.Matches(&match) {
		t.Fatal("expected ^test[0-9]$ to match \"test0\"")
	}

	noMatch := New("test0x", nil)
	if in.Matches(&noMatch) {
		t.Fatal("expected ^test[0-9]$ to reject \"test0x\"")
	}
}

func TestCompileInterestRejectsBadPattern(t *testing.T) {
	if _, err := CompileInterest("(unclosed"); err == nil {
		t.Fatal("expected error compiling invalid regex")
	}
}
