package match

import "testing"

func TestBookMatcher(t *testing.T) {
	m, err := NewBookMatcher([]string{"A Study*", "The {Sign,Hound}*"}, []string{"*Hound*"})
	if err != nil {
		t.Fatal(err)
	}

	cases := map[string]bool{
		"A Study in Scarlet":            true,
		"The Sign of the Four":          true,
		"The Hound of the Baskervilles": false,
		"The Valley of Fear":            false,
	}
	for book, want := range cases {
		if got := m.Match(book); got != want {
			t.Errorf("Match(%q) = %v, want %v", book, got, want)
		}
	}
}

func TestBookMatcherDefaultsToAll(t *testing.T) {
	m, err := NewBookMatcher(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !m.Match("Anything at all") {
		t.Error("expected empty includes to match every book")
	}
}

func TestBookMatcherRejectsBadPattern(t *testing.T) {
	if _, err := NewBookMatcher([]string{"A Study["}, nil); err == nil {
		t.Error("expected error for unterminated class")
	}
}
