package match

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// BookMatcher selects books by title with doublestar globs.
type BookMatcher struct {
	includes []string
	excludes []string
}

// NewBookMatcher validates the patterns. No includes means every book.
func NewBookMatcher(includes, excludes []string) (*BookMatcher, error) {
	for _, p := range append(append([]string{}, includes...), excludes...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid book pattern %q", p)
		}
	}
	if len(includes) == 0 {
		includes = []string{"**"}
	}
	return &BookMatcher{
		includes: includes,
		excludes: excludes,
	}, nil
}

func (m *BookMatcher) Match(book string) bool {
	return m.shouldInclude(book) && !m.shouldExclude(book)
}

func (m *BookMatcher) shouldInclude(book string) bool {
	for _, pattern := range m.includes {
		matched, err := doublestar.Match(pattern, book)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func (m *BookMatcher) shouldExclude(book string) bool {
	for _, pattern := range m.excludes {
		matched, err := doublestar.Match(pattern, book)
		if err == nil && matched {
			return true
		}
	}
	return false
}
