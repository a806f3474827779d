package domain

import (
	"errors"
	"fmt"
)

// MaxNumCandidates is the upper bound the vector search stage accepts.
const MaxNumCandidates = 10000

var (
	ErrNoDocument        = errors.New("no matching document")
	ErrInvalidSearch     = errors.New("invalid search parameters")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// SearchParams parameterise a similarity search.
type SearchParams struct {
	Vector        []float64
	NumCandidates int
	Limit         int
}

// Validate checks the parameters before they are sent to a store.
func (p SearchParams) Validate() error {
	if len(p.Vector) == 0 {
		return fmt.Errorf("%w: query vector is empty", ErrInvalidSearch)
	}
	if p.Limit < 1 {
		return fmt.Errorf("%w: limit must be at least 1, got %d", ErrInvalidSearch, p.Limit)
	}
	if p.NumCandidates < p.Limit {
		return fmt.Errorf("%w: numCandidates (%d) must be >= limit (%d)", ErrInvalidSearch, p.NumCandidates, p.Limit)
	}
	if p.NumCandidates > MaxNumCandidates {
		return fmt.Errorf("%w: numCandidates must be <= %d, got %d", ErrInvalidSearch, MaxNumCandidates, p.NumCandidates)
	}
	return nil
}

// CheckDimension returns ErrDimensionMismatch when got differs from want.
func CheckDimension(got, want int) error {
	if got != want {
		return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, want, got)
	}
	return nil
}
