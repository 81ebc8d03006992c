package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrDuplicate marks a natural-key collision; ingestion treats it as a skip.
	ErrDuplicate       = errors.New("duplicate record")
	ErrAlreadyEnriched = errors.New("review already enriched")
	ErrLocked          = errors.New("lock held elsewhere")
)

// AuthError means the directory credentials are missing or were rejected.
// It aborts the whole lookup.
type AuthError struct {
	Service string
	Status  int
	Err     error
}

func (e *AuthError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: auth failed (status %d): %v", e.Service, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: auth failed: %v", e.Service, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// UpstreamError is a non-2xx, unreachable or malformed response from an external API.
type UpstreamError struct {
	Service  string
	Endpoint string
	Status   int
	Err      error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Service, e.Endpoint, e.Status, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Service, e.Endpoint, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
