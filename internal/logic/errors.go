package logic

import (
	"errors"
	"fmt"

	"github.com/osuchan/stats-api/internal/osuapi"
)

var (
	// ErrInvalidInput is returned for malformed lookups, filters and requests.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFoundUpstream means the osu! API has no such (unrestricted) account.
	ErrNotFoundUpstream = errors.New("not found upstream")
	// ErrNotFoundLocal means a required local record does not exist.
	ErrNotFoundLocal = errors.New("not found")
	// ErrUpstream wraps transport and decoding failures of the data source.
	ErrUpstream = errors.New("upstream failure")

	ErrForbidden = errors.New("forbidden")
	ErrConflict  = errors.New("conflict")
)

// upstreamErr classifies a data source error.
func upstreamErr(err error) error {
	if errors.Is(err, osuapi.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFoundUpstream, err)
	}
	return fmt.Errorf("%w: %w", ErrUpstream, err)
}
