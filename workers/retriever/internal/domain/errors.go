package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code      string
	Message   string
	Err       error
	Retryable bool
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s - %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error { return e.Err }

// Is matches domain errors by code so wrapped copies of the sentinels below
// still satisfy errors.Is.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error, retryable bool) *DomainError {
	return &DomainError{
		Code:      code,
		Message:   message,
		Err:       err,
		Retryable: retryable,
	}
}

// Common domain errors
var (
	ErrInvalidTileStep = &DomainError{
		Code:    "INVALID_TILE_STEP",
		Message: "tile step must be positive on both axes",
	}

	ErrTooManyTiles = &DomainError{
		Code:    "TOO_MANY_TILES",
		Message: "tile step is too small for the area of interest",
	}

	ErrInvalidTimeBound = &DomainError{
		Code:    "INVALID_TIME_BOUND",
		Message: "time bound must be an RFC 3339 timestamp or a NOW expression",
	}

	ErrInvalidCriteria = &DomainError{
		Code:    "INVALID_CRITERIA",
		Message: "search criteria are invalid",
	}
)

// ErrInvalidTimeBoundf wraps a parse failure of a time bound.
func ErrInvalidTimeBoundf(value string, err error) error {
	return NewDomainError(ErrInvalidTimeBound.Code, fmt.Sprintf("cannot use %q as a time bound", value), err, false)
}

// InvalidAreaError reports an AOI with unusable corners.
type InvalidAreaError struct {
	Area   AreaOfInterest
	Reason string
}

func (e *InvalidAreaError) Error() string {
	return fmt.Sprintf("invalid area of interest (%g, %g, %g, %g): %s",
		e.Area.Lon1, e.Area.Lat1, e.Area.Lon2, e.Area.Lat2, e.Reason)
}

// CatalogUnavailableError reports a failed search request.
type CatalogUnavailableError struct {
	Query string
	Err   error
}

func (e *CatalogUnavailableError) Error() string {
	return fmt.Sprintf("catalog unavailable for query %q: %v", e.Query, e.Err)
}

func (e *CatalogUnavailableError) Unwrap() error { return e.Err }

// TimestampReadError reports an unreadable watermark file. It is always
// recovered by substituting the epoch.
type TimestampReadError struct {
	Path string
	Err  error
}

func (e *TimestampReadError) Error() string {
	return fmt.Sprintf("could not read time stamp in %s: %v", e.Path, e.Err)
}

func (e *TimestampReadError) Unwrap() error { return e.Err }

// ChecksumMismatchError reports a product whose local digest differs from
// the catalog's.
type ChecksumMismatchError struct {
	Title    string
	Expected string
	Actual   string
}

func (e *ChecksumMismatchError) Error() string {
	if e.Expected == "" {
		return fmt.Sprintf("checksum for %s unavailable (local %s)", e.Title, e.Actual)
	}
	return fmt.Sprintf("checksum mismatch for %s: expected %s, got %s", e.Title, e.Expected, e.Actual)
}

// TransferError reports an I/O failure while fetching or writing an artifact.
type TransferError struct {
	Title string
	URI   string
	Err   error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer of %s from %s failed: %v", e.Title, e.URI, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }
