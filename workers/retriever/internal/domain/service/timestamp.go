package service

import (
	"strings"
	"time"

	"github.com/UofM-CEOS/remote-sensing/workers/retriever/internal/domain"
)

// TimestampLayout is the catalog's date format, always UTC with milliseconds.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// EpochTimestamp is the lower bound used when no watermark is available.
const EpochTimestamp = "1970-01-01T00:00:00.000Z"

// Now is the catalog's date-math token for the current time.
const Now = "NOW"

var acceptedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// NormalizeTimeBound turns a user supplied bound into catalog syntax.
// Date-math expressions (NOW, NOW-2DAYS) pass through unchanged; timestamps
// without a zone are taken as UTC.
func NormalizeTimeBound(value string) (string, error) {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(strings.ToUpper(value), Now) {
		return strings.ToUpper(value), nil
	}

	var lastErr error
	for _, layout := range acceptedLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return FormatTimestamp(t), nil
		}
		lastErr = err
	}
	return "", domain.ErrInvalidTimeBoundf(value, lastErr)
}

// boundOr normalizes value, substituting fallback when it is empty.
func boundOr(value, fallback string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	return NormalizeTimeBound(value)
}
