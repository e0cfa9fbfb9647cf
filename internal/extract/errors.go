package extract

import (
	"errors"
	"fmt"
)

// Kind classifies extraction failures for callers that map them onto
// transport-level status codes.
type Kind string

const (
	KindInvalidURL       Kind = "invalid_url"
	KindHTTPError        Kind = "http_error"
	KindTimeout          Kind = "timeout"
	KindFetchError       Kind = "fetch_error"
	KindExtractionFailed Kind = "extraction_failed"
)

// Error is the typed failure returned by the extractor. Status is only set
// for KindHTTPError.
type Error struct {
	Kind   Kind
	Status int
	cause  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindInvalidURL:
		return "invalid URL: expected an absolute http or https address"
	case KindHTTPError:
		return fmt.Sprintf("upstream returned HTTP %d", e.Status)
	case KindTimeout:
		return "request timed out: the site took too long to respond"
	case KindFetchError:
		if e.cause != nil {
			return fmt.Sprintf("fetch failed: %v", e.cause)
		}
		return "fetch failed"
	case KindExtractionFailed:
		return "unable to extract readable content: the page may require JavaScript or sit behind a paywall"
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.cause }

// KindOf returns the extraction error kind, or an empty Kind for foreign errors.
func KindOf(err error) Kind {
	var ee *Error
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return ""
}

func newError(kind Kind, cause error) *Error {
	return &Error{Kind: kind, cause: cause}
}
