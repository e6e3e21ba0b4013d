package portal

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the portal and downloader packages.
var (
	// ErrNetwork indicates a transport failure or a non-2xx response.
	ErrNetwork = errors.New("portal: network error")

	// ErrTimeout indicates a request exceeded the configured timeout.
	ErrTimeout = errors.New("portal: request timed out")

	// ErrAuthRejected indicates the login endpoint refused the credentials.
	ErrAuthRejected = errors.New("portal: login rejected")

	// ErrSessionCorrupt indicates a session snapshot could not be restored.
	ErrSessionCorrupt = errors.New("portal: session snapshot corrupt")

	// ErrMissingField indicates a required field was absent from the markup.
	ErrMissingField = errors.New("portal: missing field")

	// ErrInvalidNumber indicates numeric markup content could not be parsed.
	ErrInvalidNumber = errors.New("portal: invalid number")

	// ErrTooManyHops indicates the form dance did not converge.
	ErrTooManyHops = errors.New("portal: too many form hops")

	// ErrHTTPStatus indicates a page, asset or thumbnail fetch got a non-2xx status.
	ErrHTTPStatus = errors.New("portal: unexpected http status")

	// ErrNoBooks indicates the catalog page listed no titles.
	ErrNoBooks = errors.New("portal: no books in catalog")
)

// NetworkError describes a failed request
type NetworkError struct {
	Method     string
	URL        string
	StatusCode int
	Timeout    bool
	Err        error
}

func (e *NetworkError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("%s %s: timed out", e.Method, e.URL)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s %s: got non-success status code %d", e.Method, e.URL, e.StatusCode)
	default:
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	}
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork || (target == ErrTimeout && e.Timeout)
}

// AuthError is returned when the login POST is not answered with 2xx
type AuthError struct {
	StatusCode int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("login rejected with status code %d", e.StatusCode)
}

func (e *AuthError) Is(target error) bool { return target == ErrAuthRejected }

// SessionError is returned when a session snapshot cannot be restored
type SessionError struct {
	Err error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("session snapshot corrupt: %v", e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }

func (e *SessionError) Is(target error) bool { return target == ErrSessionCorrupt }

// ParseError reports malformed or incomplete markup
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%v: %s (%q)", e.Err, e.Field, e.Value)
	}
	return fmt.Sprintf("%v: %s", e.Err, e.Field)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NavigationError is returned when the form dance exceeds its hop ceiling
type NavigationError struct {
	URL   string
	Hops  int
	Limit int
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("form dance did not converge after %d hops (limit %d), last url %s", e.Hops, e.Limit, e.URL)
}

func (e *NavigationError) Is(target error) bool { return target == ErrTooManyHops }

// DownloadError reports a failed page, asset or thumbnail fetch
type DownloadError struct {
	Kind string
	URL  string
	// Index is the page the file belongs to
	Index int
	// Asset names the asset file, empty for pages and thumbnails
	Asset      string
	StatusCode int
	Err        error
}

func (e *DownloadError) Error() string {
	what := fmt.Sprintf("%s %d", e.Kind, e.Index)
	if e.Asset != "" {
		what = fmt.Sprintf("%s %s of page %d", e.Kind, e.Asset, e.Index)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (%s): got non-success status code %d", what, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s (%s): %v", what, e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

func (e *DownloadError) Is(target error) bool {
	return target == ErrHTTPStatus && e.StatusCode != 0
}
