package domain

import (
	"fmt"
	"time"
)

// AuthError indicates the reporting-service session is expired or invalid
// (401/403 response, or a body redirecting to the login page). Fatal for the
// run; never retried.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

// ResolutionError indicates no request identifier could be determined from
// either the submission response or the status-listing fallback. Fatal.
type ResolutionError struct {
	Message string
}

func (e *ResolutionError) Error() string { return e.Message }

// PollTimeoutError indicates the poll budget elapsed before the request
// reached COMPLETED with a usable download location. Fatal; the caller must
// never proceed to download with an empty location.
type PollTimeoutError struct {
	RequestID RequestID
	Waited    time.Duration
}

func (e *PollTimeoutError) Error() string {
	return fmt.Sprintf("report request %d not completed after %s", e.RequestID, e.Waited)
}

// ReportFailedError indicates the server marked the request FAILED. A failed
// request can never publish a download location, so polling stops early.
type ReportFailedError struct {
	RequestID RequestID
}

func (e *ReportFailedError) Error() string {
	return fmt.Sprintf("report request %d failed on the server", e.RequestID)
}

// DownloadError indicates a transport error or non-success HTTP status while
// retrieving the artifact. Fatal.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string { return fmt.Sprintf("download %s: %v", e.URL, e.Err) }
func (e *DownloadError) Unwrap() error { return e.Err }

// UploadError indicates a relay target rejected the artifact. Recoverable:
// it is logged and recorded in the ledger, never propagated. The local
// artifact stays valid.
type UploadError struct {
	Target string
	Err    error
}

func (e *UploadError) Error() string { return fmt.Sprintf("upload to %s: %v", e.Target, e.Err) }
func (e *UploadError) Unwrap() error { return e.Err }

// ErrAuth creates an AuthError with a formatted message.
func ErrAuth(format string, args ...interface{}) *AuthError {
	return &AuthError{Message: fmt.Sprintf(format, args...)}
}

// ErrResolution creates a ResolutionError with a formatted message.
func ErrResolution(format string, args ...interface{}) *ResolutionError {
	return &ResolutionError{Message: fmt.Sprintf(format, args...)}
}
