package amazon

import "fmt"

// AuthError reports a failed token refresh.
type AuthError struct {
	StatusCode int
	Body       string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("token refresh failed: status %d, body: %s", e.StatusCode, e.Body)
}

// ReportCreationError reports a rejected create-report call.
type ReportCreationError struct {
	StatusCode int
	Body       string
}

func (e *ReportCreationError) Error() string {
	return fmt.Sprintf("report creation failed: status %d, body: %s", e.StatusCode, e.Body)
}

// ReportFailedError reports a provider-side report failure.
type ReportFailedError struct {
	ReportID string
	Status   string
	Reason   string
}

func (e *ReportFailedError) Error() string {
	return fmt.Sprintf("report %s failed with status %s: %s", e.ReportID, e.Status, e.Reason)
}

// ReportTimeoutError reports a poll loop that exhausted its iteration budget.
type ReportTimeoutError struct {
	ReportID string
	Attempts int
}

func (e *ReportTimeoutError) Error() string {
	return fmt.Sprintf("report %s not ready after %d status checks", e.ReportID, e.Attempts)
}

// DownloadError reports a failed or malformed report download.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("report download failed: %v", e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// RateLimitError marks an HTTP 429 so retry predicates can recognize it.
type RateLimitError struct {
	Endpoint string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited by %s", e.Endpoint)
}
