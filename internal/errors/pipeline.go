package errors

import "fmt"

// FetchErrorKind names the ways a page fetch can fail.
type FetchErrorKind string

const (
	FetchTimeout        FetchErrorKind = "timeout"
	FetchBadStatus      FetchErrorKind = "http-status"
	FetchBadContentType FetchErrorKind = "invalid-content-type"
	FetchTooLarge       FetchErrorKind = "too-large"
)

// FetchError is terminal for a single pipeline run. The orchestrator
// records it on the bookmark row instead of letting it bubble up.
type FetchError struct {
	Kind FetchErrorKind
	Url  string
	Err  error
}

func (fe *FetchError) Error() string {
	if fe.Err != nil {
		return fmt.Sprintf("fetch %s (%s): %v", fe.Url, fe.Kind, fe.Err)
	}
	return fmt.Sprintf("fetch %s (%s)", fe.Url, fe.Kind)
}

func (fe *FetchError) Unwrap() error {
	return fe.Err
}

// SummarizationError carries the last underlying cause after all
// retries against the model endpoint have been exhausted.
type SummarizationError struct {
	Attempts int
	Err      error
}

func (se *SummarizationError) Error() string {
	return fmt.Sprintf("summarization failed after %d attempts: %v", se.Attempts, se.Err)
}

func (se *SummarizationError) Unwrap() error {
	return se.Err
}
