package domain

import "errors"

// Failure kinds surfaced by pipeline stages. Adapters wrap transport and
// backend errors into these so callers classify with errors.Is.
var (
	ErrInvalidQuery             = errors.New("invalid query")
	ErrSourceUnavailable        = errors.New("news source unavailable")
	ErrEmptyInput               = errors.New("no articles to summarize")
	ErrSummarizationUnavailable = errors.New("summarization unavailable")
	ErrPublishUnavailable       = errors.New("publish unavailable")
	ErrTimeout                  = errors.New("run budget exceeded")
	ErrConfigInvalid            = errors.New("invalid configuration")
)

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }

func (e *transientError) Unwrap() error { return e.err }

// Transient marks err as retryable for the backoff policy.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether any error in the chain was marked retryable.
func IsTransient(err error) bool {
	var t *transientError
	return errors.As(err, &t)
}

// CauseName maps an error chain onto the taxonomy label used in run reports
// and handler responses.
func CauseName(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfigInvalid):
		return "configuration_error"
	case errors.Is(err, ErrTimeout):
		return "timeout_error"
	case errors.Is(err, ErrInvalidQuery), errors.Is(err, ErrSourceUnavailable):
		return "news_fetch_error"
	case errors.Is(err, ErrEmptyInput), errors.Is(err, ErrSummarizationUnavailable):
		return "summarization_error"
	case errors.Is(err, ErrPublishUnavailable):
		return "publishing_error"
	default:
		return "unknown_error"
	}
}
