package providers

import (
	"errors"
	"fmt"

	"airspace-analytics/vatwatch/internal/constants"
)

// ProviderError carries the error taxonomy code for the upstream feed
type ProviderError struct {
	Code    string
	Message string
	Details string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsFeedUnavailable reports whether err is retryable with backoff
func IsFeedUnavailable(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Code == constants.ErrCodeFeedUnavailable
}

// IsFeedCorrupt reports whether err means the cycle must be skipped without retry
func IsFeedCorrupt(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Code == constants.ErrCodeFeedCorrupt
}
