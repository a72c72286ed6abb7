package activity

import (
	"errors"

	"go.temporal.io/sdk/temporal"
)

// ErrMissingPrediction indicates an activity input that requires a prediction
// arrived without one. Non-retryable programming error.
var ErrMissingPrediction = errors.New("activity input missing prediction")

// nonRetryable wraps an error as a Temporal non-retryable application error.
// Used for validation failures and other conditions where another attempt
// cannot succeed. The tag categorizes the error for monitoring.
func nonRetryable(tag string, cause error, msg string) error {
	return temporal.NewNonRetryableApplicationError(msg, tag, cause)
}
