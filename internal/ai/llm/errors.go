// Package llm holds what every AI provider shares: sentinel errors and the
// JSON-over-HTTP call used to reach a model endpoint.
package llm

import "errors"

var (
	ErrProviderUnavailable = errors.New("ai provider unavailable")
	ErrInferenceTimeout    = errors.New("ai inference timeout")
	ErrInvalidResponse     = errors.New("ai provider returned invalid response")
	ErrUnauthorized        = errors.New("ai provider rejected credentials")
)
