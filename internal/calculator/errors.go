package calculator

import "errors"

var (
	// ErrImageIDRequired is returned when a request carries no image id.
	ErrImageIDRequired = errors.New("imageId is required")
	// ErrAnalyzerUnavailable is returned when no model client is wired.
	ErrAnalyzerUnavailable = errors.New("analyzer not configured")
)
