package cli

import "errors"

// Error constants.
var (
	ErrInvalidFormat   = errors.New("invalid output format")
	ErrScenarioFile    = errors.New("scenario file")
	ErrScenariosFailed = errors.New("scenarios failed")
)
