package analysis

import "errors"

var (
	ErrProviderUnavailable = errors.New("analysis provider unavailable")
	ErrScoreTimeout        = errors.New("analysis provider timed out")
	ErrInvalidResponse     = errors.New("analysis provider returned invalid response")
)
