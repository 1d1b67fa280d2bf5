package domain

import "errors"

// Every failure surfaced to the facade wraps one of these sentinels so
// callers can map it with errors.Is. Nothing below the facade retries.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrUnknownAction      = errors.New("unknown action")
	ErrStorageUnavailable = errors.New("storage unavailable")
)
