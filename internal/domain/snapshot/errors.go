package snapshot

import "errors"

// Sentinel error kinds for this package.
var (
	ErrInvalidDocument = errors.New("invalid snapshot document")
)
