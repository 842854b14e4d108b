package submission

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrUnsupportedSchemaVersion = errors.New("unsupported schema version")
	ErrUnknownContest           = errors.New("unknown contest")
	ErrInvalidRepository        = errors.New("invalid repository locator")
	ErrInvalidRevision          = errors.New("invalid revision")
)
