package ledger

import "errors"

// Sentinel kinds for ledger errors.
var (
	ErrTransient = errors.New("ledger transient error")
	ErrPermanent = errors.New("ledger permanent error")
)
