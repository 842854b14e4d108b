package codec

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrMalformedRecord = errors.New("malformed record")
	ErrStringTooLong   = errors.New("string too long")
	ErrFixedLength     = errors.New("fixed string length mismatch")
)
