package service

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for the scan service.
var (
	ErrScanAborted = errors.New("scan aborted")
	ErrNotStarted  = errors.New("service not started")
)

// slotError names the registry slot a scan stopped at.
type slotError struct {
	uid    int
	hotkey string
	err    error
}

func (e *slotError) Error() string {
	return fmt.Sprintf("slot %d (%s): %v", e.uid, e.hotkey, e.err)
}

func (e *slotError) Unwrap() error { return e.err }
