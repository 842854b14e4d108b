package repository

import "errors"

// Sentinel kinds for baseline errors.
var (
	ErrMalformedBaseline = errors.New("malformed baseline")
	ErrEmptyPath         = errors.New("baseline path is empty")
)
