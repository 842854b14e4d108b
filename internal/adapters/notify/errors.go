package notify

import "errors"

// Sentinel kinds for alert delivery.
var (
	ErrDelivery = errors.New("alert delivery failed")
	ErrEmptyURL = errors.New("webhook url is empty")
)
