package mqtt

import "errors"

var (
	// ErrTimeout indicates the broker did not acknowledge in time.
	ErrTimeout = errors.New("mqtt: timeout")
)
