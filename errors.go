package docket

import "errors"

var (
	// ErrInvalidConfig is returned when a Client is constructed from an invalid Config.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrClientClosed is returned by operations on a closed Client.
	ErrClientClosed = errors.New("client is closed")
)
