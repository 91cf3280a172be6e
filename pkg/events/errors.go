package events

import "errors"

var (
	// ErrNotConnected is returned by Listen when there is no client session.
	ErrNotConnected = errors.New("client not connected")

	// ErrMalformedEvent is returned by ParseEvent for frames that are not
	// event messages.
	ErrMalformedEvent = errors.New("malformed event frame")
)
