package lcu

import "errors"

// Common errors returned by the lcu package.
var (
	// ErrNotConnected is returned by Call when no session is established.
	ErrNotConnected = errors.New("client not connected")

	// ErrTransport is returned when a request fails below HTTP. The session
	// is cleared before it is returned.
	ErrTransport = errors.New("client request failed")

	// ErrUnexpectedStatus is returned by typed endpoints on non-2xx replies.
	ErrUnexpectedStatus = errors.New("unexpected client response status")

	// ErrDecode is returned when a response body does not match the
	// expected shape.
	ErrDecode = errors.New("failed to decode client response")
)
