package rank

import "errors"

var (
	// ErrNoTemplate is returned by NewHTTPFetcher without a URL template.
	ErrNoTemplate = errors.New("rank source url template not configured")

	// ErrBadHandle is returned for handles without a Name#Tag form.
	ErrBadHandle = errors.New("handle is not in Name#Tag form")

	// ErrUpstream is returned when the rank source answers with an error.
	ErrUpstream = errors.New("rank source request failed")
)
