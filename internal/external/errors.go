package external

import "fmt"

// TransportError reports an HTTP-layer failure: the request never completed,
// or the source answered with a non-success status.
type TransportError struct {
	Status int // 0 when no response was received
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("deribit returned status %d", e.Status)
	}
	return fmt.Sprintf("deribit fetch: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedResponseError reports a payload the client could not use: an
// explicit error field from the source, or missing price/timestamp fields.
// Message carries the source's own error text when present.
type MalformedResponseError struct {
	Message string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("deribit API error: %s", e.Message)
}
