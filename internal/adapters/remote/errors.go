package remote

import "errors"

// Sentinel kinds for remote API errors.
var (
	// ErrOffline marks a transport-level failure: no connectivity.
	// Expected and routine; it triggers queuing, not alarms.
	ErrOffline = errors.New("network unavailable")

	// ErrRemoteRejected marks a non-success response from the API.
	// Counted as a sync failure and retried up to the ceiling.
	ErrRemoteRejected = errors.New("remote rejected request")
)
