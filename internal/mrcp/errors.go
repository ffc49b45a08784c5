package mrcp

import "errors"

// Sentinel errors, declared per package.
var (
	ErrNoSuchChannel     = errors.New("mrcp: no channel for control message")
	ErrChannelIncomplete = errors.New("mrcp: channel has no resource or state machine")
	ErrUnknownVersion    = errors.New("mrcp: unsupported protocol version")
	ErrSessionTerminated = errors.New("mrcp: session already terminated")
)

// OfferError carries enough context about a single offer-processing
// failure for the orchestrator to keep building the rest of the answer
// array instead of aborting (§7).
type OfferError struct {
	SlotIndex int
	Resource  string
	Status    SessionStatus
	Cause     error
}

func (e *OfferError) Error() string {
	if e.Cause != nil {
		return e.Status.String() + ": " + e.Resource + ": " + e.Cause.Error()
	}
	return e.Status.String() + ": " + e.Resource
}

func (e *OfferError) Unwrap() error { return e.Cause }
