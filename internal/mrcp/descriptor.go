package mrcp

import (
	"github.com/pion/sdp/v3"
	"github.com/sebas/mrcpgw/internal/mpf"
)

// SessionStatus is the overall outcome the core reports in an answer
// (§3, §6). It wire-maps to SDP `a=` attributes in the external adapter;
// the core only ever sets/reads the enum.
type SessionStatus int

const (
	StatusOK SessionStatus = iota
	StatusNoSuchResource
	StatusUnavailableResource
	StatusUnacceptableResource
)

func (s SessionStatus) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusNoSuchResource:
		return "NO_SUCH_RESOURCE"
	case StatusUnavailableResource:
		return "UNAVAILABLE_RESOURCE"
	case StatusUnacceptableResource:
		return "UNACCEPTABLE_RESOURCE"
	default:
		return "UNKNOWN"
	}
}

// ControlMediaDescriptor is the per-resource control leg descriptor (§3):
// `session-id`, `cmid` (grouping key shared with the RTP media it
// rides on), resource name, and port (0 in a rejecting answer slot).
type ControlMediaDescriptor struct {
	SessionID string
	Cmid      string
	Resource  string
	Port      int
}

// MediaSlot is one `m=` line's worth of descriptor (§3): control, audio,
// or video. A nil *MediaSlot in a SessionDescriptor's array models an
// absent slot. SDP embeds the external adapter's parsed media description
// so the core can carry wire-shape data without parsing SDP text itself
// (non-goal).
type MediaSlot struct {
	Control *ControlMediaDescriptor

	Mid  string
	Cmid string

	Mode   mpf.StreamMode
	Codecs []*mpf.CodecDescriptor

	Port int

	SDP *sdp.MediaDescription
}

// SessionDescriptor is the immutable per-exchange descriptor (§3):
// resource name/state, overall status, and three parallel ordered slot
// arrays indexed by SDP media position.
type SessionDescriptor struct {
	Version Version

	ResourceName  string
	ResourceState bool // v1 add/remove flag

	Status SessionStatus

	Control []*MediaSlot
	Audio   []*MediaSlot
	Video   []*MediaSlot

	// ControlMediaArr is the v2 walk list: existing channels are modified
	// by index, extra entries append new channels (§4.1 step 5).
	ControlMediaArr []*ControlMediaDescriptor

	Origin     string
	BindIP     string
	ExternalIP string
}

// answerTemplate builds an answer with matching control/audio/video arity,
// every slot nil, and status copied from the offer (§4.1 step 2).
func answerTemplate(offer *SessionDescriptor) *SessionDescriptor {
	return &SessionDescriptor{
		Version:       offer.Version,
		ResourceName:  offer.ResourceName,
		ResourceState: offer.ResourceState,
		Status:        offer.Status,
		Control:       make([]*MediaSlot, len(offer.Control)),
		Audio:         make([]*MediaSlot, len(offer.Audio)),
		Video:         make([]*MediaSlot, len(offer.Video)),
		Origin:        offer.Origin,
		BindIP:        offer.BindIP,
		ExternalIP:    offer.ExternalIP,
	}
}

// rejectSlot builds a rejection slot (port 0) for a control media entry,
// used when a resource is unknown or unacceptable (§7).
func rejectSlot(resource string) *MediaSlot {
	return &MediaSlot{
		Control: &ControlMediaDescriptor{Resource: resource, Port: 0},
	}
}
