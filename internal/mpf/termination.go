// Package mpf implements the media processing framework core: terminations,
// the per-session association matrix (Context), connection construction,
// and the single-threaded media engine that steps it. Generalizes a fixed
// two-leg bridge/relay into an N-termination association matrix.
package mpf

// StreamMode is a bitmask of the directions a termination's audio stream
// supports, mirroring SDP's sendrecv/sendonly/recvonly/inactive attributes.
type StreamMode uint8

const (
	// ModeNone is an inactive stream (neither send nor receive).
	ModeNone StreamMode = 0
	// ModeSend allows the termination to transmit audio.
	ModeSend StreamMode = 1 << 0
	// ModeReceive allows the termination to accept audio.
	ModeReceive StreamMode = 1 << 1
	// ModeSendReceive is the union of both directions.
	ModeSendReceive = ModeSend | ModeReceive
)

// Has reports whether m includes every bit set in other.
func (m StreamMode) Has(other StreamMode) bool {
	return m&other == other
}

func (m StreamMode) String() string {
	switch m {
	case ModeNone:
		return "inactive"
	case ModeSend:
		return "sendonly"
	case ModeReceive:
		return "recvonly"
	case ModeSendReceive:
		return "sendrecv"
	default:
		return "unknown"
	}
}

// AudioStream is the single bidirectional audio stream a termination may
// carry: a direction mode plus the codec negotiated for it.
type AudioStream struct {
	Mode  StreamMode
	Codec *CodecDescriptor
}

// Termination is an endpoint inside a media context: either a resource
// engine's internal stream or an RTP leg (§3, C1). It has at most one
// audio stream.
type Termination struct {
	// Name identifies the termination for logging/diagnostics.
	Name string

	// Audio is the termination's optional audio stream.
	Audio *AudioStream

	// LocalIP and LocalPort are the RTP socket address an RTP-termination
	// factory allocated for this termination; zero-valued for a
	// termination that models a resource engine's internal stream.
	LocalIP   string
	LocalPort int

	// slot is the row/column this termination is bound to inside its
	// owning Context, or -1 when unbound. Only the owning Context mutates
	// it (package-private: Context and Termination live in the same
	// package).
	slot int
}

// NewTermination creates an unbound termination. Pass nil for audio to
// model a termination with no media stream at all.
func NewTermination(name string, audio *AudioStream) *Termination {
	return &Termination{Name: name, Audio: audio, slot: -1}
}

// Slot returns the termination's row/column index in its context's matrix,
// or -1 if it is not currently a member of any context.
func (t *Termination) Slot() int {
	return t.slot
}

// Bound reports whether the termination currently belongs to a context.
func (t *Termination) Bound() bool {
	return t.slot >= 0
}
