package mpf

import (
	"github.com/pion/rtp"
	"github.com/zaf/g711"
)

// Frame is one slice of audio handed between connection stages. It wraps an
// RTP packet's payload the way a real RTP-termination factory would, so a
// null bridge or transcoding bridge work unchanged whether the frame
// originated from an actual pion/rtp.Packet or from a resource engine's
// internal stream.
type Frame struct {
	Packet  *rtp.Packet
	Payload []byte
}

// NewFrame wraps a raw payload with no RTP envelope (used for frames that
// never touch the wire, e.g. a resource engine's internal stream).
func NewFrame(payload []byte) Frame {
	return Frame{Payload: payload}
}

// FrameTransform converts a frame from one codec's representation to
// another (decode: wire format -> linear PCM, encode: linear PCM -> wire
// format).
type FrameTransform func(Frame) (Frame, error)

// CodecDescriptor names a media format: type, sampling rate, channel
// count, and encoding name, plus the optional transforms that let a
// termination act as a transcoding endpoint (§4.2, connection
// construction steps 2-4).
type CodecDescriptor struct {
	MediaType    string // "audio"
	Name         string // "PCMU", "PCMA", "L16", ...
	SamplingRate uint32
	ChannelCount uint8

	// Decode, when non-nil, converts a frame received in this codec's wire
	// format into linear PCM. A connection inserts it in front of the
	// source termination.
	Decode FrameTransform

	// Encode, when non-nil, converts a linear PCM frame into this codec's
	// wire format. A connection inserts it after the sink termination.
	Encode FrameTransform
}

// Equal reports whether two codec descriptors match byte-for-byte on media
// type, sampling rate, channel count, and encoding name (§4.2 step 2).
func (c *CodecDescriptor) Equal(o *CodecDescriptor) bool {
	if c == nil || o == nil {
		return c == o
	}
	return c.MediaType == o.MediaType &&
		c.Name == o.Name &&
		c.SamplingRate == o.SamplingRate &&
		c.ChannelCount == o.ChannelCount
}

// PCMU is G.711 µ-law, 8kHz mono, encoded/decoded with zaf/g711.
var PCMU = &CodecDescriptor{
	MediaType:    "audio",
	Name:         "PCMU",
	SamplingRate: 8000,
	ChannelCount: 1,
	Decode: func(f Frame) (Frame, error) {
		return NewFrame(g711.DecodeUlaw(f.Payload)), nil
	},
	Encode: func(f Frame) (Frame, error) {
		return NewFrame(g711.EncodeUlaw(f.Payload)), nil
	},
}

// PCMA is G.711 A-law, 8kHz mono, encoded/decoded with zaf/g711.
var PCMA = &CodecDescriptor{
	MediaType:    "audio",
	Name:         "PCMA",
	SamplingRate: 8000,
	ChannelCount: 1,
	Decode: func(f Frame) (Frame, error) {
		return NewFrame(g711.DecodeAlaw(f.Payload)), nil
	},
	Encode: func(f Frame) (Frame, error) {
		return NewFrame(g711.EncodeAlaw(f.Payload)), nil
	},
}

// L16Wideband is linear 16-bit PCM at 16kHz, used to exercise a sampling
// mismatch against PCMU/PCMA. It has no Decode/Encode: linear PCM is
// already the connection's internal representation.
var L16Wideband = &CodecDescriptor{
	MediaType:    "audio",
	Name:         "L16",
	SamplingRate: 16000,
	ChannelCount: 1,
}
