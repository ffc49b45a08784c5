// Package mrcp implements the server-side MRCP session core: the
// signaling orchestrator (C7), the per-resource control/engine channel
// pair (C4-C6), and the session table/dispatcher (C8), built around
// internal/mpf's media context. Generalizes a two-leg call's
// leg/bridge state machines and per-call FIFO executor into an
// N-resource MRCP session.
package mrcp

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Version is the MRCP protocol version carried in a message's start line
// (§6): MRCP/1.0 tunnels control inside RTSP, MRCP/2.0 uses its own
// TCP/TLS control connection.
type Version int

const (
	VersionUnknown Version = iota
	Version1
	Version2
)

func (v Version) String() string {
	switch v {
	case Version1:
		return "MRCP/1.0"
	case Version2:
		return "MRCP/2.0"
	default:
		return "MRCP/unknown"
	}
}

// MessageType distinguishes the three MRCP message shapes (§6): a client
// request, a server response, or a server-generated event.
type MessageType int

const (
	TypeRequest MessageType = iota
	TypeResponse
	TypeEvent
)

// MRCPMessage is the core's in-memory model of a start-line + headers +
// optional body message (§6). Wire-level parsing of the colon-separated
// header block and start line is an external adapter's job (non-goal);
// this struct is what that adapter hands the core and what the core hands
// back.
type MRCPMessage struct {
	Version   Version
	Type      MessageType
	RequestID uint32
	ChannelID string // "<session-id>@<resource>"

	// Method names the request/event (e.g. "SPEAK", "SPEAK-COMPLETE").
	// Unused for responses.
	Method string

	// StatusCode is the overall MRCP status code; only meaningful on
	// responses.
	StatusCode int

	Headers map[string]string
	Body    []byte
}

// DecodeHeaders decodes m's header map into a typed struct using
// mitchellh/mapstructure. Field names are matched case-insensitively
// against map keys by default; callers
// needing MRCP's hyphenated header names (e.g. "Voice-Gender") should tag
// fields with `mapstructure:"Voice-Gender"`.
func (m *MRCPMessage) DecodeHeaders(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("mrcp: build header decoder: %w", err)
	}
	if err := dec.Decode(m.Headers); err != nil {
		return fmt.Errorf("mrcp: decode headers: %w", err)
	}
	return nil
}

// NewResponse builds a response message correlated to req by request id
// and channel.
func NewResponse(req *MRCPMessage, status int) *MRCPMessage {
	return &MRCPMessage{
		Version:    req.Version,
		Type:       TypeResponse,
		RequestID:  req.RequestID,
		ChannelID:  req.ChannelID,
		StatusCode: status,
		Headers:    map[string]string{},
	}
}

// NewEvent builds an event message named eventName on channelID, carrying
// the caller-supplied request id (MRCP events carry the request id of the
// request they relate to, even though they are not its response).
func NewEvent(channelID, eventName string, requestID uint32) *MRCPMessage {
	return &MRCPMessage{
		Type:      TypeEvent,
		RequestID: requestID,
		ChannelID: channelID,
		Method:    eventName,
		Headers:   map[string]string{},
	}
}
