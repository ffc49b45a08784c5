package mrcp

import (
	"github.com/rs/zerolog"

	"github.com/sebas/mrcpgw/internal/mpf"
)

// ChannelEvents is the callback interface an MRCP channel uses to report
// open/close/deactivate completion up to its owning session (C7), the
// same asynchronous-callback shape internal/mpf.Callback uses for the
// media engine's responses.
type ChannelEvents interface {
	OnChannelOpened(ch *MRCPChannel, status SessionStatus)
	OnChannelClosed(ch *MRCPChannel)
	OnChannelDeactivated(ch *MRCPChannel)
}

// MRCPChannel is C6: one resource within a session, pairing its control
// channel (C4, outbound path to the client) with its engine channel (C5,
// the resource plugin instance), plus the mpf.Termination it occupies in
// the session's media context once audio is negotiated.
type MRCPChannel struct {
	id       string
	resource string
	version  Version

	control *ControlChannel
	engine  EngineChannel

	termination *mpf.Termination

	owner  ChannelEvents
	logger zerolog.Logger
}

// NewMRCPChannel opens an engine channel from factory for resource and
// wires it to control. The channel is not yet live on the wire/media
// side until Open() is called.
func NewMRCPChannel(id, resource string, version Version, control *ControlChannel, factory ResourceEngine, owner ChannelEvents, logger zerolog.Logger) *MRCPChannel {
	ch := &MRCPChannel{id: id, resource: resource, version: version, control: control, owner: owner, logger: logger}
	ch.engine = factory.OpenChannel(id, version, ch)
	return ch
}

func (ch *MRCPChannel) ID() string            { return ch.id }
func (ch *MRCPChannel) Resource() string      { return ch.resource }
func (ch *MRCPChannel) Version() Version      { return ch.version }
func (ch *MRCPChannel) Termination() *mpf.Termination { return ch.termination }

// Complete reports whether the channel carries both a resource name and a
// live engine-channel state machine to route requests into (§4.1's
// control-routing rule: a channel failing either check is not dispatchable).
func (ch *MRCPChannel) Complete() bool {
	return ch.resource != "" && ch.engine != nil
}

// BindTermination records the mpf.Termination this channel's audio rides
// on (set once, when the orchestrator adds it to the session's media
// context).
func (ch *MRCPChannel) BindTermination(t *mpf.Termination) { ch.termination = t }

func (ch *MRCPChannel) Open()  { ch.engine.Open() }
func (ch *MRCPChannel) Close() { ch.engine.Close() }

// Deactivate asks the underlying engine channel to wind down. See
// EngineChannel.Deactivate for the return value's meaning.
func (ch *MRCPChannel) Deactivate() bool { return ch.engine.Deactivate() }

// HandleRequest feeds an inbound client request into the resource's
// state machine.
func (ch *MRCPChannel) HandleRequest(msg *MRCPMessage) error {
	return ch.engine.HandleRequest(msg)
}

// OnChannelOpen implements EngineChannelEvents.
func (ch *MRCPChannel) OnChannelOpen(_ EngineChannel, status SessionStatus) {
	if ch.owner != nil {
		ch.owner.OnChannelOpened(ch, status)
	}
}

// OnChannelClose implements EngineChannelEvents.
func (ch *MRCPChannel) OnChannelClose(_ EngineChannel) {
	if ch.owner != nil {
		ch.owner.OnChannelClosed(ch)
	}
}

// OnChannelMessage implements EngineChannelEvents: forward the resource's
// response/event out to the client over the control channel.
func (ch *MRCPChannel) OnChannelMessage(_ EngineChannel, msg *MRCPMessage) {
	if err := ch.control.Send(msg); err != nil {
		ch.logger.Warn().Err(err).Str("channel", ch.id).Msg("failed to deliver message to client")
	}
}

// OnChannelDeactivated implements EngineChannelEvents.
func (ch *MRCPChannel) OnChannelDeactivated(_ EngineChannel) {
	if ch.owner != nil {
		ch.owner.OnChannelDeactivated(ch)
	}
}
