package mrcp

// ResourceEngine and EngineChannel are the resource-plugin SPI (C5):
// the seam a synthesizer, recognizer, recorder, or verifier backend
// plugs into. Translates a vtable-of-function-pointers shape (engine /
// engine-channel / event-vtable) into plain Go interfaces plus a
// callback interface in place of the vtable.
type ResourceEngine interface {
	// Name is the resource name this engine serves, matched against an
	// offer's resource-name field (§7).
	Name() string

	// OpenChannel creates a new engine channel for channelID. The engine
	// channel is not yet open; the orchestrator calls Open() and, once the
	// open completes, builds the channel's termination and adds it to the
	// media context.
	OpenChannel(channelID string, version Version, events EngineChannelEvents) EngineChannel
}

// EngineChannel is one resource engine's channel instance (C5).
// Open/Close model the engine-channel open/close handshake (§4.1's "+1
// sub-request, async response"); HandleRequest feeds a client request
// into the resource's state machine; Deactivate asks any in-flight
// activity to wind down (§8 scenario 5).
type EngineChannel interface {
	ID() string

	// Open begins the channel's asynchronous open sequence. The engine
	// reports completion via EngineChannelEvents.OnChannelOpen.
	Open()

	// Close begins the channel's asynchronous close sequence, completed
	// via EngineChannelEvents.OnChannelClose.
	Close()

	HandleRequest(msg *MRCPMessage) error

	// Deactivate returns true if an activity was in progress and a
	// OnChannelDeactivated callback will follow; false if there was
	// nothing to wind down.
	Deactivate() bool
}

// EngineChannelEvents is the callback interface an engine channel uses to
// report back to its owning MRCP channel, in place of an
// {OnOpen, OnClose, OnMessage} function-pointer struct.
type EngineChannelEvents interface {
	OnChannelOpen(ch EngineChannel, status SessionStatus)
	OnChannelClose(ch EngineChannel)
	OnChannelMessage(ch EngineChannel, msg *MRCPMessage)
	OnChannelDeactivated(ch EngineChannel)
}
