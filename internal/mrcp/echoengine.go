package mrcp

// EchoEngine is a bundled ResourceEngine (supplemental) that
// accepts any resource name and answers every request with an immediate
// 200, auto-generating the right final event for activity-starting
// methods (SPEAK-COMPLETE, RECOGNITION-COMPLETE, ...) on deactivation. It
// exists so the session core (C7/C8) can be exercised end to end without
// a real TTS/ASR backend wired in.
type EchoEngine struct {
	name string
}

// NewEchoEngine builds an engine that serves resource name.
func NewEchoEngine(name string) *EchoEngine {
	return &EchoEngine{name: name}
}

func (e *EchoEngine) Name() string { return e.name }

func (e *EchoEngine) OpenChannel(channelID string, version Version, events EngineChannelEvents) EngineChannel {
	ch := &echoChannel{id: channelID, events: events}
	ch.sm = NewGenericStateMachine(channelID, Callbacks{
		OnDispatch: func(msg *MRCPMessage) {
			events.OnChannelMessage(ch, msg)
		},
		OnDeactivate: func() {
			events.OnChannelDeactivated(ch)
		},
	})
	return ch
}

type echoChannel struct {
	id     string
	events EngineChannelEvents
	sm     *GenericStateMachine
}

func (c *echoChannel) ID() string { return c.id }

func (c *echoChannel) Open() {
	c.events.OnChannelOpen(c, StatusOK)
}

func (c *echoChannel) Close() {
	c.events.OnChannelClose(c)
}

func (c *echoChannel) HandleRequest(msg *MRCPMessage) error {
	return c.sm.HandleRequest(msg)
}

func (c *echoChannel) Deactivate() bool {
	return c.sm.Deactivate()
}
