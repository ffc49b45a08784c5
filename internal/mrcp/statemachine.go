package mrcp

import "sync"

// Callbacks are the two callbacks a state machine invokes on the
// orchestrator (§4.1): on_dispatch for outbound messages (request to the
// engine channel, response/event to the client) and on_deactivate when a
// deactivate() the orchestrator issued has fully drained (auto-generated
// final event sent, internal state idle).
type Callbacks struct {
	OnDispatch   func(msg *MRCPMessage)
	OnDeactivate func()
}

// StateMachine is the per-MRCP-channel state machine (§4.1): "One
// instance per MRCP channel, created by the resource plugin... The
// orchestrator never inspects the internal states." Only two operations
// are visible to the orchestrator: feeding it a request and asking it to
// deactivate.
type StateMachine interface {
	// HandleRequest enforces the resource's request/response semantics
	// (pending requests, in-progress events, allowed transitions) and
	// eventually invokes Callbacks.OnDispatch with a Request (forward to
	// the engine channel), Response, or Event message.
	HandleRequest(msg *MRCPMessage) error

	// Deactivate asks the state machine to wind down. Returns true if it
	// accepted the request and will later call Callbacks.OnDeactivate
	// (after emitting any auto-generated final event); false if there was
	// nothing in flight and no callback will follow.
	Deactivate() bool
}

type genericState int

const (
	stateIdle genericState = iota
	stateActive
)

// activityMethods maps a request method that starts a long-running
// activity to the final event the state machine auto-generates on
// deactivation (§8 scenario 5). Unlisted methods are treated as
// synchronous (request -> immediate 200 response, no pending activity).
var activityMethods = map[string]string{
	"SPEAK":     "SPEAK-COMPLETE",
	"RECOGNIZE": "RECOGNITION-COMPLETE",
	"RECORD":    "RECORD-COMPLETE",
	"VERIFY":    "VERIFICATION-COMPLETE",
}

// GenericStateMachine is a resource-agnostic implementation of the
// per-channel MRCP semantics: it tracks at most one activity (a new
// activity-starting request replaces the tracked one), replies 200
// immediately to every request, and on Deactivate() emits the tracked
// activity's final event before reporting done. Its responses carry no
// request-state (COMPLETE / IN-PROGRESS) indication. Real resource plugins
// (synthesizer, recognizer, ...) would subclass this behavior with their
// own richer transition tables; this implementation is what the bundled
// echo resource engine uses (supplemental).
type GenericStateMachine struct {
	mu           sync.Mutex
	channelID    string
	cb           Callbacks
	state        genericState
	activeMethod string
	finalEvent   string
}

// NewGenericStateMachine creates a state machine for one MRCP channel.
func NewGenericStateMachine(channelID string, cb Callbacks) *GenericStateMachine {
	return &GenericStateMachine{channelID: channelID, cb: cb}
}

// HandleRequest implements StateMachine.
func (g *GenericStateMachine) HandleRequest(msg *MRCPMessage) error {
	g.mu.Lock()

	if msg.Method == "STOP" {
		g.state = stateIdle
		g.activeMethod = ""
		g.finalEvent = ""
		g.mu.Unlock()
		resp := NewResponse(msg, 200)
		g.cb.OnDispatch(resp)
		return nil
	}

	finalEvent, isActivity := activityMethods[msg.Method]
	if isActivity {
		g.state = stateActive
		g.activeMethod = msg.Method
		g.finalEvent = finalEvent
	}
	g.mu.Unlock()

	resp := NewResponse(msg, 200)
	g.cb.OnDispatch(resp)
	return nil
}

// Deactivate implements StateMachine. If an activity is in progress it
// emits the activity's final event before reporting completion, matching
// §8 scenario 5 ("the recognizer emits a final RECOGNITION-COMPLETE event
// which is forwarded to the client; only then does the counter reach
// zero").
func (g *GenericStateMachine) Deactivate() bool {
	g.mu.Lock()
	if g.state != stateActive {
		g.mu.Unlock()
		return false
	}
	event := g.finalEvent
	channelID := g.channelID
	g.state = stateIdle
	g.activeMethod = ""
	g.finalEvent = ""
	g.mu.Unlock()

	g.cb.OnDispatch(NewEvent(channelID, event, 0))
	g.cb.OnDeactivate()
	return true
}
