package mrcp

import (
	"fmt"
	"sync"

	"github.com/pion/sdp/v3"
	"github.com/rs/zerolog"

	"github.com/sebas/mrcpgw/internal/mpf"
)

// SignalingAgent delivers the two messages the orchestrator ever speaks
// at the signaling level (§3, §7): an answer to an offer, and the final
// response to a terminate request. Everything else (control requests,
// events) travels over a resource's own ControlChannel/ConnectionAgent.
type SignalingAgent interface {
	SendAnswer(sessionID string, answer *SessionDescriptor)
	SendTerminateResponse(sessionID string)
}

type orchestratorState int

const (
	stateNone orchestratorState = iota
	stateAnswering
	stateTerminating
)

func (s orchestratorState) String() string {
	switch s {
	case stateAnswering:
		return "answering"
	case stateTerminating:
		return "terminating"
	default:
		return "none"
	}
}

// Session is C7, the per-session signaling orchestrator: a FIFO of
// signaling operations (only one in flight at a time), each tracked by a
// sub-request counter that only reaches zero once every asynchronous
// engine-channel and media-context operation it kicked off has reported
// back (§4.1, §9's recommended barrier-of-futures rewrite). It implements
// mpf.Callback (media-context completions) and ChannelEvents (engine
// channel open/close/deactivate completions) so both kinds of async
// completion feed the same counter.
//
// Generalizes the serialization a two-leg call state machine applies to
// re-INVITEs against a single in-flight operation, extended here from
// two legs to N resource channels plus one shared media context.
type Session struct {
	mu sync.Mutex

	id        string
	profile   *Profile
	ctx       *mpf.Context
	signaling SignalingAgent
	logger    zerolog.Logger

	channels           map[string]*MRCPChannel
	channelOrder       []string
	terminationChannel map[*mpf.Termination]*MRCPChannel

	openWaiters       map[string]func()
	closeWaiters      map[string]func()
	deactivateWaiters map[string]func()
	mediaWaiters      []mediaWaiter

	state      orchestratorState
	pending    int
	onComplete func()
	queue      []func()

	nextCommandID uint64
}

// mediaWaiter is a one-shot continuation fired once count further
// OnEngineResponse callbacks have landed (§mediaResultWaiters).
type mediaWaiter struct {
	remaining int
	done      func()
}

// NewSession creates a session bound to profile, with its own media
// context on the profile's shared engine.
func NewSession(id string, profile *Profile, signaling SignalingAgent, logger zerolog.Logger) *Session {
	s := &Session{
		id:                 id,
		profile:            profile,
		signaling:          signaling,
		logger:             logger,
		channels:           make(map[string]*MRCPChannel),
		terminationChannel: make(map[*mpf.Termination]*MRCPChannel),
	}
	s.ctx = profile.MediaEngine.NewContext(id, profile.ContextCapacity, s)
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) newCommandID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextCommandID++
	return s.nextCommandID
}

// --- FIFO / sub-request counting -------------------------------------

// run executes fn now if the session is idle, or enqueues it to run once
// the current operation completes (§4.1: offers and terminate requests
// against the same session never overlap).
func (s *Session) run(fn func()) {
	s.mu.Lock()
	if s.state != stateNone {
		s.queue = append(s.queue, fn)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	fn()
}

func (s *Session) setOnComplete(fn func()) {
	s.mu.Lock()
	s.onComplete = fn
	s.mu.Unlock()
}

func (s *Session) beginAsync() {
	s.mu.Lock()
	s.pending++
	s.mu.Unlock()
}

func (s *Session) endAsync() {
	s.mu.Lock()
	s.pending--
	var cb func()
	if s.pending == 0 {
		cb = s.onComplete
		s.onComplete = nil
	}
	s.mu.Unlock()
	if cb != nil {
		cb()
	}
}

func (s *Session) dequeueNext() {
	s.mu.Lock()
	if len(s.queue) == 0 {
		s.mu.Unlock()
		return
	}
	next := s.queue[0]
	s.queue = s.queue[1:]
	s.mu.Unlock()
	next()
}

// --- offer processing (§4.1, §7) --------------------------------------

// ProcessOffer handles an incoming offer, v1 or v2 according to
// offer.Version, and eventually delivers the answer via SignalingAgent.
func (s *Session) ProcessOffer(offer *SessionDescriptor) {
	s.run(func() {
		if offer.Version != Version1 && offer.Version != Version2 {
			s.logger.Warn().Err(ErrUnknownVersion).Str("session", s.id).Msg("rejecting offer")
			answer := answerTemplate(offer)
			answer.Status = StatusUnacceptableResource
			s.signaling.SendAnswer(s.id, answer)
			s.dequeueNext()
			return
		}

		s.mu.Lock()
		s.state = stateAnswering
		s.mu.Unlock()

		s.resetAssociations()

		if offer.Version == Version1 {
			s.processOfferV1(offer)
		} else {
			s.processOfferV2(offer)
		}
	})
}

// resetAssociations clears every association already materialised in the
// session's media context before an offer rebuilds the topology from
// scratch, and once more as a terminate request tears it all the way down
// (§4.1 step 4, §4.2). It participates in the same pending-count barrier
// as every other asynchronous media-context step.
func (s *Session) resetAssociations() {
	s.beginAsync()
	s.mediaResultWaiters(1, func() {})
	s.profile.MediaEngine.Send(mpf.Batch{Tasks: []mpf.Task{
		{Kind: mpf.ResetAssociations, Context: s.ctx, CommandID: s.newCommandID()},
	}})
}

func (s *Session) finishOffer(answer *SessionDescriptor) {
	s.mu.Lock()
	s.state = stateNone
	s.mu.Unlock()
	s.signaling.SendAnswer(s.id, answer)
	s.dequeueNext()
}

// firstAudioCodec returns the first codec offered for resource's audio
// slot, if any. Codec intersection against a resource's own
// capabilities is left to the RTPTerminationFactory/resource engine; the
// core only needs a codec to hand it (non-goal: full SDP codec
// negotiation).
func firstAudioCodec(offer *SessionDescriptor) (*mpf.CodecDescriptor, mpf.StreamMode) {
	for _, slot := range offer.Audio {
		if slot == nil || len(slot.Codecs) == 0 {
			continue
		}
		mode := slot.Mode
		if mode == mpf.ModeNone {
			mode = mpf.ModeSendReceive
		}
		return slot.Codecs[0], mode
	}
	return nil, mpf.ModeSendReceive
}

// processOfferV1 implements the single resource add/remove offer shape
// (§4.1 v1 branch). Repeated offers of an already-open resource are
// treated as idempotent, favoring a client retransmit over an error.
func (s *Session) processOfferV1(offer *SessionDescriptor) {
	answer := answerTemplate(offer)
	resource := offer.ResourceName

	if !offer.ResourceState {
		s.removeResource(resource, func() { s.finishOffer(answer) })
		return
	}

	s.mu.Lock()
	_, exists := s.channels[resource]
	s.mu.Unlock()
	if exists {
		answer.Status = StatusOK
		s.finishOffer(answer)
		return
	}

	s.addResource(offer, resource, func(controlSlot, audioSlot *MediaSlot, err error) {
		if err != nil {
			offErr := &OfferError{Resource: resource, Status: StatusNoSuchResource, Cause: err}
			s.logger.Warn().Err(offErr).Str("session", s.id).Msg("rejecting offer entry")
			answer.Status = StatusNoSuchResource
			answer.Control = []*MediaSlot{rejectSlot(resource)}
		} else {
			answer.Status = StatusOK
			answer.Control = []*MediaSlot{controlSlot}
			if audioSlot != nil && len(answer.Audio) > 0 {
				answer.Audio[0] = audioSlot
			}
		}
		s.finishOffer(answer)
	})
}

// processOfferV2 implements the array-walk offer shape (§4.1 step 5):
// entries at an index matching an existing channel modify it in place
// (no-op for the bundled resource engines beyond logging); entries past
// the existing list append new channels, same add logic as v1.
func (s *Session) processOfferV2(offer *SessionDescriptor) {
	answer := answerTemplate(offer)

	s.mu.Lock()
	existing := append([]string(nil), s.channelOrder...)
	s.mu.Unlock()

	answer.Control = make([]*MediaSlot, len(offer.ControlMediaArr))
	anyRejected := false
	nextAudioSlot := 0

	// Registered before any addResource call below can possibly complete
	// synchronously (the bundled echo engine opens its channel inline),
	// so a same-call completion never finds onComplete unset.
	s.setOnComplete(func() {
		s.mu.Lock()
		rejected := anyRejected
		s.mu.Unlock()
		if rejected && answer.Status == StatusOK {
			answer.Status = StatusNoSuchResource
		}
		s.finishOffer(answer)
	})

	for i, entry := range offer.ControlMediaArr {
		i, entry := i, entry
		if i < len(existing) {
			s.logger.Debug().Str("session", s.id).Int("index", i).Msg("modify-by-index offer entry (no-op)")
			answer.Control[i] = &MediaSlot{Control: &ControlMediaDescriptor{
				SessionID: s.id, Resource: entry.Resource, Cmid: entry.Cmid, Port: entry.Port,
			}}
			continue
		}
		s.addResource(offer, entry.Resource, func(controlSlot, audioSlot *MediaSlot, err error) {
			s.mu.Lock()
			if err != nil {
				offErr := &OfferError{SlotIndex: i, Resource: entry.Resource, Status: StatusNoSuchResource, Cause: err}
				s.logger.Warn().Err(offErr).Str("session", s.id).Int("index", i).Msg("rejecting offer entry")
				answer.Control[i] = rejectSlot(entry.Resource)
				anyRejected = true
			} else {
				controlSlot.Control.Cmid = entry.Cmid
				answer.Control[i] = controlSlot
				if audioSlot != nil && nextAudioSlot < len(answer.Audio) {
					answer.Audio[nextAudioSlot] = audioSlot
					nextAudioSlot++
				}
			}
			s.mu.Unlock()
		})
	}

	// addResource above already incremented s.pending per new channel; if
	// nothing was added (pure modify-by-index offer), complete now.
	s.mu.Lock()
	done := s.pending == 0
	s.mu.Unlock()
	if done {
		s.endAsyncNoop()
	}
}

// endAsyncNoop fires onComplete immediately when an operation turns out
// to need no asynchronous work (kept distinct from endAsync so it never
// decrements a counter that was never incremented).
func (s *Session) endAsyncNoop() {
	s.mu.Lock()
	cb := s.onComplete
	s.onComplete = nil
	s.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// addResource opens a new MRCP channel for resource and, if the offer
// carries an audio slot, negotiates a termination and bridges it against
// every other termination already in the session's media context
// (§2, §4.2). done is called with the channel's control slot and, if one
// was negotiated, its audio slot, once every asynchronous step has
// completed. A channel whose resource lookup fails reports err and both
// slots nil.
func (s *Session) addResource(offer *SessionDescriptor, resource string, done func(controlSlot, audioSlot *MediaSlot, err error)) {
	engine, ok := s.profile.Engines.Lookup(resource)
	if !ok {
		done(nil, nil, fmt.Errorf("mrcp: %w: %s", ErrNoSuchChannel, resource))
		return
	}

	channelID := s.id + "@" + resource
	control := NewControlChannel(channelID, s.profile.Connection)

	s.beginAsync()
	s.mu.Lock()
	ch := NewMRCPChannel(channelID, resource, offer.Version, control, engine, s, s.logger)
	s.channels[resource] = ch
	s.channelOrder = append(s.channelOrder, channelID)
	s.mu.Unlock()

	controlSlot := &MediaSlot{Control: &ControlMediaDescriptor{SessionID: s.id, Resource: resource}}

	s.pendingChannelOpen(channelID, func() {
		codec, mode := firstAudioCodec(offer)
		if codec == nil {
			done(controlSlot, nil, nil)
			return
		}
		s.negotiateAudio(ch, channelID, mode, codec, controlSlot, done)
	})
	ch.Open()
}

// pendingChannelOpen registers a one-shot continuation for channelID's
// next OnChannelOpened callback.
func (s *Session) pendingChannelOpen(channelID string, fn func()) {
	s.mu.Lock()
	if s.openWaiters == nil {
		s.openWaiters = make(map[string]func())
	}
	s.openWaiters[channelID] = fn
	s.mu.Unlock()
}

func (s *Session) negotiateAudio(ch *MRCPChannel, channelID string, mode mpf.StreamMode, codec *mpf.CodecDescriptor, controlSlot *MediaSlot, done func(controlSlot, audioSlot *MediaSlot, err error)) {
	term, err := s.profile.Terminations.NewTermination(channelID, mode, codec)
	if err != nil {
		s.logger.Warn().Err(err).Str("channel", channelID).Msg("failed to build termination")
		done(controlSlot, nil, nil)
		return
	}
	ch.BindTermination(term)

	s.mu.Lock()
	others := make([]*mpf.Termination, 0, len(s.terminationChannel))
	for other := range s.terminationChannel {
		others = append(others, other)
	}
	s.terminationChannel[term] = ch
	s.mu.Unlock()

	tasks := []mpf.Task{{Kind: mpf.AddTermination, Context: s.ctx, Termination: term, CommandID: s.newCommandID()}}
	for _, other := range others {
		tasks = append(tasks,
			mpf.Task{Kind: mpf.AddAssociation, Context: s.ctx, Termination: term, Other: other, CommandID: s.newCommandID()},
			mpf.Task{Kind: mpf.AddAssociation, Context: s.ctx, Termination: other, Other: term, CommandID: s.newCommandID()},
		)
	}
	tasks = append(tasks, mpf.Task{Kind: mpf.ApplyTopology, Context: s.ctx, CommandID: s.newCommandID()})

	for range tasks {
		s.beginAsync()
	}
	s.mediaResultWaiters(len(tasks), func() {
		audioSlot := &MediaSlot{
			Mode:   mode,
			Codecs: []*mpf.CodecDescriptor{codec},
			Port:   term.LocalPort,
			SDP:    buildAudioMediaDescription(term.LocalIP, term.LocalPort, codec),
		}
		done(controlSlot, audioSlot, nil)
	})
	s.profile.MediaEngine.Send(mpf.Batch{Tasks: tasks})
}

// payloadTypes maps the bundled codec names to their static RTP/AVP
// payload type numbers (RFC 3551), the same table an external SDP
// adapter would need to build an rtpmap attribute.
var payloadTypes = map[string]string{
	"PCMU": "0",
	"PCMA": "8",
	"L16":  "96",
}

// buildAudioMediaDescription builds the `m=audio` line an external SDP
// adapter would fold into the outbound answer: the RTP factory's
// allocated ip:port plus an rtpmap attribute for the negotiated codec.
func buildAudioMediaDescription(ip string, port int, codec *mpf.CodecDescriptor) *sdp.MediaDescription {
	pt, ok := payloadTypes[codec.Name]
	if !ok {
		pt = "97"
	}
	return &sdp.MediaDescription{
		MediaName: sdp.MediaName{
			Media:   "audio",
			Port:    sdp.RangedPort{Value: port},
			Protos:  []string{"RTP", "AVP"},
			Formats: []string{pt},
		},
		ConnectionInformation: &sdp.ConnectionInformation{
			NetworkType: "IN",
			AddressType: "IP4",
			Address:     &sdp.Address{Address: ip},
		},
		Attributes: []sdp.Attribute{
			{Key: "rtpmap", Value: fmt.Sprintf("%s %s/%d", pt, codec.Name, codec.SamplingRate)},
		},
	}
}

// mediaResultWaiters runs fn once count further OnEngineResponse
// callbacks have landed, independent of whatever onComplete is already
// registered for the enclosing offer/terminate operation.
func (s *Session) mediaResultWaiters(count int, fn func()) {
	s.mu.Lock()
	s.mediaWaiters = append(s.mediaWaiters, mediaWaiter{remaining: count, done: fn})
	s.mu.Unlock()
}

// removeResource tears a resource's channel all the way down: deactivate
// the engine channel, close it, then remove its termination from the
// media context (§4.1's remove-resource offer path).
func (s *Session) removeResource(resource string, done func()) {
	s.mu.Lock()
	ch, ok := s.channels[resource]
	if ok {
		delete(s.channels, resource)
	}
	s.mu.Unlock()
	if !ok {
		done()
		return
	}

	s.beginAsync()
	s.pendingChannelDeactivate(ch.ID(), func() {
		s.beginAsync()
		s.pendingChannelClose(ch.ID(), func() {
			term := ch.Termination()
			if term == nil {
				done()
				return
			}
			s.mu.Lock()
			delete(s.terminationChannel, term)
			s.mu.Unlock()
			s.beginAsync()
			s.mediaResultWaiters(1, done)
			s.profile.MediaEngine.Send(mpf.Batch{Tasks: []mpf.Task{
				{Kind: mpf.SubtractTermination, Context: s.ctx, Termination: term, CommandID: s.newCommandID()},
			}})
		})
		ch.Close()
	})
	accepted := ch.Deactivate()
	if !accepted {
		s.finishImmediateDeactivate(ch.ID())
	}
}

func (s *Session) pendingChannelDeactivate(channelID string, fn func()) {
	s.mu.Lock()
	if s.deactivateWaiters == nil {
		s.deactivateWaiters = make(map[string]func())
	}
	s.deactivateWaiters[channelID] = fn
	s.mu.Unlock()
}

func (s *Session) pendingChannelClose(channelID string, fn func()) {
	s.mu.Lock()
	if s.closeWaiters == nil {
		s.closeWaiters = make(map[string]func())
	}
	s.closeWaiters[channelID] = fn
	s.mu.Unlock()
}

// finishImmediateDeactivate handles the case where Deactivate() reported
// nothing was in flight: the async step this call site reserved with
// beginAsync() needs to unwind without a real OnChannelDeactivated
// callback ever arriving.
func (s *Session) finishImmediateDeactivate(channelID string) {
	s.mu.Lock()
	fn := s.deactivateWaiters[channelID]
	delete(s.deactivateWaiters, channelID)
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
	s.endAsync()
}

// Terminate tears the whole session down: every channel is deactivated,
// then closed, then its termination removed from the media context,
// before the terminate response ships (§4.1, §8 scenario 5).
func (s *Session) Terminate() {
	s.run(func() {
		s.mu.Lock()
		s.state = stateTerminating
		chans := make([]*MRCPChannel, 0, len(s.channels))
		for _, ch := range s.channels {
			chans = append(chans, ch)
		}
		s.mu.Unlock()

		s.resetAssociations()

		if len(chans) == 0 {
			s.finishTerminate()
			return
		}

		var remaining = len(chans)
		var mu sync.Mutex
		onOneDone := func() {
			mu.Lock()
			remaining--
			done := remaining == 0
			mu.Unlock()
			if done {
				s.finishTerminate()
			}
		}

		for _, ch := range chans {
			ch := ch
			s.beginAsync()
			s.pendingChannelDeactivate(ch.ID(), func() {
				s.beginAsync()
				s.pendingChannelClose(ch.ID(), func() {
					term := ch.Termination()
					if term == nil {
						onOneDone()
						return
					}
					s.beginAsync()
					s.mediaResultWaiters(1, onOneDone)
					s.profile.MediaEngine.Send(mpf.Batch{Tasks: []mpf.Task{
						{Kind: mpf.SubtractTermination, Context: s.ctx, Termination: term, CommandID: s.newCommandID()},
					}})
				})
				ch.Close()
			})
			if accepted := ch.Deactivate(); !accepted {
				s.finishImmediateDeactivate(ch.ID())
			}
		}
	})
}

func (s *Session) finishTerminate() {
	s.mu.Lock()
	s.channels = make(map[string]*MRCPChannel)
	s.channelOrder = nil
	s.terminationChannel = make(map[*mpf.Termination]*MRCPChannel)
	s.state = stateNone
	s.mu.Unlock()
	s.signaling.SendTerminateResponse(s.id)
	s.dequeueNext()
}

// --- control message routing (C4/C6) -----------------------------------

// HandleControlMessage routes an in-dialog MRCP request to the channel
// serving resource. Control messages share the session's signaling FIFO
// with offers and terminate requests (§8 scenario 4): a message
// submitted while an offer is still being answered sits on the queue and
// is dispatched exactly once the answer has shipped.
func (s *Session) HandleControlMessage(resource string, msg *MRCPMessage) error {
	result := make(chan error, 1)
	s.run(func() {
		defer s.dequeueNext()
		s.mu.Lock()
		ch, ok := s.channels[resource]
		s.mu.Unlock()
		if !ok {
			result <- fmt.Errorf("mrcp: %w: %s", ErrNoSuchChannel, resource)
			return
		}
		if !ch.Complete() {
			result <- fmt.Errorf("mrcp: %w: %s", ErrChannelIncomplete, resource)
			return
		}
		result <- ch.HandleRequest(msg)
	})
	return <-result
}

// --- mpf.Callback --------------------------------------------------

// OnEngineResponse implements mpf.Callback.
func (s *Session) OnEngineResponse(r mpf.Response) {
	if r.Err != nil {
		s.logger.Warn().Err(r.Err).Str("session", s.id).Str("kind", r.Kind.String()).Msg("media engine task failed")
	}
	s.mu.Lock()
	var fire []func()
	kept := s.mediaWaiters[:0]
	for _, w := range s.mediaWaiters {
		w.remaining--
		if w.remaining == 0 {
			fire = append(fire, w.done)
		} else {
			kept = append(kept, w)
		}
	}
	s.mediaWaiters = kept
	s.mu.Unlock()
	for _, fn := range fire {
		if fn != nil {
			fn()
		}
	}
	s.endAsync()
}

// --- ChannelEvents ---------------------------------------------------

// OnChannelOpened implements ChannelEvents.
func (s *Session) OnChannelOpened(ch *MRCPChannel, status SessionStatus) {
	if status != StatusOK {
		s.logger.Warn().Str("channel", ch.ID()).Str("status", status.String()).Msg("engine channel open failed")
	}
	s.mu.Lock()
	fn := s.openWaiters[ch.ID()]
	delete(s.openWaiters, ch.ID())
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
	s.endAsync()
}

// OnChannelClosed implements ChannelEvents.
func (s *Session) OnChannelClosed(ch *MRCPChannel) {
	s.mu.Lock()
	fn := s.closeWaiters[ch.ID()]
	delete(s.closeWaiters, ch.ID())
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
	s.endAsync()
}

// OnChannelDeactivated implements ChannelEvents.
func (s *Session) OnChannelDeactivated(ch *MRCPChannel) {
	s.mu.Lock()
	fn := s.deactivateWaiters[ch.ID()]
	delete(s.deactivateWaiters, ch.ID())
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
	s.endAsync()
}
