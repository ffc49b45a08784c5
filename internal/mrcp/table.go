package mrcp

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Stats is a point-in-time snapshot of one session for introspection
// (supplemental), exposed as a plain Go method rather than an HTTP
// endpoint since transport is a non-goal.
type Stats struct {
	SessionID    string
	State        string
	ChannelCount int
	Resources    []string
}

// Table is C8: the session table and dispatcher. It creates sessions on
// a shared profile, routes offers/control messages/terminate requests to
// the right one by id, and removes terminated sessions.
type Table struct {
	mu       sync.RWMutex
	profile  *Profile
	sessions map[string]*Session
	logger   zerolog.Logger
	idLength int
}

// NewTable builds an empty session table bound to profile. idLength is
// the number of hex characters a generated session id carries (§3, §6);
// idLength <= 0 or > 32 falls back to 16.
func NewTable(profile *Profile, logger zerolog.Logger, idLength int) *Table {
	if idLength <= 0 || idLength > 32 {
		idLength = 16
	}
	return &Table{profile: profile, sessions: make(map[string]*Session), logger: logger, idLength: idLength}
}

// CreateSession allocates a new session id (a UUID v4 with its dashes
// stripped and truncated to t.idLength hex characters) and registers a
// session for it.
func (t *Table) CreateSession(signaling SignalingAgent) *Session {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")[:t.idLength]
	s := NewSession(id, t.profile, signaling, t.logger.With().Str("session", id).Logger())
	t.mu.Lock()
	t.sessions[id] = s
	t.mu.Unlock()
	return s
}

// Lookup finds a session by id.
func (t *Table) Lookup(id string) (*Session, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.sessions[id]
	return s, ok
}

// Remove drops a session from the table. Terminate calls it once the
// session's teardown has been started.
func (t *Table) Remove(id string) {
	t.mu.Lock()
	delete(t.sessions, id)
	t.mu.Unlock()
}

// Offer routes an offer to the named session.
func (t *Table) Offer(sessionID string, offer *SessionDescriptor) error {
	s, ok := t.Lookup(sessionID)
	if !ok {
		return fmt.Errorf("mrcp: %w: session %s", ErrSessionTerminated, sessionID)
	}
	s.ProcessOffer(offer)
	return nil
}

// Control routes an in-dialog control message to the named session and
// resource.
func (t *Table) Control(sessionID, resource string, msg *MRCPMessage) error {
	s, ok := t.Lookup(sessionID)
	if !ok {
		return fmt.Errorf("mrcp: %w: session %s", ErrSessionTerminated, sessionID)
	}
	return s.HandleControlMessage(resource, msg)
}

// Terminate begins tearing down the named session and removes it from the
// table; later requests for that id fail with ErrSessionTerminated.
func (t *Table) Terminate(sessionID string) error {
	s, ok := t.Lookup(sessionID)
	if !ok {
		return fmt.Errorf("mrcp: %w: session %s", ErrSessionTerminated, sessionID)
	}
	s.Terminate()
	t.Remove(sessionID)
	return nil
}

// Stats returns a snapshot of every active session.
func (t *Table) Stats() []Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Stats, 0, len(t.sessions))
	for id, s := range t.sessions {
		s.mu.Lock()
		resources := make([]string, 0, len(s.channels))
		for r := range s.channels {
			resources = append(resources, r)
		}
		state := s.state.String()
		s.mu.Unlock()
		out = append(out, Stats{SessionID: id, State: state, ChannelCount: len(resources), Resources: resources})
	}
	return out
}

// Count returns the number of active sessions.
func (t *Table) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}
