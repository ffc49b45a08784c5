package mrcp

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableCreateLookupRemove(t *testing.T) {
	profile, _ := testProfile(t)
	table := NewTable(profile, zerolog.Nop(), 16)

	signaling := newFakeSignalingAgent()
	s := table.CreateSession(signaling)
	require.Equal(t, 1, table.Count())

	found, ok := table.Lookup(s.ID())
	require.True(t, ok)
	assert.Same(t, s, found)

	table.Remove(s.ID())
	assert.Equal(t, 0, table.Count())
	_, ok = table.Lookup(s.ID())
	assert.False(t, ok)
}

func TestTableOfferAgainstUnknownSessionErrors(t *testing.T) {
	profile, _ := testProfile(t)
	table := NewTable(profile, zerolog.Nop(), 16)
	err := table.Offer("no-such-session", &SessionDescriptor{Version: Version1, ResourceName: "speechsynth", ResourceState: true})
	assert.ErrorIs(t, err, ErrSessionTerminated)
}

func TestTableStatsReflectsActiveSessions(t *testing.T) {
	profile, _ := testProfile(t)
	table := NewTable(profile, zerolog.Nop(), 16)
	signaling := newFakeSignalingAgent()
	s := table.CreateSession(signaling)

	require.NoError(t, table.Offer(s.ID(), &SessionDescriptor{Version: Version1, ResourceName: "speechsynth", ResourceState: true}))
	signaling.waitAnswer(t)

	stats := table.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, s.ID(), stats[0].SessionID)
	assert.Equal(t, 1, stats[0].ChannelCount)
	assert.Contains(t, stats[0].Resources, "speechsynth")
}
