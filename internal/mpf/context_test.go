package mpf

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func sendRecvTermination(name string, codec *CodecDescriptor) *Termination {
	return NewTermination(name, &AudioStream{Mode: ModeSendReceive, Codec: codec})
}

func TestAddSubtractTerminationRoundTrip(t *testing.T) {
	f := NewFactory()
	c := f.NewContext("sess-1", 5, testLogger())
	tm := sendRecvTermination("engine", PCMU)

	require.NoError(t, c.AddTermination(tm))
	assert.Equal(t, 1, c.Count())
	assert.True(t, c.InRing())
	assert.Equal(t, 1, f.Size())

	require.NoError(t, c.SubtractTermination(tm))
	assert.Equal(t, 0, c.Count())
	assert.False(t, c.InRing())
	assert.Equal(t, 0, f.Size())
	assert.Equal(t, -1, tm.Slot())
}

func TestAddTerminationCapacityExhausted(t *testing.T) {
	f := NewFactory()
	c := f.NewContext("sess-2", 2, testLogger())
	require.NoError(t, c.AddTermination(sendRecvTermination("a", PCMU)))
	require.NoError(t, c.AddTermination(sendRecvTermination("b", PCMU)))

	err := c.AddTermination(sendRecvTermination("c", PCMU))
	assert.ErrorIs(t, err, ErrCapacityExhausted)
}

func TestAssociationRoundTrip(t *testing.T) {
	f := NewFactory()
	c := f.NewContext("sess-3", 5, testLogger())
	t1 := sendRecvTermination("engine", PCMU)
	t2 := sendRecvTermination("rtp", PCMU)
	require.NoError(t, c.AddTermination(t1))
	require.NoError(t, c.AddTermination(t2))

	c.AddAssociation(t1, t2)
	assert.True(t, c.On(t1.Slot(), t2.Slot()))
	assert.True(t, c.On(t2.Slot(), t1.Slot()))
	tx1, rx1 := c.Snapshot(t1.Slot())
	assert.Equal(t, 1, tx1)
	assert.Equal(t, 1, rx1)

	c.RemoveAssociation(t1, t2)
	assert.False(t, c.On(t1.Slot(), t2.Slot()))
	assert.False(t, c.On(t2.Slot(), t1.Slot()))
	tx1, rx1 = c.Snapshot(t1.Slot())
	assert.Equal(t, 0, tx1)
	assert.Equal(t, 0, rx1)
}

func TestAssociationRespectsStreamMode(t *testing.T) {
	f := NewFactory()
	c := f.NewContext("sess-4", 5, testLogger())
	sendOnly := NewTermination("send-only", &AudioStream{Mode: ModeSend, Codec: PCMU})
	recvOnly := NewTermination("recv-only", &AudioStream{Mode: ModeReceive, Codec: PCMU})
	require.NoError(t, c.AddTermination(sendOnly))
	require.NoError(t, c.AddTermination(recvOnly))

	// sendOnly -> recvOnly: source must receive, sink must send. sendOnly
	// cannot receive, so this direction is rejected.
	c.AddAssociation(sendOnly, recvOnly)
	assert.False(t, c.On(sendOnly.Slot(), recvOnly.Slot()))
	// recvOnly -> sendOnly: source (recvOnly) can receive, sink (sendOnly) can send: admitted.
	assert.True(t, c.On(recvOnly.Slot(), sendOnly.Slot()))
}

func TestResetAssociationsClearsMatrixAndDestroysTopology(t *testing.T) {
	f := NewFactory()
	c := f.NewContext("sess-5", 5, testLogger())
	t1 := sendRecvTermination("engine", PCMU)
	t2 := sendRecvTermination("rtp", PCMU)
	require.NoError(t, c.AddTermination(t1))
	require.NoError(t, c.AddTermination(t2))
	c.AddAssociation(t1, t2)
	c.ApplyTopology()
	require.Len(t, c.objects, 2)

	c.ResetAssociations()
	assert.False(t, c.On(t1.Slot(), t2.Slot()))
	assert.False(t, c.On(t2.Slot(), t1.Slot()))
	tx, rx := c.Snapshot(t1.Slot())
	assert.Equal(t, 0, tx)
	assert.Equal(t, 0, rx)
	assert.Empty(t, c.objects)
}

func TestApplyTopologyCountsCompatibleCellsOnly(t *testing.T) {
	f := NewFactory()
	c := f.NewContext("sess-6", 5, testLogger())
	t1 := sendRecvTermination("engine", PCMU)
	t2 := NewTermination("rtp", &AudioStream{Mode: ModeSend, Codec: PCMU})
	require.NoError(t, c.AddTermination(t1))
	require.NoError(t, c.AddTermination(t2))

	// Force both directed cells on directly (bypassing AddAssociation's own
	// compatibility gate) to exercise ApplyTopology's independent check:
	// t1 -> t2 is compatible, t2 -> t1 is not (t2 cannot receive).
	c.matrix[c.idx(t1.Slot(), t2.Slot())] = true
	c.matrix[c.idx(t2.Slot(), t1.Slot())] = true

	c.ApplyTopology()
	assert.Len(t, c.objects, 1)
}

func TestApplyTopologyDestroyTopologyRoundTrip(t *testing.T) {
	f := NewFactory()
	c := f.NewContext("sess-7", 5, testLogger())
	t1 := sendRecvTermination("engine", PCMU)
	t2 := sendRecvTermination("rtp", PCMU)
	require.NoError(t, c.AddTermination(t1))
	require.NoError(t, c.AddTermination(t2))
	c.AddAssociation(t1, t2)

	before := c.On(t1.Slot(), t2.Slot())
	c.ApplyTopology()
	c.DestroyTopology()
	assert.Empty(t, c.objects)
	assert.Equal(t, before, c.On(t1.Slot(), t2.Slot()))
}

func TestFactoryProcessStepsContextsInInsertionOrder(t *testing.T) {
	f := NewFactory()
	mk := func(id string) *Context {
		c := f.NewContext(id, 2, testLogger())
		t1 := sendRecvTermination(id+"-a", PCMU)
		t2 := sendRecvTermination(id+"-b", PCMU)
		require.NoError(t, c.AddTermination(t1))
		require.NoError(t, c.AddTermination(t2))
		c.AddAssociation(t1, t2)
		c.ApplyTopology()
		return c
	}
	first := mk("first")
	second := mk("second")

	f.Process()
	assert.Equal(t, 2, f.Size())
	assert.Equal(t, first, f.head)
	assert.Equal(t, second, f.tail)
}
