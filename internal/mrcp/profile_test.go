package mrcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebas/mrcpgw/internal/mpf"
)

func TestEngineTableRegisterLookup(t *testing.T) {
	tbl := NewEngineTable()
	tbl.Register(NewEchoEngine("speechsynth"))

	e, ok := tbl.Lookup("speechsynth")
	require.True(t, ok)
	assert.Equal(t, "speechsynth", e.Name())

	_, ok = tbl.Lookup("missing")
	assert.False(t, ok)
}

func TestStaticRTPTerminationFactoryRequiresCodec(t *testing.T) {
	f := NewStaticRTPTerminationFactory("127.0.0.1", 0, 0)
	_, err := f.NewTermination("t", mpf.ModeSendReceive, nil)
	assert.Error(t, err)

	term, err := f.NewTermination("t", mpf.ModeSendReceive, mpf.PCMU)
	require.NoError(t, err)
	assert.Equal(t, "t", term.Name)
	assert.Equal(t, "127.0.0.1", term.LocalIP)
	assert.NotZero(t, term.LocalPort)
}

func TestStaticRTPTerminationFactoryAllocatesDistinctPorts(t *testing.T) {
	f := NewStaticRTPTerminationFactory("127.0.0.1", 40000, 40010)
	a, err := f.NewTermination("a", mpf.ModeSendReceive, mpf.PCMU)
	require.NoError(t, err)
	b, err := f.NewTermination("b", mpf.ModeSendReceive, mpf.PCMU)
	require.NoError(t, err)
	assert.NotEqual(t, a.LocalPort, b.LocalPort)
}
