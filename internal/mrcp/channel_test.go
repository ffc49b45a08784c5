package mrcp

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingChannelEvents struct {
	opened      []SessionStatus
	closed      int
	deactivated int
}

func (r *recordingChannelEvents) OnChannelOpened(ch *MRCPChannel, status SessionStatus) {
	r.opened = append(r.opened, status)
}
func (r *recordingChannelEvents) OnChannelClosed(ch *MRCPChannel)      { r.closed++ }
func (r *recordingChannelEvents) OnChannelDeactivated(ch *MRCPChannel) { r.deactivated++ }

func TestMRCPChannelOpenForwardsThroughEngineChannel(t *testing.T) {
	conn := newFakeConnectionAgent()
	control := NewControlChannel("sess@speechsynth", conn)
	events := &recordingChannelEvents{}
	ch := NewMRCPChannel("sess@speechsynth", "speechsynth", Version2, control, NewEchoEngine("speechsynth"), events, zerolog.Nop())

	ch.Open()
	require.Len(t, events.opened, 1)
	assert.Equal(t, StatusOK, events.opened[0])
}

func TestMRCPChannelHandleRequestDeliversResponseToClient(t *testing.T) {
	conn := newFakeConnectionAgent()
	control := NewControlChannel("sess@speechsynth", conn)
	events := &recordingChannelEvents{}
	ch := NewMRCPChannel("sess@speechsynth", "speechsynth", Version2, control, NewEchoEngine("speechsynth"), events, zerolog.Nop())
	ch.Open()

	require.NoError(t, ch.HandleRequest(&MRCPMessage{Method: "SPEAK", RequestID: 3}))
	msgs := conn.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, TypeResponse, msgs[0].Type)
	assert.Equal(t, uint32(3), msgs[0].RequestID)
}

func TestMRCPChannelDeactivateEmitsFinalEventAndCompletes(t *testing.T) {
	conn := newFakeConnectionAgent()
	control := NewControlChannel("sess@speechsynth", conn)
	events := &recordingChannelEvents{}
	ch := NewMRCPChannel("sess@speechsynth", "speechsynth", Version2, control, NewEchoEngine("speechsynth"), events, zerolog.Nop())
	ch.Open()
	require.NoError(t, ch.HandleRequest(&MRCPMessage{Method: "SPEAK", RequestID: 1}))

	accepted := ch.Deactivate()
	assert.True(t, accepted)
	assert.Equal(t, 1, events.deactivated)
	msgs := conn.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, TypeEvent, msgs[1].Type)
	assert.Equal(t, "SPEAK-COMPLETE", msgs[1].Method)
}
