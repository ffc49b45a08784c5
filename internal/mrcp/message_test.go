package mrcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeHeadersWeaklyTyped(t *testing.T) {
	type speakParams struct {
		VoiceGender string `mapstructure:"Voice-Gender"`
		Volume      int    `mapstructure:"Volume"`
	}
	msg := &MRCPMessage{Headers: map[string]string{
		"Voice-Gender": "female",
		"Volume":       "80",
	}}

	var out speakParams
	require.NoError(t, msg.DecodeHeaders(&out))
	assert.Equal(t, "female", out.VoiceGender)
	assert.Equal(t, 80, out.Volume)
}

func TestNewResponseCorrelatesToRequest(t *testing.T) {
	req := &MRCPMessage{Version: Version2, Type: TypeRequest, RequestID: 7, ChannelID: "sess@speechsynth", Method: "SPEAK"}
	resp := NewResponse(req, 200)
	assert.Equal(t, TypeResponse, resp.Type)
	assert.Equal(t, uint32(7), resp.RequestID)
	assert.Equal(t, req.ChannelID, resp.ChannelID)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestNewEventCarriesChannelAndMethod(t *testing.T) {
	ev := NewEvent("sess@speechsynth", "SPEAK-COMPLETE", 7)
	assert.Equal(t, TypeEvent, ev.Type)
	assert.Equal(t, "SPEAK-COMPLETE", ev.Method)
	assert.Equal(t, "sess@speechsynth", ev.ChannelID)
}

func TestVersionString(t *testing.T) {
	assert.Equal(t, "MRCP/1.0", Version1.String())
	assert.Equal(t, "MRCP/2.0", Version2.String())
	assert.Equal(t, "MRCP/unknown", VersionUnknown.String())
}
