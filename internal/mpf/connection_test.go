package mpf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildConnectionNullBridgeForIdenticalCodecs(t *testing.T) {
	src := sendRecvTermination("engine", PCMU)
	sink := sendRecvTermination("rtp", PCMU)
	src.slot, sink.slot = 0, 1

	conn := buildConnection(src, sink, testLogger())
	assert.NotNil(t, conn)
	_, ok := conn.(*nullBridge)
	assert.True(t, ok)
}

func TestBuildConnectionTranscodesSameRateDifferentCodec(t *testing.T) {
	srcCodec := &CodecDescriptor{MediaType: "audio", Name: "PCMU", SamplingRate: 8000, ChannelCount: 1, Decode: PCMU.Decode}
	sinkCodec := &CodecDescriptor{MediaType: "audio", Name: "PCMA", SamplingRate: 8000, ChannelCount: 1, Encode: PCMA.Encode}
	src := NewTermination("engine", &AudioStream{Mode: ModeSendReceive, Codec: srcCodec})
	sink := NewTermination("rtp", &AudioStream{Mode: ModeSendReceive, Codec: sinkCodec})
	src.slot, sink.slot = 0, 1

	conn := buildConnection(src, sink, testLogger())
	assert.NotNil(t, conn)
	_, ok := conn.(*transcodeBridge)
	assert.True(t, ok)
}

func TestBuildConnectionRejectsSamplingRateMismatch(t *testing.T) {
	src := sendRecvTermination("engine", PCMU)
	sink := sendRecvTermination("rtp", L16Wideband)
	src.slot, sink.slot = 0, 1

	conn := buildConnection(src, sink, testLogger())
	assert.Nil(t, conn)
}

func TestBuildConnectionRejectsIncompatibleModes(t *testing.T) {
	src := NewTermination("send-only", &AudioStream{Mode: ModeSend, Codec: PCMU})
	sink := NewTermination("send-only-2", &AudioStream{Mode: ModeSend, Codec: PCMU})
	src.slot, sink.slot = 0, 1

	conn := buildConnection(src, sink, testLogger())
	assert.Nil(t, conn)
}

func TestBuildConnectionRejectsMissingAudioStream(t *testing.T) {
	src := NewTermination("no-audio", nil)
	sink := sendRecvTermination("rtp", PCMU)
	src.slot, sink.slot = 0, 1

	conn := buildConnection(src, sink, testLogger())
	assert.Nil(t, conn)
}

func TestNullBridgeProcessCountsFrames(t *testing.T) {
	src := sendRecvTermination("engine", PCMU)
	sink := sendRecvTermination("rtp", PCMU)
	b := newNullBridge(src, sink)
	b.Process()
	b.Process()
	assert.Equal(t, int64(2), b.Stats().Frames)
}
