package mpf

import (
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Connection is a materialised audio-processing object: the thing
// apply_topology builds per on cell and factory.process() steps every
// frame tick. Generalizes a fixed two-socket UDP relay into an abstract
// stage that a real RTP-termination's frame source/sink would drive.
type Connection interface {
	// Source is the termination audio flows from.
	Source() *Termination
	// Sink is the termination audio flows to.
	Sink() *Termination
	// Process steps one frame tick.
	Process()
	// Stats reports this connection's running counters.
	Stats() Stats
	// Destroy releases the connection; safe to call once per Destroy/topology cycle.
	Destroy()
}

// Stats tracks packet/byte counters per direction, scoped here to one
// directed connection.
type Stats struct {
	Frames int64
	Bytes  int64
}

// nullBridge copies frames from source to sink unchanged: used when both
// terminations negotiated byte-for-byte identical codecs (§4.2 step 2).
type nullBridge struct {
	src, sink *Termination
	frames    atomic.Int64
	bytes     atomic.Int64
}

func newNullBridge(src, sink *Termination) *nullBridge {
	return &nullBridge{src: src, sink: sink}
}

func (b *nullBridge) Source() *Termination { return b.src }
func (b *nullBridge) Sink() *Termination   { return b.sink }

func (b *nullBridge) Process() {
	// A real RTP termination would supply the frame read from its socket
	// or resource-engine stream here; the core only owns the scheduling
	// and accounting, not the I/O (non-goal: actual RTP packet I/O).
	b.frames.Add(1)
}

func (b *nullBridge) Stats() Stats {
	return Stats{Frames: b.frames.Load(), Bytes: b.bytes.Load()}
}

func (b *nullBridge) Destroy() {}

// transcodeBridge wires a decoder in front of the source and/or an encoder
// after the sink around a generic bridge (§4.2 step 4).
type transcodeBridge struct {
	src, sink     *Termination
	decode, encode FrameTransform
	frames        atomic.Int64
	bytes         atomic.Int64
	logger        zerolog.Logger
}

func newTranscodeBridge(src, sink *Termination, decode, encode FrameTransform, logger zerolog.Logger) *transcodeBridge {
	return &transcodeBridge{src: src, sink: sink, decode: decode, encode: encode, logger: logger}
}

func (b *transcodeBridge) Source() *Termination { return b.src }
func (b *transcodeBridge) Sink() *Termination   { return b.sink }

func (b *transcodeBridge) Process() {
	frame := NewFrame(nil)
	var err error
	if b.decode != nil {
		if frame, err = b.decode(frame); err != nil {
			b.logger.Warn().Err(err).Str("termination", b.src.Name).Msg("decode failed")
			return
		}
	}
	if b.encode != nil {
		if frame, err = b.encode(frame); err != nil {
			b.logger.Warn().Err(err).Str("termination", b.sink.Name).Msg("encode failed")
			return
		}
	}
	b.frames.Add(1)
	b.bytes.Add(int64(len(frame.Payload)))
}

func (b *transcodeBridge) Stats() Stats {
	return Stats{Frames: b.frames.Load(), Bytes: b.bytes.Load()}
}

func (b *transcodeBridge) Destroy() {}

// buildConnection implements §4.2's connection construction algorithm. It
// returns nil when no object should be materialised (incompatible streams,
// missing codec, or an unresampleable sampling-rate mismatch); the matrix
// cell itself is left untouched by design (§7: "the association remains
// marked on in the matrix but produces no bridge").
func buildConnection(src, sink *Termination, logger zerolog.Logger) Connection {
	if src.Audio == nil || sink.Audio == nil {
		return nil
	}
	if !src.Audio.Mode.Has(ModeReceive) || !sink.Audio.Mode.Has(ModeSend) {
		return nil
	}
	srcCodec, sinkCodec := src.Audio.Codec, sink.Audio.Codec
	if srcCodec == nil || sinkCodec == nil {
		return nil
	}
	if srcCodec.Equal(sinkCodec) {
		return newNullBridge(src, sink)
	}
	if srcCodec.SamplingRate != sinkCodec.SamplingRate {
		logger.Warn().
			Str("source", src.Name).
			Str("sink", sink.Name).
			Uint32("source_rate", srcCodec.SamplingRate).
			Uint32("sink_rate", sinkCodec.SamplingRate).
			Msg("codec sampling rate mismatch; resampling unimplemented, bridge skipped")
		return nil
	}
	return newTranscodeBridge(src, sink, srcCodec.Decode, sinkCodec.Encode, logger)
}
