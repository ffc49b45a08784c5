package mrcp

import (
	"fmt"
	"sync"

	"github.com/sebas/mrcpgw/internal/mpf"
)

// EngineTable is a profile's resource registry: the set of resource engines a
// profile makes available, looked up by name when an offer names a
// resource (§7 "no such resource" path).
type EngineTable struct {
	engines map[string]ResourceEngine
}

// NewEngineTable builds an empty registry.
func NewEngineTable() *EngineTable {
	return &EngineTable{engines: make(map[string]ResourceEngine)}
}

// Register adds e, keyed by e.Name(). A later registration under the
// same name replaces the earlier one.
func (t *EngineTable) Register(e ResourceEngine) {
	t.engines[e.Name()] = e
}

// Lookup finds the engine serving name.
func (t *EngineTable) Lookup(name string) (ResourceEngine, bool) {
	e, ok := t.engines[name]
	return e, ok
}

// RTPTerminationFactory builds the mpf.Termination an audio media slot
// binds to, once the orchestrator has picked the codec the slot will use
// (§4.2's bridge-construction algorithm runs against the result). A real
// deployment's implementation would also own the RTP socket pair; that
// transport detail is a non-goal here; the factory only needs to produce
// the termination object the media context operates on.
type RTPTerminationFactory interface {
	NewTermination(name string, mode mpf.StreamMode, codec *mpf.CodecDescriptor) (*mpf.Termination, error)
}

// staticRTPTerminationFactory is the bundled RTPTerminationFactory: it
// builds a plain mpf.Termination with the requested codec and mode,
// stamping it with a local RTP socket address drawn from a simple
// incrementing port pool bound to bindIP. It does not open any socket
// itself; that transport detail is a non-goal here (a real deployment's
// factory would own the RTP socket pair behind the same address).
type staticRTPTerminationFactory struct {
	bindIP string

	mu               sync.Mutex
	nextPort         int
	minPort, maxPort int
}

// NewStaticRTPTerminationFactory returns the bundled no-transport
// RTPTerminationFactory, allocating RTP/RTCP port pairs on bindIP out of
// the [minPort, maxPort] range.
func NewStaticRTPTerminationFactory(bindIP string, minPort, maxPort int) RTPTerminationFactory {
	if minPort <= 0 || maxPort <= minPort {
		minPort, maxPort = 35000, 65000
	}
	return &staticRTPTerminationFactory{bindIP: bindIP, nextPort: minPort, minPort: minPort, maxPort: maxPort}
}

func (f *staticRTPTerminationFactory) NewTermination(name string, mode mpf.StreamMode, codec *mpf.CodecDescriptor) (*mpf.Termination, error) {
	if codec == nil {
		return nil, fmt.Errorf("mrcp: cannot build termination %q without a codec", name)
	}
	t := mpf.NewTermination(name, &mpf.AudioStream{Mode: mode, Codec: codec})
	t.LocalIP = f.bindIP
	t.LocalPort = f.allocatePort()
	return t, nil
}

// allocatePort hands out the next even port (leaving the following odd
// port free for RTCP), wrapping back to minPort once maxPort is passed.
func (f *staticRTPTerminationFactory) allocatePort() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	port := f.nextPort
	f.nextPort += 2
	if f.nextPort > f.maxPort {
		f.nextPort = f.minPort
	}
	return port
}

// Profile bundles everything a session needs to process offers for one
// signaling profile (§2): the resource engines it exposes, the transport
// it replies to the client over, the shared media engine its contexts
// run on, and the factory that turns a negotiated codec into a
// termination.
type Profile struct {
	Name string

	Engines      *EngineTable
	Connection   ConnectionAgent
	MediaEngine  *mpf.Engine
	Terminations RTPTerminationFactory

	ContextCapacity int
}

// NewProfile builds a profile. capacity is the per-session media context
// capacity (§2); 0 selects a small built-in default.
func NewProfile(name string, engines *EngineTable, conn ConnectionAgent, mediaEngine *mpf.Engine, terminations RTPTerminationFactory, capacity int) *Profile {
	if capacity <= 0 {
		capacity = 5
	}
	return &Profile{
		Name:            name,
		Engines:         engines,
		Connection:      conn,
		MediaEngine:     mediaEngine,
		Terminations:    terminations,
		ContextCapacity: capacity,
	}
}
