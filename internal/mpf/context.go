package mpf

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// ErrCapacityExhausted is returned by AddTermination when every slot in
// the context's fixed-size matrix is already occupied (§7).
var ErrCapacityExhausted = fmt.Errorf("mpf: context capacity exhausted")

type header struct {
	termination *Termination
	txCount     int
	rxCount     int
}

// Context is the fixed-capacity N×N association matrix over terminations
// described in §3/§4.2 (C2). One Context exists per session; it never
// grows past the capacity it was created with (§5: "context capacity is
// fixed at creation so no resizing is needed under concurrent mutation").
type Context struct {
	mu       sync.Mutex
	id       string
	capacity int
	matrix   []bool
	headers  []header
	present  []bool
	count    int
	objects  []Connection
	logger   zerolog.Logger
	owner    Callback

	// ring membership, mutated only by Factory under Factory.mu.
	ring       *Factory
	next, prev *Context
	inRing     bool
}

func (c *Context) onBecameNonEmpty() {
	if c.ring != nil {
		c.ring.link(c)
	}
}

func (c *Context) onBecameEmpty() {
	if c.ring != nil {
		c.ring.unlink(c)
	}
}

// NewContext creates an empty context with the given fixed capacity.
func NewContext(id string, capacity int, logger zerolog.Logger) *Context {
	return &Context{
		id:       id,
		capacity: capacity,
		matrix:   make([]bool, capacity*capacity),
		headers:  make([]header, capacity),
		present:  make([]bool, capacity),
		logger:   logger.With().Str("context", id).Logger(),
	}
}

// ID returns the context's owning-session identifier.
func (c *Context) ID() string { return c.id }

// SetOwner attaches the Callback (normally the owning session) that the
// engine delivers task responses to.
func (c *Context) SetOwner(owner Callback) { c.owner = owner }

// Owner returns the Callback attached via SetOwner, or nil.
func (c *Context) Owner() Callback { return c.owner }

func (c *Context) idx(i, j int) int { return i*c.capacity + j }

// Count returns the number of terminations currently bound to the context.
func (c *Context) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// InRing reports whether the context is currently linked into a Factory's
// processing ring (true iff Count() > 0).
func (c *Context) InRing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inRing
}

// AddTermination binds t to the first free row/column. Returns
// ErrCapacityExhausted if every slot is occupied (§4.2, §7).
func (c *Context) AddTermination(t *Termination) error {
	c.mu.Lock()
	slot := -1
	for i, occupied := range c.present {
		if !occupied {
			slot = i
			break
		}
	}
	if slot < 0 {
		c.mu.Unlock()
		return ErrCapacityExhausted
	}
	c.present[slot] = true
	c.headers[slot] = header{termination: t}
	c.count++
	t.slot = slot
	becameNonEmpty := c.count == 1
	c.mu.Unlock()

	c.logger.Debug().Str("termination", t.Name).Int("slot", slot).Msg("termination added")
	if becameNonEmpty {
		c.onBecameNonEmpty()
	}
	return nil
}

// SubtractTermination clears every association touching t's row/column,
// unbinds it, and unlinks the context from its factory ring if it becomes
// empty (§4.2).
func (c *Context) SubtractTermination(t *Termination) error {
	c.mu.Lock()
	slot := t.slot
	if slot < 0 || slot >= c.capacity || !c.present[slot] {
		c.mu.Unlock()
		return fmt.Errorf("mpf: termination %q is not bound to context %q", t.Name, c.id)
	}
	for j := 0; j < c.capacity; j++ {
		if c.matrix[c.idx(slot, j)] {
			c.matrix[c.idx(slot, j)] = false
			c.headers[slot].txCount--
			c.headers[j].rxCount--
		}
		if c.matrix[c.idx(j, slot)] {
			c.matrix[c.idx(j, slot)] = false
			c.headers[j].txCount--
			c.headers[slot].rxCount--
		}
	}
	c.present[slot] = false
	c.headers[slot] = header{}
	c.count--
	t.slot = -1
	becameEmpty := c.count == 0
	c.mu.Unlock()

	c.logger.Debug().Str("termination", t.Name).Int("slot", slot).Msg("termination subtracted")
	if becameEmpty {
		c.onBecameEmpty()
	}
	return nil
}

// AddAssociation sets the two directed cells independently, admitting only
// the directions whose source/sink modes are compatible (§4.2).
func (c *Context) AddAssociation(t1, t2 *Termination) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addDirected(t1, t2)
	c.addDirected(t2, t1)
}

func (c *Context) addDirected(source, sink *Termination) {
	if source.slot < 0 || sink.slot < 0 {
		return
	}
	i, j := source.slot, sink.slot
	if c.matrix[c.idx(i, j)] {
		return
	}
	if !admits(source, sink) {
		return
	}
	c.matrix[c.idx(i, j)] = true
	c.headers[i].txCount++
	c.headers[j].rxCount++
}

// RemoveAssociation clears both directed cells symmetrically (§4.2).
func (c *Context) RemoveAssociation(t1, t2 *Termination) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeDirected(t1, t2)
	c.removeDirected(t2, t1)
}

func (c *Context) removeDirected(source, sink *Termination) {
	if source.slot < 0 || sink.slot < 0 {
		return
	}
	i, j := source.slot, sink.slot
	if !c.matrix[c.idx(i, j)] {
		return
	}
	c.matrix[c.idx(i, j)] = false
	c.headers[i].txCount--
	c.headers[j].rxCount--
}

func admits(source, sink *Termination) bool {
	if source.Audio == nil || sink.Audio == nil {
		return false
	}
	return source.Audio.Mode.Has(ModeReceive) && sink.Audio.Mode.Has(ModeSend)
}

// ResetAssociations clears every on cell while keeping tx/rx counts
// consistent, then destroys the materialised topology (§4.2).
func (c *Context) ResetAssociations() {
	c.mu.Lock()
	for i := 0; i < c.capacity; i++ {
		if !c.present[i] || c.headers[i].txCount == 0 {
			continue
		}
		for j := 0; j < c.capacity; j++ {
			if c.matrix[c.idx(i, j)] {
				c.matrix[c.idx(i, j)] = false
				c.headers[i].txCount--
				c.headers[j].rxCount--
			}
		}
	}
	c.mu.Unlock()
	c.DestroyTopology()
}

// ApplyTopology destroys the current topology and rebuilds one connection
// per on cell whose endpoints are still compatible (§4.2, §8).
func (c *Context) ApplyTopology() {
	c.DestroyTopology()

	c.mu.Lock()
	type pair struct{ src, sink *Termination }
	var pairs []pair
	for i := 0; i < c.capacity; i++ {
		if !c.present[i] {
			continue
		}
		for j := 0; j < c.capacity; j++ {
			if c.present[j] && c.matrix[c.idx(i, j)] {
				pairs = append(pairs, pair{c.headers[i].termination, c.headers[j].termination})
			}
		}
	}
	c.mu.Unlock()

	var objs []Connection
	for _, p := range pairs {
		if obj := buildConnection(p.src, p.sink, c.logger); obj != nil {
			objs = append(objs, obj)
		}
	}

	c.mu.Lock()
	c.objects = objs
	c.mu.Unlock()
}

// DestroyTopology tears down every materialised connection and empties the
// object list (§4.2).
func (c *Context) DestroyTopology() {
	c.mu.Lock()
	objs := c.objects
	c.objects = nil
	c.mu.Unlock()

	for _, obj := range objs {
		obj.Destroy()
	}
}

// Process steps every materialised connection once, in the order they
// were inserted (§4.2, the media frame tick driven by the engine/factory).
func (c *Context) Process() {
	c.mu.Lock()
	objs := c.objects
	c.mu.Unlock()
	for _, obj := range objs {
		obj.Process()
	}
}

// Snapshot returns the tx/rx counts for row/column i, for tests asserting
// the tx_count[i] = Σmatrix[i][j] / rx_count[j] = Σmatrix[i][j] invariant.
func (c *Context) Snapshot(i int) (tx, rx int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.headers[i].txCount, c.headers[i].rxCount
}

// On reports whether cell (i,j) is currently set.
func (c *Context) On(i, j int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.matrix[c.idx(i, j)]
}
