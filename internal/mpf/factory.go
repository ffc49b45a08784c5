package mpf

import (
	"sync"

	"github.com/rs/zerolog"
)

// Factory is the linked ring of currently-populated contexts (§4.2). A
// context joins the ring when its first termination is added and leaves
// it when its last is removed; factory.Process() walks the ring once per
// media-engine tick via an intrusive doubly linked list rather than Go
// map iteration, preserving insertion order.
type Factory struct {
	mu   sync.Mutex
	head *Context
	tail *Context
	size int
}

// NewFactory creates an empty ring.
func NewFactory() *Factory {
	return &Factory{}
}

// NewContext creates a context bound to this factory's ring (joins the
// ring automatically once a termination is added to it).
func (f *Factory) NewContext(id string, capacity int, logger zerolog.Logger) *Context {
	c := NewContext(id, capacity, logger)
	c.ring = f
	return c
}

func (f *Factory) link(c *Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.inRing {
		return
	}
	c.prev = f.tail
	c.next = nil
	if f.tail != nil {
		f.tail.next = c
	} else {
		f.head = c
	}
	f.tail = c
	c.inRing = true
	f.size++
}

func (f *Factory) unlink(c *Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !c.inRing {
		return
	}
	if c.prev != nil {
		c.prev.next = c.next
	} else {
		f.head = c.next
	}
	if c.next != nil {
		c.next.prev = c.prev
	} else {
		f.tail = c.prev
	}
	c.next, c.prev = nil, nil
	c.inRing = false
	f.size--
}

// Size returns the number of contexts currently in the ring.
func (f *Factory) Size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.size
}

// Process walks the ring in insertion order and steps every context's
// topology once. This is the media frame tick (§4.2, §4.3).
func (f *Factory) Process() {
	f.mu.Lock()
	var contexts []*Context
	for c := f.head; c != nil; c = c.next {
		contexts = append(contexts, c)
	}
	f.mu.Unlock()

	for _, c := range contexts {
		c.Process()
	}
}
