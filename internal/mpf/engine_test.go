package mpf

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingOwner struct {
	mu        sync.Mutex
	responses []Response
	notify    chan struct{}
}

func newRecordingOwner(expect int) *recordingOwner {
	return &recordingOwner{notify: make(chan struct{}, expect)}
}

func (o *recordingOwner) OnEngineResponse(r Response) {
	o.mu.Lock()
	o.responses = append(o.responses, r)
	o.mu.Unlock()
	o.notify <- struct{}{}
}

func (o *recordingOwner) waitFor(t *testing.T, n int) {
	for i := 0; i < n; i++ {
		select {
		case <-o.notify:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for response %d/%d", i+1, n)
		}
	}
}

func TestEngineAppliesBatchAndRespondsInOrder(t *testing.T) {
	e := NewEngine(5*time.Millisecond, testLogger())
	owner := newRecordingOwner(2)
	ctx := e.NewContext("sess-engine-1", 5, owner)

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(runCtx)

	term := sendRecvTermination("engine", PCMU)
	var batch Batch
	batch.Add(Task{Kind: AddTermination, Context: ctx, Termination: term, CommandID: 1})
	batch.Add(Task{Kind: SubtractTermination, Context: ctx, Termination: term, CommandID: 2})
	e.Send(batch)

	owner.waitFor(t, 2)
	require.Len(t, owner.responses, 2)
	assert.Equal(t, AddTermination, owner.responses[0].Kind)
	assert.Equal(t, uint64(1), owner.responses[0].CommandID)
	assert.Equal(t, SubtractTermination, owner.responses[1].Kind)
	assert.Equal(t, uint64(2), owner.responses[1].CommandID)
}

func TestEngineTicksFactory(t *testing.T) {
	e := NewEngine(5*time.Millisecond, testLogger())
	owner := newRecordingOwner(2)
	ctx := e.NewContext("sess-engine-2", 5, owner)

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(runCtx)

	t1 := sendRecvTermination("a", PCMU)
	t2 := sendRecvTermination("b", PCMU)
	var batch Batch
	batch.Add(Task{Kind: AddTermination, Context: ctx, Termination: t1, CommandID: 1})
	batch.Add(Task{Kind: AddTermination, Context: ctx, Termination: t2, CommandID: 2})
	e.Send(batch)
	owner.waitFor(t, 2)

	ctx.AddAssociation(t1, t2)
	ctx.ApplyTopology()

	time.Sleep(30 * time.Millisecond)
	ctx.mu.Lock()
	objs := ctx.objects
	ctx.mu.Unlock()
	require.Len(t, objs, 2)
	assert.Greater(t, objs[0].Stats().Frames, int64(0))
}
