package mpf

// TaskKind names the eight task-message variants the media engine accepts
// in a batch (§4.3, §6). Modelled as a tagged enum rather than as a
// vtable of function pointers.
type TaskKind int

const (
	AddTermination TaskKind = iota
	ModifyTermination
	SubtractTermination
	AddAssociation
	RemoveAssociation
	ResetAssociations
	ApplyTopology
	DestroyTopology
)

func (k TaskKind) String() string {
	switch k {
	case AddTermination:
		return "ADD_TERMINATION"
	case ModifyTermination:
		return "MODIFY_TERMINATION"
	case SubtractTermination:
		return "SUBTRACT_TERMINATION"
	case AddAssociation:
		return "ADD_ASSOCIATION"
	case RemoveAssociation:
		return "REMOVE_ASSOCIATION"
	case ResetAssociations:
		return "RESET_ASSOCIATIONS"
	case ApplyTopology:
		return "APPLY_TOPOLOGY"
	case DestroyTopology:
		return "DESTROY_TOPOLOGY"
	default:
		return "UNKNOWN"
	}
}

// Task is one item in a batch sent to the media engine. Termination/Other
// hold the operand(s) a given Kind needs (Other is the second termination
// of an association task); Descriptor carries operation-specific data
// (e.g. a remote RTP endpoint for MODIFY_TERMINATION) opaque to the engine.
type Task struct {
	Kind        TaskKind
	Context     *Context
	Termination *Termination
	Other       *Termination
	Descriptor  any
	CommandID   uint64
}

// Response is what the engine emits back to a task's originating session
// once the task has been applied (§4.3: "emits a response message back to
// the originating session with the same command id").
type Response struct {
	Kind        TaskKind
	CommandID   uint64
	Context     *Context
	Termination *Termination
	Other       *Termination
	Descriptor  any
	Err         error
}

// Callback is implemented by whatever owns a Context (the session
// orchestrator) to receive task responses. Found via context.Owner the
// way §4.3 describes ("found via context.obj").
type Callback interface {
	OnEngineResponse(Response)
}

// Batch is a heterogeneous ordered sequence of tasks aggregated by one
// session-processing pass and flushed to the engine in one Send call
// (§4.1 step 7: "Flush the aggregated task-message buffer").
type Batch struct {
	Tasks []Task
}

// Add appends a task to the batch.
func (b *Batch) Add(t Task) {
	b.Tasks = append(b.Tasks, t)
}

// Empty reports whether the batch carries no tasks.
func (b *Batch) Empty() bool {
	return len(b.Tasks) == 0
}
