package tasks

import (
	"sync"
)

// PipelineState tracks the telegraph refresh pipeline. A poll tick that
// arrives while the pipeline is anywhere past Idle is skipped outright,
// never queued.
type PipelineState int

const (
	StateIdle PipelineState = iota
	StateFetching
	StateClassifying
	StateDispatching
)

func (s PipelineState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateClassifying:
		return "classifying"
	case StateDispatching:
		return "dispatching"
	default:
		return "unknown"
	}
}

// Pipeline is the guarded state machine around one refresh cycle. The only
// entry point is Begin (Idle -> Fetching); Advance moves through the cycle
// and Finish returns to Idle from any state.
type Pipeline struct {
	mu    sync.Mutex
	state PipelineState
}

func NewPipeline() *Pipeline {
	return &Pipeline{state: StateIdle}
}

// Begin attempts the Idle -> Fetching transition. It reports false when a
// cycle is already running.
func (p *Pipeline) Begin() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateIdle {
		return false
	}
	p.state = StateFetching
	return true
}

// Advance moves to the next stage of the cycle. Transitions only move
// forward; an out-of-order request is ignored.
func (p *Pipeline) Advance(next PipelineState) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if next > p.state {
		p.state = next
	}
}

// Finish returns the pipeline to Idle, whatever stage the cycle ended in.
func (p *Pipeline) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = StateIdle
}

func (p *Pipeline) State() PipelineState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}
