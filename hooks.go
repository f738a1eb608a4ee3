package agoraflux

import (
	"sync"

	"github.com/agentstation/agoraflux/pkg/outcome"
)

// Hook function types for pipeline events
type (
	// RunCompletedHook is called after every run, errored runs included
	RunCompletedHook func(run Run)

	// StageCompletedHook is called when a stage ends
	StageCompletedHook func(stage Stage, summary outcome.Summary)
)

// hooks manages event callbacks for pipeline runs
type hooks struct {
	mu               sync.RWMutex
	onRunCompleted   []RunCompletedHook
	onStageCompleted []StageCompletedHook
}

func newHooks() *hooks {
	return &hooks{}
}

// OnRunCompleted registers a callback for finished runs.
func (p *Pipeline) OnRunCompleted(fn RunCompletedHook) {
	p.hooks.mu.Lock()
	defer p.hooks.mu.Unlock()
	p.hooks.onRunCompleted = append(p.hooks.onRunCompleted, fn)
}

// OnStageCompleted registers a callback for finished stages.
func (p *Pipeline) OnStageCompleted(fn StageCompletedHook) {
	p.hooks.mu.Lock()
	defer p.hooks.mu.Unlock()
	p.hooks.onStageCompleted = append(p.hooks.onStageCompleted, fn)
}

func (h *hooks) runCompleted(run Run) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onRunCompleted {
		fn(run)
	}
}

func (h *hooks) stageCompleted(stage Stage, summary outcome.Summary) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onStageCompleted {
		fn(stage, summary)
	}
}
