package assessmentsync

import (
	"sync"

	"github.com/agentstation/assessmentsync/pkg/differ"
	pkgsync "github.com/agentstation/assessmentsync/pkg/sync"
)

// Hook function types for run events
type (
	// RunCompleteHook is called once a run has finished, successfully or not
	RunCompleteHook func(result *pkgsync.Result)

	// ChangeHook is called for each setting change a run recorded
	ChangeHook func(change differ.Change)
)

// hooks manages event callbacks for runs
type hooks struct {
	mu            sync.RWMutex
	onRunComplete []RunCompleteHook
	onChange      []ChangeHook
}

// newHooks creates a new hooks instance
func newHooks() *hooks {
	return &hooks{}
}

// OnRunComplete registers a callback for finished runs
func (h *hooks) OnRunComplete(fn RunCompleteHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onRunComplete = append(h.onRunComplete, fn)
}

// OnChange registers a callback for recorded changes
func (h *hooks) OnChange(fn ChangeHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = append(h.onChange, fn)
}

// triggerRunComplete fires change hooks in write order, then run hooks
func (h *hooks) triggerRunComplete(result *pkgsync.Result) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if result.Changes != nil {
		for _, change := range result.Changes.Changes {
			for _, hook := range h.onChange {
				hook(change)
			}
		}
	}

	for _, hook := range h.onRunComplete {
		hook(result)
	}
}
