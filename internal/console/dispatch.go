// File: internal/console/dispatch.go
package console

import (
	"context"
	"fmt"
	"sync"
)

// Action is a stable identifier for an operator-initiated operation. Handlers
// are registered against these names instead of being wired implicitly to
// presentation events, so any frontend can drive the same table.
type Action string

const (
	ActionHostSelect      Action = "host.select"
	ActionHostClear       Action = "host.clear"
	ActionProcessOpen     Action = "process.open"
	ActionProcessReload   Action = "process.reload"
	ActionProcessClose    Action = "process.close"
	ActionApprovalApprove Action = "approval.approve"
	ActionApprovalReject  Action = "approval.reject"
	ActionSchedulerRun    Action = "scheduler.run"
	ActionJobStop         Action = "job.stop"
)

// Payload carries an action's named arguments.
type Payload map[string]interface{}

// Int reads an integer argument; JSON-decoded numbers arrive as float64.
func (p Payload) Int(key string) (int, bool) {
	switch v := p[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	}
	return 0, false
}

// Bool reads a boolean argument, defaulting to false.
func (p Payload) Bool(key string) bool {
	v, _ := p[key].(bool)
	return v
}

// String reads a string argument, defaulting to empty.
func (p Payload) String(key string) string {
	v, _ := p[key].(string)
	return v
}

// Handler executes one named action.
type Handler func(ctx context.Context, payload Payload) error

// Dispatcher is an explicit action table: named actions map to handlers,
// keyed by a stable identifier rather than incidental event binding.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[Action]Handler
}

// NewDispatcher returns an empty dispatch table.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[Action]Handler)}
}

// Register binds a handler to an action name, replacing any previous binding.
func (d *Dispatcher) Register(action Action, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[action] = handler
}

// Dispatch runs the handler bound to action. Unknown actions are an error;
// they indicate a frontend/core wiring mismatch, not user input.
func (d *Dispatcher) Dispatch(ctx context.Context, action Action, payload Payload) error {
	d.mu.RLock()
	handler, ok := d.handlers[action]
	d.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no handler registered for action %q", action)
	}
	return handler(ctx, payload)
}

// Actions lists the registered action names.
func (d *Dispatcher) Actions() []Action {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]Action, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	return names
}
