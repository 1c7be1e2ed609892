// File: internal/console/slots.go
package console

import (
	"github.com/periscope-sec/periscope-cli/api/schemas"
	"go.uber.org/zap"
)

// Slot names one view-model binding point. The renderer resolves its slots
// once at startup; the core only ever publishes into them, so the rendering
// layer can be swapped without touching any synchronization logic.
type Slot string

const (
	// SlotStatus carries the transport status string ("Live", "Reconnecting",
	// "Polling", "Polling Error").
	SlotStatus Slot = "status"

	SlotProject    Slot = "project"
	SlotSummary    Slot = "summary"
	SlotHosts      Slot = "hosts"
	SlotServices   Slot = "services"
	SlotTools      Slot = "tools"
	SlotProcesses  Slot = "processes"
	SlotScheduler  Slot = "scheduler"
	SlotDecisions  Slot = "scheduler_decisions"
	SlotApprovals  Slot = "scheduler_approvals"
	SlotJobs       Slot = "jobs"
	SlotHostDetail Slot = "host_detail"

	// SlotProcessOutput carries StreamState updates from an open process view.
	SlotProcessOutput Slot = "process_output"
)

// Binder receives state published by the console core. Implementations must
// be cheap and non-blocking; they run on the synchronizer's goroutine.
type Binder interface {
	Publish(slot Slot, value interface{})
}

// BinderFunc adapts a function to the Binder interface.
type BinderFunc func(slot Slot, value interface{})

// Publish implements Binder.
func (f BinderFunc) Publish(slot Slot, value interface{}) { f(slot, value) }

// NopBinder discards everything. Useful for headless operation and tests.
func NopBinder() Binder {
	return BinderFunc(func(Slot, interface{}) {})
}

// LogBinder publishes slot updates as structured log lines. It is the default
// sink for the `console` command when no renderer is attached.
func LogBinder(logger *zap.Logger) Binder {
	log := logger.Named("binder")
	return BinderFunc(func(slot Slot, value interface{}) {
		switch slot {
		case SlotStatus:
			log.Info("Transport status changed", zap.Any("status", value))
		case SlotProcessOutput:
			// Output chunks are too chatty for info level.
			log.Debug("Process output updated")
		default:
			log.Debug("Slot updated", zap.String("slot", string(slot)), zap.Any("value", summarize(value)))
		}
	})
}

// summarize avoids logging entire section payloads; counts are enough for a
// headless console.
func summarize(value interface{}) interface{} {
	switch v := value.(type) {
	case []schemas.Host:
		return len(v)
	case []schemas.ServiceRollup:
		return len(v)
	case []schemas.Tool:
		return len(v)
	case []schemas.ProcessRow:
		return len(v)
	case []schemas.SchedulerDecision:
		return len(v)
	case []schemas.Approval:
		return len(v)
	case []schemas.Job:
		return len(v)
	default:
		return v
	}
}
