// File: internal/console/workspace.go

// Package console implements the client-side core of the live operator
// console: the state synchronizer that mirrors backend snapshots, the
// incremental process-output streamer, and the action dispatch table. The
// package never renders anything; it publishes state into named view-model
// slots that a renderer binds to at startup.
package console

import (
	"github.com/periscope-sec/periscope-cli/api/schemas"
)

// Workspace is the local mirror of the backend's workspace state. It is
// single-writer: only the owning Synchronizer mutates it, under its lock.
//
// Merge rule: a snapshot section that is absent (nil) leaves the previous
// value in place. Absence means "unchanged", never "empty".
type Workspace struct {
	Project            *schemas.ProjectInfo
	Summary            *schemas.WorkspaceSummary
	Hosts              []schemas.Host
	Services           []schemas.ServiceRollup
	Tools              []schemas.Tool
	ToolsTotal         int
	Processes          []schemas.ProcessRow
	Scheduler          schemas.SchedulerPrefs
	SchedulerDecisions []schemas.SchedulerDecision
	SchedulerApprovals []schemas.Approval
	Jobs               []schemas.Job
}

// NewWorkspace returns an empty mirror.
func NewWorkspace() *Workspace {
	return &Workspace{}
}

// merge folds one snapshot into the mirror and reports which slots changed.
// Applying the same snapshot twice yields the same state and the same slot
// set; merging never mutates anything besides the replaced sections.
//
// The tool catalog is handled by the caller: once the catalog has been fully
// hydrated through the paged endpoint, the partial tool list embedded in a
// snapshot must be ignored, so merge never touches Tools itself.
func (w *Workspace) merge(snap *schemas.Snapshot) []Slot {
	var changed []Slot

	if snap.Project != nil {
		w.Project = snap.Project
		changed = append(changed, SlotProject)
	}
	if snap.Summary != nil {
		w.Summary = snap.Summary
		changed = append(changed, SlotSummary)
	}
	if snap.Hosts != nil {
		w.Hosts = snap.Hosts
		changed = append(changed, SlotHosts)
	}
	if snap.Services != nil {
		w.Services = snap.Services
		changed = append(changed, SlotServices)
	}
	if snap.Processes != nil {
		w.Processes = snap.Processes
		changed = append(changed, SlotProcesses)
	}
	if snap.Scheduler != nil {
		w.Scheduler = *snap.Scheduler
		changed = append(changed, SlotScheduler)
	}
	if snap.SchedulerDecisions != nil {
		w.SchedulerDecisions = snap.SchedulerDecisions
		changed = append(changed, SlotDecisions)
	}
	if snap.SchedulerApprovals != nil {
		w.SchedulerApprovals = snap.SchedulerApprovals
		changed = append(changed, SlotApprovals)
	}
	if snap.Jobs != nil {
		w.Jobs = snap.Jobs
		changed = append(changed, SlotJobs)
	}
	return changed
}

// HostByID looks up a host row in the mirror.
func (w *Workspace) HostByID(id int) (schemas.Host, bool) {
	for _, h := range w.Hosts {
		if h.ID == id {
			return h, true
		}
	}
	return schemas.Host{}, false
}

// value returns the mirror's content for one slot, for publishing.
func (w *Workspace) value(slot Slot) interface{} {
	switch slot {
	case SlotProject:
		return w.Project
	case SlotSummary:
		return w.Summary
	case SlotHosts:
		return w.Hosts
	case SlotServices:
		return w.Services
	case SlotTools:
		return w.Tools
	case SlotProcesses:
		return w.Processes
	case SlotScheduler:
		return w.Scheduler
	case SlotDecisions:
		return w.SchedulerDecisions
	case SlotApprovals:
		return w.SchedulerApprovals
	case SlotJobs:
		return w.Jobs
	}
	return nil
}
