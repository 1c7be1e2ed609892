package schemas

// -- Snapshot Schemas --
//
// A Snapshot is a server-authoritative, partially populated state message.
// Every section is optional: a nil field means "unchanged since the last
// snapshot", never "now empty". Consumers must merge, not replace.

// Snapshot mirrors the backend's full-state message, delivered either by the
// GET snapshot endpoint or pushed over the duplex snapshot feed.
type Snapshot struct {
	Timestamp           string               `json:"timestamp,omitempty"`
	Project             *ProjectInfo         `json:"project,omitempty"`
	Summary             *WorkspaceSummary    `json:"summary,omitempty"`
	Hosts               []Host               `json:"hosts,omitempty"`
	Services            []ServiceRollup      `json:"services,omitempty"`
	Tools               []Tool               `json:"tools,omitempty"`
	ToolsMeta           *ToolsMeta           `json:"tools_meta,omitempty"`
	Processes           []ProcessRow         `json:"processes,omitempty"`
	Scheduler           *SchedulerPrefs      `json:"scheduler,omitempty"`
	SchedulerDecisions  []SchedulerDecision  `json:"scheduler_decisions,omitempty"`
	SchedulerApprovals  []Approval           `json:"scheduler_approvals,omitempty"`
	Jobs                []Job                `json:"jobs,omitempty"`
}

// ProjectInfo describes the project the backend currently has open.
type ProjectInfo struct {
	Name          string         `json:"name"`
	OutputFolder  string         `json:"output_folder"`
	RunningFolder string         `json:"running_folder"`
	IsTemporary   bool           `json:"is_temporary"`
	Autosave      *AutosaveState `json:"autosave,omitempty"`
}

// AutosaveState reports the backend's periodic save bookkeeping.
type AutosaveState struct {
	IntervalMinutes int    `json:"interval_minutes"`
	LastSavedAt     string `json:"last_saved_at"`
	LastPath        string `json:"last_path"`
	LastError       string `json:"last_error"`
	LastJobID       int    `json:"last_job_id"`
}

// WorkspaceSummary carries the headline counters shown at the top of the console.
type WorkspaceSummary struct {
	Hosts              int `json:"hosts"`
	OpenPorts          int `json:"open_ports"`
	Services           int `json:"services"`
	CVEs               int `json:"cves"`
	RunningProcesses   int `json:"running_processes"`
	FinishedProcesses  int `json:"finished_processes"`
}

// Host is the snapshot row for a discovered host. The full host workspace
// (ports, scripts, notes) is fetched separately via the host-detail endpoint.
type Host struct {
	ID        int    `json:"id"`
	IP        string `json:"ip"`
	Hostname  string `json:"hostname"`
	Status    string `json:"status"`
	OS        string `json:"os"`
	OpenPorts int    `json:"open_ports"`
}

// HostDetail is the follow-up payload for a selected host. The console treats
// it as opaque display data; only the ID is inspected client-side.
type HostDetail struct {
	Host     Host                     `json:"host"`
	Ports    []map[string]interface{} `json:"ports,omitempty"`
	Scripts  []map[string]interface{} `json:"scripts,omitempty"`
	Notes    []map[string]interface{} `json:"notes,omitempty"`
	CVEs     []map[string]interface{} `json:"cves,omitempty"`
	Tools    []Tool                   `json:"tools,omitempty"`
}

// ServiceRollup aggregates open ports by service name across the workspace.
type ServiceRollup struct {
	Service   string   `json:"service"`
	PortCount int      `json:"port_count"`
	HostCount int      `json:"host_count"`
	Protocols []string `json:"protocols"`
}

// Tool is one entry of the (potentially large, paginated) tool catalog.
type Tool struct {
	Label            string   `json:"label"`
	ToolID           string   `json:"tool_id"`
	CommandTemplate  string   `json:"command_template"`
	ServiceScope     []string `json:"service_scope"`
	DangerCategories []string `json:"danger_categories"`
	RunCount         int      `json:"run_count"`
	LastStatus       string   `json:"last_status"`
	LastStart        string   `json:"last_start"`
	Runnable         bool     `json:"runnable"`
}

// ToolsMeta describes the catalog page embedded in a snapshot. Once the
// console has hydrated the full catalog, only Total is consulted.
type ToolsMeta struct {
	Offset     int  `json:"offset"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	HasMore    bool `json:"has_more"`
	NextOffset *int `json:"next_offset"`
}

// ToolPage is the response of the paged tool-catalog endpoint.
type ToolPage struct {
	Tools      []Tool `json:"tools"`
	Offset     int    `json:"offset"`
	Limit      int    `json:"limit"`
	Total      int    `json:"total"`
	HasMore    bool   `json:"has_more"`
	NextOffset *int   `json:"next_offset"`
}

// Process lifecycle statuses as reported inside snapshots.
const (
	ProcessQueued    = "queued"
	ProcessRunning   = "running"
	ProcessWaiting   = "waiting"
	ProcessCompleted = "completed"
	ProcessFailed    = "failed"
	ProcessKilled    = "killed"
	ProcessHidden    = "hidden"
)

// ProcessRow is the snapshot row for a backend process.
type ProcessRow struct {
	ID                 int    `json:"id"`
	Name               string `json:"name"`
	HostIP             string `json:"hostIp"`
	Port               string `json:"port"`
	Protocol           string `json:"protocol"`
	Status             string `json:"status"`
	StartTime          string `json:"startTime"`
	Percent            string `json:"percent"`
	EstimatedRemaining int    `json:"estimatedRemaining"`
}

// SchedulerPrefs is the scheduler preference block; the console only displays
// it, so it stays a free-form map.
type SchedulerPrefs map[string]interface{}

// SchedulerDecision is one row of the scheduler's decision audit log.
type SchedulerDecision struct {
	ID               int    `json:"id"`
	Timestamp        string `json:"timestamp"`
	HostIP           string `json:"host_ip"`
	Port             string `json:"port"`
	Protocol         string `json:"protocol"`
	Service          string `json:"service"`
	SchedulerMode    string `json:"scheduler_mode"`
	GoalProfile      string `json:"goal_profile"`
	ToolID           string `json:"tool_id"`
	Label            string `json:"label"`
	CommandFamilyID  string `json:"command_family_id"`
	DangerCategories string `json:"danger_categories"`
	RequiresApproval bool   `json:"requires_approval"`
	Approved         bool   `json:"approved"`
	Executed         bool   `json:"executed"`
	Reason           string `json:"reason"`
	Rationale        string `json:"rationale"`
	ApprovalID       int    `json:"approval_id"`
}

// Approval is a pending (or decided) scheduler approval item. The console
// holds only this display projection plus local selections; the backend owns
// the authoritative state.
type Approval struct {
	ID               int    `json:"id"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
	Status           string `json:"status"`
	HostIP           string `json:"host_ip"`
	Port             string `json:"port"`
	Protocol         string `json:"protocol"`
	Service          string `json:"service"`
	ToolID           string `json:"tool_id"`
	Label            string `json:"label"`
	CommandTemplate  string `json:"command_template"`
	CommandFamilyID  string `json:"command_family_id"`
	DangerCategories string `json:"danger_categories"`
	SchedulerMode    string `json:"scheduler_mode"`
	GoalProfile      string `json:"goal_profile"`
	Rationale        string `json:"rationale"`
	DecisionReason   string `json:"decision_reason"`
	ExecutionJobID   int    `json:"execution_job_id"`
}
