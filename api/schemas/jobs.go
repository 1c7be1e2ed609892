package schemas

// -- Job Schemas --

// Job statuses used by the backend job runner.
const (
	JobQueued    = "queued"
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
	JobCancelled = "cancelled"
)

// Job is the backend job runner's public view of one job.
type Job struct {
	ID              int                    `json:"id"`
	Type            string                 `json:"type"`
	Status          string                 `json:"status"`
	Exclusive       bool                   `json:"exclusive"`
	CancelRequested bool                   `json:"cancel_requested"`
	CancelReason    string                 `json:"cancel_reason"`
	CreatedAt       string                 `json:"created_at"`
	StartedAt       string                 `json:"started_at"`
	FinishedAt      string                 `json:"finished_at"`
	Payload         map[string]interface{} `json:"payload,omitempty"`
	Result          map[string]interface{} `json:"result,omitempty"`
	Error           string                 `json:"error,omitempty"`
}

// Terminal reports whether the job has reached a final state.
func (j Job) Terminal() bool {
	switch j.Status {
	case JobCompleted, JobFailed, JobCancelled:
		return true
	}
	return false
}

// JobList is the response of the job listing endpoint.
type JobList struct {
	Jobs []Job `json:"jobs"`
}

// JobAccepted is the 202 acknowledgement returned when the backend queues work.
type JobAccepted struct {
	Status string `json:"status"`
	Job    *Job   `json:"job,omitempty"`
}

// ApprovalApproveRequest asks the backend to approve a pending item.
// ApproveFamily pre-approves the whole command family; RunNow queues the
// underlying action immediately.
type ApprovalApproveRequest struct {
	ApproveFamily bool `json:"approve_family"`
	RunNow        bool `json:"run_now"`
}

// ApprovalRejectRequest asks the backend to reject a pending item.
type ApprovalRejectRequest struct {
	Reason string `json:"reason"`
}

// ApprovalDecisionResult is the acknowledgement for an approve/reject call.
type ApprovalDecisionResult struct {
	Status   string    `json:"status"`
	Approval *Approval `json:"approval,omitempty"`
	Job      *Job      `json:"job,omitempty"`
}
