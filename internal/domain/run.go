package domain

import "time"

// RunStatus is the lifecycle state of one workflow run in the ledger.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// UploadOutcome records a single relay target's result for a run. Failures
// are recorded here rather than propagated; the local artifact stays valid
// regardless of upload outcome.
type UploadOutcome struct {
	Target string `json:"target"`
	Ref    string `json:"ref,omitempty"`
	Error  string `json:"error,omitempty"`
}

// RunRecord is one workflow run as persisted in the run ledger.
type RunRecord struct {
	ID            string          `json:"id"`
	Report        string          `json:"report"`
	RequestID     *RequestID      `json:"request_id,omitempty"`
	Status        RunStatus       `json:"status"`
	ArtifactPath  string          `json:"artifact_path,omitempty"`
	ArtifactBytes int64           `json:"artifact_bytes,omitempty"`
	Error         string          `json:"error,omitempty"`
	Uploads       []UploadOutcome `json:"uploads,omitempty"`
	StartedAt     time.Time       `json:"started_at"`
	FinishedAt    *time.Time      `json:"finished_at,omitempty"`
}
