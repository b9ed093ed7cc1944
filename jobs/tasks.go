package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskFactRebuild rebuilds the budget/encumbrance fact table for a window.
	TaskFactRebuild = "fact:rebuild"
	// TaskGLIntegrity scans posted transactions for debit/credit drift.
	TaskGLIntegrity = "gl:integrity"
)

// FactRebuildPayload names the organization and date window to rebuild.
type FactRebuildPayload struct {
	OrganizationID string    `json:"organizationId"`
	FromDate       time.Time `json:"fromDate"`
	ThruDate       time.Time `json:"thruDate"`
}

// NewFactRebuildTask constructs an Asynq task for a fact rebuild.
func NewFactRebuildTask(payload FactRebuildPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFactRebuild, data), nil
}

// GLIntegrityPayload scopes the integrity scan; an empty organization means all.
type GLIntegrityPayload struct {
	OrganizationID string `json:"organizationId,omitempty"`
}

// NewGLIntegrityTask constructs an Asynq task for the integrity scan.
func NewGLIntegrityTask(payload GLIntegrityPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGLIntegrity, data), nil
}
