package jobqueue

import (
	"encoding/json"
	"time"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeAnalysis JobType = "analysis"
)

// JobStatus defines the status of a queued job. This is queue-internal
// transport state; the client-visible lifecycle lives on the AnalysisJob
// row in the database.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Job represents a background job
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Payload     map[string]interface{} `json:"payload"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	ProcessedAt *time.Time             `json:"processed_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
}

// AnalysisJobPayload carries everything the worker needs to run one
// analysis and settle its bookkeeping.
type AnalysisJobPayload struct {
	JobUUID         string   `json:"job_uuid"`
	UserID          uint     `json:"user_id"`
	SocialAccountID uint     `json:"social_account_id"`
	Username        string   `json:"username"`
	Provider        string   `json:"provider"`
	Competitors     []string `json:"competitors,omitempty"`
}

// ToMap converts the payload to a map for storage
func (p AnalysisJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"job_uuid":          p.JobUUID,
		"user_id":           p.UserID,
		"social_account_id": p.SocialAccountID,
		"username":          p.Username,
		"provider":          p.Provider,
		"competitors":       p.Competitors,
	}
}

// AnalysisJobPayloadFromMap creates a payload from a map
func AnalysisJobPayloadFromMap(data map[string]interface{}) (*AnalysisJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload AnalysisJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// IsRetryable checks if the job can be retried
func (j *Job) IsRetryable() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// MarkAsProcessing updates the job status to processing
func (j *Job) MarkAsProcessing() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.UpdatedAt = now
	j.ProcessedAt = &now
}

// MarkAsCompleted updates the job status to completed
func (j *Job) MarkAsCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.UpdatedAt = now
	j.CompletedAt = &now
	j.ErrorMsg = ""
}

// MarkAsFailed updates the job status to failed
func (j *Job) MarkAsFailed(errorMsg string) {
	j.Status = JobStatusFailed
	j.UpdatedAt = time.Now()
	j.ErrorMsg = errorMsg
	j.RetryCount++
}

// MarkAsRetrying updates the job status to retrying
func (j *Job) MarkAsRetrying() {
	j.Status = JobStatusRetrying
	j.UpdatedAt = time.Now()
}
