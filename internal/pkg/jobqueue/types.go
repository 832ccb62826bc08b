package jobqueue

import (
	"encoding/json"
	"time"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeAlertEmail          JobType = "alert_email"
	JobTypeAlertStatsFlush     JobType = "alert_stats_flush"
	JobTypeNotificationCleanup JobType = "notification_cleanup"
)

// JobStatus defines the status of a job
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

// AlertEmailJobPayload contains the payload for alert escalation emails
type AlertEmailJobPayload struct {
	UserID    uint    `json:"user_id"`
	Email     string  `json:"email"`
	UserName  string  `json:"user_name"`
	OrderUUID string  `json:"order_uuid"`
	OrderNo   string  `json:"order_no"`
	AlertType string  `json:"alert_type"`
	Amount    float64 `json:"amount"`
	Urgent    bool    `json:"urgent"`
}

// ToMap converts the payload to a map for storage
func (p AlertEmailJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    p.UserID,
		"email":      p.Email,
		"user_name":  p.UserName,
		"order_uuid": p.OrderUUID,
		"order_no":   p.OrderNo,
		"alert_type": p.AlertType,
		"amount":     p.Amount,
		"urgent":     p.Urgent,
	}
}

// FromMap creates a payload from a map
func AlertEmailJobPayloadFromMap(data map[string]interface{}) (*AlertEmailJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload AlertEmailJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// NotificationCleanupJobPayload contains the payload for pruning read feed entries
type NotificationCleanupJobPayload struct {
	OlderThanDays int `json:"older_than_days"`
}

// ToMap converts the payload to a map for storage
func (p NotificationCleanupJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"older_than_days": p.OlderThanDays,
	}
}

// FromMap creates a payload from a map
func NotificationCleanupJobPayloadFromMap(data map[string]interface{}) (*NotificationCleanupJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload NotificationCleanupJobPayload
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
