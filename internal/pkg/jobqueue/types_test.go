package jobqueue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobType(t *testing.T) {
	tests := []struct {
		name     string
		jobType  JobType
		expected string
	}{
		{"Alert Email", JobTypeAlertEmail, "alert_email"},
		{"Alert Stats Flush", JobTypeAlertStatsFlush, "alert_stats_flush"},
		{"Notification Cleanup", JobTypeNotificationCleanup, "notification_cleanup"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.jobType))
		})
	}
}

func TestJobStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   JobStatus
		expected string
	}{
		{"Pending", JobStatusPending, "pending"},
		{"Processing", JobStatusProcessing, "processing"},
		{"Completed", JobStatusCompleted, "completed"},
		{"Failed", JobStatusFailed, "failed"},
		{"Retrying", JobStatusRetrying, "retrying"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.status))
		})
	}
}

func TestJob_IsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		job       *Job
		retryable bool
	}{
		{
			name: "Failed job with retries remaining",
			job: &Job{
				Status:     JobStatusFailed,
				RetryCount: 1,
				MaxRetries: 3,
			},
			retryable: true,
		},
		{
			name: "Failed job with no retries remaining",
			job: &Job{
				Status:     JobStatusFailed,
				RetryCount: 3,
				MaxRetries: 3,
			},
			retryable: false,
		},
		{
			name: "Completed job",
			job: &Job{
				Status:     JobStatusCompleted,
				RetryCount: 1,
				MaxRetries: 3,
			},
			retryable: false,
		},
		{
			name: "Pending job",
			job: &Job{
				Status:     JobStatusPending,
				RetryCount: 0,
				MaxRetries: 3,
			},
			retryable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, tt.job.IsRetryable())
		})
	}
}

func TestJob_MarkAsProcessing(t *testing.T) {
	job := &Job{
		Status: JobStatusPending,
	}

	beforeTime := time.Now()
	job.MarkAsProcessing()
	afterTime := time.Now()

	assert.Equal(t, JobStatusProcessing, job.Status)
	assert.True(t, job.UpdatedAt.After(beforeTime) || job.UpdatedAt.Equal(beforeTime))
	assert.True(t, job.UpdatedAt.Before(afterTime) || job.UpdatedAt.Equal(afterTime))
	assert.NotNil(t, job.ProcessedAt)
	assert.True(t, job.ProcessedAt.After(beforeTime) || job.ProcessedAt.Equal(beforeTime))
	assert.True(t, job.ProcessedAt.Before(afterTime) || job.ProcessedAt.Equal(afterTime))
}

func TestJob_MarkAsCompleted(t *testing.T) {
	job := &Job{
		Status:   JobStatusProcessing,
		ErrorMsg: "some error",
	}

	beforeTime := time.Now()
	job.MarkAsCompleted()
	afterTime := time.Now()

	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.True(t, job.UpdatedAt.After(beforeTime) || job.UpdatedAt.Equal(beforeTime))
	assert.True(t, job.UpdatedAt.Before(afterTime) || job.UpdatedAt.Equal(afterTime))
	assert.NotNil(t, job.CompletedAt)
	assert.True(t, job.CompletedAt.After(beforeTime) || job.CompletedAt.Equal(beforeTime))
	assert.True(t, job.CompletedAt.Before(afterTime) || job.CompletedAt.Equal(afterTime))
	assert.Empty(t, job.ErrorMsg)
}

func TestJob_MarkAsFailed(t *testing.T) {
	job := &Job{
		Status:     JobStatusProcessing,
		RetryCount: 1,
	}

	errorMsg := "processing failed"
	beforeTime := time.Now()
	job.MarkAsFailed(errorMsg)
	afterTime := time.Now()

	assert.Equal(t, JobStatusFailed, job.Status)
	assert.True(t, job.UpdatedAt.After(beforeTime) || job.UpdatedAt.Equal(beforeTime))
	assert.True(t, job.UpdatedAt.Before(afterTime) || job.UpdatedAt.Equal(afterTime))
	assert.Equal(t, errorMsg, job.ErrorMsg)
	assert.Equal(t, 2, job.RetryCount)
}

func TestJob_MarkAsRetrying(t *testing.T) {
	job := &Job{
		Status: JobStatusFailed,
	}

	beforeTime := time.Now()
	job.MarkAsRetrying()
	afterTime := time.Now()

	assert.Equal(t, JobStatusRetrying, job.Status)
	assert.True(t, job.UpdatedAt.After(beforeTime) || job.UpdatedAt.Equal(beforeTime))
	assert.True(t, job.UpdatedAt.Before(afterTime) || job.UpdatedAt.Equal(afterTime))
}

func TestAlertEmailJobPayload_ToMap(t *testing.T) {
	payload := AlertEmailJobPayload{
		UserID:    7,
		Email:     "payer@example.in",
		UserName:  "Ravi",
		OrderUUID: "order-uuid-7",
		OrderNo:   "OD-0007",
		AlertType: "order_timer",
		Amount:    1200,
		Urgent:    false,
	}

	result := payload.ToMap()

	expected := map[string]interface{}{
		"user_id":    uint(7),
		"email":      "payer@example.in",
		"user_name":  "Ravi",
		"order_uuid": "order-uuid-7",
		"order_no":   "OD-0007",
		"alert_type": "order_timer",
		"amount":     float64(1200),
		"urgent":     false,
	}

	assert.Equal(t, expected, result)
}

func TestAlertEmailJobPayloadFromMap(t *testing.T) {
	data := map[string]interface{}{
		"user_id":    float64(7), // JSON numbers are float64
		"email":      "payer@example.in",
		"user_name":  "Ravi",
		"order_uuid": "order-uuid-7",
		"order_no":   "OD-0007",
		"alert_type": "order_timer",
		"amount":     float64(1200),
		"urgent":     true,
	}

	payload, err := AlertEmailJobPayloadFromMap(data)
	require.NoError(t, err)

	expected := &AlertEmailJobPayload{
		UserID:    7,
		Email:     "payer@example.in",
		UserName:  "Ravi",
		OrderUUID: "order-uuid-7",
		OrderNo:   "OD-0007",
		AlertType: "order_timer",
		Amount:    1200,
		Urgent:    true,
	}

	assert.Equal(t, expected, payload)
}

func TestAlertEmailJobPayloadFromMap_InvalidData(t *testing.T) {
	// Test with invalid JSON structure
	data := map[string]interface{}{
		"user_id": make(chan int), // channels can't be marshaled to JSON
	}

	payload, err := AlertEmailJobPayloadFromMap(data)
	assert.Error(t, err)
	assert.Nil(t, payload)
}

func TestNotificationCleanupJobPayload_ToMap(t *testing.T) {
	payload := NotificationCleanupJobPayload{OlderThanDays: 14}

	result := payload.ToMap()

	expected := map[string]interface{}{
		"older_than_days": 14,
	}

	assert.Equal(t, expected, result)
}

func TestNotificationCleanupJobPayloadFromMap(t *testing.T) {
	data := map[string]interface{}{
		"older_than_days": float64(14),
	}

	payload, err := NotificationCleanupJobPayloadFromMap(data)
	require.NoError(t, err)

	assert.Equal(t, &NotificationCleanupJobPayload{OlderThanDays: 14}, payload)
}

func TestPayloadRoundTrip(t *testing.T) {
	t.Run("AlertEmailJobPayload", func(t *testing.T) {
		original := AlertEmailJobPayload{
			UserID:    42,
			Email:     "roundtrip@example.in",
			UserName:  "Round Trip",
			OrderUUID: "round-trip-test",
			OrderNo:   "OD-4242",
			AlertType: "payment_completed",
			Amount:    999.99,
			Urgent:    false,
		}

		// Convert to map and back
		data := original.ToMap()
		result, err := AlertEmailJobPayloadFromMap(data)
		require.NoError(t, err)

		assert.Equal(t, &original, result)
	})

	t.Run("NotificationCleanupJobPayload", func(t *testing.T) {
		original := NotificationCleanupJobPayload{OlderThanDays: 60}

		// Convert to map and back
		data := original.ToMap()
		result, err := NotificationCleanupJobPayloadFromMap(data)
		require.NoError(t, err)

		assert.Equal(t, &original, result)
	})
}

func TestJobJSONSerialization(t *testing.T) {
	now := time.Now()
	processedAt := now.Add(time.Minute)
	completedAt := now.Add(2 * time.Minute)

	job := &Job{
		ID:          "test-job-123",
		Type:        JobTypeAlertEmail,
		Status:      JobStatusCompleted,
		Payload:     map[string]interface{}{"test": "data"},
		CreatedAt:   now,
		UpdatedAt:   now.Add(time.Second),
		ProcessedAt: &processedAt,
		CompletedAt: &completedAt,
		ErrorMsg:    "",
		RetryCount:  0,
		MaxRetries:  3,
	}

	// Marshal to JSON
	jsonData, err := json.Marshal(job)
	require.NoError(t, err)

	// Unmarshal back
	var result Job
	err = json.Unmarshal(jsonData, &result)
	require.NoError(t, err)

	// Compare (times may have slight precision differences)
	assert.Equal(t, job.ID, result.ID)
	assert.Equal(t, job.Type, result.Type)
	assert.Equal(t, job.Status, result.Status)
	assert.Equal(t, job.Payload, result.Payload)
	assert.Equal(t, job.ErrorMsg, result.ErrorMsg)
	assert.Equal(t, job.RetryCount, result.RetryCount)
	assert.Equal(t, job.MaxRetries, result.MaxRetries)

	// Time comparisons (allowing for minor precision differences)
	assert.True(t, job.CreatedAt.Sub(result.CreatedAt) < time.Millisecond)
	assert.True(t, job.UpdatedAt.Sub(result.UpdatedAt) < time.Millisecond)
	assert.NotNil(t, result.ProcessedAt)
	assert.True(t, job.ProcessedAt.Sub(*result.ProcessedAt) < time.Millisecond)
	assert.NotNil(t, result.CompletedAt)
	assert.True(t, job.CompletedAt.Sub(*result.CompletedAt) < time.Millisecond)
}
