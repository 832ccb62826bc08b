//go:build test
// +build test

package jobqueue

import (
	"time"
)

// TestJobFactory creates test jobs for different types
func TestJobFactory() map[JobType]*Job {
	now := time.Now()

	return map[JobType]*Job{
		JobTypeAlertEmail: {
			ID:     "test-alert-email-job",
			Type:   JobTypeAlertEmail,
			Status: JobStatusPending,
			Payload: AlertEmailJobPayload{
				UserID:    1,
				Email:     "operator@example.in",
				UserName:  "Test Operator",
				OrderUUID: "test-order-uuid",
				OrderNo:   "OD-0001",
				AlertType: "payment_timer",
				Urgent:    true,
			}.ToMap(),
			CreatedAt:  now,
			UpdatedAt:  now,
			RetryCount: 0,
			MaxRetries: 3,
		},
		JobTypeNotificationCleanup: {
			ID:         "test-cleanup-job",
			Type:       JobTypeNotificationCleanup,
			Status:     JobStatusPending,
			Payload:    NotificationCleanupJobPayload{OlderThanDays: 30}.ToMap(),
			CreatedAt:  now,
			UpdatedAt:  now,
			RetryCount: 0,
			MaxRetries: 3,
		},
	}
}

// WaitForCondition waits for a condition to be true with timeout
func WaitForCondition(condition func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}
