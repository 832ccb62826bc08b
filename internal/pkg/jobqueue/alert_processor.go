package jobqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/VyaparLabs/OrderDesk/app/models"
	"github.com/VyaparLabs/OrderDesk/internal/pkg/database"
	"github.com/VyaparLabs/OrderDesk/internal/pkg/mail"
	"github.com/VyaparLabs/OrderDesk/internal/pkg/metrics/counter"
)

var alertSubjects = map[string]string{
	"new_order":         "New buy order",
	"payment_completed": "Payment received",
	"banking_collected": "Banking details collected",
	"order_updated":     "Order updated",
	"payment_timer":     "Payment deadline approaching",
	"order_timer":       "Order expiry approaching",
}

// EnqueueAlertEmailJob adds an alert escalation email to the queue
func (q *Queue) EnqueueAlertEmailJob(payload AlertEmailJobPayload) (*Job, error) {
	return q.EnqueueJob(JobTypeAlertEmail, payload.ToMap())
}

// processAlertEmailJob sends one escalation email for an urgent alert
func (q *Queue) processAlertEmailJob(ctx context.Context, job *Job) error {
	payload, err := AlertEmailJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid alert email payload: %w", err)
	}
	if payload.Email == "" {
		return fmt.Errorf("alert email payload without recipient address")
	}

	if settings := models.GetAppSettings(); settings != nil && !settings.IsAlertEmailEnabled() {
		log.Debugf("[JobQueue] Alert emails disabled, dropping job %s", job.ID)
		return nil
	}

	subject := alertSubjects[payload.AlertType]
	if subject == "" {
		subject = "Order alert"
	}
	subject = fmt.Sprintf("%s: order %s", subject, payload.OrderNo)
	if payload.Urgent {
		subject = "[URGENT] " + subject
	}

	body := fmt.Sprintf(
		"<p>Hello %s,</p><p>Order <strong>%s</strong> needs your attention: %s.</p>",
		payload.UserName, payload.OrderNo, alertSubjects[payload.AlertType],
	)
	if payload.Amount > 0 {
		body += fmt.Sprintf("<p>Amount: %.2f</p>", payload.Amount)
	}

	return mail.SendMail(payload.Email, subject, body)
}

// processAlertStatsFlushJob drains the pending alert counters into the database
func (q *Queue) processAlertStatsFlushJob(ctx context.Context, job *Job) error {
	return counter.FlushAll()
}

// processNotificationCleanupJob prunes read feed entries older than the
// configured cutoff
func (q *Queue) processNotificationCleanupJob(ctx context.Context, job *Job) error {
	payload, err := NotificationCleanupJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid cleanup payload: %w", err)
	}

	days := payload.OlderThanDays
	if days <= 0 {
		days = 30
	}
	cutoff := time.Now().AddDate(0, 0, -days)

	db := database.GetDB()
	result := db.Where("is_read = ? AND created_at < ?", true, cutoff).Delete(&models.Notification{})
	if result.Error != nil {
		return fmt.Errorf("notification cleanup failed: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		log.Infof("[JobQueue] Cleaned up %d read notifications older than %d days", result.RowsAffected, days)
	}
	return nil
}
