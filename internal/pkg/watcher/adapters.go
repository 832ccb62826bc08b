package watcher

import (
	"github.com/gofiber/fiber/v2/log"

	"github.com/VyaparLabs/OrderDesk/app/models"
	"github.com/VyaparLabs/OrderDesk/app/repository"
	"github.com/VyaparLabs/OrderDesk/internal/pkg/cue"
	"github.com/VyaparLabs/OrderDesk/internal/pkg/jobqueue"
	"github.com/VyaparLabs/OrderDesk/internal/pkg/metrics/counter"
)

// cueAdapter delivers sound/toast cues through the per-user Redis cue lists.
type cueAdapter struct{}

func newCueAdapter() *cueAdapter { return &cueAdapter{} }

func (c *cueAdapter) Play(userID uint, sound string, a Alert) {
	cue.Push(userID, cue.Cue{
		Sound:     sound,
		OrderUUID: a.Order.UUID,
		OrderNo:   a.Order.OrderNo,
		AlertType: string(a.Type),
	})
}

// feedAdapter appends alerts to the persistent notification feed and bumps
// the per-type emitted counters.
type feedAdapter struct {
	notifications repository.NotificationRepository
}

func newFeedAdapter(notifications repository.NotificationRepository) *feedAdapter {
	return &feedAdapter{notifications: notifications}
}

func (f *feedAdapter) Append(userID uint, a Alert) error {
	amount := a.Amount
	if amount == 0 {
		amount = a.Order.GrossAmount()
	}

	notification := &models.Notification{
		UserID:    userID,
		OrderID:   a.Order.ID,
		OrderNo:   a.Order.OrderNo,
		Label:     a.Order.SupplierName,
		Amount:    amount,
		AlertType: string(a.Type),
	}
	if err := f.notifications.Create(notification); err != nil {
		return err
	}

	if cerr := counter.AddAlert(string(a.Type)); cerr != nil {
		log.Debugf("[Watcher] Alert counter increment failed: %v", cerr)
	}
	return nil
}

// mailEscalator hands urgent alerts to the job queue for email delivery.
type mailEscalator struct{}

func newMailEscalator() *mailEscalator { return &mailEscalator{} }

func (m *mailEscalator) Escalate(user models.User, a Alert) {
	if !user.AlertEmail || user.Email == "" {
		return
	}

	payload := jobqueue.AlertEmailJobPayload{
		UserID:    user.ID,
		Email:     user.Email,
		UserName:  user.Name,
		OrderUUID: a.Order.UUID,
		OrderNo:   a.Order.OrderNo,
		AlertType: string(a.Type),
		Amount:    a.Amount,
		Urgent:    a.Urgent,
	}
	if _, err := jobqueue.GetManager().GetQueue().EnqueueAlertEmailJob(payload); err != nil {
		log.Errorf("[Watcher] Failed to enqueue escalation email for user %d: %v", user.ID, err)
	}
}
