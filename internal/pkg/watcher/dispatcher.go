package watcher

import (
	"sync"

	"github.com/gofiber/fiber/v2/log"

	"github.com/VyaparLabs/OrderDesk/app/models"
)

// CuePlayer delivers sound/toast cues to a user's terminal.
type CuePlayer interface {
	Play(userID uint, sound string, a Alert)
}

// Feed appends entries to the persistent notification feed.
type Feed interface {
	Append(userID uint, a Alert) error
}

// Escalator hands an alert off for out-of-band delivery (email). Optional.
type Escalator interface {
	Escalate(user models.User, a Alert)
}

// Dispatcher turns a classified, deduplicated alert into side effects: a
// sound cue, a feed entry and a toast per relevant recipient, plus at most
// one repeating alarm per order for timer alerts. All side effects are
// idempotent per dedup key.
type Dispatcher struct {
	ledger   *DedupLedger
	alarms   *AlarmRegistry
	cues     CuePlayer
	feed     Feed
	escalate Escalator // may be nil
	policies map[string]Policy

	mu       sync.Mutex
	attended map[string]bool
}

// NewDispatcher wires a dispatcher. escalate may be nil.
func NewDispatcher(ledger *DedupLedger, alarms *AlarmRegistry, cues CuePlayer, feed Feed, escalate Escalator, policies map[string]Policy) *Dispatcher {
	return &Dispatcher{
		ledger:   ledger,
		alarms:   alarms,
		cues:     cues,
		feed:     feed,
		escalate: escalate,
		policies: policies,
		attended: make(map[string]bool),
	}
}

// Dispatch delivers an alert to every relevant recipient, gated by the dedup
// ledger. Returns the number of recipients actually notified.
func (d *Dispatcher) Dispatch(a Alert, key string, recipients []models.User) int {
	if d.ledger.HasFired(key) {
		return 0
	}

	d.mu.Lock()
	attended := d.attended[a.Order.UUID]
	d.mu.Unlock()
	if attended {
		log.Debugf("[Watcher] Order %s attended, suppressing %s", a.Order.UUID, a.Type)
		return 0
	}

	delivered := 0
	alarmRecipients := make([]models.User, 0, len(recipients))
	var alarmIntensity Intensity

	for _, user := range recipients {
		policy, ok := d.policies[user.Role]
		if !ok {
			continue
		}
		if !d.safeIsRelevant(policy, a) {
			continue
		}

		intensity := d.safeIntensity(policy, a)
		if intensity.Kind == IntensityNone {
			// No sound, no feed entry, no toast.
			continue
		}

		switch intensity.Kind {
		case IntensitySingle:
			d.cues.Play(user.ID, SoundForAlert(a.Type, false), a)
		case IntensitySingleSubtle:
			d.cues.Play(user.ID, SoundForAlert(a.Type, true), a)
		case IntensityContinuous, IntensityDuration:
			d.cues.Play(user.ID, SoundForAlert(a.Type, false), a)
			// Repeating alarms are reserved for the deadline-driven types;
			// any other type at continuous intensity stays one-shot.
			if a.Type.IsTimerType() {
				alarmRecipients = append(alarmRecipients, user)
				alarmIntensity = intensity
			}
		}

		if err := d.feed.Append(user.ID, a); err != nil {
			log.Errorf("[Watcher] Failed to append feed entry for user %d: %v", user.ID, err)
		}

		if d.escalate != nil && (intensity.Kind == IntensityContinuous || intensity.Kind == IntensityDuration) {
			d.escalate.Escalate(user, a)
		}

		delivered++
	}

	if len(alarmRecipients) > 0 {
		interval := alarmIntensity.RepeatInterval
		if interval <= 0 {
			interval = DefaultAlarmInterval
		}
		order := a.Order
		users := alarmRecipients
		alertCopy := a
		d.alarms.Start(order.UUID, interval, alarmIntensity.Duration, func() {
			for _, u := range users {
				d.cues.Play(u.ID, SoundAlarmCue, alertCopy)
			}
		})
	}

	if delivered > 0 {
		d.ledger.MarkFired(key)
	}
	return delivered
}

// CancelAlarm stops any repeating alarm for the order (terminal status).
func (d *Dispatcher) CancelAlarm(orderUUID string) {
	d.alarms.Stop(orderUUID)
}

// MarkAttended records that the user acted on the order's notification: the
// alarm stops and further alerts stay suppressed until the order's state
// changes again.
func (d *Dispatcher) MarkAttended(orderUUID string) {
	d.alarms.Stop(orderUUID)
	d.mu.Lock()
	d.attended[orderUUID] = true
	d.mu.Unlock()
}

// ClearAttended lifts the attended suppression, called when the order's
// fingerprint changes.
func (d *Dispatcher) ClearAttended(orderUUID string) {
	d.mu.Lock()
	delete(d.attended, orderUUID)
	d.mu.Unlock()
}

// ForgetOrder drops all per-order dispatcher state (reconciliation GC).
func (d *Dispatcher) ForgetOrder(orderUUID string) {
	d.alarms.Stop(orderUUID)
	d.mu.Lock()
	delete(d.attended, orderUUID)
	d.mu.Unlock()
}

// safeIsRelevant shields the pipeline from a broken policy: a panic counts
// as "not relevant" and is logged distinctly from a normal negative.
func (d *Dispatcher) safeIsRelevant(policy Policy, a Alert) (relevant bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("[Watcher] Relevance policy panicked for %s on order %s: %v", a.Type, a.Order.UUID, r)
			relevant = false
		}
	}()
	return policy.IsRelevant(a.Type, a.Order.Status)
}

// safeIntensity shields the pipeline from a broken policy: a panic yields
// intensity none.
func (d *Dispatcher) safeIntensity(policy Policy, a Alert) (intensity Intensity) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("[Watcher] Intensity policy panicked for %s on order %s: %v", a.Type, a.Order.UUID, r)
			intensity = Intensity{Kind: IntensityNone}
		}
	}()
	return policy.Intensity(a.Type, a.Urgent)
}

// Sound cue identifiers, mirrored by the terminal's audio assets.
const (
	SoundAlertCue  = "alert"
	SoundSubtleCue = "alert_subtle"
	SoundAlarmCue  = "alarm"
)

// SoundForAlert picks the one-shot sound for an alert type.
func SoundForAlert(t AlertType, subtle bool) string {
	if subtle {
		return SoundSubtleCue
	}
	if t.IsTimerType() {
		return SoundAlarmCue
	}
	return SoundAlertCue
}
