package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VyaparLabs/OrderDesk/app/models"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *fakeCuePlayer, *fakeFeed, *AlarmRegistry) {
	t.Helper()
	ledger := NewDedupLedger()
	alarms := NewAlarmRegistry()
	cues := &fakeCuePlayer{}
	feed := &fakeFeed{}
	policies := map[string]Policy{
		models.ROLE_OPERATOR: NewRolePolicy(models.ROLE_OPERATOR),
		models.ROLE_PAYER:    NewRolePolicy(models.ROLE_PAYER),
		models.ROLE_ADMIN:    NewRolePolicy(models.ROLE_ADMIN),
	}
	d := NewDispatcher(ledger, alarms, cues, feed, nil, policies)
	t.Cleanup(alarms.StopAll)
	return d, cues, feed, alarms
}

func admin() models.User {
	return models.User{ID: 9, Role: models.ROLE_ADMIN, Status: models.STATUS_ACTIVE}
}

func TestDispatchDeliversOncePerKey(t *testing.T) {
	d, cues, feed, _ := newTestDispatcher(t)

	alert := NewAlert(AlertNewOrder, snap("uuid-1", models.ORDER_STATUS_NEW))
	key := DedupKey("uuid-1", AlertNewOrder, "abc")

	delivered := d.Dispatch(alert, key, []models.User{admin()})
	assert.Equal(t, 1, delivered)
	assert.Equal(t, 1, cues.count())
	assert.Equal(t, 1, feed.count())

	// Same key again: fully suppressed.
	delivered = d.Dispatch(alert, key, []models.User{admin()})
	assert.Equal(t, 0, delivered)
	assert.Equal(t, 1, cues.count())
	assert.Equal(t, 1, feed.count())
}

func TestDispatchDistinctKeysBothFire(t *testing.T) {
	d, _, feed, _ := newTestDispatcher(t)

	alert := NewAlert(AlertPaymentCompleted, snap("uuid-1", models.ORDER_STATUS_PAID))
	d.Dispatch(alert, DedupKey("uuid-1", AlertPaymentCompleted, "payment:p1"), []models.User{admin()})
	d.Dispatch(alert, DedupKey("uuid-1", AlertPaymentCompleted, "payment:p2"), []models.User{admin()})

	assert.Equal(t, 2, feed.count())
}

func TestDispatchSkipsUnknownRole(t *testing.T) {
	d, _, feed, _ := newTestDispatcher(t)

	alert := NewAlert(AlertNewOrder, snap("uuid-1", models.ORDER_STATUS_NEW))
	stranger := models.User{ID: 3, Role: "viewer", Status: models.STATUS_ACTIVE}

	delivered := d.Dispatch(alert, DedupKey("uuid-1", AlertNewOrder, "x"), []models.User{stranger})
	assert.Equal(t, 0, delivered)
	assert.Equal(t, 0, feed.count())
}

func TestDispatchUndeliveredKeyStaysEligible(t *testing.T) {
	d, _, feed, _ := newTestDispatcher(t)

	alert := NewAlert(AlertNewOrder, snap("uuid-1", models.ORDER_STATUS_NEW))
	key := DedupKey("uuid-1", AlertNewOrder, "x")

	// Nobody relevant: the key must not burn.
	d.Dispatch(alert, key, nil)
	delivered := d.Dispatch(alert, key, []models.User{admin()})
	assert.Equal(t, 1, delivered)
	assert.Equal(t, 1, feed.count())
}

func TestDispatchAlarmOnlyForTimerTypes(t *testing.T) {
	d, _, _, alarms := newTestDispatcher(t)

	// Event alert at one-shot intensity: no alarm.
	event := NewAlert(AlertPaymentCompleted, snap("uuid-1", models.ORDER_STATUS_PAID))
	d.Dispatch(event, DedupKey("uuid-1", AlertPaymentCompleted, "a"), []models.User{admin()})
	assert.False(t, alarms.Active("uuid-1"))

	// Urgent timer alert: a repeating alarm starts.
	timer := NewAlert(AlertPaymentTimer, snap("uuid-2", models.ORDER_STATUS_BANKING_COLLECTED))
	timer.Urgent = true
	d.Dispatch(timer, DedupKey("uuid-2", AlertPaymentTimer, "overdue"), []models.User{admin()})
	assert.True(t, alarms.Active("uuid-2"))
}

func TestDispatchAttendedSuppression(t *testing.T) {
	d, _, feed, alarms := newTestDispatcher(t)

	timer := NewAlert(AlertPaymentTimer, snap("uuid-1", models.ORDER_STATUS_BANKING_COLLECTED))
	timer.Urgent = true
	d.Dispatch(timer, DedupKey("uuid-1", AlertPaymentTimer, "overdue"), []models.User{admin()})
	require.True(t, alarms.Active("uuid-1"))

	d.MarkAttended("uuid-1")
	assert.False(t, alarms.Active("uuid-1"))

	// Fresh key, still attended: suppressed.
	other := NewAlert(AlertOrderTimer, snap("uuid-1", models.ORDER_STATUS_BANKING_COLLECTED))
	other.Urgent = true
	delivered := d.Dispatch(other, DedupKey("uuid-1", AlertOrderTimer, "overdue"), []models.User{admin()})
	assert.Equal(t, 0, delivered)

	// State change lifts the suppression.
	d.ClearAttended("uuid-1")
	delivered = d.Dispatch(other, DedupKey("uuid-1", AlertOrderTimer, "overdue"), []models.User{admin()})
	assert.Equal(t, 1, delivered)
	assert.Equal(t, 2, feed.count())
}

type panickyPolicy struct{}

func (panickyPolicy) IsRelevant(AlertType, string) bool   { panic("boom") }
func (panickyPolicy) Intensity(AlertType, bool) Intensity { panic("boom") }

func TestDispatchSurvivesPanickingPolicy(t *testing.T) {
	ledger := NewDedupLedger()
	alarms := NewAlarmRegistry()
	cues := &fakeCuePlayer{}
	feed := &fakeFeed{}
	d := NewDispatcher(ledger, alarms, cues, feed, nil, map[string]Policy{
		"broken":          panickyPolicy{},
		models.ROLE_ADMIN: NewRolePolicy(models.ROLE_ADMIN),
	})
	t.Cleanup(alarms.StopAll)

	alert := NewAlert(AlertNewOrder, snap("uuid-1", models.ORDER_STATUS_NEW))
	broken := models.User{ID: 4, Role: "broken", Status: models.STATUS_ACTIVE}

	// A panicking policy counts as not relevant; the other recipient still
	// gets the alert.
	delivered := d.Dispatch(alert, DedupKey("uuid-1", AlertNewOrder, "x"), []models.User{broken, admin()})
	assert.Equal(t, 1, delivered)
	assert.Equal(t, 1, feed.count())
}

func TestSoundForAlert(t *testing.T) {
	assert.Equal(t, SoundAlertCue, SoundForAlert(AlertNewOrder, false))
	assert.Equal(t, SoundSubtleCue, SoundForAlert(AlertOrderUpdated, true))
	assert.Equal(t, SoundAlarmCue, SoundForAlert(AlertPaymentTimer, false))
	assert.Equal(t, SoundAlarmCue, SoundForAlert(AlertOrderTimer, false))
}

func TestAlarmRegistryLifecycle(t *testing.T) {
	r := NewAlarmRegistry()
	t.Cleanup(r.StopAll)

	fired := make(chan struct{}, 16)
	r.Start("uuid-1", 10*time.Millisecond, 0, func() { fired <- struct{}{} })
	require.True(t, r.Active("uuid-1"))

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("alarm never fired")
	}

	r.Stop("uuid-1")
	assert.False(t, r.Active("uuid-1"))
}

func TestAlarmRegistryReplacesRunningAlarm(t *testing.T) {
	r := NewAlarmRegistry()
	t.Cleanup(r.StopAll)

	r.Start("uuid-1", time.Hour, 0, func() {})
	r.Start("uuid-1", time.Hour, 0, func() {})
	assert.Equal(t, 1, r.Count())
}

func TestAlarmRegistryDurationExpiry(t *testing.T) {
	r := NewAlarmRegistry()
	t.Cleanup(r.StopAll)

	r.Start("uuid-1", time.Hour, 20*time.Millisecond, func() {})
	require.True(t, r.Active("uuid-1"))

	assert.Eventually(t, func() bool {
		return !r.Active("uuid-1")
	}, time.Second, 10*time.Millisecond)
}
