package watcher

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

// DefaultAlarmInterval is the repeat cadence when the policy leaves
// RepeatInterval unset.
const DefaultAlarmInterval = 1500 * time.Millisecond

type alarm struct {
	stopCh chan struct{}
	once   sync.Once
}

func (a *alarm) stop() {
	a.once.Do(func() { close(a.stopCh) })
}

// AlarmRegistry runs at most one repeating alarm per order. Alarms are
// stopped on terminal status, on user attend, and when the watcher shuts
// down.
type AlarmRegistry struct {
	mu     sync.Mutex
	alarms map[string]*alarm
}

// NewAlarmRegistry creates an empty registry.
func NewAlarmRegistry() *AlarmRegistry {
	return &AlarmRegistry{alarms: make(map[string]*alarm)}
}

// Start begins a repeating alarm for an order, replacing any running one.
// fire is invoked once per interval; a positive duration self-terminates the
// alarm after that long.
func (r *AlarmRegistry) Start(orderUUID string, interval, duration time.Duration, fire func()) {
	if interval <= 0 {
		interval = DefaultAlarmInterval
	}

	r.mu.Lock()
	if existing, ok := r.alarms[orderUUID]; ok {
		existing.stop()
	}
	a := &alarm{stopCh: make(chan struct{})}
	r.alarms[orderUUID] = a
	r.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var expire <-chan time.Time
		if duration > 0 {
			timer := time.NewTimer(duration)
			defer timer.Stop()
			expire = timer.C
		}

		for {
			select {
			case <-a.stopCh:
				return
			case <-expire:
				log.Debugf("[Watcher] Alarm for order %s expired after %s", orderUUID, duration)
				r.Stop(orderUUID)
				return
			case <-ticker.C:
				fire()
			}
		}
	}()
}

// Stop cancels the alarm for an order, if any.
func (r *AlarmRegistry) Stop(orderUUID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.alarms[orderUUID]; ok {
		a.stop()
		delete(r.alarms, orderUUID)
	}
}

// StopAll cancels every running alarm (watcher teardown).
func (r *AlarmRegistry) StopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for uuid, a := range r.alarms {
		a.stop()
		delete(r.alarms, uuid)
	}
}

// Active reports whether an alarm is currently running for the order.
func (r *AlarmRegistry) Active(orderUUID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.alarms[orderUUID]
	return ok
}

// Count returns the number of running alarms.
func (r *AlarmRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.alarms)
}
