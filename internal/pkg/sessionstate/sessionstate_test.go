package sessionstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirstLoadFlag(t *testing.T) {
	store := NewMemoryStore("test:flag")

	assert.False(t, store.FirstLoadDone())
	store.SetFirstLoadDone()
	assert.True(t, store.FirstLoadDone())
}

func TestFingerprintLifecycle(t *testing.T) {
	store := NewMemoryStore("test:fp")

	assert.Empty(t, store.GetFingerprint("uuid-1"))

	store.SetFingerprint("uuid-1", "fp-a")
	store.SetFingerprint("uuid-2", "fp-b")
	assert.Equal(t, "fp-a", store.GetFingerprint("uuid-1"))
	assert.Equal(t, "fp-b", store.GetFingerprint("uuid-2"))

	store.SetFingerprint("uuid-1", "fp-c")
	assert.Equal(t, "fp-c", store.GetFingerprint("uuid-1"))

	store.DeleteFingerprint("uuid-1")
	assert.Empty(t, store.GetFingerprint("uuid-1"))
	assert.Equal(t, "fp-b", store.GetFingerprint("uuid-2"))
}

func TestTrackedOrders(t *testing.T) {
	store := NewMemoryStore("test:tracked")

	assert.Empty(t, store.TrackedOrders())

	store.SetFingerprint("uuid-1", "fp-a")
	store.SetFingerprint("uuid-2", "fp-b")
	assert.ElementsMatch(t, []string{"uuid-1", "uuid-2"}, store.TrackedOrders())
}

func TestReset(t *testing.T) {
	store := NewMemoryStore("test:reset")

	store.SetFirstLoadDone()
	store.SetFingerprint("uuid-1", "fp-a")

	store.Reset()

	assert.False(t, store.FirstLoadDone())
	assert.Empty(t, store.GetFingerprint("uuid-1"))
	assert.Empty(t, store.TrackedOrders())
}
