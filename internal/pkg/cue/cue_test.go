package cue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VyaparLabs/OrderDesk/internal/pkg/cache"
	"github.com/VyaparLabs/OrderDesk/internal/pkg/env"
)

// requireTestRedis skips the test when no Redis endpoint is reachable.
func requireTestRedis(t *testing.T) {
	t.Helper()

	hosts := []string{env.GetEnv("CACHE_HOST", ""), "cache", "localhost", "127.0.0.1"}
	port := env.GetEnv("CACHE_PORT", "6379")

	var lastErr error
	for _, host := range hosts {
		if host == "" {
			continue
		}
		client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port)})
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		_, err := client.Ping(ctx).Result()
		cancel()
		_ = client.Close()
		if err == nil {
			if env.Env == nil {
				env.Env = map[string]string{}
			}
			env.Env["CACHE_HOST"] = host
			env.Env["CACHE_PORT"] = port
			cache.SetupCache()
			return
		}
		lastErr = err
	}
	t.Skipf("Skipping Redis-dependent test: no reachable Redis endpoint (%v)", lastErr)
}

func clearUserCues(t *testing.T, userID uint) {
	t.Helper()
	require.NoError(t, cache.GetClient().Del(context.Background(), userKey(userID)).Err())
}

func TestPushDrainChronologicalOrder(t *testing.T) {
	requireTestRedis(t)
	const userID = 90001
	clearUserCues(t, userID)

	Push(userID, Cue{Sound: SoundAlert, OrderUUID: "uuid-1", OrderNo: "BO-1001", AlertType: "new_order"})
	Push(userID, Cue{Sound: SoundAlarm, OrderUUID: "uuid-2", OrderNo: "BO-1002", AlertType: "payment_timer"})

	cues, err := Drain(userID)
	require.NoError(t, err)
	require.Len(t, cues, 2)
	assert.Equal(t, "uuid-1", cues[0].OrderUUID)
	assert.Equal(t, SoundAlert, cues[0].Sound)
	assert.Equal(t, "uuid-2", cues[1].OrderUUID)
	assert.Equal(t, SoundAlarm, cues[1].Sound)
	assert.False(t, cues[0].At.IsZero())
}

func TestDrainEmptiesQueue(t *testing.T) {
	requireTestRedis(t)
	const userID = 90002
	clearUserCues(t, userID)

	Push(userID, Cue{Sound: SoundSubtle, OrderUUID: "uuid-3", AlertType: "order_updated"})

	first, err := Drain(userID)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := Drain(userID)
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestDrainIsolatedPerUser(t *testing.T) {
	requireTestRedis(t)
	const userA, userB = 90003, 90004
	clearUserCues(t, userA)
	clearUserCues(t, userB)

	Push(userA, Cue{Sound: SoundAlert, OrderUUID: "uuid-a", AlertType: "new_order"})

	cues, err := Drain(userB)
	require.NoError(t, err)
	assert.Empty(t, cues)

	cues, err = Drain(userA)
	require.NoError(t, err)
	assert.Len(t, cues, 1)
}
