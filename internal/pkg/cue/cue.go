package cue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/VyaparLabs/OrderDesk/internal/pkg/cache"
)

// Sound identifiers the terminal UI maps to audio assets
const (
	SoundAlert  = "alert"
	SoundSubtle = "alert_subtle"
	SoundAlarm  = "alarm"
)

const (
	cueKeyPrefix = "cues:user:"
	maxPending   = 100
	cueTTL       = 10 * time.Minute
)

// Cue is one pending sound/toast instruction for a user's terminal. The
// order UUID doubles as the navigation target of the toast.
type Cue struct {
	Sound     string    `json:"sound"`
	OrderUUID string    `json:"order_uuid"`
	OrderNo   string    `json:"order_no"`
	AlertType string    `json:"alert_type"`
	At        time.Time `json:"at"`
}

func userKey(userID uint) string {
	return fmt.Sprintf("%s%d", cueKeyPrefix, userID)
}

// Push queues a cue for a user. Best effort: a failed push is logged and
// dropped, never surfaced to the alert pipeline.
func Push(userID uint, c Cue) {
	if c.At.IsZero() {
		c.At = time.Now()
	}

	data, err := json.Marshal(c)
	if err != nil {
		log.Errorf("[Cue] Failed to marshal cue for user %d: %v", userID, err)
		return
	}

	ctx := context.Background()
	key := userKey(userID)
	pipe := cache.GetClient().Pipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, maxPending-1)
	pipe.Expire(ctx, key, cueTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Errorf("[Cue] Failed to push cue for user %d: %v", userID, err)
	}
}

// Drain returns and removes all pending cues for a user, oldest first.
func Drain(userID uint) ([]Cue, error) {
	ctx := context.Background()
	key := userKey(userID)

	pipe := cache.GetClient().TxPipeline()
	rangeCmd := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to drain cues: %w", err)
	}

	raw := rangeCmd.Val()
	cues := make([]Cue, 0, len(raw))
	// LPush stores newest first; walk backwards for chronological order
	for i := len(raw) - 1; i >= 0; i-- {
		var c Cue
		if err := json.Unmarshal([]byte(raw[i]), &c); err != nil {
			log.Warnf("[Cue] Dropping malformed cue for user %d: %v", userID, err)
			continue
		}
		cues = append(cues, c)
	}
	return cues, nil
}
