package counter

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/VyaparLabs/OrderDesk/internal/pkg/cache"
	"github.com/VyaparLabs/OrderDesk/internal/pkg/database"
)

const (
	alertEmittedKey    = "alerts:counters:emitted"
	reconcilePassesKey = "watcher:counters:passes"
)

// AddAlert increments the pending emitted counter for an alert type in Redis
func AddAlert(alertType string) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, alertEmittedKey, alertType, 1).Err()
}

// AddReconcilePass increments the reconciliation pass counter in Redis
func AddReconcilePass() {
	ctx := context.Background()
	_ = cache.GetClient().Incr(ctx, reconcilePassesKey).Err()
}

// GetReconcilePasses returns the total number of reconciliation passes
func GetReconcilePasses() int64 {
	ctx := context.Background()
	n, err := cache.GetClient().Get(ctx, reconcilePassesKey).Int64()
	if err != nil {
		return 0
	}
	return n
}

// FlushAll flushes pending alert counters to the database
func FlushAll() error {
	return flushAlertCounters()
}

// flushAlertCounters drains the Redis hash atomically and applies batched
// upserts to the alert_stats table. Uses RENAME to a temporary key for
// atomic drain without losing in-flight increments.
func flushAlertCounters() error {
	ctx := context.Background()
	rdb := cache.GetClient()

	// Atomically move the hash to a temp key for draining
	tmpKey := fmt.Sprintf("%s:tmp:%d", alertEmittedKey, time.Now().UnixNano())
	if err := rdb.Do(ctx, "RENAME", alertEmittedKey, tmpKey).Err(); err != nil {
		// If key does not exist, nothing to flush
		if strings.Contains(strings.ToLower(err.Error()), "no such key") {
			return nil
		}
		// Some Redis libs return redis.Nil; treat as empty
		if err.Error() == "redis: nil" {
			return nil
		}
		return err
	}

	// Ensure cleanup of tmpKey even if later steps fail
	defer rdb.Del(ctx, tmpKey)

	data, err := rdb.HGetAll(ctx, tmpKey).Result()
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	type pair struct {
		alertType string
		inc       int64
	}
	pairs := make([]pair, 0, len(data))
	for k, v := range data {
		inc, ierr := strconv.ParseInt(v, 10, 64)
		if ierr != nil || inc == 0 {
			continue
		}
		pairs = append(pairs, pair{alertType: k, inc: inc})
	}
	if len(pairs) == 0 {
		return nil
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].alertType < pairs[j].alertType })

	// Upsert one row per alert type in a single statement
	var builder strings.Builder
	args := make([]interface{}, 0, len(pairs)*2)
	builder.WriteString("INSERT INTO alert_stats (alert_type, emitted, updated_at) VALUES ")
	for i, p := range pairs {
		if i > 0 {
			builder.WriteString(",")
		}
		builder.WriteString("(?, ?, NOW())")
		args = append(args, p.alertType, p.inc)
	}
	builder.WriteString(" ON DUPLICATE KEY UPDATE emitted = emitted + VALUES(emitted), updated_at = NOW()")

	db := database.GetDB()
	if err := db.Exec(builder.String(), args...).Error; err != nil {
		return err
	}
	return nil
}
