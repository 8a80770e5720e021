package counter

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/askdrhq/askdr/internal/pkg/cache"
	"github.com/askdrhq/askdr/internal/pkg/database"
)

const dailyFeatureKey = "feature:counters:daily"

// AddFeatureUse increments the pending daily usage counter for a feature in
// Redis. The hash field encodes date and feature so a single flush covers
// day boundaries without coordination.
func AddFeatureUse(feature string) error {
	ctx := context.Background()
	field := time.Now().Format("2006-01-02") + "|" + feature
	return cache.GetClient().HIncrBy(ctx, dailyFeatureKey, field, 1).Err()
}

// FlushAll drains pending feature counters from Redis into the database.
func FlushAll() error {
	return flushDailyFeatureStats()
}

// flushDailyFeatureStats drains the Redis hash atomically and applies batched
// upserts to daily_feature_stats. Uses RENAME to a temporary key for atomic
// drain without losing in-flight increments.
func flushDailyFeatureStats() error {
	ctx := context.Background()
	rdb := cache.GetClient()

	tmpKey := fmt.Sprintf("%s:tmp:%d", dailyFeatureKey, time.Now().UnixNano())
	if err := rdb.Do(ctx, "RENAME", dailyFeatureKey, tmpKey).Err(); err != nil {
		// If key does not exist, nothing to flush
		if strings.Contains(strings.ToLower(err.Error()), "no such key") {
			return nil
		}
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

	type row struct {
		date    string
		feature string
		inc     int64
	}
	rows := make([]row, 0, len(data))
	for field, v := range data {
		parts := strings.SplitN(field, "|", 2)
		if len(parts) != 2 {
			continue
		}
		inc, ierr := strconv.ParseInt(v, 10, 64)
		if ierr != nil || inc == 0 {
			continue
		}
		rows = append(rows, row{date: parts[0], feature: parts[1], inc: inc})
	}
	if len(rows) == 0 {
		return nil
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].date != rows[j].date {
			return rows[i].date < rows[j].date
		}
		return rows[i].feature < rows[j].feature
	})

	// Single multi-row upsert keyed on the (date, feature) unique index.
	var builder strings.Builder
	args := make([]interface{}, 0, len(rows)*3)
	builder.WriteString("INSERT INTO daily_feature_stats (date, feature, count, created_at, updated_at) VALUES ")
	for i, r := range rows {
		if i > 0 {
			builder.WriteString(",")
		}
		builder.WriteString("(?, ?, ?, NOW(), NOW())")
		args = append(args, r.date, r.feature, r.inc)
	}
	builder.WriteString(" ON DUPLICATE KEY UPDATE count = count + VALUES(count), updated_at = NOW()")

	db := database.GetDB()
	return db.Exec(builder.String(), args...).Error
}
