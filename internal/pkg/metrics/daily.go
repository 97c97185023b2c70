package metrics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	dailyKeyPrefix = "stats:generation"
	dailyRetention = 90 * 24 * time.Hour
	dayLayout      = "2006-01-02"
)

// DayStats is the per-outcome count of one UTC day.
type DayStats struct {
	Date   string           `json:"date"`
	Counts map[string]int64 `json:"counts"`
	Total  int64            `json:"total"`
}

// DailyCounter keeps one Redis hash per UTC day with a field per outcome.
type DailyCounter struct {
	client *redis.Client
}

func NewDailyCounter(client *redis.Client) *DailyCounter {
	return &DailyCounter{client: client}
}

func dailyKey(day time.Time) string {
	return fmt.Sprintf("%s:%s", dailyKeyPrefix, day.UTC().Format(dayLayout))
}

// Incr adds one to outcome on the day of at.
func (d *DailyCounter) Incr(ctx context.Context, at time.Time, outcome string) error {
	key := dailyKey(at)
	pipe := d.client.TxPipeline()
	pipe.HIncrBy(ctx, key, outcome, 1)
	pipe.Expire(ctx, key, dailyRetention)
	_, err := pipe.Exec(ctx)
	return err
}

// Range returns the last days days ending at now, oldest first. Days without
// activity are included with empty counts.
func (d *DailyCounter) Range(ctx context.Context, now time.Time, days int) ([]DayStats, error) {
	if days <= 0 {
		return []DayStats{}, nil
	}

	start := now.UTC().AddDate(0, 0, -(days - 1))
	pipe := d.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, days)
	for i := 0; i < days; i++ {
		cmds[i] = pipe.HGetAll(ctx, dailyKey(start.AddDate(0, 0, i)))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	out := make([]DayStats, 0, days)
	for i, cmd := range cmds {
		stats := DayStats{
			Date:   start.AddDate(0, 0, i).Format(dayLayout),
			Counts: map[string]int64{},
		}
		for field, raw := range cmd.Val() {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				continue
			}
			stats.Counts[field] = n
			stats.Total += n
		}
		out = append(out, stats)
	}
	return out, nil
}
