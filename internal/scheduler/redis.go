package scheduler

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultKey       = "seat_hold_releases"
	DefaultBatchSize = 100
)

// popDueScript removes and returns up to ARGV[2] members whose score is at
// or below ARGV[1]. Running it as one script keeps two workers from popping
// the same release.
var popDueScript = redis.NewScript(`
local due = redis.call("ZRANGEBYSCORE", KEYS[1], "-inf", ARGV[1], "LIMIT", 0, ARGV[2])
if #due > 0 then
	redis.call("ZREM", KEYS[1], unpack(due))
end
return due
`)

// RedisHoldScheduler keeps pending hold releases in a sorted set scored by
// the release time in unix milliseconds, so they survive restarts.
type RedisHoldScheduler struct {
	client    redis.UniversalClient
	key       string
	batchSize int
}

func NewRedisHoldScheduler(client redis.UniversalClient) *RedisHoldScheduler {
	return &RedisHoldScheduler{
		client:    client,
		key:       DefaultKey,
		batchSize: DefaultBatchSize,
	}
}

func (s *RedisHoldScheduler) Schedule(ctx context.Context, screeningSeatID int, at time.Time) error {
	return s.client.ZAdd(ctx, s.key, redis.Z{
		Score:  float64(at.UnixMilli()),
		Member: strconv.Itoa(screeningSeatID),
	}).Err()
}

func (s *RedisHoldScheduler) Cancel(ctx context.Context, screeningSeatIDs ...int) error {
	if len(screeningSeatIDs) == 0 {
		return nil
	}

	members := make([]any, len(screeningSeatIDs))
	for i, id := range screeningSeatIDs {
		members[i] = strconv.Itoa(id)
	}

	return s.client.ZRem(ctx, s.key, members...).Err()
}

func (s *RedisHoldScheduler) PopDue(ctx context.Context, now time.Time) ([]int, error) {
	members, err := popDueScript.Run(ctx, s.client, []string{s.key}, now.UnixMilli(), s.batchSize).StringSlice()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}

		return nil, err
	}

	ids := make([]int, 0, len(members))
	for _, m := range members {
		id, err := strconv.Atoi(m)
		if err != nil {
			continue
		}

		ids = append(ids, id)
	}

	return ids, nil
}
