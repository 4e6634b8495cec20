package distributed

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	gsctx "github.com/vnykmshr/gosem/pkg/common/context"
	gserrors "github.com/vnykmshr/gosem/pkg/common/errors"
	"github.com/vnykmshr/gosem/pkg/metrics"
)

// Acquire outcome label values.
const (
	outcomeGranted = "granted"
	outcomeDenied  = "denied"
	outcomeError   = "error"
)

// redisSemaphore implements a distributed counting semaphore on Redis. Held
// slots live in a sorted set keyed by lease ID with the lease deadline as
// score, so expiry is a range query and reaping is a range delete.
type redisSemaphore struct {
	config Config
	keys   map[string]string
	closed atomic.Bool

	acquireScript *redis.Script
	releaseScript *redis.Script
	renewScript   *redis.Script
	sweepScript   *redis.Script

	sweeper  *cron.Cron
	leaseSeq atomic.Uint64
	registry *metrics.Registry
}

// newRedisSemaphore creates the semaphore, registers this instance, and
// starts the lease sweeper.
func newRedisSemaphore(config Config) (Semaphore, error) {
	rs := &redisSemaphore{
		config:   config,
		keys:     redisKeys(config.Key),
		registry: metrics.DefaultRegistry,
	}

	rs.acquireScript = redis.NewScript(luaAcquire)
	rs.releaseScript = redis.NewScript(luaRelease)
	rs.renewScript = redis.NewScript(luaRenew)
	rs.sweepScript = redis.NewScript(luaSweep)

	if err := rs.initialize(context.Background()); err != nil {
		return nil, err
	}

	rs.sweeper = cron.New()
	_, err := rs.sweeper.AddFunc(fmt.Sprintf("@every %s", config.SweepSchedule), rs.sweep)
	if err != nil {
		return nil, gserrors.NewOperationError("distributed", "schedule_sweep", err)
	}
	rs.sweeper.Start()

	return rs, nil
}

// initialize stores the shared configuration and registers this instance.
func (rs *redisSemaphore) initialize(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, rs.config.RedisTimeout)
	defer cancel()

	pipe := rs.config.Redis.Pipeline()
	pipe.HSet(ctx, rs.keys["config"], map[string]interface{}{
		"capacity":  rs.config.Capacity,
		"lease_ttl": rs.config.LeaseTTL.String(),
	})
	pipe.SAdd(ctx, rs.keys["instances"], rs.config.InstanceID)

	if _, err := pipe.Exec(ctx); err != nil {
		return gserrors.NewOperationError("distributed", "initialize", err)
	}
	return nil
}

func (rs *redisSemaphore) newLeaseID() string {
	return fmt.Sprintf("%s:%d", rs.config.InstanceID, rs.leaseSeq.Add(1))
}

// TryAcquire attempts to claim a slot without waiting.
func (rs *redisSemaphore) TryAcquire(ctx context.Context) (*Lease, error) {
	if rs.closed.Load() {
		return nil, gserrors.ErrClosed
	}

	ctx, cancel := context.WithTimeout(ctx, rs.config.RedisTimeout)
	defer cancel()

	now := time.Now()
	lease := &Lease{
		ID:         rs.newLeaseID(),
		InstanceID: rs.config.InstanceID,
		AcquiredAt: now,
		Deadline:   now.Add(rs.config.LeaseTTL),
	}

	result, err := rs.acquireScript.Run(ctx, rs.config.Redis,
		[]string{rs.keys["leases"], rs.keys["stats"]},
		timeToScore(now),
		rs.config.Capacity,
		lease.ID,
		timeToScore(lease.Deadline),
	).Result()
	if err != nil {
		rs.registry.DistributedAcquires.WithLabelValues(rs.config.Key, outcomeError).Inc()
		return nil, gserrors.NewOperationError("distributed", "acquire", err)
	}

	granted, ok := result.(int64)
	if !ok {
		return nil, gserrors.NewOperationError("distributed", "acquire",
			fmt.Errorf("unexpected script result %T", result))
	}
	if granted != 1 {
		rs.registry.DistributedAcquires.WithLabelValues(rs.config.Key, outcomeDenied).Inc()
		return nil, gserrors.ErrCapacityExceeded
	}

	rs.registry.DistributedAcquires.WithLabelValues(rs.config.Key, outcomeGranted).Inc()
	rs.registry.DistributedLeases.WithLabelValues(rs.config.Key).Inc()
	return lease, nil
}

// Acquire polls for a slot until one is claimed or ctx is done.
func (rs *redisSemaphore) Acquire(ctx context.Context) (*Lease, error) {
	ticker := time.NewTicker(rs.config.RetryInterval)
	defer ticker.Stop()

	for {
		lease, err := rs.TryAcquire(ctx)
		switch {
		case err == nil:
			return lease, nil
		case !gserrors.IsRetryable(err):
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, gsctx.Classify(ctx.Err())
		case <-ticker.C:
		}
	}
}

// Release returns the leased slot.
func (rs *redisSemaphore) Release(ctx context.Context, lease *Lease) error {
	if rs.closed.Load() {
		return gserrors.ErrClosed
	}
	if lease == nil {
		return gserrors.NewOperationError("distributed", "release", gserrors.ErrInvalidOperation).
			WithContext("nil lease")
	}

	ctx, cancel := context.WithTimeout(ctx, rs.config.RedisTimeout)
	defer cancel()

	result, err := rs.releaseScript.Run(ctx, rs.config.Redis,
		[]string{rs.keys["leases"]}, lease.ID).Result()
	if err != nil {
		return gserrors.NewOperationError("distributed", "release", err)
	}

	if removed, _ := result.(int64); removed == 0 {
		return gserrors.NewOperationError("distributed", "release", gserrors.ErrInvalidOperation).
			WithContext("lease not held; it may have expired and been reaped")
	}
	rs.registry.DistributedLeases.WithLabelValues(rs.config.Key).Dec()
	return nil
}

// Renew pushes the lease deadline forward by the configured TTL.
func (rs *redisSemaphore) Renew(ctx context.Context, lease *Lease) error {
	if rs.closed.Load() {
		return gserrors.ErrClosed
	}
	if lease == nil {
		return gserrors.NewOperationError("distributed", "renew", gserrors.ErrInvalidOperation).
			WithContext("nil lease")
	}

	ctx, cancel := context.WithTimeout(ctx, rs.config.RedisTimeout)
	defer cancel()

	deadline := time.Now().Add(rs.config.LeaseTTL)
	result, err := rs.renewScript.Run(ctx, rs.config.Redis,
		[]string{rs.keys["leases"]}, lease.ID, timeToScore(deadline)).Result()
	if err != nil {
		return gserrors.NewOperationError("distributed", "renew", err)
	}

	if renewed, _ := result.(int64); renewed == 0 {
		return gserrors.NewOperationError("distributed", "renew", gserrors.ErrInvalidOperation).
			WithContext("lease not held; it may have expired and been reaped")
	}
	lease.Deadline = deadline
	return nil
}

// sweep reaps expired leases. Runs on the cron schedule; every instance
// sweeps, the range delete makes concurrent sweeps safe.
func (rs *redisSemaphore) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), rs.config.RedisTimeout)
	defer cancel()

	result, err := rs.sweepScript.Run(ctx, rs.config.Redis,
		[]string{rs.keys["leases"], rs.keys["stats"]},
		timeToScore(time.Now())).Result()
	if err != nil {
		return
	}

	rs.registry.DistributedSweeps.WithLabelValues(rs.config.Key).Inc()
	if reaped, _ := result.(int64); reaped > 0 {
		rs.registry.DistributedReaped.WithLabelValues(rs.config.Key).Add(float64(reaped))
	}
}

// Stats returns current semaphore statistics.
func (rs *redisSemaphore) Stats(ctx context.Context) (*Stats, error) {
	if rs.closed.Load() {
		return nil, gserrors.ErrClosed
	}

	ctx, cancel := context.WithTimeout(ctx, rs.config.RedisTimeout)
	defer cancel()

	pipe := rs.config.Redis.Pipeline()
	heldCmd := pipe.ZCount(ctx, rs.keys["leases"], strconv.FormatInt(timeToScore(time.Now()), 10), "+inf")
	statsCmd := pipe.HGetAll(ctx, rs.keys["stats"])
	instancesCmd := pipe.SMembers(ctx, rs.keys["instances"])

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, gserrors.NewOperationError("distributed", "stats", err)
	}

	statsMap := statsCmd.Val()
	total, _ := strconv.ParseInt(statsMap["total_requests"], 10, 64)
	granted, _ := strconv.ParseInt(statsMap["granted"], 10, 64)
	denied, _ := strconv.ParseInt(statsMap["denied"], 10, 64)
	reaped, _ := strconv.ParseInt(statsMap["reaped"], 10, 64)

	return &Stats{
		Capacity:        rs.config.Capacity,
		Held:            int(heldCmd.Val()),
		TotalRequests:   total,
		Granted:         granted,
		Denied:          denied,
		Reaped:          reaped,
		ActiveInstances: instancesCmd.Val(),
	}, nil
}

// Reset clears the semaphore state.
func (rs *redisSemaphore) Reset(ctx context.Context) error {
	if rs.closed.Load() {
		return gserrors.ErrClosed
	}

	ctx, cancel := context.WithTimeout(ctx, rs.config.RedisTimeout)
	defer cancel()

	keys := make([]string, 0, len(rs.keys))
	for _, key := range rs.keys {
		keys = append(keys, key)
	}
	if err := rs.config.Redis.Del(ctx, keys...).Err(); err != nil {
		return gserrors.NewOperationError("distributed", "reset", err)
	}

	rs.registry.DistributedLeases.WithLabelValues(rs.config.Key).Set(0)
	return rs.initialize(ctx)
}

// Close stops the sweeper and deregisters this instance. Leases held by this
// instance are left to expire.
func (rs *redisSemaphore) Close() error {
	if rs.closed.Swap(true) {
		return gserrors.ErrClosed
	}
	rs.sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), rs.config.RedisTimeout)
	defer cancel()
	if err := rs.config.Redis.SRem(ctx, rs.keys["instances"], rs.config.InstanceID).Err(); err != nil {
		return gserrors.NewOperationError("distributed", "close", err)
	}
	return nil
}

// Lua scripts for atomic lease operations.
const luaAcquire = `
-- KEYS[1]: leases zset (member = lease id, score = deadline)
-- KEYS[2]: stats hash
-- ARGV[1]: now
-- ARGV[2]: capacity
-- ARGV[3]: lease id
-- ARGV[4]: lease deadline

redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
redis.call('HINCRBY', KEYS[2], 'total_requests', 1)

local held = redis.call('ZCARD', KEYS[1])
if held < tonumber(ARGV[2]) then
    redis.call('ZADD', KEYS[1], ARGV[4], ARGV[3])
    redis.call('HINCRBY', KEYS[2], 'granted', 1)
    return 1
end

redis.call('HINCRBY', KEYS[2], 'denied', 1)
return 0
`

const luaRelease = `
-- KEYS[1]: leases zset
-- ARGV[1]: lease id
return redis.call('ZREM', KEYS[1], ARGV[1])
`

const luaRenew = `
-- KEYS[1]: leases zset
-- ARGV[1]: lease id
-- ARGV[2]: new deadline

if redis.call('ZSCORE', KEYS[1], ARGV[1]) == false then
    return 0
end
redis.call('ZADD', KEYS[1], 'XX', ARGV[2], ARGV[1])
return 1
`

const luaSweep = `
-- KEYS[1]: leases zset
-- KEYS[2]: stats hash
-- ARGV[1]: now

local reaped = redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
if reaped > 0 then
    redis.call('HINCRBY', KEYS[2], 'reaped', reaped)
end
return reaped
`
