// Package distributed provides a counting semaphore shared by multiple
// application instances, using Redis as the coordination backend.
//
// A local semaphore bounds concurrency within one process. When the scarce
// resource is global, such as a connection quota to a partner API or a
// fleet-wide batch job cap, the slots have to be shared across processes.
// This package keeps each held slot as a lease in a Redis sorted
// set, scored by the lease's deadline, and claims or returns slots through
// Lua scripts so every transition is atomic.
//
// # Leases
//
// Every grant is a Lease with a TTL. Holders that run longer than the TTL
// must Renew the lease, and a cron-driven sweeper on every instance reaps
// expired leases, so a crashed holder frees its slot after at most one TTL
// rather than pinning capacity forever.
//
// # Quick Start
//
//	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//
//	config := distributed.DefaultConfig()
//	config.Redis = rdb
//	config.Key = "partner_api_slots"
//	config.Capacity = 10
//
//	sem, err := distributed.New(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer sem.Close()
//
//	ctx := context.Background()
//	lease, err := sem.Acquire(ctx)
//	if err != nil {
//		return err
//	}
//	defer sem.Release(ctx, lease)
//
// # Multiple Instances
//
// Instances sharing a Key share the capacity. TryAcquire reports capacity
// exhaustion as ErrCapacityExceeded; Acquire polls at RetryInterval until a
// slot frees up or the context is done.
//
// # Consistency Notes
//
// The semaphore is atomic per operation but leases are time-based: a holder
// that stalls past its TTL loses the slot even though it may still be doing
// the work. Pick LeaseTTL comfortably above the longest expected hold, or
// renew from a heartbeat. Clock skew between instances shifts deadlines by
// the skew amount; keep NTP running.
package distributed
