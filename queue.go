// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

package taskstore

import (
	"context"
	"time"

	"github.com/hemant/taskstore/internal/base"
	"github.com/hemant/taskstore/internal/rdb"
	"github.com/redis/go-redis/v9"
)

// A Queue is a FIFO queue of opaque byte payloads stored in a redis list.
//
// Any number of processes may write to and read from the same named queue
// concurrently; ordering among their operations is enforced by redis, which
// serializes its list commands. A Queue holds no local state besides its
// connection and is safe for concurrent use by multiple goroutines.
type Queue struct {
	name   string
	key    string
	broker *rdb.RDB

	// When a Queue has been created with an existing Redis connection, we do
	// not want to close it.
	sharedConnection bool
}

// NewQueue returns a new Queue bound to the given name, with a connection
// built from the given redis connection option.
func NewQueue(name string, r RedisConnOpt) *Queue {
	q := NewQueueFromRedisClient(makeRedisClient(r), name)
	q.sharedConnection = false
	return q
}

// NewQueueFromRedisClient returns a new Queue bound to the given name,
// sharing the given redis client. Close on the returned Queue leaves the
// client open.
func NewQueueFromRedisClient(c redis.UniversalClient, name string) *Queue {
	return &Queue{
		name:             name,
		key:              base.QueueKey(name),
		broker:           rdb.NewRDB(c),
		sharedConnection: true,
	}
}

// Name returns the user-supplied name of the queue.
func (q *Queue) Name() string { return q.name }

// Write appends the given payload to the tail of the queue.
func (q *Queue) Write(ctx context.Context, msg []byte) error {
	return q.broker.QueuePush(ctx, q.key, msg)
}

// Read removes and returns one payload from the head of the queue without
// blocking. The second return value reports whether a payload was present;
// an empty queue is a normal outcome, not an error.
func (q *Queue) Read(ctx context.Context) ([]byte, bool, error) {
	return q.broker.QueuePop(ctx, q.key)
}

// Remove removes one occurrence of the given payload from the queue.
// Removing a payload that is not present is a no-op.
func (q *Queue) Remove(ctx context.Context, msg []byte) error {
	return q.broker.QueueRemove(ctx, q.key, msg)
}

// Flush atomically empties the queue.
func (q *Queue) Flush(ctx context.Context) error {
	return q.broker.DeleteKeys(ctx, q.key)
}

// Len returns the current number of payloads in the queue. The count is
// advisory only; concurrent writers and readers may change it immediately.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.broker.QueueLen(ctx, q.key)
}

// Ping performs a ping against the redis connection.
func (q *Queue) Ping(ctx context.Context) error {
	return q.broker.Ping(ctx)
}

// Close closes the connection with redis.
// If the queue was created with an existing redis client via
// NewQueueFromRedisClient, the client is left open.
func (q *Queue) Close() error {
	if q.sharedConnection {
		return nil
	}
	return q.broker.Close()
}

// A BlockingQueue is a Queue whose Read suspends the calling goroutine until
// a payload becomes available or the configured timeout elapses.
//
// This is the only taskstore operation that blocks by design; consumers use
// it to pick up work nearly immediately instead of polling.
type BlockingQueue struct {
	*Queue

	// How long Read waits for a payload. Zero means wait indefinitely.
	readTimeout time.Duration
}

// NewBlockingQueue returns a new BlockingQueue bound to the given name, with
// a connection built from the given redis connection option. A readTimeout
// of zero makes Read wait indefinitely.
func NewBlockingQueue(name string, readTimeout time.Duration, r RedisConnOpt) *BlockingQueue {
	q := NewBlockingQueueFromRedisClient(makeRedisClient(r), name, readTimeout)
	q.sharedConnection = false
	return q
}

// NewBlockingQueueFromRedisClient returns a new BlockingQueue bound to the
// given name, sharing the given redis client.
func NewBlockingQueueFromRedisClient(c redis.UniversalClient, name string, readTimeout time.Duration) *BlockingQueue {
	return &BlockingQueue{
		Queue:       NewQueueFromRedisClient(c, name),
		readTimeout: readTimeout,
	}
}

// Read blocks until a payload arrives at the head of the queue or the
// configured timeout elapses, and reports the payload if one arrived.
//
// There is no way to differentiate the wait timing out from the redis server
// becoming unreachable mid-wait, so Read absorbs connectivity errors raised
// during the wait and reports both cases identically as no payload with a
// nil error. Callers must treat a missing payload as a normal poll outcome;
// use a HealthChecker to observe connectivity separately.
func (q *BlockingQueue) Read(ctx context.Context) ([]byte, bool, error) {
	msg, ok := q.broker.QueueBPop(ctx, q.key, q.readTimeout)
	return msg, ok, nil
}
