// Copyright 2020 Kentaro Hibino. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

// Package rdb encapsulates the interactions with redis.
package rdb

import (
	"context"
	"time"

	"github.com/hemant/taskstore/internal/errors"
	"github.com/redis/go-redis/v9"
)

// RDB executes redis commands on behalf of the taskstore components.
//
// RDB performs no retries and holds no state besides the client; every
// method is a single request/response round-trip to the server except
// SchedulePop, which runs one server-side atomic script, and QueueBPop,
// which blocks for up to the given timeout.
type RDB struct {
	client redis.UniversalClient
}

// NewRDB returns a new instance of RDB.
func NewRDB(client redis.UniversalClient) *RDB {
	return &RDB{client: client}
}

// Close closes the connection with redis server.
func (r *RDB) Close() error {
	return r.client.Close()
}

// Client returns the reference to underlying redis client.
func (r *RDB) Client() redis.UniversalClient {
	return r.client
}

// Ping checks the connection with redis server.
func (r *RDB) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// DeleteKeys removes the given keys entirely. Used by every component's flush.
func (r *RDB) DeleteKeys(ctx context.Context, keys ...string) error {
	var op errors.Op = "rdb.DeleteKeys"
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return errors.E(op, errors.Unknown, &errors.RedisCommandError{Command: "del", Err: err})
	}
	return nil
}

/**********
   Queue
***********/

// QueuePush appends the given message to the tail of the queue stored at key.
func (r *RDB) QueuePush(ctx context.Context, key string, msg []byte) error {
	var op errors.Op = "rdb.QueuePush"
	if err := r.client.LPush(ctx, key, msg).Err(); err != nil {
		return errors.E(op, errors.Unknown, &errors.RedisCommandError{Command: "lpush", Err: err})
	}
	return nil
}

// QueuePop removes and returns one message from the head of the queue stored
// at key. The second return value reports whether a message was present;
// an empty queue is not an error.
func (r *RDB) QueuePop(ctx context.Context, key string) ([]byte, bool, error) {
	var op errors.Op = "rdb.QueuePop"
	res, err := r.client.RPop(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.E(op, errors.Unknown, &errors.RedisCommandError{Command: "rpop", Err: err})
	}
	return res, true, nil
}

// QueueBPop blocks until a message arrives at the head of the queue stored at
// key or the timeout elapses, whichever comes first. A timeout of zero blocks
// indefinitely.
//
// QueueBPop never returns an error: the blocking pop fails the same way
// whether the wait timed out or the server became unreachable mid-wait, and
// the two cannot be told apart with the information available. Both cases
// report a missing message.
func (r *RDB) QueueBPop(ctx context.Context, key string, timeout time.Duration) ([]byte, bool) {
	res, err := r.client.BRPop(ctx, timeout, key).Result()
	if err != nil {
		return nil, false
	}
	// BRPOP replies with [key, value].
	if len(res) != 2 {
		return nil, false
	}
	return []byte(res[1]), true
}

// QueueRemove removes one occurrence of the given message from the queue
// stored at key. Removing a message that is not present is a no-op.
func (r *RDB) QueueRemove(ctx context.Context, key string, msg []byte) error {
	var op errors.Op = "rdb.QueueRemove"
	if err := r.client.LRem(ctx, key, 1, msg).Err(); err != nil {
		return errors.E(op, errors.Unknown, &errors.RedisCommandError{Command: "lrem", Err: err})
	}
	return nil
}

// QueueLen returns the number of messages in the queue stored at key.
// The count is advisory; concurrent writers and readers may change it
// before the caller acts on it.
func (r *RDB) QueueLen(ctx context.Context, key string) (int64, error) {
	var op errors.Op = "rdb.QueueLen"
	n, err := r.client.LLen(ctx, key).Result()
	if err != nil {
		return 0, errors.E(op, errors.Unknown, &errors.RedisCommandError{Command: "llen", Err: err})
	}
	return n, nil
}

/*************
   Schedule
**************/

// KEYS[1] -> schedule sorted set
// ARGV[1] -> cutoff score (unix time in seconds)
//
// Collects every member with score <= cutoff, then deletes the same score
// range. The collected members are returned only if the delete removed
// exactly as many members as were collected; otherwise nothing is returned
// and the members stay claimable by the next poll. The script runs as one
// atomic unit on the server, so no two callers can both receive a member.
var schedulePopCmd = redis.NewScript(`
local res = redis.call("zrangebyscore", KEYS[1], "-inf", ARGV[1])
if redis.call("zremrangebyscore", KEYS[1], "-inf", ARGV[1]) == #res then
	return res
end
return {}
`)

// ScheduleAdd inserts the given message into the schedule stored at key,
// ranked by the given unix timestamp in seconds.
func (r *RDB) ScheduleAdd(ctx context.Context, key string, msg []byte, at int64) error {
	var op errors.Op = "rdb.ScheduleAdd"
	z := redis.Z{Score: float64(at), Member: msg}
	if err := r.client.ZAdd(ctx, key, z).Err(); err != nil {
		return errors.E(op, errors.Unknown, &errors.RedisCommandError{Command: "zadd", Err: err})
	}
	return nil
}

// SchedulePop atomically removes and returns every message in the schedule
// stored at key whose timestamp is <= cutoff (unix time in seconds).
//
// An empty result does not mean no messages are due: if a competing caller
// touched the score range while this call ran, the whole batch is yielded to
// that caller and this call returns nothing. Callers poll repeatedly, so a
// deferred batch is picked up on a later call; no message is ever returned
// to more than one caller.
func (r *RDB) SchedulePop(ctx context.Context, key string, cutoff int64) ([][]byte, error) {
	var op errors.Op = "rdb.SchedulePop"
	res, err := schedulePopCmd.Run(ctx, r.client, []string{key}, cutoff).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.E(op, errors.Unknown, &errors.RedisCommandError{Command: "eval", Err: err})
	}
	members, ok := res.([]interface{})
	if !ok {
		return nil, errors.E(op, errors.Internal, "command error: unexpected return value from schedule pop script")
	}
	msgs := make([][]byte, 0, len(members))
	for _, m := range members {
		s, ok := m.(string)
		if !ok {
			return nil, errors.E(op, errors.Internal, "command error: unexpected member type from schedule pop script")
		}
		msgs = append(msgs, []byte(s))
	}
	return msgs, nil
}

/****************
   Result store
*****************/

// ResultSet inserts or overwrites the given field in the result hash stored at key.
func (r *RDB) ResultSet(ctx context.Context, key, field string, value []byte) error {
	var op errors.Op = "rdb.ResultSet"
	if err := r.client.HSet(ctx, key, field, value).Err(); err != nil {
		return errors.E(op, errors.Unknown, &errors.RedisCommandError{Command: "hset", Err: err})
	}
	return nil
}

// ResultPeek returns the value of the given field in the result hash stored
// at key without removing it. The second return value reports whether the
// field exists; it distinguishes a missing field from a stored empty value.
func (r *RDB) ResultPeek(ctx context.Context, key, field string) ([]byte, bool, error) {
	var op errors.Op = "rdb.ResultPeek"
	exists, err := r.client.HExists(ctx, key, field).Result()
	if err != nil {
		return nil, false, errors.E(op, errors.Unknown, &errors.RedisCommandError{Command: "hexists", Err: err})
	}
	if !exists {
		return nil, false, nil
	}
	val, err := r.client.HGet(ctx, key, field).Bytes()
	if err == redis.Nil {
		// Field consumed between the existence check and the read.
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.E(op, errors.Unknown, &errors.RedisCommandError{Command: "hget", Err: err})
	}
	return val, true, nil
}

// ResultDelete removes the given field from the result hash stored at key.
func (r *RDB) ResultDelete(ctx context.Context, key, field string) error {
	var op errors.Op = "rdb.ResultDelete"
	if err := r.client.HDel(ctx, key, field).Err(); err != nil {
		return errors.E(op, errors.Unknown, &errors.RedisCommandError{Command: "hdel", Err: err})
	}
	return nil
}

/**********
   PubSub
***********/

// Publish broadcasts the given message on the given channel. Delivery is
// fire-and-forget: only subscribers present at publish time receive it.
func (r *RDB) Publish(ctx context.Context, channel string, msg []byte) error {
	var op errors.Op = "rdb.Publish"
	if err := r.client.Publish(ctx, channel, msg).Err(); err != nil {
		return errors.E(op, errors.Unknown, &errors.RedisCommandError{Command: "publish", Err: err})
	}
	return nil
}

// Subscribe returns a pubsub subscribed to the given channel.
// The caller confirms the subscription and closes the pubsub.
func (r *RDB) Subscribe(ctx context.Context, channel string) *redis.PubSub {
	return r.client.Subscribe(ctx, channel)
}
