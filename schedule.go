// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

package taskstore

import (
	"context"
	"time"

	"github.com/hemant/taskstore/internal/base"
	"github.com/hemant/taskstore/internal/rdb"
	"github.com/hemant/taskstore/internal/timeutil"
	"github.com/redis/go-redis/v9"
)

// A Schedule is a timestamp-ordered holding area for payloads that are not
// yet due, stored in a redis sorted set ranked by due time.
//
// Timestamps are stored at whole-second resolution; sub-second precision is
// neither guaranteed nor required.
//
// Read is the one place taskstore constructs a multi-step atomic guarantee
// itself: due payloads are collected and removed as a single server-side
// unit, so that any number of competing consumers across any number of
// processes each receive a given payload at most once, with no client-side
// locking.
type Schedule struct {
	name   string
	key    string
	broker *rdb.RDB
	clock  timeutil.Clock

	// When a Schedule has been created with an existing Redis connection, we
	// do not want to close it.
	sharedConnection bool
}

// NewSchedule returns a new Schedule bound to the given name, with a
// connection built from the given redis connection option.
func NewSchedule(name string, r RedisConnOpt) *Schedule {
	s := NewScheduleFromRedisClient(makeRedisClient(r), name)
	s.sharedConnection = false
	return s
}

// NewScheduleFromRedisClient returns a new Schedule bound to the given name,
// sharing the given redis client. Close on the returned Schedule leaves the
// client open.
func NewScheduleFromRedisClient(c redis.UniversalClient, name string) *Schedule {
	return &Schedule{
		name:             name,
		key:              base.ScheduleKey(name),
		broker:           rdb.NewRDB(c),
		clock:            timeutil.NewRealClock(),
		sharedConnection: true,
	}
}

// Name returns the user-supplied name of the schedule.
func (s *Schedule) Name() string { return s.name }

// Add inserts the given payload into the schedule, ranked by the given due
// time truncated to whole seconds.
func (s *Schedule) Add(ctx context.Context, msg []byte, due time.Time) error {
	return s.broker.ScheduleAdd(ctx, s.key, msg, due.Unix())
}

// Read atomically removes and returns every payload whose due time is at or
// before asOf. The result may be empty even though due payloads exist: when
// a competing reader races on the same range, the whole batch defers to that
// reader and this call returns nothing. Callers are expected to poll
// repeatedly, so an empty result is a normal outcome, never a fault.
//
// Across any number of retried calls by any number of callers, each payload
// is returned exactly once.
func (s *Schedule) Read(ctx context.Context, asOf time.Time) ([][]byte, error) {
	return s.broker.SchedulePop(ctx, s.key, asOf.Unix())
}

// ReadNow is shorthand for Read at the current time.
func (s *Schedule) ReadNow(ctx context.Context) ([][]byte, error) {
	return s.Read(ctx, s.clock.Now())
}

// Flush atomically clears the schedule.
func (s *Schedule) Flush(ctx context.Context) error {
	return s.broker.DeleteKeys(ctx, s.key)
}

// Ping performs a ping against the redis connection.
func (s *Schedule) Ping(ctx context.Context) error {
	return s.broker.Ping(ctx)
}

// Close closes the connection with redis.
// If the schedule was created with an existing redis client via
// NewScheduleFromRedisClient, the client is left open.
func (s *Schedule) Close() error {
	if s.sharedConnection {
		return nil
	}
	return s.broker.Close()
}
