// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

package taskstore

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hemant/taskstore/internal/timeutil"
	"github.com/stretchr/testify/require"
)

func TestScheduleReadDue(t *testing.T) {
	_, c := newTestRedis(t)
	ctx := context.Background()
	s := NewScheduleFromRedisClient(c, "due")

	t0 := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.Add(ctx, []byte("A"), t0))
	require.NoError(t, s.Add(ctx, []byte("B"), t0.Add(5*time.Minute)))

	got, err := s.Read(ctx, t0.Add(2*time.Minute))
	require.NoError(t, err)
	require.Equal(t, [][]byte{[]byte("A")}, got)

	got, err = s.Read(ctx, t0.Add(10*time.Minute))
	require.NoError(t, err)
	require.Equal(t, [][]byte{[]byte("B")}, got)

	got, err = s.Read(ctx, t0.Add(10*time.Minute))
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestScheduleReadNeverReturnsFutureItems(t *testing.T) {
	_, c := newTestRedis(t)
	ctx := context.Background()
	s := NewScheduleFromRedisClient(c, "future")

	t0 := time.Now()
	require.NoError(t, s.Add(ctx, []byte("later"), t0.Add(time.Hour)))

	got, err := s.Read(ctx, t0)
	require.NoError(t, err)
	require.Empty(t, got)

	// The item is still there for a poll past its due time.
	got, err = s.Read(ctx, t0.Add(2*time.Hour))
	require.NoError(t, err)
	require.Equal(t, [][]byte{[]byte("later")}, got)
}

func TestScheduleReadBoundaryInclusive(t *testing.T) {
	_, c := newTestRedis(t)
	ctx := context.Background()
	s := NewScheduleFromRedisClient(c, "boundary")

	t0 := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.Add(ctx, []byte("exact"), t0))

	got, err := s.Read(ctx, t0)
	require.NoError(t, err)
	require.Equal(t, [][]byte{[]byte("exact")}, got, "due-timestamp == poll timestamp is due")
}

func TestScheduleReadNow(t *testing.T) {
	_, c := newTestRedis(t)
	ctx := context.Background()
	s := NewScheduleFromRedisClient(c, "now")

	t0 := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	clock := timeutil.NewSimulatedClock(t0)
	s.clock = clock

	require.NoError(t, s.Add(ctx, []byte("soon"), t0.Add(time.Minute)))

	got, err := s.ReadNow(ctx)
	require.NoError(t, err)
	require.Empty(t, got)

	clock.AdvanceTime(2 * time.Minute)
	got, err = s.ReadNow(ctx)
	require.NoError(t, err)
	require.Equal(t, [][]byte{[]byte("soon")}, got)
}

func TestScheduleFlush(t *testing.T) {
	_, c := newTestRedis(t)
	ctx := context.Background()
	s := NewScheduleFromRedisClient(c, "flush")

	t0 := time.Now()
	require.NoError(t, s.Add(ctx, []byte("a"), t0))
	require.NoError(t, s.Flush(ctx))

	got, err := s.Read(ctx, t0.Add(time.Hour))
	require.NoError(t, err)
	require.Empty(t, got)
}

// Concurrency property: for N concurrent callers polling the same schedule
// with M due items total, the union of all returned items equals the M due
// items with no duplicates and no omissions, given that callers retry on an
// empty result.
func TestScheduleConcurrentReadNoDoubleDelivery(t *testing.T) {
	_, c := newTestRedis(t)
	ctx := context.Background()
	s := NewScheduleFromRedisClient(c, "race")

	const numItems = 50
	const numReaders = 8

	t0 := time.Now()
	want := make(map[string]bool)
	for i := 0; i < numItems; i++ {
		msg := fmt.Sprintf("item-%d", i)
		want[msg] = true
		require.NoError(t, s.Add(ctx, []byte(msg), t0.Add(-time.Duration(i)*time.Second)))
	}

	var (
		mu       sync.Mutex
		received []string
		readErr  error
	)
	deadline := time.Now().Add(5 * time.Second)

	var wg sync.WaitGroup
	for i := 0; i < numReaders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(deadline) {
				got, err := s.Read(ctx, t0)
				if err != nil {
					mu.Lock()
					readErr = err
					mu.Unlock()
					return
				}
				mu.Lock()
				for _, msg := range got {
					received = append(received, string(msg))
				}
				done := len(received) >= numItems
				mu.Unlock()
				if done {
					return
				}
			}
		}()
	}
	wg.Wait()

	require.NoError(t, readErr)
	require.Len(t, received, numItems, "every due item delivered exactly once")
	seen := make(map[string]bool)
	for _, msg := range received {
		require.False(t, seen[msg], "item %q delivered twice", msg)
		require.True(t, want[msg], "item %q was never added", msg)
		seen[msg] = true
	}
}
