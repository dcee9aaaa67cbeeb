// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

package taskstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueueFIFO(t *testing.T) {
	_, c := newTestRedis(t)
	ctx := context.Background()
	q := NewQueueFromRedisClient(c, "fifo")

	var want [][]byte
	for i := 0; i < 10; i++ {
		msg := []byte(fmt.Sprintf("task-%d", i))
		want = append(want, msg)
		require.NoError(t, q.Write(ctx, msg))
	}

	for i := 0; i < 10; i++ {
		got, ok, err := q.Read(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, want[i], got)
	}

	_, ok, err := q.Read(ctx)
	require.NoError(t, err)
	require.False(t, ok, "drained queue should report no payload")
}

func TestQueueReadEmpty(t *testing.T) {
	_, c := newTestRedis(t)
	ctx := context.Background()
	q := NewQueueFromRedisClient(c, "empty")

	msg, ok, err := q.Read(ctx)
	require.NoError(t, err, "empty queue is not an error")
	require.False(t, ok)
	require.Nil(t, msg)
}

func TestQueueRemove(t *testing.T) {
	_, c := newTestRedis(t)
	ctx := context.Background()
	q := NewQueueFromRedisClient(c, "remove")

	require.NoError(t, q.Write(ctx, []byte("a")))
	require.NoError(t, q.Write(ctx, []byte("b")))
	require.NoError(t, q.Write(ctx, []byte("a")))

	require.NoError(t, q.Remove(ctx, []byte("a")))

	n, err := q.Len(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, n, "remove takes out exactly one occurrence")

	// Removing an absent payload is a no-op.
	require.NoError(t, q.Remove(ctx, []byte("nope")))
	n, err = q.Len(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
}

func TestQueueFlush(t *testing.T) {
	_, c := newTestRedis(t)
	ctx := context.Background()
	q := NewQueueFromRedisClient(c, "flush")

	require.NoError(t, q.Write(ctx, []byte("a")))
	require.NoError(t, q.Write(ctx, []byte("b")))
	require.NoError(t, q.Flush(ctx))

	n, err := q.Len(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 0, n)

	_, ok, err := q.Read(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestQueueLen(t *testing.T) {
	_, c := newTestRedis(t)
	ctx := context.Background()
	q := NewQueueFromRedisClient(c, "len")

	n, err := q.Len(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 0, n)

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Write(ctx, []byte("x")))
	}
	n, err = q.Len(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 3, n)
}

func TestQueuePropagatesConnectivityErrors(t *testing.T) {
	s, c := newTestRedis(t)
	ctx := context.Background()
	q := NewQueueFromRedisClient(c, "down")

	s.Close()

	require.Error(t, q.Write(ctx, []byte("x")))
	_, _, err := q.Read(ctx)
	require.Error(t, err, "non-blocking read must distinguish outage from empty")
	_, err = q.Len(ctx)
	require.Error(t, err)
}

func TestBlockingQueueReadReturnsItem(t *testing.T) {
	_, c := newTestRedis(t)
	ctx := context.Background()
	q := NewBlockingQueueFromRedisClient(c, "blocking", time.Second)

	require.NoError(t, q.Write(ctx, []byte("hello")))

	msg, ok, err := q.Read(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("hello"), msg)
}

func TestBlockingQueueReadTimeout(t *testing.T) {
	_, c := newTestRedis(t)
	ctx := context.Background()
	q := NewBlockingQueueFromRedisClient(c, "blocking", time.Second)

	start := time.Now()
	msg, ok, err := q.Read(ctx)
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, msg)
	require.GreaterOrEqual(t, elapsed, 900*time.Millisecond, "should block for close to the full timeout")
	require.Less(t, elapsed, 3*time.Second, "should not block indefinitely")
}

func TestBlockingQueueReadAbsorbsConnectivityErrors(t *testing.T) {
	s, c := newTestRedis(t)
	ctx := context.Background()
	q := NewBlockingQueueFromRedisClient(c, "blocking", time.Second)

	s.Close()

	// A server gone mid-wait is indistinguishable from a timeout and must
	// surface as plain absence.
	msg, ok, err := q.Read(ctx)
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, msg)
}
