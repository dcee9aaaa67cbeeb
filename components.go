// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

package taskstore

import (
	"context"
	"time"
)

// The four backend kinds form a closed set, each behind a capability
// interface. The assertions below verify at compile time that every variant
// satisfies its contract.

// QueueBackend is the capability interface for queue-like backends.
type QueueBackend interface {
	Write(ctx context.Context, msg []byte) error
	Read(ctx context.Context) ([]byte, bool, error)
	Remove(ctx context.Context, msg []byte) error
	Flush(ctx context.Context) error
	Len(ctx context.Context) (int64, error)
}

// ScheduleBackend is the capability interface for schedule-like backends.
type ScheduleBackend interface {
	Add(ctx context.Context, msg []byte, due time.Time) error
	Read(ctx context.Context, asOf time.Time) ([][]byte, error)
	Flush(ctx context.Context) error
}

// DataStoreBackend is the capability interface for result-store backends.
type DataStoreBackend interface {
	Put(ctx context.Context, key string, value []byte) error
	Peek(ctx context.Context, key string) ([]byte, bool, error)
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Flush(ctx context.Context) error
}

// EventEmitterBackend is the capability interface for emitter-like backends.
type EventEmitterBackend interface {
	Emit(ctx context.Context, msg []byte) error
}

var (
	_ QueueBackend        = (*Queue)(nil)
	_ QueueBackend        = (*BlockingQueue)(nil)
	_ ScheduleBackend     = (*Schedule)(nil)
	_ DataStoreBackend    = (*DataStore)(nil)
	_ EventEmitterBackend = (*EventEmitter)(nil)
)
