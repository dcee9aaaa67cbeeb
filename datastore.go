// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

package taskstore

import (
	"context"

	"github.com/hemant/taskstore/internal/base"
	"github.com/hemant/taskstore/internal/rdb"
	"github.com/redis/go-redis/v9"
)

// A DataStore is keyed result storage backed by a redis hash, one namespace
// per store instance.
//
// Reads use the comma-ok idiom to signal absence: a false second return
// value is the "no entry" marker and is distinguishable from any stored
// value, including an empty one.
type DataStore struct {
	name   string
	key    string
	broker *rdb.RDB

	// When a DataStore has been created with an existing Redis connection,
	// we do not want to close it.
	sharedConnection bool
}

// NewDataStore returns a new DataStore bound to the given name, with a
// connection built from the given redis connection option.
func NewDataStore(name string, r RedisConnOpt) *DataStore {
	s := NewDataStoreFromRedisClient(makeRedisClient(r), name)
	s.sharedConnection = false
	return s
}

// NewDataStoreFromRedisClient returns a new DataStore bound to the given
// name, sharing the given redis client. Close on the returned DataStore
// leaves the client open.
func NewDataStoreFromRedisClient(c redis.UniversalClient, name string) *DataStore {
	return &DataStore{
		name:             name,
		key:              base.ResultsKey(name),
		broker:           rdb.NewRDB(c),
		sharedConnection: true,
	}
}

// Name returns the user-supplied name of the store.
func (s *DataStore) Name() string { return s.name }

// Put inserts or overwrites the value stored under the given key.
func (s *DataStore) Put(ctx context.Context, key string, value []byte) error {
	return s.broker.ResultSet(ctx, s.key, key, value)
}

// Peek returns the value stored under the given key without removing it.
// The second return value reports whether an entry exists; a key that was
// never set or was already consumed reports false.
func (s *DataStore) Peek(ctx context.Context, key string) ([]byte, bool, error) {
	return s.broker.ResultPeek(ctx, s.key, key)
}

// Get returns the value stored under the given key and removes it.
//
// The read and the delete are two round-trips, not one store-side
// transaction: two concurrent Gets on the same key can both observe the
// value before either deletes it. That narrow window is an accepted
// limitation. Get never returns a value it then fails to delete; a failed
// delete surfaces as an error instead.
func (s *DataStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, ok, err := s.broker.ResultPeek(ctx, s.key, key)
	if err != nil || !ok {
		return nil, false, err
	}
	if err := s.broker.ResultDelete(ctx, s.key, key); err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Flush clears the entire result namespace for this store instance.
func (s *DataStore) Flush(ctx context.Context) error {
	return s.broker.DeleteKeys(ctx, s.key)
}

// Ping performs a ping against the redis connection.
func (s *DataStore) Ping(ctx context.Context) error {
	return s.broker.Ping(ctx)
}

// Close closes the connection with redis.
// If the store was created with an existing redis client via
// NewDataStoreFromRedisClient, the client is left open.
func (s *DataStore) Close() error {
	if s.sharedConnection {
		return nil
	}
	return s.broker.Close()
}
