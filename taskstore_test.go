// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

package taskstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	s := miniredis.RunT(t)
	c := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = c.Close() })
	return s, c
}

func TestParseRedisURI(t *testing.T) {
	tests := []struct {
		uri  string
		want RedisConnOpt
	}{
		{
			"redis://localhost:6379",
			RedisClientOpt{Addr: "localhost:6379"},
		},
		{
			"redis://localhost:6379/3",
			RedisClientOpt{Addr: "localhost:6379", DB: 3},
		},
		{
			"redis://:mypassword@localhost:6379",
			RedisClientOpt{Addr: "localhost:6379", Password: "mypassword"},
		},
		{
			"redis-socket:///var/run/redis/redis.sock",
			RedisClientOpt{Network: "unix", Addr: "/var/run/redis/redis.sock"},
		},
		{
			"redis-socket://:mypassword@/var/run/redis/redis.sock?db=7",
			RedisClientOpt{Network: "unix", Addr: "/var/run/redis/redis.sock", DB: 7, Password: "mypassword"},
		},
	}

	for _, tc := range tests {
		got, err := ParseRedisURI(tc.uri)
		require.NoError(t, err, "uri %q", tc.uri)
		require.Equal(t, tc.want, got, "uri %q", tc.uri)
	}
}

func TestParseRedisURITLS(t *testing.T) {
	got, err := ParseRedisURI("rediss://localhost:6379")
	require.NoError(t, err)
	opt, ok := got.(RedisClientOpt)
	require.True(t, ok)
	require.NotNil(t, opt.TLSConfig)
	require.Equal(t, "localhost", opt.TLSConfig.ServerName)
}

func TestParseRedisURIErrors(t *testing.T) {
	uris := []string{
		"http://localhost:6379",
		"redis://localhost:6379/badnumber",
		"redis-socket://?db=one",
	}
	for _, uri := range uris {
		_, err := ParseRedisURI(uri)
		require.Error(t, err, "uri %q", uri)
	}
}

func TestParseConnConfig(t *testing.T) {
	tests := []struct {
		desc string
		cfg  map[string]interface{}
		want RedisConnOpt
	}{
		{
			"url form",
			map[string]interface{}{"url": "redis://localhost:6379/2"},
			RedisClientOpt{Addr: "localhost:6379", DB: 2},
		},
		{
			"url form wins over fields",
			map[string]interface{}{
				"url":  "redis://example.com:6380",
				"host": "localhost",
				"port": 6379,
			},
			RedisClientOpt{Addr: "example.com:6380"},
		},
		{
			"field form",
			map[string]interface{}{"host": "localhost", "port": 6380, "db": 1},
			RedisClientOpt{Addr: "localhost:6380", DB: 1},
		},
		{
			"field form with string port",
			map[string]interface{}{"host": "localhost", "port": "6380"},
			RedisClientOpt{Addr: "localhost:6380"},
		},
		{
			"field form defaults port",
			map[string]interface{}{"host": "localhost", "password": "secret"},
			RedisClientOpt{Addr: "localhost:6379", Password: "secret"},
		},
	}

	for _, tc := range tests {
		got, err := ParseConnConfig(tc.cfg)
		require.NoError(t, err, tc.desc)
		require.Equal(t, tc.want, got, tc.desc)
	}
}

func TestParseConnConfigErrors(t *testing.T) {
	cfgs := []map[string]interface{}{
		{},
		{"port": 6379},
		{"host": "localhost", "port": "not-a-number"},
		{"url": "http://localhost"},
	}
	for _, cfg := range cfgs {
		_, err := ParseConnConfig(cfg)
		require.Error(t, err, "config %v", cfg)
	}
}

func TestComponentsUseSanitizedNamespacedKeys(t *testing.T) {
	_, c := newTestRedis(t)
	ctx := context.Background()

	q := NewQueueFromRedisClient(c, "My-Queue.01")
	require.NoError(t, q.Write(ctx, []byte("x")))
	require.Equal(t, int64(1), c.LLen(ctx, "taskstore.queue.yueue01").Val())
}
