// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

package taskstore

import (
	"context"

	"github.com/hemant/taskstore/internal/log"
	"github.com/hemant/taskstore/internal/rdb"
	"github.com/redis/go-redis/v9"
)

// An EventEmitter broadcasts status messages on a named pubsub channel.
//
// Delivery is fire-and-forget and at-most-once: subscribers present at
// broadcast time receive the message, absent subscribers lose it
// permanently. Nothing is persisted and no acknowledgment exists.
//
// Unlike the persisted backend kinds, the emitter uses the raw channel name
// unmodified.
type EventEmitter struct {
	channel string
	broker  *rdb.RDB

	// When an EventEmitter has been created with an existing Redis
	// connection, we do not want to close it.
	sharedConnection bool
}

// NewEventEmitter returns a new EventEmitter bound to the given channel,
// with a connection built from the given redis connection option.
func NewEventEmitter(channel string, r RedisConnOpt) *EventEmitter {
	e := NewEventEmitterFromRedisClient(makeRedisClient(r), channel)
	e.sharedConnection = false
	return e
}

// NewEventEmitterFromRedisClient returns a new EventEmitter bound to the
// given channel, sharing the given redis client. Close on the returned
// EventEmitter leaves the client open.
func NewEventEmitterFromRedisClient(c redis.UniversalClient, channel string) *EventEmitter {
	return &EventEmitter{
		channel:          channel,
		broker:           rdb.NewRDB(c),
		sharedConnection: true,
	}
}

// Channel returns the pubsub channel this emitter broadcasts on.
func (e *EventEmitter) Channel() string { return e.channel }

// Emit broadcasts the given message on the configured channel.
// The returned error reports only the success or failure of the publish
// call itself; there is no delivery acknowledgment.
func (e *EventEmitter) Emit(ctx context.Context, msg []byte) error {
	return e.broker.Publish(ctx, e.channel, msg)
}

// Ping performs a ping against the redis connection.
func (e *EventEmitter) Ping(ctx context.Context) error {
	return e.broker.Ping(ctx)
}

// Close closes the connection with redis.
// If the emitter was created with an existing redis client via
// NewEventEmitterFromRedisClient, the client is left open.
func (e *EventEmitter) Close() error {
	if e.sharedConnection {
		return nil
	}
	return e.broker.Close()
}

// An EventListener receives messages broadcast by EventEmitters on one
// channel and hands them to a caller-provided handler.
//
// Listeners are a consumer-side convenience; the storage core itself never
// subscribes to anything.
type EventListener struct {
	logger  *log.Logger
	channel string
	broker  *rdb.RDB

	sharedConnection bool
}

// ListenerConfig specifies an EventListener's logging behavior.
type ListenerConfig struct {
	// Logger specifies the logger used by the listener.
	//
	// If unset, default logger is used.
	Logger Logger

	// LogLevel specifies the minimum log level to enable.
	//
	// If unset, InfoLevel is used by default.
	LogLevel LogLevel
}

// NewEventListener returns a new EventListener bound to the given channel,
// with a connection built from the given redis connection option.
func NewEventListener(channel string, r RedisConnOpt, cfg ListenerConfig) *EventListener {
	l := NewEventListenerFromRedisClient(makeRedisClient(r), channel, cfg)
	l.sharedConnection = false
	return l
}

// NewEventListenerFromRedisClient returns a new EventListener bound to the
// given channel, sharing the given redis client.
func NewEventListenerFromRedisClient(c redis.UniversalClient, channel string, cfg ListenerConfig) *EventListener {
	logger := log.NewLogger(cfg.Logger)
	loglevel := cfg.LogLevel
	if loglevel == level_unspecified {
		loglevel = InfoLevel
	}
	logger.SetLevel(toInternalLogLevel(loglevel))
	return &EventListener{
		logger:           logger,
		channel:          channel,
		broker:           rdb.NewRDB(c),
		sharedConnection: true,
	}
}

// Listen subscribes to the configured channel and invokes handler with the
// raw payload of every message received from that point on. Messages
// broadcast before Listen returns are lost; that is the nature of
// fire-and-forget delivery.
//
// Listen returns once the subscription is confirmed by the server. The
// returned stop function cancels the subscription and releases the
// receiving goroutine.
func (l *EventListener) Listen(ctx context.Context, handler func(msg []byte)) (stop func() error, err error) {
	pubsub := l.broker.Subscribe(ctx, l.channel)
	// Wait for the subscription confirmation so that messages emitted after
	// Listen returns are not lost.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}
	ch := pubsub.Channel()
	done := make(chan struct{})
	go func() {
		l.logger.Debugf("Event listener subscribed to channel %q", l.channel)
		for {
			select {
			case <-done:
				l.logger.Debug("Event listener done")
				return
			case msg, ok := <-ch:
				if !ok {
					l.logger.Debug("Event listener channel closed")
					return
				}
				handler([]byte(msg.Payload))
			}
		}
	}()
	return func() error {
		close(done)
		return pubsub.Close()
	}, nil
}

// Close closes the connection with redis.
// If the listener was created with an existing redis client via
// NewEventListenerFromRedisClient, the client is left open.
func (l *EventListener) Close() error {
	if l.sharedConnection {
		return nil
	}
	return l.broker.Close()
}
