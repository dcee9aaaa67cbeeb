// Copyright 2020 Kentaro Hibino. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

package taskstore

import (
	"context"
	"sync"
	"time"

	"github.com/hemant/taskstore/internal/log"
	"github.com/hemant/taskstore/internal/rdb"
	"github.com/redis/go-redis/v9"
)

// A HealthChecker periodically pings the redis server and invokes a user
// provided callback with the result.
//
// The blocking queue read reports a vanished server the same way it reports
// an empty queue, so consumers that need to tell the two apart run a
// HealthChecker alongside their read loop.
type HealthChecker struct {
	logger *log.Logger
	broker *rdb.RDB

	// channel to communicate back to the long running "healthchecker" goroutine.
	done chan struct{}

	// interval between healthchecks.
	interval time.Duration

	// user provided callback invoked with the result of each ping.
	healthcheckFunc func(error)

	// wait group to wait for the healthchecker goroutine to finish.
	wg sync.WaitGroup

	// When a HealthChecker has been created with an existing Redis
	// connection, we do not want to close it.
	sharedConnection bool
}

// HealthCheckerConfig specifies the health checker's behavior.
type HealthCheckerConfig struct {
	// HealthCheckFunc is called with any error encountered during ping to
	// the connected redis server, or nil when the ping succeeded.
	HealthCheckFunc func(error)

	// HealthCheckInterval specifies the interval between healthchecks.
	//
	// If unset or zero, the interval is set to 15 seconds.
	HealthCheckInterval time.Duration

	// Logger specifies the logger used by the health checker.
	//
	// If unset, default logger is used.
	Logger Logger

	// LogLevel specifies the minimum log level to enable.
	//
	// If unset, InfoLevel is used by default.
	LogLevel LogLevel
}

const defaultHealthCheckInterval = 15 * time.Second

// NewHealthChecker returns a new HealthChecker with a connection built from
// the given redis connection option.
func NewHealthChecker(r RedisConnOpt, cfg HealthCheckerConfig) *HealthChecker {
	hc := NewHealthCheckerFromRedisClient(makeRedisClient(r), cfg)
	hc.sharedConnection = false
	return hc
}

// NewHealthCheckerFromRedisClient returns a new HealthChecker sharing the
// given redis client.
func NewHealthCheckerFromRedisClient(c redis.UniversalClient, cfg HealthCheckerConfig) *HealthChecker {
	logger := log.NewLogger(cfg.Logger)
	loglevel := cfg.LogLevel
	if loglevel == level_unspecified {
		loglevel = InfoLevel
	}
	logger.SetLevel(toInternalLogLevel(loglevel))

	interval := cfg.HealthCheckInterval
	if interval == 0 {
		interval = defaultHealthCheckInterval
	}
	return &HealthChecker{
		logger:           logger,
		broker:           rdb.NewRDB(c),
		done:             make(chan struct{}),
		interval:         interval,
		healthcheckFunc:  cfg.HealthCheckFunc,
		sharedConnection: true,
	}
}

// Start launches the healthchecker goroutine.
func (hc *HealthChecker) Start() {
	hc.wg.Add(1)
	go func() {
		defer hc.wg.Done()
		timer := time.NewTimer(hc.interval)
		for {
			select {
			case <-hc.done:
				hc.logger.Debug("Healthchecker done")
				timer.Stop()
				return
			case <-timer.C:
				hc.exec()
				timer.Reset(hc.interval)
			}
		}
	}()
}

// Shutdown stops the healthchecker goroutine and waits for it to finish,
// then closes the redis connection unless it is shared.
func (hc *HealthChecker) Shutdown() {
	hc.logger.Debug("Healthchecker shutting down...")
	// Signal the healthchecker goroutine to stop.
	hc.done <- struct{}{}
	hc.wg.Wait()
	if !hc.sharedConnection {
		_ = hc.broker.Close()
	}
}

func (hc *HealthChecker) exec() {
	err := hc.broker.Ping(context.Background())
	if hc.healthcheckFunc != nil {
		hc.healthcheckFunc(err)
	}
}
