// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

package taskstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHealthCheckerReportsResults(t *testing.T) {
	s, c := newTestRedis(t)

	results := make(chan error, 100)
	hc := NewHealthCheckerFromRedisClient(c, HealthCheckerConfig{
		HealthCheckFunc:     func(err error) { results <- err },
		HealthCheckInterval: 10 * time.Millisecond,
	})
	hc.Start()
	defer hc.Shutdown()

	select {
	case err := <-results:
		require.NoError(t, err, "ping against a live server should succeed")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for healthcheck result")
	}

	s.Close()

	deadline := time.After(time.Second)
	for {
		select {
		case err := <-results:
			if err != nil {
				return // outage observed
			}
		case <-deadline:
			t.Fatal("timed out waiting for healthcheck to report the outage")
		}
	}
}
