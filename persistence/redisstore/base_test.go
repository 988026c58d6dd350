// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package redisstore

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/flowcoreio/flowcore/common/log"
	"github.com/flowcoreio/flowcore/config"
)

const testKeyPrefix = "flowcoretest"

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	cfg := config.RedisConfig{
		Address:     server.Addr(),
		KeyPrefix:   testKeyPrefix,
		DialTimeout: time.Second,
	}
	client := NewClient(cfg, log.NewDevelopmentLogger())
	t.Cleanup(func() { _ = client.Close() })
	return client, server
}
