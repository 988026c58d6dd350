// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Redis: RedisConfig{
			Address: "localhost:6379",
		},
		Database: DatabaseConfig{
			SQL: &SQL{
				User:         "flowcore",
				DatabaseName: "flowcore",
				ConnectAddr:  "localhost:5432",
			},
		},
		Broker: BrokerConfig{
			Pulsar: &PulsarConfig{
				ServiceURL:   "pulsar://localhost:6650",
				JobTopic:     "flowcore-jobs",
				Subscription: "flowcore-worker-pool",
			},
		},
	}
}

func TestValidateSetsDefaults(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.ValidateAndSetDefaults())

	assert.Equal(t, "flowcore", cfg.Redis.KeyPrefix)
	assert.Equal(t, 5*time.Second, cfg.Redis.DialTimeout)
	assert.Equal(t, 300*time.Second, cfg.ApiService.DefaultSyncWaitTimeout)
	assert.Equal(t, 1, cfg.WorkerService.MinWorkers)
	assert.Equal(t, 10, cfg.WorkerService.MaxWorkers)
	assert.Equal(t, 10, cfg.WorkerService.MaxConcurrentJobs)
	assert.Equal(t, 10*time.Second, cfg.WorkerService.ShutdownGrace)
	assert.Equal(t, 5*time.Second, cfg.WorkerService.HeartbeatInterval)
	assert.Equal(t, time.Second, cfg.WorkerService.CancelPollInterval)
}

func TestValidateKeepsExplicitValues(t *testing.T) {
	cfg := validConfig()
	cfg.Redis.KeyPrefix = "staging"
	cfg.WorkerService.MinWorkers = 2
	cfg.WorkerService.MaxWorkers = 4
	cfg.WorkerService.MaxConcurrentJobs = 3
	require.NoError(t, cfg.ValidateAndSetDefaults())

	assert.Equal(t, "staging", cfg.Redis.KeyPrefix)
	assert.Equal(t, 3, cfg.WorkerService.MaxConcurrentJobs)
}

func TestValidateRejectsMissingRequired(t *testing.T) {
	cfg := validConfig()
	cfg.Redis.Address = ""
	assert.ErrorContains(t, cfg.ValidateAndSetDefaults(), "redis.address")

	cfg = validConfig()
	cfg.Database.SQL = nil
	assert.ErrorContains(t, cfg.ValidateAndSetDefaults(), "sql config")

	cfg = validConfig()
	cfg.Broker.Pulsar.JobTopic = ""
	assert.ErrorContains(t, cfg.ValidateAndSetDefaults(), "pulsar")
}

func TestValidateRejectsInvertedPoolBounds(t *testing.T) {
	cfg := validConfig()
	cfg.WorkerService.MinWorkers = 5
	cfg.WorkerService.MaxWorkers = 2
	assert.ErrorContains(t, cfg.ValidateAndSetDefaults(), "maxWorkers")
}

func TestNewConfigReadsDevelopmentYaml(t *testing.T) {
	cfg, err := NewConfig("development.yaml")
	require.NoError(t, err)
	require.NoError(t, cfg.ValidateAndSetDefaults())

	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
	assert.Equal(t, 2, cfg.WorkerService.MinWorkers)
	assert.Equal(t, 8, cfg.WorkerService.MaxWorkers)
	assert.Equal(t, 200, cfg.WorkerService.RecycleAfterJobs)
}
