// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type (
	Config struct {
		// Log is the logging config
		Log Logger `yaml:"log"`

		// Redis is the shared coordination store that pending executions,
		// results, cancellation flags, locks and the module cache live in
		Redis RedisConfig `yaml:"redis"`

		// Database is the durable record store for module source and the execution log
		Database DatabaseConfig `yaml:"database"`

		// Broker is the message broker delivering job messages to worker pools
		Broker BrokerConfig `yaml:"broker"`

		// ApiService is the execution gateway service config
		ApiService ApiServiceConfig `yaml:"apiService"`

		// WorkerService is the worker pool manager service config
		WorkerService WorkerServiceConfig `yaml:"workerService"`
	}

	RedisConfig struct {
		// Address is the host:port of the redis server
		Address string `yaml:"address"`
		// Password is optional
		Password string `yaml:"password"`
		// DB is the redis database number
		DB int `yaml:"db"`
		// KeyPrefix namespaces every key this deployment writes,
		// e.g. "flowcore" produces keys like "flowcore:exec:<id>:pending"
		KeyPrefix string `yaml:"keyPrefix"`
		// DialTimeout bounds establishing a new connection
		DialTimeout time.Duration `yaml:"dialTimeout"`
	}

	DatabaseConfig struct {
		// SQL is the SQL database config
		SQL *SQL `yaml:"sql"`
	}

	BrokerConfig struct {
		// Pulsar is the only supported broker for now
		Pulsar *PulsarConfig `yaml:"pulsar"`
	}

	PulsarConfig struct {
		// ServiceURL e.g. pulsar://localhost:6650
		ServiceURL string `yaml:"serviceURL"`
		// JobTopic is the topic that job messages are published to
		JobTopic string `yaml:"jobTopic"`
		// Subscription is the shared subscription name worker pools consume with
		Subscription string `yaml:"subscription"`
		// ConnectionTimeout bounds establishing the client connection
		ConnectionTimeout time.Duration `yaml:"connectionTimeout"`
	}

	ApiServiceConfig struct {
		// HttpServer is the config for starting http.Server
		HttpServer HttpServerConfig `yaml:"httpServer"`
		// DefaultSyncWaitTimeout is how long a synchronous execute call blocks
		// on the result channel when the request doesn't specify a timeout.
		// If not specified then the default value of 300 seconds is used.
		DefaultSyncWaitTimeout time.Duration `yaml:"defaultSyncWaitTimeout"`
	}

	WorkerServiceConfig struct {
		// OrgId is the organization this worker pool serves.
		// Empty means the pool serves global (unbound) workflows.
		OrgId string `yaml:"orgId"`
		// MinWorkers is the warm pool floor. Default 1.
		MinWorkers int `yaml:"minWorkers"`
		// MaxWorkers is the pool ceiling. Default 10.
		MaxWorkers int `yaml:"maxWorkers"`
		// MaxConcurrentJobs bounds in-flight jobs and is used as the
		// broker consumer's prefetch. Default equals MaxWorkers.
		MaxConcurrentJobs int `yaml:"maxConcurrentJobs"`
		// RecycleAfterJobs terminates and respawns a worker after it has
		// completed this many jobs. 0 means never recycle.
		RecycleAfterJobs int `yaml:"recycleAfterJobs"`
		// ShutdownGrace is how long to wait after signaling graceful
		// termination before force-killing a worker. Default 10s.
		ShutdownGrace time.Duration `yaml:"shutdownGrace"`
		// HeartbeatInterval is how often a worker publishes liveness.
		// The registration TTL is this interval plus a fixed slack,
		// so an expired registration reliably means a dead worker. Default 5s.
		HeartbeatInterval time.Duration `yaml:"heartbeatInterval"`
		// CancelPollInterval is how often the pool manager polls the
		// cancellation flag for in-flight jobs. Default 1s.
		CancelPollInterval time.Duration `yaml:"cancelPollInterval"`
		// FailureWebhookURL receives a fire-and-forget POST for every
		// failed execution. Empty disables the notification.
		FailureWebhookURL string `yaml:"failureWebhookURL"`
		// InternalHttpServer serves operational endpoints (metrics, health)
		InternalHttpServer HttpServerConfig `yaml:"internalHttpServer"`
	}

	// HttpServerConfig is the config that will be mapped into http.Server
	HttpServerConfig struct {
		// Address optionally specifies the TCP address for the server to listen on,
		// in the form "host:port".
		Address string `yaml:"address"`
		// ReadTimeout is the maximum duration for reading the entire
		// request, including the body.
		ReadTimeout time.Duration `yaml:"readTimeout"`
		// WriteTimeout is the maximum duration before timing out
		// writes of the response.
		WriteTimeout time.Duration `yaml:"writeTimeout"`
		// TLSConfig optionally provides a TLS configuration
		TLSConfig *tls.Config `yaml:"tlsConfig"`
		// the rest are less frequently used
		ReadHeaderTimeout time.Duration `yaml:"readHeaderTimeout"`
		IdleTimeout       time.Duration `yaml:"idleTimeout"`
		MaxHeaderBytes    int           `yaml:"maxHeaderBytes"`
	}
)

// NewConfig returns a new decoded Config struct
func NewConfig(configPath string) (*Config, error) {
	log.Printf("Loading configFile=%v\n", configPath)

	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)

	if err := d.Decode(&config); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) ValidateAndSetDefaults() error {
	if c.Redis.Address == "" {
		return fmt.Errorf("redis.address is required")
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = "flowcore"
	}
	if c.Redis.DialTimeout == 0 {
		c.Redis.DialTimeout = 5 * time.Second
	}
	if c.Database.SQL == nil {
		return fmt.Errorf("sql config is required")
	}
	sql := c.Database.SQL
	if anyAbsent(sql.DatabaseName, sql.ConnectAddr, sql.User) {
		return fmt.Errorf("some required configs are missing: sql.DatabaseName, sql.ConnectAddr, sql.User")
	}
	if c.Broker.Pulsar == nil {
		return fmt.Errorf("pulsar broker config is required")
	}
	pulsar := c.Broker.Pulsar
	if anyAbsent(pulsar.ServiceURL, pulsar.JobTopic, pulsar.Subscription) {
		return fmt.Errorf("some required configs are missing: pulsar.ServiceURL, pulsar.JobTopic, pulsar.Subscription")
	}
	if pulsar.ConnectionTimeout == 0 {
		pulsar.ConnectionTimeout = 10 * time.Second
	}
	if c.ApiService.DefaultSyncWaitTimeout == 0 {
		c.ApiService.DefaultSyncWaitTimeout = 300 * time.Second
	}
	workerCfg := &c.WorkerService
	if workerCfg.MinWorkers == 0 {
		workerCfg.MinWorkers = 1
	}
	if workerCfg.MaxWorkers == 0 {
		workerCfg.MaxWorkers = 10
	}
	if workerCfg.MaxWorkers < workerCfg.MinWorkers {
		return fmt.Errorf("workerService.maxWorkers must be >= minWorkers")
	}
	if workerCfg.MaxConcurrentJobs == 0 {
		workerCfg.MaxConcurrentJobs = workerCfg.MaxWorkers
	}
	if workerCfg.ShutdownGrace == 0 {
		workerCfg.ShutdownGrace = 10 * time.Second
	}
	if workerCfg.HeartbeatInterval == 0 {
		workerCfg.HeartbeatInterval = 5 * time.Second
	}
	if workerCfg.CancelPollInterval == 0 {
		workerCfg.CancelPollInterval = time.Second
	}
	return nil
}

func anyAbsent(strs ...string) bool {
	for _, s := range strs {
		if s == "" {
			return true
		}
	}
	return false
}

// String converts the config object into a string
func (c *Config) String() string {
	out, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		panic(err)
	}
	return string(out)
}
