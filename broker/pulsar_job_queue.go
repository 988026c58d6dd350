// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package broker

import (
	"context"
	"encoding/json"

	"github.com/apache/pulsar-client-go/pulsar"

	"github.com/flowcoreio/flowcore/common/log"
	"github.com/flowcoreio/flowcore/common/log/tag"
	"github.com/flowcoreio/flowcore/config"
)

type pulsarJobQueue struct {
	client   pulsar.Client
	producer pulsar.Producer
	logger   log.Logger
}

func NewPulsarJobQueue(cfg config.PulsarConfig, logger log.Logger) (JobQueue, error) {
	client, err := pulsar.NewClient(pulsar.ClientOptions{
		URL:               cfg.ServiceURL,
		ConnectionTimeout: cfg.ConnectionTimeout,
	})
	if err != nil {
		return nil, err
	}
	producer, err := client.CreateProducer(pulsar.ProducerOptions{
		Topic: cfg.JobTopic,
	})
	if err != nil {
		client.Close()
		return nil, err
	}
	return &pulsarJobQueue{
		client:   client,
		producer: producer,
		logger:   logger,
	}, nil
}

func (q *pulsarJobQueue) Publish(ctx context.Context, msg JobMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = q.producer.Send(ctx, &pulsar.ProducerMessage{
		Payload: payload,
		Key:     msg.ExecutionId,
	})
	if err != nil {
		q.logger.Error("failed to publish job message", tag.Error(err), tag.ExecutionId(msg.ExecutionId))
		return err
	}
	return nil
}

func (q *pulsarJobQueue) Close() {
	q.producer.Close()
	q.client.Close()
}
