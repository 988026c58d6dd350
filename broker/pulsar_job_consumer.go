// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package broker

import (
	"encoding/json"

	"github.com/apache/pulsar-client-go/pulsar"

	"github.com/flowcoreio/flowcore/common/log"
	"github.com/flowcoreio/flowcore/common/log/tag"
	"github.com/flowcoreio/flowcore/config"
)

type pulsarJobConsumer struct {
	client     pulsar.Client
	consumer   pulsar.Consumer
	deliveries chan Delivery
	stopCh     chan struct{}
	logger     log.Logger
}

// NewPulsarJobConsumer subscribes with a shared subscription. prefetch is the
// receiver queue size and therefore the concurrency bound of this pool.
func NewPulsarJobConsumer(cfg config.PulsarConfig, prefetch int, logger log.Logger) (JobConsumer, error) {
	client, err := pulsar.NewClient(pulsar.ClientOptions{
		URL:               cfg.ServiceURL,
		ConnectionTimeout: cfg.ConnectionTimeout,
	})
	if err != nil {
		return nil, err
	}
	consumer, err := client.Subscribe(pulsar.ConsumerOptions{
		Topic:             cfg.JobTopic,
		SubscriptionName:  cfg.Subscription,
		Type:              pulsar.Shared,
		ReceiverQueueSize: prefetch,
	})
	if err != nil {
		client.Close()
		return nil, err
	}
	c := &pulsarJobConsumer{
		client:     client,
		consumer:   consumer,
		deliveries: make(chan Delivery),
		stopCh:     make(chan struct{}),
		logger:     logger,
	}
	go c.pump()
	return c, nil
}

func (c *pulsarJobConsumer) pump() {
	msgCh := c.consumer.Chan()
	for {
		select {
		case cm, ok := <-msgCh:
			if !ok {
				c.logger.Info("broker message channel is closed")
				close(c.deliveries)
				return
			}
			var job JobMessage
			if err := json.Unmarshal(cm.Message.Payload(), &job); err != nil {
				// a malformed message can never become processable
				c.logger.Error("dropping malformed job message", tag.Error(err))
				if ackErr := c.consumer.Ack(cm.Message); ackErr != nil {
					c.logger.Error("failed to ack malformed job message", tag.Error(ackErr))
				}
				continue
			}
			select {
			case c.deliveries <- &pulsarDelivery{job: job, message: cm.Message, parent: c}:
			case <-c.stopCh:
				c.consumer.Nack(cm.Message)
				close(c.deliveries)
				return
			}
		case <-c.stopCh:
			close(c.deliveries)
			return
		}
	}
}

func (c *pulsarJobConsumer) Deliveries() <-chan Delivery {
	return c.deliveries
}

func (c *pulsarJobConsumer) Close() {
	close(c.stopCh)
	c.consumer.Close()
	c.client.Close()
}

type pulsarDelivery struct {
	job     JobMessage
	message pulsar.Message
	parent  *pulsarJobConsumer
}

func (d *pulsarDelivery) Job() JobMessage {
	return d.job
}

func (d *pulsarDelivery) Ack() {
	if err := d.parent.consumer.Ack(d.message); err != nil {
		d.parent.logger.Error("failed to ack job message",
			tag.Error(err), tag.ExecutionId(d.job.ExecutionId))
	}
}

func (d *pulsarDelivery) Nack() {
	d.parent.consumer.Nack(d.message)
}
