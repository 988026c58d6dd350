// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/flowcoreio/flowcore/common/log"
	"github.com/flowcoreio/flowcore/common/log/tag"
	"github.com/flowcoreio/flowcore/persistence/data_models"
)

type noopNotifier struct{}

func NewNoopNotifier() Notifier {
	return noopNotifier{}
}

func (noopNotifier) NotifyFailure(string, string, data_models.ExecutionResult) {}

// webhookNotifier posts failure alerts to an operational webhook.
// Delivery is fire-and-forget: a lost alert must never affect the execution path.
type webhookNotifier struct {
	url        string
	httpClient *http.Client
	logger     log.Logger
}

func NewWebhookNotifier(url string, logger log.Logger) Notifier {
	return &webhookNotifier{
		url:        url,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		logger:     logger,
	}
}

func (n *webhookNotifier) NotifyFailure(executionId, workflowName string, result data_models.ExecutionResult) {
	go func() {
		body, err := json.Marshal(map[string]any{
			"executionId":  executionId,
			"workflowName": workflowName,
			"status":       result.Status,
			"error":        result.Error,
			"errorKind":    result.ErrorKind,
		})
		if err != nil {
			n.logger.Error("failed to serialize failure notification", tag.Error(err))
			return
		}
		resp, err := n.httpClient.Post(n.url, "application/json", bytes.NewReader(body))
		if err != nil {
			n.logger.Warn("failure notification not delivered",
				tag.Error(err), tag.ExecutionId(executionId))
			return
		}
		_ = resp.Body.Close()
	}()
}
