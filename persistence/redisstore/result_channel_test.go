// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcoreio/flowcore/common/log"
	"github.com/flowcoreio/flowcore/persistence"
	"github.com/flowcoreio/flowcore/persistence/data_models"
)

func TestPushThenWaitReturnsResult(t *testing.T) {
	client, _ := newTestClient(t)
	channel := NewResultChannel(client, log.NewDevelopmentLogger())
	ctx := context.Background()

	pushed := data_models.ExecutionResult{
		Status:         data_models.ExecutionStatusSucceeded,
		Output:         "hello Ann",
		DurationMillis: 42,
	}
	require.NoError(t, channel.PushResult(ctx, "e1", pushed))

	got, err := channel.WaitForResult(ctx, "e1", time.Second)
	require.NoError(t, err)
	assert.Equal(t, pushed, *got)
}

func TestWaitWithoutPushTimesOut(t *testing.T) {
	client, _ := newTestClient(t)
	channel := NewResultChannel(client, log.NewDevelopmentLogger())
	ctx := context.Background()

	start := time.Now()
	_, err := channel.WaitForResult(ctx, "never", time.Second)
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, persistence.ErrTimeout)
	assert.GreaterOrEqual(t, elapsed, 900*time.Millisecond)
	assert.Less(t, elapsed, 5*time.Second)
}

func TestResultExpiresAfterTTL(t *testing.T) {
	client, server := newTestClient(t)
	channel := NewResultChannel(client, log.NewDevelopmentLogger())
	ctx := context.Background()

	require.NoError(t, channel.PushResult(ctx, "e1", data_models.ExecutionResult{
		Status: data_models.ExecutionStatusSucceeded,
	}))

	server.FastForward(ResultTTL + time.Second)

	_, err := channel.WaitForResult(ctx, "e1", time.Second)
	assert.ErrorIs(t, err, persistence.ErrTimeout)
}

func TestResultConsumedAtMostOnce(t *testing.T) {
	client, _ := newTestClient(t)
	channel := NewResultChannel(client, log.NewDevelopmentLogger())
	ctx := context.Background()

	require.NoError(t, channel.PushResult(ctx, "e1", data_models.ExecutionResult{
		Status: data_models.ExecutionStatusSucceeded,
	}))

	_, err := channel.WaitForResult(ctx, "e1", time.Second)
	require.NoError(t, err)

	_, err = channel.WaitForResult(ctx, "e1", time.Second)
	assert.ErrorIs(t, err, persistence.ErrTimeout)
}
