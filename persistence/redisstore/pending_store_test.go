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
	"github.com/flowcoreio/flowcore/common/ptr"
	"github.com/flowcoreio/flowcore/persistence"
	"github.com/flowcoreio/flowcore/persistence/data_models"
)

func testPending(executionId string) data_models.PendingExecution {
	return data_models.PendingExecution{
		ExecutionId:  executionId,
		WorkflowName: "greet",
		Parameters:   map[string]any{"name": "Ann"},
		OrgId:        ptr.Any("org-a"),
		Caller: data_models.CallerIdentity{
			Id:    "user-1",
			Name:  "Ann",
			Email: "ann@example.com",
		},
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestPendingSetGetDelete(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewPendingStore(client, log.NewDevelopmentLogger())
	ctx := context.Background()

	pending := testPending("e1")
	require.NoError(t, store.SetPending(ctx, pending))

	got, err := store.GetPending(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, data_models.PendingExecutionVersion, got.Version)
	assert.Equal(t, pending.WorkflowName, got.WorkflowName)
	assert.Equal(t, pending.Parameters, got.Parameters)
	assert.Equal(t, pending.OrgId, got.OrgId)
	assert.Equal(t, pending.Caller, got.Caller)
	assert.False(t, got.Cancelled)

	require.NoError(t, store.DeletePending(ctx, "e1"))
	_, err = store.GetPending(ctx, "e1")
	assert.ErrorIs(t, err, persistence.ErrNotFound)

	// delete of an absent record is a no-op
	require.NoError(t, store.DeletePending(ctx, "e1"))
}

func TestPendingSetIsIdempotentUpsert(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewPendingStore(client, log.NewDevelopmentLogger())
	ctx := context.Background()

	require.NoError(t, store.SetPending(ctx, testPending("e1")))
	require.NoError(t, store.SetPending(ctx, testPending("e1")))

	got, err := store.GetPending(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "greet", got.WorkflowName)
}

func TestMarkCancelledMissingRecord(t *testing.T) {
	client, server := newTestClient(t)
	store := NewPendingStore(client, log.NewDevelopmentLogger())
	ctx := context.Background()

	existed, err := store.MarkCancelled(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, existed)

	// neither a pending record nor a cancellation flag may appear
	assert.False(t, server.Exists(testKeyPrefix+":exec:nope:pending"))
	assert.False(t, server.Exists(testKeyPrefix+":exec:nope:cancel"))

	cancelled, err := store.IsCancelled(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, cancelled)
}

func TestMarkCancelledPreservesRemainingTTL(t *testing.T) {
	client, server := newTestClient(t)
	store := NewPendingStore(client, log.NewDevelopmentLogger())
	ctx := context.Background()

	require.NoError(t, store.SetPending(ctx, testPending("e2")))

	// burn 600s of the window, then cancel
	server.FastForward(600 * time.Second)

	existed, err := store.MarkCancelled(ctx, "e2")
	require.NoError(t, err)
	assert.True(t, existed)

	remaining := server.TTL(testKeyPrefix + ":exec:e2:pending")
	assert.LessOrEqual(t, remaining, PendingTTL-600*time.Second)
	assert.Greater(t, remaining, PendingTTL-700*time.Second)

	got, err := store.GetPending(ctx, "e2")
	require.NoError(t, err)
	assert.True(t, got.Cancelled)

	cancelled, err := store.IsCancelled(ctx, "e2")
	require.NoError(t, err)
	assert.True(t, cancelled)
}
