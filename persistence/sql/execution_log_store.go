// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package sql

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/flowcoreio/flowcore/common/log"
	"github.com/flowcoreio/flowcore/config"
	"github.com/flowcoreio/flowcore/persistence"
	"github.com/flowcoreio/flowcore/persistence/data_models"
)

// sqlExecutionLogStore appends per-execution log entries. Entries are never
// updated or deleted by the engine.
type sqlExecutionLogStore struct {
	db     *sqlx.DB
	logger log.Logger
}

func NewSQLExecutionLogStore(cfg *config.SQL, logger log.Logger) (persistence.ExecutionLogStore, error) {
	db, err := newSQLConn(cfg)
	if err != nil {
		return nil, err
	}
	return &sqlExecutionLogStore{
		db:     db,
		logger: logger,
	}, nil
}

func (s *sqlExecutionLogStore) Append(ctx context.Context, executionId, level, message string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO execution_log_entries (execution_id, level, message)
		 VALUES ($1, $2, $3)`,
		executionId, level, message)
	return err
}

func (s *sqlExecutionLogStore) ListByExecution(
	ctx context.Context, executionId string,
) ([]data_models.LogEntry, error) {
	var entries []data_models.LogEntry
	err := s.db.SelectContext(ctx, &entries,
		`SELECT execution_id, seq, level, message, logged_at
		 FROM execution_log_entries WHERE execution_id = $1 ORDER BY seq`,
		executionId)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *sqlExecutionLogStore) Close() error {
	return s.db.Close()
}
