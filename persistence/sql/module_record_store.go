// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package sql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/flowcoreio/flowcore/common/log"
	"github.com/flowcoreio/flowcore/config"
	"github.com/flowcoreio/flowcore/persistence"
	"github.com/flowcoreio/flowcore/persistence/data_models"
)

type sqlModuleRecordStore struct {
	db     *sqlx.DB
	logger log.Logger
}

func NewSQLModuleRecordStore(cfg *config.SQL, logger log.Logger) (persistence.ModuleRecordStore, error) {
	db, err := newSQLConn(cfg)
	if err != nil {
		return nil, err
	}
	return &sqlModuleRecordStore{
		db:     db,
		logger: logger,
	}, nil
}

func (s *sqlModuleRecordStore) GetRecord(
	ctx context.Context, orgId, modulePath string,
) (*data_models.ModuleRecord, error) {
	var record data_models.ModuleRecord
	err := s.db.GetContext(ctx, &record,
		`SELECT org_id, module_path, content, content_hash, updated_at
		 FROM module_records WHERE org_id = $1 AND module_path = $2`,
		orgId, modulePath)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *sqlModuleRecordStore) ListRecordsByOrg(
	ctx context.Context, orgId string,
) ([]data_models.ModuleRecord, error) {
	var records []data_models.ModuleRecord
	err := s.db.SelectContext(ctx, &records,
		`SELECT org_id, module_path, content, content_hash, updated_at
		 FROM module_records WHERE org_id = $1 ORDER BY module_path`,
		orgId)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *sqlModuleRecordStore) UpsertRecord(ctx context.Context, record data_models.ModuleRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO module_records (org_id, module_path, content, content_hash, updated_at)
		 VALUES ($1, $2, $3, $4, now())
		 ON CONFLICT (org_id, module_path)
		 DO UPDATE SET content = $3, content_hash = $4, updated_at = now()`,
		record.OrgId, record.ModulePath, record.Content, record.ContentHash)
	return err
}

func (s *sqlModuleRecordStore) GetWorkflowBinding(
	ctx context.Context, workflowName string,
) (*data_models.WorkflowBinding, error) {
	var binding data_models.WorkflowBinding
	err := s.db.GetContext(ctx, &binding,
		`SELECT workflow_name, org_id FROM workflow_bindings WHERE workflow_name = $1`,
		workflowName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &binding, nil
}

func (s *sqlModuleRecordStore) Close() error {
	return s.db.Close()
}
