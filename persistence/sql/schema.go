// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package sql

import (
	"github.com/jmoiron/sqlx"
)

const createModuleRecordsTable = `
CREATE TABLE IF NOT EXISTS module_records (
	org_id       TEXT NOT NULL,
	module_path  TEXT NOT NULL,
	content      TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (org_id, module_path)
)`

const createWorkflowBindingsTable = `
CREATE TABLE IF NOT EXISTS workflow_bindings (
	workflow_name TEXT PRIMARY KEY,
	org_id        TEXT
)`

const createExecutionLogEntriesTable = `
CREATE TABLE IF NOT EXISTS execution_log_entries (
	seq          BIGSERIAL PRIMARY KEY,
	execution_id TEXT NOT NULL,
	level        TEXT NOT NULL,
	message      TEXT NOT NULL,
	logged_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const createExecutionLogEntriesIndex = `
CREATE INDEX IF NOT EXISTS execution_log_entries_execution_id_idx
ON execution_log_entries (execution_id, seq)`

// SetupSchema creates all the tables this store needs. It is invoked by the
// schema tool, never at service startup.
func SetupSchema(db *sqlx.DB) error {
	for _, ddl := range []string{
		createModuleRecordsTable,
		createWorkflowBindingsTable,
		createExecutionLogEntriesTable,
		createExecutionLogEntriesIndex,
	} {
		if _, err := db.Exec(ddl); err != nil {
			return err
		}
	}
	return nil
}
