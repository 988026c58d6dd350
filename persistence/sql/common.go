// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package sql

import (
	"fmt"

	"github.com/iancoleman/strcase"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver

	"github.com/flowcoreio/flowcore/config"
)

// Connect opens a postgres connection with this store's field mapping.
// It is exported for the schema tool.
func Connect(cfg *config.SQL) (*sqlx.DB, error) {
	return newSQLConn(cfg)
}

func newSQLConn(cfg *config.SQL) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.ConnectAddr, cfg.DatabaseName,
	)
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, err
	}
	// so that struct fields like ModulePath map to module_path
	db.MapperFunc(strcase.ToSnake)
	return db, nil
}
