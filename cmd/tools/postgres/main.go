// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/flowcoreio/flowcore/config"
	"github.com/flowcoreio/flowcore/persistence/sql"
)

const DefaultEndpoint = "127.0.0.1:5432"
const DefaultUserName = "flowcore"
const DefaultPassword = "flowcore"
const DefaultDatabaseName = "flowcore"

const flagEndpoint = "endpoint"
const flagUser = "user"
const flagPassword = "password"
const flagDatabase = "database"

func main() {
	app := cli.NewApp()
	app.Name = "flowcore postgres tool"
	app.Usage = "tool for FlowCore operation on postgres"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    flagEndpoint,
			Aliases: []string{"e"},
			Value:   DefaultEndpoint,
			Usage:   "host:port of the postgres server to connect to",
		},
		&cli.StringFlag{
			Name:    flagUser,
			Aliases: []string{"u"},
			Value:   DefaultUserName,
			Usage:   "user name used for authentication when connecting to postgres",
		},
		&cli.StringFlag{
			Name:    flagPassword,
			Aliases: []string{"pw"},
			Value:   DefaultPassword,
			Usage:   "password used for authentication when connecting to postgres",
		},
		&cli.StringFlag{
			Name:    flagDatabase,
			Aliases: []string{"db"},
			Value:   DefaultDatabaseName,
			Usage:   "name of the postgres database",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:    "create-database",
			Aliases: []string{"create"},
			Usage:   "creates a database",
			Action:  createDatabase,
		},
		{
			Name:    "install-schema",
			Aliases: []string{"install"},
			Usage:   "install schema into a database",
			Action:  installSchema,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func createDatabase(c *cli.Context) error {
	// connect to the maintenance database to create the target one
	db, err := sql.Connect(&config.SQL{
		User:         c.String(flagUser),
		Password:     c.String(flagPassword),
		ConnectAddr:  c.String(flagEndpoint),
		DatabaseName: "postgres",
	})
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.Exec(fmt.Sprintf(`CREATE DATABASE %q`, c.String(flagDatabase)))
	return err
}

func installSchema(c *cli.Context) error {
	db, err := sql.Connect(&config.SQL{
		User:         c.String(flagUser),
		Password:     c.String(flagPassword),
		ConnectAddr:  c.String(flagEndpoint),
		DatabaseName: c.String(flagDatabase),
	})
	if err != nil {
		return err
	}
	defer db.Close()

	return sql.SetupSchema(db)
}
