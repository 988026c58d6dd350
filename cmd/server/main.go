// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/flowcoreio/flowcore/cmd/server/bootstrap"
)

func main() {
	app := &cli.App{
		Name:  "FlowCore server",
		Usage: "start the FlowCore server",
		Action: func(c *cli.Context) error {
			bootstrap.StartFlowCoreServerCli(c)
			return nil
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  bootstrap.FlagConfig,
				Value: "./config/development.yaml",
				Usage: "the config to start FlowCore server",
			},
			&cli.StringFlag{
				Name:  bootstrap.FlagService,
				Value: fmt.Sprintf("%v,%v", bootstrap.ApiServiceName, bootstrap.WorkerServiceName),
				Usage: "the services to start, separated by comma",
			},
			&cli.StringFlag{
				Name:   bootstrap.FlagWorkerId,
				Hidden: true,
				Usage:  "the worker id assigned by the pool manager (runner only)",
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
