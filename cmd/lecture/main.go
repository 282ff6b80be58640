// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
// Command lecture serves the menu, order and member pages of the lecture
// application on top of the MVC dispatcher.
//
// Usage:
//
//	lecture [-config lecture.yaml] [-quiet]
//
// Settings are read from the given files in order, then from MVC_
// environment variables such as MVC_SERVER_ADDR=:9090.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"rivaas.dev/mvc/config"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "lecture:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	var (
		files []string
		quiet bool
	)
	fs := flag.NewFlagSet("lecture", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Func("config", "settings file (repeatable; later files override earlier ones)", func(v string) error {
		files = append(files, v)
		return nil
	})
	fs.BoolVar(&quiet, "quiet", false, "do not print the startup banner")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settings, err := config.LoadSettings(ctx, files...)
	if err != nil {
		return err
	}

	app, err := newApplication(settings, stderr)
	if err != nil {
		return err
	}
	if !quiet {
		printBanner(stdout, settings.Server.Addr, app.dispatcher.Routes())
	}

	return app.run(ctx)
}
