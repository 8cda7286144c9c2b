// Released under an MIT license. See LICENSE.

/*
Cellar is a console for evaluation agents.

Run with no arguments, cellar reads cells at a prompt and evaluates each one
as soon as the agent says it is complete:

    csharp> var x = 1;
    csharp> if (x > 0) {
          >     x
          > }
    System.Int32: 1

Given a workbook, cellar replays its code cells in order and stops at the
first one that fails. Given -c CODE, it evaluates CODE and exits with its
status.

Agents are configured, per target platform, in ~/.config/cellar/config.yaml.
*/
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/michaelmacinnis/cellar/internal/agent"
	"github.com/michaelmacinnis/cellar/internal/engine"
	"github.com/michaelmacinnis/cellar/internal/system/config"
	"github.com/michaelmacinnis/cellar/internal/system/history"
	"github.com/michaelmacinnis/cellar/internal/system/options"
	"github.com/michaelmacinnis/cellar/internal/system/process"
	"github.com/michaelmacinnis/cellar/internal/ui"
)

const version = "cellar 0.1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	o, err := options.Parse(argv, version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n\n%s", err, options.Usage())

		return 2
	}

	if o.Help != "" {
		fmt.Println(o.Help)

		return 0
	}

	logger := log.New(io.Discard, "cellar: ", log.LstdFlags|log.Lmicroseconds)
	if o.Verbose {
		logger.SetOutput(os.Stderr)
	}

	cfg, err := configuration(o.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		return 1
	}

	var input ui.Reader = ui.NewLines(os.Stdin)

	if o.Interactive() {
		path := cfg.History
		if path == "" {
			path = history.Path()
		}

		input = ui.NewReader(path, logger)
	}

	defer input.Close()

	signals, stop := process.Notify()
	defer stop()

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case s := <-signals:
			logger.Printf("received %v", s)

			_ = input.Close()

			os.Exit(process.ExitStatus(s))
		case <-done:
		}
	}()

	dir, err := os.Getwd()
	if err != nil {
		logger.Printf("working directory: %v", err)
	}

	dial := func(ctx context.Context, url string) (engine.Agent, error) {
		a, err := agent.Dial(ctx, url, logger)
		if err != nil {
			return nil, err
		}

		return a, nil
	}

	e := engine.New(
		cfg, dial, input, ui.NewRenderer(os.Stdout, 80),
		engine.Directory(dir),
		engine.Logger(logger),
		engine.Prose(o.Prose),
	)

	ctx := context.Background()

	var code int

	switch {
	case o.Code != "":
		code, err = e.Command(ctx, o.Code)
	case o.Workbook != "":
		code, err = e.Workbook(ctx, o.Workbook)
	default:
		code, err = e.Repl(ctx)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}

	return code
}

func configuration(path string) (*config.Config, error) {
	if path == "" {
		return config.LoadDefault()
	}

	return config.Load(path)
}
