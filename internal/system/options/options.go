// Released under an MIT license. See LICENSE.

// Package options parses cellar's command line.
package options

import (
	"errors"
	"fmt"

	"github.com/docopt/docopt-go"
	"github.com/michaelmacinnis/adapted"
)

const usage = `cellar

Usage:
  cellar [-v] [--config=FILE] [--prose] [WORKBOOK]
  cellar [-v] [--config=FILE] -c CODE
  cellar -h
  cellar --version

Arguments:
  WORKBOOK  Path to a workbook to replay.

Options:
  -c, --command=CODE  Evaluate CODE as a single cell. Escape sequences
                      such as \n are decoded first.
  --config=FILE       Read configuration from FILE.
  --prose             Render the prose between workbook cells.
  -v, --verbose       Log to standard error.
  -h, --help          Display this help.
  --version           Print cellar version.

With no WORKBOOK and no CODE, cellar reads cells interactively.
`

// ErrUsage is wrapped by errors for command lines that do not parse.
var ErrUsage = errors.New("usage")

// T (options) is a parsed command line.
type T struct {
	Code     string
	Config   string
	Prose    bool
	Verbose  bool
	Workbook string

	// Help is set, instead of everything else, when the command line asks
	// for help or the version.
	Help string
}

// Interactive reports whether cells are read from the console.
func (o *T) Interactive() bool {
	return o.Code == "" && o.Workbook == ""
}

// Usage returns the usage message.
func Usage() string {
	return usage
}

// Parse parses argv, not including the program name.
func Parse(argv []string, version string) (*T, error) {
	if argv == nil {
		argv = []string{}
	}

	help := ""

	p := &docopt.Parser{
		HelpHandler: func(err error, output string) {
			if err == nil {
				help = output
			}
		},
	}

	opts, err := p.ParseArgs(usage, argv, version)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}

	if help != "" {
		return &T{Help: help}, nil
	}

	o := &T{}

	o.Config, _ = opts.String("--config")
	o.Prose, _ = opts.Bool("--prose")
	o.Verbose, _ = opts.Bool("--verbose")
	o.Workbook, _ = opts.String("WORKBOOK")

	if code, _ := opts.String("--command"); code != "" {
		o.Code, err = adapted.ActualBytes(code)
		if err != nil {
			return nil, fmt.Errorf("%w: -c: %v", ErrUsage, err)
		}
	}

	return o, nil
}
