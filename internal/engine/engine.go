// Released under an MIT license. See LICENSE.

// Package engine runs cellar sessions.
//
// A session connects to an agent, then runs a driver program on a
// scheduler. The calling goroutine becomes the scheduler's pump: every
// program continuation and every event the agent sends is handled there.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"code.hybscloud.com/kont"

	"github.com/michaelmacinnis/cellar/internal/engine/driver"
	"github.com/michaelmacinnis/cellar/internal/engine/runner"
	"github.com/michaelmacinnis/cellar/internal/engine/scheduler"
	"github.com/michaelmacinnis/cellar/internal/interface/backend"
	"github.com/michaelmacinnis/cellar/internal/interface/console"
	"github.com/michaelmacinnis/cellar/internal/reader/workbook"
	"github.com/michaelmacinnis/cellar/internal/system/config"
)

// ErrNoPlatform is returned when no configured agent can run a session.
var ErrNoPlatform = errors.New("no runnable target platform")

// Agent is a connection to an agent.
type Agent interface {
	backend.T
	io.Closer
}

// Dialer connects to the agent listening at url.
type Dialer func(ctx context.Context, url string) (Agent, error)

// T (engine) is a facade in front of the machinery for running sessions.
type T struct {
	config    *config.Config
	dial      Dialer
	directory string
	input     console.Reader
	logger    *log.Logger
	out       console.Renderer
	prose     bool
}

type engine = T

// Option configures an engine.
type Option func(*T)

// Directory sets the working directory sessions are started in.
func Directory(dir string) Option {
	return func(e *T) {
		e.directory = dir
	}
}

// Logger sets where the engine logs.
func Logger(l *log.Logger) Option {
	return func(e *T) {
		e.logger = l
	}
}

// Prose renders the prose between workbook cells.
func Prose(enabled bool) Option {
	return func(e *T) {
		e.prose = enabled
	}
}

// New creates an engine that connects with dial, reads from input and
// renders to out.
func New(cfg *config.Config, dial Dialer, input console.Reader, out console.Renderer, options ...Option) *T {
	e := &T{
		config: cfg,
		dial:   dial,
		input:  input,
		logger: log.New(io.Discard, "", 0),
		out:    out,
	}

	for _, o := range options {
		o(e)
	}

	return e
}

type program func(d *driver.T, desc backend.Description) kont.Eff[int]

// Repl reads and evaluates cells until the end of input.
func (e *engine) Repl(ctx context.Context) (int, error) {
	if len(e.config.Platforms) == 0 {
		return 1, ErrNoPlatform
	}

	return e.session(ctx, e.config.Platforms[0], e.config.Language, func(d *driver.T, desc backend.Description) kont.Eff[int] {
		return d.Repl(desc)
	})
}

// Command evaluates code as a single cell.
func (e *engine) Command(ctx context.Context, code string) (int, error) {
	if len(e.config.Platforms) == 0 {
		return 1, ErrNoPlatform
	}

	return e.session(ctx, e.config.Platforms[0], e.config.Language, func(d *driver.T, desc backend.Description) kont.Eff[int] {
		return d.Command(desc, code)
	})
}

// Workbook replays the workbook at path on the first platform it declares
// that has a configured agent.
func (e *engine) Workbook(ctx context.Context, path string) (int, error) {
	doc, err := workbook.Open(path)
	if err != nil {
		return 1, err
	}

	id, ok := doc.Platform(func(id string) bool {
		_, ok := e.config.Platform(id)

		return ok
	})
	if !ok {
		return 1, fmt.Errorf("%w: %s declares [%s]", ErrNoPlatform, path, strings.Join(doc.Platforms, ", "))
	}

	p, _ := e.config.Platform(id)

	return e.session(ctx, p, doc.Language, func(d *driver.T, desc backend.Description) kont.Eff[int] {
		return d.Workbook(doc, desc)
	})
}

func (e *engine) session(ctx context.Context, p config.Platform, language string, run program) (int, error) {
	a, err := e.dial(ctx, p.URL)
	if err != nil {
		return 1, err
	}

	defer func() {
		if err := a.Close(); err != nil {
			e.logger.Printf("close: %v", err)
		}
	}()

	d := driver.New(language, e.out, driver.Prose(e.prose), driver.Settle(e.config.SettleDelay))

	desc := backend.Description{
		Language:  d.Language(),
		Platform:  p.ID,
		Directory: e.directory,
	}

	s := scheduler.New(e.logger)

	in := newInbox(s, d.Handle, inboxCapacity, e.logger)
	defer in.close()

	cancel := a.Subscribe(in.push)

	code := 1

	handler := driver.Handler(ctx, a, e.input, e.config.RequestTimeout)

	runner.Start(s, handler, run(d, desc), func(c int, err error) {
		if err == nil {
			code = c
		}

		cancel()
		s.Complete()
	})

	if err := s.Pump(); err != nil {
		return 1, err
	}

	return code, nil
}
