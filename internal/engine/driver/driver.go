// Released under an MIT license. See LICENSE.

// Package driver provides the programs that drive an evaluation session and
// the policy for the events the session produces.
//
// Programs are kont effect computations run by the runner package. All of
// their code, and Handle, run on the scheduler's pump goroutine, so the
// driver's state needs no locking.
package driver

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/michaelmacinnis/cellar/internal/interface/console"
	"github.com/michaelmacinnis/cellar/internal/type/event"
)

// State is what the driver knows about the session.
type State struct {
	// Current is the cell whose events are rendered.
	Current event.CellID

	// Last is the most recently observed evaluation status.
	Last event.Status
}

// T (driver) runs programs against a session and renders its events.
type T struct {
	State

	language string
	out      console.Renderer
	prose    bool
	settle   time.Duration
}

type driver = T

// Option configures a driver.
type Option func(*T)

// Prose renders markdown found between document cells.
func Prose(enabled bool) Option {
	return func(d *T) {
		d.prose = enabled
	}
}

// Settle sets the pause after each evaluation. Evaluate can return before
// the cell's first events arrive; the pause gives them time to.
func Settle(delay time.Duration) Option {
	return func(d *T) {
		d.settle = delay
	}
}

// DefaultSettle is the pause after each evaluation unless Settle says otherwise.
const DefaultSettle = 250 * time.Millisecond

// New creates a driver for language that renders to out.
func New(language string, out console.Renderer, options ...Option) *T {
	d := &T{
		language: language,
		out:      out,
		settle:   DefaultSettle,
	}

	for _, o := range options {
		o(d)
	}

	return d
}

// Language returns the language the driver prompts with.
func (d *driver) Language() string {
	return d.language
}

// Handle renders the session event ev. Evaluation events for any cell other
// than the current one are dropped: a console appends to the screen and has
// nowhere to put them.
func (d *driver) Handle(ev event.Session) {
	if ev.Kind != event.Evaluation {
		d.out.Session(ev.Kind)

		return
	}

	if ev.Data == nil {
		return
	}

	if d.Current != "" && ev.Data.Cell() != d.Current {
		return
	}

	switch e := ev.Data.(type) {
	case event.Started:
	case event.Finished:
		d.Last = e.Status

		switch e.Status {
		case event.Success:
		case event.Disconnected:
			d.out.Error("Agent was disconnected while evaluating cell")
		case event.Interrupted:
			d.out.Error("Evaluation was aborted")
		case event.EvaluationException:
			d.out.Error("An exception was thrown while evaluating cell")
		}

		for _, diagnostic := range e.Diagnostics {
			d.diagnostic(diagnostic)
		}
	case event.Output:
		d.out.Output(e.FD, e.Value)
	case event.Result:
		d.out.Result(e.Type, e.Text())
	case event.Diagnosed:
		d.diagnostic(e.Diagnostic)
	default:
		panic(fmt.Sprintf("driver: unknown event %T", e))
	}
}

func (d *driver) diagnostic(diagnostic event.Diagnostic) {
	if diagnostic.Severity < event.Warning {
		return
	}

	d.out.Diagnostic(diagnostic)
}

func (d *driver) prompt(secondary bool) string {
	if secondary {
		return strings.Repeat(" ", utf8.RuneCountInString(d.language)) + "> "
	}

	return d.language + "> "
}
