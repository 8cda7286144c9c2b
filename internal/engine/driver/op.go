// Released under an MIT license. See LICENSE.

package driver

import (
	"context"
	"time"

	"code.hybscloud.com/kont"

	"github.com/michaelmacinnis/cellar/internal/engine/runner"
	"github.com/michaelmacinnis/cellar/internal/interface/backend"
	"github.com/michaelmacinnis/cellar/internal/interface/console"
	"github.com/michaelmacinnis/cellar/internal/type/event"
)

// Operations the driver programs perform. Each result is a
// kont.Either[error, T]; await turns a Left into a thrown error.

type initialize struct {
	kont.Phantom[kont.Either[error, struct{}]]
	d backend.Description
}

type restore struct {
	kont.Phantom[kont.Either[error, struct{}]]
	packages []backend.Package
}

type insertCell struct {
	kont.Phantom[kont.Either[error, event.CellID]]
	text  string
	after event.CellID
}

type getBuffer struct {
	kont.Phantom[kont.Either[error, string]]
	id event.CellID
}

type updateBuffer struct {
	kont.Phantom[kont.Either[error, struct{}]]
	id   event.CellID
	text string
}

type isComplete struct {
	kont.Phantom[kont.Either[error, bool]]
	id event.CellID
}

type evaluate struct {
	kont.Phantom[kont.Either[error, struct{}]]
	id event.CellID
}

type settle struct {
	kont.Phantom[kont.Either[error, struct{}]]
	d time.Duration
}

type readLine struct {
	kont.Phantom[kont.Either[error, string]]
	prompt string
}

// env is what operations are performed against.
type env struct {
	ctx     context.Context
	timeout time.Duration
	agent   backend.T
	input   console.Reader
}

// performer is the structural interface every operation satisfies.
type performer interface {
	perform(e *env) kont.Resumed
}

// Handler returns the runner.Handler that performs driver operations against
// agent and input. A positive timeout bounds each agent request except
// session initialization and evaluation, which run until the agent answers
// or the connection fails.
func Handler(ctx context.Context, agent backend.T, input console.Reader, timeout time.Duration) runner.Handler {
	e := &env{ctx: ctx, timeout: timeout, agent: agent, input: input}

	return runner.HandlerFunc(func(op kont.Operation) kont.Resumed {
		p, ok := op.(performer)
		if !ok {
			panic("driver: unhandled effect")
		}

		return p.perform(e)
	})
}

func (e *env) request() (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return context.WithCancel(e.ctx)
	}

	return context.WithTimeout(e.ctx, e.timeout)
}

func (o initialize) perform(e *env) kont.Resumed {
	return unit(e.agent.Initialize(e.ctx, o.d))
}

func (o restore) perform(e *env) kont.Resumed {
	ctx, cancel := e.request()
	defer cancel()

	return unit(e.agent.Restore(ctx, o.packages))
}

func (o insertCell) perform(e *env) kont.Resumed {
	ctx, cancel := e.request()
	defer cancel()

	return either(e.agent.InsertCell(ctx, o.text, o.after))
}

func (o getBuffer) perform(e *env) kont.Resumed {
	ctx, cancel := e.request()
	defer cancel()

	return either(e.agent.Buffer(ctx, o.id))
}

func (o updateBuffer) perform(e *env) kont.Resumed {
	ctx, cancel := e.request()
	defer cancel()

	return unit(e.agent.UpdateBuffer(ctx, o.id, o.text))
}

func (o isComplete) perform(e *env) kont.Resumed {
	ctx, cancel := e.request()
	defer cancel()

	return either(e.agent.IsCellComplete(ctx, o.id))
}

func (o evaluate) perform(e *env) kont.Resumed {
	return unit(e.agent.Evaluate(e.ctx, o.id))
}

func (o settle) perform(e *env) kont.Resumed {
	t := time.NewTimer(o.d)
	defer t.Stop()

	select {
	case <-t.C:
		return kont.Right[error](struct{}{})
	case <-e.ctx.Done():
		return kont.Left[error, struct{}](e.ctx.Err())
	}
}

func (o readLine) perform(e *env) kont.Resumed {
	return either(e.input.ReadLine(o.prompt))
}

func either[T any](v T, err error) kont.Resumed {
	if err != nil {
		return kont.Left[error, T](err)
	}

	return kont.Right[error](v)
}

func unit(err error) kont.Resumed {
	return either(struct{}{}, err)
}

// await unwraps an operation result, throwing its error.
func await[T any](r kont.Either[error, T]) kont.Eff[T] {
	if v, ok := r.GetRight(); ok {
		return kont.Pure(v)
	}

	err, _ := r.GetLeft()

	return kont.ThrowError[error, T](err)
}

func perform[T any, O kont.Op[O, kont.Either[error, T]]](op O) kont.Eff[T] {
	return kont.Bind(kont.Perform[O, kont.Either[error, T]](op), await[T])
}
