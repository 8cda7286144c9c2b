// Released under an MIT license. See LICENSE.

// Package runner drives kont effect programs on a scheduler.
//
// A program runs until it performs an effect. The effect is handed to a
// Handler on a worker goroutine; when the handler returns, the program is
// resumed by work posted to the scheduler. Program code therefore only ever
// runs on the scheduler's pump goroutine, while handlers may block.
package runner

import (
	"fmt"

	"code.hybscloud.com/kont"
)

// Poster accepts work for the pump goroutine.
type Poster interface {
	Post(work func() error)
}

// Handler performs the operations programs suspend on.
// Perform runs on a worker goroutine and returns the resume value.
type Handler interface {
	Perform(op kont.Operation) kont.Resumed
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(op kont.Operation) kont.Resumed

// Perform calls f(op).
func (f HandlerFunc) Perform(op kont.Operation) kont.Resumed {
	return f(op)
}

// Start runs program on p. The first step happens in work posted to p.
// When the program returns, or throws with kont.ThrowError[error], done is
// called on the pump goroutine. A thrown error is also returned from the work
// item that observed it, so it surfaces from the scheduler's drain.
func Start[R any](p Poster, h Handler, program kont.Eff[R], done func(R, error)) {
	t := &stepper[R]{p: p, h: h, done: done}

	p.Post(func() error {
		return t.step(func() (R, *kont.Suspension[R]) {
			return kont.Step(program)
		})
	})
}

type stepper[R any] struct {
	p    Poster
	h    Handler
	done func(R, error)
}

func (t *stepper[R]) step(next func() (R, *kont.Suspension[R])) error {
	r, susp, err := protect(next)
	if err != nil {
		return t.fail(err)
	}

	if susp == nil {
		t.done(r, nil)

		return nil
	}

	op := susp.Op()

	if th, ok := op.(kont.Throw[error]); ok {
		susp.Discard()

		return t.fail(th.Err)
	}

	go t.perform(op, susp)

	return nil
}

func (t *stepper[R]) perform(op kont.Operation, susp *kont.Suspension[R]) {
	v, err := protectPerform(t.h, op)
	if err != nil {
		t.p.Post(func() error {
			susp.Discard()

			return t.fail(err)
		})

		return
	}

	t.p.Post(func() error {
		return t.step(func() (R, *kont.Suspension[R]) {
			return susp.Resume(v)
		})
	})
}

func (t *stepper[R]) fail(err error) error {
	var zero R

	t.done(zero, err)

	return err
}

func protect[R any](next func() (R, *kont.Suspension[R])) (r R, susp *kont.Suspension[R], err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("runner: program panicked: %v", p)
		}
	}()

	r, susp = next()

	return r, susp, nil
}

func protectPerform(h Handler, op kont.Operation) (v kont.Resumed, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("runner: %T panicked: %v", op, p)
		}
	}()

	return h.Perform(op), nil
}
