// Released under an MIT license. See LICENSE.

// Package scheduler provides a cooperative, single-goroutine executor.
//
// Work may be posted from any goroutine. It runs, one item at a time and in
// the order posted, on the goroutine that called Pump. That goroutine is
// locked to its OS thread until Pump returns. Pump returns once Complete has
// been called and every queued item has run.
package scheduler

import (
	"errors"
	"fmt"
	"io"
	"log"
	"runtime"
	"sync"
)

// ErrAlreadyPumped is returned when Pump is called more than once.
var ErrAlreadyPumped = errors.New("scheduler: already pumped")

// T (scheduler) is a FIFO run-queue drained by a single pump goroutine.
type T struct {
	mu   sync.Mutex
	wake *sync.Cond

	queue []func() error

	complete bool
	drained  bool
	dropped  int
	pumped   bool

	err error
	log *log.Logger
}

type scheduler = T

// New creates a scheduler. A nil logger discards log output.
func New(l *log.Logger) *T {
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}

	s := &T{log: l}
	s.wake = sync.NewCond(&s.mu)

	return s
}

// Complete marks that no more work will be posted. Work already queued still
// runs before Pump returns. Calling Complete more than once has no effect.
func (s *scheduler) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.complete {
		return
	}

	s.complete = true
	s.wake.Signal()
}

// Dropped returns the number of items posted after Pump returned.
func (s *scheduler) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.dropped
}

// Post queues work to run on the pump goroutine. It never blocks.
func (s *scheduler) Post(work func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.drained {
		s.dropped++
		s.log.Printf("dropped work posted after drain (%d total)", s.dropped)

		return
	}

	s.queue = append(s.queue, work)
	s.wake.Signal()
}

// Pump runs queued work on the calling goroutine until Complete has been
// called and the queue is empty. It returns the first error returned, or
// panic raised, by a work item.
func (s *scheduler) Pump() error {
	s.mu.Lock()
	if s.pumped {
		s.mu.Unlock()

		return ErrAlreadyPumped
	}

	s.pumped = true

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for {
		for len(s.queue) == 0 && !s.complete {
			s.wake.Wait()
		}

		if len(s.queue) == 0 {
			s.drained = true
			err := s.err
			s.mu.Unlock()

			return err
		}

		work := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]

		s.mu.Unlock()

		err := run(work)

		s.mu.Lock()

		if err != nil {
			if s.err == nil {
				s.err = err
			} else {
				s.log.Printf("suppressed error: %v", err)
			}
		}
	}
}

func run(work func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scheduler: work panicked: %v", r)
		}
	}()

	return work()
}
