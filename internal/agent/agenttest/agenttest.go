// Released under an MIT license. See LICENSE.

// Package agenttest provides an in-memory agent for tests.
//
// The agent keeps cells in memory, judges a cell complete when its brackets
// balance and, on evaluation, publishes the events a script returns for the
// cell. Events are delivered to subscribers from a single goroutine, in
// order. Publishing waits until every subscriber has been called, so by the
// time Evaluate returns the cell's events have been handed over.
package agenttest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/michaelmacinnis/cellar/internal/interface/backend"
	"github.com/michaelmacinnis/cellar/internal/type/event"
)

// Methods, named as they are on the wire.
const (
	Initialize     = "session/initialize"
	InsertCell     = "evaluation/insertCell"
	GetBuffer      = "evaluation/getBuffer"
	UpdateBuffer   = "evaluation/updateBuffer"
	Evaluate       = "evaluation/evaluate"
	IsCellComplete = "workspace/isCellComplete"
	Restore        = "packages/restore"
)

// Call records one request made of the agent.
type Call struct {
	Method string
	ID     event.CellID
	Text   string
}

// Script returns the events evaluating source in cell id produces. Evaluations
// are numbered from zero in the order they are requested.
type Script func(n int, id event.CellID, source string) []event.T

// Succeed is the default Script. Every cell starts and finishes successfully.
func Succeed(_ int, id event.CellID, _ string) []event.T {
	return []event.T{
		event.Started{ID: id},
		event.Finished{ID: id, Status: event.Success},
	}
}

// T (agenttest) is an in-memory agent.
type T struct {
	// Errors makes the named methods fail.
	Errors map[string]error

	// Lifecycle is published, in order, while Initialize runs.
	Lifecycle []event.Kind

	// Packages receives the packages passed to Restore.
	Packages []backend.Package

	// Script decides what evaluating a cell publishes. Nil means Succeed.
	Script Script

	deliveries chan delivery
	done       chan struct{}
	once       sync.Once

	mu          sync.Mutex
	calls       []Call
	cells       []event.CellID
	evaluations int
	next        int
	sources     map[event.CellID]string
	subscribers map[int]func(event.Session)
	subscriber  int
}

type agent = T

type delivery struct {
	events []event.Session
	done   chan struct{}
}

// New creates an agent and starts its delivery goroutine.
func New() *T {
	a := &agent{
		deliveries:  make(chan delivery),
		done:        make(chan struct{}),
		sources:     map[event.CellID]string{},
		subscribers: map[int]func(event.Session){},
	}

	go a.deliver()

	return a
}

// Close stops the delivery goroutine.
func (a *agent) Close() {
	a.once.Do(func() {
		close(a.done)
	})
}

// Calls returns the requests made so far.
func (a *agent) Calls() []Call {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]Call(nil), a.calls...)
}

// Count returns the number of requests made for method.
func (a *agent) Count(method string) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := 0

	for _, c := range a.calls {
		if c.Method == method {
			n++
		}
	}

	return n
}

// Cells returns the cell ids in document order.
func (a *agent) Cells() []event.CellID {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]event.CellID(nil), a.cells...)
}

// Publish delivers events to subscribers and waits until they have been.
func (a *agent) Publish(events ...event.Session) {
	d := delivery{events: events, done: make(chan struct{})}

	select {
	case a.deliveries <- d:
	case <-a.done:
		return
	}

	select {
	case <-d.done:
	case <-a.done:
	}
}

// Subscribe implements backend.Session.
func (a *agent) Subscribe(f func(event.Session)) func() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.subscriber++
	id := a.subscriber
	a.subscribers[id] = f

	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()

		delete(a.subscribers, id)
	}
}

// Initialize implements backend.Session.
func (a *agent) Initialize(_ context.Context, d backend.Description) error {
	if err := a.record(Call{Method: Initialize, Text: d.Language}); err != nil {
		return err
	}

	events := make([]event.Session, len(a.Lifecycle))
	for i, k := range a.Lifecycle {
		events[i] = event.Session{Kind: k}
	}

	a.Publish(events...)

	return nil
}

// Restore implements backend.PackageManager.
func (a *agent) Restore(_ context.Context, packages []backend.Package) error {
	if err := a.record(Call{Method: Restore}); err != nil {
		return err
	}

	a.mu.Lock()
	a.Packages = append(a.Packages, packages...)
	a.mu.Unlock()

	return nil
}

// InsertCell implements backend.Evaluation.
func (a *agent) InsertCell(_ context.Context, text string, after event.CellID) (event.CellID, error) {
	if err := a.record(Call{Method: InsertCell, ID: after, Text: text}); err != nil {
		return "", err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.next++
	id := event.CellID(fmt.Sprintf("cell-%d", a.next))
	a.sources[id] = text

	at := len(a.cells)

	if after != "" {
		i := a.index(after)
		if i < 0 {
			return "", fmt.Errorf("agenttest: no cell %s", after)
		}

		at = i + 1
	}

	a.cells = append(a.cells, "")
	copy(a.cells[at+1:], a.cells[at:])
	a.cells[at] = id

	return id, nil
}

// Buffer implements backend.Evaluation.
func (a *agent) Buffer(_ context.Context, id event.CellID) (string, error) {
	if err := a.record(Call{Method: GetBuffer, ID: id}); err != nil {
		return "", err
	}

	return a.source(id)
}

// UpdateBuffer implements backend.Evaluation.
func (a *agent) UpdateBuffer(_ context.Context, id event.CellID, text string) error {
	if err := a.record(Call{Method: UpdateBuffer, ID: id, Text: text}); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.sources[id]; !ok {
		return fmt.Errorf("agenttest: no cell %s", id)
	}

	a.sources[id] = text

	return nil
}

// IsCellComplete implements backend.Workspace. A cell is complete when no
// bracket is left open.
func (a *agent) IsCellComplete(_ context.Context, id event.CellID) (bool, error) {
	if err := a.record(Call{Method: IsCellComplete, ID: id}); err != nil {
		return false, err
	}

	source, err := a.source(id)
	if err != nil {
		return false, err
	}

	return Balanced(source), nil
}

// Evaluate implements backend.Evaluation.
func (a *agent) Evaluate(_ context.Context, id event.CellID) error {
	source, err := a.source(id)
	if err != nil {
		return err
	}

	if err := a.record(Call{Method: Evaluate, ID: id, Text: source}); err != nil {
		return err
	}

	a.mu.Lock()
	n := a.evaluations
	a.evaluations++

	script := a.Script
	a.mu.Unlock()

	if script == nil {
		script = Succeed
	}

	produced := script(n, id, source)

	events := make([]event.Session, len(produced))
	for i, e := range produced {
		events[i] = event.Session{Kind: event.Evaluation, Data: e}
	}

	a.Publish(events...)

	return nil
}

// Balanced reports whether every bracket opened in source is closed.
func Balanced(source string) bool {
	depth := 0

	for _, r := range source {
		switch r {
		case '{', '(', '[':
			depth++
		case '}', ')', ']':
			depth--
		}
	}

	return depth <= 0
}

func (a *agent) deliver() {
	for {
		select {
		case d := <-a.deliveries:
			for _, ev := range d.events {
				for _, f := range a.snapshot() {
					f(ev)
				}
			}

			close(d.done)
		case <-a.done:
			return
		}
	}
}

func (a *agent) index(id event.CellID) int {
	for i, c := range a.cells {
		if c == id {
			return i
		}
	}

	return -1
}

func (a *agent) record(c Call) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.calls = append(a.calls, c)

	return a.Errors[c.Method]
}

func (a *agent) snapshot() []func(event.Session) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ids := make([]int, 0, len(a.subscribers))
	for id := range a.subscribers {
		ids = append(ids, id)
	}

	sort.Ints(ids)

	fs := make([]func(event.Session), len(ids))
	for i, id := range ids {
		fs[i] = a.subscribers[id]
	}

	return fs
}

func (a *agent) source(id event.CellID) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.sources[id]
	if !ok {
		return "", fmt.Errorf("agenttest: no cell %s", id)
	}

	return s, nil
}

// A compiler-checked list of interfaces this type satisfies. Never called.
func implements() { //nolint:deadcode,unused
	var t T

	_ = backend.T(&t)
}
