// Released under an MIT license. See LICENSE.

// Package agent implements an evaluation agent client over a websocket.
//
// Requests and responses are JSON objects matched by id. The agent also
// sends session event notifications; one reader goroutine routes responses
// to waiting calls and delivers events to subscribers, in order.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"sync"
	"time"

	"code.hybscloud.com/atomix"
	"github.com/gorilla/websocket"

	"github.com/michaelmacinnis/cellar/internal/interface/backend"
	"github.com/michaelmacinnis/cellar/internal/type/event"
)

// ErrClosed is returned by calls made on, or waiting on, a closed client.
var ErrClosed = errors.New("agent: connection closed")

const writeTimeout = 10 * time.Second

// Error is an error response from the agent.
type Error struct {
	Method  string
	Message string
}

func (e *Error) Error() string {
	return "agent: " + e.Method + ": " + e.Message
}

// T (agent) is a connection to an agent.
type T struct {
	conn   *websocket.Conn
	done   chan struct{}
	ids    atomix.Uint32
	logger *log.Logger

	writeMu sync.Mutex

	mu          sync.Mutex
	err         error
	pending     map[uint32]chan Message
	subscriber  int
	subscribers map[int]func(event.Session)
}

type agent = T

// Dial connects to the agent listening at url.
func Dial(ctx context.Context, url string, logger *log.Logger) (*T, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("agent: dial %s: %w", url, err)
	}

	return New(conn, logger), nil
}

// New creates a client for an established connection and starts reading.
func New(conn *websocket.Conn, logger *log.Logger) *T {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	a := &agent{
		conn:        conn,
		done:        make(chan struct{}),
		logger:      logger,
		pending:     map[uint32]chan Message{},
		subscribers: map[int]func(event.Session){},
	}

	go a.read()

	return a
}

// Close closes the connection. Calls in flight fail with ErrClosed.
func (a *agent) Close() error {
	a.mu.Lock()
	if a.err == nil {
		a.err = ErrClosed
	}
	a.mu.Unlock()

	a.writeMu.Lock()
	_ = a.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	a.writeMu.Unlock()

	err := a.conn.Close()

	<-a.done

	return err
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
func (a *agent) Initialize(ctx context.Context, d backend.Description) error {
	return a.call(ctx, Initialize, d, nil)
}

// Restore implements backend.PackageManager.
func (a *agent) Restore(ctx context.Context, p []backend.Package) error {
	return a.call(ctx, Restore, packages{Packages: p}, nil)
}

// InsertCell implements backend.Evaluation.
func (a *agent) InsertCell(ctx context.Context, text string, after event.CellID) (event.CellID, error) {
	var r cellID

	err := a.call(ctx, InsertCell, cellText{Text: text, After: after}, &r)

	return r.ID, err
}

// Buffer implements backend.Evaluation.
func (a *agent) Buffer(ctx context.Context, id event.CellID) (string, error) {
	var r cellText

	err := a.call(ctx, GetBuffer, cellID{ID: id}, &r)

	return r.Text, err
}

// UpdateBuffer implements backend.Evaluation.
func (a *agent) UpdateBuffer(ctx context.Context, id event.CellID, text string) error {
	return a.call(ctx, UpdateBuffer, cellText{ID: id, Text: text}, nil)
}

// Evaluate implements backend.Evaluation.
func (a *agent) Evaluate(ctx context.Context, id event.CellID) error {
	return a.call(ctx, Evaluate, cellID{ID: id}, nil)
}

// IsCellComplete implements backend.Workspace.
func (a *agent) IsCellComplete(ctx context.Context, id event.CellID) (bool, error) {
	var r completeness

	err := a.call(ctx, IsCellComplete, cellID{ID: id}, &r)

	return r.Complete, err
}

func (a *agent) call(ctx context.Context, method string, params, result interface{}) error {
	id := a.ids.Add(1)
	reply := make(chan Message, 1)

	a.mu.Lock()
	if a.err != nil {
		err := a.err
		a.mu.Unlock()

		return err
	}

	a.pending[id] = reply
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		delete(a.pending, id)
		a.mu.Unlock()
	}()

	a.logger.Printf("-> %d %s", id, method)

	if err := a.write(ctx, request{ID: id, Method: method, Params: params}); err != nil {
		return fmt.Errorf("agent: %s: %w", method, err)
	}

	select {
	case m := <-reply:
		if m.Error != nil {
			return &Error{Method: method, Message: m.Error.Message}
		}

		if result == nil || len(m.Result) == 0 {
			return nil
		}

		if err := json.Unmarshal(m.Result, result); err != nil {
			return fmt.Errorf("agent: %s: %w", method, err)
		}

		return nil

	case <-ctx.Done():
		return fmt.Errorf("agent: %s: %w", method, ctx.Err())

	case <-a.done:
		a.mu.Lock()
		err := a.err
		a.mu.Unlock()

		return fmt.Errorf("agent: %s: %w", method, err)
	}
}

func (a *agent) write(ctx context.Context, v interface{}) error {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(writeTimeout)
	}

	if err := a.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}

	return a.conn.WriteJSON(v)
}

func (a *agent) read() {
	defer close(a.done)

	for {
		_, data, err := a.conn.ReadMessage()
		if err != nil {
			a.mu.Lock()
			if a.err == nil {
				a.err = ErrClosed
				a.logger.Printf("read: %v", err)
			}
			a.mu.Unlock()

			return
		}

		var m Message
		if err := json.Unmarshal(data, &m); err != nil {
			a.logger.Printf("bad message: %v", err)

			continue
		}

		if m.Method == Notify {
			a.notify(m.Params)

			continue
		}

		a.mu.Lock()
		reply, ok := a.pending[m.ID]
		a.mu.Unlock()

		if !ok {
			a.logger.Printf("<- %d: nobody waiting", m.ID)

			continue
		}

		a.logger.Printf("<- %d", m.ID)

		select {
		case reply <- m:
		default:
			a.logger.Printf("<- %d: duplicate response", m.ID)
		}
	}
}

func (a *agent) notify(params json.RawMessage) {
	ev, err := Decode(params)
	if err != nil {
		a.logger.Printf("bad event: %v", err)

		return
	}

	a.mu.Lock()

	ids := make([]int, 0, len(a.subscribers))
	for id := range a.subscribers {
		ids = append(ids, id)
	}

	sort.Ints(ids)

	fs := make([]func(event.Session), len(ids))
	for i, id := range ids {
		fs[i] = a.subscribers[id]
	}

	a.mu.Unlock()

	for _, f := range fs {
		f(ev)
	}
}

// A compiler-checked list of interfaces this type satisfies. Never called.
func implements() { //nolint:deadcode,unused
	var t T

	_ = backend.T(&t)
}
