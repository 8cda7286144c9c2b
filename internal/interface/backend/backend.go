// Released under an MIT license. See LICENSE.

// Package backend describes the services an evaluation agent provides.
//
// Every method blocks until the agent answers. The engine never calls them
// from its pump goroutine.
package backend

import (
	"context"

	"github.com/michaelmacinnis/cellar/internal/type/event"
)

// Description is what a session needs to get itself in order.
type Description struct {
	Language  string `json:"language"`
	Platform  string `json:"platform"`
	Directory string `json:"directory"`
}

// Package is an external package dependency declared by a document.
type Package struct {
	ID      string `json:"id" yaml:"id"`
	Version string `json:"version" yaml:"version"`
}

// Session is the lifecycle side of an agent connection.
type Session interface {
	// Initialize prepares the agent, workspace and evaluation service.
	// Lifecycle events are published while it runs.
	Initialize(ctx context.Context, d Description) error

	// Subscribe registers f to receive every event, in order, from a
	// single goroutine. The returned function cancels the subscription.
	Subscribe(f func(event.Session)) (cancel func())
}

// Evaluation manages cells and evaluates them.
type Evaluation interface {
	// InsertCell creates a cell holding text after the cell after.
	// A zero after appends.
	InsertCell(ctx context.Context, text string, after event.CellID) (event.CellID, error)
	Buffer(ctx context.Context, id event.CellID) (string, error)
	UpdateBuffer(ctx context.Context, id event.CellID, text string) error

	// Evaluate requests evaluation of a cell. It may return before the
	// cell's first events have been delivered.
	Evaluate(ctx context.Context, id event.CellID) error
}

// Workspace answers questions about cell source.
type Workspace interface {
	IsCellComplete(ctx context.Context, id event.CellID) (bool, error)
}

// PackageManager restores package dependencies.
type PackageManager interface {
	Restore(ctx context.Context, packages []Package) error
}

// T (backend) is everything an agent connection provides.
type T interface {
	Session
	Evaluation
	Workspace
	PackageManager
}
