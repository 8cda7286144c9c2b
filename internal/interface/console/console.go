// Released under an MIT license. See LICENSE.

// Package console defines the terminal surface the engine talks to.
package console

import (
	"errors"

	"github.com/michaelmacinnis/cellar/internal/type/event"
)

// ErrAborted is returned by a Reader when the user abandons a prompt.
var ErrAborted = errors.New("prompt aborted")

// Reader reads lines of input. ReadLine shows prompt and returns one line
// without its terminator. It returns io.EOF at end of input.
type Reader interface {
	ReadLine(prompt string) (string, error)
}

// Renderer writes everything else. Renderers are only called from the
// engine's pump goroutine.
type Renderer interface {
	// Echo shows a prompt followed by source being evaluated.
	Echo(prompt, source string)

	// Prose shows markdown found between cells of a document.
	Prose(markdown string)

	Output(fd int, text string)
	Result(typ, text string)
	Error(message string)
	Diagnostic(d event.Diagnostic)
	Session(kind event.Kind)
}
