// Released under an MIT license. See LICENSE.

package driver

import (
	"errors"
	"io"
	"strings"

	"code.hybscloud.com/kont"

	"github.com/michaelmacinnis/cellar/internal/interface/backend"
	"github.com/michaelmacinnis/cellar/internal/interface/console"
	"github.com/michaelmacinnis/cellar/internal/type/event"
)

// Repl reads cells from the console and evaluates each one once the
// workspace says it is complete. It returns 0 at end of input.
func (d *driver) Repl(desc backend.Description) kont.Eff[int] {
	return kont.Bind(perform[struct{}](initialize{d: desc}), func(struct{}) kont.Eff[int] {
		return d.cell("")
	})
}

func (d *driver) cell(after event.CellID) kont.Eff[int] {
	return kont.Bind(perform[event.CellID](insertCell{after: after}), func(id event.CellID) kont.Eff[int] {
		d.Current = id

		return d.read(id, false)
	})
}

func (d *driver) read(id event.CellID, secondary bool) kont.Eff[int] {
	op := readLine{prompt: d.prompt(secondary)}

	return kont.Bind(kont.Perform[readLine, kont.Either[error, string]](op), func(r kont.Either[error, string]) kont.Eff[int] {
		line, ok := r.GetRight()
		if ok {
			return d.line(id, secondary, line)
		}

		err, _ := r.GetLeft()

		switch {
		case errors.Is(err, io.EOF):
			return kont.Pure(0)
		case errors.Is(err, console.ErrAborted):
			return kont.Bind(perform[struct{}](updateBuffer{id: id}), func(struct{}) kont.Eff[int] {
				return d.read(id, false)
			})
		default:
			return kont.ThrowError[error, int](err)
		}
	})
}

func (d *driver) line(id event.CellID, secondary bool, line string) kont.Eff[int] {
	return kont.Bind(perform[string](getBuffer{id: id}), func(buffer string) kont.Eff[int] {
		buffer += line + "\n"

		if !secondary && strings.TrimSpace(buffer) == "" {
			return d.read(id, false)
		}

		return kont.Bind(perform[struct{}](updateBuffer{id: id, text: buffer}), func(struct{}) kont.Eff[int] {
			return kont.Bind(perform[bool](isComplete{id: id}), func(complete bool) kont.Eff[int] {
				if !complete {
					return d.read(id, true)
				}

				return kont.Bind(d.evaluate(id), func(struct{}) kont.Eff[int] {
					return d.cell(id)
				})
			})
		})
	})
}

// evaluate evaluates id and waits for its events to settle.
func (d *driver) evaluate(id event.CellID) kont.Eff[struct{}] {
	return kont.Bind(perform[struct{}](evaluate{id: id}), func(struct{}) kont.Eff[struct{}] {
		return perform[struct{}](settle{d: d.settle})
	})
}
