// Released under an MIT license. See LICENSE.

package driver

import (
	"code.hybscloud.com/kont"

	"github.com/michaelmacinnis/cellar/internal/interface/backend"
	"github.com/michaelmacinnis/cellar/internal/type/event"
)

// Command evaluates code as a single cell. It returns 0 if the cell
// evaluated successfully and 1 otherwise.
func (d *driver) Command(desc backend.Description, code string) kont.Eff[int] {
	return kont.Bind(perform[struct{}](initialize{d: desc}), func(struct{}) kont.Eff[int] {
		return kont.Bind(perform[event.CellID](insertCell{text: code}), func(id event.CellID) kont.Eff[int] {
			d.Current = id

			return kont.Bind(d.evaluate(id), func(struct{}) kont.Eff[int] {
				if d.Last != event.Success {
					return kont.Pure(1)
				}

				return kont.Pure(0)
			})
		})
	})
}
