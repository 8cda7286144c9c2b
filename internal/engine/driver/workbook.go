// Released under an MIT license. See LICENSE.

package driver

import (
	"strings"

	"code.hybscloud.com/kont"

	"github.com/michaelmacinnis/cellar/internal/interface/backend"
	"github.com/michaelmacinnis/cellar/internal/reader/workbook"
	"github.com/michaelmacinnis/cellar/internal/type/event"
)

// Workbook replays the code cells of doc in order, stopping after the first
// cell that does not evaluate successfully. It returns 0 either way.
func (d *driver) Workbook(doc *workbook.T, desc backend.Description) kont.Eff[int] {
	return kont.Bind(perform[struct{}](initialize{d: desc}), func(struct{}) kont.Eff[int] {
		return kont.Bind(perform[struct{}](restore{packages: doc.Packages}), func(struct{}) kont.Eff[int] {
			return d.replay(doc.Cells, "")
		})
	})
}

func (d *driver) replay(cells []workbook.Cell, after event.CellID) kont.Eff[int] {
	if len(cells) == 0 {
		return kont.Pure(0)
	}

	c := cells[0]

	return kont.Bind(perform[event.CellID](insertCell{text: c.Source, after: after}), func(id event.CellID) kont.Eff[int] {
		d.Current = id

		if d.prose && strings.TrimSpace(c.Prose) != "" {
			d.out.Prose(c.Prose)
		}

		d.out.Echo(d.prompt(false), c.Source)

		return kont.Bind(d.evaluate(id), func(struct{}) kont.Eff[int] {
			if d.Last != event.Success {
				return kont.Pure(0)
			}

			return d.replay(cells[1:], id)
		})
	})
}
