package storage

import (
	"strings"

	"github.com/Sha0S/AOI-uploader/internal/panel"
)

// Columns is the destination column order for the results table. One row is
// written per board; panel-level fields repeat on each of its rows.
var Columns = []string{
	"Serial_NMBR",
	"Board_NMBR",
	"Program",
	"Station",
	"Operator",
	"Result",
	"Date_Time",
	"Failed",
	"Pseudo_error",
}

// Rows flattens a validated panel into one row per board, aligned to
// Columns. Date_Time is the repair completion for repair records and the
// inspection completion otherwise. Window lists are joined with ", " to
// match the existing table contents.
func Rows(p panel.Panel) [][]any {
	dt := p.Inspection
	if p.Kind == panel.KindRepair {
		dt = p.Repair
	}
	rows := make([][]any, 0, len(p.Boards))
	for _, b := range p.Boards {
		rows = append(rows, []any{
			b.Serial,
			b.Number,
			p.Program,
			p.Station,
			p.Operator,
			b.Result,
			dt,
			strings.Join(b.Failed, ", "),
			strings.Join(b.Pseudo, ", "),
		})
	}
	return rows
}
