// Package panel interprets one AOI/AXI/repair inspection report and builds a
// validated Panel aggregate.
//
// The input is an irregular XML dialect produced by three station variants:
// automated optical and X-ray inspection (AOI/AXI) and a manual repair
// station. Board numbers inside the report cross-reference boards enumerated
// in a different section and cannot be trusted; the builder re-derives board
// order from serial numbers before returning. All failures are typed
// (*ParseError) and terminal for the document: the caller skips that report
// and moves on.
package panel

import "time"

// Kind tags the report variant, decided once from the global metadata and
// used to select the defect-window interpretation strategy.
type Kind int

const (
	// KindInspection is an automated AOI/AXI result.
	KindInspection Kind = iota
	// KindRepair is a manual repair record.
	KindRepair
)

// Panel is one inspected multi-board assembly, corresponding to one report.
// It is immutable once returned.
type Panel struct {
	Program  string // inspection plan name
	Station  string // derived, never read from the report
	Operator string // repair operator, "" for automated reports
	Kind     Kind

	Inspection time.Time // automated inspection end
	Repair     time.Time // repair end, zero for automated reports

	Boards []Board // sorted by Serial, numbered 1..N
}

// Board is one physical PCB within the panel.
type Board struct {
	Serial string
	Number int // 1-based position, assigned after sorting
	Result string

	Failed []string // genuine defect window IDs, insertion order, deduped
	Pseudo []string // operator-reclassified false positives, repair only
}

// appendUnique appends v to list unless it is already present. Window lists
// are short, so the linear scan beats a side map.
func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}
