package panel

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/Sha0S/AOI-uploader/internal/xmltree"
)

// Parse interprets one inspection report and returns the validated Panel.
// line is the production line name used to derive the station; the report
// itself does not name the station reliably enough to trust.
//
// The call is pure and synchronous: it owns no shared state and is safe to
// run from any number of goroutines, one report per call.
func Parse(r io.Reader, line string) (Panel, error) {
	return parse(r, line, "")
}

// ParseBytes is Parse over an in-memory report.
func ParseBytes(b []byte, line string) (Panel, error) {
	return parse(bytes.NewReader(b), line, "")
}

// ParseFile reads and interprets the report at path. The path is carried
// into any *ParseError for logging and skip handling.
func ParseFile(path, line string) (Panel, error) {
	f, err := os.Open(path)
	if err != nil {
		return Panel{}, fmt.Errorf("open report: %w", err)
	}
	defer f.Close()
	return parse(f, line, path)
}

// parse runs the section interpreters in a fixed order, validates across
// sections, and normalizes the result. Any failure aborts immediately; no
// partial Panel is ever returned.
func parse(r io.Reader, line, file string) (Panel, error) {
	root, err := xmltree.Parse(r)
	if err != nil {
		return Panel{}, fmt.Errorf("parse report: %w", err)
	}

	g, err := parseGlobal(root, file)
	if err != nil {
		return Panel{}, err
	}
	if g.program == "" {
		return Panel{}, &ParseError{
			File:    file,
			Reason:  ReasonMissingField,
			Section: "GlobalInformation",
			Field:   "Program/InspectionPlanName",
		}
	}
	// Year gate: the stations have produced logs since the 2000s, anything
	// earlier means the timestamp pair was absent or malformed.
	if g.inspection.Year() < 2000 {
		return Panel{}, &ParseError{
			File:    file,
			Reason:  ReasonBadTimestamp,
			Section: "GlobalInformation",
			Field:   "Inspection/Date",
		}
	}
	if g.kind == KindRepair && g.repair.Year() < 2000 {
		return Panel{}, &ParseError{
			File:    file,
			Reason:  ReasonBadTimestamp,
			Section: "GlobalInformation",
			Field:   "Repair/Date",
		}
	}

	boards, anyFailed, err := parseBoards(root, file)
	if err != nil {
		return Panel{}, err
	}
	// The declared element count and the actual SinglePCB children can
	// disagree; unfilled slots surface here.
	for i := range boards {
		if boards[i].Serial == "" || boards[i].Result == "" {
			return Panel{}, &ParseError{
				File:    file,
				Reason:  ReasonInconsistentBoard,
				Section: "PCBInformation",
				Detail:  fmt.Sprintf("board slot %d has no serial or result", i),
			}
		}
	}

	switch {
	case g.kind == KindRepair:
		// Repair records always carry window verdicts, pass or fail.
		if err := applyRepairWindows(root, boards, file); err != nil {
			return Panel{}, err
		}
	case anyFailed:
		if err := applyInspectionWindows(root, boards, file); err != nil {
			return Panel{}, err
		}
	}

	// The board numbers inside the report are wrong; the serials define the
	// true order. Sort, then renumber 1..N.
	sort.Slice(boards, func(i, j int) bool { return boards[i].Serial < boards[j].Serial })
	for i := range boards {
		boards[i].Number = i + 1
	}

	station := line + "_AOI_AXI"
	if g.kind == KindRepair {
		station = line + "_HARAN"
	}

	return Panel{
		Program:    g.program,
		Station:    station,
		Operator:   g.operator,
		Kind:       g.kind,
		Inspection: g.inspection,
		Repair:     g.repair,
		Boards:     boards,
	}, nil
}
