package panel

import (
	"strconv"
	"strings"
	"time"

	"github.com/Sha0S/AOI-uploader/internal/xmltree"
)

// Result literals used by the stations.
const (
	resultPass   = "PASS"        // SinglePCB result for a good board
	resultNoFail = "0"           // AOI/AXI window code for "not a defect"
	resultPseudo = "Pszeudohiba" // repair code for a reclassified false positive
)

// globalInfo is the partial state produced by the GlobalInformation section.
type globalInfo struct {
	kind       Kind
	program    string
	operator   string
	inspection time.Time
	repair     time.Time
}

// parseGlobal interprets the mandatory <GlobalInformation> section. Presence
// of a <Repair> child flags the whole report as a repair record. Field-level
// validation is left to the builder, which knows which fields are mandatory
// for the decided kind.
func parseGlobal(root *xmltree.Node, file string) (globalInfo, error) {
	ginfo := root.Child("GlobalInformation")
	if ginfo == nil {
		return globalInfo{}, &ParseError{
			File:    file,
			Reason:  ReasonMissingSection,
			Section: "GlobalInformation",
		}
	}

	g := globalInfo{kind: KindInspection}
	if prog := ginfo.Child("Program"); prog != nil {
		g.program = prog.ChildText("InspectionPlanName")
	}
	if insp := ginfo.Child("Inspection"); insp != nil {
		g.inspection = endTimestamp(insp)
	}
	if rep := ginfo.Child("Repair"); rep != nil {
		g.kind = KindRepair
		g.operator = strings.ToUpper(rep.ChildText("OperatorName"))
		g.repair = endTimestamp(rep)
	}
	return g, nil
}

// parseBoards interprets the optional <PCBInformation> section.
//
// The board slice is pre-sized to the section's element count, then filled
// in document order from the <SinglePCB> children. A count mismatch leaves
// default slots behind; the builder's final sweep rejects those. The second
// return value reports whether any board result differs from PASS, which
// gates defect-window scanning for automated reports.
func parseBoards(root *xmltree.Node, file string) ([]Board, bool, error) {
	pcbInfo := root.Child("PCBInformation")
	if pcbInfo == nil {
		return nil, false, nil
	}

	boards := make([]Board, len(pcbInfo.Children))
	anyFailed := false
	i := 0
	for _, child := range pcbInfo.Children {
		if child.Tag != "SinglePCB" {
			continue
		}
		serial := child.ChildText("Barcode")
		result := child.ChildText("Result")
		if serial == "" || result == "" {
			return nil, false, &ParseError{
				File:    file,
				Reason:  ReasonMissingField,
				Section: "PCBInformation",
				Field:   "Barcode/Result",
				Detail:  "SinglePCB " + strconv.Itoa(i) + " is missing sub-fields",
			}
		}
		if result != resultPass {
			anyFailed = true
		}
		boards[i].Serial = serial
		boards[i].Result = result
		i++
	}
	return boards, anyFailed, nil
}

// window is one <ComponentInformation> child, before classification.
type window struct {
	winID  string
	pcbRef string
	result string
}

// stripSubIndex drops the trailing "-<n>" sub-index from a window ID,
// so "U5-2" becomes "U5". IDs without a separator pass through unchanged.
func stripSubIndex(winID string) string {
	if c := strings.LastIndexByte(winID, '-'); c >= 0 {
		return winID[:c]
	}
	return winID
}

// applyRepairWindows scans <ComponentInformation> of a repair record and
// appends each window to the referenced board's Pseudo or Failed list.
//
// The result code sits under Result/ErrorDescription. PCBNumber is an
// unsigned zero-based index into the board slice; a reference to a board
// slot beyond the slice is ignored, but an unparsable or negative number
// rejects the report.
func applyRepairWindows(root *xmltree.Node, boards []Board, file string) error {
	compInfo := root.Child("ComponentInformation")
	if compInfo == nil {
		return nil
	}
	for _, child := range compInfo.Children {
		w := window{
			winID:  child.ChildText("WinID"),
			pcbRef: child.ChildText("PCBNumber"),
		}
		if res := child.Child("Result"); res != nil {
			w.result = res.ChildText("ErrorDescription")
		}
		if err := w.require(file); err != nil {
			return err
		}

		// The reference is an unsigned index; a negative string is as
		// unparsable as a non-numeric one.
		idx, err := strconv.Atoi(w.pcbRef)
		if err != nil || idx < 0 {
			return &ParseError{
				File:    file,
				Reason:  ReasonBadNumber,
				Section: "ComponentInformation",
				Field:   "PCBNumber",
				Detail:  w.pcbRef,
			}
		}
		if idx >= len(boards) {
			continue
		}

		id := stripSubIndex(w.winID)
		if w.result == resultPseudo {
			boards[idx].Pseudo = appendUnique(boards[idx].Pseudo, id)
		} else {
			boards[idx].Failed = appendUnique(boards[idx].Failed, id)
		}
	}
	return nil
}

// applyInspectionWindows scans <ComponentInformation> of an automated report
// and appends each defect window to the referenced board's Failed list.
//
// The result code sits under Analysis/Result; code "0" marks a clean window
// and is skipped. PCBNumber is 1-based here, and unlike the repair variant a
// reference to a missing board rejects the report.
func applyInspectionWindows(root *xmltree.Node, boards []Board, file string) error {
	compInfo := root.Child("ComponentInformation")
	if compInfo == nil {
		return nil
	}
	for _, child := range compInfo.Children {
		w := window{
			winID:  child.ChildText("WinID"),
			pcbRef: child.ChildText("PCBNumber"),
		}
		if an := child.Child("Analysis"); an != nil {
			w.result = an.ChildText("Result")
		}
		if err := w.require(file); err != nil {
			return err
		}
		if w.result == resultNoFail {
			continue
		}

		// Unsigned index here too: a negative string fails the parse, it
		// is not merely out of range.
		num, err := strconv.Atoi(w.pcbRef)
		if err != nil || num < 0 {
			return &ParseError{
				File:    file,
				Reason:  ReasonBadNumber,
				Section: "ComponentInformation",
				Field:   "PCBNumber",
				Detail:  w.pcbRef,
			}
		}
		if num == 0 {
			return &ParseError{
				File:    file,
				Reason:  ReasonBoardOutOfRange,
				Section: "ComponentInformation",
				Field:   "PCBNumber",
				Detail:  "board number is 0, expected 1+",
			}
		}
		if num > len(boards) {
			return &ParseError{
				File:    file,
				Reason:  ReasonBoardOutOfRange,
				Section: "ComponentInformation",
				Field:   "PCBNumber",
				Detail:  "no board number " + w.pcbRef,
			}
		}

		id := stripSubIndex(w.winID)
		boards[num-1].Failed = appendUnique(boards[num-1].Failed, id)
	}
	return nil
}

// require rejects a window with any empty field; one broken window rejects
// the whole report.
func (w window) require(file string) error {
	if w.winID == "" || w.pcbRef == "" || w.result == "" {
		return &ParseError{
			File:    file,
			Reason:  ReasonMissingField,
			Section: "ComponentInformation",
			Field:   "WinID/PCBNumber/Result",
			Detail:  "WinID=" + w.winID + " PCBNumber=" + w.pcbRef + " Result=" + w.result,
		}
	}
	return nil
}
