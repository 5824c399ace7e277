package panel

import "fmt"

// Reason classifies why a report was rejected. The set is closed; callers
// switch on it to decide logging and skip handling.
type Reason string

const (
	ReasonMissingSection    Reason = "missing-mandatory-section"
	ReasonMissingField      Reason = "missing-mandatory-field"
	ReasonBadTimestamp      Reason = "invalid-timestamp-combination"
	ReasonBadNumber         Reason = "unparsable-numeric-reference"
	ReasonBoardOutOfRange   Reason = "out-of-range-board-reference"
	ReasonInconsistentBoard Reason = "inconsistent-board-record"
)

// ParseError is the typed failure returned for a rejected report. Every
// failure is terminal for the document: no partial Panel is ever returned.
type ParseError struct {
	File    string // source file path, "" when parsed from memory
	Reason  Reason
	Section string // document section, e.g. "GlobalInformation"
	Field   string // offending field within the section, may be empty
	Detail  string // free-form context, may be empty
}

func (e *ParseError) Error() string {
	s := string(e.Reason)
	if e.Section != "" {
		s += " in <" + e.Section + ">"
	}
	if e.Field != "" {
		s += ", field " + e.Field
	}
	if e.Detail != "" {
		s += ": " + e.Detail
	}
	if e.File != "" {
		s = fmt.Sprintf("%s (%s)", s, e.File)
	}
	return s
}
