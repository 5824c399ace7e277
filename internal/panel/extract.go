package panel

import (
	"time"

	"github.com/Sha0S/AOI-uploader/internal/xmltree"
)

// Timestamps in the reports are split into a <Date><End>YYYYMMDD and a
// <Time><End>HHMMSS pair under the same parent.
const stampLayout = "20060102 150405"

// endTimestamp extracts the Date/End + Time/End pair under n and parses it
// as a local calendar timestamp.
//
// Extraction never fails: an absent path, an empty component, or text that
// does not parse all degrade to the zero time. The builder's year >= 2000
// gate rejects the zero value wherever the timestamp is mandatory, so a
// malformed date and an absent one fail validation the same way.
func endTimestamp(n *xmltree.Node) time.Time {
	var date, clock string
	if d := n.Child("Date"); d != nil {
		date = d.ChildText("End")
	}
	if t := n.Child("Time"); t != nil {
		clock = t.ChildText("End")
	}
	if date == "" || clock == "" {
		return time.Time{}
	}
	ts, err := time.ParseInLocation(stampLayout, date+" "+clock, time.Local)
	if err != nil {
		return time.Time{}
	}
	return ts
}
