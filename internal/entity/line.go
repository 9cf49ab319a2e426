package entity

import "github.com/joseph-ayodele/fiscal-extract/constants"

// RawLine is a single trimmed line of report text with its section context.
type RawLine struct {
	Text    string                `json:"text"`
	Section constants.SectionKind `json:"section"`
	Page    int                   `json:"page"`
	Number  int                   `json:"number"`
}

// Section is a contiguous run of lines belonging to one SectionKind.
type Section struct {
	Kind  constants.SectionKind
	Lines []RawLine
}

// Texts returns the line texts in order.
func (s Section) Texts() []string {
	out := make([]string, len(s.Lines))
	for i, l := range s.Lines {
		out[i] = l.Text
	}
	return out
}
