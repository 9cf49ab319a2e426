package entity

import "github.com/joseph-ayodele/fiscal-extract/constants"

// Document is what an extraction source hands to the converter: page text,
// pre-segmented rows, or both. Sections present in Rows skip the text path.
type Document struct {
	Family constants.DocumentFamily
	Source string
	Pages  []string
	Rows   map[constants.SectionKind][]RawRecord
	CNPJ   string
}

// Empty reports whether the document carries no text and was never
// tabulated. A non-nil Rows map means the extraction service answered,
// even if every section came back empty.
func (d Document) Empty() bool {
	for _, p := range d.Pages {
		if len(p) > 0 {
			return false
		}
	}
	return d.Rows == nil
}

// DocumentContext is threaded through one conversion call.
type DocumentContext struct {
	CNPJ string
}

// ExtractionResult maps each section to its ordered raw records.
type ExtractionResult map[constants.SectionKind][]RawRecord

// Count is the number of records across all sections.
func (r ExtractionResult) Count() int {
	n := 0
	for _, recs := range r {
		n += len(recs)
	}
	return n
}

// Ordered flattens the result in canonical section order.
func (r ExtractionResult) Ordered() []RawRecord {
	out := make([]RawRecord, 0, r.Count())
	for _, k := range constants.Sections() {
		out = append(out, r[k]...)
	}
	return out
}
