// Package segment splits report text into SectionKind-tagged line runs.
package segment

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/fiscal-extract/constants"
	"github.com/joseph-ayodele/fiscal-extract/internal/entity"
	"github.com/joseph-ayodele/fiscal-extract/internal/normalize"
)

var reCNPJ = regexp.MustCompile(`\d{2}\.\d{3}\.\d{3}/\d{4}-\d{2}`)

// Result is the segmented document.
type Result struct {
	Sections []entity.Section
	// CNPJ is the first CNPJ found anywhere in the document.
	CNPJ string
}

// Lines counts the lines assigned to any section.
func (r Result) Lines() int {
	n := 0
	for _, s := range r.Sections {
		n += len(s.Lines)
	}
	return n
}

// Segmenter is stateless between calls and safe for concurrent use.
type Segmenter struct {
	markers *Markers
	logger  *slog.Logger
}

func New(markers *Markers, logger *slog.Logger) *Segmenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Segmenter{markers: markers, logger: logger}
}

// FindCNPJ returns the first CNPJ in text, or "".
func FindCNPJ(text string) string {
	return reCNPJ.FindString(text)
}

// Segment walks the pages and assigns lines to sections. When the whole
// document has no recognised heading, every line goes to fallback (if
// fallback is non-empty).
func (s *Segmenter) Segment(pages []string, fallback constants.SectionKind) Result {
	res := Result{}
	var (
		cur      *entity.Section
		curMark  *compiledSection
		loose    []entity.RawLine
		headings int
	)
	closeSection := func() {
		if cur != nil && len(cur.Lines) > 0 {
			res.Sections = append(res.Sections, *cur)
		}
		cur, curMark = nil, nil
	}

	number := 0
	for pageIdx, page := range pages {
		if res.CNPJ == "" {
			res.CNPJ = FindCNPJ(page)
		}
		for _, line := range s.preprocess(page) {
			number++
			folded := normalize.Fold(line)

			if cs, ok := s.markers.heading(folded); ok {
				headings++
				if cur != nil && cur.Kind == cs.kind {
					// heading repeated after a page break
					continue
				}
				closeSection()
				cur = &entity.Section{Kind: cs.kind}
				curMark = cs
				s.logger.Debug("segment.section.open", "section", cs.kind, "page", pageIdx+1, "line", number)
				continue
			}
			if matchAny(s.markers.stops, folded) {
				if cur != nil {
					s.logger.Debug("segment.section.stop", "section", cur.Kind, "line", number, "marker", line)
				}
				closeSection()
				continue
			}

			raw := entity.RawLine{Text: line, Page: pageIdx + 1, Number: number}
			if cur == nil {
				loose = append(loose, raw)
				continue
			}
			if matchAny(curMark.stops, folded) {
				s.logger.Debug("segment.section.stop", "section", cur.Kind, "line", number, "marker", line)
				closeSection()
				loose = append(loose, raw)
				continue
			}
			if matchAny(curMark.headers, folded) {
				continue
			}
			raw.Section = cur.Kind
			cur.Lines = append(cur.Lines, raw)
		}
	}
	closeSection()

	if headings == 0 && fallback != "" && len(loose) > 0 {
		res.Sections = []entity.Section{s.fallbackSection(fallback, loose)}
	}
	return res
}

func (s *Segmenter) fallbackSection(kind constants.SectionKind, lines []entity.RawLine) entity.Section {
	sec := entity.Section{Kind: kind}
	mark := s.markers.section(kind)
	for _, l := range lines {
		if mark != nil && matchAny(mark.headers, normalize.Fold(l.Text)) {
			continue
		}
		l.Section = kind
		sec.Lines = append(sec.Lines, l)
	}
	s.logger.Debug("segment.fallback", "section", kind, "lines", len(sec.Lines))
	return sec
}

// preprocess cleans a page and drops blank and page-furniture lines.
func (s *Segmenter) preprocess(page string) []string {
	text := normalize.CleanText(page)
	if text == "" {
		return nil
	}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line == "" || s.isNoise(line) {
			continue
		}
		out = append(out, line)
	}
	return out
}

func (s *Segmenter) isNoise(line string) bool {
	folded := normalize.Fold(line)
	for _, n := range s.markers.noise {
		if strings.Contains(folded, n) {
			return true
		}
	}
	return false
}
