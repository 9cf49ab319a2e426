package segment

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/fiscal-extract/constants"
	"github.com/joseph-ayodele/fiscal-extract/internal/normalize"
)

//go:embed markers.yaml
var defaultMarkers []byte

type markerFile struct {
	Noise    []string        `yaml:"noise"`
	Stops    []string        `yaml:"stops"`
	Sections []sectionMarker `yaml:"sections"`
}

type sectionMarker struct {
	Kind     string   `yaml:"kind"`
	Headings []string `yaml:"headings"`
	Stops    []string `yaml:"stops"`
	Headers  []string `yaml:"headers"`
}

// Markers is the compiled marker table.
type Markers struct {
	noise    []string
	stops    []*regexp.Regexp
	sections []compiledSection
}

type compiledSection struct {
	kind     constants.SectionKind
	headings []*regexp.Regexp
	stops    []*regexp.Regexp
	headers  []*regexp.Regexp
}

// DefaultMarkers compiles the embedded table.
func DefaultMarkers() (*Markers, error) {
	return ParseMarkers(defaultMarkers)
}

// LoadMarkersFile compiles a marker table from disk.
func LoadMarkersFile(path string) (*Markers, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open markers: %w", err)
	}
	defer f.Close()
	return LoadMarkers(f)
}

func LoadMarkers(r io.Reader) (*Markers, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read markers: %w", err)
	}
	return ParseMarkers(data)
}

func ParseMarkers(data []byte) (*Markers, error) {
	var mf markerFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("decode markers: %w", err)
	}

	m := &Markers{}
	for _, n := range mf.Noise {
		m.noise = append(m.noise, normalize.Fold(n))
	}
	var err error
	if m.stops, err = compileAll(mf.Stops); err != nil {
		return nil, err
	}
	for _, s := range mf.Sections {
		kind, ok := constants.ParseSectionKind(s.Kind)
		if !ok {
			return nil, fmt.Errorf("markers: unknown section kind %q", s.Kind)
		}
		if len(s.Headings) == 0 {
			return nil, fmt.Errorf("markers: section %s has no headings", kind)
		}
		cs := compiledSection{kind: kind}
		if cs.headings, err = compileAll(s.Headings); err != nil {
			return nil, err
		}
		if cs.stops, err = compileAll(s.Stops); err != nil {
			return nil, err
		}
		if cs.headers, err = compileAll(s.Headers); err != nil {
			return nil, err
		}
		m.sections = append(m.sections, cs)
	}
	return m, nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(`(?i)` + p)
		if err != nil {
			return nil, fmt.Errorf("markers: compile %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func matchAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// heading returns the section whose heading matches the folded line.
func (m *Markers) heading(folded string) (*compiledSection, bool) {
	for i := range m.sections {
		if matchAny(m.sections[i].headings, folded) {
			return &m.sections[i], true
		}
	}
	return nil, false
}

func (m *Markers) section(kind constants.SectionKind) *compiledSection {
	for i := range m.sections {
		if m.sections[i].kind == kind {
			return &m.sections[i]
		}
	}
	return nil
}
