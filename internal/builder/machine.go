// Package builder accumulates classified section lines into raw records.
package builder

import (
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/fiscal-extract/constants"
	"github.com/joseph-ayodele/fiscal-extract/internal/classify"
	"github.com/joseph-ayodele/fiscal-extract/internal/entity"
	"github.com/joseph-ayodele/fiscal-extract/internal/normalize"
)

// State of a Machine.
type State int

const (
	Idle State = iota
	Accumulating
)

func (s State) String() string {
	if s == Accumulating {
		return "accumulating"
	}
	return "idle"
}

// draft is the in-progress record. Each section has its own concrete
// type; the set is closed to this package.
type draft interface {
	// feed consumes the line under the cursor and possibly more,
	// returning how many lines it used (at least one).
	feed(c *cursor) int
	complete() bool
	record() entity.RawRecord
	raw() *entity.RawRecord
}

// opener decides whether the line under the cursor starts a new record.
// cur is the record in progress, nil when idle.
type opener func(c *cursor, kind constants.SectionKind, cur draft, n *normalize.Normalizer) (d draft, consumed int, ok bool)

var openers = map[constants.SectionKind]opener{
	constants.PendingDebit:        openDebit,
	constants.DebitSuspended:      openDebit,
	constants.InstallmentSiefpar:  openSiefpar,
	constants.RegistrationPending: openRegistration,
	constants.InstallmentPending:  openSispar,
	constants.FiscalProcess:       openProcess,
	constants.DebitSicob:          openSicob,
	constants.PaymentDocument:     openPayment,
}

type cursor struct {
	lines []entity.RawLine
	pos   int
}

// at returns the text offset lines from the cursor, "" past either end.
func (c *cursor) at(offset int) string {
	i := c.pos + offset
	if i < 0 || i >= len(c.lines) {
		return ""
	}
	return c.lines[i].Text
}

func (c *cursor) number() int {
	if c.pos < len(c.lines) {
		return c.lines[c.pos].Number
	}
	return 0
}

// Machine is the idle/accumulating state machine for one section.
// A Machine is single-use and not safe for concurrent use.
type Machine struct {
	kind   constants.SectionKind
	open   opener
	norm   *normalize.Normalizer
	logger *slog.Logger

	state State
	cur   draft
	out   []entity.RawRecord

	cnpj       string
	pendingCNO string
	dropped    int
}

// NewMachine returns a machine seeded with the document context.
func NewMachine(kind constants.SectionKind, doc entity.DocumentContext, logger *slog.Logger) (*Machine, error) {
	open, ok := openers[kind]
	if !ok {
		return nil, fmt.Errorf("builder: unsupported section %q", kind)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{
		kind:   kind,
		open:   open,
		norm:   normalize.New(logger),
		logger: logger,
		cnpj:   doc.CNPJ,
	}, nil
}

func (m *Machine) State() State { return m.state }

// Dropped counts incomplete records discarded so far.
func (m *Machine) Dropped() int { return m.dropped }

// Feed runs the lines through the machine. Lookahead never crosses the
// end of lines.
func (m *Machine) Feed(lines []entity.RawLine) {
	c := &cursor{lines: lines}
	for c.pos < len(lines) {
		n := m.step(c)
		if n < 1 {
			n = 1
		}
		c.pos += n
	}
}

// FeedText is Feed for bare strings, numbered from 1.
func (m *Machine) FeedText(lines ...string) {
	raw := make([]entity.RawLine, len(lines))
	for i, l := range lines {
		raw[i] = entity.RawLine{Text: l, Section: m.kind, Number: i + 1}
	}
	m.Feed(raw)
}

// Finish flushes the last record and returns everything built.
func (m *Machine) Finish() []entity.RawRecord {
	m.flush()
	out := m.out
	m.out = nil
	return out
}

func (m *Machine) step(c *cursor) int {
	line := c.at(0)
	if cnpj, ok := classify.LabeledCNPJ(line); ok {
		m.cnpj = cnpj
		return 1
	}
	if cno, ok := classify.CNO(line); ok {
		m.pendingCNO = cno
		return 1
	}

	if d, n, ok := m.open(c, m.kind, m.cur, m.norm); ok {
		m.flush()
		rec := d.raw()
		rec.Line = c.number()
		rec.Set(entity.KeyCNPJ, m.cnpj)
		rec.Set(entity.KeyCNO, m.pendingCNO)
		m.pendingCNO = ""
		m.cur = d
		m.state = Accumulating
		return n
	}

	if m.state == Idle {
		return 1
	}
	return m.cur.feed(c)
}

// flush emits the current record when complete and returns to idle.
func (m *Machine) flush() {
	if m.cur == nil {
		return
	}
	if m.cur.complete() {
		m.out = append(m.out, m.cur.record())
	} else {
		m.dropped++
		m.logger.Debug("builder.record.dropped",
			"section", m.kind,
			"line", m.cur.raw().Line,
			"fields", len(m.cur.raw().Fields),
		)
	}
	m.cur = nil
	m.state = Idle
}
