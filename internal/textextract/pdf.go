package textextract

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/text/encoding/charmap"

	"github.com/joseph-ayodele/fiscal-extract/internal/normalize"
)

// PDFPages returns the text of every page, one string per page. Pages
// without text come back empty so numbering is preserved.
func PDFPages(rs io.ReadSeeker) ([]string, error) {
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(rs, conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}
	pages := make([]string, 0, ctx.PageCount)
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
		if err != nil || r == nil {
			pages = append(pages, "")
			continue
		}
		data, err := io.ReadAll(r)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, ContentText(data))
	}
	return pages, nil
}

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokString
	tokName
	tokOperator
	tokArrayOpen
	tokArrayClose
)

type token struct {
	kind tokenKind
	text string
	num  float64
}

// ContentText renders the text-showing operators of a page content
// stream. Vertical moves start a new line, horizontal moves a space.
func ContentText(data []byte) string {
	var (
		sb      strings.Builder
		stack   []token
		lastTmY = 0.0
		hasTm   bool
	)
	newline := func() {
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
	}
	space := func() {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
	}
	show := func(toks []token) {
		for _, t := range toks {
			switch {
			case t.kind == tokString:
				sb.WriteString(decodeText(t.text))
			case t.kind == tokNumber && t.num <= -250:
				space()
			}
		}
	}

	for _, tok := range tokenize(data) {
		if tok.kind != tokOperator {
			stack = append(stack, tok)
			continue
		}
		switch tok.text {
		case "Tj":
			show(stack)
		case "TJ":
			show(stack)
		case "'", "\"":
			newline()
			show(stack)
		case "Td", "TD":
			if y, ok := lastNumber(stack); ok && y != 0 {
				newline()
			} else {
				space()
			}
		case "T*":
			newline()
		case "Tm":
			if y, ok := lastNumber(stack); ok {
				if hasTm && y != lastTmY {
					newline()
				} else if hasTm {
					space()
				}
				lastTmY, hasTm = y, true
			}
		case "ET":
			newline()
		}
		stack = stack[:0]
	}
	return normalize.CleanText(sb.String())
}

func lastNumber(stack []token) (float64, bool) {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].kind == tokNumber {
			return stack[i].num, true
		}
	}
	return 0, false
}

// decodeText maps single-byte PDF strings to UTF-8.
func decodeText(raw string) string {
	out, err := charmap.Windows1252.NewDecoder().String(raw)
	if err != nil {
		return raw
	}
	return out
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return isSpace(c)
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}

func tokenize(data []byte) []token {
	var toks []token
	for i := 0; i < len(data); {
		c := data[i]
		switch {
		case isSpace(c):
			i++
		case c == '%':
			for i < len(data) && data[i] != '\n' && data[i] != '\r' {
				i++
			}
		case c == '(':
			s, n := literalString(data[i:])
			toks = append(toks, token{kind: tokString, text: s})
			i += n
		case c == '<' && i+1 < len(data) && data[i+1] == '<':
			// Inline dictionaries carry no text.
			end := bytes.Index(data[i:], []byte(">>"))
			if end < 0 {
				return toks
			}
			i += end + 2
		case c == '<':
			end := bytes.IndexByte(data[i:], '>')
			if end < 0 {
				return toks
			}
			toks = append(toks, token{kind: tokString, text: hexString(data[i+1 : i+end])})
			i += end + 1
		case c == '[':
			toks = append(toks, token{kind: tokArrayOpen})
			i++
		case c == ']':
			toks = append(toks, token{kind: tokArrayClose})
			i++
		case c == '/':
			j := i + 1
			for j < len(data) && !isDelimiter(data[j]) {
				j++
			}
			toks = append(toks, token{kind: tokName, text: string(data[i+1 : j])})
			i = j
		default:
			j := i
			for j < len(data) && !isDelimiter(data[j]) {
				j++
			}
			if j == i {
				i++
				continue
			}
			word := string(data[i:j])
			if f, err := strconv.ParseFloat(word, 64); err == nil {
				toks = append(toks, token{kind: tokNumber, num: f})
			} else {
				toks = append(toks, token{kind: tokOperator, text: word})
			}
			i = j
		}
	}
	return toks
}

// literalString reads a balanced (...) string starting at data[0] and
// returns its decoded bytes and the number of input bytes consumed.
func literalString(data []byte) (string, int) {
	var sb strings.Builder
	depth := 0
	i := 0
	for i < len(data) {
		c := data[i]
		switch {
		case c == '(':
			if depth > 0 {
				sb.WriteByte(c)
			}
			depth++
			i++
		case c == ')':
			depth--
			i++
			if depth == 0 {
				return sb.String(), i
			}
			sb.WriteByte(c)
		case c == '\\' && i+1 < len(data):
			i++
			switch e := data[i]; e {
			case 'n':
				sb.WriteByte('\n')
				i++
			case 'r':
				sb.WriteByte('\r')
				i++
			case 't':
				sb.WriteByte('\t')
				i++
			case 'b', 'f':
				i++
			case '\r', '\n':
				i++
			default:
				if e >= '0' && e <= '7' {
					val := 0
					for k := 0; k < 3 && i < len(data) && data[i] >= '0' && data[i] <= '7'; k++ {
						val = val*8 + int(data[i]-'0')
						i++
					}
					sb.WriteByte(byte(val))
				} else {
					sb.WriteByte(e)
					i++
				}
			}
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String(), i
}

func hexString(h []byte) string {
	clean := make([]byte, 0, len(h))
	for _, c := range h {
		if !isSpace(c) {
			clean = append(clean, c)
		}
	}
	if len(clean)%2 == 1 {
		clean = append(clean, '0')
	}
	out := make([]byte, 0, len(clean)/2)
	for i := 0; i+1 < len(clean); i += 2 {
		v, err := strconv.ParseUint(string(clean[i:i+2]), 16, 8)
		if err != nil {
			return ""
		}
		out = append(out, byte(v))
	}
	return string(out)
}
