package codec

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// fieldState is the position of the field scanner within the current field.
type fieldState int

const (
	// stateFieldStart: nothing but whitespace seen since the last separator.
	stateFieldStart fieldState = iota
	// stateUnquoted: inside a field that did not open with a quote.
	stateUnquoted
	// stateQuoted: inside a quoted region.
	stateQuoted
	// stateQuotePending: a quote was seen inside a quoted region; the next
	// character decides between an escaped quote and the end of the region.
	stateQuotePending
	// stateAfterQuoted: the quoted region is closed; waiting for a separator.
	stateAfterQuoted
)

const quote = '"'

// splitRows splits text on the row pattern and drops rows that are blank.
func splitRows(text string, pattern *regexp.Regexp) []string {
	if text == "" {
		return nil
	}
	parts := pattern.Split(text, -1)
	rows := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		rows = append(rows, p)
	}
	return rows
}

// fieldScanner splits a single row into fields.
type fieldScanner struct {
	sep    rune
	state  fieldState
	fields []string

	buf  []byte
	keep int // len(buf) up to the last byte that survives trimming
}

// splitFields splits row on sep. It never fails: a quoted field left open at
// the end of the row is closed there, and unterminated reports it.
func splitFields(row string, sep rune) (fields []string, unterminated bool) {
	s := fieldScanner{sep: sep}
	for i := 0; i < len(row); {
		c, size := utf8.DecodeRuneInString(row[i:])
		escaped := false
		if c == '\\' && s.state != stateQuoted && s.state != stateQuotePending {
			next, _ := utf8.DecodeRuneInString(row[i+size:])
			escaped = i+size < len(row) && next == sep
		}
		if escaped {
			size += utf8.RuneLen(sep)
		}
		if s.step(c, escaped) {
			i += size
		}
	}
	unterminated = s.state == stateQuoted
	s.emit()
	return s.fields, unterminated
}

// step feeds one character to the scanner. escaped marks a backslash that
// precedes the separator. It returns false when c must be fed again.
func (s *fieldScanner) step(c rune, escaped bool) bool {
	switch s.state {
	case stateFieldStart:
		switch {
		case escaped:
			s.appendKept(s.sep)
			s.state = stateUnquoted
		case c == s.sep:
			s.emit()
		case c == quote:
			s.state = stateQuoted
		case unicode.IsSpace(c):
		default:
			s.appendKept(c)
			s.state = stateUnquoted
		}

	case stateUnquoted:
		switch {
		case escaped:
			s.appendKept(s.sep)
		case c == s.sep:
			s.emit()
		case unicode.IsSpace(c):
			s.buf = utf8.AppendRune(s.buf, c)
		default:
			s.appendKept(c)
		}

	case stateQuoted:
		if c == quote {
			s.state = stateQuotePending
		} else {
			s.buf = utf8.AppendRune(s.buf, c)
		}

	case stateQuotePending:
		if c == quote {
			s.buf = utf8.AppendRune(s.buf, quote)
			s.state = stateQuoted
			return true
		}
		s.keep = len(s.buf)
		s.state = stateAfterQuoted
		return false

	case stateAfterQuoted:
		switch {
		case escaped:
			s.appendKept(s.sep)
		case c == s.sep:
			s.emit()
		case unicode.IsSpace(c):
			s.buf = utf8.AppendRune(s.buf, c)
		default:
			s.appendKept(c)
		}
	}
	return true
}

func (s *fieldScanner) appendKept(c rune) {
	s.buf = utf8.AppendRune(s.buf, c)
	s.keep = len(s.buf)
}

// emit closes the current field. Unquoted text loses surrounding whitespace;
// the content of a quoted region is kept verbatim.
func (s *fieldScanner) emit() {
	var value string
	switch s.state {
	case stateQuoted, stateQuotePending:
		value = string(s.buf)
	default:
		value = string(s.buf[:s.keep])
	}
	s.fields = append(s.fields, value)

	s.buf = s.buf[:0]
	s.keep = 0
	s.state = stateFieldStart
}
