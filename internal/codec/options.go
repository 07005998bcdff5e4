package codec

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"unicode/utf8"
)

// Defaults for documents that do not configure their separators.
const (
	DefaultColumnSeparator   = ','
	DefaultRowSeparator      = "\n"
	DefaultRowSeparatorRegex = `[\n\r\f]+`
)

var (
	// ErrEmptySeparator is returned when a column separator is configured as "".
	ErrEmptySeparator = errors.New("column separator must not be empty")

	// ErrMultiCharSeparator is returned when a column separator has more than one character.
	ErrMultiCharSeparator = errors.New("column separator must be a single character")

	defaultRowPattern = regexp.MustCompile(DefaultRowSeparatorRegex)
)

// Options configures a File.
//
// The zero value is usable: comma separated, rows split on any run of
// CR/LF/FF, schema inferred from the first row.
type Options struct {
	// ColumnSeparator divides fields within a row. Zero means ','.
	ColumnSeparator rune

	// RowSeparator joins rows when serializing. Empty means "\n".
	RowSeparator string

	// RowSeparatorRegex splits rows when parsing. Empty means
	// DefaultRowSeparatorRegex, or one-or-more RowSeparator when only a
	// custom RowSeparator is set.
	RowSeparatorRegex string

	// Columns is the explicit schema. When empty, the schema is inferred
	// from the first row of parsed text.
	Columns []Column

	// HasHeader skips the first row of parsed text when Columns is set.
	// Without Columns the first row is always the header.
	HasHeader bool

	// NonLocalizable names columns of an inferred schema that are never translated.
	NonLocalizable []string

	// Key names the column used to match records when merging.
	Key string

	// Records seeds the document with already-structured data.
	Records []Record

	// Logger receives debug output about recovered rows. Nil means slog.Default().
	Logger *slog.Logger
}

// ParseSeparator converts a configured separator string into a rune.
// Escaped forms such as `\t` are accepted.
func ParseSeparator(s string) (rune, error) {
	switch s {
	case "":
		return 0, ErrEmptySeparator
	case `\t`:
		return '\t', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("%w: %q", ErrMultiCharSeparator, s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

// Validate reports configuration errors. It is meant to be called by the
// configuration layer before any text reaches the parser.
func (o Options) Validate() error {
	if o.ColumnSeparator == utf8.RuneError {
		return fmt.Errorf("invalid column separator")
	}
	if o.ColumnSeparator == '"' {
		return fmt.Errorf("column separator cannot be the quote character")
	}
	if o.RowSeparatorRegex != "" {
		if _, err := regexp.Compile(o.RowSeparatorRegex); err != nil {
			return fmt.Errorf("row separator regex %q: %w", o.RowSeparatorRegex, err)
		}
	}
	return nil
}

func (o Options) separator() rune {
	if o.ColumnSeparator == 0 {
		return DefaultColumnSeparator
	}
	return o.ColumnSeparator
}

func (o Options) rowJoin() string {
	if o.RowSeparator == "" {
		return DefaultRowSeparator
	}
	return o.RowSeparator
}

func (o Options) rowPattern() (*regexp.Regexp, error) {
	switch {
	case o.RowSeparatorRegex != "":
		return regexp.Compile(o.RowSeparatorRegex)
	case o.RowSeparator != "" && o.RowSeparator != DefaultRowSeparator:
		return regexp.Compile("(?:" + regexp.QuoteMeta(o.RowSeparator) + ")+")
	default:
		return defaultRowPattern, nil
	}
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}
