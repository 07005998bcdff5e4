// Package codec reads and writes delimiter-separated text (CSV, TSV or any
// single-character separator) and merges documents keyed by a column.
//
// A File holds a schema and an ordered record store. Text goes in through
// Parse, comes back out through Serialize or LocalizeText, and two files are
// reconciled with Merge. Nothing in this package performs I/O or returns an
// error for malformed data; only invalid Options are rejected.
package codec

import (
	"fmt"
	"log/slog"
	"regexp"
)

// File is a parsed delimited document.
type File struct {
	opts    Options
	schema  Schema
	store   *Store
	sep     rune
	pattern *regexp.Regexp
	log     *slog.Logger
}

// NewFile validates opts and returns an empty file, seeded with opts.Columns
// and opts.Records when given.
func NewFile(opts Options) (*File, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("codec options: %w", err)
	}
	pattern, err := opts.rowPattern()
	if err != nil {
		return nil, fmt.Errorf("codec options: %w", err)
	}

	f := &File{
		opts:    opts,
		schema:  append(Schema(nil), opts.Columns...),
		store:   NewStore(opts.Key),
		sep:     opts.separator(),
		pattern: pattern,
		log:     opts.logger(),
	}
	for _, rec := range opts.Records {
		f.store.Append(rec.Clone())
	}
	f.opts.Records = nil
	return f, nil
}

// MustNewFile is like NewFile but panics on invalid options.
func MustNewFile(opts Options) *File {
	f, err := NewFile(opts)
	if err != nil {
		panic(err)
	}
	return f
}

// Columns returns the schema in order.
func (f *File) Columns() Schema {
	return f.schema
}

// Records returns the records in order.
func (f *File) Records() []Record {
	return f.store.Records()
}

// Store returns the underlying record store.
func (f *File) Store() *Store {
	return f.store
}

// Key returns the key column name, if any.
func (f *File) Key() string {
	return f.store.Key()
}

// Separator returns the column separator.
func (f *File) Separator() rune {
	return f.sep
}

// LocalizableColumns returns the set of column names whose cells are translated.
func (f *File) LocalizableColumns() map[string]bool {
	return f.schema.Localizable()
}

// Cell is one localizable, non-empty value of a file, ready to be handed to a
// translation store. Key and Source are both the cell text.
type Cell struct {
	Key    string `json:"key"`
	Source string `json:"source"`
	Locale string `json:"locale"`
	Column string `json:"column"`
	Row    int    `json:"row"`
}

// LocalizableCells enumerates the non-empty localizable cells in row order,
// then column order. locale is the locale of the source text.
func (f *File) LocalizableCells(locale string) []Cell {
	var cells []Cell
	for i, rec := range f.store.Records() {
		for _, col := range f.schema {
			if !col.Localizable {
				continue
			}
			v := rec[col.Name]
			if v == "" {
				continue
			}
			cells = append(cells, Cell{
				Key:    v,
				Source: v,
				Locale: locale,
				Column: col.Name,
				Row:    i,
			})
		}
	}
	return cells
}
