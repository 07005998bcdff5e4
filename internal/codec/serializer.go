package codec

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Translator resolves the translation of a source string for a locale.
type Translator interface {
	Translate(source, locale string) (string, bool)
}

// TranslatorFunc adapts a function to the Translator interface.
type TranslatorFunc func(source, locale string) (string, bool)

// Translate calls fn(source, locale).
func (fn TranslatorFunc) Translate(source, locale string) (string, bool) {
	return fn(source, locale)
}

// Serialize renders the data rows of the file. Localizable cells are replaced
// by their translation for locale when t has one; everything else is written
// as is. The header row is not written and there is no trailing separator.
// A nil Translator writes the source text.
func (f *File) Serialize(t Translator, locale string) string {
	rows := make([]string, 0, f.store.Len())
	for _, rec := range f.store.Records() {
		rows = append(rows, f.formatRow(f.localizeRecord(rec, t, locale)))
	}
	return strings.Join(rows, f.opts.rowJoin())
}

// LocalizeText renders the header row followed by Serialize's output.
func (f *File) LocalizeText(t Translator, locale string) string {
	header := f.formatRow(f.schema.Names())
	if f.store.Len() == 0 {
		return header
	}
	return header + f.opts.rowJoin() + f.Serialize(t, locale)
}

// ReadsHeader reports whether Parse takes the first row of text as a header:
// always for inferred columns, and for explicit columns only with
// Options.HasHeader.
func (f *File) ReadsHeader() bool {
	return len(f.opts.Columns) == 0 || f.opts.HasHeader
}

// Text renders the file in the layout Parse reads back: LocalizeText when the
// file reads a header, Serialize otherwise.
func (f *File) Text(t Translator, locale string) string {
	if f.ReadsHeader() {
		return f.LocalizeText(t, locale)
	}
	return f.Serialize(t, locale)
}

func (f *File) localizeRecord(rec Record, t Translator, locale string) []string {
	values := make([]string, len(f.schema))
	for i, col := range f.schema {
		source := rec[col.Name]
		values[i] = source
		if !col.Localizable || t == nil || source == "" {
			continue
		}
		if translated, ok := t.Translate(source, locale); ok {
			values[i] = translated
		}
	}
	return values
}

func (f *File) formatRow(values []string) string {
	var b strings.Builder
	for i, v := range values {
		if i > 0 {
			b.WriteRune(f.sep)
		}
		b.WriteString(QuoteField(v, f.sep))
	}
	return b.String()
}

// QuoteField returns value as it must appear in a row separated by sep.
//
// The value is wrapped in double quotes when it contains sep, when it
// contains a double quote, or when it starts or ends with whitespace, so that
// parsing the output gives back the exact value. A trailing backslash is
// quoted too, since unquoted it would escape the following separator.
// Quotes inside a quoted value are doubled.
func QuoteField(value string, sep rune) string {
	if !needsQuotes(value, sep) {
		return value
	}
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

func needsQuotes(value string, sep rune) bool {
	if value == "" {
		return false
	}
	if strings.ContainsRune(value, sep) || strings.ContainsRune(value, quote) {
		return true
	}
	if strings.HasSuffix(value, `\`) {
		return true
	}
	first, _ := utf8.DecodeRuneInString(value)
	last, _ := utf8.DecodeLastRuneInString(value)
	return unicode.IsSpace(first) || unicode.IsSpace(last)
}
