package codec

// Parse splits text into rows and fields and appends one record per data row.
//
// When the file has no schema yet, the first row becomes the header. When the
// schema was supplied explicitly, the first row is data unless
// Options.HasHeader is set. Parse never fails: blank text yields no records,
// ragged rows are padded or truncated and unterminated quotes are closed at
// the end of their row.
func (f *File) Parse(text string) {
	rows := splitRows(text, f.pattern)
	if len(rows) == 0 {
		return
	}

	switch {
	case len(f.schema) == 0:
		header, _ := splitFields(rows[0], f.sep)
		f.schema = inferSchema(header, f.opts.NonLocalizable)
		rows = rows[1:]
	case f.opts.HasHeader:
		rows = rows[1:]
	}

	for i, row := range rows {
		f.store.Append(f.parseRow(i, row))
	}
}

// parseRow maps the fields of row onto the schema by position.
func (f *File) parseRow(i int, row string) Record {
	fields, unterminated := splitFields(row, f.sep)
	if unterminated {
		f.log.Debug("closed unterminated quote at end of row", "row", i)
	}
	if len(fields) > len(f.schema) {
		f.log.Debug("dropped extra fields", "row", i, "fields", len(fields), "columns", len(f.schema))
	}

	rec := make(Record, len(f.schema))
	for j, col := range f.schema {
		v := ""
		if j < len(fields) {
			v = fields[j]
		}
		rec[col.Name] = v
	}
	return rec
}

// ParseFields splits a single row into fields with the given separator,
// applying the same quoting, escaping and trimming rules as Parse.
func ParseFields(row string, sep rune) []string {
	if sep == 0 {
		sep = DefaultColumnSeparator
	}
	fields, _ := splitFields(row, sep)
	return fields
}
