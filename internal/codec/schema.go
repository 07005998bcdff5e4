package codec

// Column describes one column of a delimited document.
type Column struct {
	Name        string `json:"name"`
	Localizable bool   `json:"localizable"`
}

// NewColumn returns a localizable column. Columns are localizable unless the
// caller explicitly says otherwise.
func NewColumn(name string) Column {
	return Column{Name: name, Localizable: true}
}

// Schema is the ordered list of columns of a document.
type Schema []Column

// Names returns the column names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// Index returns the position of the named column, or -1.
// Duplicate names resolve to the last column with that name.
func (s Schema) Index(name string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].Name == name {
			return i
		}
	}
	return -1
}

// Has reports whether a column with the given name exists.
func (s Schema) Has(name string) bool {
	return s.Index(name) >= 0
}

// Localizable returns the set of localizable column names.
func (s Schema) Localizable() map[string]bool {
	set := make(map[string]bool)
	for _, c := range s {
		if c.Localizable {
			set[c.Name] = true
		} else {
			delete(set, c.Name)
		}
	}
	return set
}

// Union returns s followed by every column of other whose name is not in s,
// in other's relative order. Neither input is modified.
func (s Schema) Union(other Schema) Schema {
	out := make(Schema, len(s), len(s)+len(other))
	copy(out, s)

	seen := make(map[string]bool, len(s))
	for _, c := range s {
		seen[c.Name] = true
	}
	for _, c := range other {
		if seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		out = append(out, c)
	}
	return out
}

// inferSchema builds a schema from header cells. Every column is localizable
// except the ones named in nonLocalizable.
func inferSchema(header []string, nonLocalizable []string) Schema {
	skip := make(map[string]bool, len(nonLocalizable))
	for _, n := range nonLocalizable {
		skip[n] = true
	}

	schema := make(Schema, len(header))
	for i, name := range header {
		schema[i] = Column{Name: name, Localizable: !skip[name]}
	}
	return schema
}
