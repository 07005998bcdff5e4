// Package translation holds localizable strings and their translations.
//
// Resources are extracted from delimited files by the core service, stored in
// a Set (in memory) or an SQLStore (SQLite or PostgreSQL), and looked up by
// the serializer through the Translate method.
package translation

import (
	"github.com/google/uuid"
)

// DatatypeCSV marks resources extracted from delimited files.
const DatatypeCSV = "x-csv"

// Resource is a single source string and, optionally, its translation into
// one target locale.
type Resource struct {
	ID           string `json:"id"`
	Project      string `json:"project"`
	Key          string `json:"key"`
	Source       string `json:"source"`
	SourceLocale string `json:"sourceLocale"`
	Target       string `json:"target,omitempty"`
	TargetLocale string `json:"targetLocale,omitempty"`
	Path         string `json:"path,omitempty"`
	Datatype     string `json:"datatype"`
}

// NewSource returns an untranslated resource for a cell of a delimited file.
// The key of a cell is its source text.
func NewSource(project, path, source, sourceLocale string) Resource {
	return Resource{
		ID:           uuid.NewString(),
		Project:      project,
		Key:          source,
		Source:       source,
		SourceLocale: sourceLocale,
		Path:         path,
		Datatype:     DatatypeCSV,
	}
}

// Translated reports whether r carries a target string.
func (r Resource) Translated() bool {
	return r.TargetLocale != "" && r.Target != ""
}

// identity is the deduplication key of a resource.
type identity struct {
	project string
	key     string
	locale  string
}

func (r Resource) identity() identity {
	return identity{project: r.Project, key: r.Key, locale: r.TargetLocale}
}

func (r Resource) withID() Resource {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Datatype == "" {
		r.Datatype = DatatypeCSV
	}
	return r
}
