package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/JonMunkholm/csvloc/internal/codec"
	"github.com/JonMunkholm/csvloc/internal/config"
)

// Built-in file type patterns.
const (
	DefaultCSVGlob = "**/*.csv"
	DefaultTSVGlob = "**/*.tsv"
)

// FileType describes how files matching Glob are parsed and where their
// localized copies are written.
type FileType struct {
	Glob     string
	Options  codec.Options
	Template string
}

// Registry maps glob patterns to file types.
type Registry struct {
	mu    sync.RWMutex
	types map[string]FileType
}

// NewRegistry returns a registry holding the built-in CSV and TSV types.
func NewRegistry() *Registry {
	r := &Registry{types: make(map[string]FileType)}
	r.Register(FileType{
		Glob:     DefaultCSVGlob,
		Options:  codec.Options{ColumnSeparator: ','},
		Template: config.DefaultTemplate,
	})
	r.Register(FileType{
		Glob:     DefaultTSVGlob,
		Options:  codec.Options{ColumnSeparator: '\t'},
		Template: config.DefaultTemplate,
	})
	return r
}

// NewRegistryFromProject returns the built-in types overlaid with the
// mappings of p. A mapping with the same glob as a built-in replaces it.
func NewRegistryFromProject(p *config.Project) (*Registry, error) {
	r := NewRegistry()
	if p == nil {
		return r, nil
	}
	for _, glob := range p.MappingGlobs() {
		m := p.CSV.Mappings[glob]
		opts, err := m.Options(fallbackSeparator(glob))
		if err != nil {
			return nil, fmt.Errorf("csv.mappings[%q]: %w", glob, err)
		}
		r.Register(FileType{Glob: glob, Options: opts, Template: m.PathTemplate()})
	}
	return r, nil
}

// fallbackSeparator is the column separator for a mapping that does not set
// one: tab for .tsv patterns, comma otherwise.
func fallbackSeparator(glob string) rune {
	if strings.HasSuffix(strings.ToLower(glob), ".tsv") {
		return '\t'
	}
	return ','
}

// Register adds or replaces the file type for ft.Glob.
func (r *Registry) Register(ft FileType) {
	if ft.Template == "" {
		ft.Template = config.DefaultTemplate
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[ft.Glob] = ft
}

// Get returns the file type registered for glob.
func (r *Registry) Get(glob string) (FileType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ft, ok := r.types[glob]
	return ft, ok
}

// All returns the registered file types sorted by glob.
func (r *Registry) All() []FileType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]FileType, 0, len(r.types))
	for _, ft := range r.types {
		result = append(result, ft)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Glob < result[j].Glob
	})
	return result
}

// Match returns the most specific file type whose glob matches path:
// the pattern with the most literal characters, then the longer pattern,
// then the lexically smaller one.
func (r *Registry) Match(path string) (FileType, bool) {
	var (
		best  FileType
		found bool
	)
	for _, ft := range r.All() {
		if !MatchGlob(ft.Glob, path) {
			continue
		}
		if !found || moreSpecific(ft.Glob, best.Glob) {
			best, found = ft, true
		}
	}
	return best, found
}

func moreSpecific(a, b string) bool {
	sa, sb := globSpecificity(a), globSpecificity(b)
	if sa != sb {
		return sa > sb
	}
	if len(a) != len(b) {
		return len(a) > len(b)
	}
	return a < b
}
