package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/JonMunkholm/csvloc/internal/codec"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	"golang.org/x/text/language"
)

// keyDelim separates koanf key segments. Mapping keys are globs such as
// "**/*.csv", so the usual "." cannot be used.
const keyDelim = "::"

// Project file defaults.
const (
	DefaultSourceLocale = "en-US"
	DefaultMethod       = "copy"
	DefaultTemplate     = "[dir]/[basename]-[locale].[extension]"
)

// Project is the content of a project file (csvloc.yaml).
type Project struct {
	Name         string      `koanf:"project"`
	SourceLocale string      `koanf:"sourceLocale"`
	Locales      []string    `koanf:"locales"`
	CSV          CSVSettings `koanf:"csv"`

	// File is the path the project was loaded from, empty when no file was found.
	File string `koanf:"-"`
}

// CSVSettings configures delimited file handling.
type CSVSettings struct {
	Mappings map[string]Mapping `koanf:"mappings"`
}

// Mapping configures the files matched by one glob pattern.
type Mapping struct {
	Method              string   `koanf:"method"`
	Template            string   `koanf:"template"`
	RowSeparator        string   `koanf:"rowSeparator"`
	RowSeparatorRegex   string   `koanf:"rowSeparatorRegex"`
	ColumnSeparatorChar string   `koanf:"columnSeparatorChar"`
	Header              bool     `koanf:"header"`
	Key                 string   `koanf:"key"`
	Columns             []Column `koanf:"columns"`
	NonLocalizable      []string `koanf:"nonLocalizable"`

	// separatorSet records that columnSeparatorChar appeared in the file,
	// so an explicit "" can be told apart from an omitted value.
	separatorSet bool
}

// Column configures one explicit column. Localizable defaults to true.
type Column struct {
	Name        string `koanf:"name"`
	Localizable *bool  `koanf:"localizable"`
}

// LoadProject reads the project file at path and overlays the changed flags
// of fs (source-locale, locales, project). A missing file is not an error:
// the defaults are used. The result is validated.
func LoadProject(path string, fs *pflag.FlagSet) (*Project, error) {
	k := koanf.New(keyDelim)

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"sourceLocale": DefaultSourceLocale,
	}, keyDelim), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	used := ""
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("error reading project file %s: %w", path, err)
			}
			used = path
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error reading project file %s: %w", path, err)
		}
	}

	if fs != nil {
		if err := k.Load(posflag.ProviderWithFlag(fs, keyDelim, k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			switch f.Name {
			case "source-locale":
				return "sourceLocale", posflag.FlagVal(fs, f)
			case "locales":
				return "locales", posflag.FlagVal(fs, f)
			case "project":
				return "project", posflag.FlagVal(fs, f)
			}
			return "", nil
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var p Project
	if err := k.Unmarshal("", &p); err != nil {
		return nil, fmt.Errorf("unable to decode project file: %w", err)
	}
	p.File = used

	for glob, m := range p.CSV.Mappings {
		m.separatorSet = k.Exists(strings.Join([]string{"csv", "mappings", glob, "columnSeparatorChar"}, keyDelim))
		p.CSV.Mappings[glob] = m
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("project validation: %w", err)
	}
	return &p, nil
}

// Validate checks locales and mappings and returns every problem found.
func (p *Project) Validate() error {
	var errs []string

	if _, err := language.Parse(p.SourceLocale); err != nil {
		errs = append(errs, fmt.Sprintf("sourceLocale (%q) is not a valid locale: %v", p.SourceLocale, err))
	}
	for _, loc := range p.Locales {
		if _, err := language.Parse(loc); err != nil {
			errs = append(errs, fmt.Sprintf("locale %q is not valid: %v", loc, err))
		}
	}

	for _, glob := range p.MappingGlobs() {
		m := p.CSV.Mappings[glob]
		if m.Method != "" && m.Method != DefaultMethod {
			errs = append(errs, fmt.Sprintf("csv.mappings[%q].method (%q) must be %q", glob, m.Method, DefaultMethod))
		}
		if m.separatorSet || m.ColumnSeparatorChar != "" {
			if _, err := codec.ParseSeparator(m.ColumnSeparatorChar); err != nil {
				errs = append(errs, fmt.Sprintf("csv.mappings[%q].columnSeparatorChar: %v", glob, err))
			}
		}
		if _, err := m.Options(','); err != nil && !errors.Is(err, codec.ErrEmptySeparator) && !errors.Is(err, codec.ErrMultiCharSeparator) {
			errs = append(errs, fmt.Sprintf("csv.mappings[%q]: %v", glob, err))
		}
		for i, c := range m.Columns {
			if c.Name == "" {
				errs = append(errs, fmt.Sprintf("csv.mappings[%q].columns[%d] has no name", glob, i))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// MappingGlobs returns the configured glob patterns in sorted order.
func (p *Project) MappingGlobs() []string {
	globs := make([]string, 0, len(p.CSV.Mappings))
	for g := range p.CSV.Mappings {
		globs = append(globs, g)
	}
	sort.Strings(globs)
	return globs
}

// Options converts the mapping to codec options. fallback is the column
// separator used when the mapping does not set one.
func (m Mapping) Options(fallback rune) (codec.Options, error) {
	sep := fallback
	if m.separatorSet || m.ColumnSeparatorChar != "" {
		r, err := codec.ParseSeparator(m.ColumnSeparatorChar)
		if err != nil {
			return codec.Options{}, err
		}
		sep = r
	}

	opts := codec.Options{
		ColumnSeparator:   sep,
		RowSeparator:      m.RowSeparator,
		RowSeparatorRegex: m.RowSeparatorRegex,
		HasHeader:         m.Header,
		Key:               m.Key,
		NonLocalizable:    m.NonLocalizable,
	}
	for _, c := range m.Columns {
		col := codec.NewColumn(c.Name)
		if c.Localizable != nil {
			col.Localizable = *c.Localizable
		}
		opts.Columns = append(opts.Columns, col)
	}
	if err := opts.Validate(); err != nil {
		return codec.Options{}, err
	}
	return opts, nil
}

// PathTemplate returns the output path template, or the default.
func (m Mapping) PathTemplate() string {
	if m.Template == "" {
		return DefaultTemplate
	}
	return m.Template
}
