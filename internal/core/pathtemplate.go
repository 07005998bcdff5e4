package core

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/language"
)

var templateToken = regexp.MustCompile(`\[([a-z]+)\]`)

// FormatPath expands an output path template for the localized copy of src.
//
// Tokens:
//
//	[dir]        directory of src
//	[filename]   base name of src
//	[basename]   base name without extension
//	[extension]  extension without the dot
//	[locale]     the target locale as given
//	[language]   language subtag of the locale
//	[region]     region subtag, empty when the locale has none
func FormatPath(template, src, locale string) (string, error) {
	tag, err := parseLocale(locale)
	if err != nil {
		return "", err
	}

	base, _ := tag.Base()
	region := ""
	if r, conf := tag.Region(); conf == language.Exact {
		region = r.String()
	}

	filename := filepath.Base(src)
	ext := filepath.Ext(filename)
	values := map[string]string{
		"dir":       filepath.Dir(src),
		"filename":  filename,
		"basename":  strings.TrimSuffix(filename, ext),
		"extension": strings.TrimPrefix(ext, "."),
		"locale":    locale,
		"language":  base.String(),
		"region":    region,
	}

	var unknown string
	out := templateToken.ReplaceAllStringFunc(template, func(tok string) string {
		name := tok[1 : len(tok)-1]
		v, ok := values[name]
		if !ok && unknown == "" {
			unknown = tok
		}
		return v
	})
	if unknown != "" {
		return "", fmt.Errorf("path template %q: unknown token %s", template, unknown)
	}

	return filepath.Clean(filepath.FromSlash(out)), nil
}

// parseLocale validates a BCP 47 tag.
func parseLocale(locale string) (language.Tag, error) {
	if locale == "" {
		return language.Und, fmt.Errorf("%w: empty", ErrInvalidLocale)
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return language.Und, fmt.Errorf("%w: %q", ErrInvalidLocale, locale)
	}
	return tag, nil
}
