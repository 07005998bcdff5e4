// Package core provides the localization workflow for delimited files.
//
// This package sits between the transports (web API, CLI) and the codec and
// translation packages. It can be used by web handlers, CLI commands, or
// tests without modification.
//
// # Architecture
//
//   - Registry: maps glob patterns to file types (codec options plus an
//     output path template). "**/*.csv" and "**/*.tsv" are built in; a
//     project file adds or overrides mappings.
//   - Service: the entry point for every operation (extract, localize, merge).
//   - JobLimiter: bounds concurrent localize and merge jobs.
//
// # File Types
//
// A path resolves to the most specific matching pattern:
//
//	reg := core.NewRegistry()
//	reg.Register(core.FileType{
//	    Glob:     "**/strings.csv",
//	    Options:  codec.Options{Key: "id", NonLocalizable: []string{"id"}},
//	    Template: "[dir]/[locale]/[filename]",
//	})
//
// # Localization
//
// [Service.Extract] saves every distinct localizable cell of a file to the
// translation store as an untranslated resource. [Service.LocalizeFile]
// writes one copy per target locale, replacing cells that have a stored
// translation. Locales are processed in parallel; the job holds one limiter
// slot for its duration.
//
// # Merging
//
// [Service.MergeFiles] folds a source file into a target file by key column
// and writes the result. Merges writing the same file are serialised.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - CFG001-CFG004: Configuration errors
//   - FILE001-FILE004: File errors
//   - MAP001: No file type mapping
//   - LOC001-LOC002: Locale errors
//   - TRN001-TRN002: Translation store errors
//   - JOB001-JOB003: Job errors (busy, cancelled, timeout)
package core
