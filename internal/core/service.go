package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/JonMunkholm/csvloc/internal/codec"
	"github.com/JonMunkholm/csvloc/internal/logging"
	"github.com/JonMunkholm/csvloc/internal/translation"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNoMapping is returned when no file type matches a path.
	ErrNoMapping = errors.New("no file type mapping")

	// ErrFileTooLarge is returned when a file exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrNoLocales is returned when localization is requested without any
	// target locale.
	ErrNoLocales = errors.New("no target locales")

	// ErrInvalidLocale is returned for a locale that is not a BCP 47 tag.
	ErrInvalidLocale = errors.New("invalid locale")

	// ErrNoContent is returned when a request carries no file text.
	ErrNoContent = errors.New("no content provided")

	// ErrMissingPath is returned when a request does not name its file.
	ErrMissingPath = errors.New("missing path")
)

// DefaultJobTimeout is the maximum duration of a localize or merge job.
const DefaultJobTimeout = 5 * time.Minute

// DefaultMaxFileSize is the largest file ReadFile accepts.
const DefaultMaxFileSize int64 = 32 << 20

// Options configures a Service.
type Options struct {
	Registry *Registry
	Store    translation.Store
	Limiter  *JobLimiter

	// Project names the resources this service extracts.
	Project      string
	SourceLocale string
	// Locales are the default targets of LocalizeFile.
	Locales []string

	// Root is the directory glob patterns are matched relative to.
	// Empty means the working directory.
	Root string

	MaxFileSize int64
	Timeout     time.Duration
	JobHistory  int
	Logger      *slog.Logger
}

// Service reads, localizes and merges delimited files. It is the entry point
// shared by the web API and the CLI.
type Service struct {
	registry     *Registry
	store        translation.Store
	limiter      *JobLimiter
	project      string
	sourceLocale string
	locales      []string
	root         string
	maxFileSize  int64
	timeout      time.Duration
	log          *slog.Logger

	jobs *jobTracker

	// pathLocks serialises merges that write the same output file.
	pathLocks sync.Map
}

// NewService validates opts and returns a Service. Missing collaborators get
// defaults: the built-in registry, an in-memory store and a default limiter.
func NewService(opts Options) (*Service, error) {
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}
	if opts.Store == nil {
		opts.Store = translation.NewMemoryStore()
	}
	if opts.Limiter == nil {
		opts.Limiter = NewJobLimiter(DefaultMaxConcurrentJobs, DefaultMaxWaitTime)
	}
	if opts.SourceLocale == "" {
		opts.SourceLocale = "en-US"
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultJobTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if _, err := parseLocale(opts.SourceLocale); err != nil {
		return nil, fmt.Errorf("source locale: %w", err)
	}
	for _, loc := range opts.Locales {
		if _, err := parseLocale(loc); err != nil {
			return nil, fmt.Errorf("target locale: %w", err)
		}
	}

	return &Service{
		registry:     opts.Registry,
		store:        opts.Store,
		limiter:      opts.Limiter,
		project:      opts.Project,
		sourceLocale: opts.SourceLocale,
		locales:      append([]string(nil), opts.Locales...),
		root:         opts.Root,
		maxFileSize:  opts.MaxFileSize,
		timeout:      opts.Timeout,
		log:          opts.Logger.With("component", "core"),
		jobs:         newJobTracker(opts.JobHistory),
	}, nil
}

// Store returns the translation store.
func (s *Service) Store() translation.Store { return s.store }

// Registry returns the file type registry.
func (s *Service) Registry() *Registry { return s.registry }

// Limiter returns the job limiter.
func (s *Service) Limiter() *JobLimiter { return s.limiter }

// SourceLocale returns the locale of source text.
func (s *Service) SourceLocale() string { return s.sourceLocale }

// Locales returns the default target locales.
func (s *Service) Locales() []string { return append([]string(nil), s.locales...) }

// Jobs returns the tracked jobs, newest first.
func (s *Service) Jobs() []Job { return s.jobs.list() }

// Job returns a tracked job by ID.
func (s *Service) Job(id string) (Job, bool) { return s.jobs.get(id) }

// Resolve returns the file type for path.
func (s *Service) Resolve(path string) (FileType, error) {
	ft, ok := s.registry.Match(s.relative(path))
	if !ok {
		return FileType{}, fmt.Errorf("%w: %s", ErrNoMapping, path)
	}
	return ft, nil
}

// relative returns path relative to the root when it lies inside it.
func (s *Service) relative(path string) string {
	if s.root == "" || !filepath.IsAbs(path) {
		return path
	}
	rel, err := filepath.Rel(s.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

func (s *Service) newFile(path string) (*codec.File, error) {
	ft, err := s.Resolve(path)
	if err != nil {
		return nil, err
	}
	opts := ft.Options
	opts.Logger = s.log.With("path", path)
	return codec.NewFile(opts)
}

// ParseText parses text using the file type of path.
func (s *Service) ParseText(path, text string) (*codec.File, error) {
	f, err := s.newFile(path)
	if err != nil {
		return nil, err
	}
	f.Parse(text)
	return f, nil
}

// ReadFile parses the file at path. A missing or unreadable file yields a
// file with no records; it is logged, not returned as an error.
func (s *Service) ReadFile(ctx context.Context, path string) (*codec.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.newFile(path)
	if err != nil {
		return nil, err
	}
	logger := logging.WithFields(ctx, "path", path)

	info, err := os.Stat(path)
	if err != nil {
		logger.Warn("file not readable, treating as empty", "error", err)
		return f, nil
	}
	if info.Size() > s.maxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrFileTooLarge, path, info.Size(), s.maxFileSize)
	}

	file, err := os.Open(path)
	if err != nil {
		logger.Warn("file not readable, treating as empty", "error", err)
		return f, nil
	}
	defer file.Close()

	text, err := DecodeText(file, s.maxFileSize)
	if errors.Is(err, ErrFileTooLarge) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err != nil {
		logger.Warn("file not readable, treating as empty", "error", err)
		return f, nil
	}

	f.Parse(text)
	logger.Debug("file parsed", "records", len(f.Records()), "columns", len(f.Columns()))
	return f, nil
}

// Resources returns one untranslated resource per distinct localizable cell
// of f, in first-seen order.
func (s *Service) Resources(path string, f *codec.File) []translation.Resource {
	cells := f.LocalizableCells(s.sourceLocale)
	seen := make(map[string]bool, len(cells))

	rs := make([]translation.Resource, 0, len(cells))
	for _, c := range cells {
		if seen[c.Key] {
			continue
		}
		seen[c.Key] = true
		rs = append(rs, translation.NewSource(s.project, s.relative(path), c.Source, c.Locale))
	}
	return rs
}

// Extract reads path and saves its localizable strings to the store.
func (s *Service) Extract(ctx context.Context, path string) ([]translation.Resource, error) {
	f, err := s.ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, path, f)
}

// ExtractText parses text as the file at path and saves its localizable
// strings to the store.
func (s *Service) ExtractText(ctx context.Context, path, text string) ([]translation.Resource, error) {
	f, err := s.ParseText(path, text)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, path, f)
}

func (s *Service) save(ctx context.Context, path string, f *codec.File) ([]translation.Resource, error) {
	rs := s.Resources(path, f)
	if len(rs) > 0 {
		if err := s.store.Save(ctx, rs...); err != nil {
			return nil, fmt.Errorf("save resources for %s: %w", path, err)
		}
	}
	logging.WithFields(ctx, "path", path).Info("resources extracted", "count", len(rs))
	return rs, nil
}

// SaveTranslations stores translated resources.
func (s *Service) SaveTranslations(ctx context.Context, rs ...translation.Resource) error {
	for i := range rs {
		if _, err := parseLocale(rs[i].TargetLocale); err != nil {
			return err
		}
		if rs[i].Project == "" {
			rs[i].Project = s.project
		}
		if rs[i].SourceLocale == "" {
			rs[i].SourceLocale = s.sourceLocale
		}
		if rs[i].Key == "" {
			rs[i].Key = rs[i].Source
		}
	}
	return s.store.Save(ctx, rs...)
}

// LocalizeText parses text as the file at path and returns it localized
// into locale, header included.
func (s *Service) LocalizeText(ctx context.Context, path, text, locale string) (string, error) {
	if _, err := parseLocale(locale); err != nil {
		return "", err
	}
	f, err := s.ParseText(path, text)
	if err != nil {
		return "", err
	}
	return s.localize(ctx, f, locale)
}

func (s *Service) localize(ctx context.Context, f *codec.File, locale string) (string, error) {
	set, err := s.store.Snapshot(ctx, locale)
	if err != nil {
		return "", fmt.Errorf("load translations for %s: %w", locale, err)
	}
	return f.Text(set, locale), nil
}

// LocalizeFile writes one localized copy of path per locale and returns the
// output paths in locale order. With no locales the configured defaults are
// used. The job holds a limiter slot for its whole duration.
func (s *Service) LocalizeFile(ctx context.Context, path string, locales []string) (outputs []string, err error) {
	if len(locales) == 0 {
		locales = s.locales
	}
	if len(locales) == 0 {
		return nil, ErrNoLocales
	}
	for _, loc := range locales {
		if _, err := parseLocale(loc); err != nil {
			return nil, err
		}
	}

	ft, err := s.Resolve(path)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	job := s.jobs.start(ctx, JobLocalize, path, locales)
	logger := logging.WithFields(ctx, "job_id", job.ID, "path", path)
	logger.Info("localize started", "locales", locales)
	defer func() {
		s.jobs.finish(job, outputs, err)
		if err != nil {
			logger.Error("localize failed", "error", err)
			return
		}
		logger.Info("localize completed", "outputs", len(outputs), "duration", job.Duration())
	}()

	f, err := s.ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}

	results, err := outputPaths(ft.Template, path, locales)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, loc := range locales {
		g.Go(func() error {
			text, err := s.localize(gctx, f, loc)
			if err != nil {
				return err
			}
			return writeFile(results[i], text)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// outputPaths expands template for each locale. Every output must differ from
// the source and from the other outputs.
func outputPaths(template, path string, locales []string) ([]string, error) {
	outputs := make([]string, len(locales))
	seen := make(map[string]string, len(locales))
	for i, loc := range locales {
		out, err := FormatPath(template, path, loc)
		if err != nil {
			return nil, err
		}
		out = filepath.Clean(out)
		if out == filepath.Clean(path) {
			return nil, fmt.Errorf("output path for %s equals the source file %s", loc, path)
		}
		if prev, ok := seen[out]; ok {
			return nil, fmt.Errorf("locales %s and %s share the output path %s", prev, loc, out)
		}
		seen[out] = loc
		outputs[i] = out
	}
	return outputs, nil
}

// MergeFiles merges the file at sourcePath into the file at targetPath and
// writes the result to outPath, or back to targetPath when outPath is empty.
// Merges writing the same output are serialised.
func (s *Service) MergeFiles(ctx context.Context, targetPath, sourcePath, outPath string) (stats codec.MergeStats, err error) {
	if outPath == "" {
		outPath = targetPath
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return stats, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	unlock := s.lockPath(outPath)
	defer unlock()

	job := s.jobs.start(ctx, JobMerge, targetPath, nil)
	logger := logging.WithFields(ctx, "job_id", job.ID, "target", targetPath, "source", sourcePath)
	defer func() {
		var outputs []string
		if err == nil {
			outputs = []string{outPath}
		}
		s.jobs.finish(job, outputs, err)
		if err != nil {
			logger.Error("merge failed", "error", err)
			return
		}
		logger.Info("merge completed",
			"updated", stats.Updated,
			"appended", stats.Appended,
			"columns_added", stats.ColumnsAdded,
		)
	}()

	target, err := s.ReadFile(ctx, targetPath)
	if err != nil {
		return stats, err
	}
	source, err := s.ReadFile(ctx, sourcePath)
	if err != nil {
		return stats, err
	}

	stats = target.Merge(source)
	if err := writeFile(outPath, target.Text(nil, "")); err != nil {
		return stats, err
	}
	return stats, nil
}

// MergeText merges sourceText into targetText, both parsed as the file at
// path, and returns the merged document in the layout the file type reads.
func (s *Service) MergeText(path, targetText, sourceText string) (string, codec.MergeStats, error) {
	target, err := s.ParseText(path, targetText)
	if err != nil {
		return "", codec.MergeStats{}, err
	}
	source, err := s.ParseText(path, sourceText)
	if err != nil {
		return "", codec.MergeStats{}, err
	}
	stats := target.Merge(source)
	return target.Text(nil, ""), stats, nil
}

func (s *Service) lockPath(path string) func() {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	v, _ := s.pathLocks.LoadOrStore(abs, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func writeFile(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
