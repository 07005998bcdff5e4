package core

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/csvloc/internal/codec"
	"github.com/JonMunkholm/csvloc/internal/testutil"
	"github.com/JonMunkholm/csvloc/internal/translation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stringsCSV = "id,name,description\n" +
	"1,Save,Save the document\n" +
	"2,Open,\"Open, then edit\"\n" +
	"3,Save,\n"

func newTestService(t *testing.T, opts Options) *Service {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = testutil.NewTestLogger(t)
	}
	if opts.Project == "" {
		opts.Project = "webapp"
	}
	svc, err := NewService(opts)
	require.NoError(t, err)
	return svc
}

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func frenchStore(t *testing.T) translation.Store {
	t.Helper()
	store := translation.NewMemoryStore()
	require.NoError(t, store.Save(context.Background(),
		translation.Resource{Project: "webapp", Key: "Save", Source: "Save", SourceLocale: "en-US", Target: "Enregistrer", TargetLocale: "fr-FR"},
		translation.Resource{Project: "webapp", Key: "Open, then edit", Source: "Open, then edit", SourceLocale: "en-US", Target: "Ouvrir, puis modifier", TargetLocale: "fr-FR"},
		translation.Resource{Project: "webapp", Key: "Save", Source: "Save", SourceLocale: "en-US", Target: "Speichern", TargetLocale: "de-DE"},
	))
	return store
}

func TestNewService_InvalidLocales(t *testing.T) {
	_, err := NewService(Options{SourceLocale: "??"})
	assert.ErrorIs(t, err, ErrInvalidLocale)

	_, err = NewService(Options{Locales: []string{"fr-FR", ""}})
	assert.ErrorIs(t, err, ErrInvalidLocale)
}

func TestService_Resolve(t *testing.T) {
	svc := newTestService(t, Options{})

	ft, err := svc.Resolve("a/b.tsv")
	require.NoError(t, err)
	assert.Equal(t, '\t', ft.Options.ColumnSeparator)

	_, err = svc.Resolve("notes.txt")
	assert.ErrorIs(t, err, ErrNoMapping)
}

func TestService_ResolveRelativeToRoot(t *testing.T) {
	root := t.TempDir()
	reg := NewRegistry()
	reg.Register(FileType{Glob: "res/*.csv", Options: codec.Options{ColumnSeparator: ';'}})
	svc := newTestService(t, Options{Registry: reg, Root: root})

	ft, err := svc.Resolve(filepath.Join(root, "res", "a.csv"))
	require.NoError(t, err)
	assert.Equal(t, "res/*.csv", ft.Glob)
}

func TestService_ReadFile(t *testing.T) {
	dir := t.TempDir()
	svc := newTestService(t, Options{})
	path := writeTemp(t, dir, "strings.csv", stringsCSV)

	f, err := svc.ReadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "description"}, f.Columns().Names())
	require.Len(t, f.Records(), 3)
	assert.Equal(t, "Open, then edit", f.Records()[1]["description"])
}

func TestService_ReadFile_Missing(t *testing.T) {
	svc := newTestService(t, Options{})

	f, err := svc.ReadFile(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.NoError(t, err)
	assert.Empty(t, f.Records())
	assert.Empty(t, f.Columns())
}

func TestService_ReadFile_TooLarge(t *testing.T) {
	svc := newTestService(t, Options{MaxFileSize: 10})
	path := writeTemp(t, t.TempDir(), "strings.csv", stringsCSV)

	_, err := svc.ReadFile(context.Background(), path)
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestService_ReadFile_Cancelled(t *testing.T) {
	svc := newTestService(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.ReadFile(ctx, "a.csv")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestService_ExtractText(t *testing.T) {
	store := translation.NewMemoryStore()
	svc := newTestService(t, Options{Store: store})

	rs, err := svc.ExtractText(context.Background(), "strings.csv", stringsCSV)
	require.NoError(t, err)

	var sources []string
	for _, r := range rs {
		sources = append(sources, r.Source)
		assert.Equal(t, "webapp", r.Project)
		assert.Equal(t, "en-US", r.SourceLocale)
		assert.Equal(t, translation.DatatypeCSV, r.Datatype)
		assert.Equal(t, "strings.csv", r.Path)
		assert.Empty(t, r.TargetLocale)
	}
	// Inferred schemas localize every column; duplicates are extracted once.
	assert.Equal(t, []string{"1", "Save", "Save the document", "2", "Open", "Open, then edit", "3"}, sources)

	stored, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, stored, len(rs))
}

func TestService_Extract_NonLocalizable(t *testing.T) {
	reg := NewRegistry()
	reg.Register(FileType{Glob: "**/*.csv", Options: codec.Options{NonLocalizable: []string{"id"}}})
	svc := newTestService(t, Options{Registry: reg})
	path := writeTemp(t, t.TempDir(), "strings.csv", stringsCSV)

	rs, err := svc.Extract(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, rs, 4)
	assert.Equal(t, "Save", rs[0].Source)
	assert.Equal(t, path, rs[0].Path)
}

func TestService_LocalizeText(t *testing.T) {
	reg := NewRegistry()
	reg.Register(FileType{Glob: "**/*.csv", Options: codec.Options{NonLocalizable: []string{"id"}}})
	svc := newTestService(t, Options{Registry: reg, Store: frenchStore(t)})

	got, err := svc.LocalizeText(context.Background(), "strings.csv", stringsCSV, "fr-FR")
	require.NoError(t, err)
	assert.Equal(t, "id,name,description\n"+
		"1,Enregistrer,Save the document\n"+
		"2,Open,\"Ouvrir, puis modifier\"\n"+
		"3,Enregistrer,", got)

	_, err = svc.LocalizeText(context.Background(), "strings.csv", stringsCSV, "bad locale!")
	assert.ErrorIs(t, err, ErrInvalidLocale)

	_, err = svc.LocalizeText(context.Background(), "strings.txt", stringsCSV, "fr-FR")
	assert.ErrorIs(t, err, ErrNoMapping)
}

func TestService_LocalizeFile(t *testing.T) {
	dir := t.TempDir()
	svc := newTestService(t, Options{Store: frenchStore(t), Locales: []string{"fr-FR", "de-DE"}})
	path := writeTemp(t, dir, "res/strings.csv", stringsCSV)

	outputs, err := svc.LocalizeFile(context.Background(), path, nil)
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "res", "strings-fr-FR.csv"),
		filepath.Join(dir, "res", "strings-de-DE.csv"),
	}, outputs)

	fr, err := os.ReadFile(outputs[0])
	require.NoError(t, err)
	assert.Contains(t, string(fr), "1,Enregistrer,Save the document")

	de, err := os.ReadFile(outputs[1])
	require.NoError(t, err)
	assert.Contains(t, string(de), "1,Speichern,Save the document")
	assert.Contains(t, string(de), `2,Open,"Open, then edit"`)

	jobs := svc.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, JobLocalize, jobs[0].Kind)
	assert.Equal(t, JobSucceeded, jobs[0].State)
	assert.Equal(t, outputs, jobs[0].Outputs)
	assert.Equal(t, 0, svc.Limiter().ActiveCount())

	job, ok := svc.Job(jobs[0].ID)
	require.True(t, ok)
	assert.Equal(t, path, job.Path)
}

func TestService_LocalizeFile_Template(t *testing.T) {
	dir := t.TempDir()
	reg := NewRegistry()
	reg.Register(FileType{
		Glob:     "**/*.tsv",
		Options:  codec.Options{ColumnSeparator: '\t'},
		Template: "[dir]/[language]/[filename]",
	})
	svc := newTestService(t, Options{Registry: reg, Store: frenchStore(t)})
	path := writeTemp(t, dir, "strings.tsv", "name\nSave\n")

	outputs, err := svc.LocalizeFile(context.Background(), path, []string{"fr-FR"})
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "fr", "strings.tsv")}, outputs)

	got, err := os.ReadFile(outputs[0])
	require.NoError(t, err)
	assert.Equal(t, "name\nEnregistrer", string(got))
}

func TestService_LocalizeFile_Errors(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "strings.csv", stringsCSV)

	svc := newTestService(t, Options{})
	_, err := svc.LocalizeFile(context.Background(), path, nil)
	assert.ErrorIs(t, err, ErrNoLocales)

	_, err = svc.LocalizeFile(context.Background(), path, []string{"fr-FR", "!!"})
	assert.ErrorIs(t, err, ErrInvalidLocale)

	reg := NewRegistry()
	reg.Register(FileType{Glob: "**/*.csv", Template: "[dir]/[filename]"})
	svc = newTestService(t, Options{Registry: reg})
	_, err = svc.LocalizeFile(context.Background(), path, []string{"fr-FR"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "equals the source file")

	jobs := svc.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, JobFailed, jobs[0].State)
	assert.NotEmpty(t, jobs[0].Error)
}

func TestService_LocalizeFile_SharedOutputPath(t *testing.T) {
	dir := t.TempDir()
	reg := NewRegistry()
	reg.Register(FileType{Glob: "**/*.csv", Template: "[dir]/out/[filename]"})
	svc := newTestService(t, Options{Registry: reg, Store: frenchStore(t)})
	path := writeTemp(t, dir, "strings.csv", stringsCSV)

	_, err := svc.LocalizeFile(context.Background(), path, []string{"fr-FR", "de-DE"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "share the output path")

	_, err = os.Stat(filepath.Join(dir, "out", "strings.csv"))
	assert.True(t, os.IsNotExist(err), "nothing is written")

	outputs, err := svc.LocalizeFile(context.Background(), path, []string{"fr-FR"})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "out", "strings.csv")}, outputs)
}

func TestService_LocalizeFile_Busy(t *testing.T) {
	limiter := NewJobLimiter(1, 50*time.Millisecond)
	require.True(t, limiter.TryAcquire())
	defer limiter.Release()

	svc := newTestService(t, Options{Limiter: limiter})
	_, err := svc.LocalizeFile(context.Background(), "a.csv", []string{"fr-FR"})
	assert.ErrorIs(t, err, ErrTooManyJobs)
	assert.Empty(t, svc.Jobs())
}

func TestService_MergeFiles(t *testing.T) {
	dir := t.TempDir()
	reg := NewRegistry()
	reg.Register(FileType{Glob: "**/*.csv", Options: codec.Options{Key: "id"}})
	svc := newTestService(t, Options{Registry: reg})

	target := writeTemp(t, dir, "target.csv", "id,name\n1,Save\n2,Open\n")
	source := writeTemp(t, dir, "source.csv", "id,name,note\n2,Open file,new\n3,Close,\n")

	stats, err := svc.MergeFiles(context.Background(), target, source, "")
	require.NoError(t, err)
	assert.Equal(t, codec.MergeStats{ColumnsAdded: 1, Updated: 1, Appended: 1}, stats)

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "id,name,note\n1,Save,\n2,Open file,new\n3,Close,", string(got))

	jobs := svc.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, JobMerge, jobs[0].Kind)
	assert.Equal(t, []string{target}, jobs[0].Outputs)
}

func TestService_MergeFiles_ExplicitColumnsNoHeader(t *testing.T) {
	dir := t.TempDir()
	reg := NewRegistry()
	reg.Register(FileType{Glob: "**/*.csv", Options: codec.Options{
		Columns: []codec.Column{{Name: "id"}, codec.NewColumn("v")},
		Key:     "id",
	}})
	svc := newTestService(t, Options{Registry: reg})

	target := writeTemp(t, dir, "t.csv", "a,1\n")
	source := writeTemp(t, dir, "s.csv", "a,2\n")

	for i := 0; i < 2; i++ {
		_, err := svc.MergeFiles(context.Background(), target, source, "")
		require.NoError(t, err)
	}

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "a,2", string(got))

	f, err := svc.ReadFile(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, []codec.Record{{"id": "a", "v": "2"}}, f.Records())

	merged, _, err := svc.MergeText("x.csv", "a,1\nb,5\n", "b,6\n")
	require.NoError(t, err)
	assert.Equal(t, "a,1\nb,6", merged)
}

func TestService_MergeFiles_OutPathAndMissingTarget(t *testing.T) {
	dir := t.TempDir()
	svc := newTestService(t, Options{})

	source := writeTemp(t, dir, "source.csv", "name\nSave\n")
	out := filepath.Join(dir, "out", "merged.csv")

	stats, err := svc.MergeFiles(context.Background(), filepath.Join(dir, "missing.csv"), source, out)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Appended)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "name\nSave", string(got))

	_, err = os.Stat(source)
	require.NoError(t, err)
}

func TestService_MergeFiles_Concurrent(t *testing.T) {
	dir := t.TempDir()
	reg := NewRegistry()
	reg.Register(FileType{Glob: "**/*.csv", Options: codec.Options{Key: "id"}})
	svc := newTestService(t, Options{Registry: reg, Limiter: NewJobLimiter(8, time.Second)})

	target := writeTemp(t, dir, "target.csv", "id,name\n")
	var sources []string
	for _, id := range []string{"a", "b", "c", "d"} {
		sources = append(sources, writeTemp(t, dir, id+".csv", "id,name\n"+id+","+id+"\n"))
	}

	var wg sync.WaitGroup
	for _, src := range sources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.MergeFiles(context.Background(), target, src, "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	f, err := svc.ReadFile(context.Background(), target)
	require.NoError(t, err)
	assert.Len(t, f.Records(), 4)
}

func TestService_MergeText(t *testing.T) {
	reg := NewRegistry()
	reg.Register(FileType{Glob: "**/*.tsv", Options: codec.Options{ColumnSeparator: '\t', Key: "id"}})
	svc := newTestService(t, Options{Registry: reg})

	got, stats, err := svc.MergeText("a.tsv", "id\tname\n1\tSave\n", "id\tname\n1\tStore\n2\tOpen\n")
	require.NoError(t, err)
	assert.Equal(t, "id\tname\n1\tStore\n2\tOpen", got)
	assert.Equal(t, codec.MergeStats{Updated: 1, Appended: 1}, stats)
}

func TestService_SaveTranslations(t *testing.T) {
	store := translation.NewMemoryStore()
	svc := newTestService(t, Options{Store: store})

	err := svc.SaveTranslations(context.Background(), translation.Resource{Source: "Save", Target: "Guardar", TargetLocale: "es-ES"})
	require.NoError(t, err)

	got, err := svc.LocalizeText(context.Background(), "a.csv", "name\nSave", "es-ES")
	require.NoError(t, err)
	assert.Equal(t, "name\nGuardar", got)

	err = svc.SaveTranslations(context.Background(), translation.Resource{Source: "Save", Target: "x"})
	assert.ErrorIs(t, err, ErrInvalidLocale)
}
