package translation

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "modernc.org/sqlite"             // registers the "sqlite" driver
)

// Supported SQL dialects.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

const upsertQuery = `INSERT INTO translations
	(id, project, res_key, source, source_locale, target, target_locale, path, datatype, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (project, res_key, target_locale) DO UPDATE SET
	source = excluded.source,
	source_locale = excluded.source_locale,
	target = excluded.target,
	path = excluded.path,
	datatype = excluded.datatype,
	updated_at = excluded.updated_at`

const listQuery = `SELECT id, project, res_key, source, source_locale, target, target_locale, path, datatype
FROM translations
WHERE target_locale = ?
ORDER BY project, res_key`

// SQLStore persists resources in a translations table.
type SQLStore struct {
	db      *sql.DB
	dialect string
	log     *slog.Logger
}

// OpenSQL connects to the database, verifies the connection and applies
// pending migrations. For SQLite an empty url opens a private in-memory
// database.
func OpenSQL(ctx context.Context, dialect, url string) (*SQLStore, error) {
	driver := dialect
	switch dialect {
	case DialectPostgres:
		driver = "pgx"
	case DialectSQLite:
		if url == "" {
			url = ":memory:"
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, dialect)
	}

	db, err := sql.Open(driver, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// every new connection to :memory: would be a fresh database
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s store: %w", dialect, err)
	}
	if err := Migrate(ctx, db, dialect); err != nil {
		_ = db.Close()
		return nil, err
	}

	return NewSQLStore(db, dialect), nil
}

// NewSQLStore wraps an already migrated database.
func NewSQLStore(db *sql.DB, dialect string) *SQLStore {
	return &SQLStore{
		db:      db,
		dialect: dialect,
		log:     slog.Default().With("component", "translation_store", "dialect", dialect),
	}
}

// DB returns the underlying database handle.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// Save upserts rs in a single transaction.
func (s *SQLStore) Save(ctx context.Context, rs ...Resource) error {
	if len(rs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := s.rebind(upsertQuery)
	now := time.Now().UTC()
	for _, r := range rs {
		r = r.withID()
		if _, err := tx.ExecContext(ctx, query,
			r.ID, r.Project, r.Key, r.Source, r.SourceLocale,
			r.Target, r.TargetLocale, r.Path, r.Datatype, now,
		); err != nil {
			return fmt.Errorf("failed to save resource %q: %w", r.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit resources: %w", err)
	}
	s.log.Debug("saved resources", "count", len(rs))
	return nil
}

// List returns the resources for locale ordered by project and key.
func (s *SQLStore) List(ctx context.Context, locale string) ([]Resource, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(listQuery), locale)
	if err != nil {
		return nil, fmt.Errorf("failed to query resources: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Resource
	for rows.Next() {
		var r Resource
		if err := rows.Scan(
			&r.ID, &r.Project, &r.Key, &r.Source, &r.SourceLocale,
			&r.Target, &r.TargetLocale, &r.Path, &r.Datatype,
		); err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read resources: %w", err)
	}
	return out, nil
}

// Snapshot loads the translations for locale into a Set.
func (s *SQLStore) Snapshot(ctx context.Context, locale string) (*Set, error) {
	rs, err := s.List(ctx, locale)
	if err != nil {
		return nil, err
	}
	return NewSet(rs...), nil
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}
