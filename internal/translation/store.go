package translation

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownDriver is returned by Open for an unsupported store driver.
var ErrUnknownDriver = errors.New("unknown translation store driver")

// Store persists resources.
type Store interface {
	// Save inserts or updates resources, deduplicated by project, key and
	// target locale.
	Save(ctx context.Context, rs ...Resource) error

	// List returns the stored resources for a target locale. An empty
	// locale lists untranslated source resources.
	List(ctx context.Context, locale string) ([]Resource, error)

	// Snapshot loads the translations for locale into a Set usable as a
	// translator.
	Snapshot(ctx context.Context, locale string) (*Set, error)

	Close() error
}

// MemoryStore keeps resources in a Set for the lifetime of the process.
type MemoryStore struct {
	set *Set
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{set: NewSet()}
}

// Save adds rs to the store.
func (m *MemoryStore) Save(ctx context.Context, rs ...Resource) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.set.Add(rs...)
	return nil
}

// List returns the resources for locale.
func (m *MemoryStore) List(ctx context.Context, locale string) ([]Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.set.ForLocale(locale), nil
}

// Snapshot returns a copy of the translations for locale.
func (m *MemoryStore) Snapshot(ctx context.Context, locale string) (*Set, error) {
	rs, err := m.List(ctx, locale)
	if err != nil {
		return nil, err
	}
	return NewSet(rs...), nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }

// Open returns the store selected by driver: "memory", "sqlite" or
// "postgres". SQL stores are migrated before they are returned.
func Open(ctx context.Context, driver, url string) (Store, error) {
	switch driver {
	case "", "memory":
		return NewMemoryStore(), nil
	case DialectSQLite, DialectPostgres:
		return OpenSQL(ctx, driver, url)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
