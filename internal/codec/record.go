package codec

// Record maps column names to cell values. A missing name means the cell is
// absent, which is different from an empty value.
type Record map[string]string

// Clone returns an independent copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Store is an ordered collection of records with an optional key column.
// When a key column is set, records with a non-empty key are indexed by it.
//
// Store is not safe for concurrent use.
type Store struct {
	records []Record
	key     string
	index   map[string]int
}

// NewStore returns an empty store keyed by key. An empty key disables indexing.
func NewStore(key string) *Store {
	return &Store{
		key:   key,
		index: make(map[string]int),
	}
}

// Key returns the key column name.
func (s *Store) Key() string {
	return s.key
}

// SetKey changes the key column and rebuilds the index.
func (s *Store) SetKey(key string) {
	s.key = key
	s.reindex()
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.records)
}

// Records returns the records in order. The slice is shared with the store.
func (s *Store) Records() []Record {
	return s.records
}

// At returns the record at position i.
func (s *Store) At(i int) Record {
	return s.records[i]
}

// Append adds r at the end and indexes it under its key, if any.
// A later record with the same key shadows earlier ones in lookups.
func (s *Store) Append(r Record) {
	s.records = append(s.records, r)
	if k := s.keyOf(r); k != "" {
		s.index[k] = len(s.records) - 1
	}
}

// Lookup returns the record indexed under key.
func (s *Store) Lookup(key string) (Record, bool) {
	if key == "" {
		return nil, false
	}
	pos, ok := s.index[key]
	if !ok {
		return nil, false
	}
	return s.records[pos], true
}

// Upsert merges r into the record indexed under its key, or appends it when
// there is no match or no key. It reports whether an existing record was updated.
func (s *Store) Upsert(r Record) bool {
	k := s.keyOf(r)
	if k == "" {
		s.records = append(s.records, r)
		return false
	}
	if pos, ok := s.index[k]; ok {
		overlay(s.records[pos], r)
		return true
	}
	s.Append(r)
	return false
}

// Compact folds records that share a non-empty key into the first record
// carrying that key, later values winning. Key-less records are kept as is.
func (s *Store) Compact() {
	if s.key == "" {
		return
	}
	kept := s.records[:0]
	index := make(map[string]int, len(s.index))
	for _, r := range s.records {
		k := r[s.key]
		if k == "" {
			kept = append(kept, r)
			continue
		}
		if pos, ok := index[k]; ok {
			overlay(kept[pos], r)
			continue
		}
		index[k] = len(kept)
		kept = append(kept, r)
	}
	for i := len(kept); i < len(s.records); i++ {
		s.records[i] = nil
	}
	s.records = kept
	s.index = index
}

func (s *Store) keyOf(r Record) string {
	if s.key == "" {
		return ""
	}
	return r[s.key]
}

func (s *Store) reindex() {
	s.index = make(map[string]int, len(s.records))
	for i, r := range s.records {
		if k := s.keyOf(r); k != "" {
			s.index[k] = i
		}
	}
}

// overlay copies every non-empty value of src into dst. Empty values never
// overwrite existing data.
func overlay(dst, src Record) {
	for col, v := range src {
		if v == "" {
			continue
		}
		dst[col] = v
	}
}
