package codec

// MergeStats counts what a merge did to the target.
type MergeStats struct {
	ColumnsAdded int `json:"columnsAdded"`
	Updated      int `json:"updated"`
	Appended     int `json:"appended"`
}

// Merge folds other into f. f is modified in place; other is not.
//
// The schema becomes f's columns followed by the columns only other has.
// Records of other are matched on the key column: a match has its fields
// overwritten by every non-empty incoming value, everything else is appended
// after f's existing records in other's order. Records without a key value,
// or all records when neither side has a key column, are appended.
//
// Merge is not safe for concurrent use on the same target.
func (f *File) Merge(other *File) MergeStats {
	var stats MergeStats

	before := len(f.schema)
	f.schema = f.schema.Union(other.schema)
	stats.ColumnsAdded = len(f.schema) - before

	if f.store.Key() == "" && other.store.Key() != "" {
		f.store.SetKey(other.store.Key())
	}
	f.store.Compact()

	keyed := other.store.Key() != ""
	for _, rec := range other.store.Records() {
		incoming := rec.Clone()
		if !keyed {
			f.store.Append(incoming)
			stats.Appended++
			continue
		}
		if f.store.Upsert(incoming) {
			stats.Updated++
		} else {
			stats.Appended++
		}
	}
	return stats
}
