package domain

// DatasetRecord is one row of the flat instruction-tuning dataset
// (train.jsonl). Rows carry arbitrary fields; only "id" is meaningful
// to the merge logic, so the record stays schemaless.
type DatasetRecord map[string]any

// ID returns the record's "id" field, or "" when absent or not a string.
func (r DatasetRecord) ID() string {
	id, _ := r["id"].(string)
	return id
}
