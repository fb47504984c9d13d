package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/careerflow-ai/news-rag/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLines(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestMerge_AppendsOnlyUnseenIDs(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "train.jsonl")
	fresh := filepath.Join(dir, "new.jsonl")

	writeLines(t, base, `{"id":"1","text":"old one"}
{"id":"2","text":"old two"}
`)
	writeLines(t, fresh, `{"id":"2","text":"dup"}
{"id":"3","text":"new three"}
{"text":"row without id"}
`)

	svc := NewDatasetService(nil)
	added, err := svc.Merge(base, fresh)
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	merged, err := ReadDatasetRecords(base)
	require.NoError(t, err)
	require.Len(t, merged, 3)
	assert.Equal(t, "1", merged[0].ID())
	assert.Equal(t, "2", merged[1].ID())
	assert.Equal(t, "3", merged[2].ID())
	assert.Equal(t, "old two", merged[1]["text"], "existing rows win over duplicates")
}

func TestMerge_StartsFreshWithoutBaseFile(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "train.jsonl")
	fresh := filepath.Join(dir, "new.jsonl")

	writeLines(t, fresh, `{"id":"a","text":"first ever"}
`)

	svc := NewDatasetService(nil)
	added, err := svc.Merge(base, fresh)
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	merged, err := ReadDatasetRecords(base)
	require.NoError(t, err)
	assert.Len(t, merged, 1)
}

func TestMerge_IsIdempotent(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "train.jsonl")
	fresh := filepath.Join(dir, "new.jsonl")

	writeLines(t, fresh, `{"id":"a","text":"x"}
{"id":"b","text":"y"}
`)

	svc := NewDatasetService(nil)
	added, err := svc.Merge(base, fresh)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	added, err = svc.Merge(base, fresh)
	require.NoError(t, err)
	assert.Zero(t, added)

	merged, err := ReadDatasetRecords(base)
	require.NoError(t, err)
	assert.Len(t, merged, 2)
}

func TestReadDatasetRecords_TolerantParsing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.jsonl")
	writeLines(t, path, `{"id":"ok"}

garbage
{"id":"also-ok","extra":42}
`)

	records, err := ReadDatasetRecords(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "ok", records[0].ID())
	assert.Equal(t, "also-ok", records[1].ID())
}

func TestDatasetRecord_ID(t *testing.T) {
	assert.Equal(t, "x", domain.DatasetRecord{"id": "x"}.ID())
	assert.Empty(t, domain.DatasetRecord{}.ID())
	assert.Empty(t, domain.DatasetRecord{"id": 7}.ID())
}
