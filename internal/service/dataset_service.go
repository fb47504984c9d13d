package service

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/careerflow-ai/news-rag/internal/domain"
	"github.com/careerflow-ai/news-rag/internal/port"
)

// DatasetService maintains the flat instruction-tuning dataset
// (train.jsonl): it merges freshly scraped rows into the base file,
// keeping ids unique, and pushes artifacts to the remote dataset hub.
type DatasetService struct {
	hub port.DatasetHub
}

// NewDatasetService creates a dataset service. hub may be nil when no
// remote store is configured; Push then becomes a no-op.
func NewDatasetService(hub port.DatasetHub) *DatasetService {
	return &DatasetService{hub: hub}
}

// Merge appends the rows of newPath whose id is not yet present in
// basePath, rewriting basePath. Rows without an id are skipped with a
// warning. Returns the number of rows added.
func (s *DatasetService) Merge(basePath, newPath string) (int, error) {
	base, err := ReadDatasetRecords(basePath)
	if err != nil {
		return 0, fmt.Errorf("read base dataset: %w", err)
	}
	fresh, err := ReadDatasetRecords(newPath)
	if err != nil {
		return 0, fmt.Errorf("read new dataset: %w", err)
	}

	seen := make(map[string]struct{}, len(base))
	for _, r := range base {
		if id := r.ID(); id != "" {
			seen[id] = struct{}{}
		}
	}

	added := 0
	for _, r := range fresh {
		id := r.ID()
		if id == "" {
			slog.Warn("skipping dataset row without id")
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		base = append(base, r)
		added++
	}

	if err := WriteDatasetRecords(basePath, base); err != nil {
		return 0, fmt.Errorf("write merged dataset: %w", err)
	}
	slog.Info("dataset merged", "added", added, "total", len(base))
	return added, nil
}

// Push uploads the given files to the dataset hub. Keys are local
// paths, values the destination paths inside the repo. Missing local
// files are skipped with a warning, matching the upstream pipeline.
func (s *DatasetService) Push(ctx context.Context, files map[string]string) error {
	if s.hub == nil {
		slog.Info("no dataset hub configured, skipping push")
		return nil
	}
	for local, remote := range files {
		if _, err := os.Stat(local); os.IsNotExist(err) {
			slog.Warn("skipping missing artifact", "path", local)
			continue
		}
		if err := s.hub.Upload(ctx, local, remote); err != nil {
			return fmt.Errorf("upload %s: %w", local, err)
		}
		slog.Info("uploaded artifact", "local", local, "remote", remote)
	}
	return nil
}

// ReadDatasetRecords loads a JSONL dataset file. A missing file yields
// an empty dataset; blank or invalid lines are skipped with a warning.
func ReadDatasetRecords(path string) ([]domain.DatasetRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var records []domain.DatasetRecord
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if strings.TrimSpace(sc.Text()) == "" {
			continue
		}
		var r domain.DatasetRecord
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			slog.Warn("skipping invalid dataset line", "line", line, "error", err)
			continue
		}
		records = append(records, r)
	}
	return records, sc.Err()
}

// WriteDatasetRecords rewrites a JSONL dataset file, one record per line.
func WriteDatasetRecords(path string, records []domain.DatasetRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
