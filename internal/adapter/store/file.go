package store

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/careerflow-ai/news-rag/internal/domain"
)

// Artifact file names inside the data directory. They mirror the
// pipeline layout consumed by external tooling, so they are part of the
// on-disk contract.
const (
	matrixFile = "embeddings.bin"
	idsFile    = "emb_ids.jsonl"
	docsFile   = "rag_docs.jsonl"
)

// magic marks the embedding matrix file format.
const matrixMagic = uint32(0x52414745) // "RAGE"

// FileStore persists the corpus as three flat files in one directory:
// a binary row-major float32 matrix, a chunk-id line per matrix row,
// and a chunk record line per chunk. All three are written via
// temp-file-plus-rename so a crash never leaves a partially written
// artifact behind.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-backed corpus store rooted at dir,
// creating the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Load reads the three artifacts back into a Corpus. A missing matrix
// file is the expected pre-indexing state and yields an empty corpus;
// artifacts that disagree with each other are refused.
func (s *FileStore) Load(ctx context.Context) (*Corpus, error) {
	matrix, err := readMatrix(filepath.Join(s.dir, matrixFile))
	if err != nil {
		if os.IsNotExist(err) {
			return &Corpus{}, nil
		}
		return nil, fmt.Errorf("load embedding matrix: %w", err)
	}

	ids, err := readIDs(filepath.Join(s.dir, idsFile))
	if err != nil {
		return nil, fmt.Errorf("load id sequence: %w", err)
	}

	chunks, err := readChunks(filepath.Join(s.dir, docsFile))
	if err != nil {
		return nil, fmt.Errorf("load chunk records: %w", err)
	}

	c := &Corpus{Chunks: chunks, IDs: ids, Matrix: matrix}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Save writes all three artifacts. Each is first written to a temp file
// in the same directory; only after every write succeeded are the temp
// files renamed into place, matrix first, so readers never observe an
// id sequence pointing past the end of the matrix.
func (s *FileStore) Save(ctx context.Context, c *Corpus) error {
	if err := c.Validate(); err != nil {
		return err
	}

	tmpMatrix := filepath.Join(s.dir, matrixFile+".tmp")
	tmpIDs := filepath.Join(s.dir, idsFile+".tmp")
	tmpDocs := filepath.Join(s.dir, docsFile+".tmp")

	cleanup := func() {
		os.Remove(tmpMatrix)
		os.Remove(tmpIDs)
		os.Remove(tmpDocs)
	}

	if err := writeMatrix(tmpMatrix, c.Matrix); err != nil {
		cleanup()
		return fmt.Errorf("write embedding matrix: %w", err)
	}
	if err := writeIDs(tmpIDs, c); err != nil {
		cleanup()
		return fmt.Errorf("write id sequence: %w", err)
	}
	if err := writeChunks(tmpDocs, c.Chunks); err != nil {
		cleanup()
		return fmt.Errorf("write chunk records: %w", err)
	}

	for _, f := range []struct{ tmp, final string }{
		{tmpMatrix, filepath.Join(s.dir, matrixFile)},
		{tmpIDs, filepath.Join(s.dir, idsFile)},
		{tmpDocs, filepath.Join(s.dir, docsFile)},
	} {
		if err := os.Rename(f.tmp, f.final); err != nil {
			cleanup()
			return fmt.Errorf("commit %s: %w", filepath.Base(f.final), err)
		}
	}
	return nil
}

// writeMatrix serializes the matrix as little-endian: magic, row count,
// dimension, then rows*dim float32 values in row-major order.
func writeMatrix(path string, matrix [][]float32) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)

	dim := 0
	if len(matrix) > 0 {
		dim = len(matrix[0])
	}
	header := []uint32{matrixMagic, uint32(len(matrix)), uint32(dim)}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		f.Close()
		return err
	}
	for _, row := range matrix {
		if err := binary.Write(w, binary.LittleEndian, row); err != nil {
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

func readMatrix(path string) ([][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := bufio.NewReader(f)

	var header [3]uint32
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if header[0] != matrixMagic {
		return nil, fmt.Errorf("bad matrix file magic %#x", header[0])
	}
	rows, dim := int(header[1]), int(header[2])

	matrix := make([][]float32, rows)
	for i := range matrix {
		row := make([]float32, dim)
		if err := binary.Read(r, binary.LittleEndian, row); err != nil {
			return nil, fmt.Errorf("read row %d: %w", i, err)
		}
		matrix[i] = row
	}
	return matrix, nil
}

// writeIDs writes one {"doc_id","source_id"} line per matrix row, in
// row order. Source ids for rows whose chunk record is gone are left
// empty; only the doc_id column is load-bearing.
func writeIDs(path string, c *Corpus) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, id := range c.IDs {
		entry := struct {
			DocID    string `json:"doc_id"`
			SourceID string `json:"source_id,omitempty"`
		}{DocID: id}
		if chunk := c.Chunk(id); chunk != nil {
			entry.SourceID = chunk.SourceID
		}
		if err := enc.Encode(entry); err != nil {
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

func readIDs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Validate flags the mismatch when the matrix has rows.
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var ids []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var entry struct {
			DocID string `json:"doc_id"`
		}
		if err := json.Unmarshal(sc.Bytes(), &entry); err != nil {
			return nil, fmt.Errorf("parse id line %d: %w", len(ids)+1, err)
		}
		ids = append(ids, entry.DocID)
	}
	return ids, sc.Err()
}

func writeChunks(path string, chunks []domain.Chunk) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, chunk := range chunks {
		if err := enc.Encode(chunk); err != nil {
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

func readChunks(path string) ([]domain.Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var chunks []domain.Chunk
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var chunk domain.Chunk
		if err := json.Unmarshal(sc.Bytes(), &chunk); err != nil {
			return nil, fmt.Errorf("parse chunk line %d: %w", len(chunks)+1, err)
		}
		chunks = append(chunks, chunk)
	}
	return chunks, sc.Err()
}
