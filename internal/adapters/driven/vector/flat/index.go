// Package flat provides an exact inner-product vector index persisted as two
// files: a binary vector file and a JSON row to chunk mapping.
package flat

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/custodia-labs/ragvault/internal/core/domain"
	"github.com/custodia-labs/ragvault/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// File names inside the index directory.
const (
	VectorsFile = "vectors.bin"
	MappingFile = "vectors_map.json"
)

// magic identifies the vector file format.
var magic = [4]byte{'R', 'V', 'F', '1'}

// Index is a brute-force index over unit vectors. Rows are append-only;
// Delete only rewrites the mapping to driven.TombstoneChunkID.
type Index struct {
	mu        sync.RWMutex
	dir       string
	dimension int
	vectors   []float32
	mapping   []int64
	closed    bool
}

// Open loads the index stored in dir, or starts an empty one when neither
// file exists. A lone file, a row count that disagrees with the mapping or a
// dimension other than dimension yields domain.ErrStorageInconsistency.
func Open(dir string, dimension int) (*Index, error) {
	if dir == "" {
		return nil, errors.New("flat: directory cannot be empty")
	}
	if dimension <= 0 {
		return nil, errors.New("flat: dimension must be positive")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("flat: creating index directory: %w", err)
	}

	idx := &Index{dir: dir, dimension: dimension}

	vecPath := filepath.Join(dir, VectorsFile)
	mapPath := filepath.Join(dir, MappingFile)
	vecExists, err := exists(vecPath)
	if err != nil {
		return nil, err
	}
	mapExists, err := exists(mapPath)
	if err != nil {
		return nil, err
	}

	switch {
	case !vecExists && !mapExists:
		return idx, nil
	case vecExists != mapExists:
		return nil, fmt.Errorf("%w: only one of %s and %s exists in %s",
			domain.ErrStorageInconsistency, VectorsFile, MappingFile, dir)
	}

	dim, vectors, err := readVectors(vecPath)
	if err != nil {
		return nil, err
	}
	if dim != dimension {
		return nil, fmt.Errorf("%w: index has dimension %d, embedder produces %d",
			domain.ErrStorageInconsistency, dim, dimension)
	}

	mapping, err := readMapping(mapPath)
	if err != nil {
		return nil, err
	}
	if rows := len(vectors) / dim; rows != len(mapping) {
		return nil, fmt.Errorf("%w: index has %d rows but mapping has %d entries",
			domain.ErrStorageInconsistency, rows, len(mapping))
	}

	idx.vectors = vectors
	idx.mapping = mapping
	return idx, nil
}

// Add appends vectors and persists both files before returning.
func (idx *Index) Add(_ context.Context, vectors [][]float32, chunkIDs []int64) ([]int, error) {
	if len(vectors) != len(chunkIDs) {
		return nil, fmt.Errorf("flat: %d vectors for %d chunk ids", len(vectors), len(chunkIDs))
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return nil, errors.New("flat: index is closed")
	}
	for _, v := range vectors {
		if len(v) != idx.dimension {
			return nil, fmt.Errorf("flat: embedding dimension mismatch: got %d, want %d", len(v), idx.dimension)
		}
	}

	prevVectors, prevMapping := len(idx.vectors), len(idx.mapping)
	rows := make([]int, len(vectors))
	for i, v := range vectors {
		rows[i] = len(idx.mapping)
		idx.vectors = append(idx.vectors, v...)
		idx.mapping = append(idx.mapping, chunkIDs[i])
	}

	if err := idx.persistLocked(); err != nil {
		idx.vectors = idx.vectors[:prevVectors]
		idx.mapping = idx.mapping[:prevMapping]
		return nil, err
	}
	return rows, nil
}

// Search scores every live row against query.
func (idx *Index) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.closed {
		return nil, errors.New("flat: index is closed")
	}
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("flat: query dimension mismatch: got %d, want %d", len(query), idx.dimension)
	}
	if k <= 0 || len(idx.mapping) == 0 {
		return nil, nil
	}

	hits := make([]driven.VectorHit, 0, len(idx.mapping))
	for row, chunkID := range idx.mapping {
		if chunkID == driven.TombstoneChunkID {
			continue
		}
		hits = append(hits, driven.VectorHit{
			ChunkID: chunkID,
			Score:   dot(query, idx.rowLocked(row)),
		})
	}

	// Stable sort keeps insertion order among equal scores.
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Delete tombstones every row mapped to one of chunkIDs.
func (idx *Index) Delete(_ context.Context, chunkIDs []int64) error {
	if len(chunkIDs) == 0 {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return errors.New("flat: index is closed")
	}

	remove := make(map[int64]bool, len(chunkIDs))
	for _, id := range chunkIDs {
		remove[id] = true
	}

	prev := append([]int64(nil), idx.mapping...)
	changed := false
	for row, id := range idx.mapping {
		if remove[id] {
			idx.mapping[row] = driven.TombstoneChunkID
			changed = true
		}
	}
	if !changed {
		return nil
	}

	if err := idx.persistLocked(); err != nil {
		idx.mapping = prev
		return err
	}
	return nil
}

// Vector returns a copy of the vector stored at row.
func (idx *Index) Vector(_ context.Context, row int) ([]float32, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if row < 0 || row >= len(idx.mapping) {
		return nil, fmt.Errorf("flat: row %d: %w", row, domain.ErrNotFound)
	}
	return append([]float32(nil), idx.rowLocked(row)...), nil
}

// Len returns the number of rows, tombstones included.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.mapping)
}

// Dimensions returns the vector size.
func (idx *Index) Dimensions() int {
	return idx.dimension
}

// Close releases the in-memory copy. Data is already on disk.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.closed = true
	idx.vectors = nil
	idx.mapping = nil
	return nil
}

func (idx *Index) rowLocked(row int) []float32 {
	return idx.vectors[row*idx.dimension : (row+1)*idx.dimension]
}

// persistLocked rewrites both files through temp files and renames.
func (idx *Index) persistLocked() error {
	err := writeAtomic(filepath.Join(idx.dir, VectorsFile), func(w io.Writer) error {
		return writeVectors(w, idx.dimension, idx.vectors)
	})
	if err != nil {
		return fmt.Errorf("flat: writing vectors: %w", err)
	}

	err = writeAtomic(filepath.Join(idx.dir, MappingFile), func(w io.Writer) error {
		return json.NewEncoder(w).Encode(idx.mapping)
	})
	if err != nil {
		return fmt.Errorf("flat: writing mapping: %w", err)
	}
	return nil
}

func writeAtomic(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	bw := bufio.NewWriter(tmp)
	if err := write(bw); err != nil {
		tmp.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// writeVectors writes the header (magic, dimension, rows) then the rows as
// little-endian float32.
func writeVectors(w io.Writer, dimension int, vectors []float32) error {
	header := make([]byte, 12)
	copy(header, magic[:])
	binary.LittleEndian.PutUint32(header[4:], uint32(dimension))
	binary.LittleEndian.PutUint32(header[8:], uint32(len(vectors)/dimension))
	if _, err := w.Write(header); err != nil {
		return err
	}

	buf := make([]byte, 4)
	for _, f := range vectors {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(f))
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

func readVectors(path string) (int, []float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, nil, fmt.Errorf("flat: reading vectors: %w", err)
	}
	if len(data) < 12 || [4]byte(data[:4]) != magic {
		return 0, nil, fmt.Errorf("%w: %s is not a vector file", domain.ErrStorageInconsistency, path)
	}

	dim := int(binary.LittleEndian.Uint32(data[4:]))
	rows := int(binary.LittleEndian.Uint32(data[8:]))
	body := data[12:]
	if dim <= 0 || len(body) != rows*dim*4 {
		return 0, nil, fmt.Errorf("%w: %s is truncated", domain.ErrStorageInconsistency, path)
	}

	vectors := make([]float32, rows*dim)
	for i := range vectors {
		vectors[i] = math.Float32frombits(binary.LittleEndian.Uint32(body[i*4:]))
	}
	return dim, vectors, nil
}

func readMapping(path string) ([]int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("flat: reading mapping: %w", err)
	}
	var mapping []int64
	if err := json.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", domain.ErrStorageInconsistency, path, err)
	}
	return mapping, nil
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("flat: %w", err)
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
