package memory

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sync"

	"booksum/internal/domain"
)

// Entry is one indexed item of a snapshot file.
type Entry struct {
	Vector []float64      `json:"vector"`
	Fields map[string]any `json:"fields"`
}

// Index is an in-memory vector index using brute-force cosine similarity.
// It only serves snapshots exported from an index built elsewhere.
type Index struct {
	mu        sync.RWMutex
	dimension int
	entries   []Entry
	norms     []float64
}

func NewIndex() *Index { return &Index{} }

// Load reads a JSON lines snapshot from path.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	idx := NewIndex()
	if err := idx.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("memory index %s: %w", path, err)
	}
	return idx, nil
}

// ReadFrom appends every snapshot line from r.
func (s *Index) ReadFrom(r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if err := s.Add(e); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
	return sc.Err()
}

// Add appends a single entry. The first entry fixes the dimension.
func (s *Index) Add(e Entry) error {
	if len(e.Vector) == 0 {
		return errors.New("empty vector")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension == 0 {
		s.dimension = len(e.Vector)
	}
	if len(e.Vector) != s.dimension {
		return errors.New("vector dimension mismatch")
	}
	s.entries = append(s.entries, e)
	s.norms = append(s.norms, norm(e.Vector))
	return nil
}

// Len returns the number of indexed entries.
func (s *Index) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Index) Search(ctx context.Context, req domain.SearchRequest) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.entries) > 0 && len(req.Vector) != s.dimension {
		return nil, fmt.Errorf("query dimension %d does not match index dimension %d", len(req.Vector), s.dimension)
	}
	topK := req.Top
	if topK <= 0 {
		topK = 5
	}
	qn := norm(req.Vector)
	scores := make([]float64, len(s.entries))
	for i := range s.entries {
		if qn == 0 || s.norms[i] == 0 {
			continue
		}
		scores[i] = dot(s.entries[i].Vector, req.Vector) / (qn * s.norms[i])
	}
	idxs := argsortDesc(scores)
	if topK > len(idxs) {
		topK = len(idxs)
	}
	results := make([]domain.Record, 0, topK)
	for i := 0; i < topK; i++ {
		j := idxs[i]
		results = append(results, domain.Record{Fields: project(s.entries[j].Fields, req.Select), Score: scores[j]})
	}
	return results, nil
}

func project(fields map[string]any, selected []string) map[string]any {
	if len(selected) == 0 {
		return fields
	}
	out := make(map[string]any, len(selected))
	for _, name := range selected {
		if v, ok := fields[name]; ok {
			out[name] = v
		}
	}
	return out
}

func norm(v []float64) float64 {
	return math.Sqrt(dot(v, v))
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func argsortDesc(vals []float64) []int {
	idxs := make([]int, len(vals))
	for i := range vals {
		idxs[i] = i
	}
	quicksort(idxs, vals, 0, len(idxs)-1)
	return idxs
}

func quicksort(idxs []int, vals []float64, lo, hi int) {
	if lo >= hi {
		return
	}
	i, j := lo, hi
	pivot := vals[idxs[(lo+hi)/2]]
	for i <= j {
		for vals[idxs[i]] > pivot { // desc order
			i++
		}
		for vals[idxs[j]] < pivot {
			j--
		}
		if i <= j {
			idxs[i], idxs[j] = idxs[j], idxs[i]
			i++
			j--
		}
	}
	if lo < j {
		quicksort(idxs, vals, lo, j)
	}
	if i < hi {
		quicksort(idxs, vals, i, hi)
	}
}

var _ domain.VectorSearcher = (*Index)(nil)
