// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package vectorindex

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"sync"
)

const (
	// DefaultDimension matches the output size of common sentence embedding models.
	DefaultDimension = 768

	// DefaultMaxElements bounds a single tenant's index.
	DefaultMaxElements = 100000

	// bytesPerComponent is the float32 size used for memory estimates.
	bytesPerComponent = 4
)

// Record is a stored vector with its metadata.
type Record struct {
	ID       string    `json:"id"`
	Vector   []float32 `json:"vector"`
	Metadata Metadata  `json:"metadata,omitempty"`

	// InsertedAt is the index-local insertion sequence. Larger is newer.
	InsertedAt uint64 `json:"inserted_at"`
}

// Result is a single search hit.
type Result struct {
	ID       string   `json:"id"`
	Score    float64  `json:"score"`
	Metadata Metadata `json:"metadata,omitempty"`
}

// Stats describes the size of an index.
type Stats struct {
	Size           int   `json:"size"`
	Dimension      int   `json:"dimension"`
	MaxElements    int   `json:"max_elements"`
	MemoryEstimate int64 `json:"memory_estimate_bytes"`
	Evictions      int64 `json:"evictions"`
}

// IndexConfig configures a single Index.
type IndexConfig struct {
	Dimension   int
	MaxElements int

	// OnEvict, when set, is called with the id of every record dropped for capacity.
	// It runs with the index write lock held and must not call back into the index.
	OnEvict func(id string)
}

// entry is a node of the insertion-order list.
type entry struct {
	record Record
	norm   float64
	prev   *entry
	next   *entry
}

// Index is a fixed-dimension vector store with exact cosine search.
//
// Records are kept in a doubly linked list ordered by insertion, oldest at the
// front, so both capacity eviction and upsert reordering are O(1). Iteration in
// list order gives searches a deterministic tie-break on insertion time.
type Index struct {
	mu sync.RWMutex

	dimension   int
	maxElements int
	onEvict     func(id string)

	items map[string]*entry

	// head.next is the oldest record, tail.prev the newest.
	head *entry
	tail *entry

	seq       uint64
	version   uint64
	evictions int64
}

// NewIndex creates an empty index. Zero config values fall back to the defaults.
func NewIndex(cfg IndexConfig) *Index {
	if cfg.Dimension <= 0 {
		cfg.Dimension = DefaultDimension
	}
	if cfg.MaxElements <= 0 {
		cfg.MaxElements = DefaultMaxElements
	}

	ix := &Index{
		dimension:   cfg.Dimension,
		maxElements: cfg.MaxElements,
		onEvict:     cfg.OnEvict,
		items:       make(map[string]*entry),
		head:        &entry{},
		tail:        &entry{},
	}
	ix.head.next = ix.tail
	ix.tail.prev = ix.head
	return ix
}

// Dimension returns the vector length accepted by the index.
func (ix *Index) Dimension() int {
	return ix.dimension
}

// Insert stores or replaces a record. Replacing moves the record to the newest
// position. When the index is full the oldest record is evicted.
func (ix *Index) Insert(id string, vector []float32, metadata Metadata) error {
	if id == "" {
		return ErrEmptyID
	}
	if len(vector) != ix.dimension {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vector), ix.dimension)
	}
	if !finite(vector) {
		return fmt.Errorf("%w: record %q", ErrInvalidVector, id)
	}

	vec := slices.Clone(vector)
	md := metadata.Clone()
	n := norm(vec)

	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.seq++
	ix.version++

	if e, ok := ix.items[id]; ok {
		e.record.Vector = vec
		e.record.Metadata = md
		e.record.InsertedAt = ix.seq
		e.norm = n
		ix.unlink(e)
		ix.pushBack(e)
		return nil
	}

	e := &entry{
		record: Record{ID: id, Vector: vec, Metadata: md, InsertedAt: ix.seq},
		norm:   n,
	}
	ix.items[id] = e
	ix.pushBack(e)

	for len(ix.items) > ix.maxElements {
		ix.evictOldest()
	}
	return nil
}

// Remove deletes a record and reports whether it existed.
func (ix *Index) Remove(id string) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	e, ok := ix.items[id]
	if !ok {
		return false
	}
	ix.unlink(e)
	delete(ix.items, id)
	ix.version++
	return true
}

// Contains reports whether id is stored.
func (ix *Index) Contains(id string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	_, ok := ix.items[id]
	return ok
}

// Get returns a copy of the record stored under id.
func (ix *Index) Get(id string) (Record, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	e, ok := ix.items[id]
	if !ok {
		return Record{}, false
	}
	return copyRecord(e.record), true
}

// Len returns the number of stored records.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.items)
}

// Search returns up to topK records ranked by cosine similarity to query.
// Records failing filter are skipped. Equal scores keep insertion order,
// oldest first. A query of the wrong dimension or with non-finite components
// yields no results.
func (ix *Index) Search(query []float32, topK int, filter Filter) []Result {
	if topK <= 0 || len(query) != ix.dimension || !finite(query) {
		return []Result{}
	}
	qn := norm(query)

	ix.mu.RLock()
	results := make([]Result, 0, len(ix.items))
	for e := ix.head.next; e != ix.tail; e = e.next {
		if len(filter) > 0 && !filter.Matches(e.record.Metadata) {
			continue
		}
		results = append(results, Result{
			ID:       e.record.ID,
			Score:    cosineWithNorms(query, qn, e.record.Vector, e.norm),
			Metadata: e.record.Metadata,
		})
	}
	ix.mu.RUnlock()

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return cloneResultMetadata(results)
}

// QueryByFilter returns up to topK records matching filter, in insertion order,
// each scored 1.0. The scan stops once 2*topK matches have been seen.
func (ix *Index) QueryByFilter(topK int, filter Filter) []Result {
	if topK <= 0 {
		return []Result{}
	}
	limit := math.MaxInt
	if topK <= math.MaxInt/2 {
		limit = topK * 2
	}

	ix.mu.RLock()
	results := make([]Result, 0, min(topK, len(ix.items)))
	matched := 0
	for e := ix.head.next; e != ix.tail && matched < limit; e = e.next {
		if !filter.Matches(e.record.Metadata) {
			continue
		}
		matched++
		if len(results) < topK {
			results = append(results, Result{ID: e.record.ID, Score: 1.0, Metadata: e.record.Metadata})
		}
	}
	ix.mu.RUnlock()

	return cloneResultMetadata(results)
}

// Stats returns size information. Memory is estimated as size*dimension*4 bytes.
func (ix *Index) Stats() Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	size := len(ix.items)
	return Stats{
		Size:           size,
		Dimension:      ix.dimension,
		MaxElements:    ix.maxElements,
		MemoryEstimate: int64(size) * int64(ix.dimension) * bytesPerComponent,
		Evictions:      ix.evictions,
	}
}

// Version increases with every mutation. Equal versions imply equal contents.
func (ix *Index) Version() uint64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.version
}

// Snapshot returns every record, oldest first, together with the version
// the copy was taken at.
func (ix *Index) Snapshot() ([]Record, uint64) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	records := make([]Record, 0, len(ix.items))
	for e := ix.head.next; e != ix.tail; e = e.next {
		records = append(records, copyRecord(e.record))
	}
	return records, ix.version
}

// Restore inserts records in their recorded insertion order and returns how
// many were accepted. Records with an empty id, a wrong dimension or
// non-finite components are skipped.
func (ix *Index) Restore(records []Record) int {
	ordered := slices.Clone(records)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].InsertedAt < ordered[j].InsertedAt
	})

	restored := 0
	for i := range ordered {
		if err := ix.Insert(ordered[i].ID, ordered[i].Vector, ordered[i].Metadata); err == nil {
			restored++
		}
	}
	return restored
}

func (ix *Index) pushBack(e *entry) {
	e.prev = ix.tail.prev
	e.next = ix.tail
	ix.tail.prev.next = e
	ix.tail.prev = e
}

func (ix *Index) unlink(e *entry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev = nil
	e.next = nil
}

func (ix *Index) evictOldest() {
	oldest := ix.head.next
	if oldest == ix.tail {
		return
	}
	ix.unlink(oldest)
	delete(ix.items, oldest.record.ID)
	ix.evictions++
	if ix.onEvict != nil {
		ix.onEvict(oldest.record.ID)
	}
}

func copyRecord(r Record) Record {
	return Record{
		ID:         r.ID,
		Vector:     slices.Clone(r.Vector),
		Metadata:   r.Metadata.Clone(),
		InsertedAt: r.InsertedAt,
	}
}

func cloneResultMetadata(results []Result) []Result {
	for i := range results {
		results[i].Metadata = results[i].Metadata.Clone()
	}
	return results
}
