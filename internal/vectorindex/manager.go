// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfwise/internal/metrics"
)

const (
	// DefaultMaxTenants bounds the number of resident tenant indexes.
	DefaultMaxTenants = 50

	// DefaultPersistTimeout bounds a single snapshot load or save.
	DefaultPersistTimeout = 30 * time.Second
)

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	Dimension      int
	MaxElements    int
	MaxTenants     int
	PersistTimeout time.Duration
}

// Item is one record of a batch insert.
type Item struct {
	ID       string    `json:"id" validate:"required,max=256"`
	Vector   []float32 `json:"vector" validate:"required,min=1"`
	Metadata Metadata  `json:"metadata,omitempty"`
}

// TenantStats pairs a tenant id with its index stats.
type TenantStats struct {
	TenantID string `json:"tenant_id"`
	Stats
}

// GlobalStats aggregates every resident tenant.
type GlobalStats struct {
	Tenants      int           `json:"tenants"`
	TotalVectors int           `json:"total_vectors"`
	TotalMemory  int64         `json:"total_memory_bytes"`
	PerTenant    []TenantStats `json:"per_tenant"`
}

// tenant is a registry slot. The index is created eagerly and its snapshot
// is restored once, outside the registry lock.
type tenant struct {
	id    string
	index *Index

	loadOnce sync.Once

	// saveMu serialises saves of this tenant; savedVersion is the index
	// version last written to the store. A cleared tenant is never saved.
	saveMu       sync.Mutex
	savedVersion atomic.Uint64
	cleared      bool
}

// pendingSave marks one background save of an evicted tenant.
type pendingSave struct {
	tenant *tenant
}

func (t *tenant) dirty() bool {
	return t.index.Version() != t.savedVersion.Load()
}

// Manager owns one Index per tenant.
type Manager struct {
	cfg    ManagerConfig
	store  SnapshotStore
	logger zerolog.Logger

	mu      sync.Mutex
	tenants map[string]*tenant
	order   []string // creation order, oldest first
	pending map[string]*pendingSave

	background sync.WaitGroup
}

// NewManager creates a manager. A nil store disables persistence.
func NewManager(cfg ManagerConfig, store SnapshotStore, logger zerolog.Logger) *Manager {
	if cfg.Dimension <= 0 {
		cfg.Dimension = DefaultDimension
	}
	if cfg.MaxElements <= 0 {
		cfg.MaxElements = DefaultMaxElements
	}
	if cfg.MaxTenants <= 0 {
		cfg.MaxTenants = DefaultMaxTenants
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = DefaultPersistTimeout
	}
	if store == nil {
		store = nopStore{}
	}

	return &Manager{
		cfg:     cfg,
		store:   store,
		logger:  logger.With().Str("component", "vectorindex").Logger(),
		tenants: make(map[string]*tenant),
		pending: make(map[string]*pendingSave),
	}
}

// Dimension returns the vector length every tenant index accepts.
func (m *Manager) Dimension() int {
	return m.cfg.Dimension
}

// Index returns the tenant's index, creating it and restoring its snapshot on first use.
func (m *Manager) Index(ctx context.Context, tenantID string) *Index {
	return m.tenant(ctx, tenantID).index
}

func (m *Manager) tenant(ctx context.Context, tenantID string) *tenant {
	m.mu.Lock()
	t, ok := m.tenants[tenantID]
	var evicted *pendingSave
	if !ok {
		// A tenant whose eviction save has not landed yet takes its old slot
		// back; loading the store now would miss the unsaved records.
		if p, saving := m.pending[tenantID]; saving {
			t = p.tenant
		} else {
			t = m.newTenant(tenantID)
		}
		m.tenants[tenantID] = t
		m.order = append(m.order, tenantID)

		if len(m.order) > m.cfg.MaxTenants {
			oldest := m.order[0]
			m.order = m.order[1:]
			evicted = &pendingSave{tenant: m.tenants[oldest]}
			m.pending[oldest] = evicted
			delete(m.tenants, oldest)
		}
		metrics.SetIndexTenants(len(m.tenants))
	}
	m.mu.Unlock()

	if evicted != nil {
		m.evict(evicted)
	}
	m.ensureLoaded(ctx, t)
	return t
}

func (m *Manager) newTenant(tenantID string) *tenant {
	return &tenant{
		id: tenantID,
		index: NewIndex(IndexConfig{
			Dimension:   m.cfg.Dimension,
			MaxElements: m.cfg.MaxElements,
			OnEvict: func(string) {
				metrics.RecordIndexEviction("record")
			},
		}),
	}
}

// ensureLoaded restores the tenant snapshot exactly once. A failed load
// leaves the tenant empty.
func (m *Manager) ensureLoaded(ctx context.Context, t *tenant) {
	t.loadOnce.Do(func() {
		// The caller's cancellation must not turn into an empty tenant that
		// later overwrites a good snapshot.
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.PersistTimeout)
		defer cancel()

		records, err := m.store.LoadSnapshot(loadCtx, t.id)
		metrics.RecordSnapshotOperation("load", err)
		if err != nil {
			m.logger.Error().Err(fmt.Errorf("%w: %w", ErrPersistence, err)).
				Str("tenant", t.id).
				Msg("Failed to load tenant snapshot, starting empty")
			t.savedVersion.Store(t.index.Version())
			return
		}
		if len(records) == 0 {
			return
		}

		restored := t.index.Restore(records)
		t.savedVersion.Store(t.index.Version())
		metrics.SetIndexRecords(t.id, t.index.Len())

		if skipped := len(records) - restored; skipped > 0 {
			m.logger.Warn().Str("tenant", t.id).Int("records", restored).Int("skipped", skipped).
				Msg("Restored tenant snapshot with invalid records")
			return
		}
		m.logger.Info().Str("tenant", t.id).Int("records", restored).Msg("Restored tenant snapshot")
	})
}

// evict drops a tenant that no longer fits. Unsaved changes are written in
// the background; callers still holding the index keep a consistent view.
func (m *Manager) evict(p *pendingSave) {
	t := p.tenant
	metrics.RecordIndexEviction("tenant")
	metrics.ForgetTenant(t.id)
	m.logger.Info().Str("tenant", t.id).Msg("Evicted tenant index")

	m.background.Add(1)
	go func() {
		defer m.background.Done()
		defer m.finishEviction(p)

		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.PersistTimeout)
		defer cancel()

		m.ensureLoaded(ctx, t)
		if err := m.save(ctx, t); err != nil {
			m.logger.Error().Err(err).Str("tenant", t.id).Msg("Failed to save evicted tenant")
		}
	}()
}

func (m *Manager) finishEviction(p *pendingSave) {
	m.mu.Lock()
	if m.pending[p.tenant.id] == p {
		delete(m.pending, p.tenant.id)
	}
	m.mu.Unlock()
}

// Add inserts or replaces a single record.
func (m *Manager) Add(ctx context.Context, tenantID string, item Item) error {
	t := m.tenant(ctx, tenantID)
	if err := t.index.Insert(item.ID, item.Vector, item.Metadata); err != nil {
		return fmt.Errorf("tenant %s: add %q: %w", tenantID, item.ID, err)
	}
	metrics.SetIndexRecords(tenantID, t.index.Len())
	return nil
}

// AddBatch inserts items and returns how many were stored. Items that fail
// validation are logged and skipped.
func (m *Manager) AddBatch(ctx context.Context, tenantID string, items []Item) int {
	t := m.tenant(ctx, tenantID)

	added := 0
	for i := range items {
		if err := t.index.Insert(items[i].ID, items[i].Vector, items[i].Metadata); err != nil {
			m.logger.Warn().Err(err).
				Str("tenant", tenantID).
				Str("id", items[i].ID).
				Msg("Skipping catalog item")
			continue
		}
		added++
	}
	metrics.SetIndexRecords(tenantID, t.index.Len())
	return added
}

// Remove deletes a record and reports whether it existed.
func (m *Manager) Remove(ctx context.Context, tenantID, id string) bool {
	t := m.tenant(ctx, tenantID)
	if !t.index.Remove(id) {
		m.logger.Warn().Err(ErrUnknownRecord).Str("tenant", tenantID).Str("id", id).Msg("Remove ignored")
		return false
	}
	metrics.SetIndexRecords(tenantID, t.index.Len())
	return true
}

// Get returns a copy of a stored record.
func (m *Manager) Get(ctx context.Context, tenantID, id string) (Record, bool) {
	return m.tenant(ctx, tenantID).index.Get(id)
}

// Search ranks the tenant's records by cosine similarity to query.
func (m *Manager) Search(ctx context.Context, tenantID string, query []float32, topK int, filter Filter) []Result {
	start := time.Now()
	defer func() { metrics.RecordIndexOperation("search", time.Since(start)) }()

	t := m.tenant(ctx, tenantID)
	if len(query) != t.index.Dimension() {
		m.logger.Debug().Str("tenant", tenantID).
			Int("got", len(query)).Int("want", t.index.Dimension()).
			Msg("Query dimension mismatch")
		return []Result{}
	}
	return t.index.Search(query, topK, filter)
}

// QueryByFilter returns records matching filter with a constant score of 1.0.
func (m *Manager) QueryByFilter(ctx context.Context, tenantID string, topK int, filter Filter) []Result {
	start := time.Now()
	defer func() { metrics.RecordIndexOperation("filter", time.Since(start)) }()

	return m.tenant(ctx, tenantID).index.QueryByFilter(topK, filter)
}

// FindSimilar returns the records closest to sourceID, excluding the source.
// An unknown source yields no results.
func (m *Manager) FindSimilar(ctx context.Context, tenantID, sourceID string, topK int, filter Filter) []Result {
	start := time.Now()
	defer func() { metrics.RecordIndexOperation("similar", time.Since(start)) }()

	if topK <= 0 {
		return []Result{}
	}

	t := m.tenant(ctx, tenantID)
	source, ok := t.index.Get(sourceID)
	if !ok {
		m.logger.Warn().Err(ErrUnknownRecord).
			Str("tenant", tenantID).
			Str("product_id", sourceID).
			Msg("Similarity source not found")
		return []Result{}
	}

	searchK := topK
	if searchK < math.MaxInt {
		searchK++ // the source matches itself
	}
	results := t.index.Search(source.Vector, searchK, filter)
	out := results[:0]
	for _, r := range results {
		if r.ID != sourceID {
			out = append(out, r)
		}
	}
	if len(out) > topK {
		out = out[:topK]
	}
	return out
}

// Stats returns size information for one tenant.
func (m *Manager) Stats(ctx context.Context, tenantID string) Stats {
	return m.tenant(ctx, tenantID).index.Stats()
}

// GlobalStats aggregates the resident tenants without creating any.
func (m *Manager) GlobalStats() GlobalStats {
	resident := m.resident()

	gs := GlobalStats{Tenants: len(resident), PerTenant: make([]TenantStats, 0, len(resident))}
	for _, t := range resident {
		s := t.index.Stats()
		gs.TotalVectors += s.Size
		gs.TotalMemory += s.MemoryEstimate
		gs.PerTenant = append(gs.PerTenant, TenantStats{TenantID: t.id, Stats: s})
	}
	sort.Slice(gs.PerTenant, func(i, j int) bool {
		return gs.PerTenant[i].TenantID < gs.PerTenant[j].TenantID
	})
	return gs
}

// Tenants lists resident tenant ids in creation order.
func (m *Manager) Tenants() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.order)
}

// Clear drops a tenant from memory and deletes its snapshot. Saves still in
// flight for the tenant finish before the delete; later ones are skipped.
func (m *Manager) Clear(ctx context.Context, tenantID string) error {
	var slots []*tenant
	m.mu.Lock()
	if t, ok := m.tenants[tenantID]; ok {
		slots = append(slots, t)
		delete(m.tenants, tenantID)
		m.order = slices.DeleteFunc(m.order, func(id string) bool { return id == tenantID })
	}
	if p, ok := m.pending[tenantID]; ok {
		slots = append(slots, p.tenant)
		delete(m.pending, tenantID)
	}
	metrics.SetIndexTenants(len(m.tenants))
	m.mu.Unlock()

	for _, t := range slots {
		t.saveMu.Lock()
		t.cleared = true
		t.saveMu.Unlock()
	}
	metrics.ForgetTenant(tenantID)

	err := m.store.DeleteSnapshot(ctx, tenantID)
	metrics.RecordSnapshotOperation("delete", err)
	if err != nil {
		return fmt.Errorf("%w: delete tenant %s: %w", ErrPersistence, tenantID, err)
	}
	m.logger.Info().Str("tenant", tenantID).Msg("Cleared tenant index")
	return nil
}

// FlushTenant saves one tenant if it changed since its last save.
func (m *Manager) FlushTenant(ctx context.Context, tenantID string) error {
	m.mu.Lock()
	t, ok := m.tenants[tenantID]
	m.mu.Unlock()
	if !ok {
		return nil
	}
	return m.save(ctx, t)
}

// Flush saves every resident tenant that changed since its last save.
func (m *Manager) Flush(ctx context.Context) error {
	var errs []error
	for _, t := range m.resident() {
		if err := m.save(ctx, t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close flushes all tenants and waits for background eviction saves.
func (m *Manager) Close(ctx context.Context) error {
	err := m.Flush(ctx)

	done := make(chan struct{})
	go func() {
		m.background.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		err = errors.Join(err, ctx.Err())
	}
	return err
}

func (m *Manager) save(ctx context.Context, t *tenant) error {
	t.saveMu.Lock()
	defer t.saveMu.Unlock()

	if t.cleared || !t.dirty() {
		return nil
	}

	records, version := t.index.Snapshot()

	saveCtx, cancel := context.WithTimeout(ctx, m.cfg.PersistTimeout)
	defer cancel()

	err := m.store.SaveSnapshot(saveCtx, t.id, records)
	metrics.RecordSnapshotOperation("save", err)
	if err != nil {
		return fmt.Errorf("%w: tenant %s: %w", ErrPersistence, t.id, err)
	}
	t.savedVersion.Store(version)

	m.logger.Debug().Str("tenant", t.id).Int("records", len(records)).Msg("Saved tenant snapshot")
	return nil
}

func (m *Manager) resident() []*tenant {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*tenant, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.tenants[id])
	}
	return out
}
