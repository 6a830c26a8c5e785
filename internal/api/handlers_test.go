// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfwise/internal/auth"
	"github.com/tomtom215/shelfwise/internal/authz"
	"github.com/tomtom215/shelfwise/internal/config"
	"github.com/tomtom215/shelfwise/internal/eventprocessor"
	"github.com/tomtom215/shelfwise/internal/recommend"
	"github.com/tomtom215/shelfwise/internal/recommend/rules"
	"github.com/tomtom215/shelfwise/internal/vectorindex"
)

const testTenant = "shop-a"

// fakeOrderStore is an in-memory OrderStore.
type fakeOrderStore struct {
	mu        sync.Mutex
	orders    map[string][]rules.Order
	pingErr   error
	recordErr error

	loadCalls int
	loadLimit int
	loadSince time.Time
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: make(map[string][]rules.Order)}
}

func (f *fakeOrderStore) RecordOrders(_ context.Context, tenantID string, orders []rules.Order) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordErr != nil {
		return 0, f.recordErr
	}
	f.orders[tenantID] = append(f.orders[tenantID], orders...)
	return len(orders), nil
}

func (f *fakeOrderStore) LoadOrders(_ context.Context, tenantID string, since time.Time, limit int) ([]rules.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadCalls++
	f.loadSince = since
	f.loadLimit = limit
	out := f.orders[tenantID]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeOrderStore) OrderCount(_ context.Context, tenantID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.orders[tenantID])), nil
}

func (f *fakeOrderStore) Ping(context.Context) error {
	return f.pingErr
}

// fakePublisher records published events.
type fakePublisher struct {
	mu      sync.Mutex
	err     error
	catalog []*eventprocessor.CatalogEvent
	orders  []*eventprocessor.OrderEvent
	topics  []string
}

func (f *fakePublisher) PublishCatalog(_ context.Context, topic string, event *eventprocessor.CatalogEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.catalog = append(f.catalog, event)
	f.topics = append(f.topics, topic)
	return nil
}

func (f *fakePublisher) PublishOrders(_ context.Context, topic string, event *eventprocessor.OrderEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.orders = append(f.orders, event)
	f.topics = append(f.topics, topic)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Timeout: 5 * time.Second},
		API: config.APIConfig{
			MaxTopK:      20,
			MaxBatchSize: 3,
			MaxBodyBytes: 1 << 20,
		},
		Rules:     rules.DefaultOptions(),
		Recommend: *recommend.DefaultConfig(),
		NATS: config.NATSConfig{
			CatalogTopic: "shelfwise.catalog",
			OrdersTopic:  "shelfwise.orders",
		},
		Security: config.SecurityConfig{
			AuthMode:          auth.ModeNone,
			JWTIssuer:         "shelfwise",
			RateLimitDisabled: true,
			CORSOrigins:       []string{"*"},
		},
	}
}

type testEnv struct {
	cfg       *config.Config
	handler   *Handler
	manager   *vectorindex.Manager
	orders    *fakeOrderStore
	publisher *fakePublisher
	jwt       *auth.JWTManager
	server    http.Handler
}

type envOption func(*testEnv)

func withoutOrderStore() envOption {
	return func(e *testEnv) { e.orders = nil }
}

func withPublisher() envOption {
	return func(e *testEnv) { e.publisher = &fakePublisher{} }
}

func withConfig(mutate func(*config.Config)) envOption {
	return func(e *testEnv) { mutate(e.cfg) }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	env := &testEnv{cfg: testConfig(), orders: newFakeOrderStore()}
	for _, opt := range opts {
		opt(env)
	}

	env.manager = vectorindex.NewManager(vectorindex.ManagerConfig{Dimension: 3}, nil, zerolog.Nop())
	miner := rules.NewMiner(nil, zerolog.Nop())
	engine, err := recommend.NewEngine(&env.cfg.Recommend, env.manager, miner, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	var orders OrderStore
	if env.orders != nil {
		orders = env.orders
	}
	env.handler = NewHandler(env.cfg, env.manager, engine, orders)
	if env.publisher != nil {
		env.handler.SetEventPublisher(env.publisher)
	}

	if env.cfg.Security.AuthMode == auth.ModeJWT {
		env.jwt, err = auth.NewJWTManager(&env.cfg.Security)
		if err != nil {
			t.Fatalf("NewJWTManager() error = %v", err)
		}
	}
	enforcer, err := authz.NewEnforcer(nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}

	router := NewRouter(
		env.handler,
		auth.NewMiddleware(env.jwt, env.cfg.Security.AuthMode, zerolog.Nop()),
		authz.NewMiddleware(enforcer),
		NewChiMiddleware(ChiMiddlewareConfigFromSecurity(&env.cfg.Security)),
	)
	env.server = router.Setup()
	return env
}

// do sends a request and decodes the response envelope.
func (e *testEnv) do(t *testing.T, method, path string, body interface{}, headers ...string) (*httptest.ResponseRecorder, apiEnvelope) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)

	var env apiEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: response is not JSON: %v (%s)", method, path, err, rec.Body.String())
	}
	return rec, env
}

type apiEnvelope struct {
	Status   string          `json:"status"`
	Data     json.RawMessage `json:"data"`
	Metadata Metadata        `json:"metadata"`
	Error    *APIError       `json:"error"`
}

func (a *apiEnvelope) decode(t *testing.T, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(a.Data, dst); err != nil {
		t.Fatalf("decode data %s: %v", a.Data, err)
	}
}

func tenantPath(format string, args ...interface{}) string {
	return "/api/v1/tenants/" + testTenant + fmt.Sprintf(format, args...)
}

func catalogItems() []vectorindex.Item {
	return []vectorindex.Item{
		{ID: "shoe-1", Vector: []float32{1, 0, 0}, Metadata: vectorindex.Metadata{"category": "shoes", "price": 50.0}},
		{ID: "shoe-2", Vector: []float32{0.9, 0.1, 0}, Metadata: vectorindex.Metadata{"category": "shoes", "price": 120.0}},
		{ID: "bag-1", Vector: []float32{0, 1, 0}, Metadata: vectorindex.Metadata{"category": "bags", "price": 80.0}},
	}
}

func seedCatalog(t *testing.T, e *testEnv) {
	t.Helper()
	if added := e.manager.AddBatch(context.Background(), testTenant, catalogItems()); added != 3 {
		t.Fatalf("AddBatch() = %d, want 3", added)
	}
}

func pairOrders(n int) []rules.Order {
	orders := make([]rules.Order, n)
	for i := range orders {
		orders[i] = rules.Order{
			ID:     fmt.Sprintf("o-%d", i),
			Status: "completed",
			Items: []rules.OrderItem{
				{ProductID: "shoe-1", Category: "shoes"},
				{ProductID: "bag-1", Category: "bags"},
			},
		}
	}
	return orders
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, env apiEnvelope, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Errorf("status = %d, want %d (%s)", rec.Code, status, rec.Body.String())
	}
	if env.Status != "error" {
		t.Errorf("envelope status = %q, want error", env.Status)
	}
	if env.Error == nil {
		t.Fatalf("error payload missing: %s", rec.Body.String())
	}
	if env.Error.Code != code {
		t.Errorf("error code = %q, want %q", env.Error.Code, code)
	}
}

func TestHealth(t *testing.T) {
	t.Run("live", func(t *testing.T) {
		e := newTestEnv(t)
		rec, env := e.do(t, http.MethodGet, "/api/v1/health/live", nil)
		if rec.Code != http.StatusOK || env.Status != "success" {
			t.Fatalf("live = %d %q", rec.Code, env.Status)
		}
		if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Error("security headers missing")
		}
	})

	t.Run("ready", func(t *testing.T) {
		e := newTestEnv(t)
		e.handler.AddReadinessCheck("event_bus", func(context.Context) error { return nil })

		rec, env := e.do(t, http.MethodGet, "/api/v1/health/ready", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("ready = %d, want 200", rec.Code)
		}
		var data struct {
			Ready      bool              `json:"ready"`
			Components map[string]string `json:"components"`
		}
		env.decode(t, &data)
		if !data.Ready || data.Components["database"] != "ok" || data.Components["event_bus"] != "ok" {
			t.Errorf("ready data = %+v", data)
		}
	})

	t.Run("not ready", func(t *testing.T) {
		e := newTestEnv(t)
		e.orders.pingErr = errors.New("database locked")

		rec, env := e.do(t, http.MethodGet, "/api/v1/health/ready", nil)
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("ready = %d, want 503", rec.Code)
		}
		if env.Status != "not_ready" {
			t.Errorf("envelope status = %q, want not_ready", env.Status)
		}
		var data struct {
			Components map[string]string `json:"components"`
		}
		env.decode(t, &data)
		if data.Components["database"] != "database locked" {
			t.Errorf("database component = %q", data.Components["database"])
		}
	})
}

func TestCatalogItems(t *testing.T) {
	e := newTestEnv(t)

	items := []vectorindex.Item{
		{ID: "shoe-1", Vector: []float32{1, 0, 0}},
		{ID: "bag-1", Vector: []float32{0, 1, 0}},
		{ID: "short", Vector: []float32{1, 0}},
	}
	rec, env := e.do(t, http.MethodPost, tenantPath("/catalog/items"), AddItemsRequest{Items: items})
	if rec.Code != http.StatusOK {
		t.Fatalf("add items = %d: %s", rec.Code, rec.Body.String())
	}
	var added map[string]int
	env.decode(t, &added)
	if added["received"] != 3 || added["added"] != 2 || added["skipped"] != 1 {
		t.Errorf("add items = %v, want received 3 added 2 skipped 1", added)
	}
	if env.Metadata.RequestID == "" || rec.Header().Get("X-Request-ID") != env.Metadata.RequestID {
		t.Errorf("request id %q not echoed in header %q", env.Metadata.RequestID, rec.Header().Get("X-Request-ID"))
	}

	rec, env = e.do(t, http.MethodGet, tenantPath("/catalog/items/shoe-1"), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get item = %d", rec.Code)
	}
	var record vectorindex.Record
	env.decode(t, &record)
	if record.ID != "shoe-1" || len(record.Vector) != 3 {
		t.Errorf("get item = %+v", record)
	}

	rec, env = e.do(t, http.MethodGet, tenantPath("/catalog/items/short"), nil)
	assertError(t, rec, env, http.StatusNotFound, ErrCodeNotFound)

	rec, _ = e.do(t, http.MethodDelete, tenantPath("/catalog/items/shoe-1"), nil)
	if rec.Code != http.StatusOK {
		t.Errorf("delete item = %d, want 200", rec.Code)
	}
	rec, env = e.do(t, http.MethodDelete, tenantPath("/catalog/items/shoe-1"), nil)
	assertError(t, rec, env, http.StatusNotFound, ErrCodeNotFound)

	rec, env = e.do(t, http.MethodPost, tenantPath("/catalog/items/delete"), DeleteItemsRequest{IDs: []string{"bag-1", "missing"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("delete items = %d", rec.Code)
	}
	var removed map[string]int
	env.decode(t, &removed)
	if removed["requested"] != 2 || removed["removed"] != 1 {
		t.Errorf("delete items = %v", removed)
	}

	if _, ok := e.manager.Get(context.Background(), "shop-b", "bag-1"); ok {
		t.Error("items leaked into another tenant")
	}
}

func TestCatalogItems_BadRequests(t *testing.T) {
	tooMany := make([]vectorindex.Item, 4)
	for i := range tooMany {
		tooMany[i] = vectorindex.Item{ID: fmt.Sprintf("p%d", i), Vector: []float32{1, 0, 0}}
	}

	tests := []struct {
		name   string
		body   interface{}
		status int
		code   string
	}{
		{"empty body", nil, http.StatusBadRequest, ErrCodeBadRequest},
		{"malformed JSON", `{"items": [`, http.StatusBadRequest, ErrCodeBadRequest},
		{"no items", AddItemsRequest{}, http.StatusBadRequest, ErrCodeValidation},
		{"item without id", `{"items":[{"vector":[1,0,0]}]}`, http.StatusBadRequest, ErrCodeValidation},
		{"batch too large", AddItemsRequest{Items: tooMany}, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge},
	}

	e := newTestEnv(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := e.do(t, http.MethodPost, tenantPath("/catalog/items"), tt.body)
			assertError(t, rec, env, tt.status, tt.code)
		})
	}

	t.Run("body over limit", func(t *testing.T) {
		small := newTestEnv(t, withConfig(func(c *config.Config) { c.API.MaxBodyBytes = 64 }))
		body := AddItemsRequest{Items: []vectorindex.Item{{ID: strings.Repeat("x", 128), Vector: []float32{1, 0, 0}}}}
		rec, env := small.do(t, http.MethodPost, tenantPath("/catalog/items"), body)
		assertError(t, rec, env, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge)
	})
}

func TestInvalidTenant(t *testing.T) {
	e := newTestEnv(t)
	rec, env := e.do(t, http.MethodGet, "/api/v1/tenants/-bad/catalog/stats", nil)
	assertError(t, rec, env, http.StatusBadRequest, ErrCodeValidation)
}

func TestSearchAndQuery(t *testing.T) {
	e := newTestEnv(t)
	seedCatalog(t, e)

	type resultList struct {
		Results []vectorindex.Result `json:"results"`
		Count   int                  `json:"count"`
	}

	t.Run("search", func(t *testing.T) {
		rec, env := e.do(t, http.MethodPost, tenantPath("/catalog/search"), SearchRequest{Vector: []float32{1, 0, 0}, TopK: 2})
		if rec.Code != http.StatusOK {
			t.Fatalf("search = %d: %s", rec.Code, rec.Body.String())
		}
		var got resultList
		env.decode(t, &got)
		if got.Count != 2 || got.Results[0].ID != "shoe-1" || got.Results[1].ID != "shoe-2" {
			t.Errorf("search = %+v", got)
		}
	})

	t.Run("search with filter", func(t *testing.T) {
		req := SearchRequest{Vector: []float32{1, 0, 0}, Filter: vectorindex.Filter{"category": "bags"}}
		_, env := e.do(t, http.MethodPost, tenantPath("/catalog/search"), req)
		var got resultList
		env.decode(t, &got)
		if got.Count != 1 || got.Results[0].ID != "bag-1" {
			t.Errorf("filtered search = %+v", got)
		}
	})

	t.Run("search requires a vector", func(t *testing.T) {
		rec, env := e.do(t, http.MethodPost, tenantPath("/catalog/search"), `{"top_k": 3}`)
		assertError(t, rec, env, http.StatusBadRequest, ErrCodeValidation)
	})

	t.Run("query by price", func(t *testing.T) {
		req := QueryRequest{Filter: vectorindex.Filter{"price": map[string]any{vectorindex.OpGTE: 75.0}}}
		_, env := e.do(t, http.MethodPost, tenantPath("/catalog/query"), req)
		var got resultList
		env.decode(t, &got)
		if got.Count != 2 {
			t.Errorf("query count = %d, want 2 (%+v)", got.Count, got.Results)
		}
	})

	t.Run("stats", func(t *testing.T) {
		_, env := e.do(t, http.MethodGet, tenantPath("/catalog/stats"), nil)
		var stats recommend.TenantStats
		env.decode(t, &stats)
		if stats.Index.Size != 3 || stats.Index.Dimension != 3 {
			t.Errorf("stats = %+v", stats.Index)
		}
	})

	t.Run("flush", func(t *testing.T) {
		rec, env := e.do(t, http.MethodPost, tenantPath("/catalog/flush"), nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("flush = %d", rec.Code)
		}
		var got map[string]bool
		env.decode(t, &got)
		if !got["flushed"] {
			t.Errorf("flush = %v", got)
		}
	})

	t.Run("clear", func(t *testing.T) {
		rec, _ := e.do(t, http.MethodDelete, tenantPath("/catalog/"), nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("clear = %d", rec.Code)
		}
		if st := e.manager.Stats(context.Background(), testTenant); st.Size != 0 {
			t.Errorf("size after clear = %d", st.Size)
		}
	})
}

func TestIngestProducts(t *testing.T) {
	products := []recommend.Product{
		{ID: "p1", Title: "Runner", Category: "shoes", Vector: []float32{1, 0, 0}},
		{SKU: "sku-2", Title: "Tote", Category: "bags", Vector: []float32{0, 1, 0}},
	}

	t.Run("synchronous", func(t *testing.T) {
		e := newTestEnv(t)
		rec, env := e.do(t, http.MethodPost, tenantPath("/catalog/products"), IngestProductsRequest{Products: products})
		if rec.Code != http.StatusOK {
			t.Fatalf("ingest = %d: %s", rec.Code, rec.Body.String())
		}
		var res recommend.CatalogResult
		env.decode(t, &res)
		if res.Received != 2 || res.Indexed != 2 {
			t.Errorf("ingest = %+v", res)
		}
		if _, ok := e.manager.Get(context.Background(), testTenant, "sku-2"); !ok {
			t.Error("sku-2 not indexed")
		}
	})

	t.Run("async without event bus", func(t *testing.T) {
		e := newTestEnv(t)
		rec, env := e.do(t, http.MethodPost, tenantPath("/catalog/products"), IngestProductsRequest{Products: products, Async: true})
		assertError(t, rec, env, http.StatusServiceUnavailable, ErrCodeServiceUnavailable)
	})

	t.Run("async", func(t *testing.T) {
		e := newTestEnv(t, withPublisher())
		rec, env := e.do(t, http.MethodPost, tenantPath("/catalog/products"), IngestProductsRequest{Products: products, Async: true})
		if rec.Code != http.StatusAccepted {
			t.Fatalf("async ingest = %d: %s", rec.Code, rec.Body.String())
		}
		var data struct {
			EventID string `json:"event_id"`
			Queued  int    `json:"queued"`
		}
		env.decode(t, &data)

		if len(e.publisher.catalog) != 1 {
			t.Fatalf("published %d catalog events, want 1", len(e.publisher.catalog))
		}
		event := e.publisher.catalog[0]
		if event.EventID != data.EventID || data.Queued != 2 {
			t.Errorf("response %+v does not match event %s", data, event.EventID)
		}
		if event.TenantID != testTenant || event.Action != eventprocessor.ActionUpsert || len(event.Products) != 2 {
			t.Errorf("event = %+v", event)
		}
		if e.publisher.topics[0] != "shelfwise.catalog" {
			t.Errorf("topic = %s", e.publisher.topics[0])
		}
		if st := e.manager.Stats(context.Background(), testTenant); st.Size != 0 {
			t.Errorf("async ingest indexed %d items synchronously", st.Size)
		}
	})

	t.Run("publish failure", func(t *testing.T) {
		e := newTestEnv(t, withPublisher())
		e.publisher.err = errors.New("stream unavailable")
		rec, env := e.do(t, http.MethodPost, tenantPath("/catalog/items/delete"), DeleteItemsRequest{IDs: []string{"p1"}, Async: true})
		assertError(t, rec, env, http.StatusServiceUnavailable, ErrCodeEventPublish)
	})
}

func TestRecordOrders(t *testing.T) {
	orders := pairOrders(2)

	t.Run("stored", func(t *testing.T) {
		e := newTestEnv(t)
		rec, env := e.do(t, http.MethodPost, tenantPath("/orders"), RecordOrdersRequest{Orders: orders})
		if rec.Code != http.StatusOK {
			t.Fatalf("record = %d: %s", rec.Code, rec.Body.String())
		}
		var data map[string]int
		env.decode(t, &data)
		if data["stored"] != 2 || len(e.orders.orders[testTenant]) != 2 {
			t.Errorf("record = %v", data)
		}
	})

	t.Run("database failure", func(t *testing.T) {
		e := newTestEnv(t)
		e.orders.recordErr = errors.New("disk full")
		rec, env := e.do(t, http.MethodPost, tenantPath("/orders"), RecordOrdersRequest{Orders: orders})
		assertError(t, rec, env, http.StatusInternalServerError, ErrCodeDatabase)
		if strings.Contains(rec.Body.String(), "disk full") {
			t.Error("internal error leaked to client")
		}
	})

	t.Run("no order history", func(t *testing.T) {
		e := newTestEnv(t, withoutOrderStore())
		rec, env := e.do(t, http.MethodPost, tenantPath("/orders"), RecordOrdersRequest{Orders: orders})
		assertError(t, rec, env, http.StatusServiceUnavailable, ErrCodeServiceUnavailable)
	})

	t.Run("async", func(t *testing.T) {
		e := newTestEnv(t, withPublisher())
		rec, _ := e.do(t, http.MethodPost, tenantPath("/orders"), RecordOrdersRequest{Orders: orders, Async: true})
		if rec.Code != http.StatusAccepted {
			t.Fatalf("async record = %d", rec.Code)
		}
		if len(e.publisher.orders) != 1 || len(e.publisher.orders[0].Orders) != 2 {
			t.Fatalf("published order events = %+v", e.publisher.orders)
		}
		if e.publisher.topics[0] != "shelfwise.orders" {
			t.Errorf("topic = %s", e.publisher.topics[0])
		}
		if len(e.orders.orders[testTenant]) != 0 {
			t.Error("async orders stored synchronously")
		}
	})
}

type learnResponse struct {
	rules.LearnResult
	Orders int    `json:"orders"`
	Source string `json:"source"`
}

func TestLearnRules(t *testing.T) {
	t.Run("orders in body", func(t *testing.T) {
		e := newTestEnv(t)
		rec, env := e.do(t, http.MethodPost, tenantPath("/orders/learn"), LearnRequest{Orders: pairOrders(12)})
		if rec.Code != http.StatusOK {
			t.Fatalf("learn = %d: %s", rec.Code, rec.Body.String())
		}
		var got learnResponse
		env.decode(t, &got)
		if got.Source != "request" || got.Orders != 12 || got.Learned == 0 {
			t.Errorf("learn = %+v", got)
		}
		if e.orders.loadCalls != 0 {
			t.Error("history loaded although orders were sent")
		}
	})

	t.Run("stored history", func(t *testing.T) {
		e := newTestEnv(t, withConfig(func(c *config.Config) {
			c.Learn.Lookback = 24 * time.Hour
			c.Learn.MaxOrders = 100
		}))
		e.orders.orders[testTenant] = pairOrders(15)

		rec, env := e.do(t, http.MethodPost, tenantPath("/orders/learn"), nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("learn = %d: %s", rec.Code, rec.Body.String())
		}
		var got learnResponse
		env.decode(t, &got)
		if got.Source != "history" || got.Orders != 15 || got.Learned == 0 {
			t.Errorf("learn = %+v", got)
		}
		if e.orders.loadLimit != 100 {
			t.Errorf("load limit = %d, want 100", e.orders.loadLimit)
		}
		if since := time.Since(e.orders.loadSince); since < 23*time.Hour || since > 25*time.Hour {
			t.Errorf("load since = %v ago, want about 24h", since)
		}
	})

	t.Run("request overrides history window", func(t *testing.T) {
		e := newTestEnv(t)
		e.orders.orders[testTenant] = pairOrders(15)
		since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

		rec, _ := e.do(t, http.MethodPost, tenantPath("/orders/learn"), LearnRequest{Since: &since, Limit: 12})
		if rec.Code != http.StatusOK {
			t.Fatalf("learn = %d: %s", rec.Code, rec.Body.String())
		}
		if e.orders.loadLimit != 12 || !e.orders.loadSince.Equal(since) {
			t.Errorf("load window = %v/%d", e.orders.loadSince, e.orders.loadLimit)
		}
	})

	t.Run("insufficient signal", func(t *testing.T) {
		e := newTestEnv(t)
		_, env := e.do(t, http.MethodPost, tenantPath("/orders/learn"), LearnRequest{Orders: pairOrders(3)})
		var got learnResponse
		env.decode(t, &got)
		if !got.InsufficientSignal || got.Learned != 0 {
			t.Errorf("learn = %+v, want insufficient signal", got)
		}
	})

	t.Run("no orders and no history", func(t *testing.T) {
		e := newTestEnv(t, withoutOrderStore())
		rec, env := e.do(t, http.MethodPost, tenantPath("/orders/learn"), nil)
		assertError(t, rec, env, http.StatusBadRequest, ErrCodeValidation)
	})
}

func TestRecommendations(t *testing.T) {
	e := newTestEnv(t)
	seedCatalog(t, e)
	e.orders.orders[testTenant] = pairOrders(12)
	if rec, _ := e.do(t, http.MethodPost, tenantPath("/orders/learn"), LearnRequest{Orders: pairOrders(12)}); rec.Code != http.StatusOK {
		t.Fatalf("learn = %d", rec.Code)
	}

	decodeList := func(t *testing.T, env apiEnvelope) recommendationList {
		t.Helper()
		var list recommendationList
		env.decode(t, &list)
		if list.Count != len(list.Recommendations) {
			t.Errorf("count %d != %d recommendations", list.Count, len(list.Recommendations))
		}
		return list
	}

	t.Run("similar", func(t *testing.T) {
		rec, env := e.do(t, http.MethodGet, tenantPath("/products/shoe-1/similar?top_k=1"), nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("similar = %d: %s", rec.Code, rec.Body.String())
		}
		list := decodeList(t, env)
		if list.ProductID != "shoe-1" || list.Count != 1 || list.Recommendations[0].ProductID != "shoe-2" {
			t.Errorf("similar = %+v", list)
		}
	})

	t.Run("similar with filter", func(t *testing.T) {
		_, env := e.do(t, http.MethodGet, tenantPath("/products/shoe-1/similar?category=bags"), nil)
		list := decodeList(t, env)
		if list.Count != 1 || list.Recommendations[0].ProductID != "bag-1" {
			t.Errorf("filtered similar = %+v", list)
		}
	})

	t.Run("similar for unknown product", func(t *testing.T) {
		rec, env := e.do(t, http.MethodGet, tenantPath("/products/nope/similar"), nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("similar = %d", rec.Code)
		}
		if list := decodeList(t, env); list.Recommendations == nil || list.Count != 0 {
			t.Errorf("similar = %+v, want empty list", list)
		}
	})

	t.Run("bad top_k", func(t *testing.T) {
		rec, env := e.do(t, http.MethodGet, tenantPath("/products/shoe-1/similar?top_k=abc"), nil)
		assertError(t, rec, env, http.StatusBadRequest, ErrCodeValidation)
	})

	t.Run("bad filter", func(t *testing.T) {
		rec, env := e.do(t, http.MethodGet, tenantPath("/products/shoe-1/similar?in_stock=maybe"), nil)
		assertError(t, rec, env, http.StatusBadRequest, ErrCodeValidation)
	})

	t.Run("bought together", func(t *testing.T) {
		_, env := e.do(t, http.MethodGet, tenantPath("/products/shoe-1/bought-together"), nil)
		list := decodeList(t, env)
		if list.Count != 1 || list.Recommendations[0].ProductID != "bag-1" {
			t.Errorf("bought together = %+v", list)
		}
		if list.Recommendations[0].Reason != recommend.ReasonBoughtTogether {
			t.Errorf("reason = %s", list.Recommendations[0].Reason)
		}
	})

	t.Run("cart", func(t *testing.T) {
		_, env := e.do(t, http.MethodPost, tenantPath("/recommendations/cart"), CartRequest{ProductIDs: []string{"shoe-1"}})
		list := decodeList(t, env)
		for _, c := range list.Recommendations {
			if c.ProductID == "shoe-1" {
				t.Error("cart recommendations contain a cart item")
			}
		}
		if list.Count == 0 {
			t.Error("cart recommendations empty")
		}
	})

	t.Run("cart requires products", func(t *testing.T) {
		rec, env := e.do(t, http.MethodPost, tenantPath("/recommendations/cart"), CartRequest{})
		assertError(t, rec, env, http.StatusBadRequest, ErrCodeValidation)
	})

	t.Run("rules summary", func(t *testing.T) {
		_, env := e.do(t, http.MethodGet, tenantPath("/rules"), nil)
		var summary struct {
			Products     int          `json:"products"`
			Stats        *rules.Stats `json:"stats"`
			LastUpdated  *time.Time   `json:"last_updated"`
			StoredOrders int64        `json:"stored_orders"`
		}
		env.decode(t, &summary)
		if summary.Products == 0 || summary.Stats == nil || summary.LastUpdated == nil {
			t.Errorf("rules summary = %+v", summary)
		}
		if summary.StoredOrders != 12 {
			t.Errorf("stored_orders = %d, want 12", summary.StoredOrders)
		}
	})
}

func TestPersonalized(t *testing.T) {
	e := newTestEnv(t)
	seedCatalog(t, e)

	t.Run("requires user id", func(t *testing.T) {
		rec, env := e.do(t, http.MethodPost, tenantPath("/recommendations/personalized"), `{"profile":{}}`)
		assertError(t, rec, env, http.StatusBadRequest, ErrCodeValidation)
	})

	t.Run("echoes user", func(t *testing.T) {
		req := recommend.PersonalizedRequest{
			UserID:         "u-1",
			RecentlyViewed: []string{"shoe-1"},
			Profile:        recommend.Profile{LTVTier: "gold"},
		}
		rec, env := e.do(t, http.MethodPost, tenantPath("/recommendations/personalized"), req)
		if rec.Code != http.StatusOK {
			t.Fatalf("personalized = %d: %s", rec.Code, rec.Body.String())
		}
		var got struct {
			UserID          string                `json:"user_id"`
			Recommendations []recommend.Candidate `json:"recommendations"`
			Count           int                   `json:"count"`
		}
		env.decode(t, &got)
		if got.UserID != "u-1" || got.Recommendations == nil || got.Count != len(got.Recommendations) {
			t.Errorf("personalized = %+v", got)
		}
		for _, c := range got.Recommendations {
			if c.ProductID == "shoe-1" {
				t.Error("personalized recommendations contain a viewed product")
			}
		}
	})
}

func TestVoice(t *testing.T) {
	e := newTestEnv(t)
	seedCatalog(t, e)

	t.Run("similar in english", func(t *testing.T) {
		req := recommend.VoiceRequest{Type: recommend.VoiceSimilar, ProductID: "shoe-1", Language: recommend.LanguageEnglish}
		rec, env := e.do(t, http.MethodPost, tenantPath("/recommendations/voice"), req)
		if rec.Code != http.StatusOK {
			t.Fatalf("voice = %d: %s", rec.Code, rec.Body.String())
		}
		var got recommend.VoiceResponse
		env.decode(t, &got)
		if got.Text == "" || len(got.Recommendations) == 0 || got.VoiceWidget == nil {
			t.Errorf("voice = %+v", got)
		}
		if !strings.Contains(string(env.Data), `"voiceWidget"`) {
			t.Errorf("voice JSON missing voiceWidget: %s", env.Data)
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		rec, env := e.do(t, http.MethodPost, tenantPath("/recommendations/voice"), `{"type":"trending"}`)
		assertError(t, rec, env, http.StatusBadRequest, ErrCodeValidation)
	})
}

func TestStats(t *testing.T) {
	e := newTestEnv(t)
	seedCatalog(t, e)

	rec, env := e.do(t, http.MethodGet, "/api/v1/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats = %d", rec.Code)
	}
	var data struct {
		Index        vectorindex.GlobalStats `json:"index"`
		TenantsByAge []string                `json:"tenants_by_age"`
	}
	env.decode(t, &data)
	if data.Index.Tenants != 1 || data.Index.TotalVectors != 3 {
		t.Errorf("global stats = %+v", data.Index)
	}
	if len(data.TenantsByAge) != 1 || data.TenantsByAge[0] != testTenant {
		t.Errorf("tenants_by_age = %v", data.TenantsByAge)
	}
}
