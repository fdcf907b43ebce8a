// Package engine implements the top-level embedded vector database:
// collection lifecycle, the insert/delete/query orchestration over
// collection.Collection, the tenant isolation wrapper, and the audit log
// and TTL sweeper that run alongside it.
package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lucelabs/vessel/audit"
	"github.com/lucelabs/vessel/collection"
	"github.com/lucelabs/vessel/internal/obslog"
	"github.com/lucelabs/vessel/internal/xerrors"
	"github.com/lucelabs/vessel/metadata"
	"github.com/lucelabs/vessel/metric"
	"github.com/lucelabs/vessel/ttl"
)

// Engine owns a set of named collections plus the shared audit log, TTL
// sweeper, logger, and metrics collector every operation on them reports
// through.
type Engine struct {
	mu          sync.RWMutex
	collections map[string]*collection.Collection

	audit   *audit.Log
	logger  *obslog.Logger
	metrics MetricsCollector

	sweeper *ttl.Sweeper
	cache   *queryCache

	closeOnce sync.Once
}

// New constructs an Engine. The returned Engine owns a background TTL
// sweeper goroutine; call Close when done with it.
func New(optFns ...Option) *Engine {
	o := applyOptions(optFns)

	e := &Engine{
		collections: make(map[string]*collection.Collection),
		audit:       audit.New(o.auditCapacity),
		logger:      o.logger,
		metrics:     o.metricsCollector,
	}

	if o.queryCacheMaxCost > 0 {
		qc, err := newQueryCache(o.queryCacheMaxCost, o.queryCacheTTL)
		if err == nil {
			e.cache = qc
		}
	}

	e.sweeper = ttl.NewSweeper(o.ttlSweepInterval, e.sweep)
	e.sweeper.Start()

	return e
}

// CreateCollectionOptions configures a new collection.
type CreateCollectionOptions struct {
	Dimension      int
	Metric         string // default "cosine"
	IndexType      collection.IndexType // default IndexHNSW
	M              int                  // default 16
	EfConstruction int                  // default 200
	EfSearch       int                  // default 50
	RequireTenant  bool
}

// CollectionInfo describes a collection's configuration and live state.
type CollectionInfo struct {
	Name          string
	Dimension     int
	Metric        string
	IndexType     collection.IndexType
	RequireTenant bool
	Count         int
	CreatedAt     time.Time
}

// CreateCollection creates a new, empty named collection.
func (e *Engine) CreateCollection(name string, opts CreateCollectionOptions) (CollectionInfo, error) {
	start := time.Now()
	var err error

	defer func() {
		e.metrics.RecordCollectionCreate(time.Since(start), err)
		e.logger.WithCollection(name).Debug("create_collection", "error", err)
	}()

	if name == "" {
		err = xerrors.ErrInvalidArgument
		return CollectionInfo{}, err
	}

	if opts.Dimension <= 0 {
		err = xerrors.ErrInvalidArgument
		return CollectionInfo{}, err
	}

	if opts.Metric == "" {
		opts.Metric = "cosine"
	}
	if !metric.IsValidMetric(opts.Metric) {
		err = xerrors.ErrInvalidArgument
		return CollectionInfo{}, err
	}

	if opts.IndexType == "" {
		opts.IndexType = collection.IndexHNSW
	}
	if opts.IndexType != collection.IndexHNSW && opts.IndexType != collection.IndexFlat {
		err = xerrors.ErrInvalidArgument
		return CollectionInfo{}, err
	}

	cfg := collection.Config{
		Name:           name,
		Dimension:      opts.Dimension,
		Metric:         opts.Metric,
		IndexType:      opts.IndexType,
		M:              defaultInt(opts.M, 16),
		EfConstruction: defaultInt(opts.EfConstruction, 200),
		EfSearch:       defaultInt(opts.EfSearch, 50),
		RequireTenant:  opts.RequireTenant,
	}

	e.mu.Lock()
	if _, exists := e.collections[name]; exists {
		e.mu.Unlock()
		err = xerrors.ErrCollectionExists
		return CollectionInfo{}, err
	}

	col, cerr := collection.New(cfg)
	if cerr != nil {
		e.mu.Unlock()
		err = cerr
		return CollectionInfo{}, err
	}
	e.collections[name] = col
	e.mu.Unlock()

	e.audit.Append("create_collection", "engine", name, 0, time.Since(start), nil)

	return collectionInfo(name, col), nil
}

// DropCollection removes a collection entirely, returning false if it did
// not exist.
func (e *Engine) DropCollection(name string) bool {
	e.mu.Lock()
	_, ok := e.collections[name]
	delete(e.collections, name)
	e.mu.Unlock()

	if !ok {
		return false
	}

	if e.cache != nil {
		e.cache.invalidate(name)
	}

	e.audit.Append("drop_collection", "engine", name, 0, 0, nil)

	return true
}

// ListCollections returns info for every collection, in no particular order.
func (e *Engine) ListCollections() []CollectionInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]CollectionInfo, 0, len(e.collections))
	for name, col := range e.collections {
		out = append(out, collectionInfo(name, col))
	}

	return out
}

// GetCollection returns info for one collection, and whether it exists.
func (e *Engine) GetCollection(name string) (CollectionInfo, bool) {
	e.mu.RLock()
	col, ok := e.collections[name]
	e.mu.RUnlock()

	if !ok {
		return CollectionInfo{}, false
	}

	return collectionInfo(name, col), true
}

func collectionInfo(name string, col *collection.Collection) CollectionInfo {
	cfg := col.Config()
	return CollectionInfo{
		Name:          name,
		Dimension:     cfg.Dimension,
		Metric:        cfg.Metric,
		IndexType:     cfg.IndexType,
		RequireTenant: cfg.RequireTenant,
		Count:         col.Count(),
		CreatedAt:     col.CreatedAt(),
	}
}

func (e *Engine) getCollection(name string) (*collection.Collection, error) {
	e.mu.RLock()
	col, ok := e.collections[name]
	e.mu.RUnlock()

	if !ok {
		return nil, xerrors.ErrCollectionNotFound
	}

	return col, nil
}

// requireUngated returns name's collection, failing with
// xerrors.ErrTenancyRequired if it was created with RequireTenant true.
// Only TenantScope bypasses this gate, by calling doInsert/doQuery/doDelete
// directly.
func (e *Engine) requireUngated(name string) (*collection.Collection, error) {
	col, err := e.getCollection(name)
	if err != nil {
		return nil, err
	}

	if col.Config().RequireTenant {
		return nil, xerrors.ErrTenancyRequired
	}

	return col, nil
}

// InsertDoc is one document to insert.
type InsertDoc struct {
	ID       string // minted via uuid.NewString() when empty
	Vector   []float64
	Metadata map[string]any
	TTL      any // numeric milliseconds or "⟨number⟩⟨unit⟩"; nil disables TTL
}

// Insert stores docs into name, minting ids for any that omit one. Returns
// the ids in the same order as docs.
func (e *Engine) Insert(name string, docs []InsertDoc) ([]string, error) {
	col, err := e.requireUngated(name)
	if err != nil {
		return nil, err
	}

	return e.doInsert("engine", col, name, docs)
}

func (e *Engine) doInsert(actor string, col *collection.Collection, name string, docs []InsertDoc) ([]string, error) {
	start := time.Now()
	var err error

	defer func() {
		e.metrics.RecordInsert(time.Since(start), len(docs), err)
		e.logger.WithCollection(name).LogInsert(len(docs), err)
	}()

	now := time.Now()
	ids := make([]string, len(docs))

	for i, d := range docs {
		id := d.ID
		if id == "" {
			id = uuid.NewString()
		}

		if len(d.Vector) == 0 {
			err = xerrors.ErrInvalidVector
			return nil, err
		}

		meta := metadata.DocumentFromAny(d.Metadata)
		if meta == nil {
			meta = metadata.Document{}
		}

		if d.TTL != nil {
			expiresAt, duration, terr := ttl.ExpiresAt(d.TTL, now)
			if terr != nil {
				err = terr
				return nil, err
			}
			meta["_ttl_expires"] = metadata.Int(expiresAt)
			meta["_ttl_duration"] = metadata.String(duration)
		}

		if ierr := col.Insert(&collection.Document{ID: id, Vector: d.Vector, Metadata: meta}); ierr != nil {
			err = xerrors.Translate(ierr)
			return nil, err
		}

		ids[i] = id
	}

	e.audit.Append("insert", actor, name, len(ids), time.Since(start), nil)
	if e.cache != nil {
		e.cache.invalidate(name)
	}

	return ids, nil
}

// Delete removes ids from name, returning the count actually deleted.
func (e *Engine) Delete(name string, ids []string) (int, error) {
	col, err := e.requireUngated(name)
	if err != nil {
		return 0, err
	}

	return e.doDelete("engine", col, name, ids)
}

func (e *Engine) doDelete(actor string, col *collection.Collection, name string, ids []string) (int, error) {
	start := time.Now()
	var err error
	count := 0

	defer func() {
		e.metrics.RecordDelete(time.Since(start), len(ids), err)
		e.logger.WithCollection(name).LogDelete(len(ids), count, err)
	}()

	for _, id := range ids {
		if col.Delete(id) {
			count++
		}
	}

	e.audit.Append("delete", actor, name, count, time.Since(start), nil)
	if e.cache != nil {
		e.cache.invalidate(name)
	}

	return count, nil
}

// QueryOptions configures a single Query call.
type QueryOptions struct {
	TopK           int
	Filter         map[string]any
	ForceFlat      bool
	EfSearch       int
	IncludeVectors bool
}

// Query resolves vector against name, applying filter, TTL-hiding, and the
// over-fetch + post-filter path collection.Query implements.
func (e *Engine) Query(name string, vector []float64, opts QueryOptions) (collection.QueryResult, error) {
	col, err := e.requireUngated(name)
	if err != nil {
		return collection.QueryResult{}, err
	}

	filter, ferr := metadata.ParseFilter(opts.Filter)
	if ferr != nil {
		return collection.QueryResult{}, ferr
	}

	return e.doQuery("engine", col, name, vector, filter, opts)
}

func (e *Engine) doQuery(actor string, col *collection.Collection, name string, vector []float64, filter metadata.Filter, opts QueryOptions) (collection.QueryResult, error) {
	start := time.Now()
	var err error
	var method string

	defer func() {
		e.metrics.RecordQuery(time.Since(start), opts.TopK, err)
		e.logger.WithCollection(name).LogSearch(opts.TopK, method, err)
	}()

	now := time.Now()

	var cacheKey string
	if e.cache != nil {
		cacheKey = e.cache.key(name, vector, opts.Filter, opts.TopK, opts.ForceFlat, opts.EfSearch)
		if cached, ok := e.cache.get(cacheKey); ok && stillFresh(cached, now) {
			e.metrics.RecordCacheHit()
			method = cached.Method
			e.audit.Append("query", actor, name, len(cached.Results), time.Since(start), map[string]any{"cached": true})
			return cached, nil
		}
		e.metrics.RecordCacheMiss()
	}

	res, qerr := col.Query(vector, collection.QueryOptions{
		TopK:           opts.TopK,
		Filter:         filter,
		ForceFlat:      opts.ForceFlat,
		EfSearch:       opts.EfSearch,
		IncludeVectors: opts.IncludeVectors,
		Now:            now,
	})
	if qerr != nil {
		err = xerrors.Translate(qerr)
		return collection.QueryResult{}, err
	}
	method = res.Method

	if e.cache != nil {
		e.cache.set(cacheKey, res)
	}

	e.audit.Append("query", actor, name, len(res.Results), time.Since(start), nil)

	return res, nil
}

// AuditLog exposes the engine's audit log for querying.
func (e *Engine) AuditLog() *audit.Log { return e.audit }

func defaultInt(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
