package collection

import (
	"sort"
	"time"

	"github.com/lucelabs/vessel/internal/xerrors"
	"github.com/lucelabs/vessel/metadata"
	"github.com/lucelabs/vessel/metric"
)

// overFetchFactor is the published default multiplier applied to topK when
// a filter is present, to compensate for post-filter loss on an
// HNSW-unaware-of-metadata index.
const overFetchFactor = 10

// ScoredDocument is one query hit.
type ScoredDocument struct {
	ID       string
	Vector   []float64
	Metadata metadata.Document
	Score    float64
}

// QueryOptions configures a single Query call.
type QueryOptions struct {
	TopK           int
	Filter         metadata.Filter
	ForceFlat      bool
	EfSearch       int // 0 means "use the collection default"
	IncludeVectors bool
	Now            time.Time
}

// QueryResult reports a query's outcome and the work it took.
type QueryResult struct {
	Results     []ScoredDocument
	Elapsed     time.Duration
	Comparisons int64
	Total       int
	Method      string
}

// Query resolves opts against the collection, routing between the HNSW
// graph and a brute-force flat scan, applying the filter evaluator and
// TTL-hiding per the over-fetch + post-filter design.
func (c *Collection) Query(vector []float64, opts QueryOptions) (QueryResult, error) {
	start := time.Now()

	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(vector) != c.cfg.Dimension {
		return QueryResult{}, &xerrors.ErrDimensionMismatch{Expected: c.cfg.Dimension, Actual: len(vector)}
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	nowMs := now.UnixMilli()

	var (
		results     []ScoredDocument
		comparisons int64
		method      = string(IndexFlat)
	)

	if c.graph != nil && !opts.ForceFlat {
		method = string(IndexHNSW)
		results, comparisons = c.hnswQuery(vector, opts, nowMs)
	} else {
		results, comparisons = c.flatQuery(vector, opts, nowMs)
	}

	c.queryCount++

	return QueryResult{
		Results:     results,
		Elapsed:     time.Since(start),
		Comparisons: comparisons,
		Total:       len(c.documents),
		Method:      method,
	}, nil
}

func (c *Collection) hnswQuery(vector []float64, opts QueryOptions, nowMs int64) ([]ScoredDocument, int64) {
	fetchK := opts.TopK
	if opts.Filter != nil {
		fetchK = opts.TopK * overFetchFactor
		if total := len(c.documents); fetchK > total {
			fetchK = total
		}
	}

	ef := opts.EfSearch
	if ef <= 0 {
		ef = c.cfg.EfSearch
	}
	if ef < fetchK {
		ef = fetchK
	}

	found := c.graph.Search(vector, fetchK, ef)
	comparisons := c.graph.LastQueryComparisons()

	out := make([]ScoredDocument, 0, len(found))
	for _, r := range found {
		if opts.Filter != nil && !opts.Filter.Matches(r.Metadata) {
			continue
		}
		if ttlExpired(r.Metadata, nowMs) {
			continue
		}

		out = append(out, toScoredDocument(r.ID, r.Vector, r.Metadata, r.Score, opts.IncludeVectors))
		if len(out) >= opts.TopK {
			break
		}
	}

	return out, comparisons
}

func (c *Collection) flatQuery(vector []float64, opts QueryOptions, nowMs int64) ([]ScoredDocument, int64) {
	var scored []ScoredDocument
	var comparisons int64

	for _, doc := range c.documents {
		if ttlExpired(doc.Metadata, nowMs) {
			continue
		}
		if opts.Filter != nil && !opts.Filter.Matches(doc.Metadata) {
			continue
		}

		s, _ := metric.Score(vector, doc.Vector, c.cfg.Metric)
		comparisons++

		scored = append(scored, toScoredDocument(doc.ID, doc.Vector, doc.Metadata, s, opts.IncludeVectors))
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	if opts.TopK > 0 && len(scored) > opts.TopK {
		scored = scored[:opts.TopK]
	}

	return scored, comparisons
}

func toScoredDocument(id string, vector []float64, meta metadata.Document, score float64, includeVectors bool) ScoredDocument {
	sd := ScoredDocument{ID: id, Metadata: meta, Score: score}
	if includeVectors {
		sd.Vector = vector
	}
	return sd
}

func ttlExpired(meta metadata.Document, nowMs int64) bool {
	v, ok := meta["_ttl_expires"]
	if !ok {
		return false
	}

	f, ok := v.AsFloat64()
	if !ok {
		return false
	}

	return int64(f) <= nowMs
}

// ExpiredIDs returns the ids of all live documents whose _ttl_expires is
// present and <= now, for the TTL sweeper.
func (c *Collection) ExpiredIDs(now time.Time) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	nowMs := now.UnixMilli()

	var ids []string
	for id, doc := range c.documents {
		if ttlExpired(doc.Metadata, nowMs) {
			ids = append(ids, id)
		}
	}

	return ids
}
