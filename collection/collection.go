// Package collection implements the document store that couples an
// optional HNSW graph or a brute-force flat index with a metadata filter
// evaluator, and the over-fetch + post-filter + TTL-hiding query path that
// sits on top of either.
package collection

import (
	"sync"
	"time"

	"github.com/lucelabs/vessel/hnsw"
	"github.com/lucelabs/vessel/internal/xerrors"
	"github.com/lucelabs/vessel/metadata"
)

// IndexType selects how a Collection resolves queries.
type IndexType string

const (
	// IndexHNSW routes queries through an HNSW graph, falling back to flat
	// scan when the caller requests forceFlat.
	IndexHNSW IndexType = "hnsw"
	// IndexFlat always does a brute-force scan.
	IndexFlat IndexType = "flat"
)

// Config describes a collection's immutable configuration.
type Config struct {
	Name           string
	Dimension      int
	Metric         string
	IndexType      IndexType
	M              int
	EfConstruction int
	EfSearch       int
	RequireTenant  bool
}

// Document is one stored (id, vector, metadata) tuple.
type Document struct {
	ID       string
	Vector   []float64
	Metadata metadata.Document
}

// Collection owns a document store plus an optional HNSW graph.
type Collection struct {
	mu sync.RWMutex

	cfg       Config
	documents map[string]*Document
	graph     *hnsw.Graph
	createdAt time.Time

	insertCount int64
	deleteCount int64
	queryCount  int64
}

// New constructs an empty collection per cfg.
func New(cfg Config) (*Collection, error) {
	c := &Collection{
		cfg:       cfg,
		documents: make(map[string]*Document),
		createdAt: time.Now(),
	}

	if cfg.IndexType == IndexHNSW {
		g, err := hnsw.New(cfg.Dimension,
			hnsw.WithMetric(cfg.Metric),
			hnsw.WithM(cfg.M),
			hnsw.WithEfConstruction(cfg.EfConstruction),
			hnsw.WithEfSearch(cfg.EfSearch),
		)
		if err != nil {
			return nil, err
		}
		c.graph = g
	}

	return c, nil
}

// Config returns the collection's configuration.
func (c *Collection) Config() Config { return c.cfg }

// CreatedAt returns the collection's creation time.
func (c *Collection) CreatedAt() time.Time { return c.createdAt }

// Count returns the live document count.
func (c *Collection) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.documents)
}

// Get returns the stored document for id, and whether it was found.
func (c *Collection) Get(id string) (*Document, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	d, ok := c.documents[id]
	return d, ok
}

// Insert stores doc, maintaining the invariant that the document store and
// the HNSW graph (when present) always agree on membership. Inserting over
// an id that already exists replaces the prior document (delete+insert),
// since documents are never mutated in place.
func (c *Collection) Insert(doc *Document) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(doc.Vector) != c.cfg.Dimension {
		return &xerrors.ErrDimensionMismatch{Expected: c.cfg.Dimension, Actual: len(doc.Vector)}
	}

	if _, exists := c.documents[doc.ID]; exists {
		c.deleteLocked(doc.ID)
	}

	if c.graph != nil {
		if err := c.graph.Insert(doc.ID, doc.Vector, doc.Metadata); err != nil {
			return err
		}
	}

	c.documents[doc.ID] = doc
	c.insertCount++

	return nil
}

// Delete removes id, returning false if it was not present.
func (c *Collection) Delete(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	ok := c.deleteLocked(id)
	if ok {
		c.deleteCount++
	}

	return ok
}

func (c *Collection) deleteLocked(id string) bool {
	if _, ok := c.documents[id]; !ok {
		return false
	}

	delete(c.documents, id)
	if c.graph != nil {
		c.graph.Delete(id)
	}

	return true
}

// Stats summarizes operational counters.
type Stats struct {
	InsertCount int64
	DeleteCount int64
	QueryCount  int64
	Count       int
}

// Stats returns a snapshot of the collection's operational counters.
func (c *Collection) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Stats{
		InsertCount: c.insertCount,
		DeleteCount: c.deleteCount,
		QueryCount:  c.queryCount,
		Count:       len(c.documents),
	}
}
