// Package hnsw implements a Hierarchical Navigable Small World graph: a
// layered approximate nearest-neighbor index supporting online insertion,
// deletion, top-K search, runtime statistics, and gob-based serialization.
//
// Nodes are addressed externally by string id but stored internally in a
// dense uint32-indexed arena with a side map from id to index, so the hot
// search loop works over small sorted integer slices and a bitset rather
// than hashing strings on every edge traversal.
package hnsw

import (
	"errors"
	"math"
	"math/rand"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/lucelabs/vessel/metadata"
	"github.com/lucelabs/vessel/metric"
)

var (
	errInvalidM              = errors.New("hnsw: M must be >= 1")
	errInvalidEfConstruction = errors.New("hnsw: EfConstruction must be >= 1")

	// ErrDuplicateID is returned by Insert when id is already present in
	// the graph. Collection-level updates must Delete before re-Inserting.
	ErrDuplicateID = errors.New("hnsw: duplicate node id")
)

// node is one arena slot. A deleted node's slot is set to nil and its index
// is never reused; liveness is tracked separately by Graph.alive so stats
// and iteration never need to scan for nil holes.
type node struct {
	id        string
	vector    []float64
	metadata  metadata.Document
	level     int
	neighbors [][]uint32 // neighbors[l] holds layer l's sorted, deduplicated neighbor indices, for l in 0..level
}

// Result is one search hit.
type Result struct {
	ID       string
	Vector   []float64
	Metadata metadata.Document
	Score    float64
}

// Graph is a single HNSW index. The zero value is not usable; construct
// with New.
type Graph struct {
	mu sync.RWMutex

	dimension int
	opts      Options
	ml        float64

	nodes      []*node
	idIndex    map[string]uint32
	alive      *roaring.Bitmap
	entryPoint int64 // -1 when the graph is empty
	maxLevel   int

	comparisons int64
	rng         *rand.Rand
}

// New constructs an empty graph for vectors of the given dimension.
func New(dimension int, optFns ...Option) (*Graph, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}

	if err := opts.valid(); err != nil {
		return nil, err
	}

	return &Graph{
		dimension:  dimension,
		opts:       opts,
		ml:         1 / math.Log(float64(opts.M)),
		idIndex:    make(map[string]uint32),
		alive:      roaring.New(),
		entryPoint: -1,
		rng:        rand.New(rand.NewSource(rand.Int63())),
	}, nil
}

// Dimension returns the configured vector dimension.
func (g *Graph) Dimension() int { return g.dimension }

// Len returns the number of live nodes.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return int(g.alive.GetCardinality())
}

func (g *Graph) isAlive(idx uint32) bool {
	return g.alive.Contains(idx)
}

func (g *Graph) score(a []float64, idx uint32) float64 {
	g.comparisons++
	s, _ := metric.Score(a, g.nodes[idx].vector, g.opts.Metric)
	return s
}

func (g *Graph) assignLevel() int {
	u := 1 - g.rng.Float64() // (0, 1], avoids log(0)
	return int(math.Floor(-math.Log(u) * g.ml))
}

func (g *Graph) maxConnForLayer(layer int) int {
	if layer == 0 {
		return g.opts.m0()
	}
	return g.opts.M
}
