package hnsw

import (
	"container/heap"
	"sort"

	"github.com/bits-and-blooms/bitset"
)

// greedyDescend performs a width-1 search at layer starting from ep,
// repeatedly moving to the best-scoring unvisited neighbor until no
// neighbor improves on the current position. Used to walk from the entry
// point down through the sparse upper layers before the real beam search at
// the target layer.
func (g *Graph) greedyDescend(q []float64, ep uint32, layer int) uint32 {
	best := ep
	bestScore := g.score(q, best)

	for {
		improved := false

		for _, n := range g.nodes[best].neighbors[layer] {
			if !g.isAlive(n) {
				continue
			}

			s := g.score(q, n)
			if s > bestScore {
				bestScore = s
				best = n
				improved = true
			}
		}

		if !improved {
			return best
		}
	}
}

// searchLayer runs the layer beam search described by the insertion and
// query algorithms: a candidate pool expanded best-first, and a results
// pool bounded to ef by worst score. It returns the results pool sorted by
// descending score.
func (g *Graph) searchLayer(q []float64, entry uint32, ef int, layer int) []item {
	visited := bitset.New(uint(len(g.nodes)))

	candidates := &itemHeap{order: true} // max-heap: pop best first
	results := &itemHeap{order: false}   // min-heap: Top() is worst, for trimming

	s0 := g.score(q, entry)
	heap.Push(candidates, item{entry, s0})
	heap.Push(results, item{entry, s0})
	visited.Set(uint(entry))

	for candidates.Len() > 0 {
		c := heap.Pop(candidates).(item)

		if results.Len() >= ef && c.score < results.Top().score {
			break
		}

		if !g.isAlive(c.idx) || layer > g.nodes[c.idx].level {
			continue
		}

		for _, n := range g.nodes[c.idx].neighbors[layer] {
			if visited.Test(uint(n)) {
				continue
			}
			visited.Set(uint(n))

			if !g.isAlive(n) {
				continue
			}

			s := g.score(q, n)
			heap.Push(candidates, item{n, s})
			heap.Push(results, item{n, s})

			if results.Len() > ef {
				heap.Pop(results)
			}
		}
	}

	out := make([]item, len(results.items))
	copy(out, results.items)
	sort.Slice(out, func(i, j int) bool { return out[i].score > out[j].score })

	return out
}

// Search returns the topK nearest neighbors of query. ef overrides the
// configured EfSearch beam width when positive; callers performing
// filter-aware over-fetch pass a larger ef/topK here and post-filter the
// result.
func (g *Graph) Search(query []float64, topK int, ef int) []Result {
	g.mu.RLock()
	defer g.mu.RUnlock()

	g.comparisons = 0

	if g.entryPoint < 0 || topK <= 0 {
		return nil
	}

	if ef <= 0 {
		ef = g.opts.EfSearch
	}
	if ef < topK {
		ef = topK
	}

	ep := uint32(g.entryPoint)
	for l := g.maxLevel; l >= 1; l-- {
		ep = g.greedyDescend(query, ep, l)
	}

	found := g.searchLayer(query, ep, ef, 0)
	if len(found) > topK {
		found = found[:topK]
	}

	out := make([]Result, len(found))
	for i, r := range found {
		n := g.nodes[r.idx]
		out[i] = Result{ID: n.id, Vector: n.vector, Metadata: n.metadata, Score: r.score}
	}

	return out
}

// LastQueryComparisons returns the number of score() evaluations performed
// during the most recent Search or Insert call.
func (g *Graph) LastQueryComparisons() int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.comparisons
}
