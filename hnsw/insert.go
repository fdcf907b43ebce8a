package hnsw

import "github.com/lucelabs/vessel/metadata"

// selectNeighborsHeuristic implements the diversity-aware neighbor
// selection: given candidates sorted by descending score to the query,
// accept c iff no already-accepted s "shadows" it — i.e. c is closer to
// some accepted neighbor than to the query itself. The first maxConn/2
// acceptances are unconditional; this carve-out differs from the canonical
// algorithm but is preserved deliberately rather than replaced.
func (g *Graph) selectNeighborsHeuristic(candidates []item, maxConn int, q []float64) []item {
	half := maxConn / 2
	accepted := make([]item, 0, maxConn)

	for _, c := range candidates {
		if len(accepted) >= maxConn {
			break
		}

		if len(accepted) < half {
			accepted = append(accepted, c)
			continue
		}

		shadowed := false
		for _, s := range accepted {
			scs := g.score(g.nodes[c.idx].vector, s.idx)
			if scs > c.score {
				shadowed = true
				break
			}
		}

		if !shadowed {
			accepted = append(accepted, c)
		}
	}

	return accepted
}

// link adds the bidirectional edge u<->v at layer, keeping each side's
// neighbor slice sorted and deduplicated.
func (g *Graph) link(u, v uint32, layer int) {
	g.nodes[u].neighbors[layer] = insertSorted(g.nodes[u].neighbors[layer], v)
	g.nodes[v].neighbors[layer] = insertSorted(g.nodes[v].neighbors[layer], u)
}

// unlink removes the bidirectional edge u<->v at layer, if present.
func (g *Graph) unlink(u, v uint32, layer int) {
	g.nodes[u].neighbors[layer] = removeSorted(g.nodes[u].neighbors[layer], v)
	g.nodes[v].neighbors[layer] = removeSorted(g.nodes[v].neighbors[layer], u)
}

func insertSorted(s []uint32, v uint32) []uint32 {
	i := 0
	for i < len(s) && s[i] < v {
		i++
	}
	if i < len(s) && s[i] == v {
		return s
	}
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

func removeSorted(s []uint32, v uint32) []uint32 {
	for i, x := range s {
		if x == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

// pruneIfNeeded re-runs the diversity heuristic over n's current neighbor
// set at layer if it has grown past maxConn, replacing it with the selected
// subset and removing the reverse edge for anything dropped so the
// bidirectional invariant holds.
func (g *Graph) pruneIfNeeded(n uint32, layer, maxConn int) {
	current := g.nodes[n].neighbors[layer]
	if len(current) <= maxConn {
		return
	}

	candidates := make([]item, len(current))
	for i, idx := range current {
		candidates[i] = item{idx: idx, score: g.score(g.nodes[n].vector, idx)}
	}

	sortItemsDesc(candidates)
	selected := g.selectNeighborsHeuristic(candidates, maxConn, g.nodes[n].vector)

	kept := make(map[uint32]bool, len(selected))
	newNeighbors := make([]uint32, 0, len(selected))
	for _, s := range selected {
		kept[s.idx] = true
		newNeighbors = insertSorted(newNeighbors, s.idx)
	}

	for _, idx := range current {
		if !kept[idx] {
			g.nodes[idx].neighbors[layer] = removeSorted(g.nodes[idx].neighbors[layer], n)
		}
	}

	g.nodes[n].neighbors[layer] = newNeighbors
}

func sortItemsDesc(items []item) {
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && items[j-1].score < items[j].score; j-- {
			items[j-1], items[j] = items[j], items[j-1]
		}
	}
}

// Insert adds a new node to the graph. id must not already be present;
// updates are delete-then-insert at the collection boundary, not a native
// operation here.
func (g *Graph) Insert(id string, vector []float64, meta metadata.Document) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.comparisons = 0

	if _, exists := g.idIndex[id]; exists {
		return ErrDuplicateID
	}

	level := g.assignLevel()
	idx := g.allocNode(id, vector, meta, level)

	if g.entryPoint < 0 {
		g.entryPoint = int64(idx)
		g.maxLevel = level
		return nil
	}

	ep := uint32(g.entryPoint)

	for l := g.maxLevel; l > level; l-- {
		ep = g.greedyDescend(vector, ep, l)
	}

	top := level
	if g.maxLevel < top {
		top = g.maxLevel
	}

	for l := top; l >= 0; l-- {
		maxConn := g.maxConnForLayer(l)

		candidates := g.searchLayer(vector, ep, g.opts.EfConstruction, l)
		selected := g.selectNeighborsHeuristic(candidates, maxConn, vector)

		for _, c := range selected {
			g.link(idx, c.idx, l)
		}
		for _, c := range selected {
			g.pruneIfNeeded(c.idx, l, maxConn)
		}

		if len(candidates) > 0 {
			ep = candidates[0].idx
		}
	}

	if level > g.maxLevel {
		g.entryPoint = int64(idx)
		g.maxLevel = level
	}

	return nil
}

func (g *Graph) allocNode(id string, vector []float64, meta metadata.Document, level int) uint32 {
	n := &node{
		id:        id,
		vector:    vector,
		metadata:  meta,
		level:     level,
		neighbors: make([][]uint32, level+1),
	}

	idx := uint32(len(g.nodes))
	g.nodes = append(g.nodes, n)
	g.idIndex[id] = idx
	g.alive.Add(idx)

	return idx
}
