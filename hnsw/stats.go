package hnsw

// Stats is a structured snapshot of graph state and configuration, returned
// by Graph.Stats.
type Stats struct {
	Nodes                int
	TotalEdges           int
	MaxLevel             int
	MaxEdgesPerNode      int
	LevelDistribution    map[int]int
	LastQueryComparisons int64
	Config               Options
}

// Stats computes Stats over the live node set.
func (g *Graph) Stats() Stats {
	g.mu.RLock()
	defer g.mu.RUnlock()

	levelDist := make(map[int]int)
	totalDirected := 0
	maxEdges := 0

	it := g.alive.Iterator()
	for it.HasNext() {
		idx := it.Next()
		n := g.nodes[idx]
		levelDist[n.level]++

		for l := 0; l <= n.level; l++ {
			e := len(n.neighbors[l])
			totalDirected += e
			if e > maxEdges {
				maxEdges = e
			}
		}
	}

	return Stats{
		Nodes:                int(g.alive.GetCardinality()),
		TotalEdges:           totalDirected / 2,
		MaxLevel:             g.maxLevel,
		MaxEdgesPerNode:      maxEdges,
		LevelDistribution:    levelDist,
		LastQueryComparisons: g.comparisons,
		Config:               g.opts,
	}
}
