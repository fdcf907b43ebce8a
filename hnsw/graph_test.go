package hnsw

import (
	"math"
	"math/rand"
	"testing"

	"github.com/lucelabs/vessel/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func normalize(v []float64) []float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return v
	}

	norm := math.Sqrt(sum)
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

func TestIdentityRankingScenario(t *testing.T) {
	g, err := New(4, WithMetric("cosine"))
	require.NoError(t, err)

	a := normalize([]float64{1, 0, 0, 0})
	b := normalize([]float64{0, 1, 0, 0})
	c := normalize([]float64{0.9, 0.1, 0, 0})

	require.NoError(t, g.Insert("a", a, nil))
	require.NoError(t, g.Insert("b", b, nil))
	require.NoError(t, g.Insert("c", c, nil))

	results := g.Search([]float64{1, 0, 0, 0}, 2, 50)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "c", results[1].ID)
	assert.Greater(t, results[0].Score, 0.98)
	assert.LessOrEqual(t, results[0].Score, 1.0)
	assert.Greater(t, results[1].Score, 0.98)
}

func TestLargeNOrderingScenario(t *testing.T) {
	g, err := New(32, WithMetric("cosine"), WithM(16), WithEfConstruction(100), WithEfSearch(30))
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		v := make([]float64, 32)
		for j := range v {
			v[j] = rng.Float64()*2 - 1
		}
		require.NoError(t, g.Insert(idOf(i), normalize(v), nil))
	}

	v := make([]float64, 32)
	for j := range v {
		v[j] = rng.Float64()*2 - 1
	}

	results := g.Search(normalize(v), 10, 30)
	require.Len(t, results, 10)

	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestDeleteRemovesFromResultsScenario(t *testing.T) {
	g, err := New(4, WithMetric("cosine"))
	require.NoError(t, err)

	a := normalize([]float64{1, 0, 0, 0})
	b := normalize([]float64{0, 1, 0, 0})

	require.NoError(t, g.Insert("a", a, nil))
	require.NoError(t, g.Insert("b", b, nil))

	assert.True(t, g.Delete("a"))
	assert.Equal(t, 1, g.Len())

	results := g.Search([]float64{1, 0, 0, 0}, 5, 50)
	for _, r := range results {
		assert.NotEqual(t, "a", r.ID)
	}
}

func TestDeleteReassignsEntryPoint(t *testing.T) {
	g, err := New(2, WithMetric("euclidean"))
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		require.NoError(t, g.Insert(idOf(i), []float64{float64(i), float64(i)}, nil))
	}

	ep := g.entryPoint
	require.True(t, g.Delete(g.nodes[ep].id))

	if g.entryPoint >= 0 {
		assert.Equal(t, g.maxLevel, g.nodes[g.entryPoint].level)
	}
}

func TestSnapshotRoundTripPreservesSearch(t *testing.T) {
	g, err := New(8, WithMetric("cosine"))
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		v := make([]float64, 8)
		for j := range v {
			v[j] = rng.Float64()
		}
		require.NoError(t, g.Insert(idOf(i), v, metadata.Document{"i": metadata.Int(int64(i))}))
	}

	data, err := g.Serialize()
	require.NoError(t, err)

	g2, err := Deserialize(data)
	require.NoError(t, err)

	q := make([]float64, 8)
	for j := range q {
		q[j] = rng.Float64()
	}

	r1 := g.Search(q, 5, 20)
	r2 := g2.Search(q, 5, 20)

	require.Len(t, r2, len(r1))
	for i := range r1 {
		assert.Equal(t, r1[i].ID, r2[i].ID)
		assert.InDelta(t, r1[i].Score, r2[i].Score, 1e-12)
	}
}

func TestBidirectionalEdgeInvariant(t *testing.T) {
	g, err := New(3, WithMetric("cosine"), WithM(4))
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 100; i++ {
		v := []float64{rng.Float64(), rng.Float64(), rng.Float64()}
		require.NoError(t, g.Insert(idOf(i), v, nil))
	}

	it := g.alive.Iterator()
	for it.HasNext() {
		idx := it.Next()
		n := g.nodes[idx]
		for l := 0; l <= n.level; l++ {
			for _, nb := range n.neighbors[l] {
				found := false
				for _, back := range g.nodes[nb].neighbors[l] {
					if back == idx {
						found = true
						break
					}
				}
				assert.True(t, found, "edge not bidirectional at layer %d", l)
			}
		}
	}
}

func TestLevelZeroNeverExceedsM0(t *testing.T) {
	g, err := New(3, WithMetric("cosine"), WithM(4))
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(9))
	for i := 0; i < 200; i++ {
		v := []float64{rng.Float64(), rng.Float64(), rng.Float64()}
		require.NoError(t, g.Insert(idOf(i), v, nil))
	}

	it := g.alive.Iterator()
	for it.HasNext() {
		idx := it.Next()
		assert.LessOrEqual(t, len(g.nodes[idx].neighbors[0]), g.opts.m0())
	}
}

func TestDuplicateIDRejected(t *testing.T) {
	g, err := New(2)
	require.NoError(t, err)

	require.NoError(t, g.Insert("x", []float64{1, 2}, nil))
	err = g.Insert("x", []float64{3, 4}, nil)
	require.ErrorIs(t, err, ErrDuplicateID)
}

func idOf(i int) string {
	const letters = "0123456789abcdefghijklmnopqrstuvwxyz"
	if i < len(letters) {
		return "id-" + string(letters[i])
	}
	return "id-" + string(letters[i%len(letters)]) + string(letters[(i/len(letters))%len(letters)])
}
