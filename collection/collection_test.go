package collection

import (
	"testing"
	"time"

	"github.com/lucelabs/vessel/internal/xerrors"
	"github.com/lucelabs/vessel/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlat(t *testing.T, dim int) *Collection {
	c, err := New(Config{Name: "t", Dimension: dim, Metric: "cosine", IndexType: IndexFlat})
	require.NoError(t, err)
	return c
}

func newHNSW(t *testing.T, dim int) *Collection {
	c, err := New(Config{
		Name: "t", Dimension: dim, Metric: "cosine", IndexType: IndexHNSW,
		M: 16, EfConstruction: 100, EfSearch: 30,
	})
	require.NoError(t, err)
	return c
}

func TestFilterOperatorsScenarioFlat(t *testing.T) {
	c := newFlat(t, 2)

	require.NoError(t, c.Insert(&Document{ID: "1", Vector: []float64{1, 0}, Metadata: metadata.Document{"score": metadata.Int(10), "tag": metadata.String("fire")}}))
	require.NoError(t, c.Insert(&Document{ID: "2", Vector: []float64{0, 1}, Metadata: metadata.Document{"score": metadata.Int(20), "tag": metadata.String("flood")}}))
	require.NoError(t, c.Insert(&Document{ID: "3", Vector: []float64{1, 1}, Metadata: metadata.Document{"score": metadata.Int(30), "tag": metadata.String("fire")}}))

	f, err := metadata.ParseFilter(map[string]any{"score": map[string]any{"$gte": 20}})
	require.NoError(t, err)

	res, err := c.Query([]float64{1, 1}, QueryOptions{TopK: 10, Filter: f})
	require.NoError(t, err)
	assert.Len(t, res.Results, 2)
	assert.Equal(t, "flat", res.Method)

	f, err = metadata.ParseFilter(map[string]any{"tag": map[string]any{"$in": []any{"fire", "flood"}}})
	require.NoError(t, err)

	res, err = c.Query([]float64{1, 1}, QueryOptions{TopK: 10, Filter: f})
	require.NoError(t, err)
	assert.Len(t, res.Results, 3)
}

func TestQueryResultsSortedDescending(t *testing.T) {
	c := newFlat(t, 2)

	require.NoError(t, c.Insert(&Document{ID: "a", Vector: []float64{1, 0}}))
	require.NoError(t, c.Insert(&Document{ID: "b", Vector: []float64{0.9, 0.1}}))
	require.NoError(t, c.Insert(&Document{ID: "c", Vector: []float64{-1, 0}}))

	res, err := c.Query([]float64{1, 0}, QueryOptions{TopK: 3})
	require.NoError(t, err)
	require.Len(t, res.Results, 3)

	for i := 1; i < len(res.Results); i++ {
		assert.GreaterOrEqual(t, res.Results[i-1].Score, res.Results[i].Score)
	}
}

func TestDimensionMismatchOnInsertAndQuery(t *testing.T) {
	c := newFlat(t, 3)

	err := c.Insert(&Document{ID: "a", Vector: []float64{1, 2}})
	require.ErrorIs(t, err, &xerrors.ErrDimensionMismatch{})

	_, err = c.Query([]float64{1, 2}, QueryOptions{TopK: 1})
	require.ErrorIs(t, err, &xerrors.ErrDimensionMismatch{})
}

func TestTTLHidingAtQueryTime(t *testing.T) {
	c := newFlat(t, 2)

	future := time.Now().Add(50 * time.Millisecond)
	require.NoError(t, c.Insert(&Document{
		ID: "expiring", Vector: []float64{1, 0},
		Metadata: metadata.Document{"_ttl_expires": metadata.Int(future.UnixMilli())},
	}))

	res, err := c.Query([]float64{1, 0}, QueryOptions{TopK: 1, Now: time.Now()})
	require.NoError(t, err)
	assert.Len(t, res.Results, 1)

	res, err = c.Query([]float64{1, 0}, QueryOptions{TopK: 1, Now: future.Add(100 * time.Millisecond)})
	require.NoError(t, err)
	assert.Len(t, res.Results, 0)
}

func TestDeleteRemovesFromHNSWAndStore(t *testing.T) {
	c := newHNSW(t, 4)

	require.NoError(t, c.Insert(&Document{ID: "a", Vector: []float64{1, 0, 0, 0}}))
	require.NoError(t, c.Insert(&Document{ID: "b", Vector: []float64{0, 1, 0, 0}}))

	assert.True(t, c.Delete("a"))
	assert.Equal(t, 1, c.Count())

	res, err := c.Query([]float64{1, 0, 0, 0}, QueryOptions{TopK: 5})
	require.NoError(t, err)
	for _, r := range res.Results {
		assert.NotEqual(t, "a", r.ID)
	}
}

func TestInsertOverExistingIDReplaces(t *testing.T) {
	c := newFlat(t, 2)

	require.NoError(t, c.Insert(&Document{ID: "a", Vector: []float64{1, 0}, Metadata: metadata.Document{"v": metadata.Int(1)}}))
	require.NoError(t, c.Insert(&Document{ID: "a", Vector: []float64{0, 1}, Metadata: metadata.Document{"v": metadata.Int(2)}}))

	assert.Equal(t, 1, c.Count())

	doc, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, []float64{0, 1}, doc.Vector)
}
