package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAssignsMonotonicIDs(t *testing.T) {
	l := New(10)

	e1 := l.Append("insert", "engine", "docs", 1, 0, nil)
	e2 := l.Append("insert", "engine", "docs", 1, 0, nil)

	assert.Equal(t, int64(0), e1.ID)
	assert.Equal(t, int64(1), e2.ID)
}

func TestOverCapacityDropsOldest(t *testing.T) {
	l := New(3)

	for i := 0; i < 5; i++ {
		l.Append("insert", "engine", "docs", 1, 0, nil)
	}

	entries := l.Query(QueryFilter{})
	require.Len(t, entries, 3)
	assert.Equal(t, int64(2), entries[0].ID)
	assert.Equal(t, int64(4), entries[2].ID)
}

func TestQueryFiltersByActionActorCollection(t *testing.T) {
	l := New(10)

	l.Append("insert", "alpha", "c1", 1, 0, nil)
	l.Append("query", "alpha", "c1", 1, 0, nil)
	l.Append("insert", "beta", "c2", 1, 0, nil)

	entries := l.Query(QueryFilter{Action: "insert"})
	assert.Len(t, entries, 2)

	entries = l.Query(QueryFilter{Actor: "alpha"})
	assert.Len(t, entries, 2)

	entries = l.Query(QueryFilter{Collection: "c2"})
	assert.Len(t, entries, 1)
}

func TestQuerySinceUntil(t *testing.T) {
	l := New(10)

	l.Append("insert", "engine", "c1", 1, 0, nil)
	mid := time.Now()
	time.Sleep(2 * time.Millisecond)
	l.Append("insert", "engine", "c1", 1, 0, nil)

	entries := l.Query(QueryFilter{Since: &mid})
	assert.Len(t, entries, 1)
}

func TestStatsAggregates(t *testing.T) {
	l := New(10)

	l.Append("insert", "alpha", "c1", 1, 0, nil)
	l.Append("insert", "alpha", "c1", 1, 0, nil)
	l.Append("ttl_sweep", "engine", "c1", 2, 0, nil)

	stats := l.Stats()
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.ByAction["insert"])
	assert.Equal(t, 1, stats.ByActor["engine"])
}

func TestExportProducesValidJSON(t *testing.T) {
	l := New(10)
	l.Append("insert", "engine", "c1", 1, 5*time.Millisecond, map[string]any{"ids": []string{"a"}})

	data, err := l.Export()
	require.NoError(t, err)
	assert.Contains(t, string(data), "\"action\":\"insert\"")
}

func TestTTLSweepEntryHasDocumentCount(t *testing.T) {
	l := New(10)
	e := l.Append("ttl_sweep", "engine", "c1", 3, 0, nil)
	assert.GreaterOrEqual(t, e.DocumentCount, 1)
}
