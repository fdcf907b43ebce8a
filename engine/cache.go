package engine

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/lucelabs/vessel/collection"
)

// queryCache wraps a ristretto.Cache with the coarse-grained, generation
// based invalidation the query cache is specified to use: ristretto has no
// prefix-delete, so every insert or delete into a collection bumps that
// collection's generation counter and every cache key folds the generation
// in. Stale entries simply become unreachable and age out under ristretto's
// own cost-based eviction rather than being actively purged.
type queryCache struct {
	cache *ristretto.Cache
	ttl   time.Duration

	gen map[string]int64
}

func newQueryCache(maxCost int64, resultTTL time.Duration) (*queryCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxCost * 10,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	return &queryCache{cache: c, ttl: resultTTL, gen: make(map[string]int64)}, nil
}

func (qc *queryCache) generation(collectionName string) int64 {
	return qc.gen[collectionName]
}

func (qc *queryCache) invalidate(collectionName string) {
	qc.gen[collectionName]++
}

func (qc *queryCache) key(collectionName string, vector []float64, filter map[string]any, topK int, forceFlat bool, efSearch int) string {
	h := fnv.New64a()
	var buf [8]byte
	for _, f := range vector {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		h.Write(buf[:])
	}

	return fmt.Sprintf("%s|gen=%d|vec=%x|k=%d|filter=%v|flat=%t|ef=%d",
		collectionName, qc.generation(collectionName), h.Sum64(), topK, filter, forceFlat, efSearch)
}

func (qc *queryCache) get(key string) (collection.QueryResult, bool) {
	v, ok := qc.cache.Get(key)
	if !ok {
		return collection.QueryResult{}, false
	}

	res, ok := v.(collection.QueryResult)
	return res, ok
}

func (qc *queryCache) set(key string, res collection.QueryResult) {
	qc.cache.SetWithTTL(key, res, int64(len(res.Results))+1, qc.ttl)
	// ristretto applies sets through an internal buffer; wait for it so the
	// next identical query can see this entry.
	qc.cache.Wait()
}

// stillFresh reports whether every result in res carries no expired TTL as
// of now; a stale cached entry with an expired member is recomputed rather
// than served, since the document-level TTL contract always wins over the
// cache's own result TTL.
func stillFresh(res collection.QueryResult, now time.Time) bool {
	nowMs := now.UnixMilli()

	for _, r := range res.Results {
		v, ok := r.Metadata["_ttl_expires"]
		if !ok {
			continue
		}

		f, ok := v.AsFloat64()
		if ok && int64(f) <= nowMs {
			return false
		}
	}

	return true
}
