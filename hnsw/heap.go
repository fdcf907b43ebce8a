package hnsw

// item is a single entry in a search pool: the dense arena index of a node
// and its score against the query (higher is better, for every metric,
// since metric.Score already negates Euclidean distance).
type item struct {
	idx   uint32
	score float64
}

// itemHeap implements container/heap.Interface over []item. order selects
// max-heap (candidate pool: pop the best score first) or min-heap (results
// pool: Top() is the worst score, for O(log ef) trimming).
type itemHeap struct {
	items []item
	order bool // true = max-heap, false = min-heap
}

func (h *itemHeap) Len() int { return len(h.items) }

func (h *itemHeap) Less(i, j int) bool {
	if h.order {
		return h.items[i].score > h.items[j].score
	}
	return h.items[i].score < h.items[j].score
}

func (h *itemHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *itemHeap) Push(x any) { h.items = append(h.items, x.(item)) }

func (h *itemHeap) Pop() any {
	old := h.items
	n := len(old)
	it := old[n-1]
	h.items = old[:n-1]
	return it
}

// Top returns the root without removing it. The caller must not call this
// on an empty heap.
func (h *itemHeap) Top() item { return h.items[0] }
