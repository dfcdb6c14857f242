package matching

import (
	"container/heap"
)

type neighbor struct {
	idx      int
	distance float64
}

// worse reports whether a ranks behind b: larger distance, or equal
// distance and larger index.
func worse(a, b neighbor) bool {
	if a.distance != b.distance {
		return a.distance > b.distance
	}
	return a.idx > b.idx
}

// neighborHeapInterface implements heap.Interface with the worst neighbour
// on top, so trimming the heap drops it first.
type neighborHeapInterface []neighbor

func (h neighborHeapInterface) Len() int {
	return len(h)
}

func (h neighborHeapInterface) Less(i, j int) bool {
	return worse(h[i], h[j])
}

func (h neighborHeapInterface) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *neighborHeapInterface) Push(x interface{}) {
	*h = append(*h, x.(neighbor))
}

func (h *neighborHeapInterface) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// neighborHeap keeps the bound nearest neighbours seen so far.
type neighborHeap struct {
	interf *neighborHeapInterface
	bound  int
}

func newNeighborHeap(bound int) *neighborHeap {
	interf := make(neighborHeapInterface, 0, bound+1)
	return &neighborHeap{interf: &interf, bound: bound}
}

// Add offers a candidate, evicting the worst entry once the bound is exceeded.
func (h *neighborHeap) Add(idx int, distance float64) {
	heap.Push(h.interf, neighbor{idx: idx, distance: distance})
	for h.interf.Len() > h.bound {
		heap.Pop(h.interf)
	}
}

// Sorted returns the kept neighbours, nearest first. The heap is left intact.
func (h *neighborHeap) Sorted() []neighbor {
	n := h.interf.Len()
	tmp := make(neighborHeapInterface, n)
	copy(tmp, *h.interf)
	res := make([]neighbor, n)
	for i := 0; i < n; i++ {
		res[n-i-1] = heap.Pop(&tmp).(neighbor)
	}
	return res
}
