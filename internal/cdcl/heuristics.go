package cdcl

import "container/heap"

// activityHeap is a max-heap of unassigned variables ordered by
// activity score (ties broken by smallest variable id): a
// VSIDS-style decision queue built on the same container/heap.Interface
// dance as a watch-count max-heap, but keyed on a per-variable score
// bumped at conflicts and decayed on a schedule, rather than a static
// watch-list length.
type activityHeap struct {
	items []int
	pos   map[int]int
	score map[int]float64
}

func newActivityHeap() *activityHeap {
	return &activityHeap{pos: make(map[int]int), score: make(map[int]float64)}
}

func (h *activityHeap) Len() int { return len(h.items) }

func (h *activityHeap) Less(i, j int) bool {
	vi, vj := h.items[i], h.items[j]
	si, sj := h.score[vi], h.score[vj]
	if si != sj {
		return si > sj
	}
	return vi < vj
}

func (h *activityHeap) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.pos[h.items[i]] = i
	h.pos[h.items[j]] = j
}

func (h *activityHeap) Push(x interface{}) {
	v := x.(int)
	h.pos[v] = len(h.items)
	h.items = append(h.items, v)
}

func (h *activityHeap) Pop() interface{} {
	n := len(h.items)
	v := h.items[n-1]
	h.items = h.items[:n-1]
	delete(h.pos, v)
	return v
}

// push adds v to the heap at its currently cached score. Used when a
// variable becomes unassigned (backtracking, restart).
func (h *activityHeap) push(v int) {
	heap.Push(h, v)
}

// remove takes v out of the heap. Used when a variable becomes
// assigned, whether by decision or by propagation.
func (h *activityHeap) remove(v int) {
	if i, ok := h.pos[v]; ok {
		heap.Remove(h, i)
	}
}

// setScore records v's score and, if v is currently unassigned
// (present in the heap), re-heapifies around it. If v is assigned,
// the score is simply cached for when v returns to the heap.
func (h *activityHeap) setScore(v int, score float64) {
	h.score[v] = score
	if i, ok := h.pos[v]; ok {
		heap.Fix(h, i)
	}
}

// peek returns the id of the highest-priority unassigned variable
// (max score, ties to smallest id) without removing it. It panics if
// the heap is empty; callers only call it when they know an
// unassigned variable remains.
func (h *activityHeap) peek() int {
	return h.items[0]
}
