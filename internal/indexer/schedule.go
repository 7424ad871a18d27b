package indexer

import (
	"container/heap"
	"time"

	"github.com/bazhenov/tindex/internal/source"
)

// scheduled pairs a query with its next execution time.
type scheduled struct {
	at    time.Time
	query source.Query
}

// scheduleHeap is a min-heap over execution times, so the worker always
// sleeps toward the nearest run.
type scheduleHeap []scheduled

func newSchedule(queries []source.Query, now time.Time) *scheduleHeap {
	h := &scheduleHeap{}
	for _, q := range queries {
		if at := q.Schedule.Next(now); !at.IsZero() {
			*h = append(*h, scheduled{at: at, query: q})
		}
	}
	heap.Init(h)
	return h
}

func (h scheduleHeap) Len() int            { return len(h) }
func (h scheduleHeap) Less(i, j int) bool  { return h[i].at.Before(h[j].at) }
func (h scheduleHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *scheduleHeap) Push(x interface{}) { *h = append(*h, x.(scheduled)) }

func (h *scheduleHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
