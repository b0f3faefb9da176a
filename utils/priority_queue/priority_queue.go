package priority_queue

import (
	"container/heap"
	"sync"
)

// QueueItem is a wrapper around the item to be stored in the priority queue.
type QueueItem[T any] struct {
	Item     T
	Priority int
	seq      uint64
	index    int
}

// PriorityQueue is a thread-safe max priority queue: higher priority values
// come first, and items with equal priority come out in insertion order.
// Stability comes from a monotonic sequence number assigned at push time,
// used as the tie-break in the heap comparison.
type PriorityQueue[T any] struct {
	queue   *heapQueue[T]
	nextSeq uint64
	mutex   sync.Mutex
}

// NewPriorityQueue creates an empty max priority queue with FIFO tie-break
func NewPriorityQueue[T any]() *PriorityQueue[T] {
	priorityQueue := &PriorityQueue[T]{
		queue: &heapQueue[T]{
			items: make([]*QueueItem[T], 0),
		},
	}

	heap.Init(priorityQueue.queue)
	return priorityQueue
}

// Push adds an item to the queue and returns the new queue length
func (pq *PriorityQueue[T]) Push(item *QueueItem[T]) int {
	pq.mutex.Lock()
	defer pq.mutex.Unlock()

	item.seq = pq.nextSeq
	pq.nextSeq++
	heap.Push(pq.queue, item)
	return len(pq.queue.items)
}

// Pop removes and returns the highest-priority item (earliest-pushed among
// ties). The second return is false when the queue is empty.
func (pq *PriorityQueue[T]) Pop() (T, bool) {
	pq.mutex.Lock()
	defer pq.mutex.Unlock()

	if len(pq.queue.items) == 0 {
		var zero T
		return zero, false
	}

	item := heap.Pop(pq.queue).(*QueueItem[T])
	return item.Item, true
}

// Size returns the number of items in the priority queue
func (pq *PriorityQueue[T]) Size() int {
	pq.mutex.Lock()
	defer pq.mutex.Unlock()
	return len(pq.queue.items)
}

// Drain removes every item and returns them in pop order.
func (pq *PriorityQueue[T]) Drain() []T {
	pq.mutex.Lock()
	defer pq.mutex.Unlock()

	items := make([]T, 0, len(pq.queue.items))
	for len(pq.queue.items) > 0 {
		item := heap.Pop(pq.queue).(*QueueItem[T])
		items = append(items, item.Item)
	}
	return items
}

// GetSnapshot returns a copy of all items without modifying the queue.
// Items are in internal heap order, not pop order.
func (pq *PriorityQueue[T]) GetSnapshot() []T {
	pq.mutex.Lock()
	defer pq.mutex.Unlock()

	items := make([]T, len(pq.queue.items))
	for i, item := range pq.queue.items {
		items[i] = item.Item
	}
	return items
}
