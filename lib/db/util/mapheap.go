// Package util
//
// This file provides a specialized priority queue for garbage collection purposes.
//
// The implementation combines a binary heap with a hash map to provide both
// efficient priority-based operations and key-based access. The engine uses it
// to track key deadlines: the key with the earliest deadline is always at the top,
// and a key whose deadline changes (or which is deleted) can be updated directly.
//
// Time Complexity:
//   - O(log n) for priority operations (Push, Pop, Update)
//   - O(1) for key-based lookups and existence checks
//   - O(log n) for key-based removal
//
// Concurrency Considerations:
//   - This implementation is not thread-safe
//   - For concurrent use, external synchronization should be applied
//
// Example usage:
//
//	gcQueue := NewMapHeap[string]()
//
//	gcQueue.AddItem("session:1", deadline1)
//	gcQueue.AddItem("session:2", deadline2)
//
//	oldest, exists := gcQueue.Peek()
//
//	gcQueue.RemoveByKey("session:1")
package util

import (
	"container/heap"
	"fmt"
)

// Item represents an item in the garbage collection queue
type Item[K comparable] struct {
	Key      K     // Unique identifier for the item
	Priority int64 // Priority used for ordering in the heap (lower first)
	index    int   // Index in the heap, maintained by heap package
}

func (i *Item[K]) String() string {
	return fmt.Sprintf("{Key: %v, Priority: %d}", i.Key, i.Priority)
}

// MapHeap implements a min priority queue with both heap operations and key-based access
type MapHeap[K comparable] struct {
	items    []*Item[K]     // The actual heap slice
	itemsMap map[K]*Item[K] // Map for O(1) access by key
}

// NewMapHeap creates a new, empty queue
func NewMapHeap[K comparable]() *MapHeap[K] {
	return &MapHeap[K]{
		items:    make([]*Item[K], 0),
		itemsMap: make(map[K]*Item[K]),
	}
}

// Len returns the number of items in the queue (part of heap.Interface)
func (gcq *MapHeap[K]) Len() int { return len(gcq.items) }

// Less compares items by priority (part of heap.Interface)
func (gcq *MapHeap[K]) Less(i, j int) bool {
	return gcq.items[i].Priority < gcq.items[j].Priority
}

// Swap exchanges items at positions i and j (part of heap.Interface)
func (gcq *MapHeap[K]) Swap(i, j int) {
	gcq.items[i], gcq.items[j] = gcq.items[j], gcq.items[i]
	gcq.items[i].index = i
	gcq.items[j].index = j
}

// Push adds an item to the heap (part of heap.Interface)
func (gcq *MapHeap[K]) Push(x interface{}) {
	it := x.(*Item[K])
	it.index = len(gcq.items)
	gcq.items = append(gcq.items, it)
	gcq.itemsMap[it.Key] = it
}

// Pop removes and returns the minimum item (part of heap.Interface)
func (gcq *MapHeap[K]) Pop() interface{} {
	old := gcq.items
	n := len(old)
	it := old[n-1]
	old[n-1] = nil // avoid memory leak
	it.index = -1
	gcq.items = old[:n-1]
	delete(gcq.itemsMap, it.Key)
	return it
}

// AddItem adds a new item to the queue or updates the priority of an existing one
func (gcq *MapHeap[K]) AddItem(key K, priority int64) {
	if it, exists := gcq.itemsMap[key]; exists {
		it.Priority = priority
		heap.Fix(gcq, it.index)
		return
	}
	heap.Push(gcq, &Item[K]{Key: key, Priority: priority})
}

// RemoveByKey removes an item by its key and returns its priority
func (gcq *MapHeap[K]) RemoveByKey(key K) (int64, bool) {
	it, exists := gcq.itemsMap[key]
	if !exists {
		return 0, false
	}
	heap.Remove(gcq, it.index)
	return it.Priority, true
}

// Peek returns the minimum item without removing it
func (gcq *MapHeap[K]) Peek() (*Item[K], bool) {
	if len(gcq.items) == 0 {
		return nil, false
	}
	return gcq.items[0], true
}

// Contains checks if a key exists in the queue
func (gcq *MapHeap[K]) Contains(key K) bool {
	_, exists := gcq.itemsMap[key]
	return exists
}

// GetByKey retrieves an item by its key without removing it
func (gcq *MapHeap[K]) GetByKey(key K) (*Item[K], bool) {
	it, exists := gcq.itemsMap[key]
	return it, exists
}

// Clear removes all items
func (gcq *MapHeap[K]) Clear() {
	gcq.items = make([]*Item[K], 0)
	gcq.itemsMap = make(map[K]*Item[K])
}
