// Package util provides utility components for engines that satisfy the db.KVDB interface.
//
// The package contains:
//   - functions: Seed and random source helpers
//   - mapheap: A priority queue for garbage collection that also supports key-based access
package util
