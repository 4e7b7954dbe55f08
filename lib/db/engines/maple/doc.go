// Package maple implements an in-memory, typed key-value database (KVDB).
// It provides a complete implementation of the db.KVDB interface and is the
// engine behind every mock client created by this module.
//
// Key Components:
//
//   - mapleImpl: The central database structure implementing db.KVDB. Each key holds
//     exactly one kind of value (string, hash, list or set). Writes and all access to
//     container values are serialized by a single mutex, so every operation is atomic
//     with respect to every other operation. Point reads of string values go directly
//     to the concurrent map and never block on writers.
//
//   - Entry (internal): The value of one key together with its kind and an optional
//     expiration deadline. Lists are stored in a deque, hashes and sets in Go maps.
//
//   - Ordered key index: A B-tree of all keys. Keys and Scan walk the index, which
//     gives a stable lexical order and makes the scan cursor a plain offset.
//
// Expiration:
//
//   - A key with a deadline in the past is treated as missing by every read.
//     The reading operation removes it if it holds the lock.
//
//   - A garbage collector goroutine wakes up every GCInterval and removes all keys
//     whose deadline has passed. Deadlines are tracked in a util.MapHeap so that the
//     collector only has to look at the top of the heap. The collector runs until
//     Close is called.
//
//   - The clock can be replaced via DBOptions.Clock, which allows tests to move time
//     forward without sleeping.
//
// Empty containers are removed: a hash, list or set whose last element is deleted no
// longer exists, matching the behavior of a Redis server.
package maple
