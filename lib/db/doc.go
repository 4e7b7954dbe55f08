// Package db provides the interface of the in-process engine that backs the client double.
// It defines a typed KVDB interface (strings, hashes, lists and sets) that allows the command
// facade to interact with any engine while abstracting its implementation details.
//
// The package focuses on:
//   - A unified interface for typed key-value operations
//   - Feature discovery through capability flags
//   - A small set of sentinel errors shared by all engines
//
// Key Components:
//
//   - KVDB Interface: The core interface that all engines must satisfy. It provides key
//     operations (Exists, Delete, Expire, TTL, Keys, Scan, Dump), string operations,
//     and the hash, list and set primitives. All operations are synchronous and return
//     immediately.
//
//   - Feature Flags: The Feature type defines capability flags that implementations
//     can advertise through the SupportsFeature method. The command facade checks these
//     flags before it dispatches a command.
//
//   - Errors: ErrWrongType is the generic kind mismatch error. Engines return it whenever an
//     operation is applied to a key holding another kind of value. Callers of the facade never
//     see it directly, the facade translates it into a reply error.
//
// Note on Expiration:
//   - Expiration is wall-clock based. Expired keys are never visible to any read operation,
//     even if they are still physically present pending collection.
//
// Related Packages:
//
// The engines/maple package provides the default implementation using a concurrent in-memory
// map, an ordered key index and a background garbage collector for expired keys.
//
// The testing package provides a standardized test suite (RunKVDBTests) for engines that
// satisfy the db.KVDB interface.
package db
