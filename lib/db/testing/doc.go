// Package testing provides a standardised conformance suite for
// database implementations that satisfy the db.KVDB interface.
//
// The suite covers string values with their write conditions and expiration,
// the hash, list and set kinds, type errors, cursor based iteration and dumps.
// Tests for features an implementation does not report via SupportsFeature are skipped.
//
// Example usage:
//
//	// Creating a factory function for your implementation
//	factory := func() db.KVDB {
//		return NewMyDatabase()
//	}
//
//	// Running the standard test suite
//	dbtesting.RunKVDBTests(t, "MyDatabase", factory)
package testing
