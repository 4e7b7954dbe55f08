package db

import (
	"errors"
	"time"
)

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplMaple Implementation = "maple"
)

// Feature represents database features as bit flags
type Feature uint64

const (
	FeatureStrings Feature = 1 << iota // Support for string values (Get, Set, IncrBy, ...)
	FeatureExpire                      // Support for key expiration (Expire, TTL, Persist)
	FeatureKeys                        // Support for key listing (Keys, Scan, DBSize)
	FeatureHashes                      // Support for hash values
	FeatureLists                       // Support for list values
	FeatureSets                        // Support for set values
	FeatureDump                        // Support for Dump
	FeatureGarbageCollect              // Support for background collection of expired keys
)

func (f Feature) String() string {
	switch f {
	case FeatureStrings:
		return "Strings"
	case FeatureExpire:
		return "Expire"
	case FeatureKeys:
		return "Keys"
	case FeatureHashes:
		return "Hashes"
	case FeatureLists:
		return "Lists"
	case FeatureSets:
		return "Sets"
	case FeatureDump:
		return "Dump"
	case FeatureGarbageCollect:
		return "GarbageCollect"
	default:
		return "Unknown"
	}
}

// Kind is the type of the value stored under a key.
type Kind string

const (
	KindNone   Kind = "none"
	KindString Kind = "string"
	KindHash   Kind = "hash"
	KindList   Kind = "list"
	KindSet    Kind = "set"
)

type DatabaseInfo struct {
	Keys              int            `json:"keys"`
	DbType            Implementation `json:"db_type"`
	SupportedFeatures []Feature      `json:"supported_features"`
	Metadata          interface{}    `json:"metadata"`
}

// SetArgs holds the optional arguments of a string write.
// NX and XX must not both be set.
type SetArgs struct {
	TTL time.Duration // 0 = no expiration
	NX  bool          // only set if the key does not exist
	XX  bool          // only set if the key exists
}

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

var (
	// ErrWrongType is returned when an operation is applied to a key holding a value of another kind.
	ErrWrongType = errors.New("operation against a key holding the wrong kind of value")
	// ErrNotInteger is returned when a value can't be interpreted as a 64-bit integer.
	ErrNotInteger = errors.New("value is not an integer or out of range")
	// ErrSyntax is returned for malformed arguments such as an invalid glob pattern.
	ErrSyntax = errors.New("syntax error")
)

// --------------------------------------------------------------------------
// Database Interface
// --------------------------------------------------------------------------

// KVDB defines an interface for an in-process, typed key-value engine.
// Keys map to exactly one value kind (string, hash, list or set). Operations on a key of
// another kind fail with ErrWrongType and leave the database unchanged.
// Missing keys behave like empty values of the requested kind.
// Implementations can vary in their feature support, which can be queried with SupportsFeature.
type KVDB interface {

	// --------------------------------------------------------------------------
	// Key Operations
	// --------------------------------------------------------------------------

	// Exists reports whether a key exists (and is not expired).
	Exists(key string) (ok bool)

	// Delete removes the given keys and returns how many of them existed.
	Delete(keys ...string) (n int)

	// Type returns the kind of the value stored at key, KindNone if the key does not exist.
	Type(key string) (kind Kind)

	// Expire sets a time to live on key. A ttl <= 0 deletes the key.
	// Returns false if the key does not exist.
	Expire(key string, ttl time.Duration) (ok bool)

	// Persist removes the time to live of key. Returns false if the key does not exist or has no ttl.
	Persist(key string) (ok bool)

	// TTL returns the remaining time to live of a key.
	// exists is false for missing keys, hasTTL is false for keys without expiration.
	TTL(key string) (ttl time.Duration, exists, hasTTL bool)

	// Keys returns all keys matching the glob pattern in lexical order.
	Keys(pattern string) (keys []string, err error)

	// Scan returns up to count keys starting at cursor, filtered by the glob pattern (empty = all).
	// The returned cursor is 0 once the iteration is complete. The filter is applied after a page
	// is collected, so a page may be empty while the cursor is not yet 0.
	Scan(cursor uint64, match string, count int) (next uint64, keys []string, err error)

	// DBSize returns the number of keys.
	DBSize() (n int)

	// Dump returns a serialized snapshot of the value stored at key.
	// Two dumps are equal if and only if the stored values are equal.
	Dump(key string) (data []byte, ok bool)

	// Flush removes all keys.
	Flush()

	// --------------------------------------------------------------------------
	// String Operations
	// --------------------------------------------------------------------------

	// Get returns the string value of a key. The boolean indicates whether the key was found.
	// The returned value is a copy and safe to modify.
	Get(key string) (value []byte, ok bool, err error)

	// Set stores a string value. Returns false if the NX/XX condition prevented the write.
	Set(key string, value []byte, args SetArgs) (ok bool, err error)

	// MGet returns the values of all keys; missing keys and keys of other kinds yield nil.
	MGet(keys ...string) (values [][]byte)

	// IncrBy increments the integer stored at key by delta and returns the new value.
	IncrBy(key string, delta int64) (n int64, err error)

	// --------------------------------------------------------------------------
	// Hash Operations
	// --------------------------------------------------------------------------

	HSet(key, field string, value []byte) (created bool, err error)
	HGet(key, field string) (value []byte, ok bool, err error)
	HExists(key, field string) (ok bool, err error)
	HGetAll(key string) (fields map[string][]byte, err error)
	HMSet(key string, fields map[string][]byte) (err error)
	HMGet(key string, fields ...string) (values [][]byte, err error)
	HDel(key string, fields ...string) (n int, err error)
	HKeys(key string) (fields []string, err error)
	HVals(key string) (values [][]byte, err error)
	HLen(key string) (n int, err error)
	HIncrBy(key, field string, delta int64) (n int64, err error)

	// --------------------------------------------------------------------------
	// List Operations
	// --------------------------------------------------------------------------

	LLen(key string) (n int, err error)
	LPush(key string, values ...[]byte) (n int, err error)
	RPush(key string, values ...[]byte) (n int, err error)
	LPop(key string) (value []byte, ok bool, err error)
	RPop(key string) (value []byte, ok bool, err error)
	// LRange returns the elements between start and stop (inclusive, negative indexes count from the tail).
	LRange(key string, start, stop int) (values [][]byte, err error)
	LIndex(key string, index int) (value []byte, ok bool, err error)
	// RPopLPush atomically moves the tail of src to the head of dst.
	RPopLPush(src, dst string) (value []byte, ok bool, err error)

	// --------------------------------------------------------------------------
	// Set Operations
	// --------------------------------------------------------------------------

	SAdd(key string, members ...[]byte) (n int, err error)
	SRem(key string, members ...[]byte) (n int, err error)
	SCard(key string) (n int, err error)
	SIsMember(key string, member []byte) (ok bool, err error)
	// SMembers returns all members in lexical order.
	SMembers(key string) (members [][]byte, err error)
	SDiff(keys ...string) (members [][]byte, err error)
	SDiffStore(dst string, keys ...string) (n int, err error)
	SInter(keys ...string) (members [][]byte, err error)
	SInterStore(dst string, keys ...string) (n int, err error)
	SUnion(keys ...string) (members [][]byte, err error)
	SUnionStore(dst string, keys ...string) (n int, err error)
	// SMove moves member from src to dst. Both keys must hold sets (or not exist).
	SMove(src, dst string, member []byte) (moved bool, err error)
	// SPop removes and returns a random member.
	SPop(key string) (member []byte, ok bool, err error)
	// SRandMember returns a random member without removing it.
	SRandMember(key string) (member []byte, ok bool, err error)
	// SScan works like Scan over the members of a set.
	SScan(key string, cursor uint64, match string, count int) (next uint64, members [][]byte, err error)

	// --------------------------------------------------------------------------
	// Feature Support
	// --------------------------------------------------------------------------

	// SupportsFeature checks if the database implementation supports the specified feature.
	// Returns true if the feature is supported, false otherwise.
	// Multiple features can be checked at once using bitwise OR (|) operator.
	SupportsFeature(feature Feature) (ok bool)

	// GetInfo returns information about the database.
	GetInfo() (info DatabaseInfo)

	// Close closes the database.
	Close() (err error)
}
