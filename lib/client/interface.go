package client

import (
	"github.com/ValentinKolb/mkv/lib/codec"
)

// --------------------------------------------------------------------------
// Option Types
// --------------------------------------------------------------------------

// SetCondition restricts a Set to existing or to missing keys
type SetCondition int

const (
	SetAlways     SetCondition = iota // no condition (default)
	SetIfExist                        // only set the key if it already exists (XX)
	SetIfNotExist                     // only set the key if it does not exist (NX)
)

func (c SetCondition) String() string {
	switch c {
	case SetAlways:
		return "always"
	case SetIfExist:
		return "XX"
	case SetIfNotExist:
		return "NX"
	default:
		return "unknown"
	}
}

// SetOptions holds the optional arguments of Set.
// Expire and PExpire must not both be set.
type SetOptions struct {
	Expire  int64        // time to live in seconds (0 = none)
	PExpire int64        // time to live in milliseconds (0 = none)
	Exist   SetCondition // write condition
}

// ScanOptions holds the optional arguments of the scan operations
type ScanOptions struct {
	Match string // glob pattern, "" matches everything
	Count int    // page size hint, 0 uses the engine default
}

// --------------------------------------------------------------------------
// Capability Interfaces
// --------------------------------------------------------------------------

// Read operations take the encoding of the reply as an optional trailing argument.
// Omitting it uses the default encoding of the client, codec.Raw returns []byte values.

// IGenericCommands holds the operations that work on keys of any kind and on string values.
type IGenericCommands interface {
	// Delete removes the given keys and returns the number of removed keys.
	Delete(key string, keys ...string) (int64, error)
	// Exists returns how many of the given keys exist. A key given multiple times is counted multiple times.
	Exists(key string, keys ...string) (int64, error)
	// Expire sets a timeout in seconds. Only integer timeouts are accepted, everything else
	// (including float64 and time.Duration) fails with an *ArgumentError.
	Expire(key string, timeout any) (bool, error)
	// PExpire is like Expire with a timeout in milliseconds.
	PExpire(key string, timeout any) (bool, error)
	Persist(key string) (bool, error)
	// TTL returns the remaining time to live in seconds, -1 for keys without ttl and -2 for missing keys.
	TTL(key string) (int64, error)
	PTTL(key string) (int64, error)
	Type(key string) (string, error)

	Get(key string, enc ...codec.Encoding) (any, error)
	// Set stores value (see codec.Encode for the accepted types). It returns false if the
	// write condition prevented the write. opts may be nil.
	Set(key string, value any, opts *SetOptions) (bool, error)
	Incr(key string) (int64, error)
	IncrBy(key string, amount int64) (int64, error)
	Decr(key string) (int64, error)
	DecrBy(key string, amount int64) (int64, error)
	MGet(keys []string, enc ...codec.Encoding) ([]any, error)

	Keys(pattern string, enc ...codec.Encoding) ([]any, error)
	DBSize() (int64, error)
	// Scan returns one page of keys and the cursor of the next page (0 when done).
	Scan(cursor uint64, opts *ScanOptions, enc ...codec.Encoding) (uint64, []any, error)
	// IScan iterates over all keys.
	IScan(opts *ScanOptions, enc ...codec.Encoding) *ScanIter
	FlushDB() error
}

// IHashCommands holds the operations on hash values
type IHashCommands interface {
	HSet(key, field string, value any) (int64, error)
	HGet(key, field string, enc ...codec.Encoding) (any, error)
	HExists(key, field string) (bool, error)
	HGetAll(key string, enc ...codec.Encoding) (map[string]any, error)
	// HMSet sets field to value and every further field/value pair. An odd number of
	// pairs fails with an *ArgumentError.
	HMSet(key string, field string, value any, pairs ...any) error
	// HMSetDict sets all fields of a map. An empty map fails with an *ArgumentError.
	HMSetDict(key string, fields map[string]any) error
	HMGet(key string, field string, fields []string, enc ...codec.Encoding) ([]any, error)
	HDel(key string, field string, fields ...string) (int64, error)
	HKeys(key string, enc ...codec.Encoding) ([]any, error)
	HVals(key string, enc ...codec.Encoding) ([]any, error)
	HLen(key string) (int64, error)
	HIncrBy(key, field string, amount int64) (int64, error)
}

// IListCommands holds the operations on list values
type IListCommands interface {
	LLen(key string) (int64, error)
	LPush(key string, value any, values ...any) (int64, error)
	RPush(key string, value any, values ...any) (int64, error)
	LPop(key string, enc ...codec.Encoding) (any, error)
	RPop(key string, enc ...codec.Encoding) (any, error)
	LRange(key string, start, stop int64, enc ...codec.Encoding) ([]any, error)
	LIndex(key string, index int64, enc ...codec.Encoding) (any, error)
	RPopLPush(src, dst string, enc ...codec.Encoding) (any, error)
}

// ISetCommands holds the operations on set values
type ISetCommands interface {
	SAdd(key string, member any, members ...any) (int64, error)
	SCard(key string) (int64, error)
	SDiff(key string, keys []string, enc ...codec.Encoding) ([]any, error)
	SDiffStore(dst, key string, keys ...string) (int64, error)
	SInter(key string, keys []string, enc ...codec.Encoding) ([]any, error)
	SInterStore(dst, key string, keys ...string) (int64, error)
	SIsMember(key string, member any) (bool, error)
	SMembers(key string, enc ...codec.Encoding) ([]any, error)
	// SMove moves member from src to dst. A key of another kind fails with a WRONGTYPE *ReplyError.
	SMove(src, dst string, member any) (bool, error)
	// SPop removes and returns one random member, nil if the set is empty.
	SPop(key string, enc ...codec.Encoding) (any, error)
	// SPopCount removes up to count random members. A negative count fails with a *ReplyError.
	SPopCount(key string, count int64, enc ...codec.Encoding) ([]any, error)
	// SRandMember returns one random member without removing it.
	SRandMember(key string, enc ...codec.Encoding) (any, error)
	// SRandMemberCount returns up to count distinct members, or |count| members that may
	// repeat if count is negative. The set is never modified.
	SRandMemberCount(key string, count int64, enc ...codec.Encoding) ([]any, error)
	SRem(key string, member any, members ...any) (int64, error)
	SUnion(key string, keys []string, enc ...codec.Encoding) ([]any, error)
	SUnionStore(dst, key string, keys ...string) (int64, error)
	SScan(key string, cursor uint64, opts *ScanOptions, enc ...codec.Encoding) (uint64, []any, error)
	ISScan(key string, opts *ScanOptions, enc ...codec.Encoding) *ScanIter
}

// IRedis is the complete command surface of a client
type IRedis interface {
	IGenericCommands
	IHashCommands
	IListCommands
	ISetCommands

	// Pipeline returns a new transaction batch bound to this client.
	Pipeline() *Pipeline
	// Do executes a command given by its name, e.g. Do("SET", "foo", "bar", "EX", 10).
	Do(name string, args ...any) (any, error)
	// Encoding returns the default encoding of the client.
	Encoding() codec.Encoding
	// Close releases the engine if it is owned by the client.
	Close() error
}
