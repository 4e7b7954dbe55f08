package maple

import (
	"math"
	"math/rand/v2"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/mkv/lib/db"
	"github.com/ValentinKolb/mkv/lib/db/engines/maple/internal"
	"github.com/ValentinKolb/mkv/lib/db/util"
	"github.com/google/btree"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("maple")

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	defaultGCInterval = 100 * time.Millisecond // Default interval between GC runs
	defaultScanCount  = 10                     // Default page size of Scan and SScan
	btreeDegree       = 32                     // Degree of the ordered key index
)

// --------------------------------------------------------------------------
// Core Maple database structure
// --------------------------------------------------------------------------

// mapleImpl implements an in-memory, typed key-value engine
type mapleImpl struct {
	// mu serializes all writes and all reads of container values.
	// Point reads of string values (Get, Exists, Type, TTL) only use the concurrent map.
	mu     sync.Mutex
	data   *xsync.MapOf[string, internal.Entry] // active entries
	index  *btree.BTreeG[string]                // ordered key index (Keys, Scan)
	expiry *util.MapHeap[string]                // key deadlines for the garbage collector
	rnd    *rand.Rand                           // random source for SPop / SRandMember
	clock  func() time.Time

	// garbage collection
	gcInterval  time.Duration
	gcIsRunning atomic.Bool
	gcStop      chan struct{}
	gcDone      chan struct{}
}

// DBOptions configures the mapleImpl behavior during initialization
type DBOptions struct {
	GCInterval time.Duration    // Time between GC runs (0 = use default)
	Clock      func() time.Time // Source of the current time (nil = time.Now)
}

// DefaultOptions returns the default mapleImpl options
func DefaultOptions() *DBOptions {
	return &DBOptions{
		GCInterval: defaultGCInterval,
		Clock:      time.Now,
	}
}

// --------------------------------------------------------------------------
// Initialization and Setup
// --------------------------------------------------------------------------

// NewMapleDB creates a new MapleDB instance with the specified options (optional)
func NewMapleDB(opts *DBOptions) db.KVDB {

	// Generate default options if not provided
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.GCInterval <= 0 {
		opts.GCInterval = defaultGCInterval
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	newDB := &mapleImpl{
		data:       xsync.NewMapOf[string, internal.Entry](),
		index:      btree.NewG[string](btreeDegree, func(a, b string) bool { return a < b }),
		expiry:     util.NewMapHeap[string](),
		rnd:        util.NewRand(),
		clock:      opts.Clock,
		gcInterval: opts.GCInterval,
		gcStop:     make(chan struct{}),
		gcDone:     make(chan struct{}),
	}

	// start garbage collection
	newDB.startGC()

	return newDB
}

// --------------------------------------------------------------------------
// Entry helpers (the caller must hold mu unless stated otherwise)
// --------------------------------------------------------------------------

func (maple *mapleImpl) now() int64 {
	return maple.clock().UnixNano()
}

// peek loads a live entry without taking the lock. Expired entries are reported as missing.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) peek(key string) (internal.Entry, bool) {
	e, ok := maple.data.Load(key)
	if !ok || e.Expired(maple.now()) {
		return internal.Entry{}, false
	}
	return e, true
}

// live loads a live entry and removes it if it is expired
func (maple *mapleImpl) live(key string) (internal.Entry, bool) {
	e, ok := maple.data.Load(key)
	if !ok {
		return internal.Entry{}, false
	}
	if e.Expired(maple.now()) {
		maple.remove(key)
		return internal.Entry{}, false
	}
	return e, true
}

// typed loads a live entry of the given kind.
// A missing key yields a new empty entry if create is true.
// The returned bool reports whether the key existed.
func (maple *mapleImpl) typed(key string, kind db.Kind, create bool) (internal.Entry, bool, error) {
	e, ok := maple.live(key)
	if ok {
		if e.Kind != kind {
			return internal.Entry{}, true, db.ErrWrongType
		}
		return e, true, nil
	}
	if create {
		e = internal.NewEntry(kind)
		maple.put(key, e)
	}
	return e, false, nil
}

// put stores an entry and keeps the key index and the expiry heap in sync
func (maple *mapleImpl) put(key string, e internal.Entry) {
	maple.data.Store(key, e)
	maple.index.ReplaceOrInsert(key)
	if e.ExpireAt != 0 {
		maple.expiry.AddItem(key, e.ExpireAt)
	} else {
		maple.expiry.RemoveByKey(key)
	}
}

// remove deletes an entry from all structures
func (maple *mapleImpl) remove(key string) {
	maple.data.Delete(key)
	maple.index.Delete(key)
	maple.expiry.RemoveByKey(key)
}

// cleanup removes a container entry that no longer holds any element
func (maple *mapleImpl) cleanup(key string, e internal.Entry) {
	if e.Empty() {
		maple.remove(key)
	}
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}

// --------------------------------------------------------------------------
// Key Operations
// --------------------------------------------------------------------------

// Exists reports whether a key exists.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Exists(key string) bool {
	_, ok := maple.peek(key)
	return ok
}

// Delete removes the given keys and returns how many of them existed.
// A key given multiple times is only counted once.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Delete(keys ...string) int {
	maple.mu.Lock()
	defer maple.mu.Unlock()

	n := 0
	for _, key := range keys {
		if _, ok := maple.live(key); ok {
			maple.remove(key)
			n++
		}
	}
	return n
}

// Type returns the kind of the value stored at key.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Type(key string) db.Kind {
	if e, ok := maple.peek(key); ok {
		return e.Kind
	}
	return db.KindNone
}

// Expire sets a time to live on key. A ttl <= 0 deletes the key immediately.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Expire(key string, ttl time.Duration) bool {
	maple.mu.Lock()
	defer maple.mu.Unlock()

	e, ok := maple.live(key)
	if !ok {
		return false
	}
	if ttl <= 0 {
		maple.remove(key)
		return true
	}
	e.ExpireAt = maple.now() + int64(ttl)
	maple.put(key, e)
	return true
}

// Persist removes the expiration of a key.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Persist(key string) bool {
	maple.mu.Lock()
	defer maple.mu.Unlock()

	e, ok := maple.live(key)
	if !ok || e.ExpireAt == 0 {
		return false
	}
	e.ExpireAt = 0
	maple.put(key, e)
	return true
}

// TTL returns the remaining time to live of a key.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) TTL(key string) (time.Duration, bool, bool) {
	e, ok := maple.peek(key)
	if !ok {
		return 0, false, false
	}
	if e.ExpireAt == 0 {
		return 0, true, false
	}
	return time.Duration(e.ExpireAt - maple.now()), true, true
}

// Keys returns all keys matching pattern in lexical order.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Keys(pattern string) ([]string, error) {
	match, err := internal.CompileMatcher(pattern)
	if err != nil {
		return nil, err
	}

	maple.mu.Lock()
	defer maple.mu.Unlock()

	keys := make([]string, 0)
	now := maple.now()
	maple.index.Ascend(func(key string) bool {
		if e, ok := maple.data.Load(key); ok && !e.Expired(now) && match(key) {
			keys = append(keys, key)
		}
		return true
	})
	return keys, nil
}

// Scan iterates the key space in lexical order. The cursor is the number of keys
// already visited, so a full iteration over an unchanged database visits every key exactly once.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Scan(cursor uint64, pattern string, count int) (uint64, []string, error) {
	match, err := internal.CompileMatcher(pattern)
	if err != nil {
		return 0, nil, err
	}
	if count <= 0 {
		count = defaultScanCount
	}

	maple.mu.Lock()
	defer maple.mu.Unlock()

	var (
		page    = make([]string, 0)
		pos     uint64
		visited int
		done    = true
		now     = maple.now()
	)
	maple.index.Ascend(func(key string) bool {
		if pos < cursor {
			pos++
			return true
		}
		if visited == count {
			done = false
			return false
		}
		pos++
		visited++
		if e, ok := maple.data.Load(key); ok && !e.Expired(now) && match(key) {
			page = append(page, key)
		}
		return true
	})

	if done {
		return 0, page, nil
	}
	return pos, page, nil
}

// DBSize returns the number of live keys.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) DBSize() int {
	maple.mu.Lock()
	defer maple.mu.Unlock()

	n := 0
	now := maple.now()
	maple.data.Range(func(_ string, e internal.Entry) bool {
		if !e.Expired(now) {
			n++
		}
		return true
	})
	return n
}

// Dump returns a serialized snapshot of the value stored at key.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Dump(key string) ([]byte, bool) {
	maple.mu.Lock()
	defer maple.mu.Unlock()

	e, ok := maple.live(key)
	if !ok {
		return nil, false
	}
	return internal.Dump(e), true
}

// Flush removes all keys.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Flush() {
	maple.mu.Lock()
	defer maple.mu.Unlock()

	maple.data.Clear()
	maple.index.Clear(false)
	maple.expiry.Clear()
}

// --------------------------------------------------------------------------
// String Operations
// --------------------------------------------------------------------------

// Get returns the string value of a key.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Get(key string) ([]byte, bool, error) {
	e, ok := maple.peek(key)
	if !ok {
		return nil, false, nil
	}
	if e.Kind != db.KindString {
		return nil, false, db.ErrWrongType
	}
	return copyBytes(e.Str), true, nil
}

// Set stores a string value. An existing value of any kind is replaced and its
// expiration is cleared unless args.TTL is set.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Set(key string, value []byte, args db.SetArgs) (bool, error) {
	if args.NX && args.XX {
		return false, db.ErrSyntax
	}

	maple.mu.Lock()
	defer maple.mu.Unlock()

	_, exists := maple.live(key)
	if (args.NX && exists) || (args.XX && !exists) {
		return false, nil
	}

	e := internal.Entry{Kind: db.KindString, Str: copyBytes(value)}
	if e.Str == nil {
		e.Str = []byte{}
	}
	if args.TTL > 0 {
		e.ExpireAt = maple.now() + int64(args.TTL)
	}
	maple.put(key, e)
	return true, nil
}

// MGet returns the string values of all keys, nil for missing keys and keys of other kinds.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) MGet(keys ...string) [][]byte {
	values := make([][]byte, len(keys))
	for i, key := range keys {
		if e, ok := maple.peek(key); ok && e.Kind == db.KindString {
			values[i] = copyBytes(e.Str)
		}
	}
	return values
}

// IncrBy increments the integer stored at key. The expiration of the key is kept.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) IncrBy(key string, delta int64) (int64, error) {
	maple.mu.Lock()
	defer maple.mu.Unlock()

	e, exists, err := maple.typed(key, db.KindString, false)
	if err != nil {
		return 0, err
	}

	var current int64
	if exists {
		if current, err = strconv.ParseInt(string(e.Str), 10, 64); err != nil {
			return 0, db.ErrNotInteger
		}
	} else {
		e = internal.Entry{Kind: db.KindString}
	}

	n, err := addInt64(current, delta)
	if err != nil {
		return 0, err
	}
	e.Str = []byte(strconv.FormatInt(n, 10))
	maple.put(key, e)
	return n, nil
}

// addInt64 adds two integers and fails on overflow
func addInt64(a, b int64) (int64, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, db.ErrNotInteger
	}
	return a + b, nil
}

// --------------------------------------------------------------------------
// Hash Operations
// --------------------------------------------------------------------------

func (maple *mapleImpl) HSet(key, field string, value []byte) (bool, error) {
	maple.mu.Lock()
	defer maple.mu.Unlock()

	e, _, err := maple.typed(key, db.KindHash, true)
	if err != nil {
		return false, err
	}
	_, exists := e.Hash[field]
	e.Hash[field] = copyBytes(value)
	return !exists, nil
}

func (maple *mapleImpl) HGet(key, field string) ([]byte, bool, error) {
	maple.mu.Lock()
	defer maple.mu.Unlock()

	e, exists, err := maple.typed(key, db.KindHash, false)
	if err != nil || !exists {
		return nil, false, err
	}
	v, ok := e.Hash[field]
	return copyBytes(v), ok, nil
}

func (maple *mapleImpl) HExists(key, field string) (bool, error) {
	maple.mu.Lock()
	defer maple.mu.Unlock()

	e, exists, err := maple.typed(key, db.KindHash, false)
	if err != nil || !exists {
		return false, err
	}
	_, ok := e.Hash[field]
	return ok, nil
}

func (maple *mapleImpl) HGetAll(key string) (map[string][]byte, error) {
	maple.mu.Lock()
	defer maple.mu.Unlock()

	fields := make(map[string][]byte)
	e, exists, err := maple.typed(key, db.KindHash, false)
	if err != nil || !exists {
		return fields, err
	}
	for f, v := range e.Hash {
		fields[f] = copyBytes(v)
	}
	return fields, nil
}

func (maple *mapleImpl) HMSet(key string, fields map[string][]byte) error {
	maple.mu.Lock()
	defer maple.mu.Unlock()

	if len(fields) == 0 {
		return db.ErrSyntax
	}
	e, _, err := maple.typed(key, db.KindHash, true)
	if err != nil {
		return err
	}
	for f, v := range fields {
		e.Hash[f] = copyBytes(v)
	}
	return nil
}

func (maple *mapleImpl) HMGet(key string, fields ...string) ([][]byte, error) {
	maple.mu.Lock()
	defer maple.mu.Unlock()

	values := make([][]byte, len(fields))
	e, exists, err := maple.typed(key, db.KindHash, false)
	if err != nil || !exists {
		return values, err
	}
	for i, f := range fields {
		values[i] = copyBytes(e.Hash[f])
	}
	return values, nil
}

func (maple *mapleImpl) HDel(key string, fields ...string) (int, error) {
	maple.mu.Lock()
	defer maple.mu.Unlock()

	e, exists, err := maple.typed(key, db.KindHash, false)
	if err != nil || !exists {
		return 0, err
	}
	n := 0
	for _, f := range fields {
		if _, ok := e.Hash[f]; ok {
			delete(e.Hash, f)
			n++
		}
	}
	maple.cleanup(key, e)
	return n, nil
}

func (maple *mapleImpl) HKeys(key string) ([]string, error) {
	maple.mu.Lock()
	defer maple.mu.Unlock()

	e, exists, err := maple.typed(key, db.KindHash, false)
	if err != nil || !exists {
		return []string{}, err
	}
	return e.SortedFields(), nil
}

func (maple *mapleImpl) HVals(key string) ([][]byte, error) {
	maple.mu.Lock()
	defer maple.mu.Unlock()

	e, exists, err := maple.typed(key, db.KindHash, false)
	if err != nil || !exists {
		return [][]byte{}, err
	}
	fields := e.SortedFields()
	values := make([][]byte, len(fields))
	for i, f := range fields {
		values[i] = copyBytes(e.Hash[f])
	}
	return values, nil
}

func (maple *mapleImpl) HLen(key string) (int, error) {
	maple.mu.Lock()
	defer maple.mu.Unlock()

	e, exists, err := maple.typed(key, db.KindHash, false)
	if err != nil || !exists {
		return 0, err
	}
	return len(e.Hash), nil
}

func (maple *mapleImpl) HIncrBy(key, field string, delta int64) (int64, error) {
	maple.mu.Lock()
	defer maple.mu.Unlock()

	e, exists, err := maple.typed(key, db.KindHash, false)
	if err != nil {
		return 0, err
	}

	var current int64
	if exists {
		if v, ok := e.Hash[field]; ok {
			if current, err = strconv.ParseInt(string(v), 10, 64); err != nil {
				return 0, db.ErrNotInteger
			}
		}
	}
	n, err := addInt64(current, delta)
	if err != nil {
		return 0, err
	}
	if !exists {
		e = internal.NewEntry(db.KindHash)
		maple.put(key, e)
	}
	e.Hash[field] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

// --------------------------------------------------------------------------
// List Operations
// --------------------------------------------------------------------------

func (maple *mapleImpl) LLen(key string) (int, error) {
	maple.mu.Lock()
	defer maple.mu.Unlock()

	e, exists, err := maple.typed(key, db.KindList, false)
	if err != nil || !exists {
		return 0, err
	}
	return e.List.Len(), nil
}

func (maple *mapleImpl) LPush(key string, values ...[]byte) (int, error) {
	maple.mu.Lock()
	defer maple.mu.Unlock()

	e, _, err := maple.typed(key, db.KindList, true)
	if err != nil {
		return 0, err
	}
	for _, v := range values {
		e.List.PushFront(copyBytes(v))
	}
	return e.List.Len(), nil
}

func (maple *mapleImpl) RPush(key string, values ...[]byte) (int, error) {
	maple.mu.Lock()
	defer maple.mu.Unlock()

	e, _, err := maple.typed(key, db.KindList, true)
	if err != nil {
		return 0, err
	}
	for _, v := range values {
		e.List.PushBack(copyBytes(v))
	}
	return e.List.Len(), nil
}

func (maple *mapleImpl) LPop(key string) ([]byte, bool, error) {
	maple.mu.Lock()
	defer maple.mu.Unlock()

	e, exists, err := maple.typed(key, db.KindList, false)
	if err != nil || !exists {
		return nil, false, err
	}
	v := e.List.PopFront()
	maple.cleanup(key, e)
	return v, true, nil
}

func (maple *mapleImpl) RPop(key string) ([]byte, bool, error) {
	maple.mu.Lock()
	defer maple.mu.Unlock()

	e, exists, err := maple.typed(key, db.KindList, false)
	if err != nil || !exists {
		return nil, false, err
	}
	v := e.List.PopBack()
	maple.cleanup(key, e)
	return v, true, nil
}

func (maple *mapleImpl) LRange(key string, start, stop int) ([][]byte, error) {
	maple.mu.Lock()
	defer maple.mu.Unlock()

	values := make([][]byte, 0)
	e, exists, err := maple.typed(key, db.KindList, false)
	if err != nil || !exists {
		return values, err
	}

	n := e.List.Len()
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	for i := start; i <= stop; i++ {
		values = append(values, copyBytes(e.List.Peek(i)))
	}
	return values, nil
}

func (maple *mapleImpl) LIndex(key string, index int) ([]byte, bool, error) {
	maple.mu.Lock()
	defer maple.mu.Unlock()

	e, exists, err := maple.typed(key, db.KindList, false)
	if err != nil || !exists {
		return nil, false, err
	}
	n := e.List.Len()
	if index < 0 {
		index += n
	}
	if index < 0 || index >= n {
		return nil, false, nil
	}
	return copyBytes(e.List.Peek(index)), true, nil
}

func (maple *mapleImpl) RPopLPush(src, dst string) ([]byte, bool, error) {
	maple.mu.Lock()
	defer maple.mu.Unlock()

	// check both kinds before anything is modified
	from, exists, err := maple.typed(src, db.KindList, false)
	if err != nil {
		return nil, false, err
	}
	if _, _, err = maple.typed(dst, db.KindList, false); err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, nil
	}

	v := from.List.PopBack()
	maple.cleanup(src, from)

	to, _, _ := maple.typed(dst, db.KindList, true)
	to.List.PushFront(v)
	return copyBytes(v), true, nil
}

// --------------------------------------------------------------------------
// Set Operations
// --------------------------------------------------------------------------

func (maple *mapleImpl) SAdd(key string, members ...[]byte) (int, error) {
	maple.mu.Lock()
	defer maple.mu.Unlock()

	e, _, err := maple.typed(key, db.KindSet, true)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, m := range members {
		if _, ok := e.Set[string(m)]; !ok {
			e.Set[string(m)] = struct{}{}
			n++
		}
	}
	maple.cleanup(key, e)
	return n, nil
}

func (maple *mapleImpl) SRem(key string, members ...[]byte) (int, error) {
	maple.mu.Lock()
	defer maple.mu.Unlock()

	e, exists, err := maple.typed(key, db.KindSet, false)
	if err != nil || !exists {
		return 0, err
	}
	n := 0
	for _, m := range members {
		if _, ok := e.Set[string(m)]; ok {
			delete(e.Set, string(m))
			n++
		}
	}
	maple.cleanup(key, e)
	return n, nil
}

func (maple *mapleImpl) SCard(key string) (int, error) {
	maple.mu.Lock()
	defer maple.mu.Unlock()

	e, exists, err := maple.typed(key, db.KindSet, false)
	if err != nil || !exists {
		return 0, err
	}
	return len(e.Set), nil
}

func (maple *mapleImpl) SIsMember(key string, member []byte) (bool, error) {
	maple.mu.Lock()
	defer maple.mu.Unlock()

	e, exists, err := maple.typed(key, db.KindSet, false)
	if err != nil || !exists {
		return false, err
	}
	_, ok := e.Set[string(member)]
	return ok, nil
}

func (maple *mapleImpl) SMembers(key string) ([][]byte, error) {
	maple.mu.Lock()
	defer maple.mu.Unlock()

	e, exists, err := maple.typed(key, db.KindSet, false)
	if err != nil || !exists {
		return [][]byte{}, err
	}
	return toBytes(e.SortedMembers()), nil
}

// sets loads the member sets of all keys, missing keys yield nil sets
func (maple *mapleImpl) sets(keys []string) ([]map[string]struct{}, error) {
	sets := make([]map[string]struct{}, len(keys))
	for i, key := range keys {
		e, _, err := maple.typed(key, db.KindSet, false)
		if err != nil {
			return nil, err
		}
		sets[i] = e.Set
	}
	return sets, nil
}

func diff(sets []map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	if len(sets) == 0 {
		return out
	}
	for m := range sets[0] {
		found := false
		for _, other := range sets[1:] {
			if _, ok := other[m]; ok {
				found = true
				break
			}
		}
		if !found {
			out[m] = struct{}{}
		}
	}
	return out
}

func inter(sets []map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	if len(sets) == 0 {
		return out
	}
	for m := range sets[0] {
		found := true
		for _, other := range sets[1:] {
			if _, ok := other[m]; !ok {
				found = false
				break
			}
		}
		if found {
			out[m] = struct{}{}
		}
	}
	return out
}

func union(sets []map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	for _, s := range sets {
		for m := range s {
			out[m] = struct{}{}
		}
	}
	return out
}

// algebra applies a set operation and returns the sorted result
func (maple *mapleImpl) algebra(op func([]map[string]struct{}) map[string]struct{}, keys []string) ([][]byte, error) {
	maple.mu.Lock()
	defer maple.mu.Unlock()

	sets, err := maple.sets(keys)
	if err != nil {
		return nil, err
	}
	e := internal.Entry{Kind: db.KindSet, Set: op(sets)}
	return toBytes(e.SortedMembers()), nil
}

// algebraStore applies a set operation and stores the result in dst (replacing any old value)
func (maple *mapleImpl) algebraStore(op func([]map[string]struct{}) map[string]struct{}, dst string, keys []string) (int, error) {
	maple.mu.Lock()
	defer maple.mu.Unlock()

	sets, err := maple.sets(keys)
	if err != nil {
		return 0, err
	}
	result := op(sets)
	maple.remove(dst)
	if len(result) > 0 {
		maple.put(dst, internal.Entry{Kind: db.KindSet, Set: result})
	}
	return len(result), nil
}

func (maple *mapleImpl) SDiff(keys ...string) ([][]byte, error) {
	return maple.algebra(diff, keys)
}

func (maple *mapleImpl) SDiffStore(dst string, keys ...string) (int, error) {
	return maple.algebraStore(diff, dst, keys)
}

func (maple *mapleImpl) SInter(keys ...string) ([][]byte, error) {
	return maple.algebra(inter, keys)
}

func (maple *mapleImpl) SInterStore(dst string, keys ...string) (int, error) {
	return maple.algebraStore(inter, dst, keys)
}

func (maple *mapleImpl) SUnion(keys ...string) ([][]byte, error) {
	return maple.algebra(union, keys)
}

func (maple *mapleImpl) SUnionStore(dst string, keys ...string) (int, error) {
	return maple.algebraStore(union, dst, keys)
}

func (maple *mapleImpl) SMove(src, dst string, member []byte) (bool, error) {
	maple.mu.Lock()
	defer maple.mu.Unlock()

	// check both kinds before anything is modified
	from, exists, err := maple.typed(src, db.KindSet, false)
	if err != nil {
		return false, err
	}
	if _, _, err = maple.typed(dst, db.KindSet, false); err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}
	if _, ok := from.Set[string(member)]; !ok {
		return false, nil
	}

	delete(from.Set, string(member))
	maple.cleanup(src, from)

	to, _, _ := maple.typed(dst, db.KindSet, true)
	to.Set[string(member)] = struct{}{}
	return true, nil
}

// randomMember picks a random member of a non-empty set
func (maple *mapleImpl) randomMember(e internal.Entry) string {
	i := maple.rnd.IntN(len(e.Set))
	for m := range e.Set {
		if i == 0 {
			return m
		}
		i--
	}
	panic("unreachable")
}

func (maple *mapleImpl) SPop(key string) ([]byte, bool, error) {
	maple.mu.Lock()
	defer maple.mu.Unlock()

	e, exists, err := maple.typed(key, db.KindSet, false)
	if err != nil || !exists {
		return nil, false, err
	}
	m := maple.randomMember(e)
	delete(e.Set, m)
	maple.cleanup(key, e)
	return []byte(m), true, nil
}

func (maple *mapleImpl) SRandMember(key string) ([]byte, bool, error) {
	maple.mu.Lock()
	defer maple.mu.Unlock()

	e, exists, err := maple.typed(key, db.KindSet, false)
	if err != nil || !exists {
		return nil, false, err
	}
	return []byte(maple.randomMember(e)), true, nil
}

func (maple *mapleImpl) SScan(key string, cursor uint64, pattern string, count int) (uint64, [][]byte, error) {
	match, err := internal.CompileMatcher(pattern)
	if err != nil {
		return 0, nil, err
	}
	if count <= 0 {
		count = defaultScanCount
	}

	maple.mu.Lock()
	defer maple.mu.Unlock()

	page := make([][]byte, 0)
	e, exists, err := maple.typed(key, db.KindSet, false)
	if err != nil || !exists {
		return 0, page, err
	}

	members := e.SortedMembers()
	if cursor >= uint64(len(members)) {
		return 0, page, nil
	}
	end := cursor + uint64(count)
	if end > uint64(len(members)) {
		end = uint64(len(members))
	}
	for _, m := range members[cursor:end] {
		if match(m) {
			page = append(page, []byte(m))
		}
	}
	if end == uint64(len(members)) {
		return 0, page, nil
	}
	return end, page, nil
}

func toBytes(values []string) [][]byte {
	out := make([][]byte, len(values))
	for i, v := range values {
		out[i] = []byte(v)
	}
	return out
}

// --------------------------------------------------------------------------
// Garbage Collection
// --------------------------------------------------------------------------

// startGC starts the garbage collector
// if the GC is already running, this function does nothing
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) startGC() {
	if maple.gcIsRunning.CompareAndSwap(false, true) {
		go maple.garbageCollector()
	}
}

// stopGC stops the garbage collector and waits until it has finished.
// the gc can't be started again after it has been stopped!
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) stopGC() {
	if maple.gcIsRunning.CompareAndSwap(true, false) {
		close(maple.gcStop)
		<-maple.gcDone
	}
}

// garbageCollector is the main garbage collection loop
// WARNING: this method should never be called! to enable GC, use startGC() and stopGC()
func (maple *mapleImpl) garbageCollector() {
	defer close(maple.gcDone)

	ticker := time.NewTicker(maple.gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-maple.gcStop:
			return
		case <-ticker.C:
			if n := maple.collect(); n > 0 {
				Logger.Debugf("removed %d expired keys", n)
			}
		}
	}
}

// collect removes all entries whose deadline has passed
func (maple *mapleImpl) collect() int {
	maple.mu.Lock()
	defer maple.mu.Unlock()

	now := maple.now()
	n := 0
	for {
		it, exists := maple.expiry.Peek()
		if !exists || it.Priority > now {
			return n
		}

		// double-check the entry is still expired, its deadline could have been changed
		if e, ok := maple.data.Load(it.Key); ok && e.Expired(now) {
			maple.remove(it.Key)
			n++
		} else {
			maple.expiry.RemoveByKey(it.Key)
		}
	}
}

// --------------------------------------------------------------------------
// KVDB Interface Implementation - Features and Metadata
// --------------------------------------------------------------------------

// GetInfo returns statistics about the database
func (maple *mapleImpl) GetInfo() db.DatabaseInfo {
	maple.mu.Lock()
	var (
		physical = maple.data.Size()
		expiring = maple.expiry.Len()
		kinds    = make(map[db.Kind]int)
		now      = maple.now()
		live     = 0
	)
	maple.data.Range(func(_ string, e internal.Entry) bool {
		if !e.Expired(now) {
			kinds[e.Kind]++
			live++
		}
		return true
	})
	maple.mu.Unlock()

	// Metadata for this specific database implementation
	meta := &struct {
		PhysicalEntries int             `json:"physical_entries"`
		ExpiringKeys    int             `json:"expiring_keys"`
		KeysByKind      map[db.Kind]int `json:"keys_by_kind"`
		GCInterval      string          `json:"gc_interval"`
	}{
		PhysicalEntries: physical,
		ExpiringKeys:    expiring,
		KeysByKind:      kinds,
		GCInterval:      maple.gcInterval.String(),
	}

	supportedFeatures := []db.Feature{
		db.FeatureStrings, db.FeatureExpire, db.FeatureKeys,
		db.FeatureHashes, db.FeatureLists, db.FeatureSets,
		db.FeatureDump, db.FeatureGarbageCollect,
	}

	return db.DatabaseInfo{
		Keys:              live,
		DbType:            db.ImplMaple,
		SupportedFeatures: supportedFeatures,
		Metadata:          meta,
	}
}

// SupportsFeature checks if this implementation supports a specific KVDB feature
func (maple *mapleImpl) SupportsFeature(feature db.Feature) bool {
	supportedFeatures := db.FeatureStrings |
		db.FeatureExpire |
		db.FeatureKeys |
		db.FeatureHashes |
		db.FeatureLists |
		db.FeatureSets |
		db.FeatureDump |
		db.FeatureGarbageCollect
	return supportedFeatures&feature == feature
}

// Close stops the garbage collector
func (maple *mapleImpl) Close() error {
	maple.stopGC()
	return nil
}
