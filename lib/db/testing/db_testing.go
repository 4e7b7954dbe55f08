package testing

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/mkv/lib/db"
)

// DBFactory is a function that creates a new instance of a KVDB implementation
type DBFactory func() db.KVDB

// RunKVDBTests runs a comprehensive test suite for a KVDB implementation.
func RunKVDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, factory())
		})

		t.Run("SetConditions", func(t *testing.T) {
			testSetConditions(t, factory())
		})

		t.Run("IncrBy", func(t *testing.T) {
			testIncrBy(t, factory())
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory())
		})

		t.Run("Expire", func(t *testing.T) {
			testExpire(t, factory())
		})

		t.Run("ManyExpiringKeys", func(t *testing.T) {
			testManyExpiringKeys(t, factory())
		})

		t.Run("Keys", func(t *testing.T) {
			testKeys(t, factory())
		})

		t.Run("Scan", func(t *testing.T) {
			testScan(t, factory())
		})

		t.Run("Hashes", func(t *testing.T) {
			testHashes(t, factory())
		})

		t.Run("Lists", func(t *testing.T) {
			testLists(t, factory())
		})

		t.Run("Sets", func(t *testing.T) {
			testSets(t, factory())
		})

		t.Run("SetAlgebra", func(t *testing.T) {
			testSetAlgebra(t, factory())
		})

		t.Run("WrongType", func(t *testing.T) {
			testWrongType(t, factory())
		})

		t.Run("Dump", func(t *testing.T) {
			testDump(t, factory())
		})

		t.Run("Concurrency", func(t *testing.T) {
			testConcurrency(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// Checks if the database supports the specified feature
// Skip the test if it is not supported
func requireFeature(t testing.TB, database db.KVDB, feature db.Feature) {
	if !database.SupportsFeature(feature) {
		t.Skip()
	}
}

func toStrings(values [][]byte) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureStrings)

	testKey := "test-key"
	testValue1 := []byte("test-value1")
	testValue2 := []byte("test-value2")

	if ok, err := database.Set(testKey, testValue1, db.SetArgs{}); !ok || err != nil {
		t.Fatalf("Set failed: ok=%v err=%v", ok, err)
	}

	result, exists, err := database.Get(testKey)
	if err != nil || !exists {
		t.Errorf("Expected key %s to exist after Set", testKey)
	}
	if !bytes.Equal(result, testValue1) {
		t.Errorf("Expected value %s, got %s", testValue1, result)
	}

	database.Set(testKey, testValue2, db.SetArgs{})

	result, _, _ = database.Get(testKey)
	if !bytes.Equal(result, testValue2) {
		t.Errorf("Expected value %s, got %s", testValue2, result)
	}

	if _, exists, _ = database.Get("nonexistent-key"); exists {
		t.Errorf("Expected nonexistent key to return exists=false")
	}

	retrievedValue, _, _ := database.Get(testKey)
	retrievedValue[0] = 'X'

	originalValue, _, _ := database.Get(testKey)
	if bytes.Equal(retrievedValue, originalValue) {
		t.Errorf("Get should return a copy, not a reference to the stored value")
	}

	// empty values are values
	database.Set("empty", []byte{}, db.SetArgs{})
	if v, exists, _ := database.Get("empty"); !exists || len(v) != 0 {
		t.Errorf("Expected empty value to exist, got %q (exists=%v)", v, exists)
	}

	values := database.MGet(testKey, "nonexistent-key", "empty")
	if len(values) != 3 || !bytes.Equal(values[0], testValue2) || values[1] != nil || values[2] == nil {
		t.Errorf("Unexpected MGet result %q", values)
	}

	if database.Type(testKey) != db.KindString {
		t.Errorf("Expected kind %s, got %s", db.KindString, database.Type(testKey))
	}
	if database.Type("nonexistent-key") != db.KindNone {
		t.Errorf("Expected kind %s for missing key, got %s", db.KindNone, database.Type("nonexistent-key"))
	}
}

func testSetConditions(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureStrings)

	if ok, _ := database.Set("k", []byte("v1"), db.SetArgs{XX: true}); ok {
		t.Errorf("Set with XX should fail for a missing key")
	}
	if database.Exists("k") {
		t.Errorf("Failed XX write must not create the key")
	}

	if ok, _ := database.Set("k", []byte("v1"), db.SetArgs{NX: true}); !ok {
		t.Errorf("Set with NX should succeed for a missing key")
	}
	if ok, _ := database.Set("k", []byte("v2"), db.SetArgs{NX: true}); ok {
		t.Errorf("Set with NX should fail for an existing key")
	}
	if v, _, _ := database.Get("k"); string(v) != "v1" {
		t.Errorf("Failed NX write must not change the value, got %s", v)
	}

	if ok, _ := database.Set("k", []byte("v3"), db.SetArgs{XX: true}); !ok {
		t.Errorf("Set with XX should succeed for an existing key")
	}

	if _, err := database.Set("k", []byte("v4"), db.SetArgs{NX: true, XX: true}); !errors.Is(err, db.ErrSyntax) {
		t.Errorf("Expected ErrSyntax for NX and XX, got %v", err)
	}
}

func testIncrBy(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureStrings)

	n, err := database.IncrBy("counter", 1)
	if err != nil || n != 1 {
		t.Errorf("Expected 1, got %d (err=%v)", n, err)
	}
	n, _ = database.IncrBy("counter", 41)
	if n != 42 {
		t.Errorf("Expected 42, got %d", n)
	}
	n, _ = database.IncrBy("counter", -50)
	if n != -8 {
		t.Errorf("Expected -8, got %d", n)
	}
	if v, _, _ := database.Get("counter"); string(v) != "-8" {
		t.Errorf("Counter should be stored as decimal string, got %s", v)
	}

	database.Set("text", []byte("abc"), db.SetArgs{})
	if _, err = database.IncrBy("text", 1); !errors.Is(err, db.ErrNotInteger) {
		t.Errorf("Expected ErrNotInteger, got %v", err)
	}

	database.Set("max", []byte("9223372036854775807"), db.SetArgs{})
	if _, err = database.IncrBy("max", 1); !errors.Is(err, db.ErrNotInteger) {
		t.Errorf("Expected ErrNotInteger on overflow, got %v", err)
	}
}

func testDelete(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureStrings)

	database.Set("a", []byte("1"), db.SetArgs{})
	database.Set("b", []byte("2"), db.SetArgs{})

	if n := database.Delete("a", "b", "c", "a"); n != 2 {
		t.Errorf("Expected 2 deleted keys, got %d", n)
	}
	if database.Exists("a") || database.Exists("b") {
		t.Errorf("Deleted keys should not exist")
	}
	if n := database.Delete("a"); n != 0 {
		t.Errorf("Deleting a missing key should return 0, got %d", n)
	}
	if database.DBSize() != 0 {
		t.Errorf("Expected empty database, got %d keys", database.DBSize())
	}
}

func testExpire(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureStrings|db.FeatureExpire)

	database.Set("k", []byte("v"), db.SetArgs{})

	if _, exists, hasTTL := database.TTL("k"); !exists || hasTTL {
		t.Errorf("Key without ttl: exists=%v hasTTL=%v", exists, hasTTL)
	}
	if _, exists, _ := database.TTL("missing"); exists {
		t.Errorf("Missing key should not exist")
	}

	if !database.Expire("k", time.Minute) {
		t.Errorf("Expire should succeed for an existing key")
	}
	ttl, _, hasTTL := database.TTL("k")
	if !hasTTL || ttl <= 0 || ttl > time.Minute {
		t.Errorf("Unexpected ttl %v (hasTTL=%v)", ttl, hasTTL)
	}

	if !database.Persist("k") {
		t.Errorf("Persist should succeed for a key with ttl")
	}
	if database.Persist("k") {
		t.Errorf("Persist should fail for a key without ttl")
	}
	if database.Expire("missing", time.Minute) {
		t.Errorf("Expire should fail for a missing key")
	}

	// Set clears the ttl
	database.Expire("k", time.Minute)
	database.Set("k", []byte("v2"), db.SetArgs{})
	if _, _, hasTTL = database.TTL("k"); hasTTL {
		t.Errorf("Set should clear the ttl")
	}

	// IncrBy keeps the ttl
	database.Set("n", []byte("1"), db.SetArgs{TTL: time.Minute})
	database.IncrBy("n", 1)
	if _, _, hasTTL = database.TTL("n"); !hasTTL {
		t.Errorf("IncrBy should keep the ttl")
	}

	// short ttl expires
	database.Set("short", []byte("v"), db.SetArgs{TTL: 20 * time.Millisecond})
	time.Sleep(50 * time.Millisecond)
	if database.Exists("short") {
		t.Errorf("Key should have expired")
	}
	if _, exists, _ := database.Get("short"); exists {
		t.Errorf("Expired key should not be returned by Get")
	}

	// non positive ttl deletes
	database.Set("gone", []byte("v"), db.SetArgs{})
	if !database.Expire("gone", 0) || database.Exists("gone") {
		t.Errorf("Expire with ttl 0 should delete the key")
	}
}

func testManyExpiringKeys(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureStrings|db.FeatureExpire|db.FeatureKeys)

	const n = 500
	for i := 0; i < n; i++ {
		ttl := 20 * time.Millisecond
		if i%2 == 0 {
			ttl = time.Hour
		}
		database.Set(fmt.Sprintf("key-%d", i), []byte("v"), db.SetArgs{TTL: ttl})
	}

	time.Sleep(300 * time.Millisecond)

	if size := database.DBSize(); size != n/2 {
		t.Errorf("Expected %d live keys, got %d", n/2, size)
	}
	keys, _ := database.Keys("*")
	if len(keys) != n/2 {
		t.Errorf("Expected %d keys, got %d", n/2, len(keys))
	}
	if info := database.GetInfo(); info.Keys != n/2 {
		t.Errorf("Expected info to report %d keys, got %d", n/2, info.Keys)
	}
}

func testKeys(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureStrings|db.FeatureKeys)

	for _, k := range []string{"user:2", "user:1", "session:1", "user:10"} {
		database.Set(k, []byte("v"), db.SetArgs{})
	}

	keys, err := database.Keys("user:*")
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if !equalStrings(keys, []string{"user:1", "user:10", "user:2"}) {
		t.Errorf("Unexpected keys %v", keys)
	}

	keys, _ = database.Keys("user:?")
	if !equalStrings(keys, []string{"user:1", "user:2"}) {
		t.Errorf("Unexpected keys %v", keys)
	}

	keys, _ = database.Keys("*")
	if len(keys) != 4 {
		t.Errorf("Expected 4 keys, got %v", keys)
	}

	if _, err = database.Keys("user:[1"); !errors.Is(err, db.ErrSyntax) {
		t.Errorf("Expected ErrSyntax for invalid pattern, got %v", err)
	}
}

func testScan(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureStrings|db.FeatureKeys)

	const n = 25
	for i := 0; i < n; i++ {
		database.Set(fmt.Sprintf("key-%02d", i), []byte("v"), db.SetArgs{})
	}

	seen := make(map[string]int)
	var cursor uint64
	pages := 0
	for {
		next, keys, err := database.Scan(cursor, "", 10)
		if err != nil {
			t.Fatalf("Scan failed: %v", err)
		}
		pages++
		for _, k := range keys {
			seen[k]++
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	if pages != 3 {
		t.Errorf("Expected 3 pages, got %d", pages)
	}
	if len(seen) != n {
		t.Errorf("Expected %d keys, got %d", n, len(seen))
	}
	for k, c := range seen {
		if c != 1 {
			t.Errorf("Key %s returned %d times", k, c)
		}
	}

	// the filter is applied after a page is collected: pages may be empty while the cursor continues
	next, keys, _ := database.Scan(0, "key-2*", 10)
	if next == 0 || len(keys) != 0 {
		t.Errorf("Expected an empty non-terminal page, got next=%d keys=%v", next, keys)
	}

	if next, keys, _ = database.Scan(1000, "", 10); next != 0 || len(keys) != 0 {
		t.Errorf("Cursor beyond the end should finish the iteration, got next=%d keys=%v", next, keys)
	}
}

func testHashes(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureHashes)

	created, err := database.HSet("h", "f1", []byte("v1"))
	if err != nil || !created {
		t.Errorf("HSet should create field, created=%v err=%v", created, err)
	}
	if created, _ = database.HSet("h", "f1", []byte("v1b")); created {
		t.Errorf("HSet on existing field should return created=false")
	}

	database.HMSet("h", map[string][]byte{"f2": []byte("v2"), "f3": []byte("3")})

	if v, ok, _ := database.HGet("h", "f1"); !ok || string(v) != "v1b" {
		t.Errorf("Unexpected HGet result %s (ok=%v)", v, ok)
	}
	if _, ok, _ := database.HGet("h", "nope"); ok {
		t.Errorf("HGet on missing field should return ok=false")
	}
	if ok, _ := database.HExists("h", "f2"); !ok {
		t.Errorf("HExists should return true")
	}
	if n, _ := database.HLen("h"); n != 3 {
		t.Errorf("Expected 3 fields, got %d", n)
	}

	keys, _ := database.HKeys("h")
	if !equalStrings(keys, []string{"f1", "f2", "f3"}) {
		t.Errorf("Unexpected HKeys %v", keys)
	}
	vals, _ := database.HVals("h")
	if !equalStrings(toStrings(vals), []string{"v1b", "v2", "3"}) {
		t.Errorf("Unexpected HVals %q", vals)
	}
	all, _ := database.HGetAll("h")
	if len(all) != 3 || string(all["f2"]) != "v2" {
		t.Errorf("Unexpected HGetAll %q", all)
	}
	values, _ := database.HMGet("h", "f1", "nope")
	if len(values) != 2 || string(values[0]) != "v1b" || values[1] != nil {
		t.Errorf("Unexpected HMGet %q", values)
	}

	if n, _ := database.HIncrBy("h", "f3", 4); n != 7 {
		t.Errorf("Expected 7, got %d", n)
	}
	if _, err = database.HIncrBy("h", "f1", 1); !errors.Is(err, db.ErrNotInteger) {
		t.Errorf("Expected ErrNotInteger, got %v", err)
	}

	if n, _ := database.HDel("h", "f1", "f2", "nope"); n != 2 {
		t.Errorf("Expected 2 deleted fields, got %d", n)
	}
	database.HDel("h", "f3")
	if database.Exists("h") {
		t.Errorf("Hash without fields should be removed")
	}

	all, err = database.HGetAll("missing")
	if err != nil || len(all) != 0 {
		t.Errorf("HGetAll on missing key should return an empty map")
	}
}

func testLists(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureLists)

	if n, _ := database.RPush("l", []byte("b"), []byte("c")); n != 2 {
		t.Errorf("Expected length 2, got %d", n)
	}
	// LPush pushes the values one by one, the last one ends up at the head
	if n, _ := database.LPush("l", []byte("a"), []byte("z")); n != 4 {
		t.Errorf("Expected length 4, got %d", n)
	}

	all, _ := database.LRange("l", 0, -1)
	if !equalStrings(toStrings(all), []string{"z", "a", "b", "c"}) {
		t.Errorf("Unexpected list %q", all)
	}
	part, _ := database.LRange("l", -3, 1)
	if !equalStrings(toStrings(part), []string{"a"}) {
		t.Errorf("Unexpected range %q", part)
	}
	if r, _ := database.LRange("l", 5, 10); len(r) != 0 {
		t.Errorf("Out of range should be empty, got %q", r)
	}

	if v, ok, _ := database.LIndex("l", -1); !ok || string(v) != "c" {
		t.Errorf("Unexpected LIndex %s", v)
	}
	if _, ok, _ := database.LIndex("l", 10); ok {
		t.Errorf("LIndex out of range should return ok=false")
	}

	if v, _, _ := database.LPop("l"); string(v) != "z" {
		t.Errorf("Expected z, got %s", v)
	}
	if v, _, _ := database.RPop("l"); string(v) != "c" {
		t.Errorf("Expected c, got %s", v)
	}

	v, ok, _ := database.RPopLPush("l", "other")
	if !ok || string(v) != "b" {
		t.Errorf("Expected b, got %s", v)
	}
	if n, _ := database.LLen("other"); n != 1 {
		t.Errorf("Expected length 1, got %d", n)
	}

	database.LPop("l")
	if database.Exists("l") {
		t.Errorf("Empty list should be removed")
	}
	if _, ok, _ = database.LPop("l"); ok {
		t.Errorf("LPop on missing key should return ok=false")
	}
	if _, ok, _ = database.RPopLPush("l", "other"); ok {
		t.Errorf("RPopLPush on missing source should return ok=false")
	}
}

func testSets(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSets)

	if n, _ := database.SAdd("s", []byte("b"), []byte("a"), []byte("b")); n != 2 {
		t.Errorf("Expected 2 added members, got %d", n)
	}
	if n, _ := database.SCard("s"); n != 2 {
		t.Errorf("Expected 2 members, got %d", n)
	}
	members, _ := database.SMembers("s")
	if !equalStrings(toStrings(members), []string{"a", "b"}) {
		t.Errorf("Unexpected members %q", members)
	}
	if ok, _ := database.SIsMember("s", []byte("a")); !ok {
		t.Errorf("a should be a member")
	}

	if v, ok, _ := database.SRandMember("s"); !ok || (string(v) != "a" && string(v) != "b") {
		t.Errorf("Unexpected random member %s", v)
	}
	if n, _ := database.SCard("s"); n != 2 {
		t.Errorf("SRandMember must not remove members")
	}

	if moved, _ := database.SMove("s", "t", []byte("a")); !moved {
		t.Errorf("SMove should move a")
	}
	if moved, _ := database.SMove("s", "t", []byte("zz")); moved {
		t.Errorf("SMove of a missing member should return false")
	}
	if ok, _ := database.SIsMember("t", []byte("a")); !ok {
		t.Errorf("a should have been moved to t")
	}

	v, ok, _ := database.SPop("s")
	if !ok || string(v) != "b" {
		t.Errorf("Expected to pop b, got %s", v)
	}
	if database.Exists("s") {
		t.Errorf("Empty set should be removed")
	}

	if n, _ := database.SRem("t", []byte("a"), []byte("x")); n != 1 {
		t.Errorf("Expected 1 removed member, got %d", n)
	}

	for i := 0; i < 15; i++ {
		database.SAdd("big", []byte(fmt.Sprintf("m-%02d", i)))
	}
	var cursor uint64
	seen := 0
	for {
		next, page, err := database.SScan("big", cursor, "", 4)
		if err != nil {
			t.Fatalf("SScan failed: %v", err)
		}
		seen += len(page)
		if next == 0 {
			break
		}
		cursor = next
	}
	if seen != 15 {
		t.Errorf("Expected 15 scanned members, got %d", seen)
	}
}

func testSetAlgebra(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSets)

	database.SAdd("a", []byte("1"), []byte("2"), []byte("3"))
	database.SAdd("b", []byte("2"), []byte("3"), []byte("4"))

	d, _ := database.SDiff("a", "b", "missing")
	if !equalStrings(toStrings(d), []string{"1"}) {
		t.Errorf("Unexpected diff %q", d)
	}
	i, _ := database.SInter("a", "b")
	if !equalStrings(toStrings(i), []string{"2", "3"}) {
		t.Errorf("Unexpected inter %q", i)
	}
	if i, _ = database.SInter("a", "missing"); len(i) != 0 {
		t.Errorf("Intersection with a missing key should be empty, got %q", i)
	}
	u, _ := database.SUnion("a", "b")
	if !equalStrings(toStrings(u), []string{"1", "2", "3", "4"}) {
		t.Errorf("Unexpected union %q", u)
	}

	database.Set("dst", []byte("old"), db.SetArgs{})
	if n, _ := database.SUnionStore("dst", "a", "b"); n != 4 {
		t.Errorf("Expected 4 stored members, got %d", n)
	}
	if database.Type("dst") != db.KindSet {
		t.Errorf("Store should replace the destination with a set")
	}
	if n, _ := database.SInterStore("dst", "a", "missing"); n != 0 || database.Exists("dst") {
		t.Errorf("Empty result should remove the destination")
	}
	if n, _ := database.SDiffStore("dst", "b", "a"); n != 1 {
		t.Errorf("Expected 1 stored member, got %d", n)
	}
}

func testWrongType(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureStrings|db.FeatureHashes|db.FeatureLists|db.FeatureSets)

	database.Set("str", []byte("v"), db.SetArgs{})
	database.RPush("list", []byte("v"))
	database.SAdd("set", []byte("v"))
	database.HSet("hash", "f", []byte("v"))

	checks := map[string]func() error{
		"HSet":      func() error { _, err := database.HSet("str", "f", nil); return err },
		"HGetAll":   func() error { _, err := database.HGetAll("list"); return err },
		"LPush":     func() error { _, err := database.LPush("set", nil); return err },
		"LRange":    func() error { _, err := database.LRange("hash", 0, -1); return err },
		"SAdd":      func() error { _, err := database.SAdd("list", nil); return err },
		"SMembers":  func() error { _, err := database.SMembers("str"); return err },
		"Get":       func() error { _, _, err := database.Get("set"); return err },
		"IncrBy":    func() error { _, err := database.IncrBy("hash", 1); return err },
		"SInter":    func() error { _, err := database.SInter("set", "str"); return err },
		"RPopLPush": func() error { _, _, err := database.RPopLPush("list", "str"); return err },
		"SMove":     func() error { _, err := database.SMove("set", "list", []byte("v")); return err },
	}
	for name, check := range checks {
		if err := check(); !errors.Is(err, db.ErrWrongType) {
			t.Errorf("%s: expected ErrWrongType, got %v", name, err)
		}
	}

	// failed cross-key operations must not modify the source
	if n, _ := database.LLen("list"); n != 1 {
		t.Errorf("RPopLPush must not pop from the source on a type error")
	}
	if ok, _ := database.SIsMember("set", []byte("v")); !ok {
		t.Errorf("SMove must not remove from the source on a type error")
	}

	// Set replaces any kind
	if ok, _ := database.Set("list", []byte("v"), db.SetArgs{}); !ok || database.Type("list") != db.KindString {
		t.Errorf("Set should replace a list with a string")
	}
}

func testDump(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureDump|db.FeatureStrings|db.FeatureSets)

	if _, ok := database.Dump("missing"); ok {
		t.Errorf("Dump of a missing key should return ok=false")
	}

	database.SAdd("a", []byte("x"), []byte("y"))
	database.SAdd("b", []byte("y"), []byte("x"))
	da, _ := database.Dump("a")
	db2, _ := database.Dump("b")
	if !bytes.Equal(da, db2) {
		t.Errorf("Equal sets should produce equal dumps")
	}

	database.SAdd("a", []byte("z"))
	if changed, _ := database.Dump("a"); bytes.Equal(da, changed) {
		t.Errorf("Dump should change when the value changes")
	}

	database.Set("s", []byte("x"), db.SetArgs{})
	database.SAdd("one", []byte("x"))
	ds, _ := database.Dump("s")
	dset, _ := database.Dump("one")
	if bytes.Equal(ds, dset) {
		t.Errorf("Values of different kinds should produce different dumps")
	}
}

func testConcurrency(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureStrings|db.FeatureLists)

	const workers = 8
	const ops = 200

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < ops; i++ {
				database.IncrBy("counter", 1)
				database.RPush("list", []byte(fmt.Sprintf("%d-%d", w, i)))
				database.Get(fmt.Sprintf("key-%d", i))
			}
		}(w)
	}
	wg.Wait()

	if v, _, _ := database.Get("counter"); string(v) != fmt.Sprint(workers*ops) {
		t.Errorf("Expected counter %d, got %s", workers*ops, v)
	}
	if n, _ := database.LLen("list"); n != workers*ops {
		t.Errorf("Expected list length %d, got %d", workers*ops, n)
	}
}
