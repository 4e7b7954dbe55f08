package maple

import (
	"testing"
	"time"

	"github.com/ValentinKolb/mkv/lib/db"
	dbtesting "github.com/ValentinKolb/mkv/lib/db/testing"
)

func Test(t *testing.T) {
	dbtesting.RunKVDBTests(t, "MapleDB", func() db.KVDB {
		return NewMapleDB(nil)
	})
}

// fakeClock is a manually advanced time source
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestDB(clock *fakeClock) *mapleImpl {
	return NewMapleDB(&DBOptions{
		GCInterval: time.Hour, // collection is triggered manually
		Clock:      clock.Now,
	}).(*mapleImpl)
}

func TestGarbageCollection(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	database := newTestDB(clock)
	defer database.Close()

	database.Set("a", []byte("1"), db.SetArgs{TTL: time.Second})
	database.Set("b", []byte("2"), db.SetArgs{TTL: 3 * time.Second})
	database.Set("c", []byte("3"), db.SetArgs{})
	database.RPush("l", []byte("x"))
	database.Expire("l", 2*time.Second)

	if n := database.collect(); n != 0 {
		t.Errorf("Nothing should be collected yet, collected %d", n)
	}

	clock.Advance(2 * time.Second)
	if n := database.collect(); n != 2 {
		t.Errorf("Expected 2 collected keys, got %d", n)
	}
	if _, ok := database.data.Load("a"); ok {
		t.Errorf("a should have been removed from the map")
	}
	if database.index.Has("l") {
		t.Errorf("l should have been removed from the key index")
	}

	// a changed deadline must be respected
	database.Expire("b", time.Hour)
	clock.Advance(2 * time.Second)
	if n := database.collect(); n != 0 {
		t.Errorf("b got a new deadline and must not be collected, collected %d", n)
	}
	if database.expiry.Len() != 1 {
		t.Errorf("Expected one tracked deadline, got %d", database.expiry.Len())
	}

	database.Persist("b")
	if database.expiry.Len() != 0 {
		t.Errorf("Persist should stop tracking the deadline")
	}
	if database.DBSize() != 2 {
		t.Errorf("Expected 2 keys, got %d", database.DBSize())
	}
}

func TestExpiredKeysAreInvisible(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	database := newTestDB(clock)
	defer database.Close()

	database.SAdd("s", []byte("m"))
	database.Expire("s", time.Second)
	database.Set("k", []byte("v"), db.SetArgs{TTL: time.Second})

	clock.Advance(time.Second)

	if database.Exists("k") || database.Type("s") != db.KindNone {
		t.Errorf("Expired keys should not be visible")
	}
	if n, _ := database.SCard("s"); n != 0 {
		t.Errorf("Expired set should be empty, got %d members", n)
	}
	// writing to an expired key starts from scratch
	if n, _ := database.SAdd("s", []byte("x")); n != 1 {
		t.Errorf("Expected 1 added member, got %d", n)
	}
	if _, _, hasTTL := database.TTL("s"); hasTTL {
		t.Errorf("New set must not inherit the old deadline")
	}
	if keys, _ := database.Keys("*"); len(keys) != 1 || keys[0] != "s" {
		t.Errorf("Unexpected keys %v", keys)
	}
}

func TestTTLCountsDown(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	database := newTestDB(clock)
	defer database.Close()

	database.Set("k", []byte("v"), db.SetArgs{TTL: 10 * time.Second})
	clock.Advance(4 * time.Second)

	ttl, exists, hasTTL := database.TTL("k")
	if !exists || !hasTTL || ttl != 6*time.Second {
		t.Errorf("Expected ttl 6s, got %v (exists=%v hasTTL=%v)", ttl, exists, hasTTL)
	}
}

func TestGetInfo(t *testing.T) {
	database := NewMapleDB(nil)
	defer database.Close()

	database.Set("a", []byte("1"), db.SetArgs{})
	database.HSet("h", "f", []byte("v"))

	info := database.GetInfo()
	if info.Keys != 2 {
		t.Errorf("Expected 2 keys, got %d", info.Keys)
	}
	if info.DbType != db.ImplMaple {
		t.Errorf("Expected db type %s, got %s", db.ImplMaple, info.DbType)
	}
	for _, f := range info.SupportedFeatures {
		if !database.SupportsFeature(f) {
			t.Errorf("Reported feature %s is not supported", f)
		}
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	database := NewMapleDB(nil)
	if err := database.Close(); err != nil {
		t.Fatal(err)
	}
	if err := database.Close(); err != nil {
		t.Fatal(err)
	}
}
