package client

import (
	"fmt"
	"math"
	"time"

	"github.com/ValentinKolb/mkv/lib/codec"
	"github.com/ValentinKolb/mkv/lib/db"
)

// --------------------------------------------------------------------------
// Generic Commands (docu see client/interface.go)
// --------------------------------------------------------------------------

func (r *Redis) Delete(key string, keys ...string) (int64, error) {
	if err := r.begin("del", db.FeatureStrings); err != nil {
		return 0, err
	}
	return int64(r.db.Delete(append([]string{key}, keys...)...)), nil
}

func (r *Redis) Exists(key string, keys ...string) (int64, error) {
	if err := r.begin("exists", db.FeatureStrings); err != nil {
		return 0, err
	}
	var n int64
	for _, k := range append([]string{key}, keys...) {
		if r.db.Exists(k) {
			n++
		}
	}
	return n, nil
}

func (r *Redis) Expire(key string, timeout any) (bool, error) {
	return r.expire("expire", key, timeout, time.Second)
}

func (r *Redis) PExpire(key string, timeout any) (bool, error) {
	return r.expire("pexpire", key, timeout, time.Millisecond)
}

// expire validates the timeout before the key is touched, only integer kinds are accepted
func (r *Redis) expire(op, key string, timeout any, unit time.Duration) (bool, error) {
	if err := r.begin(op, db.FeatureExpire); err != nil {
		return false, err
	}
	n, err := codec.Int(timeout)
	if err != nil {
		return false, r.fail(op, &ArgumentError{
			Op:  op,
			Msg: fmt.Sprintf("timeout argument must be int, not %T", timeout),
		})
	}
	if n > math.MaxInt64/int64(unit) || n < math.MinInt64/int64(unit) {
		return false, r.fail(op, errInvalidExpire)
	}
	return r.db.Expire(key, time.Duration(n)*unit), nil
}

func (r *Redis) Persist(key string) (bool, error) {
	if err := r.begin("persist", db.FeatureExpire); err != nil {
		return false, err
	}
	return r.db.Persist(key), nil
}

func (r *Redis) TTL(key string) (int64, error) {
	if err := r.begin("ttl", db.FeatureExpire); err != nil {
		return 0, err
	}
	ttl, exists, hasTTL := r.db.TTL(key)
	switch {
	case !exists:
		return -2, nil
	case !hasTTL:
		return -1, nil
	default:
		// round to the nearest second
		return int64((ttl + 500*time.Millisecond) / time.Second), nil
	}
}

func (r *Redis) PTTL(key string) (int64, error) {
	if err := r.begin("pttl", db.FeatureExpire); err != nil {
		return 0, err
	}
	ttl, exists, hasTTL := r.db.TTL(key)
	switch {
	case !exists:
		return -2, nil
	case !hasTTL:
		return -1, nil
	default:
		return ttl.Milliseconds(), nil
	}
}

func (r *Redis) Type(key string) (string, error) {
	if err := r.begin("type", db.FeatureStrings); err != nil {
		return "", err
	}
	return string(r.db.Type(key)), nil
}

func (r *Redis) Get(key string, enc ...codec.Encoding) (any, error) {
	if err := r.begin("get", db.FeatureStrings); err != nil {
		return nil, err
	}
	v, _, err := r.db.Get(key)
	if err != nil {
		return nil, r.fail("get", err)
	}
	return r.decode("get", v, enc)
}

func (r *Redis) Set(key string, value any, opts *SetOptions) (bool, error) {
	if err := r.begin("set", db.FeatureStrings); err != nil {
		return false, err
	}
	if opts == nil {
		opts = &SetOptions{}
	}

	v, err := r.encode("set", value)
	if err != nil {
		return false, err
	}

	args := db.SetArgs{}
	switch opts.Exist {
	case SetAlways:
	case SetIfExist:
		args.XX = true
	case SetIfNotExist:
		args.NX = true
	default:
		return false, r.fail("set", &ArgumentError{Op: "set", Msg: fmt.Sprintf("invalid exist condition %d", opts.Exist)})
	}

	switch {
	case opts.Expire != 0 && opts.PExpire != 0:
		return false, r.fail("set", errSyntax)
	case opts.Expire < 0 || opts.PExpire < 0:
		return false, r.fail("set", errInvalidExpire)
	case opts.Expire > 0:
		if opts.Expire > math.MaxInt64/int64(time.Second) {
			return false, r.fail("set", errInvalidExpire)
		}
		args.TTL = time.Duration(opts.Expire) * time.Second
	case opts.PExpire > 0:
		if opts.PExpire > math.MaxInt64/int64(time.Millisecond) {
			return false, r.fail("set", errInvalidExpire)
		}
		args.TTL = time.Duration(opts.PExpire) * time.Millisecond
	}
	if args.TTL > 0 && !r.db.SupportsFeature(db.FeatureExpire) {
		return false, unsupported("set with expiration")
	}

	ok, err := r.db.Set(key, v[0], args)
	if err != nil {
		return false, r.fail("set", err)
	}
	return ok, nil
}

func (r *Redis) Incr(key string) (int64, error) {
	return r.incrBy("incr", key, 1)
}

func (r *Redis) IncrBy(key string, amount int64) (int64, error) {
	return r.incrBy("incrby", key, amount)
}

func (r *Redis) Decr(key string) (int64, error) {
	return r.incrBy("decr", key, -1)
}

func (r *Redis) DecrBy(key string, amount int64) (int64, error) {
	if amount == math.MinInt64 {
		return 0, r.fail("decrby", errNotInteger)
	}
	return r.incrBy("decrby", key, -amount)
}

func (r *Redis) incrBy(op, key string, amount int64) (int64, error) {
	if err := r.begin(op, db.FeatureStrings); err != nil {
		return 0, err
	}
	n, err := r.db.IncrBy(key, amount)
	if err != nil {
		return 0, r.fail(op, err)
	}
	return n, nil
}

func (r *Redis) MGet(keys []string, enc ...codec.Encoding) ([]any, error) {
	if err := r.begin("mget", db.FeatureStrings); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, r.fail("mget", &ArgumentError{Op: "mget", Msg: "at least one key is required"})
	}
	return r.decodeAll("mget", r.db.MGet(keys...), enc)
}

func (r *Redis) Keys(pattern string, enc ...codec.Encoding) ([]any, error) {
	if err := r.begin("keys", db.FeatureKeys); err != nil {
		return nil, err
	}
	keys, err := r.db.Keys(pattern)
	if err != nil {
		return nil, r.fail("keys", err)
	}
	return r.decodeStrings("keys", keys, enc)
}

func (r *Redis) DBSize() (int64, error) {
	if err := r.begin("dbsize", db.FeatureKeys); err != nil {
		return 0, err
	}
	return int64(r.db.DBSize()), nil
}

func (r *Redis) Scan(cursor uint64, opts *ScanOptions, enc ...codec.Encoding) (uint64, []any, error) {
	if err := r.begin("scan", db.FeatureKeys); err != nil {
		return 0, nil, err
	}
	if opts == nil {
		opts = &ScanOptions{}
	}
	if opts.Count < 0 {
		return 0, nil, r.fail("scan", errSyntax)
	}
	next, keys, err := r.db.Scan(cursor, opts.Match, opts.Count)
	if err != nil {
		return 0, nil, r.fail("scan", err)
	}
	values, err := r.decodeStrings("scan", keys, enc)
	if err != nil {
		return 0, nil, err
	}
	return next, values, nil
}

func (r *Redis) IScan(opts *ScanOptions, enc ...codec.Encoding) *ScanIter {
	return NewScanIter(func(cursor uint64) (uint64, []any, error) {
		return r.Scan(cursor, opts, enc...)
	})
}

func (r *Redis) FlushDB() error {
	if err := r.begin("flushdb", db.FeatureStrings); err != nil {
		return err
	}
	r.db.Flush()
	return nil
}
