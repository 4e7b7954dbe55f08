package client

import (
	"math"

	"github.com/ValentinKolb/mkv/lib/codec"
	"github.com/ValentinKolb/mkv/lib/db"
)

// --------------------------------------------------------------------------
// List Commands (docu see client/interface.go)
// --------------------------------------------------------------------------

func (r *Redis) LLen(key string) (int64, error) {
	if err := r.begin("llen", db.FeatureLists); err != nil {
		return 0, err
	}
	n, err := r.db.LLen(key)
	if err != nil {
		return 0, r.fail("llen", err)
	}
	return int64(n), nil
}

func (r *Redis) LPush(key string, value any, values ...any) (int64, error) {
	return r.push("lpush", r.db.LPush, key, append([]any{value}, values...))
}

func (r *Redis) RPush(key string, value any, values ...any) (int64, error) {
	return r.push("rpush", r.db.RPush, key, append([]any{value}, values...))
}

func (r *Redis) push(op string, push func(string, ...[]byte) (int, error), key string, values []any) (int64, error) {
	if err := r.begin(op, db.FeatureLists); err != nil {
		return 0, err
	}
	encoded, err := r.encode(op, values...)
	if err != nil {
		return 0, err
	}
	n, err := push(key, encoded...)
	if err != nil {
		return 0, r.fail(op, err)
	}
	return int64(n), nil
}

func (r *Redis) LPop(key string, enc ...codec.Encoding) (any, error) {
	return r.pop("lpop", r.db.LPop, key, enc)
}

func (r *Redis) RPop(key string, enc ...codec.Encoding) (any, error) {
	return r.pop("rpop", r.db.RPop, key, enc)
}

func (r *Redis) pop(op string, pop func(string) ([]byte, bool, error), key string, enc []codec.Encoding) (any, error) {
	if err := r.begin(op, db.FeatureLists); err != nil {
		return nil, err
	}
	v, _, err := pop(key)
	if err != nil {
		return nil, r.fail(op, err)
	}
	return r.decode(op, v, enc)
}

func (r *Redis) LRange(key string, start, stop int64, enc ...codec.Encoding) ([]any, error) {
	if err := r.begin("lrange", db.FeatureLists); err != nil {
		return nil, err
	}
	values, err := r.db.LRange(key, clampInt(start), clampInt(stop))
	if err != nil {
		return nil, r.fail("lrange", err)
	}
	return r.decodeAll("lrange", values, enc)
}

func (r *Redis) LIndex(key string, index int64, enc ...codec.Encoding) (any, error) {
	if err := r.begin("lindex", db.FeatureLists); err != nil {
		return nil, err
	}
	v, _, err := r.db.LIndex(key, clampInt(index))
	if err != nil {
		return nil, r.fail("lindex", err)
	}
	return r.decode("lindex", v, enc)
}

func (r *Redis) RPopLPush(src, dst string, enc ...codec.Encoding) (any, error) {
	if err := r.begin("rpoplpush", db.FeatureLists); err != nil {
		return nil, err
	}
	v, _, err := r.db.RPopLPush(src, dst)
	if err != nil {
		return nil, r.fail("rpoplpush", err)
	}
	return r.decode("rpoplpush", v, enc)
}

// clampInt converts an index to int, saturating on platforms with 32 bit ints
func clampInt(v int64) int {
	switch {
	case v > math.MaxInt:
		return math.MaxInt
	case v < math.MinInt:
		return math.MinInt
	default:
		return int(v)
	}
}
