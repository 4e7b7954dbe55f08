package client

import (
	"fmt"

	"github.com/ValentinKolb/mkv/lib/codec"
	"github.com/ValentinKolb/mkv/lib/db"
)

// --------------------------------------------------------------------------
// Hash Commands (docu see client/interface.go)
// --------------------------------------------------------------------------

func (r *Redis) HSet(key, field string, value any) (int64, error) {
	if err := r.begin("hset", db.FeatureHashes); err != nil {
		return 0, err
	}
	v, err := r.encode("hset", value)
	if err != nil {
		return 0, err
	}
	created, err := r.db.HSet(key, field, v[0])
	if err != nil {
		return 0, r.fail("hset", err)
	}
	return boolToInt(created), nil
}

func (r *Redis) HGet(key, field string, enc ...codec.Encoding) (any, error) {
	if err := r.begin("hget", db.FeatureHashes); err != nil {
		return nil, err
	}
	v, _, err := r.db.HGet(key, field)
	if err != nil {
		return nil, r.fail("hget", err)
	}
	return r.decode("hget", v, enc)
}

func (r *Redis) HExists(key, field string) (bool, error) {
	if err := r.begin("hexists", db.FeatureHashes); err != nil {
		return false, err
	}
	ok, err := r.db.HExists(key, field)
	if err != nil {
		return false, r.fail("hexists", err)
	}
	return ok, nil
}

func (r *Redis) HGetAll(key string, enc ...codec.Encoding) (map[string]any, error) {
	if err := r.begin("hgetall", db.FeatureHashes); err != nil {
		return nil, err
	}
	fields, err := r.db.HGetAll(key)
	if err != nil {
		return nil, r.fail("hgetall", err)
	}
	m, err := codec.DecodeMap(fields, codec.Resolve(r.enc, enc))
	if err != nil {
		return nil, r.fail("hgetall", err)
	}
	return m, nil
}

func (r *Redis) HMSet(key string, field string, value any, pairs ...any) error {
	if err := r.begin("hmset", db.FeatureHashes); err != nil {
		return err
	}
	if len(pairs)%2 != 0 {
		return r.fail("hmset", &ArgumentError{Op: "hmset", Msg: "length of pairs must be an even number"})
	}

	fields := make(map[string][]byte, 1+len(pairs)/2)
	v, err := r.encode("hmset", value)
	if err != nil {
		return err
	}
	fields[field] = v[0]

	for i := 0; i < len(pairs); i += 2 {
		f, err := r.encode("hmset", pairs[i], pairs[i+1])
		if err != nil {
			return err
		}
		fields[string(f[0])] = f[1]
	}

	if err = r.db.HMSet(key, fields); err != nil {
		return r.fail("hmset", err)
	}
	return nil
}

func (r *Redis) HMSetDict(key string, fields map[string]any) error {
	if err := r.begin("hmset", db.FeatureHashes); err != nil {
		return err
	}
	if len(fields) == 0 {
		return r.fail("hmset", &ArgumentError{Op: "hmset", Msg: "fields must not be empty"})
	}

	encoded := make(map[string][]byte, len(fields))
	for f, value := range fields {
		v, err := r.encode("hmset", value)
		if err != nil {
			return err
		}
		encoded[f] = v[0]
	}

	if err := r.db.HMSet(key, encoded); err != nil {
		return r.fail("hmset", err)
	}
	return nil
}

func (r *Redis) HMGet(key string, field string, fields []string, enc ...codec.Encoding) ([]any, error) {
	if err := r.begin("hmget", db.FeatureHashes); err != nil {
		return nil, err
	}
	values, err := r.db.HMGet(key, append([]string{field}, fields...)...)
	if err != nil {
		return nil, r.fail("hmget", err)
	}
	return r.decodeAll("hmget", values, enc)
}

func (r *Redis) HDel(key string, field string, fields ...string) (int64, error) {
	if err := r.begin("hdel", db.FeatureHashes); err != nil {
		return 0, err
	}
	n, err := r.db.HDel(key, append([]string{field}, fields...)...)
	if err != nil {
		return 0, r.fail("hdel", err)
	}
	return int64(n), nil
}

func (r *Redis) HKeys(key string, enc ...codec.Encoding) ([]any, error) {
	if err := r.begin("hkeys", db.FeatureHashes); err != nil {
		return nil, err
	}
	fields, err := r.db.HKeys(key)
	if err != nil {
		return nil, r.fail("hkeys", err)
	}
	return r.decodeStrings("hkeys", fields, enc)
}

func (r *Redis) HVals(key string, enc ...codec.Encoding) ([]any, error) {
	if err := r.begin("hvals", db.FeatureHashes); err != nil {
		return nil, err
	}
	values, err := r.db.HVals(key)
	if err != nil {
		return nil, r.fail("hvals", err)
	}
	return r.decodeAll("hvals", values, enc)
}

func (r *Redis) HLen(key string) (int64, error) {
	if err := r.begin("hlen", db.FeatureHashes); err != nil {
		return 0, err
	}
	n, err := r.db.HLen(key)
	if err != nil {
		return 0, r.fail("hlen", err)
	}
	return int64(n), nil
}

func (r *Redis) HIncrBy(key, field string, amount int64) (int64, error) {
	if err := r.begin("hincrby", db.FeatureHashes); err != nil {
		return 0, err
	}
	n, err := r.db.HIncrBy(key, field, amount)
	if err != nil {
		return 0, r.fail("hincrby", err)
	}
	return n, nil
}

// hashPairs converts the arguments of a textual HMSET/HSET command
func hashPairs(args []string) (map[string]any, error) {
	if len(args) == 0 || len(args)%2 != 0 {
		return nil, fmt.Errorf("expected field value pairs, got %d arguments", len(args))
	}
	fields := make(map[string]any, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		fields[args[i]] = args[i+1]
	}
	return fields, nil
}
