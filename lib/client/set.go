package client

import (
	"github.com/ValentinKolb/mkv/lib/codec"
	"github.com/ValentinKolb/mkv/lib/db"
)

// --------------------------------------------------------------------------
// Set Commands (docu see client/interface.go)
// --------------------------------------------------------------------------

func (r *Redis) SAdd(key string, member any, members ...any) (int64, error) {
	if err := r.begin("sadd", db.FeatureSets); err != nil {
		return 0, err
	}
	encoded, err := r.encode("sadd", append([]any{member}, members...)...)
	if err != nil {
		return 0, err
	}
	n, err := r.db.SAdd(key, encoded...)
	if err != nil {
		return 0, r.fail("sadd", err)
	}
	return int64(n), nil
}

func (r *Redis) SCard(key string) (int64, error) {
	if err := r.begin("scard", db.FeatureSets); err != nil {
		return 0, err
	}
	n, err := r.db.SCard(key)
	if err != nil {
		return 0, r.fail("scard", err)
	}
	return int64(n), nil
}

func (r *Redis) SDiff(key string, keys []string, enc ...codec.Encoding) ([]any, error) {
	return r.algebra("sdiff", r.db.SDiff, key, keys, enc)
}

func (r *Redis) SInter(key string, keys []string, enc ...codec.Encoding) ([]any, error) {
	return r.algebra("sinter", r.db.SInter, key, keys, enc)
}

func (r *Redis) SUnion(key string, keys []string, enc ...codec.Encoding) ([]any, error) {
	return r.algebra("sunion", r.db.SUnion, key, keys, enc)
}

func (r *Redis) algebra(op string, apply func(...string) ([][]byte, error), key string, keys []string, enc []codec.Encoding) ([]any, error) {
	if err := r.begin(op, db.FeatureSets); err != nil {
		return nil, err
	}
	members, err := apply(append([]string{key}, keys...)...)
	if err != nil {
		return nil, r.fail(op, err)
	}
	return r.decodeAll(op, members, enc)
}

func (r *Redis) SDiffStore(dst, key string, keys ...string) (int64, error) {
	return r.algebraStore("sdiffstore", r.db.SDiffStore, dst, key, keys)
}

func (r *Redis) SInterStore(dst, key string, keys ...string) (int64, error) {
	return r.algebraStore("sinterstore", r.db.SInterStore, dst, key, keys)
}

func (r *Redis) SUnionStore(dst, key string, keys ...string) (int64, error) {
	return r.algebraStore("sunionstore", r.db.SUnionStore, dst, key, keys)
}

func (r *Redis) algebraStore(op string, apply func(string, ...string) (int, error), dst, key string, keys []string) (int64, error) {
	if err := r.begin(op, db.FeatureSets); err != nil {
		return 0, err
	}
	n, err := apply(dst, append([]string{key}, keys...)...)
	if err != nil {
		return 0, r.fail(op, err)
	}
	return int64(n), nil
}

func (r *Redis) SIsMember(key string, member any) (bool, error) {
	if err := r.begin("sismember", db.FeatureSets); err != nil {
		return false, err
	}
	m, err := r.encode("sismember", member)
	if err != nil {
		return false, err
	}
	ok, err := r.db.SIsMember(key, m[0])
	if err != nil {
		return false, r.fail("sismember", err)
	}
	return ok, nil
}

func (r *Redis) SMembers(key string, enc ...codec.Encoding) ([]any, error) {
	if err := r.begin("smembers", db.FeatureSets); err != nil {
		return nil, err
	}
	members, err := r.db.SMembers(key)
	if err != nil {
		return nil, r.fail("smembers", err)
	}
	return r.decodeAll("smembers", members, enc)
}

func (r *Redis) SMove(src, dst string, member any) (bool, error) {
	if err := r.begin("smove", db.FeatureSets); err != nil {
		return false, err
	}
	m, err := r.encode("smove", member)
	if err != nil {
		return false, err
	}
	moved, err := r.db.SMove(src, dst, m[0])
	if err != nil {
		return false, r.fail("smove", err)
	}
	return moved, nil
}

func (r *Redis) SPop(key string, enc ...codec.Encoding) (any, error) {
	if err := r.begin("spop", db.FeatureSets); err != nil {
		return nil, err
	}
	v, _, err := r.db.SPop(key)
	if err != nil {
		return nil, r.fail("spop", err)
	}
	return r.decode("spop", v, enc)
}

func (r *Redis) SPopCount(key string, count int64, enc ...codec.Encoding) ([]any, error) {
	if err := r.begin("spop", db.FeatureSets); err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, r.fail("spop", errIndexRange)
	}

	size, err := r.db.SCard(key)
	if err != nil {
		return nil, r.fail("spop", err)
	}
	if count > int64(size) {
		count = int64(size)
	}

	members := make([][]byte, 0, count)
	for i := int64(0); i < count; i++ {
		v, ok, err := r.db.SPop(key)
		if err != nil {
			return nil, r.fail("spop", err)
		}
		if !ok {
			break
		}
		members = append(members, v)
	}
	return r.decodeAll("spop", members, enc)
}

func (r *Redis) SRandMember(key string, enc ...codec.Encoding) (any, error) {
	if err := r.begin("srandmember", db.FeatureSets); err != nil {
		return nil, err
	}
	v, _, err := r.db.SRandMember(key)
	if err != nil {
		return nil, r.fail("srandmember", err)
	}
	return r.decode("srandmember", v, enc)
}

func (r *Redis) SRandMemberCount(key string, count int64, enc ...codec.Encoding) ([]any, error) {
	if err := r.begin("srandmember", db.FeatureSets); err != nil {
		return nil, err
	}

	var members [][]byte
	if count < 0 {
		// with replacement, members may repeat
		members = make([][]byte, 0)
		for i := int64(0); i < -count; i++ {
			v, ok, err := r.db.SRandMember(key)
			if err != nil {
				return nil, r.fail("srandmember", err)
			}
			if !ok {
				break
			}
			members = append(members, v)
		}
	} else {
		// without replacement
		all, err := r.db.SMembers(key)
		if err != nil {
			return nil, r.fail("srandmember", err)
		}
		r.rndMu.Lock()
		r.rnd.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
		r.rndMu.Unlock()
		if count < int64(len(all)) {
			all = all[:count]
		}
		members = all
	}
	return r.decodeAll("srandmember", members, enc)
}

func (r *Redis) SRem(key string, member any, members ...any) (int64, error) {
	if err := r.begin("srem", db.FeatureSets); err != nil {
		return 0, err
	}
	encoded, err := r.encode("srem", append([]any{member}, members...)...)
	if err != nil {
		return 0, err
	}
	n, err := r.db.SRem(key, encoded...)
	if err != nil {
		return 0, r.fail("srem", err)
	}
	return int64(n), nil
}

func (r *Redis) SScan(key string, cursor uint64, opts *ScanOptions, enc ...codec.Encoding) (uint64, []any, error) {
	if err := r.begin("sscan", db.FeatureSets); err != nil {
		return 0, nil, err
	}
	if opts == nil {
		opts = &ScanOptions{}
	}
	if opts.Count < 0 {
		return 0, nil, r.fail("sscan", errSyntax)
	}
	next, members, err := r.db.SScan(key, cursor, opts.Match, opts.Count)
	if err != nil {
		return 0, nil, r.fail("sscan", err)
	}
	values, err := r.decodeAll("sscan", members, enc)
	if err != nil {
		return 0, nil, err
	}
	return next, values, nil
}

func (r *Redis) ISScan(key string, opts *ScanOptions, enc ...codec.Encoding) *ScanIter {
	return NewScanIter(func(cursor uint64) (uint64, []any, error) {
		return r.SScan(key, cursor, opts, enc...)
	})
}
