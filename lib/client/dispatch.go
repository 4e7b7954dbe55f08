package client

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ValentinKolb/mkv/lib/codec"
)

// command describes a textual command
type command struct {
	min int // minimum number of arguments
	max int // maximum number of arguments, -1 = unlimited
	run func(r *Redis, args []string) (any, error)
}

// commands maps upper case command names to their implementation
var commands = map[string]command{
	// generic
	"PING":    {0, 1, cmdPing},
	"DEL":     {1, -1, func(r *Redis, a []string) (any, error) { return r.Delete(a[0], a[1:]...) }},
	"EXISTS":  {1, -1, func(r *Redis, a []string) (any, error) { return r.Exists(a[0], a[1:]...) }},
	"EXPIRE":  {2, 2, cmdExpire(false)},
	"PEXPIRE": {2, 2, cmdExpire(true)},
	"PERSIST": {1, 1, func(r *Redis, a []string) (any, error) { return r.Persist(a[0]) }},
	"TTL":     {1, 1, func(r *Redis, a []string) (any, error) { return r.TTL(a[0]) }},
	"PTTL":    {1, 1, func(r *Redis, a []string) (any, error) { return r.PTTL(a[0]) }},
	"TYPE":    {1, 1, func(r *Redis, a []string) (any, error) { return r.Type(a[0]) }},
	"GET":     {1, 1, func(r *Redis, a []string) (any, error) { return r.Get(a[0]) }},
	"SET":     {2, -1, cmdSet},
	"INCR":    {1, 1, func(r *Redis, a []string) (any, error) { return r.Incr(a[0]) }},
	"INCRBY":  {2, 2, cmdIntArg(func(r *Redis, a []string, n int64) (any, error) { return r.IncrBy(a[0], n) })},
	"DECR":    {1, 1, func(r *Redis, a []string) (any, error) { return r.Decr(a[0]) }},
	"DECRBY":  {2, 2, cmdIntArg(func(r *Redis, a []string, n int64) (any, error) { return r.DecrBy(a[0], n) })},
	"MGET":    {1, -1, func(r *Redis, a []string) (any, error) { return r.MGet(a) }},
	"KEYS":    {1, 1, func(r *Redis, a []string) (any, error) { return r.Keys(a[0]) }},
	"DBSIZE":  {0, 0, func(r *Redis, a []string) (any, error) { return r.DBSize() }},
	"SCAN":    {1, 5, cmdScan},
	"FLUSHDB": {0, 0, func(r *Redis, a []string) (any, error) { return "OK", r.FlushDB() }},

	// hashes
	"HSET":    {3, 3, func(r *Redis, a []string) (any, error) { return r.HSet(a[0], a[1], a[2]) }},
	"HGET":    {2, 2, func(r *Redis, a []string) (any, error) { return r.HGet(a[0], a[1]) }},
	"HEXISTS": {2, 2, func(r *Redis, a []string) (any, error) { return r.HExists(a[0], a[1]) }},
	"HGETALL": {1, 1, func(r *Redis, a []string) (any, error) { return r.HGetAll(a[0]) }},
	"HMSET":   {3, -1, cmdHMSet},
	"HMGET":   {2, -1, func(r *Redis, a []string) (any, error) { return r.HMGet(a[0], a[1], a[2:]) }},
	"HDEL":    {2, -1, func(r *Redis, a []string) (any, error) { return r.HDel(a[0], a[1], a[2:]...) }},
	"HKEYS":   {1, 1, func(r *Redis, a []string) (any, error) { return r.HKeys(a[0]) }},
	"HVALS":   {1, 1, func(r *Redis, a []string) (any, error) { return r.HVals(a[0]) }},
	"HLEN":    {1, 1, func(r *Redis, a []string) (any, error) { return r.HLen(a[0]) }},
	"HINCRBY": {3, 3, cmdIntArg(func(r *Redis, a []string, n int64) (any, error) { return r.HIncrBy(a[0], a[1], n) })},

	// lists
	"LLEN":      {1, 1, func(r *Redis, a []string) (any, error) { return r.LLen(a[0]) }},
	"LPUSH":     {2, -1, func(r *Redis, a []string) (any, error) { return r.LPush(a[0], a[1], toAny(a[2:])...) }},
	"RPUSH":     {2, -1, func(r *Redis, a []string) (any, error) { return r.RPush(a[0], a[1], toAny(a[2:])...) }},
	"LPOP":      {1, 1, func(r *Redis, a []string) (any, error) { return r.LPop(a[0]) }},
	"RPOP":      {1, 1, func(r *Redis, a []string) (any, error) { return r.RPop(a[0]) }},
	"LRANGE":    {3, 3, cmdLRange},
	"LINDEX":    {2, 2, cmdIntArg(func(r *Redis, a []string, n int64) (any, error) { return r.LIndex(a[0], n) })},
	"RPOPLPUSH": {2, 2, func(r *Redis, a []string) (any, error) { return r.RPopLPush(a[0], a[1]) }},

	// sets
	"SADD":        {2, -1, func(r *Redis, a []string) (any, error) { return r.SAdd(a[0], a[1], toAny(a[2:])...) }},
	"SCARD":       {1, 1, func(r *Redis, a []string) (any, error) { return r.SCard(a[0]) }},
	"SDIFF":       {1, -1, func(r *Redis, a []string) (any, error) { return r.SDiff(a[0], a[1:]) }},
	"SDIFFSTORE":  {2, -1, func(r *Redis, a []string) (any, error) { return r.SDiffStore(a[0], a[1], a[2:]...) }},
	"SINTER":      {1, -1, func(r *Redis, a []string) (any, error) { return r.SInter(a[0], a[1:]) }},
	"SINTERSTORE": {2, -1, func(r *Redis, a []string) (any, error) { return r.SInterStore(a[0], a[1], a[2:]...) }},
	"SISMEMBER":   {2, 2, func(r *Redis, a []string) (any, error) { return r.SIsMember(a[0], a[1]) }},
	"SMEMBERS":    {1, 1, func(r *Redis, a []string) (any, error) { return r.SMembers(a[0]) }},
	"SMOVE":       {3, 3, func(r *Redis, a []string) (any, error) { return r.SMove(a[0], a[1], a[2]) }},
	"SPOP":        {1, 2, cmdSPop},
	"SRANDMEMBER": {1, 2, cmdSRandMember},
	"SREM":        {2, -1, func(r *Redis, a []string) (any, error) { return r.SRem(a[0], a[1], toAny(a[2:])...) }},
	"SUNION":      {1, -1, func(r *Redis, a []string) (any, error) { return r.SUnion(a[0], a[1:]) }},
	"SUNIONSTORE": {2, -1, func(r *Redis, a []string) (any, error) { return r.SUnionStore(a[0], a[1], a[2:]...) }},
	"SSCAN":       {2, 6, cmdSScan},
}

// Do executes a command given by its name. The name is case-insensitive, the arguments
// may be of any type accepted by codec.Encode. Replies are decoded with the default
// encoding of the client.
//
//	r.Do("SET", "foo", "bar", "EX", 10)
//	r.Do("get", "foo")
func (r *Redis) Do(name string, args ...any) (any, error) {
	cmd, ok := commands[strings.ToUpper(name)]
	if !ok {
		return nil, NewReplyError("ERR", fmt.Sprintf("unknown command '%s'", name))
	}
	if len(args) < cmd.min || (cmd.max >= 0 && len(args) > cmd.max) {
		return nil, NewReplyError("ERR", fmt.Sprintf("wrong number of arguments for '%s' command", strings.ToLower(name)))
	}

	strArgs := make([]string, len(args))
	for i, a := range args {
		b, err := codec.Encode(a)
		if err != nil {
			return nil, translate(strings.ToLower(name), err)
		}
		strArgs[i] = string(b)
	}
	return cmd.run(r, strArgs)
}

// Commands returns the names of all commands supported by Do
func Commands() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	return names
}

// --------------------------------------------------------------------------
// Argument parsing
// --------------------------------------------------------------------------

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func parseInt(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errNotInteger
	}
	return n, nil
}

// cmdIntArg parses the last argument as an integer
func cmdIntArg(run func(r *Redis, a []string, n int64) (any, error)) func(r *Redis, a []string) (any, error) {
	return func(r *Redis, a []string) (any, error) {
		n, err := parseInt(a[len(a)-1])
		if err != nil {
			return nil, err
		}
		return run(r, a, n)
	}
}

// parseScanArgs parses [MATCH pattern] [COUNT count]
func parseScanArgs(a []string) (*ScanOptions, error) {
	opts := &ScanOptions{}
	for i := 0; i < len(a); i += 2 {
		if i+1 >= len(a) {
			return nil, errSyntax
		}
		switch strings.ToUpper(a[i]) {
		case "MATCH":
			opts.Match = a[i+1]
		case "COUNT":
			n, err := parseInt(a[i+1])
			if err != nil {
				return nil, err
			}
			if n < 1 {
				return nil, errSyntax
			}
			opts.Count = clampInt(n)
		default:
			return nil, errSyntax
		}
	}
	return opts, nil
}

func parseCursor(s string) (uint64, error) {
	c, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, NewReplyError("ERR", "invalid cursor")
	}
	return c, nil
}

// --------------------------------------------------------------------------
// Commands with options
// --------------------------------------------------------------------------

func cmdPing(_ *Redis, a []string) (any, error) {
	if len(a) == 1 {
		return a[0], nil
	}
	return "PONG", nil
}

func cmdExpire(millis bool) func(r *Redis, a []string) (any, error) {
	return func(r *Redis, a []string) (any, error) {
		n, err := parseInt(a[1])
		if err != nil {
			return nil, err
		}
		if millis {
			return r.PExpire(a[0], n)
		}
		return r.Expire(a[0], n)
	}
}

// cmdSet parses SET key value [EX seconds | PX milliseconds] [NX | XX]
func cmdSet(r *Redis, a []string) (any, error) {
	opts := &SetOptions{}
	for i := 2; i < len(a); i++ {
		switch strings.ToUpper(a[i]) {
		case "NX", "XX":
			if opts.Exist != SetAlways {
				return nil, errSyntax
			}
			opts.Exist = SetIfNotExist
			if strings.ToUpper(a[i]) == "XX" {
				opts.Exist = SetIfExist
			}
		case "EX", "PX":
			if i+1 >= len(a) || opts.Expire != 0 || opts.PExpire != 0 {
				return nil, errSyntax
			}
			n, err := parseInt(a[i+1])
			if err != nil {
				return nil, err
			}
			if n <= 0 {
				return nil, errInvalidExpire
			}
			if strings.ToUpper(a[i]) == "EX" {
				opts.Expire = n
			} else {
				opts.PExpire = n
			}
			i++
		default:
			return nil, errSyntax
		}
	}
	return r.Set(a[0], a[1], opts)
}

func cmdScan(r *Redis, a []string) (any, error) {
	cursor, err := parseCursor(a[0])
	if err != nil {
		return nil, err
	}
	opts, err := parseScanArgs(a[1:])
	if err != nil {
		return nil, err
	}
	next, keys, err := r.Scan(cursor, opts)
	if err != nil {
		return nil, err
	}
	return []any{next, keys}, nil
}

func cmdSScan(r *Redis, a []string) (any, error) {
	cursor, err := parseCursor(a[1])
	if err != nil {
		return nil, err
	}
	opts, err := parseScanArgs(a[2:])
	if err != nil {
		return nil, err
	}
	next, members, err := r.SScan(a[0], cursor, opts)
	if err != nil {
		return nil, err
	}
	return []any{next, members}, nil
}

func cmdHMSet(r *Redis, a []string) (any, error) {
	fields, err := hashPairs(a[1:])
	if err != nil {
		return nil, NewReplyError("ERR", "wrong number of arguments for 'hmset' command")
	}
	if err = r.HMSetDict(a[0], fields); err != nil {
		return nil, err
	}
	return "OK", nil
}

func cmdLRange(r *Redis, a []string) (any, error) {
	start, err := parseInt(a[1])
	if err != nil {
		return nil, err
	}
	stop, err := parseInt(a[2])
	if err != nil {
		return nil, err
	}
	return r.LRange(a[0], start, stop)
}

func cmdSPop(r *Redis, a []string) (any, error) {
	if len(a) == 1 {
		return r.SPop(a[0])
	}
	n, err := parseInt(a[1])
	if err != nil {
		return nil, err
	}
	return r.SPopCount(a[0], n)
}

func cmdSRandMember(r *Redis, a []string) (any, error) {
	if len(a) == 1 {
		return r.SRandMember(a[0])
	}
	n, err := parseInt(a[1])
	if err != nil {
		return nil, err
	}
	return r.SRandMemberCount(a[0], n)
}
