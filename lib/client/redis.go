package client

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/ValentinKolb/mkv/lib/codec"
	"github.com/ValentinKolb/mkv/lib/db"
	"github.com/ValentinKolb/mkv/lib/db/engines/maple"
	"github.com/ValentinKolb/mkv/lib/db/util"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("client")

// --------------------------------------------------------------------------
// Construction
// --------------------------------------------------------------------------

// Options configures a single client
type Options struct {
	Encoding codec.Encoding // default encoding of replies (zero value = raw bytes)
	Engine   db.KVDB        // engine to use, nil creates a new engine owned by the client
	Conn     any            // unused, accepted for compatibility with network clients
}

// Redis implements IRedis on top of a db.KVDB engine.
// All operations complete synchronously and never perform I/O.
type Redis struct {
	db    db.KVDB
	owned bool // the engine was created by the client and is closed with it
	enc   codec.Encoding
	conn  any

	rndMu sync.Mutex
	rnd   *rand.Rand
}

var _ IRedis = (*Redis)(nil)

// NewRedis creates a new client
func NewRedis(opts Options) *Redis {
	r := &Redis{
		db:   opts.Engine,
		enc:  opts.Encoding,
		conn: opts.Conn,
		rnd:  util.NewRand(),
	}
	if r.db == nil {
		r.db = maple.NewMapleDB(nil)
		r.owned = true
	}
	return r
}

// Factory creates the client used by Create. It allows callers to substitute the implementation.
type Factory func(opts Options) (IRedis, error)

// DefaultFactory creates a *Redis
func DefaultFactory(opts Options) (IRedis, error) {
	return NewRedis(opts), nil
}

// CreateOptions mirrors the connection options of a network client.
// Only Encoding, Engine and CommandsFactory have an effect.
type CreateOptions struct {
	DB              int
	Password        string
	SSL             bool
	Encoding        codec.Encoding
	Engine          db.KVDB
	CommandsFactory Factory // nil = DefaultFactory
}

// Create creates a client the way a network client would connect to address.
// The address is not contacted.
func Create(ctx context.Context, address string, opts CreateOptions) (IRedis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	factory := opts.CommandsFactory
	if factory == nil {
		factory = DefaultFactory
	}
	Logger.Debugf("creating client for %s (db=%d, encoding=%s)", address, opts.DB, opts.Encoding)
	return factory(Options{
		Encoding: opts.Encoding,
		Engine:   opts.Engine,
	})
}

// Encoding returns the default encoding
func (r *Redis) Encoding() codec.Encoding {
	return r.enc
}

// Engine returns the engine the client operates on
func (r *Redis) Engine() db.KVDB {
	return r.db
}

// Close closes the engine if it is owned by the client
func (r *Redis) Close() error {
	if r.owned {
		return r.db.Close()
	}
	return nil
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// begin counts the command and checks that the engine supports the required feature
func (r *Redis) begin(op string, feature db.Feature) error {
	metrics.GetOrCreateCounter(fmt.Sprintf(`mkv_client_commands_total{command=%q}`, op)).Inc()
	if !r.db.SupportsFeature(feature) {
		return unsupported(op)
	}
	return nil
}

// fail translates err and counts it
func (r *Redis) fail(op string, err error) error {
	err = translate(op, err)
	metrics.GetOrCreateCounter(fmt.Sprintf(`mkv_client_errors_total{command=%q}`, op)).Inc()
	Logger.Debugf("%s failed: %v", op, err)
	return err
}

// decode decodes a single value with the resolved encoding
func (r *Redis) decode(op string, b []byte, enc []codec.Encoding) (any, error) {
	v, err := codec.Decode(b, codec.Resolve(r.enc, enc))
	if err != nil {
		return nil, r.fail(op, err)
	}
	return v, nil
}

func (r *Redis) decodeAll(op string, values [][]byte, enc []codec.Encoding) ([]any, error) {
	v, err := codec.DecodeAll(values, codec.Resolve(r.enc, enc))
	if err != nil {
		return nil, r.fail(op, err)
	}
	return v, nil
}

func (r *Redis) decodeStrings(op string, values []string, enc []codec.Encoding) ([]any, error) {
	v, err := codec.DecodeStrings(values, codec.Resolve(r.enc, enc))
	if err != nil {
		return nil, r.fail(op, err)
	}
	return v, nil
}

// encode encodes all arguments or fails with an *ArgumentError
func (r *Redis) encode(op string, values ...any) ([][]byte, error) {
	out := make([][]byte, len(values))
	for i, v := range values {
		b, err := codec.Encode(v)
		if err != nil {
			return nil, r.fail(op, err)
		}
		out[i] = b
	}
	return out, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
