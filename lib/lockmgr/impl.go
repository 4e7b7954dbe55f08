package lockmgr

import (
	"bytes"
	"errors"
	"math"

	"github.com/ValentinKolb/mkv/lib/client"
	"github.com/ValentinKolb/mkv/lib/codec"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("lockmgr")

// ErrInvalidTimeout is returned for timeouts that cannot be represented as an expiration
var ErrInvalidTimeout = errors.New("invalid lock timeout")

type lockMgrImpl struct {
	client client.IRedis
}

func NewLockManager(c client.IRedis) ILockManager {
	return &lockMgrImpl{
		client: c,
	}
}

func (lm *lockMgrImpl) AcquireLock(key string, timeout uint64) (bool, []byte, error) {
	if timeout > math.MaxInt32 {
		return false, nil, ErrInvalidTimeout
	}

	ownerID, err := generateOwnerID()
	if err != nil {
		return false, nil, err
	}

	// set only if the key doesn't exist, at most one caller succeeds
	ok, err := lm.client.Set(key, ownerID, &client.SetOptions{
		Exist:  client.SetIfNotExist,
		Expire: int64(timeout),
	})
	if err != nil {
		Logger.Warningf("failed to set lock %q: %v", key, err)
		return false, nil, err
	}
	if !ok {
		return false, nil, nil
	}
	return true, ownerID, nil
}

func (lm *lockMgrImpl) ReleaseLock(key string, ownerID []byte) (bool, error) {
	p := lm.client.Pipeline()
	if err := p.Watch(key); err != nil {
		return false, err
	}

	value, err := codec.Bytes(lm.client.Get(key, codec.Raw))
	if err != nil {
		p.Discard()
		return false, err
	}
	if value == nil {
		p.Discard()
		return true, nil
	}

	// check if the lock is owned by the caller
	if !bytes.Equal(ownerID, value) {
		p.Discard()
		return false, nil
	}

	// the delete only runs if the lock was not changed since it was read
	p.Queue(func(r client.IRedis) (any, error) {
		return r.Delete(key)
	})
	_, err = p.Execute()
	if errors.Is(err, client.ErrWatch) {
		return false, nil
	}
	return err == nil, err
}
