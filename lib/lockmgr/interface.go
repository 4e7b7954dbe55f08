package lockmgr

// ILockManager defines the interface for a lock provider.
type ILockManager interface {
	// AcquireLock acquires the lock for the given key. A timeout in seconds > 0 releases the
	// lock automatically after that time, 0 keeps it until it is released.
	// Return a boolean indicating whether the lock was acquired, an owner ID, and an error if any.
	AcquireLock(key string, timeout uint64) (ok bool, ownerID []byte, err error)

	// ReleaseLock releases the lock for the given key if it is held by ownerID.
	// Return a boolean indicating whether the lock was released, and an error if any.
	// The method will also return true if the lock did not exist.
	ReleaseLock(key string, ownerID []byte) (ok bool, err error)
}
