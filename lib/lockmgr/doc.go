// Package lockmgr implements owner-tagged locks on top of a client.IRedis.
//
// The lock manager only ever stores in the provided client and has no other
// internal state. It is safe to create it multiple times on the same client or
// on clients that share an engine, all locks will work as expected.
//
// Implementation Approach:
//
//	- Lock Acquisition: the lock key is written with a conditional set that only
//	  succeeds if the key does not exist. The value is a randomly generated owner ID
//	  that identifies the lock holder.
//
//	- Timeouts: a timeout in seconds sets an expiration on the lock key, the lock is
//	  released automatically if its holder never releases it.
//
//	- Safe Release: ReleaseLock watches the lock key, compares the stored owner ID
//	  and deletes the key in a pipeline. If the key changes between the check and the
//	  delete, the pipeline is discarded and the lock is kept.
//
// Usage Example:
//
//	locks := lockmgr.NewLockManager(conn)
//
//	acquired, ownerID, err := locks.AcquireLock("resource:123", 30)
//	if err != nil {
//	    // Handle error
//	}
//
//	if acquired {
//	    // Use the resource safely
//	    // ...
//
//	    released, err := locks.ReleaseLock("resource:123", ownerID)
//	    if err != nil {
//	        // Handle error
//	    }
//	}
package lockmgr
