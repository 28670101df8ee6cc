package engine

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// advisoryLocker is the slice of the dialect the coordinator needs.
type advisoryLocker interface {
	AcquireLock(ctx context.Context, conn *sql.Conn, key int64, timeout time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, conn *sql.Conn, key int64) error
}

// startupLock serializes reconciliation across concurrently starting
// instances. It pins a dedicated session connection for the lock's lifetime:
// advisory locks are session-scoped, so even an abrupt crash releases the
// lock when the connection dies. Release is safe to call more than once.
type startupLock struct {
	conn     *sql.Conn
	locker   advisoryLocker
	key      int64
	released bool
}

// acquireStartupLock takes the named lock with a bounded wait. ErrLockTimeout
// means another instance won the race; callers skip the run and keep booting.
func acquireStartupLock(ctx context.Context, db *sql.DB, locker advisoryLocker, key int64, timeout time.Duration) (*startupLock, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to pin lock connection: %w", err)
	}

	ok, err := locker.AcquireLock(ctx, conn, key, timeout)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("lock acquisition failed: %w", err)
	}
	if !ok {
		conn.Close()
		return nil, ErrLockTimeout
	}
	return &startupLock{conn: conn, locker: locker, key: key}, nil
}

// Release unlocks and returns the pinned connection to the pool. Best-effort:
// closing the connection releases the session lock regardless of whether the
// explicit unlock succeeded, so nothing here can leave the lock stuck.
func (l *startupLock) Release() {
	if l == nil || l.released {
		return
	}
	l.released = true
	l.locker.ReleaseLock(context.Background(), l.conn, l.key)
	l.conn.Close()
}
