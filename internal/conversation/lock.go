package conversation

import (
	"context"
	"sync"
)

// TurnLocker serializes turns within one session. Concurrent requests
// against the same session wait for each other; different sessions never
// contend.
type TurnLocker interface {
	Lock(ctx context.Context, sessionID string) (unlock func(), err error)
}

// keyedMutex is the in-process locker used in single-node deployments.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedMutex() TurnLocker {
	return &keyedMutex{locks: map[string]*sessionLock{}}
}

func (k *keyedMutex) Lock(ctx context.Context, sessionID string) (func(), error) {
	k.mu.Lock()
	entry, ok := k.locks[sessionID]
	if !ok {
		entry = &sessionLock{}
		k.locks[sessionID] = entry
	}
	entry.refs++
	k.mu.Unlock()

	acquired := make(chan struct{})
	go func() {
		entry.mu.Lock()
		close(acquired)
	}()

	select {
	case <-acquired:
		return func() {
			entry.mu.Unlock()
			k.release(sessionID, entry)
		}, nil
	case <-ctx.Done():
		// The goroutine still gets the mutex eventually; hand it back
		// immediately so waiters behind us are not stranded.
		go func() {
			<-acquired
			entry.mu.Unlock()
			k.release(sessionID, entry)
		}()
		return nil, ctx.Err()
	}
}

func (k *keyedMutex) release(sessionID string, entry *sessionLock) {
	k.mu.Lock()
	entry.refs--
	if entry.refs == 0 {
		delete(k.locks, sessionID)
	}
	k.mu.Unlock()
}
