package memory

import (
	"context"
	"sync"
)

// keyLocker 依 key 加鎖的互斥鎖集合 (不同 key 互不阻塞)
// 等待中的呼叫會在 ctx 取消時放棄
type keyLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	// 容量 1 的 channel 當作可取消的 mutex
	ch   chan struct{}
	refs int
}

func newKeyLocker() *keyLocker {
	return &keyLocker{locks: make(map[string]*keyLock)}
}

// Lock 取得 key 的鎖，ctx 取消時回傳 ctx.Err()
func (k *keyLocker) Lock(ctx context.Context, key string) error {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{ch: make(chan struct{}, 1)}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		k.mu.Lock()
		k.deref(key, l)
		k.mu.Unlock()
		return ctx.Err()
	}
}

// Unlock 釋放 key 的鎖，必須由持有者呼叫
func (k *keyLocker) Unlock(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	l, ok := k.locks[key]
	if !ok {
		return
	}
	<-l.ch
	k.deref(key, l)
}

// deref 呼叫時需持有 k.mu
func (k *keyLocker) deref(key string, l *keyLock) {
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
}

// size 目前追蹤中的 key 數量
func (k *keyLocker) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
