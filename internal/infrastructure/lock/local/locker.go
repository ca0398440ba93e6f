package local

import (
	"context"
	"sync"

	"github.com/JoeShih716/go-blackjack-server/internal/core/ports"
)

var _ ports.Locker = (*Locker)(nil)

// Locker 單一行程內以 key 為單位的互斥鎖。
// 不同 key 互不阻塞；沒有人持有或等待的 key 會被回收。
type Locker struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	ch   chan struct{} // 容量 1，放入代表持有
	refs int
}

func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*entry)}
}

// Lock 取得 key 的鎖，ctx 結束前拿不到則回傳 ctx.Err()
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.release(key, e)
		})
	}, nil
}

func (l *Locker) release(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

// Len 目前追蹤中的 key 數量
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
