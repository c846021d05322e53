// Package keylock serialises work per key, such as every check-then-commit
// sequence on one account.
package keylock

import (
	"context"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
)

type Locker interface {
	// Lock blocks until key is held or ctx is done. The returned func
	// releases the key and is safe to call more than once.
	Lock(ctx context.Context, key string) (func(), error)
}

type entry struct {
	ch   chan struct{}
	refs int
}

// Local is an in-process Locker. Entries are dropped once no caller holds
// or waits for their key.
type Local struct {
	entries *xsync.MapOf[string, *entry]
}

func NewLocal() *Local {
	return &Local{
		entries: xsync.NewMapOf[string, *entry](),
	}
}

func (l *Local) Lock(ctx context.Context, key string) (func(), error) {
	e, _ := l.entries.Compute(key, func(old *entry, loaded bool) (*entry, bool) {
		if !loaded {
			old = &entry{ch: make(chan struct{}, 1)}
		}
		old.refs++
		return old, false
	})

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.release(key)
		})
	}, nil
}

func (l *Local) release(key string) {
	l.entries.Compute(key, func(old *entry, loaded bool) (*entry, bool) {
		if !loaded {
			return nil, true
		}
		old.refs--
		return old, old.refs == 0
	})
}

// Len reports how many keys are currently held or awaited.
func (l *Local) Len() int {
	return l.entries.Size()
}
