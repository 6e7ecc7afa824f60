package memory

import (
	"context"
	"sync"

	"github.com/fastygo/accounts/domain"
)

// RecentLoginFeed is a bounded newest-first list.
type RecentLoginFeed struct {
	mu    sync.Mutex
	items []domain.RecentLogin
	size  int
}

func NewRecentLoginFeed(size int) *RecentLoginFeed {
	if size <= 0 {
		size = 10
	}
	return &RecentLoginFeed{size: size}
}

func (f *RecentLoginFeed) Push(_ context.Context, login domain.RecentLogin) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append([]domain.RecentLogin{login}, f.items...)
	if len(f.items) > f.size {
		f.items = f.items[:f.size]
	}
	return nil
}

func (f *RecentLoginFeed) Latest(_ context.Context, n int) ([]domain.RecentLogin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n <= 0 || n > len(f.items) {
		n = len(f.items)
	}
	out := make([]domain.RecentLogin, n)
	copy(out, f.items[:n])
	return out, nil
}

func (f *RecentLoginFeed) Reset(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = nil
	return nil
}
