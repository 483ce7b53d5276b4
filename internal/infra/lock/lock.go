package lock

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/imobcrm/erpsync/internal/domain"
	"github.com/imobcrm/erpsync/internal/usecase"
)

var (
	_ usecase.RunLock = (*MemcacheLock)(nil)
	_ usecase.RunLock = (*LocalLock)(nil)
)

const keyPrefix = "erpsync:lock:"

type memcacheClient interface {
	Add(item *memcache.Item) error
	Get(key string) (*memcache.Item, error)
	Delete(key string) error
}

// MemcacheLock is shared by every process pointing at the same memcached.
// The ttl bounds how long a crashed holder blocks the license.
type MemcacheLock struct {
	mc memcacheClient
}

func NewMemcacheLock(mc *memcache.Client) *MemcacheLock {
	return &MemcacheLock{mc: mc}
}

func (l *MemcacheLock) Acquire(ctx context.Context, licenseID string, ttl time.Duration) (func(), error) {
	key := keyPrefix + licenseID
	token := uuid.NewString()

	err := l.mc.Add(&memcache.Item{
		Key:        key,
		Value:      []byte(token),
		Expiration: int32(ttl.Seconds()),
	})
	if errors.Is(err, memcache.ErrNotStored) {
		return nil, domain.ErrSyncInProgress
	}
	if err != nil {
		return nil, errors.Wrap(err, "acquire run lock")
	}

	return func() {
		item, err := l.mc.Get(key)
		if err != nil || string(item.Value) != token {
			// expired and possibly taken by another run
			return
		}
		if err := l.mc.Delete(key); err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
			slog.Warn(
				"failed to release run lock",
				slog.String("license", licenseID),
				slog.String("error", err.Error()),
				slog.String("module", "lock"),
			)
		}
	}, nil
}

// LocalLock only guards runs inside this process.
type LocalLock struct {
	mu   sync.Mutex
	held map[string]time.Time
	now  func() time.Time
}

func NewLocalLock() *LocalLock {
	return &LocalLock{held: map[string]time.Time{}, now: time.Now}
}

func (l *LocalLock) Acquire(ctx context.Context, licenseID string, ttl time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if until, ok := l.held[licenseID]; ok && now.Before(until) {
		return nil, domain.ErrSyncInProgress
	}
	until := now.Add(ttl)
	l.held[licenseID] = until

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.held[licenseID].Equal(until) {
			delete(l.held, licenseID)
		}
	}, nil
}
