package credential

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/imobcrm/erpsync/internal/domain"
	"github.com/imobcrm/erpsync/internal/usecase"
)

var _ usecase.CredentialProvider = (*Cached)(nil)

// Cached keeps successful lookups for ttl. Failures are not cached.
type Cached struct {
	next  usecase.CredentialProvider
	cache *cache.Cache
}

func NewCached(next usecase.CredentialProvider, ttl time.Duration) *Cached {
	return &Cached{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (c *Cached) Credential(ctx context.Context, licenseID string) (domain.Credential, error) {
	cacheKey := "credential:" + licenseID
	if x, found := c.cache.Get(cacheKey); found {
		return x.(domain.Credential), nil
	}

	cred, err := c.next.Credential(ctx, licenseID)
	if err != nil {
		return domain.Credential{}, err
	}
	c.cache.Set(cacheKey, cred, cache.DefaultExpiration)
	return cred, nil
}

// Forget drops a cached credential. The sync runner calls it when the ERP
// answers 401 or 403.
func (c *Cached) Forget(licenseID string) {
	c.cache.Delete("credential:" + licenseID)
}
