package security

import (
	"time"

	"github.com/shaj13/go-guardian/v2/auth"
	"github.com/shaj13/libcache"
	_ "github.com/shaj13/libcache/lru"
)

var gatewayStrategy auth.Strategy

const (
	defaultIdentityCacheSize = 2000
	defaultIdentityCacheTTL  = 5 * time.Minute
)

func SetupGoGuardian(headers GatewayHeaders, cacheSize int, cacheTTL time.Duration) {
	if cacheSize <= 0 {
		cacheSize = defaultIdentityCacheSize
	}
	if cacheTTL <= 0 {
		cacheTTL = defaultIdentityCacheTTL
	}
	cache := libcache.LRU.New(cacheSize)
	cache.RegisterOnExpired(func(key, _ interface{}) {
		cache.Delete(key)
	})
	gatewayStrategy = NewGatewayStrategy(cache, headers, cacheTTL)
}
