package usage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"searchfuel/internal/domain"
)

// CachedProvider кэширует снимки счётчиков на короткий TTL, чтобы не ходить
// в биллинг на каждый запрос планирования. Промах и любая ошибка кэша
// прозрачно уходят в источник; ядро при этом продолжает получать свежий
// снимок на каждый вызов, кэш лишь сглаживает всплески.
type CachedProvider struct {
	source domain.UsageProvider
	cache  domain.Cache
	ttl    time.Duration
}

// NewCachedProvider оборачивает источник кэшем.
func NewCachedProvider(source domain.UsageProvider, cache domain.Cache, ttl time.Duration) *CachedProvider {
	return &CachedProvider{source: source, cache: cache, ttl: ttl}
}

var _ domain.UsageProvider = (*CachedProvider)(nil)

// Snapshot реализует domain.UsageProvider.
func (p *CachedProvider) Snapshot(ctx context.Context, accountID uuid.UUID) (domain.UsageSnapshot, error) {
	key := cacheKey(accountID)
	if raw, err := p.cache.Get(key); err == nil && len(raw) > 0 {
		var snapshot domain.UsageSnapshot
		if err := json.Unmarshal(raw, &snapshot); err == nil {
			return snapshot, nil
		}
	}

	snapshot, err := p.source.Snapshot(ctx, accountID)
	if err != nil {
		return domain.UsageSnapshot{}, err
	}
	if raw, err := json.Marshal(snapshot); err == nil {
		_ = p.cache.Set(key, raw, p.ttl)
	}
	return snapshot, nil
}

func cacheKey(accountID uuid.UUID) string {
	return fmt.Sprintf("usage:%s", accountID)
}
