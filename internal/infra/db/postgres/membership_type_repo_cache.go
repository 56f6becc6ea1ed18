package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gym-membership-backend/internal/domain/model"
	"gym-membership-backend/internal/domain/ports/repository"
	"gym-membership-backend/internal/infra/metrics"
	red "gym-membership-backend/internal/infra/redis"
)

var _ repository.MembershipTypeRepository = (*typeRepoCacheDecorator)(nil)

// typeRepoCacheDecorator caches the plan catalog in redis. The catalog is
// small and read on every purchase, so a coarse invalidate-on-write policy
// is enough.
type typeRepoCacheDecorator struct {
	inner repository.MembershipTypeRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewTypeRepoCacheDecorator(inner repository.MembershipTypeRepository, cache red.RedisClient, ttl time.Duration) repository.MembershipTypeRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &typeRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func (d *typeRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.MembershipType, error) {
	key := fmt.Sprintf("membership_type:%s", id)
	val, err := d.cache.Get(ctx, key)
	switch {
	case err == nil:
		var mt model.MembershipType
		if json.Unmarshal([]byte(val), &mt) == nil {
			metrics.IncCacheRequest("membership_type", "hit")
			return &mt, nil
		}
		metrics.IncCacheRequest("membership_type", "miss")
	case errors.Is(err, red.Nil):
		metrics.IncCacheRequest("membership_type", "miss")
	default:
		// Redis being down must not take reads down with it.
		metrics.IncCacheRequest("membership_type", "error")
	}
	mt, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(mt); err == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return mt, nil
}

func (d *typeRepoCacheDecorator) FindByTitle(ctx context.Context, tx repository.Tx, title model.MembershipTitle) (*model.MembershipType, error) {
	// Title lookups only happen on catalog writes; skip the cache.
	return d.inner.FindByTitle(ctx, tx, title)
}

func (d *typeRepoCacheDecorator) ListAll(ctx context.Context, tx repository.Tx) ([]*model.MembershipType, error) {
	return d.cachedList(ctx, tx, "membership_types:all", d.inner.ListAll)
}

func (d *typeRepoCacheDecorator) ListActive(ctx context.Context, tx repository.Tx) ([]*model.MembershipType, error) {
	return d.cachedList(ctx, tx, "membership_types:active", d.inner.ListActive)
}

func (d *typeRepoCacheDecorator) cachedList(ctx context.Context, tx repository.Tx, key string, fetch func(context.Context, repository.Tx) ([]*model.MembershipType, error)) ([]*model.MembershipType, error) {
	val, err := d.cache.Get(ctx, key)
	switch {
	case err == nil:
		var list []*model.MembershipType
		if json.Unmarshal([]byte(val), &list) == nil {
			metrics.IncCacheRequest("membership_type_list", "hit")
			return list, nil
		}
		metrics.IncCacheRequest("membership_type_list", "miss")
	case errors.Is(err, red.Nil):
		metrics.IncCacheRequest("membership_type_list", "miss")
	default:
		metrics.IncCacheRequest("membership_type_list", "error")
	}
	list, err := fetch(ctx, tx)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(list); err == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return list, nil
}

func (d *typeRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, mt *model.MembershipType) error {
	d.invalidate(ctx, mt.ID)
	return d.inner.Save(ctx, tx, mt)
}

func (d *typeRepoCacheDecorator) Delete(ctx context.Context, tx repository.Tx, id string) error {
	d.invalidate(ctx, id)
	return d.inner.Delete(ctx, tx, id)
}

func (d *typeRepoCacheDecorator) invalidate(ctx context.Context, id string) {
	_ = d.cache.Del(ctx,
		fmt.Sprintf("membership_type:%s", id),
		"membership_types:all",
		"membership_types:active",
	)
}
