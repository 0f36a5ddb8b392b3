package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/infrastructure/persistence/mappers"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/infrastructure/persistence/models"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/logger"
)

const (
	planKeyPrefix     = "plans:id:"
	planListKeyPrefix = "plans:list:"
	defaultPlanTTL    = 60 * time.Second
)

// LookupRecorder counts cache hits and misses per tier.
type LookupRecorder interface {
	RecordPlanCacheLookup(tier string, hit bool)
}

type nopLookupRecorder struct{}

func (nopLookupRecorder) RecordPlanCacheLookup(string, bool) {}

// CachedPlanReader is a read-through cache in front of the plan repository.
// Entries are stored as persistence models so cached and stored plans decode the
// same way. Cache failures are logged and fall through to the repository.
type CachedPlanReader struct {
	repo     subscription.PlanReader
	store    blobStore
	mapper   mappers.PlanMapper
	recorder LookupRecorder
	logger   logger.Interface
}

var _ subscription.PlanReader = (*CachedPlanReader)(nil)

// NewCachedPlanReader uses redis when client is non-nil and an in-process
// expiring LRU of lruSize entries otherwise.
func NewCachedPlanReader(
	repo subscription.PlanReader,
	client *redis.Client,
	ttl time.Duration,
	lruSize int,
	recorder LookupRecorder,
	logger logger.Interface,
) *CachedPlanReader {
	if ttl <= 0 {
		ttl = defaultPlanTTL
	}
	if recorder == nil {
		recorder = nopLookupRecorder{}
	}

	var store blobStore
	if client != nil {
		store = newRedisBlobStore(client, ttl)
	} else {
		store = newLRUBlobStore(lruSize, ttl)
	}

	return &CachedPlanReader{
		repo:     repo,
		store:    store,
		mapper:   mappers.NewPlanMapper(),
		recorder: recorder,
		logger:   logger,
	}
}

func planKey(id string) string {
	return planKeyPrefix + id
}

func planListKey(filter subscription.PlanFilter) string {
	return fmt.Sprintf("%s%t:%t", planListKeyPrefix, filter.IncludeInactive, filter.PublicOnly)
}

func allPlanListKeys() []string {
	keys := make([]string, 0, 4)
	for _, inactive := range []bool{false, true} {
		for _, public := range []bool{false, true} {
			keys = append(keys, planListKey(subscription.PlanFilter{IncludeInactive: inactive, PublicOnly: public}))
		}
	}
	return keys
}

func (c *CachedPlanReader) GetByID(ctx context.Context, id string) (*subscription.Plan, error) {
	key := planKey(id)

	if cached, ok := c.load(ctx, key); ok {
		var model models.PlanModel
		if err := json.Unmarshal(cached, &model); err == nil {
			if plan, err := c.mapper.ToEntity(&model); err == nil {
				return plan, nil
			}
		}
		c.logger.Warnw("discarding undecodable cached plan", "plan_id", id)
	}

	plan, err := c.repo.GetByID(ctx, id)
	if err != nil || plan == nil {
		return plan, err
	}

	model, err := c.mapper.ToModel(plan)
	if err == nil {
		c.save(ctx, key, model)
	}
	return plan, nil
}

func (c *CachedPlanReader) List(ctx context.Context, filter subscription.PlanFilter) ([]*subscription.Plan, error) {
	key := planListKey(filter)

	if cached, ok := c.load(ctx, key); ok {
		var planModels []*models.PlanModel
		if err := json.Unmarshal(cached, &planModels); err == nil {
			if plans, err := c.mapper.ToEntities(planModels); err == nil {
				return plans, nil
			}
		}
		c.logger.Warnw("discarding undecodable cached plan list", "key", key)
	}

	plans, err := c.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	planModels := make([]*models.PlanModel, 0, len(plans))
	for _, plan := range plans {
		model, err := c.mapper.ToModel(plan)
		if err != nil {
			return plans, nil
		}
		planModels = append(planModels, model)
	}
	c.save(ctx, key, planModels)
	return plans, nil
}

// Invalidate drops the plan's entry and every cached listing.
func (c *CachedPlanReader) Invalidate(ctx context.Context, planID string) error {
	keys := append([]string{planKey(planID)}, allPlanListKeys()...)
	if err := c.store.Delete(ctx, keys...); err != nil {
		c.logger.Errorw("failed to invalidate plan cache", "plan_id", planID, "error", err)
		return err
	}
	return nil
}

func (c *CachedPlanReader) load(ctx context.Context, key string) ([]byte, bool) {
	value, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warnw("plan cache read failed", "key", key, "error", err)
		return nil, false
	}
	c.recorder.RecordPlanCacheLookup(c.store.Tier(), value != nil)
	return value, value != nil
}

func (c *CachedPlanReader) save(ctx context.Context, key string, value interface{}) {
	payload, err := json.Marshal(value)
	if err != nil {
		c.logger.Warnw("failed to encode plan cache entry", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, payload); err != nil {
		c.logger.Warnw("plan cache write failed", "key", key, "error", err)
	}
}
