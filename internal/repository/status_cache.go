package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/higortorres2001-commits/site-casamento-sub001/internal/model"
	"github.com/redis/go-redis/v9"
)

// order_status:{order_id} -> status
const keyOrderStatus = "order_status:%s"

// OrderStatusCache is a read-through shortcut for status polling. The
// database stays the source of truth.
type OrderStatusCache interface {
	Get(ctx context.Context, orderID string) (model.OrderStatus, bool)
	Set(ctx context.Context, orderID string, status model.OrderStatus)
	Invalidate(ctx context.Context, orderID string)
}

type NopStatusCache struct{}

func (NopStatusCache) Get(context.Context, string) (model.OrderStatus, bool) { return "", false }
func (NopStatusCache) Set(context.Context, string, model.OrderStatus)        {}
func (NopStatusCache) Invalidate(context.Context, string)                    {}

type redisStatusCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewOrderStatusCache(rdb *redis.Client, ttl time.Duration) OrderStatusCache {
	if rdb == nil {
		return NopStatusCache{}
	}
	return &redisStatusCache{rdb: rdb, ttl: ttl}
}

func (c *redisStatusCache) Get(ctx context.Context, orderID string) (model.OrderStatus, bool) {
	s, err := c.rdb.Get(ctx, fmt.Sprintf(keyOrderStatus, orderID)).Result()
	if err != nil || s == "" { // redis.Nil on a miss
		return "", false
	}
	return model.OrderStatus(s), true
}

func (c *redisStatusCache) Set(ctx context.Context, orderID string, status model.OrderStatus) {
	_ = c.rdb.Set(ctx, fmt.Sprintf(keyOrderStatus, orderID), string(status), c.ttl).Err()
}

func (c *redisStatusCache) Invalidate(ctx context.Context, orderID string) {
	_ = c.rdb.Del(ctx, fmt.Sprintf(keyOrderStatus, orderID)).Err()
}
