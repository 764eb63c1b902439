package service

import (
	"context"
	"fmt"
	"time"

	"linenloft/internal/domain/order/model"
	"linenloft/pkg/cache"
	"linenloft/pkg/metrics"
)

// CachedOrderService 带读缓存的订单服务
// 只缓存单个订单的读取，状态写入后立即失效，worker 的异步失效作为兜底
type CachedOrderService struct {
	inner OrderService
	cache cache.CacheService
}

// 缓存键常量
const (
	OrderCacheKeyPrefix = "order:"
	OrderCacheTTL       = time.Minute * 10
)

// NewCachedOrderService 创建带缓存的订单服务
func NewCachedOrderService(inner OrderService, cacheService cache.CacheService) OrderService {
	return &CachedOrderService{
		inner: inner,
		cache: cacheService,
	}
}

// getOrderCacheKey 缓存键带上身份，避免不同身份之间串缓存
func (s *CachedOrderService) getOrderCacheKey(identity Identity, orderID string) string {
	owner := identity.UserID
	if owner == "" {
		owner = "guest:" + identity.GuestEmail
	}
	return fmt.Sprintf("%s%s:%s", OrderCacheKeyPrefix, orderID, owner)
}

func (s *CachedOrderService) invalidate(identity Identity, orderID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*2)
	defer cancel()
	_ = s.cache.Delete(ctx, s.getOrderCacheKey(identity, orderID))
}

func (s *CachedOrderService) CreateOrder(ctx context.Context, identity Identity, input CreateOrderInput) (*model.Order, string, error) {
	return s.inner.CreateOrder(ctx, identity, input)
}

func (s *CachedOrderService) GetOrder(identity Identity, orderID string) (*model.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*2)
	defer cancel()

	key := s.getOrderCacheKey(identity, orderID)
	collector := metrics.GetGlobalCollector()

	var cached model.Order
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		collector.RecordCacheHit("order")
		return &cached, nil
	}
	// 未命中与缓存故障都降级为直查数据库
	collector.RecordCacheMiss("order")

	order, err := s.inner.GetOrder(identity, orderID)
	if err != nil {
		return nil, err
	}

	_ = s.cache.Set(ctx, key, order, OrderCacheTTL)
	return order, nil
}

func (s *CachedOrderService) GetOrderByNo(identity Identity, orderNo string) (*model.Order, error) {
	// 订单号路径使用频率低，不做缓存
	return s.inner.GetOrderByNo(identity, orderNo)
}

func (s *CachedOrderService) ListOrders(identity Identity, q ListQuery) ([]model.Order, int64, error) {
	return s.inner.ListOrders(identity, q)
}

func (s *CachedOrderService) CancelOrder(identity Identity, orderID string) (*model.Order, error) {
	order, err := s.inner.CancelOrder(identity, orderID)
	if err != nil {
		return nil, err
	}
	s.invalidate(identity, orderID)
	return order, nil
}

func (s *CachedOrderService) CapturePayment(ctx context.Context, identity Identity, orderID, providerRef string) (*model.Order, error) {
	order, err := s.inner.CapturePayment(ctx, identity, orderID, providerRef)
	if err != nil {
		return nil, err
	}
	s.invalidate(identity, orderID)
	return order, nil
}
