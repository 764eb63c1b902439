package order

import (
	"linenloft/internal/domain/order/handler"
	"linenloft/internal/domain/order/repository"
	"linenloft/internal/domain/order/service"
	"linenloft/internal/domain/payment/strategy"
	"linenloft/internal/pkg/config"
	"linenloft/internal/pkg/middleware"
	"linenloft/internal/pkg/registry"
	"linenloft/pkg/cache"
	"linenloft/pkg/logger"

	"github.com/gin-gonic/gin"
)

// OrderModule 订单模块
type OrderModule struct{}

func init() {
	registry.Register(&OrderModule{})
}

func (m *OrderModule) Name() string {
	return "order"
}

func (m *OrderModule) Priority() int {
	// 订单模块依赖用户模块，优先级较低
	return 20
}

func (m *OrderModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	orderRepo := repository.NewOrderRepository(ctx.DB)
	cacheService := cache.NewRedisCache(ctx.Redis)

	// 2. 支付渠道，未配置时订单照常可建，支付确认会报渠道错误
	var paymentStrategy strategy.PaymentStrategy
	if config.GlobalConfig.PayPal.ClientID != "" {
		pp, err := strategy.NewPayPalStrategy()
		if err != nil {
			logger.Log.Error("Failed to init PayPal strategy: " + err.Error())
		} else {
			paymentStrategy = pp
		}
	}

	orderService := service.NewOrderService(orderRepo, paymentStrategy, ctx.Pool)
	cached := service.NewCachedOrderService(orderService, cacheService)
	orderHandler := handler.NewOrderHandler(cached)

	// 3. 路由注册
	setupRoutes(ctx.Router, orderHandler)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.OrderHandler) {
	// 游客可用的接口：下单、支付确认、按订单号查单
	guest := r.Group("")
	guest.Use(middleware.OptionalAuthMiddleware())
	{
		guest.POST("/orders", h.CreateOrder)
		guest.POST("/payments/capture", h.CapturePayment)
		guest.GET("/orders/guest/:orderNo", h.GetGuestOrder)
	}

	// 需要登录的接口
	auth := r.Group("/orders")
	auth.Use(middleware.AuthMiddleware())
	{
		auth.GET("", h.GetOrders)
		auth.GET("/:id", h.GetOrder)
		auth.PATCH("/:id", h.UpdateOrder)
	}
}
