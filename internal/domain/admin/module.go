package admin

import (
	"linenloft/internal/domain/admin/handler"
	"linenloft/internal/domain/admin/service"
	orderRepo "linenloft/internal/domain/order/repository"
	userRepo "linenloft/internal/domain/user/repository"
	"linenloft/internal/pkg/middleware"
	"linenloft/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// AdminModule 后台模块
type AdminModule struct{}

func init() {
	registry.Register(&AdminModule{})
}

func (m *AdminModule) Name() string {
	return "admin"
}

func (m *AdminModule) Priority() int {
	// 后台依赖用户与订单的表结构，最后初始化
	return 30
}

func (m *AdminModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	orders := orderRepo.NewOrderRepository(ctx.DB)
	users := userRepo.NewUserRepository(ctx.DB)

	adminService := service.NewAdminService(orders, users, ctx.Pool)
	adminHandler := handler.NewAdminHandler(adminService)

	// 2. 路由注册
	setupRoutes(ctx.Router, adminHandler)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.AdminHandler) {
	g := r.Group("/admin")
	g.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		g.GET("/orders", h.ListOrders)
		g.GET("/orders/:id", h.GetOrder)
		g.PATCH("/orders/:id/status", h.AdvanceStatus)
		g.POST("/orders/:id/shipping-label", h.ShippingLabel)
		g.GET("/customers", h.ListCustomers)
	}
}
