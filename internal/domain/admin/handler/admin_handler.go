package handler

import (
	"net/http"

	"linenloft/internal/domain/admin/service"
	"linenloft/pkg/response"
	"linenloft/pkg/utils"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	service service.AdminService
}

func NewAdminHandler(s service.AdminService) *AdminHandler {
	return &AdminHandler{service: s}
}

type ListOrdersQuery struct {
	utils.Pagination
	Status        string `form:"status"`
	PaymentStatus string `form:"paymentStatus"`
	CustomerID    string `form:"customerId"`
	SortBy        string `form:"sortBy"`
	Order         string `form:"order"`
}

type AdvanceStatusInput struct {
	Status string `json:"status" binding:"required,oneof=PROCESSING SHIPPED DELIVERED"`
}

// ListOrders 后台订单列表
// @Summary 后台订单列表（跨顾客）
// @Tags Admin
// @Produce json
// @Router /admin/orders [get]
func (h *AdminHandler) ListOrders(c *gin.Context) {
	var q ListOrdersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	orders, total, err := h.service.ListOrders(service.ListOrdersQuery{
		Page:          q.Page,
		Limit:         q.Limit,
		Status:        q.Status,
		PaymentStatus: q.PaymentStatus,
		CustomerID:    q.CustomerID,
		SortBy:        q.SortBy,
		Order:         q.Order,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}

	page, limit := q.Page, q.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	response.Success(c, utils.PageResult{List: orders, Total: total, Page: page, Limit: limit})
}

// GetOrder 后台订单详情
// @Summary 后台订单详情
// @Tags Admin
// @Produce json
// @Router /admin/orders/{id} [get]
func (h *AdminHandler) GetOrder(c *gin.Context) {
	order, err := h.service.GetOrder(c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, order)
}

// ListCustomers 顾客列表
// @Summary 顾客列表
// @Tags Admin
// @Produce json
// @Router /admin/customers [get]
func (h *AdminHandler) ListCustomers(c *gin.Context) {
	var p utils.Pagination
	if err := c.ShouldBindQuery(&p); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	users, total, err := h.service.ListCustomers(p.Page, p.Limit)
	if err != nil {
		response.FromError(c, err)
		return
	}

	page, limit := p.Page, p.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	response.Success(c, utils.PageResult{List: users, Total: total, Page: page, Limit: limit})
}

// AdvanceStatus 推进履约状态
// @Summary 推进订单履约状态
// @Tags Admin
// @Accept json
// @Produce json
// @Router /admin/orders/{id}/status [patch]
func (h *AdminHandler) AdvanceStatus(c *gin.Context) {
	var input AdvanceStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	order, err := h.service.AdvanceOrderStatus(c.Param("id"), input.Status)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, order)
}

// ShippingLabel 生成面单
// @Summary 生成发货面单
// @Tags Admin
// @Produce json
// @Router /admin/orders/{id}/shipping-label [post]
func (h *AdminHandler) ShippingLabel(c *gin.Context) {
	url, err := h.service.GenerateShippingLabel(c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"labelUrl": url})
}
