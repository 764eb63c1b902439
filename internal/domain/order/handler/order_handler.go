package handler

import (
	"net/http"

	"linenloft/internal/domain/order/model"
	"linenloft/internal/domain/order/service"
	"linenloft/pkg/response"
	"linenloft/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type OrderHandler struct {
	service service.OrderService
}

func NewOrderHandler(s service.OrderService) *OrderHandler {
	return &OrderHandler{service: s}
}

type AddressInput struct {
	Name    string `json:"name" binding:"required"`
	Line1   string `json:"line1" binding:"required"`
	Line2   string `json:"line2"`
	City    string `json:"city" binding:"required"`
	State   string `json:"state"`
	Zip     string `json:"zip" binding:"required"`
	Country string `json:"country" binding:"required"`
	Phone   string `json:"phone"`
}

type OrderItemInput struct {
	ProductID   string          `json:"productId" binding:"required"`
	ProductName string          `json:"productName" binding:"required"`
	SKU         string          `json:"sku"`
	UnitPrice   decimal.Decimal `json:"unitPrice" binding:"required"`
	Quantity    int             `json:"quantity" binding:"required,gt=0"`
}

type CreateOrderInput struct {
	Items           []OrderItemInput `json:"items" binding:"required,min=1,dive"`
	ShippingAddress AddressInput     `json:"shippingAddress" binding:"required"`
	BillingAddress  AddressInput     `json:"billingAddress" binding:"required"`
	GuestEmail      string           `json:"guestEmail" binding:"omitempty,email"`
}

type UpdateOrderInput struct {
	// PATCH /orders/:id 只支持用户取消
	Action string `json:"action" binding:"required,oneof=cancel"`
}

type CaptureInput struct {
	OrderID       string `json:"orderId" binding:"required"`
	PayPalOrderID string `json:"paypalOrderId" binding:"required"`
	GuestEmail    string `json:"guestEmail" binding:"omitempty,email"` // 游客支付确认
}

type ListOrdersQuery struct {
	utils.Pagination
	Status        string `form:"status"`
	PaymentStatus string `form:"paymentStatus"`
	SortBy        string `form:"sortBy"`
	Order         string `form:"order"`
}

// identityFromContext 从认证中间件注入的上下文取身份，游客接口允许用邮箱兜底
func identityFromContext(c *gin.Context, guestEmail string) service.Identity {
	identity := service.Identity{UserID: c.GetString("userID")}
	if identity.UserID == "" {
		identity.GuestEmail = guestEmail
	}
	return identity
}

// CreateOrder 下单
// @Summary 创建订单（登录或游客）
// @Tags Order
// @Accept json
// @Produce json
// @Param input body CreateOrderInput true "Order"
// @Success 200 {object} response.Response
// @Router /orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var input CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	items := make([]service.CreateItemInput, 0, len(input.Items))
	for _, it := range input.Items {
		items = append(items, service.CreateItemInput{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			SKU:         it.SKU,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
		})
	}

	identity := identityFromContext(c, input.GuestEmail)
	order, approveURL, err := h.service.CreateOrder(c.Request.Context(), identity, service.CreateOrderInput{
		Items:           items,
		ShippingAddress: toAddress(input.ShippingAddress),
		BillingAddress:  toAddress(input.BillingAddress),
		GuestEmail:      input.GuestEmail,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, gin.H{
		"order":      order,
		"approveUrl": approveURL,
	})
}

// GetOrders 当前用户订单列表
// @Summary 订单列表（分页、过滤、排序）
// @Tags Order
// @Produce json
// @Router /orders [get]
func (h *OrderHandler) GetOrders(c *gin.Context) {
	var q ListOrdersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	identity := identityFromContext(c, "")
	orders, total, err := h.service.ListOrders(identity, service.ListQuery{
		Page:          q.Page,
		Limit:         q.Limit,
		Status:        q.Status,
		PaymentStatus: q.PaymentStatus,
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

// GetOrder 订单详情
// @Summary 订单详情
// @Tags Order
// @Produce json
// @Router /orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	identity := identityFromContext(c, "")
	order, err := h.service.GetOrder(identity, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, order)
}

// GetGuestOrder 游客按订单号+邮箱查单
// @Summary 游客订单查询
// @Tags Order
// @Produce json
// @Router /orders/guest/{orderNo} [get]
func (h *OrderHandler) GetGuestOrder(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "email is required")
		return
	}

	identity := identityFromContext(c, email)
	order, err := h.service.GetOrderByNo(identity, c.Param("orderNo"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, order)
}

// UpdateOrder 订单变更，目前仅支持取消
// @Summary 取消订单
// @Tags Order
// @Accept json
// @Produce json
// @Router /orders/{id} [patch]
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	var input UpdateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	identity := identityFromContext(c, "")
	order, err := h.service.CancelOrder(identity, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, order)
}

// CapturePayment 支付确认
// @Summary PayPal 支付确认
// @Tags Payment
// @Accept json
// @Produce json
// @Param input body CaptureInput true "Capture"
// @Router /payments/capture [post]
func (h *OrderHandler) CapturePayment(c *gin.Context) {
	var input CaptureInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	identity := identityFromContext(c, input.GuestEmail)
	order, err := h.service.CapturePayment(c.Request.Context(), identity, input.OrderID, input.PayPalOrderID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, order)
}

func toAddress(in AddressInput) model.Address {
	return model.Address{
		Name:    in.Name,
		Line1:   in.Line1,
		Line2:   in.Line2,
		City:    in.City,
		State:   in.State,
		Zip:     in.Zip,
		Country: in.Country,
		Phone:   in.Phone,
	}
}
