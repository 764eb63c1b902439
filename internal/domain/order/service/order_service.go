package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"linenloft/internal/domain/order/model"
	"linenloft/internal/domain/order/repository"
	"linenloft/internal/domain/payment/strategy"
	"linenloft/internal/pkg/worker"
	"linenloft/pkg/apperrors"
	"linenloft/pkg/logger"
	"linenloft/pkg/metrics"
	"linenloft/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Identity 请求方身份，由认证中间件或游客邮箱参数得出
type Identity struct {
	UserID     string
	GuestEmail string
}

// Valid 是否携带可用于所有权判定的身份
func (i Identity) Valid() bool {
	return i.UserID != "" || i.GuestEmail != ""
}

func (i Identity) scope() repository.OwnerScope {
	return repository.OwnerScope{CustomerID: i.UserID, GuestEmail: i.GuestEmail}
}

// CreateItemInput 下单商品行
type CreateItemInput struct {
	ProductID   string
	ProductName string
	SKU         string
	UnitPrice   decimal.Decimal
	Quantity    int
}

// CreateOrderInput 下单参数
type CreateOrderInput struct {
	Items           []CreateItemInput
	ShippingAddress model.Address
	BillingAddress  model.Address
	GuestEmail      string // 仅游客下单使用
}

// ListQuery 订单列表查询参数
type ListQuery struct {
	Page          int
	Limit         int
	Status        string
	PaymentStatus string
	SortBy        string
	Order         string
}

// OrderService 订单生命周期服务
type OrderService interface {
	CreateOrder(ctx context.Context, identity Identity, input CreateOrderInput) (*model.Order, string, error)
	GetOrder(identity Identity, orderID string) (*model.Order, error)
	GetOrderByNo(identity Identity, orderNo string) (*model.Order, error)
	ListOrders(identity Identity, q ListQuery) ([]model.Order, int64, error)
	CancelOrder(identity Identity, orderID string) (*model.Order, error)
	CapturePayment(ctx context.Context, identity Identity, orderID, providerRef string) (*model.Order, error)
}

// 结算规则：满额包邮，税率按订单小计
var (
	taxRate           = decimal.NewFromFloat(0.08)
	flatShippingFee   = decimal.NewFromFloat(9.90)
	freeShippingAbove = decimal.NewFromInt(100)
)

// 列表排序白名单
var orderSortColumns = map[string]string{
	"default":   "created_at",
	"createdAt": "created_at",
	"total":     "total",
	"status":    "status",
}

type orderService struct {
	repo     repository.OrderRepository
	strategy strategy.PaymentStrategy // 未配置支付渠道时为 nil
	pool     *worker.WorkerPool       // 异步副作用，可为 nil
	metrics  *metrics.Collector
}

// NewOrderService 创建订单服务
func NewOrderService(repo repository.OrderRepository, ps strategy.PaymentStrategy, pool *worker.WorkerPool) OrderService {
	return &orderService{
		repo:     repo,
		strategy: ps,
		pool:     pool,
		metrics:  metrics.GetGlobalCollector(),
	}
}

// CreateOrder 创建订单并在支付渠道侧建单
// 金额在此刻一次性算死: total = subtotal + tax + shipping，之后任何操作不再改动金额
func (s *orderService) CreateOrder(ctx context.Context, identity Identity, input CreateOrderInput) (*model.Order, string, error) {
	if identity.UserID == "" && input.GuestEmail == "" {
		return nil, "", apperrors.New(apperrors.KindValidation, "guest checkout requires an email")
	}
	if len(input.Items) == 0 {
		return nil, "", apperrors.New(apperrors.KindValidation, "order must contain at least one item")
	}

	// 1. 逐行校验并累计小计
	subtotal := decimal.Zero
	items := make([]model.OrderItem, 0, len(input.Items))
	for _, in := range input.Items {
		if in.Quantity <= 0 {
			return nil, "", apperrors.New(apperrors.KindValidation, "item quantity must be positive")
		}
		if in.UnitPrice.IsNegative() {
			return nil, "", apperrors.New(apperrors.KindValidation, "item price must not be negative")
		}
		lineTotal := in.UnitPrice.Mul(decimal.NewFromInt(int64(in.Quantity)))
		items = append(items, model.OrderItem{
			ProductID:   in.ProductID,
			ProductName: in.ProductName,
			SKU:         in.SKU,
			UnitPrice:   in.UnitPrice,
			Quantity:    in.Quantity,
			LineTotal:   lineTotal,
		})
		subtotal = subtotal.Add(lineTotal)
	}

	// 2. 税费与运费
	tax := subtotal.Mul(taxRate).Round(2)
	shipping := flatShippingFee
	if subtotal.GreaterThanOrEqual(freeShippingAbove) {
		shipping = decimal.Zero
	}
	total := subtotal.Add(tax).Add(shipping)

	// 3. 生成订单号
	orderNo := fmt.Sprintf("%s-%s", time.Now().Format("20060102150405"), uuid.New().String()[:8])

	order := &model.Order{
		OrderNo:         orderNo,
		Status:          model.StatusPending,
		PaymentStatus:   model.PaymentUnpaid,
		Subtotal:        subtotal,
		Tax:             tax,
		Shipping:        shipping,
		Total:           total,
		Currency:        defaultCurrency(),
		ShippingAddress: input.ShippingAddress,
		BillingAddress:  input.BillingAddress,
		Items:           items,
	}
	if identity.UserID != "" {
		uid := identity.UserID
		order.CustomerID = &uid
	} else {
		order.GuestEmail = input.GuestEmail
	}

	// 4. 渠道侧建单，渠道单号写入后只比较不覆盖
	approveURL := ""
	if s.strategy != nil {
		providerRef, url, err := s.strategy.CreateOrder(ctx, orderNo, total, order.Currency)
		if err != nil {
			return nil, "", apperrors.Wrap(apperrors.KindUpstreamFailure, "failed to create payment order", err)
		}
		order.PayPalOrderID = providerRef
		approveURL = url
	} else if logger.Log != nil {
		logger.Log.Warn("No payment strategy configured, order created without provider reference",
			zap.String("order_no", orderNo))
	}

	if err := s.repo.Create(order); err != nil {
		return nil, "", err
	}

	return order, approveURL, nil
}

// GetOrder 按所有权读取单个订单，不存在与不属于当前身份返回同样的 NotFound
func (s *orderService) GetOrder(identity Identity, orderID string) (*model.Order, error) {
	if !identity.Valid() {
		return nil, apperrors.ErrUnauthenticated
	}

	order, err := s.repo.GetForOwner(orderID, identity.scope())
	if err != nil {
		return nil, maskNotFound(err)
	}
	return order, nil
}

// GetOrderByNo 按订单号读取，游客凭订单号+邮箱认领
func (s *orderService) GetOrderByNo(identity Identity, orderNo string) (*model.Order, error) {
	if !identity.Valid() {
		return nil, apperrors.ErrUnauthenticated
	}

	order, err := s.repo.GetByOrderNo(orderNo, identity.scope())
	if err != nil {
		return nil, maskNotFound(err)
	}
	return order, nil
}

// ListOrders 分页查询当前身份的订单
func (s *orderService) ListOrders(identity Identity, q ListQuery) ([]model.Order, int64, error) {
	if !identity.Valid() {
		return nil, 0, apperrors.ErrUnauthenticated
	}

	p := utils.Pagination{Page: q.Page, Limit: q.Limit}
	offset, limit := p.GetPageOffset()

	return s.repo.ListForOwner(identity.scope(), repository.ListFilter{
		Offset:        offset,
		Limit:         limit,
		Status:        q.Status,
		PaymentStatus: q.PaymentStatus,
		Sort:          utils.SortClause(q.SortBy, q.Order, orderSortColumns),
	})
}

// CancelOrder 用户取消订单，仅允许 PENDING → CANCELLED
// 支付状态、金额、商品行、地址均不动
func (s *orderService) CancelOrder(identity Identity, orderID string) (*model.Order, error) {
	if !identity.Valid() {
		return nil, apperrors.ErrUnauthenticated
	}

	order, err := s.repo.GetForOwner(orderID, identity.scope())
	if err != nil {
		return nil, maskNotFound(err)
	}

	// 条件更新：并发下状态可能已被其他请求改掉，以数据库判定为准
	rows, err := s.repo.CancelIfPending(orderID, identity.scope())
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, apperrors.New(apperrors.KindInvalidTransition,
			fmt.Sprintf("order in status %s cannot be cancelled", order.Status))
	}

	s.metrics.RecordOrderTransition(model.StatusPending, model.StatusCancelled)
	s.enqueue(worker.OrderTask{Kind: worker.TaskOrderCancelled, OrderID: order.ID, OrderNo: order.OrderNo})

	order.Status = model.StatusCancelled
	return order, nil
}

// CapturePayment 支付确认对账
// 前置条件依次检查，先失败的先返回: 身份 → 订单存在 → 渠道单号一致 → 未支付 → 状态 PENDING → 渠道扣款成功
// PAID 的写入以数据库行的 payment_status 与 status 为条件，同一订单并发 capture 最多一个成功，
// 并发取消也无法被 capture 覆盖
func (s *orderService) CapturePayment(ctx context.Context, identity Identity, orderID, providerRef string) (*model.Order, error) {
	if !identity.Valid() {
		return nil, apperrors.ErrUnauthenticated
	}

	order, err := s.repo.GetForOwner(orderID, identity.scope())
	if err != nil {
		return nil, maskNotFound(err)
	}

	// 渠道单号只比较不覆盖，防止客户端拿着别的支付单来冲正错误的订单
	if order.PayPalOrderID == "" || order.PayPalOrderID != providerRef {
		s.metrics.RecordCaptureAttempt("mismatch")
		return nil, apperrors.New(apperrors.KindReferenceMismatch, "payment reference does not match order")
	}

	if order.IsPaid() {
		s.metrics.RecordCaptureAttempt("already_paid")
		return nil, apperrors.New(apperrors.KindAlreadyPaid, "order is already paid")
	}

	// 只有 PENDING 订单可以支付确认，已取消的订单不允许复活
	if order.Status != model.StatusPending {
		s.metrics.RecordCaptureAttempt("invalid_state")
		return nil, apperrors.New(apperrors.KindInvalidTransition,
			fmt.Sprintf("order in status %s cannot be captured", order.Status))
	}

	// 渠道扣款是唯一的网络调用，失败不落任何本地状态
	result, err := s.strategyCapture(ctx, providerRef)
	if err != nil {
		s.metrics.RecordCaptureAttempt("upstream_error")
		return nil, err
	}
	if !result.Completed() {
		s.metrics.RecordCaptureAttempt("upstream_failed")
		return nil, apperrors.New(apperrors.KindUpstreamFailure,
			fmt.Sprintf("payment capture failed with status %s", result.Status))
	}

	// 元数据只增不减：从读到的快照出发合并，历史键保留
	now := time.Now()
	meta := order.PaymentMeta.Merge(result.CaptureID, result.Status, now)

	rows, err := s.repo.MarkPaid(order.ID, meta, now)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		// 条件写入没有命中：要么并发的另一次 capture 抢先完成，
		// 要么订单在读取后被并发取消。重读一次区分这两种冲突
		s.metrics.RecordCaptureAttempt("lost_race")
		current, rerr := s.repo.GetForOwner(order.ID, identity.scope())
		if rerr == nil && !current.IsPaid() {
			return nil, apperrors.New(apperrors.KindInvalidTransition,
				fmt.Sprintf("order in status %s cannot be captured", current.Status))
		}
		return nil, apperrors.New(apperrors.KindAlreadyPaid, "order is already paid")
	}

	s.metrics.RecordCaptureAttempt("success")
	s.metrics.RecordOrderTransition(model.StatusPending, model.StatusConfirmed)

	customerID := ""
	if order.CustomerID != nil {
		customerID = *order.CustomerID
	}
	s.enqueue(worker.OrderTask{
		Kind:       worker.TaskOrderPaid,
		OrderID:    order.ID,
		OrderNo:    order.OrderNo,
		CustomerID: customerID,
	})

	order.Status = model.StatusConfirmed
	order.PaymentStatus = model.PaymentPaid
	order.PaymentMeta = meta
	order.PaidAt = &now
	return order, nil
}

func (s *orderService) strategyCapture(ctx context.Context, providerRef string) (*strategy.CaptureResult, error) {
	if s.strategy == nil {
		return nil, apperrors.New(apperrors.KindUpstreamFailure, "no payment channel configured")
	}

	// 渠道调用必须有超时上限，挂起的调用按失败处理
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	result, err := s.strategy.Capture(ctx, providerRef)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUpstreamFailure, "payment capture failed", err)
	}
	return result, nil
}

func (s *orderService) enqueue(task worker.OrderTask) {
	if s.pool != nil {
		s.pool.AddTask(task)
	}
}

// maskNotFound 把记录不存在与所有权不匹配统一为 NotFound，防止探测他人订单
func maskNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrOrderNotFound
	}
	return err
}

func defaultCurrency() string {
	return currencyFromConfig()
}
