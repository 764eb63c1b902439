package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	orderModel "linenloft/internal/domain/order/model"
	orderRepo "linenloft/internal/domain/order/repository"
	userModel "linenloft/internal/domain/user/model"
	userRepo "linenloft/internal/domain/user/repository"
	"linenloft/internal/pkg/uploader"
	"linenloft/internal/pkg/worker"
	"linenloft/pkg/apperrors"
	"linenloft/pkg/metrics"
	"linenloft/pkg/utils"

	"gorm.io/gorm"
)

// ListOrdersQuery 后台订单列表查询参数
type ListOrdersQuery struct {
	Page          int
	Limit         int
	Status        string
	PaymentStatus string
	CustomerID    string
	SortBy        string
	Order         string
}

// AdminService 后台服务：跨顾客订单管理与发货
type AdminService interface {
	ListOrders(q ListOrdersQuery) ([]orderModel.Order, int64, error)
	GetOrder(orderID string) (*orderModel.Order, error)
	ListCustomers(page, limit int) ([]userModel.User, int64, error)

	// AdvanceOrderStatus 推进履约状态，只允许 CONFIRMED→PROCESSING→SHIPPED→DELIVERED 逐级推进
	AdvanceOrderStatus(orderID, target string) (*orderModel.Order, error)

	// GenerateShippingLabel 生成面单文件并归档，返回下载地址
	// 占位实现：纯文本面单，不做 PDF 排版
	GenerateShippingLabel(orderID string) (string, error)
}

var adminSortColumns = map[string]string{
	"default":   "created_at",
	"createdAt": "created_at",
	"total":     "total",
	"status":    "status",
	"paidAt":    "paid_at",
}

type adminService struct {
	orders  orderRepo.OrderRepository
	users   userRepo.UserRepository
	pool    *worker.WorkerPool
	metrics *metrics.Collector
}

// NewAdminService 创建后台服务
func NewAdminService(orders orderRepo.OrderRepository, users userRepo.UserRepository, pool *worker.WorkerPool) AdminService {
	return &adminService{
		orders:  orders,
		users:   users,
		pool:    pool,
		metrics: metrics.GetGlobalCollector(),
	}
}

func (s *adminService) ListOrders(q ListOrdersQuery) ([]orderModel.Order, int64, error) {
	p := utils.Pagination{Page: q.Page, Limit: q.Limit}
	offset, limit := p.GetPageOffset()

	return s.orders.ListAll(orderRepo.ListFilter{
		Offset:        offset,
		Limit:         limit,
		Status:        q.Status,
		PaymentStatus: q.PaymentStatus,
		CustomerID:    q.CustomerID,
		Sort:          utils.SortClause(q.SortBy, q.Order, adminSortColumns),
	})
}

func (s *adminService) GetOrder(orderID string) (*orderModel.Order, error) {
	order, err := s.orders.GetByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (s *adminService) ListCustomers(page, limit int) ([]userModel.User, int64, error) {
	p := utils.Pagination{Page: page, Limit: limit}
	offset, limit := p.GetPageOffset()
	return s.users.GetList(offset, limit)
}

// AdvanceOrderStatus 履约推进，支付状态永远不在这里改
func (s *adminService) AdvanceOrderStatus(orderID, target string) (*orderModel.Order, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}

	next, ok := orderModel.FulfillmentNext[order.Status]
	if !ok || next != target {
		return nil, apperrors.New(apperrors.KindInvalidTransition,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, target))
	}

	// 条件更新：状态在读取后被别人改掉则拒绝，不做覆盖
	rows, err := s.orders.AdvanceFulfillment(orderID, order.Status, target)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, apperrors.New(apperrors.KindInvalidTransition,
			fmt.Sprintf("order left status %s concurrently", order.Status))
	}

	s.metrics.RecordOrderTransition(order.Status, target)

	// 每次推进都要失效顾客侧的订单读缓存，发货时额外触发推送
	if s.pool != nil {
		kind := worker.TaskOrderStatusChanged
		if target == orderModel.StatusShipped {
			kind = worker.TaskOrderShipped
		}
		customerID := ""
		if order.CustomerID != nil {
			customerID = *order.CustomerID
		}
		s.pool.AddTask(worker.OrderTask{
			Kind:       kind,
			OrderID:    order.ID,
			OrderNo:    order.OrderNo,
			CustomerID: customerID,
		})
	}

	order.Status = target
	return order, nil
}

// GenerateShippingLabel 生成纯文本面单并上传 OSS
func (s *adminService) GenerateShippingLabel(orderID string) (string, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return "", err
	}

	// 只有已确认待发货的订单才有面单
	if order.Status != orderModel.StatusConfirmed && order.Status != orderModel.StatusProcessing {
		return "", apperrors.New(apperrors.KindInvalidTransition,
			fmt.Sprintf("cannot generate shipping label for order in status %s", order.Status))
	}

	if uploader.GlobalUploader == nil {
		return "", apperrors.New(apperrors.KindUpstreamFailure, "uploader not configured")
	}

	label := renderLabel(order)
	url, err := uploader.GlobalUploader.Upload("shipping-labels", ".txt", strings.NewReader(label))
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindUpstreamFailure, "failed to store shipping label", err)
	}
	return url, nil
}

func renderLabel(order *orderModel.Order) string {
	addr := order.ShippingAddress
	var b strings.Builder
	fmt.Fprintf(&b, "LINENLOFT SHIPPING LABEL\n")
	fmt.Fprintf(&b, "Order: %s\n", order.OrderNo)
	fmt.Fprintf(&b, "Date:  %s\n\n", time.Now().Format("2006-01-02"))
	fmt.Fprintf(&b, "SHIP TO:\n%s\n%s\n", addr.Name, addr.Line1)
	if addr.Line2 != "" {
		fmt.Fprintf(&b, "%s\n", addr.Line2)
	}
	fmt.Fprintf(&b, "%s %s %s\n%s\n", addr.City, addr.State, addr.Zip, addr.Country)
	if addr.Phone != "" {
		fmt.Fprintf(&b, "Tel: %s\n", addr.Phone)
	}
	fmt.Fprintf(&b, "\nItems: %d\n", len(order.Items))
	return b.String()
}
