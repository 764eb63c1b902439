package repository

import (
	"time"

	"linenloft/internal/domain/order/model"

	"gorm.io/gorm"
)

// OwnerScope 所有权过滤条件
// 所有读写都在 SQL 层带上该条件，保证从不取出他人的订单
type OwnerScope struct {
	CustomerID string // 登录顾客
	GuestEmail string // 游客订单按邮箱认领
}

// ListFilter 列表过滤与排序
type ListFilter struct {
	Offset        int
	Limit         int
	Status        string
	PaymentStatus string
	CustomerID    string // 后台按顾客过滤
	Sort          string // 已白名单校验的 ORDER BY 子句
}

// OrderRepository 接口定义
type OrderRepository interface {
	Create(order *model.Order) error
	GetForOwner(id string, owner OwnerScope) (*model.Order, error)
	GetByOrderNo(orderNo string, owner OwnerScope) (*model.Order, error)
	GetByID(id string) (*model.Order, error)
	ListForOwner(owner OwnerScope, f ListFilter) ([]model.Order, int64, error)
	ListAll(f ListFilter) ([]model.Order, int64, error)

	// CancelIfPending 条件更新: 仅当订单仍为 PENDING 时置为 CANCELLED，返回影响行数
	CancelIfPending(id string, owner OwnerScope) (int64, error)

	// MarkPaid 条件更新: 仅当 payment_status 仍为 UNPAID 且状态仍为 PENDING 时
	// 写入 PAID/CONFIRMED。数据库行是并发 capture/取消冲突的唯一仲裁者，返回影响行数
	MarkPaid(id string, meta model.PaymentMeta, paidAt time.Time) (int64, error)

	// AdvanceFulfillment 条件更新: 仅当状态仍为 from 时推进到 to，返回影响行数
	AdvanceFulfillment(id, from, to string) (int64, error)
}

// orderRepository 实现
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建新的仓库实例
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// applyOwner 拼接所有权条件，id 条件与所有权条件永远在同一条查询里
func applyOwner(db *gorm.DB, owner OwnerScope) *gorm.DB {
	if owner.CustomerID != "" {
		return db.Where("customer_id = ?", owner.CustomerID)
	}
	if owner.GuestEmail != "" {
		return db.Where("customer_id IS NULL AND guest_email = ?", owner.GuestEmail)
	}
	// 无身份时不命中任何行
	return db.Where("1 = 0")
}

func (r *orderRepository) Create(order *model.Order) error {
	return r.db.Create(order).Error
}

func (r *orderRepository) GetForOwner(id string, owner OwnerScope) (*model.Order, error) {
	var order model.Order
	q := applyOwner(r.db.Where("id = ?", id), owner)
	if err := q.Preload("Items").First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetByOrderNo(orderNo string, owner OwnerScope) (*model.Order, error) {
	var order model.Order
	q := applyOwner(r.db.Where("order_no = ?", orderNo), owner)
	if err := q.Preload("Items").First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByID 不带所有权条件，仅供后台使用
func (r *orderRepository) GetByID(id string) (*model.Order, error) {
	var order model.Order
	if err := r.db.Where("id = ?", id).Preload("Items").First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) ListForOwner(owner OwnerScope, f ListFilter) ([]model.Order, int64, error) {
	return r.list(applyOwner(r.db.Model(&model.Order{}), owner), f)
}

func (r *orderRepository) ListAll(f ListFilter) ([]model.Order, int64, error) {
	q := r.db.Model(&model.Order{})
	if f.CustomerID != "" {
		q = q.Where("customer_id = ?", f.CustomerID)
	}
	return r.list(q, f)
}

func (r *orderRepository) list(q *gorm.DB, f ListFilter) ([]model.Order, int64, error) {
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.PaymentStatus != "" {
		q = q.Where("payment_status = ?", f.PaymentStatus)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sort := f.Sort
	if sort == "" {
		sort = "created_at desc"
	}

	var orders []model.Order
	if err := q.Order(sort).Offset(f.Offset).Limit(f.Limit).Preload("Items").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *orderRepository) CancelIfPending(id string, owner OwnerScope) (int64, error) {
	q := applyOwner(r.db.Model(&model.Order{}).Where("id = ? AND status = ?", id, model.StatusPending), owner)
	res := q.Update("status", model.StatusCancelled)
	return res.RowsAffected, res.Error
}

func (r *orderRepository) MarkPaid(id string, meta model.PaymentMeta, paidAt time.Time) (int64, error) {
	// status 条件一并带上：已取消的订单即使 payment_status 仍为 UNPAID 也不能被置为已支付
	res := r.db.Model(&model.Order{}).
		Where("id = ? AND payment_status = ? AND status = ?", id, model.PaymentUnpaid, model.StatusPending).
		Updates(map[string]interface{}{
			"status":         model.StatusConfirmed,
			"payment_status": model.PaymentPaid,
			"payment_meta":   meta,
			"paid_at":        paidAt,
		})
	return res.RowsAffected, res.Error
}

func (r *orderRepository) AdvanceFulfillment(id, from, to string) (int64, error) {
	res := r.db.Model(&model.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected, res.Error
}
