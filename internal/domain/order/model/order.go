package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	baseModel "linenloft/pkg/model"

	"github.com/shopspring/decimal"
)

// 订单状态
// PENDING 只能流向 CONFIRMED（支付确认）或 CANCELLED（用户取消）
// CONFIRMED 之后由后台推进履约状态，CANCELLED 与 DELIVERED 为终态
const (
	StatusPending    = "PENDING"
	StatusConfirmed  = "CONFIRMED"
	StatusProcessing = "PROCESSING"
	StatusShipped    = "SHIPPED"
	StatusDelivered  = "DELIVERED"
	StatusCancelled  = "CANCELLED"
)

// 支付状态，只由支付确认流程写入
const (
	PaymentUnpaid = "UNPAID"
	PaymentPaid   = "PAID"
)

// Address 下单时刻的地址快照，后续修改地址簿不影响历史订单
type Address struct {
	Name    string `json:"name"`
	Line1   string `json:"line1"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
	Phone   string `json:"phone,omitempty"`
}

// PaymentMeta 支付元数据，只增不减：每次成功操作合并新字段，保留历史键
type PaymentMeta struct {
	CaptureID     string            `json:"captureId,omitempty"`
	CaptureStatus string            `json:"captureStatus,omitempty"`
	CapturedAt    *time.Time        `json:"capturedAt,omitempty"`
	Extra         map[string]string `json:"extra,omitempty"`
}

// Merge 返回合并后的副本，已有的 Extra 键不被覆盖
func (m PaymentMeta) Merge(captureID, captureStatus string, capturedAt time.Time) PaymentMeta {
	out := PaymentMeta{
		CaptureID:     captureID,
		CaptureStatus: captureStatus,
		CapturedAt:    &capturedAt,
	}
	if len(m.Extra) > 0 {
		out.Extra = make(map[string]string, len(m.Extra))
		for k, v := range m.Extra {
			out.Extra[k] = v
		}
	}
	// 之前已有 capture 记录时归档到 Extra，不丢历史
	if m.CaptureID != "" && m.CaptureID != captureID {
		if out.Extra == nil {
			out.Extra = make(map[string]string, 1)
		}
		out.Extra["previousCaptureId"] = m.CaptureID
	}
	return out
}

// Value 实现 driver.Valuer，写入 jsonb
func (m PaymentMeta) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan 实现 sql.Scanner
func (m *PaymentMeta) Scan(value interface{}) error {
	if value == nil {
		*m = PaymentMeta{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	}
	return errors.New("unsupported type for PaymentMeta")
}

// Order 订单聚合根
type Order struct {
	baseModel.BaseModel
	OrderNo    string  `gorm:"unique;not null" json:"orderNo"`
	CustomerID *string `gorm:"type:uuid;index" json:"customerId,omitempty"` // 游客订单为 NULL
	GuestEmail string  `json:"guestEmail,omitempty"`                        // 仅游客订单使用

	Status        string `gorm:"default:'PENDING'" json:"status"`
	PaymentStatus string `gorm:"default:'UNPAID'" json:"paymentStatus"`

	// 金额以 numeric 精确存储，创建时固定: Total = Subtotal + Tax + Shipping
	Subtotal decimal.Decimal `gorm:"type:numeric(12,2)" json:"subtotal"`
	Tax      decimal.Decimal `gorm:"type:numeric(12,2)" json:"tax"`
	Shipping decimal.Decimal `gorm:"type:numeric(12,2)" json:"shipping"`
	Total    decimal.Decimal `gorm:"type:numeric(12,2)" json:"total"`
	Currency string          `gorm:"size:8;default:'USD'" json:"currency"`

	// 支付渠道单号，下单时写入一次，之后只比较不覆盖
	PayPalOrderID string      `gorm:"index" json:"paypalOrderId,omitempty"`
	PaymentMeta   PaymentMeta `gorm:"type:jsonb" json:"paymentMeta"`
	PaidAt        *time.Time  `json:"paidAt,omitempty"`

	ShippingAddress Address `gorm:"embedded;embeddedPrefix:shipping_" json:"shippingAddress"`
	BillingAddress  Address `gorm:"embedded;embeddedPrefix:billing_" json:"billingAddress"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
}

// OrderItem 订单行，商品信息为下单时刻快照
type OrderItem struct {
	baseModel.BaseModel
	OrderID     string          `gorm:"type:uuid;index;not null" json:"orderId"`
	ProductID   string          `gorm:"not null" json:"productId"`
	ProductName string          `gorm:"not null" json:"productName"`
	SKU         string          `json:"sku"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2)" json:"unitPrice"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	LineTotal   decimal.Decimal `gorm:"type:numeric(12,2)" json:"lineTotal"` // UnitPrice × Quantity
}

// CanCancel 是否允许用户取消
func (o *Order) CanCancel() bool {
	return o.Status == StatusPending
}

// IsPaid 支付是否已完成
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentPaid
}

// FulfillmentNext 履约状态推进表，后台操作只允许相邻推进
var FulfillmentNext = map[string]string{
	StatusConfirmed:  StatusProcessing,
	StatusProcessing: StatusShipped,
	StatusShipped:    StatusDelivered,
}
