package strategy

import (
	"context"

	"github.com/shopspring/decimal"
)

// CaptureResult 渠道侧的扣款结果
type CaptureResult struct {
	Status    string // 渠道订单状态，COMPLETED 表示成功
	CaptureID string // 渠道扣款流水号
}

// Completed 渠道是否确认扣款完成
func (r *CaptureResult) Completed() bool {
	return r != nil && r.Status == "COMPLETED"
}

// PaymentStrategy 支付渠道接口
type PaymentStrategy interface {
	// CreateOrder 在渠道侧创建支付单，返回渠道单号与买家跳转地址
	CreateOrder(ctx context.Context, orderNo string, amount decimal.Decimal, currency string) (providerRef, approveURL string, err error)

	// Capture 对已授权的渠道支付单发起扣款
	Capture(ctx context.Context, providerRef string) (*CaptureResult, error)
}
