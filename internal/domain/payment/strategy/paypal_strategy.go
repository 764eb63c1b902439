package strategy

import (
	"context"
	"errors"

	"linenloft/internal/pkg/config"

	"github.com/plutov/paypal/v4"
	"github.com/shopspring/decimal"
)

type PayPalStrategy struct {
	client *paypal.Client
	config config.PayPalConfig
}

func NewPayPalStrategy() (*PayPalStrategy, error) {
	cfg := config.GlobalConfig.PayPal
	if cfg.ClientID == "" || cfg.Secret == "" {
		return nil, errors.New("paypal config missing")
	}

	apiBase := paypal.APIBaseSandBox
	if cfg.IsProduction {
		apiBase = paypal.APIBaseLive
	}

	client, err := paypal.NewClient(cfg.ClientID, cfg.Secret, apiBase)
	if err != nil {
		return nil, err
	}

	return &PayPalStrategy{
		client: client,
		config: cfg,
	}, nil
}

// CreateOrder 创建 PayPal 订单 (intent=CAPTURE)，返回 PayPal 订单号与 approve 链接
func (s *PayPalStrategy) CreateOrder(ctx context.Context, orderNo string, amount decimal.Decimal, currency string) (string, string, error) {
	units := []paypal.PurchaseUnitRequest{
		{
			ReferenceID: orderNo,
			Amount: &paypal.PurchaseUnitAmount{
				Currency: currency,
				Value:    amount.StringFixed(2),
			},
		},
	}

	appCtx := &paypal.ApplicationContext{
		BrandName: s.config.BrandName,
		ReturnURL: s.config.ReturnURL,
		CancelURL: s.config.CancelURL,
	}

	order, err := s.client.CreateOrder(ctx, paypal.OrderIntentCapture, units, nil, appCtx)
	if err != nil {
		return "", "", err
	}

	// 买家需要跳转到 approve 链接完成授权
	approveURL := ""
	for _, link := range order.Links {
		if link.Rel == "approve" {
			approveURL = link.Href
			break
		}
	}

	return order.ID, approveURL, nil
}

// Capture 对已授权的 PayPal 订单发起扣款
func (s *PayPalStrategy) Capture(ctx context.Context, providerRef string) (*CaptureResult, error) {
	resp, err := s.client.CaptureOrder(ctx, providerRef, paypal.CaptureOrderRequest{})
	if err != nil {
		return nil, err
	}

	result := &CaptureResult{Status: resp.Status}

	// 扣款流水号在 purchase_units[].payments.captures[] 里
	for _, unit := range resp.PurchaseUnits {
		if unit.Payments == nil {
			continue
		}
		for _, capture := range unit.Payments.Captures {
			result.CaptureID = capture.ID
			break
		}
		if result.CaptureID != "" {
			break
		}
	}

	return result, nil
}

// 确保实现了接口
var _ PaymentStrategy = (*PayPalStrategy)(nil)
