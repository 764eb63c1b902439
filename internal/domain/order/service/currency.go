package service

import (
	"linenloft/internal/pkg/config"
)

// currencyFromConfig 读取结算币种，未配置时回落到 USD
func currencyFromConfig() string {
	if c := config.GlobalConfig.App.Currency; c != "" {
		return c
	}
	return "USD"
}
