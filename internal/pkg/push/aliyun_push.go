package push

import (
	"encoding/json"
	"fmt"

	"linenloft/internal/pkg/config"

	"github.com/aliyun/alibaba-cloud-sdk-go/sdk/requests"
	"github.com/aliyun/alibaba-cloud-sdk-go/services/push"
)

// PushService 移动端通知推送
type PushService interface {
	PushToAccount(accountID string, title, body string, extParameters map[string]string) error
	PushOrderPaid(accountID, orderNo string) error
	PushOrderShipped(accountID, orderNo string) error
}

type AliyunPushService struct {
	client *push.Client
	appKey int64
}

func NewAliyunPushService() (*AliyunPushService, error) {
	cfg := config.GlobalConfig.Push

	// 未配置时返回错误，由调用方决定是否降级
	if cfg.AccessKeyID == "" || cfg.AppKey == 0 {
		return nil, fmt.Errorf("push config is missing")
	}

	client, err := push.NewClientWithAccessKey(
		cfg.RegionID,
		cfg.AccessKeyID,
		cfg.AccessKeySecret,
	)
	if err != nil {
		return nil, err
	}

	return &AliyunPushService{
		client: client,
		appKey: cfg.AppKey,
	}, nil
}

func (s *AliyunPushService) PushToAccount(accountID string, title, body string, extParameters map[string]string) error {
	return s.sendPush("ACCOUNT", accountID, title, body, extParameters)
}

// PushOrderPaid 支付成功通知
func (s *AliyunPushService) PushOrderPaid(accountID, orderNo string) error {
	body := fmt.Sprintf("Your order %s has been paid and confirmed.", orderNo)
	return s.PushToAccount(accountID, "Payment received", body, map[string]string{"orderNo": orderNo})
}

// PushOrderShipped 发货通知
func (s *AliyunPushService) PushOrderShipped(accountID, orderNo string) error {
	body := fmt.Sprintf("Your order %s is on its way.", orderNo)
	return s.PushToAccount(accountID, "Order shipped", body, map[string]string{"orderNo": orderNo})
}

func (s *AliyunPushService) sendPush(target, targetValue, title, body string, extParameters map[string]string) error {
	request := push.CreatePushRequest()
	request.AppKey = requests.NewInteger(int(s.appKey))
	request.Target = target
	request.TargetValue = targetValue
	request.Title = title
	request.Body = body
	request.DeviceType = "ALL"  // iOS & Android
	request.PushType = "NOTICE" // 通知

	// 扩展参数 (JSON 序列化)
	if len(extParameters) > 0 {
		extJSON, _ := json.Marshal(extParameters)
		request.AndroidExtParameters = string(extJSON)
		request.IOSExtParameters = string(extJSON)
	}

	_, err := s.client.Push(request)
	return err
}

// GlobalPushService 实例，未配置时为 nil
var GlobalPushService PushService

func InitPushService() error {
	service, err := NewAliyunPushService()
	if err != nil {
		return err
	}
	GlobalPushService = service
	return nil
}
