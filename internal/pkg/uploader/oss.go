package uploader

import (
	"fmt"
	"io"
	"time"

	"linenloft/internal/pkg/config"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/google/uuid"
)

// Uploader 对象存储上传接口，物流面单等生成文件通过它归档
type Uploader interface {
	Upload(category, ext string, r io.Reader) (string, error)
}

type AliyunOSSUploader struct {
	client *oss.Client
	bucket *oss.Bucket
	config config.OSSConfig
}

func NewAliyunOSSUploader() (*AliyunOSSUploader, error) {
	cfg := config.GlobalConfig.OSS
	if cfg.Endpoint == "" || cfg.BucketName == "" {
		return nil, fmt.Errorf("oss config is missing")
	}

	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, err
	}

	bucket, err := client.Bucket(cfg.BucketName)
	if err != nil {
		return nil, err
	}

	return &AliyunOSSUploader{
		client: client,
		bucket: bucket,
		config: cfg,
	}, nil
}

// Upload 上传文件，对象键格式: <category>/YYYYMMDD/<uuid><ext>
func (u *AliyunOSSUploader) Upload(category, ext string, r io.Reader) (string, error) {
	objectKey := fmt.Sprintf("%s/%s/%s%s", category, time.Now().Format("20060102"), uuid.New().String(), ext)

	if err := u.bucket.PutObject(objectKey, r); err != nil {
		return "", err
	}

	// 假定 bucket 为 public-read 或挂了 CDN，私有 bucket 需要改成签名 URL
	url := fmt.Sprintf("https://%s.%s/%s", u.config.BucketName, u.config.Endpoint, objectKey)
	return url, nil
}

// GlobalUploader instance
var GlobalUploader Uploader

func InitUploader() error {
	uploader, err := NewAliyunOSSUploader()
	if err != nil {
		return err
	}
	GlobalUploader = uploader
	return nil
}
