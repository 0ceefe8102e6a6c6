package service

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ==================== 接口定义 ====================

// StoredObject 上传结果
// PublicID 是存储侧的唯一标识 (对象 key)，前端用它表示 "保留这张已有图片"
type StoredObject struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

// StorageProvider 存储提供者接口
type StorageProvider interface {
	// Upload 上传文件，返回对象标识与公开访问URL
	Upload(ctx context.Context, data []byte, filename string, contentType string) (StoredObject, error)

	// Delete 按 PublicID 删除文件
	Delete(ctx context.Context, publicID string) error

	// GetSignedURL 获取签名URL (私有存储时使用)
	GetSignedURL(ctx context.Context, publicID string, expires time.Duration) (signedURL string, err error)
}

// ==================== 配置 ====================

type StorageConfig struct {
	Provider  string // "s3" | "cos" | "local"
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string // 自定义端点 (腾讯云COS等)；local 模式下为对外访问前缀
	CDNDomain string // CDN域名 (可选)
	BasePath  string // 基础路径前缀；local 模式下为落盘目录
}

// ==================== 工厂方法 ====================

func NewStorageProvider(cfg StorageConfig) (StorageProvider, error) {
	switch cfg.Provider {
	case "s3":
		return NewS3Storage(cfg)
	case "cos":
		return NewCOSStorage(cfg)
	case "local":
		return NewLocalStorage(cfg)
	default:
		return nil, fmt.Errorf("不支持的存储提供者: %s", cfg.Provider)
	}
}

// ==================== StorageService ====================

// StorageService 存储服务，包装 StorageProvider
type StorageService struct {
	provider StorageProvider
	config   StorageConfig
}

// NewStorageService 创建存储服务
func NewStorageService(cfg StorageConfig) (*StorageService, error) {
	provider, err := NewStorageProvider(cfg)
	if err != nil {
		return nil, err
	}
	return &StorageService{
		provider: provider,
		config:   cfg,
	}, nil
}

// NewStorageServiceWithProvider 直接注入 Provider (测试用)
func NewStorageServiceWithProvider(provider StorageProvider) *StorageService {
	return &StorageService{provider: provider}
}

// Upload 上传文件
func (s *StorageService) Upload(ctx context.Context, data []byte, filename string, contentType string) (StoredObject, error) {
	if len(data) == 0 {
		return StoredObject{}, fmt.Errorf("文件为空: %s", filename)
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = detectContentType(data)
	}
	return s.provider.Upload(ctx, data, filename, contentType)
}

// Delete 删除文件
func (s *StorageService) Delete(ctx context.Context, publicID string) error {
	return s.provider.Delete(ctx, publicID)
}

// GetSignedURL 获取签名URL
func (s *StorageService) GetSignedURL(ctx context.Context, publicID string, expires time.Duration) (string, error) {
	return s.provider.GetSignedURL(ctx, publicID, expires)
}

// GetProvider 获取底层 Provider
func (s *StorageService) GetProvider() StorageProvider {
	return s.provider
}

// ==================== S3 兼容实现 (AWS S3 / 腾讯云 COS) ====================

type S3Storage struct {
	client    *s3.Client
	bucket    string
	basePath  string
	publicURL func(key string) string
}

func NewS3Storage(cfg StorageConfig) (*S3Storage, error) {
	client, err := newS3Client(cfg, nil)
	if err != nil {
		return nil, fmt.Errorf("加载AWS配置失败: %w", err)
	}

	return &S3Storage{
		client:   client,
		bucket:   cfg.Bucket,
		basePath: cfg.BasePath,
		publicURL: func(key string) string {
			if cfg.CDNDomain != "" {
				return fmt.Sprintf("https://%s/%s", cfg.CDNDomain, key)
			}
			return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", cfg.Bucket, cfg.Region, key)
		},
	}, nil
}

// NewCOSStorage COS 兼容 S3 协议，只是端点与路径风格不同
func NewCOSStorage(cfg StorageConfig) (*S3Storage, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://cos.%s.myqcloud.com", cfg.Region)
	}

	client, err := newS3Client(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})
	if err != nil {
		return nil, fmt.Errorf("加载COS配置失败: %w", err)
	}

	return &S3Storage{
		client:   client,
		bucket:   cfg.Bucket,
		basePath: cfg.BasePath,
		publicURL: func(key string) string {
			if cfg.CDNDomain != "" {
				return fmt.Sprintf("https://%s/%s", cfg.CDNDomain, key)
			}
			return fmt.Sprintf("https://%s.cos.%s.myqcloud.com/%s", cfg.Bucket, cfg.Region, key)
		},
	}, nil
}

func newS3Client(cfg StorageConfig, optFn func(*s3.Options)) (*s3.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, err
	}
	if optFn == nil {
		return s3.NewFromConfig(awsCfg), nil
	}
	return s3.NewFromConfig(awsCfg, optFn), nil
}

func (s *S3Storage) Upload(ctx context.Context, data []byte, filename string, contentType string) (StoredObject, error) {
	key := generateKey(s.basePath, filename)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return StoredObject{}, fmt.Errorf("上传对象存储失败: %w", err)
	}

	return StoredObject{PublicID: key, URL: s.publicURL(key)}, nil
}

func (s *S3Storage) Delete(ctx context.Context, publicID string) error {
	if publicID == "" {
		return fmt.Errorf("无法解析文件路径")
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(publicID),
	})
	return err
}

func (s *S3Storage) GetSignedURL(ctx context.Context, publicID string, expires time.Duration) (string, error) {
	if publicID == "" {
		return "", fmt.Errorf("无法解析文件路径")
	}

	presignClient := s3.NewPresignClient(s.client)
	presigned, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(publicID),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", err
	}
	return presigned.URL, nil
}

// ==================== 本地存储 (开发测试用) ====================

type LocalStorage struct {
	basePath string
	baseURL  string
}

func NewLocalStorage(cfg StorageConfig) (*LocalStorage, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "./uploads"
	}
	baseURL := cfg.Endpoint
	if baseURL == "" {
		baseURL = "http://localhost:8080/uploads"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("创建本地存储目录失败: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}, nil
}

func (s *LocalStorage) Upload(ctx context.Context, data []byte, filename string, contentType string) (StoredObject, error) {
	key := generateKey("", filename)
	dst := filepath.Join(s.basePath, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return StoredObject{}, fmt.Errorf("创建目录失败: %w", err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return StoredObject{}, fmt.Errorf("写入文件失败: %w", err)
	}

	return StoredObject{PublicID: key, URL: s.baseURL + "/" + key}, nil
}

func (s *LocalStorage) Delete(ctx context.Context, publicID string) error {
	clean := path.Clean("/" + publicID)
	if clean == "/" {
		return fmt.Errorf("无法解析文件路径")
	}
	err := os.Remove(filepath.Join(s.basePath, filepath.FromSlash(clean[1:])))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *LocalStorage) GetSignedURL(ctx context.Context, publicID string, expires time.Duration) (string, error) {
	return s.baseURL + "/" + publicID, nil // 本地存储无需签名
}

// ==================== 工具函数 ====================

// generateKey 生成对象 key: [basePath/]2006/01/02/<uuid>.<ext>
func generateKey(basePath, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".webp", ".gif":
	default:
		ext = ".jpg"
	}
	newFilename := uuid.NewString() + ext

	datePath := time.Now().Format("2006/01/02")
	if basePath != "" {
		return fmt.Sprintf("%s/%s/%s", strings.Trim(basePath, "/"), datePath, newFilename)
	}
	return fmt.Sprintf("%s/%s", datePath, newFilename)
}

func detectContentType(data []byte) string {
	return http.DetectContentType(data)
}
