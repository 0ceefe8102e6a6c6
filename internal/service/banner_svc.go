package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"storefront_202610/internal/model"
	"storefront_202610/internal/repository"
	"storefront_202610/pkg/logger"
)

var (
	ErrBannerNoPhotos = errors.New("轮播图至少需要一张图片")
	ErrBannerNotFound = errors.New("轮播图不存在")
)

// BannerService 首页轮播图
// 前台只有一个轮播数据源，不再区分多套 banner 接口
type BannerService struct {
	repo         repository.BannerRepository
	deletionRepo repository.DeletionRepository
	storage      *StorageService
	log          *zap.Logger
}

func NewBannerService(repo repository.BannerRepository, deletionRepo repository.DeletionRepository, storage *StorageService) *BannerService {
	return &BannerService{
		repo:         repo,
		deletionRepo: deletionRepo,
		storage:      storage,
		log:          logger.Named("BannerService"),
	}
}

// ListActive 当前生效的轮播图 (图片按 Rank 排序)
func (s *BannerService) ListActive(ctx context.Context) ([]model.Banner, error) {
	return s.repo.ListActive(ctx)
}

// Create 上传图片并创建轮播图组
func (s *BannerService) Create(ctx context.Context, title string, meta map[string]string, files []*multipart.FileHeader) (*model.Banner, error) {
	if len(files) == 0 {
		return nil, ErrBannerNoPhotos
	}

	banner := &model.Banner{Title: title, Active: true}
	if len(meta) > 0 {
		raw, err := json.Marshal(meta)
		if err != nil {
			return nil, err
		}
		banner.Meta = datatypes.JSON(raw)
	}

	var uploaded []string
	for i, fh := range files {
		obj, err := uploadHeader(ctx, s.storage, fh)
		if err != nil {
			s.cleanup(ctx, uploaded)
			return nil, fmt.Errorf("上传第 %d 张图片失败: %w", i+1, err)
		}
		uploaded = append(uploaded, obj.PublicID)
		banner.Photos = append(banner.Photos, model.BannerPhoto{
			PublicID: obj.PublicID,
			URL:      obj.URL,
			Rank:     i,
		})
	}

	if err := s.repo.Create(ctx, banner); err != nil {
		s.cleanup(ctx, uploaded)
		return nil, fmt.Errorf("保存轮播图失败: %w", err)
	}
	return banner, nil
}

// SetActive 上下线
func (s *BannerService) SetActive(ctx context.Context, id int64, active bool) error {
	found, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return err
	}
	if !found {
		return ErrBannerNotFound
	}
	return nil
}

func (s *BannerService) cleanup(ctx context.Context, publicIDs []string) {
	if len(publicIDs) == 0 {
		return
	}
	if err := s.deletionRepo.Enqueue(ctx, publicIDs...); err != nil {
		s.log.Error("写入清理队列失败", zap.Strings("public_ids", publicIDs), zap.Error(err))
	}
}
