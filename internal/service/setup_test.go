package service

import (
	"bytes"
	"mime/multipart"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storefront_202610/internal/model"
)

// ==================== 测试辅助 ====================

func setupStoreTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	// :memory: 每个连接是独立的库，限制为单连接
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取连接池失败: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	err = db.AutoMigrate(
		&model.Product{}, &model.ColorVariant{}, &model.VariantPhoto{},
		&model.Category{}, &model.Subcategory{},
		&model.Banner{}, &model.BannerPhoto{},
		&model.Order{}, &model.SysUser{},
		&model.StatsSnapshot{}, &model.PendingDeletion{},
	)
	if err != nil {
		t.Fatalf("迁移失败: %v", err)
	}
	return db
}

func setupLocalStorage(t *testing.T) *StorageService {
	t.Helper()
	svc, err := NewStorageService(StorageConfig{
		Provider: "local",
		BasePath: t.TempDir(),
		Endpoint: "http://localhost:8080/uploads",
	})
	if err != nil {
		t.Fatalf("初始化本地存储失败: %v", err)
	}
	return svc
}

type formFile struct {
	field string
	name  string
	data  []byte
}

// buildForm 通过真实的 multipart 编解码构造 *multipart.Form
func buildForm(t *testing.T, values [][2]string, files ...formFile) *multipart.Form {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, kv := range values {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.name)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		if _, err := part.Write(f.data); err != nil {
			t.Fatalf("写入文件失败: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(10 << 20)
	if err != nil {
		t.Fatalf("ReadForm: %v", err)
	}
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form
}
