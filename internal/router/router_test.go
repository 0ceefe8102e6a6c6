package router

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storefront_202610/internal/controller"
	"storefront_202610/internal/middleware"
	"storefront_202610/internal/model"
	"storefront_202610/internal/repository"
	"storefront_202610/internal/service"
	"storefront_202610/internal/task"
)

// ==================== 测试辅助 ====================

type testServer struct {
	engine *gin.Engine
	db     *gorm.DB
	auth   *service.AuthService
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&model.Product{}, &model.ColorVariant{}, &model.VariantPhoto{},
		&model.Category{}, &model.Subcategory{},
		&model.Banner{}, &model.BannerPhoto{},
		&model.Order{}, &model.SysUser{},
		&model.StatsSnapshot{}, &model.PendingDeletion{},
	))
	require.NoError(t, middleware.RegisterAuditCallbacks(db))

	storage, err := service.NewStorageService(service.StorageConfig{
		Provider: "local",
		BasePath: t.TempDir(),
		Endpoint: "http://localhost:8080/uploads",
	})
	require.NoError(t, err)

	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	deletionRepo := repository.NewDeletionRepository(db)
	userRepo := repository.NewUserRepository(db)

	jwt := middleware.NewJWTManager(middleware.JWTConfig{SecretKey: "router-test"})
	authSvc := service.NewAuthService(userRepo, jwt)

	tasks := task.NewTaskManager(&task.TaskManagerDeps{
		DeletionRepo: deletionRepo,
		Storage:      storage,
	}, &task.TaskManagerConfig{CleanupEnabled: true})

	r := gin.New()
	InitRoutes(r, Controllers{
		Auth:     controller.NewAuthController(authSvc),
		Product:  controller.NewProductController(service.NewProductService(productRepo, categoryRepo, deletionRepo, storage)),
		Category: controller.NewCategoryController(service.NewCategoryService(categoryRepo)),
		Banner:   controller.NewBannerController(service.NewBannerService(repository.NewBannerRepository(db), deletionRepo, storage)),
		Dashboard: controller.NewDashboardController(service.NewDashboardService(
			repository.NewStatsRepository(db), productRepo, categoryRepo, userRepo,
		)),
		Task: controller.NewTaskController(tasks),
	}, Options{
		JWT:            jwt,
		Limiter:        middleware.NewSubmitLimiter(),
		SubmitCooldown: time.Minute,
	})

	return &testServer{engine: r, db: db, auth: authSvc}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (s *testServer) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (s *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	body := `{"username":"` + username + `","password":"` + password + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w, env := s.do(t, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var data struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.AccessToken
}

func multipartRequest(t *testing.T, method, url, token string, values [][2]string, files map[string][]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, kv := range values {
		require.NoError(t, w.WriteField(kv[0], kv[1]))
	}
	for field, names := range files {
		for _, name := range names {
			part, err := w.CreateFormFile(field, name)
			require.NoError(t, err)
			_, err = part.Write([]byte("\x89PNG\r\n\x1a\nfake"))
			require.NoError(t, err)
		}
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func seedProduct(t *testing.T, db *gorm.DB) *model.Product {
	t.Helper()
	p := &model.Product{
		Name:         "Tee",
		PriceAmount:  1999,
		PriceDivisor: 100,
		Colors: []model.ColorVariant{{
			ColorName: "Red",
			Stock:     2,
			Photos: []model.VariantPhoto{
				{PublicID: "p1", URL: "http://img/p1.jpg", Rank: 0},
				{PublicID: "p2", URL: "http://img/p2.jpg", Rank: 1},
			},
		}},
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// ==================== 测试用例 ====================

func TestHealth(t *testing.T) {
	s := setupTestServer(t)
	w, env := s.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, env.Code)
}

func TestAdminRoutes_RequireAdmin(t *testing.T) {
	s := setupTestServer(t)
	ctx := context.Background()
	require.NoError(t, s.auth.EnsureAdmin(ctx, "admin", "s3cret"))
	_, err := s.auth.Register(ctx, "amit", "password", "")
	require.NoError(t, err)

	w, env := s.do(t, httptest.NewRequest(http.MethodGet, "/api/admin/dashboard/stats", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 401, env.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard/stats", nil)
	req.Header.Set("Authorization", "Bearer "+s.login(t, "amit", "password"))
	w, _ = s.do(t, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/dashboard/stats", nil)
	req.Header.Set("Authorization", "Bearer "+s.login(t, "admin", "s3cret"))
	w, env = s.do(t, req)
	require.Equal(t, http.StatusOK, w.Code)

	var stats struct {
		Count         map[string]float64 `json:"count"`
		ChangePercent map[string]float64 `json:"changePercent"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 1.0, stats.Count["user"])
	assert.Contains(t, stats.ChangePercent, "users")
}

func TestLogin_WrongPassword(t *testing.T) {
	s := setupTestServer(t)
	require.NoError(t, s.auth.EnsureAdmin(context.Background(), "admin", "s3cret"))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"admin","password":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	w, env := s.do(t, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, env.Message)
}

func TestUpdateProduct_MultipartContract(t *testing.T) {
	s := setupTestServer(t)
	require.NoError(t, s.auth.EnsureAdmin(context.Background(), "admin", "s3cret"))
	token := s.login(t, "admin", "s3cret")
	p := seedProduct(t, s.db)
	url := "/api/admin/products/" + jsonNumber(p.ID)

	req := multipartRequest(t, http.MethodPut, url, token, [][2]string{
		{"name", "Tee"},
		{"price", "21.50"},
		{"numColorVariants", "2"},
		{"colorName0", "Red"},
		{"colorStock0", "4"},
		{"existingColorImageIds0", "p2,p1"},
		{"colorName1", ""},
		{"colorStock1", "0"},
		{"existingColorImageIds1", ""},
	}, map[string][]string{
		"colorImages0": {"new.png"},
	})
	w, env := s.do(t, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var product struct {
		Price  float64 `json:"price"`
		Colors []struct {
			ColorName string `json:"colorName"`
			Stock     int    `json:"stock"`
			Photos    []struct {
				PublicID string `json:"public_id"`
			} `json:"photos"`
		} `json:"colors"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &product))
	assert.Equal(t, 21.5, product.Price)
	require.Len(t, product.Colors, 2)
	assert.Equal(t, 4, product.Colors[0].Stock)
	require.Len(t, product.Colors[0].Photos, 3)
	assert.Equal(t, "p2", product.Colors[0].Photos[0].PublicID)
	assert.Equal(t, "p1", product.Colors[0].Photos[1].PublicID)
	assert.Equal(t, "Variant 2", product.Colors[1].ColorName)

	var stored model.Product
	require.NoError(t, s.db.First(&stored, p.ID).Error)
	assert.NotZero(t, stored.UpdatedBy, "审计回调写入 UpdatedBy")

	// 冷却期内重复提交
	w, env = s.do(t, multipartRequest(t, http.MethodPut, url, token, [][2]string{{"name", "Tee"}}, nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, 429, env.Code)
}

func TestUpdateProduct_FailureResetsCooldown(t *testing.T) {
	s := setupTestServer(t)
	require.NoError(t, s.auth.EnsureAdmin(context.Background(), "admin", "s3cret"))
	token := s.login(t, "admin", "s3cret")
	p := seedProduct(t, s.db)
	url := "/api/admin/products/" + jsonNumber(p.ID)

	w, env := s.do(t, multipartRequest(t, http.MethodPut, url, token, [][2]string{
		{"numColorVariants", "1"},
		{"existingColorImageIds0", "p1,not-mine"},
	}, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, env.Message)

	req := httptest.NewRequest(http.MethodPut, url, strings.NewReader(`{"name":"json"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w, _ = s.do(t, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 失败不占用冷却
	w, _ = s.do(t, multipartRequest(t, http.MethodPut, url, token, [][2]string{{"name", "Renamed"}}, nil))
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = s.do(t, multipartRequest(t, http.MethodPut, "/api/admin/products/9999", token, [][2]string{{"name", "x"}}, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPublicCatalog(t *testing.T) {
	s := setupTestServer(t)
	require.NoError(t, s.auth.EnsureAdmin(context.Background(), "admin", "s3cret"))
	token := s.login(t, "admin", "s3cret")
	p := seedProduct(t, s.db)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/categories", strings.NewReader(`{"name":"Men","subcategories":["Shirts"]}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w, _ := s.do(t, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = s.do(t, multipartRequest(t, http.MethodPost, "/api/admin/banners", token,
		[][2]string{{"title", "Summer"}, {"meta.slot", "home"}},
		map[string][]string{"photos": {"a.png", "b.png"}},
	))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env := s.do(t, httptest.NewRequest(http.MethodGet, "/api/categories", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"Shirts"`)

	w, env = s.do(t, httptest.NewRequest(http.MethodGet, "/api/banners", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var banners []struct {
		Photos []struct {
			URL string `json:"url"`
		} `json:"photos"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &banners))
	require.Len(t, banners, 1)
	assert.Len(t, banners[0].Photos, 2)

	w, env = s.do(t, httptest.NewRequest(http.MethodGet, "/api/products/"+jsonNumber(p.ID), nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"colorName":"Red"`)

	w, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/api/products/abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.do(t, httptest.NewRequest(http.MethodGet, "/api/products?keyword=tee", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"total":1`)
}

func jsonNumber(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func TestAdminTasks(t *testing.T) {
	s := setupTestServer(t)
	require.NoError(t, s.auth.EnsureAdmin(context.Background(), "admin", "admin-pass"))
	token := s.login(t, "admin", "admin-pass")

	req := httptest.NewRequest(http.MethodGet, "/api/admin/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w, env := s.do(t, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"stats_snapshot":false,"upload_cleanup":true}`, string(env.Data))

	req = httptest.NewRequest(http.MethodPost, "/api/admin/tasks/cleanup", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w, env = s.do(t, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"deleted":0,"failed":0}`, string(env.Data))
}

func TestAdminToggles(t *testing.T) {
	s := setupTestServer(t)
	ctx := context.Background()
	require.NoError(t, s.auth.EnsureAdmin(ctx, "admin", "s3cret"))
	token := s.login(t, "admin", "s3cret")

	w, env := s.do(t, multipartRequest(t, http.MethodPost, "/api/admin/banners", token,
		[][2]string{{"title", "Winter"}},
		map[string][]string{"photos": {"w.png"}},
	))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var banner struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &banner))

	put := func(path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		w, _ := s.do(t, req)
		return w
	}

	w = put("/api/admin/banners/"+jsonNumber(banner.ID)+"/active", `{"active":false}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	_, env = s.do(t, httptest.NewRequest(http.MethodGet, "/api/banners", nil))
	assert.JSONEq(t, `[]`, string(env.Data))

	assert.Equal(t, http.StatusNotFound, put("/api/admin/banners/9999/active", `{"active":true}`).Code)
	assert.Equal(t, http.StatusBadRequest, put("/api/admin/banners/"+jsonNumber(banner.ID)+"/active", `{}`).Code)

	user, err := s.auth.Register(ctx, "sara", "password", "")
	require.NoError(t, err)
	w = put("/api/admin/users/"+jsonNumber(user.ID)+"/active", `{"active":false}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"sara","password":"password"}`))
	req.Header.Set("Content-Type", "application/json")
	w, _ = s.do(t, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	assert.Equal(t, http.StatusNotFound, put("/api/admin/users/9999/active", `{"active":true}`).Code)
}
