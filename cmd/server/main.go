package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront_202610/internal/config"
	"storefront_202610/internal/controller"
	"storefront_202610/internal/middleware"
	"storefront_202610/internal/model"
	"storefront_202610/internal/repository"
	"storefront_202610/internal/router"
	"storefront_202610/internal/service"
	"storefront_202610/internal/task"
	"storefront_202610/pkg/database"
	"storefront_202610/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径 (默认 ./config.yaml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.Init(cfg.Debug)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// 1. 初始化数据库
	db, err := initDatabase(cfg)
	if err != nil {
		log.Fatal("数据库初始化失败", zap.Error(err))
	}

	// 2. 初始化依赖
	deps, err := initDependencies(cfg, db)
	if err != nil {
		log.Fatal("依赖初始化失败", zap.Error(err))
	}

	// 3. 启动定时任务
	if err := deps.Tasks.Start(); err != nil {
		log.Fatal("定时任务启动失败", zap.Error(err))
	}
	defer deps.Tasks.Stop()

	// 4. 初始化路由
	if !cfg.Debug {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.Default()
	r.MaxMultipartMemory = cfg.Server.MaxUploadMB << 20

	uploadDir := ""
	if cfg.Storage.Provider == "local" {
		uploadDir = cfg.Storage.BasePath
	}
	router.InitRoutes(r, *deps.Controllers, router.Options{
		JWT:            deps.JWT,
		Limiter:        middleware.NewSubmitLimiter(),
		SubmitCooldown: time.Duration(cfg.Tasks.SubmitCooldownMS) * time.Millisecond,
		UploadDir:      uploadDir,
	})

	// 5. 启动服务
	startServer(cfg.Server, r, log)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	JWT         *middleware.JWTManager
	Repos       *Repositories
	Services    *Services
	Tasks       *task.TaskManager
	Controllers *router.Controllers
}

// Repositories 仓库集合
type Repositories struct {
	Product  repository.ProductRepository
	Category repository.CategoryRepository
	Banner   repository.BannerRepository
	Stats    repository.StatsRepository
	User     repository.UserRepository
	Deletion repository.DeletionRepository
}

// Services 服务集合
type Services struct {
	Storage   *service.StorageService
	Auth      *service.AuthService
	Product   *service.ProductService
	Category  *service.CategoryService
	Banner    *service.BannerService
	Dashboard *service.DashboardService
}

// ==================== 初始化函数 ====================

// initDatabase 初始化数据库并注册审计回调
func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.InitDB(database.Options{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		LogSQL:       cfg.Database.LogSQL,
	},
		// Catalog
		&model.Category{}, &model.Subcategory{},
		&model.Product{}, &model.ColorVariant{}, &model.VariantPhoto{},
		&model.Banner{}, &model.BannerPhoto{},
		// Account
		&model.SysUser{},
		// Orders & stats
		&model.Order{}, &model.StatsSnapshot{},
		// Storage
		&model.PendingDeletion{},
	)
	if err != nil {
		return nil, err
	}
	if err := middleware.RegisterAuditCallbacks(db); err != nil {
		return nil, err
	}
	return db, nil
}

// initDependencies 初始化所有依赖
func initDependencies(cfg *config.Config, db *gorm.DB) (*Dependencies, error) {
	// -------- Repo 层 --------
	repos := initRepositories(db)

	// -------- 存储 --------
	storage, err := service.NewStorageService(service.StorageConfig{
		Provider:  cfg.Storage.Provider,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Endpoint:  cfg.Storage.Endpoint,
		CDNDomain: cfg.Storage.CDNDomain,
		BasePath:  cfg.Storage.BasePath,
	})
	if err != nil {
		return nil, err
	}

	// -------- 业务服务 --------
	jwt := middleware.NewJWTManager(middleware.JWTConfig{
		SecretKey:       cfg.JWT.SecretKey,
		AccessTokenTTL:  cfg.JWT.AccessTokenTTL,
		RefreshTokenTTL: cfg.JWT.RefreshTokenTTL,
		Issuer:          cfg.JWT.Issuer,
	})
	services := &Services{
		Storage:   storage,
		Auth:      service.NewAuthService(repos.User, jwt),
		Product:   service.NewProductService(repos.Product, repos.Category, repos.Deletion, storage),
		Category:  service.NewCategoryService(repos.Category),
		Banner:    service.NewBannerService(repos.Banner, repos.Deletion, storage),
		Dashboard: service.NewDashboardService(repos.Stats, repos.Product, repos.Category, repos.User),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := services.Auth.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password); err != nil {
		return nil, err
	}

	// -------- 定时任务 --------
	taskCfg := task.DefaultConfig()
	taskCfg.SnapshotEnabled = cfg.Tasks.Enabled
	taskCfg.CleanupEnabled = cfg.Tasks.Enabled
	if cfg.Tasks.StatsSnapshot != "" {
		taskCfg.SnapshotSpec = cfg.Tasks.StatsSnapshot
	}
	if cfg.Tasks.UploadCleanup != "" {
		taskCfg.CleanupSpec = cfg.Tasks.UploadCleanup
	}
	tasks := task.NewTaskManager(&task.TaskManagerDeps{
		Dashboard:    services.Dashboard,
		DeletionRepo: repos.Deletion,
		Storage:      storage,
	}, taskCfg)

	// -------- Controller 层 --------
	controllers := &router.Controllers{
		Auth:      controller.NewAuthController(services.Auth),
		Product:   controller.NewProductController(services.Product),
		Category:  controller.NewCategoryController(services.Category),
		Banner:    controller.NewBannerController(services.Banner),
		Dashboard: controller.NewDashboardController(services.Dashboard),
		Task:      controller.NewTaskController(tasks),
	}

	return &Dependencies{
		DB:          db,
		JWT:         jwt,
		Repos:       repos,
		Services:    services,
		Tasks:       tasks,
		Controllers: controllers,
	}, nil
}

// initRepositories 初始化所有仓库
func initRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Product:  repository.NewProductRepository(db),
		Category: repository.NewCategoryRepository(db),
		Banner:   repository.NewBannerRepository(db),
		Stats:    repository.NewStatsRepository(db),
		User:     repository.NewUserRepository(db),
		Deletion: repository.NewDeletionRepository(db),
	}
}

// ==================== 服务启动 ====================

// startServer 启动服务并在收到退出信号后优雅关闭
func startServer(cfg config.ServerConfig, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	// 异步启动服务
	go func() {
		log.Info("服务启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("服务启动失败", zap.Error(err))
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("正在关闭服务...")

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("服务强制关闭", zap.Error(err))
		return
	}

	log.Info("服务已退出")
}
