package app

import (
	"context"
	"labelmarket_backend/internal/config"
	"labelmarket_backend/internal/controller"
	"labelmarket_backend/internal/repository"
	"labelmarket_backend/internal/service"
	"labelmarket_backend/pkg/configwatcher"
	"labelmarket_backend/pkg/database"
	"labelmarket_backend/pkg/logger"
	"labelmarket_backend/pkg/monitoring"
	"labelmarket_backend/pkg/security"
	"labelmarket_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user       *repository.UserRepository
	task       *repository.TaskRepository
	assignment *repository.AssignmentRepository
	question   *repository.QuestionRepository
	progress   *repository.ProgressRepository
	cursor     *repository.CursorRepository
}

type services struct {
	auth       *service.AuthService
	user       *service.UserService
	pool       *service.PoolService
	task       *service.TaskService
	distribute *service.DistributeService
	assignment *service.AssignmentService
	review     *service.ReviewService
	submission *service.SubmissionService
	storage    *service.StorageService
}

type controllers struct {
	auth       *controller.AuthController
	task       *controller.TaskController
	assignment *controller.AssignmentController
	submission *controller.SubmissionController
	review     *controller.ReviewController
	health     *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:       repository.NewUserRepository(db),
		task:       repository.NewTaskRepository(db),
		assignment: repository.NewAssignmentRepository(db),
		question:   repository.NewQuestionRepository(db),
		progress:   repository.NewProgressRepository(db),
		cursor:     repository.NewCursorRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.user = service.NewUserService(repos.user, db)
	s.pool = service.NewPoolService(repos.user, repos.cursor, rdb)
	s.task = service.NewTaskService(repos.task, repos.assignment)
	s.distribute = service.NewDistributeService(repos.task, repos.assignment, s.user, db)
	s.assignment = service.NewAssignmentService(repos.assignment, repos.user, db)
	s.review = service.NewReviewService(repos.task, repos.assignment, repos.question, s.user, db)
	// 自动验收在末题提交事务内触发，提交服务依赖验收服务
	s.submission = service.NewSubmissionService(repos.question, repos.progress, s.review, db)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:       controller.NewAuthController(s.auth, s.user),
		task:       controller.NewTaskController(s.task, s.distribute, s.storage),
		assignment: controller.NewAssignmentController(s.assignment),
		submission: controller.NewSubmissionController(s.submission),
		review:     controller.NewReviewController(s.task, s.review, s.pool),
		health:     controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 100000
	}
	windowMinutes := cfg.RateLimit.WindowMinutes
	if windowMinutes <= 0 {
		windowMinutes = 1
	}
	router.Use(security.RateLimiter(maxRequests, time.Duration(windowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)

	// 轮转游标单行记录必须先于任何分发操作存在
	if err := repos.cursor.Ensure(); err != nil {
		logger.Log.Fatal("Failed to initialize rotation cursor", zap.Error(err))
	}

	services := app.initServices(repos, cfg, db, rdb)
	controllers := app.initControllers(services, db)

	// 监控初始化
	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("label-market", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
			}
		}()
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	// 配置热更新：变更写入后重载并通知已注册的回调
	go configwatcher.WatchConfig("configs/config.yaml", cfg, func(newCfg interface{}) {
		updated, ok := newCfg.(*config.Config)
		if !ok {
			return
		}
		app.Config = updated
		for _, callback := range app.configCallbacks {
			callback(updated)
		}
		logger.Log.Info("Configuration reloaded")
	})

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
