package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/erciktiburak/school-attendance-api/config"
	"github.com/erciktiburak/school-attendance-api/internal/api/handler"
	"github.com/erciktiburak/school-attendance-api/internal/api/router"
	"github.com/erciktiburak/school-attendance-api/internal/mailer"
	"github.com/erciktiburak/school-attendance-api/internal/realtime"
	"github.com/erciktiburak/school-attendance-api/internal/repository"
	"github.com/erciktiburak/school-attendance-api/internal/service"
	"github.com/erciktiburak/school-attendance-api/pkg/database"
	"github.com/erciktiburak/school-attendance-api/pkg/jwt"
	applogger "github.com/erciktiburak/school-attendance-api/pkg/logger"
	"github.com/erciktiburak/school-attendance-api/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（默认查找 ./config/config.yaml）")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("class_start", cfg.Attendance.ClassStart),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	version, err := database.RunMigrations(sqlDB, logger)
	if err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}
	logger.Info("数据库迁移完成", zap.Uint("version", version))

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，Token 黑名单、限流与签到锁将不可用", zap.Error(err))
		rdb = nil
	}

	// 5. 实时推送
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	hub := realtime.NewHub(logger)
	go hub.Run(ctx)

	// 6. 依赖注入: Repository → Service → Handler
	deps := service.Deps{
		JWT:         jwt.NewManager(&cfg.Auth),
		Broadcaster: hub,
		Mailer:      mailer.New(&cfg.Mail, logger),
	}
	// 接口字段只在 rdb 非 nil 时赋值，避免带类型的 nil
	if rdb != nil {
		deps.Locker = rdb
		deps.Blacklist = rdb
	}

	repo := repository.NewRepository(db)
	svc, err := service.NewService(cfg, repo, deps, logger)
	if err != nil {
		logger.Fatal("初始化服务失败", zap.Error(err))
	}

	if cfg.Seed.Enabled {
		seedCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := svc.Auth.SeedDefaultUsers(seedCtx); err != nil {
			logger.Error("初始化默认账号失败", zap.Error(err))
		}
		cancel()
	}

	h := handler.NewHandler(svc, hub, logger)

	// 7. 初始化路由
	engine := router.Setup(cfg, h, deps.JWT, rdb, db, logger)

	// 8. 启动 HTTP 服务器（优雅关闭）
	// WriteTimeout 不设置：推送长连接由 realtime 自行维护写超时
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 9. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 断开推送连接
	stop()

	if err := sqlDB.Close(); err != nil {
		logger.Warn("关闭数据库连接失败", zap.Error(err))
	}
	if rdb != nil {
		_ = rdb.Close()
	}

	logger.Info("服务器已关闭")
}
