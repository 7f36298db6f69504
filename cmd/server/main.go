package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/SrgyS/yns-app-sub001/config"
	"github.com/SrgyS/yns-app-sub001/internal/api/handler"
	"github.com/SrgyS/yns-app-sub001/internal/api/router"
	"github.com/SrgyS/yns-app-sub001/internal/messaging"
	"github.com/SrgyS/yns-app-sub001/internal/repository"
	"github.com/SrgyS/yns-app-sub001/internal/service"
	"github.com/SrgyS/yns-app-sub001/pkg/database"
	"github.com/SrgyS/yns-app-sub001/pkg/jwt"
	applogger "github.com/SrgyS/yns-app-sub001/pkg/logger"
	"github.com/SrgyS/yns-app-sub001/pkg/redis"
)

func main() {
	_ = godotenv.Load()

	// 1. 加载配置
	cfg, err := config.Load(os.Getenv("FITCOURSE_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log, "server")
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.Int("window_size", cfg.Schedule.WindowSize),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：失败时批量更新不加锁、训练日修改不限流）
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，分布式锁与限流将不可用", zap.Error(err))
		rdb = nil
	}
	var locker service.Locker
	if rdb != nil {
		locker = rdb
	}

	// 5. Kafka（可选：未配置时新周发布后同步执行批量更新）
	var publisher service.WeekPublisher
	var kafkaPub *messaging.Publisher
	if cfg.Kafka.Enabled() {
		kafkaPub = messaging.NewPublisher(&cfg.Kafka, logger)
		publisher = kafkaPub
		logger.Info("Kafka 发布已启用", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	// 6. 初始化 JWT 管理器
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 7. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, locker, publisher, logger)
	h := handler.NewHandler(svc)

	// 8. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	// 9. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // 同步批量更新可能较慢
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 10. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			logger.Warn("关闭 Kafka 发布端失败", zap.Error(err))
		}
	}

	if closeDB, _ := db.DB(); closeDB != nil {
		closeDB.Close()
	}

	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
