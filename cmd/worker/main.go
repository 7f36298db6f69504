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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/SrgyS/yns-app-sub001/config"
	"github.com/SrgyS/yns-app-sub001/internal/messaging"
	"github.com/SrgyS/yns-app-sub001/internal/pruner"
	"github.com/SrgyS/yns-app-sub001/internal/repository"
	"github.com/SrgyS/yns-app-sub001/internal/service"
	"github.com/SrgyS/yns-app-sub001/pkg/database"
	applogger "github.com/SrgyS/yns-app-sub001/pkg/logger"
	"github.com/SrgyS/yns-app-sub001/pkg/redis"
)

// worker 消费 course.week_published 执行批量计划更新，并按 cron 归档过期内容
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("FITCOURSE_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger, err := applogger.NewLogger(&cfg.Log, "worker")
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if !cfg.Kafka.Enabled() {
		logger.Fatal("worker 需要 kafka.brokers 与 kafka.topic")
	}

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}

	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，批量更新将不加分布式锁", zap.Error(err))
		rdb = nil
	}
	var locker service.Locker
	if rdb != nil {
		locker = rdb
	}

	// worker 只消费不发布
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, locker, nil, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 内容归档 ──
	prune := pruner.New(pruner.NewContentSource(&cfg.Content), cfg.Content.LocalRoot, cfg.Schedule.WindowSize, logger)
	scheduler := cron.New(cron.WithLocation(time.UTC))
	if _, err := scheduler.AddFunc(cfg.Content.PruneCron, func() {
		result, err := prune.Run(ctx)
		if err != nil {
			logger.Error("内容归档失败", zap.Error(err))
			return
		}
		logger.Info("内容归档完成",
			zap.Int("courses", len(result.Courses)),
			zap.Int("moved_files", result.MovedFiles),
			zap.Int("failed_courses", result.Failed),
		)
	}); err != nil {
		logger.Fatal("无效的 content.prune_cron", zap.String("expr", cfg.Content.PruneCron), zap.Error(err))
	}
	scheduler.Start()

	// ── 指标 ──
	metricsSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("指标服务异常", zap.Error(err))
		}
	}()

	// ── 消费 ──
	reader := messaging.NewReader(&cfg.Kafka)
	processor := messaging.NewProcessor(reader, messaging.NewPlanUpdateHandler(svc.PlanBatch, logger), logger)

	logger.Info("worker 已启动",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.Topic),
		zap.String("group_id", cfg.Kafka.GroupID),
		zap.String("prune_cron", cfg.Content.PruneCron),
	)

	exitCode := 0
	if err := processor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("消费循环异常退出", zap.Error(err))
		exitCode = 1
	}

	logger.Info("worker 正在关闭...")
	<-scheduler.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)

	if err := reader.Close(); err != nil {
		logger.Warn("关闭 Kafka 读取端失败", zap.Error(err))
	}
	if closeDB, _ := db.DB(); closeDB != nil {
		closeDB.Close()
	}
	if rdb != nil {
		rdb.Close()
	}
	logger.Info("worker 已关闭")
	_ = logger.Sync()
	os.Exit(exitCode)
}
