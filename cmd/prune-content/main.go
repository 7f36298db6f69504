// prune-content 按订阅窗口把过期周的每日计划内容移入 archive 目录。
//
// 环境变量：
//
//	SUBSCRIPTION_WINDOW_SIZE  保留的周数（默认 4）
//	CONTENT_LOCAL_ROOT        内容仓库本地根目录
//	CONTENT_URL               远端原始文件地址（本地缺失时读取）
//	CONTENT_TOKEN             远端访问令牌
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/SrgyS/yns-app-sub001/config"
	"github.com/SrgyS/yns-app-sub001/internal/pruner"
	applogger "github.com/SrgyS/yns-app-sub001/pkg/logger"
)

type settings struct {
	WindowSize int
	Content    config.ContentConfig
	Log        config.LogConfig
}

// loadSettings 默认值 → FITCOURSE_* → 无前缀环境变量（优先级递增）
func loadSettings() (*settings, error) {
	v := viper.New()
	config.SetDefaults(v)

	bindings := map[string][]string{
		"schedule.window_size": {"SUBSCRIPTION_WINDOW_SIZE", "FITCOURSE_SCHEDULE_WINDOW_SIZE"},
		"content.local_root":   {"CONTENT_LOCAL_ROOT", "FITCOURSE_CONTENT_LOCAL_ROOT"},
		"content.url":          {"CONTENT_URL", "FITCOURSE_CONTENT_URL"},
		"content.token":        {"CONTENT_TOKEN", "FITCOURSE_CONTENT_TOKEN"},
		"log.level":            {"LOG_LEVEL", "FITCOURSE_LOG_LEVEL"},
		"log.format":           {"LOG_FORMAT", "FITCOURSE_LOG_FORMAT"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, err
		}
	}

	s := &settings{
		WindowSize: v.GetInt("schedule.window_size"),
		Content: config.ContentConfig{
			LocalRoot: v.GetString("content.local_root"),
			URL:       v.GetString("content.url"),
			Token:     v.GetString("content.token"),
		},
		Log: config.LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}
	if s.WindowSize < 1 {
		return nil, fmt.Errorf("SUBSCRIPTION_WINDOW_SIZE 必须大于 0，当前为 %d", s.WindowSize)
	}
	if s.Content.LocalRoot == "" {
		return nil, fmt.Errorf("CONTENT_LOCAL_ROOT 不能为空")
	}
	return s, nil
}

func run(ctx context.Context) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}

	logger, err := applogger.NewLogger(&s.Log, "prune-content")
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("开始归档过期内容",
		zap.Int("window_size", s.WindowSize),
		zap.String("local_root", s.Content.LocalRoot),
		zap.Bool("remote", s.Content.URL != ""),
	)

	p := pruner.New(pruner.NewContentSource(&s.Content), s.Content.LocalRoot, s.WindowSize, logger)
	result, err := p.Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("归档完成",
		zap.Int("courses", len(result.Courses)),
		zap.Int("moved_files", result.MovedFiles),
		zap.Int("failed_courses", result.Failed),
	)
	return nil
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "prune-content: %v\n", err)
		stop()
		os.Exit(1)
	}
}
