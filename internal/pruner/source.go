package pruner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/SrgyS/yns-app-sub001/config"
)

// ErrContentNotFound 本地与远端均不存在该文件
var ErrContentNotFound = errors.New("内容文件不存在")

// Source 内容文件读取：先读本地，缺失时回退到远端原始文件
type Source interface {
	Read(ctx context.Context, relPath string) ([]byte, error)
}

// ContentSource Source 的默认实现
type ContentSource struct {
	root   string
	client *resty.Client // nil 表示未配置远端
}

// NewContentSource 由 content 配置创建；URL 为空时仅读本地
func NewContentSource(cfg *config.ContentConfig) *ContentSource {
	s := &ContentSource{root: cfg.LocalRoot}
	if cfg.URL != "" {
		client := resty.New().
			SetBaseURL(strings.TrimRight(cfg.URL, "/")).
			SetTimeout(15 * time.Second).
			SetRetryCount(2).
			SetRetryWaitTime(500 * time.Millisecond)
		if cfg.Token != "" {
			client.SetAuthToken(cfg.Token)
		}
		s.client = client
	}
	return s
}

func (s *ContentSource) Read(ctx context.Context, relPath string) ([]byte, error) {
	if s.root != "" {
		data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(relPath)))
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("读取本地文件 %s 失败: %w", relPath, err)
		}
	}
	if s.client == nil {
		return nil, fmt.Errorf("%w: %s", ErrContentNotFound, relPath)
	}

	resp, err := s.client.R().SetContext(ctx).Get("/" + strings.TrimLeft(relPath, "/"))
	if err != nil {
		return nil, fmt.Errorf("拉取远端文件 %s 失败: %w", relPath, err)
	}
	if resp.StatusCode() == 404 {
		return nil, fmt.Errorf("%w: %s", ErrContentNotFound, relPath)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("拉取远端文件 %s 失败: HTTP %d", relPath, resp.StatusCode())
	}
	return resp.Body(), nil
}
