// Package pruner 归档订阅课程中超出保留窗口的每日计划内容文件。
//
// 内容目录结构：
//
//	<root>/courses.json                           课程清单
//	<root>/<slug>/weeks.json                      周清单（week_number + release_at）
//	<root>/<slug>/daily-plans/week-N-day-D.json   每日计划
//	<root>/<slug>/daily-plans/archive/            归档目录
package pruner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/SrgyS/yns-app-sub001/internal/model"
	"github.com/SrgyS/yns-app-sub001/internal/observability"
)

const (
	coursesManifest = "courses.json"
	weeksManifest   = "weeks.json"
	dailyPlansDir   = "daily-plans"
	archiveDir      = "archive"
)

var dailyPlanFile = regexp.MustCompile(`^week-(\d+)-day-(\d+)\.json$`)

// CourseEntry courses.json 中的一项
type CourseEntry struct {
	Slug        string                  `json:"slug"`
	ContentType model.CourseContentType `json:"content_type"`
}

// weekHeader weeks.json 每项中参与计算的字段；其余字段原样保留
type weekHeader struct {
	WeekNumber int        `json:"week_number"`
	ReleaseAt  *time.Time `json:"release_at"`
}

// CourseResult 单个课程的归档结果
type CourseResult struct {
	Slug         string
	LatestWeek   int
	FirstKept    int
	MovedFiles   int
	DroppedWeeks int
	Err          error
}

// Result 一次运行的汇总
type Result struct {
	Courses    []CourseResult
	MovedFiles int
	Failed     int
}

// Pruner 按保留窗口归档内容文件
type Pruner struct {
	source     Source
	root       string
	windowSize int
	logger     *zap.Logger
	now        func() time.Time
}

// New 创建 Pruner；windowSize<=0 时取 4
func New(source Source, root string, windowSize int, logger *zap.Logger) *Pruner {
	if windowSize <= 0 {
		windowSize = 4
	}
	return &Pruner{source: source, root: root, windowSize: windowSize, logger: logger, now: time.Now}
}

// FirstWeekToKeep max(1, latest - window + 1)
func FirstWeekToKeep(latestWeek, windowSize int) int {
	first := latestWeek - windowSize + 1
	if first < 1 {
		return 1
	}
	return first
}

// Run 处理全部订阅课程；单个课程失败只记录并跳过，仅课程清单不可用时返回 error
func (p *Pruner) Run(ctx context.Context) (*Result, error) {
	raw, err := p.source.Read(ctx, coursesManifest)
	if err != nil {
		return nil, fmt.Errorf("读取课程清单失败: %w", err)
	}
	var courses []CourseEntry
	if err := json.Unmarshal(raw, &courses); err != nil {
		return nil, fmt.Errorf("解析课程清单失败: %w", err)
	}

	result := &Result{}
	now := p.now()
	for _, c := range courses {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if c.ContentType != model.ContentTypeSubscription || c.Slug == "" {
			continue
		}

		cr := p.pruneCourse(ctx, c.Slug, now)
		result.Courses = append(result.Courses, cr)
		result.MovedFiles += cr.MovedFiles
		if cr.Err != nil {
			result.Failed++
			observability.RecordPruneCourseError()
			p.logger.Error("归档课程失败，已跳过", zap.String("course", c.Slug), zap.Error(cr.Err))
			continue
		}
		p.logger.Info("课程归档完成",
			zap.String("course", c.Slug),
			zap.Int("latest_week", cr.LatestWeek),
			zap.Int("first_kept_week", cr.FirstKept),
			zap.Int("moved_files", cr.MovedFiles),
			zap.Int("dropped_weeks", cr.DroppedWeeks),
		)
	}

	observability.RecordPrunedFiles(result.MovedFiles)
	return result, nil
}

func (p *Pruner) pruneCourse(ctx context.Context, slug string, now time.Time) CourseResult {
	cr := CourseResult{Slug: slug}

	raw, err := p.source.Read(ctx, path.Join(slug, weeksManifest))
	if err != nil {
		cr.Err = err
		return cr
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		cr.Err = fmt.Errorf("解析周清单失败: %w", err)
		return cr
	}
	headers := make([]weekHeader, len(entries))
	for i, e := range entries {
		if err := json.Unmarshal(e, &headers[i]); err != nil {
			cr.Err = fmt.Errorf("解析周清单第 %d 项失败: %w", i+1, err)
			return cr
		}
	}
	if len(headers) == 0 {
		return cr
	}

	cr.LatestWeek = latestWeek(headers, now)
	cr.FirstKept = FirstWeekToKeep(cr.LatestWeek, p.windowSize)

	moved, err := p.archiveDailyPlans(slug, cr.FirstKept)
	cr.MovedFiles = moved
	if err != nil {
		cr.Err = err
		return cr
	}

	kept := make([]json.RawMessage, 0, len(entries))
	for i, e := range entries {
		if headers[i].WeekNumber >= cr.FirstKept {
			kept = append(kept, e)
		}
	}
	cr.DroppedWeeks = len(entries) - len(kept)
	if cr.DroppedWeeks > 0 {
		if err := p.writeManifest(slug, kept); err != nil {
			cr.Err = err
		}
	}
	return cr
}

// latestWeek 已发布周中的最大周号；尚无发布时取全部周的最大值
func latestWeek(headers []weekHeader, now time.Time) int {
	latestReleased, latestAny := 0, 0
	for _, h := range headers {
		if h.WeekNumber > latestAny {
			latestAny = h.WeekNumber
		}
		if h.ReleaseAt != nil && !h.ReleaseAt.After(now) && h.WeekNumber > latestReleased {
			latestReleased = h.WeekNumber
		}
	}
	if latestReleased > 0 {
		return latestReleased
	}
	return latestAny
}

func (p *Pruner) archiveDailyPlans(slug string, firstKept int) (int, error) {
	dir := filepath.Join(p.root, slug, dailyPlansDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("每日计划目录不存在: %s", dir)
		}
		return 0, fmt.Errorf("读取每日计划目录失败: %w", err)
	}

	target := filepath.Join(dir, archiveDir)
	moved := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := dailyPlanFile.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		week, _ := strconv.Atoi(m[1])
		if week >= firstKept {
			continue
		}
		if moved == 0 {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return 0, fmt.Errorf("创建归档目录失败: %w", err)
			}
		}
		name, err := archiveName(target, e.Name())
		if err != nil {
			return moved, err
		}
		if name != e.Name() {
			p.logger.Warn("归档目录已存在同名文件，改名保存",
				zap.String("slug", slug),
				zap.String("file", e.Name()),
				zap.String("archived_as", name),
			)
		}
		if err := os.Rename(filepath.Join(dir, e.Name()), filepath.Join(target, name)); err != nil {
			return moved, fmt.Errorf("归档 %s 失败: %w", e.Name(), err)
		}
		moved++
	}
	return moved, nil
}

// archiveName 归档目录中未被占用的文件名；重名时追加序号 week-1-day-1.1.json
func archiveName(target, name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := name
	for i := 1; ; i++ {
		_, err := os.Lstat(filepath.Join(target, candidate))
		if errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("检查归档文件 %s 失败: %w", candidate, err)
		}
		candidate = fmt.Sprintf("%s.%d%s", stem, i, ext)
	}
}

// writeManifest 先写临时文件再 rename，避免中途失败留下半截清单
func (p *Pruner) writeManifest(slug string, entries []json.RawMessage) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("编码周清单失败: %w", err)
	}
	data = append(data, '\n')

	dst := filepath.Join(p.root, slug, weeksManifest)
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("写入周清单失败: %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("替换周清单失败: %w", err)
	}
	return nil
}
