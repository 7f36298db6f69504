package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/SrgyS/yns-app-sub001/internal/dto"
	"github.com/SrgyS/yns-app-sub001/internal/model"
	"github.com/SrgyS/yns-app-sub001/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrPlanUpdateRunNotFound = errors.New("批量更新记录不存在")
	ErrExportGenerateFail    = errors.New("生成 Excel 文件失败")
)

// ExportService 批量更新记录查询与导出
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response。
// Excel 格式：
//   - Sheet "概览"：课程、周次、起止时间、总数/成功/失败
//   - Sheet "失败明细"：每个失败报名一行
type ExportService interface {
	ListRuns(ctx context.Context, req *dto.PlanUpdateRunListRequest) ([]dto.PlanUpdateRunResponse, int64, error)
	GetRun(ctx context.Context, runID string) (*dto.PlanUpdateRunResponse, error)
	ExportRun(ctx context.Context, runID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

func (s *exportService) ListRuns(ctx context.Context, req *dto.PlanUpdateRunListRequest) ([]dto.PlanUpdateRunResponse, int64, error) {
	runs, total, err := s.repo.PlanUpdateRun.List(ctx, req.CourseID, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询批量更新记录失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.PlanUpdateRunResponse, 0, len(runs))
	for i := range runs {
		result = append(result, *toPlanUpdateRunResponse(&runs[i]))
	}
	return result, total, nil
}

func (s *exportService) GetRun(ctx context.Context, runID string) (*dto.PlanUpdateRunResponse, error) {
	run, err := s.loadRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	return toPlanUpdateRunResponse(run), nil
}

func (s *exportService) loadRun(ctx context.Context, runID string) (*model.PlanUpdateRun, error) {
	run, err := s.repo.PlanUpdateRun.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanUpdateRunNotFound
		}
		s.logger.Error("查询批量更新记录失败", zap.String("run_id", runID), zap.Error(err))
		return nil, err
	}
	return run, nil
}

// ═══════════════════════════════════════════════════════════
// ExportRun — 导出单次批量更新为 Excel
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportRun(ctx context.Context, runID string) (*bytes.Buffer, string, error) {
	run, err := s.loadRun(ctx, runID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// ── 概览 ──
	summary := "概览"
	idx, _ := f.NewSheet(summary)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")
	f.SetColWidth(summary, "A", "A", 14)
	f.SetColWidth(summary, "B", "B", 40)

	overview := [][2]interface{}{
		{"批次 ID", run.RunID},
		{"课程 ID", run.CourseID},
		{"周次", run.WeekNumber},
		{"开始时间", run.StartedAt.UTC().Format("2006-01-02 15:04:05")},
		{"结束时间", run.FinishedAt.UTC().Format("2006-01-02 15:04:05")},
		{"总数", run.TotalUsers},
		{"成功", run.UpdatedUsers},
		{"失败", run.FailedUsers},
	}
	for i, kv := range overview {
		row := i + 1
		f.SetCellValue(summary, cell("A", row), kv[0])
		f.SetCellValue(summary, cell("B", row), kv[1])
		f.SetCellStyle(summary, cell("A", row), cell("A", row), headerStyle)
	}

	// ── 失败明细 ──
	detail := "失败明细"
	f.NewSheet(detail)
	f.SetColWidth(detail, "A", "A", 6)
	f.SetColWidth(detail, "B", "C", 40)
	f.SetColWidth(detail, "D", "D", 60)

	headers := []string{"#", "用户 ID", "报名 ID", "错误"}
	for i, h := range headers {
		f.SetCellValue(detail, cell(colName(i), 1), h)
	}
	f.SetCellStyle(detail, "A1", cell(colName(len(headers)-1), 1), headerStyle)

	for i, fail := range run.Failures {
		row := i + 2
		f.SetCellValue(detail, cell("A", row), i+1)
		f.SetCellValue(detail, cell("B", row), fail.UserID)
		f.SetCellValue(detail, cell("C", row), fail.EnrollmentID)
		f.SetCellValue(detail, cell("D", row), fail.Error)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.String("run_id", runID), zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("plan_update_week%d_%s.xlsx", run.WeekNumber, run.StartedAt.UTC().Format("20060102_150405"))
	return buf, filename, nil
}

func toPlanUpdateRunResponse(run *model.PlanUpdateRun) *dto.PlanUpdateRunResponse {
	failures := make([]dto.PlanUpdateError, 0, len(run.Failures))
	for _, f := range run.Failures {
		failures = append(failures, dto.PlanUpdateError{UserID: f.UserID, EnrollmentID: f.EnrollmentID, Error: f.Error})
	}
	return &dto.PlanUpdateRunResponse{
		ID:           run.RunID,
		CourseID:     run.CourseID,
		WeekNumber:   run.WeekNumber,
		TotalUsers:   run.TotalUsers,
		UpdatedUsers: run.UpdatedUsers,
		FailedUsers:  run.FailedUsers,
		Errors:       failures,
		StartedAt:    run.StartedAt.UTC().Format(time.RFC3339),
		FinishedAt:   run.FinishedAt.UTC().Format(time.RFC3339),
	}
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
