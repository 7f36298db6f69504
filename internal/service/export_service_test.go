package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/SrgyS/yns-app-sub001/internal/dto"
	"github.com/SrgyS/yns-app-sub001/internal/model"
)

// ── 测试辅助 ──

func setupTestExportService() (*mockStore, ExportService) {
	store := newMockStore()
	started := day(14).Add(9 * time.Hour)
	store.runs["run-1"] = model.PlanUpdateRun{
		RunID:        "run-1",
		CourseID:     testSubCourseID,
		WeekNumber:   3,
		TotalUsers:   3,
		UpdatedUsers: 1,
		FailedUsers:  2,
		Failures: []model.PlanUpdateFailure{
			{UserID: "user-1", EnrollmentID: "enr-1", Error: "写入超时"},
			{UserID: "user-2", EnrollmentID: "enr-2", Error: "写入超时"},
		},
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
	}
	store.runs["run-2"] = model.PlanUpdateRun{
		RunID:      "run-2",
		CourseID:   "course-other",
		WeekNumber: 1,
		StartedAt:  started.Add(-time.Hour),
		FinishedAt: started.Add(-time.Hour),
	}
	return store, NewExportService(newMockRepository(store), zap.NewNop())
}

func TestExportService_ListRuns(t *testing.T) {
	_, svc := setupTestExportService()

	runs, total, err := svc.ListRuns(context.Background(), &dto.PlanUpdateRunListRequest{})
	if err != nil {
		t.Fatalf("ListRuns 失败: %v", err)
	}
	if total != 2 || len(runs) != 2 || runs[0].ID != "run-1" {
		t.Errorf("期望按开始时间倒序返回 2 条，实际: %d %+v", total, runs)
	}

	runs, total, err = svc.ListRuns(context.Background(), &dto.PlanUpdateRunListRequest{CourseID: testSubCourseID})
	if err != nil {
		t.Fatalf("ListRuns 失败: %v", err)
	}
	if total != 1 || len(runs[0].Errors) != 2 {
		t.Errorf("按课程过滤结果不符: %d %+v", total, runs)
	}
	if runs[0].StartedAt != "2025-03-31T09:00:00Z" {
		t.Errorf("开始时间格式不符: %s", runs[0].StartedAt)
	}
}

func TestExportService_GetRun_NotFound(t *testing.T) {
	_, svc := setupTestExportService()

	if _, err := svc.GetRun(context.Background(), "missing"); !errors.Is(err, ErrPlanUpdateRunNotFound) {
		t.Errorf("期望 ErrPlanUpdateRunNotFound，实际: %v", err)
	}
	if _, _, err := svc.ExportRun(context.Background(), "missing"); !errors.Is(err, ErrPlanUpdateRunNotFound) {
		t.Errorf("期望 ErrPlanUpdateRunNotFound，实际: %v", err)
	}
}

func TestExportService_ExportRun(t *testing.T) {
	_, svc := setupTestExportService()

	buf, filename, err := svc.ExportRun(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("ExportRun 应成功: %v", err)
	}
	if filename != "plan_update_week3_20250331_090000.xlsx" {
		t.Errorf("文件名不符: %s", filename)
	}
	// Excel .xlsx 文件以 PK (0x504B) 开头
	if buf.Len() < 2 || buf.Bytes()[0] != 0x50 || buf.Bytes()[1] != 0x4B {
		t.Fatal("输出内容不是有效的 xlsx 文件格式（应以 PK 开头）")
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("无法读取导出的 Excel: %v", err)
	}
	defer f.Close()

	if v, _ := f.GetCellValue("概览", "B8"); v != "2" {
		t.Errorf("失败数应为 2，实际: %s", v)
	}
	rows, err := f.GetRows("失败明细")
	if err != nil {
		t.Fatalf("读取失败明细失败: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("期望表头 + 2 行，实际: %d", len(rows))
	}
	if rows[1][1] != "user-1" || rows[2][2] != "enr-2" {
		t.Errorf("失败明细内容不符: %v", rows)
	}
}
