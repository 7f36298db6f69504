package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/SrgyS/yns-app-sub001/internal/dto"
	"github.com/SrgyS/yns-app-sub001/internal/service"
	"github.com/SrgyS/yns-app-sub001/pkg/response"
)

// ExportHandler 批量更新记录查询与导出
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ListRuns GET /api/v1/admin/plan-update-runs?course_id=&page=&page_size=
func (h *ExportHandler) ListRuns(c *gin.Context) {
	var req dto.PlanUpdateRunListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 24001, "参数校验失败")
		return
	}

	list, total, err := h.exportSvc.ListRuns(c.Request.Context(), &req)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetRun GET /api/v1/admin/plan-update-runs/:id
func (h *ExportHandler) GetRun(c *gin.Context) {
	run, err := h.exportSvc.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleExportError(c, err)
		return
	}
	response.OK(c, run)
}

// ExportRun 导出批量更新报告
// GET /api/v1/admin/plan-update-runs/:id/export
func (h *ExportHandler) ExportRun(c *gin.Context) {
	buf, filename, err := h.exportSvc.ExportRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPlanUpdateRunNotFound):
		response.NotFound(c, 24002, "批量更新记录不存在")
	default:
		response.InternalError(c)
	}
}
