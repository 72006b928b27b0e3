package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/erciktiburak/school-attendance-api/internal/service"
	"github.com/erciktiburak/school-attendance-api/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportAttendance 导出某日签到记录
// GET /api/v1/export/attendance?date=YYYY-MM-DD
func (h *ExportHandler) ExportAttendance(c *gin.Context) {
	buf, filename, err := h.exportSvc.ExportAttendance(c.Request.Context(), c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Attachment(c, xlsxContentType, filename, buf.Bytes())
}

// ExportStudents 导出学生名册
// GET /api/v1/export/students
func (h *ExportHandler) ExportStudents(c *gin.Context) {
	buf, filename, err := h.exportSvc.ExportStudents(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	response.Attachment(c, xlsxContentType, filename, buf.Bytes())
}
