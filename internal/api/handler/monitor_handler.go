package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/erciktiburak/school-attendance-api/internal/dto"
	"github.com/erciktiburak/school-attendance-api/internal/service"
	"github.com/erciktiburak/school-attendance-api/pkg/response"
)

// MonitorHandler 教师看板 HTTP 处理器
type MonitorHandler struct {
	statsSvc      service.StatisticsService
	attendanceSvc service.AttendanceService
}

// NewMonitorHandler 创建 MonitorHandler
func NewMonitorHandler(statsSvc service.StatisticsService, attendanceSvc service.AttendanceService) *MonitorHandler {
	return &MonitorHandler{statsSvc: statsSvc, attendanceSvc: attendanceSvc}
}

// Dashboard 教师看板：今日迟到与缺勤名单
// GET /api/v1/teacher/dashboard
func (h *MonitorHandler) Dashboard(c *gin.Context) {
	result, err := h.statsSvc.TeacherDashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}

// AtRisk 出勤风险学生
// GET /api/v1/teacher/students/at-risk
func (h *MonitorHandler) AtRisk(c *gin.Context) {
	list, err := h.statsSvc.AtRiskStudents(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, list)
}

// DailySummary 每日汇总
// GET /api/v1/teacher/daily-summary?date=YYYY-MM-DD
func (h *MonitorHandler) DailySummary(c *gin.Context) {
	result, err := h.statsSvc.DailySummary(c.Request.Context(), c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}

// MarkAbsent 登记缺勤（可标记为请假）
// POST /api/v1/teacher/mark-absent
func (h *MonitorHandler) MarkAbsent(c *gin.Context) {
	var req dto.MarkAbsentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c, err)
		return
	}

	result, err := h.attendanceSvc.MarkAbsent(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OKWithMessage(c, "Student marked as absent", result)
}
