package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/erciktiburak/school-attendance-api/internal/service"
	"github.com/erciktiburak/school-attendance-api/pkg/response"
)

// StatisticsHandler 统计模块 HTTP 处理器
type StatisticsHandler struct {
	statsSvc service.StatisticsService
}

// NewStatisticsHandler 创建 StatisticsHandler
func NewStatisticsHandler(statsSvc service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statsSvc: statsSvc}
}

// Dashboard 首页概览
// GET /api/v1/statistics/dashboard
func (h *StatisticsHandler) Dashboard(c *gin.Context) {
	result, err := h.statsSvc.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}

// Weekly 本周（周日起）按日统计
// GET /api/v1/statistics/weekly
func (h *StatisticsHandler) Weekly(c *gin.Context) {
	result, err := h.statsSvc.Weekly(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}

// Monthly 本月统计
// GET /api/v1/statistics/monthly
func (h *StatisticsHandler) Monthly(c *gin.Context) {
	result, err := h.statsSvc.Monthly(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}

// Student 单个学生统计
// GET /api/v1/statistics/student/:id
func (h *StatisticsHandler) Student(c *gin.Context) {
	id, ok := pathID(c, "id", service.ErrStudentNotFound)
	if !ok {
		return
	}

	result, err := h.statsSvc.Student(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}

// Department 院系统计
// GET /api/v1/statistics/department/:department
func (h *StatisticsHandler) Department(c *gin.Context) {
	result, err := h.statsSvc.Department(c.Request.Context(), c.Param("department"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}
