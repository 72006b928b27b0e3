package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/erciktiburak/school-attendance-api/internal/dto"
	"github.com/erciktiburak/school-attendance-api/internal/service"
	"github.com/erciktiburak/school-attendance-api/pkg/response"
)

// AttendanceHandler 扫码签到模块 HTTP 处理器
type AttendanceHandler struct {
	attendanceSvc service.AttendanceService
}

// NewAttendanceHandler 创建 AttendanceHandler
func NewAttendanceHandler(attendanceSvc service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceSvc: attendanceSvc}
}

// CheckIn 扫码签到
// POST /api/v1/attendance/checkin
func (h *AttendanceHandler) CheckIn(c *gin.Context) {
	var req dto.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c, err)
		return
	}

	result, err := h.attendanceSvc.CheckIn(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OKWithMessage(c, "Check-in successful", result)
}

// CheckOut 扫码签退
// POST /api/v1/attendance/checkout
func (h *AttendanceHandler) CheckOut(c *gin.Context) {
	var req dto.CheckOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c, err)
		return
	}

	result, err := h.attendanceSvc.CheckOut(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OKWithMessage(c, "Check-out successful", result)
}

// StudentHistory 学生全部签到记录（按签到时间倒序）
// GET /api/v1/attendance/student/:studentId
func (h *AttendanceHandler) StudentHistory(c *gin.Context) {
	studentID, ok := pathID(c, "studentId", service.ErrStudentNotFound)
	if !ok {
		return
	}

	list, err := h.attendanceSvc.GetStudentAttendance(c.Request.Context(), studentID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, list)
}

// Today 当日签到
// GET /api/v1/attendance/today
func (h *AttendanceHandler) Today(c *gin.Context) {
	result, err := h.attendanceSvc.GetTodayAttendance(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}

// ByDate 指定日期签到
// GET /api/v1/attendance/date/:date
func (h *AttendanceHandler) ByDate(c *gin.Context) {
	result, err := h.attendanceSvc.GetAttendanceByDate(c.Request.Context(), c.Param("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}
