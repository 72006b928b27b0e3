package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/erciktiburak/school-attendance-api/internal/dto"
	"github.com/erciktiburak/school-attendance-api/internal/service"
	"github.com/erciktiburak/school-attendance-api/pkg/response"
)

// CourseHandler 课程模块 HTTP 处理器
type CourseHandler struct {
	courseSvc service.CourseService
}

// NewCourseHandler 创建 CourseHandler
func NewCourseHandler(courseSvc service.CourseService) *CourseHandler {
	return &CourseHandler{courseSvc: courseSvc}
}

// List 课程列表
// GET /api/v1/courses
func (h *CourseHandler) List(c *gin.Context) {
	list, err := h.courseSvc.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, list)
}

// Get 课程详情
// GET /api/v1/courses/:id
func (h *CourseHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id", service.ErrCourseNotFound)
	if !ok {
		return
	}

	result, err := h.courseSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}

// Create 新增课程
// POST /api/v1/courses
func (h *CourseHandler) Create(c *gin.Context) {
	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c, err)
		return
	}

	result, err := h.courseSvc.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Location", "/api/v1/courses/"+result.ID)
	response.Created(c, result)
}

// Update 更新课程
// PUT /api/v1/courses/:id
func (h *CourseHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id", service.ErrCourseNotFound)
	if !ok {
		return
	}

	var req dto.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c, err)
		return
	}

	result, err := h.courseSvc.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}

// Delete 删除课程
// DELETE /api/v1/courses/:id
func (h *CourseHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id", service.ErrCourseNotFound)
	if !ok {
		return
	}

	if err := h.courseSvc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	response.NoContent(c)
}

// Enroll 学生选课
// POST /api/v1/courses/:id/enroll
func (h *CourseHandler) Enroll(c *gin.Context) {
	id, ok := pathID(c, "id", service.ErrCourseNotFound)
	if !ok {
		return
	}

	var req dto.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c, err)
		return
	}

	if err := h.courseSvc.Enroll(c.Request.Context(), id, &req); err != nil {
		respondError(c, err)
		return
	}
	response.OKWithMessage(c, "Student enrolled successfully", nil)
}

// Unenroll 学生退课
// DELETE /api/v1/courses/:id/enroll/:studentId
func (h *CourseHandler) Unenroll(c *gin.Context) {
	id, ok := pathID(c, "id", service.ErrCourseNotFound)
	if !ok {
		return
	}
	studentID, ok := pathID(c, "studentId", service.ErrStudentNotFound)
	if !ok {
		return
	}

	if err := h.courseSvc.Unenroll(c.Request.Context(), id, studentID); err != nil {
		respondError(c, err)
		return
	}
	response.NoContent(c)
}

// MarkAttendance 登记课程考勤
// POST /api/v1/courses/:id/attendance
func (h *CourseHandler) MarkAttendance(c *gin.Context) {
	id, ok := pathID(c, "id", service.ErrCourseNotFound)
	if !ok {
		return
	}

	var req dto.MarkCourseAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c, err)
		return
	}

	if err := h.courseSvc.MarkAttendance(c.Request.Context(), id, &req); err != nil {
		respondError(c, err)
		return
	}
	response.OKWithMessage(c, "Attendance marked successfully", nil)
}

// ListAttendance 课程某日考勤
// GET /api/v1/courses/:id/attendance?date=YYYY-MM-DD
func (h *CourseHandler) ListAttendance(c *gin.Context) {
	id, ok := pathID(c, "id", service.ErrCourseNotFound)
	if !ok {
		return
	}

	result, err := h.courseSvc.ListAttendance(c.Request.Context(), id, c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}

// Calendar 导出课程周课表（iCalendar）
// GET /api/v1/courses/:id/calendar.ics
func (h *CourseHandler) Calendar(c *gin.Context) {
	id, ok := pathID(c, "id", service.ErrCourseNotFound)
	if !ok {
		return
	}

	body, filename, err := h.courseSvc.Calendar(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Attachment(c, "text/calendar; charset=utf-8", filename, body)
}
