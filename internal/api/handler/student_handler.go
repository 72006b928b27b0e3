package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/erciktiburak/school-attendance-api/internal/dto"
	"github.com/erciktiburak/school-attendance-api/internal/service"
	"github.com/erciktiburak/school-attendance-api/pkg/response"
)

// StudentHandler 学生模块 HTTP 处理器
type StudentHandler struct {
	studentSvc service.StudentService
	qrSvc      service.QRCodeService
}

// NewStudentHandler 创建 StudentHandler
func NewStudentHandler(studentSvc service.StudentService, qrSvc service.QRCodeService) *StudentHandler {
	return &StudentHandler{studentSvc: studentSvc, qrSvc: qrSvc}
}

// List 学生列表
// GET /api/v1/students
func (h *StudentHandler) List(c *gin.Context) {
	list, err := h.studentSvc.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, list)
}

// Get 学生详情
// GET /api/v1/students/:id
func (h *StudentHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id", service.ErrStudentNotFound)
	if !ok {
		return
	}

	result, err := h.studentSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}

// GetByQRCode 按扫码内容查找学生
// GET /api/v1/students/qr/:code
func (h *StudentHandler) GetByQRCode(c *gin.Context) {
	result, err := h.studentSvc.GetByQRCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}

// Create 新增学生
// POST /api/v1/students
func (h *StudentHandler) Create(c *gin.Context) {
	var req dto.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c, err)
		return
	}

	result, err := h.studentSvc.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Location", "/api/v1/students/"+result.ID)
	response.Created(c, result)
}

// Update 更新学生
// PUT /api/v1/students/:id
func (h *StudentHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id", service.ErrStudentNotFound)
	if !ok {
		return
	}

	var req dto.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c, err)
		return
	}

	result, err := h.studentSvc.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}

// Delete 删除学生及其签到记录
// DELETE /api/v1/students/:id
func (h *StudentHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id", service.ErrStudentNotFound)
	if !ok {
		return
	}

	if err := h.studentSvc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	response.NoContent(c)
}

// Import 从 xlsx 批量导入学生
// POST /api/v1/students/import （multipart 字段 file）
func (h *StudentHandler) Import(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, codeInvalidParams, "File is required")
		return
	}

	f, err := fh.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	result, err := h.studentSvc.Import(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}

// QRCode 学生签到二维码图片
// GET /api/v1/students/:id/qrcode
func (h *StudentHandler) QRCode(c *gin.Context) {
	id, ok := pathID(c, "id", service.ErrStudentNotFound)
	if !ok {
		return
	}

	png, filename, err := h.qrSvc.PNG(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Attachment(c, "image/png", filename, png)
}

// QRCodeBase64 学生签到二维码（data URI）
// GET /api/v1/students/:id/qrcode/base64
func (h *StudentHandler) QRCodeBase64(c *gin.Context) {
	id, ok := pathID(c, "id", service.ErrStudentNotFound)
	if !ok {
		return
	}

	result, err := h.qrSvc.Base64(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}
