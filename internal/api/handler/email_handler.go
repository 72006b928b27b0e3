package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/erciktiburak/school-attendance-api/internal/dto"
	"github.com/erciktiburak/school-attendance-api/internal/service"
	"github.com/erciktiburak/school-attendance-api/pkg/response"
)

// EmailHandler 邮件通知 HTTP 处理器
type EmailHandler struct {
	emailSvc service.EmailService
}

// NewEmailHandler 创建 EmailHandler
func NewEmailHandler(emailSvc service.EmailService) *EmailHandler {
	return &EmailHandler{emailSvc: emailSvc}
}

// SendAbsent 缺勤通知
// POST /api/v1/email/send-absent-notification
func (h *EmailHandler) SendAbsent(c *gin.Context) {
	var req dto.AbsentNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c, err)
		return
	}

	if err := h.emailSvc.SendAbsentNotification(c.Request.Context(), &req); err != nil {
		respondError(c, err)
		return
	}
	response.OKWithMessage(c, "Notification sent successfully", nil)
}

// SendLate 迟到通知
// POST /api/v1/email/send-late-notification
func (h *EmailHandler) SendLate(c *gin.Context) {
	var req dto.StudentNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c, err)
		return
	}

	if err := h.emailSvc.SendLateNotification(c.Request.Context(), &req); err != nil {
		respondError(c, err)
		return
	}
	response.OKWithMessage(c, "Notification sent successfully", nil)
}

// SendWeeklyReport 周报
// POST /api/v1/email/send-weekly-report
func (h *EmailHandler) SendWeeklyReport(c *gin.Context) {
	var req dto.StudentNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c, err)
		return
	}

	if err := h.emailSvc.SendWeeklyReport(c.Request.Context(), &req); err != nil {
		respondError(c, err)
		return
	}
	response.OKWithMessage(c, "Weekly report sent successfully", nil)
}

// SendBulkAbsent 批量缺勤通知
// POST /api/v1/email/send-bulk-absent
func (h *EmailHandler) SendBulkAbsent(c *gin.Context) {
	var req dto.BulkAbsentRequest
	// 请求体可省略，缺省为当天
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badParams(c, err)
			return
		}
	}

	result, err := h.emailSvc.SendBulkAbsent(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	msg := fmt.Sprintf("Sent %d notifications, %d failed", result.SuccessCount, result.FailCount)
	response.OKWithMessage(c, msg, result)
}
