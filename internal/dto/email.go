package dto

// ── 邮件通知 DTO ──

// AbsentNotificationRequest 缺勤通知；Date 为 YYYY-MM-DD，缺省为当天
type AbsentNotificationRequest struct {
	StudentID string `json:"student_id" binding:"required,uuid"`
	Date      string `json:"date"`
}

// StudentNotificationRequest 迟到通知 / 周报
type StudentNotificationRequest struct {
	StudentID string `json:"student_id" binding:"required,uuid"`
}

// BulkAbsentRequest 批量缺勤通知；Date 缺省为当天
type BulkAbsentRequest struct {
	Date string `json:"date"`
}

// BulkAbsentResult 批量发送结果
type BulkAbsentResult struct {
	TotalAbsent  int `json:"total_absent"`
	SuccessCount int `json:"success_count"`
	FailCount    int `json:"fail_count"`
}
