package dto

import "time"

// ── 签到模块 DTO ──

// CheckInRequest 扫码签到
type CheckInRequest struct {
	QRCode   string `json:"qr_code"  binding:"required"`
	Location string `json:"location" binding:"max=200"`
}

// CheckOutRequest 扫码签退
type CheckOutRequest struct {
	QRCode string `json:"qr_code" binding:"required"`
}

// MarkAbsentRequest 教师登记缺勤
type MarkAbsentRequest struct {
	StudentID string `json:"student_id" binding:"required,uuid"`
	IsExcused bool   `json:"is_excused"`
}

// AttendanceResponse 签到记录
type AttendanceResponse struct {
	ID            string     `json:"id"`
	StudentID     string     `json:"student_id"`
	StudentName   string     `json:"student_name,omitempty"`
	StudentNumber string     `json:"student_number,omitempty"`
	Department    string     `json:"department,omitempty"`
	CheckInTime   time.Time  `json:"check_in_time"`
	CheckOutTime  *time.Time `json:"check_out_time"`
	Location      string     `json:"location"`
	Status        string     `json:"status"`
}

// CheckInResponse 签到结果
type CheckInResponse struct {
	Attendance  AttendanceResponse `json:"attendance"`
	StudentName string             `json:"student_name"`
}

// CheckOutResponse 签退结果
type CheckOutResponse struct {
	CheckInTime     time.Time `json:"check_in_time"`
	CheckOutTime    time.Time `json:"check_out_time"`
	DurationMinutes float64   `json:"duration_minutes"`
	StudentName     string    `json:"student_name"`
}

// TodayAttendanceResponse 当日签到汇总
type TodayAttendanceResponse struct {
	Date         string               `json:"date"`
	TotalRecords int                  `json:"total_records"`
	CheckedIn    int                  `json:"checked_in"`
	CheckedOut   int                  `json:"checked_out"`
	Records      []AttendanceResponse `json:"records"`
}

// DateAttendanceResponse 指定日期签到列表
type DateAttendanceResponse struct {
	Date         string               `json:"date"`
	TotalRecords int                  `json:"total_records"`
	Records      []AttendanceResponse `json:"records"`
}
