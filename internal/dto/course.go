package dto

import "time"

// ── 课程模块 DTO ──

// CreateCourseRequest 新增课程
type CreateCourseRequest struct {
	CourseCode string  `json:"course_code" binding:"required,max=20"`
	CourseName string  `json:"course_name" binding:"required,max=200"`
	Department string  `json:"department"  binding:"max=100"`
	Credits    int     `json:"credits"     binding:"min=0,max=30"`
	Schedule   string  `json:"schedule"    binding:"max=100"`
	Location   string  `json:"location"    binding:"max=100"`
	TeacherID  *string `json:"teacher_id"  binding:"omitempty,uuid"`
}

// UpdateCourseRequest 整体更新课程
type UpdateCourseRequest struct {
	CourseID   string  `json:"course_id"`
	CourseCode string  `json:"course_code" binding:"required,max=20"`
	CourseName string  `json:"course_name" binding:"required,max=200"`
	Department string  `json:"department"  binding:"max=100"`
	Credits    int     `json:"credits"     binding:"min=0,max=30"`
	Schedule   string  `json:"schedule"    binding:"max=100"`
	Location   string  `json:"location"    binding:"max=100"`
	TeacherID  *string `json:"teacher_id"  binding:"omitempty,uuid"`
	Version    *int    `json:"version"`
}

// CourseResponse 课程信息
type CourseResponse struct {
	ID         string        `json:"id"`
	CourseCode string        `json:"course_code"`
	CourseName string        `json:"course_name"`
	Department string        `json:"department"`
	Credits    int           `json:"credits"`
	Schedule   string        `json:"schedule"`
	Location   string        `json:"location"`
	TeacherID  *string       `json:"teacher_id"`
	Teacher    *TeacherBrief `json:"teacher,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
	Version    int           `json:"version"`
}

// EnrollRequest 选课
type EnrollRequest struct {
	StudentID string `json:"student_id" binding:"required,uuid"`
}

// MarkCourseAttendanceRequest 课堂点名
type MarkCourseAttendanceRequest struct {
	StudentID string `json:"student_id" binding:"required,uuid"`
	Status    string `json:"status"     binding:"required"`
	Notes     string `json:"notes"      binding:"max=500"`
}

// CourseAttendanceRecord 单条课堂点名
type CourseAttendanceRecord struct {
	ID            string    `json:"id"`
	StudentID     string    `json:"student_id"`
	StudentName   string    `json:"student_name"`
	StudentNumber string    `json:"student_number"`
	Status        string    `json:"status"`
	Notes         string    `json:"notes"`
	CheckInTime   time.Time `json:"check_in_time"`
}

// CourseAttendanceResponse 某日课堂点名汇总
type CourseAttendanceResponse struct {
	Date              string                   `json:"date"`
	TotalEnrolled     int                      `json:"total_enrolled"`
	AttendanceRecords []CourseAttendanceRecord `json:"attendance_records"`
	PresentCount      int                      `json:"present_count"`
	LateCount         int                      `json:"late_count"`
}
