package dto

import "time"

// ── 教师模块 DTO ──

// CreateTeacherRequest 新增教师
type CreateTeacherRequest struct {
	EmployeeNumber string `json:"employee_number" binding:"required,max=20"`
	FirstName      string `json:"first_name"      binding:"required,max=100"`
	LastName       string `json:"last_name"       binding:"required,max=100"`
	Email          string `json:"email"           binding:"required,email"`
	Department     string `json:"department"      binding:"max=100"`
}

// UpdateTeacherRequest 整体更新教师
type UpdateTeacherRequest struct {
	TeacherID      string `json:"teacher_id"`
	EmployeeNumber string `json:"employee_number" binding:"required,max=20"`
	FirstName      string `json:"first_name"      binding:"required,max=100"`
	LastName       string `json:"last_name"       binding:"required,max=100"`
	Email          string `json:"email"           binding:"required,email"`
	Department     string `json:"department"      binding:"max=100"`
	Version        *int   `json:"version"`
}

// TeacherResponse 教师信息
type TeacherResponse struct {
	ID             string    `json:"id"`
	EmployeeNumber string    `json:"employee_number"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	Department     string    `json:"department"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Version        int       `json:"version"`
}

// TeacherBrief 教师摘要
type TeacherBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
