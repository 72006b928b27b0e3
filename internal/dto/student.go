package dto

import "time"

// ── 学生模块 DTO ──

// CreateStudentRequest 新增学生
type CreateStudentRequest struct {
	StudentNumber string `json:"student_number" binding:"required,max=20"`
	FirstName     string `json:"first_name"     binding:"required,max=100"`
	LastName      string `json:"last_name"      binding:"required,max=100"`
	Email         string `json:"email"          binding:"required,email"`
	Department    string `json:"department"     binding:"max=100"`
}

// UpdateStudentRequest 整体更新学生
// StudentID 可选，填写时必须与路径参数一致；Version 可选，填写时参与乐观锁校验
type UpdateStudentRequest struct {
	StudentID     string `json:"student_id"`
	StudentNumber string `json:"student_number" binding:"required,max=20"`
	FirstName     string `json:"first_name"     binding:"required,max=100"`
	LastName      string `json:"last_name"      binding:"required,max=100"`
	Email         string `json:"email"          binding:"required,email"`
	Department    string `json:"department"     binding:"max=100"`
	Version       *int   `json:"version"`
}

// StudentResponse 学生信息
type StudentResponse struct {
	ID            string    `json:"id"`
	StudentNumber string    `json:"student_number"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Email         string    `json:"email"`
	Department    string    `json:"department"`
	QRCode        string    `json:"qr_code"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Version       int       `json:"version"`
}

// StudentBrief 学生摘要
type StudentBrief struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	StudentNumber string `json:"student_number"`
	Department    string `json:"department"`
}

// QRCodeBase64Response 二维码 data URI
type QRCodeBase64Response struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	QRCode      string `json:"qr_code"`
}

// ImportRowError 导入失败的行
type ImportRowError struct {
	Row           int    `json:"row"`
	StudentNumber string `json:"student_number"`
	Message       string `json:"message"`
}

// ImportResult 批量导入结果
type ImportResult struct {
	Total    int              `json:"total"`
	Imported int              `json:"imported"`
	Failed   int              `json:"failed"`
	Errors   []ImportRowError `json:"errors"`
}
