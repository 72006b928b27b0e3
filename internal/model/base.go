package model

import (
	"strings"
	"time"
)

// Timestamps 通用审计字段
type Timestamps struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// VersionedModel 支持乐观锁的模型
type VersionedModel struct {
	Timestamps
	Version int `gorm:"not null;default:1" json:"version"`
}

// ── 考勤状态 ──

// AttendanceStatus 考勤状态
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "Present"
	StatusLate    AttendanceStatus = "Late"
	StatusAbsent  AttendanceStatus = "Absent"
	StatusExcused AttendanceStatus = "Excused"
)

var allStatuses = []AttendanceStatus{StatusPresent, StatusLate, StatusAbsent, StatusExcused}

// ParseAttendanceStatus 不区分大小写解析考勤状态
func ParseAttendanceStatus(s string) (AttendanceStatus, bool) {
	for _, st := range allStatuses {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, true
		}
	}
	return "", false
}

// ── 角色 ──

// Role 账号角色
type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleTeacher Role = "Teacher"
	RoleStudent Role = "Student"
)

var allRoles = []Role{RoleAdmin, RoleTeacher, RoleStudent}

// ParseRole 不区分大小写解析角色
func ParseRole(s string) (Role, bool) {
	for _, r := range allRoles {
		if strings.EqualFold(string(r), strings.TrimSpace(s)) {
			return r, true
		}
	}
	return "", false
}

// DateOf 返回 t 在 UTC 下的日历日零点
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
