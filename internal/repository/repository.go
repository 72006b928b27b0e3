package repository

import (
	"time"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	User             UserRepository
	Student          StudentRepository
	Teacher          TeacherRepository
	Course           CourseRepository
	Enrollment       EnrollmentRepository
	CourseAttendance CourseAttendanceRepository
	Attendance       AttendanceRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:             NewUserRepo(db),
		Student:          NewStudentRepo(db),
		Teacher:          NewTeacherRepo(db),
		Course:           NewCourseRepo(db),
		Enrollment:       NewEnrollmentRepo(db),
		CourseAttendance: NewCourseAttendanceRepo(db),
		Attendance:       NewAttendanceRepo(db),
	}
}

// dateParam 以 YYYY-MM-DD 文本传参，与 DATE 列比较时不受会话时区影响
func dateParam(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}
