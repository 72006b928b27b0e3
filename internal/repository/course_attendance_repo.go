package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/erciktiburak/school-attendance-api/internal/model"
)

// CourseAttendanceRepository 课堂点名数据访问接口
type CourseAttendanceRepository interface {
	Create(ctx context.Context, record *model.CourseAttendance) error
	Exists(ctx context.Context, courseID, studentID string, date time.Time) (bool, error)
	ListByCourseAndDate(ctx context.Context, courseID string, date time.Time) ([]model.CourseAttendance, error)
}

type courseAttendanceRepo struct {
	db *gorm.DB
}

// NewCourseAttendanceRepo 创建 CourseAttendanceRepository 实例
func NewCourseAttendanceRepo(db *gorm.DB) CourseAttendanceRepository {
	return &courseAttendanceRepo{db: db}
}

func (r *courseAttendanceRepo) Create(ctx context.Context, record *model.CourseAttendance) error {
	return r.db.WithContext(ctx).Omit("Student").Create(record).Error
}

func (r *courseAttendanceRepo) Exists(ctx context.Context, courseID, studentID string, date time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.CourseAttendance{}).
		Where("course_id = ? AND student_id = ? AND date = ?", courseID, studentID, dateParam(date)).
		Count(&count).Error
	return count > 0, err
}

func (r *courseAttendanceRepo) ListByCourseAndDate(ctx context.Context, courseID string, date time.Time) ([]model.CourseAttendance, error) {
	var records []model.CourseAttendance
	err := r.db.WithContext(ctx).
		Preload("Student").
		Where("course_id = ? AND date = ?", courseID, dateParam(date)).
		Order("check_in_time ASC").
		Find(&records).Error
	return records, err
}
