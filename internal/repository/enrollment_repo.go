package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/erciktiburak/school-attendance-api/internal/model"
)

// EnrollmentRepository 选课数据访问接口
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *model.CourseEnrollment) error
	Exists(ctx context.Context, courseID, studentID string) (bool, error)
	Delete(ctx context.Context, courseID, studentID string) error
	ListByCourse(ctx context.Context, courseID string) ([]model.CourseEnrollment, error)
}

type enrollmentRepo struct {
	db *gorm.DB
}

// NewEnrollmentRepo 创建 EnrollmentRepository 实例
func NewEnrollmentRepo(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepo{db: db}
}

func (r *enrollmentRepo) Create(ctx context.Context, enrollment *model.CourseEnrollment) error {
	return r.db.WithContext(ctx).Omit("Student").Create(enrollment).Error
}

func (r *enrollmentRepo) Exists(ctx context.Context, courseID, studentID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.CourseEnrollment{}).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		Count(&count).Error
	return count > 0, err
}

func (r *enrollmentRepo) Delete(ctx context.Context, courseID, studentID string) error {
	result := r.db.WithContext(ctx).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		Delete(&model.CourseEnrollment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *enrollmentRepo) ListByCourse(ctx context.Context, courseID string) ([]model.CourseEnrollment, error) {
	var enrollments []model.CourseEnrollment
	err := r.db.WithContext(ctx).
		Preload("Student").
		Where("course_id = ?", courseID).
		Order("enrolled_at ASC").
		Find(&enrollments).Error
	return enrollments, err
}
