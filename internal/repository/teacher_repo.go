package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/erciktiburak/school-attendance-api/internal/model"
	pkgerrors "github.com/erciktiburak/school-attendance-api/pkg/errors"
)

// TeacherRepository 教师数据访问接口
type TeacherRepository interface {
	Create(ctx context.Context, teacher *model.Teacher) error
	GetByID(ctx context.Context, id string) (*model.Teacher, error)
	List(ctx context.Context) ([]model.Teacher, error)
	Update(ctx context.Context, teacher *model.Teacher) error
	Delete(ctx context.Context, id string) error
}

type teacherRepo struct {
	db *gorm.DB
}

// NewTeacherRepo 创建 TeacherRepository 实例
func NewTeacherRepo(db *gorm.DB) TeacherRepository {
	return &teacherRepo{db: db}
}

func (r *teacherRepo) Create(ctx context.Context, teacher *model.Teacher) error {
	return r.db.WithContext(ctx).Create(teacher).Error
}

func (r *teacherRepo) GetByID(ctx context.Context, id string) (*model.Teacher, error) {
	var teacher model.Teacher
	err := r.db.WithContext(ctx).
		Where("teacher_id = ?", id).
		First(&teacher).Error
	if err != nil {
		return nil, err
	}
	return &teacher, nil
}

func (r *teacherRepo) List(ctx context.Context) ([]model.Teacher, error) {
	var teachers []model.Teacher
	err := r.db.WithContext(ctx).
		Order("employee_number ASC").
		Find(&teachers).Error
	return teachers, err
}

func (r *teacherRepo) Update(ctx context.Context, teacher *model.Teacher) error {
	oldVersion := teacher.Version
	result := r.db.WithContext(ctx).
		Model(&model.Teacher{}).
		Where("teacher_id = ? AND version = ?", teacher.TeacherID, oldVersion).
		Updates(map[string]interface{}{
			"employee_number": teacher.EmployeeNumber,
			"first_name":      teacher.FirstName,
			"last_name":       teacher.LastName,
			"email":           teacher.Email,
			"department":      teacher.Department,
			"updated_at":      gorm.Expr("NOW()"),
			"version":         oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	teacher.Version = oldVersion + 1
	return nil
}

// Delete 课程的 teacher_id 由外键置空
func (r *teacherRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("teacher_id = ?", id).
		Delete(&model.Teacher{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
