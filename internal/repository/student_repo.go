package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/erciktiburak/school-attendance-api/internal/model"
	pkgerrors "github.com/erciktiburak/school-attendance-api/pkg/errors"
)

// StudentRepository 学生名册数据访问接口
type StudentRepository interface {
	Create(ctx context.Context, student *model.Student) error
	GetByID(ctx context.Context, id string) (*model.Student, error)
	GetByQRCode(ctx context.Context, code string) (*model.Student, error)
	List(ctx context.Context) ([]model.Student, error)
	ListByDepartment(ctx context.Context, department string) ([]model.Student, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, student *model.Student) error
	Delete(ctx context.Context, id string) error
}

type studentRepo struct {
	db *gorm.DB
}

// NewStudentRepo 创建 StudentRepository 实例
func NewStudentRepo(db *gorm.DB) StudentRepository {
	return &studentRepo{db: db}
}

func (r *studentRepo) Create(ctx context.Context, student *model.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *studentRepo) GetByID(ctx context.Context, id string) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).
		Where("student_id = ?", id).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

// GetByQRCode 扫码串精确匹配
func (r *studentRepo) GetByQRCode(ctx context.Context, code string) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).
		Where("qr_code = ?", code).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepo) List(ctx context.Context) ([]model.Student, error) {
	var students []model.Student
	err := r.db.WithContext(ctx).
		Order("student_number ASC").
		Find(&students).Error
	return students, err
}

func (r *studentRepo) ListByDepartment(ctx context.Context, department string) ([]model.Student, error) {
	var students []model.Student
	err := r.db.WithContext(ctx).
		Where("department = ?", department).
		Order("student_number ASC").
		Find(&students).Error
	return students, err
}

func (r *studentRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Student{}).Count(&count).Error
	return count, err
}

// Update 带乐观锁的更新，版本不符时返回 ErrOptimisticLock
func (r *studentRepo) Update(ctx context.Context, student *model.Student) error {
	oldVersion := student.Version
	result := r.db.WithContext(ctx).
		Model(&model.Student{}).
		Where("student_id = ? AND version = ?", student.StudentID, oldVersion).
		Updates(map[string]interface{}{
			"student_number": student.StudentNumber,
			"first_name":     student.FirstName,
			"last_name":      student.LastName,
			"email":          student.Email,
			"department":     student.Department,
			"updated_at":     gorm.Expr("NOW()"),
			"version":        oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	student.Version = oldVersion + 1
	return nil
}

// Delete 物理删除，签到流水与选课由外键级联删除
func (r *studentRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("student_id = ?", id).
		Delete(&model.Student{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
