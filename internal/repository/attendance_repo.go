package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/erciktiburak/school-attendance-api/internal/model"
)

// AttendanceRepository 签到流水数据访问接口
// 所有"日期"参数均按 UTC 日历日解释
type AttendanceRepository interface {
	Create(ctx context.Context, record *model.AttendanceRecord) error
	// GetOpenSession 查询学生某日未签退的记录
	GetOpenSession(ctx context.Context, studentID string, date time.Time) (*model.AttendanceRecord, error)
	// CloseSession 写入签退时间；记录已签退时返回 gorm.ErrRecordNotFound
	CloseSession(ctx context.Context, attendanceID string, checkOut time.Time) error
	ExistsOnDate(ctx context.Context, studentID string, date time.Time) (bool, error)
	GetLatestByStatus(ctx context.Context, studentID string, status model.AttendanceStatus) (*model.AttendanceRecord, error)

	ListByStudent(ctx context.Context, studentID string) ([]model.AttendanceRecord, error)
	ListByStudentSince(ctx context.Context, studentID string, since time.Time) ([]model.AttendanceRecord, error)
	ListByDate(ctx context.Context, date time.Time) ([]model.AttendanceRecord, error)
	ListByDateRange(ctx context.Context, from, to time.Time) ([]model.AttendanceRecord, error)
	ListSince(ctx context.Context, since time.Time) ([]model.AttendanceRecord, error)

	// CountByDepartment 统计某院系学生的签到记录数，date 为空时统计全部
	CountByDepartment(ctx context.Context, department string, date *time.Time) (int64, error)
}

type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo 创建 AttendanceRepository 实例
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

func (r *attendanceRepo) Create(ctx context.Context, record *model.AttendanceRecord) error {
	record.CheckInDate = model.DateOf(record.CheckInTime)
	return r.db.WithContext(ctx).Omit("Student").Create(record).Error
}

func (r *attendanceRepo) GetOpenSession(ctx context.Context, studentID string, date time.Time) (*model.AttendanceRecord, error) {
	var record model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND check_in_date = ? AND check_out_time IS NULL", studentID, dateParam(date)).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *attendanceRepo) CloseSession(ctx context.Context, attendanceID string, checkOut time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.AttendanceRecord{}).
		Where("attendance_id = ? AND check_out_time IS NULL", attendanceID).
		Update("check_out_time", checkOut)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *attendanceRepo) ExistsOnDate(ctx context.Context, studentID string, date time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.AttendanceRecord{}).
		Where("student_id = ? AND check_in_date = ?", studentID, dateParam(date)).
		Count(&count).Error
	return count > 0, err
}

func (r *attendanceRepo) GetLatestByStatus(ctx context.Context, studentID string, status model.AttendanceStatus) (*model.AttendanceRecord, error) {
	var record model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND status = ?", studentID, status).
		Order("check_in_time DESC").
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ── 列表查询（均按签到时间倒序） ──

func (r *attendanceRepo) ListByStudent(ctx context.Context, studentID string) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Preload("Student").
		Where("student_id = ?", studentID).
		Order("check_in_time DESC").
		Find(&records).Error
	return records, err
}

func (r *attendanceRepo) ListByStudentSince(ctx context.Context, studentID string, since time.Time) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND check_in_time >= ?", studentID, since).
		Order("check_in_time DESC").
		Find(&records).Error
	return records, err
}

func (r *attendanceRepo) ListByDate(ctx context.Context, date time.Time) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Preload("Student").
		Where("check_in_date = ?", dateParam(date)).
		Order("check_in_time DESC").
		Find(&records).Error
	return records, err
}

// ListByDateRange from、to 均为闭区间
func (r *attendanceRepo) ListByDateRange(ctx context.Context, from, to time.Time) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("check_in_date BETWEEN ? AND ?", dateParam(from), dateParam(to)).
		Order("check_in_time DESC").
		Find(&records).Error
	return records, err
}

func (r *attendanceRepo) ListSince(ctx context.Context, since time.Time) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("check_in_time >= ?", since).
		Order("check_in_time DESC").
		Find(&records).Error
	return records, err
}

func (r *attendanceRepo) CountByDepartment(ctx context.Context, department string, date *time.Time) (int64, error) {
	var count int64
	q := r.db.WithContext(ctx).
		Model(&model.AttendanceRecord{}).
		Joins("JOIN students ON students.student_id = attendance_records.student_id").
		Where("students.department = ?", department)
	if date != nil {
		q = q.Where("attendance_records.check_in_date = ?", dateParam(*date))
	}
	err := q.Count(&count).Error
	return count, err
}
