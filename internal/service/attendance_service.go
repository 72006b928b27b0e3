package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/erciktiburak/school-attendance-api/internal/dto"
	"github.com/erciktiburak/school-attendance-api/internal/model"
	"github.com/erciktiburak/school-attendance-api/internal/realtime"
	"github.com/erciktiburak/school-attendance-api/internal/repository"
	pkgerrors "github.com/erciktiburak/school-attendance-api/pkg/errors"
	"github.com/erciktiburak/school-attendance-api/pkg/metrics"
	pkgredis "github.com/erciktiburak/school-attendance-api/pkg/redis"
)

// ── 签到模块业务错误 ──

var (
	ErrInvalidQRCode        = pkgerrors.New(pkgerrors.KindNotFound, 15001, "Invalid QR code")
	ErrAlreadyCheckedIn     = pkgerrors.New(pkgerrors.KindConflict, 15002, "Student already checked in")
	ErrNoActiveCheckIn      = pkgerrors.New(pkgerrors.KindConflict, 15003, "No active check-in found")
	ErrAlreadyRecordedToday = pkgerrors.New(pkgerrors.KindConflict, 15004, "Student already has attendance record for today")
	ErrInvalidDate          = pkgerrors.New(pkgerrors.KindValidation, 15005, "Invalid date, expected YYYY-MM-DD")
	ErrCheckInInProgress    = pkgerrors.New(pkgerrors.KindConflict, 15006, "Another scan for this student is being processed")
)

// markedByTeacher 教师登记缺勤时的地点
const markedByTeacher = "Marked by teacher"

// AttendanceRules 签到规则
type AttendanceRules struct {
	ClassStart time.Duration // 距 UTC 零点的上课时刻
	LockTTL    time.Duration
}

// AttendanceService 签到业务接口
type AttendanceService interface {
	CheckIn(ctx context.Context, req *dto.CheckInRequest) (*dto.CheckInResponse, error)
	CheckOut(ctx context.Context, req *dto.CheckOutRequest) (*dto.CheckOutResponse, error)
	MarkAbsent(ctx context.Context, req *dto.MarkAbsentRequest) (*dto.AttendanceResponse, error)

	GetStudentAttendance(ctx context.Context, studentID string) ([]dto.AttendanceResponse, error)
	GetTodayAttendance(ctx context.Context) (*dto.TodayAttendanceResponse, error)
	GetAttendanceByDate(ctx context.Context, date string) (*dto.DateAttendanceResponse, error)
}

type attendanceService struct {
	repo        *repository.Repository
	broadcaster Broadcaster
	locker      Locker
	rules       AttendanceRules
	now         clock
	logger      *zap.Logger
}

// NewAttendanceService 创建 AttendanceService 实例；broadcaster、locker 可为 nil
func NewAttendanceService(
	repo *repository.Repository,
	broadcaster Broadcaster,
	locker Locker,
	rules AttendanceRules,
	logger *zap.Logger,
) AttendanceService {
	if rules.LockTTL <= 0 {
		rules.LockTTL = 5 * time.Second
	}
	return &attendanceService{
		repo:        repo,
		broadcaster: broadcaster,
		locker:      locker,
		rules:       rules,
		now:         systemClock,
		logger:      logger,
	}
}

// DetermineStatus 按当日时刻判定考勤状态：不晚于上课时刻为 Present，否则 Late
func DetermineStatus(t time.Time, classStart time.Duration) model.AttendanceStatus {
	t = t.UTC()
	sinceMidnight := t.Sub(model.DateOf(t))
	if sinceMidnight <= classStart {
		return model.StatusPresent
	}
	return model.StatusLate
}

// ────────────────────── CheckIn ──────────────────────

func (s *attendanceService) CheckIn(ctx context.Context, req *dto.CheckInRequest) (*dto.CheckInResponse, error) {
	student, err := s.studentByCode(ctx, req.QRCode)
	if err != nil {
		return nil, err
	}

	unlock, err := s.lock(ctx, student.StudentID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.now()
	if _, err := s.repo.Attendance.GetOpenSession(ctx, student.StudentID, now); err == nil {
		return nil, ErrAlreadyCheckedIn
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询未签退记录失败", zap.String("student_id", student.StudentID), zap.Error(err))
		return nil, err
	}

	record := &model.AttendanceRecord{
		StudentID:   student.StudentID,
		CheckInTime: now,
		Location:    req.Location,
		Status:      DetermineStatus(now, s.rules.ClassStart),
	}
	if err := s.repo.Attendance.Create(ctx, record); err != nil {
		// 部分唯一索引兜底并发签到
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyCheckedIn
		}
		s.logger.Error("创建签到记录失败", zap.String("student_id", student.StudentID), zap.Error(err))
		return nil, err
	}
	record.Student = student

	metrics.CheckIns.WithLabelValues(string(record.Status)).Inc()
	s.broadcast(realtime.EventStudentCheckedIn, map[string]interface{}{
		"studentName":   student.FullName(),
		"studentNumber": student.StudentNumber,
		"checkInTime":   record.CheckInTime,
		"location":      record.Location,
		"status":        string(record.Status),
	})

	return &dto.CheckInResponse{
		Attendance:  toAttendanceResponse(record),
		StudentName: student.FullName(),
	}, nil
}

// ────────────────────── CheckOut ──────────────────────

func (s *attendanceService) CheckOut(ctx context.Context, req *dto.CheckOutRequest) (*dto.CheckOutResponse, error) {
	student, err := s.studentByCode(ctx, req.QRCode)
	if err != nil {
		return nil, err
	}

	now := s.now()
	record, err := s.repo.Attendance.GetOpenSession(ctx, student.StudentID, now)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveCheckIn
		}
		s.logger.Error("查询未签退记录失败", zap.String("student_id", student.StudentID), zap.Error(err))
		return nil, err
	}

	if err := s.repo.Attendance.CloseSession(ctx, record.AttendanceID, now); err != nil {
		// 并发签退：另一请求已先写入签退时间
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveCheckIn
		}
		s.logger.Error("写入签退时间失败", zap.String("attendance_id", record.AttendanceID), zap.Error(err))
		return nil, err
	}
	record.CheckOutTime = &now

	minutes, _ := record.DurationMinutes()
	duration := round2(minutes)

	metrics.CheckOuts.Inc()
	metrics.SessionMinutes.Observe(duration)
	s.broadcast(realtime.EventStudentCheckedOut, map[string]interface{}{
		"studentName":     student.FullName(),
		"studentNumber":   student.StudentNumber,
		"checkOutTime":    now,
		"durationMinutes": duration,
	})

	return &dto.CheckOutResponse{
		CheckInTime:     record.CheckInTime,
		CheckOutTime:    now,
		DurationMinutes: duration,
		StudentName:     student.FullName(),
	}, nil
}

// ────────────────────── MarkAbsent ──────────────────────

func (s *attendanceService) MarkAbsent(ctx context.Context, req *dto.MarkAbsentRequest) (*dto.AttendanceResponse, error) {
	student, err := s.repo.Student.GetByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.String("id", req.StudentID), zap.Error(err))
		return nil, err
	}

	unlock, err := s.lock(ctx, student.StudentID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.now()
	exists, err := s.repo.Attendance.ExistsOnDate(ctx, student.StudentID, now)
	if err != nil {
		s.logger.Error("查询当日记录失败", zap.String("student_id", student.StudentID), zap.Error(err))
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyRecordedToday
	}

	status := model.StatusAbsent
	if req.IsExcused {
		status = model.StatusExcused
	}
	record := &model.AttendanceRecord{
		StudentID:   student.StudentID,
		CheckInTime: now,
		Location:    markedByTeacher,
		Status:      status,
	}
	if err := s.repo.Attendance.Create(ctx, record); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyRecordedToday
		}
		s.logger.Error("登记缺勤失败", zap.String("student_id", student.StudentID), zap.Error(err))
		return nil, err
	}
	record.Student = student

	resp := toAttendanceResponse(record)
	return &resp, nil
}

// ────────────────────── 查询 ──────────────────────

func (s *attendanceService) GetStudentAttendance(ctx context.Context, studentID string) ([]dto.AttendanceResponse, error) {
	records, err := s.repo.Attendance.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询学生签到记录失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	return toAttendanceResponses(records), nil
}

func (s *attendanceService) GetTodayAttendance(ctx context.Context) (*dto.TodayAttendanceResponse, error) {
	today := model.DateOf(s.now())
	records, err := s.repo.Attendance.ListByDate(ctx, today)
	if err != nil {
		s.logger.Error("查询当日签到失败", zap.Error(err))
		return nil, err
	}

	resp := &dto.TodayAttendanceResponse{
		Date:         today.Format(time.DateOnly),
		TotalRecords: len(records),
		Records:      toAttendanceResponses(records),
	}
	for i := range records {
		if records[i].CheckOutTime == nil {
			resp.CheckedIn++
		} else {
			resp.CheckedOut++
		}
	}
	return resp, nil
}

func (s *attendanceService) GetAttendanceByDate(ctx context.Context, date string) (*dto.DateAttendanceResponse, error) {
	day, err := parseDate(date, model.DateOf(s.now()))
	if err != nil {
		return nil, err
	}
	records, err := s.repo.Attendance.ListByDate(ctx, day)
	if err != nil {
		s.logger.Error("按日期查询签到失败", zap.String("date", date), zap.Error(err))
		return nil, err
	}
	return &dto.DateAttendanceResponse{
		Date:         day.Format(time.DateOnly),
		TotalRecords: len(records),
		Records:      toAttendanceResponses(records),
	}, nil
}

// ── 内部工具 ──

func (s *attendanceService) studentByCode(ctx context.Context, code string) (*model.Student, error) {
	student, err := s.repo.Student.GetByQRCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidQRCode
		}
		s.logger.Error("按扫码串查询学生失败", zap.Error(err))
		return nil, err
	}
	return student, nil
}

// lock 按学生串行化写操作；未配置锁或 Redis 故障时退化为仅靠唯一索引
func (s *attendanceService) lock(ctx context.Context, studentID string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	unlock, err := s.locker.Lock(ctx, "attendance:"+studentID, s.rules.LockTTL)
	if err != nil {
		if errors.Is(err, pkgredis.ErrLockHeld) {
			return nil, ErrCheckInInProgress
		}
		s.logger.Warn("获取签到锁失败，继续执行", zap.String("student_id", studentID), zap.Error(err))
		return func() {}, nil
	}
	return unlock, nil
}

// broadcast 推送失败不影响已提交的写操作
func (s *attendanceService) broadcast(event string, data interface{}) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.Broadcast(event, data)
}
