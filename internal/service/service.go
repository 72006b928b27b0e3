package service

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/erciktiburak/school-attendance-api/config"
	"github.com/erciktiburak/school-attendance-api/internal/mailer"
	"github.com/erciktiburak/school-attendance-api/internal/repository"
	"github.com/erciktiburak/school-attendance-api/pkg/jwt"
)

// Broadcaster 实时事件推送
type Broadcaster interface {
	Broadcast(event string, data interface{})
}

// Locker 按 key 串行化的分布式锁
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// TokenBlacklist JWT 注销黑名单
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
}

// Deps 基础设施依赖；Locker、Blacklist 在 Redis 不可用时为 nil
type Deps struct {
	JWT         *jwt.Manager
	Broadcaster Broadcaster
	Locker      Locker
	Blacklist   TokenBlacklist
	Mailer      mailer.Mailer
}

// Service 所有 Service 的聚合入口
type Service struct {
	Auth       AuthService
	Student    StudentService
	Teacher    TeacherService
	Course     CourseService
	Attendance AttendanceService
	Statistics StatisticsService
	Export     ExportService
	QRCode     QRCodeService
	Email      EmailService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	deps Deps,
	logger *zap.Logger,
) (*Service, error) {
	classStart, err := cfg.Attendance.ClassStartOffset()
	if err != nil {
		return nil, err
	}

	attendanceRules := AttendanceRules{
		ClassStart: classStart,
		LockTTL:    time.Duration(cfg.Attendance.CheckInLockTTL) * time.Second,
	}
	atRiskRules := AtRiskRules{
		WindowDays:    cfg.Attendance.AtRiskWindowDays,
		MinAttendance: cfg.Attendance.AtRiskMinAttendance,
		MaxLate:       cfg.Attendance.AtRiskMaxLate,
	}

	return &Service{
		Auth:       NewAuthService(repo, deps.JWT, deps.Blacklist, logger),
		Student:    NewStudentService(repo, deps.Broadcaster, logger),
		Teacher:    NewTeacherService(repo, logger),
		Course:     NewCourseService(repo, logger),
		Attendance: NewAttendanceService(repo, deps.Broadcaster, deps.Locker, attendanceRules, logger),
		Statistics: NewStatisticsService(repo, atRiskRules, logger),
		Export:     NewExportService(repo, logger),
		QRCode:     NewQRCodeService(repo, logger),
		Email:      NewEmailService(repo, deps.Mailer, logger),
	}, nil
}

// ── 公共工具 ──

// clock 可替换的时间源，统一返回 UTC
type clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

// round2 四舍五入保留两位小数
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// percent 计算百分比，分母为 0 时返回 0
func percent(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return round2(float64(num) / float64(den) * 100)
}

// parseDate 解析 YYYY-MM-DD，空串返回 fallback
func parseDate(s string, fallback time.Time) (time.Time, error) {
	if s == "" {
		return fallback, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}
