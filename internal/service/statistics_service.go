package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/erciktiburak/school-attendance-api/internal/dto"
	"github.com/erciktiburak/school-attendance-api/internal/model"
	"github.com/erciktiburak/school-attendance-api/internal/repository"
	pkgerrors "github.com/erciktiburak/school-attendance-api/pkg/errors"
)

// ── 统计模块业务错误 ──

var (
	ErrDepartmentEmpty = pkgerrors.New(pkgerrors.KindNotFound, 16001, "No students found in this department")
)

// recentCheckInLimit 每日汇总中最近签到条数
const recentCheckInLimit = 10

// AtRiskRules 出勤预警阈值
type AtRiskRules struct {
	WindowDays    int
	MinAttendance int // 窗口内出勤次数低于该值
	MaxLate       int // 窗口内迟到次数高于该值
}

// StatisticsService 统计业务接口（只读）
type StatisticsService interface {
	Dashboard(ctx context.Context) (*dto.DashboardStats, error)
	Weekly(ctx context.Context) (*dto.WeeklyStats, error)
	Monthly(ctx context.Context) (*dto.MonthlyStats, error)
	Student(ctx context.Context, studentID string) (*dto.StudentStats, error)
	Department(ctx context.Context, department string) (*dto.DepartmentStats, error)

	TeacherDashboard(ctx context.Context) (*dto.TeacherDashboard, error)
	AtRiskStudents(ctx context.Context) ([]dto.AtRiskStudent, error)
	DailySummary(ctx context.Context, date string) (*dto.DailySummary, error)
}

type statisticsService struct {
	repo   *repository.Repository
	rules  AtRiskRules
	now    clock
	logger *zap.Logger
}

// NewStatisticsService 创建 StatisticsService 实例
func NewStatisticsService(repo *repository.Repository, rules AtRiskRules, logger *zap.Logger) StatisticsService {
	if rules.WindowDays <= 0 {
		rules.WindowDays = 30
	}
	return &statisticsService{repo: repo, rules: rules, now: systemClock, logger: logger}
}

// ────────────────────── 看板 ──────────────────────

func (s *statisticsService) Dashboard(ctx context.Context) (*dto.DashboardStats, error) {
	today := model.DateOf(s.now())

	total, err := s.repo.Student.Count(ctx)
	if err != nil {
		s.logger.Error("统计学生总数失败", zap.Error(err))
		return nil, err
	}
	records, err := s.repo.Attendance.ListByDate(ctx, today)
	if err != nil {
		s.logger.Error("查询当日签到失败", zap.Error(err))
		return nil, err
	}

	active := 0
	for i := range records {
		if records[i].CheckOutTime == nil {
			active++
		}
	}
	return &dto.DashboardStats{
		TotalStudents:   int(total),
		TodayAttendance: len(records),
		ActiveCheckIns:  active,
		AttendanceRate:  percent(len(records), int(total)),
		Date:            today.Format(time.DateOnly),
	}, nil
}

// Weekly 本周（周日起）至今按日统计
func (s *statisticsService) Weekly(ctx context.Context) (*dto.WeeklyStats, error) {
	today := model.DateOf(s.now())
	weekStart := startOfWeek(today)

	records, err := s.repo.Attendance.ListByDateRange(ctx, weekStart, today)
	if err != nil {
		s.logger.Error("查询本周签到失败", zap.Error(err))
		return nil, err
	}
	return &dto.WeeklyStats{
		WeekStart:       weekStart.Format(time.DateOnly),
		WeekEnd:         today.Format(time.DateOnly),
		DailyStats:      groupByDay(records),
		TotalAttendance: len(records),
	}, nil
}

func (s *statisticsService) Monthly(ctx context.Context) (*dto.MonthlyStats, error) {
	today := model.DateOf(s.now())
	monthStart := startOfMonth(today)

	total, err := s.repo.Student.Count(ctx)
	if err != nil {
		s.logger.Error("统计学生总数失败", zap.Error(err))
		return nil, err
	}
	records, err := s.repo.Attendance.ListByDateRange(ctx, monthStart, today)
	if err != nil {
		s.logger.Error("查询本月签到失败", zap.Error(err))
		return nil, err
	}

	unique := make(map[string]struct{})
	for i := range records {
		unique[records[i].StudentID] = struct{}{}
	}
	return &dto.MonthlyStats{
		Month:             today.Format("January 2006"),
		MonthStart:        monthStart.Format(time.DateOnly),
		MonthEnd:          today.Format(time.DateOnly),
		TotalStudents:     int(total),
		UniqueAttendees:   len(unique),
		ParticipationRate: percent(len(unique), int(total)),
		DailyStats:        groupByDay(records),
		TotalAttendance:   len(records),
	}, nil
}

// ────────────────────── 学生 / 院系 ──────────────────────

func (s *statisticsService) Student(ctx context.Context, studentID string) (*dto.StudentStats, error) {
	student, err := s.repo.Student.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.String("id", studentID), zap.Error(err))
		return nil, err
	}
	records, err := s.repo.Attendance.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询学生签到记录失败", zap.String("id", studentID), zap.Error(err))
		return nil, err
	}

	stats := summarizeStudent(records, startOfMonth(model.DateOf(s.now())))
	stats.Student = toStudentBrief(student)
	return stats, nil
}

func (s *statisticsService) Department(ctx context.Context, department string) (*dto.DepartmentStats, error) {
	department = strings.TrimSpace(department)
	students, err := s.repo.Student.ListByDepartment(ctx, department)
	if err != nil {
		s.logger.Error("查询院系学生失败", zap.String("department", department), zap.Error(err))
		return nil, err
	}
	if len(students) == 0 {
		return nil, ErrDepartmentEmpty
	}

	today := model.DateOf(s.now())
	todayCount, err := s.repo.Attendance.CountByDepartment(ctx, department, &today)
	if err != nil {
		s.logger.Error("统计院系当日签到失败", zap.String("department", department), zap.Error(err))
		return nil, err
	}
	totalCount, err := s.repo.Attendance.CountByDepartment(ctx, department, nil)
	if err != nil {
		s.logger.Error("统计院系签到失败", zap.String("department", department), zap.Error(err))
		return nil, err
	}

	return &dto.DepartmentStats{
		Department:      department,
		TotalStudents:   len(students),
		TodayAttendance: int(todayCount),
		TotalAttendance: int(totalCount),
		AttendanceRate:  percent(int(todayCount), len(students)),
	}, nil
}

// ────────────────────── 教师视图 ──────────────────────

func (s *statisticsService) TeacherDashboard(ctx context.Context) (*dto.TeacherDashboard, error) {
	today := model.DateOf(s.now())

	students, err := s.repo.Student.List(ctx)
	if err != nil {
		s.logger.Error("列出学生失败", zap.Error(err))
		return nil, err
	}
	records, err := s.repo.Attendance.ListByDate(ctx, today)
	if err != nil {
		s.logger.Error("查询当日签到失败", zap.Error(err))
		return nil, err
	}

	resp := &dto.TeacherDashboard{
		TotalStudents:   len(students),
		TodayAttendance: len(records),
		LateStudents:    make([]dto.AttendanceResponse, 0),
		AbsentStudents:  make([]dto.StudentResponse, 0),
		Date:            today.Format(time.DateOnly),
	}

	seen := make(map[string]struct{}, len(records))
	for i := range records {
		seen[records[i].StudentID] = struct{}{}
		if records[i].Status == model.StatusLate {
			resp.LateStudents = append(resp.LateStudents, toAttendanceResponse(&records[i]))
		}
	}
	for i := range students {
		if _, ok := seen[students[i].StudentID]; !ok {
			resp.AbsentStudents = append(resp.AbsentStudents, *toStudentResponse(&students[i]))
		}
	}
	resp.LateCount = len(resp.LateStudents)
	resp.AbsentCount = len(resp.AbsentStudents)
	return resp, nil
}

// AtRiskStudents 统计窗口内出勤过少或迟到过多的学生，按出勤次数升序
func (s *statisticsService) AtRiskStudents(ctx context.Context) ([]dto.AtRiskStudent, error) {
	// 滚动窗口：从当前时刻回溯，不对齐到零点
	since := s.now().AddDate(0, 0, -s.rules.WindowDays)

	students, err := s.repo.Student.List(ctx)
	if err != nil {
		s.logger.Error("列出学生失败", zap.Error(err))
		return nil, err
	}
	records, err := s.repo.Attendance.ListSince(ctx, since)
	if err != nil {
		s.logger.Error("查询窗口内签到失败", zap.Error(err))
		return nil, err
	}
	return findAtRisk(students, records, s.rules), nil
}

func (s *statisticsService) DailySummary(ctx context.Context, date string) (*dto.DailySummary, error) {
	day, err := parseDate(date, model.DateOf(s.now()))
	if err != nil {
		return nil, err
	}

	total, err := s.repo.Student.Count(ctx)
	if err != nil {
		s.logger.Error("统计学生总数失败", zap.Error(err))
		return nil, err
	}
	records, err := s.repo.Attendance.ListByDate(ctx, day)
	if err != nil {
		s.logger.Error("查询签到失败", zap.String("date", date), zap.Error(err))
		return nil, err
	}

	summary := summarizeDay(records, int(total))
	summary.Date = day.Format(time.DateOnly)
	return summary, nil
}

// ── 纯聚合函数 ──

func startOfWeek(day time.Time) time.Time {
	return day.AddDate(0, 0, -int(day.Weekday()))
}

func startOfMonth(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// groupByDay 按签到日期分组，日期升序
func groupByDay(records []model.AttendanceRecord) []dto.DailyStat {
	byDate := make(map[string]*dto.DailyStat)
	for i := range records {
		key := model.DateOf(records[i].CheckInTime).Format(time.DateOnly)
		stat, ok := byDate[key]
		if !ok {
			stat = &dto.DailyStat{Date: key}
			byDate[key] = stat
		}
		stat.Count++
		switch records[i].Status {
		case model.StatusPresent:
			stat.Present++
		case model.StatusLate:
			stat.Late++
		}
	}

	result := make([]dto.DailyStat, 0, len(byDate))
	for _, stat := range byDate {
		result = append(result, *stat)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date < result[j].Date })
	return result
}

// summarizeStudent 学生维度汇总；平均时长仅计已签退记录
func summarizeStudent(records []model.AttendanceRecord, monthStart time.Time) *dto.StudentStats {
	stats := &dto.StudentStats{TotalAttendance: len(records)}

	var durationSum float64
	closed := 0
	for i := range records {
		r := &records[i]
		if !r.CheckInTime.Before(monthStart) {
			stats.MonthlyAttendance++
		}
		switch r.Status {
		case model.StatusPresent:
			stats.PresentCount++
		case model.StatusLate:
			stats.LateCount++
		}
		if minutes, ok := r.DurationMinutes(); ok {
			durationSum += minutes
			closed++
		}
	}

	stats.AttendanceRate = percent(stats.PresentCount, stats.TotalAttendance)
	if closed > 0 {
		stats.AverageDurationMinutes = round2(durationSum / float64(closed))
	}
	return stats
}

func findAtRisk(students []model.Student, records []model.AttendanceRecord, rules AtRiskRules) []dto.AtRiskStudent {
	type tally struct{ total, late int }
	counts := make(map[string]*tally)
	for i := range records {
		t, ok := counts[records[i].StudentID]
		if !ok {
			t = &tally{}
			counts[records[i].StudentID] = t
		}
		t.total++
		if records[i].Status == model.StatusLate {
			t.late++
		}
	}

	result := make([]dto.AtRiskStudent, 0)
	for i := range students {
		st := &students[i]
		t := counts[st.StudentID]
		if t == nil {
			t = &tally{}
		}
		if t.total >= rules.MinAttendance && t.late <= rules.MaxLate {
			continue
		}
		result = append(result, dto.AtRiskStudent{
			ID:              st.StudentID,
			StudentNumber:   st.StudentNumber,
			FirstName:       st.FirstName,
			LastName:        st.LastName,
			Department:      st.Department,
			Email:           st.Email,
			AttendanceCount: t.total,
			LateCount:       t.late,
		})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].AttendanceCount < result[j].AttendanceCount
	})
	return result
}

// summarizeDay records 须按签到时间倒序
func summarizeDay(records []model.AttendanceRecord, totalStudents int) *dto.DailySummary {
	summary := &dto.DailySummary{
		TotalStudents:   totalStudents,
		HourlyBreakdown: make([]dto.HourlyCount, 0),
	}

	hours := make(map[int]int)
	for i := range records {
		switch records[i].Status {
		case model.StatusPresent:
			summary.PresentCount++
		case model.StatusLate:
			summary.LateCount++
		}
		hours[records[i].CheckInTime.UTC().Hour()]++
	}
	for hour, count := range hours {
		summary.HourlyBreakdown = append(summary.HourlyBreakdown, dto.HourlyCount{Hour: hour, Count: count})
	}
	sort.Slice(summary.HourlyBreakdown, func(i, j int) bool {
		return summary.HourlyBreakdown[i].Hour < summary.HourlyBreakdown[j].Hour
	})

	summary.AbsentCount = totalStudents - len(records)
	if summary.AbsentCount < 0 {
		summary.AbsentCount = 0
	}
	summary.AttendanceRate = percent(summary.PresentCount, totalStudents)

	recent := records
	if len(recent) > recentCheckInLimit {
		recent = recent[:recentCheckInLimit]
	}
	summary.RecentCheckIns = toAttendanceResponses(recent)
	return summary
}
