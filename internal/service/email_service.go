package service

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/erciktiburak/school-attendance-api/internal/dto"
	"github.com/erciktiburak/school-attendance-api/internal/mailer"
	"github.com/erciktiburak/school-attendance-api/internal/model"
	"github.com/erciktiburak/school-attendance-api/internal/repository"
	pkgerrors "github.com/erciktiburak/school-attendance-api/pkg/errors"
	"github.com/erciktiburak/school-attendance-api/pkg/metrics"
)

// ── 邮件模块业务错误 ──

var (
	ErrNoLateAttendance = pkgerrors.New(pkgerrors.KindNotFound, 17001, "No late attendance found")
)

// sendFailed 单封发送失败，消息带上通道错误
func sendFailed(err error) error {
	return pkgerrors.New(pkgerrors.KindInternal, 17002, "Failed to send email: "+err.Error())
}

const (
	subjectAbsent = "Attendance Alert: Absence Recorded"
	subjectLate   = "Attendance Alert: Late Arrival"
	subjectWeekly = "Weekly Attendance Report"

	emailDateLayout = "January 02, 2006"
	emailTimeLayout = "15:04"

	// weeklyReportDays 周报统计最近 7 天
	weeklyReportDays = 7
)

// 邮件种类，用于指标标签
const (
	kindAbsent = "absent"
	kindLate   = "late"
	kindWeekly = "weekly"
)

// EmailService 邮件通知业务接口
type EmailService interface {
	SendAbsentNotification(ctx context.Context, req *dto.AbsentNotificationRequest) error
	SendLateNotification(ctx context.Context, req *dto.StudentNotificationRequest) error
	SendWeeklyReport(ctx context.Context, req *dto.StudentNotificationRequest) error
	// SendBulkAbsent 向当日无任何签到记录的学生逐个发送缺勤通知，单个失败只计数
	SendBulkAbsent(ctx context.Context, req *dto.BulkAbsentRequest) (*dto.BulkAbsentResult, error)
}

type emailService struct {
	repo   *repository.Repository
	mailer mailer.Mailer
	now    clock
	logger *zap.Logger
}

// NewEmailService 创建 EmailService 实例
func NewEmailService(repo *repository.Repository, m mailer.Mailer, logger *zap.Logger) EmailService {
	if m == nil {
		m = mailer.NewNoop(logger)
	}
	return &emailService{repo: repo, mailer: m, now: systemClock, logger: logger}
}

// ────────────────────── 单封通知 ──────────────────────

func (s *emailService) SendAbsentNotification(ctx context.Context, req *dto.AbsentNotificationRequest) error {
	date, err := parseDate(req.Date, model.DateOf(s.now()))
	if err != nil {
		return err
	}
	student, err := s.getStudent(ctx, req.StudentID)
	if err != nil {
		return err
	}
	if err := s.sendAbsent(ctx, student, date); err != nil {
		return sendFailed(err)
	}
	return nil
}

func (s *emailService) SendLateNotification(ctx context.Context, req *dto.StudentNotificationRequest) error {
	student, err := s.getStudent(ctx, req.StudentID)
	if err != nil {
		return err
	}

	record, err := s.repo.Attendance.GetLatestByStatus(ctx, student.StudentID, model.StatusLate)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoLateAttendance
		}
		s.logger.Error("查询最近迟到记录失败", zap.String("student_id", student.StudentID), zap.Error(err))
		return err
	}

	checkIn := record.CheckInTime.UTC()
	html, err := render(lateTemplate, map[string]string{
		"Name": student.FullName(),
		"Date": checkIn.Format(emailDateLayout),
		"Time": checkIn.Format(emailTimeLayout),
	})
	if err != nil {
		return err
	}
	if err := s.send(ctx, kindLate, student, subjectLate, html); err != nil {
		return sendFailed(err)
	}
	return nil
}

func (s *emailService) SendWeeklyReport(ctx context.Context, req *dto.StudentNotificationRequest) error {
	student, err := s.getStudent(ctx, req.StudentID)
	if err != nil {
		return err
	}

	since := s.now().AddDate(0, 0, -weeklyReportDays)
	records, err := s.repo.Attendance.ListByStudentSince(ctx, student.StudentID, since)
	if err != nil {
		s.logger.Error("查询学生周记录失败", zap.String("student_id", student.StudentID), zap.Error(err))
		return err
	}

	present, late := 0, 0
	for i := range records {
		switch records[i].Status {
		case model.StatusPresent:
			present++
		case model.StatusLate:
			late++
		}
	}

	html, err := render(weeklyTemplate, map[string]interface{}{
		"Name":    student.FullName(),
		"Total":   len(records),
		"Present": present,
		"Late":    late,
		"Rate":    strconv.FormatFloat(percent(present, len(records)), 'f', -1, 64),
	})
	if err != nil {
		return err
	}
	if err := s.send(ctx, kindWeekly, student, subjectWeekly, html); err != nil {
		return sendFailed(err)
	}
	return nil
}

// ────────────────────── 批量缺勤 ──────────────────────

func (s *emailService) SendBulkAbsent(ctx context.Context, req *dto.BulkAbsentRequest) (*dto.BulkAbsentResult, error) {
	date, err := parseDate(req.Date, model.DateOf(s.now()))
	if err != nil {
		return nil, err
	}

	students, err := s.repo.Student.List(ctx)
	if err != nil {
		s.logger.Error("列出学生失败", zap.Error(err))
		return nil, err
	}
	records, err := s.repo.Attendance.ListByDate(ctx, date)
	if err != nil {
		s.logger.Error("查询当日签到失败", zap.Error(err))
		return nil, err
	}

	attended := make(map[string]struct{}, len(records))
	for i := range records {
		attended[records[i].StudentID] = struct{}{}
	}

	result := &dto.BulkAbsentResult{}
	for i := range students {
		st := &students[i]
		if _, ok := attended[st.StudentID]; ok {
			continue
		}
		result.TotalAbsent++
		if err := s.sendAbsent(ctx, st, date); err != nil {
			result.FailCount++
			continue
		}
		result.SuccessCount++
	}

	s.logger.Info("批量缺勤通知完成",
		zap.String("date", date.Format(time.DateOnly)),
		zap.Int("total", result.TotalAbsent),
		zap.Int("success", result.SuccessCount),
		zap.Int("failed", result.FailCount),
	)
	return result, nil
}

// ── 内部工具 ──

func (s *emailService) getStudent(ctx context.Context, id string) (*model.Student, error) {
	student, err := s.repo.Student.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return student, nil
}

func (s *emailService) sendAbsent(ctx context.Context, student *model.Student, date time.Time) error {
	html, err := render(absentTemplate, map[string]string{
		"Name": student.FullName(),
		"Date": date.Format(emailDateLayout),
	})
	if err != nil {
		return err
	}
	return s.send(ctx, kindAbsent, student, subjectAbsent, html)
}

func (s *emailService) send(ctx context.Context, kind string, student *model.Student, subject, html string) error {
	err := s.mailer.Send(ctx, mailer.Message{
		To:      student.Email,
		ToName:  student.FullName(),
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		metrics.EmailsSent.WithLabelValues(kind, "failed").Inc()
		s.logger.Error("邮件发送失败", zap.String("kind", kind), zap.String("to", student.Email), zap.Error(err))
		return err
	}
	metrics.EmailsSent.WithLabelValues(kind, "sent").Inc()
	s.logger.Info("邮件已发送", zap.String("kind", kind), zap.String("to", student.Email))
	return nil
}

func render(tpl *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ── 邮件模板 ──

const emailFooter = `
    <hr style="margin: 20px 0;">
    <p style="color: #6b7280; font-size: 12px;">{{.}}</p>`

var absentTemplate = template.Must(template.New("absent").Parse(`<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #dc2626;">Absence Notification</h2>
    <p>Dear {{.Name}},</p>
    <p>This is to inform you that you were marked absent on <strong>{{.Date}}</strong>.</p>
    <p>If you believe this is an error, please contact your teacher or the administration office.</p>
    {{template "footer" "This is an automated message from the School Attendance System."}}
  </div>
</body>
</html>`))

var lateTemplate = template.Must(template.New("late").Parse(`<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #f59e0b;">Late Arrival Notification</h2>
    <p>Dear {{.Name}},</p>
    <p>You checked in late on <strong>{{.Date}}</strong> at <strong>{{.Time}}</strong>.</p>
    <p>Please ensure you arrive on time for future sessions.</p>
    {{template "footer" "This is an automated message from the School Attendance System."}}
  </div>
</body>
</html>`))

var weeklyTemplate = template.Must(template.New("weekly").Parse(`<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #4f46e5;">Weekly Attendance Summary</h2>
    <p>Dear {{.Name}},</p>
    <p>Here is your attendance summary for this week:</p>
    <div style="background: #f3f4f6; padding: 20px; border-radius: 8px; margin: 20px 0;">
      <table style="width: 100%;">
        <tr><td style="padding: 10px;"><strong>Total Days:</strong></td><td style="text-align: right;">{{.Total}}</td></tr>
        <tr><td style="padding: 10px;"><strong>Present:</strong></td><td style="text-align: right; color: #10b981;">{{.Present}}</td></tr>
        <tr><td style="padding: 10px;"><strong>Late:</strong></td><td style="text-align: right; color: #f59e0b;">{{.Late}}</td></tr>
        <tr><td style="padding: 10px;"><strong>Attendance Rate:</strong></td><td style="text-align: right; font-size: 18px; font-weight: bold; color: #4f46e5;">{{.Rate}}%</td></tr>
      </table>
    </div>
    <p>Keep up the good work!</p>
    {{template "footer" "This is an automated weekly report from the School Attendance System."}}
  </div>
</body>
</html>`))

func init() {
	for _, tpl := range []*template.Template{absentTemplate, lateTemplate, weeklyTemplate} {
		template.Must(tpl.New("footer").Parse(emailFooter))
	}
}
