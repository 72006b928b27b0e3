package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/erciktiburak/school-attendance-api/internal/dto"
	"github.com/erciktiburak/school-attendance-api/internal/model"
	"github.com/erciktiburak/school-attendance-api/internal/repository"
	pkgerrors "github.com/erciktiburak/school-attendance-api/pkg/errors"
)

// ── 课程模块业务错误 ──

var (
	ErrCourseNotFound          = pkgerrors.New(pkgerrors.KindNotFound, 14001, "Course not found")
	ErrCourseDuplicate         = pkgerrors.New(pkgerrors.KindConflict, 14002, "Course code already exists")
	ErrCourseIDMismatch        = pkgerrors.New(pkgerrors.KindValidation, 14003, "Course ID does not match the request path")
	ErrAlreadyEnrolled         = pkgerrors.New(pkgerrors.KindConflict, 14004, "Student already enrolled")
	ErrNotEnrolled             = pkgerrors.New(pkgerrors.KindNotFound, 14005, "Student is not enrolled in this course")
	ErrInvalidStatus           = pkgerrors.New(pkgerrors.KindValidation, 14006, "Invalid attendance status")
	ErrCourseAttendanceMarked  = pkgerrors.New(pkgerrors.KindConflict, 14007, "Attendance already marked for today")
	ErrScheduleNotCalendarable = pkgerrors.New(pkgerrors.KindValidation, 14008, "Course schedule cannot be exported as a calendar")
)

// CourseService 课程业务接口
type CourseService interface {
	Create(ctx context.Context, req *dto.CreateCourseRequest) (*dto.CourseResponse, error)
	GetByID(ctx context.Context, id string) (*dto.CourseResponse, error)
	List(ctx context.Context) ([]dto.CourseResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateCourseRequest) (*dto.CourseResponse, error)
	Delete(ctx context.Context, id string) error

	Enroll(ctx context.Context, courseID string, req *dto.EnrollRequest) error
	Unenroll(ctx context.Context, courseID, studentID string) error
	MarkAttendance(ctx context.Context, courseID string, req *dto.MarkCourseAttendanceRequest) error
	ListAttendance(ctx context.Context, courseID, date string) (*dto.CourseAttendanceResponse, error)

	// Calendar 生成课程的 iCalendar 文本及文件名
	Calendar(ctx context.Context, courseID string) ([]byte, string, error)
}

type courseService struct {
	repo   *repository.Repository
	now    clock
	logger *zap.Logger
}

// NewCourseService 创建 CourseService 实例
func NewCourseService(repo *repository.Repository, logger *zap.Logger) CourseService {
	return &courseService{repo: repo, now: systemClock, logger: logger}
}

// ────────────────────── CRUD ──────────────────────

func (s *courseService) Create(ctx context.Context, req *dto.CreateCourseRequest) (*dto.CourseResponse, error) {
	if err := s.checkTeacher(ctx, req.TeacherID); err != nil {
		return nil, err
	}

	course := &model.Course{
		CourseCode: strings.TrimSpace(req.CourseCode),
		CourseName: strings.TrimSpace(req.CourseName),
		Department: strings.TrimSpace(req.Department),
		Credits:    req.Credits,
		Schedule:   strings.TrimSpace(req.Schedule),
		Location:   strings.TrimSpace(req.Location),
		TeacherID:  req.TeacherID,
	}
	if err := s.repo.Course.Create(ctx, course); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCourseDuplicate
		}
		s.logger.Error("创建课程失败", zap.Error(err))
		return nil, err
	}
	return s.GetByID(ctx, course.CourseID)
}

func (s *courseService) GetByID(ctx context.Context, id string) (*dto.CourseResponse, error) {
	course, err := s.getCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	return toCourseResponse(course), nil
}

func (s *courseService) List(ctx context.Context) ([]dto.CourseResponse, error) {
	courses, err := s.repo.Course.List(ctx)
	if err != nil {
		s.logger.Error("列出课程失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.CourseResponse, 0, len(courses))
	for i := range courses {
		result = append(result, *toCourseResponse(&courses[i]))
	}
	return result, nil
}

func (s *courseService) Update(ctx context.Context, id string, req *dto.UpdateCourseRequest) (*dto.CourseResponse, error) {
	if req.CourseID != "" && req.CourseID != id {
		return nil, ErrCourseIDMismatch
	}

	course, err := s.getCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkTeacher(ctx, req.TeacherID); err != nil {
		return nil, err
	}
	if req.Version != nil {
		course.Version = *req.Version
	}

	course.CourseCode = strings.TrimSpace(req.CourseCode)
	course.CourseName = strings.TrimSpace(req.CourseName)
	course.Department = strings.TrimSpace(req.Department)
	course.Credits = req.Credits
	course.Schedule = strings.TrimSpace(req.Schedule)
	course.Location = strings.TrimSpace(req.Location)
	course.TeacherID = req.TeacherID
	course.Teacher = nil

	if err := s.repo.Course.Update(ctx, course); err != nil {
		switch {
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, ErrCourseDuplicate
		case errors.Is(err, pkgerrors.ErrOptimisticLock):
			if _, getErr := s.repo.Course.GetByID(ctx, id); errors.Is(getErr, gorm.ErrRecordNotFound) {
				return nil, ErrCourseNotFound
			}
			return nil, err
		}
		s.logger.Error("更新课程失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *courseService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Course.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		s.logger.Error("删除课程失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── 选课 ──────────────────────

func (s *courseService) Enroll(ctx context.Context, courseID string, req *dto.EnrollRequest) error {
	if _, err := s.getCourse(ctx, courseID); err != nil {
		return err
	}
	if _, err := s.getStudent(ctx, req.StudentID); err != nil {
		return err
	}

	exists, err := s.repo.Enrollment.Exists(ctx, courseID, req.StudentID)
	if err != nil {
		s.logger.Error("查询选课关系失败", zap.Error(err))
		return err
	}
	if exists {
		return ErrAlreadyEnrolled
	}

	enrollment := &model.CourseEnrollment{
		CourseID:   courseID,
		StudentID:  req.StudentID,
		EnrolledAt: s.now(),
	}
	if err := s.repo.Enrollment.Create(ctx, enrollment); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyEnrolled
		}
		s.logger.Error("选课失败", zap.String("course_id", courseID), zap.Error(err))
		return err
	}
	return nil
}

func (s *courseService) Unenroll(ctx context.Context, courseID, studentID string) error {
	if _, err := s.getCourse(ctx, courseID); err != nil {
		return err
	}
	if err := s.repo.Enrollment.Delete(ctx, courseID, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotEnrolled
		}
		s.logger.Error("退课失败", zap.String("course_id", courseID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── 课堂点名 ──────────────────────

func (s *courseService) MarkAttendance(ctx context.Context, courseID string, req *dto.MarkCourseAttendanceRequest) error {
	status, ok := model.ParseAttendanceStatus(req.Status)
	if !ok {
		return ErrInvalidStatus
	}
	if _, err := s.getCourse(ctx, courseID); err != nil {
		return err
	}
	if _, err := s.getStudent(ctx, req.StudentID); err != nil {
		return err
	}

	now := s.now()
	today := model.DateOf(now)
	exists, err := s.repo.CourseAttendance.Exists(ctx, courseID, req.StudentID, today)
	if err != nil {
		s.logger.Error("查询课堂点名失败", zap.Error(err))
		return err
	}
	if exists {
		return ErrCourseAttendanceMarked
	}

	record := &model.CourseAttendance{
		CourseID:    courseID,
		StudentID:   req.StudentID,
		Date:        today,
		CheckInTime: now,
		Status:      status,
		Notes:       strings.TrimSpace(req.Notes),
	}
	if err := s.repo.CourseAttendance.Create(ctx, record); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrCourseAttendanceMarked
		}
		s.logger.Error("课堂点名失败", zap.String("course_id", courseID), zap.Error(err))
		return err
	}
	return nil
}

func (s *courseService) ListAttendance(ctx context.Context, courseID, date string) (*dto.CourseAttendanceResponse, error) {
	day, err := parseDate(date, model.DateOf(s.now()))
	if err != nil {
		return nil, err
	}
	if _, err := s.getCourse(ctx, courseID); err != nil {
		return nil, err
	}

	enrollments, err := s.repo.Enrollment.ListByCourse(ctx, courseID)
	if err != nil {
		s.logger.Error("查询选课名单失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}
	records, err := s.repo.CourseAttendance.ListByCourseAndDate(ctx, courseID, day)
	if err != nil {
		s.logger.Error("查询课堂点名失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}

	resp := &dto.CourseAttendanceResponse{
		Date:              day.Format(time.DateOnly),
		TotalEnrolled:     len(enrollments),
		AttendanceRecords: make([]dto.CourseAttendanceRecord, 0, len(records)),
	}
	for i := range records {
		r := &records[i]
		item := dto.CourseAttendanceRecord{
			ID:          r.CourseAttendanceID,
			StudentID:   r.StudentID,
			Status:      string(r.Status),
			Notes:       r.Notes,
			CheckInTime: r.CheckInTime,
		}
		if r.Student != nil {
			item.StudentName = r.Student.FullName()
			item.StudentNumber = r.Student.StudentNumber
		}
		resp.AttendanceRecords = append(resp.AttendanceRecords, item)

		switch r.Status {
		case model.StatusPresent:
			resp.PresentCount++
		case model.StatusLate:
			resp.LateCount++
		}
	}
	return resp, nil
}

// ────────────────────── 日历 ──────────────────────

func (s *courseService) Calendar(ctx context.Context, courseID string) ([]byte, string, error) {
	course, err := s.getCourse(ctx, courseID)
	if err != nil {
		return nil, "", err
	}
	slot, ok := parseSchedule(course.Schedule)
	if !ok {
		return nil, "", ErrScheduleNotCalendarable
	}
	cal := buildCourseCalendar(course, slot, s.now())
	return []byte(cal.Serialize()), course.CourseCode + ".ics", nil
}

// ── 内部工具 ──

func (s *courseService) getCourse(ctx context.Context, id string) (*model.Course, error) {
	course, err := s.repo.Course.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return course, nil
}

func (s *courseService) getStudent(ctx context.Context, id string) (*model.Student, error) {
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

// checkTeacher 指定了任课教师时须存在
func (s *courseService) checkTeacher(ctx context.Context, teacherID *string) error {
	if teacherID == nil || *teacherID == "" {
		return nil
	}
	if _, err := s.repo.Teacher.GetByID(ctx, *teacherID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTeacherNotFound
		}
		return err
	}
	return nil
}
