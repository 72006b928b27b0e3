package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/erciktiburak/school-attendance-api/internal/dto"
	"github.com/erciktiburak/school-attendance-api/internal/model"
	pkgerrors "github.com/erciktiburak/school-attendance-api/pkg/errors"
)

func setupTestCourseService(now time.Time) (*courseService, *mockRepos) {
	repos := newMockRepos()
	svc := NewCourseService(repos.Repository, zap.NewNop()).(*courseService)
	svc.now = fixedClock(now)
	return svc, repos
}

func createTestCourse(t *testing.T, svc CourseService, code, schedule string) *dto.CourseResponse {
	t.Helper()
	c, err := svc.Create(context.Background(), &dto.CreateCourseRequest{
		CourseCode: code,
		CourseName: "Data Structures",
		Credits:    4,
		Schedule:   schedule,
		Location:   "Room 101",
	})
	if err != nil {
		t.Fatalf("创建课程失败: %v", err)
	}
	return c
}

// ── CRUD ──

func TestCourseCreate_Duplicate(t *testing.T) {
	svc, _ := setupTestCourseService(at(10, 0, 0))
	createTestCourse(t, svc, "CMPE242", "")

	_, err := svc.Create(context.Background(), &dto.CreateCourseRequest{CourseCode: "CMPE242", CourseName: "X"})
	if !errors.Is(err, ErrCourseDuplicate) {
		t.Errorf("期望 ErrCourseDuplicate，实际: %v", err)
	}
}

func TestCourseCreate_UnknownTeacher(t *testing.T) {
	svc, _ := setupTestCourseService(at(10, 0, 0))
	missing := "tch-404"

	_, err := svc.Create(context.Background(), &dto.CreateCourseRequest{CourseCode: "C1", CourseName: "X", TeacherID: &missing})
	if !errors.Is(err, ErrTeacherNotFound) {
		t.Errorf("期望 ErrTeacherNotFound，实际: %v", err)
	}
}

func TestCourseCreate_WithTeacher(t *testing.T) {
	svc, repos := setupTestCourseService(at(10, 0, 0))
	teacher := &model.Teacher{EmployeeNumber: "T001", FirstName: "Mehmet", LastName: "Kaya", Email: "m@k.tr"}
	_ = repos.teachers.Create(context.Background(), teacher)

	c, err := svc.Create(context.Background(), &dto.CreateCourseRequest{CourseCode: "C1", CourseName: "X", TeacherID: &teacher.TeacherID})
	if err != nil {
		t.Fatalf("创建课程失败: %v", err)
	}
	if c.Teacher == nil || c.Teacher.Name != "Mehmet Kaya" {
		t.Errorf("应带出任课教师，实际: %+v", c.Teacher)
	}
}

func TestCourseUpdate_IDMismatch(t *testing.T) {
	svc, _ := setupTestCourseService(at(10, 0, 0))
	c := createTestCourse(t, svc, "C1", "")

	_, err := svc.Update(context.Background(), c.ID, &dto.UpdateCourseRequest{CourseID: "other", CourseCode: "C1", CourseName: "X"})
	if !errors.Is(err, ErrCourseIDMismatch) {
		t.Errorf("期望 ErrCourseIDMismatch，实际: %v", err)
	}
}

func TestCourseUpdate_StaleVersion(t *testing.T) {
	svc, _ := setupTestCourseService(at(10, 0, 0))
	c := createTestCourse(t, svc, "C1", "")
	stale := c.Version

	if _, err := svc.Update(context.Background(), c.ID, &dto.UpdateCourseRequest{CourseCode: "C1", CourseName: "Y"}); err != nil {
		t.Fatalf("首次更新应成功: %v", err)
	}
	_, err := svc.Update(context.Background(), c.ID, &dto.UpdateCourseRequest{CourseCode: "C1", CourseName: "Z", Version: &stale})
	if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("期望 ErrOptimisticLock，实际: %v", err)
	}
}

func TestCourseDelete_NotFound(t *testing.T) {
	svc, _ := setupTestCourseService(at(10, 0, 0))

	if err := svc.Delete(context.Background(), "crs-404"); !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("期望 ErrCourseNotFound，实际: %v", err)
	}
}

// ── 选课 ──

func TestEnroll_Duplicate(t *testing.T) {
	svc, repos := setupTestCourseService(at(10, 0, 0))
	c := createTestCourse(t, svc, "C1", "")
	st := repos.addStudent("1", "A", "A", "CE")
	req := &dto.EnrollRequest{StudentID: st.StudentID}

	if err := svc.Enroll(context.Background(), c.ID, req); err != nil {
		t.Fatalf("首次选课应成功: %v", err)
	}
	if err := svc.Enroll(context.Background(), c.ID, req); !errors.Is(err, ErrAlreadyEnrolled) {
		t.Errorf("期望 ErrAlreadyEnrolled，实际: %v", err)
	}
}

func TestEnroll_UnknownStudent(t *testing.T) {
	svc, _ := setupTestCourseService(at(10, 0, 0))
	c := createTestCourse(t, svc, "C1", "")

	if err := svc.Enroll(context.Background(), c.ID, &dto.EnrollRequest{StudentID: "missing"}); !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("期望 ErrStudentNotFound，实际: %v", err)
	}
}

func TestUnenroll_NotEnrolled(t *testing.T) {
	svc, repos := setupTestCourseService(at(10, 0, 0))
	c := createTestCourse(t, svc, "C1", "")
	st := repos.addStudent("1", "A", "A", "CE")

	if err := svc.Unenroll(context.Background(), c.ID, st.StudentID); !errors.Is(err, ErrNotEnrolled) {
		t.Errorf("期望 ErrNotEnrolled，实际: %v", err)
	}
}

// ── 课堂点名 ──

func TestMarkCourseAttendance(t *testing.T) {
	svc, repos := setupTestCourseService(at(10, 0, 0))
	c := createTestCourse(t, svc, "C1", "")
	a := repos.addStudent("1", "A", "A", "CE")
	b := repos.addStudent("2", "B", "B", "CE")
	for _, st := range []*model.Student{a, b} {
		if err := svc.Enroll(context.Background(), c.ID, &dto.EnrollRequest{StudentID: st.StudentID}); err != nil {
			t.Fatalf("选课失败: %v", err)
		}
	}

	if err := svc.MarkAttendance(context.Background(), c.ID, &dto.MarkCourseAttendanceRequest{StudentID: a.StudentID, Status: "Present"}); err != nil {
		t.Fatalf("点名失败: %v", err)
	}
	if err := svc.MarkAttendance(context.Background(), c.ID, &dto.MarkCourseAttendanceRequest{StudentID: b.StudentID, Status: "Late", Notes: "bus"}); err != nil {
		t.Fatalf("点名失败: %v", err)
	}

	err := svc.MarkAttendance(context.Background(), c.ID, &dto.MarkCourseAttendanceRequest{StudentID: a.StudentID, Status: "Late"})
	if !errors.Is(err, ErrCourseAttendanceMarked) {
		t.Errorf("期望 ErrCourseAttendanceMarked，实际: %v", err)
	}

	resp, err := svc.ListAttendance(context.Background(), c.ID, "")
	if err != nil {
		t.Fatalf("ListAttendance 失败: %v", err)
	}
	if resp.TotalEnrolled != 2 || resp.PresentCount != 1 || resp.LateCount != 1 || len(resp.AttendanceRecords) != 2 {
		t.Errorf("汇总不符: %+v", resp)
	}
	if resp.Date != "2026-03-04" {
		t.Errorf("期望 Date=2026-03-04，实际=%s", resp.Date)
	}
}

func TestMarkCourseAttendance_InvalidStatus(t *testing.T) {
	svc, repos := setupTestCourseService(at(10, 0, 0))
	c := createTestCourse(t, svc, "C1", "")
	a := repos.addStudent("1", "A", "A", "CE")

	err := svc.MarkAttendance(context.Background(), c.ID, &dto.MarkCourseAttendanceRequest{StudentID: a.StudentID, Status: "Sleeping"})
	if !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("期望 ErrInvalidStatus，实际: %v", err)
	}
}

// ── 日历 ──

func TestParseSchedule(t *testing.T) {
	cases := []struct {
		in   string
		ok   bool
		days int
	}{
		{"Mon,Wed 09:00-10:30", true, 2},
		{"tuesday,Thu,Tue 13:00-14:50", true, 2},
		{"Fri 08:00-09:00", true, 1},
		{"Mon,Wed", false, 0},
		{"Mon 10:30-09:00", false, 0},
		{"Xyz 09:00-10:00", false, 0},
		{"Mon 9am-10am", false, 0},
		{"", false, 0},
	}
	for _, tc := range cases {
		slot, ok := parseSchedule(tc.in)
		if ok != tc.ok {
			t.Errorf("%q: 期望 ok=%v，实际=%v", tc.in, tc.ok, ok)
			continue
		}
		if ok && len(slot.Days) != tc.days {
			t.Errorf("%q: 期望 %d 天，实际=%d", tc.in, tc.days, len(slot.Days))
		}
	}
}

func TestCalendar(t *testing.T) {
	svc, _ := setupTestCourseService(at(10, 0, 0))
	c := createTestCourse(t, svc, "CMPE242", "Mon,Wed 09:00-10:30")

	body, filename, err := svc.Calendar(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("Calendar 失败: %v", err)
	}
	if filename != "CMPE242.ics" {
		t.Errorf("期望文件名 CMPE242.ics，实际=%s", filename)
	}
	ics := string(body)
	if strings.Count(ics, "BEGIN:VEVENT") != 2 {
		t.Errorf("期望 2 个 VEVENT:\n%s", ics)
	}
	for _, want := range []string{"RRULE:FREQ=WEEKLY;BYDAY=MO", "RRULE:FREQ=WEEKLY;BYDAY=WE", "SUMMARY:CMPE242 Data Structures", "LOCATION:Room 101"} {
		if !strings.Contains(ics, want) {
			t.Errorf("日历应包含 %q", want)
		}
	}
	// 2026-03-04 为周三：周三当天开始，周一为下周一
	if !strings.Contains(ics, "20260304T090000Z") || !strings.Contains(ics, "20260309T090000Z") {
		t.Errorf("首次发生日不符:\n%s", ics)
	}
}

func TestCalendar_FreeTextSchedule(t *testing.T) {
	svc, _ := setupTestCourseService(at(10, 0, 0))
	c := createTestCourse(t, svc, "C1", "TBA")

	_, _, err := svc.Calendar(context.Background(), c.ID)
	if !errors.Is(err, ErrScheduleNotCalendarable) {
		t.Errorf("期望 ErrScheduleNotCalendarable，实际: %v", err)
	}
}
