package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/erciktiburak/school-attendance-api/internal/mailer"
	"github.com/erciktiburak/school-attendance-api/internal/model"
	"github.com/erciktiburak/school-attendance-api/internal/repository"
	pkgerrors "github.com/erciktiburak/school-attendance-api/pkg/errors"
	pkgredis "github.com/erciktiburak/school-attendance-api/pkg/redis"
)

// ── Mock Repositories ──
// 读取均返回副本，与 gorm 每次查询得到新对象一致

type mockUserRepo struct {
	seq   int
	users map[string]*model.User

	// beforeCreate 在下一次 Create 前执行一次，模拟并发写入
	beforeCreate func()
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if f := m.beforeCreate; f != nil {
		m.beforeCreate = nil
		f()
	}
	for _, u := range m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	m.seq++
	user.UserID = fmt.Sprintf("user-%d", m.seq)
	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepo) UpdatePasswordHash(_ context.Context, id, hash string) error {
	u, ok := m.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (m *mockUserRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.users)), nil
}

// ── Student ──

type mockStudentRepo struct {
	seq      int
	students map[string]*model.Student
}

func newMockStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{students: make(map[string]*model.Student)}
}

func (m *mockStudentRepo) conflicts(st *model.Student) bool {
	for id, s := range m.students {
		if id == st.StudentID {
			continue
		}
		if s.StudentNumber == st.StudentNumber || s.Email == st.Email || (st.QRCode != "" && s.QRCode == st.QRCode) {
			return true
		}
	}
	return false
}

func (m *mockStudentRepo) Create(_ context.Context, student *model.Student) error {
	if m.conflicts(student) {
		return gorm.ErrDuplicatedKey
	}
	m.seq++
	student.StudentID = fmt.Sprintf("stu-%d", m.seq)
	student.Version = 1
	cp := *student
	m.students[student.StudentID] = &cp
	return nil
}

func (m *mockStudentRepo) GetByID(_ context.Context, id string) (*model.Student, error) {
	if s, ok := m.students[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) GetByQRCode(_ context.Context, code string) (*model.Student, error) {
	for _, s := range m.students {
		if s.QRCode == code {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) List(_ context.Context) ([]model.Student, error) {
	result := make([]model.Student, 0, len(m.students))
	for _, s := range m.students {
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StudentNumber < result[j].StudentNumber })
	return result, nil
}

func (m *mockStudentRepo) ListByDepartment(ctx context.Context, department string) ([]model.Student, error) {
	all, _ := m.List(ctx)
	result := make([]model.Student, 0)
	for _, s := range all {
		if s.Department == department {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *mockStudentRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.students)), nil
}

func (m *mockStudentRepo) Update(_ context.Context, student *model.Student) error {
	cur, ok := m.students[student.StudentID]
	if !ok || cur.Version != student.Version {
		return pkgerrors.ErrOptimisticLock
	}
	if m.conflicts(student) {
		return gorm.ErrDuplicatedKey
	}
	student.Version++
	cp := *student
	m.students[student.StudentID] = &cp
	return nil
}

func (m *mockStudentRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.students[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.students, id)
	return nil
}

// ── Teacher ──

type mockTeacherRepo struct {
	seq      int
	teachers map[string]*model.Teacher
}

func newMockTeacherRepo() *mockTeacherRepo {
	return &mockTeacherRepo{teachers: make(map[string]*model.Teacher)}
}

func (m *mockTeacherRepo) Create(_ context.Context, teacher *model.Teacher) error {
	for _, t := range m.teachers {
		if t.EmployeeNumber == teacher.EmployeeNumber || t.Email == teacher.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	m.seq++
	teacher.TeacherID = fmt.Sprintf("tch-%d", m.seq)
	teacher.Version = 1
	cp := *teacher
	m.teachers[teacher.TeacherID] = &cp
	return nil
}

func (m *mockTeacherRepo) GetByID(_ context.Context, id string) (*model.Teacher, error) {
	if t, ok := m.teachers[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTeacherRepo) List(_ context.Context) ([]model.Teacher, error) {
	result := make([]model.Teacher, 0, len(m.teachers))
	for _, t := range m.teachers {
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EmployeeNumber < result[j].EmployeeNumber })
	return result, nil
}

func (m *mockTeacherRepo) Update(_ context.Context, teacher *model.Teacher) error {
	cur, ok := m.teachers[teacher.TeacherID]
	if !ok || cur.Version != teacher.Version {
		return pkgerrors.ErrOptimisticLock
	}
	teacher.Version++
	cp := *teacher
	m.teachers[teacher.TeacherID] = &cp
	return nil
}

func (m *mockTeacherRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.teachers[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.teachers, id)
	return nil
}

// ── Course ──

type mockCourseRepo struct {
	seq      int
	courses  map[string]*model.Course
	teachers *mockTeacherRepo
}

func newMockCourseRepo(teachers *mockTeacherRepo) *mockCourseRepo {
	return &mockCourseRepo{courses: make(map[string]*model.Course), teachers: teachers}
}

func (m *mockCourseRepo) withTeacher(c *model.Course) *model.Course {
	cp := *c
	cp.Teacher = nil
	if c.TeacherID != nil {
		if t, ok := m.teachers.teachers[*c.TeacherID]; ok {
			tc := *t
			cp.Teacher = &tc
		}
	}
	return &cp
}

func (m *mockCourseRepo) Create(_ context.Context, course *model.Course) error {
	for _, c := range m.courses {
		if c.CourseCode == course.CourseCode {
			return gorm.ErrDuplicatedKey
		}
	}
	m.seq++
	course.CourseID = fmt.Sprintf("crs-%d", m.seq)
	course.Version = 1
	cp := *course
	m.courses[course.CourseID] = &cp
	return nil
}

func (m *mockCourseRepo) GetByID(_ context.Context, id string) (*model.Course, error) {
	if c, ok := m.courses[id]; ok {
		return m.withTeacher(c), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) List(_ context.Context) ([]model.Course, error) {
	result := make([]model.Course, 0, len(m.courses))
	for _, c := range m.courses {
		result = append(result, *m.withTeacher(c))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CourseCode < result[j].CourseCode })
	return result, nil
}

func (m *mockCourseRepo) Update(_ context.Context, course *model.Course) error {
	cur, ok := m.courses[course.CourseID]
	if !ok || cur.Version != course.Version {
		return pkgerrors.ErrOptimisticLock
	}
	course.Version++
	cp := *course
	m.courses[course.CourseID] = &cp
	return nil
}

func (m *mockCourseRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.courses[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.courses, id)
	return nil
}

// ── Enrollment ──

type mockEnrollmentRepo struct {
	enrollments []model.CourseEnrollment
	students    *mockStudentRepo
}

func (m *mockEnrollmentRepo) Create(_ context.Context, e *model.CourseEnrollment) error {
	for _, cur := range m.enrollments {
		if cur.CourseID == e.CourseID && cur.StudentID == e.StudentID {
			return gorm.ErrDuplicatedKey
		}
	}
	e.EnrollmentID = fmt.Sprintf("enr-%d", len(m.enrollments)+1)
	m.enrollments = append(m.enrollments, *e)
	return nil
}

func (m *mockEnrollmentRepo) Exists(_ context.Context, courseID, studentID string) (bool, error) {
	for _, e := range m.enrollments {
		if e.CourseID == courseID && e.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockEnrollmentRepo) Delete(_ context.Context, courseID, studentID string) error {
	for i, e := range m.enrollments {
		if e.CourseID == courseID && e.StudentID == studentID {
			m.enrollments = append(m.enrollments[:i], m.enrollments[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockEnrollmentRepo) ListByCourse(_ context.Context, courseID string) ([]model.CourseEnrollment, error) {
	result := make([]model.CourseEnrollment, 0)
	for _, e := range m.enrollments {
		if e.CourseID == courseID {
			if st, ok := m.students.students[e.StudentID]; ok {
				cp := *st
				e.Student = &cp
			}
			result = append(result, e)
		}
	}
	return result, nil
}

// ── CourseAttendance ──

type mockCourseAttendanceRepo struct {
	records  []model.CourseAttendance
	students *mockStudentRepo
}

func (m *mockCourseAttendanceRepo) Create(_ context.Context, r *model.CourseAttendance) error {
	exists, _ := m.Exists(context.Background(), r.CourseID, r.StudentID, r.Date)
	if exists {
		return gorm.ErrDuplicatedKey
	}
	r.CourseAttendanceID = fmt.Sprintf("ca-%d", len(m.records)+1)
	m.records = append(m.records, *r)
	return nil
}

func (m *mockCourseAttendanceRepo) Exists(_ context.Context, courseID, studentID string, date time.Time) (bool, error) {
	for _, r := range m.records {
		if r.CourseID == courseID && r.StudentID == studentID && r.Date.Equal(model.DateOf(date)) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCourseAttendanceRepo) ListByCourseAndDate(_ context.Context, courseID string, date time.Time) ([]model.CourseAttendance, error) {
	result := make([]model.CourseAttendance, 0)
	for _, r := range m.records {
		if r.CourseID == courseID && r.Date.Equal(model.DateOf(date)) {
			if st, ok := m.students.students[r.StudentID]; ok {
				cp := *st
				r.Student = &cp
			}
			result = append(result, r)
		}
	}
	return result, nil
}

// ── Attendance ──

type mockAttendanceRepo struct {
	seq      int
	records  []*model.AttendanceRecord
	students *mockStudentRepo
}

func (m *mockAttendanceRepo) Create(_ context.Context, r *model.AttendanceRecord) error {
	r.CheckInDate = model.DateOf(r.CheckInTime)
	for _, cur := range m.records {
		if cur.StudentID == r.StudentID && cur.CheckOutTime == nil && cur.CheckInDate.Equal(r.CheckInDate) {
			return gorm.ErrDuplicatedKey
		}
	}
	m.seq++
	r.AttendanceID = fmt.Sprintf("att-%d", m.seq)
	cp := *r
	cp.Student = nil
	m.records = append(m.records, &cp)
	return nil
}

// add 直接写入一条记录，用于构造历史数据
func (m *mockAttendanceRepo) add(studentID string, checkIn time.Time, checkOut *time.Time, status model.AttendanceStatus) {
	m.seq++
	m.records = append(m.records, &model.AttendanceRecord{
		AttendanceID: fmt.Sprintf("att-%d", m.seq),
		StudentID:    studentID,
		CheckInTime:  checkIn,
		CheckOutTime: checkOut,
		CheckInDate:  model.DateOf(checkIn),
		Location:     "Main Gate",
		Status:       status,
	})
}

func (m *mockAttendanceRepo) load(r *model.AttendanceRecord) model.AttendanceRecord {
	cp := *r
	if st, ok := m.students.students[r.StudentID]; ok {
		sc := *st
		cp.Student = &sc
	}
	return cp
}

func (m *mockAttendanceRepo) filter(keep func(r *model.AttendanceRecord) bool) []model.AttendanceRecord {
	result := make([]model.AttendanceRecord, 0)
	for _, r := range m.records {
		if keep(r) {
			result = append(result, m.load(r))
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CheckInTime.After(result[j].CheckInTime) })
	return result
}

func (m *mockAttendanceRepo) GetOpenSession(_ context.Context, studentID string, date time.Time) (*model.AttendanceRecord, error) {
	day := model.DateOf(date)
	for _, r := range m.records {
		if r.StudentID == studentID && r.CheckOutTime == nil && r.CheckInDate.Equal(day) {
			cp := m.load(r)
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAttendanceRepo) CloseSession(_ context.Context, attendanceID string, checkOut time.Time) error {
	for _, r := range m.records {
		if r.AttendanceID == attendanceID && r.CheckOutTime == nil {
			t := checkOut
			r.CheckOutTime = &t
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockAttendanceRepo) ExistsOnDate(_ context.Context, studentID string, date time.Time) (bool, error) {
	day := model.DateOf(date)
	for _, r := range m.records {
		if r.StudentID == studentID && r.CheckInDate.Equal(day) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAttendanceRepo) GetLatestByStatus(_ context.Context, studentID string, status model.AttendanceStatus) (*model.AttendanceRecord, error) {
	list := m.filter(func(r *model.AttendanceRecord) bool { return r.StudentID == studentID && r.Status == status })
	if len(list) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &list[0], nil
}

func (m *mockAttendanceRepo) ListByStudent(_ context.Context, studentID string) ([]model.AttendanceRecord, error) {
	return m.filter(func(r *model.AttendanceRecord) bool { return r.StudentID == studentID }), nil
}

func (m *mockAttendanceRepo) ListByStudentSince(_ context.Context, studentID string, since time.Time) ([]model.AttendanceRecord, error) {
	return m.filter(func(r *model.AttendanceRecord) bool {
		return r.StudentID == studentID && !r.CheckInTime.Before(since)
	}), nil
}

func (m *mockAttendanceRepo) ListByDate(_ context.Context, date time.Time) ([]model.AttendanceRecord, error) {
	day := model.DateOf(date)
	return m.filter(func(r *model.AttendanceRecord) bool { return r.CheckInDate.Equal(day) }), nil
}

func (m *mockAttendanceRepo) ListByDateRange(_ context.Context, from, to time.Time) ([]model.AttendanceRecord, error) {
	from, to = model.DateOf(from), model.DateOf(to)
	return m.filter(func(r *model.AttendanceRecord) bool {
		return !r.CheckInDate.Before(from) && !r.CheckInDate.After(to)
	}), nil
}

func (m *mockAttendanceRepo) ListSince(_ context.Context, since time.Time) ([]model.AttendanceRecord, error) {
	return m.filter(func(r *model.AttendanceRecord) bool { return !r.CheckInTime.Before(since) }), nil
}

func (m *mockAttendanceRepo) CountByDepartment(_ context.Context, department string, date *time.Time) (int64, error) {
	var n int64
	for _, r := range m.records {
		st, ok := m.students.students[r.StudentID]
		if !ok || st.Department != department {
			continue
		}
		if date != nil && !r.CheckInDate.Equal(model.DateOf(*date)) {
			continue
		}
		n++
	}
	return n, nil
}

// ── 测试辅助 ──

type mockRepos struct {
	*repository.Repository
	users      *mockUserRepo
	students   *mockStudentRepo
	teachers   *mockTeacherRepo
	courses    *mockCourseRepo
	enrolls    *mockEnrollmentRepo
	courseAtt  *mockCourseAttendanceRepo
	attendance *mockAttendanceRepo
}

func newMockRepos() *mockRepos {
	users := newMockUserRepo()
	students := newMockStudentRepo()
	teachers := newMockTeacherRepo()
	courses := newMockCourseRepo(teachers)
	enrolls := &mockEnrollmentRepo{students: students}
	courseAtt := &mockCourseAttendanceRepo{students: students}
	attendance := &mockAttendanceRepo{students: students}

	return &mockRepos{
		Repository: &repository.Repository{
			User:             users,
			Student:          students,
			Teacher:          teachers,
			Course:           courses,
			Enrollment:       enrolls,
			CourseAttendance: courseAtt,
			Attendance:       attendance,
		},
		users:      users,
		students:   students,
		teachers:   teachers,
		courses:    courses,
		enrolls:    enrolls,
		courseAtt:  courseAtt,
		attendance: attendance,
	}
}

// addStudent 直接写入学生，扫码串为 qr-<学号>
func (m *mockRepos) addStudent(number, first, last, dept string) *model.Student {
	st := &model.Student{
		StudentNumber: number,
		FirstName:     first,
		LastName:      last,
		Email:         number + "@school.test",
		Department:    dept,
		QRCode:        "qr-" + number,
	}
	_ = m.students.Create(context.Background(), st)
	return st
}

// fixedClock 固定时间源
func fixedClock(t time.Time) clock {
	return func() time.Time { return t }
}

// at 返回 2026-03-04 (周三) 的指定 UTC 时刻
func at(hour, min, sec int) time.Time {
	return time.Date(2026, 3, 4, hour, min, sec, 0, time.UTC)
}

// ── Mock 基础设施 ──

type broadcastEvent struct {
	Event string
	Data  interface{}
}

type mockBroadcaster struct {
	mu     sync.Mutex
	events []broadcastEvent
}

func (b *mockBroadcaster) Broadcast(event string, data interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, broadcastEvent{Event: event, Data: data})
}

type mockLocker struct {
	held     bool
	failWith error
	acquired int
	released int
}

func (l *mockLocker) Lock(_ context.Context, _ string, _ time.Duration) (func(), error) {
	if l.failWith != nil {
		return nil, l.failWith
	}
	if l.held {
		return nil, pkgredis.ErrLockHeld
	}
	l.acquired++
	return func() { l.released++ }, nil
}

type mockMailer struct {
	sent   []mailer.Message
	failTo map[string]bool
}

var errMailRejected = errors.New("mailbox unavailable")

func (m *mockMailer) Send(_ context.Context, msg mailer.Message) error {
	if m.failTo[msg.To] {
		return errMailRejected
	}
	m.sent = append(m.sent, msg)
	return nil
}

type mockBlacklist struct {
	jti string
	ttl time.Duration
}

func (b *mockBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	b.jti, b.ttl = jti, ttl
	return nil
}
