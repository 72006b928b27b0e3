package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/erciktiburak/school-attendance-api/internal/dto"
	"github.com/erciktiburak/school-attendance-api/internal/model"
	"github.com/erciktiburak/school-attendance-api/internal/realtime"
	pkgerrors "github.com/erciktiburak/school-attendance-api/pkg/errors"
)

const nineAM = 9 * time.Hour

func setupTestAttendanceService(now time.Time) (*attendanceService, *mockRepos, *mockBroadcaster, *mockLocker) {
	repos := newMockRepos()
	bc := &mockBroadcaster{}
	lk := &mockLocker{}
	svc := NewAttendanceService(repos.Repository, bc, lk, AttendanceRules{ClassStart: nineAM}, zap.NewNop()).(*attendanceService)
	svc.now = fixedClock(now)
	return svc, repos, bc, lk
}

// ── DetermineStatus ──

func TestDetermineStatus_Boundary(t *testing.T) {
	cases := []struct {
		name string
		t    time.Time
		want model.AttendanceStatus
	}{
		{"早于上课", at(8, 59, 59), model.StatusPresent},
		{"恰好上课", at(9, 0, 0), model.StatusPresent},
		{"晚一秒", at(9, 0, 1), model.StatusLate},
		{"午后", at(14, 30, 0), model.StatusLate},
		{"零点", at(0, 0, 0), model.StatusPresent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetermineStatus(tc.t, nineAM); got != tc.want {
				t.Errorf("期望 %s，实际: %s", tc.want, got)
			}
		})
	}
}

func TestDetermineStatus_NonUTCInput(t *testing.T) {
	// 本地 11:30 (+03:00) 即 UTC 08:30
	loc := time.FixedZone("TRT", 3*60*60)
	local := time.Date(2026, 3, 4, 11, 30, 0, 0, loc)
	if got := DetermineStatus(local, nineAM); got != model.StatusPresent {
		t.Errorf("应按 UTC 判定为 Present，实际: %s", got)
	}
}

// ── CheckIn ──

func TestCheckIn_Success(t *testing.T) {
	svc, repos, bc, lk := setupTestAttendanceService(at(8, 45, 0))
	repos.addStudent("20230001", "Ahmet", "Yılmaz", "Computer Engineering")

	resp, err := svc.CheckIn(context.Background(), &dto.CheckInRequest{QRCode: "qr-20230001", Location: "Main Gate"})
	if err != nil {
		t.Fatalf("CheckIn 应成功，但返回错误: %v", err)
	}
	if resp.StudentName != "Ahmet Yılmaz" {
		t.Errorf("期望 StudentName=Ahmet Yılmaz，实际=%s", resp.StudentName)
	}
	if resp.Attendance.CheckOutTime != nil {
		t.Error("签到后签退时间应为空")
	}
	if resp.Attendance.Status != string(model.StatusPresent) {
		t.Errorf("期望 Present，实际=%s", resp.Attendance.Status)
	}
	if resp.Attendance.Location != "Main Gate" {
		t.Errorf("期望 Location=Main Gate，实际=%s", resp.Attendance.Location)
	}

	if len(bc.events) != 1 || bc.events[0].Event != realtime.EventStudentCheckedIn {
		t.Fatalf("期望推送一次 StudentCheckedIn，实际: %+v", bc.events)
	}
	data := bc.events[0].Data.(map[string]interface{})
	if data["studentNumber"] != "20230001" || data["status"] != "Present" {
		t.Errorf("推送内容不符: %+v", data)
	}
	if lk.acquired != 1 || lk.released != 1 {
		t.Errorf("锁应获取并释放一次，实际 acquired=%d released=%d", lk.acquired, lk.released)
	}
}

func TestCheckIn_Late(t *testing.T) {
	svc, repos, _, _ := setupTestAttendanceService(at(9, 0, 1))
	repos.addStudent("20230001", "Ahmet", "Yılmaz", "CE")

	resp, err := svc.CheckIn(context.Background(), &dto.CheckInRequest{QRCode: "qr-20230001"})
	if err != nil {
		t.Fatalf("CheckIn 应成功: %v", err)
	}
	if resp.Attendance.Status != string(model.StatusLate) {
		t.Errorf("期望 Late，实际=%s", resp.Attendance.Status)
	}
}

func TestCheckIn_InvalidQRCode(t *testing.T) {
	svc, _, bc, _ := setupTestAttendanceService(at(8, 0, 0))

	_, err := svc.CheckIn(context.Background(), &dto.CheckInRequest{QRCode: "unknown"})
	if !errors.Is(err, ErrInvalidQRCode) {
		t.Errorf("期望 ErrInvalidQRCode，实际: %v", err)
	}
	if pkgerrors.KindOf(err) != pkgerrors.KindNotFound {
		t.Error("无效扫码串应归类为 NotFound")
	}
	if len(bc.events) != 0 {
		t.Error("失败时不应推送")
	}
}

func TestCheckIn_AlreadyCheckedIn(t *testing.T) {
	svc, repos, bc, _ := setupTestAttendanceService(at(8, 0, 0))
	repos.addStudent("20230001", "Ahmet", "Yılmaz", "CE")
	req := &dto.CheckInRequest{QRCode: "qr-20230001"}

	if _, err := svc.CheckIn(context.Background(), req); err != nil {
		t.Fatalf("首次签到应成功: %v", err)
	}
	svc.now = fixedClock(at(10, 0, 0))
	_, err := svc.CheckIn(context.Background(), req)
	if !errors.Is(err, ErrAlreadyCheckedIn) {
		t.Errorf("期望 ErrAlreadyCheckedIn，实际: %v", err)
	}
	if pkgerrors.KindOf(err) != pkgerrors.KindConflict {
		t.Error("重复签到应归类为 Conflict")
	}
	if len(bc.events) != 1 {
		t.Errorf("只应推送一次，实际 %d 次", len(bc.events))
	}
}

func TestCheckIn_OpenSessionFromYesterdayDoesNotBlock(t *testing.T) {
	svc, repos, _, _ := setupTestAttendanceService(at(8, 0, 0))
	st := repos.addStudent("20230001", "Ahmet", "Yılmaz", "CE")
	repos.attendance.add(st.StudentID, at(8, 0, 0).AddDate(0, 0, -1), nil, model.StatusPresent)

	if _, err := svc.CheckIn(context.Background(), &dto.CheckInRequest{QRCode: "qr-20230001"}); err != nil {
		t.Errorf("前一天未签退不应影响今天签到: %v", err)
	}
}

func TestCheckIn_AgainAfterCheckOut(t *testing.T) {
	svc, repos, _, _ := setupTestAttendanceService(at(8, 0, 0))
	repos.addStudent("20230001", "Ahmet", "Yılmaz", "CE")
	ctx := context.Background()

	if _, err := svc.CheckIn(ctx, &dto.CheckInRequest{QRCode: "qr-20230001"}); err != nil {
		t.Fatalf("签到失败: %v", err)
	}
	svc.now = fixedClock(at(12, 0, 0))
	if _, err := svc.CheckOut(ctx, &dto.CheckOutRequest{QRCode: "qr-20230001"}); err != nil {
		t.Fatalf("签退失败: %v", err)
	}
	svc.now = fixedClock(at(13, 0, 0))
	if _, err := svc.CheckIn(ctx, &dto.CheckInRequest{QRCode: "qr-20230001"}); err != nil {
		t.Errorf("签退后应可再次签到: %v", err)
	}
}

func TestCheckIn_LockHeld(t *testing.T) {
	svc, repos, _, lk := setupTestAttendanceService(at(8, 0, 0))
	repos.addStudent("20230001", "Ahmet", "Yılmaz", "CE")
	lk.held = true

	_, err := svc.CheckIn(context.Background(), &dto.CheckInRequest{QRCode: "qr-20230001"})
	if !errors.Is(err, ErrCheckInInProgress) {
		t.Errorf("期望 ErrCheckInInProgress，实际: %v", err)
	}
	if len(repos.attendance.records) != 0 {
		t.Error("未获得锁时不应写入记录")
	}
}

func TestCheckIn_LockBackendDown(t *testing.T) {
	svc, repos, _, lk := setupTestAttendanceService(at(8, 0, 0))
	repos.addStudent("20230001", "Ahmet", "Yılmaz", "CE")
	lk.failWith = errors.New("connection refused")

	if _, err := svc.CheckIn(context.Background(), &dto.CheckInRequest{QRCode: "qr-20230001"}); err != nil {
		t.Errorf("锁服务故障时应继续签到，实际: %v", err)
	}
}

func TestCheckIn_NilBroadcasterAndLocker(t *testing.T) {
	repos := newMockRepos()
	repos.addStudent("20230001", "Ahmet", "Yılmaz", "CE")
	svc := NewAttendanceService(repos.Repository, nil, nil, AttendanceRules{ClassStart: nineAM}, zap.NewNop())

	if _, err := svc.CheckIn(context.Background(), &dto.CheckInRequest{QRCode: "qr-20230001"}); err != nil {
		t.Errorf("无推送与锁时应正常签到: %v", err)
	}
}

// ── CheckOut ──

func TestCheckOut_NoActiveCheckIn(t *testing.T) {
	svc, repos, _, _ := setupTestAttendanceService(at(17, 0, 0))
	repos.addStudent("20230001", "Ahmet", "Yılmaz", "CE")

	_, err := svc.CheckOut(context.Background(), &dto.CheckOutRequest{QRCode: "qr-20230001"})
	if !errors.Is(err, ErrNoActiveCheckIn) {
		t.Errorf("期望 ErrNoActiveCheckIn，实际: %v", err)
	}
	if pkgerrors.KindOf(err) != pkgerrors.KindConflict {
		t.Error("无签到记录应归类为 Conflict")
	}
}

func TestCheckOut_DurationRounded(t *testing.T) {
	svc, repos, bc, _ := setupTestAttendanceService(at(8, 30, 0))
	repos.addStudent("20230001", "Ahmet", "Yılmaz", "CE")
	ctx := context.Background()

	if _, err := svc.CheckIn(ctx, &dto.CheckInRequest{QRCode: "qr-20230001"}); err != nil {
		t.Fatalf("签到失败: %v", err)
	}
	// 90 分 20 秒 = 90.333… 分钟
	svc.now = fixedClock(at(10, 0, 20))
	resp, err := svc.CheckOut(ctx, &dto.CheckOutRequest{QRCode: "qr-20230001"})
	if err != nil {
		t.Fatalf("CheckOut 应成功: %v", err)
	}
	if resp.DurationMinutes != 90.33 {
		t.Errorf("期望 DurationMinutes=90.33，实际=%v", resp.DurationMinutes)
	}
	if !resp.CheckOutTime.Equal(at(10, 0, 20)) {
		t.Errorf("签退时间不符: %v", resp.CheckOutTime)
	}

	last := bc.events[len(bc.events)-1]
	if last.Event != realtime.EventStudentCheckedOut {
		t.Errorf("期望推送 StudentCheckedOut，实际: %s", last.Event)
	}
	if d := last.Data.(map[string]interface{})["durationMinutes"]; d != 90.33 {
		t.Errorf("推送时长不符: %v", d)
	}

	if _, err := svc.CheckOut(ctx, &dto.CheckOutRequest{QRCode: "qr-20230001"}); !errors.Is(err, ErrNoActiveCheckIn) {
		t.Errorf("重复签退期望 ErrNoActiveCheckIn，实际: %v", err)
	}
}

func TestCheckOut_ClockSkewClampedToZero(t *testing.T) {
	svc, repos, _, _ := setupTestAttendanceService(at(8, 30, 0))
	st := repos.addStudent("20230001", "Ahmet", "Yılmaz", "CE")
	repos.attendance.add(st.StudentID, at(9, 0, 0), nil, model.StatusPresent)

	resp, err := svc.CheckOut(context.Background(), &dto.CheckOutRequest{QRCode: "qr-20230001"})
	if err != nil {
		t.Fatalf("CheckOut 应成功: %v", err)
	}
	if resp.DurationMinutes != 0 {
		t.Errorf("时长不应为负，实际=%v", resp.DurationMinutes)
	}
}

// ── MarkAbsent ──

func TestMarkAbsent_Success(t *testing.T) {
	svc, repos, _, _ := setupTestAttendanceService(at(11, 0, 0))
	st := repos.addStudent("20230002", "Ayşe", "Demir", "CE")

	resp, err := svc.MarkAbsent(context.Background(), &dto.MarkAbsentRequest{StudentID: st.StudentID})
	if err != nil {
		t.Fatalf("MarkAbsent 应成功: %v", err)
	}
	if resp.Status != string(model.StatusAbsent) {
		t.Errorf("期望 Absent，实际=%s", resp.Status)
	}
	if resp.Location != "Marked by teacher" {
		t.Errorf("期望 Location=Marked by teacher，实际=%s", resp.Location)
	}
}

func TestMarkAbsent_Excused(t *testing.T) {
	svc, repos, _, _ := setupTestAttendanceService(at(11, 0, 0))
	st := repos.addStudent("20230002", "Ayşe", "Demir", "CE")

	resp, err := svc.MarkAbsent(context.Background(), &dto.MarkAbsentRequest{StudentID: st.StudentID, IsExcused: true})
	if err != nil {
		t.Fatalf("MarkAbsent 应成功: %v", err)
	}
	if resp.Status != string(model.StatusExcused) {
		t.Errorf("期望 Excused，实际=%s", resp.Status)
	}
}

func TestMarkAbsent_AlreadyHasRecord(t *testing.T) {
	svc, repos, _, _ := setupTestAttendanceService(at(11, 0, 0))
	st := repos.addStudent("20230002", "Ayşe", "Demir", "CE")
	out := at(10, 0, 0)
	repos.attendance.add(st.StudentID, at(8, 0, 0), &out, model.StatusPresent)

	_, err := svc.MarkAbsent(context.Background(), &dto.MarkAbsentRequest{StudentID: st.StudentID})
	if !errors.Is(err, ErrAlreadyRecordedToday) {
		t.Errorf("期望 ErrAlreadyRecordedToday，实际: %v", err)
	}
}

func TestMarkAbsent_StudentNotFound(t *testing.T) {
	svc, _, _, _ := setupTestAttendanceService(at(11, 0, 0))

	_, err := svc.MarkAbsent(context.Background(), &dto.MarkAbsentRequest{StudentID: "missing"})
	if !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("期望 ErrStudentNotFound，实际: %v", err)
	}
}

// ── 查询 ──

func TestGetTodayAttendance_Counts(t *testing.T) {
	svc, repos, _, _ := setupTestAttendanceService(at(12, 0, 0))
	a := repos.addStudent("1", "A", "A", "CE")
	b := repos.addStudent("2", "B", "B", "CE")
	c := repos.addStudent("3", "C", "C", "CE")
	out := at(11, 0, 0)
	repos.attendance.add(a.StudentID, at(8, 0, 0), &out, model.StatusPresent)
	repos.attendance.add(b.StudentID, at(9, 30, 0), nil, model.StatusLate)
	repos.attendance.add(c.StudentID, at(9, 0, 0).AddDate(0, 0, -1), nil, model.StatusPresent)

	resp, err := svc.GetTodayAttendance(context.Background())
	if err != nil {
		t.Fatalf("GetTodayAttendance 失败: %v", err)
	}
	if resp.Date != "2026-03-04" {
		t.Errorf("期望 Date=2026-03-04，实际=%s", resp.Date)
	}
	if resp.TotalRecords != 2 || resp.CheckedIn != 1 || resp.CheckedOut != 1 {
		t.Errorf("计数不符: total=%d in=%d out=%d", resp.TotalRecords, resp.CheckedIn, resp.CheckedOut)
	}
	if resp.Records[0].StudentNumber != "2" {
		t.Errorf("记录应按签到时间倒序，首条为 %s", resp.Records[0].StudentNumber)
	}
}

func TestGetAttendanceByDate_InvalidDate(t *testing.T) {
	svc, _, _, _ := setupTestAttendanceService(at(12, 0, 0))

	_, err := svc.GetAttendanceByDate(context.Background(), "04/03/2026")
	if !errors.Is(err, ErrInvalidDate) {
		t.Errorf("期望 ErrInvalidDate，实际: %v", err)
	}
}

func TestGetAttendanceByDate_Filters(t *testing.T) {
	svc, repos, _, _ := setupTestAttendanceService(at(12, 0, 0))
	a := repos.addStudent("1", "A", "A", "CE")
	repos.attendance.add(a.StudentID, at(8, 0, 0).AddDate(0, 0, -1), nil, model.StatusPresent)
	repos.attendance.add(a.StudentID, at(8, 0, 0), nil, model.StatusPresent)

	resp, err := svc.GetAttendanceByDate(context.Background(), "2026-03-03")
	if err != nil {
		t.Fatalf("GetAttendanceByDate 失败: %v", err)
	}
	if resp.TotalRecords != 1 || resp.Date != "2026-03-03" {
		t.Errorf("期望 2026-03-03 一条记录，实际 %s %d 条", resp.Date, resp.TotalRecords)
	}
}
