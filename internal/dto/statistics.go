package dto

// ── 统计模块 DTO ──
// 比率均为百分比，保留两位小数；分母为 0 时为 0

// DashboardStats 首页看板
type DashboardStats struct {
	TotalStudents   int     `json:"total_students"`
	TodayAttendance int     `json:"today_attendance"`
	ActiveCheckIns  int     `json:"active_check_ins"`
	AttendanceRate  float64 `json:"attendance_rate"`
	Date            string  `json:"date"`
}

// DailyStat 单日计数
type DailyStat struct {
	Date    string `json:"date"`
	Count   int    `json:"count"`
	Present int    `json:"present"`
	Late    int    `json:"late"`
}

// WeeklyStats 本周（周日起）统计
type WeeklyStats struct {
	WeekStart       string      `json:"week_start"`
	WeekEnd         string      `json:"week_end"`
	DailyStats      []DailyStat `json:"daily_stats"`
	TotalAttendance int         `json:"total_attendance"`
}

// MonthlyStats 本月统计
type MonthlyStats struct {
	Month             string      `json:"month"`
	MonthStart        string      `json:"month_start"`
	MonthEnd          string      `json:"month_end"`
	TotalStudents     int         `json:"total_students"`
	UniqueAttendees   int         `json:"unique_attendees"`
	ParticipationRate float64     `json:"participation_rate"`
	DailyStats        []DailyStat `json:"daily_stats"`
	TotalAttendance   int         `json:"total_attendance"`
}

// StudentStats 单个学生统计
type StudentStats struct {
	Student                StudentBrief `json:"student"`
	TotalAttendance        int          `json:"total_attendance"`
	MonthlyAttendance      int          `json:"monthly_attendance"`
	PresentCount           int          `json:"present_count"`
	LateCount              int          `json:"late_count"`
	AttendanceRate         float64      `json:"attendance_rate"`
	AverageDurationMinutes float64      `json:"average_duration_minutes"`
}

// DepartmentStats 院系统计
type DepartmentStats struct {
	Department      string  `json:"department"`
	TotalStudents   int     `json:"total_students"`
	TodayAttendance int     `json:"today_attendance"`
	TotalAttendance int     `json:"total_attendance"`
	AttendanceRate  float64 `json:"attendance_rate"`
}

// TeacherDashboard 教师看板
type TeacherDashboard struct {
	TotalStudents   int                  `json:"total_students"`
	TodayAttendance int                  `json:"today_attendance"`
	LateCount       int                  `json:"late_count"`
	AbsentCount     int                  `json:"absent_count"`
	LateStudents    []AttendanceResponse `json:"late_students"`
	AbsentStudents  []StudentResponse    `json:"absent_students"`
	Date            string               `json:"date"`
}

// AtRiskStudent 出勤预警学生
type AtRiskStudent struct {
	ID              string `json:"id"`
	StudentNumber   string `json:"student_number"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Department      string `json:"department"`
	Email           string `json:"email"`
	AttendanceCount int    `json:"attendance_count"`
	LateCount       int    `json:"late_count"`
}

// HourlyCount 按小时签到计数
type HourlyCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// DailySummary 每日汇总
type DailySummary struct {
	Date            string               `json:"date"`
	TotalStudents   int                  `json:"total_students"`
	PresentCount    int                  `json:"present_count"`
	LateCount       int                  `json:"late_count"`
	AbsentCount     int                  `json:"absent_count"`
	AttendanceRate  float64              `json:"attendance_rate"`
	HourlyBreakdown []HourlyCount        `json:"hourly_breakdown"`
	RecentCheckIns  []AttendanceResponse `json:"recent_check_ins"`
}
