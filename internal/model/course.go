package model

import "time"

// Course 课程，对应 courses
// Schedule 为自由文本，形如 "Mon,Wed 09:00-10:30" 时可导出为日历
type Course struct {
	CourseID   string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"course_id"`
	CourseCode string  `gorm:"type:varchar(20);not null;uniqueIndex"          json:"course_code"`
	CourseName string  `gorm:"type:varchar(200);not null"                     json:"course_name"`
	Department string  `gorm:"type:varchar(100);not null;default:''"          json:"department"`
	Credits    int     `gorm:"not null;default:0"                             json:"credits"`
	Schedule   string  `gorm:"type:varchar(100);not null;default:''"          json:"schedule"`
	Location   string  `gorm:"type:varchar(100);not null;default:''"          json:"location"`
	TeacherID  *string `gorm:"type:uuid"                                      json:"teacher_id"`
	VersionedModel

	// 关联
	Teacher *Teacher `gorm:"foreignKey:TeacherID;references:TeacherID" json:"teacher,omitempty"`
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }

// CourseEnrollment 选课关系，对应 course_enrollments
type CourseEnrollment struct {
	EnrollmentID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"enrollment_id"`
	CourseID     string    `gorm:"type:uuid;not null"                             json:"course_id"`
	StudentID    string    `gorm:"type:uuid;not null"                             json:"student_id"`
	EnrolledAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"enrolled_at"`

	// 关联
	Student *Student `gorm:"foreignKey:StudentID;references:StudentID" json:"student,omitempty"`
}

// TableName 指定表名
func (CourseEnrollment) TableName() string { return "course_enrollments" }

// CourseAttendance 课堂点名，对应 course_attendances
// (course_id, student_id, date) 唯一
type CourseAttendance struct {
	CourseAttendanceID string           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"course_attendance_id"`
	CourseID           string           `gorm:"type:uuid;not null"                             json:"course_id"`
	StudentID          string           `gorm:"type:uuid;not null"                             json:"student_id"`
	Date               time.Time        `gorm:"type:date;not null"                             json:"date"`
	CheckInTime        time.Time        `gorm:"not null"                                       json:"check_in_time"`
	Status             AttendanceStatus `gorm:"type:varchar(20);not null"                      json:"status"`
	Notes              string           `gorm:"type:varchar(500);not null;default:''"          json:"notes"`

	// 关联
	Student *Student `gorm:"foreignKey:StudentID;references:StudentID" json:"student,omitempty"`
}

// TableName 指定表名
func (CourseAttendance) TableName() string { return "course_attendances" }
