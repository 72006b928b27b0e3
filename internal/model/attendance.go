package model

import "time"

// AttendanceRecord 签到流水，对应 attendance_records
// CheckOutTime 为空表示尚未签退；CheckInDate 为 CheckInTime 的 UTC 日期，
// 供部分唯一索引保证"同一学生同一天最多一条未签退记录"
type AttendanceRecord struct {
	AttendanceID string           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"attendance_id"`
	StudentID    string           `gorm:"type:uuid;not null"                             json:"student_id"`
	CheckInTime  time.Time        `gorm:"not null"                                       json:"check_in_time"`
	CheckOutTime *time.Time       `gorm:""                                               json:"check_out_time"`
	CheckInDate  time.Time        `gorm:"type:date;not null"                             json:"check_in_date"`
	Location     string           `gorm:"type:varchar(200);not null;default:''"          json:"location"`
	Status       AttendanceStatus `gorm:"type:varchar(20);not null"                      json:"status"`

	// 关联
	Student *Student `gorm:"foreignKey:StudentID;references:StudentID" json:"student,omitempty"`
}

// TableName 指定表名
func (AttendanceRecord) TableName() string { return "attendance_records" }

// DurationMinutes 签到时长（分钟）；未签退返回 false
func (r *AttendanceRecord) DurationMinutes() (float64, bool) {
	if r.CheckOutTime == nil {
		return 0, false
	}
	d := r.CheckOutTime.Sub(r.CheckInTime).Minutes()
	if d < 0 {
		d = 0
	}
	return d, true
}
