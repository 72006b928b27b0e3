package model

// Student 学生，对应 students
// QRCode 为扫码签到使用的不透明字符串，创建时自动生成
type Student struct {
	StudentID     string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"student_id"`
	StudentNumber string `gorm:"type:varchar(20);not null;uniqueIndex"          json:"student_number"`
	FirstName     string `gorm:"type:varchar(100);not null"                     json:"first_name"`
	LastName      string `gorm:"type:varchar(100);not null"                     json:"last_name"`
	Email         string `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	Department    string `gorm:"type:varchar(100);not null;default:''"          json:"department"`
	QRCode        string `gorm:"column:qr_code;type:varchar(100);not null;uniqueIndex" json:"qr_code"`
	VersionedModel
}

// TableName 指定表名
func (Student) TableName() string { return "students" }

// FullName 展示用姓名
func (s *Student) FullName() string {
	return s.FirstName + " " + s.LastName
}
