package model

// Teacher 教师，对应 teachers
type Teacher struct {
	TeacherID      string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"teacher_id"`
	EmployeeNumber string `gorm:"type:varchar(20);not null;uniqueIndex"          json:"employee_number"`
	FirstName      string `gorm:"type:varchar(100);not null"                     json:"first_name"`
	LastName       string `gorm:"type:varchar(100);not null"                     json:"last_name"`
	Email          string `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	Department     string `gorm:"type:varchar(100);not null;default:''"          json:"department"`
	VersionedModel
}

// TableName 指定表名
func (Teacher) TableName() string { return "teachers" }

// FullName 展示用姓名
func (t *Teacher) FullName() string {
	return t.FirstName + " " + t.LastName
}
