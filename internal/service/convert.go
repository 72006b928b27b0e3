package service

import (
	"github.com/erciktiburak/school-attendance-api/internal/dto"
	"github.com/erciktiburak/school-attendance-api/internal/model"
)

// ── model → dto 转换 ──

func toUserResponse(u *model.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:       u.UserID,
		Username: u.Username,
		Email:    u.Email,
		Role:     string(u.Role),
	}
}

func toStudentResponse(s *model.Student) *dto.StudentResponse {
	return &dto.StudentResponse{
		ID:            s.StudentID,
		StudentNumber: s.StudentNumber,
		FirstName:     s.FirstName,
		LastName:      s.LastName,
		Email:         s.Email,
		Department:    s.Department,
		QRCode:        s.QRCode,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
		Version:       s.Version,
	}
}

func toStudentBrief(s *model.Student) dto.StudentBrief {
	return dto.StudentBrief{
		ID:            s.StudentID,
		Name:          s.FullName(),
		StudentNumber: s.StudentNumber,
		Department:    s.Department,
	}
}

func toTeacherResponse(t *model.Teacher) *dto.TeacherResponse {
	return &dto.TeacherResponse{
		ID:             t.TeacherID,
		EmployeeNumber: t.EmployeeNumber,
		FirstName:      t.FirstName,
		LastName:       t.LastName,
		Email:          t.Email,
		Department:     t.Department,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
		Version:        t.Version,
	}
}

func toCourseResponse(c *model.Course) *dto.CourseResponse {
	resp := &dto.CourseResponse{
		ID:         c.CourseID,
		CourseCode: c.CourseCode,
		CourseName: c.CourseName,
		Department: c.Department,
		Credits:    c.Credits,
		Schedule:   c.Schedule,
		Location:   c.Location,
		TeacherID:  c.TeacherID,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
		Version:    c.Version,
	}
	if c.Teacher != nil {
		resp.Teacher = &dto.TeacherBrief{ID: c.Teacher.TeacherID, Name: c.Teacher.FullName()}
	}
	return resp
}

func toAttendanceResponse(r *model.AttendanceRecord) dto.AttendanceResponse {
	resp := dto.AttendanceResponse{
		ID:           r.AttendanceID,
		StudentID:    r.StudentID,
		CheckInTime:  r.CheckInTime,
		CheckOutTime: r.CheckOutTime,
		Location:     r.Location,
		Status:       string(r.Status),
	}
	if r.Student != nil {
		resp.StudentName = r.Student.FullName()
		resp.StudentNumber = r.Student.StudentNumber
		resp.Department = r.Student.Department
	}
	return resp
}

func toAttendanceResponses(records []model.AttendanceRecord) []dto.AttendanceResponse {
	result := make([]dto.AttendanceResponse, 0, len(records))
	for i := range records {
		result = append(result, toAttendanceResponse(&records[i]))
	}
	return result
}
