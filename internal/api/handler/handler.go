package handler

import (
	"go.uber.org/zap"

	"github.com/erciktiburak/school-attendance-api/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth       *AuthHandler
	Student    *StudentHandler
	Teacher    *TeacherHandler
	Course     *CourseHandler
	Attendance *AttendanceHandler
	Statistics *StatisticsHandler
	Export     *ExportHandler
	Monitor    *MonitorHandler
	Email      *EmailHandler
	Hub        *HubHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, hub WSServer, logger *zap.Logger) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth),
		Student:    NewStudentHandler(svc.Student, svc.QRCode),
		Teacher:    NewTeacherHandler(svc.Teacher),
		Course:     NewCourseHandler(svc.Course),
		Attendance: NewAttendanceHandler(svc.Attendance),
		Statistics: NewStatisticsHandler(svc.Statistics),
		Export:     NewExportHandler(svc.Export),
		Monitor:    NewMonitorHandler(svc.Statistics, svc.Attendance),
		Email:      NewEmailHandler(svc.Email),
		Hub:        NewHubHandler(hub, logger),
	}
}
