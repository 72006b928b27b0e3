package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/erciktiburak/school-attendance-api/config"
	"github.com/erciktiburak/school-attendance-api/internal/api/handler"
	"github.com/erciktiburak/school-attendance-api/internal/api/middleware"
	"github.com/erciktiburak/school-attendance-api/internal/model"
	"github.com/erciktiburak/school-attendance-api/pkg/jwt"
	"github.com/erciktiburak/school-attendance-api/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时 Token 黑名单与限流降级为放行
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db *gorm.DB, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	var (
		blacklist middleware.TokenChecker
		limiter   middleware.RateLimiter
	)
	if rdb != nil {
		blacklist = rdb
		limiter = rdb
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 / 指标 / 实时推送 ──
	r.GET("/health", func(c *gin.Context) {
		status := gin.H{"status": "ok", "redis": rdb != nil && rdb.Healthy(c.Request.Context())}
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status["status"] = "degraded"
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}
		c.JSON(http.StatusOK, status)
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/attendanceHub", h.Hub.Connect)

	staff := middleware.RoleAuth(model.RoleAdmin, model.RoleTeacher)
	adminOnly := middleware.RoleAuth(model.RoleAdmin)
	scanLimit := middleware.RateLimit(limiter, cfg.Server.CheckInPerMin, time.Minute)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
		}

		// 扫码签到（门禁终端，无需认证）
		attendance := v1.Group("/attendance")
		{
			attendance.POST("/checkin", scanLimit, h.Attendance.CheckIn)
			attendance.POST("/checkout", scanLimit, h.Attendance.CheckOut)
			attendance.GET("/student/:studentId", h.Attendance.StudentHistory)
			attendance.GET("/today", h.Attendance.Today)
			attendance.GET("/date/:date", h.Attendance.ByDate)
		}

		// 学生模块
		students := v1.Group("/students")
		{
			students.GET("", h.Student.List)
			students.POST("", h.Student.Create)
			students.GET("/qr/:code", h.Student.GetByQRCode)
			students.GET("/:id", h.Student.Get)
			students.PUT("/:id", h.Student.Update)
			students.DELETE("/:id", h.Student.Delete)
			students.GET("/:id/qrcode", h.Student.QRCode)
			students.GET("/:id/qrcode/base64", h.Student.QRCodeBase64)
		}

		// 统计模块
		statistics := v1.Group("/statistics")
		{
			statistics.GET("/dashboard", h.Statistics.Dashboard)
			statistics.GET("/weekly", h.Statistics.Weekly)
			statistics.GET("/monthly", h.Statistics.Monthly)
			statistics.GET("/student/:id", h.Statistics.Student)
			statistics.GET("/department/:department", h.Statistics.Department)
		}

		// 导出模块
		export := v1.Group("/export")
		{
			export.GET("/attendance", h.Export.ExportAttendance)
			export.GET("/students", h.Export.ExportStudents)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, blacklist))
		{
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.POST("/students/import", adminOnly, h.Student.Import)

			// 教师模块
			teachers := authorized.Group("/teachers")
			{
				teachers.GET("", h.Teacher.List)
				teachers.GET("/:id", h.Teacher.Get)
				teachers.POST("", adminOnly, h.Teacher.Create)
				teachers.PUT("/:id", adminOnly, h.Teacher.Update)
				teachers.DELETE("/:id", adminOnly, h.Teacher.Delete)
			}

			// 课程模块
			courses := authorized.Group("/courses")
			{
				courses.GET("", h.Course.List)
				courses.GET("/:id", h.Course.Get)
				courses.GET("/:id/attendance", h.Course.ListAttendance)
				courses.GET("/:id/calendar.ics", h.Course.Calendar)
				courses.POST("", staff, h.Course.Create)
				courses.PUT("/:id", staff, h.Course.Update)
				courses.DELETE("/:id", adminOnly, h.Course.Delete)
				courses.POST("/:id/enroll", staff, h.Course.Enroll)
				courses.DELETE("/:id/enroll/:studentId", staff, h.Course.Unenroll)
				courses.POST("/:id/attendance", staff, h.Course.MarkAttendance)
			}

			// 教师看板
			monitor := authorized.Group("/teacher", staff)
			{
				monitor.GET("/dashboard", h.Monitor.Dashboard)
				monitor.GET("/students/at-risk", h.Monitor.AtRisk)
				monitor.GET("/daily-summary", h.Monitor.DailySummary)
				monitor.POST("/mark-absent", h.Monitor.MarkAbsent)
			}

			// 邮件通知
			email := authorized.Group("/email", staff)
			{
				email.POST("/send-absent-notification", h.Email.SendAbsent)
				email.POST("/send-late-notification", h.Email.SendLate)
				email.POST("/send-weekly-report", h.Email.SendWeeklyReport)
				email.POST("/send-bulk-absent", h.Email.SendBulkAbsent)
			}
		}
	}

	return r
}
