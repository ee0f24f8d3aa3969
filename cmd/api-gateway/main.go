package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/schoolpanel/admin-api/internal/handler"
	"github.com/schoolpanel/admin-api/internal/middleware"
	"github.com/schoolpanel/admin-api/internal/models"
	"github.com/schoolpanel/admin-api/internal/repository"
	"github.com/schoolpanel/admin-api/internal/service"
	"github.com/schoolpanel/admin-api/pkg/cache"
	"github.com/schoolpanel/admin-api/pkg/clock"
	"github.com/schoolpanel/admin-api/pkg/config"
	"github.com/schoolpanel/admin-api/pkg/database"
	"github.com/schoolpanel/admin-api/pkg/logger"
	corsmiddleware "github.com/schoolpanel/admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/schoolpanel/admin-api/pkg/middleware/requestid"
	"github.com/schoolpanel/admin-api/pkg/storage"
)

// @title School Admin API
// @version 1.0.0
// @description Administration backend for teachers, students and attendance
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, dashboard caching disabled", "error", err)
		redisClient = nil
	}

	photoStore, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}

	clk := clock.New(cfg.Attendance.Timezone)
	validate := validator.New()

	teacherRepo := repository.NewTeacherRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	salaryRepo := repository.NewSalaryRepository(db)
	classroomRepo := repository.NewClassroomRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	historyRepo := repository.NewEnrollmentHistoryRepository(db)
	userRepo := repository.NewUserRepository(db)

	authSvc := service.NewAuthService(userRepo, cfg.JWT, clk, validate, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, userRepo, photoStore, validate, logr)
	metricsSvc := service.NewMetricsService()
	attendanceSvc := service.NewAttendanceService(attendanceRepo, teacherRepo, cfg.Attendance.Epoch, clk, validate, logr).WithMetrics(metricsSvc)
	salarySvc := service.NewSalaryService(salaryRepo, teacherRepo, clk, validate, logr)
	academicSvc := service.NewAcademicService(classroomRepo, subjectRepo, validate, logr)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, teacherRepo, subjectRepo, classroomRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, historyRepo, classroomRepo, clk, validate, logr)
	dashboardSvc := service.NewDashboardService(attendanceRepo, redisClient, cfg.Dashboard.CacheTTL, clk, logr).WithMetrics(metricsSvc)
	exportSvc := service.NewExportService(attendanceSvc, salarySvc, teacherRepo, logr)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := authSvc.SeedAdmin(ctx, cfg.Admin); err != nil {
		cancel()
		logr.Sugar().Fatalw("failed to seed admin account", "error", err)
	}
	cancel()

	authHandler := handler.NewAuthHandler(authSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc, cfg.Uploads.MaxFileSizeBytes)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc, dashboardSvc)
	salaryHandler := handler.NewSalaryHandler(salarySvc)
	academicHandler := handler.NewAcademicHandler(academicSvc, studentSvc)
	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Scrape)

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	authed.GET("/auth/me", authHandler.Me)
	authed.POST("/attendance/self", middleware.RequireRoles(models.RoleTeacher), attendanceHandler.MarkSelf)
	authed.GET("/attendance/self", middleware.RequireRoles(models.RoleTeacher), attendanceHandler.SelfLedger)

	admin := authed.Group("")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/teachers", teacherHandler.List)
		admin.POST("/teachers", teacherHandler.Create)
		admin.GET("/teachers/:id", teacherHandler.Get)
		admin.PUT("/teachers/:id", teacherHandler.Update)
		admin.DELETE("/teachers/:id", teacherHandler.Deactivate)
		admin.POST("/teachers/:id/photo", teacherHandler.UploadPhoto)
		admin.PUT("/teachers/:id/password", teacherHandler.ResetPassword)

		admin.POST("/teachers/:id/attendance", attendanceHandler.Record)
		admin.GET("/teachers/:id/attendance", attendanceHandler.View)
		admin.GET("/teachers/:id/attendance/ledger", attendanceHandler.Ledger)
		admin.GET("/teachers/:id/attendance/summary", attendanceHandler.Summary)
		admin.GET("/teachers/:id/attendance/export", exportHandler.Attendance)

		admin.POST("/teachers/:id/salary", salaryHandler.Record)
		admin.GET("/teachers/:id/salary", salaryHandler.Ledger)
		admin.GET("/teachers/:id/salary/export", exportHandler.Salary)

		admin.GET("/teachers/:id/assignments", assignmentHandler.ListByTeacher)
		admin.GET("/assignments", assignmentHandler.List)
		admin.POST("/assignments", assignmentHandler.Assign)
		admin.PUT("/assignments/:id", assignmentHandler.Reassign)
		admin.DELETE("/assignments/:id", assignmentHandler.Unassign)

		admin.GET("/students", studentHandler.List)
		admin.POST("/students", studentHandler.Create)
		admin.GET("/students/:id", studentHandler.Get)
		admin.PUT("/students/:id", studentHandler.Update)
		admin.DELETE("/students/:id", studentHandler.Delete)
		admin.GET("/students/:id/history", studentHandler.History)

		admin.GET("/classrooms", academicHandler.ListClassrooms)
		admin.POST("/classrooms", academicHandler.CreateClassroom)
		admin.GET("/classrooms/:id/sections", academicHandler.ListSections)
		admin.POST("/classrooms/:id/sections", academicHandler.CreateSection)
		admin.GET("/classrooms/:id/section-counts", academicHandler.SectionCounts)
		admin.GET("/subjects", academicHandler.ListSubjects)
		admin.POST("/subjects", academicHandler.CreateSubject)

		if cfg.Dashboard.Enabled {
			admin.GET("/dashboard", dashboardHandler.Summary)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
