package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/mentorhub/internal/app/controllers"
	"github.com/yigit/mentorhub/internal/app/models"
	"github.com/yigit/mentorhub/internal/app/models/dto"
	"github.com/yigit/mentorhub/internal/middleware"
)

// Controllers groups every HTTP controller the router mounts
type Controllers struct {
	Auth       *controllers.AuthController
	User       *controllers.UserController
	Period     *controllers.PeriodController
	Ledger     *controllers.LedgerController
	Attendance *controllers.AttendanceController
	Event      *controllers.EventController
	Syllabus   *controllers.SyllabusController
	Wish       *controllers.WishController
	Report     *controllers.ReportController
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, c Controllers, authMiddleware *middleware.AuthMiddleware) {
	v1 := router.Group("/api/v1")

	admin := authMiddleware.RoleRequired(models.RoleAdmin)
	staff := authMiddleware.RoleRequired(models.RoleAdmin, models.RoleTutor, models.RoleAssistant)
	teaching := authMiddleware.RoleRequired(models.RoleAdmin, models.RoleTutor)
	student := authMiddleware.RoleRequired(models.RoleStudent)

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/login", c.Auth.Login)
		auth.POST("/refresh", c.Auth.RefreshToken)
		auth.POST("/logout", c.Auth.Logout)
	}

	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		authenticated.GET("/auth/me", c.Auth.Me)
		authenticated.PUT("/auth/password", c.Auth.ChangePassword)
		authenticated.GET("/dashboard", c.Report.Dashboard)

		users := authenticated.Group("/users", admin)
		{
			users.POST("", c.User.CreateUser)
			users.GET("", c.User.ListUsers)
			users.GET("/:id", c.User.GetUser)
			users.PUT("/:id", c.User.UpdateUser)
			users.DELETE("/:id", c.User.DeactivateUser)
			users.PUT("/:id/tutor", c.User.AssignTutor)
		}

		// Students may read their own statements; scope is enforced in the services
		students := authenticated.Group("/students")
		{
			students.GET("", staff, c.User.ListStudents)
			students.GET("/:id", c.User.GetStudent)
			students.GET("/:id/points", c.Ledger.PointsStatement)
			students.GET("/:id/experience", c.Ledger.ExperienceStatement)
		}

		periods := authenticated.Group("/periods")
		{
			periods.GET("", c.Period.ListPeriods)
			periods.GET("/active", c.Period.GetActivePeriod)
			periods.POST("", admin, c.Period.CreatePeriod)
			periods.POST("/:id/activate", admin, c.Period.ActivatePeriod)
		}

		reasons := authenticated.Group("/point-reasons")
		{
			reasons.GET("", staff, c.Period.ListReasons)
			reasons.POST("", admin, c.Period.CreateReason)
			reasons.PUT("/:id", admin, c.Period.UpdateReason)
			reasons.DELETE("/:id", admin, c.Period.DeactivateReason)
		}

		authenticated.POST("/points", staff, c.Ledger.AwardPoints)
		authenticated.POST("/experience", teaching, c.Ledger.AwardExperience)
		authenticated.POST("/admin/points/reconcile", admin, c.Ledger.Reconcile)
		authenticated.GET("/leaderboard", c.Ledger.Leaderboard)

		attendance := authenticated.Group("/attendance")
		{
			attendance.POST("/check-in", student, c.Attendance.CheckIn)

			sessions := attendance.Group("/sessions", staff)
			{
				sessions.POST("", teaching, c.Attendance.CreateSession)
				sessions.GET("", c.Attendance.ListSessions)
				sessions.GET("/:id", c.Attendance.GetSession)
				sessions.POST("/:id/regenerate-token", teaching, c.Attendance.RegenerateToken)
				sessions.POST("/:id/close", teaching, c.Attendance.CloseSession)
				sessions.GET("/:id/qr", c.Attendance.SessionQR)
				sessions.GET("/:id/records", c.Attendance.ListRecords)
				sessions.POST("/:id/records", c.Attendance.MarkManual)
				sessions.GET("/:id/live", c.Attendance.Live)
			}
		}

		events := authenticated.Group("/events")
		{
			events.GET("", c.Event.ListEvents)
			events.GET("/:id", c.Event.GetEvent)
			events.POST("", teaching, c.Event.CreateEvent)
			events.PUT("/:id", teaching, c.Event.UpdateEvent)
			events.POST("/:id/register", student, c.Event.Register)
			events.DELETE("/:id/register", student, c.Event.Unregister)
			events.GET("/:id/participants", staff, c.Event.ListParticipants)
			events.POST("/:id/participants/:studentId/attend", staff, c.Event.MarkAttended)
		}

		syllabi := authenticated.Group("/syllabi")
		{
			syllabi.GET("", staff, c.Syllabus.ListSyllabi)
			syllabi.GET("/:id", staff, c.Syllabus.GetSyllabus)
			syllabi.POST("", admin, c.Syllabus.CreateSyllabus)
			syllabi.POST("/:id/lessons", admin, c.Syllabus.AddLesson)
			syllabi.PUT("/lessons/:lessonId", admin, c.Syllabus.UpdateLesson)
			syllabi.DELETE("/lessons/:lessonId", admin, c.Syllabus.DeleteLesson)
		}

		classrooms := authenticated.Group("/classrooms", staff)
		{
			classrooms.POST("", admin, c.Syllabus.CreateClassroom)
			classrooms.GET("", c.Syllabus.ListClassrooms)
			classrooms.GET("/:id/progress", c.Syllabus.GetProgress)
			classrooms.PUT("/:id/progress/:lessonId", c.Syllabus.UpdateProgress)
		}

		wishes := authenticated.Group("/wishes")
		{
			wishes.POST("", student, c.Wish.CreateWish)
			wishes.GET("", c.Wish.ListWishes)
			wishes.GET("/:id", c.Wish.GetWish)
			wishes.POST("/:id/review", teaching, c.Wish.ReviewWish)
			wishes.POST("/:id/fulfill", teaching, c.Wish.FulfillWish)
		}

		weekly := authenticated.Group("/weekly-reports", teaching)
		{
			weekly.PUT("", c.Report.UpsertWeeklyReport)
			weekly.GET("", c.Report.ListWeeklyReports)
			weekly.GET("/:id", c.Report.GetWeeklyReport)
		}

		authenticated.GET("/reports/performance", c.Report.Performance)
	}

	// Health check endpoint (public)
	v1.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.NewAPIResponse(gin.H{"status": "ok"}))
	})
}
