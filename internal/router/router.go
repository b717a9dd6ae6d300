package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/examforge/examforge-backend/internal/config"
	"github.com/examforge/examforge-backend/internal/handler"
	"github.com/examforge/examforge-backend/internal/middleware"
	"github.com/examforge/examforge-backend/internal/response"
	"github.com/examforge/examforge-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Session   *handler.SessionHandler
	ExamAdmin *handler.ExamAdminHandler
	Clock     *handler.ClockHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	tokenService *service.TokenService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Participant routes. Session ownership is enforced per handler on
	// top of the JWT check here.
	participantAPI := router.Group("/api/v1")
	participantAPI.Use(middleware.RequireParticipantJWT(tokenService))
	{
		participantAPI.POST("/exams/:exam_id/start", handlers.Session.StartSession)
		participantAPI.GET("/session/status", handlers.Session.GetStatus)
		participantAPI.GET("/sessions/:session_id/questions", handlers.Session.ListQuestions)
		participantAPI.POST("/sessions/:session_id/answers", handlers.Session.SubmitAnswer)
		participantAPI.POST("/sessions/:session_id/finish", handlers.Session.Finish)
	}

	// WebSocket routes authenticate via ?token= since browsers cannot
	// set headers on WS upgrade requests.
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireParticipantWSAuth(tokenService))
	{
		ws.GET("/sessions/:session_id/clock", handlers.Clock.SessionClockStream)
	}

	// Admin authoring and reporting routes.
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(tokenService))
	{
		adminAPI.GET("/exams", handlers.ExamAdmin.ListExams)
		adminAPI.POST("/exams", handlers.ExamAdmin.CreateExam)
		adminAPI.GET("/exams/:id", handlers.ExamAdmin.GetExam)
		adminAPI.PUT("/exams/:id", handlers.ExamAdmin.UpdateExam)
		adminAPI.DELETE("/exams/:id", handlers.ExamAdmin.DeleteExam)
		adminAPI.POST("/exams/:id/questions", handlers.ExamAdmin.AppendQuestion)
		adminAPI.GET("/exams/:id/attempts", handlers.ExamAdmin.ListFinishedAttempts)
	}

	return router
}
