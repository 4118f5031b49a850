package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/soundrift/soundrift/internal/common"
	"github.com/soundrift/soundrift/internal/config"
	"github.com/soundrift/soundrift/internal/httpapi/handlers"
	"github.com/soundrift/soundrift/internal/httpapi/middleware"
	"github.com/soundrift/soundrift/internal/models"
	"github.com/soundrift/soundrift/internal/support"
	"github.com/soundrift/soundrift/internal/track"
)

func NewRouter(db *gorm.DB, cfg config.Config, log zerolog.Logger, trackSvc *track.Service, mgr *support.Manager) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Recovery(log))

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	h := handlers.NewHandler(db, cfg, log, trackSvc, mgr)

	r.GET("/ping", h.Ping)

	// auth
	r.POST("/users", h.Signup)
	r.POST("/login", h.Login)

	authed := r.Group("/")
	authed.Use(middleware.AuthRequired(cfg.JWTSecret))
	authed.GET("/me", h.Me)

	// track catalog (JWT required)
	authed.POST("/tracks", h.CreateTrack)
	authed.GET("/tracks", h.ListMyTracks)
	authed.GET("/tracks/:id", h.GetTrack)
	authed.PATCH("/tracks/:id", h.UpdateTrack)
	authed.DELETE("/tracks/:id", h.DeleteTrack)

	// live chat (JWT required)
	authed.POST("/support/chat", h.StartChat)
	authed.GET("/support/chat/:session_id", h.GetChatSession)
	authed.POST("/support/chat/:session_id/messages", h.SendChatMessage)
	authed.POST("/support/chat/:session_id/human", h.RequestHumanSupport)
	authed.POST("/support/chat/:session_id/close", h.CloseChatSession)

	// support-agent dashboard
	agents := authed.Group("/support")
	agents.Use(middleware.RequireRole(models.RoleSupport, models.RoleAdmin))
	agents.GET("/queue", h.SupportQueue)
	agents.POST("/accept", h.AcceptChat)
	agents.POST("/reply", h.SupportReply)
	agents.POST("/status", h.UpdateAgentStatus)
	agents.GET("/sessions", h.AgentSessions)

	// admin/owner back-office
	admin := authed.Group("/admin")
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	admin.GET("/users", h.ListUsers)
	admin.GET("/tracks", h.AdminListTracks)
	admin.POST("/tracks/:id/reject", h.AdminRejectTrack)
	admin.POST("/tracks/:id/status", h.AdminOverrideStatus)
	admin.POST("/tracks/:id/stats", h.AdminRecordStats)
	admin.GET("/agents", h.ListAgents)

	return r
}
