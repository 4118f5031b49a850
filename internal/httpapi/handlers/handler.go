package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/soundrift/soundrift/internal/common"
	"github.com/soundrift/soundrift/internal/config"
	"github.com/soundrift/soundrift/internal/email"
	"github.com/soundrift/soundrift/internal/httpapi/middleware"
	"github.com/soundrift/soundrift/internal/support"
	"github.com/soundrift/soundrift/internal/track"
)

type Handler struct {
	DB          *gorm.DB
	Cfg         config.Config
	Log         zerolog.Logger
	TrackSvc    *track.Service
	Support     *support.Manager
	SMTPSetting email.SMTPConfig
}

func NewHandler(db *gorm.DB, cfg config.Config, log zerolog.Logger, trackSvc *track.Service, mgr *support.Manager) *Handler {
	return &Handler{
		DB:       db,
		Cfg:      cfg,
		Log:      log,
		TrackSvc: trackSvc,
		Support:  mgr,
		SMTPSetting: email.SMTPConfig{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.SMTPFrom,
		},
	}
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"pong": true})
}

func userIDFromContext(c *gin.Context) (uint64, bool) {
	v, ok := c.Get(middleware.UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint64)
	return id, ok
}

func unauthorized(c *gin.Context) {
	common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
}
