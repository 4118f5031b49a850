package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/soundrift/soundrift/internal/common"
	"github.com/soundrift/soundrift/internal/track"
)

type createTrackReq struct {
	Title      string `json:"title" binding:"required"`
	Artist     string `json:"artist" binding:"required"`
	Album      string `json:"album"`
	Genre      string `json:"genre"`
	ArtworkURL string `json:"artwork_url"`
}

func (h *Handler) CreateTrack(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		unauthorized(c)
		return
	}

	var req createTrackReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "title and artist required")
		return
	}

	t, err := h.TrackSvc.AddTrack(c.Request.Context(), uid, track.NewTrackInput{
		Title:      req.Title,
		Artist:     req.Artist,
		Album:      req.Album,
		Genre:      req.Genre,
		ArtworkURL: req.ArtworkURL,
	})
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to add track")
		return
	}
	common.OK(c, t)
}

func (h *Handler) ListMyTracks(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		unauthorized(c)
		return
	}

	tracks, err := h.TrackSvc.GetUserTracks(c.Request.Context(), uid)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to list tracks")
		return
	}
	common.OK(c, gin.H{"tracks": tracks})
}

func (h *Handler) GetTrack(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		unauthorized(c)
		return
	}

	t, err := h.TrackSvc.GetTrack(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40402, "track not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to load track")
		return
	}
	common.OK(c, t)
}

type updateTrackReq struct {
	Title      *string `json:"title"`
	Artist     *string `json:"artist"`
	Album      *string `json:"album"`
	Genre      *string `json:"genre"`
	ArtworkURL *string `json:"artwork_url"`
}

func (h *Handler) UpdateTrack(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		unauthorized(c)
		return
	}

	var req updateTrackReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	t, err := h.TrackSvc.UpdateTrack(c.Request.Context(), uid, c.Param("id"), track.UpdateTrackInput{
		Title:      req.Title,
		Artist:     req.Artist,
		Album:      req.Album,
		Genre:      req.Genre,
		ArtworkURL: req.ArtworkURL,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40402, "track not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50003, "failed to update track")
		return
	}
	common.OK(c, t)
}

func (h *Handler) DeleteTrack(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		unauthorized(c)
		return
	}

	if err := h.TrackSvc.DeleteTrack(c.Request.Context(), uid, c.Param("id")); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40402, "track not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50004, "failed to delete track")
		return
	}
	common.OK(c, gin.H{"deleted": true})
}

// Admin endpoints

func (h *Handler) AdminListTracks(c *gin.Context) {
	tracks, err := h.TrackSvc.ListAll(c.Request.Context())
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to list tracks")
		return
	}
	common.OK(c, gin.H{"tracks": tracks})
}

func (h *Handler) AdminRejectTrack(c *gin.Context) {
	err := h.TrackSvc.RejectTrack(c.Request.Context(), c.Param("id"))
	switch {
	case err == nil:
		common.OK(c, gin.H{"rejected": true})
	case errors.Is(err, gorm.ErrRecordNotFound):
		common.Fail(c, http.StatusNotFound, 40402, "track not found")
	case errors.Is(err, track.ErrInvalidStatus):
		common.Fail(c, http.StatusConflict, 10010, "only processing tracks can be rejected")
	default:
		common.Fail(c, http.StatusInternalServerError, 50003, "failed to reject track")
	}
}

type overrideStatusReq struct {
	Status track.Status `json:"status" binding:"required"`
}

func (h *Handler) AdminOverrideStatus(c *gin.Context) {
	var req overrideStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "status required")
		return
	}

	t, err := h.TrackSvc.OverrideStatus(c.Request.Context(), c.Param("id"), req.Status)
	switch {
	case err == nil:
		common.OK(c, t)
	case errors.Is(err, gorm.ErrRecordNotFound):
		common.Fail(c, http.StatusNotFound, 40402, "track not found")
	case errors.Is(err, track.ErrInvalidStatus):
		common.Fail(c, http.StatusBadRequest, 10011, "unknown status")
	default:
		common.Fail(c, http.StatusInternalServerError, 50003, "failed to override status")
	}
}

type recordStatsReq struct {
	Streams       int64 `json:"streams"`
	EarningsCents int64 `json:"earnings_cents"`
}

func (h *Handler) AdminRecordStats(c *gin.Context) {
	var req recordStatsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	err := h.TrackSvc.RecordStats(c.Request.Context(), c.Param("id"), req.Streams, req.EarningsCents)
	switch {
	case err == nil:
		common.OK(c, gin.H{"updated": true})
	case errors.Is(err, gorm.ErrRecordNotFound):
		common.Fail(c, http.StatusNotFound, 40402, "track not found")
	case errors.Is(err, track.ErrNegativeStats), errors.Is(err, track.ErrNotLive):
		common.Fail(c, http.StatusBadRequest, 10012, err.Error())
	default:
		common.Fail(c, http.StatusInternalServerError, 50003, "failed to record stats")
	}
}
