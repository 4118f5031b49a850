package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soundrift/soundrift/internal/common"
	"github.com/soundrift/soundrift/internal/httpapi/middleware"
	"github.com/soundrift/soundrift/internal/models"
	"github.com/soundrift/soundrift/internal/support"
)

func roleFromContext(c *gin.Context) models.Role {
	v, ok := c.Get(middleware.RoleKey)
	if !ok {
		return ""
	}
	role, _ := v.(models.Role)
	return role
}

func failSupport(c *gin.Context, err error) {
	switch {
	case errors.Is(err, support.ErrSessionNotFound):
		common.Fail(c, http.StatusNotFound, 40404, "session not found")
	case errors.Is(err, support.ErrAgentNotFound):
		common.Fail(c, http.StatusNotFound, 40405, "agent not found")
	case errors.Is(err, support.ErrSessionClosed):
		common.Fail(c, http.StatusConflict, 10020, "session is closed")
	case errors.Is(err, support.ErrBadTransition):
		common.Fail(c, http.StatusConflict, 10021, "invalid session state for this operation")
	default:
		common.Fail(c, http.StatusInternalServerError, 50010, "support error")
	}
}

// sessionForUser loads the session and hides it from everyone except its
// owner, its assigned agent, and admins.
func (h *Handler) sessionForUser(c *gin.Context, sessionID string) (support.Session, bool) {
	uid, ok := userIDFromContext(c)
	if !ok {
		unauthorized(c)
		return support.Session{}, false
	}
	s, err := h.Support.GetSession(sessionID)
	if err != nil {
		failSupport(c, err)
		return support.Session{}, false
	}

	role := roleFromContext(c)
	if s.UserID == uid || role.Privileged() {
		return s, true
	}
	if role == models.RoleSupport && s.AssignedAgentID == uid {
		return s, true
	}
	common.Fail(c, http.StatusNotFound, 40404, "session not found")
	return support.Session{}, false
}

func (h *Handler) StartChat(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		unauthorized(c)
		return
	}

	var user models.User
	if err := h.DB.WithContext(c.Request.Context()).First(&user, uid).Error; err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}

	s := h.Support.StartChat(uid, user.Name)
	common.OK(c, s)
}

type sendChatReq struct {
	Content string `json:"content" binding:"required"`
}

// SendChatMessage appends a user message to the caller's own session.
func (h *Handler) SendChatMessage(c *gin.Context) {
	var req sendChatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "content required")
		return
	}

	s, ok := h.sessionForUser(c, c.Param("session_id"))
	if !ok {
		return
	}

	msg, err := h.Support.SendMessage(s.ID, req.Content, support.SenderUser, s.UserName)
	if err != nil {
		failSupport(c, err)
		return
	}
	common.OK(c, msg)
}

func (h *Handler) GetChatSession(c *gin.Context) {
	s, ok := h.sessionForUser(c, c.Param("session_id"))
	if !ok {
		return
	}
	common.OK(c, s)
}

func (h *Handler) RequestHumanSupport(c *gin.Context) {
	s, ok := h.sessionForUser(c, c.Param("session_id"))
	if !ok {
		return
	}

	out, err := h.Support.RequestHumanSupport(s.ID)
	if err != nil {
		failSupport(c, err)
		return
	}
	common.OK(c, out)
}

func (h *Handler) CloseChatSession(c *gin.Context) {
	s, ok := h.sessionForUser(c, c.Param("session_id"))
	if !ok {
		return
	}

	if err := h.Support.EndSupportSession(s.ID); err != nil {
		failSupport(c, err)
		return
	}
	common.OK(c, gin.H{"closed": true})
}

// Support-role endpoints

func (h *Handler) SupportQueue(c *gin.Context) {
	common.OK(c, gin.H{"sessions": h.Support.QueuedSessions()})
}

type acceptChatReq struct {
	SessionID string `json:"session_id" binding:"required"`
}

// AcceptChat assigns a queued session to the calling agent. The capacity
// check lives here, on the caller side; the manager itself does not gate
// explicit accepts.
func (h *Handler) AcceptChat(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		unauthorized(c)
		return
	}

	var req acceptChatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "session_id required")
		return
	}

	agent, err := h.Support.GetAgent(uid)
	if err != nil {
		failSupport(c, err)
		return
	}
	if len(agent.ActiveSessions) >= agent.MaxSessions {
		common.Fail(c, http.StatusConflict, 10022, "agent at capacity")
		return
	}

	s, err := h.Support.AcceptChat(req.SessionID, uid)
	if err != nil {
		failSupport(c, err)
		return
	}
	common.OK(c, s)
}

type supportReplyReq struct {
	SessionID string `json:"session_id" binding:"required"`
	Content   string `json:"content" binding:"required"`
}

// SupportReply appends an agent message to a session assigned to the
// calling agent.
func (h *Handler) SupportReply(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		unauthorized(c)
		return
	}

	var req supportReplyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "session_id and content required")
		return
	}

	s, err := h.Support.GetSession(req.SessionID)
	if err != nil {
		failSupport(c, err)
		return
	}
	if s.AssignedAgentID != uid && !roleFromContext(c).Privileged() {
		common.Fail(c, http.StatusForbidden, 40302, "session not assigned to you")
		return
	}

	agent, err := h.Support.GetAgent(uid)
	if err != nil {
		failSupport(c, err)
		return
	}

	msg, err := h.Support.SendMessage(req.SessionID, req.Content, support.SenderSupport, agent.Name)
	if err != nil {
		failSupport(c, err)
		return
	}
	common.OK(c, msg)
}

type agentStatusReq struct {
	Status support.AgentStatus `json:"status" binding:"required"`
}

func (h *Handler) UpdateAgentStatus(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		unauthorized(c)
		return
	}

	var req agentStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "status required")
		return
	}
	switch req.Status {
	case support.AgentOnline, support.AgentBusy, support.AgentOffline:
	default:
		common.Fail(c, http.StatusBadRequest, 10023, "unknown agent status")
		return
	}

	if err := h.Support.UpdateAgentStatus(uid, req.Status); err != nil {
		failSupport(c, err)
		return
	}
	common.OK(c, gin.H{"status": req.Status})
}

func (h *Handler) AgentSessions(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		unauthorized(c)
		return
	}

	sessions, err := h.Support.AgentSessions(uid)
	if err != nil {
		failSupport(c, err)
		return
	}
	common.OK(c, gin.H{"sessions": sessions})
}

// ListAgents backs the admin chat dashboard.
func (h *Handler) ListAgents(c *gin.Context) {
	common.OK(c, gin.H{"agents": h.Support.Agents()})
}
