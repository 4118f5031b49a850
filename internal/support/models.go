package support

import (
	"crypto/rand"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

type SessionStatus string

const (
	// StatusBot: the scripted responder is answering.
	StatusBot SessionStatus = "bot"
	// StatusQueued: escalated, waiting for an agent.
	StatusQueued SessionStatus = "queued"
	// StatusConnected: a human agent is attached.
	StatusConnected SessionStatus = "connected"
	// StatusClosed: terminal.
	StatusClosed SessionStatus = "closed"
)

// forward is the session state machine. Transitions only move along these
// edges; closed has no exits.
var forward = map[SessionStatus][]SessionStatus{
	StatusBot:       {StatusQueued, StatusConnected, StatusClosed},
	StatusQueued:    {StatusConnected, StatusClosed},
	StatusConnected: {StatusClosed},
	StatusClosed:    {},
}

func canTransition(from, to SessionStatus) bool {
	for _, s := range forward[from] {
		if s == to {
			return true
		}
	}
	return false
}

type Sender string

const (
	SenderUser    Sender = "user"
	SenderBot     Sender = "bot"
	SenderSupport Sender = "support"
	SenderSystem  Sender = "system"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Message is immutable once appended to a session.
type Message struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	Sender     Sender    `json:"sender"`
	SenderName string    `json:"sender_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type Session struct {
	ID              string        `json:"session_id"`
	UserID          uint64        `json:"user_id"`
	UserName        string        `json:"user_name"`
	Status          SessionStatus `json:"status"`
	Messages        []Message     `json:"messages"`
	AssignedAgentID uint64        `json:"assigned_agent_id,omitempty"`
	Priority        Priority      `json:"priority"`
	CreatedAt       time.Time     `json:"created_at"`
	LastActivityAt  time.Time     `json:"last_activity_at"`
}

type AgentStatus string

const (
	AgentOnline  AgentStatus = "online"
	AgentBusy    AgentStatus = "busy"
	AgentOffline AgentStatus = "offline"
)

type Agent struct {
	ID             uint64      `json:"id"`
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	Status         AgentStatus `json:"status"`
	ActiveSessions []string    `json:"active_sessions"`
	MaxSessions    int         `json:"max_sessions"`
}

func newSessionID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

func newMessageID() string {
	return uuid.NewString()
}
