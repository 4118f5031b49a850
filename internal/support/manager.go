// Package support implements the live-chat core: sessions, the scripted
// responder, the waiting queue and the agent pool. All state is held in
// memory and guarded by one mutex; chat history is deliberately not
// durable, a restart drops every open conversation.
package support

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/soundrift/soundrift/internal/sched"
)

var (
	ErrSessionNotFound = errors.New("support: session not found")
	ErrSessionClosed   = errors.New("support: session closed")
	ErrAgentNotFound   = errors.New("support: agent not found")
	ErrBadTransition   = errors.New("support: invalid status transition")
)

// Presence mirrors agent availability to an external store. Implementations
// must tolerate being called from under the manager's lock and should not
// block.
type Presence interface {
	SetAgentStatus(ctx context.Context, agentID uint64, status AgentStatus) error
}

type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	agents   map[uint64]*Agent
	// registration order; "first available agent" must be deterministic
	agentOrder []uint64

	scheduler   sched.Scheduler
	botDelayMin time.Duration
	botDelayMax time.Duration
	rng         *rand.Rand

	presence Presence // optional
}

func NewManager(scheduler sched.Scheduler, botDelayMin, botDelayMax time.Duration) *Manager {
	if scheduler == nil {
		scheduler = sched.NewReal()
	}
	if botDelayMax < botDelayMin {
		botDelayMax = botDelayMin
	}
	return &Manager{
		sessions:    make(map[string]*Session),
		agents:      make(map[uint64]*Agent),
		scheduler:   scheduler,
		botDelayMin: botDelayMin,
		botDelayMax: botDelayMax,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetPresence attaches the external presence mirror.
func (m *Manager) SetPresence(p Presence) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.presence = p
}

// RegisterAgent adds an agent to the pool, or refreshes name/email/capacity
// if the id is already known. Active sessions survive re-registration.
func (m *Manager) RegisterAgent(id uint64, name, email string, maxSessions int) {
	if maxSessions <= 0 {
		maxSessions = 3
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.agents[id]; ok {
		a.Name = name
		a.Email = email
		a.MaxSessions = maxSessions
		return
	}
	m.agents[id] = &Agent{
		ID:          id,
		Name:        name,
		Email:       email,
		Status:      AgentOffline,
		MaxSessions: maxSessions,
	}
	m.agentOrder = append(m.agentOrder, id)
}

// StartChat opens a new bot session with the canned welcome message.
func (m *Manager) StartChat(userID uint64, userName string) Session {
	now := time.Now()
	s := &Session{
		ID:             newSessionID(),
		UserID:         userID,
		UserName:       userName,
		Status:         StatusBot,
		Priority:       PriorityMedium,
		CreatedAt:      now,
		LastActivityAt: now,
	}
	s.Messages = append(s.Messages, Message{
		ID:         newMessageID(),
		Content:    botWelcome,
		Sender:     SenderBot,
		SenderName: "Soundrift Assistant",
		CreatedAt:  now,
	})

	m.mu.Lock()
	m.sessions[s.ID] = s
	snap := snapshotSession(s)
	m.mu.Unlock()
	return snap
}

// SendMessage appends to the session. A user message on a bot session
// schedules the scripted reply after a randomized "thinking" delay; the
// reply callback re-checks session state at fire time, so replies never
// land on sessions that were closed or escalated in the meantime.
func (m *Manager) SendMessage(sessionID, content string, sender Sender, senderName string) (Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return Message{}, ErrSessionNotFound
	}
	if s.Status == StatusClosed {
		return Message{}, ErrSessionClosed
	}

	msg := m.appendLocked(s, content, sender, senderName)

	if sender == SenderUser && s.Status == StatusBot {
		m.scheduleBotReplyLocked(s.ID, content)
	}
	return msg, nil
}

func (m *Manager) scheduleBotReplyLocked(sessionID, userContent string) {
	delay := m.botDelayMin
	if span := m.botDelayMax - m.botDelayMin; span > 0 {
		delay += time.Duration(m.rng.Int63n(int64(span)))
	}
	m.scheduler.AfterFunc(delay, func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		// liveness check: the session must still exist and still be
		// talking to the bot
		s, ok := m.sessions[sessionID]
		if !ok || s.Status != StatusBot {
			return
		}

		if wantsHuman(userContent) {
			m.escalateLocked(s)
			return
		}
		m.appendLocked(s, botReply(userContent), SenderBot, "Soundrift Assistant")
	})
}

// RequestHumanSupport escalates a bot session to a human: the first online
// agent with spare capacity gets it (first match in registration order, not
// least loaded); with none available the session is queued and told its
// position as of this call.
func (m *Manager) RequestHumanSupport(sessionID string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	if s.Status != StatusBot && s.Status != StatusQueued {
		return Session{}, ErrBadTransition
	}

	m.escalateLocked(s)
	return snapshotSession(s), nil
}

func (m *Manager) escalateLocked(s *Session) {
	for _, id := range m.agentOrder {
		a := m.agents[id]
		if a.Status == AgentOnline && len(a.ActiveSessions) < a.MaxSessions {
			m.connectLocked(s, a)
			return
		}
	}

	// a new arrival joins at the back of the queue; a session that is
	// already queued keeps its spot and is told where that spot is now
	position := 1
	for _, other := range m.sessions {
		if other.ID == s.ID || other.Status != StatusQueued {
			continue
		}
		if s.Status != StatusQueued || other.CreatedAt.Before(s.CreatedAt) {
			position++
		}
	}
	s.Status = StatusQueued
	m.appendLocked(s,
		fmt.Sprintf("All of our agents are currently busy. You are number %d in the queue - we'll connect you as soon as someone is free.", position),
		SenderSystem, "")
}

// AcceptChat attaches an agent to a queued session. There is no capacity
// check here: callers decide whether the agent can take another session.
func (m *Manager) AcceptChat(sessionID string, agentID uint64) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	a, ok := m.agents[agentID]
	if !ok {
		return Session{}, ErrAgentNotFound
	}
	if !canTransition(s.Status, StatusConnected) {
		return Session{}, ErrBadTransition
	}

	m.connectLocked(s, a)
	return snapshotSession(s), nil
}

func (m *Manager) connectLocked(s *Session, a *Agent) {
	s.Status = StatusConnected
	s.AssignedAgentID = a.ID
	a.ActiveSessions = append(a.ActiveSessions, s.ID)

	m.appendLocked(s, fmt.Sprintf("You are now connected to %s.", a.Name), SenderSystem, "")
	m.appendLocked(s, fmt.Sprintf("Hi %s, I'm %s from Soundrift support. How can I help you today?", s.UserName, a.Name), SenderSupport, a.Name)
}

// EndSupportSession closes the session and releases it from its agent.
// Closing an already-closed session is a no-op.
func (m *Manager) EndSupportSession(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	if s.Status == StatusClosed {
		return nil
	}

	if s.AssignedAgentID != 0 {
		if a, ok := m.agents[s.AssignedAgentID]; ok {
			a.ActiveSessions = removeString(a.ActiveSessions, s.ID)
		}
	}
	s.Status = StatusClosed
	s.LastActivityAt = time.Now()
	return nil
}

// UpdateAgentStatus mutates availability only; an agent going offline keeps
// their connected sessions.
func (m *Manager) UpdateAgentStatus(agentID uint64, status AgentStatus) error {
	m.mu.Lock()
	a, ok := m.agents[agentID]
	if !ok {
		m.mu.Unlock()
		return ErrAgentNotFound
	}
	a.Status = status
	p := m.presence
	m.mu.Unlock()

	if p != nil {
		// best effort; the in-memory pool is authoritative
		_ = p.SetAgentStatus(context.Background(), agentID, status)
	}
	return nil
}

func (m *Manager) GetSession(sessionID string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return snapshotSession(s), nil
}

// QueuedSessions returns the waiting queue in FIFO order by creation time.
func (m *Manager) QueuedSessions() []Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Session
	for _, s := range m.sessions {
		if s.Status == StatusQueued {
			out = append(out, snapshotSession(s))
		}
	}
	sortSessionsByCreation(out)
	return out
}

// AgentSessions returns the agent's active sessions in assignment order.
func (m *Manager) AgentSessions(agentID uint64) ([]Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.agents[agentID]
	if !ok {
		return nil, ErrAgentNotFound
	}
	out := make([]Session, 0, len(a.ActiveSessions))
	for _, sid := range a.ActiveSessions {
		if s, ok := m.sessions[sid]; ok {
			out = append(out, snapshotSession(s))
		}
	}
	return out, nil
}

func (m *Manager) Agents() []Agent {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Agent, 0, len(m.agentOrder))
	for _, id := range m.agentOrder {
		out = append(out, snapshotAgent(m.agents[id]))
	}
	return out
}

func (m *Manager) GetAgent(agentID uint64) (Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.agents[agentID]
	if !ok {
		return Agent{}, ErrAgentNotFound
	}
	return snapshotAgent(a), nil
}

func (m *Manager) appendLocked(s *Session, content string, sender Sender, senderName string) Message {
	msg := Message{
		ID:         newMessageID(),
		Content:    content,
		Sender:     sender,
		SenderName: senderName,
		CreatedAt:  time.Now(),
	}
	s.Messages = append(s.Messages, msg)
	s.LastActivityAt = msg.CreatedAt
	return msg
}

// snapshotSession deep-copies so callers can read and marshal without
// holding the manager's lock.
func snapshotSession(s *Session) Session {
	out := *s
	out.Messages = append([]Message(nil), s.Messages...)
	return out
}

func snapshotAgent(a *Agent) Agent {
	out := *a
	out.ActiveSessions = append([]string(nil), a.ActiveSessions...)
	return out
}

func removeString(ss []string, v string) []string {
	for i, s := range ss {
		if s == v {
			return append(ss[:i], ss[i+1:]...)
		}
	}
	return ss
}

func sortSessionsByCreation(ss []Session) {
	sort.Slice(ss, func(i, j int) bool {
		return ss[i].CreatedAt.Before(ss[j].CreatedAt)
	})
}
