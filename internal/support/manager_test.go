package support

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/soundrift/soundrift/internal/sched"
)

func newTestManager() (*Manager, *sched.Manual) {
	clock := sched.NewManual()
	m := NewManager(clock, time.Second, 2*time.Second)
	return m, clock
}

func TestStartChat_OpensBotSessionWithWelcome(t *testing.T) {
	m, _ := newTestManager()

	s := m.StartChat(1, "Alex")
	if s.Status != StatusBot {
		t.Fatalf("expected bot status, got %q", s.Status)
	}
	if len(s.Messages) != 1 || s.Messages[0].Sender != SenderBot {
		t.Fatalf("expected one bot welcome message, got %+v", s.Messages)
	}
}

func TestSendMessage_AppendOnly(t *testing.T) {
	m, clock := newTestManager()

	s := m.StartChat(1, "Alex")
	before, _ := m.GetSession(s.ID)

	if _, err := m.SendMessage(s.ID, "how do payouts work", SenderUser, "Alex"); err != nil {
		t.Fatalf("send: %v", err)
	}
	clock.FireAll()

	after, _ := m.GetSession(s.ID)
	if len(after.Messages) < len(before.Messages) {
		t.Fatalf("messages shrank: %d -> %d", len(before.Messages), len(after.Messages))
	}
	for i, msg := range before.Messages {
		if after.Messages[i].ID != msg.ID || after.Messages[i].Content != msg.Content {
			t.Fatalf("prior message %d changed", i)
		}
	}
}

func TestSendMessage_SchedulesBotReply(t *testing.T) {
	m, clock := newTestManager()

	s := m.StartChat(1, "Alex")
	if _, err := m.SendMessage(s.ID, "How do I upload a wav file", SenderUser, "Alex"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if clock.Pending() != 1 {
		t.Fatalf("expected one pending bot reply, got %d", clock.Pending())
	}

	clock.FireAll()

	got, _ := m.GetSession(s.ID)
	last := got.Messages[len(got.Messages)-1]
	if last.Sender != SenderBot {
		t.Fatalf("expected bot reply, got sender %q", last.Sender)
	}
	// upload topic is listed before any other matching topic
	if last.Content != botTopics[0].Response {
		t.Fatalf("expected upload-topic response, got %q", last.Content)
	}
}

func TestBotReply_FirstMatchWinsByTableOrder(t *testing.T) {
	// "upload ... spotify" matches both the upload and platforms topics;
	// the earlier table entry must win
	got := botReply("can I upload straight to spotify")
	if got != botTopics[0].Response {
		t.Fatalf("expected first-listed topic to win, got %q", got)
	}

	if botReply("what is the meaning of life") != botFallback {
		t.Fatalf("expected fallback for unmatched message")
	}
}

func TestBotReply_NoReplyAfterSessionClosed(t *testing.T) {
	m, clock := newTestManager()

	s := m.StartChat(1, "Alex")
	if _, err := m.SendMessage(s.ID, "tell me about royalties", SenderUser, "Alex"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := m.EndSupportSession(s.ID); err != nil {
		t.Fatalf("close: %v", err)
	}

	clock.FireAll()

	got, _ := m.GetSession(s.ID)
	for _, msg := range got.Messages[1:] {
		if msg.Sender == SenderBot {
			t.Fatalf("bot replied to a closed session: %q", msg.Content)
		}
	}
}

func TestEscalationPhrase_TriggersHumanSupport(t *testing.T) {
	m, clock := newTestManager()
	m.RegisterAgent(10, "Sarah", "sarah@soundrift.dev", 3)
	if err := m.UpdateAgentStatus(10, AgentOnline); err != nil {
		t.Fatalf("status: %v", err)
	}

	s := m.StartChat(1, "Alex")
	if _, err := m.SendMessage(s.ID, "I need to talk to a human please", SenderUser, "Alex"); err != nil {
		t.Fatalf("send: %v", err)
	}
	clock.FireAll()

	got, _ := m.GetSession(s.ID)
	if got.Status != StatusConnected {
		t.Fatalf("expected connected after escalation phrase, got %q", got.Status)
	}
	if got.AssignedAgentID != 10 {
		t.Fatalf("expected assignment to agent 10, got %d", got.AssignedAgentID)
	}
}

func TestRequestHumanSupport_ConnectsToAvailableAgent(t *testing.T) {
	m, _ := newTestManager()
	m.RegisterAgent(10, "Sarah", "sarah@soundrift.dev", 3)
	_ = m.UpdateAgentStatus(10, AgentOnline)

	s := m.StartChat(1, "Alex")
	got, err := m.RequestHumanSupport(s.ID)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if got.Status != StatusConnected {
		t.Fatalf("expected connected, got %q", got.Status)
	}

	a, _ := m.GetAgent(10)
	if len(a.ActiveSessions) != 1 || a.ActiveSessions[0] != s.ID {
		t.Fatalf("expected exactly one active session on agent, got %v", a.ActiveSessions)
	}
}

func TestRequestHumanSupport_QueuesWhenNobodyAvailable(t *testing.T) {
	m, _ := newTestManager()
	m.RegisterAgent(10, "Sarah", "sarah@soundrift.dev", 1)
	m.RegisterAgent(11, "Mike", "mike@soundrift.dev", 1)
	_ = m.UpdateAgentStatus(10, AgentBusy)
	// Mike stays offline

	s := m.StartChat(1, "Alex")
	got, err := m.RequestHumanSupport(s.ID)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if got.Status != StatusQueued {
		t.Fatalf("expected queued, got %q", got.Status)
	}

	for _, a := range m.Agents() {
		if len(a.ActiveSessions) != 0 {
			t.Fatalf("agent %d gained a session while unavailable", a.ID)
		}
	}

	last := got.Messages[len(got.Messages)-1]
	if last.Sender != SenderSystem {
		t.Fatalf("expected system queue-position message, got %+v", last)
	}
}

func TestRequestHumanSupport_RepeatFromQueueKeepsPosition(t *testing.T) {
	m, _ := newTestManager()
	// nobody to take the chat

	s1 := m.StartChat(1, "Alex")
	time.Sleep(2 * time.Millisecond)
	s2 := m.StartChat(2, "Robin")

	got1, err := m.RequestHumanSupport(s1.ID)
	if err != nil {
		t.Fatalf("request s1: %v", err)
	}
	last := got1.Messages[len(got1.Messages)-1]
	if !strings.Contains(last.Content, "number 1") {
		t.Fatalf("expected position 1 on first request, got %q", last.Content)
	}

	got2, err := m.RequestHumanSupport(s2.ID)
	if err != nil {
		t.Fatalf("request s2: %v", err)
	}
	last = got2.Messages[len(got2.Messages)-1]
	if !strings.Contains(last.Content, "number 2") {
		t.Fatalf("expected position 2 for second session, got %q", last.Content)
	}

	// asking again from the queue must not count the session against itself
	got1, err = m.RequestHumanSupport(s1.ID)
	if err != nil {
		t.Fatalf("repeat request s1: %v", err)
	}
	last = got1.Messages[len(got1.Messages)-1]
	if !strings.Contains(last.Content, "number 1") {
		t.Fatalf("expected position 1 on repeat request, got %q", last.Content)
	}
}

// pool = [A(max 1, online), B(max 1, busy)]; session 1 connects to A,
// session 2 finds A at capacity and B busy, so it queues.
func TestAssignment_FirstMatchThenQueue(t *testing.T) {
	m, _ := newTestManager()
	m.RegisterAgent(1, "A", "a@soundrift.dev", 1)
	m.RegisterAgent(2, "B", "b@soundrift.dev", 1)
	_ = m.UpdateAgentStatus(1, AgentOnline)
	_ = m.UpdateAgentStatus(2, AgentBusy)

	s1 := m.StartChat(100, "User One")
	s2 := m.StartChat(101, "User Two")

	got1, err := m.RequestHumanSupport(s1.ID)
	if err != nil {
		t.Fatalf("request 1: %v", err)
	}
	if got1.Status != StatusConnected || got1.AssignedAgentID != 1 {
		t.Fatalf("expected session 1 connected to A, got status=%q agent=%d", got1.Status, got1.AssignedAgentID)
	}

	got2, err := m.RequestHumanSupport(s2.ID)
	if err != nil {
		t.Fatalf("request 2: %v", err)
	}
	if got2.Status != StatusQueued {
		t.Fatalf("expected session 2 queued, got %q", got2.Status)
	}

	queue := m.QueuedSessions()
	if len(queue) != 1 || queue[0].ID != s2.ID {
		t.Fatalf("expected session 2 alone in queue, got %v", queue)
	}
}

func TestAcceptChat_ConnectsQueuedSession(t *testing.T) {
	m, _ := newTestManager()
	m.RegisterAgent(10, "Sarah", "sarah@soundrift.dev", 1)

	s := m.StartChat(1, "Alex")
	if _, err := m.RequestHumanSupport(s.ID); err != nil {
		t.Fatalf("request: %v", err)
	}

	_ = m.UpdateAgentStatus(10, AgentOnline)
	got, err := m.AcceptChat(s.ID, 10)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if got.Status != StatusConnected || got.AssignedAgentID != 10 {
		t.Fatalf("expected connected to 10, got %+v", got)
	}

	sessions, err := m.AgentSessions(10)
	if err != nil || len(sessions) != 1 {
		t.Fatalf("expected one agent session, got %v err=%v", sessions, err)
	}
}

func TestStatusNeverMovesBackward(t *testing.T) {
	m, _ := newTestManager()
	m.RegisterAgent(10, "Sarah", "sarah@soundrift.dev", 1)
	_ = m.UpdateAgentStatus(10, AgentOnline)

	s := m.StartChat(1, "Alex")
	if _, err := m.RequestHumanSupport(s.ID); err != nil {
		t.Fatalf("request: %v", err)
	}

	// connected -> queued/bot is not reachable through any operation;
	// re-escalating a connected session is rejected
	if _, err := m.RequestHumanSupport(s.ID); !errors.Is(err, ErrBadTransition) {
		t.Fatalf("expected ErrBadTransition, got %v", err)
	}

	if err := m.EndSupportSession(s.ID); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := m.AcceptChat(s.ID, 10); !errors.Is(err, ErrBadTransition) {
		t.Fatalf("expected ErrBadTransition out of closed, got %v", err)
	}
	if _, err := m.SendMessage(s.ID, "hello?", SenderUser, "Alex"); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
}

func TestEndSupportSession_Idempotent(t *testing.T) {
	m, _ := newTestManager()
	m.RegisterAgent(10, "Sarah", "sarah@soundrift.dev", 2)
	_ = m.UpdateAgentStatus(10, AgentOnline)

	s := m.StartChat(1, "Alex")
	if _, err := m.RequestHumanSupport(s.ID); err != nil {
		t.Fatalf("request: %v", err)
	}

	if err := m.EndSupportSession(s.ID); err != nil {
		t.Fatalf("first close: %v", err)
	}
	a, _ := m.GetAgent(10)
	if len(a.ActiveSessions) != 0 {
		t.Fatalf("expected session released from agent, got %v", a.ActiveSessions)
	}

	if err := m.EndSupportSession(s.ID); err != nil {
		t.Fatalf("second close should be a no-op, got %v", err)
	}
}

func TestUpdateAgentStatus_NoSideEffectsOnSessions(t *testing.T) {
	m, _ := newTestManager()
	m.RegisterAgent(10, "Sarah", "sarah@soundrift.dev", 2)
	_ = m.UpdateAgentStatus(10, AgentOnline)

	s := m.StartChat(1, "Alex")
	if _, err := m.RequestHumanSupport(s.ID); err != nil {
		t.Fatalf("request: %v", err)
	}

	// going offline does not reassign or drop the connected session
	if err := m.UpdateAgentStatus(10, AgentOffline); err != nil {
		t.Fatalf("status: %v", err)
	}
	got, _ := m.GetSession(s.ID)
	if got.Status != StatusConnected || got.AssignedAgentID != 10 {
		t.Fatalf("session changed when agent went offline: %+v", got)
	}
	a, _ := m.GetAgent(10)
	if len(a.ActiveSessions) != 1 {
		t.Fatalf("active set changed when agent went offline: %v", a.ActiveSessions)
	}
}

func TestQueuedSessions_FIFOOrder(t *testing.T) {
	m, _ := newTestManager()

	s1 := m.StartChat(1, "First")
	time.Sleep(2 * time.Millisecond)
	s2 := m.StartChat(2, "Second")

	if _, err := m.RequestHumanSupport(s2.ID); err != nil {
		t.Fatalf("request s2: %v", err)
	}
	if _, err := m.RequestHumanSupport(s1.ID); err != nil {
		t.Fatalf("request s1: %v", err)
	}

	queue := m.QueuedSessions()
	if len(queue) != 2 {
		t.Fatalf("expected 2 queued, got %d", len(queue))
	}
	if queue[0].ID != s1.ID || queue[1].ID != s2.ID {
		t.Fatalf("expected creation-time FIFO order, got %v then %v", queue[0].ID, queue[1].ID)
	}
}

func TestWantsHuman_PhraseList(t *testing.T) {
	if !wantsHuman("Can I TALK TO A HUMAN about this?") {
		t.Fatalf("expected case-insensitive phrase match")
	}
	if wantsHuman("how human-readable are the reports") {
		// no listed phrase appears as a substring
		t.Fatalf("unexpected escalation")
	}
}
