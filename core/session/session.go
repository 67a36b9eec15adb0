package session

import (
	"sync"
	"time"

	"github.com/grecko-app/grecko/core/gpa"
)

// Notice kinds
const (
	NoticePersistenceFailed = "persistence_failed"
)

// Notice is a non-blocking message for the user, eg. a write the store rejected.
type Notice struct {
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is the per-user context a logged-in user works in: the goal being edited,
// the trend line as displayed and pending notices.
// Its state is updated optimistically and never rolled back on persistence failures.
type Session struct {
	mu       sync.RWMutex // guards goal and history
	userID   string
	openedAt time.Time
	goal     gpa.GoalState
	history  []gpa.HistoryEntry

	noticesMu sync.Mutex
	notices   []Notice
}

func newSession(userID string, goal gpa.GoalState, history []gpa.HistoryEntry, now time.Time) *Session {
	goal.UserID = userID
	h := make([]gpa.HistoryEntry, len(history))
	copy(h, history)
	return &Session{
		userID:   userID,
		openedAt: now,
		goal:     goal,
		history:  h,
	}
}

func (s *Session) UserID() string { return s.userID }

func (s *Session) OpenedAt() time.Time { return s.openedAt }

func (s *Session) Goal() gpa.GoalState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.goal
}

// History returns a copy of the trend line, oldest first.
func (s *Session) History() []gpa.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h := make([]gpa.HistoryEntry, len(s.history))
	copy(h, s.history)
	return h
}

// editGoal applies fn to the goal and passes the resulting state to queue before releasing the lock,
// so writes are queued in the order the edits were made. queue must not block.
func (s *Session) editGoal(fn func(gs *gpa.GoalState), queue func(gs gpa.GoalState)) gpa.GoalState {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.goal)
	queue(s.goal)
	return s.goal
}

// appendHistory appends entry and calls queue under the same lock as editGoal.
func (s *Session) appendHistory(entry gpa.HistoryEntry, queue func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, entry)
	queue()
}

func (s *Session) notify(n Notice) {
	s.noticesMu.Lock()
	defer s.noticesMu.Unlock()
	s.notices = append(s.notices, n)
}

// DrainNotices returns the pending notices and clears them.
func (s *Session) DrainNotices() []Notice {
	s.noticesMu.Lock()
	defer s.noticesMu.Unlock()
	notices := s.notices
	s.notices = nil
	if notices == nil {
		notices = []Notice{}
	}
	return notices
}
