package conversation

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pmorlen/chatgate/internal/model/chat"
)

var ErrSessionNotFound = errors.New("session not found")

// Event is one append notification delivered to subscribers.
type Event struct {
	SessionID string       `json:"sessionId"`
	Message   chat.Message `json:"message"`
}

// subscriber channels are buffered; a full channel drops the event so a
// slow reader can never block an append.
const subscriberBuffer = 16

// Service is the registry of conversation logs. It tracks which session
// is active and fans append notifications out to render subscribers.
type Service struct {
	mu       sync.RWMutex
	sessions []chat.Session
	logs     map[string]*Log
	activeID string

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

// NewService bootstraps the in-memory registry with one active session.
func NewService() *Service {
	s := &Service{
		logs: make(map[string]*Log),
		subs: make(map[int]chan Event),
	}
	initial := s.addSessionLocked()
	s.activeID = initial.ID
	return s
}

// CreateSession provisions a fresh empty log and returns its session.
func (s *Service) CreateSession() chat.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addSessionLocked()
}

func (s *Service) addSessionLocked() chat.Session {
	session := chat.Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
	s.sessions = append(s.sessions, session)
	s.logs[session.ID] = newLog(func(message chat.Message) {
		s.broadcast(Event{SessionID: session.ID, Message: message})
	})
	return session
}

// ListSessions returns the open sessions in creation order.
func (s *Service) ListSessions() []chat.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]chat.Session(nil), s.sessions...)
}

// ActiveID returns the identifier of the currently active session.
func (s *Service) ActiveID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// ActiveLog returns the log of the currently active session.
func (s *Service) ActiveLog() *Log {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.logs[s.activeID]
}

// Log retrieves a session's log by identifier.
func (s *Service) Log(sessionID string) (*Log, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log, ok := s.logs[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return log, nil
}

// SwitchSession makes the named session active.
func (s *Service) SwitchSession(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.logs[sessionID]; !ok {
		return ErrSessionNotFound
	}
	s.activeID = sessionID
	return nil
}

// RemoveSession closes a session and discards its log. Removing the
// active session falls back to the oldest remaining one, creating a
// fresh session when none remain.
func (s *Service) RemoveSession(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.logs[sessionID]; !ok {
		return ErrSessionNotFound
	}
	delete(s.logs, sessionID)
	for i, session := range s.sessions {
		if session.ID == sessionID {
			s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
			break
		}
	}

	if s.activeID == sessionID {
		if len(s.sessions) == 0 {
			s.addSessionLocked()
		}
		s.activeID = s.sessions[0].ID
	}
	return nil
}

// Subscribe registers a render subscriber. The returned cancel func must
// be called to release the channel.
func (s *Service) Subscribe() (<-chan Event, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan Event, subscriberBuffer)
	s.subs[id] = ch

	cancel := func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

func (s *Service) broadcast(event Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, ch := range s.subs {
		select {
		case ch <- event:
		default:
		}
	}
}
