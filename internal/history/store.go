// Package history manages the persisted multi-session chat history.
package history

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/annai/internal/models"
	"github.com/hyperjump/annai/internal/persist"
	"github.com/hyperjump/annai/pkg/utils"
)

// DefaultSessionName is the name given to every new session until the first
// user message renames it.
const DefaultSessionName = "Career Planning"

// Auto-rename and listing display limits.
const (
	renameLimit      = 30
	displayNameLimit = 25
)

// Summary is the listing view of a session.
type Summary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Time     string `json:"time"`
	Messages int    `json:"messages"`
	Active   bool   `json:"active"`
}

// Store owns the history state and its JSON file. All mutation goes through
// the store; concurrent HTTP handlers share one instance.
type Store struct {
	mu      sync.Mutex
	history *models.History
	path    string
	logger  *zap.Logger
	now     func() time.Time
}

// NewStore loads history from path, falling back to an empty history when the
// file is missing or unreadable.
func NewStore(path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := persist.Load(path, models.NewHistory())
	if h == nil {
		h = models.NewHistory()
	}
	if h.Sessions == nil {
		h.Sessions = make(map[string]*models.Session)
	}
	return &Store{history: h, path: path, logger: logger, now: time.Now}
}

// NewSession creates a fresh session and makes it active. When the active
// session exists but has no messages yet, it is reused instead of creating
// another empty one.
func (s *Store) NewSession() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if active, ok := s.history.Sessions[s.history.ActiveID]; ok && len(active.Messages) == 0 {
		return s.history.ActiveID
	}

	id := uuid.New().String()
	s.history.Sessions[id] = &models.Session{
		Name:     DefaultSessionName,
		Messages: []models.ChatMessage{},
		Time:     s.now().Format(models.SessionTimeLayout),
	}
	s.history.ActiveID = id
	s.save()
	return id
}

// EnsureActive returns the active session id, creating a new session when the
// active pointer is empty or dangling.
func (s *Store) EnsureActive() string {
	s.mu.Lock()
	if _, ok := s.history.Sessions[s.history.ActiveID]; ok && s.history.ActiveID != "" {
		id := s.history.ActiveID
		s.mu.Unlock()
		return id
	}
	s.mu.Unlock()
	return s.NewSession()
}

// SetActive switches the active session. Unknown ids are ignored.
func (s *Store) SetActive(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.history.Sessions[id]; !ok {
		return false
	}
	s.history.ActiveID = id
	s.save()
	return true
}

// Append adds a message to the given session and persists. The first user
// message renames the session to the message text, truncated past 30 chars.
// Appending to an unknown session is a no-op.
func (s *Store) Append(sessionID, role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.history.Sessions[sessionID]
	if !ok {
		return
	}
	if role == models.RoleUser && len(session.Messages) == 0 {
		session.Name = utils.Truncate(content, renameLimit)
	}
	session.Messages = append(session.Messages, models.ChatMessage{
		Role:    role,
		Content: content,
		Time:    s.now().Format(models.MessageTimeLayout),
	})
	session.Time = s.now().Format(models.SessionTimeLayout)
	s.save()
}

// Messages returns a copy of the session's messages, or nil for unknown ids.
func (s *Store) Messages(sessionID string) []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.history.Sessions[sessionID]
	if !ok {
		return nil
	}
	out := make([]models.ChatMessage, len(session.Messages))
	copy(out, session.Messages)
	return out
}

// ActiveID returns the current active session id, which may be dangling or
// empty before EnsureActive has run.
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.ActiveID
}

// List returns the sessions that have at least one message, newest first.
// Listing names longer than the display limit are shortened with a "..."
// suffix.
func (s *Store) List() []Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Summary, 0, len(s.history.Sessions))
	for id, session := range s.history.Sessions {
		if len(session.Messages) == 0 {
			continue
		}
		name := session.Name
		if len(name) >= displayNameLimit {
			name = name[:displayNameLimit-3] + "..."
		}
		out = append(out, Summary{
			ID:       id,
			Name:     name,
			Time:     session.Time,
			Messages: len(session.Messages),
			Active:   id == s.history.ActiveID,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Time != out[j].Time {
			return out[i].Time > out[j].Time
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Count returns the number of sessions that carry messages.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, session := range s.history.Sessions {
		if len(session.Messages) > 0 {
			n++
		}
	}
	return n
}

// save persists under the held lock. Failure is logged and ignored so chat
// keeps working when the disk does not.
func (s *Store) save() {
	if err := persist.Save(s.path, s.history); err != nil {
		s.logger.Warn("failed to persist history", zap.String("path", s.path), zap.Error(err))
	}
}
