package services

import (
	"fmt"
	"sync"
	"time"

	"insightforge-api/pkg/models"

	"github.com/google/uuid"
)

// DefaultChatDisplay is how many recent chat turns are returned when no
// explicit limit is given. Storage itself is unbounded.
const DefaultChatDisplay = 8

// SessionService owns all live sessions. Sessions exist only in memory and
// each one is driven by a single user at a time; the lock guards the map,
// not the sessions themselves.
type SessionService struct {
	sessions map[string]*models.Session
	mu       sync.RWMutex
}

// NewSessionService creates a new SessionService.
func NewSessionService() *SessionService {
	return &SessionService{
		sessions: make(map[string]*models.Session),
	}
}

// Create opens a new session around a freshly loaded dataset. The initial
// filter selects everything: the full date range, all regions, all
// categories.
func (ss *SessionService) Create(dataset *models.Dataset) *models.Session {
	session := &models.Session{
		ID:      uuid.New().String(),
		Dataset: dataset,
		Filter: models.FilterParams{
			StartDate:  dataset.MinDate,
			EndDate:    dataset.MaxDate,
			Regions:    append([]string(nil), dataset.Regions...),
			Categories: append([]string(nil), dataset.Categories...),
		},
		CreatedAt: time.Now(),
	}

	ss.mu.Lock()
	ss.sessions[session.ID] = session
	ss.mu.Unlock()

	return session
}

// Get returns the session for id, or an error when it does not exist.
func (ss *SessionService) Get(id string) (*models.Session, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	session, ok := ss.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s not found", id)
	}
	return session, nil
}

// Delete removes a session and everything it owns.
func (ss *SessionService) Delete(id string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.sessions, id)
}

// Count returns the number of live sessions.
func (ss *SessionService) Count() int {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return len(ss.sessions)
}

// SetFilter replaces the session's filter selection. The memoized analysis
// is keyed by the filter, so a changed selection recomputes on next access.
func (ss *SessionService) SetFilter(session *models.Session, filter models.FilterParams) {
	session.Filter = filter
}

// RecentChat returns the most recent limit turns in chronological order.
// limit <= 0 falls back to DefaultChatDisplay.
func (ss *SessionService) RecentChat(session *models.Session, limit int) []models.ChatTurn {
	if limit <= 0 {
		limit = DefaultChatDisplay
	}
	if len(session.ChatLog) <= limit {
		return append([]models.ChatTurn{}, session.ChatLog...)
	}
	return append([]models.ChatTurn{}, session.ChatLog[len(session.ChatLog)-limit:]...)
}
