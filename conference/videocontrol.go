package conference

import (
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/linesmerrill/video-hearings-api/models"
)

// VideoControlStore holds the host controlled media flags of each conference
type VideoControlStore struct {
	mu       sync.RWMutex
	statuses map[string]map[string]models.VideoControlStatus
}

// NewVideoControlStore creates an empty store
func NewVideoControlStore() *VideoControlStore {
	return &VideoControlStore{statuses: make(map[string]map[string]models.VideoControlStatus)}
}

// Set replaces every status held for the conference
func (s *VideoControlStore) Set(conferenceID string, statuses []models.VideoControlStatus) {
	byParticipant := lo.SliceToMap(statuses, func(st models.VideoControlStatus) (string, models.VideoControlStatus) {
		return st.ParticipantID, st
	})
	s.mu.Lock()
	s.statuses[conferenceID] = byParticipant
	s.mu.Unlock()
}

// Get returns the statuses for the conference ordered by participant id
func (s *VideoControlStore) Get(conferenceID string) []models.VideoControlStatus {
	s.mu.RLock()
	res := lo.Values(s.statuses[conferenceID])
	s.mu.RUnlock()
	sort.Slice(res, func(i, j int) bool { return res[i].ParticipantID < res[j].ParticipantID })
	return res
}

// Clear forgets the conference
func (s *VideoControlStore) Clear(conferenceID string) {
	s.mu.Lock()
	delete(s.statuses, conferenceID)
	s.mu.Unlock()
}
