// Package profile manages the singleton user career profile.
package profile

import (
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/annai/internal/models"
	"github.com/hyperjump/annai/internal/persist"
)

// EducationLevels are the accepted values for the education field. The field
// is stored as free text; validation happens at the API edge.
var EducationLevels = []string{"Student", "Undergraduate", "Graduate", "PhD/Professional"}

// ValidEducation reports whether level is one of the accepted values.
func ValidEducation(level string) bool {
	for _, l := range EducationLevels {
		if l == level {
			return true
		}
	}
	return false
}

// Store owns the profile state and its JSON file.
type Store struct {
	mu      sync.Mutex
	profile models.Profile
	path    string
	logger  *zap.Logger
}

// NewStore loads the profile from path, falling back to defaults when the
// file is missing or unreadable.
func NewStore(path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		profile: persist.Load(path, models.DefaultProfile()),
		path:    path,
		logger:  logger,
	}
}

// Get returns the current profile.
func (s *Store) Get() models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// Replace overwrites the whole profile and persists it.
func (s *Store) Replace(p models.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = p
	s.save()
}

// Reset restores the default profile and persists it.
func (s *Store) Reset() models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = models.DefaultProfile()
	s.save()
	return s.profile
}

func (s *Store) save() {
	if err := persist.Save(s.path, s.profile); err != nil {
		s.logger.Warn("failed to persist profile", zap.String("path", s.path), zap.Error(err))
	}
}
