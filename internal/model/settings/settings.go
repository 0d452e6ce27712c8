package settings

import "sync"

// Settings holds process-wide UI configuration. It is presentation state
// only and is never embedded in conversation data or persisted.
type Settings struct {
	ColorScheme    string `json:"colorScheme"`
	SidebarVisible bool   `json:"sidebarVisible"`
}

// Store guards the current settings for concurrent HTTP access.
type Store struct {
	mu      sync.RWMutex
	current Settings
}

// NewStore returns a Store with the default appearance.
func NewStore() *Store {
	return &Store{
		current: Settings{
			ColorScheme:    "light",
			SidebarVisible: true,
		},
	}
}

// Get returns the current settings.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update applies the non-nil fields and returns the resulting settings.
// The color scheme is an opaque token chosen by the front end.
func (s *Store) Update(colorScheme *string, sidebarVisible *bool) Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	if colorScheme != nil {
		s.current.ColorScheme = *colorScheme
	}
	if sidebarVisible != nil {
		s.current.SidebarVisible = *sidebarVisible
	}
	return s.current
}
