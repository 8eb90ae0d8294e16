// Package drawers holds UI drawer visibility shared by every form.
package drawers

import "sync"

// Drawer names used in change events.
const (
	HighFeeConfirmation = "high_fee_confirmation"
)

// Change describes a drawer visibility transition.
type Change struct {
	Drawer  string `json:"drawer"`
	Showing bool   `json:"showing"`
}

// Store tracks drawer visibility and notifies listeners on change.
type Store struct {
	mu        sync.RWMutex
	highFee   bool
	listeners []func(Change)
}

// NewStore creates an empty store with every drawer hidden.
func NewStore() *Store {
	return &Store{}
}

// IsShowingHighFeeConfirmation reports whether the high-fee drawer is open.
func (s *Store) IsShowingHighFeeConfirmation() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.highFee
}

// SetIsShowingHighFeeConfirmation opens or closes the high-fee drawer.
// Listeners run only when the value changes.
func (s *Store) SetIsShowingHighFeeConfirmation(showing bool) {
	s.mu.Lock()
	if s.highFee == showing {
		s.mu.Unlock()
		return
	}
	s.highFee = showing
	listeners := append([]func(Change){}, s.listeners...)
	s.mu.Unlock()

	change := Change{Drawer: HighFeeConfirmation, Showing: showing}
	for _, fn := range listeners {
		fn(change)
	}
}

// Subscribe registers fn for every visibility change.
func (s *Store) Subscribe(fn func(Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}
