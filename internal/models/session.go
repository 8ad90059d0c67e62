package models

import "time"

// Session is the per-user conversation state.
type Session struct {
	ID           string        `json:"id"`
	Address      *string       `json:"address,omitempty"`
	Budget       *float64      `json:"budget,omitempty"`
	Preferences  []string      `json:"preferences"`
	PendingOrder *OrderDetails `json:"pending_order,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	LastActivity time.Time     `json:"last_activity"`
}

func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:           id,
		Preferences:  []string{},
		CreatedAt:    now,
		LastActivity: now,
	}
}

func (s *Session) HasAddress() bool     { return s.Address != nil }
func (s *Session) HasBudget() bool      { return s.Budget != nil }
func (s *Session) HasPreferences() bool { return len(s.Preferences) > 0 }

// SetAddress keeps the first address given.
func (s *Session) SetAddress(address string) {
	if s.Address == nil {
		s.Address = &address
	}
}

// SetBudget keeps the first budget given until it is cleared.
func (s *Session) SetBudget(budget float64) {
	if s.Budget == nil {
		s.Budget = &budget
	}
}

func (s *Session) AddPreference(preference string) {
	s.Preferences = append(s.Preferences, preference)
}

// ResetSearch clears budget and preferences after a search finds nothing. Address stays.
func (s *Session) ResetSearch() {
	s.Budget = nil
	s.Preferences = []string{}
}

// Clone returns a deep copy so callers can mutate without touching stored state.
func (s *Session) Clone() *Session {
	c := *s
	if s.Address != nil {
		a := *s.Address
		c.Address = &a
	}
	if s.Budget != nil {
		b := *s.Budget
		c.Budget = &b
	}
	c.Preferences = append([]string{}, s.Preferences...)
	if s.PendingOrder != nil {
		o := *s.PendingOrder
		o.Items = append([]MenuItem{}, s.PendingOrder.Items...)
		c.PendingOrder = &o
	}
	return &c
}

// Touch updates the last activity timestamp
func (s *Session) Touch() {
	s.LastActivity = time.Now().UTC()
}
