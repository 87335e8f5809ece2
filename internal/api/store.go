package api

import (
	"sort"
	"sync"
	"time"
)

type Session struct {
	ID                    string    `json:"id"`
	StartedAt             time.Time `json:"started_at"`
	LastActivityAt        time.Time `json:"last_activity_at"`
	Status                string    `json:"status"`
	LastQuestionID        string    `json:"last_question_id,omitempty"`
	CompletionTimeSeconds int64     `json:"completion_time_seconds,omitempty"`
	Name                  string    `json:"name,omitempty"`
	Email                 string    `json:"email,omitempty"`
	Gender                string    `json:"gender,omitempty"`
	ClientIP              string    `json:"client_ip,omitempty"`
}

type Answer struct {
	SessionID  string    `json:"session_id"`
	QuestionID string    `json:"question_id"`
	Value      string    `json:"value"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Order struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id,omitempty"`
	PlanType  string    `json:"plan_type"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	PaymentID string    `json:"payment_id,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type AdminUser struct {
	ID        string
	Email     string
	PassHash  []byte
	CreatedAt time.Time
}

type Settings struct {
	PaymentMode        string `json:"payment_mode"`
	TestProductVisible bool   `json:"test_product_visible"`
}

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	answers  map[string]map[string]*Answer
	orders   map[string]*Order
	admins   map[string]*AdminUser
	settings *Settings
}

// NewMemoryStore returns an in-memory Store. Nothing survives a restart;
// it backs handler tests and dev runs without a database file.
func NewMemoryStore() Store { return newMemoryStore() }

func newMemoryStore() *memoryStore {
	return &memoryStore{
		sessions: map[string]*Session{},
		answers:  map[string]map[string]*Answer{},
		orders:   map[string]*Order{},
		admins:   map[string]*AdminUser{},
	}
}

func (s *memoryStore) AddSession(sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sess
	s.sessions[sess.ID] = &cp
	return nil
}

func (s *memoryStore) GetSession(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *sess
	return &cp, nil
}

func (s *memoryStore) UpdateSessionStatus(id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		sess.Status = status
	}
	return nil
}

func (s *memoryStore) UpdateSessionProfile(id, name, email, gender string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		if name != "" {
			sess.Name = name
		}
		if email != "" {
			sess.Email = email
		}
		if gender != "" {
			sess.Gender = gender
		}
	}
	return nil
}

func (s *memoryStore) UpdateSessionLastQuestion(id, questionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		sess.LastQuestionID = questionID
		sess.LastActivityAt = time.Now().UTC()
	}
	return nil
}

func (s *memoryStore) UpdateSessionCompletionTime(id string, seconds int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		sess.CompletionTimeSeconds = seconds
	}
	return nil
}

func (s *memoryStore) ListSessions(status string, from, to time.Time) ([]*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if status != "" && sess.Status != status {
			continue
		}
		if !from.IsZero() && sess.StartedAt.Before(from) {
			continue
		}
		if !to.IsZero() && sess.StartedAt.After(to) {
			continue
		}
		cp := *sess
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}

func (s *memoryStore) UpsertAnswer(a *Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bySession := s.answers[a.SessionID]
	if bySession == nil {
		bySession = map[string]*Answer{}
		s.answers[a.SessionID] = bySession
	}
	cp := *a
	bySession[a.QuestionID] = &cp
	if sess, ok := s.sessions[a.SessionID]; ok {
		sess.LastActivityAt = a.UpdatedAt
	}
	return nil
}

func (s *memoryStore) ListAnswers(sessionID string) ([]*Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bySession := s.answers[sessionID]
	out := make([]*Answer, 0, len(bySession))
	for _, a := range bySession {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out, nil
}

func (s *memoryStore) DeleteAnswers(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.answers, sessionID)
	return nil
}

func (s *memoryStore) AddOrder(o *Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *o
	s.orders[o.ID] = &cp
	return nil
}

func (s *memoryStore) GetOrder(id string) (*Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (s *memoryStore) UpdateOrder(id, status, paymentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[id]; ok {
		o.Status = status
		if paymentID != "" {
			o.PaymentID = paymentID
		}
	}
	return nil
}

func (s *memoryStore) ListOrders(from, to time.Time) ([]*Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Order, 0, len(s.orders))
	for _, o := range s.orders {
		if !from.IsZero() && o.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && o.CreatedAt.After(to) {
			continue
		}
		cp := *o
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *memoryStore) FindAdminByEmail(email string) (*AdminUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.admins[email]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *memoryStore) AddAdmin(u *AdminUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.admins[u.Email] = &cp
	return nil
}

func (s *memoryStore) GetSettings() (*Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings == nil {
		return nil, nil
	}
	cp := *s.settings
	return &cp, nil
}

func (s *memoryStore) SaveSettings(cfg *Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *cfg
	s.settings = &cp
	return nil
}
