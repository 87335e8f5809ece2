package api

import "time"

// Store is the persistence surface behind the HTTP layer. The SQLite
// implementation lives in internal/db; memoryStore backs tests and
// ephemeral dev runs.
type Store interface {
	AddSession(s *Session) error
	GetSession(id string) (*Session, error)
	UpdateSessionStatus(id, status string) error
	UpdateSessionProfile(id, name, email, gender string) error
	UpdateSessionLastQuestion(id, questionID string) error
	UpdateSessionCompletionTime(id string, seconds int64) error
	ListSessions(status string, from, to time.Time) ([]*Session, error)

	UpsertAnswer(a *Answer) error
	ListAnswers(sessionID string) ([]*Answer, error)
	DeleteAnswers(sessionID string) error

	AddOrder(o *Order) error
	GetOrder(id string) (*Order, error)
	UpdateOrder(id, status, paymentID string) error
	ListOrders(from, to time.Time) ([]*Order, error)

	FindAdminByEmail(email string) (*AdminUser, error)
	AddAdmin(u *AdminUser) error

	GetSettings() (*Settings, error)
	SaveSettings(s *Settings) error
}

var _ Store = (*memoryStore)(nil)
