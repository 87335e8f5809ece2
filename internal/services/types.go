package services

import "time"

// SessionRow is the dashboard-facing projection of a funnel session.
type SessionRow struct {
	SessionID             string    `json:"session_id"`
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

// Order is one recorded checkout.
type Order struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id,omitempty"`
	PlanType  string    `json:"plan_type"`
	Amount    int64     `json:"amount"` // minor currency units
	Currency  string    `json:"currency"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	PaymentID string    `json:"payment_id,omitempty"`
	Status    string    `json:"status"` // pending | paid | failed
	CreatedAt time.Time `json:"created_at"`
}

// AdminUser is a staff credential row. Only the bcrypt hash is stored.
type AdminUser struct {
	ID        string
	Email     string
	PassHash  []byte
	CreatedAt time.Time
}

// Settings are the two operational toggles exposed on the dashboard.
type Settings struct {
	PaymentMode        string `json:"payment_mode"` // live | test
	TestProductVisible bool   `json:"test_product_visible"`
}

const (
	PaymentModeLive = "live"
	PaymentModeTest = "test"
)

// RangeFilter bounds dashboard queries; zero values mean unbounded.
type RangeFilter struct {
	Status string
	From   time.Time
	To     time.Time
}
