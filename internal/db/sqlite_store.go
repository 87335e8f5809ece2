package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/velora-app/velora/internal/api"
)

// SQLiteStore is the durable api.Store. One database file, WAL mode, no
// ORM: the schema is small enough that plain SQL stays readable.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func NewStore(db *sql.DB) (api.Store, error) {
	return NewSQLiteStore(db)
}

func toNullString(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func toNullInt(i int64) sql.NullInt64 {
	if i == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: i, Valid: true}
}

func (s *SQLiteStore) AddSession(sess *api.Session) error {
	_, err := s.db.Exec(`
		INSERT INTO sessions (id, started_at, last_activity_at, status, last_question_id,
			completion_time_seconds, name, email, gender, client_ip)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		sess.ID, sess.StartedAt.UTC(), sess.LastActivityAt.UTC(), sess.Status,
		toNullString(sess.LastQuestionID), toNullInt(sess.CompletionTimeSeconds),
		toNullString(sess.Name), toNullString(sess.Email), toNullString(sess.Gender),
		toNullString(sess.ClientIP))
	return err
}

func (s *SQLiteStore) GetSession(id string) (*api.Session, error) {
	row := s.db.QueryRow(`
		SELECT id, started_at, last_activity_at, status, last_question_id,
			completion_time_seconds, name, email, gender, client_ip
		FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return sess, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*api.Session, error) {
	var sess api.Session
	var lastQ, name, email, gender, ip sql.NullString
	var completion sql.NullInt64
	err := row.Scan(&sess.ID, &sess.StartedAt, &sess.LastActivityAt, &sess.Status,
		&lastQ, &completion, &name, &email, &gender, &ip)
	if err != nil {
		return nil, err
	}
	sess.LastQuestionID = lastQ.String
	sess.CompletionTimeSeconds = completion.Int64
	sess.Name = name.String
	sess.Email = email.String
	sess.Gender = gender.String
	sess.ClientIP = ip.String
	return &sess, nil
}

func (s *SQLiteStore) UpdateSessionStatus(id, status string) error {
	_, err := s.db.Exec(`UPDATE sessions SET status = ? WHERE id = ?`, status, id)
	return err
}

func (s *SQLiteStore) UpdateSessionProfile(id, name, email, gender string) error {
	_, err := s.db.Exec(`
		UPDATE sessions SET
			name = COALESCE(?, name),
			email = COALESCE(?, email),
			gender = COALESCE(?, gender)
		WHERE id = ?`,
		toNullString(name), toNullString(email), toNullString(gender), id)
	return err
}

func (s *SQLiteStore) UpdateSessionLastQuestion(id, questionID string) error {
	_, err := s.db.Exec(`
		UPDATE sessions SET last_question_id = ?, last_activity_at = ? WHERE id = ?`,
		toNullString(questionID), time.Now().UTC(), id)
	return err
}

func (s *SQLiteStore) UpdateSessionCompletionTime(id string, seconds int64) error {
	_, err := s.db.Exec(`UPDATE sessions SET completion_time_seconds = ? WHERE id = ?`, seconds, id)
	return err
}

func (s *SQLiteStore) ListSessions(status string, from, to time.Time) ([]*api.Session, error) {
	query := `
		SELECT id, started_at, last_activity_at, status, last_question_id,
			completion_time_seconds, name, email, gender, client_ip
		FROM sessions WHERE 1=1`
	var args []any
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}
	if !from.IsZero() {
		query += " AND started_at >= ?"
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		query += " AND started_at <= ?"
		args = append(args, to.UTC())
	}
	query += " ORDER BY started_at"
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*api.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpsertAnswer(a *api.Answer) error {
	_, err := s.db.Exec(`
		INSERT INTO answers (session_id, question_id, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id, question_id) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		a.SessionID, a.QuestionID, a.Value, a.UpdatedAt.UTC())
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`UPDATE sessions SET last_activity_at = ? WHERE id = ?`,
		a.UpdatedAt.UTC(), a.SessionID)
	return err
}

func (s *SQLiteStore) ListAnswers(sessionID string) ([]*api.Answer, error) {
	rows, err := s.db.Query(`
		SELECT session_id, question_id, value, updated_at
		FROM answers WHERE session_id = ? ORDER BY updated_at`, sessionID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*api.Answer
	for rows.Next() {
		var a api.Answer
		if err := rows.Scan(&a.SessionID, &a.QuestionID, &a.Value, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteAnswers(sessionID string) error {
	_, err := s.db.Exec(`DELETE FROM answers WHERE session_id = ?`, sessionID)
	return err
}

func (s *SQLiteStore) AddOrder(o *api.Order) error {
	_, err := s.db.Exec(`
		INSERT INTO orders (id, session_id, plan_type, amount, currency, email, name,
			payment_id, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, toNullString(o.SessionID), o.PlanType, o.Amount, o.Currency, o.Email,
		toNullString(o.Name), toNullString(o.PaymentID), o.Status, o.CreatedAt.UTC())
	return err
}

func (s *SQLiteStore) GetOrder(id string) (*api.Order, error) {
	row := s.db.QueryRow(`
		SELECT id, session_id, plan_type, amount, currency, email, name,
			payment_id, status, created_at
		FROM orders WHERE id = ?`, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return o, err
}

func scanOrder(row rowScanner) (*api.Order, error) {
	var o api.Order
	var sessionID, name, paymentID sql.NullString
	err := row.Scan(&o.ID, &sessionID, &o.PlanType, &o.Amount, &o.Currency, &o.Email,
		&name, &paymentID, &o.Status, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	o.SessionID = sessionID.String
	o.Name = name.String
	o.PaymentID = paymentID.String
	return &o, nil
}

func (s *SQLiteStore) UpdateOrder(id, status, paymentID string) error {
	_, err := s.db.Exec(`
		UPDATE orders SET status = ?, payment_id = COALESCE(?, payment_id) WHERE id = ?`,
		status, toNullString(paymentID), id)
	return err
}

func (s *SQLiteStore) ListOrders(from, to time.Time) ([]*api.Order, error) {
	query := `
		SELECT id, session_id, plan_type, amount, currency, email, name,
			payment_id, status, created_at
		FROM orders WHERE 1=1`
	var args []any
	if !from.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		query += " AND created_at <= ?"
		args = append(args, to.UTC())
	}
	query += " ORDER BY created_at"
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*api.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) FindAdminByEmail(email string) (*api.AdminUser, error) {
	var u api.AdminUser
	err := s.db.QueryRow(`
		SELECT id, email, pass_hash, created_at FROM admin_users WHERE email = ?`, email).
		Scan(&u.ID, &u.Email, &u.PassHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *SQLiteStore) AddAdmin(u *api.AdminUser) error {
	_, err := s.db.Exec(`
		INSERT INTO admin_users (id, email, pass_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Email, u.PassHash, u.CreatedAt.UTC())
	return err
}

func (s *SQLiteStore) GetSettings() (*api.Settings, error) {
	var cfg api.Settings
	var visible int64
	err := s.db.QueryRow(`
		SELECT payment_mode, test_product_visible FROM settings WHERE id = 1`).
		Scan(&cfg.PaymentMode, &visible)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	cfg.TestProductVisible = visible != 0
	return &cfg, nil
}

func (s *SQLiteStore) SaveSettings(cfg *api.Settings) error {
	visible := 0
	if cfg.TestProductVisible {
		visible = 1
	}
	_, err := s.db.Exec(`
		INSERT INTO settings (id, payment_mode, test_product_visible) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			payment_mode = excluded.payment_mode,
			test_product_visible = excluded.test_product_visible`,
		cfg.PaymentMode, visible)
	return err
}

var _ api.Store = (*SQLiteStore)(nil)
