package api

import (
	"time"

	"github.com/velora-app/velora/internal/quiz"
)

type funnelStoreAdapter struct {
	store Store
}

func newFunnelStoreAdapter(store Store) quiz.SessionStore {
	return &funnelStoreAdapter{store: store}
}

func (a *funnelStoreAdapter) CreateSession(id string, startedAt time.Time, clientIP string) error {
	return a.store.AddSession(&Session{
		ID:             id,
		StartedAt:      startedAt,
		LastActivityAt: startedAt,
		Status:         string(quiz.StatusInProgress),
		ClientIP:       clientIP,
	})
}

func (a *funnelStoreAdapter) SessionExists(id string) (bool, error) {
	sess, err := a.store.GetSession(id)
	if err != nil {
		return false, err
	}
	return sess != nil, nil
}

func (a *funnelStoreAdapter) UpsertAnswer(sessionID, questionID, value string, at time.Time) error {
	return a.store.UpsertAnswer(&Answer{
		SessionID:  sessionID,
		QuestionID: questionID,
		Value:      value,
		UpdatedAt:  at,
	})
}

func (a *funnelStoreAdapter) LoadAnswers(sessionID string) ([]quiz.StoredAnswer, error) {
	rows, err := a.store.ListAnswers(sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]quiz.StoredAnswer, 0, len(rows))
	for _, r := range rows {
		out = append(out, quiz.StoredAnswer{QuestionID: r.QuestionID, Value: r.Value})
	}
	return out, nil
}

func (a *funnelStoreAdapter) ClearAnswers(sessionID string) error {
	return a.store.DeleteAnswers(sessionID)
}

func (a *funnelStoreAdapter) MarkStatus(sessionID string, status quiz.SessionStatus) error {
	return a.store.UpdateSessionStatus(sessionID, string(status))
}

func (a *funnelStoreAdapter) UpdateLastQuestionSeen(sessionID, questionID string) error {
	return a.store.UpdateSessionLastQuestion(sessionID, questionID)
}

func (a *funnelStoreAdapter) SetProfile(sessionID string, p quiz.Profile) error {
	return a.store.UpdateSessionProfile(sessionID, p.Name, p.Email, p.Gender)
}

func (a *funnelStoreAdapter) SetCompletionTime(sessionID string, seconds int64) error {
	return a.store.UpdateSessionCompletionTime(sessionID, seconds)
}

var _ quiz.SessionStore = (*funnelStoreAdapter)(nil)
