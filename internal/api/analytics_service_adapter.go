package api

import (
	"github.com/velora-app/velora/internal/services"
)

type analyticsStoreAdapter struct {
	store Store
}

func newAnalyticsStoreAdapter(store Store) services.AnalyticsStore {
	return &analyticsStoreAdapter{store: store}
}

func (a *analyticsStoreAdapter) ListSessions(f services.RangeFilter) ([]*services.SessionRow, error) {
	rows, err := a.store.ListSessions(f.Status, f.From, f.To)
	if err != nil {
		return nil, err
	}
	out := make([]*services.SessionRow, 0, len(rows))
	for _, s := range rows {
		out = append(out, &services.SessionRow{
			SessionID:             s.ID,
			StartedAt:             s.StartedAt,
			LastActivityAt:        s.LastActivityAt,
			Status:                s.Status,
			LastQuestionID:        s.LastQuestionID,
			CompletionTimeSeconds: s.CompletionTimeSeconds,
			Name:                  s.Name,
			Email:                 s.Email,
			Gender:                s.Gender,
			ClientIP:              s.ClientIP,
		})
	}
	return out, nil
}

func (a *analyticsStoreAdapter) ListOrders(f services.RangeFilter) ([]*services.Order, error) {
	rows, err := a.store.ListOrders(f.From, f.To)
	if err != nil {
		return nil, err
	}
	out := make([]*services.Order, 0, len(rows))
	for _, o := range rows {
		out = append(out, orderOut(o))
	}
	return out, nil
}

var _ services.AnalyticsStore = (*analyticsStoreAdapter)(nil)
