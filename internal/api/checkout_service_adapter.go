package api

import (
	"github.com/velora-app/velora/internal/services"
)

type orderStoreAdapter struct {
	store Store
}

func newOrderStoreAdapter(store Store) services.OrderStore {
	return &orderStoreAdapter{store: store}
}

func (a *orderStoreAdapter) AddOrder(o *services.Order) error {
	if o == nil {
		return services.NewInvalidError("order required")
	}
	return a.store.AddOrder(&Order{
		ID:        o.ID,
		SessionID: o.SessionID,
		PlanType:  o.PlanType,
		Amount:    o.Amount,
		Currency:  o.Currency,
		Email:     o.Email,
		Name:      o.Name,
		PaymentID: o.PaymentID,
		Status:    o.Status,
		CreatedAt: o.CreatedAt,
	})
}

func (a *orderStoreAdapter) GetOrder(id string) (*services.Order, error) {
	o, err := a.store.GetOrder(id)
	if err != nil || o == nil {
		return nil, err
	}
	return orderOut(o), nil
}

func (a *orderStoreAdapter) UpdateOrder(id, status, paymentID string) error {
	return a.store.UpdateOrder(id, status, paymentID)
}

func orderOut(o *Order) *services.Order {
	return &services.Order{
		ID:        o.ID,
		SessionID: o.SessionID,
		PlanType:  o.PlanType,
		Amount:    o.Amount,
		Currency:  o.Currency,
		Email:     o.Email,
		Name:      o.Name,
		PaymentID: o.PaymentID,
		Status:    o.Status,
		CreatedAt: o.CreatedAt,
	}
}

var _ services.OrderStore = (*orderStoreAdapter)(nil)
