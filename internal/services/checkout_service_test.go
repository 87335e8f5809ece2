package services

import (
	"errors"
	"testing"
)

type stubSettingsStore struct {
	saved *Settings
}

func (s *stubSettingsStore) GetSettings() (*Settings, error) { return s.saved, nil }
func (s *stubSettingsStore) SaveSettings(v *Settings) error {
	cp := *v
	s.saved = &cp
	return nil
}

type stubOrderStore struct {
	orders map[string]*Order
}

func newStubOrderStore() *stubOrderStore { return &stubOrderStore{orders: map[string]*Order{}} }

func (s *stubOrderStore) AddOrder(o *Order) error {
	cp := *o
	s.orders[o.ID] = &cp
	return nil
}

func (s *stubOrderStore) GetOrder(id string) (*Order, error) { return s.orders[id], nil }

func (s *stubOrderStore) UpdateOrder(id, status, paymentID string) error {
	o := s.orders[id]
	if o == nil {
		return errors.New("missing order")
	}
	o.Status = status
	if paymentID != "" {
		o.PaymentID = paymentID
	}
	return nil
}

type stubPayments struct {
	lastLive bool
	fail     bool
	calls    int
}

func (p *stubPayments) CreateIntent(amount int64, currency, email, description, planType string, live bool) (*PaymentIntent, error) {
	p.calls++
	p.lastLive = live
	if p.fail {
		return nil, errors.New("card declined")
	}
	return &PaymentIntent{ID: "pi_123", ClientSecret: "pi_123_secret"}, nil
}

func TestPlansHideTestProduct(t *testing.T) {
	settings := NewSettingsService(&stubSettingsStore{})
	svc := NewCheckoutService(newStubOrderStore(), &stubPayments{}, settings)

	plans, err := svc.Plans()
	if err != nil {
		t.Fatalf("plans: %v", err)
	}
	if len(plans) != 3 {
		t.Fatalf("expected trial/monthly/quarterly only, got %d", len(plans))
	}
	for _, p := range plans {
		if p.Type == "test" {
			t.Fatalf("test product listed while hidden")
		}
	}

	visible := true
	if _, err := settings.Update(nil, &visible); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	plans, _ = svc.Plans()
	if len(plans) != 4 {
		t.Fatalf("expected test product when visible, got %d plans", len(plans))
	}
}

func TestStartCheckoutUsesPaymentModeFlag(t *testing.T) {
	settings := NewSettingsService(&stubSettingsStore{})
	payments := &stubPayments{}
	store := newStubOrderStore()
	svc := NewCheckoutService(store, payments, settings)

	res, err := svc.Start("sess1", "monthly", "mario@example.com", "Mario")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if payments.lastLive {
		t.Fatalf("default payment mode is test")
	}
	if res.Amount != 2999 || res.Currency != "eur" {
		t.Fatalf("unexpected amounts: %+v", res)
	}
	if res.ClientSecret != "pi_123_secret" {
		t.Fatalf("client secret not propagated: %+v", res)
	}
	if store.orders[res.OrderID].Status != "pending" {
		t.Fatalf("order should be pending")
	}

	mode := PaymentModeLive
	if _, err := settings.Update(&mode, nil); err != nil {
		t.Fatalf("switch mode: %v", err)
	}
	if _, err := svc.Start("sess1", "trial", "mario@example.com", "Mario"); err != nil {
		t.Fatalf("start live: %v", err)
	}
	if !payments.lastLive {
		t.Fatalf("live mode not passed to the processor")
	}
}

func TestStartCheckoutValidation(t *testing.T) {
	settings := NewSettingsService(&stubSettingsStore{})
	svc := NewCheckoutService(newStubOrderStore(), &stubPayments{}, settings)

	_, err := svc.Start("", "gold", "mario@example.com", "")
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorInvalid {
		t.Fatalf("unknown plan: expected invalid, got %v", err)
	}
	_, err = svc.Start("", "monthly", "not-an-email", "")
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorInvalid {
		t.Fatalf("bad email: expected invalid, got %v", err)
	}
	// Hidden test product is not purchasable either.
	_, err = svc.Start("", "test", "mario@example.com", "")
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorNotFound {
		t.Fatalf("hidden plan: expected not_found, got %v", err)
	}
}

func TestPaymentFailureMarksOrderFailed(t *testing.T) {
	settings := NewSettingsService(&stubSettingsStore{})
	payments := &stubPayments{fail: true}
	store := newStubOrderStore()
	svc := NewCheckoutService(store, payments, settings)

	_, err := svc.Start("sess1", "trial", "mario@example.com", "Mario")
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorPaymentFailed {
		t.Fatalf("expected payment_failed, got %v", err)
	}
	var failed *Order
	for _, o := range store.orders {
		failed = o
	}
	if failed == nil || failed.Status != "failed" {
		t.Fatalf("declined payment should leave a failed order, got %+v", failed)
	}

	// Retry affordance: a second attempt goes back to the processor.
	payments.fail = false
	if _, err := svc.Start("sess1", "trial", "mario@example.com", "Mario"); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if payments.calls != 2 {
		t.Fatalf("expected two processor calls, got %d", payments.calls)
	}
}

func TestCompleteOrder(t *testing.T) {
	settings := NewSettingsService(&stubSettingsStore{})
	store := newStubOrderStore()
	svc := NewCheckoutService(store, &stubPayments{}, settings)

	res, err := svc.Start("sess1", "quarterly", "mario@example.com", "Mario")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	order, err := svc.Complete(res.OrderID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if order.Status != "paid" || order.PlanType != "quarterly" {
		t.Fatalf("unexpected order: %+v", order)
	}
	// Completing twice is idempotent.
	again, err := svc.Complete(res.OrderID)
	if err != nil || again.Status != "paid" {
		t.Fatalf("second complete: %v %+v", err, again)
	}
	if _, err := svc.Complete("o_missing"); err == nil {
		t.Fatalf("missing order should fail")
	}
}
