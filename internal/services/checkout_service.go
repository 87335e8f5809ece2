package services

import (
	"regexp"
	"strings"
	"time"
)

// Plan is one purchasable entry on the pricing page.
type Plan struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Amount   int64  `json:"amount"` // minor currency units
	Currency string `json:"currency"`
	// StaffOnly plans are listed only when the test-product toggle is on.
	StaffOnly bool `json:"-"`
}

var planCatalog = []Plan{
	{Type: "trial", Name: "Prova 7 giorni", Amount: 100, Currency: "eur"},
	{Type: "monthly", Name: "Piano mensile", Amount: 2999, Currency: "eur"},
	{Type: "quarterly", Name: "Piano trimestrale", Amount: 5999, Currency: "eur"},
	{Type: "test", Name: "Prodotto di test", Amount: 50, Currency: "eur", StaffOnly: true},
}

// PaymentIntent is the vendor handle returned to the client for card entry.
type PaymentIntent struct {
	ID           string
	ClientSecret string
}

// PaymentClient abstracts the card-payment processor. live selects the live
// key; otherwise the test key is used.
type PaymentClient interface {
	CreateIntent(amount int64, currency, email, description, planType string, live bool) (*PaymentIntent, error)
}

type OrderStore interface {
	AddOrder(o *Order) error
	GetOrder(id string) (*Order, error)
	UpdateOrder(id, status, paymentID string) error
}

// CheckoutService wraps the payment processor: plan lookup, intent
// creation, and order bookkeeping. Payment failures block the checkout
// (that is the point) and nothing else.
type CheckoutService struct {
	store    OrderStore
	payments PaymentClient
	settings *SettingsService
	now      func() time.Time
	idGen    func(prefix string, n int) string
}

func NewCheckoutService(store OrderStore, payments PaymentClient, settings *SettingsService) *CheckoutService {
	return &CheckoutService{
		store:    store,
		payments: payments,
		settings: settings,
		now:      func() time.Time { return time.Now().UTC() },
		idGen:    func(prefix string, n int) string { return prefix + shortID(n) },
	}
}

// Plans lists the purchasable plans, hiding the staff test product unless
// the visibility toggle is on.
func (s *CheckoutService) Plans() ([]Plan, error) {
	cfg, err := s.settings.Get()
	if err != nil {
		return nil, err
	}
	out := make([]Plan, 0, len(planCatalog))
	for _, p := range planCatalog {
		if p.StaffOnly && !cfg.TestProductVisible {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func findPlan(planType string) *Plan {
	for i := range planCatalog {
		if planCatalog[i].Type == planType {
			return &planCatalog[i]
		}
	}
	return nil
}

var checkoutEmail = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// CheckoutResult carries what the payment form needs.
type CheckoutResult struct {
	OrderID      string `json:"order_id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	PaymentMode  string `json:"payment_mode"`
}

// Start creates a payment intent for a plan and records a pending order.
func (s *CheckoutService) Start(sessionID, planType, email, name string) (*CheckoutResult, error) {
	plan := findPlan(planType)
	if plan == nil {
		return nil, NewInvalidError("unknown plan type")
	}
	email = strings.TrimSpace(email)
	if !checkoutEmail.MatchString(email) {
		return nil, NewInvalidError("valid email required")
	}
	cfg, err := s.settings.Get()
	if err != nil {
		return nil, err
	}
	if plan.StaffOnly && !cfg.TestProductVisible {
		return nil, NewNotFoundError("unknown plan type")
	}
	live := cfg.PaymentMode == PaymentModeLive
	order := &Order{
		ID:        s.idGen("o", 11),
		SessionID: sessionID,
		PlanType:  plan.Type,
		Amount:    plan.Amount,
		Currency:  plan.Currency,
		Email:     email,
		Name:      strings.TrimSpace(name),
		Status:    "pending",
		CreatedAt: s.now(),
	}
	if err := s.store.AddOrder(order); err != nil {
		return nil, err
	}
	intent, err := s.payments.CreateIntent(plan.Amount, plan.Currency, email, plan.Name, plan.Type, live)
	if err != nil {
		if uerr := s.store.UpdateOrder(order.ID, "failed", ""); uerr != nil {
			return nil, uerr
		}
		return nil, NewPaymentError(err.Error())
	}
	if err := s.store.UpdateOrder(order.ID, "pending", intent.ID); err != nil {
		return nil, err
	}
	return &CheckoutResult{
		OrderID:      order.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       plan.Amount,
		Currency:     plan.Currency,
		PaymentMode:  cfg.PaymentMode,
	}, nil
}

// Complete marks an order paid after the client confirms the payment.
// The thank-you page data (plan, amount, name, email) comes back so the
// caller can fire the purchase notification and the receipt email.
func (s *CheckoutService) Complete(orderID string) (*Order, error) {
	order, err := s.store.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, NewNotFoundError("order not found")
	}
	if order.Status == "paid" {
		return order, nil
	}
	if order.Status != "pending" {
		return nil, NewConflictError("order is not payable")
	}
	if err := s.store.UpdateOrder(order.ID, "paid", order.PaymentID); err != nil {
		return nil, err
	}
	order.Status = "paid"
	return order, nil
}
