package services

import (
	"errors"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeClient implements PaymentClient against the Stripe API, holding one
// handle per key so the payment-mode toggle switches without re-init.
type StripeClient struct {
	live *client.API
	test *client.API
}

// NewStripeClient builds a client from the configured secret keys. Either
// key may be empty; using the missing mode surfaces a payment error.
func NewStripeClient(liveKey, testKey string) *StripeClient {
	c := &StripeClient{}
	if liveKey != "" {
		c.live = &client.API{}
		c.live.Init(liveKey, nil)
	}
	if testKey != "" {
		c.test = &client.API{}
		c.test.Init(testKey, nil)
	}
	return c
}

func (c *StripeClient) CreateIntent(amount int64, currency, email, description, planType string, live bool) (*PaymentIntent, error) {
	api := c.test
	if live {
		api = c.live
	}
	if api == nil {
		return nil, errors.New("payment processor key not configured")
	}
	params := &stripe.PaymentIntentParams{
		Amount:       stripe.Int64(amount),
		Currency:     stripe.String(currency),
		ReceiptEmail: stripe.String(email),
		Description:  stripe.String(description),
	}
	params.AddMetadata("plan_type", planType)
	pi, err := api.PaymentIntents.New(params)
	if err != nil {
		return nil, err
	}
	return &PaymentIntent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}
