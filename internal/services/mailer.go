package services

import (
	"fmt"
	"log"

	"github.com/resend/resend-go/v2"
)

// Mailer sends the purchase confirmation email. Without an API key it
// silently no-ops: a missing vendor credential must never block the funnel.
type Mailer struct {
	client *resend.Client
	from   string
}

func NewMailer(apiKey, from string) *Mailer {
	m := &Mailer{from: from}
	if apiKey != "" {
		m.client = resend.NewClient(apiKey)
	}
	return m
}

// SendPurchaseConfirmation emails the receipt for a paid order. Failures
// are logged and swallowed; the thank-you page does not depend on it.
func (m *Mailer) SendPurchaseConfirmation(order *Order) {
	if m.client == nil || order == nil || order.Email == "" {
		return
	}
	greeting := "Ciao,"
	if order.Name != "" {
		greeting = fmt.Sprintf("Ciao %s,", order.Name)
	}
	html := fmt.Sprintf(
		"<p>%s</p><p>grazie per il tuo acquisto: <strong>%s</strong> (%.2f €).</p><p>Il tuo programma è attivo.</p>",
		greeting, order.PlanType, float64(order.Amount)/100,
	)
	_, err := m.client.Emails.Send(&resend.SendEmailRequest{
		From:    m.from,
		To:      []string{order.Email},
		Subject: "Il tuo programma Velora è attivo",
		Html:    html,
	})
	if err != nil {
		log.Printf("mailer: purchase confirmation: %v", err)
	}
}
