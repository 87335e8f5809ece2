package services

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// TrackingService forwards conversion events to the configured vendor
// pixel endpoint. Without credentials it silently no-ops.
type TrackingService struct {
	endpoint string
	token    string
	client   *http.Client
}

func NewTrackingService(endpoint, token string) *TrackingService {
	return &TrackingService{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// Enabled reports whether the vendor credentials are configured.
func (s *TrackingService) Enabled() bool {
	return s.endpoint != "" && s.token != ""
}

type conversionEvent struct {
	EventName string `json:"event_name"`
	Email     string `json:"email,omitempty"`
	Value     int64  `json:"value,omitempty"`
	Currency  string `json:"currency,omitempty"`
	PlanType  string `json:"plan_type,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// TrackPurchase posts the purchase event. Best-effort: failures are logged
// and swallowed, and the caller is expected to invoke it off the hot path.
func (s *TrackingService) TrackPurchase(order *Order) {
	if !s.Enabled() || order == nil {
		return
	}
	ev := conversionEvent{
		EventName: "Purchase",
		Email:     order.Email,
		Value:     order.Amount,
		Currency:  order.Currency,
		PlanType:  order.PlanType,
		Timestamp: time.Now().Unix(),
	}
	body, err := json.Marshal(ev)
	if err != nil {
		log.Printf("tracking: marshal event: %v", err)
		return
	}
	req, err := http.NewRequest(http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		log.Printf("tracking: build request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)
	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("tracking: send event: %v", err)
		return
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		log.Printf("tracking: vendor responded %d", resp.StatusCode)
	}
}
