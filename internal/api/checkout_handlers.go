package api

import (
	"encoding/json"
	"net/http"
)

// GET /api/plans — the purchasable plans. The staff-only test product is
// listed only while its dashboard toggle is on.
func (rt *Router) handlePlans(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	plans, err := rt.checkout.Plans()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"plans": plans})
}

// POST /api/checkout — create a payment intent and a pending order.
func (rt *Router) handleCheckout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		SessionID string `json:"session_id"`
		PlanType  string `json:"plan_type"`
		Email     string `json:"email"`
		Name      string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sid := sessionIDFrom(r, req.SessionID)
	// The capture pages may already hold the visitor identity; an omitted
	// field falls back to it.
	if req.Email == "" || req.Name == "" {
		if p, err := rt.flow.Profile(sid); err == nil {
			if req.Email == "" {
				req.Email = p.Email
			}
			if req.Name == "" {
				req.Name = p.Name
			}
		}
	}
	res, err := rt.checkout.Start(sid, req.PlanType, req.Email, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// POST /api/checkout/complete — mark the order paid once the client
// confirms the payment. Confirmation email and the conversion event go
// out on the side; neither blocks the response.
func (rt *Router) handleCheckoutComplete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		OrderID string `json:"order_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	order, err := rt.checkout.Complete(req.OrderID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	go func() {
		if rt.mailer != nil {
			rt.mailer.SendPurchaseConfirmation(order)
		}
		if rt.tracking != nil {
			rt.tracking.TrackPurchase(order)
		}
	}()
	writeJSON(w, http.StatusOK, order)
}
