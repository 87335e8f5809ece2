package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/velora-app/velora/internal/middleware"
	"github.com/velora-app/velora/internal/services"
)

// POST /api/admin/login
func (rt *Router) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := rt.auth.Login(req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":      res.Token,
		"user_id":    res.UserID,
		"expires_at": res.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// GET /api/admin/dashboard?status=&from=&to=
func (rt *Router) handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	filter, err := dashboardFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := rt.analytics.Summary(filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rows, err := rt.analytics.Rows(filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"summary":  summary,
		"sessions": rows,
	})
}

// GET /api/admin/export?status=&from=&to= — the dashboard rows as CSV.
func (rt *Router) handleAdminExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	filter, err := dashboardFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rows, err := rt.analytics.Rows(filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := services.ExportDashboardCSV(rows)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=sessions.csv")
	_, _ = w.Write(b)
}

// GET or PUT /api/admin/settings — the payment-mode and test-product toggles.
func (rt *Router) handleAdminSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		cfg, err := rt.settings.Get()
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, cfg)
	case http.MethodPut, http.MethodPost:
		var req struct {
			PaymentMode        *string `json:"payment_mode"`
			TestProductVisible *bool   `json:"test_product_visible"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		cfg, err := rt.settings.Update(req.PaymentMode, req.TestProductVisible)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if uid, ok := middleware.AdminFromContext(r.Context()); ok {
			log.Printf("settings updated by %s: mode=%s test_product=%v", uid, cfg.PaymentMode, cfg.TestProductVisible)
		}
		writeJSON(w, http.StatusOK, cfg)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func dashboardFilter(r *http.Request) (services.RangeFilter, error) {
	q := r.URL.Query()
	return services.ParseRangeFilter(q.Get("status"), q.Get("from"), q.Get("to"))
}
