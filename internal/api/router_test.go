package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/velora-app/velora/internal/middleware"
	"github.com/velora-app/velora/internal/quiz"
	"github.com/velora-app/velora/internal/services"
)

type stubPayments struct {
	lastLive bool
	fail     bool
}

func (p *stubPayments) CreateIntent(amount int64, currency, email, description, planType string, live bool) (*services.PaymentIntent, error) {
	p.lastLive = live
	if p.fail {
		return nil, fmt.Errorf("card declined")
	}
	return &services.PaymentIntent{ID: "pi_test", ClientSecret: "cs_test"}, nil
}

func newTestHandler(t *testing.T) (http.Handler, *Router, Store) {
	t.Helper()
	catalog, err := quiz.LoadCatalogFile("")
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	store := NewMemoryStore()
	rt := NewRouter(RouterConfig{
		Store:      store,
		Catalog:    catalog,
		PricingURL: "/pricing",
		Payments:   &stubPayments{},
	})
	mux := http.NewServeMux()
	rt.Register(mux)
	return middleware.WithAuth(mux), rt, store
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		_ = json.NewDecoder(rec.Body).Decode(&out)
	}
	return rec, out
}

func TestQuestionsEndpoint(t *testing.T) {
	h, _, _ := newTestHandler(t)
	rec, out := doJSON(t, h, http.MethodGet, "/api/questions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if out["total"].(float64) != 30 {
		t.Fatalf("expected 30 questions, got %v", out["total"])
	}
}

func TestOpenSessionAndAdvance(t *testing.T) {
	h, _, _ := newTestHandler(t)
	rec, out := doJSON(t, h, http.MethodPost, "/api/flow/session", map[string]any{})
	if rec.Code != http.StatusOK {
		t.Fatalf("open: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	sid := out["session_id"].(string)
	if out["prior_session"].(bool) {
		t.Fatalf("fresh session flagged as prior")
	}
	state := out["state"].(map[string]any)
	q := state["question"].(map[string]any)

	rec, out = doJSON(t, h, http.MethodPost, "/api/flow/advance", map[string]any{
		"session_id":  sid,
		"question_id": q["id"],
		"value":       q["options"].([]any)[0].(map[string]any)["label"],
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("advance: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if out["step_index"].(float64) != 1 {
		t.Fatalf("expected step 1, got %v", out["step_index"])
	}
}

func TestAdvanceWithoutValueIsRejected(t *testing.T) {
	h, _, _ := newTestHandler(t)
	_, out := doJSON(t, h, http.MethodPost, "/api/flow/session", map[string]any{})
	sid := out["session_id"].(string)
	state := out["state"].(map[string]any)
	q := state["question"].(map[string]any)

	rec, out := doJSON(t, h, http.MethodPost, "/api/flow/advance", map[string]any{
		"session_id":  sid,
		"question_id": q["id"],
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if out["error"] != "not_ready" {
		t.Fatalf("expected not_ready, got %v", out["error"])
	}
	// Localized default is Italian.
	if !strings.Contains(out["message"].(string), "Rispondi") {
		t.Fatalf("expected Italian message, got %v", out["message"])
	}
}

func TestUnknownSessionIs404(t *testing.T) {
	h, _, _ := newTestHandler(t)
	rec, out := doJSON(t, h, http.MethodGet, "/api/flow/state?session_id=nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if out["error"] != "unknown_session" {
		t.Fatalf("expected unknown_session, got %v", out["error"])
	}
}

func TestPriorSessionRequiresResumeChoice(t *testing.T) {
	h, _, store := newTestHandler(t)

	// Simulate a returning visitor: a persisted session with one answer but
	// no in-memory state.
	sid := "sess-returning"
	now := time.Now().UTC()
	if err := store.AddSession(&Session{ID: sid, StartedAt: now, LastActivityAt: now, Status: "in_progress"}); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	if err := store.UpsertAnswer(&Answer{SessionID: sid, QuestionID: "age_range", Value: `"25-34"`, UpdatedAt: now}); err != nil {
		t.Fatalf("seed answer: %v", err)
	}

	rec, out := doJSON(t, h, http.MethodPost, "/api/flow/session", map[string]any{"session_id": sid})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !out["prior_session"].(bool) {
		t.Fatalf("expected prior_session=true")
	}

	rec, out = doJSON(t, h, http.MethodPost, "/api/flow/resume", map[string]any{
		"session_id": sid, "mode": "continue",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("resume: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !out["ready"].(bool) {
		t.Fatalf("resumed session should be ready")
	}
}

func TestPlansEndpointHidesTestProduct(t *testing.T) {
	h, _, _ := newTestHandler(t)
	rec, out := doJSON(t, h, http.MethodGet, "/api/plans", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	plans := out["plans"].([]any)
	if len(plans) != 3 {
		t.Fatalf("expected 3 public plans, got %d", len(plans))
	}
	for _, p := range plans {
		if p.(map[string]any)["type"] == "test" {
			t.Fatalf("test product listed without the toggle")
		}
	}
}

func TestCheckoutStartAndComplete(t *testing.T) {
	h, _, _ := newTestHandler(t)
	rec, out := doJSON(t, h, http.MethodPost, "/api/checkout", map[string]any{
		"plan_type": "monthly",
		"email":     "cliente@example.com",
		"name":      "Giulia",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("checkout: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	orderID := out["order_id"].(string)
	if out["client_secret"] != "cs_test" {
		t.Fatalf("expected client secret, got %v", out["client_secret"])
	}

	rec, out = doJSON(t, h, http.MethodPost, "/api/checkout/complete", map[string]any{"order_id": orderID})
	if rec.Code != http.StatusOK {
		t.Fatalf("complete: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if out["status"] != "paid" {
		t.Fatalf("expected paid, got %v", out["status"])
	}
}

func TestAdminEndpointsRequireAuth(t *testing.T) {
	h, _, _ := newTestHandler(t)
	rec, _ := doJSON(t, h, http.MethodGet, "/api/admin/dashboard", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAdminLoginAndDashboard(t *testing.T) {
	h, rt, _ := newTestHandler(t)
	if err := rt.Auth().EnsureAdmin("staff@velora.app", "segretissimo"); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	rec, out := doJSON(t, h, http.MethodPost, "/api/admin/login", map[string]any{
		"email": "staff@velora.app", "password": "segretissimo",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	token := out["token"].(string)
	if token == "" {
		t.Fatalf("empty token")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec2 := httptest.NewRecorder()
	h.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusOK {
		t.Fatalf("dashboard: expected 200, got %d: %s", rec2.Code, rec2.Body.String())
	}
	var body map[string]any
	if err := json.NewDecoder(rec2.Body).Decode(&body); err != nil {
		t.Fatalf("decode dashboard: %v", err)
	}
	if _, ok := body["summary"]; !ok {
		t.Fatalf("dashboard missing summary")
	}
}

func TestAdminLoginRejectsBadPassword(t *testing.T) {
	h, rt, _ := newTestHandler(t)
	if err := rt.Auth().EnsureAdmin("staff@velora.app", "segretissimo"); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	rec, _ := doJSON(t, h, http.MethodPost, "/api/admin/login", map[string]any{
		"email": "staff@velora.app", "password": "sbagliata",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAdminSettingsRoundTrip(t *testing.T) {
	h, rt, _ := newTestHandler(t)
	if err := rt.Auth().EnsureAdmin("staff@velora.app", "segretissimo"); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	_, out := doJSON(t, h, http.MethodPost, "/api/admin/login", map[string]any{
		"email": "staff@velora.app", "password": "segretissimo",
	})
	token := out["token"].(string)

	put := func(body any) map[string]any {
		b, _ := json.Marshal(body)
		req := httptest.NewRequest(http.MethodPut, "/api/admin/settings", bytes.NewReader(b))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("settings: expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var m map[string]any
		_ = json.NewDecoder(rec.Body).Decode(&m)
		return m
	}

	cfg := put(map[string]any{"payment_mode": "live", "test_product_visible": true})
	if cfg["payment_mode"] != "live" || cfg["test_product_visible"] != true {
		t.Fatalf("unexpected settings: %v", cfg)
	}

	// The test product shows up once toggled on.
	rec, out := doJSON(t, h, http.MethodGet, "/api/plans", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("plans: expected 200, got %d", rec.Code)
	}
	found := false
	for _, p := range out["plans"].([]any) {
		if p.(map[string]any)["type"] == "test" {
			found = true
		}
	}
	if !found {
		t.Fatalf("test product missing after toggle")
	}
}

func TestAdminExportIsCSV(t *testing.T) {
	h, rt, _ := newTestHandler(t)
	if err := rt.Auth().EnsureAdmin("staff@velora.app", "segretissimo"); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	_, out := doJSON(t, h, http.MethodPost, "/api/admin/login", map[string]any{
		"email": "staff@velora.app", "password": "segretissimo",
	})
	token := out["token"].(string)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/export", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("expected text/csv, got %q", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "session_id,") {
		t.Fatalf("unexpected CSV header: %q", rec.Body.String()[:40])
	}
}
