package api

import (
	"encoding/json"
	"net/http"

	"github.com/velora-app/velora/internal/quiz"
)

// GET /api/questions — the full ordered catalog.
func (rt *Router) handleQuestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"questions": rt.catalog.Questions(),
		"total":     rt.catalog.Len(),
	})
}

// POST /api/flow/session — open (or re-open) a visitor session.
// A prior session is flagged, not silently resumed: the client must follow
// up on /api/flow/resume with continue or restart.
func (rt *Router) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		SessionID string `json:"session_id"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	res, err := rt.flow.Open(sessionIDFrom(r, req.SessionID), clientIP(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if res.PriorSession {
		writeJSON(w, http.StatusOK, res)
		return
	}
	state, err := rt.flow.State(res.SessionID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":    res.SessionID,
		"prior_session": false,
		"state":         state,
	})
}

// POST /api/flow/resume — resolve the continue/restart choice.
func (rt *Router) handleResume(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		SessionID string `json:"session_id"`
		Mode      string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	state, err := rt.flow.Resume(sessionIDFrom(r, req.SessionID), req.Mode)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// GET /api/flow/state?session_id=...
func (rt *Router) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	state, err := rt.flow.State(sessionIDFrom(r, r.URL.Query().Get("session_id")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// POST /api/flow/advance — record the current answer and move forward.
func (rt *Router) handleAdvance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		SessionID  string          `json:"session_id"`
		QuestionID string          `json:"question_id"`
		Value      json.RawMessage `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	state, err := rt.flow.Advance(sessionIDFrom(r, req.SessionID), req.QuestionID, req.Value)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// POST /api/flow/retreat — one step back, previous answer pre-filled.
func (rt *Router) handleRetreat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	state, err := rt.flow.Retreat(sessionIDFrom(r, req.SessionID))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// POST /api/flow/interstitial/complete — the active page finished, either
// by user click or because a capture form was submitted.
func (rt *Router) handleInterstitialDone(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		SessionID string `json:"session_id"`
		Tag       string `json:"tag"`
		Email     string `json:"email"`
		Name      string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	state, err := rt.flow.CompleteInterstitial(
		sessionIDFrom(r, req.SessionID),
		quiz.InterstitialTag(req.Tag),
		quiz.CompletePayload{Email: req.Email, Name: req.Name},
	)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// POST /api/flow/analysis/answer — one yes/no micro-question during the
// analysis page.
func (rt *Router) handleAnalysisAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		SessionID string `json:"session_id"`
		Phase     int    `json:"phase"`
		Answer    bool   `json:"answer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	state, err := rt.flow.AnswerAnalysis(sessionIDFrom(r, req.SessionID), req.Phase, req.Answer)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// GET /api/flow/summary?session_id=...
func (rt *Router) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	view, err := rt.flow.Summary(sessionIDFrom(r, r.URL.Query().Get("session_id")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
