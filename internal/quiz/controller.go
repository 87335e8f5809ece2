package quiz

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the lifecycle state of a visitor's funnel traversal.
type SessionStatus string

const (
	StatusInProgress SessionStatus = "in_progress"
	StatusCompleted  SessionStatus = "completed"
	StatusAbandoned  SessionStatus = "abandoned"
)

// Profile holds the progressively captured visitor identity.
type Profile struct {
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Gender string `json:"gender,omitempty"`
}

// StoredAnswer is one persisted answer row.
type StoredAnswer struct {
	QuestionID string
	Value      string
}

// SessionStore is the persistence capability injected into the controller.
// Writes on the answer path are best-effort: the controller never blocks a
// visible transition on them (see persistAsync).
type SessionStore interface {
	CreateSession(id string, startedAt time.Time, clientIP string) error
	SessionExists(id string) (bool, error)
	UpsertAnswer(sessionID, questionID, value string, at time.Time) error
	LoadAnswers(sessionID string) ([]StoredAnswer, error)
	ClearAnswers(sessionID string) error
	MarkStatus(sessionID string, status SessionStatus) error
	UpdateLastQuestionSeen(sessionID, questionID string) error
	SetProfile(sessionID string, p Profile) error
	SetCompletionTime(sessionID string, seconds int64) error
}

// GenderMale is the answer value selecting the male summary asset variant.
// Any other (or absent) gender renders the female variant.
const GenderMale = "Maschio"

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Controller owns the authoritative (stepIndex, activeInterstitial, answers)
// triple per session, decides transitions, and delegates persistence.
type Controller struct {
	mu       sync.Mutex
	catalog  *Catalog
	table    *flowTable
	store    SessionStore
	sessions map[string]*sessionState

	pricingURL string

	now          func() time.Time
	newID        func() string
	schedule     func(d time.Duration, fn func()) *time.Timer
	persistAsync func(fn func())

	autoAdvanceDelay  time.Duration
	interstitialDelay time.Duration
}

type sessionState struct {
	id       string
	flow     FlowState
	answers  map[string]Value
	profile  Profile
	clientIP string

	// ready gates advances and auto-advance until resumption resolves.
	ready bool
	// created flips when the session row has been written; sessions are
	// created lazily on the first answer-equivalent event.
	created bool

	startedAt time.Time
	lastTouch time.Time
	timer     *time.Timer
	// timerGen invalidates callbacks from timers that were already torn
	// down: Stop cannot cancel a callback that is past the timer check.
	timerGen   int
	analysisOK [analysisPhases]bool
}

// NewController builds the flow controller for a catalog and store.
func NewController(catalog *Catalog, store SessionStore, pricingURL string) *Controller {
	return &Controller{
		catalog:           catalog,
		table:             newFlowTable(catalog),
		store:             store,
		sessions:          map[string]*sessionState{},
		pricingURL:        pricingURL,
		now:               func() time.Time { return time.Now().UTC() },
		newID:             func() string { return strings.ReplaceAll(uuid.NewString(), "-", "")[:16] },
		schedule:          time.AfterFunc,
		persistAsync:      func(fn func()) { go fn() },
		autoAdvanceDelay:  700 * time.Millisecond,
		interstitialDelay: 3500 * time.Millisecond,
	}
}

// OpenResult reports whether a prior session needs the continue/restart choice.
type OpenResult struct {
	SessionID    string `json:"session_id"`
	PriorSession bool   `json:"prior_session"`
}

// Open registers a visitor session. A known identifier is not resumed
// silently: the result flags the prior session so the client can present
// the continue/restart choice; until Resume is called the session is not
// ready and advances are rejected.
func (c *Controller) Open(sessionID, clientIP string) (*OpenResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if sessionID != "" {
		if st, ok := c.sessions[sessionID]; ok {
			st.lastTouch = now
			return &OpenResult{SessionID: sessionID, PriorSession: !st.ready}, nil
		}
		exists, err := c.store.SessionExists(sessionID)
		if err != nil {
			log.Printf("session store: check session: %v", err)
		}
		if exists {
			c.sessions[sessionID] = &sessionState{
				id: sessionID, clientIP: clientIP, created: true,
				answers:   map[string]Value{},
				flow:      FlowState{TotalSteps: c.catalog.Len()},
				startedAt: now, lastTouch: now,
			}
			return &OpenResult{SessionID: sessionID, PriorSession: true}, nil
		}
	}
	id := c.newID()
	c.sessions[id] = &sessionState{
		id: id, clientIP: clientIP, ready: true,
		answers:   map[string]Value{},
		flow:      FlowState{TotalSteps: c.catalog.Len()},
		startedAt: now, lastTouch: now,
	}
	return &OpenResult{SessionID: id, PriorSession: false}, nil
}

// Resume resolves the continue/restart choice for a prior session.
// mode "continue" loads the persisted answers and places the cursor on the
// first unanswered question; "restart" deletes all persisted answers and
// begins fresh under a new identifier.
func (c *Controller) Resume(sessionID, mode string) (*StateView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.sessions[sessionID]
	if !ok {
		return nil, &FlowError{Kind: ErrorUnknownSession, Message: "unknown session"}
	}
	switch mode {
	case "continue":
		answers, err := c.store.LoadAnswers(sessionID)
		if err != nil {
			// Resumption is the one read path; a failed load degrades to a
			// fresh start rather than blocking the visitor.
			log.Printf("session store: load answers: %v", err)
			answers = nil
		}
		quizAnswered := 0
		for _, a := range answers {
			idx := c.catalog.Index(a.QuestionID)
			if idx < 0 {
				continue
			}
			q := c.catalog.At(idx)
			v := DecodeValue(q, a.Value)
			if v.Empty() {
				continue
			}
			st.answers[a.QuestionID] = v
			quizAnswered++
			if a.QuestionID == GenderQuestionID {
				st.profile.Gender = v.Text
			}
		}
		step := 0
		if quizAnswered > 0 {
			step = quizAnswered
			if step > c.catalog.Len()-1 {
				step = c.catalog.Len() - 1
			}
		}
		st.flow = FlowState{StepIndex: step, TotalSteps: c.catalog.Len()}
		st.ready = true
		st.lastTouch = c.now()
		return c.viewLocked(st), nil
	case "restart":
		if err := c.store.ClearAnswers(sessionID); err != nil {
			log.Printf("session store: clear answers: %v", err)
		}
		if err := c.store.MarkStatus(sessionID, StatusAbandoned); err != nil {
			log.Printf("session store: mark abandoned: %v", err)
		}
		st.stopTimer()
		delete(c.sessions, sessionID)
		id := c.newID()
		now := c.now()
		fresh := &sessionState{
			id: id, clientIP: st.clientIP, ready: true,
			answers:   map[string]Value{},
			flow:      FlowState{TotalSteps: c.catalog.Len()},
			startedAt: now, lastTouch: now,
		}
		c.sessions[id] = fresh
		return c.viewLocked(fresh), nil
	}
	return nil, invalidValue(fmt.Sprintf("unknown resume mode %q", mode))
}

// Advance records the current question's value and moves the funnel forward.
// The in-memory transition is authoritative; persistence happens on the side
// and failures never roll it back.
func (c *Controller) Advance(sessionID, questionID string, raw json.RawMessage) (*StateView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, err := c.activeQuestionSession(sessionID)
	if err != nil {
		return nil, err
	}
	q := c.catalog.At(st.flow.StepIndex)
	if questionID != "" && questionID != q.ID {
		return nil, badTransition(fmt.Sprintf("expected question %q", q.ID))
	}
	v, err := ParseValue(q, raw)
	if err != nil {
		return nil, err
	}
	if v.Empty() {
		return nil, notReady("answer required")
	}
	st.answers[q.ID] = v
	st.lastTouch = c.now()
	if q.ID == GenderQuestionID {
		st.profile.Gender = v.Text
	}
	c.persistAnswer(st, q.ID, v)
	if q.ID == GenderQuestionID {
		c.persistProfile(st)
	}
	st.flow = c.table.nextAfterQuestion(st.flow, st.flow.StepIndex)
	c.armInterstitial(st)
	return c.viewLocked(st), nil
}

// Retreat steps back one question, restoring its recorded value. Not
// defined while an interstitial is active or on the first question.
func (c *Controller) Retreat(sessionID string) (*StateView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, err := c.activeQuestionSession(sessionID)
	if err != nil {
		return nil, err
	}
	if st.flow.StepIndex == 0 {
		return nil, badTransition("already at the first question")
	}
	st.flow.StepIndex--
	st.lastTouch = c.now()
	return c.viewLocked(st), nil
}

// CompletePayload carries the capture-page inputs.
type CompletePayload struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// CompleteInterstitial signals that the active page finished (user click,
// or a capture submit). Auto pages also complete via their internal timer;
// an explicit signal for one just cancels the timer and transitions now.
func (c *Controller) CompleteInterstitial(sessionID string, tag InterstitialTag, payload CompletePayload) (*StateView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.sessions[sessionID]
	if !ok {
		return nil, &FlowError{Kind: ErrorUnknownSession, Message: "unknown session"}
	}
	if st.flow.ActiveInterstitial != tag {
		return nil, badTransition(fmt.Sprintf("interstitial %q is not active", tag))
	}
	switch tag {
	case TagEmailCapture:
		email := strings.TrimSpace(payload.Email)
		if !emailPattern.MatchString(email) {
			return nil, &FlowError{Kind: ErrorInvalidEmail, Message: "invalid email"}
		}
		st.profile.Email = email
		c.persistProfile(st)
	case TagNameCapture:
		name := strings.TrimSpace(payload.Name)
		if name == "" {
			return nil, &FlowError{Kind: ErrorNameRequired, Message: "name required"}
		}
		st.profile.Name = name
		c.persistProfile(st)
	case TagLoadingAnalysis:
		for _, done := range st.analysisOK {
			if !done {
				return nil, notReady("analysis still in progress")
			}
		}
	}
	st.stopTimer()
	st.lastTouch = c.now()
	if tag == TagFinalGraph {
		return c.completeLocked(st), nil
	}
	st.flow = c.table.nextAfterInterstitial(st.flow, tag)
	c.armInterstitial(st)
	return c.viewLocked(st), nil
}

// AnswerAnalysis records the yes/no micro-question embedded at the midpoint
// of a loading-analysis phase and advances the phase sequence.
func (c *Controller) AnswerAnalysis(sessionID string, phase int, yes bool) (*StateView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.sessions[sessionID]
	if !ok {
		return nil, &FlowError{Kind: ErrorUnknownSession, Message: "unknown session"}
	}
	if st.flow.ActiveInterstitial != TagLoadingAnalysis {
		return nil, badTransition("analysis is not active")
	}
	if phase < 0 || phase >= analysisPhases {
		return nil, invalidValue("unknown analysis phase")
	}
	answer := Value{Text: "no"}
	if yes {
		answer.Text = "yes"
	}
	qid := fmt.Sprintf("analysis_phase_%d", phase+1)
	st.answers[qid] = answer
	st.analysisOK[phase] = true
	st.lastTouch = c.now()
	c.persistAnswer(st, qid, answer)
	if st.flow.AnalysisPhase == phase && phase+1 < analysisPhases {
		st.flow.AnalysisPhase = phase + 1
	}
	allDone := true
	for _, done := range st.analysisOK {
		if !done {
			allDone = false
		}
	}
	if allDone {
		st.flow = c.table.nextAfterInterstitial(st.flow, TagLoadingAnalysis)
	}
	return c.viewLocked(st), nil
}

// State returns the current view without mutating anything.
func (c *Controller) State(sessionID string) (*StateView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.sessions[sessionID]
	if !ok {
		return nil, &FlowError{Kind: ErrorUnknownSession, Message: "unknown session"}
	}
	return c.viewLocked(st), nil
}

// SummaryView describes the wellbeing-summary page. The asset variant is
// keyed off the captured gender.
type SummaryView struct {
	AssetVariant  string `json:"asset_variant"`
	AnsweredCount int    `json:"answered_count"`
	TotalSteps    int    `json:"total_steps"`
	StressLevel   string `json:"stress_level,omitempty"`
	SleepGoal     string `json:"sleep_goal,omitempty"`
}

// Summary builds the wellbeing-summary view for a session.
func (c *Controller) Summary(sessionID string) (*SummaryView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.sessions[sessionID]
	if !ok {
		return nil, &FlowError{Kind: ErrorUnknownSession, Message: "unknown session"}
	}
	variant := "female"
	if st.profile.Gender == GenderMale {
		variant = "male"
	}
	answered := 0
	for id := range st.answers {
		if c.catalog.Index(id) >= 0 {
			answered++
		}
	}
	sv := &SummaryView{AssetVariant: variant, AnsweredCount: answered, TotalSteps: c.catalog.Len()}
	if v, ok := st.answers["stress_level"]; ok && v.Number != nil {
		sv.StressLevel = strings.TrimSuffix(strings.TrimSuffix(fmt.Sprintf("%.1f", *v.Number), "0"), ".")
	}
	if v, ok := st.answers["sleep_goal"]; ok {
		sv.SleepGoal = v.Text
	}
	return sv, nil
}

// Teardown clears any pending interstitial timer for a session. Called when
// the client unmounts a page so a stale timer never fires a transition
// against a view that is gone.
func (c *Controller) Teardown(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.sessions[sessionID]; ok {
		st.stopTimer()
	}
}

// Prune drops sessions idle longer than maxIdle, marking unfinished ones
// abandoned. Returns how many were dropped.
func (c *Controller) Prune(maxIdle time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	cutoff := c.now().Add(-maxIdle)
	dropped := 0
	for id, st := range c.sessions {
		if st.lastTouch.After(cutoff) {
			continue
		}
		st.stopTimer()
		if st.created && !st.flow.Completed {
			sid := id
			c.persistAsync(func() {
				if err := c.store.MarkStatus(sid, StatusAbandoned); err != nil {
					log.Printf("session store: mark abandoned: %v", err)
				}
			})
		}
		delete(c.sessions, id)
		dropped++
	}
	return dropped
}

// Profile returns the captured profile (for the checkout handoff).
func (c *Controller) Profile(sessionID string) (Profile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.sessions[sessionID]
	if !ok {
		return Profile{}, &FlowError{Kind: ErrorUnknownSession, Message: "unknown session"}
	}
	return st.profile, nil
}

// --- internals ---

func (c *Controller) activeQuestionSession(sessionID string) (*sessionState, error) {
	st, ok := c.sessions[sessionID]
	if !ok {
		return nil, &FlowError{Kind: ErrorUnknownSession, Message: "unknown session"}
	}
	if !st.ready {
		return nil, notReady("session not resumed")
	}
	if st.flow.Completed {
		return nil, badTransition("funnel already completed")
	}
	if st.flow.ActiveInterstitial != "" {
		return nil, badTransition("an interstitial is active")
	}
	return st, nil
}

// persistAnswer writes the answer (and the drop-off marker) off the hot
// path. This is a deliberate bounded best-effort policy, not an accident:
// failures are logged and swallowed, the UI always progresses, and
// overlapping writes for the same question id resolve last-write-wins.
func (c *Controller) persistAnswer(st *sessionState, questionID string, v Value) {
	sid, ip, started := st.id, st.clientIP, st.startedAt
	needCreate := !st.created
	st.created = true
	encoded := v.Encode()
	at := c.now()
	c.persistAsync(func() {
		if needCreate {
			if err := c.store.CreateSession(sid, started, ip); err != nil {
				log.Printf("session store: create session: %v", err)
			}
		}
		if err := c.store.UpsertAnswer(sid, questionID, encoded, at); err != nil {
			log.Printf("session store: upsert answer: %v", err)
		}
		if err := c.store.UpdateLastQuestionSeen(sid, questionID); err != nil {
			log.Printf("session store: last question seen: %v", err)
		}
	})
}

func (c *Controller) persistProfile(st *sessionState) {
	sid, p := st.id, st.profile
	needCreate := !st.created
	st.created = true
	started, ip := st.startedAt, st.clientIP
	c.persistAsync(func() {
		if needCreate {
			if err := c.store.CreateSession(sid, started, ip); err != nil {
				log.Printf("session store: create session: %v", err)
			}
		}
		if err := c.store.SetProfile(sid, p); err != nil {
			log.Printf("session store: set profile: %v", err)
		}
	})
}

// armInterstitial schedules the auto transition for pages that advance on
// their own. Any previously pending timer is cleared first.
func (c *Controller) armInterstitial(st *sessionState) {
	st.stopTimer()
	tag := st.flow.ActiveInterstitial
	if tag == "" || !autoAdvances(tag) {
		return
	}
	sid, gen := st.id, st.timerGen
	st.timer = c.schedule(c.interstitialDelay, func() {
		c.autoComplete(sid, tag, gen)
	})
}

func (c *Controller) autoComplete(sessionID string, tag InterstitialTag, gen int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.sessions[sessionID]
	if !ok || st.timerGen != gen || st.flow.ActiveInterstitial != tag {
		return
	}
	st.timer = nil
	st.flow = c.table.nextAfterInterstitial(st.flow, tag)
	c.armInterstitial(st)
}

// completeLocked finalizes the funnel: the session's answers are cleared
// from the store, the session row is marked completed with its duration,
// and the visitor is routed to pricing with the captured identity.
func (c *Controller) completeLocked(st *sessionState) *StateView {
	st.flow = c.table.nextAfterInterstitial(st.flow, TagFinalGraph)
	seconds := int64(c.now().Sub(st.startedAt) / time.Second)
	sid := st.id
	c.persistAsync(func() {
		if err := c.store.MarkStatus(sid, StatusCompleted); err != nil {
			log.Printf("session store: mark completed: %v", err)
		}
		if err := c.store.SetCompletionTime(sid, seconds); err != nil {
			log.Printf("session store: completion time: %v", err)
		}
		if err := c.store.ClearAnswers(sid); err != nil {
			log.Printf("session store: clear answers: %v", err)
		}
	})
	view := c.viewLocked(st)
	q := url.Values{}
	if st.profile.Name != "" {
		q.Set("name", st.profile.Name)
	}
	if st.profile.Email != "" {
		q.Set("email", st.profile.Email)
	}
	view.RedirectURL = c.pricingURL
	if enc := q.Encode(); enc != "" {
		view.RedirectURL += "?" + enc
	}
	// Identifier cleared: a reload starts a fresh session.
	delete(c.sessions, st.id)
	return view
}

// StateView is the wire representation of the flow cursor.
type StateView struct {
	SessionID          string          `json:"session_id"`
	StepIndex          int             `json:"step_index"`
	TotalSteps         int             `json:"total_steps"`
	ActiveInterstitial InterstitialTag `json:"active_interstitial,omitempty"`
	InterstitialAutoMs int             `json:"interstitial_auto_ms,omitempty"`
	AnalysisPhase      int             `json:"analysis_phase,omitempty"`
	Completed          bool            `json:"completed"`
	CanGoBack          bool            `json:"can_go_back"`
	Ready              bool            `json:"ready"`
	Question           *Question       `json:"question,omitempty"`
	CurrentValue       string          `json:"current_value,omitempty"`
	AutoAdvanceMs      int             `json:"auto_advance_ms,omitempty"`
	RedirectURL        string          `json:"redirect_url,omitempty"`
}

func (c *Controller) viewLocked(st *sessionState) *StateView {
	v := &StateView{
		SessionID:          st.id,
		StepIndex:          st.flow.StepIndex,
		TotalSteps:         st.flow.TotalSteps,
		ActiveInterstitial: st.flow.ActiveInterstitial,
		AnalysisPhase:      st.flow.AnalysisPhase,
		Completed:          st.flow.Completed,
		CanGoBack:          st.flow.CanGoBack(),
		Ready:              st.ready,
	}
	if tag := st.flow.ActiveInterstitial; tag != "" {
		if autoAdvances(tag) {
			v.InterstitialAutoMs = int(c.interstitialDelay / time.Millisecond)
		}
		return v
	}
	if !st.flow.Completed {
		q := c.catalog.At(st.flow.StepIndex)
		v.Question = q
		if prev, ok := st.answers[q.ID]; ok {
			v.CurrentValue = prev.Encode()
		}
		// Auto-advance is a single-choice convenience, suppressed until
		// resumption has resolved so a restored answer cannot race an
		// unwanted transition.
		if q.Kind == KindSingleChoice && st.ready {
			v.AutoAdvanceMs = int(c.autoAdvanceDelay / time.Millisecond)
		}
	}
	return v
}

func (st *sessionState) stopTimer() {
	st.timerGen++
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}
}
