package quiz

// InterstitialTag names one of the fixed full-screen pages shown between
// questions. The set is closed and order-sensitive, so it is a tagged enum
// with fixed transition tables rather than an open registry.
type InterstitialTag string

const (
	TagTrustSignal           InterstitialTag = "trust_signal"
	TagUniversityCredibility InterstitialTag = "university_credibility"
	TagExpertReview          InterstitialTag = "expert_review"
	TagWorldCommunity        InterstitialTag = "world_community"
	TagWellbeingSummary      InterstitialTag = "wellbeing_summary"
	TagLoadingAnalysis       InterstitialTag = "loading_analysis"
	TagProgressChart         InterstitialTag = "progress_chart"
	TagEmailCapture          InterstitialTag = "email_capture"
	TagNameCapture           InterstitialTag = "name_capture"
	TagFinalGraph            InterstitialTag = "final_graph"
)

// validAnchor reports whether a tag may be anchored after a question in the
// catalog. The summary-path pages are reached by chaining only.
func validAnchor(tag InterstitialTag) bool {
	switch tag {
	case TagTrustSignal, TagUniversityCredibility, TagExpertReview, TagWorldCommunity, TagWellbeingSummary:
		return true
	}
	return false
}

// autoAdvances reports whether the page transitions on its own after a fixed
// delay, with no user action required.
func autoAdvances(tag InterstitialTag) bool {
	switch tag {
	case TagTrustSignal, TagUniversityCredibility, TagExpertReview, TagWorldCommunity:
		return true
	}
	return false
}

// analysisPhases is the number of animated phases inside loading_analysis,
// each with a yes/no micro-question at its midpoint.
const analysisPhases = 3

// FlowState is the controller's in-memory cursor. It is never persisted
// directly; resumption rebuilds it from the session's answers.
type FlowState struct {
	StepIndex          int             `json:"step_index"`
	TotalSteps         int             `json:"total_steps"`
	ActiveInterstitial InterstitialTag `json:"active_interstitial,omitempty"`
	// ResumeIndex is the question the funnel returns to when a mid-quiz
	// interstitial hands control back.
	ResumeIndex   int  `json:"-"`
	AnalysisPhase int  `json:"analysis_phase,omitempty"`
	Completed     bool `json:"completed"`
}

// CanGoBack is derived: backward navigation is only offered on questions
// past the first, never while an interstitial occupies the screen.
func (s FlowState) CanGoBack() bool {
	return !s.Completed && s.ActiveInterstitial == "" && s.StepIndex > 0
}

// flowTable holds the transition tables, built once at startup from the
// catalog's declared anchors and length.
type flowTable struct {
	afterQuestion map[int]InterstitialTag
	chain         map[InterstitialTag]InterstitialTag
	totalSteps    int
}

func newFlowTable(c *Catalog) *flowTable {
	t := &flowTable{
		afterQuestion: map[int]InterstitialTag{},
		totalSteps:    c.Len(),
		// The summary path is a fixed chain: completion always funnels
		// through the wellbeing summary rather than ending bluntly.
		chain: map[InterstitialTag]InterstitialTag{
			TagExpertReview:     TagWorldCommunity,
			TagWellbeingSummary: TagLoadingAnalysis,
			TagLoadingAnalysis:  TagProgressChart,
			TagProgressChart:    TagEmailCapture,
			TagEmailCapture:     TagNameCapture,
			TagNameCapture:      TagFinalGraph,
		},
	}
	for i, q := range c.Questions() {
		if q.InterstitialAfter != "" {
			t.afterQuestion[i] = q.InterstitialAfter
		}
	}
	return t
}

// nextAfterQuestion decides the state following an answered Question(i).
func (t *flowTable) nextAfterQuestion(s FlowState, i int) FlowState {
	s.ResumeIndex = i + 1
	if tag, ok := t.afterQuestion[i]; ok {
		s.ActiveInterstitial = tag
		return s
	}
	if i+1 >= t.totalSteps {
		s.ActiveInterstitial = TagWellbeingSummary
		return s
	}
	s.StepIndex = i + 1
	return s
}

// nextAfterInterstitial decides the state following a completed page.
// Mid-quiz pages hand control back to the next question while questions
// remain; once the list is exhausted they feed the summary chain instead.
func (t *flowTable) nextAfterInterstitial(s FlowState, tag InterstitialTag) FlowState {
	if tag == TagFinalGraph {
		s.ActiveInterstitial = ""
		s.Completed = true
		return s
	}
	if next, ok := t.chain[tag]; ok {
		// expert_review chains through world_community before resuming.
		if tag != TagExpertReview && !chainOnly(tag) && s.ResumeIndex < t.totalSteps {
			s.ActiveInterstitial = ""
			s.StepIndex = s.ResumeIndex
			return s
		}
		s.ActiveInterstitial = next
		if next == TagLoadingAnalysis {
			s.AnalysisPhase = 0
		}
		return s
	}
	if s.ResumeIndex < t.totalSteps {
		s.ActiveInterstitial = ""
		s.StepIndex = s.ResumeIndex
		return s
	}
	s.ActiveInterstitial = TagWellbeingSummary
	return s
}

// chainOnly tags never hand control back to a question.
func chainOnly(tag InterstitialTag) bool {
	switch tag {
	case TagWellbeingSummary, TagLoadingAnalysis, TagProgressChart, TagEmailCapture, TagNameCapture, TagFinalGraph:
		return true
	}
	return false
}
