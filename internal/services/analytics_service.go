package services

import (
	"sort"
	"time"
)

type AnalyticsStore interface {
	ListSessions(f RangeFilter) ([]*SessionRow, error)
	ListOrders(f RangeFilter) ([]*Order, error)
}

// AnalyticsService aggregates funnel metrics for the dashboard: status
// counts, per-question drop-off, daily starts, and revenue.
type AnalyticsService struct {
	store         AnalyticsStore
	questionOrder []string
}

type QuestionDrop struct {
	QuestionID  string `json:"question_id"`
	StoppedHere int    `json:"stopped_here"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type FunnelSummary struct {
	TotalSessions        int            `json:"total_sessions"`
	ByStatus             map[string]int `json:"by_status"`
	CompletionRate       float64        `json:"completion_rate"`
	AvgCompletionSeconds float64        `json:"avg_completion_seconds"`
	DropOff              []QuestionDrop `json:"drop_off"`
	Timeseries           []DailyCount   `json:"timeseries"`
	OrderCount           int            `json:"order_count"`
	PaidCount            int            `json:"paid_count"`
	Revenue              int64          `json:"revenue"`
	RevenueByPlan        map[string]int64 `json:"revenue_by_plan"`
}

// NewAnalyticsService takes the catalog's question order so drop-off rows
// come back in funnel order, not map order.
func NewAnalyticsService(store AnalyticsStore, questionOrder []string) *AnalyticsService {
	return &AnalyticsService{store: store, questionOrder: questionOrder}
}

func (s *AnalyticsService) Summary(f RangeFilter) (*FunnelSummary, error) {
	sessions, err := s.store.ListSessions(f)
	if err != nil {
		return nil, err
	}
	orders, err := s.store.ListOrders(f)
	if err != nil {
		return nil, err
	}

	out := &FunnelSummary{
		ByStatus:      map[string]int{},
		RevenueByPlan: map[string]int64{},
	}
	stopped := map[string]int{}
	days := map[string]int{}
	var completionSum int64
	var completed int
	for _, sess := range sessions {
		out.TotalSessions++
		out.ByStatus[sess.Status]++
		days[sess.StartedAt.Format("2006-01-02")]++
		if sess.Status == "completed" {
			completed++
			completionSum += sess.CompletionTimeSeconds
		} else if sess.LastQuestionID != "" {
			stopped[sess.LastQuestionID]++
		}
	}
	if out.TotalSessions > 0 {
		out.CompletionRate = float64(completed) / float64(out.TotalSessions)
	}
	if completed > 0 {
		out.AvgCompletionSeconds = float64(completionSum) / float64(completed)
	}
	for _, qid := range s.questionOrder {
		if n := stopped[qid]; n > 0 {
			out.DropOff = append(out.DropOff, QuestionDrop{QuestionID: qid, StoppedHere: n})
		}
	}
	dates := make([]string, 0, len(days))
	for d := range days {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	for _, d := range dates {
		out.Timeseries = append(out.Timeseries, DailyCount{Date: d, Count: days[d]})
	}
	for _, o := range orders {
		out.OrderCount++
		if o.Status == "paid" {
			out.PaidCount++
			out.Revenue += o.Amount
			out.RevenueByPlan[o.PlanType] += o.Amount
		}
	}
	return out, nil
}

// Rows returns the joined session+order view backing the dashboard table
// and the CSV export. Orders attach by session id; the most recent paid
// order wins when a session has several.
func (s *AnalyticsService) Rows(f RangeFilter) ([]DashboardRow, error) {
	sessions, err := s.store.ListSessions(f)
	if err != nil {
		return nil, err
	}
	orders, err := s.store.ListOrders(RangeFilter{From: f.From, To: f.To})
	if err != nil {
		return nil, err
	}
	bySession := map[string]*Order{}
	for _, o := range orders {
		if o.SessionID == "" {
			continue
		}
		prev := bySession[o.SessionID]
		if prev == nil || orderRank(o) > orderRank(prev) ||
			(orderRank(o) == orderRank(prev) && o.CreatedAt.After(prev.CreatedAt)) {
			bySession[o.SessionID] = o
		}
	}
	rows := make([]DashboardRow, 0, len(sessions))
	for _, sess := range sessions {
		row := DashboardRow{SessionRow: *sess}
		if o := bySession[sess.SessionID]; o != nil {
			row.PlanType = o.PlanType
			row.Amount = o.Amount
			row.OrderStatus = o.Status
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].StartedAt.After(rows[j].StartedAt) })
	return rows, nil
}

func orderRank(o *Order) int {
	switch o.Status {
	case "paid":
		return 2
	case "pending":
		return 1
	}
	return 0
}

// DashboardRow is one line of the admin table.
type DashboardRow struct {
	SessionRow
	PlanType    string `json:"plan_type,omitempty"`
	Amount      int64  `json:"amount,omitempty"`
	OrderStatus string `json:"order_status,omitempty"`
}

// ParseRangeFilter builds a filter from the query-string values the
// dashboard sends; empty strings mean unbounded.
func ParseRangeFilter(status, from, to string) (RangeFilter, error) {
	f := RangeFilter{Status: status}
	if from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return f, NewInvalidError("from must be YYYY-MM-DD")
		}
		f.From = t
	}
	if to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return f, NewInvalidError("to must be YYYY-MM-DD")
		}
		f.To = t.Add(24*time.Hour - time.Nanosecond)
	}
	return f, nil
}
