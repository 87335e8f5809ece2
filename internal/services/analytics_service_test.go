package services

import (
	"strings"
	"testing"
	"time"
)

type stubAnalyticsStore struct {
	sessions []*SessionRow
	orders   []*Order
}

func (s *stubAnalyticsStore) ListSessions(f RangeFilter) ([]*SessionRow, error) {
	var out []*SessionRow
	for _, sess := range s.sessions {
		if f.Status != "" && sess.Status != f.Status {
			continue
		}
		if !f.From.IsZero() && sess.StartedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && sess.StartedAt.After(f.To) {
			continue
		}
		out = append(out, sess)
	}
	return out, nil
}

func (s *stubAnalyticsStore) ListOrders(f RangeFilter) ([]*Order, error) {
	return s.orders, nil
}

func day(d int, hour int) time.Time {
	return time.Date(2026, 2, d, hour, 0, 0, 0, time.UTC)
}

func seededAnalytics() (*AnalyticsService, *stubAnalyticsStore) {
	store := &stubAnalyticsStore{
		sessions: []*SessionRow{
			{SessionID: "s1", StartedAt: day(1, 9), Status: "completed", CompletionTimeSeconds: 300, Name: "Mario", Email: "m@example.com", Gender: "Maschio"},
			{SessionID: "s2", StartedAt: day(1, 11), Status: "abandoned", LastQuestionID: "gender"},
			{SessionID: "s3", StartedAt: day(2, 10), Status: "in_progress", LastQuestionID: "sleep_hours"},
			{SessionID: "s4", StartedAt: day(2, 15), Status: "completed", CompletionTimeSeconds: 500},
		},
		orders: []*Order{
			{ID: "o1", SessionID: "s1", PlanType: "monthly", Amount: 2999, Currency: "eur", Status: "paid", CreatedAt: day(1, 10)},
			{ID: "o2", SessionID: "s4", PlanType: "trial", Amount: 100, Currency: "eur", Status: "failed", CreatedAt: day(2, 16)},
			{ID: "o3", SessionID: "s4", PlanType: "trial", Amount: 100, Currency: "eur", Status: "paid", CreatedAt: day(2, 17)},
		},
	}
	svc := NewAnalyticsService(store, []string{"age_range", "gender", "sleep_hours"})
	return svc, store
}

func TestFunnelSummary(t *testing.T) {
	svc, _ := seededAnalytics()
	sum, err := svc.Summary(RangeFilter{})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.TotalSessions != 4 || sum.ByStatus["completed"] != 2 {
		t.Fatalf("unexpected totals: %+v", sum)
	}
	if sum.CompletionRate != 0.5 {
		t.Fatalf("expected 50%% completion, got %v", sum.CompletionRate)
	}
	if sum.AvgCompletionSeconds != 400 {
		t.Fatalf("expected avg 400s, got %v", sum.AvgCompletionSeconds)
	}
	if len(sum.DropOff) != 2 || sum.DropOff[0].QuestionID != "gender" || sum.DropOff[1].QuestionID != "sleep_hours" {
		t.Fatalf("drop-off must follow funnel order: %+v", sum.DropOff)
	}
	if sum.Revenue != 3099 || sum.PaidCount != 2 {
		t.Fatalf("unexpected revenue: %+v", sum)
	}
	if sum.RevenueByPlan["monthly"] != 2999 {
		t.Fatalf("revenue by plan wrong: %+v", sum.RevenueByPlan)
	}
	if len(sum.Timeseries) != 2 || sum.Timeseries[0].Date != "2026-02-01" || sum.Timeseries[0].Count != 2 {
		t.Fatalf("unexpected timeseries: %+v", sum.Timeseries)
	}
}

func TestDashboardRowsJoinOrders(t *testing.T) {
	svc, _ := seededAnalytics()
	rows, err := svc.Rows(RangeFilter{})
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	// Most recent first.
	if rows[0].SessionID != "s4" {
		t.Fatalf("expected s4 first, got %s", rows[0].SessionID)
	}
	// The paid order wins over the failed one for s4.
	if rows[0].OrderStatus != "paid" || rows[0].PlanType != "trial" {
		t.Fatalf("paid order should win: %+v", rows[0])
	}
	var s2 DashboardRow
	for _, r := range rows {
		if r.SessionID == "s2" {
			s2 = r
		}
	}
	if s2.PlanType != "" || s2.OrderStatus != "" {
		t.Fatalf("sessions without orders must stay blank: %+v", s2)
	}
}

func TestRowsHonorStatusFilter(t *testing.T) {
	svc, _ := seededAnalytics()
	rows, err := svc.Rows(RangeFilter{Status: "completed"})
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 completed rows, got %d", len(rows))
	}
}

func TestParseRangeFilter(t *testing.T) {
	f, err := ParseRangeFilter("completed", "2026-02-01", "2026-02-02")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.Status != "completed" || f.From.IsZero() {
		t.Fatalf("unexpected filter: %+v", f)
	}
	// "to" is inclusive of the whole day.
	if !f.To.After(time.Date(2026, 2, 2, 23, 0, 0, 0, time.UTC)) {
		t.Fatalf("to bound should cover the full day: %v", f.To)
	}
	if _, err := ParseRangeFilter("", "02/01/2026", ""); err == nil {
		t.Fatalf("bad date format should be rejected")
	}
}

func TestExportDashboardCSV(t *testing.T) {
	svc, _ := seededAnalytics()
	rows, err := svc.Rows(RangeFilter{})
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	b, err := ExportDashboardCSV(rows)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	out := string(b)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected header + 4 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "session_id,started_at") {
		t.Fatalf("unexpected header: %s", lines[0])
	}
	if !strings.Contains(out, "m@example.com") || !strings.Contains(out, "2999") {
		t.Fatalf("expected joined order data in export:\n%s", out)
	}
}
