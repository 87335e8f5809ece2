package services

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"
)

// ExportDashboardCSV renders the joined session+order rows as CSV, one
// session per line, in the order given.
func ExportDashboardCSV(rows []DashboardRow) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{
		"session_id", "started_at", "last_activity_at", "status",
		"last_question_id", "completion_time_seconds",
		"name", "email", "gender",
		"plan_type", "amount", "order_status",
	})
	for _, r := range rows {
		rec := []string{
			r.SessionID,
			r.StartedAt.UTC().Format(time.RFC3339),
			r.LastActivityAt.UTC().Format(time.RFC3339),
			r.Status,
			r.LastQuestionID,
			strconv.FormatInt(r.CompletionTimeSeconds, 10),
			r.Name,
			r.Email,
			r.Gender,
			r.PlanType,
			strconv.FormatInt(r.Amount, 10),
			r.OrderStatus,
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
