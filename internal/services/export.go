package services

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"
	"time"
)

// ExportAlertsCSV renders recorded crisis alerts for compliance review.
// Rows follow the audit trail's append order.
func ExportAlertsCSV(alerts []*CrisisAlert) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"id", "user_id", "severity", "indicators", "action_taken", "failed_calls", "escalated", "created_at"})
	for _, a := range alerts {
		rec := []string{
			a.ID,
			a.UserID,
			string(a.Severity),
			strings.Join(a.Indicators, "; "),
			a.ActionTaken,
			strings.Join(a.FailedCalls, "; "),
			strconv.FormatBool(a.Escalated),
			a.CreatedAt.Format(time.RFC3339),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ExportAssessmentsCSV renders de-identified assessment metadata. The rows
// carry no user reference by construction.
func ExportAssessmentsCSV(records []*AssessmentRecord) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"session_id", "score", "severity", "escalated", "created_at"})
	for _, r := range records {
		rec := []string{
			r.SessionID,
			itoa(r.Score),
			string(r.Severity),
			strconv.FormatBool(r.Escalated),
			r.CreatedAt.Format(time.RFC3339),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func itoa(i int) string { return strconv.Itoa(i) }
