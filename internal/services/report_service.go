package services

import (
	"context"
	"sort"
	"time"
)

// ReportStore exposes the de-identified metadata and alert history the
// reporting endpoints read.
type ReportStore interface {
	ListAssessments(ctx context.Context, since time.Time) ([]*AssessmentRecord, error)
	ListAlerts(ctx context.Context, limit int) ([]*CrisisAlert, error)
}

type ReportService struct {
	store ReportStore
}

type SeverityBucket struct {
	Severity Severity `json:"severity"`
	Count    int      `json:"count"`
}

type ReportTimeseries struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// SafetySummary aggregates assessment outcomes for counselor dashboards.
// It is built from de-identified rows only.
type SafetySummary struct {
	TotalAssessments int                `json:"total_assessments"`
	Escalations      int                `json:"escalations"`
	Severities       []SeverityBucket   `json:"severities"`
	Timeseries       []ReportTimeseries `json:"timeseries"`
}

func NewReportService(store ReportStore) *ReportService {
	return &ReportService{store: store}
}

// Summary aggregates assessments recorded at or after since.
func (s *ReportService) Summary(ctx context.Context, since time.Time) (*SafetySummary, error) {
	records, err := s.store.ListAssessments(ctx, since)
	if err != nil {
		return nil, err
	}
	bySeverity := map[Severity]int{}
	countsByDay := map[string]int{}
	escalations := 0
	for _, rec := range records {
		bySeverity[rec.Severity]++
		countsByDay[rec.CreatedAt.Format("2006-01-02")]++
		if rec.Escalated {
			escalations++
		}
	}
	buckets := make([]SeverityBucket, 0, 4)
	for _, sev := range []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical} {
		buckets = append(buckets, SeverityBucket{Severity: sev, Count: bySeverity[sev]})
	}
	return &SafetySummary{
		TotalAssessments: len(records),
		Escalations:      escalations,
		Severities:       buckets,
		Timeseries:       buildTimeseries(countsByDay),
	}, nil
}

// Alerts returns the most recently recorded crisis alerts, newest first.
func (s *ReportService) Alerts(ctx context.Context, limit int) ([]*CrisisAlert, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	return s.store.ListAlerts(ctx, limit)
}

func buildTimeseries(countsByDay map[string]int) []ReportTimeseries {
	days := make([]string, 0, len(countsByDay))
	for d := range countsByDay {
		days = append(days, d)
	}
	sort.Strings(days)
	series := make([]ReportTimeseries, 0, len(days))
	for _, d := range days {
		series = append(series, ReportTimeseries{Date: d, Count: countsByDay[d]})
	}
	return series
}
