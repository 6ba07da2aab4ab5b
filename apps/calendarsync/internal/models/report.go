package models

import "time"

type Outcome string

const (
	OutcomeSynced  Outcome = "synced"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// ReconcileResult summarizes one reconciliation of a calendar.
type ReconcileResult struct {
	Inserted int     `json:"inserted"`
	Deleted  int     `json:"deleted"`
	Retained int     `json:"retained"`
	Errors   []error `json:"-"`
}

func (r ReconcileResult) Failed() int {
	return len(r.Errors)
}

// SubjectReport is the outcome of one subject within a pass.
type SubjectReport struct {
	Subject  string          `json:"subject"`
	Outcome  Outcome         `json:"outcome"`
	Error    string          `json:"error,omitempty"`
	Result   ReconcileResult `json:"result"`
	Failed   int             `json:"failed"`
	Duration time.Duration   `json:"duration"`
}

// PassReport aggregates one sweep over all subjects.
type PassReport struct {
	ID        string          `json:"id"`
	StartedAt time.Time       `json:"startedAt"`
	Duration  time.Duration   `json:"duration"`
	Subjects  []SubjectReport `json:"subjects"`
}

func (r PassReport) Count(outcome Outcome) int {
	count := 0
	for _, s := range r.Subjects {
		if s.Outcome == outcome {
			count++
		}
	}
	return count
}
