package domain

import (
	"encoding/json"
	"time"
)

// RequirementCompletion is the per-(project, requirement) completion record.
// Upsert semantics: toggling off keeps the row but clears the completed
// fields. Absence of a row means "not completed".
type RequirementCompletion struct {
	ProjectID     string
	RequirementID string
	Completed     bool
	CompletedBy   *string
	CompletedAt   *time.Time
	UpdatedAt     time.Time
}

// FormSubmission is a persisted client form submission. Submissions are kept
// even when they satisfy no requirement.
type FormSubmission struct {
	ID          string
	ProjectID   string
	PhaseKey    PhaseKey
	ModuleID    string
	Payload     json.RawMessage
	SubmittedBy string
	CreatedAt   time.Time
}

// ProcessedPaymentEvent is the idempotency ledger entry for an inbound
// payment webhook event. Redelivered events hit the ledger and short-circuit.
type ProcessedPaymentEvent struct {
	EventID     string
	ProjectID   string
	EventType   string
	ProcessedAt time.Time
}
