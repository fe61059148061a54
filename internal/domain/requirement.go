package domain

// RequirementKind classifies how a requirement gets satisfied.
type RequirementKind string

const (
	KindForm     RequirementKind = "form"
	KindDocument RequirementKind = "document"
	KindPayment  RequirementKind = "payment"
	KindApproval RequirementKind = "approval"
	KindReview   RequirementKind = "review"
	KindConfirm  RequirementKind = "confirm"
	KindMonitor  RequirementKind = "monitor"
	KindDownload RequirementKind = "download"
	KindFeedback RequirementKind = "feedback"
	KindLaunch   RequirementKind = "launch"
)

// ValidRequirementKinds is the canonical set of accepted requirement kinds.
var ValidRequirementKinds = map[string]bool{
	"form": true, "document": true, "payment": true, "approval": true,
	"review": true, "confirm": true, "monitor": true, "download": true,
	"feedback": true, "launch": true,
}

// ClientToggleable reports whether a client-role actor may flip this kind
// directly. Form, document, payment and approval requirements are completed
// only as a side effect of their dedicated adapters.
func (k RequirementKind) ClientToggleable() bool {
	switch k {
	case KindMonitor, KindReview, KindConfirm, KindFeedback, KindLaunch, KindDownload:
		return true
	default:
		return false
	}
}

// RequirementDefinition is a static, per-phase gate definition. Mandatory
// requirements block advancement out of their phase; optional ones are
// informational only.
type RequirementDefinition struct {
	ID           string
	PhaseKey     PhaseKey
	Text         string
	Mandatory    bool
	Kind         RequirementKind
	ModuleID     string // form module that satisfies this requirement, if Kind == form
	DisplayOrder int
}
