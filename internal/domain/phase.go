package domain

import "fmt"

// PhaseKey identifies one of the eight fixed delivery phases.
type PhaseKey string

const (
	PhaseOnboarding PhaseKey = "ONB"
	PhaseIdeation   PhaseKey = "IDEA"
	PhaseDesign     PhaseKey = "DSGN"
	PhaseReview     PhaseKey = "REV"
	PhaseProduction PhaseKey = "PROD"
	PhasePayment    PhaseKey = "PAY"
	PhaseSignoff    PhaseKey = "SIGN"
	PhaseLaunch     PhaseKey = "LAUNCH"
)

// Phase is one stage of the delivery pipeline. The set is fixed and linear:
// a project occupies exactly one phase and only ever moves forward.
type Phase struct {
	Key               PhaseKey
	Ordinal           int
	DisplayName       string
	CompletionPercent int
}

// phaseOrder is the canonical pipeline, in delivery order. CompletionPercent
// is the project progress marker set when the phase is entered; values are
// strictly increasing so progress can never decrease.
var phaseOrder = []Phase{
	{Key: PhaseOnboarding, Ordinal: 0, DisplayName: "Onboarding", CompletionPercent: 0},
	{Key: PhaseIdeation, Ordinal: 1, DisplayName: "Ideation", CompletionPercent: 25},
	{Key: PhaseDesign, Ordinal: 2, DisplayName: "Design", CompletionPercent: 40},
	{Key: PhaseReview, Ordinal: 3, DisplayName: "Review", CompletionPercent: 55},
	{Key: PhaseProduction, Ordinal: 4, DisplayName: "Production", CompletionPercent: 70},
	{Key: PhasePayment, Ordinal: 5, DisplayName: "Payment", CompletionPercent: 85},
	{Key: PhaseSignoff, Ordinal: 6, DisplayName: "Sign-off", CompletionPercent: 95},
	{Key: PhaseLaunch, Ordinal: 7, DisplayName: "Launch", CompletionPercent: 100},
}

var phasesByKey = func() map[PhaseKey]Phase {
	m := make(map[PhaseKey]Phase, len(phaseOrder))
	for _, p := range phaseOrder {
		m[p.Key] = p
	}
	return m
}()

// Phases returns the full pipeline in delivery order.
func Phases() []Phase {
	out := make([]Phase, len(phaseOrder))
	copy(out, phaseOrder)
	return out
}

// GetPhase resolves a phase key. An unknown key is a programmer error and
// reports ErrInvalidPhaseKey.
func GetPhase(key PhaseKey) (Phase, error) {
	p, ok := phasesByKey[key]
	if !ok {
		return Phase{}, fmt.Errorf("phase %q: %w", key, ErrInvalidPhaseKey)
	}
	return p, nil
}

// ValidPhaseKey reports whether key names one of the eight phases.
func ValidPhaseKey(key PhaseKey) bool {
	_, ok := phasesByKey[key]
	return ok
}

// NextPhase returns the phase following key. The second return is false when
// key is the terminal LAUNCH phase.
func NextPhase(key PhaseKey) (Phase, bool, error) {
	p, err := GetPhase(key)
	if err != nil {
		return Phase{}, false, err
	}
	if p.Ordinal == len(phaseOrder)-1 {
		return Phase{}, false, nil
	}
	return phaseOrder[p.Ordinal+1], true, nil
}

// IsTerminal reports whether key is the final phase of the pipeline.
func (k PhaseKey) IsTerminal() bool {
	return k == PhaseLaunch
}
