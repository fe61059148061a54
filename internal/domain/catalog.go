package domain

import "fmt"

// requirementCatalog is the static requirement catalog, loaded once at
// process start and seeded into the phase_requirements table by migration.
// LAUNCH deliberately has no mandatory requirements: it is terminal.
var requirementCatalog = []RequirementDefinition{
	// Onboarding
	{ID: "onb_intake_form", PhaseKey: PhaseOnboarding, Text: "Complete the project intake form", Mandatory: true, Kind: KindForm, ModuleID: "intake", DisplayOrder: 1},
	{ID: "onb_agreement", PhaseKey: PhaseOnboarding, Text: "Sign the services agreement", Mandatory: true, Kind: KindDocument, DisplayOrder: 2},
	{ID: "onb_deposit", PhaseKey: PhaseOnboarding, Text: "Pay the project deposit", Mandatory: true, Kind: KindPayment, DisplayOrder: 3},
	{ID: "onb_brand_assets", PhaseKey: PhaseOnboarding, Text: "Upload existing brand assets", Mandatory: false, Kind: KindDocument, DisplayOrder: 4},

	// Ideation
	{ID: "idea_brief_review", PhaseKey: PhaseIdeation, Text: "Review the creative brief", Mandatory: true, Kind: KindReview, DisplayOrder: 1},
	{ID: "idea_moodboard_confirm", PhaseKey: PhaseIdeation, Text: "Confirm the moodboard direction", Mandatory: true, Kind: KindConfirm, DisplayOrder: 2},
	{ID: "idea_references", PhaseKey: PhaseIdeation, Text: "Share reference material", Mandatory: false, Kind: KindDocument, DisplayOrder: 3},

	// Design
	{ID: "dsgn_concept_approval", PhaseKey: PhaseDesign, Text: "Approve the design concept", Mandatory: true, Kind: KindApproval, DisplayOrder: 1},
	{ID: "dsgn_revision_form", PhaseKey: PhaseDesign, Text: "Request concept revisions", Mandatory: false, Kind: KindForm, ModuleID: "revision_request", DisplayOrder: 2},
	{ID: "dsgn_feedback", PhaseKey: PhaseDesign, Text: "Leave feedback on the presented concepts", Mandatory: false, Kind: KindFeedback, DisplayOrder: 3},

	// Review
	{ID: "rev_proof_review", PhaseKey: PhaseReview, Text: "Review the final proofs", Mandatory: true, Kind: KindReview, DisplayOrder: 1},
	{ID: "rev_final_approval", PhaseKey: PhaseReview, Text: "Approve the final artwork", Mandatory: true, Kind: KindApproval, DisplayOrder: 2},

	// Production
	{ID: "prod_monitor", PhaseKey: PhaseProduction, Text: "Monitor production progress", Mandatory: true, Kind: KindMonitor, DisplayOrder: 1},
	{ID: "prod_press_check", PhaseKey: PhaseProduction, Text: "Press check approval", Mandatory: false, Kind: KindApproval, DisplayOrder: 2},

	// Payment
	{ID: "pay_final_invoice", PhaseKey: PhasePayment, Text: "Pay the final invoice", Mandatory: true, Kind: KindPayment, DisplayOrder: 1},

	// Sign-off
	{ID: "sign_completion", PhaseKey: PhaseSignoff, Text: "Sign the project completion document", Mandatory: true, Kind: KindApproval, DisplayOrder: 1},
	{ID: "sign_testimonial", PhaseKey: PhaseSignoff, Text: "Leave a testimonial", Mandatory: false, Kind: KindFeedback, DisplayOrder: 2},

	// Launch
	{ID: "launch_downloads", PhaseKey: PhaseLaunch, Text: "Download the final deliverables", Mandatory: false, Kind: KindDownload, DisplayOrder: 1},
	{ID: "launch_confirm", PhaseKey: PhaseLaunch, Text: "Confirm launch", Mandatory: false, Kind: KindLaunch, DisplayOrder: 2},
}

var requirementsByID = func() map[string]RequirementDefinition {
	m := make(map[string]RequirementDefinition, len(requirementCatalog))
	for _, r := range requirementCatalog {
		m[r.ID] = r
	}
	return m
}()

// Requirements returns every catalog entry in phase then display order.
func Requirements() []RequirementDefinition {
	out := make([]RequirementDefinition, len(requirementCatalog))
	copy(out, requirementCatalog)
	return out
}

// RequirementsForPhase returns the requirement definitions attached to a phase.
func RequirementsForPhase(key PhaseKey) ([]RequirementDefinition, error) {
	if !ValidPhaseKey(key) {
		return nil, fmt.Errorf("phase %q: %w", key, ErrInvalidPhaseKey)
	}
	var out []RequirementDefinition
	for _, r := range requirementCatalog {
		if r.PhaseKey == key {
			out = append(out, r)
		}
	}
	return out, nil
}

// MandatoryRequirements returns only the advancement-gating requirements of a phase.
func MandatoryRequirements(key PhaseKey) ([]RequirementDefinition, error) {
	all, err := RequirementsForPhase(key)
	if err != nil {
		return nil, err
	}
	var out []RequirementDefinition
	for _, r := range all {
		if r.Mandatory {
			out = append(out, r)
		}
	}
	return out, nil
}

// RequirementByID resolves a requirement definition by id.
func RequirementByID(id string) (RequirementDefinition, error) {
	r, ok := requirementsByID[id]
	if !ok {
		return RequirementDefinition{}, fmt.Errorf("requirement %q: %w", id, ErrRequirementNotFound)
	}
	return r, nil
}
