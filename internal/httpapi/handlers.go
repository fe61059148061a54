package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/calliope-studio/portal/internal/domain"
	"github.com/calliope-studio/portal/internal/service"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	actor := ActorFromContext(r.Context())
	if actor.Role != domain.RoleStaff {
		WriteError(w, http.StatusForbidden, "STAFF_ONLY", "only staff may create projects")
		return
	}

	var req struct {
		Name       string `json:"name"`
		ClientName string `json:"clientName"`
	}
	if err := ReadJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "BAD_JSON", err.Error())
		return
	}
	if req.Name == "" {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "name is required")
		return
	}

	p := &domain.Project{Name: req.Name, ClientName: req.ClientName}
	if err := s.projects.Create(r.Context(), p); err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"project": renderProject(p)})
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	includeArchived := r.URL.Query().Get("include_archived") == "true"
	list, err := s.projects.List(r.Context(), includeArchived)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(list))
	for _, p := range list {
		out = append(out, renderProject(p))
	}
	WriteJSON(w, http.StatusOK, map[string]any{"projects": out})
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.projects.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"project": renderProject(p)})
}

func (s *Server) handleArchiveProject(w http.ResponseWriter, r *http.Request) {
	actor := ActorFromContext(r.Context())
	if actor.Role != domain.RoleStaff {
		WriteError(w, http.StatusForbidden, "STAFF_ONLY", "only staff may archive projects")
		return
	}
	if err := s.projects.Archive(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{})
}

func (s *Server) handleGetPhaseState(w http.ResponseWriter, r *http.Request) {
	state, err := s.projects.GetPhaseState(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"phaseState": renderPhaseState(state)})
}

func (s *Server) handlePhaseRequirements(w http.ResponseWriter, r *http.Request) {
	key := domain.PhaseKey(chi.URLParam(r, "phaseKey"))
	defs, err := s.requirements.ListDefinitions(r.Context(), key)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(defs))
	for _, def := range defs {
		out = append(out, renderDefinition(def))
	}
	WriteJSON(w, http.StatusOK, map[string]any{"phaseKey": string(key), "requirements": out})
}

// handleProjectRequirements returns the current phase's checklist with each
// entry's completion state merged in. This is the mirror's refresh source.
func (s *Server) handleProjectRequirements(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	state, err := s.projects.GetPhaseState(r.Context(), projectID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	defs, err := s.requirements.ListDefinitions(r.Context(), state.CurrentPhase)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	completions, err := s.requirements.ListCompletions(r.Context(), projectID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	completed := make(map[string]*domain.RequirementCompletion, len(completions))
	for _, c := range completions {
		completed[c.RequirementID] = c
	}

	out := make([]map[string]any, 0, len(defs))
	for _, def := range defs {
		entry := renderDefinition(def)
		entry["completed"] = false
		if c, ok := completed[def.ID]; ok && c.Completed {
			entry["completed"] = true
			entry["completedBy"] = c.CompletedBy
			entry["completedAt"] = c.CompletedAt
		}
		out = append(out, entry)
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"phaseState":   renderPhaseState(state),
		"requirements": out,
	})
}

func (s *Server) handleToggleRequirement(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Completed bool `json:"completed"`
	}
	if err := ReadJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "BAD_JSON", err.Error())
		return
	}

	actor := ActorFromContext(r.Context())
	res, err := s.requirements.Toggle(r.Context(), actor,
		chi.URLParam(r, "id"), chi.URLParam(r, "reqId"), req.Completed)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	payload := map[string]any{
		"allMandatoryComplete": res.Evaluation.AllMandatoryComplete,
		"autoAdvanced":         res.Evaluation.Advanced,
	}
	if res.Evaluation.Advanced {
		payload["nextPhaseName"] = res.Evaluation.NewPhaseName
	}
	WriteJSON(w, http.StatusOK, payload)
}

func (s *Server) handleFormSubmit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectID string          `json:"projectId"`
		PhaseKey  string          `json:"phaseKey"`
		ModuleID  string          `json:"moduleId"`
		Data      json.RawMessage `json:"data"`
	}
	if err := ReadJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "BAD_JSON", err.Error())
		return
	}
	if req.ProjectID == "" {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "projectId is required")
		return
	}

	actor := ActorFromContext(r.Context())
	res, err := s.forms.Submit(r.Context(), actor, service.FormSubmissionInput{
		ProjectID: req.ProjectID,
		PhaseKey:  domain.PhaseKey(req.PhaseKey),
		ModuleID:  req.ModuleID,
		Payload:   req.Data,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	payload := map[string]any{
		"submissionId":          res.Submission.ID,
		"satisfiedRequirements": res.SatisfiedRequirements,
		"autoAdvanced":          res.Evaluation.Advanced,
	}
	if res.Evaluation.Advanced {
		payload["nextPhaseName"] = res.Evaluation.NewPhaseName
	}
	WriteJSON(w, http.StatusOK, payload)
}

func (s *Server) handleListForms(w http.ResponseWriter, r *http.Request) {
	subs, err := s.forms.ListByProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(subs))
	for _, sub := range subs {
		out = append(out, map[string]any{
			"id":          sub.ID,
			"phaseKey":    string(sub.PhaseKey),
			"moduleId":    sub.ModuleID,
			"data":        sub.Payload,
			"submittedBy": sub.SubmittedBy,
			"createdAt":   sub.CreatedAt.Format(time.RFC3339),
		})
	}
	WriteJSON(w, http.StatusOK, map[string]any{"submissions": out})
}

func (s *Server) handleCheckAdvancement(w http.ResponseWriter, r *http.Request) {
	res, err := s.projects.CheckAdvancement(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	payload := map[string]any{
		"allMandatoryComplete": res.AllMandatoryComplete,
		"autoAdvanced":         res.Advanced,
		"terminal":             res.Terminal,
	}
	if res.Advanced {
		payload["nextPhaseName"] = res.NewPhaseName
	}
	WriteJSON(w, http.StatusOK, payload)
}

// paymentEventPayload mirrors the provider's event envelope. Routing metadata
// travels on the charge object, set when the checkout session is created.
type paymentEventPayload struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			Metadata struct {
				ProjectID string `json:"project_id"`
				PhaseKey  string `json:"phase_key"`
			} `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

func (s *Server) handlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "unreadable body")
		return
	}

	if err := VerifyWebhookSignature(s.webhookSecret, r.Header.Get("Stripe-Signature"), body, s.now(), s.tolerance); err != nil {
		s.log.Warn("webhook signature rejected", "error", err)
		writeDomainError(w, err)
		return
	}

	var ev paymentEventPayload
	if err := json.Unmarshal(body, &ev); err != nil {
		WriteError(w, http.StatusBadRequest, "BAD_JSON", err.Error())
		return
	}

	res, err := s.webhooks.HandleEvent(r.Context(), service.PaymentEvent{
		ID:        ev.ID,
		Type:      ev.Type,
		ProjectID: ev.Data.Object.Metadata.ProjectID,
		PhaseKey:  domain.PhaseKey(ev.Data.Object.Metadata.PhaseKey),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"processed":        res.Processed,
		"alreadyProcessed": res.AlreadyProcessed,
		"ignored":          res.Ignored,
		"autoAdvanced":     res.Evaluation.Advanced,
	})
}

func renderProject(p *domain.Project) map[string]any {
	out := map[string]any{
		"id":         p.ID,
		"name":       p.Name,
		"clientName": p.ClientName,
		"status":     string(p.Status),
		"createdAt":  p.CreatedAt.Format(time.RFC3339),
	}
	if p.ArchivedAt != nil {
		out["archivedAt"] = p.ArchivedAt.Format(time.RFC3339)
	}
	return out
}

func renderPhaseState(state *domain.ProjectPhaseState) map[string]any {
	phase, _ := domain.GetPhase(state.CurrentPhase)
	out := map[string]any{
		"projectId":       state.ProjectID,
		"currentPhase":    string(state.CurrentPhase),
		"phaseName":       phase.DisplayName,
		"progressPercent": state.ProgressPercent,
		"enteredAt":       state.EnteredAt.Format(time.RFC3339),
	}
	if state.CompletedAt != nil {
		out["completedAt"] = state.CompletedAt.Format(time.RFC3339)
	}
	return out
}

func renderDefinition(def domain.RequirementDefinition) map[string]any {
	return map[string]any{
		"id":           def.ID,
		"phaseKey":     string(def.PhaseKey),
		"text":         def.Text,
		"mandatory":    def.Mandatory,
		"kind":         string(def.Kind),
		"moduleId":     def.ModuleID,
		"displayOrder": def.DisplayOrder,
	}
}
