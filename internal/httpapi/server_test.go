package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/calliope-studio/portal/internal/engine"
	"github.com/calliope-studio/portal/internal/service"
	"github.com/calliope-studio/portal/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test"

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	database := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(database)
	eng := engine.New()

	srv, err := NewServer(
		Config{
			WebhookSecret: testSecret,
			Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		},
		service.NewProjectService(database, uow, eng),
		service.NewRequirementService(database, uow, eng),
		service.NewFormService(database, uow, eng),
		service.NewPaymentWebhookService(uow, eng),
	)
	require.NoError(t, err)
	return srv.Router()
}

func doRequest(t *testing.T, h http.Handler, method, path, role string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if role != "" {
		req.Header.Set("X-Actor-Id", role+"-1")
		req.Header.Set("X-Actor-Role", role)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	return rec, decoded
}

func createProjectViaAPI(t *testing.T, h http.Handler) string {
	t.Helper()
	rec, body := doRequest(t, h, http.MethodPost, "/projects", "staff", map[string]any{
		"name": "Brand refresh", "clientName": "Acme Foods",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	project := body["project"].(map[string]any)
	return project["id"].(string)
}

func TestHealthEnvelope(t *testing.T) {
	h := newTestServer(t)
	rec, body := doRequest(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "ok", body["status"])
}

func TestNewServer_RequiresWebhookSecret(t *testing.T) {
	_, err := NewServer(Config{}, nil, nil, nil, nil)
	require.Error(t, err, "serving without a verifiable webhook endpoint is a configuration error")
}

func TestCreateProject_StaffOnly(t *testing.T) {
	h := newTestServer(t)
	rec, body := doRequest(t, h, http.MethodPost, "/projects", "client", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, false, body["success"])
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "STAFF_ONLY", errObj["code"])
}

func TestGetPhaseState(t *testing.T) {
	h := newTestServer(t)
	id := createProjectViaAPI(t, h)

	rec, body := doRequest(t, h, http.MethodGet, "/projects/"+id+"/phases", "client", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	state := body["phaseState"].(map[string]any)
	assert.Equal(t, "ONB", state["currentPhase"])
	assert.Equal(t, "Onboarding", state["phaseName"])
	assert.Equal(t, float64(0), state["progressPercent"])
}

func TestPhaseRequirementsListing(t *testing.T) {
	h := newTestServer(t)

	rec, body := doRequest(t, h, http.MethodGet, "/phases/requirements/ONB", "client", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	reqs := body["requirements"].([]any)
	assert.Len(t, reqs, 4)

	rec, body = doRequest(t, h, http.MethodGet, "/phases/requirements/BOGUS", "client", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "INVALID_PHASE_KEY", errObj["code"])
}

func TestToggleEndpoint_AdvancesAndReports(t *testing.T) {
	h := newTestServer(t)
	id := createProjectViaAPI(t, h)

	togglePath := func(reqID string) string {
		return fmt.Sprintf("/phases/projects/%s/requirements/%s", id, reqID)
	}

	rec, body := doRequest(t, h, http.MethodPost, togglePath("onb_intake_form"), "staff", map[string]any{"completed": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["autoAdvanced"])
	assert.Equal(t, false, body["allMandatoryComplete"])
	assert.NotContains(t, body, "nextPhaseName")

	_, _ = doRequest(t, h, http.MethodPost, togglePath("onb_agreement"), "staff", map[string]any{"completed": true})
	rec, body = doRequest(t, h, http.MethodPost, togglePath("onb_deposit"), "staff", map[string]any{"completed": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["autoAdvanced"])
	assert.Equal(t, true, body["allMandatoryComplete"])
	assert.Equal(t, "Ideation", body["nextPhaseName"])
}

func TestToggleEndpoint_ErrorMapping(t *testing.T) {
	h := newTestServer(t)
	id := createProjectViaAPI(t, h)

	// Client may not toggle a payment requirement.
	rec, body := doRequest(t, h, http.MethodPost,
		"/phases/projects/"+id+"/requirements/onb_deposit", "client", map[string]any{"completed": true})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "UNAUTHORIZED_TOGGLE", body["error"].(map[string]any)["code"])

	rec, body = doRequest(t, h, http.MethodPost,
		"/phases/projects/"+id+"/requirements/onb_missing", "staff", map[string]any{"completed": true})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "REQUIREMENT_NOT_FOUND", body["error"].(map[string]any)["code"])
}

func TestFormSubmit_PhaseMismatchMapping(t *testing.T) {
	h := newTestServer(t)
	id := createProjectViaAPI(t, h)

	rec, body := doRequest(t, h, http.MethodPost, "/forms/submit", "client", map[string]any{
		"projectId": id,
		"phaseKey":  "DSGN",
		"moduleId":  "revision_request",
		"data":      map[string]any{"note": "stale tab"},
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "PHASE_MISMATCH", body["error"].(map[string]any)["code"])

	// Nothing was stored.
	rec, body = doRequest(t, h, http.MethodGet, "/projects/"+id+"/forms", "staff", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, body["submissions"])
}

func TestFormSubmit_SatisfiesRequirement(t *testing.T) {
	h := newTestServer(t)
	id := createProjectViaAPI(t, h)

	rec, body := doRequest(t, h, http.MethodPost, "/forms/submit", "client", map[string]any{
		"projectId": id,
		"phaseKey":  "ONB",
		"moduleId":  "intake",
		"data":      map[string]any{"company": "Acme Foods"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["success"])
	assert.Equal(t, []any{"onb_intake_form"}, body["satisfiedRequirements"])

	rec, body = doRequest(t, h, http.MethodGet, "/projects/"+id+"/requirements", "client", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, raw := range body["requirements"].([]any) {
		entry := raw.(map[string]any)
		if entry["id"] == "onb_intake_form" {
			assert.Equal(t, true, entry["completed"])
		}
	}
}

func signedWebhookRequest(t *testing.T, payload map[string]any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewReader(raw))
	req.Header.Set("Stripe-Signature", signPayload(testSecret, raw, time.Now()))
	return req
}

func webhookPayload(eventID, eventType, projectID, phaseKey string) map[string]any {
	return map[string]any{
		"id":   eventID,
		"type": eventType,
		"data": map[string]any{
			"object": map[string]any{
				"metadata": map[string]any{"project_id": projectID, "phase_key": phaseKey},
			},
		},
	}
}

func TestPaymentWebhook_ValidSignatureProcesses(t *testing.T) {
	h := newTestServer(t)
	id := createProjectViaAPI(t, h)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, signedWebhookRequest(t, webhookPayload("evt_1", "payment_intent.succeeded", id, "ONB")))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["processed"])
}

func TestPaymentWebhook_BadSignatureRejectedUnprocessed(t *testing.T) {
	h := newTestServer(t)
	id := createProjectViaAPI(t, h)

	payload := webhookPayload("evt_1", "payment_intent.succeeded", id, "ONB")
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewReader(raw))
	req.Header.Set("Stripe-Signature", signPayload("whsec_wrong", raw, time.Now()))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "WEBHOOK_VERIFICATION_FAILED", body["error"].(map[string]any)["code"])

	// The rejected delivery must not have reached the ledger: a properly
	// signed redelivery of the same event still processes as fresh.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, signedWebhookRequest(t, payload))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["processed"])
	assert.Equal(t, false, body["alreadyProcessed"])
}

func TestPaymentWebhook_MissingSignatureRejected(t *testing.T) {
	h := newTestServer(t)
	id := createProjectViaAPI(t, h)

	raw, err := json.Marshal(webhookPayload("evt_1", "invoice.paid", id, ""))
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPaymentWebhook_RedeliveryAcknowledged(t *testing.T) {
	h := newTestServer(t)
	id := createProjectViaAPI(t, h)

	payload := webhookPayload("evt_1", "invoice.paid", id, "ONB")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, signedWebhookRequest(t, payload))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, signedWebhookRequest(t, payload))
	require.Equal(t, http.StatusOK, rec.Code, "redelivery must be acknowledged, not errored")

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["alreadyProcessed"])
}

func TestCheckAdvancementEndpoint(t *testing.T) {
	h := newTestServer(t)
	id := createProjectViaAPI(t, h)

	rec, body := doRequest(t, h, http.MethodPost, "/projects/"+id+"/phases/check-advancement", "staff", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["autoAdvanced"])
	assert.Equal(t, false, body["allMandatoryComplete"])
}

func TestArchiveEndpoint(t *testing.T) {
	h := newTestServer(t)
	id := createProjectViaAPI(t, h)

	rec, _ := doRequest(t, h, http.MethodPost, "/projects/"+id+"/archive", "client", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = doRequest(t, h, http.MethodPost, "/projects/"+id+"/archive", "staff", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body := doRequest(t, h, http.MethodPost, "/projects/"+id+"/phases/check-advancement", "staff", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "PROJECT_ARCHIVED", body["error"].(map[string]any)["code"])
}

func TestUnknownProjectMapsToNotFound(t *testing.T) {
	h := newTestServer(t)
	rec, body := doRequest(t, h, http.MethodGet, "/projects/missing/phases", "client", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", body["error"].(map[string]any)["code"])
}
