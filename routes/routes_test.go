package routes_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civicreport/models"
	"civicreport/repository/sqlitetest"
	"civicreport/routes"
	"civicreport/service"
	"civicreport/utils"
)

const (
	jwtSecret  = "routes-test-secret"
	adminToken = "ops-token"
)

type api struct {
	t      *testing.T
	router *mux.Router
	seed   *sqlitetest.Seed
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    int             `json:"code"`
}

func newAPI(t *testing.T) (*api, int64) {
	store := sqlitetest.Open(t)
	seed := sqlitetest.SeedJurisdiction(t, store)
	locks := service.NewIncidentLocks()
	svc := routes.Services{
		Escalation:   service.NewEscalationService(store, locks, nil),
		Coordination: service.NewCoordinationService(store, locks, nil),
		Assignment:   service.NewAssignmentService(store, locks, nil),
		Priority:     service.NewPriorityService(store, locks, nil),
	}
	inc := sqlitetest.NewIncident(t, store, "road", 2, time.Now().UTC().Add(-2*time.Hour))
	return &api{t: t, router: routes.SetupRoutes(svc, store.DB(), jwtSecret, adminToken), seed: seed}, inc.IncidentID
}

func (a *api) bearer(userID int64) string {
	token, err := utils.GenerateOfficerJWT(userID, []byte(jwtSecret), time.Hour)
	require.NoError(a.t, err)
	return "Bearer " + token
}

func (a *api) do(method, path, auth string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (a *api) as(key string) string {
	return a.bearer(a.seed.Officer(a.t, key).UserID)
}

func TestEscalationWorkflowOverHTTP(t *testing.T) {
	a, incidentID := newAPI(t)
	base := fmt.Sprintf("/api/v1/escalations/%d", incidentID)

	rec, env := a.do(http.MethodPost, fmt.Sprintf("/api/v1/incidents/%d/dispatch", incidentID), a.bearer(900),
		models.DispatchRequest{OfficerID: a.seed.Officer(t, "roads_field").OfficerID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, env.Success)
	var dispatch models.DispatchResult
	require.NoError(t, json.Unmarshal(env.Data, &dispatch))
	assert.Equal(t, models.UrgencyCritical, dispatch.Priority.UrgencyLevel)

	rec, _ = a.do(http.MethodGet, base+"/paths", a.as("roads_field"), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = a.do(http.MethodGet, base+"/paths", a.as("roads_nodal"), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Forbidden", env.Error)

	rec, _ = a.do(http.MethodGet, base+"/paths", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env = a.do(http.MethodPost, base+"/escalate", a.as("roads_field"), map[string]interface{}{
		"target_officer_id": a.seed.Officer(t, "roads_nodal").OfficerID,
		"escalation_type":   "hierarchy",
		"reason":            "Needs budget approval",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Incident escalated successfully", env.Message)
	var record models.EscalationRecord
	require.NoError(t, json.Unmarshal(env.Data, &record))
	assert.Equal(t, models.EscalationHierarchy, record.EscalationType)
	assert.Equal(t, models.UrgencyEmergency, record.UrgencyLevel)

	rec, env = a.do(http.MethodPost, base+"/escalate", a.as("roads_nodal"), map[string]interface{}{
		"target_officer_id": a.seed.Officer(t, "roads_field_2").OfficerID,
		"escalation_type":   "HIERARCHY",
		"reason":            "Back down",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Validation error", env.Error)

	rec, _ = a.do(http.MethodPost, base+"/escalate", a.as("roads_nodal"), "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = a.do(http.MethodGet, base+"/history", a.as("roads_head"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history models.EscalationHistory
	require.NoError(t, json.Unmarshal(env.Data, &history))
	assert.Len(t, history.Trail, 2)
	assert.Equal(t, models.LevelNodal, history.CurrentLevel)

	rec, env = a.do(http.MethodGet, "/api/v1/escalations/pending?urgency=emergency", a.as("roads_head"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var pending models.PendingEscalations
	require.NoError(t, json.Unmarshal(env.Data, &pending))
	require.Len(t, pending.Incidents, 1)
	assert.Equal(t, incidentID, pending.Incidents[0].Incident.IncidentID)

	rec, _ = a.do(http.MethodGet, "/api/v1/escalations/pending?urgency=whenever", a.as("roads_head"), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = a.do(http.MethodGet, "/api/v1/escalations/pending?department=abc", a.as("roads_head"), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = a.do(http.MethodPost, fmt.Sprintf("/api/v1/assignments/%d/status", record.NewAssignmentID), a.as("roads_nodal"),
		models.AssignmentStatusRequest{Status: "accepted"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, _ = a.do(http.MethodPost, fmt.Sprintf("/api/v1/assignments/%d/status", record.NewAssignmentID), a.as("roads_nodal"),
		models.AssignmentStatusRequest{Status: "ASSIGNED"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = a.do(http.MethodPost, fmt.Sprintf("/api/v1/incidents/%d/dispatch", incidentID), a.bearer(900),
		models.DispatchRequest{OfficerID: a.seed.Officer(t, "roads_field").OfficerID})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Conflict", env.Error)
}

func TestCoordinationOverHTTP(t *testing.T) {
	a, incidentID := newAPI(t)

	rec, _ := a.do(http.MethodPost, fmt.Sprintf("/api/v1/incidents/%d/dispatch", incidentID), a.bearer(900),
		models.DispatchRequest{OfficerID: a.seed.Officer(t, "roads_field").OfficerID})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env := a.do(http.MethodPost, "/api/v1/government/coordinate", a.as("roads_field"), models.CoordinateRequest{
		IncidentID:        incidentID,
		TargetDepartments: []int64{a.seed.Water.DepartmentID},
		Message:           "Water main under the road",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Inter-department coordination initiated successfully", env.Message)

	rec, env = a.do(http.MethodPost, "/api/v1/government/coordinate", a.as("roads_field"), models.CoordinateRequest{
		IncidentID:        incidentID,
		TargetDepartments: []int64{9999},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", env.Error)

	rec, env = a.do(http.MethodGet, fmt.Sprintf("/api/v1/government/coordination/%d", incidentID), a.as("water_field"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status models.CoordinationStatus
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.Equal(t, 1, status.Metrics.TotalCoordinators)
	assert.Equal(t, []int64{a.seed.Water.DepartmentID}, status.CoordinatingDepartments)

	rec, env = a.do(http.MethodGet, "/api/v1/government/structure", a.as("water_field"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var structure models.GovernmentStructure
	require.NoError(t, json.Unmarshal(env.Data, &structure))
	assert.Equal(t, "WSD", structure.Department.Code)

	rec, _ = a.do(http.MethodGet, "/api/v1/government/structure", a.bearer(31337), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = a.do(http.MethodGet, "/api/v1/government/jurisdiction-incidents?include_cross_dept=true", a.as("water_field"), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var queue models.JurisdictionIncidents
	require.NoError(t, json.Unmarshal(env.Data, &queue))
	require.Len(t, queue.Incidents, 1, "coordinator assignments are not primary custody")
	assert.Equal(t, incidentID, queue.Incidents[0].Incident.IncidentID)
	assert.True(t, queue.Incidents[0].CrossDepartment)
	assert.Equal(t, 1, queue.Statistics.CrossDepartment)

	rec, _ = a.do(http.MethodGet, "/api/v1/government/jurisdiction-incidents", a.as("water_field"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = a.do(http.MethodGet, "/api/v1/government/jurisdiction-incidents?include_cross_dept=maybe", a.as("water_field"), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPriorityOverHTTP(t *testing.T) {
	a, incidentID := newAPI(t)
	path := fmt.Sprintf("/api/v1/incidents/%d/priority", incidentID)

	rec, _ := a.do(http.MethodGet, path, a.as("roads_field"), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env := a.do(http.MethodPost, path+"/recalculate", a.as("roads_field"), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var p models.IncidentPriority
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.InDelta(t, 90, p.PriorityScore, 0.0001)

	rec, _ = a.do(http.MethodPut, fmt.Sprintf("/api/v1/incidents/%d/support", incidentID), a.as("roads_field"),
		models.CommunitySupportRequest{SignatureWeight: -2})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = a.do(http.MethodPut, fmt.Sprintf("/api/v1/incidents/%d/support", incidentID), a.as("roads_field"),
		models.CommunitySupportRequest{SignatureWeight: 5, UpvoteWeight: 3})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.InDelta(t, 103, p.PriorityScore, 0.0001)

	rec, _ = a.do(http.MethodGet, path, a.as("roads_field"), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = a.do(http.MethodGet, "/api/v1/incidents/88888/priority", a.as("roads_field"), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminAndHealthRoutes(t *testing.T) {
	a, _ := newAPI(t)

	rec, env := a.do(http.MethodPost, "/api/v1/admin/priorities/sweep", a.as("roads_head"), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code, "officer tokens do not open admin routes")
	assert.Equal(t, "Invalid admin token", env.Message)

	rec, env = a.do(http.MethodPost, "/api/v1/admin/priorities/sweep", "Bearer "+adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var result models.SweepResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Zero(t, result.Failed)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	hrec := httptest.NewRecorder()
	a.router.ServeHTTP(hrec, req)
	assert.Equal(t, http.StatusOK, hrec.Code)
	assert.NotEmpty(t, hrec.Header().Get("X-Request-ID"))
}
