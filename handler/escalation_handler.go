package handler

import (
	"net/http"
	"strconv"
	"strings"

	"civicreport/models"
	"civicreport/service"
)

// EscalationHandler handles HTTP requests for escalation operations
type EscalationHandler struct {
	escalationService *service.EscalationService
}

// NewEscalationHandler creates a new escalation handler
func NewEscalationHandler(escalationService *service.EscalationService) *EscalationHandler {
	return &EscalationHandler{escalationService: escalationService}
}

// GetEscalationPaths handles GET /api/v1/escalations/{incidentId}/paths
func (h *EscalationHandler) GetEscalationPaths(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserIDFromContext(r)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", err.Error())
		return
	}
	incidentID, err := pathID(r, "incidentId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	paths, err := h.escalationService.GetEscalationPaths(r.Context(), incidentID, userID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, paths)
}

// EscalateIncident handles POST /api/v1/escalations/{incidentId}/escalate
func (h *EscalationHandler) EscalateIncident(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserIDFromContext(r)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", err.Error())
		return
	}
	incidentID, err := pathID(r, "incidentId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	var req models.EscalateRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Failed to parse request body")
		return
	}
	req.EscalationType = models.EscalationType(strings.ToUpper(strings.TrimSpace(string(req.EscalationType))))

	record, err := h.escalationService.EscalateIncident(r.Context(), incidentID, userID, req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Incident escalated successfully",
		"data":    record,
	})
}

// GetEscalationHistory handles GET /api/v1/escalations/{incidentId}/history
func (h *EscalationHandler) GetEscalationHistory(w http.ResponseWriter, r *http.Request) {
	incidentID, err := pathID(r, "incidentId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	history, err := h.escalationService.GetEscalationHistory(r.Context(), incidentID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, history)
}

// GetPendingEscalations handles GET /api/v1/escalations/pending?department=&urgency=&page=&limit=
func (h *EscalationHandler) GetPendingEscalations(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserIDFromContext(r)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", err.Error())
		return
	}

	query := r.URL.Query()
	var filter models.PendingFilter
	if raw := query.Get("department"); raw != "" {
		departmentID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || departmentID <= 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid request", "department must be a positive integer")
			return
		}
		filter.DepartmentID = departmentID
	}
	if raw := query.Get("urgency"); raw != "" {
		urgency, ok := models.ParseUrgencyLevel(raw)
		if !ok {
			respondWithError(w, http.StatusBadRequest, "Invalid request", "unknown urgency level "+raw)
			return
		}
		filter.Urgency = urgency
	}
	page, _ := strconv.Atoi(query.Get("page"))
	limit, _ := strconv.Atoi(query.Get("limit"))

	pending, err := h.escalationService.GetPendingEscalations(r.Context(), userID, filter, models.Page{Page: page, Limit: limit})
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, pending)
}
