package handler

import (
	"net/http"
	"strings"

	"civicreport/models"
	"civicreport/service"
)

// IncidentHandler handles dispatch, assignment lifecycle and priority requests
type IncidentHandler struct {
	assignmentService *service.AssignmentService
	priorityService   *service.PriorityService
}

// NewIncidentHandler creates a new incident handler
func NewIncidentHandler(assignmentService *service.AssignmentService, priorityService *service.PriorityService) *IncidentHandler {
	return &IncidentHandler{
		assignmentService: assignmentService,
		priorityService:   priorityService,
	}
}

// DispatchIncident handles POST /api/v1/incidents/{incidentId}/dispatch
func (h *IncidentHandler) DispatchIncident(w http.ResponseWriter, r *http.Request) {
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

	var req models.DispatchRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Failed to parse request body")
		return
	}

	result, err := h.assignmentService.DispatchIncident(r.Context(), incidentID, userID, req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithData(w, http.StatusCreated, result)
}

// UpdateAssignmentStatus handles POST /api/v1/assignments/{assignmentId}/status
func (h *IncidentHandler) UpdateAssignmentStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserIDFromContext(r)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", err.Error())
		return
	}
	assignmentID, err := pathID(r, "assignmentId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	var req models.AssignmentStatusRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Failed to parse request body")
		return
	}
	req.Status = models.AssignmentStatus(strings.ToUpper(strings.TrimSpace(string(req.Status))))

	assignment, err := h.assignmentService.UpdateAssignmentStatus(r.Context(), assignmentID, userID, req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, assignment)
}

// GetPriority handles GET /api/v1/incidents/{incidentId}/priority
func (h *IncidentHandler) GetPriority(w http.ResponseWriter, r *http.Request) {
	incidentID, err := pathID(r, "incidentId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	priority, err := h.priorityService.GetPriority(r.Context(), incidentID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, priority)
}

// RecalculatePriority handles POST /api/v1/incidents/{incidentId}/priority/recalculate
func (h *IncidentHandler) RecalculatePriority(w http.ResponseWriter, r *http.Request) {
	incidentID, err := pathID(r, "incidentId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	priority, err := h.priorityService.RecomputePriority(r.Context(), incidentID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, priority)
}

// UpdateCommunitySupport handles PUT /api/v1/incidents/{incidentId}/support
func (h *IncidentHandler) UpdateCommunitySupport(w http.ResponseWriter, r *http.Request) {
	incidentID, err := pathID(r, "incidentId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	var req models.CommunitySupportRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Failed to parse request body")
		return
	}

	priority, err := h.priorityService.UpdateCommunitySupport(r.Context(), incidentID, req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, priority)
}
