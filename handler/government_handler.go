package handler

import (
	"net/http"
	"strconv"

	"civicreport/models"
	"civicreport/service"
)

// GovernmentHandler handles inter-department coordination and the government structure view
type GovernmentHandler struct {
	coordinationService *service.CoordinationService
}

// NewGovernmentHandler creates a new government handler
func NewGovernmentHandler(coordinationService *service.CoordinationService) *GovernmentHandler {
	return &GovernmentHandler{coordinationService: coordinationService}
}

// CoordinateWithDepartments handles POST /api/v1/government/coordinate
func (h *GovernmentHandler) CoordinateWithDepartments(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserIDFromContext(r)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", err.Error())
		return
	}

	var req models.CoordinateRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Failed to parse request body")
		return
	}

	record, err := h.coordinationService.CoordinateWithDepartments(r.Context(), userID, req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Inter-department coordination initiated successfully",
		"data":    record,
	})
}

// GetCoordinationStatus handles GET /api/v1/government/coordination/{incidentId}
func (h *GovernmentHandler) GetCoordinationStatus(w http.ResponseWriter, r *http.Request) {
	incidentID, err := pathID(r, "incidentId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	status, err := h.coordinationService.GetCoordinationStatus(r.Context(), incidentID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, status)
}

// GetGovernmentStructure handles GET /api/v1/government/structure
func (h *GovernmentHandler) GetGovernmentStructure(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserIDFromContext(r)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", err.Error())
		return
	}

	structure, err := h.coordinationService.GetGovernmentStructure(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, structure)
}

// GetJurisdictionIncidents handles GET /api/v1/government/jurisdiction-incidents
func (h *GovernmentHandler) GetJurisdictionIncidents(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserIDFromContext(r)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", err.Error())
		return
	}

	query := r.URL.Query()
	var filter models.JurisdictionFilter
	if raw := query.Get("department"); raw != "" && raw != "ALL" {
		departmentID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || departmentID <= 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid request", "department must be a positive integer or ALL")
			return
		}
		filter.DepartmentID = departmentID
	}
	for name, dst := range map[string]*bool{
		"include_cross_dept": &filter.IncludeCrossDept,
		"assigned_to_me":     &filter.AssignedToMe,
	} {
		raw := query.Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request", name+" must be true or false")
			return
		}
		*dst = v
	}
	page, _ := strconv.Atoi(query.Get("page"))
	limit, _ := strconv.Atoi(query.Get("limit"))

	incidents, err := h.coordinationService.GetJurisdictionIncidents(r.Context(), userID, filter, models.Page{Page: page, Limit: limit})
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, incidents)
}
