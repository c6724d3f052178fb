package routes

import (
	"net/http"

	"civicreport/handler"
	"civicreport/middleware"
	"civicreport/service"

	"github.com/gorilla/mux"
)

// Services bundles the workflow services exposed over HTTP
type Services struct {
	Escalation   *service.EscalationService
	Coordination *service.CoordinationService
	Assignment   *service.AssignmentService
	Priority     *service.PriorityService
}

// SetupRoutes configures all API routes
func SetupRoutes(svc Services, db handler.Pinger, jwtSecret, adminToken string) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.RequestLogger)

	escalationHandler := handler.NewEscalationHandler(svc.Escalation)
	governmentHandler := handler.NewGovernmentHandler(svc.Coordination)
	incidentHandler := handler.NewIncidentHandler(svc.Assignment, svc.Priority)
	adminHandler := handler.NewAdminHandler(svc.Priority, db)

	officerAuth := middleware.NewOfficerAuthMiddleware(jwtSecret)
	protect := func(h http.HandlerFunc) http.Handler {
		return officerAuth.RequireOfficerAuth(h)
	}

	// API v1 routes
	apiV1 := router.PathPrefix("/api/v1").Subrouter()

	// Escalation routes (officer auth)
	escalations := apiV1.PathPrefix("/escalations").Subrouter()
	escalations.Handle("/pending", protect(escalationHandler.GetPendingEscalations)).Methods("GET")
	escalations.Handle("/{incidentId:[0-9]+}/paths", protect(escalationHandler.GetEscalationPaths)).Methods("GET")
	escalations.Handle("/{incidentId:[0-9]+}/escalate", protect(escalationHandler.EscalateIncident)).Methods("POST")
	escalations.Handle("/{incidentId:[0-9]+}/history", protect(escalationHandler.GetEscalationHistory)).Methods("GET")

	// Government coordination routes (officer auth)
	government := apiV1.PathPrefix("/government").Subrouter()
	government.Handle("/coordinate", protect(governmentHandler.CoordinateWithDepartments)).Methods("POST")
	government.Handle("/coordination/{incidentId:[0-9]+}", protect(governmentHandler.GetCoordinationStatus)).Methods("GET")
	government.Handle("/structure", protect(governmentHandler.GetGovernmentStructure)).Methods("GET")
	government.Handle("/jurisdiction-incidents", protect(governmentHandler.GetJurisdictionIncidents)).Methods("GET")

	// Incident dispatch and priority routes (officer auth)
	incidents := apiV1.PathPrefix("/incidents").Subrouter()
	incidents.Handle("/{incidentId:[0-9]+}/dispatch", protect(incidentHandler.DispatchIncident)).Methods("POST")
	incidents.Handle("/{incidentId:[0-9]+}/priority", protect(incidentHandler.GetPriority)).Methods("GET")
	incidents.Handle("/{incidentId:[0-9]+}/priority/recalculate", protect(incidentHandler.RecalculatePriority)).Methods("POST")
	incidents.Handle("/{incidentId:[0-9]+}/support", protect(incidentHandler.UpdateCommunitySupport)).Methods("PUT")

	// POST /api/v1/assignments/{assignmentId}/status - assignee moves an assignment along its lifecycle
	apiV1.Handle("/assignments/{assignmentId:[0-9]+}/status", protect(incidentHandler.UpdateAssignmentStatus)).Methods("POST")

	// Admin routes (env-based token; separate from officer auth)
	admin := apiV1.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireAdminAuth(adminToken))
	admin.HandleFunc("/priorities/sweep", adminHandler.SweepPriorities).Methods("POST")

	// Health check endpoint
	router.HandleFunc("/health", adminHandler.Health).Methods("GET")

	return router
}
