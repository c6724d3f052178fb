package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"civicreport/middleware"
	"civicreport/models"
	"civicreport/service"

	"github.com/gorilla/mux"
)

// respondWithJSON sends a JSON response
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// respondWithData wraps a successful result in the {success, data} envelope
func respondWithData(w http.ResponseWriter, statusCode int, data interface{}) {
	respondWithJSON(w, statusCode, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

// respondWithError sends an error response
func respondWithError(w http.ResponseWriter, statusCode int, errorType, message string) {
	respondWithJSON(w, statusCode, models.ErrorResponse{
		Error:   errorType,
		Message: message,
		Code:    statusCode,
	})
}

// respondWithServiceError maps a domain error kind to its HTTP status; anything else is a 500
func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var domainErr *service.Error
	if errors.As(err, &domainErr) {
		switch domainErr.Kind {
		case service.KindNotFound:
			respondWithError(w, http.StatusNotFound, "Not Found", domainErr.Message)
		case service.KindUnauthorized:
			respondWithError(w, http.StatusForbidden, "Forbidden", domainErr.Message)
		case service.KindValidationFailed:
			respondWithError(w, http.StatusBadRequest, "Validation error", domainErr.Message)
		case service.KindConflict:
			respondWithError(w, http.StatusConflict, "Conflict", domainErr.Message)
		default:
			respondWithError(w, http.StatusInternalServerError, "Internal error", domainErr.Message)
		}
		return
	}

	log.Printf("[HTTP] %s %s failed: %v request_id=%s", r.Method, r.URL.Path, err, middleware.RequestIDFromContext(r.Context()))
	respondWithError(w, http.StatusInternalServerError, "Internal error", "Server error occurred")
}

// getUserIDFromContext extracts the user ID set by the officer auth middleware
func getUserIDFromContext(r *http.Request) (int64, error) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		return 0, fmt.Errorf("user ID not found in context - authentication required")
	}
	return userID, nil
}

// pathID parses a positive integer path variable
func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

func decodeBody(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
