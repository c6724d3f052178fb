package models

import "errors"

// Store sentinels. Repositories wrap them; services translate them into domain errors.
var (
	ErrRecordNotFound = errors.New("record not found")
	ErrStaleRecord    = errors.New("record changed concurrently")
)

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
