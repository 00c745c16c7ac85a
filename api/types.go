package api

import (
	"github.com/rpupo63/portfolio-admin-backend/errs"
	"github.com/rpupo63/portfolio-admin-backend/services"
)

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	projectHandler projectHandler
	healthHandler  healthHandler
}

// ErrorResponse represents an error response from the API
type ErrorResponse struct {
	Error   string            `json:"error"`
	Status  string            `json:"status"`
	Field   string            `json:"field,omitempty"`
	Fields  []errs.FieldError `json:"fields,omitempty"`
	Details string            `json:"details,omitempty"`
	Cause   string            `json:"cause,omitempty"`
	Result  services.Result   `json:"result"`
}

// ResultResponse carries the flash style outcome of a mutation.
type ResultResponse struct {
	Result services.Result `json:"result"`
	Data   any             `json:"data,omitempty"`
}
