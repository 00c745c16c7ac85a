package models

// Operator is the authenticated administrator acting on a request.
type Operator struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
