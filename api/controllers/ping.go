package controllers

import (
	"net/http"

	"github.com/hostelcart/hostelcart-backend/api/responses"
)

// Ping is a trivial connectivity check.
func Ping() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"message": "pong"})
	}
}
