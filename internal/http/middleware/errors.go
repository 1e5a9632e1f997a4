package middleware

import (
	"encoding/json"
	"net/http"
)

// LoginPath is where unauthenticated browsers are sent.
const LoginPath = "/login"

type errorBody struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg, redirect string) {
	if redirect != "" {
		w.Header().Set("Location", redirect)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: msg, Redirect: redirect})
}

// Unauthorized answers 401 with a redirect to the login route.
func Unauthorized(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusUnauthorized, msg, LoginPath)
}
