package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/interviewme/interviewme/internal/auth"
)

type tokenRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// handleToken implements the OAuth2 password flow: credentials come either
// as a form post or a JSON body.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest

	contentType := r.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "malformed request body")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, http.StatusBadRequest, "malformed form body")
			return
		}
		req.Username = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
	}

	if err := validate.Struct(req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, ok := auth.Authenticate(req.Username, req.Password)
	if !ok {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeJSONError(w, http.StatusUnauthorized, "incorrect username or password")
		return
	}

	duration := auth.TokenDuration()
	token, err := auth.GenerateToken(user.Username, user.Roles, duration)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(duration.Seconds()),
	})
}
