package handlers

import (
	"net/http"

	"github.com/jason-s-yu/trustless-rewards/internal/auth"
	"github.com/jason-s-yu/trustless-rewards/internal/models"
	"github.com/jason-s-yu/trustless-rewards/internal/rewards"
)

type devSessionRequest struct {
	Principal models.Principal `json:"principal"`
}

// DevSessionHandler issues a token for any principal and sets it as the
// auth_token cookie. Only mounted on devnets.
func (s *APIServer) DevSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req devSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Principal == "" {
		writeCode(w, rewards.CodeInvalid)
		return
	}
	token, err := auth.CreateJWT(req.Principal)
	if err != nil {
		s.Logger.WithError(err).Error("failed to create session token")
		writeCode(w, rewards.CodeInternal)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		HttpOnly: true,
		Path:     "/",
	})
	s.Logger.WithField("principal", req.Principal).Warn("issued dev session")
	writeOK(w, token)
}
