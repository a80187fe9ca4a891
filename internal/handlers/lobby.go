// internal/handlers/lobby.go
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jason-s-yu/trustless-rewards/internal/models"
	"github.com/jason-s-yu/trustless-rewards/internal/rewards"
)

// CreateLobbyHandler creates a lobby owned by the caller and returns its id.
func (s *APIServer) CreateLobbyHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var params models.LobbyParams
	if !decodeBody(w, r, &params) {
		return
	}
	id, err := s.Contract.CreateLobby(r.Context(), caller, params)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, id)
}

// ListLobbiesHandler returns every lobby, active or not, ordered by id.
func (s *APIServer) ListLobbiesHandler(w http.ResponseWriter, r *http.Request) {
	lobbies, err := s.Contract.ListLobbies(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	if lobbies == nil {
		lobbies = []models.Lobby{}
	}
	writeOK(w, lobbies)
}

// GetLobbyHandler returns the lobby snapshot, or {"ok":null} when it does not exist.
func (s *APIServer) GetLobbyHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := lobbyIDParam(w, r)
	if !ok {
		return
	}
	l, found, err := s.Contract.GetLobby(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	if !found {
		writeOK(w, nil)
		return
	}
	writeOK(w, l)
}

func (s *APIServer) DisableLobbyHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, ok := lobbyIDParam(w, r)
	if !ok {
		return
	}
	done, err := s.Contract.DisableLobby(r.Context(), caller, id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, done)
}

// JoinLobbyHandler stakes the entry price. Success is {"ok":200}.
func (s *APIServer) JoinLobbyHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, ok := lobbyIDParam(w, r)
	if !ok {
		return
	}
	code, err := s.Contract.Join(r.Context(), caller, id)
	if err != nil {
		writeCode(w, code)
		return
	}
	writeOK(w, code)
}

func (s *APIServer) HasJoinedHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := lobbyIDParam(w, r)
	if !ok {
		return
	}
	joined, err := s.Contract.HasJoined(r.Context(), id, models.Principal(chi.URLParam(r, "account")))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, joined)
}

// GetScoreHandler returns the stored record, zero-valued when none exists.
func (s *APIServer) GetScoreHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := lobbyIDParam(w, r)
	if !ok {
		return
	}
	account := models.Principal(chi.URLParam(r, "account"))
	if account == "" {
		writeCode(w, rewards.CodeInvalid)
		return
	}
	rec, err := s.Contract.GetScore(r.Context(), id, account)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, rec)
}
