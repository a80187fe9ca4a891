package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jason-s-yu/trustless-rewards/internal/middleware"
	"github.com/jason-s-yu/trustless-rewards/internal/models"
	"github.com/jason-s-yu/trustless-rewards/internal/rewards"
)

// okResponse and errResponse are the two response envelopes.
type okResponse struct {
	OK interface{} `json:"ok"`
}

type errResponse struct {
	Err uint `json:"err"`
}

// statusFor maps a protocol code to an HTTP status. 405 is a conflict, not a
// method problem, so it is reported as 409.
func statusFor(code uint) int {
	switch code {
	case rewards.CodeInvalid:
		return http.StatusBadRequest
	case rewards.CodeUnauthorized:
		return http.StatusUnauthorized
	case rewards.CodeForbidden:
		return http.StatusForbidden
	case rewards.CodeNotFound:
		return http.StatusNotFound
	case rewards.CodeAlreadyJoined:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, v interface{}) {
	writeJSON(w, http.StatusOK, okResponse{OK: v})
}

func writeCode(w http.ResponseWriter, code uint) {
	writeJSON(w, statusFor(code), errResponse{Err: code})
}

// writeErr reports err by its protocol code.
func writeErr(w http.ResponseWriter, err error) {
	writeCode(w, rewards.CodeOf(err))
}

// requireCaller returns the authenticated principal or writes 401.
func requireCaller(w http.ResponseWriter, r *http.Request) (models.Principal, bool) {
	p, ok := middleware.CallerFrom(r.Context())
	if !ok {
		writeCode(w, rewards.CodeUnauthorized)
		return "", false
	}
	return p, true
}

// lobbyIDParam parses the {id} path segment or writes 400.
func lobbyIDParam(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeCode(w, rewards.CodeInvalid)
		return 0, false
	}
	return id, true
}

// decodeBody decodes a JSON body into v or writes 400. Unknown fields are rejected.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeCode(w, rewards.CodeInvalid)
		return false
	}
	return true
}
