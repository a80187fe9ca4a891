package handlers

import (
	"net/http"

	"github.com/jason-s-yu/trustless-rewards/internal/models"
)

type ownerRequest struct {
	Owner models.Principal `json:"owner"`
}

type transferRequest struct {
	Recipient models.Principal `json:"recipient"`
	Amount    uint64           `json:"amount"`
	Token     string           `json:"token"`
	TokenID   uint64           `json:"token-id"`
}

func (s *APIServer) GetOwnerHandler(w http.ResponseWriter, r *http.Request) {
	owner, err := s.Contract.Authority(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, owner)
}

func (s *APIServer) SetOwnerHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req ownerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	done, err := s.Contract.SetAuthority(r.Context(), caller, req.Owner)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, done)
}

// transfer decodes a transferRequest and hands it to fn with the caller.
func (s *APIServer) transfer(w http.ResponseWriter, r *http.Request, fn func(caller models.Principal, req transferRequest) (bool, error)) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req transferRequest
	if !decodeBody(w, r, &req) {
		return
	}
	done, err := fn(caller, req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, done)
}

func (s *APIServer) TransferValueHandler(w http.ResponseWriter, r *http.Request) {
	s.transfer(w, r, func(caller models.Principal, req transferRequest) (bool, error) {
		return s.Contract.TransferValue(r.Context(), caller, req.Recipient, req.Amount)
	})
}

func (s *APIServer) TransferFungibleHandler(w http.ResponseWriter, r *http.Request) {
	s.transfer(w, r, func(caller models.Principal, req transferRequest) (bool, error) {
		return s.Contract.TransferFungible(r.Context(), caller, req.Recipient, req.Amount, req.Token)
	})
}

func (s *APIServer) TransferNonFungibleHandler(w http.ResponseWriter, r *http.Request) {
	s.transfer(w, r, func(caller models.Principal, req transferRequest) (bool, error) {
		return s.Contract.TransferNonFungible(r.Context(), caller, req.Recipient, req.TokenID, req.Token)
	})
}
