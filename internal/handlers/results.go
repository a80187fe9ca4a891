package handlers

import (
	"context"
	"net/http"

	"github.com/jason-s-yu/trustless-rewards/internal/models"
)

type batchOp func(ctx context.Context, caller models.Principal, records []models.ResultRecord) (bool, error)

// resultsHandler decodes a JSON array of result records and runs op on it.
func resultsHandler(op batchOp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := requireCaller(w, r)
		if !ok {
			return
		}
		var records []models.ResultRecord
		if !decodeBody(w, r, &records) {
			return
		}
		done, err := op(r.Context(), caller, records)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeOK(w, done)
	}
}

func (s *APIServer) PublishResultsHandler(w http.ResponseWriter, r *http.Request) {
	resultsHandler(s.Contract.PublishResultMany)(w, r)
}

func (s *APIServer) FinishResultsHandler(w http.ResponseWriter, r *http.Request) {
	resultsHandler(s.Contract.FinishResultMany)(w, r)
}
