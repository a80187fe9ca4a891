// internal/handlers/api_server.go
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jason-s-yu/trustless-rewards/internal/events"
	"github.com/jason-s-yu/trustless-rewards/internal/middleware"
	"github.com/jason-s-yu/trustless-rewards/internal/rewards"
	"github.com/sirupsen/logrus"
)

// APIServer exposes the rewards contract over HTTP and streams its events.
type APIServer struct {
	Contract *rewards.Contract
	Hub      *events.Hub
	Logger   *logrus.Logger

	// DevSessions enables POST /session/dev, which mints a token for any principal.
	DevSessions bool
	// Origins is the CORS and websocket origin allow-list.
	Origins []string
}

func NewAPIServer(k *rewards.Contract, hub *events.Hub, logger *logrus.Logger) *APIServer {
	return &APIServer{
		Contract: k,
		Hub:      hub,
		Logger:   logger,
		Origins:  []string{"*"},
	}
}

// Routes builds the router.
func (s *APIServer) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.Origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.Caller)
	r.Use(middleware.LogMiddleware(s.Logger))

	if s.DevSessions {
		r.Post("/session/dev", s.DevSessionHandler)
	}

	r.Route("/lobby", func(r chi.Router) {
		r.Post("/create", s.CreateLobbyHandler)
		r.Get("/list", s.ListLobbiesHandler)
		r.Get("/{id}", s.GetLobbyHandler)
		r.Post("/{id}/disable", s.DisableLobbyHandler)
		r.Post("/{id}/join", s.JoinLobbyHandler)
		r.Get("/{id}/joined/{account}", s.HasJoinedHandler)
		r.Get("/{id}/score/{account}", s.GetScoreHandler)
	})

	r.Post("/results/publish", s.PublishResultsHandler)
	r.Post("/results/finish", s.FinishResultsHandler)

	r.Route("/admin", func(r chi.Router) {
		r.Get("/owner", s.GetOwnerHandler)
		r.Post("/owner", s.SetOwnerHandler)
		r.Post("/transfer-stx", s.TransferValueHandler)
		r.Post("/transfer-ft", s.TransferFungibleHandler)
		r.Post("/transfer-nft", s.TransferNonFungibleHandler)
	})

	r.Get("/events/ws", s.EventsWSHandler)
	return r
}
