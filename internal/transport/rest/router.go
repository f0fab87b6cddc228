package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"github.com/xypp3/leetcode-battleroyal/internal/service"
	"github.com/xypp3/leetcode-battleroyal/internal/transport/rest/handler"
	"github.com/xypp3/leetcode-battleroyal/internal/transport/rest/middleware"
	"github.com/xypp3/leetcode-battleroyal/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService       *service.AuthService
	MatchmakerService *service.MatchmakerService
	MatchService      *service.MatchService
	QuestionService   *service.QuestionService
	Judge             service.Judge
	WSHub             *ws.Hub
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	matchHandler := handler.NewMatchHandler(c.MatchmakerService, c.MatchService)
	playerHandler := handler.NewPlayerHandler(c.MatchService, c.Judge)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/match/join", matchHandler.Join).Methods("POST", "OPTIONS")

	// WebSocket routes (public with token in query param)
	v1.HandleFunc("/ws/rooms/{roomId}", wsHandler.PlayerWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Player routes (require player auth)
	playerRoutes := v1.NewRoute().Subrouter()
	playerRoutes.Use(authMW.RequirePlayer)

	playerRoutes.HandleFunc("/rooms/{roomId}/state", matchHandler.State).Methods("GET", "OPTIONS")
	playerRoutes.HandleFunc("/rooms/{roomId}/winner", matchHandler.Winner).Methods("GET", "OPTIONS")
	playerRoutes.HandleFunc("/rooms/{roomId}/attacks", matchHandler.Attacks).Methods("GET", "OPTIONS")
	playerRoutes.HandleFunc("/question/current", playerHandler.CurrentQuestion).Methods("GET", "OPTIONS")
	playerRoutes.HandleFunc("/submissions", playerHandler.Submit).Methods("POST", "OPTIONS")
	playerRoutes.HandleFunc("/time", playerHandler.ReportTime).Methods("POST", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
