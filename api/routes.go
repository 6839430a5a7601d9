package api

import (
	"github.com/gorilla/mux"

	"github.com/barterhub/timebank/internal/catalog"
	"github.com/barterhub/timebank/internal/config"
	"github.com/barterhub/timebank/internal/events"
	"github.com/barterhub/timebank/internal/match"
	"github.com/barterhub/timebank/internal/repository/sqlite"
	"github.com/barterhub/timebank/internal/swipe"
	"github.com/barterhub/timebank/internal/trade"
)

func SetupRoutes(cfg *config.Config, version, buildTime string, repo *sqlite.SQLiteRepo, emitter events.Emitter) *mux.Router {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)

	// Engine wiring
	cat := catalog.New(repo)
	finder := match.NewFinder(repo, repo, cfg.Match)
	engine := trade.NewEngine(repo, repo, repo, emitter, nil)
	swipes := swipe.NewManager(finder, engine, repo, repo, emitter, nil)

	// Create handlers
	systemHandler := &SystemHandler{}
	authHandler := NewAuthHandler(repo, cfg.JWTSecret, cfg.TokenDuration)
	servicesHandler := NewServicesHandler(cat)
	matchesHandler := NewMatchesHandler(finder, repo, repo)
	swipesHandler := NewSwipesHandler(swipes)
	tradesHandler := NewTradesHandler(engine)

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	r.HandleFunc("/v1/auth/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/v1/auth/signin", authHandler.Signin).Methods("POST")

	// API v1 Protected routes
	apiV1 := r.PathPrefix("/v1").Subrouter()
	apiV1.Use(JWTAuthMiddlewareWithSecret(cfg.JWTSecret))

	// Auth endpoints
	authV1 := apiV1.PathPrefix("/auth").Subrouter()
	authV1.HandleFunc("/signout", authHandler.Signout).Methods("POST")
	apiV1.HandleFunc("/me", authHandler.Me).Methods("GET")
	apiV1.HandleFunc("/me", authHandler.UpdateMe).Methods("PATCH")

	// Catalog endpoints
	apiV1.HandleFunc("/services", servicesHandler.Create).Methods("POST")
	apiV1.HandleFunc("/services", servicesHandler.List).Methods("GET")
	apiV1.HandleFunc("/services/{id}", servicesHandler.Get).Methods("GET")
	apiV1.HandleFunc("/services/{id}/availability", servicesHandler.SetAvailability).Methods("PATCH")

	// Matching endpoints
	apiV1.HandleFunc("/matches", matchesHandler.List).Methods("GET")

	// Swipe session endpoints
	apiV1.HandleFunc("/swipes", swipesHandler.Start).Methods("POST")
	apiV1.HandleFunc("/swipes/{id}", swipesHandler.Current).Methods("GET")
	apiV1.HandleFunc("/swipes/{id}/pass", swipesHandler.Pass).Methods("POST")
	apiV1.HandleFunc("/swipes/{id}/propose", swipesHandler.Propose).Methods("POST")
	apiV1.HandleFunc("/swipes/{id}/undo", swipesHandler.Undo).Methods("POST")

	// Trade negotiation endpoints
	apiV1.HandleFunc("/trades", tradesHandler.Create).Methods("POST")
	apiV1.HandleFunc("/trades", tradesHandler.List).Methods("GET")
	apiV1.HandleFunc("/trades/{id}", tradesHandler.Get).Methods("GET")
	apiV1.HandleFunc("/trades/{id}/accept", tradesHandler.Accept).Methods("POST")
	apiV1.HandleFunc("/trades/{id}/complete", tradesHandler.Complete).Methods("POST")
	apiV1.HandleFunc("/trades/{id}/dispute", tradesHandler.Dispute).Methods("POST")
	apiV1.HandleFunc("/trades/{id}/messages", tradesHandler.AddMessage).Methods("POST")
	apiV1.HandleFunc("/trades/{id}/messages", tradesHandler.Messages).Methods("GET")

	return r
}
