package api

import (
	"github.com/garnizeh/positionfaq/internal/config"
	"github.com/gorilla/mux"
)

func SetupRoutes(cfg *config.Config, version, buildTime string, docs DocumentStore, resolver Resolver) *mux.Router {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)

	// Create handlers
	systemHandler := &SystemHandler{}
	authHandler := NewAuthHandler(cfg.HRAccessKeyHash, cfg.JWTSecret, cfg.TokenDuration)
	workflowHandler := NewWorkflowHandler(resolver)
	documentsHandler := NewDocumentsHandler(docs)

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	r.HandleFunc("/v1/auth/signin", authHandler.Signin).Methods("POST")

	// Candidate-facing workflow endpoint, rate limited
	wf := r.PathPrefix("/workflow").Subrouter()
	wf.Use(RateLimitMiddleware(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst))
	wf.HandleFunc("", workflowHandler.Resolve).Methods("POST")

	// Open read endpoints
	r.HandleFunc("/v1/positions/{id}", documentsHandler.GetPosition).Methods("GET")
	r.HandleFunc("/v1/positions/{id}/versions", documentsHandler.ListPositionVersions).Methods("GET")
	r.HandleFunc("/v1/companies/{id}", documentsHandler.GetCompany).Methods("GET")
	r.HandleFunc("/v1/companies/{id}/positions", documentsHandler.ListCompanyPositions).Methods("GET")

	// Document writes require an HR token
	hr := r.PathPrefix("/v1").Subrouter()
	hr.Use(JWTAuthMiddlewareWithSecret(cfg.JWTSecret))
	hr.HandleFunc("/positions", documentsHandler.CreatePosition).Methods("POST")
	hr.HandleFunc("/positions/{id}", documentsHandler.UpdatePosition).Methods("PUT")
	hr.HandleFunc("/companies", documentsHandler.CreateCompany).Methods("POST")
	hr.HandleFunc("/companies/{id}", documentsHandler.UpdateCompany).Methods("PUT")

	return r
}
