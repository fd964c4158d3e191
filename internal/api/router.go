package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/medipulse/medipulse/internal/accident"
	"github.com/medipulse/medipulse/internal/auth"
	"github.com/medipulse/medipulse/internal/lifesupport"
	"github.com/medipulse/medipulse/internal/metrics"
	"github.com/medipulse/medipulse/internal/orchestrator"
	"github.com/medipulse/medipulse/internal/route"
)

// Dependencies are the components served over HTTP. History, HealthCheck
// and Metrics are optional.
type Dependencies struct {
	Orchestrator *orchestrator.Orchestrator
	Accident     *accident.Responder
	LifeSupport  *lifesupport.Coordinator
	Routes       *route.Advisor
	Auth         *auth.Authenticator
	History      AuditHistory
	HealthCheck  func(context.Context) error
	Metrics      *metrics.Collector
	Logger       *slog.Logger
	Now          func() time.Time
}

// NewHandler creates the endpoint handler set.
func NewHandler(deps Dependencies) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Handler{
		orch:      deps.Orchestrator,
		accident:  deps.Accident,
		life:      deps.LifeSupport,
		routes:    deps.Routes,
		history:   deps.History,
		health:    deps.HealthCheck,
		logger:    logger,
		now:       now,
		startTime: now(),
	}
}

// NewRouter configures all API routes
func NewRouter(deps Dependencies) http.Handler {
	h := NewHandler(deps)
	authHandler := NewAuthHandler(deps.Auth, h.logger)
	admin := deps.Auth.Middleware

	mux := http.NewServeMux()

	// Authentication routes
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.Handle("GET /api/auth/validate", admin(http.HandlerFunc(authHandler.ValidateToken)))

	// Emergency intake
	mux.HandleFunc("POST /api/accidents", h.ReportAccident)
	mux.HandleFunc("POST /api/emergencies/blood", h.RequestBlood)
	mux.HandleFunc("POST /api/emergencies/maternity", h.RequestMaternity)

	// Emergency tracking
	mux.HandleFunc("GET /api/emergencies", h.ListEmergencies)
	mux.HandleFunc("GET /api/emergencies/{id}", h.GetEmergency)
	mux.HandleFunc("PUT /api/emergencies/{id}/status", h.UpdateStatus)
	mux.HandleFunc("GET /api/emergencies/{id}/report", h.StatusReport)
	mux.HandleFunc("GET /api/stream", h.Stream)

	// Audit log
	mux.HandleFunc("GET /api/log", h.GetLog)
	mux.HandleFunc("GET /api/log/history", h.GetLogHistory)
	mux.Handle("DELETE /api/log", admin(http.HandlerFunc(h.ClearLog)))

	// Collision monitoring and sensor feed
	mux.HandleFunc("POST /api/monitoring/start", h.StartMonitoring)
	mux.HandleFunc("POST /api/monitoring/stop", h.StopMonitoring)
	mux.HandleFunc("POST /api/sensors/acceleration", h.PushAcceleration)
	mux.HandleFunc("POST /api/sensors/gyroscope", h.PushGyroscope)
	mux.HandleFunc("POST /api/sensors/location", h.PushLocation)

	// Directories
	mux.HandleFunc("GET /api/hospitals", h.ListHospitals)
	mux.HandleFunc("GET /api/ambulances", h.ListAmbulances)
	mux.HandleFunc("GET /api/blood/inventory", h.BloodInventory)
	mux.HandleFunc("GET /api/blood/requests", h.ListBloodRequests)
	mux.HandleFunc("GET /api/maternity", h.ListMaternity)
	mux.HandleFunc("GET /api/donors", h.ListDonors)
	mux.Handle("POST /api/donors", admin(http.HandlerFunc(h.RegisterDonor)))

	// Traffic and routing
	mux.HandleFunc("GET /api/traffic", h.TrafficConditions)
	mux.HandleFunc("POST /api/traffic/incidents", h.ReportTrafficIncident)
	mux.HandleFunc("GET /api/traffic/predict", h.PredictTraffic)
	mux.HandleFunc("POST /api/routes", h.ComputeRoute)
	mux.HandleFunc("POST /api/routes/alternatives", h.AlternativeRoutes)
	mux.HandleFunc("GET /api/routes/monitor", h.MonitorRoute)

	// Ops
	mux.HandleFunc("GET /healthz", h.Health)

	var handler http.Handler = mux
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics.Handler())
		handler = deps.Metrics.InstrumentHandler(mux)
	}
	return corsMiddleware(handler)
}

// corsMiddleware allows browser dashboards on other origins and answers
// preflight requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
