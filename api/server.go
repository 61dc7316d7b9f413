/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:     Unique ID per request for tracing
  2. RequestLogger: zap logger with request_id in the context
  3. Recoverer:     Panic recovery (500 instead of crash)
  4. RateLimit:     Token bucket per client IP (optional)
  5. CORS:          Cross-origin requests for frontend

ROUTE GROUPS:
  /api/calc/*              Contribution and tax calculators
  /api/periods/*           Pay period resolution
  /api/holidays/*          Holiday calendar
  /api/employees/*         Employees, attendance, requests
  /api/payslips/*          Preview, generation, status, PDF
  /api/payslip-requests/*  Approval queue
  /api/payroll-runs        Batch generation
  /healthz                 Liveness and store ping

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// RouterConfig tunes the middleware stack.
type RouterConfig struct {
	Logger         *zap.Logger
	AllowedOrigins []string
	RateLimiter    *IPRateLimiter // nil disables rate limiting
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.Health)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Calculator routes
		r.Route("/calc", func(r chi.Router) {
			r.Get("/contributions", h.CalcContributions)
			r.Get("/tax", h.CalcTax)
		})
		r.Get("/periods/resolve", h.ResolvePeriod)

		// Holiday routes
		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Get("/count", h.CountHolidays)
		})

		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Delete("/{id}", h.DeleteEmployee)
			r.Get("/{id}/attendance", h.ListAttendance)
			r.Post("/{id}/attendance", h.RecordAttendance)
			r.Post("/{id}/attendance/seed", h.SeedAttendance)
			r.Get("/{id}/payslips", h.ListEmployeePayslips)
			r.Post("/{id}/payslip-requests", h.SubmitPayslipRequest)
		})

		// Payslip routes
		r.Route("/payslips", func(r chi.Router) {
			r.Post("/", h.GeneratePayslip)
			r.Post("/preview", h.PreviewPayslip)
			r.Get("/{id}", h.GetPayslip)
			r.Get("/{id}/pdf", h.PayslipPDF)
			r.Post("/{id}/approve", h.ApprovePayslip)
			r.Post("/{id}/cancel", h.CancelPayslip)
		})

		// Request approval routes
		r.Route("/payslip-requests", func(r chi.Router) {
			r.Get("/", h.ListPayslipRequests)
			r.Get("/pending", h.ListPendingRequests)
			r.Post("/{id}/approve", h.ApprovePayslipRequest)
			r.Post("/{id}/reject", h.RejectPayslipRequest)
		})

		r.Post("/payroll-runs", h.CreatePayrollRun)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Route not found", Code: "not_found"})
	})

	return r
}
