/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the payroll engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present), then parse flags
  2. Build the zap logger
  3. Load the statutory ruleset (embedded default or -ruleset file)
  4. Initialize SQLite store
  5. Wire engine, fact source, service and API handler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS (env fallback in brackets):
  -port       HTTP server port [PORT] (default: 8080)
  -db         SQLite database path [DB_PATH] (default: payroll.db)
              Use ":memory:" for in-memory database
  -ruleset    YAML/JSON ruleset file [RULESET_PATH] (default: embedded)
  -facts      attendance | synthetic [FACTS_SOURCE] (default: attendance)
  -seed       seed for synthetic facts and demo attendance [SYNTHETIC_SEED]
  -demo       create demo employees and attendance on an empty database
  -env        development | production [APP_ENV]
  -log-level  zap level [LOG_LEVEL] (default: info)
  -rate       requests per second per client IP, 0 disables [RATE_LIMIT]
  -company    company name printed on PDF payslips [COMPANY_NAME]

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/payroll.db"

  # Demo with in-memory database and synthetic facts
  ./server -db=":memory:" -facts=synthetic -demo

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/warp/payroll-engine/api"
	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/logging"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
)

func main() {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	// Flags
	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envString("DB_PATH", "payroll.db"), "SQLite database path")
	rulesetPath := flag.String("ruleset", envString("RULESET_PATH", ""), "statutory ruleset file (YAML or JSON)")
	factsMode := flag.String("facts", envString("FACTS_SOURCE", "attendance"), "fact source: attendance or synthetic")
	seed := flag.Int64("seed", int64(envInt("SYNTHETIC_SEED", 1)), "seed for synthetic facts and demo data")
	demo := flag.Bool("demo", false, "create demo employees and attendance on an empty database")
	env := flag.String("env", envString("APP_ENV", "production"), "development or production")
	logLevel := flag.String("log-level", envString("LOG_LEVEL", "info"), "log level")
	rps := flag.Float64("rate", envFloat("RATE_LIMIT", 20), "requests per second per client IP (0 disables)")
	company := flag.String("company", envString("COMPANY_NAME", ""), "company name on PDF payslips")
	flag.Parse()

	logger, err := logging.New(*env, *logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(logger, config{
		port:        *port,
		dbPath:      *dbPath,
		rulesetPath: *rulesetPath,
		factsMode:   *factsMode,
		seed:        *seed,
		demo:        *demo,
		rps:         *rps,
		company:     *company,
	}); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

type config struct {
	port        int
	dbPath      string
	rulesetPath string
	factsMode   string
	seed        int64
	demo        bool
	rps         float64
	company     string
}

func run(logger *zap.Logger, cfg config) error {
	// Ruleset
	var rs *factory.Ruleset
	var err error
	if cfg.rulesetPath != "" {
		rs, err = factory.LoadFile(cfg.rulesetPath)
	} else {
		rs, err = factory.Default()
	}
	if err != nil {
		return fmt.Errorf("failed to load ruleset: %w", err)
	}
	logger.Info("ruleset loaded",
		zap.String("name", rs.Tables.Name),
		zap.Ints("holiday_years", rs.Holidays.Years()),
	)

	// Initialize store
	store, err := sqlite.New(cfg.dbPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	// Fact source
	var facts payroll.FactSource
	switch cfg.factsMode {
	case "attendance":
		facts = payroll.AttendanceFacts{
			Store:          store,
			Holidays:       rs.Holidays,
			ScheduledHours: rs.Tables.Pay.HoursPerDay,
		}
	case "synthetic":
		facts = payroll.SyntheticFacts{Seed: cfg.seed}
	default:
		return fmt.Errorf("unknown fact source %q", cfg.factsMode)
	}

	engine := payroll.NewEngine(rs.Calculator, rs.Holidays)
	svc := payroll.NewService(engine, store, facts, logger)
	seeder := attendance.Seeder{Seed: cfg.seed}

	if cfg.demo {
		if err := seedDemo(context.Background(), store, seeder, rs.Holidays); err != nil {
			return fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	// Initialize handler
	handler := api.NewHandler(svc)
	handler.Seeder = seeder
	handler.Company = cfg.company

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()

	routerCfg := api.RouterConfig{Logger: logger}
	if cfg.rps > 0 {
		limiter := api.NewIPRateLimiter(rate.Limit(cfg.rps), int(cfg.rps*2)+1)
		go limiter.Run(sweepCtx, time.Minute, 10*time.Minute)
		routerCfg.RateLimiter = limiter
	}
	router := api.NewRouter(handler, routerCfg)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.Int("port", cfg.port),
			zap.String("db", cfg.dbPath),
			zap.String("facts", cfg.factsMode),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// =============================================================================
// DEMO DATA
// =============================================================================

var demoEmployees = []payroll.EmployeeRecord{
	{ID: "EMP-001", Name: "Maria Santos", Email: "maria.santos@example.com", MonthlySalary: decimal.NewFromInt(30000), PeriodAllowance: decimal.NewFromInt(1000)},
	{ID: "EMP-002", Name: "Jose Reyes", Email: "jose.reyes@example.com", MonthlySalary: decimal.NewFromInt(22000)},
	{ID: "EMP-003", Name: "Ana Cruz", Email: "ana.cruz@example.com", MonthlySalary: decimal.NewFromInt(85000), PeriodDeduction: decimal.NewFromInt(500)},
	{ID: "EMP-004", Name: "Paolo Garcia", Email: "paolo.garcia@example.com", MonthlySalary: decimal.NewFromInt(15000)},
}

// seedDemo creates demo employees with attendance for every period of the
// first supported year, unless employees already exist.
func seedDemo(ctx context.Context, store *sqlite.Store, seeder attendance.Seeder, holidays *calendar.HolidayCalendar) error {
	existing, err := store.ListEmployees(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	years := holidays.Years()
	if len(years) == 0 {
		return nil
	}
	year := years[0]
	now := time.Now().UTC()

	return store.WithTx(ctx, func(tx payroll.Store) error {
		for _, emp := range demoEmployees {
			emp.HireDate = calendar.NewDate(year-1, time.June, 1)
			emp.CreatedAt = now
			if err := tx.SaveEmployee(ctx, emp); err != nil {
				return err
			}
			p := calendar.Period{Start: calendar.NewDate(year, time.January, 1), End: calendar.NewDate(year, time.December, 31)}
			for _, rec := range seeder.Records(emp.ID, p) {
				rec.CreatedAt = now
				if err := tx.SaveAttendance(ctx, rec); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// =============================================================================
// ENV HELPERS
// =============================================================================

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
