package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/qalinsara/rechnung/internal/auth"
	"github.com/qalinsara/rechnung/internal/middleware"
	"github.com/qalinsara/rechnung/internal/numbering"
	"github.com/qalinsara/rechnung/internal/pdf"
	"github.com/qalinsara/rechnung/internal/service"
	"github.com/qalinsara/rechnung/internal/storage/sqlite"
	"github.com/qalinsara/rechnung/pkg/logging"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		slog.Warn("Invalid duration, using fallback", "key", key, "value", value)
	}
	return fallback
}

func main() {
	// .env is optional; real deployments set the environment directly.
	godotenv.Load()
	logging.Setup()

	dbPath := getEnv("DB_PATH", "./data/rechnung.db")
	port := getEnv("PORT", "8080")
	jwtSecret := getEnv("JWT_SECRET", "")
	tokenDuration := getEnvDuration("TOKEN_DURATION", 24*time.Hour)
	logoSrc := getEnv("LOGO_URL", "")

	if jwtSecret == "" {
		slog.Error("JWT_SECRET must be set")
		os.Exit(1)
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", dbPath)

	jwtManager := auth.NewJWTManager(jwtSecret, tokenDuration)
	authenticator := auth.NewPasswordAuthenticator(store)
	alloc := numbering.New(store)
	renderer := pdf.NewRenderer(pdf.Company{
		Name:   getEnv("COMPANY_NAME", "Qalin Sara"),
		Street: getEnv("COMPANY_STREET", ""),
		City:   getEnv("COMPANY_CITY", ""),
		Phone:  getEnv("COMPANY_PHONE", ""),
	})

	router := mux.NewRouter()
	router.Use(middleware.Metrics)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	}).Methods(http.MethodGet)

	service.NewAuthService(authenticator, jwtManager).RegisterRoutes(router)

	protected := router.NewRoute().Subrouter()
	protected.Use(middleware.RequireAuth(jwtManager))
	service.NewInvoiceService(store, alloc, renderer, logoSrc).RegisterRoutes(protected)
	service.NewSettingsService(store).RegisterRoutes(protected)

	handler := middleware.Logging(middleware.CORS(router))

	// h2c keeps HTTP/2 available without TLS for reverse-proxied setups.
	h2cHandler := h2c.NewHandler(handler, &http2.Server{})

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      h2cHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	slog.Info("Server starting", "address", srv.Addr)
	if err := srv.ListenAndServe(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
