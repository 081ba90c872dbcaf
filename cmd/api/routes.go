package main

import (
	"log"
	"net/http"

	"kudi/internal/shared/config"
	"kudi/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", handleHealth)

	// Public routes
	mux.HandleFunc("/api/auth/demo", deps.AuthHandler.HandleDemoLogin)
	mux.HandleFunc("/api/payments/paystack/webhook", deps.PaymentHandler.HandleWebhook)

	// Protected routes
	authMiddleware := middleware.Auth(deps.SessionTokens, deps.Verifier)

	mux.Handle("/api/auth/logout", authMiddleware(http.HandlerFunc(deps.AuthHandler.HandleLogout)))
	mux.Handle("/api/users/me", authMiddleware(http.HandlerFunc(deps.AuthHandler.HandleMe)))
	mux.Handle("/api/transactions", authMiddleware(http.HandlerFunc(deps.TransactionHandler.HandleTransactions)))
	mux.Handle("/api/transactions/stream", authMiddleware(http.HandlerFunc(deps.TransactionHandler.HandleStream)))
	mux.Handle("/api/transactions/{id}", authMiddleware(http.HandlerFunc(deps.TransactionHandler.HandleTransactionByID)))
	mux.Handle("/api/summary", authMiddleware(http.HandlerFunc(deps.TransactionHandler.HandleSummary)))
	mux.Handle("/api/analytics/daily", authMiddleware(http.HandlerFunc(deps.TransactionHandler.HandleDailyAnalytics)))

	// Apply global middleware
	handler := middleware.Logging(middleware.Telemetry(middleware.Tracing(middleware.CORS(mux))))

	// Apply security middleware when TLS is enabled
	if cfg.TLS.Enabled {
		handler = middleware.HSTS(middleware.SecureCookies(handler))
		log.Println("TLS security middleware enabled (HSTS + SecureCookies)")
	}

	return handler
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
