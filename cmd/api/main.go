package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"tributech-backend/internal/config"
	"tributech-backend/internal/cron"
	"tributech-backend/internal/database"
	"tributech-backend/internal/fiscaldoc"
	"tributech-backend/internal/handlers"
	"tributech-backend/internal/middleware"
	"tributech-backend/internal/storage"
)

func main() {
	// 1. Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Connect to PostgreSQL
	db := database.New(&cfg.DB)
	defer db.Close()

	// 3. Initialize object storage: R2 when configured, local disk otherwise
	var fileStore storage.Store
	if cfg.R2.AccountID != "" {
		fileStore, err = storage.NewR2Store(
			cfg.R2.AccountID, cfg.R2.AccessKey, cfg.R2.SecretKey,
			cfg.R2.Bucket, cfg.R2.PublicURL,
		)
		if err != nil {
			log.Fatalf("Failed to initialize R2 storage: %v", err)
		}
		log.Println("Using R2 object storage")
	} else {
		fileStore, err = storage.NewLocalStore(cfg.Upload.Dir, cfg.Upload.BaseURL)
		if err != nil {
			log.Fatalf("Failed to initialize file storage: %v", err)
		}
		log.Println("Using local file storage")
	}

	// 4. Reform-tax estimator: remote NCM rates when configured, fixed
	// rates otherwise
	var rateClient fiscaldoc.RateCalculator
	if cfg.ReformAPIURL != "" {
		rateClient = fiscaldoc.NewHTTPRateClient(cfg.ReformAPIURL)
	}
	reform := fiscaldoc.NewReformEstimator(rateClient)

	// 5. Set up router with global middleware
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:3001"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// 6. Initialize handlers with their dependencies
	authHandler := handlers.NewAuthHandler(db, cfg.JWTSecret)
	profileHandler := handlers.NewProfileHandler(db)
	matchingHandler := handlers.NewMatchingHandler(db)
	opportunityHandler := handlers.NewOpportunityHandler(db)
	xmlHandler := handlers.NewXMLHandler(db, fileStore, reform, cfg.XMLBatchMax)
	calculatorHandler := handlers.NewCalculatorHandler()
	dashboardHandler := handlers.NewDashboardHandler(db)

	// Start background cron jobs
	cron.StartNotifier(db)

	// 7. Public routes (no authentication required)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("TribuTech API"))
	})
	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(db.Health())
	})

	// Auth routes — public, with a tight limit on login attempts
	r.Post("/api/auth/register", authHandler.Register)
	r.With(middleware.RateLimit(rate.Every(12*time.Second), 5)).
		Post("/api/auth/login", authHandler.Login)

	// 8. Protected routes (require valid JWT)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))

		// Current user
		r.Get("/api/auth/me", authHandler.GetMe)

		// Company profile wizard
		r.Get("/api/profile", profileHandler.GetProfile)
		r.Put("/api/profile", profileHandler.SaveStep)

		// Opportunity matching
		r.Post("/api/matching/run", matchingHandler.Run)
		r.Get("/api/matching/results", opportunityHandler.ListMatches)
		r.Patch("/api/matching/results/{id}/status", opportunityHandler.UpdateMatchStatus)

		// Fiscal document ingestion and analysis
		r.Post("/api/xml/upload", xmlHandler.Upload)
		r.Get("/api/xml/imports", xmlHandler.ListImports)
		r.Post("/api/xml/process", xmlHandler.ProcessBatch)
		r.Get("/api/xml/analyses", xmlHandler.ListAnalyses)

		// Tax calculators (stateless)
		r.Post("/api/calculator/regimes", calculatorHandler.CompareRegimes)
		r.Post("/api/calculator/split-payment", calculatorHandler.SplitPayment)

		// Dashboard and notifications
		r.Get("/api/dashboard/metrics", dashboardHandler.GetMetrics)
		r.Get("/api/notifications", dashboardHandler.ListNotifications)
		r.Patch("/api/notifications/read-all", dashboardHandler.MarkNotificationsRead)

		// Catalog management restricted to admin role
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireMinRole("admin"))

			r.Get("/api/opportunities", opportunityHandler.ListCatalog)
			r.Post("/api/opportunities", opportunityHandler.CreateOpportunity)
			r.Put("/api/opportunities/{id}", opportunityHandler.UpdateOpportunity)
			r.Delete("/api/opportunities/{id}", opportunityHandler.DeactivateOpportunity)
		})
	})

	// 9. Start server with graceful shutdown
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: r,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server started on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-done
	log.Println("Server stopped")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited properly")
}
