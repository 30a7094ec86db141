package api

import (
	"crypto/sha256"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/clarionhq/daypress/internal/api/handler"
	customMiddleware "github.com/clarionhq/daypress/internal/api/middleware"
	"github.com/clarionhq/daypress/internal/authz"
	"github.com/clarionhq/daypress/internal/config"
	"github.com/clarionhq/daypress/internal/pipeline"
	"github.com/clarionhq/daypress/internal/repository/postgres"
	"github.com/clarionhq/daypress/internal/repository/redis"
	"github.com/clarionhq/daypress/internal/rules"
	"github.com/clarionhq/daypress/internal/security"
	"github.com/clarionhq/daypress/internal/service"
	"github.com/rs/zerolog/log"
)

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, db *postgres.DB, redisClient *redis.Client) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize security components
	jwtManager := security.NewJWTManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
	)

	// Initialize encryptor for campaign sender credentials. The key is
	// derived from the configured secret so it is always 32 bytes.
	encryptionKey := sha256.Sum256([]byte(cfg.Auth.JWTSecret))
	encryptor, err := security.NewEncryptor(encryptionKey[:])
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize credentials encryptor")
	}

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db)
	workspaceRepo := postgres.NewWorkspaceRepository(db)
	contentRepo := postgres.NewContentRepository(db)
	regionRepo := postgres.NewRegionRepository(db)
	couponRepo := postgres.NewCouponRepository(db)
	campaignRepo := postgres.NewCampaignRepository(db)
	customerRepo := postgres.NewCustomerRepository(db)
	dealRepo := postgres.NewDealRepository(db)
	taskRepo := postgres.NewTaskRepository(db)
	interactionRepo := postgres.NewInteractionRepository(db)

	// Initialize rate limiter and feed cache
	rateLimiter := redis.NewRateLimiter(redisClient, cfg.Content.RateLimit)
	feedCache := redis.NewFeedCache(redisClient, cfg.Content.FeedCacheTTL)

	// Initialize the submission pipeline
	unique := postgres.NewUniquenessChecker(contentRepo, couponRepo)
	validator := rules.NewValidator(unique, nil)
	pipe := pipeline.New(validator, log.Logger)
	gate := authz.NewGate()

	// Initialize services
	authService := service.NewAuthService(userRepo, workspaceRepo, jwtManager)
	workspaceService := service.NewWorkspaceService(workspaceRepo)
	contentService := service.NewContentService(contentRepo, regionRepo, workspaceRepo, feedCache, pipe, gate)
	couponService := service.NewCouponService(couponRepo, workspaceRepo, pipe, gate)
	campaignService := service.NewCampaignService(campaignRepo, workspaceRepo, encryptor, pipe, gate)
	crmService := service.NewCRMService(customerRepo, dealRepo, taskRepo, interactionRepo, workspaceRepo, pipe, gate)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	workspaceHandler := handler.NewWorkspaceHandler(workspaceService)
	contentHandler := handler.NewContentHandler(contentService)
	couponHandler := handler.NewCouponHandler(couponService)
	campaignHandler := handler.NewCampaignHandler(campaignService)
	crmHandler := handler.NewCRMHandler(crmService)
	uploadHandler := handler.NewUploadHandler(cfg.Content.UploadDir)

	// Auth middleware
	authMiddleware := customMiddleware.NewAuthMiddleware(jwtManager)
	rateLimitMiddleware := customMiddleware.NewRateLimitMiddleware(rateLimiter)

	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(db, redisClient))

		// Auth routes (public)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
		})

		// Public published-content feed
		r.Get("/feed/{workspaceID}", contentHandler.Feed)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Use(rateLimitMiddleware.Limit)

			// Global region reference data
			r.Get("/regions", contentHandler.ListRegions)

			// Media uploads
			r.Post("/media", uploadHandler.UploadMedia)

			// Workspace routes
			r.Route("/workspaces", func(r chi.Router) {
				r.Get("/", workspaceHandler.List)
				r.Post("/", workspaceHandler.Create)

				r.Route("/{workspaceID}", func(r chi.Router) {
					r.Use(customMiddleware.WorkspaceContext)

					r.Get("/", workspaceHandler.Get)
					r.Patch("/", workspaceHandler.Update)
					r.Delete("/", workspaceHandler.Delete)

					r.Post("/members", workspaceHandler.AddMember)
					r.Delete("/members/{userID}", workspaceHandler.RemoveMember)

					// Content routes
					r.Route("/content", func(r chi.Router) {
						r.Get("/", contentHandler.List)
						r.Post("/", contentHandler.Create)

						r.Route("/{contentID}", func(r chi.Router) {
							r.Get("/", contentHandler.Get)
							r.Patch("/", contentHandler.Update)
							r.Delete("/", contentHandler.Delete)
							r.Post("/submit", contentHandler.Submit)
							r.Post("/publish", contentHandler.Publish)
							r.Post("/close", contentHandler.Close)
						})
					})

					// Coupon routes
					r.Route("/coupons", func(r chi.Router) {
						r.Get("/", couponHandler.List)
						r.Post("/", couponHandler.Create)

						r.Route("/{couponID}", func(r chi.Router) {
							r.Get("/", couponHandler.Get)
							r.Patch("/", couponHandler.Update)
							r.Delete("/", couponHandler.Delete)
							r.Post("/disable", couponHandler.Disable)
							r.Post("/enable", couponHandler.Enable)
						})
					})

					// Campaign routes
					r.Route("/campaigns", func(r chi.Router) {
						r.Get("/", campaignHandler.List)
						r.Post("/", campaignHandler.Create)

						r.Route("/{campaignID}", func(r chi.Router) {
							r.Get("/", campaignHandler.Get)
							r.Patch("/", campaignHandler.Update)
							r.Delete("/", campaignHandler.Delete)
							r.Get("/credentials", campaignHandler.Credentials)
							r.Post("/schedule", campaignHandler.Schedule)
							r.Post("/send", campaignHandler.Send)
							r.Post("/cancel", campaignHandler.Cancel)
						})
					})

					// CRM routes
					r.Route("/customers", func(r chi.Router) {
						r.Get("/", crmHandler.ListCustomers)
						r.Post("/", crmHandler.CreateCustomer)

						r.Route("/{customerID}", func(r chi.Router) {
							r.Get("/", crmHandler.GetCustomer)
							r.Patch("/", crmHandler.UpdateCustomer)
							r.Delete("/", crmHandler.DeleteCustomer)
							r.Get("/interactions", crmHandler.ListInteractions)
							r.Post("/interactions", crmHandler.LogInteraction)
						})
					})

					r.Route("/deals", func(r chi.Router) {
						r.Get("/", crmHandler.ListDeals)
						r.Post("/", crmHandler.CreateDeal)

						r.Route("/{dealID}", func(r chi.Router) {
							r.Get("/", crmHandler.GetDeal)
							r.Patch("/", crmHandler.UpdateDeal)
							r.Delete("/", crmHandler.DeleteDeal)
							r.Post("/stage", crmHandler.SetDealStage)
						})
					})

					r.Route("/tasks", func(r chi.Router) {
						r.Get("/", crmHandler.ListTasks)
						r.Post("/", crmHandler.CreateTask)

						r.Route("/{taskID}", func(r chi.Router) {
							r.Get("/", crmHandler.GetTask)
							r.Patch("/", crmHandler.UpdateTask)
							r.Delete("/", crmHandler.DeleteTask)
							r.Post("/complete", crmHandler.CompleteTask)
						})
					})
				})
			})
		})
	})

	return r
}
