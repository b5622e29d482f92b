package main

// @title PropDesk API
// @version 1.0
// @description Property management back office: leads, owners, properties, work orders and a unified communications inbox.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @description API key for provider integrations.

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/propdeskhq/propdesk/config"
	"github.com/propdeskhq/propdesk/pkg/api/handlers"
	custommw "github.com/propdeskhq/propdesk/pkg/api/middleware"
	"github.com/propdeskhq/propdesk/pkg/auth"
	"github.com/propdeskhq/propdesk/pkg/autosync"
	"github.com/propdeskhq/propdesk/pkg/billing"
	"github.com/propdeskhq/propdesk/pkg/cache"
	"github.com/propdeskhq/propdesk/pkg/comms"
	"github.com/propdeskhq/propdesk/pkg/database"
	"github.com/propdeskhq/propdesk/pkg/email"
	"github.com/propdeskhq/propdesk/pkg/expenses"
	"github.com/propdeskhq/propdesk/pkg/export"
	"github.com/propdeskhq/propdesk/pkg/ghl"
	"github.com/propdeskhq/propdesk/pkg/identity"
	"github.com/propdeskhq/propdesk/pkg/jobs"
	"github.com/propdeskhq/propdesk/pkg/leads"
	"github.com/propdeskhq/propdesk/pkg/logger"
	"github.com/propdeskhq/propdesk/pkg/metrics"
	custommiddleware "github.com/propdeskhq/propdesk/pkg/middleware"
	"github.com/propdeskhq/propdesk/pkg/notifications"
	"github.com/propdeskhq/propdesk/pkg/owners"
	"github.com/propdeskhq/propdesk/pkg/properties"
	"github.com/propdeskhq/propdesk/pkg/realtime"
	"github.com/propdeskhq/propdesk/pkg/signing"
	"github.com/propdeskhq/propdesk/pkg/sms"
	"github.com/propdeskhq/propdesk/pkg/snippets"
	"github.com/propdeskhq/propdesk/pkg/store"
	"github.com/propdeskhq/propdesk/pkg/tone"
	"github.com/propdeskhq/propdesk/pkg/webhooks"
	"github.com/propdeskhq/propdesk/pkg/workorders"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log.Printf("🔧 Configuration loaded (environment: %s)", cfg.APIEnvironment)

	appLog := logger.New(cfg.LogLevel, cfg.LogFormat)

	// Initialize Sentry for error tracking
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.SentryEnvironment,
			TracesSampleRate: 1.0,
			AttachStacktrace: true,
		})
		if err != nil {
			log.Printf("⚠️  Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s)", cfg.SentryEnvironment)
			defer sentry.Flush(2 * time.Second)
		}
	} else {
		log.Printf("ℹ️  Sentry disabled (no DSN configured)")
	}

	// Initialize database
	db, err := database.NewClientWithPool(cfg.DatabaseURL, database.DefaultPoolConfig())
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Apply schema migrations
	repo := store.New(db.DB, appLog)
	{
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := repo.Migrate(ctx); err != nil {
			cancel()
			log.Fatalf("❌ Failed to run migrations: %v", err)
		}
		cancel()
	}
	log.Printf("✅ Database schema up to date")

	// Initialize Redis cache
	redisClient, err := cache.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Initialize Prometheus metrics
	prometheusMetrics := metrics.New()
	log.Printf("✅ Prometheus metrics initialized")

	// Stores
	commStore := repo.Communications()
	directory := repo.Directory()

	// Core communication plumbing
	writer := comms.NewWriter(commStore, commStore, appLog)
	resolver := identity.NewResolver(directory)
	inboxService := comms.NewService(commStore, redisClient, appLog)

	// Auth
	tokenBlacklist := auth.NewTokenBlacklist(redisClient)
	userService := auth.NewUserService(repo.Users(), tokenBlacklist, cfg.JWTSecret, cfg.JWTExpirationHours)

	// Domain services
	leadService := leads.NewService(repo.Leads(), redisClient, appLog)
	ownerService := owners.NewService(repo.Owners())
	propertyService := properties.NewService(repo.Properties())
	workOrderService := workorders.NewService(repo.WorkOrders(), appLog)
	expenseService := expenses.NewService(repo.Expenses())
	exportService := export.NewService(expenseService, cfg.StorageLocalPath)
	notificationService := notifications.NewService(repo.Notifications(), appLog)
	snippetService := snippets.NewService(repo.Snippets())
	signingService := signing.NewService(repo.Documents(), commStore, appLog)
	toneService := tone.NewService(repo.ToneProfiles(), commStore, tone.NewOpenAIClient(cfg.OpenAIAPIKey, ""), appLog)

	// Outbound messaging
	smsService := sms.NewService(sms.NewTelnyxClient(cfg.TelnyxAPIKey), writer, cfg.TelnyxFromNumber, appLog)
	emailService := email.NewService(
		email.NewSendGridSender(cfg.SendGridAPIKey, cfg.EmailFrom, cfg.EmailFromName),
		writer, cfg.EmailFrom, appLog,
	)

	// Billing
	billingService := billing.NewService(directory, &billing.StripeConfig{
		SecretKey:     cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
		SuccessURL:    cfg.FrontendURL + "/billing?setup=success",
		CancelURL:     cfg.FrontendURL + "/billing?setup=canceled",
	})

	// Realtime fan-out: Postgres NOTIFY -> debounced cache invalidation,
	// WebSocket broadcast and inbound notifications
	hub := realtime.NewHub(appLog)
	fanout := realtime.NewFanout(hub, redisClient, notificationService, 150*time.Millisecond, appLog)
	listener, err := realtime.NewListener(cfg.DatabaseURL, fanout, appLog)
	if err != nil {
		log.Fatalf("❌ Failed to start change listener: %v", err)
	}
	listenerCtx, stopListener := context.WithCancel(context.Background())
	go listener.Run(listenerCtx)
	log.Printf("✅ Realtime listener started")

	// Provider auto-sync loop
	syncer := ghl.NewSyncer(ghl.NewClient(cfg.GHLAPIKey, cfg.GHLLocationID), writer, resolver, appLog)
	runner := autosync.NewRunner(redisClient, time.Duration(cfg.AutoSyncIntervalMinutes)*time.Minute, []autosync.Job{
		{Name: "conversations", Run: syncer.SyncConversations},
		{Name: "call_transcripts", Run: syncer.SyncCallTranscripts},
	}, appLog)

	cronManager := jobs.NewCronManager(runner, log.Default())
	if err := cronManager.SetupJobs(); err != nil {
		log.Fatalf("❌ Failed to setup cron jobs: %v", err)
	}
	cronManager.Start()
	log.Printf("✅ Cron jobs started successfully")

	// Webhook handlers
	webhookHandler := webhooks.NewHandler(writer, resolver, directory, signingService, directory, appLog)

	// HTTP handlers
	authHandler := handlers.NewAuthHandler(userService)
	communicationsHandler := handlers.NewCommunicationsHandler(inboxService)
	messagesHandler := handlers.NewMessagesHandler(smsService, emailService, resolver)
	billingHandler := handlers.NewBillingHandler(billingService)
	notificationsHandler := handlers.NewNotificationsHandler(notificationService)
	snippetsHandler := handlers.NewSnippetsHandler(snippetService)
	documentsHandler := handlers.NewDocumentsHandler(signingService)
	toneHandler := handlers.NewToneHandler(toneService)
	leadsHandler := handlers.NewLeadsHandler(leadService)
	ownersHandler := handlers.NewOwnersHandler(ownerService, propertyService)
	propertiesHandler := handlers.NewPropertiesHandler(propertyService)
	workOrdersHandler := handlers.NewWorkOrdersHandler(workOrderService)
	expensesHandler := handlers.NewExpensesHandler(expenseService, exportService)

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	// Rate limiters
	globalRateLimiter := custommiddleware.NewIPRateLimiter(cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)
	authRateLimiter := custommiddleware.NewIPRateLimiter(5, 2)       // login/register brute-force guard
	webhookRateLimiter := custommiddleware.NewIPRateLimiter(300, 50) // providers burst on redelivery

	// Global middleware
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Printf("[%s] %s - Status: %d", c.Request().Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	if cfg.SentryDSN != "" {
		e.Use(sentryecho.New(sentryecho.Options{Repanic: true}))
	}

	e.Use(prometheusMetrics.Middleware())
	e.Use(middleware.CORSWithConfig(custommiddleware.CORSConfig(cfg.FrontendURL)))
	e.Use(middleware.Gzip())
	e.Use(custommiddleware.SecurityHeaders(custommiddleware.DefaultSecurityHeadersConfig()))
	e.Use(globalRateLimiter.Middleware())

	// Health and ops endpoints (public)
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"name":        "PropDesk API",
			"version":     "0.1.0",
			"status":      "running",
			"environment": cfg.APIEnvironment,
			"timestamp":   time.Now().Unix(),
		})
	})

	e.GET("/health", func(c echo.Context) error {
		if err := db.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]any{
				"status":   "unhealthy",
				"database": "down",
			})
		}
		if _, err := redisClient.Redis.Ping(c.Request().Context()).Result(); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]any{
				"status": "unhealthy",
				"cache":  "down",
			})
		}
		return c.JSON(http.StatusOK, map[string]any{
			"status":   "healthy",
			"database": "up",
			"cache":    "up",
		})
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Realtime inbox stream
	e.GET("/ws", hub.Handler(), custommw.JWTMiddleware(cfg.JWTSecret))

	// Provider webhooks (public, rate limited)
	webhookGroup := e.Group("/webhooks", webhookRateLimiter.Middleware())
	{
		webhookGroup.POST("/telnyx/sms", webhookHandler.TelnyxMessage)
		webhookGroup.POST("/telnyx/voicemail", webhookHandler.TelnyxVoicemail)
		webhookGroup.POST("/twilio/call-status", webhookHandler.TwilioCallStatus)
		webhookGroup.POST("/signwell", webhookHandler.SignWell)
		webhookGroup.POST("/ghl/phone-sync", webhookHandler.GHLPhoneSync, custommiddleware.RequireAPIKey(cfg.IntegrationAPIKey))
		webhookGroup.POST("/stripe", billingHandler.StripeWebhook)
	}

	// API v1
	v1 := e.Group("/api/v1")

	v1.GET("/ping", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "pong"})
	})

	// Authentication routes (public)
	authRoutes := v1.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register, authRateLimiter.Middleware())
		authRoutes.POST("/login", authHandler.Login, authRateLimiter.Middleware())
		authRoutes.GET("/me", authHandler.Me, custommw.JWTMiddlewareWithBlacklist(cfg.JWTSecret, tokenBlacklist, repo.Users()))
		authRoutes.POST("/logout", authHandler.Logout, custommw.JWTMiddlewareWithBlacklist(cfg.JWTSecret, tokenBlacklist, repo.Users()))
	}

	// Protected routes (require JWT with blacklist validation)
	protected := v1.Group("")
	protected.Use(custommw.JWTMiddlewareWithBlacklist(cfg.JWTSecret, tokenBlacklist, repo.Users()))
	{
		// Unified inbox
		commsGroup := protected.Group("/communications")
		{
			commsGroup.GET("", communicationsHandler.List)
			commsGroup.GET("/search", communicationsHandler.Search)
			commsGroup.GET("/threads", communicationsHandler.Threads)
			commsGroup.GET("/thread", communicationsHandler.Thread)
			commsGroup.PUT("/thread/read", communicationsHandler.MarkThreadRead)
			commsGroup.PUT("/:id/read", communicationsHandler.MarkRead)
			commsGroup.PUT("/:id/archive", communicationsHandler.Archive)
		}

		// Outbound messaging
		protected.POST("/sms/send", messagesHandler.SendSMS)
		protected.POST("/email/send", messagesHandler.SendEmail)

		// Leads
		leadsGroup := protected.Group("/leads")
		{
			leadsGroup.GET("", leadsHandler.List)
			leadsGroup.POST("", leadsHandler.Create)
			leadsGroup.GET("/:id", leadsHandler.Get)
			leadsGroup.PUT("/:id", leadsHandler.Update)
			leadsGroup.DELETE("/:id", leadsHandler.Archive)
			leadsGroup.GET("/:id/timeline", leadsHandler.Timeline)
			leadsGroup.GET("/:id/communications", communicationsHandler.ListByLead)
			leadsGroup.GET("/:id/documents", documentsHandler.ListByLead)
		}

		// Owners
		ownersGroup := protected.Group("/owners")
		{
			ownersGroup.GET("", ownersHandler.List)
			ownersGroup.POST("", ownersHandler.Create)
			ownersGroup.GET("/:id", ownersHandler.Get)
			ownersGroup.PUT("/:id", ownersHandler.Update)
			ownersGroup.DELETE("/:id", ownersHandler.Archive)
			ownersGroup.GET("/:id/properties", ownersHandler.Properties)
		}

		// Properties
		propertiesGroup := protected.Group("/properties")
		{
			propertiesGroup.GET("", propertiesHandler.List)
			propertiesGroup.POST("", propertiesHandler.Create)
			propertiesGroup.GET("/:id", propertiesHandler.Get)
			propertiesGroup.PUT("/:id", propertiesHandler.Update)
			propertiesGroup.DELETE("/:id", propertiesHandler.Archive)
		}

		// Work orders
		workOrdersGroup := protected.Group("/work-orders")
		{
			workOrdersGroup.GET("", workOrdersHandler.List)
			workOrdersGroup.POST("", workOrdersHandler.Create)
			workOrdersGroup.GET("/:id", workOrdersHandler.Get)
			workOrdersGroup.PUT("/:id/status", workOrdersHandler.UpdateStatus)
			workOrdersGroup.GET("/:id/timeline", workOrdersHandler.Timeline)
		}

		// Expenses
		expensesGroup := protected.Group("/expenses")
		{
			expensesGroup.GET("", expensesHandler.List)
			expensesGroup.POST("", expensesHandler.Create)
			expensesGroup.GET("/export", expensesHandler.Export)
			expensesGroup.DELETE("/:id", expensesHandler.Delete)
		}

		// Documents
		protected.POST("/documents", documentsHandler.Create)

		// Billing
		billingGroup := protected.Group("/billing")
		{
			billingGroup.POST("/payment-setup", billingHandler.PaymentSetup)
			billingGroup.POST("/owner-payment-setup", billingHandler.OwnerPaymentSetup)
			billingGroup.GET("/payment-methods", billingHandler.PaymentMethods)
		}

		// Notifications
		notificationsGroup := protected.Group("/notifications")
		{
			notificationsGroup.GET("", notificationsHandler.List)
			notificationsGroup.GET("/unread-count", notificationsHandler.UnreadCount)
			notificationsGroup.PUT("/read-all", notificationsHandler.MarkAllRead)
			notificationsGroup.PUT("/:id/read", notificationsHandler.MarkRead)
		}

		// Snippets
		snippetsGroup := protected.Group("/snippets")
		{
			snippetsGroup.GET("", snippetsHandler.List)
			snippetsGroup.POST("", snippetsHandler.Create)
			snippetsGroup.GET("/expand", snippetsHandler.Expand)
			snippetsGroup.PUT("/:id", snippetsHandler.Update)
			snippetsGroup.DELETE("/:id", snippetsHandler.Delete)
		}

		// Tone profile
		toneGroup := protected.Group("/tone")
		{
			toneGroup.GET("", toneHandler.Get)
			toneGroup.POST("/analyze", toneHandler.Analyze)
		}

		// Admin: force a sync cycle outside the schedule
		protected.POST("/admin/sync", func(c echo.Context) error {
			ran := runner.RunCycle(c.Request().Context())
			prometheusMetrics.RecordSyncCycle(ran)
			return c.JSON(http.StatusOK, map[string]bool{"ran": ran})
		}, custommiddleware.RequireAdmin())
	}

	// Start server
	address := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	log.Printf("🚀 PropDesk API starting on %s", address)
	log.Printf("📝 Log level: %s, Log format: %s", cfg.LogLevel, cfg.LogFormat)
	log.Printf("🔐 JWT expiration: %d hours", cfg.JWTExpirationHours)
	log.Printf("🛡️  Rate limiting: %d req/min (burst: %d), auth 5/min", cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)
	log.Printf("⏰ Auto-sync: every minute, %d-minute quiet period", cfg.AutoSyncIntervalMinutes)

	go func() {
		if err := e.Start(address); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	cronManager.Stop()
	log.Println("✅ Cron jobs stopped")

	stopListener()
	fanout.Stop()
	log.Println("✅ Realtime listener stopped")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server gracefully stopped")
}
