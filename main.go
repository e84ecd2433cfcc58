package main

import (
	"context"
	"errors"
	"log"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/agrimarket/agrimarket_backend/config"
	"github.com/agrimarket/agrimarket_backend/controllers"
	"github.com/agrimarket/agrimarket_backend/middleware"
	"github.com/agrimarket/agrimarket_backend/repositories"
	"github.com/agrimarket/agrimarket_backend/routes"
	"github.com/agrimarket/agrimarket_backend/services"
	"github.com/agrimarket/agrimarket_backend/utils"
	"github.com/agrimarket/agrimarket_backend/websocket"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
	cfg := config.Load()

	_ = mime.AddExtensionType(".webp", "image/webp")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Firebase
	config.InitFirebase()

	// Connect to Redis
	redisClient, err := config.ConnectRedis(ctx, config.LoadRedisSettings())
	if err != nil {
		log.Fatalf("Redis is required: %v", err)
	}
	defer config.CloseRedis()

	// Connect to database
	client := config.ConnectDB()
	db := client.Database(config.DatabaseName())

	// Create WebSocket hub
	hub := websocket.NewHub()
	go hub.Run(ctx)

	// Initialize repositories
	accounts := repositories.NewAccountRepository(db)
	products := repositories.NewProductRepository(db)
	carts := repositories.NewCartRepository(db)
	orders := repositories.NewOrderRepository(db)
	payouts := repositories.NewPayoutRepository(db)
	chats := repositories.NewChatRepository(db)
	notifications := repositories.NewNotificationRepository(db)
	announcements := repositories.NewAnnouncementRepository(db)
	damages := repositories.NewDamageRepository(db)
	qrcodes := repositories.NewQrCodeRepository(db)
	activity := repositories.NewActivityRepository(db)

	// Initialize services
	store := services.NewTokenStore(redisClient)
	if memory, ok := store.(*services.MemoryTokenStore); ok {
		log.Println("Warning: Redis unavailable, sessions are kept in memory")
		go memory.Run(ctx, time.Minute)
	}
	mailer := services.NewEmailService()
	alerts := services.NewNotifier(notifications, accounts, hub, services.NewPushService(config.FirebaseApp), mailer)
	cartService := services.NewCartService(products, carts)
	orderService := services.NewOrderService(orders, products, carts, payouts, accounts, qrcodes, alerts, cfg)
	issuer := middleware.NewTokenIssuer(cfg, store)

	if cfg.AutoAdvance {
		worker := services.NewAutoAdvanceWorker(orders, orderService, cfg.AutoAdvanceDelay/2)
		go worker.Run(ctx)
	}

	// Initialize controllers
	authController := controllers.NewAuthController(accounts, issuer, store, mailer, utils.NewSMSService(), alerts, cfg)
	handlers := routes.Handlers{
		Auth:          authController,
		Products:      controllers.NewProductController(products, accounts, alerts, cfg.UploadDir),
		Cart:          controllers.NewCartController(cartService),
		Orders:        controllers.NewOrderController(orderService, orders),
		Payouts:       controllers.NewPayoutController(payouts, accounts, alerts),
		Chats:         controllers.NewChatController(chats, accounts, alerts),
		Notifications: controllers.NewNotificationController(notifications, accounts),
		Announcements: controllers.NewAnnouncementController(announcements, alerts),
		Damage:        controllers.NewDamageController(damages, orders, alerts),
		Admin:         controllers.NewAdminController(accounts, products, orders, payouts, activity, alerts),
		Profile:       controllers.NewProfileController(accounts, products, orders, payouts),
	}

	if email := config.GetEnv("SUPER_ADMIN_EMAIL", ""); email != "" {
		bootCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := authController.EnsureSuperAdmin(bootCtx, email, os.Getenv("SUPER_ADMIN_PASSWORD")); err != nil {
			log.Printf("Warning: could not bootstrap super admin: %v", err)
		}
		cancel()
	}

	// Create a new Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter()
	go rateLimiter.Run(ctx, time.Minute)

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.CORS(cfg.AllowedOrigins))
	e.Use(middleware.SecurityHeadersWithConfig(middleware.SecurityConfig{
		AllowedDomains: cfg.AllowedOrigins,
		AllowInlineJS:  !cfg.IsProduction(),
	}))
	e.Use(rateLimiter.RateLimit())
	e.Use(middleware.HTTPSRedirect(cfg.Env))
	e.Use(middleware.RequireBodyType())

	routes.SetupRoutes(e, client, handlers, issuer, hub, activity)

	// Ensure uploads directory exists
	if err := os.MkdirAll(filepath.Join(cfg.UploadDir, "products", "thumbnails"), 0755); err != nil {
		log.Printf("Warning: could not create upload directory: %v", err)
	}
	e.Static("/uploads", cfg.UploadDir)

	// Start server
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.Logger.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	if err := client.Disconnect(shutdownCtx); err != nil {
		log.Printf("MongoDB disconnect error: %v", err)
	}
}
