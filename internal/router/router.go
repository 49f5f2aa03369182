package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"smartsales/config"
	"smartsales/internal/handler"
	"smartsales/internal/middleware"
	"smartsales/internal/payment"
	"smartsales/internal/repository"
	"smartsales/internal/service"
	"smartsales/internal/ws"
	"smartsales/pkg/cloudinary"
)

func Setup(cfg *config.Config, db *gorm.DB, cloud *cloudinary.Client, logger *zap.Logger) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	productRepo := repository.NewProductRepository(db)
	promotionRepo := repository.NewPromotionRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	orderPaymentRepo := repository.NewOrderPaymentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	hub := ws.NewHub()
	orderEvents := ws.NewOrderEventHub(hub)

	// Payment provider: Stripe when configured, in-memory stub otherwise
	// so development environments work without credentials.
	var provider payment.Provider
	var stripeProvider *payment.StripeProvider
	if cfg.Stripe.SecretKey != "" {
		stripeProvider = payment.NewStripeProvider(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)
		provider = stripeProvider
		logger.Info("stripe payments enabled")
	} else {
		provider = payment.NewStubProvider()
		logger.Warn("stripe not configured, using in-memory payment stub")
	}

	// Services
	fcmSvc := service.NewFCMService(cfg.Firebase.ServiceAccountPath, logger)
	if fcmSvc != nil {
		logger.Info("push notifications enabled")
	} else {
		logger.Info("push notifications disabled")
	}
	notifSvc := service.NewNotificationService(notificationRepo, userRepo, fcmSvc, logger)
	authSvc := service.NewAuthService(cfg, userRepo)
	catalogSvc := service.NewCatalogService(categoryRepo, productRepo, cloud, logger)
	promotionSvc := service.NewPromotionService(promotionRepo)
	checkoutSvc := service.NewCheckoutService(orderRepo, productRepo, promotionRepo, provider,
		cfg.Checkout.Currency, cfg.Checkout.MaxLineQuantity, logger)
	settlementSvc := service.NewSettlementService(orderRepo, orderPaymentRepo, provider,
		notifSvc, orderEvents, logger, cfg.Stripe.ConfirmTimeout)
	orderSvc := service.NewOrderService(orderRepo, notifSvc, orderEvents, logger)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	promotionHandler := handler.NewPromotionHandler(promotionSvc)
	checkoutHandler := handler.NewCheckoutHandler(checkoutSvc, settlementSvc, auditRepo)
	orderHandler := handler.NewOrderHandler(orderSvc, auditRepo)
	notificationHandler := handler.NewNotificationHandler(notifSvc)

	authMw := middleware.AuthRequired(&cfg.JWT)
	optionalAuthMw := middleware.OptionalAuth(&cfg.JWT)
	adminMw := middleware.AdminRequired()

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/device", authMw, authHandler.RegisterDevice)
		}

		// Public storefront
		api.GET("/categories", catalogHandler.ListCategories)
		api.GET("/products", catalogHandler.ListProducts)
		api.GET("/products/:id", catalogHandler.GetProduct)

		// Checkout (guests allowed)
		api.POST("/checkout", optionalAuthMw, checkoutHandler.Start)
		api.POST("/checkout/:id/confirm", optionalAuthMw, checkoutHandler.Confirm)

		// Customer orders and notifications
		api.GET("/orders", authMw, orderHandler.List)
		api.GET("/orders/:id", authMw, orderHandler.Get)
		api.GET("/notifications", authMw, notificationHandler.List)
		api.PATCH("/notifications/:id/read", authMw, notificationHandler.MarkRead)

		// Live order events
		api.GET("/ws/orders", ws.UpgradeOrderWS(&cfg.JWT, hub))

		// Admin
		admin := api.Group("/admin")
		admin.Use(authMw, adminMw)
		{
			admin.POST("/categories", catalogHandler.CreateCategory)
			admin.PUT("/categories/:id", catalogHandler.UpdateCategory)
			admin.POST("/products", catalogHandler.CreateProduct)
			admin.PUT("/products/:id", catalogHandler.UpdateProduct)
			admin.POST("/products/:id/image", catalogHandler.UploadProductImage)
			admin.POST("/promotions", promotionHandler.Create)
			admin.PUT("/promotions/:id", promotionHandler.Update)
			admin.GET("/promotions", promotionHandler.List)
			admin.GET("/promotions/:id", promotionHandler.Get)
			admin.PATCH("/orders/:id/fulfillment", orderHandler.UpdateFulfillment)
		}

		// Provider webhooks (unauthenticated; signature-verified)
		if stripeProvider != nil {
			webhookHandler := handler.NewStripeWebhookHandler(stripeProvider, settlementSvc, auditRepo, logger)
			api.POST("/webhooks/stripe", webhookHandler.Handle)
		}
	}

	return r
}
