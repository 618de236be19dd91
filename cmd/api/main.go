package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/caffeinepub/ace8win-3/internal/authority"
	"github.com/caffeinepub/ace8win-3/internal/config"
	"github.com/caffeinepub/ace8win-3/internal/handlers"
	"github.com/caffeinepub/ace8win-3/internal/middleware"
	"github.com/caffeinepub/ace8win-3/internal/models"
	"github.com/caffeinepub/ace8win-3/internal/services"
	"github.com/caffeinepub/ace8win-3/internal/views"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	sessions, err := services.NewSessionService(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer sessions.Close()

	jwtService := services.NewJWTService(cfg)

	var client authority.Client
	if cfg.AuthorityURL != "" {
		client = authority.NewHTTPClient(cfg.AuthorityURL, cfg.AuthorityAPIKey)
		log.Printf("Using remote authority at %s", cfg.AuthorityURL)
	} else {
		mem := authority.NewMemory()
		if cfg.AdminPrincipal != "" {
			mem.SeedAdmin(models.Principal(cfg.AdminPrincipal))
		}
		client = mem
		log.Println("Using in-process authority")
	}

	store := services.NewSyncStore()
	queries := services.NewQueries(store, client)
	mutations := services.NewMutations(store, client)
	inflight := services.NewInFlightTracker()

	dashboard := views.NewDashboard(queries)
	flow := views.NewPaymentFlow(queries, mutations, cfg.UpiID)
	transactions := views.NewTransactions(queries)
	admin := views.NewAdmin(queries)

	wsHandler := handlers.NewWebSocketHandler(queries, store)
	mutations.SetBroadcaster(wsHandler)

	authHandler := handlers.NewAuthHandler(sessions, jwtService, store)
	userHandler := handlers.NewUserHandler(sessions, queries, mutations, dashboard, transactions, store)
	matchHandler := handlers.NewMatchHandler(dashboard, flow)
	paymentHandler := handlers.NewPaymentHandler(flow, inflight, wsHandler)
	adminHandler := handlers.NewAdminHandler(admin, mutations)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.POST("/auth/login", authHandler.Login)

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(jwtService))
	{
		protected.GET("/me", userHandler.GetCurrentUser)
		protected.POST("/register", userHandler.Register)
		protected.POST("/logout", userHandler.Logout)

		protected.GET("/ws", wsHandler.HandleWebSocket)

		protected.GET("/matches", matchHandler.GetBoard)
		protected.POST("/matches/:matchId/join", matchHandler.Join)

		protected.GET("/matches/:matchId/payment", paymentHandler.GetDetails)
		protected.POST("/matches/:matchId/payments",
			middleware.RateLimitMiddleware(sessions), paymentHandler.SubmitProof)

		protected.GET("/transactions", userHandler.GetTransactions)

		adminGroup := protected.Group("/admin")
		{
			adminGroup.POST("/matches", adminHandler.CreateMatch)
			adminGroup.GET("/payments", adminHandler.PaymentsOverview)
			adminGroup.GET("/matches/:matchId/participants", adminHandler.Participants)
			adminGroup.POST("/payments/approve", adminHandler.ApprovePayment)
			adminGroup.POST("/payments/reject", adminHandler.RejectPayment)
			adminGroup.GET("/users", adminHandler.Users)
			adminGroup.PUT("/users/:principal", adminHandler.UpdateUser)
			adminGroup.DELETE("/users/:principal", adminHandler.DeleteUser)
			adminGroup.POST("/users/:principal/promote", adminHandler.PromoteToUser)
			adminGroup.POST("/users/:principal/role", adminHandler.AssignRole)
		}
	}

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
