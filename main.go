package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/idesign4u1/ShoppingListApp/config"
	"github.com/idesign4u1/ShoppingListApp/handlers"
	"github.com/idesign4u1/ShoppingListApp/middleware"
	"github.com/idesign4u1/ShoppingListApp/routes"
	"github.com/idesign4u1/ShoppingListApp/services"
	"github.com/idesign4u1/ShoppingListApp/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	st, err := config.InitStore()
	if err != nil {
		log.Fatal("Failed to initialize store:", err)
	}
	defer st.Close()

	log.Println("✅ Store connected successfully")

	emailService := services.NewEmailService(
		os.Getenv("RESEND_API_KEY"),
		os.Getenv("FROM_EMAIL"),
		os.Getenv("FRONTEND_URL"),
	)

	projector := services.NewProjector(st)
	aggregator := services.NewAggregator(st, projector)
	defer aggregator.Close()

	userService := services.NewUserService(st)
	listService := services.NewListService(st)
	categorizer := services.NewCategorizerService(st)
	itemService := services.NewItemService(st, categorizer)
	invitationService := services.NewInvitationService(st, listService, emailService)
	chatService := services.NewChatService(st, listService)
	catalogService := services.NewCatalogService(st)
	insightsService := services.NewInsightsService(st, listService)

	go seedCatalog(catalogService)
	go watchExistingLists(listService, aggregator)

	wsHandler := handlers.NewWSHandler()

	router := gin.Default()

	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:3000"
	}

	corsConfig := cors.Config{
		AllowOrigins:     []string{frontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           86400,
	}
	router.Use(cors.New(corsConfig))

	router.Use(middleware.Metrics())
	router.Use(middleware.RateLimiter())

	deps := routes.Deps{
		Store:       st,
		Users:       userService,
		Lists:       listService,
		Items:       itemService,
		Invitations: invitationService,
		Chat:        chatService,
		Catalog:     catalogService,
		Insights:    insightsService,
		Aggregator:  aggregator,
		WS:          wsHandler,
	}

	v1 := router.Group("/api/v1")
	{
		routes.SetupAuthRoutes(v1, deps)
		v1.GET("/ws/lists/:id", wsHandler.HandleWS)

		protected := v1.Group("/")
		protected.Use(middleware.AuthMiddleware())
		{
			routes.SetupListRoutes(protected, deps)
			routes.SetupUserRoutes(protected, deps)
			routes.SetupInvitationRoutes(protected, deps)
			routes.SetupChatRoutes(protected, deps)
			routes.SetupCatalogRoutes(protected, deps)
		}
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	utils.LogStartup("shopping-list-api", "1.0.0", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

func seedCatalog(catalog *services.CatalogService) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := catalog.Seed(ctx); err != nil {
		log.Printf("❌ Catalog seed failed: %v", err)
	}
}

// watchExistingLists resumes aggregation for every list already in the
// store, so derived counters recover after a restart.
func watchExistingLists(lists *services.ListService, aggregator *services.Aggregator) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ids, err := lists.AllIDs(ctx)
	if err != nil {
		log.Printf("❌ Failed to enumerate lists for aggregation: %v", err)
		return
	}
	for _, id := range ids {
		if err := aggregator.WatchList(id); err != nil {
			log.Printf("⚠️ Failed to watch list %s: %v", id, err)
		}
	}
	if len(ids) > 0 {
		log.Printf("✅ Aggregation resumed for %d lists", len(ids))
	}
}
