package main

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"tripflow/handlers"
	"tripflow/pipeline"
	"tripflow/services"
	"tripflow/session"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file (ignored in production where env vars are set directly)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found — using environment variables")
	}

	amadeus := services.NewAmadeusClient()
	openai := services.NewOpenAIClient()

	// A nil *AmadeusClient must stay a nil interface so the planner skips
	// inventory entirely instead of calling through a nil pointer.
	var inventory pipeline.Inventory
	if amadeus != nil {
		inventory = amadeus
	}

	planner := pipeline.NewPlanner(inventory, openai,
		pipeline.WithBudgetConfig(budgetConfigFromEnv()),
	)

	store := session.NewStore(30 * time.Minute)

	api := &handlers.API{
		Planner: planner,
		Store:   store,
		Amadeus: amadeus,
		OpenAI:  openai,
	}

	// Set Gin mode
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	// Trusted proxies (Railway sits behind a proxy)
	r.SetTrustedProxies([]string{"0.0.0.0/0"})

	// CORS — allow configured frontend origins
	frontendURLs := os.Getenv("FRONTEND_URL")
	allowedOrigins := []string{"http://localhost:5173", "http://localhost:3000"}
	if frontendURLs != "" {
		for _, u := range strings.Split(frontendURLs, ",") {
			u = strings.TrimSpace(u)
			if u != "" {
				allowedOrigins = append(allowedOrigins, u)
			}
		}
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Routes
	group := r.Group("/api")
	{
		group.GET("/health", api.HealthHandler)
		group.POST("/plan", api.PlanHandler)
		group.POST("/plan/stream", api.StreamPlanHandler)
		group.GET("/download/:id", api.DownloadHandler)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("🚀 TripFlow backend starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// budgetConfigFromEnv overrides the default budget rates from the environment.
// Rates are fixed per deployment; there is no live currency conversion.
func budgetConfigFromEnv() pipeline.BudgetConfig {
	cfg := pipeline.DefaultBudgetConfig()
	if cur := os.Getenv("BUDGET_CURRENCY"); cur != "" {
		cfg.Currency = cur
	}
	if v := os.Getenv("BUDGET_DAILY_FOOD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.DailyFood = f
		} else {
			log.Printf("⚠️  ignoring invalid BUDGET_DAILY_FOOD=%q", v)
		}
	}
	if v := os.Getenv("BUDGET_DAILY_TRANSPORT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.DailyTransport = f
		} else {
			log.Printf("⚠️  ignoring invalid BUDGET_DAILY_TRANSPORT=%q", v)
		}
	}
	return cfg
}
