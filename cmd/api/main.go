package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"groceryagent/internal/api"
	"groceryagent/internal/cart"
	"groceryagent/internal/config"
	"groceryagent/internal/fetch"
	"groceryagent/internal/grocery"
	"groceryagent/internal/platform/gemini"
	"groceryagent/internal/platform/localllm"
	"groceryagent/internal/recipe"
)

// llm is what the wiring below needs from either provider.
type llm interface {
	api.RecipeParser
	grocery.Normalizer
	cart.LLM
}

func main() {
	cfg := config.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Errorf("error creating logger: %w", err))
	}
	defer log.Sync()

	ctx := context.Background()

	var client llm
	switch cfg.Provider() {
	case config.ProviderGemini:
		client, err = gemini.NewClient(ctx, cfg.GoogleAPIKey, cfg.GeminiModel)
		if err != nil {
			panic(fmt.Errorf("error creating gemini client: %w", err))
		}
		log.Info("using gemini", zap.String("model", cfg.GeminiModel))
	case config.ProviderLocal:
		client = localllm.NewClient(cfg.LocalLLMURL, cfg.LocalLLMModel)
		log.Info("using local llm", zap.String("url", cfg.LocalLLMURL), zap.String("model", cfg.LocalLLMModel))
	default:
		panic(fmt.Errorf("no LLM configured: set GOOGLE_API_KEY or LOCAL_LLM_URL"))
	}

	store, err := recipe.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		panic(fmt.Errorf("error creating sqlite store: %w", err))
	}

	fetcher := fetch.NewClient()
	builder := grocery.NewBuilder(store, client, log)

	runner := cart.NewRunner(cart.RunnerConfig{
		Site:        cfg.StoreURL,
		Email:       cfg.StoreEmail,
		Password:    cfg.StorePassword,
		BrowserPath: cfg.BrowserPath,
		Headless:    cfg.Headless,
	}, client, log)
	bridge := cart.NewBridge(cfg.ListPath, runner, log)

	handler := api.NewHandler(client, fetcher, store, builder, bridge, log)

	r := gin.Default()

	// Configure CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:8081"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.POST("/api/recipes", handler.CreateRecipe)
	r.GET("/api/recipes", handler.ListRecipes)
	r.GET("/api/recipes/:id", handler.GetRecipe)
	r.PUT("/api/recipes/:id", handler.UpdateRecipe)
	r.DELETE("/api/recipes/:id", handler.DeleteRecipe)
	r.GET("/api/grocery-list", handler.GroceryList)
	r.POST("/api/grocery-list/confirm", handler.ConfirmList)

	if err := r.Run(cfg.HTTPAddr); err != nil {
		panic(fmt.Errorf("server stopped: %w", err))
	}
}
