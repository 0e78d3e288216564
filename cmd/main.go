package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"prediction-market/internal/amm"
	"prediction-market/internal/auth"
	"prediction-market/internal/config"
	"prediction-market/internal/database"
	"prediction-market/internal/duel"
	"prediction-market/internal/handlers"
	"prediction-market/internal/onchain"
	"prediction-market/internal/priceoracle"
	"prediction-market/internal/services"
	"prediction-market/internal/trade"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	auth.InitJWT(cfg.App.JWTSecret)

	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	db := database.GetDB()

	// One on-chain dispatcher per program: the AMM program backs pool
	// instructions, the escrow program backs duel instructions (§6).
	ammOnchain, err := onchain.NewClient(
		cfg.Solana.SolanaRPCURL,
		cfg.Solana.ProgramID,
		cfg.Solana.ServerWalletPrivateKey,
		cfg.Solana.PlatformWalletPublicKey,
	)
	if err != nil {
		log.Fatalf("Failed to init AMM onchain client: %v", err)
	}
	duelOnchain, err := onchain.NewClient(
		cfg.Solana.SolanaRPCURL,
		cfg.Solana.EscrowProgramID,
		cfg.Solana.ServerWalletPrivateKey,
		cfg.Solana.PlatformWalletPublicKey,
	)
	if err != nil {
		log.Fatalf("Failed to init escrow onchain client: %v", err)
	}

	prices := priceoracle.NewCascade()
	rpcVerifier := onchain.NewRawRPCClient(cfg.Solana.SolanaRPCURL)

	authService := services.NewAuthService(db)
	ammService := amm.NewService(db, ammOnchain)
	tradeRecorder := trade.NewRecorder(db)
	duelService := duel.NewService(db, duelOnchain, prices)

	hub := duel.NewHub()
	duelService.SetHub(hub)

	duelResolver := duel.NewResolver(duelService, db, rpcVerifier)
	duelResolver.Start()
	defer duelResolver.Stop()

	candleStreamer := duel.NewCandleStreamer(db, duelService, hub)
	candleStreamer.Start()
	defer candleStreamer.Stop()

	authHandler := handlers.NewAuthHandler(authService)
	ammHandler := handlers.NewAMMHandler(ammService, tradeRecorder)
	duelHandler := handlers.NewDuelHandler(duelService, hub)
	priceHandler := handlers.NewPriceHandler(prices)

	router := gin.Default()

	allowedOrigins := []string{
		"https://bebrafun1.vercel.app",
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		if strings.HasPrefix(frontendURL, "http://") || strings.HasPrefix(frontendURL, "https://") {
			allowedOrigins = append(allowedOrigins, frontendURL)
		} else {
			log.Printf("Warning: FRONTEND_URL '%s' does not have http:// or https:// prefix, skipping", frontendURL)
		}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Format(time.RFC3339)})
	})

	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/wallet", authHandler.WalletLogin)
		authRoutes.POST("/logout", authHandler.Logout)
	}
	authProtected := router.Group("/auth")
	authProtected.Use(auth.AuthMiddleware())
	{
		authProtected.GET("/me", authHandler.GetMe)
	}

	// Public reads: available duels, a resolved duel's public result, pool
	// state, and spot prices don't require a session.
	router.GET("/api/duels/available", duelHandler.GetAvailableDuels)
	router.GET("/api/duels/:id", duelHandler.GetDuel)
	router.GET("/api/duels/:id/candles", duelHandler.GetCandles)
	router.GET("/api/duels/:id/stream", duelHandler.Stream)
	router.GET("/api/duels/user/:userId", duelHandler.GetUserDuels)
	router.GET("/api/duels/user/:userId/statistics", duelHandler.GetUserStatistics)

	router.GET("/api/amm/pools", ammHandler.GetAllPools)
	router.GET("/api/amm/pools/:id", ammHandler.GetPool)
	router.GET("/api/amm/pools/market/:market_id", ammHandler.GetPoolByMarket)
	router.GET("/api/amm/quote", ammHandler.GetTradeQuote)
	router.GET("/api/amm/trades/:pool_id", ammHandler.GetTradeHistory)
	router.GET("/api/amm/prices/:pool_id", ammHandler.GetPriceHistory)

	router.GET("/api/price/current", priceHandler.GetCurrent)
	router.GET("/api/price/candles", priceHandler.GetCandles)

	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		api.POST("/duels", duelHandler.CreateDuel)
		api.POST("/duels/:id/join", duelHandler.JoinDuel)

		api.POST("/amm/pools", ammHandler.CreatePool)
		api.POST("/amm/trades", ammHandler.RecordTrade)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
