package main

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"songmeant/api_mint/internal/chain"
	"songmeant/api_mint/internal/handlers"
	"songmeant/api_mint/internal/ipfs"
	"songmeant/api_mint/internal/mint"
	"songmeant/api_mint/internal/spotify"
	"songmeant/api_mint/internal/store"
	"songmeant/api_mint/pkg/config"
	"songmeant/api_mint/pkg/database"
	"songmeant/api_mint/pkg/logging"
	"songmeant/api_mint/pkg/middleware"
	"songmeant/api_mint/pkg/monitoring"
	"songmeant/api_mint/pkg/server"
	"songmeant/api_mint/pkg/version"
)

func main() {
	// Setup logger
	logger := logging.NewLoggerWithService("songmint")

	// Load environment variables
	config.LoadEnv(logger)

	logger.Info("Starting Songmint (Song Meaning Coin API)")

	dbURL := config.RequireEnv("DATABASE_URL")

	// Connect to database
	dbConfig := database.DefaultConfig()
	dbConfig.URL = dbURL
	db := database.MustConnect(dbConfig, logger)
	defer db.Close()

	if err := database.EnsureSchema(db, logger); err != nil {
		logger.WithError(err).Fatal("Schema migration failed")
	}

	// Resolve the target network
	networkName := config.GetEnv("CHAIN_NETWORK", "base")
	network, known := chain.NetworkByName(networkName)
	if !known {
		logger.WithField("network", networkName).Warn("Unknown network, defaulting to Base mainnet")
	}

	// Setup monitoring
	healthChecker := monitoring.NewHealthChecker("songmint", version.Version)
	metricsCollector := monitoring.NewMetricsCollector("songmint", version.Version, version.GitCommit)

	healthChecker.AddCheck("database", monitoring.DatabaseHealthCheck(db))
	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(map[string]string{
		"DATABASE_URL": dbURL,
	}))

	// Create custom mint metrics
	metrics := &handlers.MintMetrics{
		MintAttempts: metricsCollector.NewCounter("mint_attempts_total", "Coin mint attempts", []string{"outcome"}),
		MintDuration: metricsCollector.NewHistogram("mint_duration_seconds", "End-to-end mint duration", []string{"outcome"}, nil),
		SongsCreated: metricsCollector.NewCounter("songs_created_total", "Song meanings created", []string{"source"}),
	}
	metrics.DBQueries, metrics.DBDuration, metrics.DBConnections = metricsCollector.CreateDatabaseMetrics()
	upstreamRequests, upstreamLatency := metricsCollector.CreateUpstreamMetrics()

	songStore := store.NewSongStore(db, logger)

	// Content pinning
	pinner := ipfs.NewPinataClient(ipfs.Config{
		APIKey:    config.GetEnv("PINATA_API_KEY", ""),
		APISecret: config.GetEnv("PINATA_SECRET_API_KEY", ""),
		Requests:  upstreamRequests,
		Latency:   upstreamLatency,
	}, logger)

	// The mint pipeline only runs with a signing key. Without one the read
	// and save endpoints still work; /mint responds 503.
	var pipeline handlers.MintService
	if keyHex := config.GetEnv("MINTING_PRIVATE_KEY", ""); keyHex != "" {
		signer, err := chain.NewPrivateKeySigner(keyHex)
		if err != nil {
			logger.WithError(err).Fatal("Invalid minting private key")
		}

		factoryHex := config.GetEnv(network.FactoryAddressEnv, "")
		if !common.IsHexAddress(factoryHex) {
			logger.WithField("env", network.FactoryAddressEnv).Fatal("Coin factory address is not configured")
		}

		submitterCfg := chain.DefaultSubmitterConfig(network)
		submitterCfg.FactoryAddress = common.HexToAddress(factoryHex)
		submitterCfg.ReceiptTimeout = time.Duration(config.GetEnvInt("RECEIPT_TIMEOUT_SECONDS", 45)) * time.Second

		submitter, err := chain.NewSubmitter(submitterCfg, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create chain submitter")
		}
		defer submitter.Close()

		symbolMaxLen := config.GetEnvInt("COIN_SYMBOL_MAX_LEN", mint.DefaultSymbolMaxLen)
		pipeline = mint.NewPipeline(songStore, pinner, submitter, signer, network, symbolMaxLen, logger)

		logger.WithFields(logging.Fields{
			"network": network.Name,
			"factory": factoryHex,
			"signer":  signer.Address().Hex(),
		}).Info("Mint pipeline ready")
	} else {
		logger.Warn("MINTING_PRIVATE_KEY not set, server-side minting disabled")
	}

	// Catalog search is optional as well
	var catalog handlers.SongCatalog
	if clientID := config.GetEnv("SPOTIFY_CLIENT_ID", ""); clientID != "" {
		catalog = spotify.NewClient(spotify.Config{
			ClientID:     clientID,
			ClientSecret: config.RequireEnv("SPOTIFY_CLIENT_SECRET"),
			Requests:     upstreamRequests,
			Latency:      upstreamLatency,
		}, logger)
	} else {
		logger.Warn("SPOTIFY_CLIENT_ID not set, catalog search disabled")
	}

	// Initialize handlers
	handlers.Init(songStore, pipeline, catalog, logger, metrics)

	// Setup router with unified monitoring
	router := server.SetupServiceRouter(logger, "songmint", healthChecker, metricsCollector)

	// API routes (root level - nginx adds /api/ prefix)
	{
		router.POST("/songs", handlers.AddSong)
		router.GET("/songs", handlers.GetSongs)
		router.GET("/songs/:id", handlers.GetSong)
		router.POST("/songs/:id/like", handlers.LikeSong)
		router.POST("/songs/:id/coin", handlers.SaveCoin)
		router.GET("/users/:username/songs", handlers.GetUserSongs)
		router.GET("/spotify/search", handlers.SearchSongs)

		// The server-signed mint spends gas, so it sits behind service auth
		// when a token is configured.
		mintGroup := router.Group("")
		if serviceToken := config.GetEnv("SERVICE_TOKEN", ""); serviceToken != "" {
			mintGroup.Use(middleware.ServiceAuthMiddleware(serviceToken))
		} else {
			logger.Warn("SERVICE_TOKEN not set, /mint is unauthenticated")
		}
		mintGroup.POST("/mint", handlers.MintCoin)
	}

	// Start server with graceful shutdown
	serverConfig := server.DefaultConfig("songmint", "18010")
	if err := server.Start(serverConfig, router, logger); err != nil {
		logger.WithError(err).Fatal("Server startup failed")
	}
}
