// Package main provides the btcsendd daemon - the Bitcoin send form service.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Klingon-tech/btcsend/internal/backend"
	"github.com/Klingon-tech/btcsend/internal/bns"
	"github.com/Klingon-tech/btcsend/internal/chain"
	"github.com/Klingon-tech/btcsend/internal/config"
	"github.com/Klingon-tech/btcsend/internal/drawers"
	"github.com/Klingon-tech/btcsend/internal/navigate"
	"github.com/Klingon-tech/btcsend/internal/rpc"
	"github.com/Klingon-tech/btcsend/internal/sendform"
	"github.com/Klingon-tech/btcsend/internal/storage"
	"github.com/Klingon-tech/btcsend/internal/wallet"
	"github.com/Klingon-tech/btcsend/pkg/logging"
)

var (
	version = "0.1.0-dev"
	commit  = "unknown"
)

// formValuesMaxAge is how long a half-filled form survives a closed popup.
const formValuesMaxAge = 24 * time.Hour

func main() {
	// Parse flags
	var (
		dataDir     = flag.String("data-dir", "~/.btcsend", "Data directory")
		configFile  = flag.String("config", "", "Config file path (default: <data-dir>/config.yaml)")
		network     = flag.String("network", "", "Network (mainnet, testnet, signet, regtest), overrides config")
		apiAddr     = flag.String("api", "", "JSON-RPC API address, overrides config")
		logLevel    = flag.String("log-level", "", "Log level (debug, info, warn, error), overrides config")
		showVersion = flag.Bool("version", false, "Show version and exit")
	)
	flag.Parse()

	// Set up logging (initial, may be overridden by config)
	log := logging.New(&logging.Config{
		Level:      firstNonEmpty(*logLevel, "info"),
		TimeFormat: time.TimeOnly,
	})
	logging.SetDefault(log)

	if *showVersion {
		log.Infof("btcsendd %s (commit: %s)", version, commit)
		os.Exit(0)
	}

	// Load or create config file
	var cfg *config.Config
	var err error
	if *configFile != "" {
		cfg, err = config.LoadFile(*configFile)
	} else {
		cfg, err = config.Load(*dataDir)
	}
	if err != nil {
		log.Fatal("Failed to load config", "error", err)
	}

	// Apply CLI overrides (CLI flags take precedence over config file)
	if *apiAddr != "" {
		cfg.RPC.Listen = *apiAddr
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = *dataDir
	}

	// Update logging with config level
	log = logging.New(&logging.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		TimeFormat: time.TimeOnly,
	})
	logging.SetDefault(log)

	// Initialize storage
	dataPath := config.ExpandPath(cfg.Storage.DataDir)
	store, err := storage.New(&storage.Config{DataDir: dataPath})
	if err != nil {
		log.Fatal("Failed to initialize storage", "error", err)
	}
	defer store.Close()
	log.Info("Storage initialized", "path", store.Path())

	// Network: flag, then the last switch, then config
	startNetwork := cfg.Network
	if saved, err := store.GetSetting(rpc.SettingNetwork); err == nil {
		startNetwork = chain.Network(saved)
	}
	if *network != "" {
		startNetwork = chain.Network(*network)
	}
	selector, err := chain.NewSelector(startNetwork)
	if err != nil {
		log.Fatal("Invalid network", "network", startNetwork, "error", err)
	}

	// Initialize backend registry for blockchain access
	backends, err := backend.NewRegistryFromConfigs(cfg.Backends)
	if err != nil {
		log.Fatal("Failed to initialize backends", "error", err)
	}
	defer backends.CloseAll()

	walletService := wallet.NewService(&wallet.ServiceConfig{
		Selector:  selector,
		Accounts:  wallet.NewAccountService(cfg.Wallet.AccountXPubs),
		Backends:  backends,
		FeeTarget: cfg.Send.FeeTarget,
	})
	if address, err := walletService.CurrentAddress(context.Background()); err != nil {
		log.Warn("No account configured for network", "network", startNetwork, "error", err)
	} else {
		log.Info("Wallet service initialized", "network", startNetwork, "address", address)
	}

	router := navigate.NewRouter()
	drawerStore := drawers.NewStore()

	controller, err := sendform.NewController(&sendform.Config{
		Network:          selector,
		Accounts:         walletService,
		Balance:          walletService,
		MaxSpend:         walletService,
		Names:            bns.NewResolver(selector, cfg.Names),
		Generator:        wallet.NewGenerator(walletService, nil),
		Navigator:        router,
		WalletType:       sendform.StaticWalletType(cfg.Wallet.Type),
		Persister:        store,
		Drawers:          drawerStore,
		HighFeeThreshold: cfg.Send.HighFeeThreshold,
		MinimumSpend:     cfg.Send.MinimumSpend,
	})
	if err != nil {
		log.Fatal("Failed to create send form", "error", err)
	}

	router.AddSink(store.PreviewSink(
		func() string { return controller.FormRef().FormID },
		func() string { return string(selector.Current().Network) },
	))

	// Start RPC server
	rpcServer := rpc.NewServer(&rpc.Config{
		Controller: controller,
		Wallet:     walletService,
		Drawers:    drawerStore,
		Router:     router,
		Selector:   selector,
		Store:      store,
	})
	if err := rpcServer.Start(cfg.RPC.Listen); err != nil {
		log.Fatal("Failed to start RPC server", "error", err)
	}

	printBanner(log, cfg, selector.Current(), dataPath)

	// Drop abandoned form values
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				n, err := store.PurgeFormValues(time.Now().Add(-formValuesMaxAge))
				if err != nil {
					log.Warn("Failed to purge form values", "error", err)
				} else if n > 0 {
					log.Debug("Purged stale form values", "count", n)
				}
			}
		}
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	log.Info("Shutting down...")

	close(stop)
	if err := rpcServer.Stop(); err != nil {
		log.Error("Error stopping RPC server", "error", err)
	}

	log.Info("Goodbye!")
}

func printBanner(log *logging.Logger, cfg *config.Config, params *chain.Params, dataDir string) {
	log.Info("")
	log.Info("=================================================")
	log.Infof("  btcsend daemon (%s)", params.Name)
	log.Infof("  Version: %s", version)
	log.Info("=================================================")
	log.Info("")
	log.Infof("  API:    http://%s", cfg.RPC.Listen)
	log.Infof("  WS:     ws://%s/ws", cfg.RPC.Listen)
	log.Infof("  Styles: http://%s/styles/popup-center.css", cfg.RPC.Listen)
	log.Info("")
	log.Infof("  Wallet: %s | High fee: %d sats", cfg.Wallet.Type, cfg.Send.HighFeeThreshold)
	log.Infof("  Data dir: %s", dataDir)
	log.Infof("  Config:   %s", filepath.Join(dataDir, config.ConfigFileName))
	log.Info("")
	log.Info("=================================================")
	log.Info("")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
