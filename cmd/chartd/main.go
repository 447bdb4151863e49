package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/vanshsuri07/cryptopulse/config"
	"github.com/vanshsuri07/cryptopulse/internal/chart"
	"github.com/vanshsuri07/cryptopulse/internal/metadata"
	"github.com/vanshsuri07/cryptopulse/internal/ticker"
	"github.com/vanshsuri07/cryptopulse/logger"
	"github.com/vanshsuri07/cryptopulse/pkg/binance"
	"github.com/vanshsuri07/cryptopulse/pkg/coingecko"
	"github.com/vanshsuri07/cryptopulse/pkg/storage/postgres"
	"github.com/vanshsuri07/cryptopulse/pkg/storage/redis"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// .env first so viper's AutomaticEnv picks the values up
	_ = godotenv.Load()

	// viper config
	cfg := config.Load()

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	// Coin metadata cache (Postgres)
	postgresClient, err := postgres.InitializeAndMigrateCoinRecord(cfg.Postgres, cfg.Log.Environment, true)
	if err != nil {
		log.Fatal("failed to connect to DB", zap.Error(err))
	}
	defer postgresClient.Close()

	// Live price cache (Redis)
	priceCache := redis.NewPriceCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PriceTTL)
	defer priceCache.Close()

	// Metadata provider + scheduled cache refresh
	geckoClient := coingecko.NewClient(
		cfg.CoinGecko.BaseURL, cfg.CoinGecko.APIKey,
		cfg.CoinGecko.Timeout, cfg.CoinGecko.MaxRetries,
	)
	metaService := metadata.NewService(geckoClient, postgresClient, cfg.CoinGecko.MaxAge, log)
	metaScheduler := metadata.NewScheduler(metaService, trackedCoins(cfg), log)
	if err := metaScheduler.Start(cfg.CoinGecko.RefreshCron); err != nil {
		log.Fatal("failed to start metadata scheduler", zap.Error(err))
	}
	defer metaScheduler.Stop()

	// Exchange clients
	restClient := binance.NewRESTClient(cfg.Binance.REST.BaseURL, cfg.Binance.REST.Timeout)
	dialer := binance.NewDialer(cfg.Binance.WS.URL, cfg.Binance.WS.Timeout, log)

	// Live price tickers for the listing page
	tickerService := ticker.NewService(dialer, priceCache, log)
	tickerService.Start(cfg.Chart.TickerSymbols)
	defer tickerService.Close()

	// Chart instance for the configured default selection
	period, err := chart.ParsePeriod(cfg.Chart.Period)
	if err != nil {
		log.Fatal("invalid chart period", zap.Error(err))
	}
	liveInterval := chart.LiveInterval(cfg.Chart.LiveInterval)
	if !liveInterval.IsValid() {
		log.Fatal("invalid chart live interval", zap.String("live_interval", cfg.Chart.LiveInterval))
	}

	controller := chart.NewController(
		chart.NewLoader(restClient, log),
		chart.NewBinanceStreams(dialer),
		chart.NewLogSink(log),
		log,
	)
	controller.Start(cfg.Chart.Symbol, period, liveInterval, cfg.Chart.Live)
	defer controller.Close()

	log.Info("chartd started",
		zap.String("symbol", cfg.Chart.Symbol),
		zap.String("period", cfg.Chart.Period),
		zap.Bool("live", cfg.Chart.Live))

	// Block until interrupted; deferred teardown closes streams and stores.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
}

// trackedCoins maps ticker symbols onto CoinGecko ids for the cache refresh.
// TODO: move the symbol→id mapping into config.yaml
func trackedCoins(cfg *config.Config) []string {
	ids := map[string]string{
		"btc": "bitcoin",
		"eth": "ethereum",
		"sol": "solana",
	}

	var coins []string
	for _, symbol := range cfg.Chart.TickerSymbols {
		if id, ok := ids[symbol]; ok {
			coins = append(coins, id)
		}
	}
	return coins
}
