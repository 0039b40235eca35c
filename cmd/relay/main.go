package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/illmade-knight/go-mqtt-relay/pkg/metrics"
	"github.com/illmade-knight/go-mqtt-relay/pkg/mqttpublisher"
	"github.com/illmade-knight/go-mqtt-relay/pkg/relay"
	"github.com/illmade-knight/go-mqtt-relay/pkg/server"
)

const shutdownGrace = 10 * time.Second

func main() {
	logLevel := flag.String("log", "error", "log level: debug, info, warn or error")
	flag.Parse()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	level, err := zerolog.ParseLevel(strings.ToLower(*logLevel))
	if err != nil {
		logger.Fatal().Str("log_level", *logLevel).Msg("Invalid log level.")
	}
	logger = logger.Level(level)

	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("No .env file found, reading configuration from the environment.")
	}

	var relayCfg relay.Config
	if err := env.Parse(&relayCfg); err != nil {
		logger.Fatal().Err(err).Msg("Failed to parse relay configuration.")
	}
	var brokerCfg mqttpublisher.Config
	if err := env.Parse(&brokerCfg); err != nil {
		logger.Fatal().Err(err).Msg("Failed to parse broker configuration.")
	}
	var serverCfg server.Config
	if err := env.Parse(&serverCfg); err != nil {
		logger.Fatal().Err(err).Msg("Failed to parse server configuration.")
	}

	registry := prometheus.NewRegistry()
	gatewayMetrics := metrics.New(registry)

	publisher, err := mqttpublisher.New(brokerCfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build MQTT publisher.")
	}
	handler, err := relay.NewHandler(relayCfg, publisher, gatewayMetrics, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build relay handler.")
	}
	srv := server.New(serverCfg, handler, registry, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start HTTP server.")
	}
	logger.Info().
		Str("address", srv.Addr()).
		Str("broker", brokerCfg.BrokerURL()).
		Msg("MQTT relay gateway started.")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return waitForSignal(ctx, cancel, logger)
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("MQTT relay gateway terminated with error.")
	} else {
		logger.Info().Msg("MQTT relay gateway stopped.")
	}
}

// waitForSignal blocks until the process is asked to stop, then cancels the
// run context so the shutdown goroutine takes over.
func waitForSignal(ctx context.Context, cancel context.CancelFunc, logger zerolog.Logger) error {
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigs:
		logger.Info().Str("signal", sig.String()).Msg("Received shutdown signal.")
		cancel()
		return nil
	case <-ctx.Done():
		return nil
	}
}
