package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/1kamson2/server/internal/cache"
	"github.com/1kamson2/server/internal/config"
	"github.com/1kamson2/server/internal/server"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the TOML config file")
	debug := flag.Bool("debug", false, "log at debug level")
	flag.Parse()

	level := zerolog.InfoLevel
	if *debug {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).
		With().Timestamp().Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	store := cache.New(cfg.ResourceRoot, cfg.MaxCacheBytes, cache.OS{}, log)
	srv, err := server.Serve(cfg, store, log)
	if err != nil {
		log.Fatal().Err(err).Msg("start server")
	}
	defer srv.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("shutting down")
}
