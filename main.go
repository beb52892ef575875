package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockbuddy/ai"
	"stockbuddy/bot"
	"stockbuddy/core"
	"stockbuddy/imaging"
	"stockbuddy/imghost"
	"stockbuddy/lib/sl"
	"stockbuddy/prompt"
	"stockbuddy/server"
	"stockbuddy/storage"
	"stockbuddy/tokens"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {

	configPath := flag.String("conf", "config.yml", "path to config file")
	flag.Parse()

	conf := core.MustLoad(*configPath)
	log := setupLogger(conf.Env)
	log.With(
		slog.String("config", *configPath),
		slog.String("env", conf.Env),
		slog.String("model", conf.OpenRouter.Model),
		sl.Secret(conf.OpenRouter.ApiKey),
	).Info("starting stockbuddy")

	// Initialize storage based on config
	var store storage.ConversationStore
	if conf.Mongo.Enabled {
		mongoURI := fmt.Sprintf("mongodb://%s:%s@%s:%s",
			conf.Mongo.User, conf.Mongo.Password,
			conf.Mongo.Host, conf.Mongo.Port)
		var err error
		store, err = storage.NewMongoStorage(mongoURI, conf.Mongo.Database, log)
		if err != nil {
			log.With(
				slog.String("db", conf.Mongo.Database),
				slog.String("user", conf.Mongo.User),
				slog.String("host", conf.Mongo.Host),
			).Error("falling back to memory", sl.Err(err))
			store = storage.NewMemoryStorage()
		} else {
			log.Info("using MongoDB storage")
		}
	} else {
		store = storage.NewMemoryStorage()
		log.Info("using in-memory storage")
	}

	budgeter, err := tokens.NewBudgeter()
	if err != nil {
		log.Error("loading tokenizer", sl.Err(err))
		return
	}

	relay := ai.NewRelay(conf, log, &http.Client{Timeout: 120 * time.Second})
	service := prompt.NewService(
		log,
		store,
		imaging.NewTransformer(log),
		imghost.NewPublisher(conf, log, nil),
		imghost.NewVerifier(log, nil),
		budgeter,
		relay,
	)

	// One model listing at startup for visibility into what is available
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		models, err := relay.ListModels(ctx)
		if err != nil {
			log.Warn("listing models", sl.Err(err))
			return
		}
		log.Info("models available upstream", slog.Int("count", len(models)))
	}()

	srv, err := server.New(conf, log, service)
	if err != nil {
		log.Error("creating server", sl.Err(err))
		return
	}

	var tgBot *bot.TgBot
	if conf.Telegram.Enabled {
		tgBot, err = bot.NewTgBot(conf, log, service)
		if err != nil {
			log.Error("creating telegram", sl.Err(err))
			return
		}
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			log.Error("server stopped with error", sl.Err(err))
		}
	}()

	if tgBot != nil {
		go func() {
			if err := tgBot.Start(); err != nil {
				log.Error("bot stopped with error", sl.Err(err))
			}
		}()
	}

	log.Info("started")

	// Wait for shutdown signal
	sig := <-sigChan
	log.Info("received signal, shutting down", slog.String("signal", sig.String()))

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		log.Error("stopping server", sl.Err(err))
	}
	if tgBot != nil {
		tgBot.Stop()
	}

	// Close storage connection
	if err := service.Close(); err != nil {
		log.Error("closing service", sl.Err(err))
	}

	log.Info("shutdown complete")
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
