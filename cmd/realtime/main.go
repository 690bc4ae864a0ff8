package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yourorg/teamchat/realtime-service/internal/auth"
	"github.com/yourorg/teamchat/realtime-service/internal/config"
	"github.com/yourorg/teamchat/realtime-service/internal/hub"
	"github.com/yourorg/teamchat/realtime-service/internal/kafka"
	"github.com/yourorg/teamchat/realtime-service/internal/logger"
	"github.com/yourorg/teamchat/realtime-service/internal/metrics"
	"github.com/yourorg/teamchat/realtime-service/internal/presence"
	"github.com/yourorg/teamchat/realtime-service/internal/realtime"
	"github.com/yourorg/teamchat/realtime-service/internal/repository"
	"github.com/yourorg/teamchat/realtime-service/internal/server"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}
	lg, err := logger.New(logger.Config{Development: cfg.Log.Development})
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	metrics.Init()

	db, err := repository.Connect(context.Background(), cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		lg.Fatalw("mongo connect", "err", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	mirror := presence.NewMirror(rdb, cfg.Redis.Prefix, 24*time.Hour)

	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer func() { _ = producer.Close() }()

	dir := repository.NewDirectoryRepo(db)
	msgs := repository.NewMessageRepo(db)
	dms := repository.NewDMRepo(db)
	marks := repository.NewWatermarkRepo(db)
	notifs := repository.NewNotificationRepo(db)

	h := hub.New(lg, mirror)
	h.PublishToPeers = mirror.Publish

	unread := realtime.NewUnread(msgs, dms, marks, dir)
	fanout := realtime.NewFanout(dir, msgs, notifs, unread, h, producer, lg)
	dmRouter := realtime.NewDMRouter(dir, dms, notifs, unread, h, producer, lg)
	typing := realtime.NewTypingRelay(h)
	verifier := auth.NewVerifier(cfg.JWT.Secret)

	gw := realtime.NewGateway(verifier, dir, h, fanout, dmRouter, typing, unread, msgs, lg, realtime.GatewayConfig{
		PingInterval:    cfg.PingInterval,
		WriteDeadline:   cfg.WriteDeadline,
		PongWait:        cfg.PongWait,
		MaxMessageBytes: cfg.WS.MaxMessageBytes,
		EventsPerSecond: cfg.WS.EventsPerSecond,
		HistoryLimit:    cfg.WS.HistoryLimit,
	})

	app := server.New(cfg, gw)

	errs := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Server.Port
		lg.Infow("starting realtime service", "addr", addr)
		errs <- app.Listen(addr)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case e := <-errs:
		lg.Fatalw("server error", "err", e)
	case s := <-sig:
		lg.Infow("signal received", "signal", s.String())
	}

	if err := app.Shutdown(); err != nil {
		lg.Warnw("fiber shutdown", "err", err)
	}
	lg.Info("shut down")
}
