package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/app"
	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/broker"
	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/config"
	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/dashboard"
	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/export"
	httpHandlers "github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/http"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := app.Build(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("backend init failed")
	}
	defer backend.Close()
	svcs := backend.Services

	client, err := broker.Connect(broker.Config{
		Broker:   config.MQTTBroker(),
		ClientID: config.MQTTClientID(),
		Username: config.MQTTUsername(),
		Password: config.MQTTPassword(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mqtt connect")
	}

	// Sink writes outlive the signal until intake has stopped.
	sinkCtx, stopSinks := context.WithCancel(context.WithoutCancel(ctx))
	if svcs.Sinks != nil {
		go svcs.Sinks.Run(sinkCtx)
	}

	for _, topic := range []string{config.MQTTTopic(), config.HeartbeatTopic()} {
		if err := client.Subscribe(topic, 1, svcs.Readings.FromMQTT); err != nil {
			log.Fatal().Err(err).Msg("subscribe failed")
		}
		log.Info().Str("topic", topic).Msg("subscribed")
	}

	api := fiber.New(fiber.Config{DisableStartupMessage: true})
	httpHandlers.Register(api, svcs, backend.Exporter)
	go func() {
		log.Info().Str("addr", config.APIAddr()).Msg("api listening")
		if err := api.Listen(config.APIAddr()); err != nil {
			log.Error().Err(err).Msg("api server exit")
			stop()
		}
	}()

	refresher := &dashboard.Refresher{Scores: svcs.Scores, Interval: config.DashboardInterval(), Out: os.Stdout}
	go refresher.Run(ctx)

	scheduler := &export.Scheduler{
		Exporter:    backend.Exporter,
		Backoff:     config.ExportRetryBackoff(),
		MaxAttempts: config.ExportMaxAttempts(),
	}
	go scheduler.Run(ctx)

	log.Info().Msg("hygiene backend running; Ctrl+C to stop")
	<-ctx.Done()

	log.Info().Msg("shutting down")
	client.Disconnect()
	if err := api.Shutdown(); err != nil {
		log.Warn().Err(err).Msg("api shutdown")
	}
	stopSinks()
	if svcs.Sinks != nil {
		<-svcs.Sinks.Done()
	}
}
