package main

import (
	"context"
	"flag"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/app"
	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/config"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	date := flag.String("date", "", "day to export as YYYY-MM-DD (default yesterday)")
	flag.Parse()

	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	day := time.Now().AddDate(0, 0, -1)
	if *date != "" {
		d, err := time.ParseInLocation(time.DateOnly, *date, time.Local)
		if err != nil {
			log.Fatal().Err(err).Str("date", *date).Msg("invalid -date")
		}
		day = d
	}

	ctx := context.Background()
	backend, err := app.Build(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("backend init failed")
	}
	defer backend.Close()

	rep, err := backend.Exporter.ExportDay(ctx, day)
	if err != nil {
		backend.Close()
		log.Fatal().Err(err).Msg("export failed")
	}
	log.Info().
		Str("date", rep.Date).
		Str("file", rep.CSVPath).
		Int("records", rep.Summary.Records).
		Float64("average", rep.Summary.AverageScore).
		Msg("export done")
}
