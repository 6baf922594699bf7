package main

import (
	"encoding/json"
	"flag"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/broker"
	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/config"
)

type Reading struct {
	WashroomID    string  `json:"washroom_id"`
	AirQuality    float64 `json:"air_quality"`
	FloorMoisture float64 `json:"floor_moisture"`
	Humidity      float64 `json:"humidity"`
	Temperature   float64 `json:"temperature"`
	FootfallCount int     `json:"footfall_count"`
}

type Heartbeat struct {
	Type          string `json:"type"`
	WashroomID    string `json:"washroom_id"`
	UptimeMS      int64  `json:"uptime_ms"`
	FreeHeap      int64  `json:"free_heap"`
	WifiConnected bool   `json:"wifi_connected"`
}

func main() {
	devices := flag.String("devices", "wr-101,wr-102,wr-103", "comma separated washroom ids")
	rounds := flag.Int("rounds", 100, "readings per washroom")
	interval := flag.Duration("interval", 500*time.Millisecond, "delay between rounds")
	flag.Parse()

	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	client, err := broker.Connect(broker.Config{
		Broker:   config.MQTTBroker(),
		ClientID: "hygiene_simulator",
		Username: config.MQTTUsername(),
		Password: config.MQTTPassword(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mqtt connect")
	}
	defer client.Disconnect()

	ids := strings.Split(*devices, ",")
	start := time.Now()
	for i := 0; i < *rounds; i++ {
		for _, id := range ids {
			// Conditions drift worse with the round number so alerts fire eventually.
			wear := float64(i) / float64(*rounds)
			r := Reading{
				WashroomID:    id,
				AirQuality:    20 + wear*60 + rand.Float64()*15,
				FloorMoisture: 10 + wear*50 + rand.Float64()*20,
				Humidity:      45 + rand.Float64()*30,
				Temperature:   20 + rand.Float64()*8,
				FootfallCount: rand.Intn(40 + int(wear*80)),
			}
			payload, _ := json.Marshal(r)
			if err := client.Publish(config.MQTTTopic(), 1, false, payload); err != nil {
				log.Error().Err(err).Str("washroom_id", id).Msg("publish reading")
			}

			if i%10 == 0 {
				hb := Heartbeat{
					Type:          "heartbeat",
					WashroomID:    id,
					UptimeMS:      time.Since(start).Milliseconds(),
					FreeHeap:      150000 + rand.Int63n(20000),
					WifiConnected: true,
				}
				payload, _ := json.Marshal(hb)
				if err := client.Publish("washroom/"+id+"/heartbeat", 0, false, payload); err != nil {
					log.Error().Err(err).Str("washroom_id", id).Msg("publish heartbeat")
				}
			}
		}
		time.Sleep(*interval)
	}
	log.Info().Int("rounds", *rounds).Msg("simulation done")
}
