// Command cloudcheck verifies the AWS resources the backend uses when
// USE_CLOUD_SERVICES is on: both DynamoDB tables, the export bucket and
// the alert topic.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/cloud"
	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/config"
	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/export"
	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/scoring"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cfg, err := cloud.LoadAWSConfig(ctx, config.AWSRegion())
	if err != nil {
		log.Fatal().Err(err).Msg("aws config")
	}
	dyn := cloud.NewDynamoDBClient(cfg, config.ProfilesTable(), config.LogsTable())
	deviceID := "cloudcheck-" + uuid.NewString()[:8]

	fmt.Println("=== Test 1: Profile table ===")
	if err := dyn.Create(ctx, domain.NewDefaultProfile(deviceID)); err != nil {
		log.Fatal().Err(err).Msg("create profile")
	}
	p, err := dyn.Get(ctx, deviceID)
	if err != nil {
		log.Fatal().Err(err).Msg("get profile")
	}
	fmt.Printf("✓ Profile %s stored as %s (threshold %.0f)\n", p.DeviceID, p.Profile, p.AlertThreshold)

	fmt.Println("\n=== Test 2: Hygiene log table ===")
	now := time.Now().UTC()
	reading := domain.SensorReading{
		DeviceID:      deviceID,
		AirQuality:    domain.DefaultAirQuality,
		FloorMoisture: domain.DefaultFloorMoisture,
		Humidity:      domain.DefaultHumidity,
		Temperature:   domain.DefaultTemperature,
		FootfallCount: domain.DefaultFootfallCount,
		ReceivedAt:    now,
	}
	scores := scoring.ComputeComponentScores(reading)
	res := domain.ScoreResult{
		DeviceID:        deviceID,
		Timestamp:       now,
		Reading:         reading,
		ComponentScores: scores,
		Profile:         p.Profile,
	}
	res.BaseScore = scoring.ComputeWeightedScore(scores, scoring.Weights(p.Profile))
	res.FinalScore = res.BaseScore
	if err := dyn.AppendScoreResult(ctx, res); err != nil {
		log.Fatal().Err(err).Msg("append result")
	}
	results, err := dyn.ResultsBetween(ctx, now.Add(-time.Second), now.Add(time.Second))
	if err != nil {
		log.Fatal().Err(err).Msg("query results")
	}
	fmt.Printf("✓ Logged score %.2f, read back %d result(s)\n", res.FinalScore, len(results))

	fmt.Println("\n=== Test 3: Export bucket ===")
	key, err := cloud.NewS3Client(cfg, config.S3Bucket()).
		Upload(ctx, export.FileName(now), []byte(fmt.Sprintf("cloudcheck %s\n", now.Format(time.RFC3339))), "text/plain")
	if err != nil {
		log.Fatal().Err(err).Msg("upload")
	}
	fmt.Printf("✓ Uploaded s3://%s/%s\n", config.S3Bucket(), key)

	if config.SNSTopicArn() == "" {
		fmt.Println("\n- AWS_SNS_TOPIC_ARN not set, skipping alert topic")
	} else {
		fmt.Println("\n=== Test 4: Alert topic ===")
		err := cloud.NewSNSClient(cfg, config.SNSTopicArn()).PushNotification(ctx, deviceID, domain.Notification{
			ID:        uuid.NewString(),
			DeviceID:  deviceID,
			Timestamp: now,
			Kind:      domain.NotificationHygieneAlert,
			Score:     res.FinalScore,
			Message:   "Test alert from cloudcheck",
		})
		if err != nil {
			log.Fatal().Err(err).Msg("publish")
		}
		fmt.Println("✓ Alert published")
	}

	fmt.Println("\n✓ All cloud checks passed!")
}
