// Package app assembles the hygiene backend from configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/cloud"
	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/config"
	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/database"
	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/export"
	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/messaging"
	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/realtime"
	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/repository"
	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/service"
)

type Backend struct {
	DB       *sqlx.DB
	Services *service.Services
	Exporter *export.Exporter

	closers []func() error
}

// Build connects the configured stores and wires the services on top.
// With USE_CLOUD_SERVICES the profile store, score log and export archive
// live in AWS; otherwise everything goes to the SQL database.
func Build(ctx context.Context) (*Backend, error) {
	db, err := database.Connect()
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	b := &builder{ctx: ctx, repos: repository.New(db)}
	b.closers = append(b.closers, db.Close)

	deps := service.Deps{
		Profiles:      b.repos.Profiles,
		Log:           b.repos.Logs,
		History:       b.repos.Logs,
		SinkTimeout:   config.SinkTimeout(),
		AlertCooldown: config.AlertCooldown(),
		SinkQueue:     config.SinkQueueSize(),
	}
	exp := &export.Exporter{Dir: config.ExportDir(), XLSX: config.ExportXLSX()}

	if config.UseCloudServices() {
		cfg, err := b.awsConfig()
		if err != nil {
			b.close()
			return nil, err
		}
		dyn := cloud.NewDynamoDBClient(cfg, config.ProfilesTable(), config.LogsTable())
		deps.Profiles, deps.Log, deps.History = dyn, dyn, dyn
		exp.Uploader = cloud.NewS3Client(cfg, config.S3Bucket())
		log.Info().Str("region", config.AWSRegion()).Msg("using AWS cloud services")
	}

	states, err := b.states(config.StateSinks())
	if err != nil {
		b.close()
		return nil, err
	}
	notifiers, err := b.notifiers(config.NotifySinks())
	if err != nil {
		b.close()
		return nil, err
	}
	deps.State, deps.Notifier, deps.Feed = states, notifiers, b.feed
	exp.History = deps.History

	log.Info().
		Strs("state_sinks", config.StateSinks()).
		Strs("notify_sinks", config.NotifySinks()).
		Msg("backend ready")

	return &Backend{
		DB:       db,
		Services: service.New(deps),
		Exporter: exp,
		closers:  b.closers,
	}, nil
}

// Close releases connections in reverse order of creation.
func (b *Backend) Close() {
	closeAll(b.closers)
}

type builder struct {
	ctx     context.Context
	repos   *repository.Repos
	rt      *realtime.Store
	aws     *aws.Config
	feed    service.NotificationFeed
	closers []func() error
}

func (b *builder) close() { closeAll(b.closers) }

func (b *builder) awsConfig() (aws.Config, error) {
	if b.aws == nil {
		cfg, err := cloud.LoadAWSConfig(b.ctx, config.AWSRegion())
		if err != nil {
			return aws.Config{}, err
		}
		b.aws = &cfg
	}
	return *b.aws, nil
}

// realtime shares one Redis client between the state and notification sinks.
func (b *builder) realtime() *realtime.Store {
	if b.rt == nil {
		rc := redis.NewClient(&redis.Options{
			Addr:     config.RedisAddr(),
			Password: config.RedisPassword(),
			DB:       config.RedisDB(),
		})
		b.closers = append(b.closers, rc.Close)
		b.rt = realtime.NewStore(realtime.NewRedisKV(rc))
	}
	return b.rt
}

func (b *builder) states(names []string) (service.States, error) {
	var out service.States
	for _, name := range names {
		switch name {
		case "postgres", "sql":
			out = append(out, b.repos.State)
		case "redis":
			out = append(out, b.realtime())
		default:
			return nil, fmt.Errorf("unknown state sink %q", name)
		}
	}
	return out, nil
}

func (b *builder) notifiers(names []string) (service.Notifiers, error) {
	var out service.Notifiers
	for _, name := range names {
		switch name {
		case "postgres", "sql":
			out = append(out, b.repos.Notifications)
			b.readFrom(b.repos.Notifications)
		case "redis":
			out = append(out, b.realtime())
			b.readFrom(b.realtime())
		case "sns":
			cfg, err := b.awsConfig()
			if err != nil {
				return nil, err
			}
			if config.SNSTopicArn() == "" {
				return nil, errors.New("sns sink needs AWS_SNS_TOPIC_ARN")
			}
			out = append(out, cloud.NewSNSClient(cfg, config.SNSTopicArn()))
		case "kafka":
			k, err := messaging.NewKafkaNotifier(config.KafkaBrokers(), config.KafkaTopic())
			if err != nil {
				return nil, err
			}
			b.closers = append(b.closers, k.Close)
			out = append(out, k)
		default:
			return nil, fmt.Errorf("unknown notify sink %q", name)
		}
	}
	return out, nil
}

// readFrom makes the first readable notification sink the API feed.
func (b *builder) readFrom(f service.NotificationFeed) {
	if b.feed == nil {
		b.feed = f
	}
}

func closeAll(closers []func() error) {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			log.Warn().Err(err).Msg("close failed")
		}
	}
}
