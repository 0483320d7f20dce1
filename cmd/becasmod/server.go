package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/BecasLan/BecasScore-sub002/gateway"
	"github.com/BecasLan/BecasScore-sub002/pipeline"
	"github.com/BecasLan/BecasScore-sub002/platform"
	"github.com/BecasLan/BecasScore-sub002/reflex"
)

type Config struct {
	Logger              *slog.Logger
	PlatformHost        string
	PlatformToken       string
	EventStreamURL      string
	SelfID              string
	RedisURL            string
	SlackWebhookURL     string
	BadActorsFile       string
	MetricsListen       string
	AdminListen         string
	UserRateLimit       int
	ChannelRateLimit    int
	TenantRateLimit     int
	RaidPerSecond       int
	ConsumerParallelism int
}

type Server struct {
	logger        *slog.Logger
	cfg           Config
	gateway       *gateway.Gateway
	reflex        *reflex.Reflex
	pipeline      *pipeline.Pipeline
	rdb           *redis.Client
	consumer      *EventConsumer
	metricsListen string
	adminListen   string
}

// slowPathQueue hands declined contexts to the external reasoning system
// through a redis list. Without redis, hand-offs are logged and dropped.
const slowPathQueueKey = "becasmod/slowpath"

func NewServer(config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	var rdb *redis.Client
	if config.RedisURL != "" {
		opt, err := redis.ParseURL(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis URL: %v", err)
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.TODO()).Result(); err != nil {
			return nil, fmt.Errorf("redis ping failed: %v", err)
		}
	}

	var platformClient platform.Client
	if config.PlatformToken != "" {
		platformClient = platform.NewRESTClient(config.PlatformHost, config.PlatformToken, "becasmod")
	} else {
		logger.Warn("no platform token configured, moderation effects will be logged only")
	}

	gwCfg := gateway.DefaultConfig()
	gwCfg.SelfID = config.SelfID
	if config.UserRateLimit > 0 {
		gwCfg.UserLimit.Max = config.UserRateLimit
	}
	if config.ChannelRateLimit > 0 {
		gwCfg.ChannelLimit.Max = config.ChannelRateLimit
	}
	if config.TenantRateLimit > 0 {
		gwCfg.TenantLimit.Max = config.TenantRateLimit
	}

	var notifier gateway.Notifier
	if platformClient != nil {
		notifier = platformClient
	}
	gw := gateway.New(logger, gwCfg, notifier)

	rxCfg := reflex.DefaultConfig()
	if config.RaidPerSecond > 0 {
		rxCfg.RaidPerSecond = config.RaidPerSecond
	}
	rx := reflex.New(logger, rxCfg)
	if config.BadActorsFile != "" {
		if err := rx.LoadBadActorsFromFileJSON(config.BadActorsFile); err != nil {
			return nil, fmt.Errorf("loading bad actors file: %v", err)
		}
		logger.Info("loaded bad actor set from JSON", "path", config.BadActorsFile)
	}

	var alerter pipeline.Alerter
	if config.SlackWebhookURL != "" {
		alerter = pipeline.NewSlackAlerter(config.SlackWebhookURL)
	}

	var slowPath pipeline.SlowPath
	if rdb != nil {
		slowPath = pipeline.SlowPathFunc(func(ctx context.Context, sc *gateway.StabilizedContext) error {
			raw, err := json.Marshal(sc)
			if err != nil {
				return err
			}
			return rdb.LPush(ctx, slowPathQueueKey, raw).Err()
		})
	} else {
		slowPath = pipeline.SlowPathFunc(func(ctx context.Context, sc *gateway.StabilizedContext) error {
			logger.Debug("slow path hand-off dropped, no queue configured", "event", sc.Event.ID)
			return nil
		})
	}

	pipe := &pipeline.Pipeline{
		Logger:   logger,
		Gateway:  gw,
		Reflex:   rx,
		Platform: platformClient,
		Alerts:   alerter,
		SlowPath: slowPath,
	}

	s := &Server{
		logger:        logger,
		cfg:           config,
		gateway:       gw,
		reflex:        rx,
		pipeline:      pipe,
		rdb:           rdb,
		metricsListen: config.MetricsListen,
		adminListen:   config.AdminListen,
	}
	s.consumer = &EventConsumer{
		Logger:      logger,
		RedisClient: rdb,
		Pipeline:    pipe,
		Host:        config.EventStreamURL,
		Parallelism: config.ConsumerParallelism,
	}
	return s, nil
}

// RunMetrics serves the Prometheus scrape endpoint until ctx is done.
func (s *Server) RunMetrics(ctx context.Context, listen string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: listen, Handler: mux}

	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// RunReflexCleanup periodically prunes idle reflex tracker state.
func (s *Server) RunReflexCleanup(ctx context.Context) error {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.reflex.Cleanup()
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *Server) Run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error { return s.RunMetrics(ctx, s.metricsListen) })
	eg.Go(func() error { return s.RunAdminAPI(ctx, s.adminListen) })
	eg.Go(func() error { return s.gateway.RunSweeper(ctx) })
	eg.Go(func() error { return s.RunReflexCleanup(ctx) })
	eg.Go(func() error { return s.consumer.RunPersistCursor(ctx) })
	eg.Go(func() error { return s.consumer.Run(ctx) })

	return eg.Wait()
}
