package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "becasmod",
		Usage:   "reflex moderation daemon for chat platforms",
		Version: versioninfo.Short(),
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "platform-host",
			Usage:   "base URL of the messaging platform REST API",
			Value:   "https://discord.com",
			EnvVars: []string{"BECASMOD_PLATFORM_HOST"},
		},
		&cli.StringFlag{
			Name:    "platform-token",
			Usage:   "bot token for the messaging platform",
			EnvVars: []string{"BECASMOD_PLATFORM_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "event-stream-url",
			Usage:   "websocket URL of the platform event stream",
			Value:   "wss://gateway.discord.gg",
			EnvVars: []string{"BECASMOD_EVENT_STREAM_URL"},
		},
		&cli.StringFlag{
			Name:    "self-id",
			Usage:   "the agent's own platform identity, excluded from intake",
			EnvVars: []string{"BECASMOD_SELF_ID"},
		},
	}

	app.Commands = []*cli.Command{
		runCmd,
	}

	return app.Run(args)
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "run the moderation service",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis connection for stream cursor and slow-path queue, eg redis://localhost:6379/0",
			EnvVars: []string{"BECASMOD_REDIS_URL", "REDIS_URL"},
		},
		&cli.StringFlag{
			Name:    "slack-webhook-url",
			Usage:   "incoming webhook for moderation alerts",
			EnvVars: []string{"BECASMOD_SLACK_WEBHOOK_URL", "SLACK_WEBHOOK_URL"},
		},
		&cli.StringFlag{
			Name:    "bad-actors-file",
			Usage:   "JSON file of known bad actor identities to preload",
			EnvVars: []string{"BECASMOD_BAD_ACTORS_FILE"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics",
			Value:   ":3989",
			EnvVars: []string{"BECASMOD_METRICS_LISTEN"},
		},
		&cli.StringFlag{
			Name:    "admin-listen",
			Usage:   "IP or address, and port, to listen on for the admin API",
			Value:   ":3988",
			EnvVars: []string{"BECASMOD_ADMIN_LISTEN"},
		},
		&cli.IntFlag{
			Name:    "user-rate-limit",
			Usage:   "max events per user per minute",
			Value:   10,
			EnvVars: []string{"BECASMOD_USER_RATE_LIMIT"},
		},
		&cli.IntFlag{
			Name:    "channel-rate-limit",
			Usage:   "max events per channel per minute",
			Value:   100,
			EnvVars: []string{"BECASMOD_CHANNEL_RATE_LIMIT"},
		},
		&cli.IntFlag{
			Name:    "tenant-rate-limit",
			Usage:   "max events per tenant per minute",
			Value:   500,
			EnvVars: []string{"BECASMOD_TENANT_RATE_LIMIT"},
		},
		&cli.IntFlag{
			Name:    "raid-per-second",
			Usage:   "tenant-wide events per second above which lockdown fires",
			Value:   5,
			EnvVars: []string{"BECASMOD_RAID_PER_SECOND"},
		},
		&cli.IntFlag{
			Name:    "consumer-parallelism",
			Usage:   "max events processed concurrently off the stream",
			Value:   32,
			EnvVars: []string{"BECASMOD_CONSUMER_PARALLELISM"},
		},
	},
	Action: func(cctx *cli.Context) error {
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
		slog.SetDefault(logger)

		shutdownOTEL, err := configOTEL("becasmod")
		if err != nil {
			return err
		}
		defer shutdownOTEL()

		srv, err := NewServer(Config{
			Logger:              logger,
			PlatformHost:        cctx.String("platform-host"),
			PlatformToken:       cctx.String("platform-token"),
			EventStreamURL:      cctx.String("event-stream-url"),
			SelfID:              cctx.String("self-id"),
			RedisURL:            cctx.String("redis-url"),
			SlackWebhookURL:     cctx.String("slack-webhook-url"),
			BadActorsFile:       cctx.String("bad-actors-file"),
			MetricsListen:       cctx.String("metrics-listen"),
			AdminListen:         cctx.String("admin-listen"),
			UserRateLimit:       cctx.Int("user-rate-limit"),
			ChannelRateLimit:    cctx.Int("channel-rate-limit"),
			TenantRateLimit:     cctx.Int("tenant-rate-limit"),
			RaidPerSecond:       cctx.Int("raid-per-second"),
			ConsumerParallelism: cctx.Int("consumer-parallelism"),
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("failed to run moderation service: %w", err)
		}
		return nil
	},
}
