// streamd serves live resource channels over Server-Sent Events.
//
// Clients subscribe with GET /events/{resource} and receive every event
// posted to POST /events/{resource}. GET /poll/{topic} offers the same
// events as a long-poll for clients that cannot hold a stream open.
//
// Configuration comes from config.yml (see config.Load search paths), a
// .env file and STREAMD_* environment variables; flags override all three.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/kbukum/streamkit/bootstrap"
	"github.com/kbukum/streamkit/broadcast"
	"github.com/kbukum/streamkit/component"
	"github.com/kbukum/streamkit/config"
	"github.com/kbukum/streamkit/logger"
	"github.com/kbukum/streamkit/observability"
	"github.com/kbukum/streamkit/server"
	"github.com/kbukum/streamkit/sse"
	"github.com/kbukum/streamkit/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  string
		envFile     string
		host        string
		port        int
		prefix      string
		logLevel    string
		showVersion bool
	)
	flagSet := pflag.NewFlagSet("streamd", pflag.ContinueOnError)
	flagSet.StringVarP(&configFile, "config", "c", "", "path to config.yml (default: search standard locations)")
	flagSet.StringVar(&envFile, "env-file", "", "path to a .env file")
	flagSet.StringVar(&host, "host", "", "listen host (overrides server.host)")
	flagSet.IntVarP(&port, "port", "p", 0, "listen port (overrides server.port)")
	flagSet.StringVar(&prefix, "prefix", "", "channel key prefix (overrides registry.prefix)")
	flagSet.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	flagSet.BoolVar(&showVersion, "version", false, "print version and exit")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if showVersion {
		fmt.Println("streamd", version.Get())
		return nil
	}

	var cfg streamdConfig
	if err := config.Load("streamd", &cfg,
		config.WithConfigFile(configFile),
		config.WithEnvFile(envFile),
		config.WithEnvPrefix("STREAMD"),
	); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	applyFlags(flagSet, &cfg, host, port, prefix, logLevel)

	app, err := bootstrap.NewApp(&cfg)
	if err != nil {
		return err
	}
	if err := wire(app); err != nil {
		return err
	}
	return app.Run(context.Background())
}

// wire builds the stream stack and registers its components. Stop runs in
// reverse, so streams close before the server drains and metrics flush
// last.
func wire(app *bootstrap.App[*streamdConfig]) error {
	cfg, log := app.Cfg, app.Logger

	mp, err := observability.InitMeter(context.Background(), cfg.Observability)
	if err != nil {
		return err
	}
	metrics, err := observability.NewStreamMetrics(observability.Meter("streamd"))
	if err != nil {
		return err
	}

	reg, err := sse.NewRegistry[sse.Event](cfg.Registry, sse.WithLogger(log), sse.WithObserver(metrics))
	if err != nil {
		return err
	}
	sse.KeepAliveInterval = cfg.Stream.KeepAlive
	topics := broadcast.New[sse.Event](
		broadcast.WithKeepAlive(cfg.Broadcast.KeepAlive),
		broadcast.WithMaxPending(cfg.Broadcast.MaxPending),
		broadcast.WithLogger(log),
	)

	srv := server.New(cfg.Server, log)
	api := server.NewStreamAPI(reg, topics, secondsOf(cfg.Server.PollTimeout), log)
	api.Register(srv.GinEngine())
	srv.RegisterDefaultEndpoints(cfg.Name, app.Components.HealthAll, api.Stats)

	for _, c := range []component.Component{
		observability.NewMeterComponent(mp, cfg.Observability),
		srv,
		sse.NewComponent(reg, "/events/:resource"),
		broadcast.NewComponent(topics),
	} {
		if err := app.RegisterComponent(c); err != nil {
			return err
		}
	}

	app.OnReady(func(context.Context) error {
		log.Info("streamd listening", logger.Fields("addr", srv.Addr(), "version", version.Get().String()))
		return nil
	})
	return nil
}

// applyFlags lets explicitly set flags win over file and environment.
func applyFlags(fs *pflag.FlagSet, cfg *streamdConfig, host string, port int, prefix, logLevel string) {
	if fs.Changed("host") {
		cfg.Server.Host = host
	}
	if fs.Changed("port") {
		cfg.Server.Port = port
	}
	if fs.Changed("prefix") {
		cfg.Registry.Prefix = prefix
	}
	if fs.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
}

func secondsOf(n int) time.Duration { return time.Duration(n) * time.Second }
