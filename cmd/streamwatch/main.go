// streamwatch follows a streamd resource channel and keeps a local query
// cache fresh from the keys each event carries.
//
// The stream reconnects with exponential backoff. SIGUSR1 pauses it as if the
// client went to the background; SIGUSR2 resumes. With --publish it instead
// posts a single event and prints how many sessions received it.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/kbukum/streamkit/bootstrap"
	"github.com/kbukum/streamkit/component"
	"github.com/kbukum/streamkit/config"
	"github.com/kbukum/streamkit/errors"
	"github.com/kbukum/streamkit/httpclient"
	ssehttp "github.com/kbukum/streamkit/httpclient/sse"
	"github.com/kbukum/streamkit/invalidate"
	"github.com/kbukum/streamkit/logger"
	"github.com/kbukum/streamkit/observability"
	"github.com/kbukum/streamkit/reconnect"
	"github.com/kbukum/streamkit/sse"
	"github.com/kbukum/streamkit/validation"
	"github.com/kbukum/streamkit/version"
	"github.com/kbukum/streamkit/visibility"
)

type flags struct {
	configFile  string
	url         string
	resource    string
	maxRetries  int
	baseDelay   time.Duration
	maxDelay    time.Duration
	cacheTTL    time.Duration
	logLevel    string
	publish     string
	data        string
	keys        []string
	showVersion bool
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var f flags
	fs := pflag.NewFlagSet("streamwatch", pflag.ContinueOnError)
	fs.StringVarP(&f.configFile, "config", "c", "", "path to config.yml")
	fs.StringVarP(&f.url, "url", "u", "", "streamd base URL (overrides client.base_url)")
	fs.StringVarP(&f.resource, "resource", "r", "", "resource ID to watch")
	fs.IntVar(&f.maxRetries, "max-retries", 0, "reconnect limit, -1 for unlimited")
	fs.DurationVar(&f.baseDelay, "base-delay", 0, "initial reconnect delay")
	fs.DurationVar(&f.maxDelay, "max-delay", 0, "reconnect delay cap")
	fs.DurationVar(&f.cacheTTL, "cache-ttl", 0, "query cache TTL")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&f.publish, "publish", "", "publish one event of this type and exit")
	fs.StringVar(&f.data, "data", "", "JSON payload for --publish")
	fs.StringSliceVar(&f.keys, "key", nil, "invalidation key for --publish, segments joined by '/' (repeatable)")
	fs.BoolVar(&f.showVersion, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if f.showVersion {
		fmt.Println("streamwatch", version.Get())
		return nil
	}

	cfg := newWatchConfig()
	if err := config.Load("streamwatch", cfg,
		config.WithConfigFile(f.configFile),
		config.WithEnvPrefix("STREAMWATCH"),
	); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	applyFlags(fs, cfg, &f)
	if cfg.Resource == "" {
		return errors.InvalidInput("resource", "a resource is required (--resource)")
	}

	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}
	client, err := httpclient.New(cfg.Client)
	if err != nil {
		return err
	}

	if f.publish != "" {
		return app.RunTask(context.Background(), func(ctx context.Context) error {
			return publish(ctx, client, cfg, &f)
		})
	}
	w, err := newWatcher(app, client)
	if err != nil {
		return err
	}
	return app.RunTask(context.Background(), w.run)
}

func publish(ctx context.Context, client *httpclient.Client, cfg *watchConfig, f *flags) error {
	ev := sse.Event{Type: f.publish, Resource: cfg.Resource, Keys: splitKeys(f.keys)}
	if f.data != "" {
		if !json.Valid([]byte(f.data)) {
			return errors.InvalidInput("data", "not valid JSON")
		}
		ev.Data = json.RawMessage(f.data)
	}
	if err := validation.Validate(ev); err != nil {
		return err
	}

	pub := ssehttp.NewPublisher(client, cfg.EventsPath, *httpclient.DefaultRetryConfig())
	res, err := pub.Publish(ctx, cfg.Resource, ev)
	if err != nil {
		return err
	}
	fmt.Printf("published %s to %s (%d delivered)\n", ev.Type, res.Channel, res.Delivered)
	return nil
}

// watcher follows one resource channel until it is canceled or gives up.
type watcher struct {
	ctrl   *reconnect.Controller[sse.Event]
	gate   *visibility.Switch
	cache  *invalidate.Cache[json.RawMessage]
	log    *logger.Logger
	giveUp chan error
}

// newWatcher builds the reconnecting stream and registers it, after the
// meter provider, with app.
func newWatcher(app *bootstrap.App[*watchConfig], client *httpclient.Client) (*watcher, error) {
	cfg := app.Cfg
	log := app.Logger.WithFields(logger.Fields(logger.FieldResource, cfg.Resource))

	mp, err := observability.InitMeter(context.Background(), cfg.Observability)
	if err != nil {
		return nil, err
	}
	metrics, err := observability.NewStreamMetrics(observability.Meter("streamwatch"))
	if err != nil {
		return nil, err
	}

	w := &watcher{
		gate:   visibility.NewSwitch(true),
		cache:  invalidate.NewCache[json.RawMessage](cfg.CacheTTL),
		log:    log,
		giveUp: make(chan error, 1),
	}

	path := ssehttp.ResourcePath(cfg.EventsPath, cfg.Resource)
	opts := cfg.Reconnect
	opts.Gate = w.gate
	opts.Logger = log
	opts.ShouldRetry = func(err error, _ int) bool { return errors.IsRetryable(err) }

	w.ctrl, err = reconnect.New(
		ssehttp.NewStreamFactory[sse.Event](client, path),
		newHandlers(w.cache, metrics.StateObserver(path), log, w.fail),
		opts,
	)
	if err != nil {
		w.cache.Stop()
		return nil, err
	}

	for _, c := range []component.Component{
		observability.NewMeterComponent(mp, cfg.Observability),
		reconnect.NewComponent("watch", w.ctrl),
	} {
		if err := app.RegisterComponent(c); err != nil {
			w.cache.Stop()
			return nil, err
		}
	}
	return w, nil
}

func (w *watcher) fail(err error) {
	select {
	case w.giveUp <- err:
	default:
	}
}

// run blocks until ctx ends or the controller stops on its own. It returns
// the reason the controller gave up, if any.
func (w *watcher) run(ctx context.Context) error {
	defer w.cache.Stop()
	go w.forwardVisibility(ctx)

	select {
	case <-ctx.Done():
		return nil
	case <-w.ctrl.Done():
	}
	select {
	case err := <-w.giveUp:
		return err
	default:
		// stopped on a non-retryable error
		return w.ctrl.LastError()
	}
}

// newHandlers logs each event and invalidates the cache keys it carries.
// Giving up cancels the watch.
func newHandlers(cache *invalidate.Cache[json.RawMessage], onState func(from, to reconnect.State), log *logger.Logger, giveUp func(error)) reconnect.Handlers[sse.Event] {
	invalidateKeys := invalidate.Handler(invalidate.EventKeys, cache)
	return reconnect.Handlers[sse.Event]{
		OnItem: func(ev sse.Event, meta reconnect.Meta) {
			log.Info("event", logger.Fields(
				"type", ev.Type,
				"keys", len(ev.Keys),
				logger.FieldAttempt, meta.ReconnectAttempt,
			))
			invalidateKeys(ev, meta)
		},
		OnConnect:    func() { log.Info("watching") },
		OnDisconnect: func() { log.Warn("disconnected") },
		OnItemError: func(err error) {
			log.Warn("skipped event", logger.ErrorFields("decode", err))
		},
		OnStateChange: onState,
		OnMaxRetriesReached: func(err error) {
			log.Error("giving up", logger.ErrorFields("reconnect", err))
			giveUp(err)
		},
	}
}

func (w *watcher) forwardVisibility(ctx context.Context) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(sig)
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-sig:
			active := s == syscall.SIGUSR2
			w.log.Info("visibility changed", logger.Fields("active", active))
			w.gate.Set(active)
		}
	}
}

func applyFlags(fs *pflag.FlagSet, cfg *watchConfig, f *flags) {
	if fs.Changed("url") {
		cfg.Client.BaseURL = f.url
	}
	if fs.Changed("resource") {
		cfg.Resource = f.resource
	}
	if fs.Changed("max-retries") {
		cfg.Reconnect.MaxRetries = f.maxRetries
	}
	if fs.Changed("base-delay") {
		cfg.Reconnect.BaseDelay = f.baseDelay
	}
	if fs.Changed("max-delay") {
		cfg.Reconnect.MaxDelay = f.maxDelay
	}
	if fs.Changed("cache-ttl") {
		cfg.CacheTTL = f.cacheTTL
	}
	if fs.Changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
}

func splitKeys(raw []string) [][]string {
	var keys [][]string
	for _, k := range raw {
		var segs []string
		for _, s := range strings.Split(k, "/") {
			if s != "" {
				segs = append(segs, s)
			}
		}
		if len(segs) > 0 {
			keys = append(keys, segs)
		}
	}
	return keys
}
