package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"syscall"

	"mini-planet/internal/config"
	"mini-planet/internal/game"
	"mini-planet/internal/input"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
)

// The viewer version. Set at build.
var version = "v0.1.0"

type options struct {
	Config      string `cli:""        env:"PLANET_CONFIG"       help:"Path of a YAML planet config. Defaults apply when empty."`
	LogLevel    string `cli:""        env:"PLANET_LOG_LEVEL"    help:"Log level (debug|info|warning|error). Overrides the config."`
	LogIndent   bool   `cli:""        env:"PLANET_LOG_INDENT"   help:"Indent logs."`
	MetricsAddr string `cli:""        env:"PLANET_METRICS_ADDR" help:"Listening address for Prometheus metrics. Overrides the config."`
	Async       bool   `cli:",hidden" env:"PLANET_ASYNC"        help:"Build tiles on worker goroutines."`
	Version     bool   `cli:""        env:"-"                   help:"Show version."`
	Help        bool   `cli:""        env:"-"                   help:"Show help."`
}

func init() {
	runtime.LockOSThread()
}

func main() {
	var opts options

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Flies a camera around a procedurally generated planet.").
		Options(&opts)
	cli.Load()

	if opts.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		logs.Fatal(err)
	}

	logs.SetLevel(logs.ParseLevel(cfg.Log.Level))
	logs.Encoder = json.Marshal
	if cfg.Log.Indent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}
	errors.Encoder = json.Marshal

	config.ApplyRender(cfg.Render)

	if cfg.Metrics.Addr != "" {
		serveMetrics(ctx, cfg.Metrics.Addr)
	}

	if err := glfw.Init(); err != nil {
		logs.Fatal(errors.New("initializing glfw failed").Wrap(err))
	}
	defer glfw.Terminate()

	window, err := game.SetupWindow(cfg.Render.Width, cfg.Render.Height, "mini-planet")
	if err != nil {
		logs.Fatal(errors.New("creating window failed").Wrap(err))
	}

	session, err := game.NewSession(window, cfg, opts.Config)
	if err != nil {
		logs.Fatal(errors.New("starting session failed").Wrap(err))
	}

	logs.WithTag("version", version).
		WithTag("config", opts.Config).
		Info("starting mini-planet")

	game.NewApp(window, input.NewInputManager(), session).Run(ctx)
}

func loadConfig(opts options) (config.Config, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return cfg, err
	}

	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.LogIndent {
		cfg.Log.Indent = true
	}
	if opts.MetricsAddr != "" {
		cfg.Metrics.Addr = opts.MetricsAddr
	}
	if opts.Async {
		cfg.LOD.AsyncBuild = true
	}
	return cfg, cfg.Validate()
}

func serveMetrics(ctx context.Context, addr string) {
	var mux http.ServeMux
	mux.Handle("/metrics", promhttp.Handler())
	s := &http.Server{Addr: addr, Handler: &mux}

	go func() {
		<-ctx.Done()
		if err := s.Shutdown(context.Background()); err != nil {
			logs.Warn(errors.New("shutting down the metrics server failed").
				WithTag("addr", addr).
				Wrap(err))
		}
	}()

	go func() {
		logs.WithTag("addr", addr).Info("starting metrics server")

		switch err := s.ListenAndServe(); err {
		case nil, http.ErrServerClosed:
			logs.WithTag("addr", addr).Info("stopping metrics server")

		default:
			logs.Warn(errors.New("metrics server stopped").
				WithTag("addr", addr).
				Wrap(err))
		}
	}()
}
