package main

import (
	"context"
	"os"
	"strconv"
	"strings"
	"syscall"

	"mini-planet/internal/config"
	"mini-planet/internal/meshing"
	"mini-planet/internal/preview"
	"mini-planet/internal/terrain"
	"mini-planet/internal/tile"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/segmentio/encoding/json"
	"github.com/xlab/closer"
)

type options struct {
	Config    string `cli:"" env:"PLANET_CONFIG"    help:"Path of a YAML planet config. Defaults apply when empty."`
	Viewpoint string `cli:"" env:"-"                help:"Comma separated x,y,z of the viewpoint."`
	Out       string `cli:"" env:"-"                help:"PNG file receiving the leaf map."`
	Stats     string `cli:"" env:"-"                help:"JSON file receiving the summary. Stdout when empty."`
	Cell      int    `cli:"" env:"-"                help:"Pixel size of one cube face."`
	MaxTicks  int    `cli:"" env:"-"                help:"Ticks allowed to converge."`
	Async     bool   `cli:"" env:"PLANET_ASYNC"     help:"Build tiles on worker goroutines."`
	LogLevel  string `cli:"" env:"PLANET_LOG_LEVEL" help:"Log level (debug|info|warning|error)."`
	Help      bool   `cli:"" env:"-"                help:"Show help."`
}

func main() {
	opts := options{
		Viewpoint: "0,0,4010",
		Out:       "planet.png",
		Cell:      256,
		MaxTicks:  1000000,
		LogLevel:  logs.InfoLevel.String(),
	}

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	closer.Bind(cancel)

	cli.Register().
		Help("Converges the terrain around a viewpoint and writes a leaf map and summary.").
		Options(&opts)
	cli.Load()

	logs.SetLevel(logs.ParseLevel(opts.LogLevel))
	logs.Encoder = json.Marshal
	errors.Encoder = json.Marshal

	defer closer.Close()

	if err := run(ctx, opts); err != nil {
		closer.Fatalln(err)
	}
}

func run(ctx context.Context, opts options) error {
	vp, err := parseViewpoint(opts.Viewpoint)
	if err != nil {
		return err
	}
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return err
	}

	var workers *meshing.WorkerPool
	if opts.Async || cfg.LOD.AsyncBuild {
		workers = meshing.NewWorkerPool(cfg.LOD.Workers, cfg.LOD.QueueSize)
		closer.Bind(workers.Shutdown)
	}

	o := terrain.NewOrchestrator(cfg, tile.NewFactory(workers))
	ticks, err := preview.Converge(ctx, o, vp, opts.MaxTicks)
	if err != nil {
		return err
	}
	logs.WithTag("ticks", ticks).
		WithTag("leaves", len(o.Leaves())).
		Info("terrain converged")

	samplers := terrain.NewSamplers(cfg)
	img, err := preview.Render(o.Leaves(), cfg.Planet.Radius, preview.Options{
		Cell:     opts.Cell,
		Samplers: &samplers,
	})
	if err != nil {
		return err
	}

	f, err := os.Create(opts.Out)
	if err != nil {
		return errors.New("creating preview file failed").WithTag("path", opts.Out).Wrap(err)
	}
	defer f.Close()
	if err := preview.WritePNG(f, img); err != nil {
		return err
	}

	b, err := json.MarshalIndent(preview.NewReport(o, ticks), "", "  ")
	if err != nil {
		return errors.New("encoding report failed").Wrap(err)
	}
	b = append(b, '\n')
	if opts.Stats == "" {
		_, err = os.Stdout.Write(b)
		return err
	}
	if err := os.WriteFile(opts.Stats, b, 0o644); err != nil {
		return errors.New("writing report failed").WithTag("path", opts.Stats).Wrap(err)
	}
	return nil
}

func parseViewpoint(s string) (mgl64.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return mgl64.Vec3{}, errors.New("viewpoint needs three components").WithTag("viewpoint", s)
	}
	var vp mgl64.Vec3
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return vp, errors.New("invalid viewpoint component").WithTag("viewpoint", s).Wrap(err)
		}
		vp[i] = v
	}
	return vp, nil
}
