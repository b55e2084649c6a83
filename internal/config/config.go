package config

import (
	_ "embed"
	"os"
	"strings"
	"sync"

	"mini-planet/internal/noise"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/segmentio/encoding/json"
	"gopkg.in/yaml.v3"
)

// Config is the immutable description of a planet and how it is rendered.
// Changes go through Load or a copy handed to the terrain orchestrator.
type Config struct {
	Planet  Planet              `yaml:"planet" json:"planet"`
	LOD     LOD                 `yaml:"lod" json:"lod"`
	Terrain noise.FractalParams `yaml:"terrain" json:"terrain"`
	Biome   noise.FractalParams `yaml:"biome" json:"biome"`
	Render  Render              `yaml:"render" json:"render"`
	Log     Log                 `yaml:"log" json:"log"`
	Metrics Metrics             `yaml:"metrics" json:"metrics"`
}

type Planet struct {
	Radius float64 `yaml:"radius" json:"radius"`
}

// LOD controls subdivision and tile building.
type LOD struct {
	MinNodeSize float64 `yaml:"min_node_size" json:"min_node_size"`
	// Resolution is the number of quads along a tile edge.
	Resolution int  `yaml:"resolution" json:"resolution"`
	PoolTiles  bool `yaml:"pool_tiles" json:"pool_tiles"`
	AsyncBuild bool `yaml:"async_build" json:"async_build"`
	Workers    int  `yaml:"workers" json:"workers"`
	QueueSize  int  `yaml:"queue_size" json:"queue_size"`
}

type Render struct {
	Width     int  `yaml:"width" json:"width"`
	Height    int  `yaml:"height" json:"height"`
	FPSLimit  int  `yaml:"fps_limit" json:"fps_limit"`
	Wireframe bool `yaml:"wireframe" json:"wireframe"`
}

type Log struct {
	Level  string `yaml:"level" json:"level"`
	Indent bool   `yaml:"indent" json:"indent"`
}

type Metrics struct {
	// Addr is the listen address of the /metrics endpoint. Empty disables it.
	Addr string `yaml:"addr" json:"addr"`
}

// Default returns the reference planet: radius 4000, 500 unit leaves and
// 64 quads per tile edge.
func Default() Config {
	return Config{
		Planet: Planet{Radius: 4000},
		LOD: LOD{
			MinNodeSize: 500,
			Resolution:  64,
			PoolTiles:   true,
			AsyncBuild:  false,
			Workers:     4,
			QueueSize:   64,
		},
		Terrain: noise.FractalParams{
			Kind:           noise.KindPerlin,
			Octaves:        13,
			Persistence:    0.707,
			Lacunarity:     1.8,
			Exponentiation: 4.5,
			Scale:          1100,
			Height:         300,
			Seed:           1,
		},
		Biome: noise.FractalParams{
			Kind:           noise.KindPerlin,
			Octaves:        2,
			Persistence:    0.5,
			Lacunarity:     2,
			Exponentiation: 1,
			Scale:          2048,
			Height:         1,
			Seed:           2,
		},
		Render: Render{
			Width:    1280,
			Height:   720,
			FPSLimit: 120,
		},
		Log: Log{Level: "info"},
	}
}

// Load reads a YAML file over the defaults and validates the result. An
// empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.New("reading config file failed").
			WithTag("path", path).
			Wrap(err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, errors.New("decoding config file failed").
			WithTag("path", path).
			Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.New("invalid config file").
			WithTag("path", path).
			Wrap(err)
	}
	return cfg, nil
}

//go:embed config.schema.json
var schemaSource string

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString("config.schema.json", schemaSource)
	})
	return schema, schemaErr
}

// Validate checks the config against the embedded JSON schema.
func (c Config) Validate() error {
	s, err := compiledSchema()
	if err != nil {
		return errors.New("compiling config schema failed").Wrap(err)
	}

	b, err := json.Marshal(c)
	if err != nil {
		return errors.New("encoding config failed").Wrap(err)
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return errors.New("decoding config failed").Wrap(err)
	}
	if err := s.Validate(doc); err != nil {
		return errors.New("config does not match schema").Wrap(err)
	}
	return nil
}

// TerrainDiffers reports whether two configs produce different terrain geometry.
func (c Config) TerrainDiffers(o Config) bool {
	return c.Planet != o.Planet ||
		c.LOD.MinNodeSize != o.LOD.MinNodeSize ||
		c.LOD.Resolution != o.LOD.Resolution ||
		c.Terrain != o.Terrain ||
		c.Biome != o.Biome
}
