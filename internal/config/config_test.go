package config

import (
	"os"
	"path/filepath"
	"testing"

	"mini-planet/internal/noise"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "planet.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 4000.0, cfg.Planet.Radius)
	require.Equal(t, 500.0, cfg.LOD.MinNodeSize)
	require.Equal(t, 64, cfg.LOD.Resolution)
	require.True(t, cfg.LOD.PoolTiles)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadRepositoryConfig(t *testing.T) {
	cfg, err := Load("../../configs/planet.yaml")
	require.NoError(t, err)
	require.True(t, cfg.LOD.AsyncBuild)
	require.Equal(t, noise.KindPerlin, cfg.Terrain.Kind)
	require.Equal(t, 13, cfg.Terrain.Octaves)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	p := writeFile(t, `
planet:
  radius: 6000
lod:
  resolution: 16
terrain:
  seed: 42
`)
	cfg, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, 6000.0, cfg.Planet.Radius)
	require.Equal(t, 16, cfg.LOD.Resolution)
	require.Equal(t, int64(42), cfg.Terrain.Seed)

	// Untouched fields keep their defaults.
	require.Equal(t, 500.0, cfg.LOD.MinNodeSize)
	require.Equal(t, 13, cfg.Terrain.Octaves)
	require.Equal(t, Default().Biome, cfg.Biome)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "negative radius", body: "planet:\n  radius: -1\n"},
		{name: "zero resolution", body: "lod:\n  resolution: 0\n"},
		{name: "unknown noise", body: "terrain:\n  kind: simplex\n"},
		{name: "zero octaves", body: "biome:\n  octaves: 0\n"},
		{name: "zero scale", body: "terrain:\n  scale: 0\n"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Load(writeFile(t, test.body))
			require.Error(t, err)
		})
	}
}

func TestLoadReportsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadReportsBadYAML(t *testing.T) {
	_, err := Load(writeFile(t, "planet: [radius\n"))
	require.Error(t, err)
}

func TestTerrainDiffers(t *testing.T) {
	a := Default()
	b := Default()
	require.False(t, a.TerrainDiffers(b))

	b.Render.FPSLimit = 30
	b.Log.Level = "debug"
	require.False(t, a.TerrainDiffers(b))

	b.Terrain.Seed = 7
	require.True(t, a.TerrainDiffers(b))
}

func TestRuntimeSettings(t *testing.T) {
	defer ApplyRender(Default().Render)

	SetFPSLimit(-5)
	require.Zero(t, GetFPSLimit())
	SetFPSLimit(5000)
	require.Equal(t, 1000, GetFPSLimit())

	ApplyRender(Render{FPSLimit: 60, Wireframe: true})
	require.Equal(t, 60, GetFPSLimit())
	require.True(t, GetWireframe())
	require.False(t, ToggleWireframe())

	before := GetFreezeLOD()
	require.Equal(t, !before, ToggleFreezeLOD())
	ToggleFreezeLOD()
}
