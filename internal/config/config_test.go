package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()

	assert.Equal(t, 5, cfg.GetBrushSize())
	assert.False(t, cfg.GetUnsure())
	assert.Equal(t, 0.0, cfg.GetVMin())
	assert.Equal(t, 20.0, cfg.GetVMax())
	assert.Equal(t, 500, cfg.GetDisplaySize())
	assert.Equal(t, 1000, cfg.GetDrawSize())
	assert.Equal(t, 1e-6, cfg.GetStepTolerance())
	assert.Equal(t, "teclab.db", cfg.GetDBPath())
	assert.Equal(t, "r", cfg.GetDrawChannel())
}

func TestEmptyConfigDefaultsMatchFile(t *testing.T) {
	file := MustLoadDefaultConfig()
	empty := EmptyConfig()

	assert.Equal(t, file.GetBrushSize(), empty.GetBrushSize())
	assert.Equal(t, file.GetVMin(), empty.GetVMin())
	assert.Equal(t, file.GetVMax(), empty.GetVMax())
	assert.Equal(t, file.GetDisplaySize(), empty.GetDisplaySize())
	assert.Equal(t, file.GetDrawSize(), empty.GetDrawSize())
	assert.Equal(t, file.GetStepTolerance(), empty.GetStepTolerance())
	assert.Equal(t, file.GetDataDir(), empty.GetDataDir())
	assert.Equal(t, file.GetDBPath(), empty.GetDBPath())
}

func TestLoadConfig_Partial(t *testing.T) {
	path := writeConfig(t, "partial.json", `{"brush_size": 9, "vmax": 12.5}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.GetBrushSize())
	assert.Equal(t, 12.5, cfg.GetVMax())
	assert.Nil(t, cfg.VMin)
	assert.Equal(t, 0.0, cfg.GetVMin())
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{"wrong extension", "cfg.yaml", `{}`, ".json extension"},
		{"bad json", "cfg.json", `{"brush_size":`, "parse config"},
		{"brush too big", "cfg.json", `{"brush_size": 101}`, "brush_size"},
		{"inverted scale", "cfg.json", `{"vmin": 5, "vmax": 5}`, "vmin"},
		{"tiny display", "cfg.json", `{"display_size": 1}`, "display_size"},
		{"tiny draw", "cfg.json", `{"draw_size": 0}`, "draw_size"},
		{"zero tolerance", "cfg.json", `{"step_tolerance": 0}`, "step_tolerance"},
		{"channel", "cfg.json", `{"draw_channel": "alpha"}`, "draw_channel"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.file, tt.body))
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.wantErr), "error %q should mention %q", err, tt.wantErr)
		})
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadConfig_TooLarge(t *testing.T) {
	body := `{"data_dir": "` + strings.Repeat("x", 1<<20) + `"}`
	_, err := LoadConfig(writeConfig(t, "big.json", body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestMerge(t *testing.T) {
	base := &Config{BrushSize: ptrInt(5), VMax: ptrFloat64(20), DBPath: ptrString("a.db")}
	over := &Config{BrushSize: ptrInt(7), Unsure: ptrBool(true)}

	got := base.Merge(over)
	assert.Equal(t, 7, got.GetBrushSize())
	assert.True(t, got.GetUnsure())
	assert.Equal(t, 20.0, got.GetVMax())
	assert.Equal(t, "a.db", got.GetDBPath())

	// base is untouched
	assert.Equal(t, 5, base.GetBrushSize())
	assert.Nil(t, base.Unsure)

	assert.Equal(t, base.GetBrushSize(), base.Merge(nil).GetBrushSize())
}
