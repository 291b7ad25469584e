package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/banshee-data/teclab/internal/config"
	"github.com/banshee-data/teclab/internal/labelstore"
	"github.com/banshee-data/teclab/internal/mapsource"
	"github.com/banshee-data/teclab/internal/polar"
)

// Demo source shape: one cell per degree of colatitude out to 40°, 15 min
// of local time per column.
const (
	demoRows  = 41
	demoCols  = 96
	demoCount = 12
)

// commonFlags are shared by every subcommand that touches maps or labels.
type commonFlags struct {
	config *string
	data   *string
	db     *string
	demo   *bool

	brush  *int
	vmin   *float64
	vmax   *float64
	unsure *bool
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	return &commonFlags{
		config: fs.String("config", "", "JSON config file"),
		data:   fs.String("data", "", "map bundle directory (overrides data_dir)"),
		db:     fs.String("db", "", "label database (overrides db_path)"),
		demo:   fs.Bool("demo", false, "use synthetic demo maps"),
		brush:  fs.Int("brush", 0, "brush size in draw pixels (overrides brush_size)"),
		vmin:   fs.Float64("vmin", 0, "colour scale minimum (overrides vmin)"),
		vmax:   fs.Float64("vmax", 0, "colour scale maximum (overrides vmax)"),
		unsure: fs.Bool("unsure", false, "mark saved labels unsure (overrides unsure)"),
	}
}

// resolve loads the config file and applies the flags that were set.
func (c *commonFlags) resolve(fs *flag.FlagSet) (*config.Config, error) {
	cfg := config.EmptyConfig()
	path := *c.config
	if path == "" && fileExists(config.DefaultConfigPath) {
		path = config.DefaultConfigPath
	}
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	over := config.EmptyConfig()
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "data":
			over.DataDir = c.data
		case "db":
			over.DBPath = c.db
		case "brush":
			over.BrushSize = c.brush
		case "vmin":
			over.VMin = c.vmin
		case "vmax":
			over.VMax = c.vmax
		case "unsure":
			over.Unsure = c.unsure
		}
	})
	cfg = cfg.Merge(over)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (a *app) openSource(c *commonFlags, cfg *config.Config) (mapsource.Source, error) {
	if *c.demo {
		return mapsource.NewDemo(demoRows, demoCols, demoCount)
	}
	dir := cfg.GetDataDir()
	if !a.fs.Exists(dir) {
		return nil, fmt.Errorf("data directory %q does not exist (use --demo for synthetic maps)", dir)
	}
	return mapsource.NewDirSource(a.fs, dir, polar.WithStepTolerance(cfg.GetStepTolerance())), nil
}

func openStore(cfg *config.Config) (*labelstore.Store, error) {
	return labelstore.Open(cfg.GetDBPath())
}

// pickKey parses s, or returns the first available key when s is empty.
func pickKey(src mapsource.Source, s string) (mapsource.Key, error) {
	if s != "" {
		return mapsource.ParseKey(s)
	}
	keys, err := src.Keys()
	if err != nil {
		return mapsource.Key{}, err
	}
	if len(keys) == 0 {
		return mapsource.Key{}, fmt.Errorf("%w: source has no maps", mapsource.ErrNotFound)
	}
	return keys[0], nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
