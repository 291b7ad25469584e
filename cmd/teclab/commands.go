package main

import (
	"errors"
	"flag"
	"fmt"
	"image/png"
	"io"
	"math/rand"
	"time"

	"github.com/banshee-data/teclab/internal/fsutil"
	"github.com/banshee-data/teclab/internal/labels"
	"github.com/banshee-data/teclab/internal/labelstore"
	"github.com/banshee-data/teclab/internal/mapsource"
	"github.com/banshee-data/teclab/internal/monitoring"
	"github.com/banshee-data/teclab/internal/polar"
	"github.com/banshee-data/teclab/internal/render"
	"github.com/banshee-data/teclab/internal/session"
)

func (a *app) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

func (a *app) handleRender(args []string) error {
	fs := a.newFlagSet("render")
	c := addCommonFlags(fs)
	mapKey := fs.String("map", "", "map key YYYY-MM/index (default: first map)")
	pngPath := fs.String("png", "", "write a heatmap PNG to this file")
	htmlPath := fs.String("html", "", "write an HTML report to this file")
	withLabels := fs.Bool("labels", true, "mark stored labels, if the database exists")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *pngPath == "" && *htmlPath == "" {
		fmt.Fprintln(a.out, "Error: render needs --png and/or --html")
		fs.Usage()
		return errUsage
	}

	cfg, err := c.resolve(fs)
	if err != nil {
		return err
	}
	src, err := a.openSource(c, cfg)
	if err != nil {
		return err
	}
	key, err := pickKey(src, *mapKey)
	if err != nil {
		return err
	}
	m, err := src.Load(key)
	if err != nil {
		return err
	}

	var mask labels.Mask
	if *withLabels && fileExists(cfg.GetDBPath()) {
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()
		rec, err := store.LoadLabels(key)
		switch {
		case errors.Is(err, labelstore.ErrNotFound):
		case err != nil:
			return err
		default:
			mask = rec.Mask
		}
	}

	scale, err := render.NewScale(cfg.GetVMin(), cfg.GetVMax())
	if err != nil {
		return err
	}
	if *pngPath != "" {
		size := cfg.GetDisplaySize()
		raster, err := polar.Resample(m.Field, m.Grid, size, size)
		if err != nil {
			return fmt.Errorf("resample %s: %w", key, err)
		}
		err = writeFile(a.fs, *pngPath, func(w io.Writer) error {
			return scale.WriteHeatmapPNG(w, raster, render.HeatmapOptions{Title: m.Label(), Labels: mask, Grid: m.Grid})
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "wrote %s\n", *pngPath)
	}
	if *htmlPath != "" {
		rep := render.Report{
			Title:    m.Label(),
			Subtitle: key.String(),
			Grid:     m.Grid,
			Field:    m.Field,
			Labels:   mask,
			VMin:     cfg.GetVMin(),
			VMax:     cfg.GetVMax(),
		}
		if err := writeFile(a.fs, *htmlPath, rep.WriteHTML); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "wrote %s\n", *htmlPath)
	}
	return nil
}

func (a *app) handleLabel(args []string) error {
	fs := a.newFlagSet("label")
	c := addCommonFlags(fs)
	mapKey := fs.String("map", "", "map key YYYY-MM/index (default: the script's map, else the next unlabelled map)")
	scriptPath := fs.String("script", "", "JSON gesture script (required)")
	framePath := fs.String("frame", "", "write the labelled display frame as PNG")
	dryRun := fs.Bool("dry-run", false, "aggregate and report without saving")
	seed := fs.Int64("seed", 0, "random seed for picking the next map (0: time based)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *scriptPath == "" {
		fmt.Fprintln(a.out, "Error: --script is required")
		fs.Usage()
		return errUsage
	}

	sc, err := a.readScript(*scriptPath)
	if err != nil {
		return err
	}
	cfg, err := c.resolve(fs)
	if err != nil {
		return err
	}
	src, err := a.openSource(c, cfg)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	opts, err := session.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	opts.Rand = newRand(*seed)
	s, err := session.New(src, store, opts)
	if err != nil {
		return err
	}

	var key mapsource.Key
	switch {
	case *mapKey != "" || sc.Map != "":
		ks := *mapKey
		if ks == "" {
			ks = sc.Map
		}
		if key, err = mapsource.ParseKey(ks); err != nil {
			return err
		}
		err = s.Open(key)
	default:
		key, err = s.Next()
	}
	if err != nil {
		return err
	}
	if err := s.Replay(sc); err != nil {
		return err
	}

	sum, err := s.Summary()
	if err != nil {
		return err
	}
	if *dryRun {
		fmt.Fprintf(a.out, "%s (%s): %d of %d cells labelled, unsure=%v (not saved)\n",
			key, s.Indicator(), labelledCells(sum), sum.Cells, s.Unsure())
	} else {
		rec, err := s.Save()
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "saved %s (%s) as %s: %d of %d cells labelled, unsure=%v\n",
			key, s.Indicator(), rec.LabelID, rec.Mask.Count(), sum.Cells, rec.Unsure)
	}
	printWalls(a.out, sum)

	if *framePath != "" {
		img, err := s.Frame()
		if err != nil {
			return err
		}
		if err := writeFile(a.fs, *framePath, func(w io.Writer) error { return png.Encode(w, img) }); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "wrote %s\n", *framePath)
	}
	return nil
}

func (a *app) handleStatus(args []string) error {
	fs := a.newFlagSet("status")
	c := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	cfg, err := c.resolve(fs)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	done, err := store.DoneList()
	if err != nil {
		return err
	}
	unsure, err := store.UnsureList()
	if err != nil {
		return err
	}

	if src, err := a.openSource(c, cfg); err == nil {
		if keys, err := src.Keys(); err == nil {
			fmt.Fprintf(a.out, "maps: %d, remaining: %d\n", len(keys), len(keys)-countIn(done, keys))
		}
	} else {
		monitoring.Logf("status: no map source: %v", err)
	}
	fmt.Fprintf(a.out, "labelled: %d\n", len(done))
	for _, k := range done {
		fmt.Fprintf(a.out, "  %s\n", k)
	}
	fmt.Fprintf(a.out, "unsure: %d\n", len(unsure))
	for _, k := range unsure {
		fmt.Fprintf(a.out, "  %s\n", k)
	}
	return nil
}

func (a *app) handleNext(args []string) error {
	fs := a.newFlagSet("next")
	c := addCommonFlags(fs)
	seed := fs.Int64("seed", 0, "random seed (0: time based)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	cfg, err := c.resolve(fs)
	if err != nil {
		return err
	}
	src, err := a.openSource(c, cfg)
	if err != nil {
		return err
	}
	keys, err := src.Keys()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	k, err := store.NextUnlabeled(keys, newRand(*seed))
	if errors.Is(err, labelstore.ErrExhausted) {
		fmt.Fprintln(a.out, "all maps are labelled")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, k)
	return nil
}

func (a *app) readScript(path string) (*session.Script, error) {
	f, err := a.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open script: %w", err)
	}
	defer f.Close()
	return session.ReadScript(f)
}

// writeFile creates path and fills it with fn, reporting the first error.
func writeFile(fsys fsutil.FileSystem, path string, fn func(io.Writer) error) (err error) {
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return fn(f)
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

func labelledCells(s labels.Summary) int {
	n := 0
	for _, c := range s.Columns {
		n += c.Labelled
	}
	return n
}

func printWalls(w io.Writer, s labels.Summary) {
	for _, c := range s.Columns {
		if c.Labelled == 0 {
			continue
		}
		fmt.Fprintf(w, "  column %3d: rows %d..%d, trough row %d (%.3g)\n",
			c.Column, c.Poleward, c.Equatorward, c.Trough, c.TroughValue)
	}
}

func countIn(set, keys []mapsource.Key) int {
	in := make(map[mapsource.Key]struct{}, len(set))
	for _, k := range set {
		in[k] = struct{}{}
	}
	n := 0
	for _, k := range keys {
		if _, ok := in[k]; ok {
			n++
		}
	}
	return n
}
