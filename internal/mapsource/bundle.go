package mapsource

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/teclab/internal/fsutil"
	"github.com/banshee-data/teclab/internal/polar"
)

// BundlePattern is the file name of a monthly bundle, formatted with year
// and month.
const BundlePattern = "%04d_%02d_tec.json"

// Bundle is the on-disk form of a month of maps. TEC rows follow the mlat
// axis and columns the mlt axis; null marks a missing sample.
type Bundle struct {
	Year  int         `json:"year"`
	Month int         `json:"month"`
	MLT   []float64   `json:"mlt"`
	MLat  []float64   `json:"mlat"`
	Maps  []BundleMap `json:"maps"`
}

// BundleMap is a single map inside a Bundle.
type BundleMap struct {
	Time time.Time    `json:"time"`
	TEC  [][]*float64 `json:"tec"`
}

// BundleName returns the bundle file name for a month.
func BundleName(year, month int) string {
	return fmt.Sprintf(BundlePattern, year, month)
}

// ReadBundle decodes a bundle from path. Paths ending in .gz are
// decompressed.
func ReadBundle(fsys fsutil.FileSystem, path string) (*Bundle, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bundle: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("gzip reader for %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	var b Bundle
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return nil, fmt.Errorf("decode bundle %s: %w", path, err)
	}
	return &b, nil
}

// WriteBundle encodes b to path, gzip compressed when path ends in .gz.
func WriteBundle(fsys fsutil.FileSystem, path string, b *Bundle) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create bundle dir: %w", err)
		}
	}
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create bundle: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	var w io.Writer = f
	if strings.HasSuffix(path, ".gz") {
		gz := gzip.NewWriter(f)
		defer func() {
			if cerr := gz.Close(); err == nil {
				err = cerr
			}
		}()
		w = gz
	}
	if err := json.NewEncoder(w).Encode(b); err != nil {
		return fmt.Errorf("encode bundle: %w", err)
	}
	return nil
}

// NewBundle packs maps sharing one grid into a bundle. mlt and mlat are the
// axes the grid was built from; fields must be in grid order and flipped
// reports whether GridFromMagnetic flipped the radial axis.
func NewBundle(year, month int, mlt, mlat []float64, flipped bool, maps []*Map) *Bundle {
	b := &Bundle{Year: year, Month: month, MLT: mlt, MLat: mlat}
	for _, m := range maps {
		field := mat.DenseCopyOf(m.Field)
		if flipped {
			FlipRows(field)
		}
		rows, cols := field.Dims()
		tec := make([][]*float64, rows)
		for i := range rows {
			tec[i] = make([]*float64, cols)
			for j := range cols {
				if v := field.At(i, j); !math.IsNaN(v) {
					tec[i][j] = &v
				}
			}
		}
		b.Maps = append(b.Maps, BundleMap{Time: m.Time, TEC: tec})
	}
	return b
}

// Decode converts the bundle to maps in grid order, all sharing one grid.
func (b *Bundle) Decode(opts ...polar.GridOption) ([]*Map, error) {
	g, flipped, err := GridFromMagnetic(b.MLT, b.MLat, opts...)
	if err != nil {
		return nil, err
	}
	rows, cols := g.Dims()
	out := make([]*Map, len(b.Maps))
	for idx, bm := range b.Maps {
		if len(bm.TEC) != rows {
			return nil, fmt.Errorf("%w: map %d has %d rows, grid has %d", polar.ErrShapeMismatch, idx, len(bm.TEC), rows)
		}
		field := mat.NewDense(rows, cols, nil)
		for i, line := range bm.TEC {
			if len(line) != cols {
				return nil, fmt.Errorf("%w: map %d row %d has %d values, grid has %d", polar.ErrShapeMismatch, idx, i, len(line), cols)
			}
			for j, v := range line {
				if v == nil {
					field.Set(i, j, math.NaN())
				} else {
					field.Set(i, j, *v)
				}
			}
		}
		if flipped {
			FlipRows(field)
		}
		out[idx] = &Map{
			Key:   Key{Year: b.Year, Month: b.Month, Index: idx},
			Time:  bm.Time,
			Grid:  g,
			Field: field,
		}
	}
	return out, nil
}

// DirSource serves maps from the bundles in a directory. Decoded bundles are
// cached per month.
type DirSource struct {
	fs   fsutil.FileSystem
	dir  string
	opts []polar.GridOption

	mu    sync.Mutex
	cache map[[2]int][]*Map
}

// NewDirSource returns a source reading bundles from dir.
func NewDirSource(fsys fsutil.FileSystem, dir string, opts ...polar.GridOption) *DirSource {
	return &DirSource{fs: fsys, dir: dir, opts: opts, cache: make(map[[2]int][]*Map)}
}

// Keys lists every map of every bundle in the directory.
func (s *DirSource) Keys() ([]Key, error) {
	paths, err := s.fs.Glob(filepath.Join(s.dir, "*_tec.json*"))
	if err != nil {
		return nil, fmt.Errorf("list bundles: %w", err)
	}
	var keys []Key
	for _, p := range paths {
		var year, month int
		if _, err := fmt.Sscanf(filepath.Base(p), "%4d_%2d_tec.json", &year, &month); err != nil {
			continue
		}
		maps, err := s.month(year, month)
		if err != nil {
			return nil, err
		}
		for _, m := range maps {
			keys = append(keys, m.Key)
		}
	}
	SortKeys(keys)
	return keys, nil
}

// Load returns the map for k.
func (s *DirSource) Load(k Key) (*Map, error) {
	maps, err := s.month(k.Year, k.Month)
	if err != nil {
		return nil, err
	}
	if k.Index < 0 || k.Index >= len(maps) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, k)
	}
	return maps[k.Index], nil
}

func (s *DirSource) month(year, month int) ([]*Map, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ck := [2]int{year, month}
	if maps, ok := s.cache[ck]; ok {
		return maps, nil
	}
	path := filepath.Join(s.dir, BundleName(year, month))
	if !s.fs.Exists(path) {
		path += ".gz"
		if !s.fs.Exists(path) {
			return nil, fmt.Errorf("%w: no bundle for %04d-%02d", ErrNotFound, year, month)
		}
	}
	b, err := ReadBundle(s.fs, path)
	if err != nil {
		return nil, err
	}
	if b.Year != year || b.Month != month {
		return nil, fmt.Errorf("bundle %s holds %04d-%02d", path, b.Year, b.Month)
	}
	maps, err := b.Decode(s.opts...)
	if err != nil {
		return nil, fmt.Errorf("bundle %s: %w", path, err)
	}
	s.cache[ck] = maps
	return maps, nil
}
