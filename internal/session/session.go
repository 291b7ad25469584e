// Package session holds the state of one labelling session: the map being
// labelled, its display raster, the draw canvas and brush preview, and the
// unsure flag. Pointer gestures arrive in display image coordinates and are
// forwarded to the canvas; Save aggregates the canvas onto the map's grid
// and hands the mask to the label store.
package session

import (
	"errors"
	"fmt"
	"image"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/banshee-data/teclab/internal/config"
	"github.com/banshee-data/teclab/internal/labels"
	"github.com/banshee-data/teclab/internal/labelstore"
	"github.com/banshee-data/teclab/internal/mapsource"
	"github.com/banshee-data/teclab/internal/monitoring"
	"github.com/banshee-data/teclab/internal/polar"
	"github.com/banshee-data/teclab/internal/render"
	"github.com/banshee-data/teclab/internal/stroke"
	"github.com/banshee-data/teclab/internal/timeutil"
)

// ErrNoMap is returned by operations that need an open map.
var ErrNoMap = errors.New("session: no map open")

var logf = monitoring.Prefixed("session")

// LabelStore is the persistence a session needs. *labelstore.Store
// satisfies it.
type LabelStore interface {
	SaveLabels(key mapsource.Key, mask labels.Mask, unsure bool) (*labelstore.Record, error)
	NextUnlabeled(keys []mapsource.Key, rng *rand.Rand) (mapsource.Key, error)
}

// Options are the session parameters.
type Options struct {
	BrushSize   int
	Unsure      bool
	Channel     stroke.Channel
	VMin, VMax  float64
	DisplaySize int
	DrawSize    int
	Rand        *rand.Rand
	Clock       timeutil.Clock
}

// OptionsFromConfig resolves a Config into session options.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	ch, err := stroke.ParseChannel(cfg.GetDrawChannel())
	if err != nil {
		return Options{}, err
	}
	return Options{
		BrushSize:   cfg.GetBrushSize(),
		Unsure:      cfg.GetUnsure(),
		Channel:     ch,
		VMin:        cfg.GetVMin(),
		VMax:        cfg.GetVMax(),
		DisplaySize: cfg.GetDisplaySize(),
		DrawSize:    cfg.GetDrawSize(),
	}, nil
}

// Session is safe for concurrent use. Gestures, saves and snapshots are
// serialised so a display goroutine can render between gestures.
type Session struct {
	mu    sync.Mutex
	src   mapsource.Source
	store LabelStore
	opts  Options
	scale *render.Scale
	rng   *rand.Rand
	clock timeutil.Clock

	current *mapsource.Map
	display *polar.Raster
	drawVP  polar.Viewport
	canvas  *stroke.Canvas
	hover   *stroke.HoverLayer
	agg     *labels.Aggregator
	opened  time.Time
	brush   int
	unsure  bool
}

// New creates a session with no map open.
func New(src mapsource.Source, store LabelStore, o Options) (*Session, error) {
	if src == nil || store == nil {
		return nil, errors.New("session: source and store are required")
	}
	if o.DisplaySize < 2 || o.DrawSize < 2 {
		return nil, fmt.Errorf("%w: display %d, draw %d", polar.ErrRasterSize, o.DisplaySize, o.DrawSize)
	}
	scale, err := render.NewScale(o.VMin, o.VMax)
	if err != nil {
		return nil, err
	}
	rng := o.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	clock := o.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Session{
		src:    src,
		store:  store,
		opts:   o,
		scale:  scale,
		rng:    rng,
		clock:  clock,
		brush:  o.BrushSize,
		unsure: o.Unsure,
	}, nil
}

// Next opens a random map that has no saved labels. It returns
// labelstore.ErrExhausted when every map is done.
func (s *Session) Next() (mapsource.Key, error) {
	keys, err := s.src.Keys()
	if err != nil {
		return mapsource.Key{}, fmt.Errorf("list maps: %w", err)
	}
	s.mu.Lock()
	k, err := s.store.NextUnlabeled(keys, s.rng)
	s.mu.Unlock()
	if err != nil {
		return mapsource.Key{}, err
	}
	return k, s.Open(k)
}

// Open loads the map for k and resets the canvas, hover layer and unsure
// flag.
func (s *Session) Open(k mapsource.Key) error {
	m, err := s.src.Load(k)
	if err != nil {
		return err
	}
	display, err := polar.Resample(m.Field, m.Grid, s.opts.DisplaySize, s.opts.DisplaySize)
	if err != nil {
		return fmt.Errorf("resample %s: %w", k, err)
	}
	agg, err := labels.NewAggregator(m.Grid, s.opts.DrawSize, s.opts.DrawSize)
	if err != nil {
		return err
	}
	canvas, err := stroke.NewCanvas(s.opts.DrawSize, s.opts.DrawSize, s.opts.Channel)
	if err != nil {
		return err
	}
	hover, err := stroke.NewHoverLayer(s.opts.DrawSize, s.opts.DrawSize)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	canvas.SetBrushSize(s.brush)
	hover.SetBrushSize(s.brush)
	s.current = m
	s.display = display
	s.drawVP = agg.Viewport()
	s.canvas = canvas
	s.hover = hover
	s.agg = agg
	s.unsure = s.opts.Unsure
	s.opened = s.clock.Now()
	logf("opened %s (%s), %d of %d display pixels without data",
		k, m.Label(), display.CountNaN(), s.opts.DisplaySize*s.opts.DisplaySize)
	return nil
}

// Current returns the open map, or nil.
func (s *Session) Current() *mapsource.Map {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Indicator is the status text for the open map: its timestamp, or the key
// when the map has none.
func (s *Session) Indicator() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ""
	}
	return s.current.Label()
}

// SetBrushSize changes the brush for the canvas and the preview. Even sizes
// are rounded up to the next odd size.
func (s *Session) SetBrushSize(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.brush = n
	if s.canvas != nil {
		s.canvas.SetBrushSize(n)
		s.hover.SetBrushSize(n)
	}
}

// BrushSize returns the effective brush size.
func (s *Session) BrushSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.canvas != nil {
		return s.canvas.BrushSize()
	}
	return s.brush
}

// SetUnsure sets the unsure flag stored with the next save.
func (s *Session) SetUnsure(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unsure = v
}

// Unsure returns the unsure flag.
func (s *Session) Unsure() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unsure
}

// DrawPoint converts a position on the display image (row 0 at the top) to
// canvas pixel coordinates.
func (s *Session) DrawPoint(p image.Point) (image.Point, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return image.Point{}, ErrNoMap
	}
	return s.drawPoint(p), nil
}

func (s *Session) drawPoint(p image.Point) image.Point {
	dvp := s.display.Viewport()
	x, y := dvp.PixelToCart(p.X, dvp.H-1-p.Y)
	col, row := s.drawVP.CartToPixel(x, y)
	return image.Pt(int(math.Round(col)), int(math.Round(row)))
}

// BeginStroke starts a gesture at display position p.
func (s *Session) BeginStroke(p image.Point, mode stroke.Mode) error {
	return s.gesture(func(c *stroke.Canvas) { c.BeginStroke(s.drawPoint(p), mode) })
}

// ContinueStroke extends the gesture to display position p.
func (s *Session) ContinueStroke(p image.Point) error {
	return s.gesture(func(c *stroke.Canvas) { c.ContinueStroke(s.drawPoint(p)) })
}

// EndStroke finishes the gesture in progress.
func (s *Session) EndStroke() error {
	return s.gesture(func(c *stroke.Canvas) { c.EndStroke() })
}

// Click stamps the brush once at display position p.
func (s *Session) Click(p image.Point, mode stroke.Mode) error {
	return s.gesture(func(c *stroke.Canvas) { c.Click(s.drawPoint(p), mode) })
}

// Clear erases every label on the canvas.
func (s *Session) Clear() error {
	return s.gesture(func(c *stroke.Canvas) { c.Reset() })
}

func (s *Session) gesture(fn func(c *stroke.Canvas)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.canvas == nil {
		return ErrNoMap
	}
	fn(s.canvas)
	return nil
}

// Hover moves the brush preview to display position p.
func (s *Session) Hover(p image.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hover == nil {
		return ErrNoMap
	}
	s.hover.Move(s.drawPoint(p))
	return nil
}

// Leave hides the brush preview.
func (s *Session) Leave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hover != nil {
		s.hover.Leave()
	}
}

// Frame renders the display raster with the labels and brush preview
// overlaid.
func (s *Session) Frame() (*image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, ErrNoMap
	}
	return render.Compose(s.scale.Image(s.display), s.canvas.Image(), s.canvas.Channel().Color(), s.hover.Image()), nil
}

// Display returns the resampled raster of the open map.
func (s *Session) Display() (*polar.Raster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, ErrNoMap
	}
	return s.display, nil
}

// Labels aggregates the canvas onto the open map's grid.
func (s *Session) Labels() (labels.Mask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.labels()
}

func (s *Session) labels() (labels.Mask, error) {
	if s.current == nil {
		return nil, ErrNoMap
	}
	return s.agg.Aggregate(s.canvas.Mask())
}

// Summary describes the labelled region of the open map.
func (s *Session) Summary() (labels.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.labels()
	if err != nil {
		return labels.Summary{}, err
	}
	return labels.Summarize(m, s.current.Grid, s.current.Field)
}

// Save aggregates the canvas and stores the mask with the unsure flag.
func (s *Session) Save() (*labelstore.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.labels()
	if err != nil {
		return nil, err
	}
	rec, err := s.store.SaveLabels(s.current.Key, m, s.unsure)
	if err != nil {
		return nil, fmt.Errorf("save %s: %w", s.current.Key, err)
	}
	logf("saved %s: %d cells, unsure=%v, labelled in %s",
		s.current.Key, m.Count(), s.unsure, s.clock.Since(s.opened).Round(time.Second))
	return rec, nil
}
