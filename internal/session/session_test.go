package session

import (
	"fmt"
	"image"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/teclab/internal/config"
	"github.com/banshee-data/teclab/internal/labels"
	"github.com/banshee-data/teclab/internal/labelstore"
	"github.com/banshee-data/teclab/internal/mapsource"
	"github.com/banshee-data/teclab/internal/monitoring"
	"github.com/banshee-data/teclab/internal/stroke"
	"github.com/banshee-data/teclab/internal/timeutil"
)

// memStore is an in-memory LabelStore.
type memStore struct {
	saved map[mapsource.Key]*labelstore.Record
}

func newMemStore() *memStore {
	return &memStore{saved: make(map[mapsource.Key]*labelstore.Record)}
}

func (m *memStore) SaveLabels(key mapsource.Key, mask labels.Mask, unsure bool) (*labelstore.Record, error) {
	rec := &labelstore.Record{LabelID: key.String(), Key: key, Mask: mask, Unsure: unsure}
	m.saved[key] = rec
	return rec, nil
}

func (m *memStore) NextUnlabeled(keys []mapsource.Key, rng *rand.Rand) (mapsource.Key, error) {
	var open []mapsource.Key
	for _, k := range keys {
		if _, ok := m.saved[k]; !ok {
			open = append(open, k)
		}
	}
	if len(open) == 0 {
		return mapsource.Key{}, labelstore.ErrExhausted
	}
	return open[rng.Intn(len(open))], nil
}

// newTestSession opens a session over an 11x16 demo grid (radii 0..10,
// dθ = π/8) with a 101 px display and a 201 px draw surface.
func newTestSession(t *testing.T, count int) (*Session, *memStore) {
	t.Helper()
	monitoring.SetLogger(t.Logf)
	t.Cleanup(func() { monitoring.SetLogger(nil) })

	src, err := mapsource.NewDemo(11, 16, count)
	require.NoError(t, err)
	store := newMemStore()
	s, err := New(src, store, Options{
		BrushSize:   41,
		Channel:     stroke.Red,
		VMin:        -100,
		VMax:        100,
		DisplaySize: 101,
		DrawSize:    201,
		Rand:        rand.New(rand.NewSource(1)),
	})
	require.NoError(t, err)
	return s, store
}

func TestNew_Validation(t *testing.T) {
	src, err := mapsource.NewDemo(4, 8, 1)
	require.NoError(t, err)

	_, err = New(nil, newMemStore(), Options{DisplaySize: 10, DrawSize: 10, VMax: 1})
	assert.Error(t, err)
	_, err = New(src, newMemStore(), Options{DisplaySize: 1, DrawSize: 10, VMax: 1})
	assert.Error(t, err)
	_, err = New(src, newMemStore(), Options{DisplaySize: 10, DrawSize: 10, VMin: 1, VMax: 1})
	assert.Error(t, err)
}

func TestOptionsFromConfig(t *testing.T) {
	o, err := OptionsFromConfig(config.MustLoadDefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 5, o.BrushSize)
	assert.Equal(t, stroke.Red, o.Channel)
	assert.Equal(t, 500, o.DisplaySize)
	assert.Equal(t, 1000, o.DrawSize)
	assert.Less(t, o.VMin, o.VMax)
}

func TestSession_NoMap(t *testing.T) {
	s, _ := newTestSession(t, 1)

	assert.ErrorIs(t, s.Click(image.Pt(1, 1), stroke.Paint), ErrNoMap)
	assert.ErrorIs(t, s.Hover(image.Pt(1, 1)), ErrNoMap)
	_, err := s.Labels()
	assert.ErrorIs(t, err, ErrNoMap)
	_, err = s.Save()
	assert.ErrorIs(t, err, ErrNoMap)
	_, err = s.Frame()
	assert.ErrorIs(t, err, ErrNoMap)
	assert.Empty(t, s.Indicator())
	assert.Nil(t, s.Current())
	s.Leave()
}

func TestSession_DrawPoint(t *testing.T) {
	s, _ := newTestSession(t, 1)
	require.NoError(t, s.Open(mapsource.Key{Year: 2000, Month: 1, Index: 0}))

	p, err := s.DrawPoint(image.Pt(50, 50))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(100, 100), p)

	// top right of the display is maximum x and y
	p, err = s.DrawPoint(image.Pt(100, 0))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(200, 200), p)

	p, err = s.DrawPoint(image.Pt(0, 100))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(0, 0), p)
}

func TestSession_LabelAndSave(t *testing.T) {
	s, store := newTestSession(t, 3)
	key := mapsource.Key{Year: 2000, Month: 1, Index: 1}
	require.NoError(t, s.Open(key))
	assert.Equal(t, "2000-01-01 00:05:00", s.Indicator())

	// (75, 50) on the display is x=5, y=0: cell (5, 0)
	require.NoError(t, s.Click(image.Pt(75, 50), stroke.Paint))
	m, err := s.Labels()
	require.NoError(t, err)
	assert.True(t, m[5][0])
	assert.False(t, m[5][8], "opposite side of the pole stays clear")

	s.SetUnsure(true)
	rec, err := s.Save()
	require.NoError(t, err)
	assert.Equal(t, key, rec.Key)
	assert.True(t, rec.Unsure)
	assert.Equal(t, m, store.saved[key].Mask)

	sum, err := s.Summary()
	require.NoError(t, err)
	n := 0
	for _, c := range sum.Columns {
		n += c.Labelled
	}
	assert.Equal(t, m.Count(), n)
}

func TestSession_EraseAndClear(t *testing.T) {
	s, _ := newTestSession(t, 1)
	require.NoError(t, s.Open(mapsource.Key{Year: 2000, Month: 1}))

	require.NoError(t, s.Click(image.Pt(75, 50), stroke.Paint))
	require.NoError(t, s.Click(image.Pt(75, 50), stroke.Erase))
	m, err := s.Labels()
	require.NoError(t, err)
	assert.Zero(t, m.Count())

	require.NoError(t, s.Click(image.Pt(75, 50), stroke.Paint))
	require.NoError(t, s.Clear())
	m, err = s.Labels()
	require.NoError(t, err)
	assert.Zero(t, m.Count())
}

func TestSession_StrokeAcrossCells(t *testing.T) {
	s, _ := newTestSession(t, 1)
	require.NoError(t, s.Open(mapsource.Key{Year: 2000, Month: 1}))

	s.SetBrushSize(40)
	assert.Equal(t, 41, s.BrushSize())
	require.NoError(t, s.BeginStroke(image.Pt(50, 10), stroke.Paint))
	require.NoError(t, s.ContinueStroke(image.Pt(58, 30)))
	require.NoError(t, s.EndStroke())

	m, err := s.Labels()
	require.NoError(t, err)
	assert.True(t, m[6][4], "cell under the middle of the stroke")
}

func TestSession_NextSkipsSaved(t *testing.T) {
	s, _ := newTestSession(t, 2)

	seen := map[mapsource.Key]bool{}
	for range 2 {
		k, err := s.Next()
		require.NoError(t, err)
		assert.False(t, seen[k], "key %s offered twice", k)
		seen[k] = true
		assert.Equal(t, k, s.Current().Key)
		_, err = s.Save()
		require.NoError(t, err)
	}
	_, err := s.Next()
	assert.ErrorIs(t, err, labelstore.ErrExhausted)
}

func TestSession_OpenResetsUnsure(t *testing.T) {
	s, _ := newTestSession(t, 2)
	require.NoError(t, s.Open(mapsource.Key{Year: 2000, Month: 1, Index: 0}))
	s.SetUnsure(true)
	require.NoError(t, s.Open(mapsource.Key{Year: 2000, Month: 1, Index: 1}))
	assert.False(t, s.Unsure())

	err := s.Open(mapsource.Key{Year: 2000, Month: 1, Index: 9})
	assert.ErrorIs(t, err, mapsource.ErrNotFound)
}

func TestSession_Frame(t *testing.T) {
	s, _ := newTestSession(t, 1)
	require.NoError(t, s.Open(mapsource.Key{Year: 2000, Month: 1}))
	require.NoError(t, s.Click(image.Pt(75, 50), stroke.Paint))

	img, err := s.Frame()
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 101, 101), img.Bounds())
	assert.Equal(t, uint8(0xff), img.RGBAAt(75, 50).R)
	// outside the disk of data the frame is transparent
	assert.Equal(t, uint8(0), img.RGBAAt(0, 0).A)
}

func TestScript_Replay(t *testing.T) {
	s, _ := newTestSession(t, 1)
	require.NoError(t, s.Open(mapsource.Key{Year: 2000, Month: 1}))

	sc, err := ReadScript(strings.NewReader(`{
		"unsure": true,
		"events": [
			{"op": "brush", "size": 41},
			{"op": "hover", "x": 75, "y": 50},
			{"op": "begin", "x": 75, "y": 50},
			{"op": "move", "x": 76, "y": 52},
			{"op": "end"},
			{"op": "leave"}
		]
	}`))
	require.NoError(t, err)
	require.NoError(t, s.Replay(sc))
	assert.True(t, s.Unsure())

	m, err := s.Labels()
	require.NoError(t, err)
	assert.True(t, m[5][0])
}

func TestScript_Errors(t *testing.T) {
	_, err := ReadScript(strings.NewReader(`{"events": [], "bogus": 1}`))
	assert.Error(t, err)

	s, _ := newTestSession(t, 1)
	require.NoError(t, s.Open(mapsource.Key{Year: 2000, Month: 1}))
	err = s.Replay(&Script{Events: []Event{{Op: "click"}, {Op: "wiggle"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "event 1")

	err = s.Replay(&Script{Events: []Event{{Op: "click", Mode: "smudge"}}})
	assert.Error(t, err)
}

func TestSession_SaveLogsLabellingTime(t *testing.T) {
	var logged []string
	monitoring.SetLogger(func(format string, v ...interface{}) {
		logged = append(logged, fmt.Sprintf(format, v...))
	})
	t.Cleanup(func() { monitoring.SetLogger(nil) })

	src, err := mapsource.NewDemo(4, 8, 1)
	require.NoError(t, err)
	clock := timeutil.NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	s, err := New(src, newMemStore(), Options{BrushSize: 3, VMax: 1, DisplaySize: 20, DrawSize: 20, Clock: clock})
	require.NoError(t, err)

	require.NoError(t, s.Open(mapsource.Key{Year: 2000, Month: 1}))
	clock.Advance(2 * time.Minute)
	_, err = s.Save()
	require.NoError(t, err)

	require.NotEmpty(t, logged)
	assert.Contains(t, logged[len(logged)-1], "[session] saved 2000-01/0")
	assert.Contains(t, logged[len(logged)-1], "labelled in 2m0s")
}
