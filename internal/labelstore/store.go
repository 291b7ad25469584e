// Package labelstore persists per-map label masks and the done/unsure
// bookkeeping of a labelling campaign in SQLite.
package labelstore

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/teclab/internal/labels"
	"github.com/banshee-data/teclab/internal/mapsource"
	"github.com/banshee-data/teclab/internal/monitoring"
	"github.com/banshee-data/teclab/internal/timeutil"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound is returned when no labels are stored for a key.
var ErrNotFound = errors.New("labelstore: no labels for map")

// ErrExhausted is returned by NextUnlabeled when every key is done.
var ErrExhausted = errors.New("labelstore: every map is labelled")

// Record is one stored label mask.
type Record struct {
	LabelID    string
	Key        mapsource.Key
	Mask       labels.Mask
	Unsure     bool
	LabelledAt time.Time
}

// Store wraps the label database.
type Store struct {
	db    *sql.DB
	clock timeutil.Clock
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used to timestamp saved labels.
func WithClock(c timeutil.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// Open opens (creating if needed) the database at path, applies the
// connection PRAGMAs and runs pending migrations.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open label db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	s := &Store{db: db, clock: timeutil.RealClock{}}
	for _, o := range opts {
		o(s)
	}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{logf: monitoring.Prefixed("migrate")}
	return m, nil
}

func (s *Store) migrateUp() error {
	m, err := s.newMigrate()
	if err != nil {
		return err
	}
	// Note: We don't close m here because it would close the underlying DB connection.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// SchemaVersion returns the applied migration version.
func (s *Store) SchemaVersion() (uint, bool, error) {
	m, err := s.newMigrate()
	if err != nil {
		return 0, false, err
	}
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

// migrateLogger implements migrate.Logger interface
type migrateLogger struct {
	logf func(format string, v ...interface{})
}

func (l *migrateLogger) Printf(format string, v ...interface{}) { l.logf(format, v...) }

func (l *migrateLogger) Verbose() bool { return false }

// SaveLabels stores mask for key, replacing any earlier labels, and records
// whether the labeller was unsure. Saving marks the key done.
func (s *Store) SaveLabels(key mapsource.Key, mask labels.Mask, unsure bool) (*Record, error) {
	rows, cols := mask.Dims()
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("%w: empty mask", labels.ErrShapeMismatch)
	}
	blob, err := encodeMask(mask)
	if err != nil {
		return nil, fmt.Errorf("encode mask: %w", err)
	}
	rec := &Record{
		LabelID:    uuid.New().String(),
		Key:        key,
		Mask:       mask,
		Unsure:     unsure,
		LabelledAt: s.clock.Now().UTC(),
	}

	query := `
		INSERT INTO map_labels (
			label_id, year, month, map_index, rows, cols,
			mask_blob, labelled_cells, unsure, labelled_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (year, month, map_index) DO UPDATE SET
			rows = excluded.rows,
			cols = excluded.cols,
			mask_blob = excluded.mask_blob,
			labelled_cells = excluded.labelled_cells,
			unsure = excluded.unsure,
			labelled_at = excluded.labelled_at
		RETURNING label_id
	`
	err = s.db.QueryRow(query,
		rec.LabelID,
		key.Year, key.Month, key.Index,
		rows, cols,
		blob,
		mask.Count(),
		unsure,
		rec.LabelledAt.UnixNano(),
	).Scan(&rec.LabelID)
	if err != nil {
		return nil, fmt.Errorf("insert labels for %s: %w", key, err)
	}
	monitoring.Logf("labelstore: saved %s (%d cells labelled, unsure=%v)", key, mask.Count(), unsure)
	return rec, nil
}

// LoadLabels returns the stored record for key.
func (s *Store) LoadLabels(key mapsource.Key) (*Record, error) {
	query := `
		SELECT label_id, rows, cols, mask_blob, unsure, labelled_at
		FROM map_labels
		WHERE year = ? AND month = ? AND map_index = ?
	`
	var (
		rec        = Record{Key: key}
		rows, cols int
		blob       []byte
		at         int64
	)
	err := s.db.QueryRow(query, key.Year, key.Month, key.Index).
		Scan(&rec.LabelID, &rows, &cols, &blob, &rec.Unsure, &at)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("query labels for %s: %w", key, err)
	}
	mask, err := decodeMask(blob)
	if err != nil {
		return nil, fmt.Errorf("labels for %s: %w", key, err)
	}
	if r, c := mask.Dims(); r != rows || c != cols {
		return nil, fmt.Errorf("labels for %s: blob is %dx%d, row says %dx%d", key, r, c, rows, cols)
	}
	rec.Mask = mask
	rec.LabelledAt = time.Unix(0, at).UTC()
	return &rec, nil
}

// IsDone reports whether labels are stored for key.
func (s *Store) IsDone(key mapsource.Key) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM map_labels WHERE year = ? AND month = ? AND map_index = ?`,
		key.Year, key.Month, key.Index,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query done state for %s: %w", key, err)
	}
	return n > 0, nil
}

// DoneList returns every labelled key, sorted.
func (s *Store) DoneList() ([]mapsource.Key, error) {
	return s.listKeys(`SELECT year, month, map_index FROM map_labels ORDER BY year, month, map_index`)
}

// UnsureList returns the labelled keys flagged unsure, sorted.
func (s *Store) UnsureList() ([]mapsource.Key, error) {
	return s.listKeys(`SELECT year, month, map_index FROM map_labels WHERE unsure = 1 ORDER BY year, month, map_index`)
}

func (s *Store) listKeys(query string) ([]mapsource.Key, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var keys []mapsource.Key
	for rows.Next() {
		var k mapsource.Key
		if err := rows.Scan(&k.Year, &k.Month, &k.Index); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// NextUnlabeled picks a random key from keys that has not been labelled.
// It returns ErrExhausted when none remain.
func (s *Store) NextUnlabeled(keys []mapsource.Key, rng *rand.Rand) (mapsource.Key, error) {
	done, err := s.DoneList()
	if err != nil {
		return mapsource.Key{}, err
	}
	skip := make(map[mapsource.Key]struct{}, len(done))
	for _, k := range done {
		skip[k] = struct{}{}
	}
	var open []mapsource.Key
	for _, k := range keys {
		if _, ok := skip[k]; !ok {
			open = append(open, k)
		}
	}
	if len(open) == 0 {
		return mapsource.Key{}, ErrExhausted
	}
	return open[rng.Intn(len(open))], nil
}
