// Package prefs persists user-facing preferences as a flat JSON file and
// notifies interested parties (widget surfaces) when they change.
package prefs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/metrowx/metro-weather/internal/geo"
)

const (
	DefaultLanguage    = "zh"
	DefaultRefreshRate = 30 * time.Minute
)

// Location is a saved location: either a free-form label resolved elsewhere,
// or explicit coordinates. Exactly one of the two is meaningful.
type Location struct {
	Label string
	Coord *geo.Coordinate
}

// MarshalJSON writes a label as a JSON string and coordinates as a two-element
// [lat, lng] array, matching the on-disk preference format.
func (l Location) MarshalJSON() ([]byte, error) {
	if l.Coord != nil {
		return json.Marshal([2]float64{l.Coord.Latitude, l.Coord.Longitude})
	}
	return json.Marshal(l.Label)
}

func (l *Location) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err == nil {
		*l = Location{Label: label}
		return nil
	}
	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("prefs: unparsable location %s", data)
	}
	*l = Location{Coord: &geo.Coordinate{Latitude: pair[0], Longitude: pair[1]}}
	return nil
}

// Preferences is the full preference set. The zero value is not valid; use
// Defaults.
type Preferences struct {
	Language    string
	RefreshRate time.Duration
	Location    Location
}

// Defaults returns the preference set used when no file exists yet.
func Defaults() Preferences {
	return Preferences{
		Language:    DefaultLanguage,
		RefreshRate: DefaultRefreshRate,
	}
}

type prefsDoc struct {
	Language      string   `json:"language"`
	RefreshRateMS int64    `json:"refreshRate"`
	Location      Location `json:"location"`
}

// Notifier is told about preference writes. Implementations must not block;
// the store fires them on their own goroutine and never waits.
type Notifier interface {
	PreferencesChanged(p Preferences)
}

// Store is the read-heavy preference holder. Reads never touch the disk or
// take a lock; writes rewrite the whole file.
type Store struct {
	path     string
	logger   *zap.Logger
	notifier Notifier

	mu      sync.Mutex
	current atomic.Pointer[Preferences]
}

// Open loads preferences from path. A missing file yields Defaults without
// creating the file; any other read or decode failure is an error.
func Open(path string, notifier Notifier, logger *zap.Logger) (*Store, error) {
	s := &Store{path: path, logger: logger, notifier: notifier}

	p := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var doc prefsDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("prefs: decode %s: %w", path, err)
		}
		if doc.Language != "" {
			p.Language = doc.Language
		}
		if doc.RefreshRateMS > 0 {
			p.RefreshRate = time.Duration(doc.RefreshRateMS) * time.Millisecond
		}
		p.Location = doc.Location
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("prefs: read %s: %w", path, err)
	}

	s.current.Store(&p)
	return s, nil
}

// SetNotifier installs n after construction. The store and its notifier
// reference each other, so one of the two has to be wired late.
func (s *Store) SetNotifier(n Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifier = n
}

// Current returns the preference set as of the last load or write.
func (s *Store) Current() Preferences {
	return *s.current.Load()
}

// Save persists p, publishes it to readers and fires the notifier. The write
// goes through a temp file and a rename so readers of the file never observe
// a partial document.
func (s *Store) Save(p Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := prefsDoc{
		Language:      p.Language,
		RefreshRateMS: p.RefreshRate.Milliseconds(),
		Location:      p.Location,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("prefs: encode: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("prefs: create dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("prefs: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("prefs: rename %s: %w", tmp, err)
	}

	s.current.Store(&p)
	s.logger.Info("preferences saved",
		zap.String("language", p.Language),
		zap.Duration("refresh_rate", p.RefreshRate))

	if s.notifier != nil {
		go s.notifier.PreferencesChanged(p)
	}
	return nil
}
