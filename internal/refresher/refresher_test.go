package refresher

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/metrowx/metro-weather/internal/geo"
	"github.com/metrowx/metro-weather/internal/prefs"
	"github.com/metrowx/metro-weather/internal/progress"
	"github.com/metrowx/metro-weather/internal/weather"
)

type fakeEngine struct {
	refreshes atomic.Int64
	clears    atomic.Int64
	lastLang  atomic.Value
}

func (f *fakeEngine) CurrentWeather(ctx context.Context, fix *geo.Coordinate, lang string) *progress.Future[*weather.Snapshot] {
	f.refreshes.Add(1)
	f.lastLang.Store(lang)
	return progress.Completed(&weather.Snapshot{StationName: "Hong Kong"})
}

func (f *fakeEngine) ClearCache() {
	f.clears.Add(1)
}

func newTestStore(t *testing.T) *prefs.Store {
	t.Helper()
	store, err := prefs.Open(filepath.Join(t.TempDir(), "preferences.json"), nil, zaptest.NewLogger(t))
	require.NoError(t, err)
	return store
}

func TestRefreshRunsAggregation(t *testing.T) {
	engine := &fakeEngine{}
	r := New(engine, newTestStore(t), zaptest.NewLogger(t))

	r.Refresh()

	assert.Equal(t, int64(1), engine.refreshes.Load())
	assert.Equal(t, "zh", engine.lastLang.Load())
}

func TestPreferencesChangedClearsAndReprimes(t *testing.T) {
	engine := &fakeEngine{}
	r := New(engine, newTestStore(t), zaptest.NewLogger(t))
	require.NoError(t, r.Start())
	defer r.Stop()

	r.PreferencesChanged(prefs.Preferences{Language: "en", RefreshRate: time.Hour})

	assert.Equal(t, int64(1), engine.clears.Load())
	assert.GreaterOrEqual(t, engine.refreshes.Load(), int64(1))
}

func TestStartSchedulesJob(t *testing.T) {
	engine := &fakeEngine{}
	r := New(engine, newTestStore(t), zaptest.NewLogger(t))

	require.NoError(t, r.Start())
	defer r.Stop()

	require.NotNil(t, r.job)
}
