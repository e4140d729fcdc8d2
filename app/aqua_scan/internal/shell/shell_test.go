package shell

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/analyzer"
	"github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/config"
	"github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/dashboard"
	"github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/geo"
	"github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/i18n"
	dm "github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/model"
	"github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/storage"
)

// mockAnalyzer 模拟分析器
type mockAnalyzer struct {
	mu      sync.Mutex
	err     error
	panics  bool
	block   chan struct{}
	calls   int
	lastReq analyzer.Request
}

func (m *mockAnalyzer) Validate(req analyzer.Request) error {
	if (len(req.Image) > 0) == (req.Manual != nil) {
		return fmt.Errorf("%w: exactly one input", analyzer.ErrInvalidRequest)
	}
	return nil
}

func (m *mockAnalyzer) Analyze(ctx context.Context, req analyzer.Request) (*dm.AnalysisResult, error) {
	m.mu.Lock()
	m.calls++
	m.lastReq = req
	block, err, panics := m.block, m.err, m.panics
	n := m.calls
	m.mu.Unlock()

	if block != nil {
		<-block
	}
	if panics {
		panic("nil model response")
	}
	if err != nil {
		return nil, err
	}
	return &dm.AnalysisResult{
		ID:                fmt.Sprintf("r%d", n),
		RiskLevel:         dm.RiskSafe,
		Score:             91,
		Summary:           "All parameters within limits.",
		SimpleExplanation: "Safe to drink.",
		Alerts:            []dm.HealthAlert{},
		Recommendations:   []string{"Store covered"},
		Timestamp:         time.Now().UTC(),
	}, nil
}

// failingKV 写入总是失败
type failingKV struct{}

func (failingKV) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (failingKV) Set(context.Context, string, string) error         { return errors.New("quota exceeded") }
func (failingKV) Close() error                                      { return nil }

func newTestShell(t *testing.T, a Analyzer, locator geo.Locator) (*Shell, *storage.Store) {
	t.Helper()
	kv, err := storage.NewFileKV(t.TempDir())
	require.NoError(t, err)
	store := storage.NewStore(kv, "")
	return NewShell(config.Default(), a, geo.NewAdapter(locator, 50*time.Millisecond), store, log.DefaultLogger), store
}

func manual() *dm.DroneData {
	d := dm.DefaultDroneData()
	return &d
}

func TestSubmit_ManualScenario(t *testing.T) {
	a := &mockAnalyzer{}
	sh, store := newTestShell(t, a, geo.Unavailable{})

	assert.Equal(t, ViewScan, sh.Snapshot().View)

	res, err := sh.Submit(context.Background(), Input{Manual: manual()})
	require.NoError(t, err)
	assert.Nil(t, res.Location)

	st := sh.Snapshot()
	assert.Equal(t, ViewDashboard, st.View)
	assert.False(t, st.Analyzing)
	require.NotNil(t, st.Current)
	assert.Equal(t, dm.RiskSafe, st.Current.RiskLevel)
	assert.Equal(t, "91%", dashboard.RenderBanner(*st.Current).ScoreLabel)
	assert.Len(t, st.History, 1)
	assert.Len(t, store.History(), 1)

	assert.Equal(t, dm.English, a.lastReq.Language)
	assert.Equal(t, 7.0, a.lastReq.Manual.PH)
}

func TestSubmit_NewestFirst(t *testing.T) {
	sh, _ := newTestShell(t, &mockAnalyzer{}, geo.Unavailable{})
	for i := 0; i < 3; i++ {
		_, err := sh.Submit(context.Background(), Input{Manual: manual()})
		require.NoError(t, err)
	}
	st := sh.Snapshot()
	require.Len(t, st.History, 3)
	assert.Equal(t, "r3", st.History[0].ID)
	assert.Equal(t, "r3", st.Current.ID)
}

func TestSubmit_LocationTagging(t *testing.T) {
	sh, _ := newTestShell(t, &mockAnalyzer{}, geo.Static(dm.Location{Latitude: 28.6, Longitude: 77.2}))

	res, err := sh.Submit(context.Background(), Input{Manual: manual()})
	require.NoError(t, err)
	require.NotNil(t, res.Location)
	assert.Equal(t, 28.6, res.Location.Latitude)

	// 浏览器提供的位置优先
	res, err = sh.Submit(context.Background(), Input{Manual: manual(), Location: &dm.Location{Latitude: 1, Longitude: 2}})
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Location.Latitude)
}

func TestSubmit_GeolocationTimeout(t *testing.T) {
	hanging := geo.LocatorFunc(func(ctx context.Context) (*dm.Location, error) {
		select {}
	})
	sh, _ := newTestShell(t, &mockAnalyzer{}, hanging)

	start := time.Now()
	res, err := sh.Submit(context.Background(), Input{Manual: manual()})
	require.NoError(t, err)
	assert.Nil(t, res.Location)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestSubmit_Failure(t *testing.T) {
	a := &mockAnalyzer{err: fmt.Errorf("%w: timeout", analyzer.ErrAnalysisFailed)}
	sh, store := newTestShell(t, a, geo.Unavailable{})
	sh.SetLanguage(dm.Spanish)

	_, err := sh.Submit(context.Background(), Input{Manual: manual()})
	assert.ErrorIs(t, err, analyzer.ErrAnalysisFailed)

	st := sh.Snapshot()
	assert.Equal(t, ViewScan, st.View)
	assert.False(t, st.Analyzing)
	assert.Equal(t, i18n.For(dm.Spanish).AnalysisError, st.Notice)
	assert.Empty(t, st.History)
	assert.Empty(t, store.History())
	assert.Equal(t, dm.Spanish, a.lastReq.Language)

	// 输入错误使用不同的提示
	_, err = sh.Submit(context.Background(), Input{})
	assert.ErrorIs(t, err, analyzer.ErrInvalidRequest)
	assert.Equal(t, i18n.For(dm.Spanish).InvalidInput, sh.Snapshot().Notice)
}

func TestSubmit_InvalidInputSkipsLocation(t *testing.T) {
	var lookups int32
	counting := geo.LocatorFunc(func(ctx context.Context) (*dm.Location, error) {
		atomic.AddInt32(&lookups, 1)
		return &dm.Location{Latitude: 1, Longitude: 1}, nil
	})
	a := &mockAnalyzer{}
	sh, _ := newTestShell(t, a, counting)

	_, err := sh.Submit(context.Background(), Input{})
	assert.ErrorIs(t, err, analyzer.ErrInvalidRequest)
	assert.Zero(t, atomic.LoadInt32(&lookups))
	assert.Zero(t, a.calls)

	st := sh.Snapshot()
	assert.False(t, st.Analyzing)
	assert.Equal(t, i18n.For(dm.English).InvalidInput, st.Notice)
}

func TestSubmit_PanicDoesNotLeaveShellBusy(t *testing.T) {
	a := &mockAnalyzer{panics: true}
	sh, _ := newTestShell(t, a, geo.Unavailable{})

	assert.Panics(t, func() {
		_, _ = sh.Submit(context.Background(), Input{Manual: manual()})
	})
	st := sh.Snapshot()
	assert.False(t, st.Analyzing)
	assert.Equal(t, i18n.For(dm.English).AnalysisError, st.Notice)
	assert.Empty(t, st.History)

	a.mu.Lock()
	a.panics = false
	a.mu.Unlock()
	res, err := sh.Submit(context.Background(), Input{Manual: manual()})
	require.NoError(t, err)
	assert.Equal(t, "r2", res.ID)
}

func TestSubmit_PersistFailureKeepsResult(t *testing.T) {
	store := storage.NewStore(failingKV{}, "")
	sh := NewShell(config.Default(), &mockAnalyzer{}, geo.NewAdapter(geo.Unavailable{}, time.Second), store, log.DefaultLogger)

	_, err := sh.Submit(context.Background(), Input{Manual: manual()})
	require.NoError(t, err)
	st := sh.Snapshot()
	assert.Equal(t, ViewDashboard, st.View)
	assert.Len(t, st.History, 1)
}

func TestSubmit_Busy(t *testing.T) {
	a := &mockAnalyzer{block: make(chan struct{})}
	sh, _ := newTestShell(t, a, geo.Unavailable{})

	done := make(chan error, 1)
	go func() {
		_, err := sh.Submit(context.Background(), Input{Manual: manual()})
		done <- err
	}()

	require.Eventually(t, func() bool { return sh.Snapshot().Analyzing }, time.Second, 5*time.Millisecond)
	_, err := sh.Submit(context.Background(), Input{Manual: manual()})
	assert.ErrorIs(t, err, ErrBusy)

	close(a.block)
	require.NoError(t, <-done)
	assert.False(t, sh.Snapshot().Analyzing)
	assert.Len(t, sh.Snapshot().History, 1)
}

func TestNavigateAndSelect(t *testing.T) {
	sh, _ := newTestShell(t, &mockAnalyzer{}, geo.Unavailable{})

	_, err := sh.Navigate(ViewDashboard)
	assert.ErrorIs(t, err, ErrNoResult)
	assert.Equal(t, ViewScan, sh.Snapshot().View)

	st, err := sh.Navigate(ViewMap)
	require.NoError(t, err)
	assert.Equal(t, ViewMap, st.View)

	_, err = sh.Navigate(View("settings"))
	assert.ErrorIs(t, err, ErrUnknownView)

	for i := 0; i < 2; i++ {
		_, err = sh.Submit(context.Background(), Input{Manual: manual()})
		require.NoError(t, err)
	}
	_, err = sh.Navigate(ViewHistory)
	require.NoError(t, err)

	st, err = sh.Select("r1")
	require.NoError(t, err)
	assert.Equal(t, ViewDashboard, st.View)
	assert.Equal(t, "r1", st.Current.ID)
	assert.Len(t, st.History, 2)

	_, err = sh.Select("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "r1", sh.Snapshot().Current.ID)
}

func TestNewShell_RestoresHistory(t *testing.T) {
	kv, err := storage.NewFileKV(t.TempDir())
	require.NoError(t, err)
	first := storage.NewStore(kv, "")
	sh := NewShell(config.Default(), &mockAnalyzer{}, geo.NewAdapter(nil, 0), first, log.DefaultLogger)
	_, err = sh.Submit(context.Background(), Input{Manual: manual()})
	require.NoError(t, err)

	restarted := NewShell(config.Default(), &mockAnalyzer{}, geo.NewAdapter(nil, 0), storage.NewStore(kv, ""), log.DefaultLogger)
	st := restarted.Snapshot()
	assert.Len(t, st.History, 1)
	assert.Nil(t, st.Current)
	assert.Equal(t, ViewScan, st.View)
}
