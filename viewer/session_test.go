package viewer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gewnthar/logbook/models"
	"github.com/gewnthar/logbook/navigation"
	"github.com/gewnthar/logbook/overlay"
	"github.com/gewnthar/logbook/profile"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Test Helpers
// ---------------------------------------------------------------------------

const testProfile = "1600000000,1000,10,1.5,45.1,6.1\n" +
	"1600000001,1200,12,-0.5,45.2,6.2\n" +
	"1600000002,900,8,2.25,45.3,6.3\n"

const testTrack = `{"type":"FeatureCollection","features":[
{"type":"Feature","id":"flight","geometry":{"type":"LineString","coordinates":[[6.0,45.0],[6.5,45.5]]},"properties":{}},
{"type":"Feature","id":"launch0","geometry":{"type":"Point","coordinates":[6.0,45.0]},"properties":{}}
]}`

type fakeSource struct {
	mu        sync.Mutex
	summaries []models.FlightSummary
	listErr   error
	details   map[int64]*models.FlightDetail
	fetchErr  map[int64]error
	gates     map[int64]chan struct{}
}

func newFakeSource() *fakeSource {
	summaries := []models.FlightSummary{
		{FlightID: 1, Date: "2021-05-01", Duration: 65, Score: 3500, Code: models.CodeFAI},
		{FlightID: 2, Date: "2021-06-15", Duration: 45, Score: 3000, Code: models.CodeFree},
		{FlightID: 3, Date: "2022-01-01", Duration: 120, Score: 6000, Code: models.CodeTriangle},
	}
	f := &fakeSource{
		summaries: summaries,
		details:   make(map[int64]*models.FlightDetail),
		fetchErr:  make(map[int64]error),
		gates:     make(map[int64]chan struct{}),
	}
	for _, s := range summaries {
		f.details[s.FlightID] = &models.FlightDetail{FlightSummary: s, Track: testTrack, Profile: testProfile}
	}
	return f
}

func (f *fakeSource) ListSummaries(ctx context.Context) ([]models.FlightSummary, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.summaries, nil
}

// FetchDetail ignores cancellation so stale responses really arrive.
func (f *fakeSource) FetchDetail(ctx context.Context, id int64) (*models.FlightDetail, error) {
	f.mu.Lock()
	gate := f.gates[id]
	err := f.fetchErr[id]
	detail := f.details[id]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, fmt.Errorf("flight %d not found", id)
	}
	return detail, nil
}

func testOptions() Options {
	return Options{
		Chart:    profile.Viewport{Width: 1000, Height: 300, FontSize: 16},
		Location: time.UTC,
		Map: overlay.Config{
			Width: 800, Height: 600,
			Center: orb.Point{6.2, 45.5},
			Zoom:   10, MinZoom: 0, MaxZoom: 19,
		},
	}
}

func startSession(t *testing.T, src FlightSource) *Session {
	t.Helper()
	s := NewSession(context.Background(), src, testOptions())
	t.Cleanup(s.Close)
	return s
}

func mustState(t *testing.T, s *Session) State {
	t.Helper()
	st, err := s.State()
	require.NoError(t, err)
	return st
}

// ---------------------------------------------------------------------------
// History
// ---------------------------------------------------------------------------

func TestLoadHistoryBuildsTree(t *testing.T) {
	s := startSession(t, newFakeSource())
	require.NoError(t, s.LoadHistory(context.Background()))

	st := mustState(t, s)
	assert.NotEmpty(t, st.SessionID)
	assert.True(t, st.HistoryLoaded)
	assert.Equal(t, 3, st.Flights)
	assert.Nil(t, st.SelectedID)

	var buf bytes.Buffer
	require.NoError(t, s.WritePage(&buf))
	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, 3, doc.Find("li.flight").Length())
}

func TestLoadHistoryFailureLeavesNavigationEmpty(t *testing.T) {
	src := newFakeSource()
	src.listErr = errors.New("backend down")
	s := startSession(t, src)

	err := s.LoadHistory(context.Background())
	require.Error(t, err)

	st := mustState(t, s)
	assert.False(t, st.HistoryLoaded)
	require.Len(t, st.Alerts, 1)
	assert.Contains(t, st.Alerts[0], "backend down")

	var buf bytes.Buffer
	require.NoError(t, s.WritePage(&buf))
	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, 0, doc.Find("li.flight").Length())
	assert.Equal(t, 1, doc.Find(".alert").Length())

	assert.ErrorIs(t, s.Select(1), ErrNoHistory)
	_, err = s.Toggle("2021")
	assert.ErrorIs(t, err, ErrNoHistory)
}

func TestDismissAlerts(t *testing.T) {
	src := newFakeSource()
	src.listErr = errors.New("backend down")
	s := startSession(t, src)
	_ = s.LoadHistory(context.Background())

	alerts, err := s.DismissAlerts()
	require.NoError(t, err)
	assert.Len(t, alerts, 1)
	assert.Empty(t, mustState(t, s).Alerts)
}

// ---------------------------------------------------------------------------
// Selection
// ---------------------------------------------------------------------------

func TestSelectDisplaysFlight(t *testing.T) {
	s := startSession(t, newFakeSource())
	require.NoError(t, s.LoadHistory(context.Background()))

	require.NoError(t, s.Select(2))
	s.Wait()

	st := mustState(t, s)
	require.NotNil(t, st.SelectedID)
	require.NotNil(t, st.DisplayedID)
	assert.Equal(t, int64(2), *st.SelectedID)
	assert.Equal(t, int64(2), *st.DisplayedID)
	assert.Equal(t, "2021-06-15", st.DisplayedDate)
	assert.Equal(t, 3, st.Geometry.SampleCount)
	assert.Equal(t, 2, st.TrackFeatures)
	assert.Empty(t, st.Alerts)
}

func TestSelectUnknownFlight(t *testing.T) {
	s := startSession(t, newFakeSource())
	require.NoError(t, s.LoadHistory(context.Background()))
	assert.ErrorIs(t, s.Select(99), navigation.ErrUnknownFlight)
}

func TestStaleDetailIsDropped(t *testing.T) {
	src := newFakeSource()
	gate := make(chan struct{})
	src.gates[1] = gate
	s := startSession(t, src)
	require.NoError(t, s.LoadHistory(context.Background()))

	require.NoError(t, s.Select(1))
	require.NoError(t, s.Select(3))
	close(gate)
	s.Wait()

	st := mustState(t, s)
	require.NotNil(t, st.DisplayedID)
	assert.Equal(t, int64(3), *st.DisplayedID)
	assert.Equal(t, "2022-01-01", st.DisplayedDate)
	assert.Empty(t, st.Alerts)
}

func TestFetchFailureKeepsPriorFlight(t *testing.T) {
	src := newFakeSource()
	src.fetchErr[3] = errors.New("timeout")
	s := startSession(t, src)
	require.NoError(t, s.LoadHistory(context.Background()))

	require.NoError(t, s.Select(1))
	s.Wait()
	before := mustState(t, s)

	require.NoError(t, s.Select(3))
	s.Wait()
	after := mustState(t, s)

	require.NotNil(t, after.DisplayedID)
	assert.Equal(t, int64(1), *after.DisplayedID)
	assert.Equal(t, before.Geometry, after.Geometry)
	assert.Equal(t, before.Map, after.Map)
	require.Len(t, after.Alerts, 1)
	assert.Contains(t, after.Alerts[0], "timeout")
}

func TestChartAndMapFailIndependently(t *testing.T) {
	src := newFakeSource()
	src.details[1].Profile = "1600000000,high,10,1.5,45.1,6.1\n"
	src.details[2].Track = "{broken"
	s := startSession(t, src)
	require.NoError(t, s.LoadHistory(context.Background()))

	require.NoError(t, s.Select(1))
	s.Wait()
	st := mustState(t, s)
	assert.Equal(t, 0, st.Geometry.SampleCount)
	assert.Equal(t, 2, st.TrackFeatures)
	require.Len(t, st.Alerts, 1)
	assert.Contains(t, st.Alerts[0], "Profile")

	require.NoError(t, s.Select(2))
	s.Wait()
	st = mustState(t, s)
	assert.Equal(t, 3, st.Geometry.SampleCount)
	assert.Equal(t, 0, st.TrackFeatures, "previous track is not left on the map")
	assert.Equal(t, overlay.View{Center: testOptions().Map.Center, Zoom: testOptions().Map.Zoom}, st.Map)
	require.Len(t, st.Alerts, 2)
	assert.Contains(t, st.Alerts[1], "Track")

	snap, err := s.Overlay()
	require.NoError(t, err)
	assert.Empty(t, snap.Features)
	assert.Equal(t, orb.Bound{}, snap.Bounds)
}

// ---------------------------------------------------------------------------
// Chart and map sync
// ---------------------------------------------------------------------------

func TestPointerAndWheelDriveMap(t *testing.T) {
	s := startSession(t, newFakeSource())
	require.NoError(t, s.LoadHistory(context.Background()))
	require.NoError(t, s.Select(1))
	s.Wait()

	v, ok, err := s.Pointer(400, 150)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, v.Index)

	_, ok, err = s.Pointer(2, 150)
	require.NoError(t, err)
	assert.False(t, ok)

	zoomBefore := mustState(t, s).Map.Zoom
	ev, ok, err := s.Wheel(-50)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, -1, ev.Step)

	st := mustState(t, s)
	assert.Equal(t, orb.Point{6.2, 45.2}, st.Marker.Position)
	assert.Equal(t, 1, st.Marker.Moves)
	assert.Equal(t, zoomBefore-1, st.Map.Zoom)
	assert.Equal(t, orb.Point{6.2, 45.2}, st.Map.Center)

	_, ok, err = s.Wheel(0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestToggle(t *testing.T) {
	s := startSession(t, newFakeSource())
	require.NoError(t, s.LoadHistory(context.Background()))

	collapsed, err := s.Toggle("2022")
	require.NoError(t, err)
	assert.False(t, collapsed)

	_, err = s.Toggle("1999-01")
	assert.ErrorIs(t, err, navigation.ErrUnknownGroup)
}

func TestResizeAndSVG(t *testing.T) {
	s := startSession(t, newFakeSource())
	require.NoError(t, s.LoadHistory(context.Background()))
	require.NoError(t, s.Select(1))
	s.Wait()

	g, err := s.Resize(profile.Viewport{Width: 500, Height: 200, FontSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 500.0, g.Width)

	var buf bytes.Buffer
	require.NoError(t, s.WriteChart(&buf))
	assert.Contains(t, buf.String(), `width="500.00"`)
}

func TestClosedSession(t *testing.T) {
	s := NewSession(context.Background(), newFakeSource(), testOptions())
	s.Close()
	s.Close()

	_, err := s.State()
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.LoadHistory(context.Background()), ErrClosed)
}

func TestCloseWaitsForRunningWork(t *testing.T) {
	s := NewSession(context.Background(), newFakeSource(), testOptions())
	started := make(chan struct{})
	release := make(chan struct{})

	var value int
	result := make(chan error, 1)
	go func() {
		result <- s.do(func() {
			close(started)
			<-release
			value = 7
		})
	}()

	<-started
	s.Close()
	close(release)

	require.NoError(t, <-result)
	assert.Equal(t, 7, value)
}

func TestContextEndsSession(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewSession(ctx, newFakeSource(), testOptions())
	cancel()

	assert.Eventually(t, func() bool {
		_, err := s.State()
		return errors.Is(err, ErrClosed)
	}, time.Second, 10*time.Millisecond)
}
