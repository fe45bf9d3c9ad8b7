// viewer/session.go
package viewer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/gewnthar/logbook/models"
	"github.com/gewnthar/logbook/navigation"
	"github.com/gewnthar/logbook/overlay"
	"github.com/gewnthar/logbook/profile"
	"github.com/google/uuid"
)

var (
	ErrNoHistory = errors.New("viewer: history not loaded")
	ErrClosed    = errors.New("viewer: session closed")
)

// FlightSource is the flight backend: a summary list and per-flight detail.
type FlightSource interface {
	ListSummaries(ctx context.Context) ([]models.FlightSummary, error)
	FetchDetail(ctx context.Context, flightID int64) (*models.FlightDetail, error)
}

// Options configure a session.
type Options struct {
	Chart    profile.Viewport
	Location *time.Location
	Map      overlay.Config
}

// Session is one user's view: navigation tree, profile chart and map
// overlay. All of its state is owned by a single loop goroutine; the
// exported methods hand work to that loop.
type Session struct {
	ID string

	source FlightSource
	opts   Options

	work   chan func()
	done   chan struct{}
	closed sync.Once
	fetch  sync.WaitGroup

	// loop-owned
	ctx         context.Context
	tree        *navigation.Tree
	chart       *profile.Chart
	overlay     *overlay.Overlay
	active      int64
	hasActive   bool
	cancelFetch context.CancelFunc
	loaded      *models.FlightDetail
	alerts      []string
}

// NewSession starts a session. It runs until ctx is done or Close is called.
func NewSession(ctx context.Context, source FlightSource, opts Options) *Session {
	chart := profile.New(opts.Chart, opts.Location)
	ov := overlay.New(opts.Map)
	ov.Attach(chart)

	s := &Session{
		ID:      uuid.New().String(),
		source:  source,
		opts:    opts,
		work:    make(chan func()),
		done:    make(chan struct{}),
		ctx:     ctx,
		chart:   chart,
		overlay: ov,
	}
	go s.loop()
	log.Printf("Viewer: session %s started", s.ID)
	return s
}

func (s *Session) loop() {
	for {
		select {
		case fn := <-s.work:
			fn()
		case <-s.ctx.Done():
			s.Close()
			s.stopFetch()
			return
		case <-s.done:
			s.stopFetch()
			return
		}
	}
}

func (s *Session) stopFetch() {
	if s.cancelFetch != nil {
		s.cancelFetch()
	}
}

// do runs fn on the loop and waits for it. Once fn is handed over it always
// completes before do returns.
func (s *Session) do(fn func()) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	finished := make(chan struct{})
	select {
	case s.work <- func() { fn(); close(finished) }:
	case <-s.done:
		return ErrClosed
	}
	// The loop runs fn as soon as it takes it, so a close cannot strand it.
	<-finished
	return nil
}

// Close stops the loop and cancels any detail fetch in flight.
func (s *Session) Close() {
	s.closed.Do(func() {
		close(s.done)
		log.Printf("Viewer: session %s closed", s.ID)
	})
}

// Wait blocks until every started detail fetch has been applied or dropped.
func (s *Session) Wait() {
	s.fetch.Wait()
}

// LoadHistory fetches the flight summaries and rebuilds the tree. On failure
// the tree is cleared and an alert is raised.
func (s *Session) LoadHistory(ctx context.Context) error {
	summaries, fetchErr := s.source.ListSummaries(ctx)
	err := s.do(func() {
		if fetchErr != nil {
			s.tree = nil
			s.alert("Could not load flight history: %v", fetchErr)
			return
		}
		s.tree = navigation.Build(summaries, s.startFetch)
		log.Printf("Viewer: history loaded, %d flights", len(summaries))
	})
	if err != nil {
		return err
	}
	if fetchErr != nil {
		return fmt.Errorf("failed to load history: %w", fetchErr)
	}
	return nil
}

// Select marks a flight as selected and starts fetching its detail. It does
// not wait for the fetch.
func (s *Session) Select(flightID int64) error {
	var err error
	if doErr := s.do(func() {
		if s.tree == nil {
			err = ErrNoHistory
			return
		}
		err = s.tree.Select(flightID)
	}); doErr != nil {
		return doErr
	}
	return err
}

// startFetch is the tree's selection listener. It runs on the loop.
func (s *Session) startFetch(flightID int64) {
	s.stopFetch()
	ctx, cancel := context.WithCancel(s.ctx)
	s.cancelFetch = cancel
	s.active = flightID
	s.hasActive = true

	s.fetch.Add(1)
	go func() {
		defer s.fetch.Done()
		detail, err := s.source.FetchDetail(ctx, flightID)
		s.do(func() { s.applyDetail(flightID, detail, err) })
	}()
}

// applyDetail installs a fetched flight unless a newer selection has been
// made since the fetch started.
func (s *Session) applyDetail(flightID int64, detail *models.FlightDetail, err error) {
	if !s.hasActive || s.active != flightID {
		log.Printf("WARN Viewer: dropping stale detail for flight %d, active is %d", flightID, s.active)
		return
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.alert("Could not load flight %d: %v", flightID, err)
		return
	}

	s.loaded = detail
	if _, err := s.chart.Render(detail.Profile, s.chart.Viewport()); err != nil {
		s.alert("Profile of flight %d is unreadable: %v", flightID, err)
	}
	if err := s.overlay.Load(detail.Track); err != nil {
		s.overlay.Clear()
		s.alert("Track of flight %d is unreadable: %v", flightID, err)
	}
	log.Printf("Viewer: flight %d displayed", flightID)
}

// Toggle flips a year (YYYY) or month (YYYY-MM) group.
func (s *Session) Toggle(group string) (bool, error) {
	var collapsed bool
	var err error
	if doErr := s.do(func() {
		if s.tree == nil {
			err = ErrNoHistory
			return
		}
		collapsed, err = s.tree.Toggle(group)
	}); doErr != nil {
		return false, doErr
	}
	return collapsed, err
}

// Pointer queries the chart. A hit moves the map marker.
func (s *Session) Pointer(x, y float64) (profile.SampleView, bool, error) {
	var view profile.SampleView
	var ok bool
	err := s.do(func() { view, ok = s.chart.Query(x, y) })
	return view, ok, err
}

// Wheel turns a scroll delta into a map zoom step.
func (s *Session) Wheel(delta float64) (profile.ZoomEvent, bool, error) {
	var ev profile.ZoomEvent
	var ok bool
	err := s.do(func() { ev, ok = s.chart.Wheel(delta) })
	return ev, ok, err
}

// Resize rescales the chart without re-parsing the profile.
func (s *Session) Resize(vp profile.Viewport) (profile.Geometry, error) {
	var g profile.Geometry
	err := s.do(func() { g = s.chart.Resize(vp) })
	return g, err
}

// WriteChart writes the current chart as SVG.
func (s *Session) WriteChart(w io.Writer) error {
	var err error
	if doErr := s.do(func() { err = s.chart.WriteSVG(w) }); doErr != nil {
		return doErr
	}
	return err
}

// WritePage writes the navigation page with pending alerts.
func (s *Session) WritePage(w io.Writer) error {
	var err error
	if doErr := s.do(func() {
		err = navigation.RenderPage(w, navigation.PageData{Tree: s.tree, Alerts: s.alerts})
	}); doErr != nil {
		return doErr
	}
	return err
}

// DismissAlerts clears the alert list and returns what it held.
func (s *Session) DismissAlerts() ([]string, error) {
	var alerts []string
	err := s.do(func() {
		alerts = s.alerts
		s.alerts = nil
	})
	return alerts, err
}

func (s *Session) alert(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Printf("ERROR Viewer: %s", msg)
	s.alerts = append(s.alerts, msg)
}
