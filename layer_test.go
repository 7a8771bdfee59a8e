package vfield

import (
	"errors"
	"testing"
)

func newTestLayer(t *testing.T, opts ...LayerOption) (*Layer, *recordingContext, *fakeHost) {
	t.Helper()
	opts = append([]LayerOption{WithEngineOptions(WithParticleCount(64), WithRand(testRand()))}, opts...)
	l := NewLayer("currents", "currents-src", opts...)
	l.SetMetadata(testMetadata())

	ctx := newRecordingContext()
	host := newFakeHost(32, 32)
	if err := l.OnAdd(host, ctx); err != nil {
		t.Fatalf("OnAdd() error = %v", err)
	}
	t.Cleanup(l.Engine().Close)
	return l, ctx, host
}

func loadedEvent(source string) Event {
	return Event{Type: EventSourceData, SourceID: source, Loaded: true, Image: testImage(8, 4)}
}

func TestLayerUnbound(t *testing.T) {
	l := NewLayer("currents", "src")
	if l.ID() != "currents" || l.SourceID() != "src" {
		t.Errorf("ID, SourceID = %q, %q", l.ID(), l.SourceID())
	}
	if !l.Visible() {
		t.Error("new layer should be visible")
	}
	if err := l.Render(); err != nil {
		t.Errorf("Render() before OnAdd error = %v", err)
	}
	if err := l.SetVisible(false); err != nil {
		t.Errorf("SetVisible() before OnAdd error = %v", err)
	}
	if err := l.SetData(testImage(2, 2)); !errors.Is(err, ErrLayerNotBound) {
		t.Errorf("SetData() before OnAdd error = %v, want ErrLayerNotBound", err)
	}
	if err := l.OnAdd(nil, newRecordingContext()); !errors.Is(err, ErrNilHost) {
		t.Errorf("OnAdd(nil host) error = %v, want ErrNilHost", err)
	}
	if l.Engine() != nil {
		t.Error("failed OnAdd left an engine behind")
	}
}

func TestLayerOnAddTwice(t *testing.T) {
	l, _, host := newTestLayer(t)
	if err := l.OnAdd(host, newRecordingContext()); !errors.Is(err, ErrLayerBound) {
		t.Errorf("second OnAdd() error = %v, want ErrLayerBound", err)
	}
	for _, et := range []EventType{EventSourceData, EventMoveStart, EventMoveEnd, EventResize} {
		if n := len(host.handlers[et]); n != 1 {
			t.Errorf("%s handlers = %d, want 1", et, n)
		}
	}
}

func TestLayerSourceDataFiltering(t *testing.T) {
	tests := []struct {
		name     string
		ev       Event
		wantData bool
	}{
		{"other source", loadedEvent("elsewhere"), false},
		{"not loaded", Event{Type: EventSourceData, SourceID: "currents-src", Image: testImage(8, 4)}, false},
		{"no image", Event{Type: EventSourceData, SourceID: "currents-src", Loaded: true}, false},
		{"loaded", loadedEvent("currents-src"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, _, host := newTestLayer(t)
			host.emit(tt.ev)

			_, ok := l.Engine().Dataset()
			if ok != tt.wantData {
				t.Fatalf("dataset present = %v, want %v", ok, tt.wantData)
			}
			wantState := Paused
			if tt.wantData {
				wantState = Animating
			}
			if l.Engine().State() != wantState {
				t.Errorf("State() = %v, want %v", l.Engine().State(), wantState)
			}
		})
	}
}

func TestLayerSourceDataWithoutMetadata(t *testing.T) {
	l, _, host := newTestLayer(t)
	l.SetMetadata(Metadata{})

	host.emit(loadedEvent("currents-src"))
	if _, ok := l.Engine().Dataset(); ok {
		t.Error("dataset accepted with zero bounds")
	}
}

func TestLayerHiddenDoesNotAnimate(t *testing.T) {
	l, ctx, host := newTestLayer(t, WithVisible(false))

	host.emit(loadedEvent("currents-src"))
	if _, ok := l.Engine().Dataset(); !ok {
		t.Fatal("hidden layer should still accept data")
	}
	if l.Engine().State() != Paused {
		t.Errorf("hidden layer State() = %v, want paused", l.Engine().State())
	}

	host.emit(Event{Type: EventMoveEnd})
	if l.Engine().State() != Paused {
		t.Error("moveend resumed a hidden layer")
	}

	if err := l.Render(); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if len(ctx.draws) != 0 {
		t.Errorf("hidden layer drew %d calls", len(ctx.draws))
	}
}

func TestLayerCameraEvents(t *testing.T) {
	l, ctx, host := newTestLayer(t)
	host.emit(loadedEvent("currents-src"))

	host.emit(Event{Type: EventMoveStart})
	if l.Engine().State() != Paused {
		t.Fatalf("after movestart State() = %v, want paused", l.Engine().State())
	}
	if err := l.Render(); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if len(ctx.draws) != 0 {
		t.Errorf("Render() while moving drew %d calls", len(ctx.draws))
	}

	host.view = MercatorBounds(0, 40, 40, 0)
	host.emit(Event{Type: EventMoveEnd})
	if l.Engine().State() != Animating {
		t.Fatalf("after moveend State() = %v, want animating", l.Engine().State())
	}
	if l.Engine().ViewportBounds() != host.view {
		t.Errorf("viewport = %v, want refreshed %v", l.Engine().ViewportBounds(), host.view)
	}
	if err := l.Render(); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if len(ctx.draws) != 4 {
		t.Errorf("Render() drew %d calls, want 4", len(ctx.draws))
	}
}

func TestLayerVisibilityToggle(t *testing.T) {
	l, ctx, host := newTestLayer(t)

	// Toggling before any data has arrived must not fail.
	if err := l.SetVisible(false); err != nil {
		t.Fatalf("SetVisible(false) error = %v", err)
	}
	if err := l.SetVisible(true); err != nil {
		t.Fatalf("SetVisible(true) error = %v", err)
	}
	if err := l.Render(); err != nil {
		t.Fatalf("Render() without data error = %v", err)
	}
	if len(ctx.draws) != 0 {
		t.Errorf("Render() without data drew %d calls", len(ctx.draws))
	}

	host.emit(loadedEvent("currents-src"))
	if err := l.SetVisible(false); err != nil {
		t.Fatalf("SetVisible(false) error = %v", err)
	}
	if l.Visible() || l.Engine().State() != Paused {
		t.Error("hidden layer still animating")
	}
	if len(ctx.clears) == 0 {
		t.Error("hiding did not clear the render targets")
	}

	host.emit(Event{Type: EventMoveStart})
	if err := l.SetVisible(true); err != nil {
		t.Fatalf("SetVisible(true) error = %v", err)
	}
	if l.Engine().State() != Animating {
		t.Errorf("shown layer State() = %v, want animating", l.Engine().State())
	}
}

func TestLayerResizeEvent(t *testing.T) {
	l, ctx, host := newTestLayer(t)
	host.emit(loadedEvent("currents-src"))

	host.W, host.H = 48, 16
	host.emit(Event{Type: EventResize})
	screens := ctx.texturesLabeled("vfield_screen")
	if len(screens) != 2 || screens[0].Width != 48 || screens[0].Height != 16 {
		t.Errorf("screens after resize = %+v, want two 48x16", screens)
	}

	// Failures are logged, not propagated.
	host.W = 24
	ctx.failNext = 1
	host.emit(Event{Type: EventResize})
	if _, ok := l.Engine().Dataset(); !ok {
		t.Error("failed resize dropped the dataset")
	}
}

func TestLayerMetadata(t *testing.T) {
	l := NewLayer("a", "b")
	m := testMetadata()
	l.SetMetadata(m)
	if l.Metadata() != m {
		t.Errorf("Metadata() = %+v, want %+v", l.Metadata(), m)
	}
}
