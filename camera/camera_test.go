package camera

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func TestNewFitsWorld(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)

	if cam.Center.X != 1280 || cam.Center.Y != 720 {
		t.Errorf("expected camera at (1280, 720), got (%f, %f)", cam.Center.X, cam.Center.Y)
	}
	if cam.Zoom != 0.5 {
		t.Errorf("expected zoom 0.5, got %f", cam.Zoom)
	}
	minX, minY, maxX, maxY := cam.VisibleWorldBounds()
	if minX != 0 || minY != 0 || maxX != 2560 || maxY != 1440 {
		t.Errorf("visible bounds = (%f,%f)-(%f,%f), want whole world", minX, minY, maxX, maxY)
	}
}

func TestWorldToScreenCentered(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)

	sx, sy := cam.WorldToScreen(r2.Vec{X: 1280, Y: 720})
	if math.Abs(float64(sx-640)) > 0.01 || math.Abs(float64(sy-360)) > 0.01 {
		t.Errorf("expected screen center (640, 360), got (%f, %f)", sx, sy)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)
	cam.SetZoom(2)
	cam.Pan(100, -50)

	testCases := []struct{ sx, sy float32 }{
		{640, 360},  // center
		{100, 100},  // top-left
		{1200, 600}, // near bottom-right
	}

	for _, tc := range testCases {
		w := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(w)
		if math.Abs(float64(sx-tc.sx)) > 0.01 || math.Abs(float64(sy-tc.sy)) > 0.01 {
			t.Errorf("roundtrip failed: (%f,%f) -> %v -> (%f,%f)", tc.sx, tc.sy, w, sx, sy)
		}
	}
}

func TestPanClampsToWorld(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)
	cam.SetZoom(1)

	cam.Pan(-10000, -10000)
	if cam.Center.X != 640 || cam.Center.Y != 360 {
		t.Errorf("center = %v, want (640, 360)", cam.Center)
	}
	cam.Pan(1e6, 1e6)
	if cam.Center.X != 1920 || cam.Center.Y != 1080 {
		t.Errorf("center = %v, want (1920, 1080)", cam.Center)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)

	tests := []struct {
		name   string
		factor float64
		want   float64
	}{
		{"below min", 0.01, 0.5},
		{"in range", 4, 2},
		{"above max", 1000, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam.Reset()
			cam.ZoomBy(tt.factor)
			if cam.Zoom != tt.want {
				t.Errorf("got zoom %f, want %f", cam.Zoom, tt.want)
			}
		})
	}
}

func TestZoomAtKeepsCursorAnchor(t *testing.T) {
	cam := New(1000, 1000, 1000, 1000)
	before := cam.ScreenToWorld(600, 400)
	cam.ZoomAt(600, 400, 2)
	after := cam.ScreenToWorld(600, 400)
	if math.Abs(before.X-after.X) > 1e-9 || math.Abs(before.Y-after.Y) > 1e-9 {
		t.Errorf("anchor moved: %v -> %v", before, after)
	}
}

func TestFollowCentersWhenWorldSmaller(t *testing.T) {
	cam := New(1280, 720, 400, 300)
	cam.Follow(r2.Vec{X: 10, Y: 10})
	if cam.Center.X != 200 || cam.Center.Y != 150 {
		t.Errorf("center = %v, want world center", cam.Center)
	}
}

func TestIsVisible(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)
	cam.SetZoom(1)
	cam.Follow(r2.Vec{X: 1280, Y: 720})

	tests := []struct {
		name   string
		p      r2.Vec
		radius float64
		want   bool
	}{
		{"center", r2.Vec{X: 1280, Y: 720}, 1, true},
		{"just outside", r2.Vec{X: 1280 + 650, Y: 720}, 5, false},
		{"radius overlaps edge", r2.Vec{X: 1280 + 645, Y: 720}, 10, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cam.IsVisible(tt.p, tt.radius); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
