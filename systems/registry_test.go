package systems

import (
	"slices"
	"testing"

	"github.com/pthm-cable/shoal/telemetry"
)

func TestRegistryCoversEveryPhase(t *testing.T) {
	reg := NewSystemRegistry()
	if got := reg.IDs(); !slices.Equal(got, telemetry.Phases) {
		t.Errorf("got %v, want %v", got, telemetry.Phases)
	}
	if got := reg.GetName(telemetry.PhaseSpatialIndex); got != "Spatial Index" {
		t.Errorf("got %q, want %q", got, "Spatial Index")
	}
	if got := reg.GetName("unknown"); got != "unknown" {
		t.Errorf("got %q, want fallback to the ID", got)
	}
}
