package mission

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Pedals2Paddles/ardupilot-solo/internal/core"
)

func writePlan(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadPlan(t *testing.T) {
	path := writePlan(t, `
- command: TAKEOFF
  param1: 15
  alt_m: 50
- command: WAYPOINT
  lat: 47.399
  lng: 8.5456
  alt_m: 80
- command: LOITER_TURNS
  param1: 2
  lat: 47.398
  lng: 8.548
  alt_m: 80
  ccw: true
- command: RTL
`)
	plan, err := LoadPlan(path)
	if err != nil {
		t.Fatal(err)
	}
	if plan.Count() != 4 {
		t.Fatalf("Count() = %d, want 4", plan.Count())
	}

	first, ok := plan.At(0)
	if !ok {
		t.Fatal("At(0) missing")
	}
	if first.Kind != core.CmdTakeoff || first.Index != 1 || first.Param1 != 15 {
		t.Errorf("first = %+v", first)
	}
	if first.Location.AltCm != 5000 {
		t.Errorf("first alt = %d cm, want 5000", first.Location.AltCm)
	}

	loiter, _ := plan.At(2)
	if loiter.Kind != core.CmdLoiterTurns || !loiter.Location.LoiterCCW {
		t.Errorf("loiter = %+v", loiter)
	}
	if loiter.Location.Lat != 47.398 || loiter.Location.Lng != 8.548 {
		t.Errorf("loiter location = %+v", loiter.Location)
	}

	last, _ := plan.At(3)
	if last.Kind != core.CmdReturnToLaunch || last.Index != 4 {
		t.Errorf("last = %+v", last)
	}

	if _, ok := plan.At(4); ok {
		t.Error("At(4) should be out of range")
	}
	if _, ok := plan.At(-1); ok {
		t.Error("At(-1) should be out of range")
	}
}

func TestLoadPlanUnknownCommand(t *testing.T) {
	path := writePlan(t, "- command: FLY_BACKWARDS\n")
	if _, err := LoadPlan(path); err == nil {
		t.Fatal("expected error for unknown command")
	}
}

func TestLoadPlanMissingFile(t *testing.T) {
	if _, err := LoadPlan(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
