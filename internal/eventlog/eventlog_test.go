package eventlog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Pedals2Paddles/ardupilot-solo/internal/core"
	"github.com/Pedals2Paddles/ardupilot-solo/internal/core/coretest"
)

func TestWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.bin")
	clock := &coretest.Clock{NowMs: 1000}

	w, err := NewWriter(path, clock, nil)
	if err != nil {
		t.Fatal(err)
	}
	w.LogError(core.SubsystemCrashCheck, core.ErrorCrashCheckCrash)
	clock.Advance(20)
	w.LogEvent(core.EventParachuteReleased)
	clock.Advance(20)
	cmd := core.MissionCommand{
		Kind:     core.CmdWaypoint,
		Index:    7,
		Param1:   2.5,
		Location: core.Location{Lat: 60.1, Lng: 24.2, AltCm: 5000},
	}
	w.LogCommand(cmd)
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll() = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}

	if r := records[0]; r.Type != RecordError || r.TimeMs != 1000 ||
		r.Subsystem != uint8(core.SubsystemCrashCheck) || r.Code != uint8(core.ErrorCrashCheckCrash) {
		t.Errorf("error record = %+v", r)
	}
	if r := records[1]; r.Type != RecordEvent || r.TimeMs != 1020 ||
		r.Code != uint8(core.EventParachuteReleased) {
		t.Errorf("event record = %+v", r)
	}
	r := records[2]
	if r.Type != RecordCommand || r.TimeMs != 1040 ||
		r.CmdKind != uint8(core.CmdWaypoint) || r.CmdIndex != 7 ||
		r.Param1 != 2.5 || r.Lat != 60.1 || r.Lng != 24.2 || r.AltCm != 5000 {
		t.Errorf("command record = %+v", r)
	}
}

func TestWriterAppendsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.bin")
	clock := &coretest.Clock{}

	w, err := NewWriter(path, clock, nil)
	if err != nil {
		t.Fatal(err)
	}
	w.LogEvent(core.EventParachuteReleased)
	w.Close()

	w, err = NewWriter(path, clock, nil)
	if err != nil {
		t.Fatal(err)
	}
	w.LogEvent(core.EventParachuteNotReleased)
	w.Close()

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := ReadAll(f)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records after reopen, want 2", len(records))
	}
}
