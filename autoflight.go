// Package autoflight is the autonomous-flight decision layer: the
// mission interpreter and the crash/parachute safety monitors, run at a
// fixed control-loop rate against the vehicle ports the flight stack
// injects. It decides, it does not actuate: every effect goes out
// through a port.
package autoflight

import (
	"context"
	"sync"
	"time"

	"github.com/Pedals2Paddles/ardupilot-solo/internal/config"
	"github.com/Pedals2Paddles/ardupilot-solo/internal/core"
	"github.com/Pedals2Paddles/ardupilot-solo/internal/flightlog"
	"github.com/Pedals2Paddles/ardupilot-solo/internal/groundlink"
	"github.com/Pedals2Paddles/ardupilot-solo/internal/mission"
	"github.com/Pedals2Paddles/ardupilot-solo/internal/safety"
)

// Ports bundles every vehicle capability the decision layer consumes.
// All implementations must be synchronous and non-blocking; they are
// called from the tick loop.
type Ports struct {
	Arming     core.ArmingControl
	Attitude   core.AttitudeSource
	Motion     core.MotionSource
	Altitude   core.AltitudeSource
	Position   core.PositionSource
	Nav        core.NavigationController
	Parachute  core.ParachuteDevice
	Rally      core.RallySource
	ServoRelay core.ServoRelayDevice
	Camera     core.CameraDevice
	Mount      core.MountDevice
	Mission    core.MissionSource
	Notifier   core.Notifier
	Events     core.EventLog

	// Clock defaults to a monotonic millisecond clock started at New.
	Clock core.Clock
}

// Engine owns the FlightContext and runs one decision tick at the
// configured rate.
type Engine struct {
	cfg  *config.Config
	log  *flightlog.Logger
	ctx  *core.FlightContext
	ctl  *mission.Controller
	prts Ports

	mu   sync.Mutex
	snap groundlink.Snapshot
}

func New(cfg *config.Config, log *flightlog.Logger, ports Ports) *Engine {
	if ports.Clock == nil {
		ports.Clock = NewMonotonicClock()
	}

	fctx := core.NewFlightContext()
	fctx.AirspeedCruise = cfg.Cruise.AirspeedMS
	fctx.GroundspeedCruise = cfg.Cruise.GroundspeedMS
	fctx.ThrottleCruise = cfg.Cruise.ThrottlePct

	deps := safety.Deps{
		Arming:    ports.Arming,
		Attitude:  ports.Attitude,
		Motion:    ports.Motion,
		Altitude:  ports.Altitude,
		Parachute: ports.Parachute,
		Notifier:  ports.Notifier,
		Events:    ports.Events,
		Log:       log,
	}
	crash := safety.NewCrashMonitor(safety.CrashConfig{
		TriggerSec:      cfg.Crash.TriggerSec,
		AccelMaxMSS:     cfg.Crash.AccelMaxMSS,
		AngleErrorMaxCd: cfg.Crash.AngleErrorMaxCd,
	}, cfg.TickRateHz, deps)
	chute := safety.NewParachuteMonitor(safety.ParachuteConfig{
		TriggerSec:      cfg.Parachute.TriggerSec,
		AngleErrorMaxCd: cfg.Parachute.AngleErrorMaxCd,
	}, cfg.TickRateHz, deps)

	exec := mission.NewExecutor(fctx, mission.ExecutorConfig{
		WaypointRadiusM:    cfg.Waypoint.RadiusM,
		WaypointMaxRadiusM: cfg.Waypoint.MaxRadiusM,
		LoiterRadiusM:      cfg.Waypoint.LoiterRadiusM,
		LandFlareSec:       cfg.Landing.FlareSec,
		LandFlareAltCm:     cfg.Landing.FlareAltCm,
		AirspeedCruise:     cfg.Cruise.AirspeedMS,
		GroundspeedCruise:  cfg.Cruise.GroundspeedMS,
		ThrottleCruise:     cfg.Cruise.ThrottlePct,
	}, mission.ExecutorDeps{
		Nav:        ports.Nav,
		Attitude:   ports.Attitude,
		Motion:     ports.Motion,
		Altitude:   ports.Altitude,
		Position:   ports.Position,
		Rally:      ports.Rally,
		ServoRelay: ports.ServoRelay,
		Camera:     ports.Camera,
		Mount:      ports.Mount,
		Notifier:   ports.Notifier,
		Events:     ports.Events,
		Clock:      ports.Clock,
		Log:        log,
	})

	ctl := mission.NewController(fctx, exec, crash, chute,
		ports.Arming, ports.Mission, ports.Events, ports.Notifier, log)

	return &Engine{cfg: cfg, log: log, ctx: fctx, ctl: ctl, prts: ports}
}

// Run ticks the decision layer at the configured rate until the context
// is cancelled. A missed deadline is dropped, never caught up.
func (e *Engine) Run(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		e.log.Infof("decision layer running at %d Hz", e.cfg.TickRateHz)
		ticker := time.NewTicker(time.Second / time.Duration(e.cfg.TickRateHz))
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				e.log.Infof("decision layer shutting down")
				return
			case <-ticker.C:
				e.Tick()
			}
		}
	}()
}

// Tick runs one decision cycle and republishes the telemetry snapshot.
// Exposed so a host flight stack with its own scheduler can drive the
// layer from its loop instead of Run.
func (e *Engine) Tick() {
	e.ctl.Tick()

	loc := e.prts.Position.Location()
	s := groundlink.Snapshot{
		Armed:        e.ctx.Flags.Armed,
		Mode:         e.ctx.Mode.String(),
		CommandIndex: e.ctl.ActiveIndex(),
		Lat:          loc.Lat,
		Lon:          loc.Lng,
		AltM:         float64(e.prts.Altitude.AltitudeCm()) / 100,
		GroundSpeed:  float64(e.prts.Motion.GroundSpeed()),
	}
	e.mu.Lock()
	e.snap = s
	e.mu.Unlock()
}

// Snapshot returns the last tick-published telemetry frame; safe to call
// from the ground-link goroutine.
func (e *Engine) Snapshot() groundlink.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snap
}

// ManualParachuteRelease is the operator release request path.
func (e *Engine) ManualParachuteRelease() {
	e.ctl.ManualParachuteRelease()
}

// Context exposes the flight context for the host flight stack's own
// readers (telemetry, logging). Single-writer rule still applies.
func (e *Engine) Context() *core.FlightContext { return e.ctx }

// MonotonicClock is the default Clock: milliseconds since construction.
type MonotonicClock struct {
	start time.Time
}

func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{start: time.Now()}
}

func (c *MonotonicClock) Millis() uint32 {
	return uint32(time.Since(c.start).Milliseconds())
}
