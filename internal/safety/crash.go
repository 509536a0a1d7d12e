package safety

import (
	"math"

	"github.com/Pedals2Paddles/ardupilot-solo/internal/core"
	"github.com/Pedals2Paddles/ardupilot-solo/internal/flightlog"
)

// Deps are the vehicle ports shared by both monitors.
type Deps struct {
	Arming    core.ArmingControl
	Attitude  core.AttitudeSource
	Motion    core.MotionSource
	Altitude  core.AltitudeSource
	Parachute core.ParachuteDevice
	Notifier  core.Notifier
	Events    core.EventLog
	Log       *flightlog.Logger
}

// CrashConfig tunes the crash detector. Zero values are replaced by the
// nominal thresholds in NewCrashMonitor.
type CrashConfig struct {
	TriggerSec      float32 // consecutive seconds before disarm
	AccelMaxMSS     float32 // accel magnitude above which we are not stuck
	AngleErrorMaxCd int32   // attitude error tolerance
}

const (
	defaultCrashTriggerSec   = 2
	defaultCrashAccelMaxMSS  = 3.0
	defaultCrashAngleErrorCd = 3000
)

// CrashMonitor detects a vehicle that is commanded to fly but is neither
// tracking its attitude targets nor accelerating: stuck against an
// obstacle or on its back. The only action it knows is disarm.
type CrashMonitor struct {
	deps Deps
	cfg  CrashConfig

	triggerTicks uint32
	count        uint32
}

func NewCrashMonitor(cfg CrashConfig, tickRateHz int, deps Deps) *CrashMonitor {
	if cfg.TriggerSec <= 0 {
		cfg.TriggerSec = defaultCrashTriggerSec
	}
	if cfg.AccelMaxMSS <= 0 {
		cfg.AccelMaxMSS = defaultCrashAccelMaxMSS
	}
	if cfg.AngleErrorMaxCd <= 0 {
		cfg.AngleErrorMaxCd = defaultCrashAngleErrorCd
	}
	return &CrashMonitor{
		deps:         deps,
		cfg:          cfg,
		triggerTicks: uint32(cfg.TriggerSec * float32(tickRateHz)),
	}
}

// Check runs once per tick. Any disqualifying condition resets the
// counter and ends the evaluation; a fully qualifying tick increments
// it. The counter is clamped at the trigger threshold, so after firing
// it stays there until a disqualifying tick (normally the disarm it just
// commanded) resets it.
func (m *CrashMonitor) Check(ctx *core.FlightContext) {
	if !ctx.Flags.Armed || ctx.Flags.Landed {
		m.count = 0
		return
	}
	if ctx.Mode == core.ModeAcro || ctx.Mode == core.ModeFlip {
		m.count = 0
		return
	}
	if m.deps.Motion.FilteredAccelMSS() >= m.cfg.AccelMaxMSS {
		// Still accelerating, so not wedged or free-falling.
		m.count = 0
		return
	}
	rollCd, pitchCd := m.deps.Attitude.AttitudeErrorCd()
	if angleMagnitudeCd(rollCd, pitchCd) <= m.cfg.AngleErrorMaxCd {
		m.count = 0
		return
	}

	if m.count >= m.triggerTicks {
		return
	}
	m.count++
	if m.count == m.triggerTicks {
		m.deps.Log.Errorf("crash check: attitude error sustained for %.1fs, disarming", m.cfg.TriggerSec)
		m.deps.Events.LogError(core.SubsystemCrashCheck, core.ErrorCrashCheckCrash)
		m.deps.Notifier.Notify(core.SeverityCritical, "Crash: Disarming")
		m.deps.Arming.Disarm()
	}
}

// angleMagnitudeCd is the 2-D attitude error magnitude, yaw excluded.
func angleMagnitudeCd(rollCd, pitchCd int32) int32 {
	r := float64(rollCd)
	p := float64(pitchCd)
	return int32(math.Sqrt(r*r + p*p))
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
