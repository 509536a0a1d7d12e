package safety

import "github.com/Pedals2Paddles/ardupilot-solo/internal/core"

// ParachuteConfig tunes the loss-of-control detector.
type ParachuteConfig struct {
	TriggerSec      float32
	AngleErrorMaxCd int32
}

const (
	defaultChuteTriggerSec   = 1
	defaultChuteAngleErrorCd = 3000
)

// ParachuteMonitor watches for a vehicle that is both failing to track
// its roll/pitch targets and losing altitude, and releases the parachute
// when the condition persists for the trigger interval. An episode that
// stops falling is abandoned without a release.
type ParachuteMonitor struct {
	deps Deps
	cfg  ParachuteConfig

	triggerTicks uint32
	count        uint32
	altStartCm   int32
}

func NewParachuteMonitor(cfg ParachuteConfig, tickRateHz int, deps Deps) *ParachuteMonitor {
	if cfg.TriggerSec <= 0 {
		cfg.TriggerSec = defaultChuteTriggerSec
	}
	if cfg.AngleErrorMaxCd <= 0 {
		cfg.AngleErrorMaxCd = defaultChuteAngleErrorCd
	}
	return &ParachuteMonitor{
		deps:         deps,
		cfg:          cfg,
		triggerTicks: uint32(cfg.TriggerSec * float32(tickRateHz)),
	}
}

// Update runs once per tick. The device's own update always runs first so
// its servo/relay output can settle even while the detector is gated.
func (m *ParachuteMonitor) Update(ctx *core.FlightContext) {
	if !m.deps.Parachute.Enabled() {
		return
	}
	m.deps.Parachute.Update()

	if !ctx.Flags.Armed {
		m.count = 0
		return
	}
	if ctx.Mode == core.ModeAcro || ctx.Mode == core.ModeFlip {
		m.count = 0
		return
	}
	if ctx.Flags.Landed {
		m.count = 0
		return
	}

	altCm := m.deps.Altitude.AltitudeCm()

	// Do not arm the detector below the minimum release altitude. Once an
	// episode has started the gate no longer applies.
	minAltCm := m.deps.Parachute.MinAltitudeCm()
	if m.count == 0 && minAltCm > 0 && altCm < minAltCm {
		return
	}

	targetRollCd, targetPitchCd := m.deps.Attitude.TargetAttitudeCd()
	rollCd, pitchCd := m.deps.Attitude.AttitudeCd()
	if abs32(targetRollCd-rollCd) <= m.cfg.AngleErrorMaxCd &&
		abs32(targetPitchCd-pitchCd) <= m.cfg.AngleErrorMaxCd {
		m.count = 0
		return
	}

	// The clamp runs before the falling check: a long deviation that
	// stops falling resets from the clamped value.
	if m.count < m.triggerTicks {
		m.count++
	}

	if m.count == 1 {
		// Episode start: sample the altitude the fall is judged against.
		m.altStartCm = altCm
	} else if altCm >= m.altStartCm {
		// Not falling; abandon the episode.
		m.count = 0
	} else if m.count >= m.triggerTicks {
		m.count = 0
		m.deps.Log.Errorf("parachute: loss of control for %.1fs, releasing", m.cfg.TriggerSec)
		m.deps.Events.LogError(core.SubsystemCrashCheck, core.ErrorCrashCheckLossOfCtrl)
		m.release()
	}
}

// ManualRelease is the operator-commanded path. It refuses on the ground
// and below the minimum altitude, otherwise behaves exactly like an
// automatic release.
func (m *ParachuteMonitor) ManualRelease(ctx *core.FlightContext) {
	if !m.deps.Parachute.Enabled() {
		return
	}
	if ctx.Flags.Landed {
		m.deps.Notifier.Notify(core.SeverityWarning, "Parachute: Landed")
		m.deps.Events.LogError(core.SubsystemParachute, core.ErrorParachuteTooLow)
		return
	}
	minAltCm := m.deps.Parachute.MinAltitudeCm()
	if minAltCm > 0 && m.deps.Altitude.AltitudeCm() < minAltCm {
		m.deps.Notifier.Notify(core.SeverityWarning, "Parachute: Too low")
		m.deps.Events.LogError(core.SubsystemParachute, core.ErrorParachuteTooLow)
		return
	}
	m.release()
}

// release disarms and fires the device; shared by the automatic and
// manual paths.
func (m *ParachuteMonitor) release() {
	m.deps.Notifier.Notify(core.SeverityCritical, "Parachute: Released!")
	m.deps.Events.LogEvent(core.EventParachuteReleased)
	m.deps.Arming.Disarm()
	m.deps.Parachute.Release()
}
