package mission

import (
	"fmt"

	"github.com/Pedals2Paddles/ardupilot-solo/internal/core"
	"github.com/Pedals2Paddles/ardupilot-solo/internal/flightlog"
)

// ExecutorDeps are the vehicle ports the command handlers drive.
type ExecutorDeps struct {
	Nav        core.NavigationController
	Attitude   core.AttitudeSource
	Motion     core.MotionSource
	Altitude   core.AltitudeSource
	Position   core.PositionSource
	Rally      core.RallySource
	ServoRelay core.ServoRelayDevice
	Camera     core.CameraDevice
	Mount      core.MountDevice
	Notifier   core.Notifier
	Events     core.EventLog
	Clock      core.Clock
	Log        *flightlog.Logger
}

// ExecutorConfig carries the tunable navigation parameters. Cruise values
// are the configured defaults reloaded during the landing rollout after
// DO_CHANGE_SPEED may have altered the active ones.
type ExecutorConfig struct {
	WaypointRadiusM    float32
	WaypointMaxRadiusM float32 // 0 disables the max-radius override
	LoiterRadiusM      float32 // signed; the sign picks the RTL orbit direction
	LandFlareSec       float32
	LandFlareAltCm     int32

	AirspeedCruise    float32
	GroundspeedCruise float32
	ThrottleCruise    float32
}

type startFn func(cmd core.MissionCommand)
type verifyFn func(cmd core.MissionCommand) bool

// Executor owns the per-command-kind handlers. Start runs once when a
// command becomes active; Verify runs every tick until it reports
// completion and must never block.
type Executor struct {
	ctx  *core.FlightContext
	deps ExecutorDeps
	cfg  ExecutorConfig

	start  map[core.CommandKind]startFn
	verify map[core.CommandKind]verifyFn

	// rolloutDone marks the one-shot cruise parameter reload during the
	// landing ground roll.
	rolloutDone bool
}

func NewExecutor(ctx *core.FlightContext, cfg ExecutorConfig, deps ExecutorDeps) *Executor {
	e := &Executor{ctx: ctx, deps: deps, cfg: cfg}

	e.start = map[core.CommandKind]startFn{
		core.CmdTakeoff:            e.startTakeoff,
		core.CmdWaypoint:           e.startWaypoint,
		core.CmdLand:               e.startLand,
		core.CmdLoiterUnlimited:    e.startLoiterUnlimited,
		core.CmdLoiterTurns:        e.startLoiterTurns,
		core.CmdLoiterTime:         e.startLoiterTime,
		core.CmdReturnToLaunch:     e.startRTL,
		core.CmdConditionDelay:     e.startConditionDelay,
		core.CmdConditionDistance:  e.startConditionDistance,
		core.CmdConditionChangeAlt: e.startConditionChangeAlt,
		core.CmdDoChangeSpeed:      e.startChangeSpeed,
		core.CmdDoSetHome:          e.startSetHome,
		core.CmdDoSetServo:         e.forwardServoRelay,
		core.CmdDoSetRelay:         e.forwardServoRelay,
		core.CmdDoRepeatServo:      e.forwardServoRelay,
		core.CmdDoRepeatRelay:      e.forwardServoRelay,
		core.CmdDoControlVideo:     e.forwardCamera,
		core.CmdDoDigicamConfigure: e.forwardCamera,
		core.CmdDoDigicamControl:   e.forwardCamera,
		core.CmdDoSetCamTriggDist:  e.forwardCamera,
		core.CmdDoMountConfigure:   e.forwardMount,
		core.CmdDoMountControl:     e.forwardMount,
	}

	e.verify = map[core.CommandKind]verifyFn{
		core.CmdTakeoff:            e.verifyTakeoff,
		core.CmdWaypoint:           e.verifyWaypoint,
		core.CmdLand:               e.verifyLand,
		core.CmdLoiterUnlimited:    e.verifyLoiterUnlimited,
		core.CmdLoiterTurns:        e.verifyLoiterTurns,
		core.CmdLoiterTime:         e.verifyLoiterTime,
		core.CmdReturnToLaunch:     e.verifyRTL,
		core.CmdConditionDelay:     e.verifyConditionDelay,
		core.CmdConditionDistance:  e.verifyConditionDistance,
		core.CmdConditionChangeAlt: e.verifyConditionChangeAlt,
	}
	for _, kind := range []core.CommandKind{
		core.CmdDoChangeSpeed, core.CmdDoSetHome,
		core.CmdDoSetServo, core.CmdDoSetRelay,
		core.CmdDoRepeatServo, core.CmdDoRepeatRelay,
		core.CmdDoControlVideo, core.CmdDoDigicamConfigure,
		core.CmdDoDigicamControl, core.CmdDoSetCamTriggDist,
		core.CmdDoMountConfigure, core.CmdDoMountControl,
	} {
		e.verify[kind] = e.verifyDoCommand
	}

	return e
}

// Start runs the one-shot side effects of a command becoming active.
func (e *Executor) Start(cmd core.MissionCommand) {
	if h, ok := e.start[cmd.Kind]; ok {
		h(cmd)
		return
	}
	e.deps.Log.Warnf("start: unrecognized command %s #%d", cmd.Kind, cmd.Index)
}

// Verify reports whether the active command has completed. Unrecognized
// commands complete immediately so the mission never stalls on one.
func (e *Executor) Verify(cmd core.MissionCommand) bool {
	if h, ok := e.verify[cmd.Kind]; ok {
		return h(cmd)
	}
	if cmd.Kind.IsNav() {
		e.deps.Log.Warnf("verify_nav: invalid or no current nav command")
	} else {
		e.deps.Log.Warnf("verify_condition: invalid or no current condition command")
	}
	return true
}

// --- navigation commands ---

func (e *Executor) startTakeoff(cmd core.MissionCommand) {
	e.ctx.SetNextWaypoint(cmd.Location)
	e.ctx.TakeoffPitchCd = int32(cmd.Param1 * 100)
	e.ctx.TakeoffAltCm = cmd.Location.AltCm
	// Steer at a synthetic point just past home so the leg stays well
	// defined while the climb-out runs on heading hold.
	wp := e.ctx.NextWP
	wp.Lat = e.ctx.Home.Lat + 1e-6
	wp.Lng = e.ctx.Home.Lng + 1e-6
	e.ctx.NextWP = wp
	e.ctx.HoldCourseCd = core.HoldCourseNone
	e.ctx.Flags.TakeoffComplete = false
}

func (e *Executor) verifyTakeoff(cmd core.MissionCommand) bool {
	// Latch the climb-out course the first tick the yaw estimate is
	// valid; before that, keep the wings level.
	if e.deps.Attitude.YawInitialised() && e.ctx.HoldCourseCd == core.HoldCourseNone {
		e.ctx.HoldCourseCd = e.deps.Attitude.YawCd()
		e.deps.Log.Infof("takeoff: holding course %d", e.ctx.HoldCourseCd)
	}
	if e.ctx.HoldCourseCd != core.HoldCourseNone {
		e.deps.Nav.UpdateHeadingHold(e.ctx.HoldCourseCd)
	} else {
		e.deps.Nav.UpdateLevelFlight()
	}

	if e.deps.Altitude.AltitudeCm() > e.ctx.TakeoffAltCm {
		e.ctx.HoldCourseCd = core.HoldCourseNone
		e.ctx.Flags.TakeoffComplete = true
		loc := e.deps.Position.Location()
		e.ctx.PrevWP = loc
		e.ctx.NextWP = loc
		return true
	}
	return false
}

func (e *Executor) startWaypoint(cmd core.MissionCommand) {
	e.ctx.SetNextWaypoint(cmd.Location)
}

func (e *Executor) verifyWaypoint(cmd core.MissionCommand) bool {
	e.ctx.HoldCourseCd = core.HoldCourseNone
	e.deps.Nav.UpdateWaypoint(e.ctx.PrevWP, e.ctx.NextWP)

	loc := e.deps.Position.Location()
	wpDist := core.DistanceM(loc, e.ctx.NextWP)

	if e.cfg.WaypointMaxRadiusM > 0 && wpDist > e.cfg.WaypointMaxRadiusM {
		if core.PassedPoint(loc, e.ctx.PrevWP, e.ctx.NextWP) {
			// Restart the leg from here so the approach can complete.
			e.ctx.PrevWP = loc
		}
		return false
	}

	if wpDist <= e.deps.Nav.TurnDistance(e.cfg.WaypointRadiusM) {
		e.deps.Notifier.Notify(core.SeverityInfo,
			fmt.Sprintf("Reached waypoint #%d dist %.0fm", cmd.Index, wpDist))
		return true
	}
	if core.PassedPoint(loc, e.ctx.PrevWP, e.ctx.NextWP) {
		e.deps.Notifier.Notify(core.SeverityInfo,
			fmt.Sprintf("Passed waypoint #%d dist %.0fm", cmd.Index, wpDist))
		return true
	}
	return false
}

func (e *Executor) startLand(cmd core.MissionCommand) {
	e.ctx.SetNextWaypoint(cmd.Location)
	e.rolloutDone = false
}

// verifyLand never completes: landing is terminal and the vehicle state
// machine outside this layer takes over on the ground.
func (e *Executor) verifyLand(cmd core.MissionCommand) bool {
	loc := e.deps.Position.Location()
	wpDist := core.DistanceM(loc, e.ctx.NextWP)
	groundSpeed := e.deps.Motion.GroundSpeed()

	if wpDist <= groundSpeed*e.cfg.LandFlareSec ||
		e.deps.Altitude.AltitudeCm() <= e.ctx.NextWP.AltCm+e.cfg.LandFlareAltCm {
		e.ctx.Flags.Landed = true
		if e.ctx.HoldCourseCd == core.HoldCourseNone {
			// Entering the flare: hold the current heading so a late turn
			// cannot drop a wing into the runway.
			e.ctx.HoldCourseCd = e.deps.Attitude.YawCd()
			e.deps.Log.Infof("land: flare, holding course %d", e.ctx.HoldCourseCd)
		}
		if groundSpeed < 3 && !e.rolloutDone {
			// Rolling out; restore the cruise parameters the approach may
			// have altered.
			e.ctx.AirspeedCruise = e.cfg.AirspeedCruise
			e.ctx.GroundspeedCruise = e.cfg.GroundspeedCruise
			e.ctx.ThrottleCruise = e.cfg.ThrottleCruise
			e.rolloutDone = true
		}
	}

	if e.ctx.HoldCourseCd != core.HoldCourseNone {
		e.deps.Nav.UpdateHeadingHold(e.ctx.HoldCourseCd)
	} else {
		e.deps.Nav.UpdateWaypoint(e.ctx.PrevWP, e.ctx.NextWP)
	}
	return false
}

func (e *Executor) startLoiterUnlimited(cmd core.MissionCommand) {
	e.ctx.SetNextWaypoint(cmd.Location)
	e.ctx.Loiter.SetDirection(cmd.Location.LoiterCCW)
}

func (e *Executor) verifyLoiterUnlimited(cmd core.MissionCommand) bool {
	e.updateLoiter()
	return false
}

func (e *Executor) startLoiterTurns(cmd core.MissionCommand) {
	e.ctx.SetNextWaypoint(cmd.Location)
	e.ctx.Loiter.SetDirection(cmd.Location.LoiterCCW)
	e.ctx.Loiter.TotalCd = int32(cmd.Param1 * 36000)
}

func (e *Executor) verifyLoiterTurns(cmd core.MissionCommand) bool {
	e.updateLoiter()
	if e.deps.Nav.LoiterSumCd() > e.ctx.Loiter.TotalCd {
		e.ctx.Loiter.TotalCd = 0
		e.deps.Notifier.Notify(core.SeverityInfo, "Loiter orbits complete")
		return true
	}
	return false
}

func (e *Executor) startLoiterTime(cmd core.MissionCommand) {
	e.ctx.SetNextWaypoint(cmd.Location)
	e.ctx.Loiter.SetDirection(cmd.Location.LoiterCCW)
	e.ctx.Loiter.StartTimeMs = 0 // starts when the loiter target is reached
	e.ctx.Loiter.TimeMaxMs = uint32(cmd.Param1 * 1000)
}

func (e *Executor) verifyLoiterTime(cmd core.MissionCommand) bool {
	e.updateLoiter()
	if e.ctx.Loiter.StartTimeMs == 0 {
		if e.deps.Nav.ReachedLoiterTarget() {
			e.ctx.Loiter.StartTimeMs = e.deps.Clock.Millis()
		}
	} else if e.deps.Clock.Millis()-e.ctx.Loiter.StartTimeMs > e.ctx.Loiter.TimeMaxMs {
		e.deps.Notifier.Notify(core.SeverityInfo, "Loiter time complete")
		return true
	}
	return false
}

func (e *Executor) startRTL(cmd core.MissionCommand) {
	e.ctx.Mode = core.ModeRTL
	loc := e.deps.Position.Location()
	e.ctx.PrevWP = loc
	e.ctx.NextWP = e.deps.Rally.BestRallyLocation(loc, e.ctx.Home)
	e.ctx.Loiter.SetDirection(e.cfg.LoiterRadiusM < 0)
	e.ctx.TargetAltCm = e.ctx.NextWP.AltCm
	e.ctx.ResetOffsetAltitude(e.ctx.NextWP.AltCm - loc.AltCm)
}

func (e *Executor) verifyRTL(cmd core.MissionCommand) bool {
	e.updateLoiter()
	loc := e.deps.Position.Location()
	if core.DistanceM(loc, e.ctx.NextWP) <= e.cfg.WaypointRadiusM ||
		e.deps.Nav.ReachedLoiterTarget() {
		e.deps.Notifier.Notify(core.SeverityInfo, "Reached home")
		return true
	}
	return false
}

func (e *Executor) updateLoiter() {
	e.deps.Nav.UpdateLoiter(e.ctx.NextWP, e.ctx.Loiter.Direction)
}

// --- condition commands ---
// The Location fields of a condition command are packed numeric
// parameters, not coordinates.

func (e *Executor) startConditionDelay(cmd core.MissionCommand) {
	e.ctx.Condition.StartTimeMs = e.deps.Clock.Millis()
	e.ctx.Condition.Value = float32(cmd.Location.Lat * 1000) // seconds -> ms
}

func (e *Executor) verifyConditionDelay(cmd core.MissionCommand) bool {
	if e.deps.Clock.Millis()-e.ctx.Condition.StartTimeMs > uint32(e.ctx.Condition.Value) {
		e.ctx.Condition.Value = 0
		return true
	}
	return false
}

func (e *Executor) startConditionDistance(cmd core.MissionCommand) {
	e.ctx.Condition.Value = float32(cmd.Location.Lat) // metres
}

func (e *Executor) verifyConditionDistance(cmd core.MissionCommand) bool {
	threshold := e.ctx.Condition.Value
	if threshold < 0 {
		threshold = 0
	}
	loc := e.deps.Position.Location()
	if core.DistanceM(loc, e.ctx.NextWP) < threshold {
		e.ctx.Condition.Value = 0
		return true
	}
	return false
}

func (e *Executor) startConditionChangeAlt(cmd core.MissionCommand) {
	rate := int32(cmd.Location.Lat) // cm/s, magnitude
	if rate < 0 {
		rate = -rate
	}
	if cmd.Location.AltCm < e.deps.Altitude.AltitudeCm() {
		rate = -rate
	}
	e.ctx.Condition.RateCm = rate
	e.ctx.Condition.Value = float32(cmd.Location.AltCm)
	e.ctx.TargetAltCm = e.deps.Altitude.AltitudeCm() + rate/10
	// The following nav leg flies at the commanded altitude.
	e.ctx.NextWP.AltCm = cmd.Location.AltCm
	e.ctx.ResetOffsetAltitude(0)
}

func (e *Executor) verifyConditionChangeAlt(cmd core.MissionCommand) bool {
	rate := e.ctx.Condition.RateCm
	target := int32(e.ctx.Condition.Value)
	if (rate >= 0 && e.ctx.TargetAltCm >= target) ||
		(rate <= 0 && e.ctx.TargetAltCm <= target) {
		e.ctx.TargetAltCm = target
		e.ctx.Condition.RateCm = 0
		return true
	}
	// Ramp the altitude target at the commanded rate per tick.
	e.ctx.TargetAltCm += rate / 10
	return false
}

// --- do commands: one-shot, always complete ---

func (e *Executor) verifyDoCommand(cmd core.MissionCommand) bool {
	return true
}

func (e *Executor) startChangeSpeed(cmd core.MissionCommand) {
	// Param1 selects the speed type; Lat carries the speed in m/s and
	// the altitude field the throttle percentage.
	speed := float32(cmd.Location.Lat)
	switch int(cmd.Param1) {
	case 0:
		if speed > 0 {
			e.ctx.AirspeedCruise = speed
		}
	case 1:
		if speed > 0 {
			e.ctx.GroundspeedCruise = speed
		}
	}
	if cmd.Location.AltCm > 0 {
		e.ctx.ThrottleCruise = float32(cmd.Location.AltCm)
	}
}

func (e *Executor) startSetHome(cmd core.MissionCommand) {
	if cmd.Param1 == 1 && e.deps.Position.Has3DFix() {
		e.ctx.Home = e.deps.Position.Location()
	} else {
		e.ctx.Home = cmd.Location
	}
	e.ctx.Flags.HomeSet = true
}

func (e *Executor) forwardServoRelay(cmd core.MissionCommand) {
	e.deps.ServoRelay.HandleCommand(cmd)
}

func (e *Executor) forwardCamera(cmd core.MissionCommand) {
	e.deps.Camera.HandleCommand(cmd)
}

func (e *Executor) forwardMount(cmd core.MissionCommand) {
	e.deps.Mount.HandleCommand(cmd)
}
