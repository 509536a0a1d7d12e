package core

import "fmt"

// Mode is the vehicle control mode as far as the decision layer cares:
// it owns the transition into RTL and reads the rest.
type Mode uint8

const (
	ModeStabilize Mode = iota
	ModeAcro
	ModeFlip
	ModeAuto
	ModeLoiter
	ModeRTL
	ModeLand
)

func (m Mode) String() string {
	switch m {
	case ModeStabilize:
		return "STABILIZE"
	case ModeAcro:
		return "ACRO"
	case ModeFlip:
		return "FLIP"
	case ModeAuto:
		return "AUTO"
	case ModeLoiter:
		return "LOITER"
	case ModeRTL:
		return "RTL"
	case ModeLand:
		return "LAND"
	}
	return fmt.Sprintf("MODE(%d)", uint8(m))
}

// CommandKind identifies one mission command. Navigation kinds move the
// vehicle, condition kinds gate the following do-commands, do kinds are
// immediate one-shot actions.
type CommandKind uint8

const (
	CmdUnknown CommandKind = iota
	CmdTakeoff
	CmdWaypoint
	CmdLand
	CmdLoiterUnlimited
	CmdLoiterTurns
	CmdLoiterTime
	CmdReturnToLaunch
	CmdConditionDelay
	CmdConditionDistance
	CmdConditionChangeAlt
	CmdDoChangeSpeed
	CmdDoSetHome
	CmdDoSetServo
	CmdDoSetRelay
	CmdDoRepeatServo
	CmdDoRepeatRelay
	CmdDoControlVideo
	CmdDoDigicamConfigure
	CmdDoDigicamControl
	CmdDoSetCamTriggDist
	CmdDoMountConfigure
	CmdDoMountControl
)

var commandNames = map[CommandKind]string{
	CmdTakeoff:            "TAKEOFF",
	CmdWaypoint:           "WAYPOINT",
	CmdLand:               "LAND",
	CmdLoiterUnlimited:    "LOITER_UNLIM",
	CmdLoiterTurns:        "LOITER_TURNS",
	CmdLoiterTime:         "LOITER_TIME",
	CmdReturnToLaunch:     "RTL",
	CmdConditionDelay:     "CONDITION_DELAY",
	CmdConditionDistance:  "CONDITION_DISTANCE",
	CmdConditionChangeAlt: "CONDITION_CHANGE_ALT",
	CmdDoChangeSpeed:      "DO_CHANGE_SPEED",
	CmdDoSetHome:          "DO_SET_HOME",
	CmdDoSetServo:         "DO_SET_SERVO",
	CmdDoSetRelay:         "DO_SET_RELAY",
	CmdDoRepeatServo:      "DO_REPEAT_SERVO",
	CmdDoRepeatRelay:      "DO_REPEAT_RELAY",
	CmdDoControlVideo:     "DO_CONTROL_VIDEO",
	CmdDoDigicamConfigure: "DO_DIGICAM_CONFIGURE",
	CmdDoDigicamControl:   "DO_DIGICAM_CONTROL",
	CmdDoSetCamTriggDist:  "DO_SET_CAM_TRIGG_DIST",
	CmdDoMountConfigure:   "DO_MOUNT_CONFIGURE",
	CmdDoMountControl:     "DO_MOUNT_CONTROL",
}

func (k CommandKind) String() string {
	if s, ok := commandNames[k]; ok {
		return s
	}
	return fmt.Sprintf("CMD(%d)", uint8(k))
}

// CommandKindFromName is the inverse of String, for plan files.
func CommandKindFromName(name string) (CommandKind, bool) {
	for k, s := range commandNames {
		if s == name {
			return k, true
		}
	}
	return CmdUnknown, false
}

// IsNav reports whether the command moves the vehicle (as opposed to
// condition and do commands, which run alongside a navigation command).
func (k CommandKind) IsNav() bool {
	switch k {
	case CmdTakeoff, CmdWaypoint, CmdLand, CmdLoiterUnlimited,
		CmdLoiterTurns, CmdLoiterTime, CmdReturnToLaunch:
		return true
	}
	return false
}

// Location is a geodetic point. Altitude is centimetres above home so the
// comparisons against centidegree/centimetre thresholds stay integral.
type Location struct {
	Lat   float64
	Lng   float64
	AltCm int32

	// LoiterCCW selects counter-clockwise loiter around this point.
	LoiterCCW bool
}

// MissionCommand is one step of the flight plan, read-only for this layer.
// Condition and do commands reuse the Location fields as packed numeric
// parameters, the same overloading the mission storage uses.
type MissionCommand struct {
	Kind     CommandKind
	Index    int
	Param1   float32
	Location Location
}

// LoiterState tracks progress around the active loiter point.
// Reset by every loiter-kind start handler, discarded on command advance.
type LoiterState struct {
	Direction   int8 // +1 clockwise, -1 counter-clockwise, never 0
	TotalCd     int32
	StartTimeMs uint32
	TimeMaxMs   uint32
}

// SetDirection derives the orbit direction from a loiter-ccw flag.
func (l *LoiterState) SetDirection(ccw bool) {
	if ccw {
		l.Direction = -1
	} else {
		l.Direction = 1
	}
}

// ConditionRegisters are the scratch fields shared by the condition
// commands. Only one condition command is active at a time; each start
// handler overwrites all the registers it uses.
type ConditionRegisters struct {
	StartTimeMs uint32
	Value       float32
	RateCm      int32 // signed climb/descend rate for CONDITION_CHANGE_ALT, cm/s
}

// VehicleFlags are the arming/landing flags the decision layer reads.
// Armed and Landed transitions are owned by the arming subsystem; the
// land verify handler is the one writer of Landed inside this layer.
type VehicleFlags struct {
	Armed           bool
	Landed          bool
	TakeoffComplete bool
	HomeSet         bool
}

// HoldCourseNone marks the heading-hold latch as released.
const HoldCourseNone = -1

// FlightContext is the single shared state container for the decision
// layer. The scheduler owns it and hands it to every handler and monitor
// each tick; nothing else writes it between ticks.
type FlightContext struct {
	Mode  Mode
	Flags VehicleFlags

	Home   Location
	PrevWP Location
	NextWP Location

	Loiter    LoiterState
	Condition ConditionRegisters

	// TargetAltCm is the altitude the external pitch controller flies to.
	// OffsetAltCm is the glide-slope reference recomputed on leg changes.
	TargetAltCm int32
	OffsetAltCm int32

	// Takeoff scratch, valid from takeoff start until completion.
	TakeoffAltCm   int32
	TakeoffPitchCd int32

	// HoldCourseCd latches a heading (centidegrees) during takeoff roll
	// and landing flare; HoldCourseNone when released.
	HoldCourseCd int32

	// Cruise parameters, mutated by DO_CHANGE_SPEED and restored from the
	// configured defaults during the landing rollout.
	AirspeedCruise    float32 // m/s
	GroundspeedCruise float32 // m/s
	ThrottleCruise    float32 // percent
}

// NewFlightContext returns a context with the latches in their released
// state and a defined loiter direction.
func NewFlightContext() *FlightContext {
	ctx := &FlightContext{HoldCourseCd: HoldCourseNone}
	ctx.Loiter.Direction = 1
	return ctx
}

// SetNextWaypoint advances the navigation leg: the old target becomes the
// origin of the new leg and the glide-slope reference is rebased.
func (c *FlightContext) SetNextWaypoint(loc Location) {
	c.PrevWP = c.NextWP
	c.NextWP = loc
	c.TargetAltCm = loc.AltCm
	c.ResetOffsetAltitude(loc.AltCm - c.PrevWP.AltCm)
}

// ResetOffsetAltitude rebases the glide-slope reference. The slope itself
// is flown by the external navigation controller; this layer only keeps
// the offset it was derived from.
func (c *FlightContext) ResetOffsetAltitude(offsetCm int32) {
	c.OffsetAltCm = offsetCm
}
