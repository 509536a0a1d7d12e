package core

// Ports consumed by the decision layer. All of them are assumed
// synchronous and non-blocking: they are called every tick and never
// retried on failure (fire-and-forget, spec'd by the vehicle side).

// ArmingControl exposes the motor arming subsystem.
type ArmingControl interface {
	Armed() bool
	Disarm()
}

// AttitudeSource is the attitude estimator plus the attitude controller's
// current targets. Angles are centidegrees.
type AttitudeSource interface {
	// AttitudeErrorCd returns the controller's roll/pitch tracking error.
	AttitudeErrorCd() (rollCd, pitchCd int32)
	YawCd() int32
	YawInitialised() bool
	// TargetAttitudeCd returns the commanded roll/pitch.
	TargetAttitudeCd() (rollCd, pitchCd int32)
	// AttitudeCd returns the estimated actual roll/pitch.
	AttitudeCd() (rollCd, pitchCd int32)
}

// MotionSource provides filtered kinematics from the inertial estimator.
type MotionSource interface {
	// FilteredAccelMSS is the magnitude of the filtered earth-frame
	// acceleration vector in m/s/s.
	FilteredAccelMSS() float32
	GroundSpeed() float32 // m/s
}

// AltitudeSource is the barometric altitude above home, centimetres.
type AltitudeSource interface {
	AltitudeCm() int32
}

// PositionSource is the position estimate consumed for leg geometry and
// home capture.
type PositionSource interface {
	Has3DFix() bool
	Location() Location
}

// NavigationController is the lateral navigation service. This layer
// feeds it legs and loiter points and reads back its completion geometry;
// the bearing/cross-track math stays on the other side of this port.
type NavigationController interface {
	UpdateHeadingHold(courseCd int32)
	UpdateWaypoint(prev, next Location)
	UpdateLoiter(center Location, direction int8)
	UpdateLevelFlight()
	// TurnDistance is how far before the waypoint the turn should begin
	// for the given acceptance radius, metres.
	TurnDistance(radiusM float32) float32
	ReachedLoiterTarget() bool
	// LoiterSumCd is the accumulated orbit angle since the loiter target
	// was captured, centidegrees.
	LoiterSumCd() int32
}

// ParachuteDevice is the recovery hardware.
type ParachuteDevice interface {
	Enabled() bool
	// MinAltitudeCm below which automatic and manual release are refused;
	// zero disables the gate.
	MinAltitudeCm() int32
	// Update lets the device settle its servo/relay output; called every
	// tick while the subsystem is enabled.
	Update()
	Release()
}

// RallySource picks the best recovery point for a return-to-launch:
// home or the nearest rally point.
type RallySource interface {
	BestRallyLocation(current, home Location) Location
}

// Severity grades operator notifications.
type Severity uint8

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	}
	return "unknown"
}

// Notifier surfaces operator-facing status text (ground station link).
type Notifier interface {
	Notify(severity Severity, message string)
}

// Subsystem/error/event codes for the persistent event log. Values are
// stable because the log is parsed offline.
type (
	Subsystem uint8
	ErrorCode uint8
	EventCode uint8
)

const (
	SubsystemCrashCheck Subsystem = 12
	SubsystemParachute  Subsystem = 15
)

const (
	ErrorCrashCheckCrash      ErrorCode = 1
	ErrorCrashCheckLossOfCtrl ErrorCode = 2
	ErrorParachuteTooLow      ErrorCode = 2
)

const (
	EventParachuteReleased    EventCode = 49
	EventParachuteNotReleased EventCode = 50
)

// EventLog is the persistent dataflash-style log.
type EventLog interface {
	LogError(sub Subsystem, code ErrorCode)
	LogEvent(code EventCode)
	LogCommand(cmd MissionCommand)
}

// ServoRelayDevice executes the servo/relay do-commands. Commands are
// forwarded verbatim; the device decodes the packed parameter fields.
type ServoRelayDevice interface {
	HandleCommand(cmd MissionCommand)
}

// CameraDevice executes camera trigger/configure do-commands.
type CameraDevice interface {
	HandleCommand(cmd MissionCommand)
}

// MountDevice executes camera-mount do-commands.
type MountDevice interface {
	HandleCommand(cmd MissionCommand)
}

// MissionSource is read-only mission storage.
type MissionSource interface {
	Count() int
	At(index int) (MissionCommand, bool)
}

// Clock is the monotonic millisecond clock the timed commands compare
// against. Injected so the timers run at simulated rates under test.
type Clock interface {
	Millis() uint32
}
