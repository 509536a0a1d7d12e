// Package coretest provides in-memory implementations of the vehicle
// ports for tests. Each fake records what was asked of it; none of them
// block or touch hardware.
package coretest

import "github.com/Pedals2Paddles/ardupilot-solo/internal/core"

type Arming struct {
	ArmedState bool
	Disarms    int
}

func (a *Arming) Armed() bool { return a.ArmedState }
func (a *Arming) Disarm()     { a.ArmedState = false; a.Disarms++ }

type Attitude struct {
	RollErrCd, PitchErrCd     int32
	Yaw                       int32
	YawInit                   bool
	TargetRollCd, TargetPitCd int32
	RollCd, PitchCd           int32
}

func (a *Attitude) AttitudeErrorCd() (int32, int32)  { return a.RollErrCd, a.PitchErrCd }
func (a *Attitude) YawCd() int32                     { return a.Yaw }
func (a *Attitude) YawInitialised() bool             { return a.YawInit }
func (a *Attitude) TargetAttitudeCd() (int32, int32) { return a.TargetRollCd, a.TargetPitCd }
func (a *Attitude) AttitudeCd() (int32, int32)       { return a.RollCd, a.PitchCd }

type Motion struct {
	AccelMSS float32
	SpeedMS  float32
}

func (m *Motion) FilteredAccelMSS() float32 { return m.AccelMSS }
func (m *Motion) GroundSpeed() float32      { return m.SpeedMS }

type Altitude struct {
	Cm int32
}

func (a *Altitude) AltitudeCm() int32 { return a.Cm }

type Position struct {
	Fix bool
	Loc core.Location
}

func (p *Position) Has3DFix() bool         { return p.Fix }
func (p *Position) Location() core.Location { return p.Loc }

// Nav records every call the executor makes into the navigation
// controller and returns canned geometry.
type Nav struct {
	HeadingHolds []int32
	WaypointLegs int
	LevelFlights int
	LoiterCalls  int

	LastPrev, LastNext core.Location
	LoiterCenter       core.Location
	LoiterDir          int8

	TurnDistanceM float32
	Reached       bool
	SumCd         int32
}

func (n *Nav) UpdateHeadingHold(courseCd int32) { n.HeadingHolds = append(n.HeadingHolds, courseCd) }
func (n *Nav) UpdateWaypoint(prev, next core.Location) {
	n.WaypointLegs++
	n.LastPrev, n.LastNext = prev, next
}
func (n *Nav) UpdateLoiter(center core.Location, dir int8) {
	n.LoiterCalls++
	n.LoiterCenter, n.LoiterDir = center, dir
}
func (n *Nav) UpdateLevelFlight()                 { n.LevelFlights++ }
func (n *Nav) TurnDistance(radiusM float32) float32 { return n.TurnDistanceM }
func (n *Nav) ReachedLoiterTarget() bool          { return n.Reached }
func (n *Nav) LoiterSumCd() int32                 { return n.SumCd }

type Parachute struct {
	On       bool
	MinAltCm int32
	Updates  int
	Releases int
}

func (p *Parachute) Enabled() bool        { return p.On }
func (p *Parachute) MinAltitudeCm() int32 { return p.MinAltCm }
func (p *Parachute) Update()              { p.Updates++ }
func (p *Parachute) Release()             { p.Releases++ }

// Rally returns Best when set, otherwise home (no rally points loaded).
type Rally struct {
	Best *core.Location
}

func (r *Rally) BestRallyLocation(current, home core.Location) core.Location {
	if r.Best != nil {
		return *r.Best
	}
	return home
}

type Notification struct {
	Severity core.Severity
	Text     string
}

type Notifier struct {
	Sent []Notification
}

func (n *Notifier) Notify(sev core.Severity, msg string) {
	n.Sent = append(n.Sent, Notification{sev, msg})
}

type LoggedError struct {
	Sub  core.Subsystem
	Code core.ErrorCode
}

type Events struct {
	Errors   []LoggedError
	Events   []core.EventCode
	Commands []core.MissionCommand
}

func (e *Events) LogError(sub core.Subsystem, code core.ErrorCode) {
	e.Errors = append(e.Errors, LoggedError{sub, code})
}
func (e *Events) LogEvent(code core.EventCode)          { e.Events = append(e.Events, code) }
func (e *Events) LogCommand(cmd core.MissionCommand)    { e.Commands = append(e.Commands, cmd) }

// Device collects forwarded do-commands; used for servo/relay, camera,
// and mount ports alike.
type Device struct {
	Commands []core.MissionCommand
}

func (d *Device) HandleCommand(cmd core.MissionCommand) { d.Commands = append(d.Commands, cmd) }

type Mission struct {
	Items []core.MissionCommand
}

func (m *Mission) Count() int { return len(m.Items) }
func (m *Mission) At(i int) (core.MissionCommand, bool) {
	if i < 0 || i >= len(m.Items) {
		return core.MissionCommand{}, false
	}
	return m.Items[i], true
}

// Clock is a hand-advanced millisecond clock.
type Clock struct {
	NowMs uint32
}

func (c *Clock) Millis() uint32     { return c.NowMs }
func (c *Clock) Advance(ms uint32)  { c.NowMs += ms }
