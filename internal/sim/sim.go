// Package sim is a kinematic stand-in for the vehicle side of the
// ports: enough physics to fly a mission in a dry run. Point-mass
// motion, instant attitude, perfect estimator.
package sim

import (
	"math"

	"github.com/Pedals2Paddles/ardupilot-solo/internal/core"
	"github.com/Pedals2Paddles/ardupilot-solo/internal/flightlog"
)

const (
	metersPerDegLat = 111195.0
	climbRateCmS    = 300
	loiterRadiusM   = 40
	orbitRateDegS   = 12
)

type navMode uint8

const (
	navLevel navMode = iota
	navHeading
	navWaypoint
	navLoiter
)

// Vehicle implements every vehicle-side port against a point-mass model.
// Step and the port methods must be called from the same goroutine.
type Vehicle struct {
	log *flightlog.Logger
	fc  *core.FlightContext

	armed bool
	loc   core.Location
	yawCd int32
	speed float32 // m/s

	mode      navMode
	courseCd  int32
	legPrev   core.Location
	legNext   core.Location
	center    core.Location
	direction int8
	reached   bool
	sumCd     int32
}

func New(start core.Location, log *flightlog.Logger) *Vehicle {
	return &Vehicle{log: log, loc: start, speed: 0, direction: 1}
}

// BindContext gives the model the decision layer's altitude target to
// climb against. Read-only from this side.
func (v *Vehicle) BindContext(fc *core.FlightContext) { v.fc = fc }

func (v *Vehicle) Arm() { v.armed = true }

// Step advances the model by dt seconds.
func (v *Vehicle) Step(dt float64) {
	if !v.armed {
		v.speed = 0
		return
	}
	cruise := float32(12)
	if v.fc != nil && v.fc.GroundspeedCruise > 0 {
		cruise = v.fc.GroundspeedCruise
	}
	v.speed = cruise

	switch v.mode {
	case navWaypoint:
		v.yawCd = bearingCd(v.loc, v.legNext)
		v.moveToward(v.legNext, float64(v.speed)*dt)
	case navLoiter:
		switch {
		case v.reached:
			stepCd := int32(orbitRateDegS * 100 * dt)
			v.sumCd += int32(v.direction) * stepCd
			v.yawCd = wrapCd(v.yawCd + int32(v.direction)*stepCd)
		case distM(v.loc, v.center) <= loiterRadiusM:
			v.reached = true
		default:
			v.yawCd = bearingCd(v.loc, v.center)
			v.moveToward(v.center, float64(v.speed)*dt)
		}
	case navHeading:
		v.yawCd = v.courseCd
		v.moveAlong(v.courseCd, float64(v.speed)*dt)
	case navLevel:
		v.moveAlong(v.yawCd, float64(v.speed)*dt)
	}

	if v.fc != nil {
		step := int32(climbRateCmS * dt)
		if d := v.fc.TargetAltCm - v.loc.AltCm; d > step {
			v.loc.AltCm += step
		} else if d < -step {
			v.loc.AltCm -= step
		} else {
			v.loc.AltCm = v.fc.TargetAltCm
		}
	}
}

// --- core.ArmingControl ---

func (v *Vehicle) Armed() bool { return v.armed }

func (v *Vehicle) Disarm() {
	v.armed = false
	v.log.Warnf("sim: disarmed")
}

// --- core.AttitudeSource ---

func (v *Vehicle) AttitudeErrorCd() (int32, int32)  { return 0, 0 }
func (v *Vehicle) YawCd() int32                     { return v.yawCd }
func (v *Vehicle) YawInitialised() bool             { return true }
func (v *Vehicle) TargetAttitudeCd() (int32, int32) { return 0, 0 }
func (v *Vehicle) AttitudeCd() (int32, int32)       { return 0, 0 }

// --- core.MotionSource ---

// FilteredAccelMSS reports gravity: the model is never in free fall.
func (v *Vehicle) FilteredAccelMSS() float32 { return 9.8 }
func (v *Vehicle) GroundSpeed() float32      { return v.speed }

// --- core.AltitudeSource / core.PositionSource ---

func (v *Vehicle) AltitudeCm() int32       { return v.loc.AltCm }
func (v *Vehicle) Has3DFix() bool          { return true }
func (v *Vehicle) Location() core.Location { return v.loc }

// --- core.NavigationController ---

func (v *Vehicle) UpdateHeadingHold(courseCd int32) {
	v.mode, v.courseCd = navHeading, courseCd
}

func (v *Vehicle) UpdateWaypoint(prev, next core.Location) {
	if v.mode != navWaypoint || next != v.legNext {
		v.mode, v.legPrev, v.legNext = navWaypoint, prev, next
	}
}

func (v *Vehicle) UpdateLoiter(center core.Location, direction int8) {
	if v.mode != navLoiter || center != v.center {
		v.mode, v.center, v.direction = navLoiter, center, direction
		v.reached, v.sumCd = false, 0
	}
}

func (v *Vehicle) UpdateLevelFlight() { v.mode = navLevel }

func (v *Vehicle) TurnDistance(radiusM float32) float32 { return radiusM }
func (v *Vehicle) ReachedLoiterTarget() bool            { return v.reached }
func (v *Vehicle) LoiterSumCd() int32                   { return v.sumCd }

// --- core.RallySource ---

func (v *Vehicle) BestRallyLocation(current, home core.Location) core.Location {
	return home
}

// --- geometry helpers ---

func (v *Vehicle) moveToward(to core.Location, distM float64) {
	dLatM := (to.Lat - v.loc.Lat) * metersPerDegLat
	dLngM := (to.Lng - v.loc.Lng) * metersPerDegLat * math.Cos(v.loc.Lat*math.Pi/180)
	total := math.Hypot(dLatM, dLngM)
	if total <= distM || total == 0 {
		v.loc.Lat, v.loc.Lng = to.Lat, to.Lng
		return
	}
	f := distM / total
	v.loc.Lat += (to.Lat - v.loc.Lat) * f
	v.loc.Lng += (to.Lng - v.loc.Lng) * f
}

func (v *Vehicle) moveAlong(courseCd int32, distM float64) {
	rad := float64(courseCd) / 100 * math.Pi / 180
	v.loc.Lat += math.Cos(rad) * distM / metersPerDegLat
	v.loc.Lng += math.Sin(rad) * distM / (metersPerDegLat * math.Cos(v.loc.Lat*math.Pi/180))
}

func bearingCd(from, to core.Location) int32 {
	dLatM := (to.Lat - from.Lat) * metersPerDegLat
	dLngM := (to.Lng - from.Lng) * metersPerDegLat * math.Cos(from.Lat*math.Pi/180)
	return wrapCd(int32(math.Atan2(dLngM, dLatM) * 180 / math.Pi * 100))
}

func wrapCd(cd int32) int32 {
	for cd < 0 {
		cd += 36000
	}
	for cd >= 36000 {
		cd -= 36000
	}
	return cd
}

func distM(a, b core.Location) float64 {
	dLatM := (b.Lat - a.Lat) * metersPerDegLat
	dLngM := (b.Lng - a.Lng) * metersPerDegLat * math.Cos(a.Lat*math.Pi/180)
	return math.Hypot(dLatM, dLngM)
}
