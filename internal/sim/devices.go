package sim

import (
	"github.com/Pedals2Paddles/ardupilot-solo/internal/core"
	"github.com/Pedals2Paddles/ardupilot-solo/internal/flightlog"
)

// Parachute is a recovery device model: a latch and a floor.
type Parachute struct {
	on       bool
	MinCm    int32
	Released bool

	log *flightlog.Logger
}

func NewParachute(enabled bool, minAltCm int32, log *flightlog.Logger) *Parachute {
	return &Parachute{on: enabled, MinCm: minAltCm, log: log}
}

func (p *Parachute) Enabled() bool        { return p.on }
func (p *Parachute) MinAltitudeCm() int32 { return p.MinCm }
func (p *Parachute) Update()              {}

func (p *Parachute) Release() {
	p.Released = true
	p.log.Warnf("sim: parachute released")
}

// Device is a named do-command sink standing in for the servo/relay,
// camera and mount drivers.
type Device struct {
	name string
	log  *flightlog.Logger
}

func NewDevice(name string, log *flightlog.Logger) *Device {
	return &Device{name: name, log: log}
}

func (d *Device) HandleCommand(cmd core.MissionCommand) {
	d.log.Infof("sim: %s handling #%d %s p1=%.1f", d.name, cmd.Index, cmd.Kind, cmd.Param1)
}
