package mission

import (
	"fmt"

	"github.com/Pedals2Paddles/ardupilot-solo/internal/core"
	"github.com/Pedals2Paddles/ardupilot-solo/internal/flightlog"
	"github.com/Pedals2Paddles/ardupilot-solo/internal/safety"
)

// Controller runs one decision-layer tick: refresh the flags the layer
// only reads, run both safety monitors, verify the active mission
// command, and advance the plan on completion. Monitor actions win over
// mission progression because they mutate the arming state the next
// phase of the same tick, and every later tick, observes.
type Controller struct {
	ctx     *core.FlightContext
	exec    *Executor
	crash   *safety.CrashMonitor
	chute   *safety.ParachuteMonitor
	arming  core.ArmingControl
	mission core.MissionSource

	events   core.EventLog
	notifier core.Notifier
	log      *flightlog.Logger

	index    int
	active   *core.MissionCommand
	finished bool
}

func NewController(
	ctx *core.FlightContext,
	exec *Executor,
	crash *safety.CrashMonitor,
	chute *safety.ParachuteMonitor,
	arming core.ArmingControl,
	mission core.MissionSource,
	events core.EventLog,
	notifier core.Notifier,
	log *flightlog.Logger,
) *Controller {
	return &Controller{
		ctx:      ctx,
		exec:     exec,
		crash:    crash,
		chute:    chute,
		arming:   arming,
		mission:  mission,
		events:   events,
		notifier: notifier,
		log:      log,
	}
}

// Tick runs the whole decision layer once. Called at the fixed
// control-loop rate; never blocks.
func (c *Controller) Tick() {
	c.ctx.Flags.Armed = c.arming.Armed()

	c.crash.Check(c.ctx)
	c.chute.Update(c.ctx)

	if !c.ctx.Flags.Armed || c.finished {
		return
	}

	if c.active == nil {
		c.advance()
		return
	}
	if c.exec.Verify(*c.active) {
		c.advance()
	}
}

// ManualParachuteRelease forwards an operator release request to the
// parachute monitor, which applies the landed/too-low gates.
func (c *Controller) ManualParachuteRelease() {
	c.chute.ManualRelease(c.ctx)
}

// Finished reports whether the plan has run out of commands.
func (c *Controller) Finished() bool { return c.finished }

// ActiveIndex returns the sequence number of the command being verified,
// or -1 when none is active.
func (c *Controller) ActiveIndex() int {
	if c.active == nil {
		return -1
	}
	return c.active.Index
}

// advance makes the next stored command active and runs its start
// handler. When the plan is exhausted the controller parks and reports
// the mission complete exactly once.
func (c *Controller) advance() {
	cmd, ok := c.mission.At(c.index)
	if !ok {
		c.active = nil
		c.finished = true
		c.notifier.Notify(core.SeverityInfo, "Mission complete")
		c.log.Infof("mission: no command at index %d, mission complete", c.index)
		return
	}
	c.index++

	c.events.LogCommand(cmd)
	c.notifier.Notify(core.SeverityInfo,
		fmt.Sprintf("Executing command #%d %s", cmd.Index, cmd.Kind))
	c.log.Infof("mission: executing #%d %s", cmd.Index, cmd.Kind)

	c.active = &cmd
	c.exec.Start(cmd)
}
