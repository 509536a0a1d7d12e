// Package core holds the shared flight state operated on by the mission
// executor and the safety monitors, plus the ports through which the
// decision layer talks to the rest of the vehicle.
//
// Everything in here is tick-local: the scheduler owns one FlightContext
// and passes it by reference into each component once per control-loop
// tick. There is no locking because there is no concurrent writer.
package core
