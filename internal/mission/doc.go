// Package mission interprets the flight plan: one start handler and one
// verify handler per command kind, dispatched through lookup tables, and
// a controller that runs the safety monitors and advances the plan once
// per control-loop tick.
package mission
