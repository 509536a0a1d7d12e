// Package safety holds the two per-tick monitors that can abort a flight
// independently of mission progress: the crash detector and the
// parachute loss-of-control detector. Both keep a consecutive-tick
// counter and fire once when it reaches the configured trigger
// threshold (seconds times the control-loop rate).
package safety
