package core

import "math"

const earthRadiusM = 6371000.0

// DistanceM is the great-circle distance between two points in metres.
func DistanceM(a, b Location) float32 {
	la1 := a.Lat * math.Pi / 180
	la2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	s := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(la1)*math.Cos(la2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return float32(2 * earthRadiusM * math.Asin(math.Sqrt(s)))
}

// PassedPoint reports whether the vehicle at loc has flown past point2 on
// the leg from point1 to point2: the projection of loc onto the leg lies
// beyond the target. Guards against skipping a waypoint the turn
// geometry never quite intercepts.
func PassedPoint(loc, point1, point2 Location) bool {
	// Flat-earth vectors in the leg's local frame; longitude scaled by
	// cos(lat) so east-west and north-south distances are comparable.
	scale := math.Cos(point2.Lat * math.Pi / 180)
	legN := point2.Lat - point1.Lat
	legE := (point2.Lng - point1.Lng) * scale
	pastN := loc.Lat - point2.Lat
	pastE := (loc.Lng - point2.Lng) * scale

	if legN == 0 && legE == 0 {
		// Degenerate leg: treat any position as past the point.
		return true
	}
	return legN*pastN+legE*pastE >= 0
}
