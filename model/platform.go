package model

// Detector describes the observing site whose motion enters the phase metric.
// Coordinates are geodetic, in radians.
type Detector struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// Some well-known sites.
var (
	DetectorLHO = Detector{Name: "LHO", Latitude: 0.81079526383, Longitude: -2.08405676917}
	DetectorLLO = Detector{Name: "LLO", Latitude: 0.53342313506, Longitude: -1.58430937078}
	DetectorGEO = Detector{Name: "GEO", Latitude: 0.91184982752, Longitude: 0.17116780435}
)

// DetectorByName returns a known detector, or false if the name is unknown.
func DetectorByName(name string) (Detector, bool) {
	switch name {
	case "LHO", "H1", "H2":
		return DetectorLHO, true
	case "LLO", "L1":
		return DetectorLLO, true
	case "GEO", "G1":
		return DetectorGEO, true
	default:
		return Detector{}, false
	}
}
