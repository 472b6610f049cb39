package model

import "time"

// MaxSpins is the number of frequency derivatives tracked, including the
// frequency itself (f, f1dot, f2dot, f3dot).
const MaxSpins = 4

// PulsarSpins holds a frequency and its time derivatives.
type PulsarSpins [MaxSpins]float64

// DopplerParams is one point in the search parameter space.
type DopplerParams struct {
	Alpha float64
	Delta float64
	Fkdot PulsarSpins
}

// SpinRange is the searched interval [Fkdot, Fkdot+FkdotBand] for each spin order.
type SpinRange struct {
	Epoch     time.Time
	Fkdot     PulsarSpins
	FkdotBand PulsarSpins
}

// DopplerRegion is a search region: a sky-region string plus spin intervals.
type DopplerRegion struct {
	SkyRegionString string
	Epoch           time.Time
	Fkdot           PulsarSpins
	FkdotBand       PulsarSpins
}
