package core

import (
	"fmt"
	"math"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/skygrid/model"
)

// Constants of the Ptolemaic detector-motion model. Distances are in
// light-seconds.
const (
	auLightSeconds        = 499.00478384
	earthRadiusLightSecs  = 6378137.0 / 299792458.0
	obliquity             = 0.40909280422232897 // J2000 mean obliquity of the ecliptic
	j2000JulianDate       = 2451545.0
	defaultPtoleSamples   = 256
	maxPtoleSampleSpacing = 600.0 // seconds
)

// PtoleMetric evaluates the phase metric of a periodic signal seen by a
// detector on a rotating Earth in a circular orbit (the "Ptolemaic" model).
//
// The phase is
//
//	phi(t) = 2*pi*f * (t + n.r(t) + sum_k f_k t^(k+1)/(k+1)!)
//
// with n the unit vector to the source, r(t) the detector position and f_k the
// normalized spin-downs. The metric is the covariance of the phase gradient
// over the observation, g_ij = <d_i phi d_j phi> - <d_i phi><d_j phi>,
// computed with the midpoint rule.
type PtoleMetric struct {
	// Samples is the minimum number of time samples; 0 uses a default. The
	// sample spacing never exceeds ten minutes so that the daily rotation is
	// resolved.
	Samples int
}

// Evaluate returns the metric over {f, alpha, delta, f1, ..., fs} for
// s = len(p.Spindown).
func (m PtoleMetric) Evaluate(p MetricParams) (Metric, error) {
	if p.MetricType != model.MetricPtoleNumeric {
		return nil, fmt.Errorf("PtoleMetric: metric type %v: %w", p.MetricType, ErrInvalidMetricType)
	}
	span := p.Duration.Seconds()
	if !(span > 0) {
		return nil, fmt.Errorf("PtoleMetric: duration %v: %w", p.Duration, ErrInvalidDuration)
	}
	if !(p.MaxFreq > 0) {
		return nil, fmt.Errorf("PtoleMetric: frequency %g: %w", p.MaxFreq, ErrInvalidFrequency)
	}

	dim := ParamF1 + len(p.Spindown)
	n := m.Samples
	if n <= 0 {
		n = defaultPtoleSamples
	}
	if minN := int(math.Ceil(span / maxPtoleSampleSpacing)); n < minN {
		n = minN
	}

	nHat, dnAlpha, dnDelta := skyUnitVector(p.Position.Longitude, p.Position.Latitude)
	jd0 := julianDate(p.Epoch)
	twoPiF := 2 * math.Pi * p.MaxFreq

	grads := make([][]float64, n)
	mean := make([]float64, dim)
	dt := span / float64(n)
	for s := 0; s < n; s++ {
		t := (float64(s) + 0.5) * dt
		r := detectorPosition(jd0+t/86400, p.Detector)

		d := make([]float64, dim)
		spin := 0.0
		pow, fact := t, 1.0
		for k, fk := range p.Spindown {
			pow *= t
			fact *= float64(k + 2)
			spin += fk * pow / fact
			d[ParamF1+k] = twoPiF * pow / fact
		}
		d[ParamFreq] = 2 * math.Pi * (t + nHat.Dot(r) + spin)
		d[ParamAlpha] = twoPiF * dnAlpha.Dot(r)
		d[ParamDelta] = twoPiF * dnDelta.Dot(r)

		for i, v := range d {
			mean[i] += v
		}
		grads[s] = d
	}
	for i := range mean {
		mean[i] /= float64(n)
	}

	g := make(Metric, MetricLength(dim))
	for _, d := range grads {
		for j := 0; j < dim; j++ {
			dj := d[j] - mean[j]
			for i := 0; i <= j; i++ {
				g[MetricIndex(i, j)] += (d[i] - mean[i]) * dj
			}
		}
	}
	for i := range g {
		g[i] /= float64(n)
	}
	return g, nil
}

// detectorPosition returns the detector position relative to the solar-system
// barycentre in equatorial coordinates, in light-seconds, at Julian date jd.
func detectorPosition(jd float64, det model.Detector) Vec3 {
	// Earth on a circular orbit, opposite the Sun's mean longitude.
	days := jd - j2000JulianDate
	sunLon := (280.46 + 0.9856474*days) * math.Pi / 180
	sl, cl := math.Sincos(sunLon + math.Pi)
	se, ce := math.Sincos(obliquity)
	orbit := Vec3{X: cl, Y: sl * ce, Z: sl * se}.Scale(auLightSeconds)

	lst := satellite.ThetaG_JD(jd) + det.Longitude
	sls, cls := math.Sincos(lst)
	slat, clat := math.Sincos(det.Latitude)
	spin := Vec3{X: clat * cls, Y: clat * sls, Z: slat}.Scale(earthRadiusLightSecs)

	return orbit.Add(spin)
}

func julianDate(t time.Time) float64 {
	t = t.UTC()
	year, month, day := t.Date()
	hour, min, sec := t.Clock()
	return satellite.JDay(year, int(month), day, hour, min, sec) + float64(t.Nanosecond())/86400e9
}
