// Package body turns the sensor's tracked bodies into the per-frame skeleton state:
// which person is active, their keypoint table, smoothed hands and hand activation.
package body

import (
	"math"

	"github.com/ayusman/mudra/internal/sensor"
	"github.com/ayusman/mudra/internal/skeleton"
)

// Selection is the result of choosing the active body for one tick.
type Selection struct {
	// Index of the selected body within the tick's body list.
	Index int
	// TrackingID is the sensor identity of the selected body.
	TrackingID uint64
	// Distance from the sensor origin to the selected body's head, in meters.
	Distance float64
	// Tracked is false when no body qualified this tick; the other fields then
	// describe the previous selection and must be treated as stale.
	Tracked bool
	// IdentityChanged is true when the selected body differs from the previous tick's.
	IdentityChanged bool
}

// Selector chooses the tracked body closest to the sensor and keeps its identity across ticks.
type Selector struct {
	index       int
	trackingID  uint64
	distance    float64
	hasIdentity bool
}

// NewSelector creates a Selector with no current identity.
func NewSelector() *Selector {
	return &Selector{}
}

// Select picks the body whose head is closest to the sensor origin.
// Bodies that are not tracked, or whose head joint is not tracked, are ignored.
// On an exact distance tie the previously selected index is kept.
func (s *Selector) Select(bodies []sensor.Body) Selection {
	best := -1
	bestDistance := math.MaxFloat64

	for i := range bodies {
		b := &bodies[i]
		if !b.Tracked {
			continue
		}

		head := b.Joint(sensor.JointHead)
		if head.State == sensor.NotTracked {
			continue
		}

		d := skeleton.Norm(head.Position)
		if d < bestDistance || (d == bestDistance && i == s.index) {
			best = i
			bestDistance = d
		}
	}

	if best < 0 {
		return Selection{
			Index:      s.index,
			TrackingID: s.trackingID,
			Distance:   s.distance,
			Tracked:    false,
		}
	}

	id := bodies[best].TrackingID
	changed := !s.hasIdentity || id != s.trackingID

	s.index = best
	s.trackingID = id
	s.distance = bestDistance
	s.hasIdentity = true

	return Selection{
		Index:           best,
		TrackingID:      id,
		Distance:        bestDistance,
		Tracked:         true,
		IdentityChanged: changed,
	}
}

// Reset forgets the current identity.
func (s *Selector) Reset() {
	*s = Selector{}
}
