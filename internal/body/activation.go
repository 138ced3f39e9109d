package body

import (
	"github.com/ayusman/mudra/internal/sensor"
	"github.com/ayusman/mudra/internal/skeleton"
)

// Activation is the per-hand raised/idle decision for one tick.
type Activation struct {
	Left  bool `json:"left"`
	Right bool `json:"right"`
}

// Any reports whether either hand is raised.
func (a Activation) Any() bool {
	return a.Left || a.Right
}

// HandActive reports whether a wrist is more than half a spine scale above the spine base.
func HandActive(wristY, spineBaseY, spine float64) bool {
	return wristY > spineBaseY+spine/2
}

// Evaluate computes activation for both hands from the keypoint table.
func Evaluate(table *skeleton.Table, spine float64) Activation {
	base := table.Get(skeleton.SpineBase).Y
	return Activation{
		Left:  HandActive(table.Get(skeleton.WristLeft).Y, base, spine),
		Right: HandActive(table.Get(skeleton.WristRight).Y, base, spine),
	}
}

// HandTracker smooths both hand positions across ticks.
type HandTracker struct {
	alpha float64
	left  skeleton.CameraPoint
	right skeleton.CameraPoint
}

// NewHandTracker creates a tracker with the given blend factor in (0,1].
func NewHandTracker(alpha float64) *HandTracker {
	return &HandTracker{alpha: alpha}
}

// Update blends the body's hand joints into the smoothed positions.
// A hand whose joint is not tracked keeps its previous position.
func (h *HandTracker) Update(b *sensor.Body) {
	if j := b.Joint(sensor.JointHandLeft); j.State != sensor.NotTracked {
		h.left = skeleton.Lerp(h.left, j.Position, h.alpha)
	}
	if j := b.Joint(sensor.JointHandRight); j.State != sensor.NotTracked {
		h.right = skeleton.Lerp(h.right, j.Position, h.alpha)
	}
}

// Position returns the smoothed position of a hand.
func (h *HandTracker) Position(hand skeleton.Hand) skeleton.CameraPoint {
	if hand == skeleton.Left {
		return h.left
	}
	return h.right
}

// Left returns the smoothed left hand position.
func (h *HandTracker) Left() skeleton.CameraPoint { return h.left }

// Right returns the smoothed right hand position.
func (h *HandTracker) Right() skeleton.CameraPoint { return h.right }
