// Package frames holds the per-session sample buffers and resamples a
// variable-length recording to a fixed number of samples.
package frames

import (
	"errors"
	"image"
	"math"
	"time"

	"github.com/ayusman/mudra/internal/skeleton"
)

// ErrOutOfOrder is returned when a sample is older than the last one pushed.
var ErrOutOfOrder = errors.New("sample timestamp is earlier than the last sample")

// Sample is anything with a capture time.
type Sample interface {
	Stamp() time.Duration
}

// Frame is one skeleton snapshot.
type Frame struct {
	Timestamp   time.Duration
	LeftHand    skeleton.CameraPoint
	RightHand   skeleton.CameraPoint
	Points      skeleton.Table
	LeftActive  bool
	RightActive bool
}

// Stamp implements Sample.
func (f Frame) Stamp() time.Duration { return f.Timestamp }

// ImageFrame is one hand crop.
type ImageFrame struct {
	Timestamp time.Duration
	Image     image.Image
}

// Stamp implements Sample.
func (f ImageFrame) Stamp() time.Duration { return f.Timestamp }

// Collection is an ordered buffer of samples tagged with a label and a target length.
type Collection[T Sample] struct {
	samples []T
	label   int
	target  int
}

// NewCollection creates an empty collection that standardizes to target samples.
func NewCollection[T Sample](target int) *Collection[T] {
	return &Collection[T]{
		samples: make([]T, 0, target),
		target:  target,
	}
}

// Push appends a sample. Samples must arrive in non-decreasing time order.
func (c *Collection[T]) Push(s T) error {
	if n := len(c.samples); n > 0 && s.Stamp() < c.samples[n-1].Stamp() {
		return ErrOutOfOrder
	}
	c.samples = append(c.samples, s)
	return nil
}

// Len returns the number of samples held.
func (c *Collection[T]) Len() int { return len(c.samples) }

// Target returns the standardized length.
func (c *Collection[T]) Target() int { return c.target }

// Label returns the label id the samples belong to.
func (c *Collection[T]) Label() int { return c.label }

// SetLabel tags the collection with a label id.
func (c *Collection[T]) SetLabel(id int) { c.label = id }

// Samples returns a copy of the held samples.
func (c *Collection[T]) Samples() []T {
	out := make([]T, len(c.samples))
	copy(out, c.samples)
	return out
}

// Last returns the most recent sample.
func (c *Collection[T]) Last() (T, bool) {
	var zero T
	if len(c.samples) == 0 {
		return zero, false
	}
	return c.samples[len(c.samples)-1], true
}

// Clear drops all samples, keeping the label and target.
func (c *Collection[T]) Clear() {
	clear(c.samples)
	c.samples = c.samples[:0]
}

// Standardize replaces the samples with Target() samples picked at uniformly
// spaced times between start and the last sample's timestamp, each the
// nearest captured sample. It reports whether exactly Target() samples were
// produced.
//
// The synthetic time accumulates in floating point and the loop stops once it
// passes the end of the span, so rounding can leave the collection one sample
// short. Callers treat that as a failed recording.
func (c *Collection[T]) Standardize(start time.Duration) bool {
	n := len(c.samples)
	if n == 0 || c.target <= 0 {
		return false
	}

	if c.target == 1 {
		c.samples = c.samples[:1]
		return true
	}

	end := float64(c.samples[n-1].Stamp())
	step := (end - float64(start)) / float64(c.target-1)

	out := make([]T, 0, c.target)
	at := float64(start)
	cursor := 0
	for i := 0; i < c.target; i++ {
		if at > end {
			break
		}
		for cursor+1 < n && gap(c.samples[cursor+1], at) <= gap(c.samples[cursor], at) {
			cursor++
		}
		out = append(out, c.samples[cursor])
		at += step
	}

	c.samples = out
	return len(out) == c.target
}

func gap[T Sample](s T, at float64) float64 {
	return math.Abs(float64(s.Stamp()) - at)
}
