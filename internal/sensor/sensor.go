// Package sensor defines the contract with the motion sensor: tracked bodies, face landmarks,
// colour frames and the camera-to-pixel projection, plus replay and mock sources.
package sensor

import (
	"errors"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/skeleton"
)

// Default colour stream geometry.
const (
	DefaultColorWidth  = 1920
	DefaultColorHeight = 1080
)

// DefaultTickPeriod is the sensor frame spacing at 30 FPS.
const DefaultTickPeriod = 33 * time.Millisecond

// loopSpan is how far each pass of a looped sequence is shifted so that
// timestamps keep increasing: the recorded span plus one tick spacing.
func loopSpan(ticks []Tick) time.Duration {
	n := len(ticks)
	step := DefaultTickPeriod
	if n >= 2 {
		if d := ticks[n-1].Timestamp - ticks[n-2].Timestamp; d > 0 {
			step = d
		}
	}
	return ticks[n-1].Timestamp - ticks[0].Timestamp + step
}

var (
	// ErrSourceClosed is returned when reading from a source that is not open.
	ErrSourceClosed = errors.New("sensor source is not open")
	// ErrExhausted is returned when a non-looping source has no more ticks.
	ErrExhausted = errors.New("no more ticks")
)

// JointType enumerates the body joints reported by the sensor.
type JointType int

const (
	JointSpineBase JointType = iota
	JointSpineMid
	JointNeck
	JointHead
	JointShoulderLeft
	JointElbowLeft
	JointWristLeft
	JointHandLeft
	JointShoulderRight
	JointElbowRight
	JointWristRight
	JointHandRight
	JointHipLeft
	JointKneeLeft
	JointAnkleLeft
	JointFootLeft
	JointHipRight
	JointKneeRight
	JointAnkleRight
	JointFootRight
	JointSpineShoulder
	JointHandTipLeft
	JointThumbLeft
	JointHandTipRight
	JointThumbRight

	JointCount = int(iota)
)

var jointNames = [JointCount]string{
	"spine_base", "spine_mid", "neck", "head",
	"shoulder_left", "elbow_left", "wrist_left", "hand_left",
	"shoulder_right", "elbow_right", "wrist_right", "hand_right",
	"hip_left", "knee_left", "ankle_left", "foot_left",
	"hip_right", "knee_right", "ankle_right", "foot_right",
	"spine_shoulder", "hand_tip_left", "thumb_left", "hand_tip_right", "thumb_right",
}

func (j JointType) String() string {
	if j < 0 || int(j) >= JointCount {
		return "unknown"
	}
	return jointNames[j]
}

// ParseJointType returns the joint with the given name.
func ParseJointType(name string) (JointType, bool) {
	for i, n := range jointNames {
		if n == name {
			return JointType(i), true
		}
	}
	return 0, false
}

// TrackingState is the per-joint confidence reported by the sensor.
type TrackingState int

const (
	NotTracked TrackingState = iota
	Inferred
	Tracked
)

// Joint is a single body joint position with its tracking state.
type Joint struct {
	Position skeleton.CameraPoint
	State    TrackingState
}

// Body is one of the bodies reported for a tick.
type Body struct {
	TrackingID uint64
	Tracked    bool
	Joints     [JointCount]Joint
}

// Joint returns the joint of the given type.
func (b *Body) Joint(j JointType) Joint {
	return b.Joints[j]
}

// Face holds high definition face landmarks keyed by face model vertex index.
type Face struct {
	Tracked   bool                         `json:"tracked"`
	Landmarks map[int]skeleton.CameraPoint `json:"landmarks"`
}

// Tick is everything the sensor delivers for one frame.
type Tick struct {
	// Timestamp is relative to an arbitrary sensor epoch and never decreases.
	Timestamp time.Duration
	Bodies    []Body
	Face      Face
	// Color is a BGRA image, nil when no colour frame arrived this tick.
	Color *gocv.Mat
}

// Close releases the colour frame.
func (t *Tick) Close() error {
	if t == nil || t.Color == nil {
		return nil
	}
	err := t.Color.Close()
	t.Color = nil
	return err
}

// Source delivers sensor ticks.
type Source interface {
	// ReadTick returns the next tick. The caller must Close it.
	ReadTick() (*Tick, error)
	Close() error
}

// FaceBinder is implemented by sources whose face tracking follows one body identity.
type FaceBinder interface {
	BindFace(trackingID uint64)
}

// Mapper projects camera space points into colour image pixels.
type Mapper interface {
	CameraToColor(p skeleton.CameraPoint) skeleton.PixelPoint
}
