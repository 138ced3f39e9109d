// Package recorder segments hand activity into sessions and exports them.
package recorder

import (
	"fmt"
	"image"
	"log"
	"time"

	"github.com/ayusman/mudra/internal/body"
	"github.com/ayusman/mudra/internal/export"
	"github.com/ayusman/mudra/internal/frames"
	"github.com/ayusman/mudra/internal/skeleton"
)

// Config holds the session thresholds.
type Config struct {
	// MinPredict and MinOutput are the stacked frame counts a session must
	// exceed before it is standardized.
	MinPredict int
	MinOutput  int
	// SkeletonTarget and ImageTarget are the standardized lengths.
	SkeletonTarget int
	ImageTarget    int
}

// DefaultConfig returns the thresholds used by the dataset tools.
func DefaultConfig() Config {
	return Config{
		MinPredict:     18,
		MinOutput:      35,
		SkeletonTarget: 35,
		ImageTarget:    35,
	}
}

// MinFrames returns the minimum for a mode.
func (c Config) MinFrames(m Mode) int {
	if m == Predict {
		return c.MinPredict
	}
	return c.MinOutput
}

// Outcome reports what a Step did.
type Outcome int

const (
	None Outcome = iota
	Started
	Exported
	DiscardedTooShort
	DiscardedShortfall
	ExportFailed
)

var outcomeNames = [...]string{
	None:               "none",
	Started:            "started",
	Exported:           "exported",
	DiscardedTooShort:  "discarded_too_short",
	DiscardedShortfall: "discarded_shortfall",
	ExportFailed:       "export_failed",
}

func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return "unknown"
	}
	return outcomeNames[o]
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Outcome) UnmarshalText(b []byte) error {
	for i, name := range outcomeNames {
		if name == string(b) {
			*o = Outcome(i)
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", b)
}

// Finished reports whether the outcome ended a session.
func (o Outcome) Finished() bool {
	return o >= Exported
}

// Input is everything the recorder needs from one tracked tick.
type Input struct {
	Timestamp  time.Duration
	Activation body.Activation
	LeftHand   skeleton.CameraPoint
	RightHand  skeleton.CameraPoint
	Points     skeleton.Table
	LeftImage  image.Image
	RightImage image.Image
}

// Exporter writes a finished recording.
type Exporter interface {
	Export(rec export.Recording, p export.Policy) (export.Result, error)
}

// Recorder is the session state machine. It owns the three sample
// collections. It is not safe for concurrent use.
type Recorder struct {
	cfg      Config
	exporter Exporter
	mode     Mode
	policy   export.Policy

	labelID   int
	labelName string

	stacking bool
	start    time.Duration
	skeleton *frames.Collection[frames.Frame]
	left     *frames.Collection[frames.ImageFrame]
	right    *frames.Collection[frames.ImageFrame]

	recorded int
	produced bool
	last     export.Result
	lastErr  error
}

// New creates a Recorder in Off mode.
func New(cfg Config, exporter Exporter) *Recorder {
	return &Recorder{
		cfg:      cfg,
		exporter: exporter,
		policy:   export.Transient{},
		skeleton: frames.NewCollection[frames.Frame](cfg.SkeletonTarget),
		left:     frames.NewCollection[frames.ImageFrame](cfg.ImageTarget),
		right:    frames.NewCollection[frames.ImageFrame](cfg.ImageTarget),
	}
}

// Mode returns the current mode.
func (r *Recorder) Mode() Mode { return r.mode }

// SetMode changes the mode. Switching to Off drops an open session.
func (r *Recorder) SetMode(m Mode) {
	if m == Off && r.stacking {
		log.Printf("Recording discarded: mode switched off with %d frames stacked", r.skeleton.Len())
		r.reset()
	}
	r.mode = m
}

// SetPolicy sets where finished sessions are exported.
func (r *Recorder) SetPolicy(p export.Policy) { r.policy = p }

// Policy returns the export policy.
func (r *Recorder) Policy() export.Policy { return r.policy }

// SetLabel tags subsequent sessions.
func (r *Recorder) SetLabel(id int, name string) {
	r.labelID = id
	r.labelName = name
	r.skeleton.SetLabel(id)
	r.left.SetLabel(id)
	r.right.SetLabel(id)
}

// Label returns the current label id and name.
func (r *Recorder) Label() (int, string) { return r.labelID, r.labelName }

// Stacking reports whether a session is open.
func (r *Recorder) Stacking() bool { return r.stacking }

// Stacked returns the number of skeleton frames in the open session.
func (r *Recorder) Stacked() int { return r.skeleton.Len() }

// Recorded returns the number of finalized sessions.
func (r *Recorder) Recorded() int { return r.recorded }

// Produced reports whether a session was exported for the current body identity.
func (r *Recorder) Produced() bool { return r.produced }

// ResetIdentity clears the produced flag when a different body is selected.
func (r *Recorder) ResetIdentity() { r.produced = false }

// LastExport returns the result and error of the most recent export.
func (r *Recorder) LastExport() (export.Result, error) { return r.last, r.lastErr }

// LastFrame returns the most recent skeleton frame of the open session.
func (r *Recorder) LastFrame() (frames.Frame, bool) { return r.skeleton.Last() }

// Step advances the state machine by one tracked tick.
func (r *Recorder) Step(in Input) Outcome {
	if r.mode == Off {
		return None
	}

	outcome := None
	active := in.Activation.Any()

	switch {
	case !r.stacking && active:
		r.stacking = true
		r.start = in.Timestamp
		outcome = Started
	case r.stacking && !active:
		outcome = r.finish()
		r.reset()
	}

	if r.stacking {
		r.push(in)
	}

	return outcome
}

func (r *Recorder) push(in Input) {
	f := frames.Frame{
		Timestamp:   in.Timestamp,
		LeftHand:    in.LeftHand,
		RightHand:   in.RightHand,
		Points:      in.Points,
		LeftActive:  in.Activation.Left,
		RightActive: in.Activation.Right,
	}
	if err := r.skeleton.Push(f); err != nil {
		log.Printf("Frame at %v dropped: %v", in.Timestamp, err)
		return
	}
	// Image samples share the skeleton timestamp, so they cannot be out of order here.
	_ = r.left.Push(frames.ImageFrame{Timestamp: in.Timestamp, Image: in.LeftImage})
	_ = r.right.Push(frames.ImageFrame{Timestamp: in.Timestamp, Image: in.RightImage})
}

func (r *Recorder) finish() Outcome {
	n := r.skeleton.Len()
	if n <= r.cfg.MinFrames(r.mode) {
		log.Printf("Label %d (%s) session too short: %d frames", r.labelID, r.labelName, n)
		return DiscardedTooShort
	}

	okSkeleton := r.skeleton.Standardize(r.start)
	okLeft := r.left.Standardize(r.start)
	okRight := r.right.Standardize(r.start)
	if !okSkeleton || !okLeft || !okRight {
		log.Printf("Label %d (%s) saving ... fail (standardize shortfall: %d/%d frames)",
			r.labelID, r.labelName, r.skeleton.Len(), r.skeleton.Target())
		return DiscardedShortfall
	}

	rec := export.Recording{
		LabelID:   r.labelID,
		LabelName: r.labelName,
		Start:     r.start,
		Skeleton:  r.skeleton.Samples(),
		Left:      r.left.Samples(),
		Right:     r.right.Samples(),
	}

	res, err := r.exporter.Export(rec, r.policy)
	r.recorded++
	r.produced = true
	r.last, r.lastErr = res, err
	if err != nil {
		return ExportFailed
	}
	return Exported
}

func (r *Recorder) reset() {
	r.stacking = false
	r.skeleton.Clear()
	r.left.Clear()
	r.right.Clear()
}
