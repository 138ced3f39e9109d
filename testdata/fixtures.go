// Package testdata provides recorded tick sequences and synthetic bodies for tests.
package testdata

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/sensor"
	"github.com/ayusman/mudra/internal/skeleton"
)

//go:embed ticks/*
var ticksFS embed.FS

// Recorded tick sequences.
const (
	// RaiseLeft is five idle ticks, sixty ticks with the left hand raised and five idle ticks.
	RaiseLeft = "raise_left.jsonl"
	// BriefRight is five idle ticks, ten ticks with the right hand raised and five idle ticks.
	BriefRight = "brief_right.jsonl"
)

// Period is the tick spacing of the recorded sequences.
const Period = 33 * time.Millisecond

// LoadTicks loads a recorded tick sequence by name
func LoadTicks(name string) ([]sensor.Tick, error) {
	data, err := ticksFS.ReadFile("ticks/" + name)
	if err != nil {
		return nil, fmt.Errorf("load ticks %s: %w", name, err)
	}

	ticks, err := sensor.LoadTicks(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse ticks %s: %w", name, err)
	}
	return ticks, nil
}

// WriteTicks copies a recorded tick sequence into dir and returns its path,
// for sources that replay from disk.
func WriteTicks(dir, name string) (string, error) {
	data, err := ticksFS.ReadFile("ticks/" + name)
	if err != nil {
		return "", fmt.Errorf("load ticks %s: %w", name, err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// Person returns a tracked body standing z meters from the sensor with its
// spine scale at 0.3m. A raised hand puts its wrist well above the activation line.
func Person(id uint64, z float64, leftRaised, rightRaised bool) sensor.Body {
	b := sensor.Body{TrackingID: id, Tracked: true}

	set := func(j sensor.JointType, x, y float64) {
		b.Joints[j] = sensor.Joint{
			Position: skeleton.CameraPoint{X: x, Y: y, Z: z},
			State:    sensor.Tracked,
		}
	}

	set(sensor.JointHead, 0, 0.6)
	set(sensor.JointNeck, 0, 0.5)
	set(sensor.JointSpineShoulder, 0, 0.4)
	set(sensor.JointSpineMid, 0, 0.1)
	set(sensor.JointSpineBase, 0, -0.2)
	set(sensor.JointShoulderLeft, -0.2, 0.4)
	set(sensor.JointShoulderRight, 0.2, 0.4)
	set(sensor.JointHipLeft, -0.1, -0.25)
	set(sensor.JointHipRight, 0.1, -0.25)
	set(sensor.JointKneeLeft, -0.1, -0.7)
	set(sensor.JointKneeRight, 0.1, -0.7)
	set(sensor.JointAnkleLeft, -0.1, -1.1)
	set(sensor.JointAnkleRight, 0.1, -1.1)

	arm := func(sign float64, raised bool, elbow, wrist, hand, tip sensor.JointType) {
		if raised {
			set(elbow, sign*0.3, 0.45)
			set(wrist, sign*0.3, 0.7)
			set(hand, sign*0.3, 0.78)
			set(tip, sign*0.3, 0.86)
			return
		}
		set(elbow, sign*0.3, 0.15)
		set(wrist, sign*0.35, -0.1)
		set(hand, sign*0.37, -0.15)
		set(tip, sign*0.38, -0.22)
	}
	arm(-1, leftRaised, sensor.JointElbowLeft, sensor.JointWristLeft, sensor.JointHandLeft, sensor.JointHandTipLeft)
	arm(1, rightRaised, sensor.JointElbowRight, sensor.JointWristRight, sensor.JointHandRight, sensor.JointHandTipRight)

	return b
}

// Sequence builds ticks 33ms apart starting at zero. Each tick holds one
// person with the given id whose hands are raised when active(i) says so.
func Sequence(id uint64, n int, active func(i int) (left, right bool)) []sensor.Tick {
	ticks := make([]sensor.Tick, n)
	for i := range ticks {
		left, right := active(i)
		ticks[i] = sensor.Tick{
			Timestamp: time.Duration(i) * Period,
			Bodies:    []sensor.Body{Person(id, 2, left, right)},
		}
	}
	return ticks
}

// Raise returns idle ticks, then active ticks with the left hand raised, then trailing idle ticks.
func Raise(id uint64, idle, active, trailing int) []sensor.Tick {
	return Sequence(id, idle+active+trailing, func(i int) (bool, bool) {
		return i >= idle && i < idle+active, false
	})
}

// ColorFrame returns a grey BGRA frame of the default colour stream size.
func ColorFrame() *gocv.Mat {
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(128, 128, 128, 255),
		sensor.DefaultColorHeight, sensor.DefaultColorWidth, gocv.MatTypeCV8UC4)
	return &mat
}
