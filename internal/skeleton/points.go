// Package skeleton provides the fixed catalog of anatomical keypoints recorded for every frame.
package skeleton

import (
	"gonum.org/v1/gonum/floats"
)

// PointID identifies a slot in the keypoint table.
// Ids up to HeadSideRight are face points and are only refreshed while the face is tracked.
type PointID int

// Keypoint ids. The order is the column order of the exported keypoint log.
const (
	HeadHair PointID = iota
	FaceEyeLeft
	FaceEyeRight
	FaceNose
	FaceLip
	FaceCheekLeft
	FaceCheekRight
	FaceJaw
	HeadTop
	HeadSideLeft
	HeadSideRight

	Neck
	SpineMid
	SpineBase
	SpineShoulder
	ShoulderLeft
	ShoulderRight
	ElbowLeft
	ElbowRight
	WristLeft
	WristRight
	HandTipLeft
	HandTipRight

	HipLeft
	HipRight
	KneeLeft
	KneeRight
	AnkleLeft
	AnkleRight

	HipSideLeft
	HipSideRight
	ShoulderSideLeft
	ShoulderSideRight
	KneeSideLeft
	KneeSideRight
	SpineMidSideLeft
	SpineMidSideRight

	NumPoints = int(iota)
)

var pointNames = [NumPoints]string{
	"head_hair", "face_eye_left", "face_eye_right", "face_nose", "face_lip",
	"face_cheek_left", "face_cheek_right", "face_jaw", "head_top", "head_side_left", "head_side_right",
	"neck", "spine_mid", "spine_base", "spine_shoulder", "shoulder_left", "shoulder_right",
	"elbow_left", "elbow_right", "wrist_left", "wrist_right", "hand_tip_left", "hand_tip_right",
	"hip_left", "hip_right", "knee_left", "knee_right", "ankle_left", "ankle_right",
	"hip_side_left", "hip_side_right", "shoulder_side_left", "shoulder_side_right",
	"knee_side_left", "knee_side_right", "spine_mid_side_left", "spine_mid_side_right",
}

func (id PointID) String() string {
	if id < 0 || int(id) >= NumPoints {
		return "unknown"
	}
	return pointNames[id]
}

// IsFace reports whether the point is sourced from face tracking.
func (id PointID) IsFace() bool {
	return id <= HeadSideRight
}

// CameraPoint is a position in sensor camera space, in meters.
type CameraPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns p + q.
func (p CameraPoint) Add(q CameraPoint) CameraPoint {
	return CameraPoint{X: p.X + q.X, Y: p.Y + q.Y, Z: p.Z + q.Z}
}

// Sub returns p - q.
func (p CameraPoint) Sub(q CameraPoint) CameraPoint {
	return CameraPoint{X: p.X - q.X, Y: p.Y - q.Y, Z: p.Z - q.Z}
}

// PixelPoint is a position in colour image pixel space.
type PixelPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Hand selects the left or right hand.
type Hand int

const (
	Left Hand = iota
	Right
)

func (h Hand) String() string {
	if h == Left {
		return "left"
	}
	return "right"
}

// Table holds one CameraPoint per keypoint id.
type Table [NumPoints]CameraPoint

// Get returns the point stored for id.
func (t *Table) Get(id PointID) CameraPoint {
	return t[id]
}

// Set overwrites the point stored for id.
func (t *Table) Set(id PointID, p CameraPoint) {
	t[id] = p
}

// Distance returns the Euclidean distance between two camera points.
func Distance(a, b CameraPoint) float64 {
	return floats.Distance([]float64{a.X, a.Y, a.Z}, []float64{b.X, b.Y, b.Z}, 2)
}

// Norm returns the distance of p from the sensor origin.
func Norm(p CameraPoint) float64 {
	return floats.Norm([]float64{p.X, p.Y, p.Z}, 2)
}

// PixelDistance returns the Euclidean distance between two pixel points.
func PixelDistance(a, b PixelPoint) float64 {
	return floats.Distance([]float64{a.X, a.Y}, []float64{b.X, b.Y}, 2)
}

// Lerp moves prev toward raw by alpha: prev + alpha*(raw-prev) per coordinate.
func Lerp(prev, raw CameraPoint, alpha float64) CameraPoint {
	return CameraPoint{
		X: prev.X + alpha*(raw.X-prev.X),
		Y: prev.Y + alpha*(raw.Y-prev.Y),
		Z: prev.Z + alpha*(raw.Z-prev.Z),
	}
}
