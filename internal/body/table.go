package body

import (
	"github.com/ayusman/mudra/internal/sensor"
	"github.com/ayusman/mudra/internal/skeleton"
)

// Face model vertex indices used for the face keypoints.
const (
	vertexHair       = 28
	vertexEyeLeft    = 333
	vertexEyeRight   = 732
	vertexNose       = 23
	vertexLip        = 8
	vertexCheekLeft  = 52
	vertexCheekRight = 581
	vertexJaw        = 0
)

var faceVertices = []struct {
	id     skeleton.PointID
	vertex int
}{
	{skeleton.HeadHair, vertexHair},
	{skeleton.FaceEyeLeft, vertexEyeLeft},
	{skeleton.FaceEyeRight, vertexEyeRight},
	{skeleton.FaceNose, vertexNose},
	{skeleton.FaceLip, vertexLip},
	{skeleton.FaceCheekLeft, vertexCheekLeft},
	{skeleton.FaceCheekRight, vertexCheekRight},
	{skeleton.FaceJaw, vertexJaw},
}

var bodyJoints = []struct {
	id    skeleton.PointID
	joint sensor.JointType
}{
	{skeleton.Neck, sensor.JointNeck},
	{skeleton.SpineMid, sensor.JointSpineMid},
	{skeleton.SpineBase, sensor.JointSpineBase},
	{skeleton.SpineShoulder, sensor.JointSpineShoulder},
	{skeleton.ShoulderLeft, sensor.JointShoulderLeft},
	{skeleton.ShoulderRight, sensor.JointShoulderRight},
	{skeleton.ElbowLeft, sensor.JointElbowLeft},
	{skeleton.ElbowRight, sensor.JointElbowRight},
	{skeleton.WristLeft, sensor.JointWristLeft},
	{skeleton.WristRight, sensor.JointWristRight},
	{skeleton.HandTipLeft, sensor.JointHandTipLeft},
	{skeleton.HandTipRight, sensor.JointHandTipRight},
	{skeleton.HipLeft, sensor.JointHipLeft},
	{skeleton.HipRight, sensor.JointHipRight},
	{skeleton.KneeLeft, sensor.JointKneeLeft},
	{skeleton.KneeRight, sensor.JointKneeRight},
	{skeleton.AnkleLeft, sensor.JointAnkleLeft},
	{skeleton.AnkleRight, sensor.JointAnkleRight},
}

// sidePoints are derived one spine scale to the side of an anchor point.
// sign is -1 for the left side and +1 for the right.
var sidePoints = []struct {
	id     skeleton.PointID
	anchor skeleton.PointID
	sign   float64
}{
	{skeleton.HeadSideLeft, skeleton.FaceNose, -1},
	{skeleton.HeadSideRight, skeleton.FaceNose, 1},
	{skeleton.HipSideLeft, skeleton.HipLeft, -1},
	{skeleton.HipSideRight, skeleton.HipRight, 1},
	{skeleton.ShoulderSideLeft, skeleton.ShoulderLeft, -1},
	{skeleton.ShoulderSideRight, skeleton.ShoulderRight, 1},
	{skeleton.KneeSideLeft, skeleton.KneeLeft, -1},
	{skeleton.KneeSideRight, skeleton.KneeRight, 1},
	{skeleton.SpineMidSideLeft, skeleton.SpineMid, -1},
	{skeleton.SpineMidSideRight, skeleton.SpineMid, 1},
}

// SpineScale returns the camera space distance between the shoulder-spine and mid-spine joints.
func SpineScale(b *sensor.Body) float64 {
	return skeleton.Distance(
		b.Joint(sensor.JointSpineShoulder).Position,
		b.Joint(sensor.JointSpineMid).Position,
	)
}

// SpineScalePixels returns the same spine length measured in colour image pixels.
func SpineScalePixels(b *sensor.Body, m sensor.Mapper) float64 {
	return skeleton.PixelDistance(
		m.CameraToColor(b.Joint(sensor.JointSpineShoulder).Position),
		m.CameraToColor(b.Joint(sensor.JointSpineMid).Position),
	)
}

// BuildTable refreshes table from the selected body and face landmarks.
// Face points keep their previous values while the face is not tracked or a landmark is missing.
func BuildTable(table *skeleton.Table, b *sensor.Body, face sensor.Face, spine float64) {
	if face.Tracked {
		for _, fv := range faceVertices {
			if p, ok := face.Landmarks[fv.vertex]; ok {
				table.Set(fv.id, p)
			}
		}
	}

	for _, bj := range bodyJoints {
		table.Set(bj.id, b.Joint(bj.joint).Position)
	}

	table.Set(skeleton.HeadTop, table.Get(skeleton.HeadHair).Add(skeleton.CameraPoint{Y: spine}))

	for _, sp := range sidePoints {
		offset := skeleton.CameraPoint{X: sp.sign * spine}
		table.Set(sp.id, table.Get(sp.anchor).Add(offset))
	}
}
