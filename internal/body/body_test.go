package body

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/sensor"
	"github.com/ayusman/mudra/internal/skeleton"
)

func newBody(id uint64, head skeleton.CameraPoint) sensor.Body {
	b := sensor.Body{TrackingID: id, Tracked: true}
	b.Joints[sensor.JointHead] = sensor.Joint{Position: head, State: sensor.Tracked}
	return b
}

func TestSelector_Select(t *testing.T) {
	tests := []struct {
		name        string
		bodies      []sensor.Body
		wantIndex   int
		wantTracked bool
		wantDist    float64
	}{
		{
			name:        "no bodies",
			bodies:      nil,
			wantTracked: false,
		},
		{
			name: "closest body wins",
			bodies: []sensor.Body{
				newBody(1, skeleton.CameraPoint{Z: 3}),
				newBody(2, skeleton.CameraPoint{Z: 1.5}),
				newBody(3, skeleton.CameraPoint{Z: 2}),
			},
			wantIndex:   1,
			wantTracked: true,
			wantDist:    1.5,
		},
		{
			name: "untracked body ignored",
			bodies: func() []sensor.Body {
				near := newBody(1, skeleton.CameraPoint{Z: 1})
				near.Tracked = false
				return []sensor.Body{near, newBody(2, skeleton.CameraPoint{X: 3, Z: 4})}
			}(),
			wantIndex:   1,
			wantTracked: true,
			wantDist:    5,
		},
		{
			name: "untracked head ignored",
			bodies: func() []sensor.Body {
				near := newBody(1, skeleton.CameraPoint{Z: 1})
				near.Joints[sensor.JointHead].State = sensor.NotTracked
				return []sensor.Body{near}
			}(),
			wantTracked: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := NewSelector().Select(tt.bodies)
			assert.Equal(t, tt.wantTracked, sel.Tracked)
			if tt.wantTracked {
				assert.Equal(t, tt.wantIndex, sel.Index)
				assert.InDelta(t, tt.wantDist, sel.Distance, 1e-9)
				assert.True(t, sel.IdentityChanged, "first selection is a new identity")
			}
		})
	}
}

func TestSelector_IdentityContinuity(t *testing.T) {
	s := NewSelector()
	a := newBody(10, skeleton.CameraPoint{Z: 2})
	b := newBody(20, skeleton.CameraPoint{Z: 3})

	first := s.Select([]sensor.Body{a, b})
	require.True(t, first.Tracked)
	assert.True(t, first.IdentityChanged)
	assert.Equal(t, uint64(10), first.TrackingID)

	same := s.Select([]sensor.Body{a, b})
	assert.False(t, same.IdentityChanged)

	// Body b steps in front.
	b.Joints[sensor.JointHead].Position = skeleton.CameraPoint{Z: 1}
	switched := s.Select([]sensor.Body{a, b})
	assert.True(t, switched.IdentityChanged)
	assert.Equal(t, uint64(20), switched.TrackingID)
	assert.Equal(t, 1, switched.Index)

	// Nobody tracked: stale selection, no identity change.
	lost := s.Select(nil)
	assert.False(t, lost.Tracked)
	assert.False(t, lost.IdentityChanged)
	assert.Equal(t, uint64(20), lost.TrackingID)

	s.Reset()
	again := s.Select([]sensor.Body{b})
	assert.True(t, again.IdentityChanged)
}

func TestSelector_TieKeepsPrevious(t *testing.T) {
	s := NewSelector()
	a := newBody(1, skeleton.CameraPoint{Z: 2})
	b := newBody(2, skeleton.CameraPoint{Z: 2.5})

	sel := s.Select([]sensor.Body{a, b})
	require.Equal(t, 0, sel.Index)

	// Swap positions so index 1 becomes the previous winner.
	sel = s.Select([]sensor.Body{b, a})
	require.Equal(t, 1, sel.Index)

	// Equal distances: the previously selected index (1) is kept.
	tied := newBody(3, skeleton.CameraPoint{Z: 2})
	sel = s.Select([]sensor.Body{tied, a})
	assert.Equal(t, 1, sel.Index)
	assert.Equal(t, uint64(1), sel.TrackingID)
	assert.False(t, sel.IdentityChanged)
}

func TestHandActive_Threshold(t *testing.T) {
	const base, spine = 0.1, 0.25

	tests := []struct {
		name    string
		epsilon float64
		want    bool
	}{
		{"well above", 0.2, true},
		{"just above", 0.01, true},
		{"just below", -0.01, false},
		{"well below", -0.3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrist := base + spine/2 + tt.epsilon
			assert.Equal(t, tt.want, HandActive(wrist, base, spine))
		})
	}
}

func TestEvaluate_Independent(t *testing.T) {
	var table skeleton.Table
	table.Set(skeleton.SpineBase, skeleton.CameraPoint{Y: -0.3})
	table.Set(skeleton.WristLeft, skeleton.CameraPoint{Y: 0.2})
	table.Set(skeleton.WristRight, skeleton.CameraPoint{Y: -0.4})

	act := Evaluate(&table, 0.3)
	assert.True(t, act.Left)
	assert.False(t, act.Right)
	assert.True(t, act.Any())

	table.Set(skeleton.WristLeft, skeleton.CameraPoint{Y: -0.2})
	act = Evaluate(&table, 0.3)
	assert.False(t, act.Any())
}

func TestHandTracker_Update(t *testing.T) {
	h := NewHandTracker(0.5)

	var b sensor.Body
	b.Joints[sensor.JointHandLeft] = sensor.Joint{Position: skeleton.CameraPoint{X: 1, Y: 1, Z: 1}, State: sensor.Tracked}
	b.Joints[sensor.JointHandRight] = sensor.Joint{Position: skeleton.CameraPoint{X: 2}, State: sensor.NotTracked}

	h.Update(&b)
	assert.Equal(t, skeleton.CameraPoint{X: 0.5, Y: 0.5, Z: 0.5}, h.Left())
	assert.Equal(t, skeleton.CameraPoint{}, h.Right(), "untracked hand keeps its position")

	h.Update(&b)
	assert.Equal(t, skeleton.CameraPoint{X: 0.75, Y: 0.75, Z: 0.75}, h.Position(skeleton.Left))
	assert.Equal(t, h.Right(), h.Position(skeleton.Right))
}

func spineBody() sensor.Body {
	var b sensor.Body
	set := func(j sensor.JointType, p skeleton.CameraPoint) {
		b.Joints[j] = sensor.Joint{Position: p, State: sensor.Tracked}
	}
	set(sensor.JointSpineShoulder, skeleton.CameraPoint{X: 0, Y: 0.5, Z: 2})
	set(sensor.JointSpineMid, skeleton.CameraPoint{X: 0, Y: 0.2, Z: 2})
	set(sensor.JointSpineBase, skeleton.CameraPoint{X: 0, Y: -0.1, Z: 2})
	set(sensor.JointHipLeft, skeleton.CameraPoint{X: -0.1, Y: -0.1, Z: 2})
	set(sensor.JointHipRight, skeleton.CameraPoint{X: 0.1, Y: -0.1, Z: 2})
	set(sensor.JointWristLeft, skeleton.CameraPoint{X: -0.3, Y: 0.3, Z: 1.9})
	return b
}

func TestSpineScale(t *testing.T) {
	b := spineBody()
	assert.InDelta(t, 0.3, SpineScale(&b), 1e-9)

	m := sensor.DefaultMapper()
	// Both joints at Z=2: pixel length is fy * 0.3 / 2.
	assert.InDelta(t, m.Fy*0.3/2, SpineScalePixels(&b, m), 1e-6)
}

func TestBuildTable(t *testing.T) {
	b := spineBody()
	spine := SpineScale(&b)

	face := sensor.Face{
		Tracked: true,
		Landmarks: map[int]skeleton.CameraPoint{
			vertexHair: {X: 0, Y: 0.9, Z: 2},
			vertexNose: {X: 0.01, Y: 0.8, Z: 1.9},
		},
	}

	var table skeleton.Table
	BuildTable(&table, &b, face, spine)

	assert.Equal(t, b.Joint(sensor.JointSpineBase).Position, table.Get(skeleton.SpineBase))
	assert.Equal(t, b.Joint(sensor.JointWristLeft).Position, table.Get(skeleton.WristLeft))
	assert.Equal(t, face.Landmarks[vertexHair], table.Get(skeleton.HeadHair))

	top := table.Get(skeleton.HeadTop)
	assert.InDelta(t, 0.9+spine, top.Y, 1e-9)

	derived := []struct {
		id     skeleton.PointID
		anchor skeleton.PointID
		dx     float64
	}{
		{skeleton.HeadSideLeft, skeleton.FaceNose, -spine},
		{skeleton.HeadSideRight, skeleton.FaceNose, spine},
		{skeleton.HipSideLeft, skeleton.HipLeft, -spine},
		{skeleton.HipSideRight, skeleton.HipRight, spine},
		{skeleton.SpineMidSideLeft, skeleton.SpineMid, -spine},
		{skeleton.SpineMidSideRight, skeleton.SpineMid, spine},
	}
	for _, d := range derived {
		got := table.Get(d.id)
		anchor := table.Get(d.anchor)
		assert.InDelta(t, anchor.X+d.dx, got.X, 1e-9, d.id.String())
		assert.Equal(t, anchor.Y, got.Y, d.id.String())
		assert.Equal(t, anchor.Z, got.Z, d.id.String())
		assert.InDelta(t, spine, math.Abs(skeleton.Distance(got, anchor)), 1e-9, d.id.String())
	}

	// Face lost: face points keep their last values, body points refresh.
	b.Joints[sensor.JointWristLeft].Position = skeleton.CameraPoint{X: -0.3, Y: 0.6, Z: 1.9}
	BuildTable(&table, &b, sensor.Face{Tracked: false}, spine)
	assert.Equal(t, face.Landmarks[vertexHair], table.Get(skeleton.HeadHair))
	assert.InDelta(t, 0.6, table.Get(skeleton.WristLeft).Y, 1e-9)
}
