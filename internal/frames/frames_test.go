package frames

import (
	"errors"
	"image"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/skeleton"
)

func stamps(c *Collection[Frame]) []time.Duration {
	var out []time.Duration
	for _, s := range c.Samples() {
		out = append(out, s.Timestamp)
	}
	return out
}

func fill(t *testing.T, c *Collection[Frame], n int, period time.Duration) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, c.Push(Frame{Timestamp: time.Duration(i) * period}))
	}
}

func TestCollection_PushOrder(t *testing.T) {
	c := NewCollection[Frame](35)
	require.NoError(t, c.Push(Frame{Timestamp: 10 * time.Millisecond}))
	require.NoError(t, c.Push(Frame{Timestamp: 10 * time.Millisecond}))

	err := c.Push(Frame{Timestamp: 5 * time.Millisecond})
	assert.True(t, errors.Is(err, ErrOutOfOrder))
	assert.Equal(t, 2, c.Len())

	last, ok := c.Last()
	require.True(t, ok)
	assert.Equal(t, 10*time.Millisecond, last.Timestamp)
}

func TestCollection_ClearKeepsLabel(t *testing.T) {
	c := NewCollection[ImageFrame](4)
	c.SetLabel(7)
	require.NoError(t, c.Push(ImageFrame{Timestamp: 1, Image: image.NewRGBA(image.Rect(0, 0, 2, 2))}))

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 7, c.Label())
	assert.Equal(t, 4, c.Target())

	_, ok := c.Last()
	assert.False(t, ok)
}

func TestCollection_SamplesIsCopy(t *testing.T) {
	c := NewCollection[Frame](2)
	var table skeleton.Table
	table.Set(skeleton.Neck, skeleton.CameraPoint{Y: 1})
	require.NoError(t, c.Push(Frame{Points: table}))

	got := c.Samples()
	got[0].Points.Set(skeleton.Neck, skeleton.CameraPoint{Y: 9})

	last, _ := c.Last()
	assert.Equal(t, 1.0, last.Points.Get(skeleton.Neck).Y)
}

func TestStandardize(t *testing.T) {
	ms := time.Millisecond

	tests := []struct {
		name   string
		input  []time.Duration
		target int
		want   []time.Duration
		ok     bool
	}{
		{
			name:   "downsample picks nearest",
			input:  []time.Duration{0, 10 * ms, 20 * ms, 30 * ms, 40 * ms},
			target: 3,
			want:   []time.Duration{0, 20 * ms, 40 * ms},
			ok:     true,
		},
		{
			name:   "upsample duplicates, ties advance",
			input:  []time.Duration{0, 10 * ms, 20 * ms},
			target: 5,
			want:   []time.Duration{0, 10 * ms, 10 * ms, 20 * ms, 20 * ms},
			ok:     true,
		},
		{
			name:   "single target keeps first",
			input:  []time.Duration{5 * ms, 9 * ms},
			target: 1,
			want:   []time.Duration{5 * ms},
			ok:     true,
		},
		{
			name:   "empty",
			input:  nil,
			target: 3,
			want:   nil,
			ok:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCollection[Frame](tt.target)
			for _, ts := range tt.input {
				require.NoError(t, c.Push(Frame{Timestamp: ts}))
			}

			var start time.Duration
			if len(tt.input) > 0 {
				start = tt.input[0]
			}

			assert.Equal(t, tt.ok, c.Standardize(start))
			if diff := cmp.Diff(tt.want, stamps(c)); diff != "" {
				t.Errorf("Standardize() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStandardize_FortySamplesToThirtyFive(t *testing.T) {
	c := NewCollection[Frame](35)
	fill(t, c, 40, 100*time.Millisecond)

	require.True(t, c.Standardize(0))
	got := stamps(c)
	require.Len(t, got, 35)
	assert.Equal(t, time.Duration(0), got[0])
	assert.LessOrEqual(t, got[34], 3900*time.Millisecond)

	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1], got[i], "index %d", i)
	}
}

func TestStandardize_Lengths(t *testing.T) {
	tests := []struct {
		name string
		n    int
	}{
		{"sixty ticks", 60},
		{"ten ticks", 10},
		{"thirty six ticks", 36},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCollection[Frame](35)
			fill(t, c, tt.n, 33*time.Millisecond)
			assert.True(t, c.Standardize(0))
			assert.Equal(t, 35, c.Len())
		})
	}
}

func TestStandardize_BoundaryShortfall(t *testing.T) {
	// 33ms/34 does not accumulate back to exactly 33ms, so the last
	// synthetic time lands past the end of the span.
	c := NewCollection[Frame](35)
	require.NoError(t, c.Push(Frame{Timestamp: 0}))
	require.NoError(t, c.Push(Frame{Timestamp: 33 * time.Millisecond}))

	assert.False(t, c.Standardize(0))
	assert.Equal(t, 34, c.Len())
}

func TestStandardize_ImageFrames(t *testing.T) {
	c := NewCollection[ImageFrame](2)
	imgs := []image.Image{
		image.NewGray(image.Rect(0, 0, 1, 1)),
		image.NewGray(image.Rect(0, 0, 2, 2)),
		image.NewGray(image.Rect(0, 0, 3, 3)),
	}
	for i, img := range imgs {
		require.NoError(t, c.Push(ImageFrame{Timestamp: time.Duration(i) * time.Second, Image: img}))
	}

	require.True(t, c.Standardize(0))
	got := c.Samples()
	assert.Same(t, imgs[0], got[0].Image)
	assert.Same(t, imgs[2], got[1].Image)
}
