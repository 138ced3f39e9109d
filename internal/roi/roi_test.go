package roi

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/skeleton"
)

// pixelMapper treats camera X/Y as pixel coordinates.
type pixelMapper struct{}

func (pixelMapper) CameraToColor(p skeleton.CameraPoint) skeleton.PixelPoint {
	if p.Z <= 0 {
		return skeleton.PixelPoint{X: math.Inf(-1), Y: math.Inf(-1)}
	}
	return skeleton.PixelPoint{X: p.X, Y: p.Y}
}

func TestSquare(t *testing.T) {
	r := Square(skeleton.PixelPoint{X: 50.7, Y: 40.2}, 23)
	assert.Equal(t, image.Rect(39, 28, 62, 51), r)
	assert.Equal(t, 23, r.Dx())
	assert.Equal(t, 23, r.Dy())
}

func TestInside(t *testing.T) {
	tests := []struct {
		name string
		r    image.Rectangle
		want bool
	}{
		{"fully inside", image.Rect(10, 10, 20, 20), true},
		{"touches far edges", image.Rect(90, 70, 100, 80), true},
		{"left edge out", image.Rect(-1, 10, 9, 20), false},
		{"top edge out", image.Rect(10, -1, 20, 9), false},
		{"right edge out", image.Rect(95, 10, 101, 20), false},
		{"bottom edge out", image.Rect(10, 75, 20, 81), false},
		{"empty", image.Rect(10, 10, 10, 10), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Inside(tt.r, 100, 80))
		})
	}
}

func gradientMat(t *testing.T, w, h int) gocv.Mat {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: uint8(x + y), A: 255})
		}
	}
	mat, err := gocv.ImageToMatRGBA(img)
	require.NoError(t, err)
	return mat
}

func TestCrop(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	mat := gradientMat(t, 120, 100)
	defer mat.Close()

	img, ok := Crop(mat, image.Rect(10, 10, 50, 50), image.Pt(16, 16))
	require.True(t, ok)
	assert.Equal(t, image.Rect(0, 0, 16, 16), img.Bounds())

	_, ok = Crop(mat, image.Rect(100, 10, 140, 50), image.Pt(16, 16))
	assert.False(t, ok)
}

func TestCrop_Idempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	mat := gradientMat(t, 120, 100)
	defer mat.Close()

	r := Square(skeleton.PixelPoint{X: 60, Y: 50}, 30)
	a, ok := Crop(mat, r, image.Pt(24, 24))
	require.True(t, ok)
	b, ok := Crop(mat, r, image.Pt(24, 24))
	require.True(t, ok)

	for y := 0; y < 24; y++ {
		for x := 0; x < 24; x++ {
			require.Equal(t, a.At(x, y), b.At(x, y), "pixel %d,%d", x, y)
		}
	}
}

func TestExtractor_StaleCrop(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	mat := gradientMat(t, 120, 100)
	defer mat.Close()

	e := NewExtractor(pixelMapper{}, 0, 8)
	assert.Equal(t, image.Pt(8, 8), e.Size())

	left := skeleton.CameraPoint{X: 30, Y: 50, Z: 1}
	right := skeleton.CameraPoint{X: 90, Y: 50, Z: 1}

	l1, r1 := e.Extract(mat, left, right, 20)
	require.NotNil(t, l1)
	require.NotNil(t, r1)

	// Right hand leaves the image, left hand has no depth: both keep their crops.
	l2, r2 := e.Extract(mat, skeleton.CameraPoint{}, skeleton.CameraPoint{X: 119, Y: 50, Z: 1}, 20)
	assert.Same(t, l1, l2)
	assert.Same(t, r1, r2)
	assert.Same(t, r1, e.Last(skeleton.Right))

	e.Reset()
	assert.Nil(t, e.Last(skeleton.Left))
}

func TestExtractor_NoCropYet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	mat := gocv.NewMatWithSize(40, 40, gocv.MatTypeCV8UC4)
	defer mat.Close()

	e := NewExtractor(pixelMapper{}, DefaultScale, DefaultSize)
	l, r := e.Extract(mat, skeleton.CameraPoint{X: 20, Y: 20, Z: 1}, skeleton.CameraPoint{X: 20, Y: 20, Z: 1}, 100)
	assert.Nil(t, l)
	assert.Nil(t, r)
}
