// Package roi crops square hand patches out of the colour image.
package roi

import (
	"image"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"
	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/sensor"
	"github.com/ayusman/mudra/internal/skeleton"
)

// Default extraction settings.
const (
	DefaultScale = 1.15
	DefaultSize  = 96
)

// Square returns the crop rectangle of the given side centred on center.
// The origin and side are truncated to whole pixels.
func Square(center skeleton.PixelPoint, side float64) image.Rectangle {
	half := side / 2
	x := int(center.X - half)
	y := int(center.Y - half)
	s := int(side)
	return image.Rect(x, y, x+s, y+s)
}

// Inside reports whether r is non-empty and lies fully within a cols x rows image.
func Inside(r image.Rectangle, cols, rows int) bool {
	return !r.Empty() && r.In(image.Rect(0, 0, cols, rows))
}

func finite(p skeleton.PixelPoint) bool {
	return !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0) && !math.IsNaN(p.X) && !math.IsNaN(p.Y)
}

// Crop cuts rect out of color and resizes it to out. It returns false when
// the rectangle does not fit in the image.
func Crop(color gocv.Mat, rect image.Rectangle, out image.Point) (image.Image, bool) {
	if color.Empty() || !Inside(rect, color.Cols(), color.Rows()) {
		return nil, false
	}

	region := color.Region(rect)
	defer region.Close()

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(region, &resized, out, 0, 0, gocv.InterpolationLinear)

	img, err := resized.ToImage()
	if err != nil {
		return nil, false
	}
	return img, true
}

// Extractor produces one crop per hand per tick. When a hand's square falls
// outside the image the previous crop for that hand is returned again.
type Extractor struct {
	mapper sensor.Mapper
	scale  float64
	size   image.Point

	mu   sync.Mutex
	last [2]image.Image
}

// NewExtractor creates an Extractor. A zero scale or size uses the defaults.
func NewExtractor(mapper sensor.Mapper, scale float64, size int) *Extractor {
	if scale <= 0 {
		scale = DefaultScale
	}
	if size <= 0 {
		size = DefaultSize
	}
	return &Extractor{
		mapper: mapper,
		scale:  scale,
		size:   image.Pt(size, size),
	}
}

// Size returns the output crop resolution.
func (e *Extractor) Size() image.Point { return e.size }

// Extract crops around both hands. spinePx is the spine scale in colour pixels.
// The returned images may be nil until a hand has produced its first crop.
func (e *Extractor) Extract(color gocv.Mat, left, right skeleton.CameraPoint, spinePx float64) (image.Image, image.Image) {
	side := spinePx * e.scale
	hands := [2]skeleton.CameraPoint{left, right}

	var g errgroup.Group
	for i := range hands {
		g.Go(func() error {
			center := e.mapper.CameraToColor(hands[i])
			if !finite(center) {
				return nil
			}
			if img, ok := Crop(color, Square(center, side), e.size); ok {
				e.mu.Lock()
				e.last[i] = img
				e.mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last[skeleton.Left], e.last[skeleton.Right]
}

// Last returns the most recent crop for a hand.
func (e *Extractor) Last(hand skeleton.Hand) image.Image {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last[hand]
}

// Reset forgets both stored crops.
func (e *Extractor) Reset() {
	e.mu.Lock()
	e.last = [2]image.Image{}
	e.mu.Unlock()
}
