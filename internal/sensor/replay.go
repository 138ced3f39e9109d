package sensor

import (
	"bufio"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/skeleton"
)

// tickRecord is one line of a recorded tick file.
type tickRecord struct {
	TimeMs float64      `json:"t_ms"`
	Bodies []bodyRecord `json:"bodies"`
	Face   *Face        `json:"face,omitempty"`
}

type bodyRecord struct {
	TrackingID uint64                 `json:"tracking_id"`
	Tracked    bool                   `json:"tracked"`
	Joints     map[string]jointRecord `json:"joints"`
}

type jointRecord struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	State string  `json:"state,omitempty"` // "tracked" (default), "inferred" or "not_tracked"
}

func (r jointRecord) toJoint() Joint {
	state := Tracked
	switch r.State {
	case "inferred":
		state = Inferred
	case "not_tracked":
		state = NotTracked
	}
	return Joint{
		Position: skeleton.CameraPoint{X: r.X, Y: r.Y, Z: r.Z},
		State:    state,
	}
}

// LoadTicks parses a JSON lines tick recording. Joints missing from a body are NotTracked.
// The returned ticks carry no colour frame.
func LoadTicks(r io.Reader) ([]Tick, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var ticks []Tick
	line := 0
	for scanner.Scan() {
		line++
		data := scanner.Bytes()
		if len(data) == 0 || data[0] == '#' {
			continue
		}

		var rec tickRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		tick := Tick{
			Timestamp: time.Duration(rec.TimeMs * float64(time.Millisecond)),
			Bodies:    make([]Body, 0, len(rec.Bodies)),
		}
		if rec.Face != nil {
			tick.Face = *rec.Face
		}

		for _, br := range rec.Bodies {
			body := Body{TrackingID: br.TrackingID, Tracked: br.Tracked}
			for name, jr := range br.Joints {
				jt, ok := ParseJointType(name)
				if !ok {
					return nil, fmt.Errorf("line %d: unknown joint %q", line, name)
				}
				body.Joints[jt] = jr.toJoint()
			}
			tick.Bodies = append(tick.Bodies, body)
		}

		ticks = append(ticks, tick)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return ticks, nil
}

// ReplayConfig configures a ReplaySource.
type ReplayConfig struct {
	// TickPath is a JSON lines file of recorded bodies.
	TickPath string
	// Video is a device index ("0") or a video file path. Empty means blank frames.
	Video  string
	Width  int
	Height int
	Loop   bool
}

// ReplaySource replays recorded body ticks alongside colour frames from a gocv capture.
type ReplaySource struct {
	config  ReplayConfig
	ticks   []Tick
	index   int
	offset  time.Duration
	capture *gocv.VideoCapture
	boundID uint64
	mu      sync.Mutex
	running bool
}

// NewReplaySource loads the tick file and opens the video source.
func NewReplaySource(config ReplayConfig) (*ReplaySource, error) {
	if config.Width <= 0 {
		config.Width = DefaultColorWidth
	}
	if config.Height <= 0 {
		config.Height = DefaultColorHeight
	}

	f, err := os.Open(config.TickPath)
	if err != nil {
		return nil, fmt.Errorf("open tick file: %w", err)
	}
	defer f.Close()

	ticks, err := LoadTicks(f)
	if err != nil {
		return nil, fmt.Errorf("load ticks %s: %w", config.TickPath, err)
	}

	s := &ReplaySource{
		config:  config,
		ticks:   ticks,
		running: true,
	}

	if config.Video != "" {
		var device interface{} = config.Video
		if id, err := strconv.Atoi(config.Video); err == nil {
			device = id
		}
		capture, err := gocv.OpenVideoCapture(device)
		if err != nil {
			return nil, fmt.Errorf("open video %s: %w", config.Video, err)
		}
		capture.Set(gocv.VideoCaptureFrameWidth, float64(config.Width))
		capture.Set(gocv.VideoCaptureFrameHeight, float64(config.Height))
		s.capture = capture
	}

	return s, nil
}

// ReadTick returns the next recorded tick with a BGRA colour frame.
func (s *ReplaySource) ReadTick() (*Tick, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil, ErrSourceClosed
	}
	if len(s.ticks) == 0 {
		return nil, ErrExhausted
	}
	if s.index >= len(s.ticks) {
		if !s.config.Loop {
			return nil, ErrExhausted
		}
		s.index = 0
		s.offset += loopSpan(s.ticks)
	}

	tick := s.ticks[s.index]
	tick.Timestamp += s.offset
	s.index++

	color := s.readColor()
	tick.Color = &color

	return &tick, nil
}

// readColor returns the next video frame as BGRA at the configured size,
// or a blank frame when there is no video or the read fails.
func (s *ReplaySource) readColor() gocv.Mat {
	size := image.Point{X: s.config.Width, Y: s.config.Height}

	if s.capture != nil {
		frame := gocv.NewMat()
		defer frame.Close()

		ok := s.capture.Read(&frame)
		if !ok || frame.Empty() {
			s.capture.Set(gocv.VideoCapturePosFrames, 0)
			ok = s.capture.Read(&frame)
		}

		if ok && !frame.Empty() {
			bgra := gocv.NewMat()
			defer bgra.Close()
			gocv.CvtColor(frame, &bgra, gocv.ColorBGRToBGRA)

			out := gocv.NewMat()
			gocv.Resize(bgra, &out, size, 0, 0, gocv.InterpolationLinear)
			return out
		}
	}

	return gocv.NewMatWithSize(size.Y, size.X, gocv.MatTypeCV8UC4)
}

// BindFace records which body the face landmarks belong to.
// Recorded face data already follows the closest body, so replay only remembers the id.
func (s *ReplaySource) BindFace(trackingID uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boundID = trackingID
}

// BoundFace returns the tracking id last passed to BindFace.
func (s *ReplaySource) BoundFace() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.boundID
}

// Len returns the number of recorded ticks.
func (s *ReplaySource) Len() int {
	return len(s.ticks)
}

// Close releases the video capture.
func (s *ReplaySource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = false
	if s.capture == nil {
		return nil
	}
	err := s.capture.Close()
	s.capture = nil
	return err
}
