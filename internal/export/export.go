package export

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ayusman/mudra/internal/frames"
	"github.com/ayusman/mudra/internal/skeleton"
	"github.com/ayusman/mudra/internal/store"
)

// KeypointFile is the name of the keypoint log inside an export directory.
const KeypointFile = "keypoints.txt"

// ErrEmptyImage is returned for an image sample that never received a crop.
var ErrEmptyImage = errors.New("image frame has no crop")

// Recording is a standardized session ready to be written.
type Recording struct {
	LabelID   int
	LabelName string
	Start     time.Duration
	Skeleton  []frames.Frame
	Left      []frames.ImageFrame
	Right     []frames.ImageFrame
}

// Duration returns the time between the session start and its last skeleton frame.
func (r Recording) Duration() time.Duration {
	if len(r.Skeleton) == 0 {
		return 0
	}
	return r.Skeleton[len(r.Skeleton)-1].Timestamp - r.Start
}

// Result describes a finished export.
type Result struct {
	ID         string    `json:"id,omitempty"`
	Dir        string    `json:"dir"`
	Frames     int       `json:"frames"`
	Images     int       `json:"images"`
	Persistent bool      `json:"persistent"`
	CreatedAt  time.Time `json:"created_at"`
}

// Catalog records persisted exports. *store.RecordingRepository implements it.
type Catalog interface {
	Create(rec *store.Recording) error
}

// Exporter writes recordings under a data root.
type Exporter struct {
	root    string
	catalog Catalog
	now     func() time.Time
}

// New creates an Exporter rooted at root. catalog may be nil.
func New(root string, catalog Catalog) *Exporter {
	return &Exporter{
		root:    root,
		catalog: catalog,
		now:     time.Now,
	}
}

// Root returns the data root directory.
func (e *Exporter) Root() string { return e.root }

// Export writes the keypoint log and both image sequences to the directory
// chosen by p. Left hand images are numbered 0..n-1 and right hand images
// continue from len(rec.Left). Individual write failures are logged and
// joined into the returned error; artifacts already written are kept.
func (e *Exporter) Export(rec Recording, p Policy) (Result, error) {
	now := e.now()
	res := Result{
		Dir:        p.Dir(e.root, now),
		Persistent: p.Persistent(),
		CreatedAt:  now,
	}

	if err := CheckName(rec.LabelName); err != nil {
		return res, fmt.Errorf("label %d: %w", rec.LabelID, err)
	}
	if pp, ok := p.(Persisted); ok {
		if err := pp.Validate(); err != nil {
			return res, err
		}
	}
	if !within(e.root, res.Dir) {
		return res, fmt.Errorf("%w: %s", ErrOutsideRoot, res.Dir)
	}

	if p.Persistent() {
		// A persisted directory belongs to exactly one recording.
		if err := os.MkdirAll(filepath.Dir(res.Dir), 0755); err != nil {
			return res, fmt.Errorf("failed to create export directory: %w", err)
		}
		if err := os.Mkdir(res.Dir, 0755); err != nil {
			return res, fmt.Errorf("failed to create export directory: %w", err)
		}
	} else if err := os.MkdirAll(res.Dir, 0755); err != nil {
		return res, fmt.Errorf("failed to create export directory: %w", err)
	}

	var errs []error

	if err := writeFile(filepath.Join(res.Dir, KeypointFile), func(w io.Writer) error {
		return WriteKeypoints(w, rec)
	}); err != nil {
		log.Printf("Record saving failed: %s: %v", res.Dir, err)
		errs = append(errs, err)
	} else {
		res.Frames = len(rec.Skeleton)
	}

	offset := len(rec.Left)
	for i, f := range rec.Left {
		if err := writeImage(res.Dir, i, f.Image); err != nil {
			errs = append(errs, err)
			continue
		}
		res.Images++
	}
	for i, f := range rec.Right {
		if err := writeImage(res.Dir, offset+i, f.Image); err != nil {
			errs = append(errs, err)
			continue
		}
		res.Images++
	}

	if p.Persistent() && e.catalog != nil {
		entry := &store.Recording{
			LabelID:    rec.LabelID,
			Mode:       "output",
			Path:       res.Dir,
			Frames:     res.Frames,
			DurationMS: rec.Duration().Milliseconds(),
			CreatedAt:  now,
		}
		if pp, ok := p.(Persisted); ok {
			entry.Operator = pp.Operator
		}
		if err := e.catalog.Create(entry); err != nil {
			errs = append(errs, fmt.Errorf("failed to catalog recording: %w", err))
		} else {
			res.ID = entry.ID
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		log.Printf("Label %d (%s) saving ... %d error(s) in %s", rec.LabelID, rec.LabelName, len(errs), res.Dir)
	} else {
		log.Printf("Label %d (%s) saving ... done %s", rec.LabelID, rec.LabelName, res.Dir)
	}
	return res, err
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	if err := fn(w); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeImage(dir string, n int, img image.Image) error {
	if img == nil {
		return fmt.Errorf("image %d: %w", n, ErrEmptyImage)
	}
	path := filepath.Join(dir, strconv.Itoa(n)+".png")
	if err := writeFile(path, func(w io.Writer) error { return png.Encode(w, img) }); err != nil {
		return fmt.Errorf("image %d: %w", n, err)
	}
	return nil
}

// WriteKeypoints serializes the skeleton sequence as tab separated lines:
//
//	label	<id>	<name>
//	frames	<count>
//	<t_ms>	<left_active>	<right_active>	<lx> <ly> <lz>	<rx> <ry> <rz>	<p0x> <p0y> <p0z> ...
func WriteKeypoints(w io.Writer, rec Recording) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "label\t%d\t%s\n", rec.LabelID, rec.LabelName)
	fmt.Fprintf(bw, "frames\t%d\n", len(rec.Skeleton))

	var buf []byte
	for _, f := range rec.Skeleton {
		buf = buf[:0]
		buf = strconv.AppendInt(buf, f.Timestamp.Milliseconds(), 10)
		buf = append(buf, '\t')
		buf = appendBool(buf, f.LeftActive)
		buf = append(buf, '\t')
		buf = appendBool(buf, f.RightActive)
		buf = append(buf, '\t')
		buf = appendPoint(buf, f.LeftHand)
		buf = append(buf, '\t')
		buf = appendPoint(buf, f.RightHand)
		buf = append(buf, '\t')
		for i := 0; i < skeleton.NumPoints; i++ {
			if i > 0 {
				buf = append(buf, ' ')
			}
			buf = appendPoint(buf, f.Points[i])
		}
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}

	return bw.Flush()
}

func appendBool(buf []byte, b bool) []byte {
	if b {
		return append(buf, '1')
	}
	return append(buf, '0')
}

func appendPoint(buf []byte, p skeleton.CameraPoint) []byte {
	buf = strconv.AppendFloat(buf, p.X, 'f', 6, 64)
	buf = append(buf, ' ')
	buf = strconv.AppendFloat(buf, p.Y, 'f', 6, 64)
	buf = append(buf, ' ')
	return strconv.AppendFloat(buf, p.Z, 'f', 6, 64)
}
