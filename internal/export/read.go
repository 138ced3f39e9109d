package export

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ayusman/mudra/internal/frames"
	"github.com/ayusman/mudra/internal/skeleton"
)

// ReadKeypoints parses a keypoint log written by WriteKeypoints. Timestamps
// come back at millisecond precision and Start is the first frame's timestamp.
// Image samples are not part of the log.
func ReadKeypoints(r io.Reader) (Recording, error) {
	var rec Recording

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	next := func() ([]string, bool) {
		if !scanner.Scan() {
			return nil, false
		}
		lineNo++
		return strings.Split(scanner.Text(), "\t"), true
	}

	fields, ok := next()
	if !ok || len(fields) != 3 || fields[0] != "label" {
		return rec, fmt.Errorf("line 1: expected label header")
	}
	id, err := strconv.Atoi(fields[1])
	if err != nil {
		return rec, fmt.Errorf("line 1: invalid label id: %w", err)
	}
	rec.LabelID, rec.LabelName = id, fields[2]

	fields, ok = next()
	if !ok || len(fields) != 2 || fields[0] != "frames" {
		return rec, fmt.Errorf("line 2: expected frames header")
	}
	count, err := strconv.Atoi(fields[1])
	if err != nil || count < 0 {
		return rec, fmt.Errorf("line 2: invalid frame count %q", fields[1])
	}

	rec.Skeleton = make([]frames.Frame, 0, min(count, 1024))
	for {
		fields, ok := next()
		if !ok {
			break
		}
		f, err := parseFrame(fields)
		if err != nil {
			return rec, fmt.Errorf("line %d: %w", lineNo, err)
		}
		rec.Skeleton = append(rec.Skeleton, f)
	}
	if err := scanner.Err(); err != nil {
		return rec, err
	}

	if len(rec.Skeleton) != count {
		return rec, fmt.Errorf("header declares %d frames, found %d", count, len(rec.Skeleton))
	}
	if count > 0 {
		rec.Start = rec.Skeleton[0].Timestamp
	}
	return rec, nil
}

func parseFrame(fields []string) (frames.Frame, error) {
	var f frames.Frame
	if len(fields) != 6 {
		return f, fmt.Errorf("expected 6 fields, got %d", len(fields))
	}

	ms, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return f, fmt.Errorf("invalid timestamp: %w", err)
	}
	f.Timestamp = time.Duration(ms) * time.Millisecond

	if f.LeftActive, err = parseBool(fields[1]); err != nil {
		return f, err
	}
	if f.RightActive, err = parseBool(fields[2]); err != nil {
		return f, err
	}

	hands, err := parsePoints(fields[3] + " " + fields[4])
	if err != nil {
		return f, fmt.Errorf("hands: %w", err)
	}
	if len(hands) != 2 {
		return f, fmt.Errorf("expected 2 hand points, got %d", len(hands))
	}
	f.LeftHand, f.RightHand = hands[0], hands[1]

	points, err := parsePoints(fields[5])
	if err != nil {
		return f, fmt.Errorf("points: %w", err)
	}
	if len(points) != skeleton.NumPoints {
		return f, fmt.Errorf("expected %d points, got %d", skeleton.NumPoints, len(points))
	}
	copy(f.Points[:], points)

	return f, nil
}

func parseBool(s string) (bool, error) {
	switch s {
	case "1":
		return true, nil
	case "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid flag %q", s)
}

func parsePoints(s string) ([]skeleton.CameraPoint, error) {
	values := strings.Fields(s)
	if len(values)%3 != 0 {
		return nil, fmt.Errorf("%d coordinates is not a whole number of points", len(values))
	}

	points := make([]skeleton.CameraPoint, len(values)/3)
	for i := range points {
		var xyz [3]float64
		for j := range xyz {
			v, err := strconv.ParseFloat(values[3*i+j], 64)
			if err != nil {
				return nil, err
			}
			xyz[j] = v
		}
		points[i] = skeleton.CameraPoint{X: xyz[0], Y: xyz[1], Z: xyz[2]}
	}
	return points, nil
}
