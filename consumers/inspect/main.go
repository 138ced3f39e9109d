// Package main provides a consumer that inspects transient exports.
// It reads the keypoint log of the exported session and reports how long
// each hand was raised, which is enough to check the recording loop end to end.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ayusman/mudra/internal/consumer"
	"github.com/ayusman/mudra/internal/export"
)

// Summary is returned in Response.Data.
type Summary struct {
	LabelID     int    `json:"label_id"`
	LabelName   string `json:"label_name"`
	Frames      int    `json:"frames"`
	DurationMS  int64  `json:"duration_ms"`
	LeftActive  int    `json:"left_active"`
	RightActive int    `json:"right_active"`
	Images      int    `json:"images"`
}

func main() {
	resp := handle(os.Stdin)
	json.NewEncoder(os.Stdout).Encode(resp)
}

func handle(r io.Reader) consumer.Response {
	var req consumer.Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return failure(fmt.Sprintf("failed to decode request: %v", err))
	}

	switch req.Action {
	case consumer.ActionPredict:
		summary, err := inspect(req.Dir)
		if err != nil {
			return failure(fmt.Sprintf("action %s failed: %v", req.Action, err))
		}
		if req.Frames != 0 && summary.Frames != req.Frames {
			return failure(fmt.Sprintf("expected %d frames, found %d", req.Frames, summary.Frames))
		}
		data, err := json.Marshal(summary)
		if err != nil {
			return failure(err.Error())
		}
		return consumer.Response{Success: true, Data: data}
	default:
		return failure(fmt.Sprintf("unknown action: %s", req.Action))
	}
}

// inspect summarises the export in dir.
func inspect(dir string) (*Summary, error) {
	f, err := os.Open(filepath.Join(dir, export.KeypointFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rec, err := export.ReadKeypoints(f)
	if err != nil {
		return nil, err
	}

	s := &Summary{
		LabelID:    rec.LabelID,
		LabelName:  rec.LabelName,
		Frames:     len(rec.Skeleton),
		DurationMS: rec.Duration().Milliseconds(),
	}
	for _, fr := range rec.Skeleton {
		if fr.LeftActive {
			s.LeftActive++
		}
		if fr.RightActive {
			s.RightActive++
		}
	}

	images, err := filepath.Glob(filepath.Join(dir, "*.png"))
	if err != nil {
		return nil, err
	}
	s.Images = len(images)

	return s, nil
}

func failure(msg string) consumer.Response {
	return consumer.Response{Success: false, Error: msg}
}
