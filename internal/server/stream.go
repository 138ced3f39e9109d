package server

import (
	"errors"
	"fmt"
	"image"
	"net/http"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/skeleton"
)

// CropSource provides the latest hand crops.
type CropSource interface {
	Crop(hand skeleton.Hand) image.Image
}

// StreamHandler serves the latest crop of one hand as MJPEG, or as a single
// JPEG when the request carries ?snapshot=1.
type StreamHandler struct {
	crops    CropSource
	hand     skeleton.Hand
	interval time.Duration
}

// NewStreamHandler creates a new StreamHandler for one hand.
func NewStreamHandler(crops CropSource, hand skeleton.Hand) *StreamHandler {
	return &StreamHandler{crops: crops, hand: hand, interval: 66 * time.Millisecond}
}

var errNoCrop = errors.New("no crop yet")

// encodeJPEG converts an RGBA crop to a BGR JPEG.
func encodeJPEG(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, errNoCrop
	}

	rgba, err := gocv.ImageToMatRGBA(img)
	if err != nil {
		return nil, err
	}
	defer rgba.Close()

	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(rgba, &bgr, gocv.ColorRGBAToBGR)

	buf, err := gocv.IMEncode(".jpg", bgr)
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	// The native buffer is released on Close
	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// ServeHTTP streams MJPEG frames to connected clients.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.URL.Query().Get("snapshot") != "" {
		h.snapshot(w)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		data, err := encodeJPEG(h.crops.Crop(h.hand))
		if err != nil {
			continue
		}

		// Write MJPEG frame
		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(data))
		if _, err := w.Write(data); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}

func (h *StreamHandler) snapshot(w http.ResponseWriter) {
	data, err := encodeJPEG(h.crops.Crop(h.hand))
	if errors.Is(err, errNoCrop) {
		http.Error(w, "No crop available", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to encode crop", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(data)
}
