package app

import (
	"errors"
	"image"
	"log"
	"time"

	"github.com/ayusman/mudra/internal/body"
	"github.com/ayusman/mudra/internal/consumer"
	"github.com/ayusman/mudra/internal/export"
	"github.com/ayusman/mudra/internal/recorder"
	"github.com/ayusman/mudra/internal/sensor"
	"github.com/ayusman/mudra/internal/skeleton"
)

// ProcessTick runs one sensor tick through the pipeline:
//
//  1. Select the closest tracked body, rebinding the face source on identity change
//  2. Smooth both hand positions
//  3. Rebuild the keypoint table and evaluate hand activation
//  4. Crop both hands from the colour image
//  5. Step the recorder, which may export a finished session
//
// Ticks without a tracked body only refresh the status.
func (a *App) ProcessTick(tick *sensor.Tick) recorder.Outcome {
	a.mu.Lock()
	defer a.mu.Unlock()

	var fps float64
	if a.haveTick && tick.Timestamp > a.lastTick {
		fps = float64(time.Second) / float64(tick.Timestamp-a.lastTick)
	}
	a.lastTick = tick.Timestamp
	a.haveTick = true

	sel := a.selector.Select(tick.Bodies)
	if !sel.Tracked {
		a.publish(func(s *Status) {
			s.Tracked = false
			s.Activation = body.Activation{}
			s.FPS = fps
			s.Ticks++
		})
		return recorder.None
	}

	if sel.IdentityChanged {
		if binder, ok := a.source.(sensor.FaceBinder); ok {
			binder.BindFace(sel.TrackingID)
		}
		a.recorder.ResetIdentity()
		log.Printf("Tracking body %d at %.2fm", sel.TrackingID, sel.Distance)
	}

	b := &tick.Bodies[sel.Index]
	a.hands.Update(b)

	spine := body.SpineScale(b)
	body.BuildTable(&a.table, b, tick.Face, spine)
	act := body.Evaluate(&a.table, spine)
	spinePx := body.SpineScalePixels(b, a.mapper)

	var left, right image.Image
	if tick.Color != nil && !tick.Color.Empty() {
		left, right = a.extractor.Extract(*tick.Color, a.hands.Left(), a.hands.Right(), spinePx)
	} else {
		left, right = a.extractor.Last(skeleton.Left), a.extractor.Last(skeleton.Right)
	}

	outcome := a.recorder.Step(recorder.Input{
		Timestamp:  tick.Timestamp,
		Activation: act,
		LeftHand:   a.hands.Left(),
		RightHand:  a.hands.Right(),
		Points:     a.table,
		LeftImage:  left,
		RightImage: right,
	})

	var result *export.Result
	var lastErr string
	if outcome == recorder.Exported || outcome == recorder.ExportFailed {
		res, err := a.recorder.LastExport()
		result = &res
		if err != nil {
			lastErr = err.Error()
		}
		// A transient export is usable as soon as its keypoints are on disk.
		if !res.Persistent && res.Frames > 0 {
			a.notify(res)
		}
	}

	a.publish(func(s *Status) {
		s.Tracked = true
		s.TrackingID = sel.TrackingID
		s.Distance = sel.Distance
		s.SpineScale = spine
		s.SpinePixels = spinePx
		s.LeftHand = a.hands.Left()
		s.RightHand = a.hands.Right()
		s.Activation = act
		s.FPS = fps
		s.Ticks++
		if outcome != recorder.None {
			s.LastOutcome = outcome
		}
		if result != nil {
			s.LastExport = result
			s.LastError = lastErr
		}
	})

	return outcome
}

// notify hands a transient export to every consumer off the tick goroutine.
func (a *App) notify(res export.Result) {
	if len(a.consumers.List()) == 0 {
		return
	}

	id, _ := a.recorder.Label()
	req := &consumer.Request{
		Action:  consumer.ActionPredict,
		Dir:     res.Dir,
		LabelID: id,
		Frames:  res.Frames,
	}

	a.notifyWG.Add(1)
	go func() {
		defer a.notifyWG.Done()

		replies := a.executor.Notify(a.ctx, a.consumers, req)
		for _, r := range replies {
			if r.Error != "" {
				log.Printf("Consumer %s failed: %s", r.Consumer, r.Error)
			}
		}

		a.statusMu.Lock()
		a.status.Replies = replies
		a.statusMu.Unlock()
	}()
}

// WaitNotifications blocks until every pending consumer notification finished.
func (a *App) WaitNotifications() {
	a.notifyWG.Wait()
}

// ErrStopped is returned by Start after Stop.
var ErrStopped = errors.New("pipeline already stopped")

// Start begins reading ticks from the source on a ticker.
func (a *App) Start() error {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	if a.stopped {
		return ErrStopped
	}
	if a.stopCh != nil {
		return nil
	}
	if a.source == nil {
		return errors.New("no sensor source configured")
	}

	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	a.setRunning(true)
	go a.run(a.stopCh, a.done)

	log.Println("Pipeline started")
	return nil
}

// Done is closed when the tick loop exits, either after Stop or when the
// source is exhausted. It is nil before Start.
func (a *App) Done() <-chan struct{} {
	a.runMu.Lock()
	defer a.runMu.Unlock()
	return a.done
}

// Stop halts the tick loop, waits for pending notifications and closes the
// source. The pipeline cannot be started again afterwards.
func (a *App) Stop() {
	a.runMu.Lock()
	if a.stopCh != nil {
		close(a.stopCh)
		<-a.done
		a.stopCh = nil
	}
	a.stopped = true
	a.runMu.Unlock()

	a.cancel()
	a.notifyWG.Wait()

	if a.source != nil {
		if err := a.source.Close(); err != nil {
			log.Printf("Error closing sensor source: %v", err)
		}
	}

	a.setRunning(false)
	log.Println("Pipeline stopped")
}

// run is the tick loop. Each tick is processed to completion before the next
// one is read.
func (a *App) run(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(a.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			tick, err := a.source.ReadTick()
			if errors.Is(err, sensor.ErrExhausted) {
				log.Println("Sensor source exhausted")
				a.setRunning(false)
				return
			}
			if errors.Is(err, sensor.ErrSourceClosed) {
				return
			}
			if err != nil {
				log.Printf("Error reading tick: %v", err)
				continue
			}

			a.ProcessTick(tick)
			if err := tick.Close(); err != nil {
				log.Printf("Error releasing tick: %v", err)
			}
		}
	}
}

func (a *App) setRunning(running bool) {
	a.statusMu.Lock()
	a.status.Running = running
	a.statusMu.Unlock()
}
