// Package app wires the sensor, the per-tick pipeline and the recorder together.
package app

import (
	"context"
	"fmt"
	"image"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/body"
	"github.com/ayusman/mudra/internal/consumer"
	"github.com/ayusman/mudra/internal/export"
	"github.com/ayusman/mudra/internal/label"
	"github.com/ayusman/mudra/internal/recorder"
	"github.com/ayusman/mudra/internal/roi"
	"github.com/ayusman/mudra/internal/sensor"
	"github.com/ayusman/mudra/internal/skeleton"
	"github.com/ayusman/mudra/internal/store"
)

// Default pipeline settings.
const (
	DefaultAlpha           = 0.3
	DefaultTickInterval    = 33 * time.Millisecond
	DefaultConsumerTimeout = 5 * time.Second
	DefaultOperator        = "anonymous"
)

// Config holds configuration options for the application.
type Config struct {
	Store           *store.Store // optional
	Source          sensor.Source
	Mapper          sensor.Mapper // defaults to sensor.DefaultMapper()
	DataDir         string
	ConsumerDir     string
	ConsumerTimeout time.Duration
	TickInterval    time.Duration
	Alpha           float64
	ROIScale        float64
	ROISize         int
	Recorder        recorder.Config
	Mode            recorder.Mode
	LabelID         int
	Operator        string
}

// Status is a snapshot of the pipeline for display.
type Status struct {
	Mode        recorder.Mode        `json:"mode"`
	LabelID     int                  `json:"label_id"`
	LabelName   string               `json:"label_name"`
	Operator    string               `json:"operator"`
	Tracked     bool                 `json:"tracked"`
	TrackingID  uint64               `json:"tracking_id"`
	Distance    float64              `json:"distance"`
	SpineScale  float64              `json:"spine_scale"`
	SpinePixels float64              `json:"spine_pixels"`
	LeftHand    skeleton.CameraPoint `json:"left_hand"`
	RightHand   skeleton.CameraPoint `json:"right_hand"`
	Activation  body.Activation      `json:"activation"`
	Stacking    bool                 `json:"stacking"`
	Stacked     int                  `json:"stacked"`
	Recorded    int                  `json:"recorded"`
	Produced    bool                 `json:"produced"`
	FPS         float64              `json:"fps"`
	Ticks       int64                `json:"ticks"`
	LastOutcome recorder.Outcome     `json:"last_outcome"`
	LastExport  *export.Result       `json:"last_export,omitempty"`
	LastError   string               `json:"last_error,omitempty"`
	Replies     []consumer.Reply     `json:"replies,omitempty"`
	Running     bool                 `json:"running"`
}

// App is the main application that turns sensor ticks into recordings.
type App struct {
	config    Config
	source    sensor.Source
	mapper    sensor.Mapper
	selector  *body.Selector
	hands     *body.HandTracker
	extractor *roi.Extractor
	recorder  *recorder.Recorder
	exporter  *export.Exporter
	labels    *label.Mapper
	consumers *consumer.Manager
	executor  *consumer.Executor

	// mu serialises tick processing with control changes.
	mu       sync.Mutex
	table    skeleton.Table
	operator string
	lastTick time.Duration
	haveTick bool

	statusMu sync.RWMutex
	status   Status

	ctx      context.Context
	cancel   context.CancelFunc
	notifyWG sync.WaitGroup

	runMu   sync.Mutex
	stopCh  chan struct{}
	done    chan struct{}
	stopped bool
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	if config.Mapper == nil {
		config.Mapper = sensor.DefaultMapper()
	}
	if config.Alpha <= 0 {
		config.Alpha = DefaultAlpha
	}
	if config.TickInterval <= 0 {
		config.TickInterval = DefaultTickInterval
	}
	if config.ConsumerTimeout <= 0 {
		config.ConsumerTimeout = DefaultConsumerTimeout
	}
	if config.Operator == "" {
		config.Operator = DefaultOperator
	}
	if config.Recorder == (recorder.Config{}) {
		config.Recorder = recorder.DefaultConfig()
	}

	var catalog export.Catalog
	if config.Store != nil {
		catalog = config.Store.Recordings()
	}

	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		config:    config,
		source:    config.Source,
		mapper:    config.Mapper,
		selector:  body.NewSelector(),
		hands:     body.NewHandTracker(config.Alpha),
		extractor: roi.NewExtractor(config.Mapper, config.ROIScale, config.ROISize),
		exporter:  export.New(config.DataDir, catalog),
		labels:    label.NewMapper(),
		consumers: consumer.NewManager(config.ConsumerDir),
		executor:  consumer.NewExecutor(config.ConsumerTimeout),
		operator:  config.Operator,
		ctx:       ctx,
		cancel:    cancel,
	}
	a.recorder = recorder.New(config.Recorder, a.exporter)

	if config.Store != nil {
		if err := a.labels.Load(config.Store.Labels()); err != nil {
			log.Printf("Failed to load labels: %v", err)
		}
	}

	a.recorder.SetMode(config.Mode)
	a.recorder.SetLabel(config.LabelID, a.labels.NameOr(config.LabelID))
	a.applyPolicy()
	a.publish(func(s *Status) {})

	return a
}

// applyPolicy picks the export policy for the current mode. Callers hold a.mu
// or have exclusive access.
func (a *App) applyPolicy() {
	if a.recorder.Mode() == recorder.Output {
		id, name := a.recorder.Label()
		a.recorder.SetPolicy(export.Persisted{LabelID: id, LabelName: name, Operator: a.operator})
		return
	}
	a.recorder.SetPolicy(export.Transient{})
}

// publish refreshes the control fields of the status snapshot and applies fn.
func (a *App) publish(fn func(s *Status)) {
	id, name := a.recorder.Label()

	a.statusMu.Lock()
	defer a.statusMu.Unlock()

	s := &a.status
	s.Mode = a.recorder.Mode()
	s.LabelID = id
	s.LabelName = name
	s.Operator = a.operator
	s.Stacking = a.recorder.Stacking()
	s.Stacked = a.recorder.Stacked()
	s.Recorded = a.recorder.Recorded()
	s.Produced = a.recorder.Produced()
	fn(s)
}

func (a *App) saveSetting(key, value string) {
	if a.config.Store == nil {
		return
	}
	if err := a.config.Store.Settings().Set(key, value); err != nil {
		log.Printf("Failed to save setting %s: %v", key, err)
	}
}

// SetMode switches the recording mode. Switching to Off drops an open session.
func (a *App) SetMode(m recorder.Mode) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.recorder.SetMode(m)
	a.applyPolicy()
	a.saveSetting(store.SettingMode, m.String())
	a.publish(func(s *Status) {})
	log.Printf("Mode set to %s", m)
}

// Mode returns the current recording mode.
func (a *App) Mode() recorder.Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.recorder.Mode()
}

// SetLabel sets the label id of subsequent sessions.
func (a *App) SetLabel(id int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.recorder.SetLabel(id, a.labels.NameOr(id))
	a.applyPolicy()
	a.saveSetting(store.SettingLabel, strconv.Itoa(id))
	a.publish(func(s *Status) {})
}

// SetOperator sets the operator name used in persisted paths.
func (a *App) SetOperator(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.operator = name
	a.applyPolicy()
	a.saveSetting(store.SettingOperator, name)
	a.publish(func(s *Status) {})
}

// RestoreSettings applies the mode, label and operator saved by a previous run.
func (a *App) RestoreSettings() error {
	if a.config.Store == nil {
		return nil
	}

	settings, err := a.config.Store.Settings().All()
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}

	if v, ok := settings[store.SettingOperator]; ok {
		if err := export.CheckName(v); err != nil {
			log.Printf("Ignoring saved operator: %v", err)
		} else {
			a.SetOperator(v)
		}
	}
	if v, ok := settings[store.SettingLabel]; ok {
		if id, err := strconv.Atoi(v); err == nil {
			a.SetLabel(id)
		}
	}
	if v, ok := settings[store.SettingMode]; ok {
		if m, err := recorder.ParseMode(v); err == nil {
			a.SetMode(m)
		}
	}
	return nil
}

// ImportLabels stores label bindings and makes them available for lookup.
func (a *App) ImportLabels(entries []label.Entry) error {
	for _, e := range entries {
		if a.config.Store != nil {
			if err := a.config.Store.Labels().Upsert(&store.Label{ID: e.ID, Name: e.Name}); err != nil {
				return fmt.Errorf("failed to store label %d: %w", e.ID, err)
			}
		}
		a.labels.Add(e.ID, e.Name)
	}

	a.RefreshLabel()
	log.Printf("Imported %d labels", len(entries))
	return nil
}

// RefreshLabel re-resolves the current label name after the label table changed.
func (a *App) RefreshLabel() {
	a.mu.Lock()
	defer a.mu.Unlock()

	id, _ := a.recorder.Label()
	a.recorder.SetLabel(id, a.labels.NameOr(id))
	a.applyPolicy()
	a.publish(func(s *Status) {})
}

// DiscoverConsumers scans the consumer directory.
func (a *App) DiscoverConsumers() error {
	if err := a.consumers.Discover(); err != nil {
		return err
	}
	log.Printf("Discovered %d consumers", len(a.consumers.List()))
	return nil
}

// Status returns the current status snapshot.
func (a *App) Status() Status {
	a.statusMu.RLock()
	defer a.statusMu.RUnlock()

	s := a.status
	s.Replies = append([]consumer.Reply(nil), a.status.Replies...)
	return s
}

// Crop returns the latest crop of a hand, or nil before the first one.
func (a *App) Crop(hand skeleton.Hand) image.Image {
	return a.extractor.Last(hand)
}

// Labels returns the label lookup.
func (a *App) Labels() *label.Mapper {
	return a.labels
}

// Store returns the configured store, which may be nil.
func (a *App) Store() *store.Store {
	return a.config.Store
}

// Consumers returns the consumer manager.
func (a *App) Consumers() *consumer.Manager {
	return a.consumers
}

// DataDir returns the export root.
func (a *App) DataDir() string {
	return a.exporter.Root()
}
