// Package tray provides a system tray interface for the Mudra recording station.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/mudra/internal/recorder"
)

var modes = []recorder.Mode{recorder.Off, recorder.Predict, recorder.Output}

var modeLabels = map[recorder.Mode]string{
	recorder.Off:     "Off",
	recorder.Predict: "Predict",
	recorder.Output:  "Record",
}

// Tray represents the system tray application.
type Tray struct {
	onMode func(m recorder.Mode)
	onOpen func()
	onQuit func()
	mode   recorder.Mode
	mu     sync.RWMutex

	// Menu items stored for later updates
	menuModes    map[recorder.Mode]*systray.MenuItem
	menuLabel    *systray.MenuItem
	menuRecorded *systray.MenuItem
}

// New creates a new Tray showing the given mode.
func New(mode recorder.Mode) *Tray {
	return &Tray{mode: mode}
}

// OnMode sets the callback function to be called when a mode item is clicked.
func (t *Tray) OnMode(fn func(m recorder.Mode)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onMode = fn
}

// OnOpen sets the callback function to be called when the status item is clicked.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit stops the tray loop started by Run.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Mudra")
	systray.SetTooltip("Mudra Gesture Recorder")

	t.mu.Lock()
	t.menuModes = make(map[recorder.Mode]*systray.MenuItem, len(modes))
	for _, m := range modes {
		t.menuModes[m] = systray.AddMenuItem(modeTitle(m, t.mode), "Switch to "+modeLabels[m])
	}
	systray.AddSeparator()

	t.menuLabel = systray.AddMenuItem(labelTitle(0, ""), "Current label")
	t.menuLabel.Disable()
	t.menuRecorded = systray.AddMenuItem(recordedTitle(0), "Sessions recorded this run")
	t.menuRecorded.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Status...", "Open the status page in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Mudra")

	// One goroutine per mode item; each forwards its clicks.
	for _, m := range modes {
		go func(m recorder.Mode, item *systray.MenuItem) {
			for range item.ClickedCh {
				t.handleMode(m)
			}
		}(m, t.menuModes[m])
	}

	go func() {
		for {
			select {
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

// handleMode handles a mode menu item click.
func (t *Tray) handleMode(m recorder.Mode) {
	t.SetMode(m)

	t.mu.RLock()
	callback := t.onMode
	t.mu.RUnlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(m)
	}
}

// handleOpen handles the status menu item click.
func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetMode marks m as the current mode in the menu.
func (t *Tray) SetMode(m recorder.Mode) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.mode = m
	for mode, item := range t.menuModes {
		item.SetTitle(modeTitle(mode, m))
	}
}

// SetSession updates the label and recorded count lines.
func (t *Tray) SetSession(labelID int, labelName string, recorded int) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuLabel != nil {
		t.menuLabel.SetTitle(labelTitle(labelID, labelName))
	}
	if t.menuRecorded != nil {
		t.menuRecorded.SetTitle(recordedTitle(recorded))
	}
}

// Mode returns the mode shown as current.
func (t *Tray) Mode() recorder.Mode {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.mode
}

func modeTitle(m, current recorder.Mode) string {
	if m == current {
		return "● " + modeLabels[m]
	}
	return "○ " + modeLabels[m]
}

func labelTitle(id int, name string) string {
	if name == "" {
		return fmt.Sprintf("Label: %d", id)
	}
	return fmt.Sprintf("Label: %d %s", id, name)
}

func recordedTitle(n int) string {
	if n == 1 {
		return "Recorded: 1 session"
	}
	return fmt.Sprintf("Recorded: %d sessions", n)
}
