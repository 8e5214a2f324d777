// Package tray provides a system tray interface for the chakra interaction engine.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/chakra/internal/interaction"
)

// Tray represents the system tray application. It is an interaction.Sink
// and shows the latest activation or throw.
type Tray struct {
	onToggle   func(enabled bool)
	onSettings func()
	onQuit     func()
	enabled    bool
	last       string
	ready      bool
	quitting   bool
	mu         sync.RWMutex

	// lastChanged wakes the menu loop; Publish never blocks on it
	lastChanged chan struct{}

	// Menu items stored for later updates
	menuToggle      *systray.MenuItem
	menuLastGesture *systray.MenuItem
}

// New creates a new Tray instance reflecting the given enabled state.
func New(enabled bool) *Tray {
	return &Tray{
		enabled:     enabled,
		lastChanged: make(chan struct{}, 1),
	}
}

// OnToggle sets the callback function to be called when the enabled state is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnSettings sets the callback function to be called when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
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

// Quit stops the tray. Called before the tray is ready, it makes Run
// return as soon as the menu is set up.
func (t *Tray) Quit() {
	t.mu.Lock()
	t.quitting = true
	ready := t.ready
	t.mu.Unlock()

	if ready {
		systray.Quit()
	}
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Chakra")
	systray.SetTooltip("Chakra hand gestures")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle gesture processing")
	systray.AddSeparator()

	t.menuLastGesture = systray.AddMenuItem(lastTitle(t.last), "Last activation or throw")
	t.menuLastGesture.Disable()
	t.ready = true
	quitting := t.quitting
	t.mu.Unlock()
	if quitting {
		systray.Quit()
		return
	}
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Chakra")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-t.lastChanged:
				t.refreshLast()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func lastTitle(last string) string {
	if last == "" {
		return "Last: none"
	}
	return "Last: " + last
}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled

	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleSettings handles the settings menu item click.
func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
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

func (t *Tray) refreshLast() {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.menuLastGesture != nil {
		t.menuLastGesture.SetTitle(lastTitle(t.last))
	}
}

// Describe formats an activation or throw for display. It reports false
// for every other event kind.
func Describe(e interaction.Event) (string, bool) {
	switch e.Kind {
	case interaction.EventActivate:
		return fmt.Sprintf("activated %s (%s hand, %.0f°)", e.TargetID, e.Hand, e.Angle), true
	case interaction.EventThrow:
		return fmt.Sprintf("threw %s (%s hand)", e.TargetID, e.Hand), true
	}
	return "", false
}

// Publish implements interaction.Sink. It runs on the engine tick and only
// records the label; the menu loop redraws it.
func (t *Tray) Publish(e interaction.Event) {
	label, ok := Describe(e)
	if !ok {
		return
	}
	t.SetLastGesture(label)
}

// SetLastGesture updates the last gesture display in the menu.
func (t *Tray) SetLastGesture(label string) {
	t.mu.Lock()
	t.last = label
	t.mu.Unlock()

	select {
	case t.lastChanged <- struct{}{}:
	default:
	}
}

// LastGesture returns the label shown in the menu.
func (t *Tray) LastGesture() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}
