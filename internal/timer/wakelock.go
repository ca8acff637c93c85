package timer

import (
	"log"
	"sync"
)

// Activity is anything that can report a run in progress
type Activity interface {
	Active() bool
}

// WakeGuard re-requests the wake lock when the screen becomes visible again while any
// activity runs. It starts out hidden.
type WakeGuard struct {
	out    *Outputs
	logger *log.Logger

	mu         sync.Mutex
	activities []Activity
	visible    bool
}

// NewWakeGuard creates a guard over the given activities
func NewWakeGuard(out *Outputs, logger *log.Logger, activities ...Activity) *WakeGuard {
	if logger == nil {
		panic("WakeGuard: logger cannot be nil")
	}
	return &WakeGuard{
		out:        out,
		logger:     logger,
		activities: activities,
	}
}

// Add registers another activity
func (g *WakeGuard) Add(a Activity) {
	g.mu.Lock()
	g.activities = append(g.activities, a)
	g.mu.Unlock()
}

// VisibilityChanged records the new visibility and requests the wake lock when
// the screen went from hidden to visible with any activity running. Returns whether it asked.
func (g *WakeGuard) VisibilityChanged(visible bool) bool {
	g.mu.Lock()
	shown := visible && !g.visible
	g.visible = visible
	activities := append([]Activity(nil), g.activities...)
	g.mu.Unlock()

	if !shown {
		return false
	}
	for _, a := range activities {
		if a != nil && a.Active() {
			g.logger.Printf("WakeGuard: Visible with a run in progress, requesting wake lock")
			g.out.RequestWakeLock()
			return true
		}
	}
	return false
}

// Visible returns the last reported visibility
func (g *WakeGuard) Visible() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.visible
}
