package timer

import (
	"log"
	"sync"
	"time"

	"github.com/lowaak/intervals/internal/events"
)

const (
	DefaultCountdownDuration = time.Minute
	CountdownWarnThreshold   = 3 * time.Second
)

// CountdownPresets are the quick-pick durations offered for the single countdown
var CountdownPresets = []time.Duration{
	30 * time.Second,
	1 * time.Minute,
	2 * time.Minute,
	5 * time.Minute,
	10 * time.Minute,
}

// CountdownSnapshot is an immutable copy of the single countdown state
type CountdownSnapshot struct {
	Running   bool
	Duration  time.Duration
	Remaining time.Duration
	WarnFired bool
}

// Active reports whether the countdown is running
func (s CountdownSnapshot) Active() bool {
	return s.Running
}

// Display renders the remaining time, rounded up to the second
func (s CountdownSnapshot) Display() string {
	return FormatTime(ceilSeconds(s.Remaining))
}

// Progress is the fraction of the duration used, clamped to 0..1
func (s CountdownSnapshot) Progress() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return clampUnit(1 - float64(s.Remaining)/float64(s.Duration))
}

// SingleCountdownArgs holds the collaborators of a SingleCountdown
type SingleCountdownArgs struct {
	Scheduler    Scheduler
	Outputs      *Outputs
	Logger       *log.Logger
	TickInterval time.Duration
	Duration     time.Duration // initial duration, defaults to DefaultCountdownDuration
}

// SingleCountdown is a one-shot countdown with a warning near the end
type SingleCountdown struct {
	scheduler    Scheduler
	out          *Outputs
	logger       *log.Logger
	tickInterval time.Duration
	snapshots    *events.ChannelEvent[CountdownSnapshot]

	// State (protected by mu)
	mu         sync.Mutex
	running    bool
	duration   time.Duration
	remaining  time.Duration
	warnFired  bool
	lastTick   time.Time
	gen        uint64
	cancelTick func()
}

// NewSingleCountdown creates a stopped countdown loaded with its initial duration
func NewSingleCountdown(args SingleCountdownArgs) *SingleCountdown {
	if args.Scheduler == nil {
		panic("SingleCountdown: scheduler cannot be nil")
	}
	if args.Logger == nil {
		panic("SingleCountdown: logger cannot be nil")
	}
	cd := &SingleCountdown{
		scheduler:    args.Scheduler,
		out:          args.Outputs,
		logger:       args.Logger,
		tickInterval: args.TickInterval,
		snapshots:    events.NewChannelEvent[CountdownSnapshot](true),
		duration:     args.Duration,
	}
	if cd.out == nil {
		cd.out = NewOutputs(args.Logger, nil, nil, nil, nil)
	}
	if cd.tickInterval <= 0 {
		cd.tickInterval = DefaultTickInterval
	}
	if cd.duration <= 0 {
		cd.duration = DefaultCountdownDuration
	}
	cd.remaining = cd.duration
	return cd
}

// ListenToSnapshots registers ch for snapshots published after every change
func (cd *SingleCountdown) ListenToSnapshots(ch chan<- CountdownSnapshot) func() {
	return cd.snapshots.Listen(ch)
}

// Snapshot returns the current state
func (cd *SingleCountdown) Snapshot() CountdownSnapshot {
	cd.mu.Lock()
	defer cd.mu.Unlock()
	return cd.snapshotLocked()
}

// Active reports whether the countdown is running
func (cd *SingleCountdown) Active() bool {
	cd.mu.Lock()
	defer cd.mu.Unlock()
	return cd.running
}

// SetDuration loads minutes and seconds; negative fields count as zero. Rejected while running.
func (cd *SingleCountdown) SetDuration(minutes, seconds int) bool {
	if minutes < 0 {
		minutes = 0
	}
	if seconds < 0 {
		seconds = 0
	}
	return cd.load(time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second)
}

// SetPreset loads a duration given in seconds. Rejected while running.
func (cd *SingleCountdown) SetPreset(seconds int) bool {
	if seconds < 0 {
		seconds = 0
	}
	return cd.load(time.Duration(seconds) * time.Second)
}

func (cd *SingleCountdown) load(d time.Duration) bool {
	cd.mu.Lock()
	if cd.running {
		cd.mu.Unlock()
		cd.logger.Printf("SingleCountdown: Cannot change duration while running")
		return false
	}
	cd.duration = d
	cd.remaining = d
	cd.warnFired = false
	snap := cd.snapshotLocked()
	cd.mu.Unlock()

	cd.logger.Printf("SingleCountdown: Duration set to %s", FormatTime(d))
	cd.snapshots.Notify(snap)
	return true
}

// Toggle starts a stopped countdown or pauses a running one
func (cd *SingleCountdown) Toggle() {
	if cd.Active() {
		cd.Pause()
	} else {
		cd.Start()
	}
}

// Start counts down from the remaining time, reloading the full duration after a finished run.
func (cd *SingleCountdown) Start() {
	cd.mu.Lock()
	if cd.running {
		cd.mu.Unlock()
		cd.logger.Printf("SingleCountdown: Already running")
		return
	}
	if cd.remaining <= 0 {
		cd.remaining = cd.duration
		cd.warnFired = false
	}
	if cd.remaining <= 0 {
		cd.mu.Unlock()
		cd.logger.Printf("SingleCountdown: Cannot start - duration is zero")
		return
	}
	cd.running = true
	cd.lastTick = cd.scheduler.Now()
	cd.startTickingLocked()
	snap := cd.snapshotLocked()
	cd.mu.Unlock()

	cd.logger.Printf("SingleCountdown: Started with %s left", snap.Display())
	cd.snapshots.Notify(snap)
}

// Pause stops counting, keeping the remaining time
func (cd *SingleCountdown) Pause() {
	cd.mu.Lock()
	if !cd.running {
		cd.mu.Unlock()
		cd.logger.Printf("SingleCountdown: Cannot pause - not running")
		return
	}
	cd.running = false
	cd.stopTickingLocked()
	snap := cd.snapshotLocked()
	cd.mu.Unlock()

	cd.logger.Printf("SingleCountdown: Paused with %s left", snap.Display())
	cd.snapshots.Notify(snap)
}

// Reset stops the countdown and reloads the full duration
func (cd *SingleCountdown) Reset() {
	cd.mu.Lock()
	cd.running = false
	cd.stopTickingLocked()
	cd.remaining = cd.duration
	cd.warnFired = false
	snap := cd.snapshotLocked()
	cd.mu.Unlock()

	cd.logger.Printf("SingleCountdown: Reset")
	cd.snapshots.Notify(snap)
}

// MUST be called with mu held.
func (cd *SingleCountdown) startTickingLocked() {
	cd.stopTickingLocked()
	gen := cd.gen
	cd.cancelTick = cd.scheduler.Every(cd.tickInterval, func(now time.Time) {
		cd.onTick(gen, now)
	})
}

// MUST be called with mu held.
func (cd *SingleCountdown) stopTickingLocked() {
	cd.gen++
	if cd.cancelTick != nil {
		cd.cancelTick()
		cd.cancelTick = nil
	}
}

func (cd *SingleCountdown) onTick(gen uint64, now time.Time) {
	cd.mu.Lock()
	if gen != cd.gen || !cd.running {
		cd.mu.Unlock()
		return
	}

	delta := now.Sub(cd.lastTick)
	if delta < 0 {
		delta = 0
	}
	cd.lastTick = now
	cd.remaining -= delta

	warn := false
	if !cd.warnFired && cd.remaining > 0 && cd.remaining <= CountdownWarnThreshold {
		cd.warnFired = true
		warn = true
	}
	finished := false
	if cd.remaining <= 0 {
		cd.remaining = 0
		cd.running = false
		cd.stopTickingLocked()
		finished = true
	}
	snap := cd.snapshotLocked()
	cd.mu.Unlock()

	cd.snapshots.Notify(snap)
	if warn {
		cd.out.Fire(CueWarn, nil)
		cd.out.Pulse(HapticWarn)
	}
	if finished {
		cd.logger.Printf("SingleCountdown: Time is up")
		cd.out.Fire(CueEnd, nil)
		cd.out.Pulse(HapticCountdownEnd)
		cd.out.Announce(AnnounceTimeUp)
	}
}

// MUST be called with mu held.
func (cd *SingleCountdown) snapshotLocked() CountdownSnapshot {
	return CountdownSnapshot{
		Running:   cd.running,
		Duration:  cd.duration,
		Remaining: cd.remaining,
		WarnFired: cd.warnFired,
	}
}
