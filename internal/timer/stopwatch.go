package timer

import (
	"log"
	"sync"
	"time"

	"github.com/lowaak/intervals/internal/events"
)

// StopwatchSnapshot is an immutable copy of the stopwatch state
type StopwatchSnapshot struct {
	Running bool
	Elapsed time.Duration
	Laps    []time.Duration // lap deltas, most recent last
	Fastest int             // index into Laps, -1 with fewer than two laps
	Slowest int             // index into Laps, -1 with fewer than two laps
}

// Active reports whether the stopwatch is counting
func (s StopwatchSnapshot) Active() bool {
	return s.Running
}

// Display renders the elapsed time as MM:SS.cc
func (s StopwatchSnapshot) Display() string {
	return FormatStopwatch(s.Elapsed)
}

// StopwatchArgs holds the collaborators of a Stopwatch
type StopwatchArgs struct {
	Scheduler    Scheduler
	Outputs      *Outputs
	Logger       *log.Logger
	TickInterval time.Duration // display refresh, defaults to DefaultTickInterval
}

// Stopwatch is a free-running elapsed timer with lap splits.
// Elapsed is always derived from the scheduler clock; the tick only refreshes the display.
type Stopwatch struct {
	scheduler    Scheduler
	out          *Outputs
	logger       *log.Logger
	tickInterval time.Duration
	snapshots    *events.ChannelEvent[StopwatchSnapshot]

	// State (protected by mu)
	mu         sync.Mutex
	running    bool
	start      time.Time
	elapsed    time.Duration
	laps       []time.Duration
	gen        uint64
	cancelTick func()
}

// NewStopwatch creates a stopped stopwatch at zero
func NewStopwatch(args StopwatchArgs) *Stopwatch {
	if args.Scheduler == nil {
		panic("Stopwatch: scheduler cannot be nil")
	}
	if args.Logger == nil {
		panic("Stopwatch: logger cannot be nil")
	}
	sw := &Stopwatch{
		scheduler:    args.Scheduler,
		out:          args.Outputs,
		logger:       args.Logger,
		tickInterval: args.TickInterval,
		snapshots:    events.NewChannelEvent[StopwatchSnapshot](true),
	}
	if sw.out == nil {
		sw.out = NewOutputs(args.Logger, nil, nil, nil, nil)
	}
	if sw.tickInterval <= 0 {
		sw.tickInterval = DefaultTickInterval
	}
	return sw
}

// ListenToSnapshots registers ch for snapshots published after every change
func (sw *Stopwatch) ListenToSnapshots(ch chan<- StopwatchSnapshot) func() {
	return sw.snapshots.Listen(ch)
}

// Snapshot returns the current state, sampling the clock while running
func (sw *Stopwatch) Snapshot() StopwatchSnapshot {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if sw.running {
		sw.elapsed = sw.scheduler.Now().Sub(sw.start)
	}
	return sw.snapshotLocked()
}

// Active reports whether the stopwatch is counting
func (sw *Stopwatch) Active() bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.running
}

// Toggle starts a stopped stopwatch or pauses a running one
func (sw *Stopwatch) Toggle() {
	if sw.Active() {
		sw.Pause()
	} else {
		sw.Start()
	}
}

// Start continues counting from the current elapsed time
func (sw *Stopwatch) Start() {
	sw.mu.Lock()
	if sw.running {
		sw.mu.Unlock()
		sw.logger.Printf("Stopwatch: Already running")
		return
	}
	sw.running = true
	sw.start = sw.scheduler.Now().Add(-sw.elapsed)
	sw.startTickingLocked()
	snap := sw.snapshotLocked()
	sw.mu.Unlock()

	sw.logger.Printf("Stopwatch: Started at %s", FormatStopwatch(snap.Elapsed))
	sw.snapshots.Notify(snap)
}

// Pause freezes the elapsed time
func (sw *Stopwatch) Pause() {
	sw.mu.Lock()
	if !sw.running {
		sw.mu.Unlock()
		sw.logger.Printf("Stopwatch: Cannot pause - not running")
		return
	}
	sw.elapsed = sw.scheduler.Now().Sub(sw.start)
	sw.running = false
	sw.stopTickingLocked()
	snap := sw.snapshotLocked()
	sw.mu.Unlock()

	sw.logger.Printf("Stopwatch: Paused at %s", FormatStopwatch(snap.Elapsed))
	sw.snapshots.Notify(snap)
}

// Lap records the time since the previous lap. Only while running.
func (sw *Stopwatch) Lap() (time.Duration, bool) {
	sw.mu.Lock()
	if !sw.running {
		sw.mu.Unlock()
		sw.logger.Printf("Stopwatch: Cannot lap - not running")
		return 0, false
	}
	sw.elapsed = sw.scheduler.Now().Sub(sw.start)
	lap := sw.elapsed - sumDurations(sw.laps)
	sw.laps = append(sw.laps, lap)
	snap := sw.snapshotLocked()
	sw.mu.Unlock()

	sw.logger.Printf("Stopwatch: Lap %d %s", len(snap.Laps), FormatStopwatch(lap))
	sw.snapshots.Notify(snap)
	sw.out.Fire(CueTransition, nil)
	sw.out.Pulse(HapticLap)
	return lap, true
}

// Reset stops the stopwatch and clears elapsed time and laps
func (sw *Stopwatch) Reset() {
	sw.mu.Lock()
	sw.running = false
	sw.stopTickingLocked()
	sw.elapsed = 0
	sw.laps = nil
	snap := sw.snapshotLocked()
	sw.mu.Unlock()

	sw.logger.Printf("Stopwatch: Reset")
	sw.snapshots.Notify(snap)
}

// MUST be called with mu held.
func (sw *Stopwatch) startTickingLocked() {
	sw.stopTickingLocked()
	gen := sw.gen
	sw.cancelTick = sw.scheduler.Every(sw.tickInterval, func(now time.Time) {
		sw.onTick(gen, now)
	})
}

// MUST be called with mu held.
func (sw *Stopwatch) stopTickingLocked() {
	sw.gen++
	if sw.cancelTick != nil {
		sw.cancelTick()
		sw.cancelTick = nil
	}
}

func (sw *Stopwatch) onTick(gen uint64, now time.Time) {
	sw.mu.Lock()
	if gen != sw.gen || !sw.running {
		sw.mu.Unlock()
		return
	}
	sw.elapsed = now.Sub(sw.start)
	snap := sw.snapshotLocked()
	sw.mu.Unlock()

	sw.snapshots.Notify(snap)
}

// MUST be called with mu held.
func (sw *Stopwatch) snapshotLocked() StopwatchSnapshot {
	laps := append([]time.Duration(nil), sw.laps...)
	fastest, slowest := classifyLaps(laps)
	return StopwatchSnapshot{
		Running: sw.running,
		Elapsed: sw.elapsed,
		Laps:    laps,
		Fastest: fastest,
		Slowest: slowest,
	}
}

// classifyLaps returns the indices of the first shortest and first longest lap,
// or -1 for both when there are fewer than two laps.
func classifyLaps(laps []time.Duration) (fastest, slowest int) {
	if len(laps) < 2 {
		return -1, -1
	}
	fastest, slowest = 0, 0
	for i, l := range laps {
		if l < laps[fastest] {
			fastest = i
		}
		if l > laps[slowest] {
			slowest = i
		}
	}
	return fastest, slowest
}

func sumDurations(ds []time.Duration) time.Duration {
	var total time.Duration
	for _, d := range ds {
		total += d
	}
	return total
}
