package timer

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/lowaak/intervals/internal/events"
)

const (
	DefaultTickInterval       = 50 * time.Millisecond
	DefaultTransitionCount    = 3
	DefaultTransitionInterval = 900 * time.Millisecond
	PrepareInterval           = time.Second

	// NoTransition as IntervalEngineArgs.TransitionCount moves straight to the next segment
	NoTransition = -1
)

// IntervalEngineArgs holds the collaborators and timing of an IntervalEngine.
// Zero timing fields take the defaults above.
type IntervalEngineArgs struct {
	Scheduler          Scheduler
	Settings           SettingsSource
	Outputs            *Outputs
	Logger             *log.Logger
	Definition         WorkoutDefinition // empty loads DefaultDefinition
	TickInterval       time.Duration
	TransitionCount    int
	TransitionInterval time.Duration
}

// IntervalEngine runs a workout definition: prepare, run, warn, transition, advance and complete.
type IntervalEngine struct {
	scheduler          Scheduler
	settings           SettingsSource
	out                *Outputs
	logger             *log.Logger
	tickInterval       time.Duration
	transitionCount    int
	transitionInterval time.Duration
	snapshots          *events.ChannelEvent[IntervalSnapshot]

	// State (protected by mu)
	mu             sync.Mutex
	def            WorkoutDefinition
	mode           EngineMode
	pos            RuntimePosition
	countdown      int
	warnFired      bool
	noticeFired    bool
	flash          bool
	pauseRequested bool       // deferred pause while transitioning
	pausedFrom     EngineMode // Running or Preparing while mode is Paused
	lastTick       time.Time

	// Live callbacks (protected by mu). gen is bumped whenever they are cancelled,
	// and callbacks carrying an older gen return without effect.
	gen        uint64
	cancelTick func()
	seq        *Sequencer
}

// NewIntervalEngine creates an idle engine
func NewIntervalEngine(args IntervalEngineArgs) *IntervalEngine {
	if args.Scheduler == nil {
		panic("IntervalEngine: scheduler cannot be nil")
	}
	if args.Settings == nil {
		panic("IntervalEngine: settings cannot be nil")
	}
	if args.Logger == nil {
		panic("IntervalEngine: logger cannot be nil")
	}

	e := &IntervalEngine{
		scheduler:          args.Scheduler,
		settings:           args.Settings,
		out:                args.Outputs,
		logger:             args.Logger,
		tickInterval:       args.TickInterval,
		transitionCount:    args.TransitionCount,
		transitionInterval: args.TransitionInterval,
		snapshots:          events.NewChannelEvent[IntervalSnapshot](true),
		mode:               ModeIdle,
		pausedFrom:         ModeIdle,
	}
	if e.out == nil {
		e.out = NewOutputs(args.Logger, nil, nil, nil, nil)
	}
	if e.tickInterval <= 0 {
		e.tickInterval = DefaultTickInterval
	}
	if e.transitionCount == 0 {
		e.transitionCount = DefaultTransitionCount
	} else if e.transitionCount < 0 {
		e.transitionCount = 0
	}
	if e.transitionInterval <= 0 {
		e.transitionInterval = DefaultTransitionInterval
	}

	if args.Definition.Segments == nil && args.Definition.Rounds == 0 {
		e.def = DefaultDefinition()
	} else {
		e.def = args.Definition.Normalized()
	}
	return e
}

// ListenToSnapshots registers ch for snapshots published after every state change.
// Returns a function that unregisters the listener.
func (e *IntervalEngine) ListenToSnapshots(ch chan<- IntervalSnapshot) func() {
	return e.snapshots.Listen(ch)
}

// Snapshot returns the current state
func (e *IntervalEngine) Snapshot() IntervalSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Definition returns a copy of the loaded workout
func (e *IntervalEngine) Definition() WorkoutDefinition {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.def.Clone()
}

// Mode returns the current lifecycle state
func (e *IntervalEngine) Mode() EngineMode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// Active reports whether a run is in progress
func (e *IntervalEngine) Active() bool {
	return e.Snapshot().Active()
}

// SetDefinition loads a new workout. Only allowed while Idle or Complete.
func (e *IntervalEngine) SetDefinition(def WorkoutDefinition) bool {
	e.mu.Lock()
	if e.mode != ModeIdle && e.mode != ModeComplete {
		mode := e.mode
		e.mu.Unlock()
		e.logger.Printf("IntervalEngine: Cannot change workout while %s", mode)
		return false
	}

	e.def = def.Normalized()
	e.mode = ModeIdle
	e.resetPositionLocked()
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.logger.Printf("IntervalEngine: Workout loaded (%d segments x %d rounds, %v)",
		len(snap.Definition.Segments), snap.Definition.rounds(), snap.TotalDuration())
	e.snapshots.Notify(snap)
	return true
}

// Start begins a run from the top, entering the prepare countdown when one is configured.
func (e *IntervalEngine) Start() error {
	e.mu.Lock()
	if err := e.def.Validate(); err != nil {
		e.mu.Unlock()
		e.logger.Printf("IntervalEngine: Cannot start - %v", err)
		return err
	}

	e.cancelLiveLocked()
	e.resetPositionLocked()
	settings := e.settings.Settings()

	var effects []func()
	if settings.PrepareSeconds > 0 {
		e.mode = ModePreparing
		e.countdown = settings.PrepareSeconds
		effects = append(effects, e.prepareSequencerEffect(e.gen, settings.PrepareSeconds))
	} else {
		effects = append(effects, e.beginSegmentLocked())
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()

	// External calls after releasing lock
	e.logger.Printf("IntervalEngine: Starting workout (%v, prepare %ds)", snap.TotalDuration(), settings.PrepareSeconds)
	e.out.RequestWakeLock()
	e.snapshots.Notify(snap)
	runEffects(effects)
	return nil
}

// Pause stops the clock. A pause requested mid-transition takes effect when the transition ends.
func (e *IntervalEngine) Pause() {
	e.mu.Lock()
	switch e.mode {
	case ModeRunning, ModePreparing:
		e.cancelLiveLocked()
		e.pausedFrom = e.mode
		e.mode = ModePaused
	case ModeTransitioning:
		if e.pauseRequested {
			e.mu.Unlock()
			e.logger.Printf("IntervalEngine: Pause already pending")
			return
		}
		e.pauseRequested = true
	default:
		mode := e.mode
		e.mu.Unlock()
		e.logger.Printf("IntervalEngine: Cannot pause - workout %s", mode)
		return
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.logger.Printf("IntervalEngine: Paused")
	e.snapshots.Notify(snap)
	e.out.Pulse(HapticPauseResume)
}

// Resume continues a paused run, or withdraws a pause pending on a transition.
func (e *IntervalEngine) Resume() {
	e.mu.Lock()
	if e.mode == ModeTransitioning && e.pauseRequested {
		e.pauseRequested = false
		snap := e.snapshotLocked()
		e.mu.Unlock()
		e.logger.Printf("IntervalEngine: Pending pause withdrawn")
		e.snapshots.Notify(snap)
		e.out.Pulse(HapticPauseResume)
		return
	}
	if e.mode != ModePaused {
		mode := e.mode
		e.mu.Unlock()
		e.logger.Printf("IntervalEngine: Cannot resume - workout %s", mode)
		return
	}

	var effects []func()
	if e.pausedFrom == ModePreparing {
		policy := e.settings.Settings().PreparePausePolicy
		if policy == PrepareResume && e.countdown > 0 {
			e.mode = ModePreparing
			effects = append(effects, e.prepareSequencerEffect(e.gen, e.countdown))
			effects = append(effects, func() { e.out.Pulse(HapticPauseResume) })
		} else {
			effects = append(effects, e.beginSegmentLocked())
		}
	} else {
		e.mode = ModeRunning
		e.lastTick = e.scheduler.Now()
		e.startTickingLocked()
		effects = append(effects, func() { e.out.Pulse(HapticPauseResume) })
	}
	e.pausedFrom = ModeIdle
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.logger.Printf("IntervalEngine: Resumed (%s)", snap.Mode)
	e.snapshots.Notify(snap)
	runEffects(effects)
}

// TogglePlayPause pauses an active run or resumes a paused one
func (e *IntervalEngine) TogglePlayPause() {
	e.mu.Lock()
	mode, pending := e.mode, e.pauseRequested
	e.mu.Unlock()

	switch {
	case mode == ModePaused, mode == ModeTransitioning && pending:
		e.Resume()
	case mode == ModeRunning, mode == ModePreparing, mode == ModeTransitioning:
		e.Pause()
	default:
		e.logger.Printf("IntervalEngine: Nothing to toggle - workout %s", mode)
	}
}

// Skip ends the current segment now, as if it had run to completion.
func (e *IntervalEngine) Skip() {
	e.mu.Lock()
	if e.mode != ModeRunning {
		mode := e.mode
		e.mu.Unlock()
		e.logger.Printf("IntervalEngine: Cannot skip - workout %s", mode)
		return
	}

	seg := e.currentSegmentLocked()
	if rest := seg.Duration - e.pos.SegmentElapsed; rest > 0 {
		e.pos.TotalElapsed += rest
	}
	e.pos.SegmentElapsed = seg.Duration
	effects := []func(){e.advanceLocked()}
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.logger.Printf("IntervalEngine: Skipped '%s'", seg.Name)
	e.snapshots.Notify(snap)
	runEffects(effects)
}

// Reset abandons any run and returns to Idle, keeping the definition.
func (e *IntervalEngine) Reset() {
	e.mu.Lock()
	e.cancelLiveLocked()
	e.mode = ModeIdle
	e.resetPositionLocked()
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.logger.Printf("IntervalEngine: Reset")
	e.snapshots.Notify(snap)
}

// --- Private Methods ---

// cancelLiveLocked stops any live tick or sequencer and invalidates their callbacks.
// MUST be called with mu held.
func (e *IntervalEngine) cancelLiveLocked() {
	e.gen++
	if e.cancelTick != nil {
		e.cancelTick()
		e.cancelTick = nil
	}
	if e.seq != nil {
		e.seq.Cancel()
		e.seq = nil
	}
}

// MUST be called with mu held.
func (e *IntervalEngine) resetPositionLocked() {
	e.pos = RuntimePosition{}
	e.countdown = 0
	e.warnFired = false
	e.noticeFired = false
	e.flash = false
	e.pauseRequested = false
	e.pausedFrom = ModeIdle
}

// MUST be called with mu held.
func (e *IntervalEngine) startTickingLocked() {
	e.cancelLiveLocked()
	gen := e.gen
	e.cancelTick = e.scheduler.Every(e.tickInterval, func(now time.Time) {
		e.onTick(gen, now)
	})
}

// beginSegmentLocked enters Running on the current segment and returns the start cues.
// MUST be called with mu held.
func (e *IntervalEngine) beginSegmentLocked() func() {
	seg := e.currentSegmentLocked()
	e.mode = ModeRunning
	e.countdown = 0
	e.lastTick = e.scheduler.Now()
	e.startTickingLocked()

	return func() {
		e.out.Fire(CueStart, &seg)
		e.out.Announce(seg.Name)
		e.out.Pulse(HapticStart)
	}
}

// advanceLocked moves to the next segment, entering the transition countdown or completing.
// MUST be called with mu held.
func (e *IntervalEngine) advanceLocked() func() {
	e.cancelLiveLocked()
	e.warnFired = false
	e.noticeFired = false
	e.flash = false
	e.pos.SegmentElapsed = 0
	e.pos.SegmentIndex++

	if e.pos.SegmentIndex >= len(e.def.Segments) {
		e.pos.SegmentIndex = 0
		e.pos.RoundIndex++
		if e.pos.RoundIndex >= e.def.rounds() {
			return e.completeLocked()
		}
	}

	e.mode = ModeTransitioning
	e.countdown = e.transitionCount
	gen, count := e.gen, e.transitionCount
	return func() {
		e.startSequencer(gen, count, e.transitionInterval, e.onTransitionCount, e.onTransitionDone)
	}
}

// completeLocked ends the run and returns the completion cues.
// MUST be called with mu held.
func (e *IntervalEngine) completeLocked() func() {
	e.cancelLiveLocked()
	e.mode = ModeComplete
	e.countdown = 0
	e.flash = false
	e.pauseRequested = false

	// Rest on the final segment, fully elapsed
	e.pos.RoundIndex = e.def.rounds() - 1
	e.pos.SegmentIndex = len(e.def.Segments) - 1
	e.pos.SegmentElapsed = e.def.Segments[e.pos.SegmentIndex].Duration
	e.logger.Printf("IntervalEngine: Workout complete (%v)", e.pos.TotalElapsed)

	return func() {
		e.out.Fire(CueEnd, nil)
		e.out.Announce(AnnounceWorkoutComplete)
		e.out.Pulse(HapticComplete)
	}
}

// prepareSequencerEffect returns the effect that runs the prepare countdown from count.
func (e *IntervalEngine) prepareSequencerEffect(gen uint64, count int) func() {
	return func() {
		e.startSequencer(gen, count, PrepareInterval, e.onPrepareCount, e.onPrepareDone)
	}
}

// startSequencer runs a countdown on behalf of generation gen.
// Must be called without mu held: the first count is delivered synchronously.
func (e *IntervalEngine) startSequencer(gen uint64, count int, interval time.Duration,
	onCount func(gen uint64, k int), onDone func(gen uint64)) {
	seq := StartSequencer(e.scheduler, count, interval,
		func(k int) { onCount(gen, k) },
		func() { onDone(gen) })

	e.mu.Lock()
	if e.gen == gen && e.seq == nil {
		e.seq = seq
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()
	// Superseded while starting
	seq.Cancel()
}

func (e *IntervalEngine) onPrepareCount(gen uint64, k int) {
	e.mu.Lock()
	if gen != e.gen || e.mode != ModePreparing {
		e.mu.Unlock()
		return
	}
	e.countdown = k
	seg := e.currentSegmentLocked()
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.snapshots.Notify(snap)
	e.out.Fire(CuePrepare, &seg)
}

func (e *IntervalEngine) onPrepareDone(gen uint64) {
	e.mu.Lock()
	if gen != e.gen || e.mode != ModePreparing {
		e.mu.Unlock()
		return
	}
	effect := e.beginSegmentLocked()
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.snapshots.Notify(snap)
	effect()
}

func (e *IntervalEngine) onTransitionCount(gen uint64, k int) {
	e.mu.Lock()
	if gen != e.gen || e.mode != ModeTransitioning {
		e.mu.Unlock()
		return
	}
	e.countdown = k
	seg := e.currentSegmentLocked()
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.snapshots.Notify(snap)
	e.out.Fire(CuePrepare, &seg)
}

func (e *IntervalEngine) onTransitionDone(gen uint64) {
	e.mu.Lock()
	if gen != e.gen || e.mode != ModeTransitioning {
		e.mu.Unlock()
		return
	}
	seg := e.currentSegmentLocked()
	e.countdown = 0
	if e.pauseRequested {
		e.cancelLiveLocked()
		e.pauseRequested = false
		e.pausedFrom = ModeRunning
		e.mode = ModePaused
	} else {
		e.mode = ModeRunning
		e.lastTick = e.scheduler.Now()
		e.startTickingLocked()
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.snapshots.Notify(snap)
	e.out.Fire(CueTransition, &seg)
	e.out.Announce(seg.Name)
	e.out.Pulse(HapticTransition)
}

// onTick accumulates the real time since the previous tick, fires threshold cues
// and rolls over to the next segment when the current one is used up.
func (e *IntervalEngine) onTick(gen uint64, now time.Time) {
	e.mu.Lock()
	if gen != e.gen || e.mode != ModeRunning {
		e.mu.Unlock()
		return
	}

	delta := now.Sub(e.lastTick)
	if delta < 0 {
		delta = 0
	}
	e.lastTick = now
	e.pos.SegmentElapsed += delta
	e.pos.TotalElapsed += delta

	seg := e.currentSegmentLocked()
	remaining := seg.Duration - e.pos.SegmentElapsed
	settings := e.settings.Settings()

	var effects []func()
	if settings.AnnounceSeconds > 0 && !e.noticeFired && remaining > 0 &&
		remaining <= time.Duration(settings.AnnounceSeconds)*time.Second {
		e.noticeFired = true
		text := e.noticeTextLocked(remaining)
		effects = append(effects, func() { e.out.Announce(text) })
	}
	if settings.WarnSeconds > 0 && !e.warnFired && remaining > 0 &&
		remaining <= time.Duration(settings.WarnSeconds)*time.Second {
		e.warnFired = true
		e.flash = true
		effects = append(effects, func() {
			e.out.Fire(CueWarn, &seg)
			e.out.Pulse(HapticWarn)
		})
	}
	if e.pos.SegmentElapsed >= seg.Duration {
		effects = append(effects, e.advanceLocked())
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.snapshots.Notify(snap)
	runEffects(effects)
}

// MUST be called with mu held.
func (e *IntervalEngine) noticeTextLocked(remaining time.Duration) string {
	secs := int(ceilSeconds(remaining) / time.Second)
	if next := e.nextSegmentLocked(); next != nil {
		return fmt.Sprintf("%s in %d seconds", next.Name, secs)
	}
	return fmt.Sprintf("Last %d seconds", secs)
}

// MUST be called with mu held and a non-empty definition.
func (e *IntervalEngine) currentSegmentLocked() Segment {
	return e.def.Segments[e.pos.SegmentIndex]
}

// nextSegmentLocked returns the segment after the current one, wrapping into the
// next round, or nil on the final segment. MUST be called with mu held.
func (e *IntervalEngine) nextSegmentLocked() *Segment {
	n := len(e.def.Segments)
	if n == 0 {
		return nil
	}
	si, ri := e.pos.SegmentIndex+1, e.pos.RoundIndex
	if si >= n {
		si = 0
		ri++
	}
	if ri >= e.def.rounds() {
		return nil
	}
	seg := e.def.Segments[si]
	return &seg
}

// snapshotLocked builds the published state.
// MUST be called with mu held.
func (e *IntervalEngine) snapshotLocked() IntervalSnapshot {
	snap := IntervalSnapshot{
		Mode:         e.mode,
		PausePending: e.pauseRequested,
		Definition:   e.def.Clone(),
		Position:     e.pos,
		Countdown:    e.countdown,
		Warning:      e.flash,
		DisplayMode:  e.settings.Settings().DisplayMode,
	}
	if len(e.def.Segments) == 0 {
		return snap
	}
	cur := e.currentSegmentLocked()
	snap.Current = &cur
	if e.mode != ModeComplete {
		snap.Next = e.nextSegmentLocked()
	}
	return snap
}

func runEffects(effects []func()) {
	for _, fx := range effects {
		if fx != nil {
			fx()
		}
	}
}
