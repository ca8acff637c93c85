package timer

import (
	"log"
	"sync"
	"testing"
	"time"
)

var epoch = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

type testLogWriter struct{ t *testing.T }

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

func newTestLogger(t *testing.T) *log.Logger {
	return log.New(testLogWriter{t}, "", 0)
}

type recordedCue struct {
	Kind    CueKind
	Segment string
}

// recorder captures everything the engines send to their collaborators
type recorder struct {
	mu           sync.Mutex
	cues         []recordedCue
	speech       []string
	pulses       [][]time.Duration
	wakeRequests int
	wakeErr      error
}

func (r *recorder) Fire(kind CueKind, segment *Segment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := ""
	if segment != nil {
		name = segment.Name
	}
	r.cues = append(r.cues, recordedCue{Kind: kind, Segment: name})
}

func (r *recorder) Announce(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.speech = append(r.speech, text)
}

func (r *recorder) Pulse(pattern []time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pulses = append(r.pulses, pattern)
}

func (r *recorder) Request() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wakeRequests++
	return r.wakeErr
}

func (r *recorder) count(kind CueKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.cues {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

func (r *recorder) cuesOf(kind CueKind) []recordedCue {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []recordedCue
	for _, c := range r.cues {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

func (r *recorder) spoken() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.speech...)
}

func (r *recorder) lastPulse() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pulses) == 0 {
		return nil
	}
	return r.pulses[len(r.pulses)-1]
}

func (r *recorder) wakes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.wakeRequests
}

// mutableSettings lets a test change settings between ticks
type mutableSettings struct {
	mu sync.Mutex
	s  Settings
}

func (m *mutableSettings) Settings() Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.Normalize()
}

func (m *mutableSettings) update(fn func(*Settings)) {
	m.mu.Lock()
	fn(&m.s)
	m.mu.Unlock()
}

// quietSettings disables prepare and every threshold
func quietSettings() Settings {
	s := DefaultSettings()
	s.PrepareSeconds = 0
	s.WarnSeconds = 0
	s.AnnounceSeconds = 0
	return s
}

type engineFixture struct {
	engine   *IntervalEngine
	sched    *ManualScheduler
	rec      *recorder
	settings *mutableSettings
}

func newEngineFixture(t *testing.T, settings Settings, def WorkoutDefinition, transitionCount int) *engineFixture {
	t.Helper()
	logger := newTestLogger(t)
	sched := NewManualScheduler(epoch)
	rec := &recorder{}
	ms := &mutableSettings{s: settings}
	engine := NewIntervalEngine(IntervalEngineArgs{
		Scheduler:       sched,
		Settings:        ms,
		Outputs:         NewOutputs(logger, rec, rec, rec, rec),
		Logger:          logger,
		Definition:      def,
		TransitionCount: transitionCount,
	})
	return &engineFixture{engine: engine, sched: sched, rec: rec, settings: ms}
}

func workout(rounds int, segs ...Segment) WorkoutDefinition {
	return WorkoutDefinition{Segments: segs, Rounds: rounds}
}

func seg(name string, seconds int) Segment {
	return NewSegment(name, seconds, SegmentWork)
}
