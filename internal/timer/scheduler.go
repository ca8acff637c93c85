package timer

import (
	"log"
	"sync"
	"time"

	"github.com/lowaak/intervals/internal/go_func_utils"
)

// Scheduler is the clock the engines measure time with and the source of their periodic callbacks.
type Scheduler interface {
	Now() time.Time
	// Every calls fn once per interval until the returned cancel func is called.
	// cancel never blocks and may be called from inside fn.
	Every(interval time.Duration, fn func(now time.Time)) (cancel func())
}

// TickerScheduler runs each periodic callback on its own time.Ticker goroutine
type TickerScheduler struct {
	logger *log.Logger
}

// NewTickerScheduler creates a wall-clock scheduler
func NewTickerScheduler(logger *log.Logger) *TickerScheduler {
	if logger == nil {
		panic("TickerScheduler: logger cannot be nil")
	}
	return &TickerScheduler{logger: logger}
}

func (s *TickerScheduler) Now() time.Time {
	return time.Now()
}

func (s *TickerScheduler) Every(interval time.Duration, fn func(now time.Time)) func() {
	if interval <= 0 {
		panic("TickerScheduler: interval must be positive")
	}
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	var once sync.Once

	go_func_utils.SafeGo(s.logger, func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				// A cancel that raced the tick wins
				select {
				case <-done:
					return
				default:
				}
				fn(time.Now())
			}
		}
	})

	return func() {
		once.Do(func() { close(done) })
	}
}
