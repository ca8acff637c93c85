package cues

import (
	"context"
	"errors"
	"log"
	"os/exec"
	"strings"
	"sync"

	"github.com/lowaak/intervals/internal/go_func_utils"
	"github.com/lowaak/intervals/internal/timer"
)

// CommandSpeaker speaks by running an external text-to-speech command such as
// "espeak" or "say -r 200" with the text appended as the last argument.
// A new announcement interrupts the one still playing.
type CommandSpeaker struct {
	argv     []string
	settings timer.SettingsSource
	logger   *log.Logger
	run      func(ctx context.Context, argv []string) error

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewCommandSpeaker creates a speaker for command. An empty command makes
// Announce a no-op.
func NewCommandSpeaker(command string, settings timer.SettingsSource, logger *log.Logger) *CommandSpeaker {
	if logger == nil {
		panic("CommandSpeaker: logger cannot be nil")
	}
	if settings == nil {
		panic("CommandSpeaker: settings cannot be nil")
	}
	return &CommandSpeaker{
		argv:     strings.Fields(command),
		settings: settings,
		logger:   logger,
		run:      runCommand,
	}
}

func runCommand(ctx context.Context, argv []string) error {
	return exec.CommandContext(ctx, argv[0], argv[1:]...).Run()
}

// Enabled reports whether a command is configured
func (s *CommandSpeaker) Enabled() bool {
	return len(s.argv) > 0
}

func (s *CommandSpeaker) Announce(text string) {
	text = strings.TrimSpace(text)
	if text == "" || !s.Enabled() || !s.settings.Settings().SpeechEnabled {
		return
	}

	argv := append(append([]string(nil), s.argv...), text)
	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	prev := s.cancel
	s.cancel = cancel
	s.mu.Unlock()

	if prev != nil {
		prev()
	}
	s.logger.Printf("CommandSpeaker: %q", text)

	go_func_utils.SafeGo(s.logger, func() {
		defer cancel()
		err := s.run(ctx, argv)
		if err != nil && !errors.Is(ctx.Err(), context.Canceled) {
			s.logger.Printf("CommandSpeaker: %s failed: %v", argv[0], err)
		}
	})
}

// Stop interrupts the current announcement, if any
func (s *CommandSpeaker) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}
