package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/spf13/pflag"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/lowaak/intervals/internal/config"
	"github.com/lowaak/intervals/internal/cues"
	"github.com/lowaak/intervals/internal/templates"
	"github.com/lowaak/intervals/internal/timer"
	"github.com/lowaak/intervals/internal/ui"
)

const uiLogChanSize = 256

// chanWriter feeds log lines to the UI log pane. Lines are dropped while the pane is behind.
type chanWriter chan<- string

func (w chanWriter) Write(p []byte) (int, error) {
	select {
	case w <- string(p):
	default:
	}
	return len(p), nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "intervals: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("intervals", pflag.ContinueOnError)
	config.BindFlags(fs)
	exportPath := fs.String("export", "", "write saved templates as YAML to this file and exit")
	importPath := fs.String("import", "", "add templates from this YAML file and exit")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	// Lines logged before the log file is known are replayed into it
	var early bytes.Buffer
	logger := log.New(&early, "", log.Ltime|log.Lmicroseconds)

	cfg, err := config.Load(fs, logger)
	if err != nil {
		return err
	}
	app := cfg.App()

	logFile := &lumberjack.Logger{
		Filename:   app.LogFile,
		MaxSize:    app.LogMaxSizeMB,
		MaxBackups: app.LogMaxBackups,
		MaxAge:     app.LogMaxAgeDays,
	}
	defer logFile.Close()

	uiLogChan := make(chan string, uiLogChanSize)
	out := io.MultiWriter(logFile, chanWriter(uiLogChan))
	if _, err := out.Write(early.Bytes()); err != nil {
		return fmt.Errorf("writing log: %w", err)
	}
	logger.SetOutput(out)
	logger.Printf("Main: Starting (data dir %s, %s store)", app.DataDir, app.Store)

	store, closeStore, err := openStore(app, logger)
	if err != nil {
		return err
	}
	defer closeStore()
	library := templates.NewLibrary(store, logger)

	switch {
	case *exportPath != "":
		return exportTemplates(library, *exportPath)
	case *importPath != "":
		return importTemplates(library, *importPath)
	}

	cfg.Watch()
	defer func() {
		if err := cfg.Close(); err != nil {
			logger.Printf("Main: closing config watcher: %v", err)
		}
	}()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("opening terminal: %w", err)
	}
	tviewApp := tview.NewApplication().SetScreen(screen)

	// Cue backends
	terminalCues := cues.NewTerminalCues(screen, cfg, logger)
	speaker := cues.NewCommandSpeaker(app.TTSCommand, cfg, logger)
	defer speaker.Stop()
	haptics := cues.NewLogHaptics(cfg, logger)
	wakeLock := cues.NewLogWakeLock(logger)
	outputs := timer.NewOutputs(logger, terminalCues, speaker, haptics, wakeLock)

	// Engines
	scheduler := timer.NewTickerScheduler(logger)
	interval := timer.NewIntervalEngine(timer.IntervalEngineArgs{
		Scheduler: scheduler,
		Settings:  cfg,
		Outputs:   outputs,
		Logger:    logger,
	})
	stopwatch := timer.NewStopwatch(timer.StopwatchArgs{
		Scheduler: scheduler,
		Outputs:   outputs,
		Logger:    logger,
	})
	countdown := timer.NewSingleCountdown(timer.SingleCountdownArgs{
		Scheduler: scheduler,
		Outputs:   outputs,
		Logger:    logger,
		Duration:  app.Countdown,
	})
	wakeGuard := timer.NewWakeGuard(outputs, logger, interval, stopwatch, countdown)
	outputs.RequestWakeLock()

	// Model, controller, view
	model := ui.NewUIModel(ui.UIModelArgs{
		Logger:    logger,
		UILogChan: uiLogChan,
		Interval:  interval,
		Stopwatch: stopwatch,
		Countdown: countdown,
		StatePath: filepath.Join(app.DataDir, ui.DefaultStateFile),
	})
	defer model.Shutdown()

	unregisterCues := terminalCues.ListenToCues(func(e cues.CueEvent) {
		model.CueFired(e.String())
	})
	defer unregisterCues()

	controller := ui.NewUIController(ui.UIControllerArgs{
		Model:     model,
		Interval:  interval,
		Stopwatch: stopwatch,
		Countdown: countdown,
		Library:   library,
		Settings:  cfg,
		WakeGuard: wakeGuard,
		Logger:    logger,
	})
	defer controller.Shutdown()

	view := ui.NewBaseUIView(ui.NewBaseUIViewArg{
		UIViewImpl:   ui.NewCursesUIView(logger, tviewApp),
		UIModel:      model,
		UIController: controller,
		Logger:       logger,
	})
	defer view.Shutdown()

	if err := view.Run(); err != nil {
		return fmt.Errorf("running UI: %w", err)
	}
	logger.Println("Main: UI exited")
	return nil
}

// openStore opens the configured template store and returns its close function
func openStore(app config.App, logger *log.Logger) (templates.Store, func(), error) {
	switch app.Store {
	case config.StoreYAML:
		return templates.NewYAMLStore(filepath.Join(app.DataDir, templates.DefaultTemplatesFile), logger), func() {}, nil
	default:
		s, err := templates.OpenSQLiteStore(filepath.Join(app.DataDir, templates.DefaultDatabaseFile), logger)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				logger.Printf("Main: closing store: %v", err)
			}
		}, nil
	}
}

func exportTemplates(library *templates.Library, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := library.Export(context.Background(), f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	fmt.Printf("Exported templates to %s\n", path)
	return nil
}

func importTemplates(library *templates.Library, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	n, err := library.Import(context.Background(), f)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d templates from %s\n", n, path)
	return nil
}
