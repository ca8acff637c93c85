package ui

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/lowaak/intervals/internal/go_func_utils"
	"github.com/lowaak/intervals/internal/templates"
	"github.com/lowaak/intervals/internal/timer"
)

const logResizePollInterval = 100 * time.Millisecond

// BaseUIView contains the base logic shared by all UI implementations
type BaseUIView struct {
	uiViewImpl   UIViewImpl
	uiModel      *UIModel
	uiController *UIController
	context      context.Context
	cancelFunc   context.CancelFunc
	waitGroup    sync.WaitGroup
	logger       *log.Logger
}

// NewBaseUIViewArg holds the arguments for creating a new BaseUIView
type NewBaseUIViewArg struct {
	UIViewImpl   UIViewImpl
	UIModel      *UIModel
	UIController *UIController
	Logger       *log.Logger
}

// NewBaseUIView creates a new BaseUIView with the given implementation
func NewBaseUIView(args NewBaseUIViewArg) *BaseUIView {
	if args.Logger == nil {
		panic("BaseUIView: logger cannot be nil")
	}
	if args.UIViewImpl == nil {
		panic("BaseUIView: UIViewImpl cannot be nil")
	}
	if args.UIModel == nil {
		panic("BaseUIView: UIModel cannot be nil")
	}
	if args.UIController == nil {
		panic("BaseUIView: UIController cannot be nil")
	}
	ctx, cancel := context.WithCancel(context.Background())

	base := &BaseUIView{
		uiViewImpl:   args.UIViewImpl,
		uiModel:      args.UIModel,
		uiController: args.UIController,
		context:      ctx,
		cancelFunc:   cancel,
		logger:       args.Logger,
	}

	args.UIViewImpl.Initialize(args.UIController)
	args.UIViewImpl.SetupKeyboardHandlers(args.UIController)

	// Initial content from model
	state := args.UIModel.GetUIState()
	args.UIViewImpl.SetMode(state.Mode)
	args.UIViewImpl.ShowNotice(state.Notice)
	args.UIViewImpl.UpdateInterval(args.UIModel.GetInterval())
	args.UIViewImpl.UpdateStopwatch(args.UIModel.GetStopwatch())
	args.UIViewImpl.UpdateCountdown(args.UIModel.GetCountdown())
	args.UIViewImpl.SetTemplateList(args.UIModel.GetTemplates())
	args.UIViewImpl.UpdateSettings(args.UIModel.GetSettings())

	base.waitGroup.Add(1)
	go_func_utils.SafeGo(base.logger, func() { base.monitorLogResize() })
	base.updateLogDisplay()

	base.setupEventListeners()

	return base
}

// listen runs apply for every value delivered on a fresh channel registered with register,
// redrawing after each one, until the view shuts down.
func listen[T any](base *BaseUIView, register func(chan<- T) func(), apply func(T)) {
	ch := make(chan T, 1)
	unregister := register(ch)
	base.waitGroup.Add(1)
	go_func_utils.SafeGo(base.logger, func() {
		defer base.waitGroup.Done()
		defer unregister()
		for {
			select {
			case <-base.context.Done():
				return
			case v, ok := <-ch:
				if !ok {
					return
				}
				apply(v)
				base.draw()
			}
		}
	})
}

func (base *BaseUIView) setupEventListeners() {
	listen(base, base.uiModel.ListenToLog, func(string) {
		base.updateLogDisplay()
	})

	// A full channel drops values, so each wake-up re-reads the latest state from the model
	listen(base, base.uiModel.ListenToUIState, func(UIState) {
		state := base.uiModel.GetUIState()
		base.uiViewImpl.SetMode(state.Mode)
		base.uiViewImpl.ShowNotice(state.Notice)
	})
	listen(base, base.uiModel.ListenToInterval, func(timer.IntervalSnapshot) {
		base.uiViewImpl.UpdateInterval(base.uiModel.GetInterval())
	})
	listen(base, base.uiModel.ListenToStopwatch, func(timer.StopwatchSnapshot) {
		base.uiViewImpl.UpdateStopwatch(base.uiModel.GetStopwatch())
	})
	listen(base, base.uiModel.ListenToCountdown, func(timer.CountdownSnapshot) {
		base.uiViewImpl.UpdateCountdown(base.uiModel.GetCountdown())
	})
	listen(base, base.uiModel.ListenToTemplates, func([]templates.Template) {
		base.uiViewImpl.SetTemplateList(base.uiModel.GetTemplates())
	})
	listen(base, base.uiModel.ListenToSettings, func(timer.Settings) {
		base.uiViewImpl.UpdateSettings(base.uiModel.GetSettings())
	})
	listen(base, base.uiModel.ListenToCues, base.uiViewImpl.FlashCue)

	// Close is a one-shot
	closeChan := make(chan struct{}, 1)
	closeUnregister := base.uiModel.ListenToCloseApplication(closeChan)
	base.waitGroup.Add(1)
	go_func_utils.SafeGo(base.logger, func() {
		defer base.waitGroup.Done()
		defer closeUnregister()
		select {
		case <-base.context.Done():
			return
		case _, ok := <-closeChan:
			if !ok {
				return
			}
			base.uiViewImpl.Stop()
		}
	})
}

func (base *BaseUIView) draw() {
	if err := base.uiViewImpl.Draw(); err != nil {
		base.logger.Printf("BaseUIView: Error drawing: %v", err)
	}
}

func (base *BaseUIView) updateLogDisplay() {
	height := base.uiViewImpl.GetLogViewHeight()
	if height <= 0 {
		return
	}

	base.uiViewImpl.ClearLogView()
	for _, line := range base.uiModel.GetLogTail(height) {
		if err := base.uiViewImpl.WriteLogLine(line); err != nil {
			base.logger.Printf("BaseUIView: Error writing to log view: %v", err)
		}
	}
}

func (base *BaseUIView) monitorLogResize() {
	defer base.waitGroup.Done()
	var lastHeight int
	ticker := time.NewTicker(logResizePollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-base.context.Done():
			return
		case <-ticker.C:
			height := base.uiViewImpl.GetLogViewHeight()
			if height != lastHeight && height > 0 {
				lastHeight = height
				base.updateLogDisplay()
				base.draw()
			}
		}
	}
}

// Shutdown stops all goroutines and waits for them to finish
func (base *BaseUIView) Shutdown() {
	base.logger.Println("BaseUIView: Shutting down")
	base.cancelFunc()
	base.waitGroup.Wait()
	base.logger.Println("BaseUIView: Shutdown complete")
}

// Run starts the UI and blocks until it exits. The terminal counts as visible while it runs.
func (base *BaseUIView) Run() error {
	base.uiController.OnVisibilityChanged(true)
	defer base.uiController.OnVisibilityChanged(false)
	return base.uiViewImpl.Run()
}
