package ui

import (
	"fmt"
	"log"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/lowaak/intervals/internal/templates"
	"github.com/lowaak/intervals/internal/timer"
)

// Page names for tview.Pages
const (
	pageTimer     = "timer"
	pageTemplates = "templates"
	pageStopwatch = "stopwatch"
	pageCountdown = "countdown"

	pageMain  = "main"
	pageModal = "modal"
)

const progressBarWidth = 30

// CursesUIViewImpl implements UIViewImpl using tview (curses-based terminal UI)
type CursesUIViewImpl struct {
	logger *log.Logger
	app    *tview.Application

	// root holds the main layout and at most one modal form on top
	root  *tview.Pages
	pages *tview.Pages

	// Shared components (visible in all modes)
	logView   *tview.TextView
	statusBar *tview.TextView
	mainFlex  *tview.Flex

	// Timer mode
	timerFlex    *tview.Flex
	segmentList  *tview.List
	timerDisplay *tview.TextView

	// Templates mode
	templatesFlex   *tview.Flex
	templateList    *tview.List
	templateDetails *tview.TextView

	// Stopwatch mode
	stopwatchFlex    *tview.Flex
	stopwatchDisplay *tview.TextView
	lapsView         *tview.TextView

	// Countdown mode
	countdownFlex    *tview.Flex
	countdownDisplay *tview.TextView
	presetList       *tview.List

	// State (protected by mu)
	mu          sync.Mutex
	currentMode UIMode
	modalOpen   bool
	definition  timer.WorkoutDefinition
	templates   []templates.Template
	settings    timer.Settings
	notice      string
	lastCue     string
	lastCueAt   time.Time
}

func NewCursesUIView(logger *log.Logger, app *tview.Application) *CursesUIViewImpl {
	if logger == nil {
		panic("CursesUIViewImpl: logger cannot be nil")
	}
	if app == nil {
		panic("CursesUIViewImpl: app cannot be nil")
	}
	return &CursesUIViewImpl{
		logger:      logger,
		app:         app,
		currentMode: UIModeTimer,
		settings:    timer.DefaultSettings(),
	}
}

// Initialize sets up the tview widgets
func (ui *CursesUIViewImpl) Initialize(controller *UIController) {
	// Note: no SetChangedFunc with app.Draw() on the log view; BaseUIView draws after updates
	ui.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	ui.logView.SetBorder(true).SetTitle(" Logs ")

	ui.statusBar = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)

	ui.pages = tview.NewPages()
	ui.initTimerMode(controller)
	ui.initTemplatesMode(controller)
	ui.initStopwatchMode()
	ui.initCountdownMode(controller)

	ui.pages.AddPage(pageTimer, ui.timerFlex, true, true)
	ui.pages.AddPage(pageTemplates, ui.templatesFlex, true, false)
	ui.pages.AddPage(pageStopwatch, ui.stopwatchFlex, true, false)
	ui.pages.AddPage(pageCountdown, ui.countdownFlex, true, false)

	// Mode content on the left, logs on the right, status line below
	body := tview.NewFlex().
		AddItem(ui.pages, 0, 3, true).
		AddItem(ui.logView, 0, 2, false)
	ui.mainFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(body, 0, 1, true).
		AddItem(ui.statusBar, 1, 0, false)

	ui.root = tview.NewPages().AddPage(pageMain, ui.mainFlex, true, true)
	ui.refreshStatus()
}

func helpLine(text string) *tview.TextView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	tv.SetText(text)
	return tv
}

const globalHelp = "[yellow]1[white] Timer  [yellow]2[white] Templates  [yellow]3[white] Stopwatch  [yellow]4[white] Countdown  |  " +
	"[yellow]M[white] Sound  [yellow]V[white] Display  [yellow]T[white] Speech  [yellow]H[white] Haptics  [yellow]P[white] Prepare pause  [yellow]W[white] Save settings  |  [yellow]Esc[white] Quit"

func (ui *CursesUIViewImpl) initTimerMode(controller *UIController) {
	ui.segmentList = tview.NewList().
		ShowSecondaryText(false).
		SetHighlightFullLine(true)
	ui.segmentList.SetSelectedFunc(func(index int, _, _ string, _ rune) {
		ui.openSegmentForm(controller, index)
	})
	ui.segmentList.SetBorder(true).SetTitle(" Intervals ")

	ui.timerDisplay = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	ui.timerDisplay.SetBorder(true).SetTitle(" Workout ")

	content := tview.NewFlex().
		AddItem(ui.segmentList, 0, 1, true).
		AddItem(ui.timerDisplay, 0, 2, false)

	ui.timerFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(helpLine("[yellow]Space[white] Start/Pause  [yellow]N[white] Skip  [yellow]R[white] Reset  |  "+
			"[yellow]A[white] Add  [yellow]Enter/E[white] Edit  [yellow]D[white] Delete  [yellow]+/-[white] Rounds  [yellow]S[white] Save as template\n"+globalHelp), 2, 0, false).
		AddItem(content, 0, 1, true)
}

func (ui *CursesUIViewImpl) initTemplatesMode(controller *UIController) {
	ui.templateList = tview.NewList().
		ShowSecondaryText(true).
		SetHighlightFullLine(true)
	ui.templateList.SetSelectedFunc(func(index int, mainText, _ string, _ rune) {
		ui.logger.Printf("UI: Template selected: index=%d, name=%s", index, mainText)
		controller.LoadTemplate(index)
	})
	ui.templateList.SetChangedFunc(func(index int, _, _ string, _ rune) {
		ui.updateTemplateDetails(index)
	})
	ui.templateList.SetBorder(true).SetTitle(" Templates ")

	ui.templateDetails = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	ui.templateDetails.SetBorder(true).SetTitle(" Details ")
	ui.updateTemplateDetails(-1)

	content := tview.NewFlex().
		AddItem(ui.templateList, 0, 1, true).
		AddItem(ui.templateDetails, 0, 1, false)

	ui.templatesFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(helpLine("[yellow]Enter[white] Load  [yellow]D[white] Delete\n"+globalHelp), 2, 0, false).
		AddItem(content, 0, 1, true)
}

func (ui *CursesUIViewImpl) initStopwatchMode() {
	ui.stopwatchDisplay = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	ui.stopwatchDisplay.SetBorder(true).SetTitle(" Stopwatch ")

	ui.lapsView = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	ui.lapsView.SetBorder(true).SetTitle(" Laps ")

	content := tview.NewFlex().
		AddItem(ui.stopwatchDisplay, 0, 2, true).
		AddItem(ui.lapsView, 0, 1, false)

	ui.stopwatchFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(helpLine("[yellow]Space[white] Start/Stop  [yellow]L[white] Lap  [yellow]R[white] Reset\n"+globalHelp), 2, 0, false).
		AddItem(content, 0, 1, true)
}

func (ui *CursesUIViewImpl) initCountdownMode(controller *UIController) {
	ui.countdownDisplay = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	ui.countdownDisplay.SetBorder(true).SetTitle(" Countdown ")

	ui.presetList = tview.NewList().
		ShowSecondaryText(false).
		SetHighlightFullLine(true)
	for _, d := range timer.CountdownPresets {
		ui.presetList.AddItem(timer.FormatTime(d), "", 0, nil)
	}
	ui.presetList.SetSelectedFunc(func(index int, _, _ string, _ rune) {
		controller.SelectCountdownPreset(index)
	})
	ui.presetList.SetBorder(true).SetTitle(" Presets ")

	content := tview.NewFlex().
		AddItem(ui.countdownDisplay, 0, 2, false).
		AddItem(ui.presetList, 0, 1, true)

	ui.countdownFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(helpLine("[yellow]Space[white] Start/Pause  [yellow]R[white] Reset  [yellow]Enter[white] Use preset  [yellow]E[white] Custom duration\n"+globalHelp), 2, 0, false).
		AddItem(content, 0, 1, true)
}

// --- Mode Management ---

// SetMode switches the UI to the specified mode
func (ui *CursesUIViewImpl) SetMode(mode UIMode) {
	ui.mu.Lock()
	ui.currentMode = mode
	ui.mu.Unlock()

	if front, _ := ui.pages.GetFrontPage(); front == pageName(mode) {
		return
	}
	ui.pages.SwitchToPage(pageName(mode))
	ui.setFocusForCurrentMode()
}

// GetCurrentMode returns the currently active UI mode
func (ui *CursesUIViewImpl) GetCurrentMode() UIMode {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	return ui.currentMode
}

func pageName(mode UIMode) string {
	switch mode {
	case UIModeTemplates:
		return pageTemplates
	case UIModeStopwatch:
		return pageStopwatch
	case UIModeCountdown:
		return pageCountdown
	default:
		return pageTimer
	}
}

func (ui *CursesUIViewImpl) setFocusForCurrentMode() {
	switch ui.GetCurrentMode() {
	case UIModeTimer:
		ui.app.SetFocus(ui.segmentList)
	case UIModeTemplates:
		ui.app.SetFocus(ui.templateList)
	case UIModeStopwatch:
		ui.app.SetFocus(ui.stopwatchDisplay)
	case UIModeCountdown:
		ui.app.SetFocus(ui.presetList)
	}
}

// ShowNotice shows a short message in the status line
func (ui *CursesUIViewImpl) ShowNotice(text string) {
	ui.mu.Lock()
	ui.notice = text
	ui.mu.Unlock()
	ui.refreshStatus()
}

// FlashCue shows the last fired cue in the status line
func (ui *CursesUIViewImpl) FlashCue(label string) {
	ui.mu.Lock()
	ui.lastCue = label
	ui.lastCueAt = time.Now()
	ui.mu.Unlock()
	ui.refreshStatus()
}

func (ui *CursesUIViewImpl) refreshStatus() {
	ui.mu.Lock()
	s := ui.settings
	notice := ui.notice
	cue := ""
	if ui.lastCue != "" && time.Since(ui.lastCueAt) < time.Second {
		cue = ui.lastCue
	}
	ui.mu.Unlock()

	text := fmt.Sprintf(" [gray]Sound[white] %s  [gray]Display[white] %s  [gray]Speech[white] %s  [gray]Haptics[white] %s  [gray]Prepare[white] %ds  [gray]Warn[white] %ds",
		s.SoundMode, s.DisplayMode, onOff(s.SpeechEnabled), onOff(s.HapticsEnabled), s.PrepareSeconds, s.WarnSeconds)
	if cue != "" {
		text += fmt.Sprintf("  [cyan]♪ %s[white]", cue)
	}
	if notice != "" {
		text += fmt.Sprintf("  [black:yellow] %s [-:-]", notice)
	}
	ui.statusBar.SetText(text)
}

// --- Keyboard ---

// SetupKeyboardHandlers sets up keyboard event handlers
func (ui *CursesUIViewImpl) SetupKeyboardHandlers(controller *UIController) {
	ui.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		ui.mu.Lock()
		modalOpen := ui.modalOpen
		mode := ui.currentMode
		ui.mu.Unlock()

		// Forms get every key
		if modalOpen {
			return event
		}

		if event.Key() == tcell.KeyEscape {
			controller.OnEscapeKey()
			return nil
		}

		if event.Key() != tcell.KeyRune {
			return event
		}
		r := event.Rune()

		// Number keys for mode switching
		if m, ok := GetUIModeByKey(r); ok {
			controller.OnModeChange(m)
			return nil
		}

		switch r {
		case 'm':
			controller.CycleSoundMode()
			return nil
		case 'v':
			controller.ToggleDisplayMode()
			return nil
		case 't':
			controller.ToggleSpeech()
			return nil
		case 'h':
			controller.ToggleHaptics()
			return nil
		case 'p':
			controller.TogglePreparePausePolicy()
			return nil
		case 'w':
			controller.SaveSettings()
			return nil
		}

		switch mode {
		case UIModeTimer:
			return ui.handleTimerKey(controller, r, event)
		case UIModeTemplates:
			if r == 'd' {
				controller.DeleteTemplate(ui.templateList.GetCurrentItem())
				return nil
			}
		case UIModeStopwatch:
			switch r {
			case ' ':
				controller.ToggleStopwatch()
				return nil
			case 'l':
				controller.LapStopwatch()
				return nil
			case 'r':
				controller.ResetStopwatch()
				return nil
			}
		case UIModeCountdown:
			switch r {
			case ' ':
				controller.ToggleCountdown()
				return nil
			case 'r':
				controller.ResetCountdown()
				return nil
			case 'e':
				ui.openCountdownForm(controller)
				return nil
			}
		}
		return event
	})
}

func (ui *CursesUIViewImpl) handleTimerKey(controller *UIController, r rune, event *tcell.EventKey) *tcell.EventKey {
	switch r {
	case ' ':
		controller.ToggleWorkout()
	case 'n':
		controller.SkipSegment()
	case 'r':
		controller.ResetWorkout()
	case 'a':
		controller.AddSegment()
	case 'd':
		if ui.segmentList.GetItemCount() > 0 {
			controller.RemoveSegment(ui.segmentList.GetCurrentItem())
		}
	case 'e':
		if ui.segmentList.GetItemCount() > 0 {
			ui.openSegmentForm(controller, ui.segmentList.GetCurrentItem())
		}
	case '+', '=':
		controller.IncreaseRounds()
	case '-':
		controller.DecreaseRounds()
	case 's':
		ui.openSaveTemplateForm(controller)
	default:
		return event
	}
	return nil
}

// --- Forms ---

func (ui *CursesUIViewImpl) showModal(title string, form *tview.Form, height int) {
	form.SetBorder(true).SetTitle(" " + title + " ")
	form.SetCancelFunc(ui.closeModal)

	modal := tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(form, height, 0, true).
			AddItem(nil, 0, 1, false), 50, 0, true).
		AddItem(nil, 0, 1, false)

	ui.mu.Lock()
	ui.modalOpen = true
	ui.mu.Unlock()
	ui.root.AddPage(pageModal, modal, true, true)
	ui.app.SetFocus(form)
}

func (ui *CursesUIViewImpl) closeModal() {
	ui.root.RemovePage(pageModal)
	ui.mu.Lock()
	ui.modalOpen = false
	ui.mu.Unlock()
	ui.setFocusForCurrentMode()
}

func (ui *CursesUIViewImpl) openSegmentForm(controller *UIController, index int) {
	ui.mu.Lock()
	def := ui.definition
	ui.mu.Unlock()
	if index < 0 || index >= len(def.Segments) {
		return
	}
	seg := def.Segments[index]
	secs := int(seg.Duration / time.Second)

	typeNames := make([]string, len(timer.AllSegmentTypes))
	current := 0
	for i, info := range timer.AllSegmentTypes {
		typeNames[i] = info.DisplayName
		if info.Type == seg.Type {
			current = i
		}
	}

	form := tview.NewForm().
		AddInputField("Name", seg.Name, timer.MaxSegmentNameLength, nil, nil).
		AddInputField("Minutes", strconv.Itoa(secs/60), 4, tview.InputFieldInteger, nil).
		AddInputField("Seconds", strconv.Itoa(secs%60), 4, tview.InputFieldInteger, nil).
		AddDropDown("Type", typeNames, current, nil)
	form.AddButton("Save", func() {
		name := form.GetFormItemByLabel("Name").(*tview.InputField).GetText()
		minutes := atoi(form.GetFormItemByLabel("Minutes").(*tview.InputField).GetText())
		seconds := atoi(form.GetFormItemByLabel("Seconds").(*tview.InputField).GetText())
		typeIndex, _ := form.GetFormItemByLabel("Type").(*tview.DropDown).GetCurrentOption()
		segType := timer.SegmentCustom
		if typeIndex >= 0 && typeIndex < len(timer.AllSegmentTypes) {
			segType = timer.AllSegmentTypes[typeIndex].Type
		}
		ui.closeModal()
		controller.UpdateSegment(index, name, minutes, seconds, segType)
	}).AddButton("Cancel", ui.closeModal)

	ui.showModal(fmt.Sprintf("Interval %d", index+1), form, 13)
}

func (ui *CursesUIViewImpl) openSaveTemplateForm(controller *UIController) {
	form := tview.NewForm().
		AddInputField("Name", "", 32, nil, nil)
	form.AddButton("Save", func() {
		name := form.GetFormItemByLabel("Name").(*tview.InputField).GetText()
		ui.closeModal()
		controller.SaveTemplate(name)
	}).AddButton("Cancel", ui.closeModal)

	ui.showModal("Save as template", form, 7)
}

func (ui *CursesUIViewImpl) openCountdownForm(controller *UIController) {
	form := tview.NewForm().
		AddInputField("Minutes", "1", 4, tview.InputFieldInteger, nil).
		AddInputField("Seconds", "0", 4, tview.InputFieldInteger, nil)
	form.AddButton("Set", func() {
		minutes := atoi(form.GetFormItemByLabel("Minutes").(*tview.InputField).GetText())
		seconds := atoi(form.GetFormItemByLabel("Seconds").(*tview.InputField).GetText())
		ui.closeModal()
		controller.SetCountdownDuration(minutes, seconds)
	}).AddButton("Cancel", ui.closeModal)

	ui.showModal("Countdown duration", form, 9)
}

// atoi treats anything unparsable as zero; the timers clamp their inputs
func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

// --- Log View ---

// GetLogViewHeight returns the visible height of the log view
func (ui *CursesUIViewImpl) GetLogViewHeight() int {
	_, _, _, height := ui.logView.GetInnerRect()
	return height
}

// ClearLogView clears the log view
func (ui *CursesUIViewImpl) ClearLogView() {
	ui.logView.Clear()
}

// WriteLogLine writes a line to the log view
func (ui *CursesUIViewImpl) WriteLogLine(line string) error {
	_, err := fmt.Fprint(ui.logView, tview.Escape(line))
	return err
}

// --- Timers ---

// UpdateInterval renders the workout editor and the live run
func (ui *CursesUIViewImpl) UpdateInterval(s timer.IntervalSnapshot) {
	ui.mu.Lock()
	changed := !sameDefinition(ui.definition, s.Definition)
	ui.definition = s.Definition.Clone()
	ui.mu.Unlock()

	if changed {
		ui.setSegmentList(s.Definition)
	}
	if s.Active() && s.Position.SegmentIndex < ui.segmentList.GetItemCount() {
		ui.segmentList.SetCurrentItem(s.Position.SegmentIndex)
	}
	ui.timerDisplay.SetText(formatIntervalDisplay(s))
}

func sameDefinition(a, b timer.WorkoutDefinition) bool {
	return a.Rounds == b.Rounds && slices.Equal(a.Segments, b.Segments)
}

func (ui *CursesUIViewImpl) setSegmentList(def timer.WorkoutDefinition) {
	current := ui.segmentList.GetCurrentItem()
	ui.segmentList.Clear()
	for i, seg := range def.Segments {
		ui.segmentList.AddItem(formatSegmentItem(i, seg), "", 0, nil)
	}
	if n := len(def.Segments); n > 0 {
		ui.segmentList.SetCurrentItem(min(current, n-1))
	}
	ui.segmentList.SetTitle(fmt.Sprintf(" Intervals · %s ", def.Description()))
}

func formatSegmentItem(i int, seg timer.Segment) string {
	return fmt.Sprintf("%2d. [%s]■[white] %-*s %s", i+1, seg.DisplayColor(), timer.MaxSegmentNameLength/2, tview.Escape(seg.Name), timer.FormatTime(seg.Duration))
}

func formatIntervalDisplay(s timer.IntervalSnapshot) string {
	if len(s.Definition.Segments) == 0 {
		return "\n\n[gray]No intervals yet[white]\n\nPress [yellow]A[white] to add one or load a template (press [yellow]2[white])"
	}

	var b strings.Builder
	b.WriteString("\n")
	switch s.Mode {
	case timer.ModeIdle:
		fmt.Fprintf(&b, "[green]Ready[white]  %s  total %s\n\n", s.Definition.Description(), timer.FormatTime(s.TotalDuration()))
	case timer.ModeComplete:
		b.WriteString("[green::b]Workout complete[-::-]\n\n")
	case timer.ModePaused:
		b.WriteString("[yellow]PAUSED[white]\n\n")
	case timer.ModePreparing:
		b.WriteString("[yellow]Get ready[white]\n\n")
	case timer.ModeTransitioning:
		if s.PausePending {
			b.WriteString("[yellow]Next up (pausing)[white]\n\n")
		} else {
			b.WriteString("[yellow]Next up[white]\n\n")
		}
	default:
		fmt.Fprintf(&b, "%s  [gray]%s[white]\n\n", s.RoundLabel(), s.PositionLabel())
	}

	if s.Current != nil {
		color := s.Current.DisplayColor()
		if s.Warning {
			color = "red"
		}
		fmt.Fprintf(&b, "[%s::b]%s[-::-]\n", s.Current.DisplayColor(), tview.Escape(s.Current.Name))
		fmt.Fprintf(&b, "[%s::b]%s[-::-]\n\n", color, s.MainDisplay())
		fmt.Fprintf(&b, "%s\n\n", progressBar(s.Progress(), s.Current.DisplayColor()))
	}

	if s.Next != nil {
		fmt.Fprintf(&b, "[gray]Next:[white] [%s]%s[white] %s\n", s.Next.DisplayColor(), tview.Escape(s.Next.Name), timer.FormatTime(s.Next.Duration))
	} else if s.Active() {
		b.WriteString("[gray]Next:[white] [green]Finish![white]\n")
	}

	fmt.Fprintf(&b, "\n[gray]Elapsed[white] %s   [gray]Remaining[white] %s\n", s.ElapsedDisplay(), s.RemainingDisplay())
	fmt.Fprintf(&b, "%s\n", progressBar(s.TotalProgress(), "white"))
	return b.String()
}

// progressBar renders frac (0..1) as a fixed-width bar
func progressBar(frac float64, color string) string {
	filled := int(frac*progressBarWidth + 0.5)
	filled = max(0, min(progressBarWidth, filled))
	return fmt.Sprintf("[%s]%s[gray]%s[white]", color, strings.Repeat("█", filled), strings.Repeat("░", progressBarWidth-filled))
}

// UpdateStopwatch renders the stopwatch and its laps, newest first
func (ui *CursesUIViewImpl) UpdateStopwatch(s timer.StopwatchSnapshot) {
	state := "[gray]Stopped[white]"
	if s.Running {
		state = "[green]Running[white]"
	}
	ui.stopwatchDisplay.SetText(fmt.Sprintf("\n\n%s\n\n[::b]%s[::-]\n", state, s.Display()))

	if len(s.Laps) == 0 {
		ui.lapsView.SetText("\n [gray]No laps[white]")
		return
	}
	var b strings.Builder
	for i := len(s.Laps) - 1; i >= 0; i-- {
		color := "white"
		switch i {
		case s.Fastest:
			color = "green"
		case s.Slowest:
			color = "red"
		}
		fmt.Fprintf(&b, " Lap %2d  [%s]%s[white]\n", i+1, color, timer.FormatStopwatch(s.Laps[i]))
	}
	ui.lapsView.SetText(b.String())
}

// UpdateCountdown renders the single countdown
func (ui *CursesUIViewImpl) UpdateCountdown(s timer.CountdownSnapshot) {
	state := "[gray]Stopped[white]"
	switch {
	case s.Running:
		state = "[green]Running[white]"
	case s.Remaining == 0:
		state = "[green::b]Done[-::-]"
	}
	color := "white"
	if s.WarnFired && s.Remaining > 0 {
		color = "red"
	}
	ui.countdownDisplay.SetText(fmt.Sprintf("\n\n%s\n\n[%s::b]%s[-::-]\n\n%s\n\n[gray]of %s[white]",
		state, color, s.Display(), progressBar(s.Progress(), "yellow"), timer.FormatTime(s.Duration)))
}

// --- Templates and settings ---

// SetTemplateList populates the template list, keeping the selection where possible
func (ui *CursesUIViewImpl) SetTemplateList(list []templates.Template) {
	ui.mu.Lock()
	ui.templates = append([]templates.Template(nil), list...)
	ui.mu.Unlock()

	current := ui.templateList.GetCurrentItem()
	ui.templateList.Clear()
	for _, tpl := range list {
		name := tview.Escape(tpl.Name)
		if tpl.BuiltIn {
			name += " [gray](built-in)[white]"
		}
		secondary := fmt.Sprintf("[%s]%s[white] · %s", tpl.Color, tview.Escape(tpl.Definition.Description()), timer.FormatTime(tpl.Definition.TotalDuration()))
		ui.templateList.AddItem(name, secondary, 0, nil)
	}
	if n := len(list); n > 0 {
		ui.templateList.SetCurrentItem(min(current, n-1))
		ui.updateTemplateDetails(ui.templateList.GetCurrentItem())
	} else {
		ui.updateTemplateDetails(-1)
	}
}

func (ui *CursesUIViewImpl) updateTemplateDetails(index int) {
	if ui.templateDetails == nil {
		return
	}
	ui.mu.Lock()
	list := ui.templates
	ui.mu.Unlock()

	if index < 0 || index >= len(list) {
		ui.templateDetails.SetText("\n  [yellow]Templates[white]\n\n  Select a template to see its intervals.\n")
		return
	}
	tpl := list[index]
	var b strings.Builder
	fmt.Fprintf(&b, "\n  [yellow]%s[white]\n\n", tview.Escape(tpl.Name))
	fmt.Fprintf(&b, "  [gray]Rounds:[white] %d\n", tpl.Definition.Rounds)
	fmt.Fprintf(&b, "  [gray]Total:[white]  %s\n\n", timer.FormatTime(tpl.Definition.TotalDuration()))
	for i, seg := range tpl.Definition.Segments {
		fmt.Fprintf(&b, "  %s\n", formatSegmentItem(i, seg))
	}
	if tpl.BuiltIn {
		b.WriteString("\n  [green]Press Enter to load[white]\n")
	} else {
		b.WriteString("\n  [green]Press Enter to load, D to delete[white]\n")
	}
	ui.templateDetails.SetText(b.String())
}

// UpdateSettings shows the current settings in the status line
func (ui *CursesUIViewImpl) UpdateSettings(s timer.Settings) {
	ui.mu.Lock()
	ui.settings = s
	ui.mu.Unlock()
	ui.refreshStatus()
}

// --- Lifecycle ---

// Draw refreshes/redraws the UI
func (ui *CursesUIViewImpl) Draw() error {
	ui.app.Draw()
	return nil
}

// Run starts the UI and blocks until it exits
func (ui *CursesUIViewImpl) Run() error {
	// SetRoot must be called before setting focus, otherwise focus may be reset
	ui.app.SetRoot(ui.root, true)
	ui.setFocusForCurrentMode()
	return ui.app.Run()
}

// Stop stops the UI framework
func (ui *CursesUIViewImpl) Stop() {
	ui.app.Stop()
}
