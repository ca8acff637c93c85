package ui

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"github.com/lowaak/intervals/internal/templates"
	"github.com/lowaak/intervals/internal/timer"
)

// DefaultStateFile is the UI state file name under the data directory
const DefaultStateFile = "ui_state.json"

type uiModelPersistenceData struct {
	LastMode string          `json:"last_mode"`
	Workout  json.RawMessage `json:"workout,omitempty"`
}

// uiModelPersistence remembers the last page and the workout being edited.
// An empty filePath keeps everything in memory.
type uiModelPersistence struct {
	filePath string
	data     uiModelPersistenceData
	logger   *log.Logger
}

func newUIModelPersistence(filePath string, logger *log.Logger) *uiModelPersistence {
	p := &uiModelPersistence{
		filePath: filePath,
		logger:   logger,
	}
	p.load()
	return p
}

func (p *uiModelPersistence) getLastMode() (UIMode, bool) {
	return getUIModeByName(p.data.LastMode)
}

func (p *uiModelPersistence) setLastMode(mode UIMode) {
	info, ok := GetUIModeInfo(mode)
	if !ok || p.data.LastMode == info.Key {
		return
	}
	p.data.LastMode = info.Key
	p.save()
}

func (p *uiModelPersistence) getWorkout() (timer.WorkoutDefinition, bool) {
	if len(p.data.Workout) == 0 {
		return timer.WorkoutDefinition{}, false
	}
	def, err := templates.DecodeDefinition(p.data.Workout)
	if err != nil {
		p.logger.Printf("UIModelPersistence: stored workout unreadable: %v", err)
		return timer.WorkoutDefinition{}, false
	}
	return def, true
}

func (p *uiModelPersistence) setWorkout(def timer.WorkoutDefinition) {
	raw, err := templates.EncodeDefinition(def)
	if err != nil {
		p.logger.Printf("UIModelPersistence: setWorkout failed: %v", err)
		return
	}
	p.data.Workout = raw
	p.save()
}

func (p *uiModelPersistence) load() {
	p.data = uiModelPersistenceData{}
	if p.filePath == "" {
		return
	}
	raw, err := os.ReadFile(p.filePath)
	if err != nil {
		p.logger.Printf("UIModelPersistence: load %s (no existing file)", p.filePath)
		return
	}
	if err := json.Unmarshal(raw, &p.data); err != nil {
		p.logger.Printf("UIModelPersistence: load %s failed to parse: %v", p.filePath, err)
		p.data = uiModelPersistenceData{}
		return
	}
	p.logger.Printf("UIModelPersistence: load %s -> mode %q", p.filePath, p.data.LastMode)
}

func (p *uiModelPersistence) save() {
	if p.filePath == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(p.filePath), 0755); err != nil {
		p.logger.Printf("UIModelPersistence: save mkdir failed: %v", err)
		return
	}
	raw, err := json.MarshalIndent(p.data, "", "  ")
	if err != nil {
		p.logger.Printf("UIModelPersistence: save marshal failed: %v", err)
		return
	}
	if err := os.WriteFile(p.filePath, raw, 0644); err != nil {
		p.logger.Printf("UIModelPersistence: save %s failed: %v", p.filePath, err)
		return
	}
	p.logger.Printf("UIModelPersistence: save %s", p.filePath)
}
