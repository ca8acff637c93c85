package timer

import "strings"

// DisplayMode selects whether the main readout counts down or up
type DisplayMode string

const (
	DisplayCountdown DisplayMode = "countdown"
	DisplayCountup   DisplayMode = "countup"
)

// SoundMode selects how cue sounds are rendered
type SoundMode string

const (
	SoundBeep   SoundMode = "beep"
	SoundBell   SoundMode = "bell"
	SoundSilent SoundMode = "silent"
)

// PreparePausePolicy decides what Resume does after a pause taken during the prepare countdown
type PreparePausePolicy string

const (
	// PrepareCancel abandons the countdown; resume starts the first segment.
	PrepareCancel PreparePausePolicy = "cancel"
	// PrepareResume continues the countdown from the count that was showing.
	PrepareResume PreparePausePolicy = "resume"
)

// Settings are the user options the engines read live
type Settings struct {
	PrepareSeconds     int                `mapstructure:"prepare" yaml:"prepare"`
	WarnSeconds        int                `mapstructure:"warn" yaml:"warn"`
	AnnounceSeconds    int                `mapstructure:"announce" yaml:"announce"`
	DisplayMode        DisplayMode        `mapstructure:"display" yaml:"display"`
	SoundMode          SoundMode          `mapstructure:"sound" yaml:"sound"`
	SpeechEnabled      bool               `mapstructure:"speech" yaml:"speech"`
	HapticsEnabled     bool               `mapstructure:"haptics" yaml:"haptics"`
	PreparePausePolicy PreparePausePolicy `mapstructure:"prepare_pause" yaml:"prepare_pause"`
}

// DefaultSettings returns the out-of-the-box options
func DefaultSettings() Settings {
	return Settings{
		PrepareSeconds:     5,
		WarnSeconds:        3,
		AnnounceSeconds:    0,
		DisplayMode:        DisplayCountdown,
		SoundMode:          SoundBeep,
		SpeechEnabled:      true,
		HapticsEnabled:     true,
		PreparePausePolicy: PrepareCancel,
	}
}

// Normalize clamps thresholds to zero or more and replaces unknown enum values with defaults.
func (s Settings) Normalize() Settings {
	def := DefaultSettings()
	if s.PrepareSeconds < 0 {
		s.PrepareSeconds = 0
	}
	if s.WarnSeconds < 0 {
		s.WarnSeconds = 0
	}
	if s.AnnounceSeconds < 0 {
		s.AnnounceSeconds = 0
	}

	switch DisplayMode(strings.ToLower(string(s.DisplayMode))) {
	case DisplayCountdown:
		s.DisplayMode = DisplayCountdown
	case DisplayCountup:
		s.DisplayMode = DisplayCountup
	default:
		s.DisplayMode = def.DisplayMode
	}

	switch SoundMode(strings.ToLower(string(s.SoundMode))) {
	case SoundBeep:
		s.SoundMode = SoundBeep
	case SoundBell:
		s.SoundMode = SoundBell
	case SoundSilent:
		s.SoundMode = SoundSilent
	default:
		s.SoundMode = def.SoundMode
	}

	switch PreparePausePolicy(strings.ToLower(string(s.PreparePausePolicy))) {
	case PrepareCancel:
		s.PreparePausePolicy = PrepareCancel
	case PrepareResume:
		s.PreparePausePolicy = PrepareResume
	default:
		s.PreparePausePolicy = def.PreparePausePolicy
	}
	return s
}

// SettingsSource supplies the current settings on every read
type SettingsSource interface {
	Settings() Settings
}

// SettingsFunc adapts a function to SettingsSource
type SettingsFunc func() Settings

func (f SettingsFunc) Settings() Settings {
	return f()
}

// StaticSettings always returns the same settings
type StaticSettings Settings

func (s StaticSettings) Settings() Settings {
	return Settings(s).Normalize()
}
