package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lowaak/intervals/internal/events"
	"github.com/lowaak/intervals/internal/go_func_utils"
	"github.com/lowaak/intervals/internal/timer"
)

// EnvPrefix is prepended to every environment override, e.g. INTERVALS_TIMER_WARN
const EnvPrefix = "INTERVALS"

// StoreKind selects the template store backend
type StoreKind string

const (
	StoreSQLite StoreKind = "sqlite"
	StoreYAML   StoreKind = "yaml"
)

// Keys as they appear in the config file
const (
	KeyDataDir       = "data_dir"
	KeyStore         = "store"
	KeyLogFile       = "log.file"
	KeyLogMaxSizeMB  = "log.max_size_mb"
	KeyLogMaxBackups = "log.max_backups"
	KeyLogMaxAgeDays = "log.max_age_days"
	KeyTTSCommand    = "tts_command"
	KeyCountdown     = "countdown"

	KeyPrepare      = "timer.prepare"
	KeyWarn         = "timer.warn"
	KeyAnnounce     = "timer.announce"
	KeyDisplay      = "timer.display"
	KeySound        = "timer.sound"
	KeySpeech       = "timer.speech"
	KeyHaptics      = "timer.haptics"
	KeyPreparePause = "timer.prepare_pause"
)

// flagKeys maps command line flags onto config keys
var flagKeys = map[string]string{
	"data-dir":      KeyDataDir,
	"store":         KeyStore,
	"log-file":      KeyLogFile,
	"tts-command":   KeyTTSCommand,
	"countdown":     KeyCountdown,
	"prepare":       KeyPrepare,
	"warn":          KeyWarn,
	"announce":      KeyAnnounce,
	"display":       KeyDisplay,
	"sound":         KeySound,
	"speech":        KeySpeech,
	"haptics":       KeyHaptics,
	"prepare-pause": KeyPreparePause,
}

// App is the resolved application configuration
type App struct {
	ConfigFile    string
	DataDir       string
	Store         StoreKind
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	TTSCommand    string
	Countdown     time.Duration
	Timer         timer.Settings
}

// DefaultDataDir is ~/.intervals, or ./.intervals when the home directory is unknown
func DefaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".intervals")
}

// BindFlags defines the command line flags on fs
func BindFlags(fs *pflag.FlagSet) {
	d := timer.DefaultSettings()
	fs.StringP("config", "c", "", "config file (default <data-dir>/config.yaml)")
	fs.String("data-dir", DefaultDataDir(), "directory for templates, config and logs")
	fs.String("store", string(StoreSQLite), "template store: sqlite or yaml")
	fs.String("log-file", "", "log file (default <data-dir>/intervals.log)")
	fs.String("tts-command", "", "speech command, e.g. espeak or say (empty disables speech output)")
	fs.Int("countdown", int(timer.DefaultCountdownDuration/time.Second), "single countdown length in seconds")
	fs.Int("prepare", d.PrepareSeconds, "prepare countdown seconds before a workout")
	fs.Int("warn", d.WarnSeconds, "warning seconds before a segment ends")
	fs.Int("announce", d.AnnounceSeconds, "announce the next segment this many seconds ahead (0 disables)")
	fs.String("display", string(d.DisplayMode), "main display: countdown or countup")
	fs.String("sound", string(d.SoundMode), "cue sound: beep, bell or silent")
	fs.Bool("speech", d.SpeechEnabled, "speak segment names")
	fs.Bool("haptics", d.HapticsEnabled, "emit haptic pulses")
	fs.String("prepare-pause", string(d.PreparePausePolicy), "resume after pausing the prepare countdown: cancel or resume")
}

// Source layers defaults, the config file, environment and flags, and serves
// the timer settings live. It implements timer.SettingsSource.
type Source struct {
	logger *log.Logger

	// vmu guards everything below it up to mu; viper is not safe for concurrent use
	vmu sync.Mutex
	v   *viper.Viper
	// overrides holds timer keys changed through Update, on top of every other layer
	overrides   map[string]any
	watchWanted bool
	watcher     *fsnotify.Watcher
	watchDone   chan struct{}

	mu  sync.RWMutex
	app App

	settingsChanged *events.CallbackEvent[timer.Settings]
}

// Load builds a Source from fs. fs must have been set up with BindFlags and parsed.
// A missing config file is not an error unless it was named explicitly.
func Load(fs *pflag.FlagSet, logger *log.Logger) (*Source, error) {
	if logger == nil {
		panic("Config: logger cannot be nil")
	}

	v := viper.New()
	setDefaults(v)

	for name, key := range flagKeys {
		if f := fs.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := ""
	if f := fs.Lookup("config"); f != nil {
		explicit = f.Value.String()
	}
	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(v.GetString(KeyDataDir))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		logger.Printf("Config: no config file in %s, using defaults", v.GetString(KeyDataDir))
	} else {
		logger.Printf("Config: loaded %s", v.ConfigFileUsed())
	}

	s := &Source{
		v:               v,
		logger:          logger,
		overrides:       make(map[string]any),
		settingsChanged: events.NewCallbackEvent[timer.Settings](false),
	}
	s.app = s.resolveLocked()
	return s, nil
}

func setDefaults(v *viper.Viper) {
	d := timer.DefaultSettings()
	v.SetDefault(KeyDataDir, DefaultDataDir())
	v.SetDefault(KeyStore, string(StoreSQLite))
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyLogMaxSizeMB, 10)
	v.SetDefault(KeyLogMaxBackups, 3)
	v.SetDefault(KeyLogMaxAgeDays, 28)
	v.SetDefault(KeyTTSCommand, "")
	v.SetDefault(KeyCountdown, int(timer.DefaultCountdownDuration/time.Second))
	v.SetDefault(KeyPrepare, d.PrepareSeconds)
	v.SetDefault(KeyWarn, d.WarnSeconds)
	v.SetDefault(KeyAnnounce, d.AnnounceSeconds)
	v.SetDefault(KeyDisplay, string(d.DisplayMode))
	v.SetDefault(KeySound, string(d.SoundMode))
	v.SetDefault(KeySpeech, d.SpeechEnabled)
	v.SetDefault(KeyHaptics, d.HapticsEnabled)
	v.SetDefault(KeyPreparePause, string(d.PreparePausePolicy))
}

// resolveLocked reads every key from viper, applies the overrides and clamps
// the result. Callers hold vmu.
func (s *Source) resolveLocked() App {
	v := s.v
	a := App{
		ConfigFile:    v.ConfigFileUsed(),
		DataDir:       v.GetString(KeyDataDir),
		Store:         StoreKind(strings.ToLower(strings.TrimSpace(v.GetString(KeyStore)))),
		LogFile:       v.GetString(KeyLogFile),
		LogMaxSizeMB:  v.GetInt(KeyLogMaxSizeMB),
		LogMaxBackups: v.GetInt(KeyLogMaxBackups),
		LogMaxAgeDays: v.GetInt(KeyLogMaxAgeDays),
		TTSCommand:    strings.TrimSpace(v.GetString(KeyTTSCommand)),
		Countdown:     time.Duration(v.GetInt(KeyCountdown)) * time.Second,
		Timer:         s.timerLocked(true),
	}

	if a.DataDir == "" {
		a.DataDir = DefaultDataDir()
	}
	switch a.Store {
	case StoreSQLite, StoreYAML:
	default:
		s.logger.Printf("Config: unknown store %q, using %s", a.Store, StoreSQLite)
		a.Store = StoreSQLite
	}
	if a.LogFile == "" {
		a.LogFile = filepath.Join(a.DataDir, "intervals.log")
	}
	if a.LogMaxSizeMB < 1 {
		a.LogMaxSizeMB = 1
	}
	if a.LogMaxBackups < 0 {
		a.LogMaxBackups = 0
	}
	if a.LogMaxAgeDays < 0 {
		a.LogMaxAgeDays = 0
	}
	if a.Countdown < time.Second {
		a.Countdown = time.Second
	}
	return a
}

// App returns the current resolved configuration
func (s *Source) App() App {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.app
}

// Settings returns the current timer settings
func (s *Source) Settings() timer.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.app.Timer
}

// ListenToSettings registers fn for settings changes made by Reload or Update
func (s *Source) ListenToSettings(fn func(timer.Settings)) func() {
	return s.settingsChanged.Listen(fn)
}

// timerLocked reads the timer settings from viper, with or without the
// overrides made by Update. Callers hold vmu.
func (s *Source) timerLocked(withOverrides bool) timer.Settings {
	getInt := func(key string) int {
		if o, ok := s.overrides[key].(int); ok && withOverrides {
			return o
		}
		return s.v.GetInt(key)
	}
	getString := func(key string) string {
		if o, ok := s.overrides[key].(string); ok && withOverrides {
			return o
		}
		return s.v.GetString(key)
	}
	getBool := func(key string) bool {
		if o, ok := s.overrides[key].(bool); ok && withOverrides {
			return o
		}
		return s.v.GetBool(key)
	}
	return timer.Settings{
		PrepareSeconds:     getInt(KeyPrepare),
		WarnSeconds:        getInt(KeyWarn),
		AnnounceSeconds:    getInt(KeyAnnounce),
		DisplayMode:        timer.DisplayMode(getString(KeyDisplay)),
		SoundMode:          timer.SoundMode(getString(KeySound)),
		SpeechEnabled:      getBool(KeySpeech),
		HapticsEnabled:     getBool(KeyHaptics),
		PreparePausePolicy: timer.PreparePausePolicy(getString(KeyPreparePause)),
	}.Normalize()
}

// timerValues flattens settings into config keys
func timerValues(t timer.Settings) map[string]any {
	return map[string]any{
		KeyPrepare:      t.PrepareSeconds,
		KeyWarn:         t.WarnSeconds,
		KeyAnnounce:     t.AnnounceSeconds,
		KeyDisplay:      string(t.DisplayMode),
		KeySound:        string(t.SoundMode),
		KeySpeech:       t.SpeechEnabled,
		KeyHaptics:      t.HapticsEnabled,
		KeyPreparePause: string(t.PreparePausePolicy),
	}
}

// Reload re-reads the config file, if there is one, and re-resolves every key.
// A key whose value changes in the file drops any Update override for it.
func (s *Source) Reload() error {
	s.vmu.Lock()
	if s.v.ConfigFileUsed() != "" {
		before := timerValues(s.timerLocked(false))
		if err := s.v.ReadInConfig(); err != nil {
			s.vmu.Unlock()
			return fmt.Errorf("reloading config file: %w", err)
		}
		for key, value := range timerValues(s.timerLocked(false)) {
			if before[key] != value {
				delete(s.overrides, key)
			}
		}
	}
	next := s.resolveLocked()
	s.vmu.Unlock()

	s.publish(next)
	return nil
}

// Update changes timer settings for this run. Only the keys fn changes are
// overridden, each until the config file changes that key; call Persist to
// keep them. fn must not call back into the Source.
func (s *Source) Update(fn func(*timer.Settings)) timer.Settings {
	s.vmu.Lock()
	current := s.timerLocked(true)
	next := current
	fn(&next)
	next = next.Normalize()

	before := timerValues(current)
	for key, value := range timerValues(next) {
		if before[key] != value {
			s.overrides[key] = value
		}
	}
	app := s.resolveLocked()
	s.vmu.Unlock()

	return s.publish(app)
}

// Persist writes the current configuration, overrides included, to the config
// file. When none was loaded it creates <data-dir>/config.yaml and, if Watch
// was called, starts watching it.
func (s *Source) Persist() error {
	s.vmu.Lock()
	defer s.vmu.Unlock()

	path := s.v.ConfigFileUsed()
	created := path == ""
	if created {
		path = filepath.Join(s.App().DataDir, "config.yaml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	out := viper.New()
	if err := out.MergeConfigMap(s.v.AllSettings()); err != nil {
		return fmt.Errorf("collecting settings: %w", err)
	}
	for key, value := range s.overrides {
		out.Set(key, value)
	}
	if err := out.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	s.logger.Printf("Config: saved %s", path)

	// Keep the file layer in step with what was written
	if created {
		s.v.SetConfigFile(path)
	}
	if err := s.v.ReadInConfig(); err != nil {
		return fmt.Errorf("rereading config file: %w", err)
	}
	if created && s.watchWanted {
		s.startWatchLocked()
	}
	return nil
}

// Watch reloads the settings whenever the config file changes on disk.
// Without a config file it waits for Persist to create one.
func (s *Source) Watch() {
	s.vmu.Lock()
	defer s.vmu.Unlock()

	s.watchWanted = true
	if s.v.ConfigFileUsed() == "" {
		s.logger.Printf("Config: no config file to watch yet")
		return
	}
	s.startWatchLocked()
}

// startWatchLocked watches the config file's directory, so editors that save
// by rename are seen too. Callers hold vmu.
func (s *Source) startWatchLocked() {
	if s.watcher != nil {
		return
	}
	file := filepath.Clean(s.v.ConfigFileUsed())

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.logger.Printf("Config: cannot watch %s: %v", file, err)
		return
	}
	if err := watcher.Add(filepath.Dir(file)); err != nil {
		watcher.Close()
		s.logger.Printf("Config: cannot watch %s: %v", file, err)
		return
	}
	done := make(chan struct{})
	s.watcher = watcher
	s.watchDone = done
	s.logger.Printf("Config: watching %s", file)

	go_func_utils.SafeGo(s.logger, func() {
		defer close(done)
		s.watchLoop(watcher, file)
	})
}

func (s *Source) watchLoop(watcher *fsnotify.Watcher, file string) {
	for {
		select {
		case e, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(e.Name) != file || !e.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			s.logger.Printf("Config: %s changed (%s)", e.Name, e.Op)
			if err := s.Reload(); err != nil {
				s.logger.Printf("Config: %v", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Printf("Config: watch error: %v", err)
		}
	}
}

// Close stops watching the config file and waits for a reload in progress
func (s *Source) Close() error {
	s.vmu.Lock()
	watcher, done := s.watcher, s.watchDone
	s.watcher, s.watchDone = nil, nil
	s.watchWanted = false
	s.vmu.Unlock()

	if watcher == nil {
		return nil
	}
	err := watcher.Close()
	<-done
	return err
}

func (s *Source) publish(next App) timer.Settings {
	s.mu.Lock()
	changed := next.Timer != s.app.Timer
	s.app = next
	s.mu.Unlock()

	// External calls after releasing lock
	if changed {
		s.logger.Printf("Config: settings now %+v", next.Timer)
		s.settingsChanged.Notify(next.Timer)
	}
	return next.Timer
}
