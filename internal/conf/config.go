// conf/config.go
package conf

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

//go:embed config.yaml
var configFiles embed.FS

// CrossfadeMode gates automatic crossfade per transition kind.
type CrossfadeMode int

const (
	CrossfadeOff CrossfadeMode = iota
	CrossfadeOn
	CrossfadeShuffle
	CrossfadeTrackSkip
	CrossfadeShuffleAndTrackSkip
)

// crossfadeModeNames maps config file strings to modes.
var crossfadeModeNames = map[string]CrossfadeMode{
	"off":               CrossfadeOff,
	"on":                CrossfadeOn,
	"shuffle":           CrossfadeShuffle,
	"trackskip":         CrossfadeTrackSkip,
	"shuffle+trackskip": CrossfadeShuffleAndTrackSkip,
}

func (m CrossfadeMode) String() string {
	for name, mode := range crossfadeModeNames {
		if mode == m {
			return name
		}
	}
	return "off"
}

// ParseCrossfadeMode converts a config string to a CrossfadeMode.
func ParseCrossfadeMode(s string) (CrossfadeMode, error) {
	if mode, ok := crossfadeModeNames[s]; ok {
		return mode, nil
	}
	return CrossfadeOff, fmt.Errorf("unknown crossfade mode %q", s)
}

type Settings struct {
	Debug bool // true to enable debug mode

	Main struct {
		Name string // name of the player node, used in logs
		Log  struct {
			Path       string // path to structured log file
			MaxSize    int    // log file max size in MB before rotation
			MaxAge     int    // max age of rotated logs in days
			MaxBackups int    // number of rotated logs to keep
			Compress   bool   // true to gzip rotated logs
		}
	}

	Audio struct {
		Device        string // output device name, empty for system default
		MemoryProfile string // "large" or "small", selects buffer sizing and watermark
		LowLatency    bool   // true to cap buffered audio at 0.25 s while playing
	}

	Playback struct {
		Crossfade               string  // off, on, shuffle, trackskip, shuffle+trackskip
		CrossfadeFadeInDelay    float64 // seconds from trigger to first faded-in sample
		CrossfadeFadeInDuration float64 // seconds of linear fade-in ramp

		CrossfadeFadeOutDelay    float64 // seconds from end of buffered audio to fade-out start
		CrossfadeFadeOutDuration float64 // seconds of linear fade-out ramp
		CrossfadeFadeOutMixmode  bool    // true to skip fade-out (pure additive mix)

		Shuffle bool // playlist shuffle, consulted by shuffle crossfade modes
	}

	Metrics struct {
		Enabled bool   // true to serve prometheus metrics
		Addr    string // listen address for the metrics endpoint
	}
}

// CrossfadeMode returns the parsed crossfade mode, defaulting to off.
func (s *Settings) CrossfadeMode() CrossfadeMode {
	mode, err := ParseCrossfadeMode(s.Playback.Crossfade)
	if err != nil {
		return CrossfadeOff
	}
	return mode
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration into a Settings struct and stores it as the
// package-wide instance returned by Setting().
func Load() (*Settings, error) {
	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := validateSettings(settings); err != nil {
		return nil, err
	}

	settingsMutex.Lock()
	settingsInstance = settings
	settingsMutex.Unlock()

	return settings, nil
}

func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createDefaultConfig(configPaths)
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}
	return nil
}

// createDefaultConfig writes the embedded default config to the first
// config path and reads it back in.
func createDefaultConfig(configPaths []string) error {
	if len(configPaths) == 0 {
		return fmt.Errorf("no config paths available")
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")

	defaultConfig, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		return fmt.Errorf("error reading embedded default config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}
	if err := os.WriteFile(configPath, defaultConfig, 0o644); err != nil { //nolint:gosec // config file is not sensitive
		return fmt.Errorf("error writing default config file: %w", err)
	}
	return viper.ReadInConfig()
}

// GetDefaultConfigPaths returns the list of directories searched for config.yaml.
func GetDefaultConfigPaths() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return []string{"."}, nil //nolint:nilerr // fall back to cwd when home is unknown
	}
	return []string{
		".",
		filepath.Join(home, ".config", "jukebox-go"),
	}, nil
}

// Setting returns the loaded settings instance, or nil before Load().
func Setting() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}
