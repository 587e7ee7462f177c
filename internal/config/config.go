package config

import (
	"os"
	"path/filepath"

	"github.com/centraunit/scopetree"
	"github.com/centraunit/scopetree/internal/logging"
	"github.com/centraunit/scopetree/lifecycle"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables overriding config keys,
// e.g. SCOPETREE_LOGGING_LEVEL.
const EnvPrefix = "SCOPETREE"

// Lifecycle table names
const (
	TableDefault  = "default"
	TableActivity = "activity"
)

// Config represents the complete scopetree configuration
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Tree      TreeConfig      `mapstructure:"tree"`
	Lifecycle LifecycleConfig `mapstructure:"lifecycle"`
	Manifest  ManifestConfig  `mapstructure:"manifest"`
}

// LoggingConfig controls log output
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format is one of human, text, json
	Format string `mapstructure:"format"`
	// Dir, when set, sends JSON logs to {dir}/scopetree.log instead of stderr
	Dir string `mapstructure:"dir"`
}

// TreeConfig controls the scope tree
type TreeConfig struct {
	RootName string `mapstructure:"root_name"`
}

// LifecycleConfig selects the correspondence table used for lifecycle bindings
type LifecycleConfig struct {
	// Table is "default" or "activity"
	Table string `mapstructure:"table"`
	// Extra adds or overrides correspondences, event -> teardown event
	Extra map[string]string `mapstructure:"extra"`
}

// ManifestConfig locates the screen manifest
type ManifestConfig struct {
	Path string `mapstructure:"path"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: logging.FormatHuman,
		},
		Tree: TreeConfig{
			RootName: scopetree.DefaultRootName,
		},
		Lifecycle: LifecycleConfig{
			Table: TableDefault,
			Extra: map[string]string{},
		},
		Manifest: ManifestConfig{
			Path: "screens.yaml",
		},
	}
}

// SetDefaults registers the defaults on v and enables environment overrides.
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.format", defaults.Logging.Format)
	v.SetDefault("logging.dir", defaults.Logging.Dir)

	v.SetDefault("tree.root_name", defaults.Tree.RootName)

	v.SetDefault("lifecycle.table", defaults.Lifecycle.Table)
	v.SetDefault("lifecycle.extra", defaults.Lifecycle.Extra)

	v.SetDefault("manifest.path", defaults.Manifest.Path)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()
}

// Load reads the configuration from v into a Config struct and validates it
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &cfg, nil
}

// BuildTable returns the configured correspondence table.
func (c *LifecycleConfig) BuildTable() (lifecycle.Table, error) {
	table := lifecycle.DefaultTable()
	if c.Table == TableActivity {
		table = lifecycle.ActivityTable()
	}
	if len(c.Extra) == 0 {
		return table, nil
	}
	extra := make(lifecycle.Table, len(c.Extra))
	for from, to := range c.Extra {
		fromEvent, err := lifecycle.ParseEvent(from)
		if err != nil {
			return nil, err
		}
		toEvent, err := lifecycle.ParseEvent(to)
		if err != nil {
			return nil, err
		}
		extra[fromEvent] = toEvent
	}
	return table.Extend(extra), nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "scopetree")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".scopetree"
	}
	return filepath.Join(home, ".config", "scopetree")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ValidTables returns the list of valid lifecycle table names
func ValidTables() []string {
	return []string{TableDefault, TableActivity}
}
