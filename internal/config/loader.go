package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir    string
	configFile string
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string) Loader {
	return &loader{
		rootDir: rootDir,
	}
}

// NewFileLoader creates a loader reading an explicit config file instead of
// searching <root>/.mibgen.
func NewFileLoader(rootDir, configFile string) Loader {
	return &loader{
		rootDir:    rootDir,
		configFile: configFile,
	}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (MIBGEN_*)
// 2. Config file (.mibgen/config.yml or .mibgen/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(l.rootDir, ".mibgen"))
	}

	// MIBGEN_OUTPUT_DIR, MIBGEN_EVENTS_WINDOW_SIZE, ...
	v.SetEnvPrefix("MIBGEN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("discovery.strict")

	v.BindEnv("output.dir")
	v.BindEnv("output.separator")
	v.BindEnv("output.database")
	v.BindEnv("output.csv")
	v.BindEnv("output.sql")
	v.BindEnv("output.cpp")
	v.BindEnv("output.fresh")

	v.BindEnv("events.window_size")
	v.BindEnv("events.include_sources")
	v.BindEnv("returnvalues.window_size")
	v.BindEnv("device_commands.command_id_type")
	v.BindEnv("cache.line_cache_size")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - we'll use defaults + env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("discovery.suffixes", defaults.Discovery.Suffixes)
	v.SetDefault("discovery.allow", defaults.Discovery.Allow)
	v.SetDefault("discovery.ignore", defaults.Discovery.Ignore)
	v.SetDefault("discovery.strict", defaults.Discovery.Strict)

	v.SetDefault("output.dir", defaults.Output.Dir)
	v.SetDefault("output.separator", defaults.Output.Separator)
	v.SetDefault("output.database", defaults.Output.Database)
	v.SetDefault("output.csv", defaults.Output.CSV)
	v.SetDefault("output.sql", defaults.Output.SQL)
	v.SetDefault("output.cpp", defaults.Output.CPP)
	v.SetDefault("output.fresh", defaults.Output.Fresh)

	v.SetDefault("objects.files", defaults.Objects.Files)

	v.SetDefault("events.subsystem_files", defaults.Events.SubsystemFiles)
	v.SetDefault("events.sources", defaults.Events.Sources)
	v.SetDefault("events.window_size", defaults.Events.WindowSize)
	v.SetDefault("events.include_sources", defaults.Events.IncludeSources)

	v.SetDefault("returnvalues.interface_files", defaults.ReturnValues.InterfaceFiles)
	v.SetDefault("returnvalues.sources", defaults.ReturnValues.Sources)
	v.SetDefault("returnvalues.window_size", defaults.ReturnValues.WindowSize)

	v.SetDefault("subservices.sources", defaults.Subservices.Sources)

	v.SetDefault("device_commands.handler_sources", defaults.DeviceCommands.HandlerSources)
	v.SetDefault("device_commands.packet_sources", defaults.DeviceCommands.PacketSources)
	v.SetDefault("device_commands.command_id_type", defaults.DeviceCommands.CommandIDType)

	v.SetDefault("packet_content.sources", defaults.PacketContent.Sources)

	v.SetDefault("cache.line_cache_size", defaults.Cache.LineCacheSize)
}

// LoadConfigFromDir loads configuration from a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
