// Package config provides configuration loading for mibgen.
//
// Configuration Hierarchy (highest to lowest priority):
//  1. Environment variables (MIBGEN_*)
//  2. Project config (.mibgen/config.yml or .mibgen/config.yaml)
//  3. Built-in defaults
//
// All source paths are relative to the root directory the loader was
// created for.
package config

import "slices"

// Config represents the complete generator configuration.
type Config struct {
	Discovery      DiscoveryConfig      `yaml:"discovery" mapstructure:"discovery"`
	Output         OutputConfig         `yaml:"output" mapstructure:"output"`
	Objects        ObjectsConfig        `yaml:"objects" mapstructure:"objects"`
	Events         EventsConfig         `yaml:"events" mapstructure:"events"`
	ReturnValues   ReturnValuesConfig   `yaml:"returnvalues" mapstructure:"returnvalues"`
	Subservices    SubservicesConfig    `yaml:"subservices" mapstructure:"subservices"`
	DeviceCommands DeviceCommandsConfig `yaml:"device_commands" mapstructure:"device_commands"`
	PacketContent  PacketContentConfig  `yaml:"packet_content" mapstructure:"packet_content"`
	Cache          CacheConfig          `yaml:"cache" mapstructure:"cache"`
}

// DiscoveryConfig controls which files inside the source roots are scanned.
type DiscoveryConfig struct {
	Suffixes []string `yaml:"suffixes" mapstructure:"suffixes"` // header suffixes, e.g. ".h"
	Allow    []string `yaml:"allow" mapstructure:"allow"`       // base-name globs, empty allows all
	Ignore   []string `yaml:"ignore" mapstructure:"ignore"`     // glob patterns relative to each root
	Strict   bool     `yaml:"strict" mapstructure:"strict"`     // missing roots abort the run
}

// OutputConfig controls the generated artifacts.
type OutputConfig struct {
	Dir       string `yaml:"dir" mapstructure:"dir"`
	Separator string `yaml:"separator" mapstructure:"separator"` // single character
	Database  string `yaml:"database" mapstructure:"database"`   // relative to Dir
	CSV       bool   `yaml:"csv" mapstructure:"csv"`
	SQL       bool   `yaml:"sql" mapstructure:"sql"`
	CPP       bool   `yaml:"cpp" mapstructure:"cpp"`
	Fresh     bool   `yaml:"fresh" mapstructure:"fresh"` // drop tables before insert, false appends
}

// ObjectsConfig lists the system object list headers.
type ObjectsConfig struct {
	Files []string `yaml:"files" mapstructure:"files"`
}

// EventsConfig configures subsystem and event extraction.
type EventsConfig struct {
	SubsystemFiles []string `yaml:"subsystem_files" mapstructure:"subsystem_files"`
	Sources        []string `yaml:"sources" mapstructure:"sources"`
	WindowSize     int      `yaml:"window_size" mapstructure:"window_size"`
	IncludeSources bool     `yaml:"include_sources" mapstructure:"include_sources"` // scan .cpp files too
}

// ReturnValuesConfig configures interface and return value extraction.
type ReturnValuesConfig struct {
	InterfaceFiles []string `yaml:"interface_files" mapstructure:"interface_files"`
	Sources        []string `yaml:"sources" mapstructure:"sources"`
	WindowSize     int      `yaml:"window_size" mapstructure:"window_size"`
}

// SubservicesConfig configures subservice extraction.
type SubservicesConfig struct {
	Sources []string `yaml:"sources" mapstructure:"sources"`
}

// DeviceCommandsConfig configures the two device command passes.
type DeviceCommandsConfig struct {
	HandlerSources []string `yaml:"handler_sources" mapstructure:"handler_sources"`
	PacketSources  []string `yaml:"packet_sources" mapstructure:"packet_sources"`
	CommandIDType  string   `yaml:"command_id_type" mapstructure:"command_id_type"`
}

// PacketContentConfig configures service packet extraction.
type PacketContentConfig struct {
	Sources []string `yaml:"sources" mapstructure:"sources"`
}

// CacheConfig controls the shared line cache.
type CacheConfig struct {
	LineCacheSize int `yaml:"line_cache_size" mapstructure:"line_cache_size"` // files kept in memory, 0 disables
}

// Default returns a configuration laid out for an FSFW example project.
func Default() *Config {
	return &Config{
		Discovery: DiscoveryConfig{
			Suffixes: []string{".h", ".hpp"},
			Ignore: []string{
				"build/**",
				"cmake-build-*/**",
				".git/**",
				"**/unittests/**",
			},
		},
		Output: OutputConfig{
			Dir:       "generators",
			Separator: ";",
			Database:  "fsfw_mod.db",
			CSV:       true,
			SQL:       true,
			CPP:       true,
			Fresh:     true,
		},
		Objects: ObjectsConfig{
			Files: []string{
				"bsp_hosted/fsfwconfig/objects/systemObjectList.h",
				"fsfw/src/fsfw/objectmanager/frameworkObjects.h",
				"example_common/config/commonObjects.h",
			},
		},
		Events: EventsConfig{
			SubsystemFiles: []string{
				"bsp_hosted/fsfwconfig/events/subsystemIdRanges.h",
				"fsfw/src/fsfw/events/fwSubsystemIdRanges.h",
				"example_common/config/commonSubsystemIds.h",
			},
			Sources:    []string{"bsp_hosted", "fsfw", "example_common"},
			WindowSize: 7,
		},
		ReturnValues: ReturnValuesConfig{
			InterfaceFiles: []string{
				"fsfw/src/fsfw/returnvalues/FwClassIds.h",
				"example_common/config/commonClassIds.h",
				"bsp_hosted/fsfwconfig/returnvalues/classIds.h",
			},
			Sources:    []string{"bsp_hosted", "fsfw", "example_common"},
			WindowSize: 7,
		},
		Subservices: SubservicesConfig{
			Sources: []string{"mission", "fsfw/pus"},
		},
		DeviceCommands: DeviceCommandsConfig{
			HandlerSources: []string{"mission/devices"},
			PacketSources:  []string{"mission/devices/devicepackets"},
			CommandIDType:  "DeviceCommandId_t",
		},
		PacketContent: PacketContentConfig{
			Sources: []string{"mission/pus/servicepackets", "fsfw/pus/servicepackets"},
		},
		Cache: CacheConfig{
			LineCacheSize: 256,
		},
	}
}

// SeparatorRune returns the tabular field separator.
func (c *Config) SeparatorRune() rune {
	for _, r := range c.Output.Separator {
		return r
	}
	return ';'
}

// EventSuffixes returns the suffixes scanned for event declarations.
func (c *Config) EventSuffixes() []string {
	suffixes := slices.Clone(c.Discovery.Suffixes)
	if c.Events.IncludeSources && !slices.Contains(suffixes, ".cpp") {
		suffixes = append(suffixes, ".cpp")
	}
	return suffixes
}
