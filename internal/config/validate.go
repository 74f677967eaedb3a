package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/gobwas/glob"
)

var (
	// ErrEmptySuffixes indicates no scanned file suffix is configured
	ErrEmptySuffixes = errors.New("empty suffix list")

	// ErrInvalidSuffix indicates a suffix without a leading dot
	ErrInvalidSuffix = errors.New("invalid suffix")

	// ErrInvalidPattern indicates an ignore glob that does not compile
	ErrInvalidPattern = errors.New("invalid ignore pattern")

	// ErrEmptyOutputDir indicates a missing output directory
	ErrEmptyOutputDir = errors.New("empty output directory")

	// ErrInvalidSeparator indicates a separator that is not a single character
	ErrInvalidSeparator = errors.New("invalid separator")

	// ErrEmptyDatabase indicates a missing database name while SQL export is enabled
	ErrEmptyDatabase = errors.New("empty database name")

	// ErrInvalidWindow indicates a declaration window smaller than one line
	ErrInvalidWindow = errors.New("invalid window size")

	// ErrEmptyCommandIDType indicates a missing device command id type
	ErrEmptyCommandIDType = errors.New("empty command id type")

	// ErrInvalidCacheSettings indicates invalid cache configuration
	ErrInvalidCacheSettings = errors.New("invalid cache settings")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateDiscovery(&cfg.Discovery); err != nil {
		errs = append(errs, err)
	}
	if err := validateOutput(&cfg.Output); err != nil {
		errs = append(errs, err)
	}
	if err := validateExtraction(cfg); err != nil {
		errs = append(errs, err)
	}
	if cfg.Cache.LineCacheSize < 0 {
		errs = append(errs, fmt.Errorf("%w: line_cache_size cannot be negative, got %d", ErrInvalidCacheSettings, cfg.Cache.LineCacheSize))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateDiscovery(cfg *DiscoveryConfig) error {
	var errs []error

	if len(cfg.Suffixes) == 0 {
		errs = append(errs, fmt.Errorf("%w: at least one suffix required", ErrEmptySuffixes))
	}
	for _, s := range cfg.Suffixes {
		if !strings.HasPrefix(s, ".") || len(s) < 2 {
			errs = append(errs, fmt.Errorf("%w: '%s' must start with '.'", ErrInvalidSuffix, s))
		}
	}
	for _, p := range append(slices.Clone(cfg.Allow), cfg.Ignore...) {
		if _, err := glob.Compile(p, '/'); err != nil {
			errs = append(errs, fmt.Errorf("%w: '%s': %v", ErrInvalidPattern, p, err))
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateOutput(cfg *OutputConfig) error {
	var errs []error

	if strings.TrimSpace(cfg.Dir) == "" {
		errs = append(errs, fmt.Errorf("%w: dir is required", ErrEmptyOutputDir))
	}
	if utf8.RuneCountInString(cfg.Separator) != 1 {
		errs = append(errs, fmt.Errorf("%w: must be a single character, got '%s'", ErrInvalidSeparator, cfg.Separator))
	} else if cfg.Separator == "\"" || cfg.Separator == "\n" || cfg.Separator == "\r" {
		errs = append(errs, fmt.Errorf("%w: '%s' cannot separate fields", ErrInvalidSeparator, cfg.Separator))
	}
	if cfg.SQL && strings.TrimSpace(cfg.Database) == "" {
		errs = append(errs, fmt.Errorf("%w: database is required when sql export is enabled", ErrEmptyDatabase))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateExtraction(cfg *Config) error {
	var errs []error

	if cfg.Events.WindowSize < 1 {
		errs = append(errs, fmt.Errorf("%w: events.window_size must be positive, got %d", ErrInvalidWindow, cfg.Events.WindowSize))
	}
	if cfg.ReturnValues.WindowSize < 1 {
		errs = append(errs, fmt.Errorf("%w: returnvalues.window_size must be positive, got %d", ErrInvalidWindow, cfg.ReturnValues.WindowSize))
	}
	if strings.TrimSpace(cfg.DeviceCommands.CommandIDType) == "" {
		errs = append(errs, fmt.Errorf("%w: command_id_type is required", ErrEmptyCommandIDType))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
