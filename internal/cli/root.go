// Package cli implements the mibgen command tree.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fsfw-tools/mibgen/internal/logging"
)

var (
	cfgFile  string
	rootDir  string
	verbose  bool
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mibgen",
	Short: "mibgen - FSFW Mission Information Base generator",
	Long: `mibgen extracts objects, events, return values, subservices, device handler
commands and packet content from annotated FSFW C++ headers and exports them as
CSV tables, an SQLite database and C++ translation sources.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is <root>/.mibgen/config.yml)")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", ".", "source tree all configured paths are relative to")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")

	// Bind flags to viper
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig lets MIBGEN_LOG_LEVEL and MIBGEN_VERBOSE override the defaults.
// Generator settings are loaded per run by the config package.
func initConfig() {
	viper.SetEnvPrefix("MIBGEN")
	viper.BindEnv("log_level")
	viper.BindEnv("verbose")
}

// newLogger builds the run logger from the global flags.
func newLogger(w io.Writer) *slog.Logger {
	level := logging.ParseLevel(viper.GetString("log_level"))
	if viper.GetBool("verbose") && level > slog.LevelDebug {
		level = slog.LevelDebug
	}
	return logging.New(level, w)
}
