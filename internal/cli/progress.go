package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/fsfw-tools/mibgen/internal/parser"
)

// CLIProgressReporter draws one progress bar per extraction stage.
type CLIProgressReporter struct {
	quiet   bool
	w       io.Writer
	bar     *progressbar.ProgressBar
	started time.Time
}

var _ parser.ProgressReporter = (*CLIProgressReporter)(nil)

// NewCLIProgressReporter creates a reporter writing to w.
func NewCLIProgressReporter(quiet bool, w io.Writer) *CLIProgressReporter {
	return &CLIProgressReporter{quiet: quiet, w: w}
}

func (c *CLIProgressReporter) OnExtractStart(name string, totalFiles int) {
	if c.quiet || totalFiles == 0 {
		return
	}
	c.started = time.Now()
	c.bar = progressbar.NewOptions(totalFiles,
		progressbar.OptionSetWriter(c.w),
		progressbar.OptionSetDescription(fmt.Sprintf("Scanning %-14s", name)),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(c.w)
		}),
	)
}

func (c *CLIProgressReporter) OnFileProcessed(file string) {
	if c.quiet || c.bar == nil {
		return
	}
	c.bar.Add(1)
}

func (c *CLIProgressReporter) OnExtractComplete(name string, records int) {
	if c.quiet {
		return
	}
	if c.bar != nil {
		c.bar.Finish()
		c.bar = nil
		fmt.Fprintf(c.w, "✓ %s: %d records (%.1fs)\n", name, records, time.Since(c.started).Seconds())
	}
}
