// Package pipeline runs the extraction stages a generator selection needs,
// in dependency order, and fans the resulting tables out to the exporters.
package pipeline

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/fsfw-tools/mibgen/internal/config"
	"github.com/fsfw-tools/mibgen/internal/extract"
	"github.com/fsfw-tools/mibgen/internal/git"
	"github.com/fsfw-tools/mibgen/internal/locator"
	"github.com/fsfw-tools/mibgen/internal/logging"
	"github.com/fsfw-tools/mibgen/internal/mib"
	"github.com/fsfw-tools/mibgen/internal/parser"
)

// Options configures a Pipeline.
type Options struct {
	// Root is the source tree all configured paths are relative to.
	Root   string
	Config *config.Config
	// Source supplies file lines. FileSource when nil.
	Source   parser.Source
	Progress parser.ProgressReporter
	Logger   *slog.Logger
	// Now stamps generated artifacts. Defaults to time.Now.
	Now func() time.Time
	// Print receives a YAML dump of every generated table when set.
	Print io.Writer
	// Git stamps runs with the source revision and branch. Nothing is recorded when nil.
	Git git.Operations
}

// Count is the number of entries one generator produced.
type Count struct {
	Generator Stage
	Entries   int
}

// Result holds the tables of one run. Tables of stages that did not run are nil.
type Result struct {
	RunID    string
	Revision string
	Branch   string

	Subsystems     *mib.Table[mib.Subsystem]
	Interfaces     *mib.Table[mib.Interface]
	DeviceInfo     *mib.Table[mib.HandlerInfo]
	Objects        *mib.Table[mib.Object]
	Events         *mib.Table[mib.Event]
	ReturnValues   *mib.Table[mib.ReturnValue]
	Subservices    *mib.Table[mib.Subservice]
	DeviceCommands *mib.Table[mib.DeviceCommand]
	PacketContent  *mib.Table[mib.PacketField]

	// Counts lists the exported generators in selector order.
	Counts []Count
}

// Pipeline executes generator selections against one source tree.
type Pipeline struct {
	opts   Options
	cfg    *config.Config
	logger *slog.Logger
}

// New creates a pipeline. A nil config means config.Default().
func New(opts Options) *Pipeline {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{
		opts:   opts,
		cfg:    cfg,
		logger: logging.OrDiscard(opts.Logger),
	}
}

// Run extracts and exports the tables named by selector. Stages run one
// after another; any fatal extraction or export error aborts the run.
func (p *Pipeline) Run(ctx context.Context, selector string) (*Result, error) {
	targets, err := Select(selector)
	if err != nil {
		return nil, err
	}
	plan, err := Plan(targets)
	if err != nil {
		return nil, err
	}

	res := &Result{RunID: uuid.New().String()}
	if p.opts.Git != nil {
		res.Revision = p.opts.Git.Revision(p.opts.Root)
		res.Branch = p.opts.Git.CurrentBranch(p.opts.Root)
	}
	p.logger.Info("starting generation", "selector", selector, "stages", len(plan), "run_id", res.RunID, "revision", res.Revision, "branch", res.Branch)

	for _, stage := range plan {
		if err := p.runStage(ctx, stage, res); err != nil {
			return nil, fmt.Errorf("stage %s: %w", stage, err)
		}
	}

	jobs := p.jobs(targets, res)
	for _, j := range jobs {
		res.Counts = append(res.Counts, Count{Generator: j.stage, Entries: j.entries})
		p.logger.Info("Found entries", "generator", j.stage, "count", j.entries)
	}

	if err := p.export(ctx, res, jobs); err != nil {
		return nil, err
	}
	return res, nil
}

func (p *Pipeline) runStage(ctx context.Context, stage Stage, res *Result) error {
	cfg := p.cfg
	o := extract.Options{
		Root:     p.opts.Root,
		Source:   p.opts.Source,
		Progress: p.opts.Progress,
		Logger:   p.logger,
	}
	suffixes := cfg.Discovery.Suffixes

	var err error
	switch stage {
	case StageSubsystems:
		var files []string
		if files, err = p.locate(cfg.Events.SubsystemFiles, suffixes, true); err == nil {
			res.Subsystems, err = extract.Subsystems(ctx, files, o)
		}
	case StageInterfaces:
		var files []string
		if files, err = p.locate(cfg.ReturnValues.InterfaceFiles, suffixes, true); err == nil {
			res.Interfaces, err = extract.Interfaces(ctx, files, o)
		}
	case StageDeviceInfo:
		var files []string
		if files, err = p.locate(cfg.DeviceCommands.HandlerSources, suffixes, false); err == nil {
			res.DeviceInfo, err = extract.DeviceInfo(ctx, files, cfg.DeviceCommands.CommandIDType, o)
		}
	case StageObjects:
		var files []string
		if files, err = p.locate(cfg.Objects.Files, suffixes, true); err == nil {
			var t *mib.Table[mib.Object]
			if t, err = extract.Objects(ctx, files, o); err == nil {
				res.Objects = mib.SortedBy(t, func(a, b mib.Object) int { return cmp.Compare(a.ID, b.ID) })
			}
		}
	case StageEvents:
		var files []string
		if files, err = p.locate(cfg.Events.Sources, cfg.EventSuffixes(), true); err == nil {
			var t *mib.Table[mib.Event]
			index := extract.NewSubsystemIndex(res.Subsystems)
			if t, err = extract.Events(ctx, files, index, cfg.Events.WindowSize, o); err == nil {
				res.Events = mib.SortedBy(t, func(a, b mib.Event) int { return cmp.Compare(a.ID, b.ID) })
			}
		}
	case StageReturnValues:
		var files []string
		if files, err = p.locate(cfg.ReturnValues.Sources, suffixes, true); err == nil {
			var t *mib.Table[mib.ReturnValue]
			index := extract.NewInterfaceIndex(res.Interfaces)
			if t, err = extract.ReturnValues(ctx, files, index, cfg.ReturnValues.WindowSize, o); err == nil {
				res.ReturnValues = mib.SortedBy(t, func(a, b mib.ReturnValue) int { return cmp.Compare(a.Code, b.Code) })
			}
		}
	case StageSubservices:
		var files []string
		if files, err = p.locate(cfg.Subservices.Sources, suffixes, true); err == nil {
			res.Subservices, err = extract.Subservices(ctx, files, o)
		}
	case StageDeviceCommands:
		var files []string
		if files, err = p.locate(cfg.DeviceCommands.PacketSources, suffixes, true); err == nil {
			res.DeviceCommands, err = extract.DeviceCommands(ctx, files, extract.NewDeviceInfoIndex(res.DeviceInfo), o)
		}
	case StagePacketContent:
		var files []string
		if files, err = p.locate(cfg.PacketContent.Sources, suffixes, true); err == nil {
			res.PacketContent, err = extract.PacketContent(ctx, files, o)
		}
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownType, stage)
	}
	return err
}

// locate resolves configured paths against the root and lists their files.
func (p *Pipeline) locate(paths, suffixes []string, recursive bool) ([]string, error) {
	l, err := locator.New(locator.Options{
		Suffixes:  suffixes,
		Allow:     p.cfg.Discovery.Allow,
		Ignore:    p.cfg.Discovery.Ignore,
		Recursive: recursive,
		Strict:    p.cfg.Discovery.Strict,
		Logger:    p.logger,
	})
	if err != nil {
		return nil, err
	}
	roots := make([]string, len(paths))
	for i, path := range paths {
		roots[i] = p.resolve(path)
	}
	return l.Locate(roots...)
}

func (p *Pipeline) resolve(path string) string {
	if filepath.IsAbs(path) || p.opts.Root == "" {
		return path
	}
	return filepath.Join(p.opts.Root, path)
}

// OutputDir returns the directory generated artifacts are written to.
func (p *Pipeline) OutputDir() string {
	return p.resolve(p.cfg.Output.Dir)
}

// Roots returns every configured source path, resolved against the root.
// Watch mode observes these.
func (p *Pipeline) Roots() []string {
	cfg := p.cfg
	var roots []string
	for _, group := range [][]string{
		cfg.Objects.Files,
		cfg.Events.SubsystemFiles, cfg.Events.Sources,
		cfg.ReturnValues.InterfaceFiles, cfg.ReturnValues.Sources,
		cfg.Subservices.Sources,
		cfg.DeviceCommands.HandlerSources, cfg.DeviceCommands.PacketSources,
		cfg.PacketContent.Sources,
	} {
		for _, path := range group {
			roots = append(roots, p.resolve(path))
		}
	}
	return roots
}

func (p *Pipeline) mkOutputDir() (string, error) {
	dir := p.OutputDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	return dir, nil
}
