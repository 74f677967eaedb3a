package pipeline

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/fsfw-tools/mibgen/internal/export"
	"github.com/fsfw-tools/mibgen/internal/mib"
)

// CSV file names per generator.
var csvNames = map[Stage]string{
	StageObjects:        "objects.csv",
	StageEvents:         "events.csv",
	StageReturnValues:   "returnvalues.csv",
	StageSubservices:    "mib_subservices.csv",
	StageDeviceCommands: "mib_device_commands.csv",
	StagePacketContent:  "mib_packet_data_content.csv",
}

// exportJob binds one generated table to every exporter.
type exportJob struct {
	stage   Stage
	entries int
	csv     func(path string, sep rune) error
	sql     func(ctx context.Context, s *export.SQLite) error
	yaml    func(w io.Writer) error
	cpp     func(tr export.Translator, dir string) error
}

func newJob[R any](stage Stage, layout mib.Layout[R], t *mib.Table[R]) exportJob {
	return exportJob{
		stage:   stage,
		entries: t.Len(),
		csv: func(path string, sep rune) error {
			return export.WriteCSVFile(path, layout, t, sep)
		},
		sql: func(ctx context.Context, s *export.SQLite) error {
			return export.WriteSQLite(ctx, s, layout, t)
		},
		yaml: func(w io.Writer) error {
			return export.WriteYAML(w, layout, t)
		},
	}
}

func (p *Pipeline) jobs(targets []Stage, res *Result) []exportJob {
	jobs := make([]exportJob, 0, len(targets))
	for _, stage := range targets {
		var j exportJob
		switch stage {
		case StageObjects:
			j = newJob(stage, mib.ObjectLayout, res.Objects)
			j.cpp = func(tr export.Translator, dir string) error {
				return tr.WriteObjectFiles(dir, res.Objects)
			}
		case StageEvents:
			j = newJob(stage, mib.EventLayout, res.Events)
			j.cpp = func(tr export.Translator, dir string) error {
				return tr.WriteEventFiles(dir, res.Events)
			}
		case StageReturnValues:
			j = newJob(stage, mib.ReturnValueLayout, res.ReturnValues)
		case StageSubservices:
			j = newJob(stage, mib.SubserviceLayout, res.Subservices)
		case StageDeviceCommands:
			j = newJob(stage, mib.DeviceCommandLayout, res.DeviceCommands)
		case StagePacketContent:
			j = newJob(stage, mib.PacketFieldLayout, res.PacketContent)
		default:
			continue
		}
		jobs = append(jobs, j)
	}
	return jobs
}

// export writes every job to the enabled exporters. The relational
// exporter holds one connection for the whole run.
func (p *Pipeline) export(ctx context.Context, res *Result, jobs []exportJob) error {
	out := p.cfg.Output
	if !out.CSV && !out.SQL && !out.CPP && p.opts.Print == nil {
		return nil
	}

	if p.opts.Print != nil {
		for _, j := range jobs {
			if err := j.yaml(p.opts.Print); err != nil {
				return err
			}
		}
	}
	if !out.CSV && !out.SQL && !out.CPP {
		return nil
	}

	dir, err := p.mkOutputDir()
	if err != nil {
		return err
	}

	if out.CSV {
		sep := p.cfg.SeparatorRune()
		for _, j := range jobs {
			path := filepath.Join(dir, csvNames[j.stage])
			if err := j.csv(path, sep); err != nil {
				return err
			}
			p.logger.Debug("wrote csv", "generator", j.stage, "file", path)
		}
	}

	if out.CPP {
		tr := export.Translator{Now: p.opts.Now}
		for _, j := range jobs {
			if j.cpp == nil {
				continue
			}
			if err := j.cpp(tr, dir); err != nil {
				return err
			}
			p.logger.Debug("wrote translation files", "generator", j.stage, "dir", dir)
		}
	}

	if out.SQL {
		path := filepath.Join(dir, out.Database)
		db, err := export.OpenSQLite(path, export.SQLiteOptions{
			Fresh:    out.Fresh,
			RunID:    res.RunID,
			Now:      p.opts.Now,
			Revision: res.Revision,
			Branch:   res.Branch,
		})
		if err != nil {
			return err
		}
		defer db.Close()

		for _, j := range jobs {
			if err := j.sql(ctx, db); err != nil {
				return fmt.Errorf("failed to export %s: %w", j.stage, err)
			}
		}
		p.logger.Debug("wrote database", "file", path)
	}
	return nil
}
