package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Sink persists a validated dataset somewhere besides the output files.
type Sink interface {
	Replace(ctx context.Context, ds Dataset) error
}

// Observer is told about every finished validation, successful or not.
type Observer interface {
	Observe(rep *Report, err error)
}

// PipelineOptions configures a Pipeline.
type PipelineOptions struct {
	Input      Paths
	Output     Paths
	ReportPath string // YAML report file; empty disables it
	SampleSize int

	Sink     Sink     // optional
	Observer Observer // optional
	Logger   *slog.Logger
	Stdout   io.Writer // text report destination; defaults to os.Stdout
}

// Pipeline runs load -> validate -> save.
type Pipeline struct {
	opts      PipelineOptions
	validator *Validator
}

// NewPipeline creates a Pipeline.
func NewPipeline(opts PipelineOptions) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	return &Pipeline{
		opts:      opts,
		validator: NewValidator(opts.Logger, opts.SampleSize),
	}
}

// Run executes the pipeline once. A hard invariant violation stops it
// before anything is written.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	log := p.opts.Logger

	ds, err := LoadDataset(ctx, p.opts.Input, log)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}

	ds, rep, err := p.validator.Validate(ds)
	if p.opts.Observer != nil {
		p.opts.Observer.Observe(rep, err)
	}
	if werr := rep.WriteText(p.opts.Stdout); werr != nil {
		log.Warn("failed to print report", "error", werr)
	}
	if err != nil {
		return rep, err
	}

	if err := SaveDataset(ctx, ds, p.opts.Output, log); err != nil {
		return rep, err
	}

	if p.opts.Sink != nil {
		if err := p.opts.Sink.Replace(ctx, ds); err != nil {
			return rep, fmt.Errorf("sink: %w", err)
		}
		log.Info("validated data stored in database")
	}

	if p.opts.ReportPath != "" {
		if err := writeReportFile(p.opts.ReportPath, rep); err != nil {
			return rep, err
		}
		log.Info("report written", "path", p.opts.ReportPath)
	}

	return rep, nil
}

func writeReportFile(path string, rep *Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := rep.WriteYAML(f); err != nil {
		f.Close()
		return fmt.Errorf("report: %w", err)
	}
	return f.Close()
}
