package crawl

import (
	"context"
	"time"

	"github.com/rohankatakam/gitemails/internal/errors"
	"github.com/rohankatakam/gitemails/internal/models"
	"github.com/rohankatakam/gitemails/internal/output"
	"github.com/sirupsen/logrus"
)

// Mirror is an optional second destination for rows and combinations
type Mirror interface {
	RowSink
	SaveCombos(ctx context.Context, combos []models.Identity) error
}

// Options describes one invocation
type Options struct {
	Account   models.Account
	Depth     int
	OutputDir string
	Mirror    Mirror // may be nil
}

// Summary reports what a run produced
type Summary struct {
	Stats
	UniqueCombos int
	DataFile     string
	CombosFile   string
	Duration     time.Duration
}

// Run crawls opts.Account (and, with Depth > 0, the commit authors it leads to),
// appending rows to github-data-<account>.csv and writing
// unique-combos-<account>.csv at the end. The combinations file is written even
// when the crawl fails part way, so partial results are kept.
func Run(ctx context.Context, source Source, opts Options, logger *logrus.Entry) (summary *Summary, err error) {
	if opts.Account.Name == "" {
		return nil, errors.ValidationErrorf("account name is required")
	}
	if opts.Depth < 0 {
		return nil, errors.ValidationErrorf("depth must be a non-negative integer, got %d", opts.Depth)
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}

	started := time.Now()
	log := logger.WithField("account", opts.Account.Name)

	rows, err := output.OpenRowWriter(opts.OutputDir, opts.Account.Name)
	if err != nil {
		return nil, err
	}

	summary = &Summary{DataFile: rows.Path()}
	combos := NewCombos()

	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = closeErr
		}

		path, writeErr := output.WriteCombos(opts.OutputDir, opts.Account.Name, combos.List())
		if writeErr != nil && err == nil {
			err = writeErr
		}
		summary.CombosFile = path

		if opts.Mirror != nil {
			// the run context may already be cancelled
			if mirrorErr := opts.Mirror.SaveCombos(context.WithoutCancel(ctx), combos.List()); mirrorErr != nil && err == nil {
				err = mirrorErr
			}
		}

		summary.UniqueCombos = combos.Len()
		summary.Duration = time.Since(started)
	}()

	var sink RowSink = rows
	if opts.Mirror != nil {
		sink = multiSink{rows, opts.Mirror}
	}

	walker := NewWalker(source, sink, combos, &summary.Stats, log)
	expander := NewExpander(source, walker, log)

	if err := expander.Expand(ctx, []models.Account{opts.Account}, opts.Depth); err != nil {
		return summary, err
	}
	return summary, nil
}

// multiSink writes each row to every sink in order
type multiSink []RowSink

func (m multiSink) WriteRow(ctx context.Context, row models.Row) error {
	for _, sink := range m {
		if err := sink.WriteRow(ctx, row); err != nil {
			return err
		}
	}
	return nil
}
