package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gmaffy/metabin/coverage"
	"github.com/gmaffy/metabin/hits"
	"github.com/gmaffy/metabin/utils"
)

const (
	Tool       = "METABIN"
	LogFile    = "metabin.log"
	AllSamples = "ALL"
)

// Stage names written to the run log.
const (
	StageExtract = "EXTRACT_COVERAGE"
	StagePlot    = "PLOT_"
	StageCombine = "COMBINE_HITS"
	StageMove    = "MOVE_FILES"
)

// MoveAndReport moves names from srcDir into destDir, logging each result.
// It returns an error listing the files that could not be moved.
func MoveAndReport(srcDir string, names []string, destDir string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	results := hits.MoveFiles(srcDir, names, destDir)
	for _, r := range results {
		switch {
		case r.AlreadyMoved:
			logger.Info("File already moved", "FILE", r.Name, "DESTINATION", r.Destination)
		case r.OK():
			logger.Info("Moved file", "FILE", r.Name, "DESTINATION", r.Destination)
		default:
			logger.Error("Could not move file", "FILE", r.Name, "ERROR", r.Err.Error())
		}
	}
	failed := hits.FailedMoves(results)
	if len(failed) == 0 {
		return nil
	}
	notMoved := make([]string, len(failed))
	for i, r := range failed {
		notMoved[i] = r.Name
	}
	return fmt.Errorf("%d of %d files not moved: %s", len(failed), len(results), strings.Join(notMoved, ", "))
}

// CombineGroup merges one configured group of hit files.
func CombineGroup(group utils.HitGroup, hitsDir string, logger *slog.Logger) (hits.Summary, error) {
	fmt.Printf("Combining %d %s hit files into %s ...\n\n", len(group.Files), group.Name, group.Output)
	summary, err := hits.CombineFiles(group.Files, hitsDir, group.Output, logger)
	if err != nil {
		return summary, err
	}
	fmt.Printf("Combined data saved to %s (%d rows kept of %d)\n\n", summary.Output, summary.RowsOut, summary.RowsIn)
	return summary, nil
}

type runner struct {
	logger *slog.Logger
	logged []utils.LogEntry
	force  bool
}

func (r runner) stage(program, sample string, fn func() error) error {
	if !r.force && utils.StageHasCompleted(r.logged, program, sample) {
		fmt.Printf("%s (%s) has already completed. Skipping.\n\n", program, sample)
		return nil
	}
	st := utils.Stage{Logger: r.logger, Tool: Tool, Program: program, Sample: sample}
	st.Started()
	if err := fn(); err != nil {
		st.Failed(err)
		return err
	}
	st.Completed()
	return nil
}

// Run executes every configured step: coverage extraction and the three
// plots when BaseDir is set, then every hit group and the file moves when
// HitsDir is set. Steps the run log records as completed are skipped unless
// force is set.
func Run(ctx context.Context, cfg utils.Config, force bool) error {
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	logFilePath := filepath.Join(cfg.OutputDir, LogFile)
	logged := utils.ParseLogFile(logFilePath)
	logger, closeLog, err := utils.OpenRunLog(logFilePath)
	if err != nil {
		return err
	}
	defer closeLog()

	r := runner{logger: logger, logged: logged, force: force}
	logger.Info(Tool, "PROGRAM", "INITIALISE", "SAMPLE", AllSamples, "STATUS", "STARTED", "CMD", "ALL")

	if cfg.BaseDir != "" {
		fmt.Printf("================================== Coverage Start ======================================\n\n")
		err := r.stage(StageExtract, AllSamples, func() error {
			results, err := coverage.ProcessDirectory(ctx, coverage.Options{
				BaseDir:   cfg.BaseDir,
				Marker:    cfg.BinMarker,
				MinLength: cfg.MinLength,
				Threads:   cfg.Threads,
				Logger:    logger,
			})
			if err != nil {
				return err
			}
			for _, res := range results {
				logger.Info("Coverage extracted", "SAMPLE", res.Sample, "BINNED", res.BinnedRecords, "UNBINNED", res.UnbinnedRecords)
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, kind := range Kinds {
			kind := kind
			err := r.stage(StagePlot+strings.ToUpper(kind), AllSamples, func() error {
				return PlotCoverage(PlotOptions{
					BaseDir:   cfg.BaseDir,
					Marker:    cfg.BinMarker,
					MinLength: cfg.MinLength,
					Kind:      kind,
					Output:    filepath.Join(cfg.OutputDir, DefaultOutput(kind)),
					HTML:      cfg.HTML,
					MaxPoints: cfg.MaxPoints,
					Logger:    logger,
				})
			})
			if err != nil {
				return err
			}
		}
		fmt.Printf("================================== Coverage End ======================================\n\n")
	}

	if cfg.HitsDir != "" {
		fmt.Printf("================================== Hits Start ======================================\n\n")
		for _, group := range cfg.Groups {
			group := group
			err := r.stage(StageCombine, group.Name, func() error {
				_, err := CombineGroup(group, cfg.HitsDir, logger)
				return err
			})
			if err != nil {
				return err
			}
		}
		if len(cfg.Moves) > 0 && cfg.MoveDest != "" {
			err := r.stage(StageMove, AllSamples, func() error {
				return MoveAndReport(cfg.HitsDir, cfg.Moves, cfg.MoveDest, logger)
			})
			if err != nil {
				return err
			}
		}
		fmt.Printf("================================== Hits End ======================================\n\n")
	}

	return ctx.Err()
}
