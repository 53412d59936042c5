package pipeline

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gmaffy/metabin/coverage"
	"github.com/gmaffy/metabin/plotting"
)

const (
	KindScatter   = "scatter"
	KindJoint     = "joint"
	KindRidgeline = "ridgeline"
)

// Kinds lists the supported plot kinds in the order run executes them.
var Kinds = []string{KindScatter, KindJoint, KindRidgeline}

// DefaultOutput is the file a plot kind is written to when none is given.
func DefaultOutput(kind string) string {
	switch kind {
	case KindJoint:
		return "combined_length_vs_coverage_joint.png"
	case KindRidgeline:
		return "combined_coverage_plot.pdf"
	}
	return "combined_length_vs_coverage_scatter.png"
}

type PlotOptions struct {
	BaseDir   string
	Marker    string
	MinLength int
	Kind      string
	Output    string
	HTML      bool
	MaxPoints int
	Logger    *slog.Logger
}

func htmlName(output string) string {
	return strings.TrimSuffix(output, filepath.Ext(output)) + ".html"
}

// PlotCoverage aggregates the coverage tables under opts.BaseDir and renders
// one chart of the requested kind.
func PlotCoverage(opts PlotOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Output == "" {
		opts.Output = DefaultOutput(opts.Kind)
	}

	switch opts.Kind {
	case KindScatter, KindJoint:
		binnedDF, err := coverage.Aggregate(opts.BaseDir, coverage.BinnedSuffix, opts.Marker, opts.MinLength, logger)
		if err != nil {
			return err
		}
		unbinnedDF, err := coverage.Aggregate(opts.BaseDir, coverage.UnbinnedSuffix, opts.Marker, opts.MinLength, logger)
		if err != nil {
			return err
		}
		binned := plotting.FromTable(coverage.Binned.String(), binnedDF)
		unbinned := plotting.FromTable(coverage.Unbinned.String(), unbinnedDF)
		fmt.Printf("Binned data points: %d\nUnbinned data points: %d\n\n", binned.Len(), unbinned.Len())

		if opts.Kind == KindScatter {
			err = plotting.Scatter(binned, unbinned, opts.Output)
		} else {
			err = plotting.Joint(binned, unbinned, opts.Output)
		}
		if err != nil {
			return fmt.Errorf("%s plot: %w", opts.Kind, err)
		}
		if opts.HTML {
			if opts.Kind == KindScatter {
				err = plotting.ScatterHTML(binned, unbinned, htmlName(opts.Output), opts.MaxPoints)
			} else {
				err = plotting.JointHTML(binned, unbinned, htmlName(opts.Output), opts.MaxPoints)
			}
			if err != nil {
				return fmt.Errorf("%s html: %w", opts.Kind, err)
			}
		}

	case KindRidgeline:
		sources, err := coverage.CollectSources(opts.BaseDir, opts.Marker, opts.MinLength, logger)
		if err != nil {
			return err
		}
		stats, err := plotting.Ridgeline(sources, opts.Output)
		if err != nil {
			return fmt.Errorf("ridgeline plot: %w", err)
		}
		fmt.Printf("Binned data points: %d\nUnbinned data points: %d\n\n", stats.BinnedPoints, stats.UnbinnedPoints)
		if opts.HTML {
			if err := plotting.RidgelineHTML(sources, htmlName(opts.Output)); err != nil {
				return fmt.Errorf("ridgeline html: %w", err)
			}
		}

	default:
		return fmt.Errorf("unknown plot kind %q (want one of %s)", opts.Kind, strings.Join(Kinds, ", "))
	}

	fmt.Printf("Plot saved at: %s\n\n", opts.Output)
	return nil
}
