package coverage

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

const (
	BinnedSuffix   = "_binned_coverage.txt"
	UnbinnedSuffix = "_unbinned_coverage.txt"
	UnbinnedFasta  = "unbinned.fa"
)

type Options struct {
	BaseDir   string
	Marker    string // path segment identifying binning output folders
	MinLength int
	Threads   int
	Logger    *slog.Logger
}

// BinDir is a binning output folder and its classified FASTA files.
type BinDir struct {
	Path     string
	Sample   string
	Binned   []string
	Unbinned string
}

type SampleResult struct {
	BinDir
	BinnedRecords   int
	UnbinnedRecords int
	BinnedOutput    string // empty when no qualifying record was found
	UnbinnedOutput  string
}

// ClassifyBinFiles splits directory entries into binned FASTA files and the
// unbinned one.
func ClassifyBinFiles(names []string) (binned []string, unbinned string) {
	binned = lo.Filter(names, func(name string, _ int) bool {
		return strings.HasSuffix(name, ".fa") && !strings.Contains(name, "unbinned")
	})
	if lo.Contains(names, UnbinnedFasta) {
		unbinned = UnbinnedFasta
	}
	return binned, unbinned
}

// FindBinDirs walks baseDir and returns every directory whose path contains
// marker. The sample name is the name of the bin directory's parent.
func FindBinDirs(baseDir, marker string) ([]BinDir, error) {
	var dirs []BinDir
	err := filepath.WalkDir(baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() || !strings.Contains(path, marker) {
			return nil
		}
		entries, rErr := os.ReadDir(path)
		if rErr != nil {
			return rErr
		}
		var names []string
		for _, e := range entries {
			if !e.IsDir() {
				names = append(names, e.Name())
			}
		}
		binned, unbinned := ClassifyBinFiles(names)
		dirs = append(dirs, BinDir{
			Path:     path,
			Sample:   filepath.Base(filepath.Dir(path)),
			Binned:   binned,
			Unbinned: unbinned,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", baseDir, err)
	}
	return dirs, nil
}

// ProcessDirectory extracts coverage for every bin directory under
// opts.BaseDir and writes <sample>_binned_coverage.txt and
// <sample>_unbinned_coverage.txt next to the FASTA files.
func ProcessDirectory(ctx context.Context, opts Options) ([]SampleResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dirs, err := FindBinDirs(opts.BaseDir, opts.Marker)
	if err != nil {
		return nil, err
	}
	fmt.Printf("Found %d bin directories under %s ...\n\n", len(dirs), opts.BaseDir)

	results := make([]SampleResult, len(dirs))
	g, ctx := errgroup.WithContext(ctx)
	if opts.Threads > 0 {
		g.SetLimit(opts.Threads)
	}
	for i := range dirs {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := processBinDir(dirs[i], opts.MinLength, logger)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	return results, nil
}

func processBinDir(dir BinDir, minLength int, logger *slog.Logger) (SampleResult, error) {
	res := SampleResult{BinDir: dir}

	var binned []Record
	for _, name := range dir.Binned {
		records, err := ExtractCoverage(filepath.Join(dir.Path, name), minLength)
		if err != nil {
			return res, err
		}
		binned = append(binned, records...)
	}
	res.BinnedRecords = len(binned)
	if len(dir.Binned) > 0 {
		out, err := writeIfAny(dir.Path, dir.Sample+BinnedSuffix, binned, logger)
		if err != nil {
			return res, err
		}
		res.BinnedOutput = out
	}

	if dir.Unbinned != "" {
		unbinned, err := ExtractCoverage(filepath.Join(dir.Path, dir.Unbinned), minLength)
		if err != nil {
			return res, err
		}
		res.UnbinnedRecords = len(unbinned)
		out, err := writeIfAny(dir.Path, dir.Sample+UnbinnedSuffix, unbinned, logger)
		if err != nil {
			return res, err
		}
		res.UnbinnedOutput = out
	}
	return res, nil
}

func writeIfAny(dir, name string, records []Record, logger *slog.Logger) (string, error) {
	if len(records) == 0 {
		logger.Info("No suitable data found to save", "DIR", dir, "OUTPUT", name)
		return "", nil
	}
	out := filepath.Join(dir, name)
	if err := WriteCoverage(out, records); err != nil {
		return "", fmt.Errorf("writing %s: %w", out, err)
	}
	return out, nil
}
