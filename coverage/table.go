package coverage

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/samber/lo"
	"github.com/shenwei356/xopen"
)

const (
	LengthColumn   = "Length"
	CoverageColumn = "Coverage"
)

type Class int

const (
	Binned Class = iota
	Unbinned
)

func (c Class) String() string {
	if c == Unbinned {
		return "Unbinned"
	}
	return "Binned"
}

// Suffix is the file name suffix of coverage tables of this class.
func (c Class) Suffix() string {
	if c == Unbinned {
		return UnbinnedSuffix
	}
	return BinnedSuffix
}

// ClassOf classifies a coverage table by its file name.
func ClassOf(name string) (Class, bool) {
	switch {
	case strings.HasSuffix(name, UnbinnedSuffix):
		return Unbinned, true
	case strings.HasSuffix(name, BinnedSuffix):
		return Binned, true
	}
	return Binned, false
}

// Source is one coverage table read from disk.
type Source struct {
	Path  string
	Class Class
	Table dataframe.DataFrame
}

// EmptyTable returns a zero-row Length/Coverage table.
func EmptyTable() dataframe.DataFrame {
	return dataframe.New(
		series.New([]int{}, series.Int, LengthColumn),
		series.New([]float64{}, series.Float, CoverageColumn),
	)
}

// ReadCoverageTable loads a Length,Coverage CSV.
func ReadCoverageTable(path string) (dataframe.DataFrame, error) {
	fh, err := xopen.Ropen(path)
	if err != nil {
		return EmptyTable(), err
	}
	defer fh.Close()

	df := dataframe.ReadCSV(fh, dataframe.WithTypes(map[string]series.Type{
		LengthColumn:   series.Int,
		CoverageColumn: series.Float,
	}))
	if df.Err != nil {
		return EmptyTable(), df.Err
	}
	names := df.Names()
	for _, col := range []string{LengthColumn, CoverageColumn} {
		if !lo.Contains(names, col) {
			return EmptyTable(), fmt.Errorf("required column %s not found in header", col)
		}
	}
	return df.Select([]string{LengthColumn, CoverageColumn}), nil
}

// FilterMinLength keeps rows with Length >= minLength.
func FilterMinLength(df dataframe.DataFrame, minLength int) dataframe.DataFrame {
	if df.Nrow() == 0 {
		return df
	}
	return df.Filter(dataframe.F{
		Colname:    LengthColumn,
		Comparator: series.GreaterEq,
		Comparando: minLength,
	})
}

// FindTables returns every file under baseDir whose name contains suffix and
// whose directory path contains marker, in walk order.
func FindTables(baseDir, suffix, marker string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.Contains(d.Name(), suffix) && strings.Contains(filepath.Dir(path), marker) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", baseDir, err)
	}
	return files, nil
}

// CollectSources reads every binned and unbinned coverage table under
// baseDir. Unreadable tables are logged and skipped.
func CollectSources(baseDir, marker string, minLength int, logger *slog.Logger) ([]Source, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var sources []Source
	for _, class := range []Class{Binned, Unbinned} {
		files, err := FindTables(baseDir, class.Suffix(), marker)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			df, rErr := ReadCoverageTable(f)
			if rErr != nil {
				logger.Warn("Failed to read coverage table", "FILE", f, "ERROR", rErr.Error())
				continue
			}
			sources = append(sources, Source{Path: f, Class: class, Table: FilterMinLength(df, minLength)})
		}
	}
	return sources, nil
}

// Concat stacks the tables of all sources of one class.
func Concat(sources []Source, class Class) dataframe.DataFrame {
	var lengths []int
	var covs []float64
	for _, s := range sources {
		if s.Class != class || s.Table.Nrow() == 0 {
			continue
		}
		l, err := s.Table.Col(LengthColumn).Int()
		if err != nil {
			continue
		}
		lengths = append(lengths, l...)
		covs = append(covs, s.Table.Col(CoverageColumn).Float()...)
	}
	if len(lengths) == 0 {
		return EmptyTable()
	}
	return dataframe.New(
		series.New(lengths, series.Int, LengthColumn),
		series.New(covs, series.Float, CoverageColumn),
	)
}

// Aggregate concatenates every coverage table matching suffix under
// baseDir, keeping rows with Length >= minLength. No matching file gives an
// empty table.
func Aggregate(baseDir, suffix, marker string, minLength int, logger *slog.Logger) (dataframe.DataFrame, error) {
	if logger == nil {
		logger = slog.Default()
	}
	files, err := FindTables(baseDir, suffix, marker)
	if err != nil {
		return EmptyTable(), err
	}
	class, _ := ClassOf(suffix)
	var sources []Source
	for _, f := range files {
		df, rErr := ReadCoverageTable(f)
		if rErr != nil {
			logger.Warn("Failed to read coverage table", "FILE", f, "ERROR", rErr.Error())
			continue
		}
		sources = append(sources, Source{Path: f, Class: class, Table: FilterMinLength(df, minLength)})
	}
	return Concat(sources, class), nil
}

// Columns returns the coverage and length columns as float slices.
func Columns(df dataframe.DataFrame) (coverage, length []float64) {
	if df.Nrow() == 0 {
		return nil, nil
	}
	return df.Col(CoverageColumn).Float(), df.Col(LengthColumn).Float()
}
