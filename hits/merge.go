package hits

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/shenwei356/xopen"
)

// Column positions in a tabular hit report.
const (
	TargetField  = 0
	AliFromField = 8
	AliToField   = 9
	EValueField  = 12
	MinFields    = EValueField + 1
)

var codeTablePattern = regexp.MustCompile(`ct(\d+)\.tbl`)

// CodeTable returns the genetic-code table number embedded in a hit file
// name, e.g. "7" for DNA_Viruses_kingdom_sprot_ct7.tbl.
func CodeTable(fileName string) (string, bool) {
	m := codeTablePattern.FindStringSubmatch(fileName)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Key identifies a hit location. At most one row per key survives a merge.
type Key struct {
	Target  string
	AliFrom string
	AliTo   string
}

// Row is one data line of a hit report, already tagged with its code table.
type Row struct {
	Fields  []string
	EValue  float64
	AliFrom int
	Source  string
	Line    int
}

func (r Row) Key() Key {
	return Key{Target: r.Fields[TargetField], AliFrom: r.Fields[AliFromField], AliTo: r.Fields[AliToField]}
}

func (r Row) String() string {
	return strings.Join(r.Fields, "\t")
}

// ParseRow splits a data line on whitespace and appends "ct<codeTable>" as
// a final field.
func ParseRow(line, codeTable string) (Row, error) {
	fields := strings.Fields(line)
	if len(fields) < MinFields {
		return Row{}, fmt.Errorf("expected at least %d fields, got %d", MinFields, len(fields))
	}
	evalue, err := strconv.ParseFloat(fields[EValueField], 64)
	if err != nil {
		return Row{}, fmt.Errorf("e-value %q: %w", fields[EValueField], err)
	}
	aliFrom, err := strconv.Atoi(fields[AliFromField])
	if err != nil {
		return Row{}, fmt.Errorf("alignment start %q: %w", fields[AliFromField], err)
	}
	fields = append(fields, "ct"+codeTable)
	return Row{Fields: fields, EValue: evalue, AliFrom: aliFrom}, nil
}

// Table is the pooled content of several hit reports.
type Table struct {
	Header    string // first comment line seen, without its newline
	HasHeader bool
	Rows      []Row
}

// Add reads one report. Comment lines only contribute the header, and only
// when no header has been seen yet; blank lines are ignored.
func (t *Table) Add(r io.Reader, source, codeTable string) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			if !t.HasHeader {
				t.Header, t.HasHeader = line, true
			}
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		row, err := ParseRow(line, codeTable)
		if err != nil {
			return fmt.Errorf("%s:%d: %w", source, lineNo, err)
		}
		row.Source, row.Line = source, lineNo
		t.Rows = append(t.Rows, row)
	}
	return scanner.Err()
}

// Dedup keeps, for every key, the row with the smallest e-value. On equal
// e-values the row seen first wins. Keys keep their first-seen order.
func Dedup(rows []Row) []Row {
	index := make(map[Key]int, len(rows))
	var kept []Row
	for _, r := range rows {
		k := r.Key()
		i, seen := index[k]
		if !seen {
			index[k] = len(kept)
			kept = append(kept, r)
			continue
		}
		if r.EValue < kept[i].EValue {
			kept[i] = r
		}
	}
	return kept
}

// SortRows orders rows by target name, then numeric alignment start.
func SortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		ti, tj := rows[i].Fields[TargetField], rows[j].Fields[TargetField]
		if ti != tj {
			return ti < tj
		}
		return rows[i].AliFrom < rows[j].AliFrom
	})
}

// Write emits the header, if any, then one tab-joined line per row.
func Write(w io.Writer, t Table) error {
	bw := bufio.NewWriter(w)
	if t.HasHeader {
		if _, err := bw.WriteString(t.Header + "\n"); err != nil {
			return err
		}
	}
	for _, r := range t.Rows {
		if _, err := bw.WriteString(r.String() + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Merge deduplicates and sorts the pooled rows in place.
func (t *Table) Merge() {
	t.Rows = Dedup(t.Rows)
	SortRows(t.Rows)
}

// Summary describes one CombineFiles call.
type Summary struct {
	Output   string
	Read     []string // files that contributed rows
	Missing  []string // listed files that do not exist
	Untagged []string // files without a ct<N>.tbl name; their rows are dropped
	RowsIn   int
	RowsOut  int
}

// CombineFiles merges the hit reports named in files (relative to dir) into
// output. Missing files and files without a code table in their name are
// logged and skipped.
func CombineFiles(files []string, dir, output string, logger *slog.Logger) (Summary, error) {
	if logger == nil {
		logger = slog.Default()
	}
	summary := Summary{Output: output}
	var table Table

	for _, name := range files {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				logger.Warn("File not found", "FILE", name)
				summary.Missing = append(summary.Missing, name)
				continue
			}
			return summary, err
		}
		ct, ok := CodeTable(name)
		if !ok {
			logger.Warn("No code table in file name, rows dropped", "FILE", name)
			summary.Untagged = append(summary.Untagged, name)
			continue
		}
		if err := addFile(&table, path, name, ct); err != nil {
			return summary, err
		}
		summary.Read = append(summary.Read, name)
	}

	summary.RowsIn = len(table.Rows)
	table.Merge()
	summary.RowsOut = len(table.Rows)

	if err := writeFile(output, table); err != nil {
		return summary, fmt.Errorf("writing %s: %w", output, err)
	}
	logger.Info("Combined data saved", "OUTPUT", output, "ROWS_IN", summary.RowsIn, "ROWS_OUT", summary.RowsOut)
	return summary, nil
}

func addFile(t *Table, path, name, ct string) error {
	fh, err := xopen.Ropen(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer fh.Close()
	return t.Add(fh, name, ct)
}

func writeFile(output string, t Table) (err error) {
	if dir := filepath.Dir(output); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	fh, err := xopen.Wopen(output)
	if err != nil {
		return err
	}
	defer func() {
		if cErr := fh.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()
	return Write(fh, t)
}
