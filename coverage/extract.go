package coverage

import (
	"encoding/csv"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"github.com/shenwei356/xopen"
)

// Assembler headers look like >NODE_12_length_1520_cov_7.413.
var headerPattern = regexp.MustCompile(`length_(\d+)_cov_([\d.]+)`)

type Record struct {
	Length   int
	Coverage float64
}

// ParseHeader pulls length and coverage out of a FASTA header.
func ParseHeader(header string) (Record, bool) {
	m := headerPattern.FindStringSubmatch(header)
	if m == nil {
		return Record{}, false
	}
	length, err := strconv.Atoi(m[1])
	if err != nil {
		return Record{}, false
	}
	cov, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return Record{}, false
	}
	return Record{Length: length, Coverage: cov}, true
}

// ExtractCoverage returns a record for every sequence in fastaPath whose
// header carries length/coverage and whose length is greater than minLength.
// Gzipped files are read transparently.
func ExtractCoverage(fastaPath string, minLength int) ([]Record, error) {
	fh, err := xopen.Ropen(fastaPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", fastaPath, err)
	}
	defer fh.Close()

	r := fasta.NewReader(fh, linear.NewSeq("", nil, alphabet.DNA))
	sc := seqio.NewScanner(r)

	var records []Record
	for sc.Next() {
		s := sc.Seq().(*linear.Seq)
		rec, ok := ParseHeader(s.ID + " " + s.Desc)
		if !ok || rec.Length <= minLength {
			continue
		}
		records = append(records, rec)
	}
	if err := sc.Error(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", fastaPath, err)
	}
	return records, nil
}

// WriteCoverage writes records as a Length,Coverage CSV.
func WriteCoverage(outputFile string, records []Record) (err error) {
	file, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("failed to create coverage CSV: %w", err)
	}
	defer func() {
		if cErr := file.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{LengthColumn, CoverageColumn}); err != nil {
		return err
	}
	for _, rec := range records {
		row := []string{strconv.Itoa(rec.Length), strconv.FormatFloat(rec.Coverage, 'f', -1, 64)}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
