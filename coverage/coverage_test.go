package coverage

import (
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestParseHeader(t *testing.T) {
	tests := []struct {
		header string
		want   Record
		ok     bool
	}{
		{"contig1 length_1000_cov_5.25", Record{1000, 5.25}, true},
		{"NODE_7_length_2345_cov_12.5_ID_13", Record{2345, 12.5}, true},
		{"NODE_8_length_300_cov_2.0", Record{300, 2.0}, true},
		{"k141_99 flag=1 multi=2.0000 len=512", Record{}, false},
		{"", Record{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseHeader(tt.header)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseHeader(%q) = %+v, %v; want %+v, %v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}

const binFasta = `>contig1 length_1000_cov_5.25
ACGTACGTAC
GTACGT
>contig2 length_300_cov_2.0
ACGT
>no_stats_here
ACGT
>NODE_3_length_501_cov_17
ACGTTT
>NODE_4_length_500_cov_3.1
ACGTTT
`

func TestExtractCoverage(t *testing.T) {
	dir := t.TempDir()
	fa := filepath.Join(dir, "bin.1.fa")
	writeFile(t, fa, binFasta)

	records, err := ExtractCoverage(fa, 500)
	if err != nil {
		t.Fatalf("ExtractCoverage: %v", err)
	}
	want := []Record{{1000, 5.25}, {501, 17}}
	if len(records) != len(want) {
		t.Fatalf("got %d records %+v, want %+v", len(records), records, want)
	}
	for i := range want {
		if records[i] != want[i] {
			t.Errorf("record %d = %+v, want %+v", i, records[i], want[i])
		}
	}
}

func TestExtractCoverageGzip(t *testing.T) {
	dir := t.TempDir()
	fa := filepath.Join(dir, "bin.2.fa.gz")
	f, err := os.Create(fa)
	if err != nil {
		t.Fatal(err)
	}
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte(binFasta)); err != nil {
		t.Fatal(err)
	}
	gz.Close()
	f.Close()

	records, err := ExtractCoverage(fa, 500)
	if err != nil {
		t.Fatalf("ExtractCoverage: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("got %d records from gzipped FASTA, want 2", len(records))
	}
}

func TestExtractCoverageMissingFile(t *testing.T) {
	if _, err := ExtractCoverage(filepath.Join(t.TempDir(), "nope.fa"), 500); err == nil {
		t.Error("expected an error for a missing FASTA file")
	}
}

func TestWriteAndReadCoverage(t *testing.T) {
	out := filepath.Join(t.TempDir(), "S1_binned_coverage.txt")
	records := []Record{{1000, 5.25}, {650, 3}, {12000, 11.75}}
	if err := WriteCoverage(out, records); err != nil {
		t.Fatalf("WriteCoverage: %v", err)
	}

	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if want := "Length,Coverage\n1000,5.25\n650,3\n12000,11.75\n"; string(raw) != want {
		t.Errorf("CSV content = %q, want %q", raw, want)
	}

	df, err := ReadCoverageTable(out)
	if err != nil {
		t.Fatalf("ReadCoverageTable: %v", err)
	}
	if df.Nrow() != 3 {
		t.Fatalf("got %d rows, want 3", df.Nrow())
	}
	df = FilterMinLength(df, 1000)
	cov, length := Columns(df)
	if len(cov) != 2 || cov[0] != 5.25 || length[1] != 12000 {
		t.Errorf("filtered columns = %v / %v", cov, length)
	}
}

func TestReadCoverageTableBadHeader(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad_binned_coverage.txt")
	writeFile(t, p, "Len,Cov\n1000,2.5\n")
	df, err := ReadCoverageTable(p)
	if err == nil {
		t.Error("expected an error for missing columns")
	}
	if df.Nrow() != 0 {
		t.Errorf("expected an empty table, got %d rows", df.Nrow())
	}
}

func TestClassifyBinFiles(t *testing.T) {
	binned, unbinned := ClassifyBinFiles([]string{"bin.1.fa", "bin.2.fa", "unbinned.fa", "bin.3.fa.fai", "notes.txt"})
	if len(binned) != 2 || binned[0] != "bin.1.fa" || binned[1] != "bin.2.fa" {
		t.Errorf("binned = %v", binned)
	}
	if unbinned != "unbinned.fa" {
		t.Errorf("unbinned = %q", unbinned)
	}

	binned, unbinned = ClassifyBinFiles([]string{"bin.unbinned.fa"})
	if len(binned) != 0 || unbinned != "" {
		t.Errorf("bin.unbinned.fa should be neither: %v %q", binned, unbinned)
	}
}

func TestProcessDirectory(t *testing.T) {
	base := t.TempDir()
	s1 := filepath.Join(base, "SRR001", "concoct_bins")
	writeFile(t, filepath.Join(s1, "1.fa"), ">a length_1000_cov_5.25\nACGT\n")
	writeFile(t, filepath.Join(s1, "2.fa"), ">b length_2000_cov_8.5\nACGT\n>c length_100_cov_1.0\nACGT\n")
	writeFile(t, filepath.Join(s1, "unbinned.fa"), ">u length_800_cov_1.5\nACGT\n")
	s2 := filepath.Join(base, "SRR002", "concoct_bins")
	writeFile(t, filepath.Join(s2, "unbinned.fa"), ">u length_200_cov_1.5\nACGT\n")
	writeFile(t, filepath.Join(base, "SRR003", "metabat_bins", "1.fa"), ">a length_1000_cov_5.25\nACGT\n")

	results, err := ProcessDirectory(context.Background(), Options{
		BaseDir:   base,
		Marker:    "concoct_bins",
		MinLength: 500,
		Threads:   2,
	})
	if err != nil {
		t.Fatalf("ProcessDirectory: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	r1 := results[0]
	if r1.Sample != "SRR001" || r1.BinnedRecords != 2 || r1.UnbinnedRecords != 1 {
		t.Errorf("unexpected SRR001 result: %+v", r1)
	}
	if r1.BinnedOutput != filepath.Join(s1, "SRR001_binned_coverage.txt") {
		t.Errorf("binned output = %q", r1.BinnedOutput)
	}
	df, err := ReadCoverageTable(r1.BinnedOutput)
	if err != nil || df.Nrow() != 2 {
		t.Errorf("binned table of SRR001: rows=%d err=%v", df.Nrow(), err)
	}

	r2 := results[1]
	if r2.Sample != "SRR002" || r2.UnbinnedOutput != "" || r2.BinnedOutput != "" {
		t.Errorf("SRR002 has no qualifying contigs, got %+v", r2)
	}
	if _, err := os.Stat(filepath.Join(s2, "SRR002_unbinned_coverage.txt")); !os.IsNotExist(err) {
		t.Error("no output file should be written for SRR002")
	}
}

func TestAggregate(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "S1", "concoct_bins", "S1_binned_coverage.txt"), "Length,Coverage\n1000,5.25\n400,2\n")
	writeFile(t, filepath.Join(base, "S2", "concoct_bins", "S2_binned_coverage.txt"), "Length,Coverage\n500,7\n")
	writeFile(t, filepath.Join(base, "S2", "concoct_bins", "S2_unbinned_coverage.txt"), "Length,Coverage\n900,1\n")
	writeFile(t, filepath.Join(base, "S3", "concoct_bins", "S3_binned_coverage.txt"), "garbage")
	writeFile(t, filepath.Join(base, "S4", "other", "S4_binned_coverage.txt"), "Length,Coverage\n5000,9\n")

	binned, err := Aggregate(base, BinnedSuffix, "concoct_bins", 500, nil)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if binned.Nrow() != 2 {
		t.Errorf("binned rows = %d, want 2", binned.Nrow())
	}
	unbinned, err := Aggregate(base, UnbinnedSuffix, "concoct_bins", 500, nil)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if unbinned.Nrow() != 1 {
		t.Errorf("unbinned rows = %d, want 1", unbinned.Nrow())
	}

	sources, err := CollectSources(base, "concoct_bins", 500, nil)
	if err != nil {
		t.Fatalf("CollectSources: %v", err)
	}
	if len(sources) != 3 {
		t.Errorf("got %d readable sources, want 3", len(sources))
	}
	for _, src := range sources {
		if !strings.Contains(src.Path, "concoct_bins") {
			t.Errorf("table outside a bin directory collected: %s", src.Path)
		}
	}
}

func TestAggregateNoFiles(t *testing.T) {
	df, err := Aggregate(t.TempDir(), BinnedSuffix, "concoct_bins", 500, nil)
	if err != nil {
		t.Fatalf("Aggregate on an empty tree: %v", err)
	}
	if df.Nrow() != 0 {
		t.Errorf("expected an empty table, got %d rows", df.Nrow())
	}
	if cov, length := Columns(df); cov != nil || length != nil {
		t.Errorf("expected nil columns, got %v %v", cov, length)
	}
}
