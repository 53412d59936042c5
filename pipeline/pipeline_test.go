package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gmaffy/metabin/utils"
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

func exists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected %s: %v", path, err)
	}
}

func hitLine(target, from, evalue string) string {
	return strings.Join([]string{target, "-", "q", "-", "1", "90", "1", "100", from, "900", "1", "5000", evalue, "25.3", "0.1", "desc"}, " ")
}

func testConfig(t *testing.T) utils.Config {
	t.Helper()
	root := t.TempDir()
	base := filepath.Join(root, "BINS")
	bins := filepath.Join(base, "SRR1", "concoct_bins")
	writeFile(t, filepath.Join(bins, "1.fa"), ">NODE_1_length_1500_cov_4.5\nACGT\n>NODE_2_length_9000_cov_11.25\nACGT\n")
	writeFile(t, filepath.Join(bins, "unbinned.fa"), ">NODE_3_length_700_cov_1.5\nACGT\n")

	hitsDir := filepath.Join(root, "Output_Bathsearch")
	writeFile(t, filepath.Join(hitsDir, "DNA_Viruses_ct1.tbl"), "# header\n"+hitLine("T1", "10", "1e-3")+"\n")
	writeFile(t, filepath.Join(hitsDir, "DNA_Viruses_ct11.tbl"), "# header\n"+hitLine("T1", "10", "1e-9")+"\n")
	writeFile(t, filepath.Join(hitsDir, "HAMAP_bath_bin82.tbl"), "x\n")

	return utils.Config{
		BaseDir:   base,
		OutputDir: filepath.Join(root, "out"),
		BinMarker: utils.DefaultBinMarker,
		MinLength: utils.DefaultMinLength,
		Threads:   2,
		MaxPoints: 100,
		HTML:      true,
		HitsDir:   hitsDir,
		MoveDest:  filepath.Join(root, "Output_Bathsearch_Combined"),
		Groups: []utils.HitGroup{{
			Name:   "virus",
			Output: filepath.Join(root, "Output_Bathsearch_Combined", "DNA_Viruses_ctcombined.tbl"),
			Files:  []string{"DNA_Viruses_ct11.tbl", "DNA_Viruses_ct1.tbl"},
		}},
		Moves: []string{"HAMAP_bath_bin82.tbl"},
	}
}

func TestRun(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	if err := Run(ctx, cfg, false); err != nil {
		t.Fatalf("Run: %v", err)
	}

	bins := filepath.Join(cfg.BaseDir, "SRR1", "concoct_bins")
	exists(t, filepath.Join(bins, "SRR1_binned_coverage.txt"))
	exists(t, filepath.Join(bins, "SRR1_unbinned_coverage.txt"))
	for _, kind := range Kinds {
		out := filepath.Join(cfg.OutputDir, DefaultOutput(kind))
		exists(t, out)
		exists(t, htmlName(out))
	}
	exists(t, cfg.Groups[0].Output)
	exists(t, filepath.Join(cfg.MoveDest, "HAMAP_bath_bin82.tbl"))

	raw, err := os.ReadFile(cfg.Groups[0].Output)
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Split(strings.TrimSpace(string(raw)), "\n"); len(lines) != 2 || !strings.HasSuffix(lines[1], "\tct11") {
		t.Errorf("unexpected combined report %q", raw)
	}

	entries := utils.ParseLogFile(filepath.Join(cfg.OutputDir, LogFile))
	for _, stage := range []string{StageExtract, "PLOT_SCATTER", "PLOT_JOINT", "PLOT_RIDGELINE", StageMove} {
		if !utils.StageHasCompleted(entries, stage, AllSamples) {
			t.Errorf("%s not logged as completed", stage)
		}
	}
	if !utils.StageHasCompleted(entries, StageCombine, "virus") {
		t.Error("virus group not logged as completed")
	}

	// completed stages are skipped, so the already moved file is not retried
	if err := Run(ctx, cfg, false); err != nil {
		t.Fatalf("resumed Run: %v", err)
	}

	// a forced rerun finds the file already at its destination
	if err := Run(ctx, cfg, true); err != nil {
		t.Fatalf("forced Run: %v", err)
	}
}

func TestRunResumesPartialMove(t *testing.T) {
	cfg := testConfig(t)
	cfg.BaseDir = ""
	cfg.Moves = []string{"HAMAP_bath_bin82.tbl", "DNA_Archaea_kingdom_sprot.tbl"}
	ctx := context.Background()
	logPath := filepath.Join(cfg.OutputDir, LogFile)

	err := Run(ctx, cfg, false)
	if err == nil || !strings.Contains(err.Error(), "DNA_Archaea_kingdom_sprot.tbl") {
		t.Fatalf("expected the missing file to be reported, got %v", err)
	}
	exists(t, filepath.Join(cfg.MoveDest, "HAMAP_bath_bin82.tbl"))
	if utils.StageHasCompleted(utils.ParseLogFile(logPath), StageMove, AllSamples) {
		t.Fatal("a partial move must not be logged as completed")
	}

	writeFile(t, filepath.Join(cfg.HitsDir, "DNA_Archaea_kingdom_sprot.tbl"), "a\n")
	if err := Run(ctx, cfg, false); err != nil {
		t.Fatalf("rerun after adding the missing file: %v", err)
	}
	exists(t, filepath.Join(cfg.MoveDest, "DNA_Archaea_kingdom_sprot.tbl"))
	if !utils.StageHasCompleted(utils.ParseLogFile(logPath), StageMove, AllSamples) {
		t.Error("MOVE_FILES not logged as completed after the rerun")
	}
}

func TestPlotCoverageUnknownKind(t *testing.T) {
	err := PlotCoverage(PlotOptions{BaseDir: t.TempDir(), Kind: "violin", Output: filepath.Join(t.TempDir(), "x.png")})
	if err == nil {
		t.Error("expected an error for an unknown plot kind")
	}
}

func TestPlotCoverageEmptyTree(t *testing.T) {
	out := filepath.Join(t.TempDir(), "scatter.png")
	err := PlotCoverage(PlotOptions{BaseDir: t.TempDir(), Marker: utils.DefaultBinMarker, MinLength: 500, Kind: KindScatter, Output: out})
	if err != nil {
		t.Fatalf("plotting an empty tree: %v", err)
	}
	exists(t, out)
}

func TestMoveAndReport(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "a.tbl"), "a")
	err := MoveAndReport(src, []string{"a.tbl", "b.tbl"}, filepath.Join(t.TempDir(), "dest"), nil)
	if err == nil || !strings.Contains(err.Error(), "b.tbl") || strings.Contains(err.Error(), "a.tbl") {
		t.Errorf("expected an error naming only b.tbl, got %v", err)
	}
}
